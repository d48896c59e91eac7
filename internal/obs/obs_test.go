package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestWithCorrelation_MergesNonEmptyFields(t *testing.T) {
	ctx := WithTest(context.Background(), " TestLogin ", "rod")
	ctx = WithCorrelation(ctx, Correlation{RequestID: "req-1"})
	ctx = WithCorrelation(ctx, Correlation{Driver: ""})

	got := CorrelationFromContext(ctx)
	assert.Equal(t, Correlation{RequestID: "req-1", TestName: "TestLogin", Driver: "rod"}, got)
	assert.Equal(t, Correlation{}, CorrelationFromContext(nil)) //nolint:staticcheck
}

func TestFrom_AddsCorrelationAttrs(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutputForTests(&buf)
	defer restore()

	ctx := WithTest(context.Background(), "TestX", "memory")
	From(ctx).Info("hello")
	Pkg("uitest").Debug("plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "hello", lines[0]["msg"])
	assert.Equal(t, "TestX", lines[0]["test_name"])
	assert.Equal(t, "memory", lines[0]["driver"])
	assert.Equal(t, "uitest", lines[1]["pkg"])
	assert.NotContains(t, lines[1], "test_name")
}

func TestMiddleware_CorrelatesAndLogsAccess(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutputForTests(&buf)
	defer restore()

	var seen Correlation
	h := RequestContextMiddleware(AccessLogMiddleware("fixture", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("traceparent", "00-4BF92F3577B34DA6A3CE929D0E0E4736-00f067aa0ba902b7-01")
	req.Header.Set(HeaderTestName, "TestLogin")
	req.Header.Set(HeaderTestDriver, "chromedp")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", seen.TraceID)
	assert.Equal(t, seen.TraceID, seen.RequestID)
	assert.Equal(t, seen.RequestID, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "TestLogin", seen.TestName)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	access := lines[0]
	assert.Equal(t, "http_access", access["msg"])
	assert.Equal(t, "fixture", access["pkg"])
	assert.Equal(t, "/login", access["path"])
	assert.EqualValues(t, http.StatusTeapot, access["status"])
	assert.EqualValues(t, len("short and stout"), access["resp_bytes"])
	assert.Equal(t, "chromedp", access["driver"])
}

func TestRequestContextMiddleware_GeneratesRequestID(t *testing.T) {
	h := RequestContextMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	a, b := httptest.NewRecorder(), httptest.NewRecorder()
	h.ServeHTTP(a, httptest.NewRequest(http.MethodGet, "/", nil))
	h.ServeHTTP(b, httptest.NewRequest(http.MethodGet, "/", nil))

	idA := a.Header().Get(HeaderRequestID)
	assert.True(t, strings.HasPrefix(idA, "req-"), idA)
	assert.Len(t, idA, len("req-")+32)
	assert.NotEqual(t, idA, b.Header().Get(HeaderRequestID))
}

func testTraceIDFromRejectsMalformed(t *rapid.T) {
	s := rapid.String().Draw(t, "traceparent")
	id := traceIDFrom(s)
	if id == "" {
		return
	}
	if len(id) != 32 || strings.Trim(id, "0") == "" || strings.ToLower(id) != id {
		t.Fatalf("traceIDFrom(%q) = %q", s, id)
	}
}

func TestTraceIDFrom(t *testing.T) {
	assert.Equal(t, "", traceIDFrom("00-00000000000000000000000000000000-00f067aa0ba902b7-01"))
	assert.Equal(t, "", traceIDFrom("00-xyz-00f067aa0ba902b7-01"))
	assert.Equal(t, "", traceIDFrom(""))
	rapid.Check(t, testTraceIDFromRejectsMalformed)
}
