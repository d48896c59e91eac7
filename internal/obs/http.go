package obs

import (
	"net/http"
	"strings"
	"time"
)

// Headers a test run may send so fixture-server logs line up with the test
// that produced them.
const (
	HeaderRequestID  = "X-Request-Id"
	HeaderTestName   = "X-Uitest-Name"
	HeaderTestDriver = "X-Uitest-Driver"
)

// StatusWriter remembers the status code and body size of a response.
type StatusWriter struct {
	http.ResponseWriter
	status  int
	written int64
	sent    bool
}

type flushingStatusWriter struct {
	*StatusWriter
}

func (w *StatusWriter) WriteHeader(code int) {
	if w.sent {
		return
	}
	w.status = code
	w.sent = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *StatusWriter) Write(p []byte) (int, error) {
	if !w.sent {
		w.status = http.StatusOK
		w.sent = true
	}
	n, err := w.ResponseWriter.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *StatusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *flushingStatusWriter) Flush() {
	w.ResponseWriter.(http.Flusher).Flush()
}

func (w *StatusWriter) Status() int    { return w.status }
func (w *StatusWriter) Written() int64 { return w.written }

// WrapWriter returns a writer to hand to the next handler plus the
// StatusWriter that observes it. http.Flusher is preserved.
func WrapWriter(w http.ResponseWriter) (http.ResponseWriter, *StatusWriter) {
	sw := &StatusWriter{ResponseWriter: w, status: http.StatusOK}
	if _, ok := w.(http.Flusher); ok {
		return &flushingStatusWriter{StatusWriter: sw}, sw
	}
	return sw, sw
}

// RequestContextMiddleware puts a Correlation on the request context.
// The request id comes from X-Request-Id, then the traceparent trace id,
// then a fresh random id, and is echoed back on the response.
func RequestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header
		traceparent := strings.TrimSpace(h.Get("traceparent"))
		corr := Correlation{
			RequestID:   strings.TrimSpace(h.Get(HeaderRequestID)),
			TraceID:     traceIDFrom(traceparent),
			Traceparent: traceparent,
			TestName:    strings.TrimSpace(h.Get(HeaderTestName)),
			Driver:      strings.TrimSpace(h.Get(HeaderTestDriver)),
		}
		if corr.RequestID == "" {
			corr.RequestID = corr.TraceID
		}
		if corr.RequestID == "" {
			corr.RequestID = newRequestID()
		}
		w.Header().Set(HeaderRequestID, corr.RequestID)
		next.ServeHTTP(w, r.WithContext(WithCorrelation(r.Context(), corr)))
	})
}

// AccessLogMiddleware logs one http_access event per request.
func AccessLogMiddleware(pkg string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped, sw := WrapWriter(w)
		next.ServeHTTP(wrapped, r)

		From(r.Context()).With("pkg", pkg).Debug("http_access",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.Status(),
			"dur_ms", float64(time.Since(start).Microseconds())/1000.0,
			"resp_bytes", sw.Written(),
		)
	})
}

// traceIDFrom returns the trace id of a W3C traceparent header, or "" when
// the header is malformed or carries the all-zero id.
func traceIDFrom(traceparent string) string {
	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 {
		return ""
	}
	id := strings.ToLower(strings.TrimSpace(parts[1]))
	if len(id) != 32 || strings.Trim(id, "0") == "" {
		return ""
	}
	if strings.IndexFunc(id, func(r rune) bool {
		return (r < '0' || r > '9') && (r < 'a' || r > 'f')
	}) >= 0 {
		return ""
	}
	return id
}
