package driver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/uihelpers/internal/config"
	"github.com/kuitang/uihelpers/internal/errs"
)

func newDocServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><input id="q" value="seed"></body></html>`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpen_Memory(t *testing.T) {
	t.Parallel()
	srv := newDocServer(t)
	ctx := context.Background()

	h, err := Open(ctx, &config.Config{Driver: config.DriverMemory}, srv.URL+"/")
	require.NoError(t, err)
	require.NotNil(t, h.DOM)
	assert.Equal(t, config.DriverMemory, h.Driver)

	got, err := h.Page.Value(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, "seed", got)

	assert.NoError(t, h.Close())
	assert.NoError(t, h.Close())
}

func TestOpen_InvalidConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := Open(ctx, nil, "http://127.0.0.1/")
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	_, err = Open(ctx, &config.Config{Driver: "selenium"}, "http://127.0.0.1/")
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
	assert.Contains(t, err.Error(), `"selenium"`)
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()
	srv := newDocServer(t)
	ctx := context.Background()

	_, err := Fetch(ctx, srv.Client(), srv.URL+"/missing")
	assert.Equal(t, errs.FailedPrecondition, errs.CodeOf(err))
	assert.Contains(t, err.Error(), "status 404")

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()
	_, err = Fetch(ctx, http.DefaultClient, deadURL)
	assert.Equal(t, errs.Unavailable, errs.CodeOf(err))

	_, err = Fetch(ctx, http.DefaultClient, "://bad")
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

func TestNilHandleClose(t *testing.T) {
	t.Parallel()
	var h *Handle
	assert.NoError(t, h.Close())
}
