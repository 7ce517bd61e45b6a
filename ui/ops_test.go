package ui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doOps(t *testing.T, srv *OpsServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", path, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestOpsHealthz(t *testing.T) {
	srv := NewOpsServer(func(context.Context) error { return nil })
	w := doOps(t, srv, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestOpsReadyz(t *testing.T) {
	srv := NewOpsServer(func(context.Context) error { return nil })
	w := doOps(t, srv, "/readyz")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpsReadyzReportsProbeFailure(t *testing.T) {
	srv := NewOpsServer(func(context.Context) error { return errors.New("connection refused") })
	w := doOps(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not ready")
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestOpsMetrics(t *testing.T) {
	srv := NewOpsServer(func(context.Context) error { return nil })
	w := doOps(t, srv, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestOpsCurveTable(t *testing.T) {
	srv := NewOpsServer(func(context.Context) error { return nil })
	w := doOps(t, srv, "/debug/curve")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	body := w.Body.String()
	assert.Contains(t, body, "base rate 3.00%")
	assert.Contains(t, body, "quantity")
	assert.Contains(t, body, "16000")
}

func TestOpsCurveTableCustomBaseRate(t *testing.T) {
	srv := NewOpsServer(func(context.Context) error { return nil })
	w := doOps(t, srv, "/debug/curve?base_rate=5.5")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "base rate 5.50%")
}

func TestOpsPprofIndex(t *testing.T) {
	srv := NewOpsServer(func(context.Context) error { return nil })
	w := doOps(t, srv, "/debug/pprof/")

	assert.Equal(t, http.StatusOK, w.Code)
}
