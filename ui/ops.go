package ui

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"droplab/domain/curve"
	"droplab/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readyProbeTimeout = 2 * time.Second

// OpsServer is the operational sidecar: liveness and readiness probes,
// Prometheus metrics, pprof, and a plain-text curve sanity table. It runs
// on its own port so none of this surfaces on the public API.
type OpsServer struct {
	router *chi.Mux
	ready  func(context.Context) error
	logger *internal.Logger
}

// NewOpsServer creates the sidecar. The ready probe must be cheap; in
// database mode it pings the connection, in synthetic mode it is a no-op.
func NewOpsServer(ready func(context.Context) error) *OpsServer {
	s := &OpsServer{
		router: chi.NewRouter(),
		ready:  ready,
		logger: internal.DefaultLogger.WithPrefix("OpsServer"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *OpsServer) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures the sidecar routes. The static /debug/curve route
// wins over the profiler's /debug wildcard.
func (s *OpsServer) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/debug/curve", s.handleCurveTable)
	s.router.Mount("/debug", middleware.Profiler())
}

// Start starts the sidecar HTTP server
func (s *OpsServer) Start(addr string) error {
	s.logger.Info("Starting ops server on http://%s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests
func (s *OpsServer) Handler() http.Handler {
	return s.router
}

func (s *OpsServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleReadyz reports whether the data plane can serve planning requests
func (s *OpsServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
	defer cancel()

	if err := s.ready(ctx); err != nil {
		s.logger.Warn("readiness probe failed: %v", err)
		http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleCurveTable prints the linear-vs-curve forecast ladder, a quick
// operator sanity check that the saturation model behaves.
func (s *OpsServer) handleCurveTable(w http.ResponseWriter, r *http.Request) {
	baseRate := curve.DefaultBaseConversionRate
	if raw := r.URL.Query().Get("base_rate"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			baseRate = v
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Hill curve vs linear model at base rate %.2f%%\n\n", baseRate)
	fmt.Fprintf(w, "%10s %12s %12s %12s %11s\n", "quantity", "linear", "curve", "eff rate", "overshoot")
	for _, q := range []float64{500, 1000, 2000, 4000, 8000, 16000} {
		mc := curve.CompareModels(q, baseRate)
		fmt.Fprintf(w, "%10.0f %12.1f %12.1f %11.2f%% %10.1f%%\n",
			q, mc.LinearConversions, mc.CurveConversions, mc.CurveRate, mc.OverestimatePercent)
	}
}
