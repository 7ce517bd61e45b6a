package ui

import (
	"net/http"
	"strconv"
	"time"

	"droplab/app"
	"droplab/domain/core"
	"droplab/domain/curve"
	"droplab/internal"
	"droplab/internal/report"

	"github.com/gin-gonic/gin"
)

// Server is the planning API: comparison, sweep, per-store curves, and the
// HTML planning brief. All persistence lives behind the services it wraps.
type Server struct {
	router   *gin.Engine
	planning *app.PlanningService
	sweep    *app.FleetSweepService
	logger   *internal.Logger
}

// NewServer creates the API server over the planning services
func NewServer(planning *app.PlanningService, sweep *app.FleetSweepService, mode string) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}

	s := &Server{
		router:   gin.Default(),
		planning: planning,
		sweep:    sweep,
		logger:   internal.DefaultLogger.WithPrefix("Server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealthz)

	api := s.router.Group("/api")
	api.POST("/planning/compare", s.handleCompare)
	api.POST("/planning/sweep", s.handleSweep)
	api.GET("/planning/model-comparison", s.handleModelComparison)
	api.GET("/stores/:id/curve", s.handleStoreCurve)
	api.GET("/stores/:id/report", s.handleStoreReport)
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting DropLab planning API on http://%s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCompare runs the AI-vs-override comparison. Missing history never
// fails the request; only invalid quantities do.
func (s *Server) handleCompare(c *gin.Context) {
	var req app.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.planning.ComparePerformance(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleSweep evaluates a quantity across the whole fleet
func (s *Server) handleSweep(c *gin.Context) {
	var req app.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.sweep.Run(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleStoreCurve returns one store's derived curve configuration, its
// evaluation at the requested quantity, and fit diagnostics when the curve
// was fitted from history.
func (s *Server) handleStoreCurve(c *gin.Context) {
	storeID := core.StoreID(c.Param("id"))

	quantity, ok := floatQuery(c, "quantity")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity query parameter is required"})
		return
	}

	sc, err := s.planning.CurveForStore(c.Request.Context(), storeID, quantity)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

// handleStoreReport renders the HTML planning brief for one store: the
// comparison between the AI quantity and the override, plus the curve that
// produced it.
func (s *Server) handleStoreReport(c *gin.Context) {
	storeID := c.Param("id")

	aiQuantity, okAI := floatQuery(c, "ai")
	overrideQuantity, okOverride := floatQuery(c, "override")
	if !okAI || !okOverride {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ai and override query parameters are required"})
		return
	}
	unitCost, _ := floatQuery(c, "unit_cost")

	comparison, err := s.planning.ComparePerformance(c.Request.Context(), app.CompareRequest{
		AIStoreID:            core.StoreID(storeID),
		UserStoreID:          core.StoreID(storeID),
		AIOriginalQuantity:   aiQuantity,
		UserOverrideQuantity: overrideQuantity,
		UnitCost:             unitCost,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}

	sc, err := s.planning.CurveForStore(c.Request.Context(), core.StoreID(storeID), aiQuantity)
	if err != nil {
		s.renderError(c, err)
		return
	}

	html := report.HTML(report.BriefData{
		StoreID:        storeID,
		GeneratedAt:    time.Now(),
		Comparison:     comparison,
		Config:         sc.Config,
		EstimationPath: string(sc.EstimationPath),
	})
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// handleModelComparison contrasts the naive linear forecast with the
// saturation curve at one quantity. Diagnostic, no store context.
func (s *Server) handleModelComparison(c *gin.Context) {
	quantity, ok := floatQuery(c, "quantity")
	if !ok || quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity query parameter must be a positive number"})
		return
	}
	baseRate, _ := floatQuery(c, "base_rate")

	c.JSON(http.StatusOK, curve.CompareModels(quantity, baseRate))
}

// renderError maps domain errors onto HTTP statuses: invalid input is the
// caller's fault, missing data means the fleet is not ready, everything
// else is ours.
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case core.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case core.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case core.IsDataError(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func floatQuery(c *gin.Context, key string) (float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
