package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"droplab/app"
	"droplab/domain/forecast"
	"droplab/internal/analysis/curvefit"
	"droplab/internal/cache"
	"droplab/internal/metrics"
	"droplab/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer builds the API over the synthetic nine-store fleet
func newTestServer() *Server {
	kit := testkit.NewKit()
	reader := kit.ReaderAdapter()
	fitter := curvefit.NewFitter()
	m := metrics.NewWith(nil)

	planning := app.NewPlanningService(reader, cache.NewMemory(), fitter, m, time.Minute)
	sweep := app.NewFleetSweepService(reader, fitter, m, 4)
	return NewServer(planning, sweep, gin.TestMode)
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthzEndpoint(t *testing.T) {
	w := doJSON(t, newTestServer(), "GET", "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCompareEndpoint(t *testing.T) {
	srv := newTestServer()
	w := doJSON(t, srv, "POST", "/api/planning/compare", `{
		"ai_store_id": "store-portland-1",
		"user_store_id": "store-portland-1",
		"ai_original_quantity": 1200,
		"user_override_quantity": 2400,
		"unit_cost": 0.55
	}`)

	require.Equal(t, http.StatusOK, w.Code)

	var result forecast.PerformanceComparison
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.Equal(t, "store-portland-1", result.AIRecommendation.StoreID)
	assert.Equal(t, float64(1200), result.AIRecommendation.Quantity)
	assert.Equal(t, float64(2400), result.UserOverride.Quantity)
	assert.Greater(t, result.AIRecommendation.ExpectedConversions, 0.0)
	assert.Greater(t, result.UserOverride.ExpectedConversions, 0.0)
	assert.NotEmpty(t, result.Recommendation)
	assert.NotEmpty(t, result.Delta.Label)
	// 8300 recipients per portland store, 83 proxy samples per side
	assert.Equal(t, forecast.ConfidenceHigh, result.Confidence)
	assert.True(t, result.DataQuality.Sufficient)
}

func TestCompareEndpointFailsSoftOnUnknownStore(t *testing.T) {
	srv := newTestServer()
	w := doJSON(t, srv, "POST", "/api/planning/compare", `{
		"ai_store_id": "store-nowhere-9",
		"ai_original_quantity": 1000,
		"user_override_quantity": 2000
	}`)

	require.Equal(t, http.StatusOK, w.Code)

	var result forecast.PerformanceComparison
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	// neutral placeholders, never an error
	assert.Equal(t, 50, result.AIRecommendation.BasePercentile)
	assert.Equal(t, 1.0, result.AIRecommendation.RegionalPerformanceIndex)
	assert.Equal(t, 1.0, result.AIRecommendation.SeasonalPerformanceIndex)
	assert.Equal(t, 0, result.AIRecommendation.HistoricalSampleSize)
	assert.False(t, result.DataQuality.Sufficient)
}

func TestCompareEndpointRejectsMalformedBody(t *testing.T) {
	w := doJSON(t, newTestServer(), "POST", "/api/planning/compare", `{"ai_store_id": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCompareEndpointRejectsNonPositiveQuantity(t *testing.T) {
	w := doJSON(t, newTestServer(), "POST", "/api/planning/compare", `{
		"ai_store_id": "store-portland-1",
		"ai_original_quantity": 0,
		"user_override_quantity": 2000
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ai_original_quantity")
}

func TestSweepEndpoint(t *testing.T) {
	srv := newTestServer()
	w := doJSON(t, srv, "POST", "/api/planning/sweep", `{"quantity": 2000, "unit_cost": 0.5}`)

	require.Equal(t, http.StatusOK, w.Code)

	var result app.SweepResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.Len(t, result.Rows, 9)
	assert.Equal(t, 9, result.Summary.Stores)
	assert.NotEmpty(t, result.FleetHash)
	for _, row := range result.Rows {
		assert.Greater(t, row.Result.ExpectedConversions, 0.0, "store %s", row.StoreID)
	}
}

func TestSweepEndpointRejectsNegativeQuantity(t *testing.T) {
	w := doJSON(t, newTestServer(), "POST", "/api/planning/sweep", `{"quantity": -10}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreCurveEndpoint(t *testing.T) {
	srv := newTestServer()
	w := doJSON(t, srv, "GET", "/api/stores/store-portland-1/curve?quantity=1500", "")

	require.Equal(t, http.StatusOK, w.Code)

	var sc app.StoreCurve
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sc))

	assert.Equal(t, "store-portland-1", string(sc.StoreID))
	assert.Equal(t, float64(1500), sc.Quantity)
	assert.Equal(t, curvefit.PathFitted, sc.EstimationPath)
	assert.Greater(t, sc.Result.ExpectedConversions, 0.0)
	require.NotNil(t, sc.Diagnostics)
	assert.Equal(t, 6, sc.Diagnostics.Samples)
}

func TestStoreCurveEndpointRequiresQuantity(t *testing.T) {
	w := doJSON(t, newTestServer(), "GET", "/api/stores/store-portland-1/curve", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "quantity")
}

func TestStoreReportEndpoint(t *testing.T) {
	srv := newTestServer()
	w := doJSON(t, srv, "GET", "/api/stores/store-portland-1/report?ai=1500&override=3000&unit_cost=0.5", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.Contains(t, body, "Planning Brief")
	assert.Contains(t, body, "store-portland-1")
	assert.Contains(t, body, "<table>")
}

func TestStoreReportEndpointRequiresQuantities(t *testing.T) {
	w := doJSON(t, newTestServer(), "GET", "/api/stores/store-portland-1/report?ai=1500", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "override")
}

func TestModelComparisonEndpoint(t *testing.T) {
	srv := newTestServer()
	w := doJSON(t, srv, "GET", "/api/planning/model-comparison?quantity=4000", "")

	require.Equal(t, http.StatusOK, w.Code)

	var mc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mc))

	// linear model: 4000 x 3% default base rate
	assert.Equal(t, float64(120), mc["linear_conversions"])
	assert.Greater(t, mc["curve_conversions"], 0.0)
}

func TestModelComparisonEndpointRequiresQuantity(t *testing.T) {
	w := doJSON(t, newTestServer(), "GET", "/api/planning/model-comparison", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
