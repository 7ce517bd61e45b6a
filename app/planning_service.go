package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"droplab/domain/core"
	"droplab/domain/curve"
	"droplab/domain/forecast"
	"droplab/domain/performance"
	"droplab/internal"
	"droplab/internal/analysis/curvefit"
	"droplab/internal/metrics"
	"droplab/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// Neutral fallbacks for every fail-soft path: missing data never fails a
// comparison, it degrades to the median percentile, an average index, and
// an empty sample.
const (
	neutralPercentile = 50
	neutralIndex      = 1.0
)

// recipientsPerSample approximates deployment count from total recipients.
// TODO: replace with a real deployment count once the reader port exposes one.
const recipientsPerSample = 100

const snapshotCacheKey = "planning:fleet-snapshot"

// PlanningService forecasts campaign outcomes on per-store response curves
// and compares an AI-recommended mailing quantity against a user override.
// Missing performance data degrades to neutral defaults; only invalid
// requests return errors.
type PlanningService struct {
	reader  ports.PerformanceReaderPort
	cache   ports.CachePort
	fitter  *curvefit.Fitter
	metrics *metrics.Metrics
	logger  *internal.Logger

	snapshotTTL time.Duration
	now         func() time.Time
}

// NewPlanningService wires the planning core to its data source and cache
func NewPlanningService(reader ports.PerformanceReaderPort, cache ports.CachePort, fitter *curvefit.Fitter, m *metrics.Metrics, snapshotTTL time.Duration) *PlanningService {
	return &PlanningService{
		reader:      reader,
		cache:       cache,
		fitter:      fitter,
		metrics:     m,
		logger:      internal.DefaultLogger.WithPrefix("PlanningService"),
		snapshotTTL: snapshotTTL,
		now:         time.Now,
	}
}

// CompareRequest identifies the two scenarios under comparison. The stores
// may differ; an empty UserStoreID means the override targets the AI's store.
type CompareRequest struct {
	AIStoreID            core.StoreID `json:"ai_store_id"`
	UserStoreID          core.StoreID `json:"user_store_id"`
	AIOriginalQuantity   float64      `json:"ai_original_quantity"`
	UserOverrideQuantity float64      `json:"user_override_quantity"`
	UnitCost             float64      `json:"unit_cost"`

	// Superseded caller-computed forecasts. Accepted for contract
	// compatibility and ignored: both sides are recomputed on the same
	// curve model so the comparison is never skewed by a stale input.
	AIExpectedConversions float64 `json:"ai_expected_conversions,omitempty"`
	AIExpectedRate        float64 `json:"ai_expected_rate,omitempty"`
}

// Validate rejects requests the curve cannot evaluate
func (r CompareRequest) Validate() error {
	if r.AIOriginalQuantity <= 0 {
		return core.NewQuantityError("ai_original_quantity", r.AIOriginalQuantity)
	}
	if r.UserOverrideQuantity <= 0 {
		return core.NewQuantityError("user_override_quantity", r.UserOverrideQuantity)
	}
	if r.UnitCost < 0 {
		return fmt.Errorf("%w: unit_cost = %v", core.ErrInvalidUnitCost, r.UnitCost)
	}
	return nil
}

// ComparePerformance produces the side-by-side forecast for the AI
// recommendation and the user override. The result is always fully
// populated; data-layer failures surface as logged warnings and neutral
// metrics, never as errors.
func (s *PlanningService) ComparePerformance(ctx context.Context, req CompareRequest) (*forecast.PerformanceComparison, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := s.now()

	if req.UserStoreID == "" {
		req.UserStoreID = req.AIStoreID
	}

	snap := s.fleetSnapshot(ctx)

	ai := s.scenarioMetrics(ctx, snap, req.AIStoreID, req.AIOriginalQuantity, req.UnitCost)
	user := s.scenarioMetrics(ctx, snap, req.UserStoreID, req.UserOverrideQuantity, req.UnitCost)

	delta := forecast.NewDelta(ai, user)
	totalSamples := ai.HistoricalSampleSize + user.HistoricalSampleSize

	comparison := &forecast.PerformanceComparison{
		AIRecommendation: ai,
		UserOverride:     user,
		Delta:            delta,
		Recommendation:   forecast.Recommend(delta.Label),
		Confidence:       forecast.ConfidenceFor(totalSamples),
		DataQuality:      forecast.AssessDataQuality(totalSamples),
	}

	s.metrics.ComparisonsTotal.WithLabelValues(string(comparison.Recommendation)).Inc()
	s.metrics.CompareDuration.Observe(s.now().Sub(start).Seconds())
	return comparison, nil
}

// StoreCurve is one store's derived curve: its configuration, the branch
// that produced it, the evaluation at the requested quantity, and fit
// diagnostics when actual history backed the fit.
type StoreCurve struct {
	StoreID        core.StoreID             `json:"store_id"`
	Quantity       float64                  `json:"quantity"`
	Config         curve.Config             `json:"config"`
	EstimationPath curvefit.Path            `json:"estimation_path"`
	Result         curve.Result             `json:"result"`
	Diagnostics    *curvefit.FitDiagnostics `json:"diagnostics,omitempty"`
}

// CurveForStore derives a store's response curve and evaluates it at one
// quantity. Unknown stores get the default configuration.
func (s *PlanningService) CurveForStore(ctx context.Context, storeID core.StoreID, quantity float64) (*StoreCurve, error) {
	if quantity <= 0 {
		return nil, core.NewQuantityError("quantity", quantity)
	}

	snap := s.fleetSnapshot(ctx)
	cfg, path, history := s.storeResponseConfig(ctx, snap, storeID)
	s.metrics.CurveFitsTotal.WithLabelValues(string(path)).Inc()

	sc := &StoreCurve{
		StoreID:        storeID,
		Quantity:       quantity,
		Config:         cfg,
		EstimationPath: path,
		Result:         curve.Calculate(quantity, cfg),
	}
	if path == curvefit.PathFitted {
		diag := s.fitter.Diagnostics(history, cfg)
		sc.Diagnostics = &diag
	}
	return sc, nil
}

// scenarioMetrics computes one side of the comparison: curve forecast plus
// the percentile and index context around it.
func (s *PlanningService) scenarioMetrics(ctx context.Context, snap *planningSnapshot, storeID core.StoreID, quantity, unitCost float64) forecast.PerformanceMetrics {
	cfg, path, _ := s.storeResponseConfig(ctx, snap, storeID)
	s.metrics.CurveFitsTotal.WithLabelValues(string(path)).Inc()

	res := curve.Calculate(quantity, cfg)

	return forecast.PerformanceMetrics{
		StoreID:                  string(storeID),
		Quantity:                 quantity,
		ExpectedConversions:      res.ExpectedConversions,
		ExpectedRate:             res.EffectiveConversionRate,
		CostPerConversion:        forecast.CostPerConversion(quantity, unitCost, res.ExpectedConversions),
		BasePercentile:           s.storePercentile(snap, storeID),
		ProjectedPercentile:      s.projectedPercentile(snap, storeID, res.SaturationLevel, res.EffectiveConversionRate),
		SaturationLevel:          res.SaturationLevel,
		RegionalPerformanceIndex: s.regionalIndex(snap, storeID),
		SeasonalPerformanceIndex: s.seasonalIndex(snap, s.now().Month()),
		HistoricalSampleSize:     s.historicalSampleSize(snap, storeID),
	}
}

// storeResponseConfig picks the best available curve source for a store:
// fit from campaign history when any exists, else a heuristic from the
// store's aggregate rate and volume, else the fixed default. The history
// is returned alongside for diagnostics.
func (s *PlanningService) storeResponseConfig(ctx context.Context, snap *planningSnapshot, storeID core.StoreID) (curve.Config, curvefit.Path, []performance.CampaignOutcome) {
	history, err := s.reader.CampaignHistory(ctx, storeID)
	if err != nil {
		s.logger.Warn("campaign history unavailable for store %s, falling back to aggregates: %v", storeID, err)
		history = nil
	}

	if len(history) > 0 {
		cfg, path := s.fitter.Fit(history)
		return cfg, path, history
	}

	if store, ok := snap.store(storeID); ok && store.ConversionRate > 0 && store.Recipients > 0 {
		return curve.Estimate(store.ConversionRate, float64(store.Recipients), store.Region), curvefit.PathHeuristic, nil
	}

	return curve.DefaultConfig(), curvefit.PathDefault, nil
}

// planningSnapshot is the fleet context one comparison runs against: store
// aggregates plus the regional and seasonal averages that normalize them.
type planningSnapshot struct {
	Stores   []performance.StorePerformance
	Regional []performance.RegionalPerformance
	Patterns []performance.TimePeriodPattern
}

func (p *planningSnapshot) store(id core.StoreID) (performance.StorePerformance, bool) {
	for _, st := range p.Stores {
		if st.ID == id {
			return st, true
		}
	}
	return performance.StorePerformance{}, false
}

// fleetSnapshot returns the cached fleet context, fetching all three
// lookups concurrently on a miss. Each lookup fails soft: a failed leg
// leaves its slice empty and the partial snapshot is served uncached so
// the next call retries the source.
func (s *PlanningService) fleetSnapshot(ctx context.Context) *planningSnapshot {
	if v, ok := s.cache.Get(snapshotCacheKey); ok {
		if snap, ok := v.(*planningSnapshot); ok {
			s.metrics.SnapshotHits.Inc()
			return snap
		}
	}
	s.metrics.SnapshotMisses.Inc()

	snap := &planningSnapshot{}
	var storesOK, regionalOK, patternsOK bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stores, err := s.reader.StoreClusters(gctx)
		if err != nil {
			s.logger.Warn("store clusters unavailable, percentiles fall back to median: %v", err)
			return nil
		}
		snap.Stores, storesOK = stores, true
		return nil
	})
	g.Go(func() error {
		regional, err := s.reader.RegionalPerformance(gctx)
		if err != nil {
			s.logger.Warn("regional performance unavailable, index falls back to 1.0: %v", err)
			return nil
		}
		snap.Regional, regionalOK = regional, true
		return nil
	})
	g.Go(func() error {
		patterns, err := s.reader.TimeBasedPatterns(gctx)
		if err != nil {
			s.logger.Warn("time-based patterns unavailable, index falls back to 1.0: %v", err)
			return nil
		}
		snap.Patterns, patternsOK = patterns, true
		return nil
	})
	_ = g.Wait()

	if storesOK && regionalOK && patternsOK {
		s.cache.Set(snapshotCacheKey, snap, s.snapshotTTL)
	}
	return snap
}

// storePercentile ranks the store's historical conversion rate among all
// stores, best rate first. Missing stores or an empty fleet land on the
// median.
func (s *PlanningService) storePercentile(snap *planningSnapshot, storeID core.StoreID) int {
	if len(snap.Stores) == 0 {
		s.logger.Warn("no store clusters for percentile ranking, store %s defaults to median", storeID)
		return neutralPercentile
	}

	store, ok := snap.store(storeID)
	if !ok {
		s.logger.Warn("store %s missing from clusters, percentile defaults to median", storeID)
		return neutralPercentile
	}

	rates := make([]float64, 0, len(snap.Stores))
	for _, st := range snap.Stores {
		rates = append(rates, st.ConversionRate)
	}
	return rankPercentile(rates, store.ConversionRate)
}

// projectedPercentile re-ranks the store as if the whole fleet operated at
// the same saturation level: every peer's base rate is degraded by the
// generic saturation multiplier while the query store keeps its actual
// computed rate, which is more accurate than the approximation.
func (s *PlanningService) projectedPercentile(snap *planningSnapshot, storeID core.StoreID, saturation, actualRate float64) int {
	if len(snap.Stores) == 0 {
		s.logger.Warn("no store clusters for projected ranking, store %s defaults to median", storeID)
		return neutralPercentile
	}

	multiplier := saturationEfficiency(saturation)
	projected := make([]float64, 0, len(snap.Stores))
	found := false
	for _, st := range snap.Stores {
		if st.ID == storeID {
			projected = append(projected, actualRate)
			found = true
			continue
		}
		projected = append(projected, st.ConversionRate*multiplier)
	}
	if !found {
		s.logger.Warn("store %s missing from clusters, projected percentile defaults to median", storeID)
		return neutralPercentile
	}
	return rankPercentile(projected, actualRate)
}

// regionalIndex relates the store's own rate to the cross-regional average.
// This is deliberately not a geographic join: the store is measured against
// a nominal national average, a documented approximation.
func (s *PlanningService) regionalIndex(snap *planningSnapshot, storeID core.StoreID) float64 {
	store, ok := snap.store(storeID)
	if !ok || store.ConversionRate <= 0 {
		s.logger.Warn("no usable rate for store %s, regional index defaults to 1.0", storeID)
		return neutralIndex
	}

	if len(snap.Regional) == 0 {
		s.logger.Warn("no regional aggregates, regional index for store %s defaults to 1.0", storeID)
		return neutralIndex
	}

	rates := make([]float64, 0, len(snap.Regional))
	for _, r := range snap.Regional {
		rates = append(rates, r.ConversionRate)
	}
	avg, err := stats.Mean(rates)
	if err != nil || avg <= 0 {
		s.logger.Warn("degenerate regional average, index for store %s defaults to 1.0", storeID)
		return neutralIndex
	}
	return store.ConversionRate / avg
}

// seasonalIndex relates the month's aggregate rate to the all-period
// average. Months without history land on 1.0.
func (s *PlanningService) seasonalIndex(snap *planningSnapshot, month time.Month) float64 {
	if len(snap.Patterns) == 0 {
		s.logger.Warn("no time-based patterns, seasonal index defaults to 1.0")
		return neutralIndex
	}

	current := 0.0
	found := false
	rates := make([]float64, 0, len(snap.Patterns))
	for _, p := range snap.Patterns {
		rates = append(rates, p.ConversionRate)
		if p.Period == month {
			current = p.ConversionRate
			found = true
		}
	}
	if !found || current <= 0 {
		s.logger.Warn("no history for month %s, seasonal index defaults to 1.0", month)
		return neutralIndex
	}

	avg, err := stats.Mean(rates)
	if err != nil || avg <= 0 {
		return neutralIndex
	}
	return current / avg
}

// historicalSampleSize proxies deployment count from total recipients
func (s *PlanningService) historicalSampleSize(snap *planningSnapshot, storeID core.StoreID) int {
	store, ok := snap.store(storeID)
	if !ok {
		s.logger.Warn("store %s missing from clusters, sample size defaults to 0", storeID)
		return 0
	}
	return store.Recipients / recipientsPerSample
}

// rankPercentile converts a rate's rank among peers into a percentile:
// rank 1 is the best rate and percentile = (N - rank) / N * 100, rounded.
// Ties share the better rank.
func rankPercentile(rates []float64, value float64) int {
	rank := 1
	for _, r := range rates {
		if r > value {
			rank++
		}
	}
	n := len(rates)
	return int(math.Round(float64(n-rank) / float64(n) * 100))
}

// saturationEfficiency is the generic rate multiplier a store suffers at a
// given saturation level, an inverse-Hill approximation.
func saturationEfficiency(saturation float64) float64 {
	return 1 / math.Sqrt(1+2*saturation)
}
