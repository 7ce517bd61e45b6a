package app

import (
	"context"
	"fmt"
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
	"golang.org/x/sync/semaphore"
)

// FleetSweepService evaluates a what-if quantity across every store in the
// fleet, bounded by a weighted semaphore so a large fleet cannot saturate
// the data source. Read-only, like everything in the planning core.
type FleetSweepService struct {
	reader      ports.PerformanceReaderPort
	fitter      *curvefit.Fitter
	metrics     *metrics.Metrics
	logger      *internal.Logger
	concurrency int64
}

// NewFleetSweepService creates a sweep service with the given parallelism
func NewFleetSweepService(reader ports.PerformanceReaderPort, fitter *curvefit.Fitter, m *metrics.Metrics, concurrency int) *FleetSweepService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &FleetSweepService{
		reader:      reader,
		fitter:      fitter,
		metrics:     m,
		logger:      internal.DefaultLogger.WithPrefix("FleetSweepService"),
		concurrency: int64(concurrency),
	}
}

// SweepRequest configures a fleet-wide evaluation. Quantity = 0 evaluates
// each store at its own half-saturation point, the volume past which
// marginal returns fall below half of the baseline.
type SweepRequest struct {
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
}

// Validate rejects quantities and costs the curve cannot evaluate
func (r SweepRequest) Validate() error {
	if r.Quantity < 0 {
		return core.NewQuantityError("quantity", r.Quantity)
	}
	if r.UnitCost < 0 {
		return fmt.Errorf("%w: unit_cost = %v", core.ErrInvalidUnitCost, r.UnitCost)
	}
	return nil
}

// StoreSweepRow is one store's evaluation within a sweep
type StoreSweepRow struct {
	StoreID           core.StoreID  `json:"store_id"`
	Name              string        `json:"name"`
	Region            string        `json:"region"`
	Quantity          float64       `json:"quantity"`
	EstimationPath    curvefit.Path `json:"estimation_path"`
	Result            curve.Result  `json:"result"`
	CostPerConversion float64       `json:"cost_per_conversion"`
	BasePercentile    int           `json:"base_percentile"`
}

// SweepSummary aggregates the sweep across the fleet
type SweepSummary struct {
	Stores           int     `json:"stores"`
	TotalQuantity    float64 `json:"total_quantity"`
	TotalConversions float64 `json:"total_conversions"`
	MeanEfficiency   float64 `json:"mean_efficiency"`
	MeanSaturation   float64 `json:"mean_saturation"`
}

// SweepResult is the complete output of one fleet sweep. FleetHash
// fingerprints the store set the sweep saw, so two results can be compared
// for fleet drift before their numbers are.
type SweepResult struct {
	Rows      []StoreSweepRow `json:"rows"`
	Summary   SweepSummary    `json:"summary"`
	FleetHash core.FleetHash  `json:"fleet_hash"`
	RuntimeMs int64           `json:"runtime_ms"`
}

// Run sweeps the requested quantity across the fleet. Unlike the
// comparison path, a fleet that cannot be listed at all is an error:
// there is nothing to sweep without it.
func (s *FleetSweepService) Run(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	stores, err := s.reader.StoreClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing fleet for sweep: %w", err)
	}
	if len(stores) == 0 {
		return nil, core.ErrEmptyFleet
	}

	allRates := make([]float64, len(stores))
	storeIDs := make([]string, len(stores))
	ratesByID := make(map[string]float64, len(stores))
	for i, st := range stores {
		allRates[i] = st.ConversionRate
		storeIDs[i] = st.ID.String()
		ratesByID[st.ID.String()] = st.ConversionRate
	}

	rows := make([]StoreSweepRow, len(stores))
	sem := semaphore.NewWeighted(s.concurrency)

	for i, st := range stores {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("sweep canceled: %w", err)
		}
		go func(i int, st performance.StorePerformance) {
			defer sem.Release(1)
			rows[i] = s.evaluateStore(ctx, st, allRates, req)
		}(i, st)
	}

	// Drain: wait for every in-flight store evaluation
	if err := sem.Acquire(ctx, s.concurrency); err != nil {
		return nil, fmt.Errorf("sweep canceled: %w", err)
	}
	sem.Release(s.concurrency)

	s.metrics.SweepsTotal.Inc()

	return &SweepResult{
		Rows:      rows,
		Summary:   summarize(rows),
		FleetHash: core.ComputeFleetHash(storeIDs, ratesByID),
		RuntimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// evaluateStore derives one store's curve and evaluates the sweep quantity
// on it. History failures fall back to the store's aggregate heuristic.
func (s *FleetSweepService) evaluateStore(ctx context.Context, st performance.StorePerformance, allRates []float64, req SweepRequest) StoreSweepRow {
	cfg, path := s.storeConfig(ctx, st)
	s.metrics.CurveFitsTotal.WithLabelValues(string(path)).Inc()

	quantity := req.Quantity
	if quantity == 0 {
		quantity = cfg.HalfSaturationPoint
	}

	res := curve.Calculate(quantity, cfg)

	return StoreSweepRow{
		StoreID:           st.ID,
		Name:              st.Name,
		Region:            st.Region,
		Quantity:          quantity,
		EstimationPath:    path,
		Result:            res,
		CostPerConversion: forecast.CostPerConversion(quantity, req.UnitCost, res.ExpectedConversions),
		BasePercentile:    rankPercentile(allRates, st.ConversionRate),
	}
}

func (s *FleetSweepService) storeConfig(ctx context.Context, st performance.StorePerformance) (curve.Config, curvefit.Path) {
	history, err := s.reader.CampaignHistory(ctx, st.ID)
	if err != nil {
		s.logger.Warn("campaign history unavailable for store %s during sweep: %v", st.ID, err)
		history = nil
	}
	if len(history) > 0 {
		return s.fitter.Fit(history)
	}
	if st.ConversionRate > 0 && st.Recipients > 0 {
		return curve.Estimate(st.ConversionRate, float64(st.Recipients), st.Region), curvefit.PathHeuristic
	}
	return curve.DefaultConfig(), curvefit.PathDefault
}

func summarize(rows []StoreSweepRow) SweepSummary {
	summary := SweepSummary{Stores: len(rows)}

	efficiencies := make([]float64, 0, len(rows))
	saturations := make([]float64, 0, len(rows))
	for _, row := range rows {
		summary.TotalQuantity += row.Quantity
		summary.TotalConversions += row.Result.ExpectedConversions
		efficiencies = append(efficiencies, row.Result.EfficiencyIndex)
		saturations = append(saturations, row.Result.SaturationLevel)
	}

	if mean, err := stats.Mean(efficiencies); err == nil {
		summary.MeanEfficiency = mean
	}
	if mean, err := stats.Mean(saturations); err == nil {
		summary.MeanSaturation = mean
	}
	return summary
}
