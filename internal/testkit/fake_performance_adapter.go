package testkit

import (
	"context"
	"sort"

	"droplab/domain/core"
	"droplab/domain/performance"
	"droplab/internal/errors"
)

// FakePerformanceAdapter serves a generated fleet snapshot through the
// performance reader port. Failure toggles let tests exercise the
// fail-soft paths without a broken database.
type FakePerformanceAdapter struct {
	data *FleetData

	FailClusters bool
	FailHistory  bool
	FailRegional bool
	FailPatterns bool
}

// NewFakePerformanceAdapter wraps existing fleet data
func NewFakePerformanceAdapter(data *FleetData) *FakePerformanceAdapter {
	return &FakePerformanceAdapter{data: data}
}

// StoreClusters returns every synthetic store's aggregate performance
func (a *FakePerformanceAdapter) StoreClusters(ctx context.Context) ([]performance.StorePerformance, error) {
	if a.FailClusters {
		return nil, errors.DataUnavailable("store clusters unavailable")
	}
	out := make([]performance.StorePerformance, len(a.data.Stores))
	copy(out, a.data.Stores)
	return out, nil
}

// CampaignHistory returns one store's outcomes, most recent first
func (a *FakePerformanceAdapter) CampaignHistory(ctx context.Context, storeID core.StoreID) ([]performance.CampaignOutcome, error) {
	if a.FailHistory {
		return nil, errors.DataUnavailable("campaign history unavailable")
	}

	history, ok := a.data.History[storeID]
	if !ok {
		return nil, nil
	}

	out := make([]performance.CampaignOutcome, len(history))
	copy(out, history)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.Time().After(out[j].CompletedAt.Time())
	})
	return out, nil
}

// RegionalPerformance returns the per-region aggregates
func (a *FakePerformanceAdapter) RegionalPerformance(ctx context.Context) ([]performance.RegionalPerformance, error) {
	if a.FailRegional {
		return nil, errors.DataUnavailable("regional performance unavailable")
	}
	out := make([]performance.RegionalPerformance, len(a.data.Regional))
	copy(out, a.data.Regional)
	return out, nil
}

// TimeBasedPatterns returns the per-month aggregates
func (a *FakePerformanceAdapter) TimeBasedPatterns(ctx context.Context) ([]performance.TimePeriodPattern, error) {
	if a.FailPatterns {
		return nil, errors.DataUnavailable("time patterns unavailable")
	}
	out := make([]performance.TimePeriodPattern, len(a.data.TimePatterns))
	copy(out, a.data.TimePatterns)
	return out, nil
}
