package ports

import (
	"context"

	"droplab/domain/core"
	"droplab/domain/performance"
)

// PerformanceReaderPort provides read-only access to historical campaign
// performance. The planning core treats every method as an idempotent
// snapshot lookup and tolerates empty results; implementations must never
// mutate state.
type PerformanceReaderPort interface {
	// StoreClusters returns aggregate performance for every store with
	// at least one tracked recipient.
	StoreClusters(ctx context.Context) ([]performance.StorePerformance, error)

	// CampaignHistory returns per-campaign outcomes for one store,
	// most recent first.
	CampaignHistory(ctx context.Context, storeID core.StoreID) ([]performance.CampaignOutcome, error)

	// RegionalPerformance returns aggregate conversion rates per region.
	RegionalPerformance(ctx context.Context) ([]performance.RegionalPerformance, error)

	// TimeBasedPatterns returns aggregate conversion rates per calendar
	// month across all campaign history.
	TimeBasedPatterns(ctx context.Context) ([]performance.TimePeriodPattern, error)
}
