package postgres

import (
	"context"
	"fmt"
	"time"

	"droplab/domain/core"
	"droplab/domain/performance"
	"droplab/ports"

	"github.com/jmoiron/sqlx"
)

// performanceRepository implements the PerformanceReaderPort over the retail
// tracking schema. Conversion rates are always derived from distinct
// recipient and conversion counts, never stored.
type performanceRepository struct {
	db *sqlx.DB
}

// NewPerformanceRepository creates a read-only performance repository
func NewPerformanceRepository(db *sqlx.DB) ports.PerformanceReaderPort {
	return &performanceRepository{db: db}
}

// StoreClusters aggregates every store's completed deployments into one
// performance row. Stores that never mailed anything are excluded.
func (r *performanceRepository) StoreClusters(ctx context.Context) ([]performance.StorePerformance, error) {
	query := `SELECT
		s.id,
		s.name,
		COALESCE(s.region, '') AS region,
		COUNT(DISTINCT rdr.recipient_id) AS recipients,
		COUNT(DISTINCT c.id) AS conversions
	FROM retail_stores s
	JOIN retail_campaign_deployments d ON d.store_id = s.id AND d.status = 'completed'
	JOIN retail_deployment_recipients rdr ON rdr.deployment_id = d.id
	JOIN recipients rec ON rec.id = rdr.recipient_id
	LEFT JOIN conversions c ON c.tracking_id = rec.tracking_id
	GROUP BY s.id, s.name, s.region
	HAVING COUNT(DISTINCT rdr.recipient_id) > 0
	ORDER BY s.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query store clusters: %w", err)
	}
	defer rows.Close()

	var stores []performance.StorePerformance
	for rows.Next() {
		var st performance.StorePerformance
		if err := rows.Scan(&st.ID, &st.Name, &st.Region, &st.Recipients, &st.Conversions); err != nil {
			return nil, fmt.Errorf("failed to scan store cluster: %w", err)
		}
		st.ConversionRate = performance.Rate(float64(st.Conversions), float64(st.Recipients))
		stores = append(stores, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate store clusters: %w", err)
	}

	return stores, nil
}

// CampaignHistory returns one store's completed deployments, most recent
// first, each with its distinct recipient and conversion counts.
func (r *performanceRepository) CampaignHistory(ctx context.Context, storeID core.StoreID) ([]performance.CampaignOutcome, error) {
	query := `SELECT
		d.campaign_id,
		d.created_at,
		COUNT(DISTINCT rdr.recipient_id) AS recipients,
		COUNT(DISTINCT c.id) AS conversions
	FROM retail_campaign_deployments d
	JOIN retail_deployment_recipients rdr ON rdr.deployment_id = d.id
	JOIN recipients rec ON rec.id = rdr.recipient_id
	LEFT JOIN conversions c ON c.tracking_id = rec.tracking_id
	WHERE d.store_id = $1 AND d.status = 'completed'
	GROUP BY d.id, d.campaign_id, d.created_at
	ORDER BY d.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign history for store %s: %w", storeID, err)
	}
	defer rows.Close()

	var history []performance.CampaignOutcome
	for rows.Next() {
		var campaignID core.CampaignID
		var completedAt time.Time
		var recipients, conversions int

		if err := rows.Scan(&campaignID, &completedAt, &recipients, &conversions); err != nil {
			return nil, fmt.Errorf("failed to scan campaign outcome: %w", err)
		}
		history = append(history, performance.NewOutcome(campaignID, float64(recipients), float64(conversions), completedAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaign history: %w", err)
	}

	return history, nil
}

// RegionalPerformance aggregates completed deployments per store region.
// Stores without a region land in an 'unassigned' bucket rather than
// disappearing from the averages.
func (r *performanceRepository) RegionalPerformance(ctx context.Context) ([]performance.RegionalPerformance, error) {
	query := `SELECT
		COALESCE(NULLIF(s.region, ''), 'unassigned') AS region,
		COUNT(DISTINCT s.id) AS stores,
		COUNT(DISTINCT rdr.recipient_id) AS recipients,
		COUNT(DISTINCT c.id) AS conversions
	FROM retail_stores s
	JOIN retail_campaign_deployments d ON d.store_id = s.id AND d.status = 'completed'
	JOIN retail_deployment_recipients rdr ON rdr.deployment_id = d.id
	JOIN recipients rec ON rec.id = rdr.recipient_id
	LEFT JOIN conversions c ON c.tracking_id = rec.tracking_id
	GROUP BY COALESCE(NULLIF(s.region, ''), 'unassigned')
	ORDER BY region`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query regional performance: %w", err)
	}
	defer rows.Close()

	var regions []performance.RegionalPerformance
	for rows.Next() {
		var rp performance.RegionalPerformance
		var recipients, conversions int

		if err := rows.Scan(&rp.Region, &rp.Stores, &recipients, &conversions); err != nil {
			return nil, fmt.Errorf("failed to scan regional performance: %w", err)
		}
		rp.ConversionRate = performance.Rate(float64(conversions), float64(recipients))
		regions = append(regions, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate regional performance: %w", err)
	}

	return regions, nil
}

// TimeBasedPatterns aggregates completed deployments per calendar month,
// across years, keyed on the deployment date.
func (r *performanceRepository) TimeBasedPatterns(ctx context.Context) ([]performance.TimePeriodPattern, error) {
	query := `SELECT
		EXTRACT(MONTH FROM d.created_at)::int AS month,
		COUNT(DISTINCT rdr.recipient_id) AS recipients,
		COUNT(DISTINCT c.id) AS conversions
	FROM retail_campaign_deployments d
	JOIN retail_deployment_recipients rdr ON rdr.deployment_id = d.id
	JOIN recipients rec ON rec.id = rdr.recipient_id
	LEFT JOIN conversions c ON c.tracking_id = rec.tracking_id
	WHERE d.status = 'completed'
	GROUP BY EXTRACT(MONTH FROM d.created_at)
	ORDER BY month`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query time-based patterns: %w", err)
	}
	defer rows.Close()

	var patterns []performance.TimePeriodPattern
	for rows.Next() {
		var month, conversions int
		var pattern performance.TimePeriodPattern

		if err := rows.Scan(&month, &pattern.Recipients, &conversions); err != nil {
			return nil, fmt.Errorf("failed to scan time pattern: %w", err)
		}
		pattern.Period = time.Month(month)
		pattern.ConversionRate = performance.Rate(float64(conversions), float64(pattern.Recipients))
		patterns = append(patterns, pattern)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time patterns: %w", err)
	}

	return patterns, nil
}
