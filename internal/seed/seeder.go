package seed

import (
	"context"
	"fmt"

	"droplab/internal"

	"github.com/jmoiron/sqlx"
)

// insertBatchSize keeps multi-row inserts well under the Postgres 65535
// bind parameter limit at seven columns per recipient row.
const insertBatchSize = 1000

// Summary reports what one seeding run wrote
type Summary struct {
	Stores      int `json:"stores"`
	Deployments int `json:"deployments"`
	Recipients  int `json:"recipients"`
	Conversions int `json:"conversions"`
}

// Seeder writes a seed plan into the retail schema in one transaction
type Seeder struct {
	db     *sqlx.DB
	logger *internal.Logger
}

// NewSeeder creates a seeder over an open database
func NewSeeder(db *sqlx.DB) *Seeder {
	return &Seeder{
		db:     db,
		logger: internal.DefaultLogger.WithPrefix("Seeder"),
	}
}

// Apply writes the plan. Store rows upsert on their deterministic ids so
// reseeding appends fresh campaign history to the same fleet instead of
// duplicating stores.
func (s *Seeder) Apply(ctx context.Context, plan *Plan) (*Summary, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin seeding transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO retail_stores (id, name, region, size_category)
		VALUES (:id, :name, :region, :size_category)
		ON CONFLICT (id) DO NOTHING`, plan.Stores); err != nil {
		return nil, fmt.Errorf("failed to seed stores: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO campaigns (id, name)
		VALUES (:id, :name)`, plan.Campaign); err != nil {
		return nil, fmt.Errorf("failed to seed campaign: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO retail_campaign_deployments (id, campaign_id, store_id, status, created_at)
		VALUES (:id, :campaign_id, :store_id, :status, :created_at)`, plan.Deployments); err != nil {
		return nil, fmt.Errorf("failed to seed deployments: %w", err)
	}

	for start := 0; start < len(plan.Recipients); start += insertBatchSize {
		batch := plan.Recipients[start:min(start+insertBatchSize, len(plan.Recipients))]
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO recipients (id, campaign_id, tracking_id, name, lastname, email, created_at)
			VALUES (:id, :campaign_id, :tracking_id, :name, :lastname, :email, :created_at)`, batch); err != nil {
			return nil, fmt.Errorf("failed to seed recipients: %w", err)
		}
	}

	for start := 0; start < len(plan.Links); start += insertBatchSize {
		batch := plan.Links[start:min(start+insertBatchSize, len(plan.Links))]
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO retail_deployment_recipients (id, deployment_id, recipient_id)
			VALUES (:id, :deployment_id, :recipient_id)`, batch); err != nil {
			return nil, fmt.Errorf("failed to seed deployment recipients: %w", err)
		}
	}

	for start := 0; start < len(plan.Conversions); start += insertBatchSize {
		batch := plan.Conversions[start:min(start+insertBatchSize, len(plan.Conversions))]
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO conversions (id, tracking_id, conversion_type, created_at)
			VALUES (:id, :tracking_id, :conversion_type, :created_at)`, batch); err != nil {
			return nil, fmt.Errorf("failed to seed conversions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seeding transaction: %w", err)
	}

	summary := &Summary{
		Stores:      len(plan.Stores),
		Deployments: len(plan.Deployments),
		Recipients:  len(plan.Recipients),
		Conversions: len(plan.Conversions),
	}
	s.logger.Info("seeded %d stores, %d deployments, %d recipients, %d conversions",
		summary.Stores, summary.Deployments, summary.Recipients, summary.Conversions)
	return summary, nil
}
