package migration

import (
	"context"
	"fmt"

	"droplab/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations for the retail
// tracking schema the planning engine reads from.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in dependency order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createStoresTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create retail_stores table")
	}

	if err := r.addStoreRegionColumn(ctx, db); err != nil {
		return errors.Wrap(err, "failed to add region to retail_stores")
	}

	if err := r.createCampaignsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create campaigns table")
	}

	if err := r.createDeploymentsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create retail_campaign_deployments table")
	}

	if err := r.createRecipientsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create recipients table")
	}

	if err := r.createDeploymentRecipientsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create retail_deployment_recipients table")
	}

	if err := r.createConversionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create conversions table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createStoresTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS retail_stores (
			id VARCHAR(50) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			region VARCHAR(100),
			size_category VARCHAR(50),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

// addStoreRegionColumn upgrades schemas created before regional aggregation
// existed. Pre-existing stores keep a NULL region and aggregate into the
// 'unassigned' bucket.
func (r *MigrationRunner) addStoreRegionColumn(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'retail_stores' AND column_name = 'region'
			) THEN
				ALTER TABLE retail_stores ADD COLUMN region VARCHAR(100);
			END IF;
		END $$;
	`)
	return err
}

func (r *MigrationRunner) createCampaignsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS campaigns (
			id VARCHAR(50) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createDeploymentsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS retail_campaign_deployments (
			id VARCHAR(50) PRIMARY KEY,
			campaign_id VARCHAR(50) NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
			store_id VARCHAR(50) NOT NULL REFERENCES retail_stores(id) ON DELETE CASCADE,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createRecipientsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS recipients (
			id VARCHAR(50) PRIMARY KEY,
			campaign_id VARCHAR(50) NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
			tracking_id VARCHAR(50) UNIQUE NOT NULL,
			name VARCHAR(255),
			lastname VARCHAR(255),
			email VARCHAR(255),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createDeploymentRecipientsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS retail_deployment_recipients (
			id VARCHAR(50) PRIMARY KEY,
			deployment_id VARCHAR(50) NOT NULL REFERENCES retail_campaign_deployments(id) ON DELETE CASCADE,
			recipient_id VARCHAR(50) NOT NULL REFERENCES recipients(id) ON DELETE CASCADE,
			UNIQUE(deployment_id, recipient_id)
		)
	`)
	return err
}

// Conversions join back to recipients through the tracking id rather than a
// foreign key: the tracking pixel only ever knows the tracking id.
func (r *MigrationRunner) createConversionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conversions (
			id VARCHAR(50) PRIMARY KEY,
			tracking_id VARCHAR(50) NOT NULL,
			conversion_type VARCHAR(100) NOT NULL DEFAULT 'form_submission',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		// Store lookups
		"CREATE INDEX IF NOT EXISTS idx_stores_region ON retail_stores(region)",

		// Deployment aggregation paths
		"CREATE INDEX IF NOT EXISTS idx_deployments_store_id ON retail_campaign_deployments(store_id)",
		"CREATE INDEX IF NOT EXISTS idx_deployments_store_status ON retail_campaign_deployments(store_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_deployments_created_at ON retail_campaign_deployments(created_at DESC)",

		// Recipient joins
		"CREATE INDEX IF NOT EXISTS idx_deployment_recipients_deployment ON retail_deployment_recipients(deployment_id)",
		"CREATE INDEX IF NOT EXISTS idx_deployment_recipients_recipient ON retail_deployment_recipients(recipient_id)",
		"CREATE INDEX IF NOT EXISTS idx_recipients_tracking_id ON recipients(tracking_id)",

		// Conversion joins
		"CREATE INDEX IF NOT EXISTS idx_conversions_tracking_id ON conversions(tracking_id)",
		"CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions(created_at DESC)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}
