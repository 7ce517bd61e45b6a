package container

import (
	"context"
	"fmt"
	"log"

	"droplab/adapters/postgres"
	"droplab/app"
	"droplab/internal/analysis/curvefit"
	"droplab/internal/cache"
	"droplab/internal/config"
	"droplab/internal/metrics"
	"droplab/internal/seed"
	"droplab/internal/testkit"
	"droplab/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Data access layer
	Reader ports.PerformanceReaderPort
	Cache  ports.CachePort

	// Planning components
	Fitter  *curvefit.Fitter
	Metrics *metrics.Metrics

	// Services
	Planning *app.PlanningService
	Sweep    *app.FleetSweepService

	// Seeding (database mode only)
	Seeder *seed.Seeder
}

// New creates a new dependency injection container with the
// database-independent components wired up.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{
		Config:  cfg,
		Cache:   cache.NewMemory(),
		Fitter:  curvefit.NewFitter(),
		Metrics: metrics.New(),
	}, nil
}

// InitWithDatabase wires the planning services to the retail tracking schema
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.DB = db
	c.Reader = postgres.NewPerformanceRepository(db)
	c.Seeder = seed.NewSeeder(db)
	c.initServices()

	log.Printf("Container initialized with database-backed performance data")
	return nil
}

// InitSynthetic wires the planning services to a generated fleet. This is
// the no-database mode used for demos and local development.
func (c *Container) InitSynthetic(data *testkit.FleetData) error {
	if data == nil {
		return fmt.Errorf("fleet data cannot be nil")
	}

	c.Reader = testkit.NewFakePerformanceAdapter(data)
	c.initServices()

	log.Printf("Container initialized with synthetic fleet: %d stores", len(data.Stores))
	return nil
}

// initServices constructs the planning services over whichever reader the
// container was initialized with.
func (c *Container) initServices() {
	c.Planning = app.NewPlanningService(c.Reader, c.Cache, c.Fitter, c.Metrics, c.Config.Data.SnapshotTTL)
	c.Sweep = app.NewFleetSweepService(c.Reader, c.Fitter, c.Metrics, c.Config.Data.SweepConcurrency)
}

// Ready reports whether the container can serve planning requests. In
// database mode this pings the connection; synthetic mode is always ready.
func (c *Container) Ready(ctx context.Context) error {
	if c.Reader == nil {
		return fmt.Errorf("container not initialized")
	}
	if c.DB != nil {
		return c.DB.PingContext(ctx)
	}
	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
