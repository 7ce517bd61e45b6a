package main

import (
	"context"
	"log"

	"droplab/internal/config"
	"droplab/internal/container"
	"droplab/internal/errors"
	"droplab/internal/migration"
	"droplab/internal/testkit"
	"droplab/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and brings the retail tracking schema
// up to date
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

// initFleetKit picks the synthetic data source: a spreadsheet of real
// campaign outcomes when one is configured, a generated fleet otherwise.
func initFleetKit(cfg *config.Config) (*testkit.Kit, error) {
	if cfg.Data.HistoryFile != "" {
		log.Printf("Loading campaign history from %s", cfg.Data.HistoryFile)
		return testkit.NewKitWithHistory(cfg.Data.HistoryFile)
	}
	log.Println("No history file configured, generating a synthetic fleet")
	return testkit.NewKit(), nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if cfg.SyntheticMode() {
		kit, err := initFleetKit(cfg)
		if err != nil {
			log.Fatalf("Failed to load fleet data: %v", err)
		}
		if err := appContainer.InitSynthetic(kit.Data()); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	} else {
		db, err := initDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := appContainer.InitWithDatabase(db); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	}

	// Health, metrics and pprof live on their own port
	if cfg.Ops.Enabled {
		ops := ui.NewOpsServer(appContainer.Ready)
		go func() {
			if err := ops.Start(":" + cfg.Ops.Port); err != nil {
				log.Printf("Ops server failed: %v", err)
			}
		}()
	}

	server := ui.NewServer(appContainer.Planning, appContainer.Sweep, cfg.Server.GinMode)
	log.Fatal(server.Start(":" + cfg.Server.Port))
}
