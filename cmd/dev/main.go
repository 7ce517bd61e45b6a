package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"droplab/app"
	"droplab/domain/core"
	"droplab/domain/curve"
	"droplab/internal/config"
	"droplab/internal/container"
	"droplab/internal/errors"
	"droplab/internal/migration"
	"droplab/internal/seed"
	"droplab/internal/testkit"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	// Missing .env is fine, the tool falls back to the environment
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "droplab-dev",
		Short: "DropLab development tools",
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newImportCmd(),
		newCurveCmd(),
		newCompareCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required for this command")
	}
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

func newMigrateCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the retail tracking schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop all retail tracking tables first")
	return cmd
}

func runMigrations(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if reset {
		fmt.Println("Dropping retail tracking tables...")
		if err := dropTables(ctx, db); err != nil {
			return err
		}
	}

	runner := migration.NewRunner()
	fmt.Printf("Running migrations (schema version %s)...\n", runner.Version())
	if err := runner.Run(ctx, db); err != nil {
		return err
	}

	fmt.Println("Migrations completed successfully")
	return nil
}

// dropTables removes the retail tracking tables in reverse dependency order
func dropTables(ctx context.Context, db *sqlx.DB) error {
	tables := []string{
		"conversions",
		"retail_deployment_recipients",
		"recipients",
		"retail_campaign_deployments",
		"campaigns",
		"retail_stores",
	}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

func newSeedCmd() *cobra.Command {
	var seedValue int64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with the synthetic demo fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seedFleet(cmd.Context(), seedValue)
		},
	}
	cmd.Flags().Int64Var(&seedValue, "seed", 42, "RNG seed for recipient expansion")
	return cmd
}

func seedFleet(ctx context.Context, seedValue int64) error {
	fmt.Println("Generating synthetic fleet...")
	data := testkit.NewFleetDataGenerator(testkit.DefaultFleetConfig()).Generate()
	plan := seed.BuildPlan(data, seedValue)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	summary, err := seed.NewSeeder(db).Apply(ctx, plan)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d stores, %d deployments, %d recipients, %d conversions\n",
		summary.Stores, summary.Deployments, summary.Recipients, summary.Conversions)
	return nil
}

func newImportCmd() *cobra.Command {
	var (
		seedValue int64
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import campaign history from a spreadsheet into the database",
		Long: `Import campaign outcomes from an .xlsx or .csv export into the retail
tracking schema. Each row becomes a completed deployment with per-recipient
tracking rows expanded from its quantity and conversion totals.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importHistory(cmd.Context(), args[0], seedValue, dryRun)
		},
	}
	cmd.Flags().Int64Var(&seedValue, "seed", 42, "RNG seed for recipient expansion")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and summarize without writing")
	return cmd
}

func importHistory(ctx context.Context, path string, seedValue int64, dryRun bool) error {
	kit, err := testkit.NewKitWithHistory(path)
	if err != nil {
		return err
	}
	data := kit.Data()

	campaigns := 0
	for _, outcomes := range data.History {
		campaigns += len(outcomes)
	}
	fmt.Printf("Parsed %d stores, %d campaigns from %s\n", len(data.Stores), campaigns, path)

	if dryRun {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	summary, err := seed.NewSeeder(db).Apply(ctx, seed.BuildPlan(data, seedValue))
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d stores, %d deployments, %d recipients, %d conversions\n",
		summary.Stores, summary.Deployments, summary.Recipients, summary.Conversions)
	return nil
}

func newCurveCmd() *cobra.Command {
	var baseRate float64
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the linear-vs-curve forecast ladder",
		RunE: func(cmd *cobra.Command, args []string) error {
			printCurveLadder(baseRate)
			return nil
		},
	}
	cmd.Flags().Float64Var(&baseRate, "base-rate", curve.DefaultBaseConversionRate, "Base conversion rate in percent")
	return cmd
}

func printCurveLadder(baseRate float64) {
	fmt.Printf("Hill curve vs linear model at base rate %.2f%%\n\n", baseRate)
	fmt.Printf("%10s %12s %12s %12s %11s\n", "quantity", "linear", "curve", "eff rate", "overshoot")
	for _, q := range []float64{250, 500, 1000, 2000, 4000, 8000, 16000, 32000} {
		mc := curve.CompareModels(q, baseRate)
		fmt.Printf("%10.0f %12.1f %12.1f %11.2f%% %10.1f%%\n",
			q, mc.LinearConversions, mc.CurveConversions, mc.CurveRate, mc.OverestimatePercent)
	}
}

func newCompareCmd() *cobra.Command {
	var (
		storeID  string
		ai       float64
		override float64
		unitCost float64
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run one AI-vs-override comparison and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if storeID == "" {
				return fmt.Errorf("--store is required")
			}
			if ai <= 0 || override <= 0 {
				return fmt.Errorf("--ai and --override must be positive quantities")
			}
			return runComparison(cmd.Context(), storeID, ai, override, unitCost)
		},
	}
	cmd.Flags().StringVar(&storeID, "store", "", "Store id")
	cmd.Flags().Float64Var(&ai, "ai", 0, "AI recommended quantity")
	cmd.Flags().Float64Var(&override, "override", 0, "User override quantity")
	cmd.Flags().Float64Var(&unitCost, "unit-cost", 0, "Cost per mail piece in dollars")
	return cmd
}

// runComparison resolves the same data plane the server would use: the
// database when one is configured, the synthetic fleet otherwise.
func runComparison(ctx context.Context, storeID string, ai, override, unitCost float64) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	if cfg.SyntheticMode() {
		var kit *testkit.Kit
		if cfg.Data.HistoryFile != "" {
			kit, err = testkit.NewKitWithHistory(cfg.Data.HistoryFile)
			if err != nil {
				return err
			}
		} else {
			kit = testkit.NewKit()
		}
		if err := c.InitSynthetic(kit.Data()); err != nil {
			return err
		}
	} else {
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		if err := c.InitWithDatabase(db); err != nil {
			return err
		}
	}

	result, err := c.Planning.ComparePerformance(ctx, app.CompareRequest{
		AIStoreID:            core.StoreID(storeID),
		AIOriginalQuantity:   ai,
		UserOverrideQuantity: override,
		UnitCost:             unitCost,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
