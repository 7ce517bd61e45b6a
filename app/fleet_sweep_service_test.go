package app

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"droplab/domain/core"
	"droplab/domain/performance"
	"droplab/internal/analysis/curvefit"
	"droplab/internal/metrics"
	"droplab/internal/testkit"
	"droplab/ports"
)

func newTestSweepService(reader ports.PerformanceReaderPort, concurrency int) *FleetSweepService {
	return NewFleetSweepService(reader, curvefit.NewFitter(), metrics.NewWith(nil), concurrency)
}

// slowReader stalls history lookups and records peak parallelism
type slowReader struct {
	*testkit.FakePerformanceAdapter
	mu     sync.Mutex
	active int
	peak   int
}

func (r *slowReader) CampaignHistory(ctx context.Context, storeID core.StoreID) ([]performance.CampaignOutcome, error) {
	r.mu.Lock()
	r.active++
	if r.active > r.peak {
		r.peak = r.active
	}
	r.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	r.mu.Lock()
	r.active--
	r.mu.Unlock()

	return r.FakePerformanceAdapter.CampaignHistory(ctx, storeID)
}

// TestFleetSweepAtFixedQuantity sweeps the demo fleet at one volume
func TestFleetSweepAtFixedQuantity(t *testing.T) {
	data := testkit.NewFleetDataGenerator(testkit.DefaultFleetConfig()).Generate()
	svc := newTestSweepService(testkit.NewFakePerformanceAdapter(data), 4)

	result, err := svc.Run(context.Background(), SweepRequest{Quantity: 1000, UnitCost: 0.45})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Rows) != 9 {
		t.Fatalf("Expected 9 store rows, got %d", len(result.Rows))
	}
	if result.Rows[0].StoreID != "store-portland-1" {
		t.Errorf("Expected rows in fleet order, got %s first", result.Rows[0].StoreID)
	}

	for _, row := range result.Rows {
		if row.Quantity != 1000 {
			t.Errorf("Expected fixed quantity 1000 for %s, got %f", row.StoreID, row.Quantity)
		}
		if row.Result.ExpectedConversions <= 0 {
			t.Errorf("Expected positive conversions for %s", row.StoreID)
		}
		if row.Result.SaturationLevel <= 0 || row.Result.SaturationLevel >= 1 {
			t.Errorf("Saturation out of (0,1) for %s: %f", row.StoreID, row.Result.SaturationLevel)
		}
		if row.CostPerConversion <= 0 {
			t.Errorf("Expected positive cost per conversion for %s", row.StoreID)
		}
		if row.BasePercentile < 0 || row.BasePercentile > 100 {
			t.Errorf("Percentile out of bounds for %s: %d", row.StoreID, row.BasePercentile)
		}
	}

	if result.Summary.Stores != 9 {
		t.Errorf("Expected summary over 9 stores, got %d", result.Summary.Stores)
	}
	if math.Abs(result.Summary.TotalQuantity-9000) > 1e-9 {
		t.Errorf("Expected total quantity 9000, got %f", result.Summary.TotalQuantity)
	}

	wantTotal := 0.0
	for _, row := range result.Rows {
		wantTotal += row.Result.ExpectedConversions
	}
	if math.Abs(result.Summary.TotalConversions-wantTotal) > 1e-9 {
		t.Errorf("Summary conversions %f do not match row sum %f", result.Summary.TotalConversions, wantTotal)
	}
	if result.Summary.MeanEfficiency <= 0 {
		t.Errorf("Expected positive mean efficiency, got %f", result.Summary.MeanEfficiency)
	}

	// Same fleet, same fingerprint; the hash tracks composition, not volume.
	again, err := svc.Run(context.Background(), SweepRequest{Quantity: 2500, UnitCost: 0.45})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.FleetHash == "" {
		t.Error("Expected a fleet fingerprint on the sweep result")
	}
	if result.FleetHash != again.FleetHash {
		t.Errorf("Expected identical fleet hashes across sweeps of the same fleet, got %s vs %s",
			result.FleetHash, again.FleetHash)
	}
}

// TestFleetSweepAtRecommendedQuantity leaves the quantity unset: every store
// is evaluated at its own half-saturation point, where saturation is exactly
// one half regardless of alpha.
func TestFleetSweepAtRecommendedQuantity(t *testing.T) {
	data := testkit.NewFleetDataGenerator(testkit.DefaultFleetConfig()).Generate()
	svc := newTestSweepService(testkit.NewFakePerformanceAdapter(data), 4)

	result, err := svc.Run(context.Background(), SweepRequest{UnitCost: 0.45})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, row := range result.Rows {
		if row.Quantity <= 0 {
			t.Errorf("Expected positive recommended quantity for %s, got %f", row.StoreID, row.Quantity)
		}
		if math.Abs(row.Result.SaturationLevel-0.5) > 1e-9 {
			t.Errorf("Expected saturation 0.5 at the half-saturation point for %s, got %f",
				row.StoreID, row.Result.SaturationLevel)
		}
	}
}

// TestFleetSweepEmptyFleet returns a domain error rather than a silent zero
func TestFleetSweepEmptyFleet(t *testing.T) {
	svc := newTestSweepService(testkit.NewFakePerformanceAdapter(&testkit.FleetData{}), 4)

	_, err := svc.Run(context.Background(), SweepRequest{Quantity: 1000})
	if !errors.Is(err, core.ErrEmptyFleet) {
		t.Errorf("Expected ErrEmptyFleet, got %v", err)
	}
}

// TestFleetSweepClusterFailure propagates the data-layer error
func TestFleetSweepClusterFailure(t *testing.T) {
	fake := testkit.NewFakePerformanceAdapter(&testkit.FleetData{})
	fake.FailClusters = true
	svc := newTestSweepService(fake, 4)

	if _, err := svc.Run(context.Background(), SweepRequest{Quantity: 1000}); err == nil {
		t.Error("Expected an error when the fleet cannot be listed")
	}
}

// TestFleetSweepValidation rejects negative quantities and costs
func TestFleetSweepValidation(t *testing.T) {
	svc := newTestSweepService(testkit.NewFakePerformanceAdapter(&testkit.FleetData{}), 4)

	if _, err := svc.Run(context.Background(), SweepRequest{Quantity: -1}); !errors.Is(err, core.ErrInvalidQuantity) {
		t.Errorf("Expected quantity error, got %v", err)
	}
	if _, err := svc.Run(context.Background(), SweepRequest{Quantity: 100, UnitCost: -0.1}); !errors.Is(err, core.ErrInvalidUnitCost) {
		t.Errorf("Expected unit cost error, got %v", err)
	}
}

// TestFleetSweepBoundedConcurrency verifies the semaphore holds its bound
func TestFleetSweepBoundedConcurrency(t *testing.T) {
	data := testkit.NewFleetDataGenerator(testkit.DefaultFleetConfig()).Generate()
	reader := &slowReader{FakePerformanceAdapter: testkit.NewFakePerformanceAdapter(data)}
	svc := newTestSweepService(reader, 2)

	result, err := svc.Run(context.Background(), SweepRequest{Quantity: 1000})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Rows) != 9 {
		t.Fatalf("Expected 9 rows, got %d", len(result.Rows))
	}

	reader.mu.Lock()
	peak := reader.peak
	reader.mu.Unlock()
	if peak > 2 {
		t.Errorf("Expected at most 2 concurrent evaluations, observed %d", peak)
	}

	for _, row := range result.Rows {
		if row.StoreID == "" {
			t.Error("Expected every row to be populated after the drain")
		}
	}
}

// TestFleetSweepCanceledContext stops between acquisitions
func TestFleetSweepCanceledContext(t *testing.T) {
	data := testkit.NewFleetDataGenerator(testkit.DefaultFleetConfig()).Generate()
	svc := newTestSweepService(testkit.NewFakePerformanceAdapter(data), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Run(ctx, SweepRequest{Quantity: 1000}); err == nil {
		t.Error("Expected an error on canceled context")
	}
}
