package testkit

import (
	"fmt"
	"log"
	"time"

	"droplab/adapters/excel"
	"droplab/domain/core"
	"droplab/domain/performance"
)

// Kit assembles the no-database data plane: a complete fleet snapshot,
// either generated from the synthetic demo config or imported from a
// spreadsheet, exposed through the performance reader port.
type Kit struct {
	data   *FleetData
	source string
}

// NewKit creates a kit over the default synthetic fleet
func NewKit() *Kit {
	return NewKitWithConfig(DefaultFleetConfig())
}

// NewKitWithConfig creates a kit over a custom synthetic fleet
func NewKitWithConfig(config FleetGeneratorConfig) *Kit {
	data := NewFleetDataGenerator(config).Generate()
	log.Printf("[TestKit] Generated synthetic fleet: %d stores, seed %d", len(data.Stores), config.Seed)
	return &Kit{data: data, source: "synthetic"}
}

// NewKitWithHistory creates a kit from a spreadsheet of campaign outcomes.
// Regional and seasonal aggregates are derived from the imported rows the
// same way the generator derives them from synthetic ones.
func NewKitWithHistory(filePath string) (*Kit, error) {
	start := time.Now()

	imported, err := excel.NewHistoryReader(filePath).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to load fleet history: %w", err)
	}
	if len(imported.Stores) == 0 {
		return nil, fmt.Errorf("no usable campaign rows in %s", filePath)
	}

	data := &FleetData{History: make(map[core.StoreID][]performance.CampaignOutcome)}
	for _, sh := range imported.Stores {
		recipients, conversions := 0.0, 0.0
		for _, o := range sh.Outcomes {
			recipients += o.Quantity
			conversions += o.Conversions
		}

		name := sh.Name
		if name == "" {
			name = sh.ID.String()
		}

		data.Stores = append(data.Stores, performance.StorePerformance{
			ID:             sh.ID,
			Name:           name,
			Region:         sh.Region,
			ConversionRate: performance.Rate(conversions, recipients),
			Recipients:     int(recipients),
			Conversions:    int(conversions),
		})
		data.History[sh.ID] = sh.Outcomes
	}
	data.Regional = aggregateRegions(data)
	data.TimePatterns = aggregateMonths(data)

	log.Printf("[TestKit] Imported fleet from %s in %.2fms: %d stores, %d rows skipped",
		filePath, float64(time.Since(start).Nanoseconds())/1e6, len(data.Stores), imported.Skipped)
	return &Kit{data: data, source: filePath}, nil
}

// Data returns the kit's fleet snapshot
func (k *Kit) Data() *FleetData {
	return k.data
}

// Source describes where the fleet came from, for startup logs
func (k *Kit) Source() string {
	return k.source
}

// ReaderAdapter exposes the fleet through the performance reader port
func (k *Kit) ReaderAdapter() *FakePerformanceAdapter {
	return NewFakePerformanceAdapter(k.data)
}
