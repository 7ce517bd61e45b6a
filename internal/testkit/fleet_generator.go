package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"droplab/domain/core"
	"droplab/domain/performance"

	"gonum.org/v1/gonum/stat/distuv"
)

// RegionTier defines one performance tier of the synthetic fleet
type RegionTier struct {
	Region      string  `json:"region"`
	DisplayName string  `json:"display_name"`
	BaseRate    float64 `json:"base_rate"` // %
}

// FleetGeneratorConfig configures the synthetic fleet generator
type FleetGeneratorConfig struct {
	StoresPerRegion     int          `json:"stores_per_region"`
	Tiers               []RegionTier `json:"tiers"`
	Quantities          []float64    `json:"quantities"`
	SaturationAlpha     float64      `json:"saturation_alpha"`
	HalfSaturationPoint float64      `json:"half_saturation_point"`
	RateNoiseSigma      float64      `json:"rate_noise_sigma"`
	Anchor              time.Time    `json:"anchor"` // most recent campaign lands 10 days before this
	Seed                int64        `json:"seed"`
}

// DefaultFleetConfig returns the three-tier demo fleet: strong Portland
// stores, average Phoenix, below-average Miami, six campaign sizes each.
func DefaultFleetConfig() FleetGeneratorConfig {
	return FleetGeneratorConfig{
		StoresPerRegion: 3,
		Tiers: []RegionTier{
			{Region: "portland", DisplayName: "Portland Central", BaseRate: 5.0},
			{Region: "phoenix", DisplayName: "Phoenix North", BaseRate: 3.0},
			{Region: "miami", DisplayName: "Downtown Miami", BaseRate: 2.5},
		},
		Quantities:          []float64{300, 500, 800, 1200, 2000, 3500},
		SaturationAlpha:     0.9,
		HalfSaturationPoint: 2000,
		RateNoiseSigma:      0.1,
		Anchor:              time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		Seed:                42,
	}
}

// FleetData is a complete synthetic performance snapshot: stores, their
// campaign history, and the regional/seasonal aggregates derived from it.
type FleetData struct {
	Stores       []performance.StorePerformance
	History      map[core.StoreID][]performance.CampaignOutcome
	Regional     []performance.RegionalPerformance
	TimePatterns []performance.TimePeriodPattern
}

// FleetDataGenerator generates deterministic synthetic fleet performance
type FleetDataGenerator struct {
	config FleetGeneratorConfig
	rng    *rand.Rand
}

// NewFleetDataGenerator creates a generator seeded from the config
func NewFleetDataGenerator(config FleetGeneratorConfig) *FleetDataGenerator {
	return &FleetDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces the full fleet snapshot. Same config, same output.
func (g *FleetDataGenerator) Generate() *FleetData {
	data := &FleetData{
		History: make(map[core.StoreID][]performance.CampaignOutcome),
	}

	for _, tier := range g.config.Tiers {
		for n := 1; n <= g.config.StoresPerRegion; n++ {
			storeID := core.StoreID(fmt.Sprintf("store-%s-%d", tier.Region, n))
			name := tier.DisplayName
			if g.config.StoresPerRegion > 1 {
				name = fmt.Sprintf("%s #%d", tier.DisplayName, n)
			}

			outcomes := g.generateCampaigns(tier.BaseRate)
			data.History[storeID] = outcomes

			recipients := 0
			conversions := 0
			for _, o := range outcomes {
				recipients += int(o.Quantity)
				conversions += int(o.Conversions)
			}

			data.Stores = append(data.Stores, performance.StorePerformance{
				ID:             storeID,
				Name:           name,
				Region:         tier.Region,
				ConversionRate: performance.Rate(float64(conversions), float64(recipients)),
				Recipients:     recipients,
				Conversions:    conversions,
			})
		}
	}

	data.Regional = aggregateRegions(data)
	data.TimePatterns = aggregateMonths(data)
	return data
}

// generateCampaigns produces one store's outcomes across the configured
// quantity ladder. The observed rate climbs from half the tier baseline
// toward it as volume saturates, with noise on top and a 0.5% floor.
func (g *FleetDataGenerator) generateCampaigns(baseRate float64) []performance.CampaignOutcome {
	outcomes := make([]performance.CampaignOutcome, 0, len(g.config.Quantities))

	for i, quantity := range g.config.Quantities {
		qAlpha := math.Pow(quantity, g.config.SaturationAlpha)
		halfAlpha := math.Pow(g.config.HalfSaturationPoint, g.config.SaturationAlpha)
		saturation := qAlpha / (halfAlpha + qAlpha)

		effectiveRate := baseRate * (0.5 + 0.5*saturation)
		actualRate := math.Max(0.5, effectiveRate*(1+g.noise()))

		conversions := math.Round(quantity * actualRate / 100)
		daysAgo := 10 + i*15
		completedAt := g.config.Anchor.AddDate(0, 0, -daysAgo)

		outcomes = append(outcomes, performance.NewOutcome(core.CampaignID(core.NewID()), quantity, conversions, completedAt))
	}

	return outcomes
}

// noise draws a rate perturbation by pushing seeded uniforms through the
// normal quantile, clipped to +-20% like the real-world data it imitates.
func (g *FleetDataGenerator) noise() float64 {
	u := g.rng.Float64()
	if u < 0.001 {
		u = 0.001
	}
	if u > 0.999 {
		u = 0.999
	}

	z := distuv.Normal{Mu: 0, Sigma: g.config.RateNoiseSigma}.Quantile(u)
	if z > 0.2 {
		z = 0.2
	}
	if z < -0.2 {
		z = -0.2
	}
	return z
}

// aggregateRegions rolls store aggregates up into per-region performance.
// Shared with the spreadsheet import path, which builds the same FleetData
// shape from real history.
func aggregateRegions(data *FleetData) []performance.RegionalPerformance {
	type bucket struct {
		recipients  float64
		conversions float64
		stores      int
	}
	buckets := make(map[string]*bucket)

	for _, s := range data.Stores {
		b, ok := buckets[s.Region]
		if !ok {
			b = &bucket{}
			buckets[s.Region] = b
		}
		b.recipients += float64(s.Recipients)
		b.conversions += float64(s.Conversions)
		b.stores++
	}

	regions := make([]performance.RegionalPerformance, 0, len(buckets))
	for region, b := range buckets {
		regions = append(regions, performance.RegionalPerformance{
			Region:         region,
			ConversionRate: performance.Rate(b.conversions, b.recipients),
			Stores:         b.stores,
		})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Region < regions[j].Region })
	return regions
}

func aggregateMonths(data *FleetData) []performance.TimePeriodPattern {
	type bucket struct {
		recipients  float64
		conversions float64
	}
	buckets := make(map[time.Month]*bucket)

	for _, outcomes := range data.History {
		for _, o := range outcomes {
			month := o.CompletedAt.Month()
			b, ok := buckets[month]
			if !ok {
				b = &bucket{}
				buckets[month] = b
			}
			b.recipients += o.Quantity
			b.conversions += o.Conversions
		}
	}

	patterns := make([]performance.TimePeriodPattern, 0, len(buckets))
	for month, b := range buckets {
		patterns = append(patterns, performance.TimePeriodPattern{
			Period:         month,
			ConversionRate: performance.Rate(b.conversions, b.recipients),
			Recipients:     int(b.recipients),
		})
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Period < patterns[j].Period })
	return patterns
}
