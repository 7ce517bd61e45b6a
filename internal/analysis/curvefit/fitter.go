package curvefit

import (
	"math"
	"sort"

	"droplab/domain/curve"
	"droplab/domain/performance"

	"github.com/montanaflynn/stats"
)

// Fit policy thresholds: below three campaigns there is nothing to fit, and
// without at least a 1.5x spread in quantities the curve shape is unidentifiable.
const (
	minCampaignsForFit    = 3
	minQuantityRangeRatio = 1.5
)

// Alpha lookup bands keyed by the average per-unit rate decline across
// adjacent quantity tiers. Hand-tuned literals with no closed-form
// derivation; keep them as constants.
const (
	fastDeclineThreshold     = 0.002
	moderateDeclineThreshold = 0.001
	slowDeclineThreshold     = 0.0005

	fastSaturationAlpha     = 0.7
	moderateSaturationAlpha = 1.0
	slowSaturationAlpha     = 1.3
	gentleSaturationAlpha   = 1.5
)

// Market size gets 20% headroom above the best observed campaign.
const marketHeadroom = 1.2

// Half-saturation anchoring: tighten when the midpoint campaign already sits
// deep into saturation, relax when it is far from it.
const (
	highMidpointSaturation = 0.6
	lowMidpointSaturation  = 0.3
	halfSatTighten         = 0.7
	halfSatRelax           = 1.4
)

// Safety clamps applied to every fitted parameter.
const (
	minAlpha           = 0.6
	maxAlpha           = 1.8
	minBaseRate        = 0.5
	maxBaseRate        = 15.0
	minMarketMultiple  = 1.5 // of max observed quantity
	maxMarketMultiple  = 10.0
	minHalfSatMultiple = 0.5 // of min observed quantity
	maxHalfSatMultiple = 2.0 // of max observed quantity
)

// Path records which estimation branch produced a config
type Path string

const (
	PathDefault   Path = "default"
	PathHeuristic Path = "heuristic"
	PathFitted    Path = "fitted"
)

// Fitter derives response curve configurations from campaign history
type Fitter struct{}

// NewFitter creates a new curve fitter
func NewFitter() *Fitter {
	return &Fitter{}
}

// FitFromHistory derives a curve configuration from observed campaign
// outcomes. The output always satisfies the config invariants regardless of
// input noise, via the clamps.
func (f *Fitter) FitFromHistory(history []performance.CampaignOutcome) curve.Config {
	cfg, _ := f.Fit(history)
	return cfg
}

// Fit is FitFromHistory plus the branch it took, for instrumentation.
func (f *Fitter) Fit(history []performance.CampaignOutcome) (curve.Config, Path) {
	valid := make([]performance.CampaignOutcome, 0, len(history))
	for _, c := range history {
		if c.Quantity > 0 {
			valid = append(valid, c)
		}
	}

	if len(valid) == 0 {
		return curve.DefaultConfig(), PathDefault
	}

	if len(valid) < minCampaignsForFit {
		avgRate, avgQty := averages(valid)
		return curve.Estimate(avgRate, avgQty, ""), PathHeuristic
	}

	sorted := make([]performance.CampaignOutcome, len(valid))
	copy(sorted, valid)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Quantity < sorted[j].Quantity })

	minQty := sorted[0].Quantity
	maxQty := sorted[len(sorted)-1].Quantity

	// Not enough quantity variation to identify a curve shape
	if maxQty/minQty < minQuantityRangeRatio {
		avgRate, avgQty := averages(sorted)
		return curve.Estimate(avgRate, avgQty, ""), PathHeuristic
	}

	return f.fullFit(sorted, minQty, maxQty), PathFitted
}

// fullFit runs the data-driven estimation over quantity-sorted campaigns:
// base rate from the cheapest tier, market size with headroom above the best
// observed campaign, alpha from the decline bands, half-saturation anchored
// at the median, then one clamping pass over everything.
func (f *Fitter) fullFit(sorted []performance.CampaignOutcome, minQty, maxQty float64) curve.Config {
	// Base rate: average rate of the lowest-quantity third, the most
	// efficient tier a store has demonstrated.
	tier := len(sorted) / 3
	if tier < 1 {
		tier = 1
	}
	lowTierRates := make([]float64, tier)
	for i := 0; i < tier; i++ {
		lowTierRates[i] = sorted[i].Rate
	}
	baseRate, _ := stats.Mean(lowTierRates)

	maxConversions := 0.0
	for _, c := range sorted {
		if c.Conversions > maxConversions {
			maxConversions = c.Conversions
		}
	}
	estimatedMax := maxConversions * marketHeadroom
	marketSize := estimatedMax / baseRate * 100

	alpha := f.alphaFromDecline(sorted)
	halfSat := f.anchorHalfSaturation(sorted, estimatedMax)

	return curve.Config{
		BaseConversionRate:  clamp(baseRate, minBaseRate, maxBaseRate),
		MarketSize:          clamp(marketSize, minMarketMultiple*maxQty, maxMarketMultiple*maxQty),
		SaturationAlpha:     clamp(alpha, minAlpha, maxAlpha),
		HalfSaturationPoint: clamp(halfSat, minHalfSatMultiple*minQty, maxHalfSatMultiple*maxQty),
	}
}

// alphaFromDecline selects the curve shape from the average per-unit rate
// decline between adjacent quantity tiers. A negative average means no
// saturation has shown up yet and falls into the gentlest band.
func (f *Fitter) alphaFromDecline(sorted []performance.CampaignOutcome) float64 {
	declines := make([]float64, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		qtyGap := sorted[i+1].Quantity - sorted[i].Quantity
		if qtyGap <= 0 {
			continue
		}
		declines = append(declines, (sorted[i].Rate-sorted[i+1].Rate)/qtyGap)
	}

	if len(declines) == 0 {
		return moderateSaturationAlpha
	}

	avgDecline, _ := stats.Mean(declines)

	switch {
	case avgDecline > fastDeclineThreshold:
		return fastSaturationAlpha
	case avgDecline > moderateDeclineThreshold:
		return moderateSaturationAlpha
	case avgDecline > slowDeclineThreshold:
		return slowSaturationAlpha
	default:
		return gentleSaturationAlpha
	}
}

// anchorHalfSaturation places the half-saturation point at the median
// quantity, then shifts it by how saturated the campaign nearest that
// median already looks against the estimated conversion ceiling.
func (f *Fitter) anchorHalfSaturation(sorted []performance.CampaignOutcome, estimatedMax float64) float64 {
	quantities := make([]float64, len(sorted))
	for i, c := range sorted {
		quantities[i] = c.Quantity
	}
	median, _ := stats.Median(quantities)

	if estimatedMax <= 0 {
		return median
	}

	midSaturation := nearestOutcome(sorted, median).Conversions / estimatedMax

	switch {
	case midSaturation > highMidpointSaturation:
		return median * halfSatTighten
	case midSaturation < lowMidpointSaturation:
		return median * halfSatRelax
	default:
		return median
	}
}

// nearestOutcome returns the campaign whose quantity is closest to target.
func nearestOutcome(sorted []performance.CampaignOutcome, target float64) performance.CampaignOutcome {
	best := sorted[0]
	bestGap := math.Abs(best.Quantity - target)
	for _, c := range sorted[1:] {
		if gap := math.Abs(c.Quantity - target); gap < bestGap {
			best = c
			bestGap = gap
		}
	}
	return best
}

// averages returns the mean rate and mean quantity of a campaign set.
func averages(campaigns []performance.CampaignOutcome) (avgRate, avgQty float64) {
	rates := make([]float64, len(campaigns))
	quantities := make([]float64, len(campaigns))
	for i, c := range campaigns {
		rates[i] = c.Rate
		quantities[i] = c.Quantity
	}
	avgRate, _ = stats.Mean(rates)
	avgQty, _ = stats.Mean(quantities)
	return avgRate, avgQty
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
