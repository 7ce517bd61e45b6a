package curve

import (
	"math"
)

// Heuristic multipliers for single-point estimation. The historical volume is
// assumed to have reached about a third of the addressable market, and the
// half-saturation point sits at 60% of that market.
const (
	estimatedMarketMultiple = 3.0
	estimatedHalfSatShare   = 0.6
	moderateAlpha           = 1.0
)

// Calculate evaluates the Hill saturation curve at a mailing quantity.
//
//	saturation = q^alpha / (halfSat^alpha + q^alpha)
//	expected   = marketSize * baseRate/100 * saturation
//
// Expected conversions grow monotonically but strictly concave in quantity;
// the saturation level stays in [0,1) and crosses exactly 0.5 at the
// half-saturation point for any alpha. Callers must guarantee quantity > 0;
// a zero quantity yields NaN rather than an internal guard.
func Calculate(quantity float64, cfg Config) Result {
	qAlpha := math.Pow(quantity, cfg.SaturationAlpha)
	halfAlpha := math.Pow(cfg.HalfSaturationPoint, cfg.SaturationAlpha)

	saturation := qAlpha / (halfAlpha + qAlpha)
	expected := cfg.MaxConversions() * saturation
	effectiveRate := expected / quantity * 100

	return Result{
		ExpectedConversions:     expected,
		EffectiveConversionRate: effectiveRate,
		SaturationLevel:         saturation,
		EfficiencyIndex:         effectiveRate / cfg.BaseConversionRate,
	}
}

// Estimate builds a curve configuration from a single historical observation.
// This is a fixed-multiplier heuristic, not a statistical fit: it is the
// fallback when a store lacks enough campaign variation for FitFromHistory.
// The region is accepted for future market-size lookups but does not
// influence the estimate today. Degenerate inputs fall back to DefaultConfig.
func Estimate(historicalRate, historicalQuantity float64, region string) Config {
	if historicalRate <= 0 || historicalQuantity <= 0 {
		return DefaultConfig()
	}

	marketSize := historicalQuantity * estimatedMarketMultiple
	return Config{
		BaseConversionRate:  historicalRate,
		MarketSize:          marketSize,
		SaturationAlpha:     moderateAlpha,
		HalfSaturationPoint: marketSize * estimatedHalfSatShare,
	}
}

// CompareModels contrasts the naive linear projection (constant rate) with
// the saturation curve at the same quantity, on the default market sized
// with the caller's base rate. Diagnostic only: at low quantities the linear
// model under-estimates (the curve converts early contacts above baseline),
// past the crossover it over-estimates because saturation bites.
func CompareModels(quantity, baseRate float64) ModelComparison {
	cfg := DefaultConfig()
	if baseRate > 0 {
		cfg.BaseConversionRate = baseRate
	}
	res := Calculate(quantity, cfg)

	linear := quantity * cfg.BaseConversionRate / 100

	overshoot := 0.0
	if res.ExpectedConversions > 0 {
		overshoot = (linear - res.ExpectedConversions) / res.ExpectedConversions * 100
	}

	return ModelComparison{
		Quantity:            quantity,
		LinearConversions:   linear,
		LinearRate:          cfg.BaseConversionRate,
		CurveConversions:    res.ExpectedConversions,
		CurveRate:           res.EffectiveConversionRate,
		OverestimatePercent: overshoot,
		Config:              cfg,
	}
}
