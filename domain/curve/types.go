package curve

import (
	"fmt"

	"droplab/domain/core"
)

// Config holds the per-store parameters of a diminishing-returns response
// curve. All four fields must be positive for the curve to be well-formed.
type Config struct {
	BaseConversionRate  float64 `json:"base_conversion_rate"`  // %, historical rate at low volume
	MarketSize          float64 `json:"market_size"`           // estimated addressable contacts
	SaturationAlpha     float64 `json:"saturation_alpha"`      // curve shape, realistic range 0.6-1.8
	HalfSaturationPoint float64 `json:"half_saturation_point"` // quantity yielding 50% of the market cap
}

// Result is the evaluation of a response curve at one mailing quantity.
// Derived, never persisted.
type Result struct {
	ExpectedConversions     float64 `json:"expected_conversions"`
	EffectiveConversionRate float64 `json:"effective_conversion_rate"` // %, declines as quantity grows
	SaturationLevel         float64 `json:"saturation_level"`          // 0.0-1.0
	EfficiencyIndex         float64 `json:"efficiency_index"`          // ratio to the baseline rate
}

// ModelComparison contrasts a naive linear projection against the saturation
// curve at the same quantity. Informational only.
type ModelComparison struct {
	Quantity            float64 `json:"quantity"`
	LinearConversions   float64 `json:"linear_conversions"`
	LinearRate          float64 `json:"linear_rate"`
	CurveConversions    float64 `json:"curve_conversions"`
	CurveRate           float64 `json:"curve_rate"`
	OverestimatePercent float64 `json:"overestimate_percent"` // how far the linear model overshoots
	Config              Config  `json:"config"`
}

// Default config for stores with no usable history at all
const (
	DefaultBaseConversionRate  = 3.0
	DefaultMarketSize          = 10000.0
	DefaultSaturationAlpha     = 1.0
	DefaultHalfSaturationPoint = 6000.0
)

// DefaultConfig returns the fixed fallback configuration used when no
// historical signal exists for a store.
func DefaultConfig() Config {
	return Config{
		BaseConversionRate:  DefaultBaseConversionRate,
		MarketSize:          DefaultMarketSize,
		SaturationAlpha:     DefaultSaturationAlpha,
		HalfSaturationPoint: DefaultHalfSaturationPoint,
	}
}

// Validate checks the positivity invariant on all curve parameters.
func (c Config) Validate() error {
	if c.BaseConversionRate <= 0 {
		return fmt.Errorf("%w: base_conversion_rate = %v", core.ErrInvalidCurveConfig, c.BaseConversionRate)
	}
	if c.MarketSize <= 0 {
		return fmt.Errorf("%w: market_size = %v", core.ErrInvalidCurveConfig, c.MarketSize)
	}
	if c.SaturationAlpha <= 0 {
		return fmt.Errorf("%w: saturation_alpha = %v", core.ErrInvalidCurveConfig, c.SaturationAlpha)
	}
	if c.HalfSaturationPoint <= 0 {
		return fmt.Errorf("%w: half_saturation_point = %v", core.ErrInvalidCurveConfig, c.HalfSaturationPoint)
	}
	return nil
}

// MaxConversions returns the conversion ceiling implied by the market size
// and the baseline rate.
func (c Config) MaxConversions() float64 {
	return c.MarketSize * c.BaseConversionRate / 100
}
