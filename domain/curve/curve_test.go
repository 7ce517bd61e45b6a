package curve

import (
	"math"
	"testing"
)

// TestCalculateMonotonicity tests that expected conversions never decrease
// with quantity while the effective rate decays past the half-saturation point
func TestCalculateMonotonicity(t *testing.T) {
	cfg := Config{
		BaseConversionRate:  3.0,
		MarketSize:          10000,
		SaturationAlpha:     1.0,
		HalfSaturationPoint: 2000,
	}

	quantities := []float64{100, 500, 1000, 2000, 4000, 8000, 16000, 50000}

	prevConversions := -1.0
	prevRate := math.MaxFloat64
	for _, q := range quantities {
		res := Calculate(q, cfg)

		if res.ExpectedConversions < prevConversions {
			t.Errorf("Expected conversions to be non-decreasing, got %f after %f at q=%f",
				res.ExpectedConversions, prevConversions, q)
		}
		prevConversions = res.ExpectedConversions

		if q >= cfg.HalfSaturationPoint {
			if res.EffectiveConversionRate > prevRate {
				t.Errorf("Expected effective rate to be non-increasing past half-saturation, got %f after %f at q=%f",
					res.EffectiveConversionRate, prevRate, q)
			}
			prevRate = res.EffectiveConversionRate
		}

		if res.SaturationLevel < 0 || res.SaturationLevel >= 1 {
			t.Errorf("Saturation level out of [0,1) at q=%f: %f", q, res.SaturationLevel)
		}
	}
}

// TestCalculateConcavity tests diminishing marginal conversions
func TestCalculateConcavity(t *testing.T) {
	cfg := DefaultConfig()

	prevGain := math.MaxFloat64
	step := 1000.0
	for q := step; q <= 20000; q += step {
		gain := Calculate(q+step, cfg).ExpectedConversions - Calculate(q, cfg).ExpectedConversions
		if gain > prevGain+1e-9 {
			t.Errorf("Marginal conversions should shrink with quantity, got gain %f after %f at q=%f", gain, prevGain, q)
		}
		prevGain = gain
	}
}

// TestSaturationAtHalfPoint tests that the curve crosses exactly 50%
// saturation at the half-saturation point for any alpha
func TestSaturationAtHalfPoint(t *testing.T) {
	alphas := []float64{0.6, 0.7, 1.0, 1.3, 1.5, 1.8}

	for _, alpha := range alphas {
		cfg := Config{
			BaseConversionRate:  4.0,
			MarketSize:          20000,
			SaturationAlpha:     alpha,
			HalfSaturationPoint: 3000,
		}
		res := Calculate(cfg.HalfSaturationPoint, cfg)
		if math.Abs(res.SaturationLevel-0.5) > 1e-9 {
			t.Errorf("Expected saturation 0.5 at half-sat point for alpha=%f, got %f", alpha, res.SaturationLevel)
		}
		if math.Abs(res.ExpectedConversions-cfg.MaxConversions()/2) > 1e-6 {
			t.Errorf("Expected half of max conversions at half-sat point for alpha=%f, got %f", alpha, res.ExpectedConversions)
		}
	}
}

// TestEstimateHeuristic tests the fixed-multiplier estimation
func TestEstimateHeuristic(t *testing.T) {
	cfg := Estimate(2.5, 1000, "portland")

	if cfg.BaseConversionRate != 2.5 {
		t.Errorf("Expected base rate 2.5, got %f", cfg.BaseConversionRate)
	}
	if cfg.MarketSize != 3000 {
		t.Errorf("Expected market size 3000 (3x volume), got %f", cfg.MarketSize)
	}
	if cfg.SaturationAlpha != 1.0 {
		t.Errorf("Expected moderate alpha 1.0, got %f", cfg.SaturationAlpha)
	}
	if cfg.HalfSaturationPoint != 1800 {
		t.Errorf("Expected half-sat 1800 (60%% of market), got %f", cfg.HalfSaturationPoint)
	}
}

// TestEstimateDegenerateInputs tests fallback to defaults
func TestEstimateDegenerateInputs(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		quantity float64
	}{
		{"zero rate", 0, 1000},
		{"negative rate", -1, 1000},
		{"zero quantity", 3.0, 0},
		{"negative quantity", 3.0, -500},
	}

	for _, test := range tests {
		cfg := Estimate(test.rate, test.quantity, "")
		if cfg != DefaultConfig() {
			t.Errorf("%s: expected default config, got %+v", test.name, cfg)
		}
	}
}

// TestEstimateRoundTrip tests that evaluating the heuristic config at the
// observed quantity lands near the observed rate. With halfSat = 1.8x the
// observed quantity and market = 3x, the curve reproduces the rate times
// 3/2.8 (~7% high). This looseness is inherent to the heuristic.
func TestEstimateRoundTrip(t *testing.T) {
	rate := 3.0
	quantity := 1500.0

	cfg := Estimate(rate, quantity, "")
	res := Calculate(quantity, cfg)

	expected := rate * 3.0 / 2.8
	if math.Abs(res.EffectiveConversionRate-expected) > 1e-9 {
		t.Errorf("Expected round-trip rate %f, got %f", expected, res.EffectiveConversionRate)
	}
	if res.EffectiveConversionRate < rate || res.EffectiveConversionRate > rate*1.15 {
		t.Errorf("Round-trip rate %f strayed from observed %f beyond the heuristic's looseness", res.EffectiveConversionRate, rate)
	}
}

// TestDefaultConfigValid tests that the fallback config passes validation
func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

// TestConfigValidate tests the positivity invariant
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{3.0, 10000, 1.0, 6000}, false},
		{"zero rate", Config{0, 10000, 1.0, 6000}, true},
		{"zero market", Config{3.0, 0, 1.0, 6000}, true},
		{"negative alpha", Config{3.0, 10000, -0.5, 6000}, true},
		{"zero half-sat", Config{3.0, 10000, 1.0, 0}, true},
	}

	for _, test := range tests {
		err := test.cfg.Validate()
		if test.wantErr && err == nil {
			t.Errorf("%s: expected validation error, got none", test.name)
		}
		if !test.wantErr && err != nil {
			t.Errorf("%s: unexpected validation error: %v", test.name, err)
		}
	}
}

// TestCompareModelsCrossover tests that the linear model under-estimates at
// low volume and over-estimates once quantity pushes into saturation.
// On the default market the two models cross at q=4000.
func TestCompareModelsCrossover(t *testing.T) {
	low := CompareModels(1000, 3.0)
	if low.LinearConversions != 30 {
		t.Errorf("Expected linear conversions 30 (1000 x 3%%), got %f", low.LinearConversions)
	}
	if low.OverestimatePercent >= 0 {
		t.Errorf("Expected linear model to under-estimate at low volume, got overshoot %f", low.OverestimatePercent)
	}

	high := CompareModels(20000, 3.0)
	if high.LinearConversions != 600 {
		t.Errorf("Expected linear conversions 600 (20000 x 3%%), got %f", high.LinearConversions)
	}
	if high.CurveConversions >= high.LinearConversions {
		t.Errorf("Expected curve conversions %f below linear %f deep into saturation", high.CurveConversions, high.LinearConversions)
	}
	if high.OverestimatePercent <= 0 {
		t.Errorf("Expected positive linear overshoot deep into saturation, got %f", high.OverestimatePercent)
	}
}
