package forecast

import "fmt"

// Delta label thresholds on the percent conversion delta. Hand-tuned
// literals; preserve as constants rather than re-deriving.
const (
	MuchBetterThreshold = 20.0
	BetterThreshold     = 5.0
	WorseThreshold      = -5.0
	MuchWorseThreshold  = -20.0
)

// Confidence tier boundaries on combined historical sample size.
const (
	HighConfidenceSamples   = 20
	MediumConfidenceSamples = 10
	SufficientSamples       = 10
)

// ClassifyDelta maps a percent conversion delta onto its categorical label.
func ClassifyDelta(deltaPercent float64) DeltaLabel {
	switch {
	case deltaPercent > MuchBetterThreshold:
		return LabelMuchBetter
	case deltaPercent > BetterThreshold:
		return LabelBetter
	case deltaPercent < MuchWorseThreshold:
		return LabelMuchWorse
	case deltaPercent < WorseThreshold:
		return LabelWorse
	default:
		return LabelSimilar
	}
}

// Recommend maps a delta label onto the overall verdict.
func Recommend(label DeltaLabel) Recommendation {
	switch label {
	case LabelWorse, LabelMuchWorse:
		return FavorAI
	case LabelBetter, LabelMuchBetter:
		return FavorOverride
	default:
		return Similar
	}
}

// ConfidenceFor maps combined historical sample size onto a confidence tier.
func ConfidenceFor(totalSamples int) Confidence {
	switch {
	case totalSamples >= HighConfidenceSamples:
		return ConfidenceHigh
	case totalSamples >= MediumConfidenceSamples:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// AssessDataQuality reports whether the combined history is deep enough to
// trust the comparison, with a message reflecting the tier.
func AssessDataQuality(totalSamples int) DataQuality {
	quality := DataQuality{
		SampleSize: totalSamples,
		Sufficient: totalSamples >= SufficientSamples,
	}

	switch {
	case totalSamples >= HighConfidenceSamples:
		quality.Message = fmt.Sprintf("Strong historical coverage (%d campaign samples)", totalSamples)
	case totalSamples >= MediumConfidenceSamples:
		quality.Message = fmt.Sprintf("Moderate historical coverage (%d campaign samples)", totalSamples)
	default:
		quality.Message = fmt.Sprintf("Limited historical data (%d campaign samples); treat estimates as directional", totalSamples)
	}

	return quality
}

// NewDelta computes the delta block between the AI and override scenarios.
// Divide-by-zero degrades to 0 rather than erroring.
func NewDelta(ai, user PerformanceMetrics) DeltaMetrics {
	delta := user.ExpectedConversions - ai.ExpectedConversions

	deltaPercent := 0.0
	if ai.ExpectedConversions != 0 {
		deltaPercent = delta / ai.ExpectedConversions * 100
	}

	return DeltaMetrics{
		ConversionsDelta:        delta,
		ConversionsDeltaPercent: deltaPercent,
		CostEfficiencyDelta:     user.CostPerConversion - ai.CostPerConversion,
		Label:                   ClassifyDelta(deltaPercent),
	}
}

// CostPerConversion computes campaign spend per expected conversion,
// degrading to 0 when the forecast expects none.
func CostPerConversion(quantity, unitCost, expectedConversions float64) float64 {
	if expectedConversions <= 0 {
		return 0
	}
	return quantity * unitCost / expectedConversions
}
