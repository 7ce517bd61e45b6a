package forecast

// PerformanceMetrics is one side of a comparison: the forecast for a single
// store at a single mailing quantity.
type PerformanceMetrics struct {
	StoreID                  string  `json:"store_id"`
	Quantity                 float64 `json:"quantity"`
	ExpectedConversions      float64 `json:"expected_conversions"`
	ExpectedRate             float64 `json:"expected_rate"` // %
	CostPerConversion        float64 `json:"cost_per_conversion"`
	BasePercentile           int     `json:"base_percentile"`      // 0-100, structural rank among all stores
	ProjectedPercentile      int     `json:"projected_percentile"` // 0-100, re-ranked at this saturation level
	SaturationLevel          float64 `json:"saturation_level"`
	RegionalPerformanceIndex float64 `json:"regional_performance_index"` // 1.0 = average
	SeasonalPerformanceIndex float64 `json:"seasonal_performance_index"` // 1.0 = average
	HistoricalSampleSize     int     `json:"historical_sample_size"`
}

// DeltaMetrics quantifies the gap between the user override and the AI
// recommendation. Positive deltas favor the override.
type DeltaMetrics struct {
	ConversionsDelta        float64    `json:"conversions_delta"`
	ConversionsDeltaPercent float64    `json:"conversions_delta_percent"`
	CostEfficiencyDelta     float64    `json:"cost_efficiency_delta"` // user cost/conv minus AI cost/conv
	Label                   DeltaLabel `json:"label"`
}

// DataQuality reports how much history backed the comparison.
type DataQuality struct {
	SampleSize int    `json:"sample_size"`
	Sufficient bool   `json:"sufficient"`
	Message    string `json:"message"`
}

// PerformanceComparison is the full side-by-side forecast. Always fully
// populated; safe to serialize directly to JSON.
type PerformanceComparison struct {
	AIRecommendation PerformanceMetrics `json:"ai_recommendation"`
	UserOverride     PerformanceMetrics `json:"user_override"`
	Delta            DeltaMetrics       `json:"delta"`
	Recommendation   Recommendation     `json:"recommendation"`
	Confidence       Confidence         `json:"confidence"`
	DataQuality      DataQuality        `json:"data_quality"`
}

// DeltaLabel categorizes the conversion delta between the two scenarios
type DeltaLabel string

const (
	LabelMuchBetter DeltaLabel = "much_better"
	LabelBetter     DeltaLabel = "better"
	LabelSimilar    DeltaLabel = "similar"
	LabelWorse      DeltaLabel = "worse"
	LabelMuchWorse  DeltaLabel = "much_worse"
)

// Recommendation is the qualitative verdict on which quantity to mail
type Recommendation string

const (
	FavorAI       Recommendation = "favor_ai"
	FavorOverride Recommendation = "favor_override"
	Similar       Recommendation = "similar"
)

// Confidence tiers keyed by combined historical sample size
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)
