package report

import (
	"fmt"
	"strings"
	"time"

	"droplab/domain/curve"
	"droplab/domain/forecast"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// BriefData carries everything one planning brief renders
type BriefData struct {
	StoreID        string
	GeneratedAt    time.Time
	Comparison     *forecast.PerformanceComparison
	Config         curve.Config
	EstimationPath string
}

// Markdown builds the planning brief: a verdict, the side-by-side forecast,
// the curve parameters behind it, and the data quality caveat.
func Markdown(data BriefData) string {
	var b strings.Builder
	c := data.Comparison

	fmt.Fprintf(&b, "# Planning Brief: Store %s\n\n", data.StoreID)
	fmt.Fprintf(&b, "Generated %s.\n\n", data.GeneratedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Verdict\n\n")
	fmt.Fprintf(&b, "**%s** (confidence: %s): %s\n\n", verdict(c.Recommendation), c.Confidence, deltaSentence(c.Delta))

	b.WriteString("## Side by side\n\n")
	b.WriteString("| | AI recommendation | User override |\n")
	b.WriteString("|---|---|---|\n")
	fmt.Fprintf(&b, "| Store | %s | %s |\n", c.AIRecommendation.StoreID, c.UserOverride.StoreID)
	fmt.Fprintf(&b, "| Quantity | %.0f | %.0f |\n", c.AIRecommendation.Quantity, c.UserOverride.Quantity)
	fmt.Fprintf(&b, "| Expected conversions | %.1f | %.1f |\n", c.AIRecommendation.ExpectedConversions, c.UserOverride.ExpectedConversions)
	fmt.Fprintf(&b, "| Effective rate | %.2f%% | %.2f%% |\n", c.AIRecommendation.ExpectedRate, c.UserOverride.ExpectedRate)
	fmt.Fprintf(&b, "| Cost per conversion | $%.2f | $%.2f |\n", c.AIRecommendation.CostPerConversion, c.UserOverride.CostPerConversion)
	fmt.Fprintf(&b, "| Saturation | %.0f%% | %.0f%% |\n", c.AIRecommendation.SaturationLevel*100, c.UserOverride.SaturationLevel*100)
	fmt.Fprintf(&b, "| Base percentile | %d | %d |\n", c.AIRecommendation.BasePercentile, c.UserOverride.BasePercentile)
	fmt.Fprintf(&b, "| Projected percentile | %d | %d |\n", c.AIRecommendation.ProjectedPercentile, c.UserOverride.ProjectedPercentile)
	b.WriteString("\n")

	b.WriteString("## Response curve\n\n")
	fmt.Fprintf(&b, "Estimation path: %s. Base rate %.2f%%, market size %.0f, alpha %.2f, half-saturation %.0f.\n\n",
		data.EstimationPath, data.Config.BaseConversionRate, data.Config.MarketSize,
		data.Config.SaturationAlpha, data.Config.HalfSaturationPoint)

	b.WriteString("## Data quality\n\n")
	fmt.Fprintf(&b, "%s\n", c.DataQuality.Message)

	return b.String()
}

// HTML renders the brief as a complete HTML page
func HTML(data BriefData) []byte {
	md := []byte(Markdown(data))

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables | parser.AutoHeadingIDs)
	doc := p.Parse(md)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Planning Brief: Store %s", data.StoreID),
	})
	return markdown.Render(doc, renderer)
}

func verdict(rec forecast.Recommendation) string {
	switch rec {
	case forecast.FavorAI:
		return "Keep the AI quantity"
	case forecast.FavorOverride:
		return "The override looks stronger"
	default:
		return "Either quantity performs comparably"
	}
}

func deltaSentence(delta forecast.DeltaMetrics) string {
	pct := delta.ConversionsDeltaPercent
	switch {
	case pct > 0:
		return fmt.Sprintf("the override forecasts %.1f%% more conversions.", pct)
	case pct < 0:
		return fmt.Sprintf("the override forecasts %.1f%% fewer conversions.", -pct)
	default:
		return "both quantities forecast the same conversions."
	}
}
