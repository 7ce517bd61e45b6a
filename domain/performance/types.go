package performance

import (
	"time"

	"droplab/domain/core"
)

// StorePerformance is one store's aggregate historical performance across
// all completed campaigns.
type StorePerformance struct {
	ID             core.StoreID `json:"id"`
	Name           string       `json:"name"`
	Region         string       `json:"region"`
	ConversionRate float64      `json:"conversion_rate"` // %
	Recipients     int          `json:"recipients"`
	Conversions    int          `json:"conversions"`
}

// CampaignOutcome is one completed deployment's observed outcome for a
// single store: how many pieces were mailed and how many converted.
type CampaignOutcome struct {
	CampaignID  core.CampaignID  `json:"campaign_id"`
	Quantity    float64          `json:"quantity"`
	Conversions float64          `json:"conversions"`
	Rate        float64          `json:"rate"` // %, conversions/quantity
	CompletedAt core.CompletedAt `json:"completed_at"`
}

// RegionalPerformance aggregates conversion rates for one region.
type RegionalPerformance struct {
	Region         string  `json:"region"`
	ConversionRate float64 `json:"conversion_rate"` // %
	Stores         int     `json:"stores"`
}

// TimePeriodPattern is the aggregate conversion rate observed in one
// calendar month, across years.
type TimePeriodPattern struct {
	Period         time.Month `json:"period"`
	ConversionRate float64    `json:"conversion_rate"` // %
	Recipients     int        `json:"recipients"`
}

// Rate computes a percentage conversion rate with a zero-denominator guard.
// Shared by every adapter that turns raw counts into rates.
func Rate(conversions, recipients float64) float64 {
	if recipients <= 0 {
		return 0
	}
	return conversions / recipients * 100
}

// NewOutcome builds a CampaignOutcome with its rate derived from the counts.
func NewOutcome(campaignID core.CampaignID, quantity, conversions float64, completedAt time.Time) CampaignOutcome {
	return CampaignOutcome{
		CampaignID:  campaignID,
		Quantity:    quantity,
		Conversions: conversions,
		Rate:        Rate(conversions, quantity),
		CompletedAt: core.NewCompletedAt(completedAt),
	}
}
