package seed

import (
	"fmt"
	"math/rand"
	"time"

	"droplab/domain/core"
	"droplab/internal/testkit"
)

// Plan is everything one seeding run will write, precomputed so it can be
// inspected and tested without a database. Row order follows foreign key
// dependencies: stores and the campaign first, conversions last.
type Plan struct {
	Campaign    CampaignRow
	Stores      []StoreRow
	Deployments []DeploymentRow
	Recipients  []RecipientRow
	Links       []LinkRow
	Conversions []ConversionRow
}

// StoreRow seeds one retail store
type StoreRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Region       string `db:"region"`
	SizeCategory string `db:"size_category"`
}

// CampaignRow seeds the demo campaign all deployments hang off
type CampaignRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// DeploymentRow seeds one completed store mailing
type DeploymentRow struct {
	ID         string    `db:"id"`
	CampaignID string    `db:"campaign_id"`
	StoreID    string    `db:"store_id"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

// RecipientRow seeds one mailed customer with their tracking id
type RecipientRow struct {
	ID         string    `db:"id"`
	CampaignID string    `db:"campaign_id"`
	TrackingID string    `db:"tracking_id"`
	Name       string    `db:"name"`
	Lastname   string    `db:"lastname"`
	Email      string    `db:"email"`
	CreatedAt  time.Time `db:"created_at"`
}

// LinkRow ties a recipient to the deployment that mailed them
type LinkRow struct {
	ID           string `db:"id"`
	DeploymentID string `db:"deployment_id"`
	RecipientID  string `db:"recipient_id"`
}

// ConversionRow seeds one tracked conversion event
type ConversionRow struct {
	ID         string    `db:"id"`
	TrackingID string    `db:"tracking_id"`
	Type       string    `db:"conversion_type"`
	CreatedAt  time.Time `db:"created_at"`
}

const demoCampaignName = "Demo Planning Campaign"

// BuildPlan expands a synthetic fleet snapshot into per-recipient seed rows.
// Each campaign outcome becomes a completed deployment whose recipients are
// mailed on the outcome date; converters are sampled with the seeded rng so
// the same inputs always select the same recipient positions.
func BuildPlan(data *testkit.FleetData, seed int64) *Plan {
	rng := rand.New(rand.NewSource(seed))

	plan := &Plan{
		Campaign: CampaignRow{
			ID:   core.NewID().String(),
			Name: demoCampaignName,
		},
	}

	for _, store := range data.Stores {
		plan.Stores = append(plan.Stores, StoreRow{
			ID:           store.ID.String(),
			Name:         store.Name,
			Region:       store.Region,
			SizeCategory: sizeCategory(store.Recipients),
		})

		for _, outcome := range data.History[store.ID] {
			plan.expandOutcome(rng, store.ID.String(), outcome.Quantity, outcome.Conversions, outcome.CompletedAt.Time())
		}
	}

	return plan
}

// expandOutcome appends one deployment with its recipients, links, and
// sampled conversions.
func (p *Plan) expandOutcome(rng *rand.Rand, storeID string, quantity, conversions float64, completedAt time.Time) {
	deploymentID := core.NewID().String()
	p.Deployments = append(p.Deployments, DeploymentRow{
		ID:         deploymentID,
		CampaignID: p.Campaign.ID,
		StoreID:    storeID,
		Status:     "completed",
		CreatedAt:  completedAt,
	})

	count := int(quantity)
	trackingIDs := make([]string, count)
	for j := 0; j < count; j++ {
		recipientID := core.NewID().String()
		trackingID := core.NewTrackingID().String()
		trackingIDs[j] = trackingID

		p.Recipients = append(p.Recipients, RecipientRow{
			ID:         recipientID,
			CampaignID: p.Campaign.ID,
			TrackingID: trackingID,
			Name:       "Customer",
			Lastname:   fmt.Sprintf("#%d", j+1),
			Email:      fmt.Sprintf("customer%d@example.com", j),
			CreatedAt:  completedAt,
		})
		p.Links = append(p.Links, LinkRow{
			ID:           core.NewID().String(),
			DeploymentID: deploymentID,
			RecipientID:  recipientID,
		})
	}

	converted := int(conversions)
	if converted > count {
		converted = count
	}
	for _, idx := range rng.Perm(count)[:converted] {
		p.Conversions = append(p.Conversions, ConversionRow{
			ID:         core.NewID().String(),
			TrackingID: trackingIDs[idx],
			Type:       "form_submission",
			CreatedAt:  completedAt,
		})
	}
}

func sizeCategory(recipients int) string {
	switch {
	case recipients >= 20000:
		return "large"
	case recipients >= 5000:
		return "medium"
	default:
		return "small"
	}
}
