package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	StoreID      ID
	CampaignID   ID
	DeploymentID ID
	TrackingID   ID
)

// String conversions for domain IDs
func (id StoreID) String() string      { return ID(id).String() }
func (id CampaignID) String() string   { return ID(id).String() }
func (id DeploymentID) String() string { return ID(id).String() }
func (id TrackingID) String() string   { return ID(id).String() }

// IsEmpty checks for domain IDs
func (id StoreID) IsEmpty() bool    { return ID(id).IsEmpty() }
func (id CampaignID) IsEmpty() bool { return ID(id).IsEmpty() }

// ParseStoreID parses a string into StoreID
func ParseStoreID(s string) (StoreID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("store ID cannot be empty")
	}
	return StoreID(s), nil
}

// ParseCampaignID parses a string into CampaignID
func ParseCampaignID(s string) (CampaignID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("campaign ID cannot be empty")
	}
	return CampaignID(s), nil
}

// ParseDeploymentID parses a string into DeploymentID
func ParseDeploymentID(s string) (DeploymentID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("deployment ID cannot be empty")
	}
	return DeploymentID(s), nil
}

// NewTrackingID creates a tracking identifier for a mailed recipient.
// Tracking IDs link physical mail pieces back to online conversions.
func NewTrackingID() TrackingID {
	return TrackingID(NewID())
}
