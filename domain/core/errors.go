package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrStoreNotFound    = fmt.Errorf("%w: store", ErrNotFound)
	ErrCampaignNotFound = fmt.Errorf("%w: campaign", ErrNotFound)

	// Validation errors
	ErrInvalidQuantity    = errors.New("mailing quantity must be positive")
	ErrInvalidCurveConfig = errors.New("invalid response curve configuration")
	ErrInvalidUnitCost    = errors.New("unit cost cannot be negative")

	// Data availability errors
	ErrInsufficientHistory = errors.New("insufficient campaign history")
	ErrDataUnavailable     = errors.New("performance data unavailable")
	ErrEmptyFleet          = errors.New("no stores with performance data")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewQuantityError(field string, value float64) error {
	return fmt.Errorf("%w: %s = %v", ErrInvalidQuantity, field, value)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidCurveConfig) ||
		errors.Is(err, ErrInvalidUnitCost)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrInsufficientHistory) ||
		errors.Is(err, ErrDataUnavailable) ||
		errors.Is(err, ErrEmptyFleet)
}
