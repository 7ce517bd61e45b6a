package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// Month returns the calendar month, used for seasonal pattern lookups
func (t Timestamp) Month() time.Month {
	return time.Time(t).Month()
}

// Domain-specific time types
type (
	// CompletedAt marks when a campaign deployment finished mailing
	CompletedAt Timestamp
)

// NewCompletedAt creates a CompletedAt from time.Time
func NewCompletedAt(t time.Time) CompletedAt { return CompletedAt(NewTimestamp(t)) }

// Time conversions
func (t CompletedAt) Time() time.Time   { return Timestamp(t).Time() }
func (t CompletedAt) Month() time.Month { return Timestamp(t).Month() }

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

// JSON marshaling for CompletedAt. Named time types do not inherit the
// underlying Timestamp methods, so these forward explicitly.
func (t CompletedAt) MarshalJSON() ([]byte, error) {
	return Timestamp(t).MarshalJSON()
}

func (t *CompletedAt) UnmarshalJSON(data []byte) error {
	var ts Timestamp
	if err := ts.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = CompletedAt(ts)
	return nil
}

// String representations
func (t CompletedAt) String() string { return t.Time().Format(time.RFC3339) }
