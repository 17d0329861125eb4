package thinout

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceedsSpan is returned when a policy entry asks a bucket to
	// hold more items than it has days.
	ErrCapacityExceedsSpan = errors.New("capacity exceeds span")

	// ErrNegativeEntry is returned for a policy entry with a negative span or
	// capacity.
	ErrNegativeEntry = errors.New("span and capacity must be non-negative")

	// ErrEmptyPolicy is returned when a policy has no entries.
	ErrEmptyPolicy = errors.New("policy has no entries")

	// ErrEmptyInterval is returned when the victim selector is asked to pick
	// from a bucket that holds no items. Reaching it means the bucket indices
	// are out of sync with the item sequence.
	ErrEmptyInterval = errors.New("empty interval")

	// ErrInvalidWeight is returned when a weigher produces a value that is not
	// a positive finite number.
	ErrInvalidWeight = errors.New("weight must be a positive finite number")
)

// PolicyError reports a policy entry that cannot be compiled into a bucket.
type PolicyError struct {
	Index int   // Position of the offending entry, nearest-to-anchor first
	Entry Entry // The offending entry
	Cause error // Underlying error
}

// Error implements the error interface.
func (e *PolicyError) Error() string {
	if errors.Is(e.Cause, ErrCapacityExceedsSpan) {
		return fmt.Sprintf("policy error [entry=%d]: cannot keep %d items in %d days",
			e.Index, e.Entry.Capacity, e.Entry.Span)
	}
	return fmt.Sprintf("policy error [entry=%d, span=%d, capacity=%d]: %v",
		e.Index, e.Entry.Span, e.Entry.Capacity, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PolicyError) Unwrap() error {
	return e.Cause
}

// NewPolicyError creates a new PolicyError.
func NewPolicyError(index int, entry Entry, cause error) *PolicyError {
	return &PolicyError{
		Index: index,
		Entry: entry,
		Cause: cause,
	}
}

// WeightError reports a weigher result that cannot be used for scoring.
type WeightError struct {
	ItemID string  // ID of the item being weighed
	Weight float64 // Value returned by the weigher
}

// Error implements the error interface.
func (e *WeightError) Error() string {
	return fmt.Sprintf("weight error [item=%s, weight=%v]: %v", e.ItemID, e.Weight, ErrInvalidWeight)
}

// Unwrap returns ErrInvalidWeight.
func (e *WeightError) Unwrap() error {
	return ErrInvalidWeight
}
