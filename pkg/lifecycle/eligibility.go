package lifecycle

import (
	"errors"
	"fmt"
)

// Reason explains why feedback was refused.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonMissingOrder     Reason = "missing_order"
	ReasonNotCompleted     Reason = "not_completed"
	ReasonAlreadySubmitted Reason = "already_submitted"
)

const (
	MinRating = 0
	MaxRating = 5
)

var (
	ErrMissingOrder     = errors.New("order not found")
	ErrNotCompleted     = errors.New("order is not yet completed")
	ErrAlreadySubmitted = errors.New("feedback already submitted for this order")
	ErrInvalidRating    = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
)

// Decision is the outcome of an eligibility check.
type Decision struct {
	Eligible bool   `json:"eligible"`
	Reason   Reason `json:"reason,omitempty"`
}

// Decide applies the eligibility rule: the order exists, its status is
// terminal, and nothing has been recorded yet for this identity.
func Decide(orderFound bool, status string, alreadySubmitted bool) Decision {
	switch {
	case !orderFound:
		return Decision{Reason: ReasonMissingOrder}
	case !IsFeedbackEligible(status):
		return Decision{Reason: ReasonNotCompleted}
	case alreadySubmitted:
		return Decision{Reason: ReasonAlreadySubmitted}
	}
	return Decision{Eligible: true}
}

// Err converts a refusal into its sentinel error. Eligible decisions return nil.
func (d Decision) Err() error {
	return ReasonError(d.Reason)
}

// ReasonError maps a reason code to its sentinel error.
func ReasonError(r Reason) error {
	switch r {
	case ReasonMissingOrder:
		return ErrMissingOrder
	case ReasonNotCompleted:
		return ErrNotCompleted
	case ReasonAlreadySubmitted:
		return ErrAlreadySubmitted
	}
	return nil
}

// ReasonOf is the inverse of ReasonError.
func ReasonOf(err error) Reason {
	switch {
	case errors.Is(err, ErrMissingOrder):
		return ReasonMissingOrder
	case errors.Is(err, ErrNotCompleted):
		return ReasonNotCompleted
	case errors.Is(err, ErrAlreadySubmitted):
		return ReasonAlreadySubmitted
	}
	return ReasonNone
}

// ValidateRating rejects a missing rating or one outside the declared range.
func ValidateRating(rating *float64) error {
	if rating == nil || *rating < MinRating || *rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}
