// Package lifecycle holds the order status vocabulary and the feedback
// eligibility rule shared by the server and the polling client.
package lifecycle

import (
	"errors"
	"strings"
)

// Conventional status values. Status writes are not restricted to this list.
const (
	StatusPlaced    = "placed"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusCompleted = "completed"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Known lists the conventional statuses in the order the kitchen walks them.
var Known = []string{StatusPlaced, StatusPreparing, StatusReady, StatusCompleted, StatusDelivered, StatusCancelled}

var ErrStatusRequired = errors.New("status is required")

// Normalize returns the comparison form of a status.
func Normalize(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsFeedbackEligible reports whether an order in this status may receive
// feedback. Every terminal check in the codebase goes through here.
func IsFeedbackEligible(status string) bool {
	switch Normalize(status) {
	case StatusCompleted, StatusDelivered:
		return true
	}
	return false
}

// IsClosed is true for statuses after which the kitchen no longer works the order.
func IsClosed(status string) bool {
	return IsFeedbackEligible(status) || Normalize(status) == StatusCancelled
}

// ValidateStatus checks an incoming status write. Any non-blank string is
// accepted; the trimmed value is what gets stored.
func ValidateStatus(status string) (string, error) {
	s := strings.TrimSpace(status)
	if s == "" {
		return "", ErrStatusRequired
	}
	return s, nil
}
