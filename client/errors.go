package client

import (
	"errors"
	"fmt"
	"net/http"

	"smartorder/pkg/lifecycle"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrTransient    = errors.New("temporarily unavailable")

	// ErrNotOwner means the fetched order belongs to another signed-in user.
	ErrNotOwner = errors.New("order belongs to another user")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Reason  string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap exposes the status class and, for feedback refusals, the
// lifecycle sentinel matching the reason code.
func (e *APIError) Unwrap() []error {
	errs := []error{kindOf(e.Status)}
	if r := lifecycle.ReasonError(lifecycle.Reason(e.Reason)); r != nil {
		errs = append(errs, r)
	}
	return errs
}

func kindOf(status int) error {
	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusTooManyRequests, status >= 500:
		return ErrTransient
	default:
		return ErrValidation
	}
}

// IsHalting reports whether err stops polling rather than waiting for the next tick.
func IsHalting(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotOwner)
}
