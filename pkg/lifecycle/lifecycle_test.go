package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFeedbackEligible(t *testing.T) {
	cases := map[string]bool{
		"completed":   true,
		"Completed":   true,
		" DELIVERED ": true,
		"delivered":   true,
		"placed":      false,
		"preparing":   false,
		"ready":       false,
		"cancelled":   false,
		"":            false,
		"complete":    false,
	}
	for status, want := range cases {
		assert.Equal(t, want, IsFeedbackEligible(status), "status %q", status)
	}
}

func TestValidateStatus(t *testing.T) {
	_, err := ValidateStatus("   ")
	assert.ErrorIs(t, err, ErrStatusRequired)

	s, err := ValidateStatus("  On The Way ")
	require.NoError(t, err)
	assert.Equal(t, "On The Way", s)
}

func TestDecide(t *testing.T) {
	assert.Equal(t, Decision{Reason: ReasonMissingOrder}, Decide(false, StatusCompleted, false))
	assert.Equal(t, Decision{Reason: ReasonNotCompleted}, Decide(true, StatusReady, false))
	assert.Equal(t, Decision{Reason: ReasonAlreadySubmitted}, Decide(true, "Delivered", true))
	assert.Equal(t, Decision{Eligible: true}, Decide(true, "COMPLETED", false))

	// a missing order wins over every other reason
	assert.Equal(t, ReasonMissingOrder, Decide(false, StatusPlaced, true).Reason)
}

func TestDecisionErrRoundTrip(t *testing.T) {
	for _, r := range []Reason{ReasonMissingOrder, ReasonNotCompleted, ReasonAlreadySubmitted} {
		err := Decision{Reason: r}.Err()
		require.Error(t, err)
		assert.Equal(t, r, ReasonOf(err))
	}
	assert.NoError(t, Decision{Eligible: true}.Err())
	assert.Equal(t, ReasonNone, ReasonOf(nil))
}

func TestValidateRating(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	assert.ErrorIs(t, ValidateRating(nil), ErrInvalidRating)
	assert.ErrorIs(t, ValidateRating(f(-1)), ErrInvalidRating)
	assert.ErrorIs(t, ValidateRating(f(5.5)), ErrInvalidRating)
	assert.NoError(t, ValidateRating(f(0)))
	assert.NoError(t, ValidateRating(f(4)))
	assert.NoError(t, ValidateRating(f(5)))
}
