package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartorder/pkg/lifecycle"
)

// FeedbackAPI is what the gate needs from the server.
type FeedbackAPI interface {
	OrderFetcher
	FeedbackExists(ctx context.Context, orderID string) (bool, error)
	SubmitFeedback(ctx context.Context, orderID string, rating float64, message string) (*Feedback, error)
}

// Gate decides whether the session may leave feedback for an order and
// routes accepted feedback to the server or, for guests, the local store.
type Gate struct {
	api   FeedbackAPI
	store Store
	guest bool
	now   func() time.Time
}

// NewGate builds a gate; authenticated selects the server path.
func NewGate(api FeedbackAPI, store Store, authenticated bool) *Gate {
	return &Gate{api: api, store: store, guest: !authenticated, now: time.Now}
}

func (g *Gate) Check(ctx context.Context, orderID string) (lifecycle.Decision, error) {
	o, err := g.api.GetOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return lifecycle.Decide(false, "", false), nil
	}
	if err != nil {
		return lifecycle.Decision{}, err
	}

	var exists bool
	if g.guest {
		exists, err = g.guestHas(ctx, orderID)
	} else {
		exists, err = g.api.FeedbackExists(ctx, orderID)
	}
	if err != nil {
		return lifecycle.Decision{}, err
	}
	return lifecycle.Decide(true, o.Status, exists), nil
}

func (g *Gate) guestHas(ctx context.Context, orderID string) (bool, error) {
	list, err := g.store.GuestFeedback(ctx)
	if err != nil {
		return false, err
	}
	for _, f := range list {
		if f.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

// Submit validates the rating, re-runs the check and records the feedback.
// A refusal comes back as the lifecycle sentinel for its reason.
func (g *Gate) Submit(ctx context.Context, orderID string, rating *float64, message string) error {
	if err := lifecycle.ValidateRating(rating); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	d, err := g.Check(ctx, orderID)
	if err != nil {
		return err
	}
	if !d.Eligible {
		return d.Err()
	}

	message = strings.TrimSpace(message)
	if g.guest {
		return g.store.AppendGuestFeedback(ctx, GuestFeedback{
			OrderID:   orderID,
			Rating:    *rating,
			Message:   message,
			CreatedAt: g.now().UTC(),
		})
	}
	_, err = g.api.SubmitFeedback(ctx, orderID, *rating, message)
	return err
}
