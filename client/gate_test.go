package client

import (
	"context"
	"errors"
	"testing"

	"smartorder/pkg/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeedbackAPI struct {
	orders    map[string]*Order
	exists    map[string]bool
	submitted []string
}

func (f *fakeFeedbackAPI) GetOrder(_ context.Context, id string) (*Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, &APIError{Status: 404, Message: "order not found"}
}

func (f *fakeFeedbackAPI) FeedbackExists(_ context.Context, orderID string) (bool, error) {
	return f.exists[orderID], nil
}

func (f *fakeFeedbackAPI) SubmitFeedback(_ context.Context, orderID string, _ float64, _ string) (*Feedback, error) {
	if f.exists[orderID] {
		return nil, &APIError{Status: 409, Reason: string(lifecycle.ReasonAlreadySubmitted)}
	}
	f.exists[orderID] = true
	f.submitted = append(f.submitted, orderID)
	return &Feedback{ID: "f-" + orderID, OrderID: orderID}, nil
}

func newFakeFeedbackAPI() *fakeFeedbackAPI {
	return &fakeFeedbackAPI{
		orders: map[string]*Order{
			"done":    {ID: "done", Status: "Completed"},
			"served":  {ID: "served", Status: " delivered "},
			"cooking": {ID: "cooking", Status: "preparing"},
		},
		exists: map[string]bool{},
	}
}

func rating(v float64) *float64 { return &v }

func TestGate_Decisions(t *testing.T) {
	ctx := context.Background()
	api := newFakeFeedbackAPI()
	api.exists["served"] = true
	g := NewGate(api, NewMemoryStore(), true)

	cases := []struct {
		order  string
		want   bool
		reason lifecycle.Reason
	}{
		{"done", true, lifecycle.ReasonNone},
		{"served", false, lifecycle.ReasonAlreadySubmitted},
		{"cooking", false, lifecycle.ReasonNotCompleted},
		{"missing", false, lifecycle.ReasonMissingOrder},
	}
	for _, tc := range cases {
		t.Run(tc.order, func(t *testing.T) {
			d, err := g.Check(ctx, tc.order)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Eligible)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestGate_AuthenticatedSubmitOnce(t *testing.T) {
	ctx := context.Background()
	api := newFakeFeedbackAPI()
	g := NewGate(api, NewMemoryStore(), true)

	require.NoError(t, g.Submit(ctx, "done", rating(5), "great"))
	err := g.Submit(ctx, "done", rating(4), "again")
	assert.ErrorIs(t, err, lifecycle.ErrAlreadySubmitted)
	assert.Equal(t, []string{"done"}, api.submitted)
}

func TestGate_GuestFeedbackStaysLocal(t *testing.T) {
	ctx := context.Background()
	api := newFakeFeedbackAPI()
	store := NewMemoryStore()
	g := NewGate(api, store, false)

	require.NoError(t, g.Submit(ctx, "done", rating(3), " ok "))
	assert.Empty(t, api.submitted)

	list, err := store.GuestFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ok", list[0].Message)

	err = g.Submit(ctx, "done", rating(3), "")
	assert.ErrorIs(t, err, lifecycle.ErrAlreadySubmitted)
}

func TestGate_RejectsBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()
	api := newFakeFeedbackAPI()
	g := NewGate(api, NewMemoryStore(), true)

	err := g.Submit(ctx, "done", nil, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidRating)

	err = g.Submit(ctx, "done", rating(5.5), "")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidRating)

	err = g.Submit(ctx, "cooking", rating(5), "")
	assert.ErrorIs(t, err, lifecycle.ErrNotCompleted)

	assert.Empty(t, api.submitted)
}

func TestAPIError_Unwrap(t *testing.T) {
	err := error(&APIError{Status: 404, Reason: "missing_order"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, lifecycle.ErrMissingOrder)

	err = &APIError{Status: 422, Reason: "not_completed"}
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, lifecycle.ErrNotCompleted)

	err = &APIError{Status: 502}
	assert.ErrorIs(t, err, ErrTransient)
	assert.False(t, IsHalting(err))

	assert.True(t, IsHalting(&APIError{Status: 403}))
	assert.True(t, IsHalting(ErrNotOwner))
	assert.False(t, IsHalting(errors.New("dial tcp: refused")))
}
