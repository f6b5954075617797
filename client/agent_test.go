package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smartorder/pkg/lifecycle"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls  atomic.Int32
	fn     func(n int32, id string) (*Order, error)
	create func(in *NewOrder) (*Order, error)
}

func (f *fakeFetcher) GetOrder(_ context.Context, id string) (*Order, error) {
	n := f.calls.Add(1)
	return f.fn(n, id)
}

func (f *fakeFetcher) CreateOrder(_ context.Context, in *NewOrder) (*Order, error) {
	if f.create == nil {
		return nil, errors.New("checkout not configured")
	}
	return f.create(in)
}

// hookStore runs onSave after every SaveLastOrder.
type hookStore struct {
	*MemoryStore
	onSave func(o *Order)
}

func (s *hookStore) SaveLastOrder(ctx context.Context, o *Order) error {
	if err := s.MemoryStore.SaveLastOrder(ctx, o); err != nil {
		return err
	}
	if s.onSave != nil {
		s.onSave(o)
	}
	return nil
}

func zingerSnapshot(id string) *Order {
	return &Order{
		ID:                id,
		Items:             []OrderItem{{ProductID: 1, Name: "Zinger Burger", Price: 499, Quantity: 1}},
		Subtotal:          499,
		AdditionalCharges: 50,
		Total:             549,
		TableNumber:       "T5",
		Status:            lifecycle.StatusPlaced,
		CreatedAt:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func status(s string) func(int32, string) (*Order, error) {
	return func(_ int32, id string) (*Order, error) { return &Order{ID: id, Status: s}, nil }
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

type recorder struct {
	mu        sync.Mutex
	updates   []string
	completed []string
	errs      []error
}

func (r *recorder) config() AgentConfig {
	return AgentConfig{
		Logger: quiet(),
		OnUpdate: func(o *Order) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.updates = append(r.updates, o.Status)
		},
		OnComplete: func(o *Order) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completed = append(r.completed, o.ID)
		},
		OnError: func(_ string, err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) counts() (updates, completed, errs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates), len(r.completed), len(r.errs)
}

func TestAgent_CompletionNotifiesOnceAcrossPollsAndRestart(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	api := &fakeFetcher{fn: status("Completed")}

	rec := &recorder{}
	a := NewAgent(api, store, rec.config())
	require.NoError(t, a.Track(ctx, "o-1"))
	for i := 0; i < 3; i++ {
		a.Poll(ctx)
	}
	updates, completed, errs := rec.counts()
	assert.Equal(t, 3, updates)
	assert.Equal(t, 1, completed)
	assert.Zero(t, errs)

	// new session over the same persisted state
	rec2 := &recorder{}
	b := NewAgent(api, store, rec2.config())
	id, err := b.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o-1", id)
	b.Poll(ctx)
	updates, completed, _ = rec2.counts()
	assert.Equal(t, 1, updates)
	assert.Zero(t, completed)
}

func TestAgent_ConcurrentPollsNotifyOnce(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	a := NewAgent(&fakeFetcher{fn: status(lifecycle.StatusDelivered)}, NewMemoryStore(), rec.config())
	require.NoError(t, a.Track(ctx, "o-2"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Poll(ctx)
		}()
	}
	wg.Wait()
	_, completed, _ := rec.counts()
	assert.Equal(t, 1, completed)
}

func TestAgent_DiscardsStaleResponse(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeFetcher{fn: func(n int32, id string) (*Order, error) {
		if n == 1 {
			close(entered)
			<-release
			return &Order{ID: id, Status: lifecycle.StatusPlaced}, nil
		}
		return &Order{ID: id, Status: lifecycle.StatusReady}, nil
	}}
	a := NewAgent(api, NewMemoryStore(), AgentConfig{Logger: quiet()})
	require.NoError(t, a.Track(ctx, "o-3"))

	done := make(chan struct{})
	go func() {
		a.Poll(ctx)
		close(done)
	}()
	<-entered
	a.Poll(ctx)
	require.Equal(t, lifecycle.StatusReady, a.Current().Status)

	close(release)
	<-done
	assert.Equal(t, lifecycle.StatusReady, a.Current().Status)
}

func TestAgent_DiscardsResponseForPreviousOrder(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeFetcher{fn: func(n int32, id string) (*Order, error) {
		if n == 1 {
			close(entered)
			<-release
		}
		return &Order{ID: id, Status: lifecycle.StatusCompleted}, nil
	}}
	rec := &recorder{}
	a := NewAgent(api, NewMemoryStore(), rec.config())
	require.NoError(t, a.Track(ctx, "old"))

	done := make(chan struct{})
	go func() {
		a.Poll(ctx)
		close(done)
	}()
	<-entered
	require.NoError(t, a.Track(ctx, "new"))
	close(release)
	<-done

	assert.Nil(t, a.Current())
	_, completed, _ := rec.counts()
	assert.Zero(t, completed)
}

func TestAgent_NotFoundHaltsPolling(t *testing.T) {
	ctx := context.Background()
	api := &fakeFetcher{fn: func(int32, string) (*Order, error) {
		return nil, &APIError{Status: 404, Message: "order not found"}
	}}
	rec := &recorder{}
	a := NewAgent(api, NewMemoryStore(), rec.config())
	require.NoError(t, a.Track(ctx, "gone"))

	a.Poll(ctx)
	a.Poll(ctx)
	a.Poll(ctx)

	_, _, errs := rec.counts()
	assert.Equal(t, 1, errs)
	assert.EqualValues(t, 1, api.calls.Load())
	assert.ErrorIs(t, a.Err(), ErrNotFound)
}

func TestAgent_TransientErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	api := &fakeFetcher{fn: func(n int32, id string) (*Order, error) {
		if n <= 2 {
			return nil, &APIError{Status: 503, Message: "unavailable"}
		}
		return &Order{ID: id, Status: lifecycle.StatusCompleted}, nil
	}}
	rec := &recorder{}
	a := NewAgent(api, NewMemoryStore(), rec.config())
	require.NoError(t, a.Track(ctx, "o-4"))

	for i := 0; i < 3; i++ {
		a.Poll(ctx)
	}
	_, completed, errs := rec.counts()
	assert.Zero(t, errs)
	assert.Equal(t, 1, completed)
	assert.NoError(t, a.Err())
}

func TestAgent_OwnershipMismatch(t *testing.T) {
	ctx := context.Background()
	other := uint(2)
	me := uint(1)
	api := &fakeFetcher{fn: func(_ int32, id string) (*Order, error) {
		return &Order{ID: id, Status: lifecycle.StatusCompleted, UserID: &other}, nil
	}}
	rec := &recorder{}
	cfg := rec.config()
	cfg.UserID = &me
	a := NewAgent(api, NewMemoryStore(), cfg)
	require.NoError(t, a.Track(ctx, "theirs"))

	a.Poll(ctx)
	a.Poll(ctx)

	updates, completed, errs := rec.counts()
	assert.Zero(t, updates)
	assert.Zero(t, completed)
	assert.Equal(t, 1, errs)
	assert.ErrorIs(t, a.Err(), ErrNotOwner)
	assert.Nil(t, a.Current())
}

func TestAgent_GuestOrderVisibleToSignedInUser(t *testing.T) {
	ctx := context.Background()
	me := uint(1)
	rec := &recorder{}
	cfg := rec.config()
	cfg.UserID = &me
	a := NewAgent(&fakeFetcher{fn: status(lifecycle.StatusPreparing)}, NewMemoryStore(), cfg)
	require.NoError(t, a.Track(ctx, "guest-order"))

	a.Poll(ctx)
	assert.NoError(t, a.Err())
	assert.Equal(t, lifecycle.StatusPreparing, a.Current().Status)
}

func TestAgent_PersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := NewAgent(&fakeFetcher{fn: status(lifecycle.StatusReady)}, store, AgentConfig{Logger: quiet()})
	require.NoError(t, a.Track(ctx, "o-5"))
	a.Poll(ctx)

	last, err := store.LastOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o-5", last.ID)
	assert.Equal(t, lifecycle.StatusReady, last.Status)
}

func TestAgent_StartStop(t *testing.T) {
	ctx := context.Background()
	api := &fakeFetcher{fn: status(lifecycle.StatusPlaced)}
	a := NewAgent(api, NewMemoryStore(), AgentConfig{Interval: 5 * time.Millisecond, Logger: quiet()})
	require.NoError(t, a.Track(ctx, "o-6"))

	stop := a.Start(ctx)
	require.Eventually(t, func() bool { return api.calls.Load() >= 3 }, time.Second, time.Millisecond)
	stop()
	stop()

	n := api.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, api.calls.Load())
}

func TestAgent_NothingTrackedDoesNotFetch(t *testing.T) {
	api := &fakeFetcher{fn: status(lifecycle.StatusPlaced)}
	a := NewAgent(api, NewMemoryStore(), AgentConfig{Logger: quiet()})
	a.Poll(context.Background())
	assert.Zero(t, api.calls.Load())
}

func TestAgent_TrackSwitchKeepsOldResultOutOfStore(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &fakeFetcher{fn: func(_ int32, id string) (*Order, error) {
		if id == "old" {
			close(entered)
			<-release
		}
		return &Order{ID: id, Status: lifecycle.StatusPreparing}, nil
	}}

	oldSaved := make(chan struct{}, 1)
	store := &hookStore{MemoryStore: NewMemoryStore()}
	a := NewAgent(api, store, AgentConfig{Logger: quiet()})
	require.NoError(t, a.Track(ctx, "old"))

	store.onSave = func(o *Order) {
		switch o.ID {
		case "new":
			// let the old poll finish while the switch is being written
			close(release)
			select {
			case <-oldSaved:
			case <-time.After(50 * time.Millisecond):
			}
		case "old":
			oldSaved <- struct{}{}
		}
	}

	done := make(chan struct{})
	go func() {
		a.Poll(ctx)
		close(done)
	}()
	<-entered
	require.NoError(t, a.Track(ctx, "new"))
	<-done

	last, err := store.LastOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", last.ID)
	assert.Nil(t, a.Current())

	// a fresh session resumes the order the agent switched to
	b := NewAgent(api, store.MemoryStore, AgentConfig{Logger: quiet()})
	id, err := b.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", id)
}

func TestAgent_TrackKeepsSavedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SaveLastOrder(ctx, zingerSnapshot("o-1")))

	a := NewAgent(&fakeFetcher{fn: status(lifecycle.StatusPlaced)}, store, AgentConfig{Logger: quiet()})
	require.NoError(t, a.Track(ctx, "o-1"))

	last, err := store.LastOrder(ctx)
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, "Zinger Burger", last.Items[0].Name)
	assert.Equal(t, 549.0, last.Total)
	assert.Equal(t, lifecycle.StatusPlaced, last.Status)
	assert.Equal(t, "T5", a.Current().TableNumber)

	// a different order replaces it
	require.NoError(t, a.Track(ctx, "o-2"))
	last, err = store.LastOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o-2", last.ID)
	assert.Empty(t, last.Items)
	assert.Nil(t, a.Current())
}

func TestAgent_CheckoutPersistsOrderAndTracksIt(t *testing.T) {
	ctx := context.Background()
	var sent *NewOrder
	api := &fakeFetcher{
		fn: status(lifecycle.StatusPreparing),
		create: func(in *NewOrder) (*Order, error) {
			sent = in
			return zingerSnapshot("o-7"), nil
		},
	}
	store := NewMemoryStore()
	a := NewAgent(api, store, AgentConfig{Logger: quiet()})

	in := &NewOrder{
		Items:             []OrderItem{{ProductID: 1, Name: "Zinger Burger", Price: 499, Quantity: 1}},
		Subtotal:          499,
		AdditionalCharges: 50,
		Total:             549,
		TableNumber:       "T5",
	}
	o, err := a.Checkout(ctx, in)
	require.NoError(t, err)
	assert.Same(t, in, sent)
	assert.Equal(t, "o-7", o.ID)

	last, err := store.LastOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o-7", last.ID)
	assert.Len(t, last.Items, 1)
	assert.Equal(t, 549.0, last.Total)
	assert.False(t, last.CreatedAt.IsZero())
	assert.Equal(t, lifecycle.StatusPlaced, a.Current().Status)

	a.Poll(ctx)
	assert.EqualValues(t, 1, api.calls.Load())
	assert.Equal(t, lifecycle.StatusPreparing, a.Current().Status)

	b := NewAgent(api, store, AgentConfig{Logger: quiet()})
	id, err := b.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o-7", id)
	assert.Equal(t, "T5", b.Current().TableNumber)
}

func TestAgent_CheckoutFailureTracksNothing(t *testing.T) {
	ctx := context.Background()
	api := &fakeFetcher{
		fn: status(lifecycle.StatusPlaced),
		create: func(*NewOrder) (*Order, error) {
			return nil, &APIError{Status: 400, Message: "tableNumber is required"}
		},
	}
	store := NewMemoryStore()
	a := NewAgent(api, store, AgentConfig{Logger: quiet()})

	_, err := a.Checkout(ctx, &NewOrder{})
	assert.ErrorIs(t, err, ErrValidation)

	last, err := store.LastOrder(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)
	a.Poll(ctx)
	assert.Zero(t, api.calls.Load())
}

func TestAgent_ReadsDoNotWaitOnStoreWrites(t *testing.T) {
	ctx := context.Background()
	store := &hookStore{MemoryStore: NewMemoryStore()}
	a := NewAgent(&fakeFetcher{fn: status(lifecycle.StatusReady)}, store, AgentConfig{Logger: quiet()})
	require.NoError(t, a.Track(ctx, "o-8"))

	writing := make(chan struct{})
	release := make(chan struct{})
	store.onSave = func(o *Order) {
		if o.Status == lifecycle.StatusReady {
			close(writing)
			<-release
		}
	}

	done := make(chan struct{})
	go func() {
		a.Poll(ctx)
		close(done)
	}()
	<-writing

	read := make(chan *Order, 1)
	go func() {
		read <- a.Current()
		_ = a.Err()
	}()
	select {
	case o := <-read:
		require.NotNil(t, o)
		assert.Equal(t, lifecycle.StatusReady, o.Status)
	case <-time.After(time.Second):
		t.Fatal("Current blocked behind a store write")
	}

	close(release)
	<-done
}
