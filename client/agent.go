package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smartorder/pkg/lifecycle"

	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 5 * time.Second

// OrderFetcher is the one call polling needs from the API.
type OrderFetcher interface {
	GetOrder(ctx context.Context, id string) (*Order, error)
}

// OrderAPI adds checkout to polling.
type OrderAPI interface {
	OrderFetcher
	CreateOrder(ctx context.Context, in *NewOrder) (*Order, error)
}

type AgentConfig struct {
	Interval time.Duration
	// UserID is the signed-in user; nil for a guest session.
	UserID *uint

	// OnUpdate receives every applied snapshot.
	OnUpdate func(o *Order)
	// OnComplete fires at most once per order id for this client, including
	// across restarts that share the same Store.
	OnComplete func(o *Order)
	// OnError receives each halting error once; polling for that order stops.
	OnError func(orderID string, err error)

	Logger *logrus.Logger
}

// Agent polls the tracked order and reconciles the result into local state.
type Agent struct {
	api   OrderAPI
	store Store
	cfg   AgentConfig
	log   *logrus.Logger

	// saveMu orders store writes against order switches. Lock order is
	// saveMu then mu; mu is never held across store I/O.
	saveMu sync.Mutex

	mu         sync.Mutex
	orderID    string
	current    *Order
	lastErr    error
	halted     bool
	nextSeq    uint64
	appliedSeq uint64

	inflight sync.WaitGroup
}

func NewAgent(api OrderAPI, store Store, cfg AgentConfig) *Agent {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Agent{api: api, store: store, cfg: cfg, log: log}
}

// Resume picks up the order persisted by a previous session, if any.
func (a *Agent) Resume(ctx context.Context) (string, error) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	o, err := a.store.LastOrder(ctx)
	if err != nil || o == nil || o.ID == "" {
		return "", err
	}
	a.switchTo(o)
	return o.ID, nil
}

// Checkout places the order, persists the returned order as the last order
// and starts tracking it.
func (a *Agent) Checkout(ctx context.Context, in *NewOrder) (*Order, error) {
	o, err := a.api.CreateOrder(ctx, in)
	if err != nil {
		return nil, err
	}

	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	a.switchTo(o)
	if err := a.store.SaveLastOrder(ctx, o); err != nil {
		return o, fmt.Errorf("persist last order: %w", err)
	}
	return o, nil
}

// Track switches the agent to orderID and persists it as the last order. A
// snapshot already saved for the same id is kept. Results still in flight
// for the previous order are discarded and can no longer reach the store.
func (a *Agent) Track(ctx context.Context, orderID string) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	snap := &Order{ID: orderID}
	prev, err := a.store.LastOrder(ctx)
	if err != nil {
		return err
	}
	if prev != nil && prev.ID == orderID {
		snap = prev
	}
	if err := a.store.SaveLastOrder(ctx, snap); err != nil {
		return err
	}
	a.switchTo(snap)
	return nil
}

func (a *Agent) switchTo(o *Order) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset(o.ID)
	if o.Status != "" {
		cp := *o
		a.current = &cp
	}
}

func (a *Agent) reset(orderID string) {
	a.orderID = orderID
	a.current = nil
	a.lastErr = nil
	a.halted = false
	a.appliedSeq = a.nextSeq
}

// Current is the last applied snapshot, nil before the first successful fetch.
func (a *Agent) Current() *Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	cp := *a.current
	return &cp
}

// Err is the halting error for the tracked order, if polling has stopped.
func (a *Agent) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Start polls on one ticker until stop is called or ctx ends. Each tick
// fetches on its own goroutine; ticks never wait for each other. stop
// releases the ticker and waits for fetches still in flight.
func (a *Agent) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(a.cfg.Interval)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()
		a.spawn(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.spawn(ctx)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
			a.inflight.Wait()
		})
	}
}

func (a *Agent) spawn(ctx context.Context) {
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		a.Poll(ctx)
	}()
}

// Poll runs a single fetch-and-apply cycle synchronously.
func (a *Agent) Poll(ctx context.Context) {
	id, seq, ok := a.begin()
	if !ok {
		return
	}
	o, err := a.api.GetOrder(ctx, id)
	a.apply(ctx, id, seq, o, err)
}

func (a *Agent) begin() (string, uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.orderID == "" || a.halted {
		return "", 0, false
	}
	a.nextSeq++
	return a.orderID, a.nextSeq, true
}

func (a *Agent) apply(ctx context.Context, id string, seq uint64, o *Order, err error) {
	if ctx.Err() != nil {
		return
	}
	l := a.log.WithFields(logrus.Fields{"order_id": id, "seq": seq})

	a.mu.Lock()
	if id != a.orderID || seq <= a.appliedSeq || a.halted {
		a.mu.Unlock()
		l.Debug("discard stale poll result")
		return
	}

	if err == nil && a.cfg.UserID != nil && o.UserID != nil && *o.UserID != *a.cfg.UserID {
		err = ErrNotOwner
	}
	if err != nil {
		if !IsHalting(err) {
			a.mu.Unlock()
			l.WithError(err).Debug("poll failed, retrying next tick")
			return
		}
		a.halted = true
		a.lastErr = err
		a.current = nil
		a.appliedSeq = seq
		a.mu.Unlock()

		l.WithError(err).Warn("stop polling order")
		if a.cfg.OnError != nil {
			a.cfg.OnError(id, err)
		}
		return
	}

	a.appliedSeq = seq
	a.current = o
	a.mu.Unlock()

	live, notify := a.persist(ctx, l, id, seq, o)
	if !live {
		l.Debug("order switched before persist, result dropped")
		return
	}

	if a.cfg.OnUpdate != nil {
		a.cfg.OnUpdate(o)
	}
	if notify {
		l.WithField("status", o.Status).Info("order complete")
		if a.cfg.OnComplete != nil {
			a.cfg.OnComplete(o)
		}
	}
}

// persist writes an applied result to the store. It reports false when the
// agent has moved to another order (or halted) since the apply. Only the
// newest applied snapshot is saved; notify is true when this call set the
// notified marker.
func (a *Agent) persist(ctx context.Context, l *logrus.Entry, id string, seq uint64, o *Order) (live, notify bool) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	live = id == a.orderID && !a.halted
	latest := live && seq == a.appliedSeq
	a.mu.Unlock()
	if !live {
		return false, false
	}

	if latest {
		if err := a.store.SaveLastOrder(ctx, o); err != nil {
			l.WithError(err).Warn("persist last order failed")
		}
	}
	if !lifecycle.IsFeedbackEligible(o.Status) {
		return true, false
	}
	first, err := a.store.MarkNotified(ctx, id)
	if err != nil {
		l.WithError(err).Warn("persist notified marker failed")
	}
	return true, first
}
