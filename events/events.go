// Package events carries order lifecycle notifications out of the request
// path: to Kafka for downstream consumers and to the live kitchen board.
package events

import (
	"context"
	"errors"
	"time"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

type Event struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	Status      string    `json:"status"`
	TableNumber string    `json:"tableNumber"`
	Total       float64   `json:"total"`
	ChangedBy   *uint     `json:"changedBy,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every publisher and joins their failures.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
