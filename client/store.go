package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"smartorder/pkg/lifecycle"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GuestFeedback is feedback kept on the device because there is no account
// to attach it to on the server.
type GuestFeedback struct {
	OrderID   string    `json:"orderId"`
	Rating    float64   `json:"rating"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the session state that has to survive a restart.
type Store interface {
	// LastOrder returns nil when nothing has been tracked yet.
	LastOrder(ctx context.Context) (*Order, error)
	SaveLastOrder(ctx context.Context, o *Order) error

	Notified(ctx context.Context, orderID string) (bool, error)
	// MarkNotified sets the marker and reports whether this call set it.
	MarkNotified(ctx context.Context, orderID string) (bool, error)

	// AppendGuestFeedback fails with lifecycle.ErrAlreadySubmitted when the
	// order already has an entry.
	AppendGuestFeedback(ctx context.Context, f GuestFeedback) error
	GuestFeedback(ctx context.Context) ([]GuestFeedback, error)
}

const (
	keyLastOrder     = "last_order"
	keyGuestFeedback = "guest_feedback"
	notifiedPrefix   = "notified:"
)

// ----- in memory -----

type MemoryStore struct {
	mu       sync.Mutex
	last     *Order
	notified map[string]bool
	guest    []GuestFeedback
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notified: map[string]bool{}}
}

func (s *MemoryStore) LastOrder(context.Context) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil, nil
	}
	cp := *s.last
	return &cp, nil
}

func (s *MemoryStore) SaveLastOrder(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.last = &cp
	return nil
}

func (s *MemoryStore) Notified(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notified[orderID], nil
}

func (s *MemoryStore) MarkNotified(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notified[orderID] {
		return false, nil
	}
	s.notified[orderID] = true
	return true, nil
}

func (s *MemoryStore) AppendGuestFeedback(_ context.Context, f GuestFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.guest {
		if g.OrderID == f.OrderID {
			return lifecycle.ErrAlreadySubmitted
		}
	}
	s.guest = append(s.guest, f)
	return nil
}

func (s *MemoryStore) GuestFeedback(context.Context) ([]GuestFeedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]GuestFeedback(nil), s.guest...), nil
}

// ----- sqlite -----

// stateEntry is one key of the local key-value table. Values are JSON.
type stateEntry struct {
	Key       string `gorm:"column:state_key;primaryKey;size:191"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (stateEntry) TableName() string { return "client_state" }

// GormStore persists session state in a local sqlite file.
type GormStore struct {
	db *gorm.DB
}

func OpenGormStore(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open client store: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return NewGormStore(db)
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&stateEntry{}); err != nil {
		return nil, fmt.Errorf("migrate client store: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) get(tx *gorm.DB, key string, out any) (bool, error) {
	var e stateEntry
	err := tx.Where("state_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if out != nil {
		if err := json.Unmarshal([]byte(e.Value), out); err != nil {
			return false, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return true, nil
}

func (s *GormStore) put(tx *gorm.DB, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&stateEntry{Key: key, Value: string(buf)}).Error
}

func (s *GormStore) LastOrder(ctx context.Context) (*Order, error) {
	var o Order
	ok, err := s.get(s.db.WithContext(ctx), keyLastOrder, &o)
	if err != nil || !ok {
		return nil, err
	}
	return &o, nil
}

func (s *GormStore) SaveLastOrder(ctx context.Context, o *Order) error {
	return s.put(s.db.WithContext(ctx), keyLastOrder, o)
}

func (s *GormStore) Notified(ctx context.Context, orderID string) (bool, error) {
	return s.get(s.db.WithContext(ctx), notifiedPrefix+orderID, nil)
}

// MarkNotified relies on the primary key: only the first insert affects a row.
func (s *GormStore) MarkNotified(ctx context.Context, orderID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&stateEntry{Key: notifiedPrefix + orderID, Value: "true"})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) AppendGuestFeedback(ctx context.Context, f GuestFeedback) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list []GuestFeedback
		if _, err := s.get(tx, keyGuestFeedback, &list); err != nil {
			return err
		}
		for _, g := range list {
			if g.OrderID == f.OrderID {
				return lifecycle.ErrAlreadySubmitted
			}
		}
		return s.put(tx, keyGuestFeedback, append(list, f))
	})
}

func (s *GormStore) GuestFeedback(ctx context.Context) ([]GuestFeedback, error) {
	var list []GuestFeedback
	if _, err := s.get(s.db.WithContext(ctx), keyGuestFeedback, &list); err != nil {
		return nil, err
	}
	return list, nil
}
