package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"smartorder/configs"
	"smartorder/entity"
	"smartorder/events"
	"smartorder/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := configs.OpenDB("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, configs.SetupDatabase(db))
	require.NoError(t, configs.SeedMenu(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	orders   *OrderService
	feedback *FeedbackService
	carts    *CartService
	pub      *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	log := quietLogger()
	pub := &recordingPublisher{}
	orderRepo := repository.NewOrderRepository(db)
	cartRepo := repository.NewCartRepository(db)
	return &fixture{
		db:       db,
		orders:   NewOrderService(db, orderRepo, cartRepo, pub, log),
		feedback: NewFeedbackService(orderRepo, repository.NewFeedbackRepository(db), log),
		carts:    NewCartService(db, cartRepo, repository.NewMenuRepository(db)),
		pub:      pub,
	}
}

// createUser inserts a user directly; the password is irrelevant here.
func createUser(t *testing.T, db *gorm.DB, email, role string) Identity {
	t.Helper()
	u := entity.User{Email: email, Password: "x", Role: role}
	require.NoError(t, db.Create(&u).Error)
	return User(u.ID, role)
}

func f64(v float64) *float64 { return &v }

func zingerOrder() *CreateOrderReq {
	return &CreateOrderReq{
		Items: []OrderItemIn{
			{ProductID: 1, Name: "Zinger Burger", Price: f64(499), Image: "/img/zinger.png", Quantity: 1},
		},
		Subtotal:          f64(499),
		AdditionalCharges: f64(50),
		Total:             f64(549),
		TableNumber:       "T5",
	}
}

func (fx *fixture) place(t *testing.T, caller Identity) *entity.Order {
	t.Helper()
	o, err := fx.orders.Create(context.Background(), caller, zingerOrder())
	require.NoError(t, err)
	return o
}

func (fx *fixture) complete(t *testing.T, orderID string) {
	t.Helper()
	chef := createUser(t, fx.db, "chef-"+uuid.NewString()+"@example.com", entity.RoleChef)
	_, err := fx.orders.UpdateStatus(context.Background(), chef, orderID, "completed")
	require.NoError(t, err)
}

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
