package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartorder/client"
	"smartorder/configs"
	"smartorder/entity"
	"smartorder/pkg/lifecycle"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	*httptest.Server
	db  *gorm.DB
	api *client.API
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	db, err := configs.OpenDB("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, configs.SetupDatabase(db))
	require.NoError(t, configs.SeedMenu(db))

	r := gin.New()
	RegisterRoutes(r, Deps{
		Config: &configs.Config{JWTSecret: "test-secret", JWTTTL: time.Hour, Timezone: "UTC"},
		DB:     db,
		Log:    log,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return &testServer{Server: srv, db: db, api: client.NewAPI(srv.URL, log)}
}

// signIn registers email, optionally promotes it, and returns an authenticated client.
func (s *testServer) signIn(t *testing.T, email, role string) (*client.API, uint) {
	t.Helper()
	body := `{"email":"` + email + `","password":"hunter22"}`
	res, err := http.Post(s.URL+"/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	if role != entity.RoleCustomer {
		require.NoError(t, s.db.Model(&entity.User{}).Where("email = ?", email).Update("role", role).Error)
	}
	tok, user, err := s.api.Login(context.Background(), email, "hunter22")
	require.NoError(t, err)
	return s.api.WithToken(tok), user.ID
}

func zinger() *client.NewOrder {
	return &client.NewOrder{
		Items:             []client.OrderItem{{ProductID: 1, Name: "Zinger Burger", Price: 499, Quantity: 1}},
		Subtotal:          499,
		AdditionalCharges: 50,
		Total:             549,
		TableNumber:       "T5",
	}
}

func TestHealthAndMenu(t *testing.T) {
	s := newTestServer(t)

	res, err := http.Get(s.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(s.URL + "/menu?category=Burgers")
	require.NoError(t, err)
	defer res.Body.Close()
	var body struct {
		OK   bool              `json:"ok"`
		Data []entity.MenuItem `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Len(t, body.Data, 2)
}

func TestGuestZingerRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	created, err := s.api.CreateOrder(ctx, zinger())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := s.api.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPlaced, got.Status)
	assert.Nil(t, got.UserID)
	assert.Equal(t, 549.0, got.Total)
	assert.Equal(t, 50.0, got.AdditionalCharges)
	require.Len(t, got.Items, 1)
	assert.Equal(t, client.OrderItem{ProductID: 1, Name: "Zinger Burger", Price: 499, Quantity: 1}, got.Items[0])
}

func TestCreateOrder_BadPayload(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"items":[],"subtotal":0,"total":0,"tableNumber":"T1"}`,
		`{"items":[{"name":"x","price":1,"quantity":1}],"subtotal":"abc","total":1,"tableNumber":"T1"}`,
		`{"items":[{"name":"x","price":1,"quantity":1}],"subtotal":1,"total":1}`,
	} {
		res, err := http.Post(s.URL+"/orders", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	}
}

func TestOwnedOrderAccess(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	alice, _ := s.signIn(t, "alice@example.com", entity.RoleCustomer)
	bob, _ := s.signIn(t, "bob@example.com", entity.RoleCustomer)
	chef, _ := s.signIn(t, "chef@example.com", entity.RoleChef)

	o, err := alice.CreateOrder(ctx, zinger())
	require.NoError(t, err)
	require.NotNil(t, o.UserID)

	_, err = s.api.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = bob.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, client.ErrForbidden)

	_, err = alice.GetOrder(ctx, o.ID)
	assert.NoError(t, err)

	_, err = chef.GetOrder(ctx, o.ID)
	assert.NoError(t, err)

	_, err = s.api.GetOrder(ctx, "does-not-exist")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestStatusUpdate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	chef, _ := s.signIn(t, "chef@example.com", entity.RoleChef)
	customer, _ := s.signIn(t, "c@example.com", entity.RoleCustomer)

	o, err := s.api.CreateOrder(ctx, zinger())
	require.NoError(t, err)

	err = chef.UpdateStatus(ctx, "unknown-id", "ready")
	assert.ErrorIs(t, err, client.ErrNotFound)

	err = chef.UpdateStatus(ctx, o.ID, "  ")
	assert.ErrorIs(t, err, client.ErrValidation)

	err = customer.UpdateStatus(ctx, o.ID, "ready")
	assert.ErrorIs(t, err, client.ErrForbidden)

	err = s.api.UpdateStatus(ctx, o.ID, "ready")
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	require.NoError(t, chef.UpdateStatus(ctx, o.ID, "ready"))
	got, err := s.api.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusReady, got.Status)

	var logs int64
	require.NoError(t, s.db.Model(&entity.OrderStatusLog{}).Where("order_id = ?", "unknown-id").Count(&logs).Error)
	assert.Zero(t, logs)
}

func TestFeedbackFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	alice, _ := s.signIn(t, "alice@example.com", entity.RoleCustomer)
	chef, _ := s.signIn(t, "chef@example.com", entity.RoleChef)

	o, err := alice.CreateOrder(ctx, zinger())
	require.NoError(t, err)

	_, err = alice.SubmitFeedback(ctx, o.ID, 5, "early")
	assert.ErrorIs(t, err, client.ErrValidation)
	assert.ErrorIs(t, err, lifecycle.ErrNotCompleted)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)

	_, err = alice.SubmitFeedback(ctx, "missing", 5, "")
	assert.ErrorIs(t, err, lifecycle.ErrMissingOrder)

	require.NoError(t, chef.UpdateStatus(ctx, o.ID, "completed"))

	exists, err := alice.FeedbackExists(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	f, err := alice.SubmitFeedback(ctx, o.ID, 5, "great")
	require.NoError(t, err)
	assert.Equal(t, o.ID, f.OrderID)

	_, err = alice.SubmitFeedback(ctx, o.ID, 4, "again")
	assert.ErrorIs(t, err, client.ErrConflict)
	assert.ErrorIs(t, err, lifecycle.ErrAlreadySubmitted)

	exists, err = alice.FeedbackExists(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAgentAndGateAgainstServer(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	alice, aliceID := s.signIn(t, "alice@example.com", entity.RoleCustomer)
	chef, _ := s.signIn(t, "chef@example.com", entity.RoleChef)

	o, err := alice.CreateOrder(ctx, zinger())
	require.NoError(t, err)

	store := client.NewMemoryStore()
	completed := 0
	agent := client.NewAgent(alice, store, client.AgentConfig{
		UserID:     &aliceID,
		OnComplete: func(*client.Order) { completed++ },
	})
	require.NoError(t, agent.Track(ctx, o.ID))

	agent.Poll(ctx)
	assert.Equal(t, lifecycle.StatusPlaced, agent.Current().Status)

	require.NoError(t, chef.UpdateStatus(ctx, o.ID, "Completed"))
	agent.Poll(ctx)
	agent.Poll(ctx)
	assert.Equal(t, 1, completed)

	gate := client.NewGate(alice, store, true)
	d, err := gate.Check(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, d.Eligible)

	rating := 4.0
	require.NoError(t, gate.Submit(ctx, o.ID, &rating, "good"))
	err = gate.Submit(ctx, o.ID, &rating, "twice")
	assert.ErrorIs(t, err, lifecycle.ErrAlreadySubmitted)
}

func TestGuestCheckoutIsRememberedAcrossSessions(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	menu, err := s.api.Menu(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(menu))
	for _, m := range menu {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "Zinger Burger")

	store := client.NewMemoryStore()
	agent := client.NewAgent(s.api, store, client.AgentConfig{})
	o, err := agent.Checkout(ctx, zinger())
	require.NoError(t, err)

	last, err := store.LastOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, o.ID, last.ID)
	require.Len(t, last.Items, 1)
	assert.Equal(t, "Zinger Burger", last.Items[0].Name)
	assert.Equal(t, 549.0, last.Total)
	assert.False(t, last.CreatedAt.IsZero())

	// next session resumes the same order and keeps its snapshot
	next := client.NewAgent(s.api, store, client.AgentConfig{})
	id, err := next.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, o.ID, id)
	require.NoError(t, next.Track(ctx, id))
	next.Poll(ctx)
	assert.Equal(t, lifecycle.StatusPlaced, next.Current().Status)
	assert.Len(t, next.Current().Items, 1)
}

func TestAgentHaltsOnForeignOrder(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	alice, _ := s.signIn(t, "alice@example.com", entity.RoleCustomer)
	bob, bobID := s.signIn(t, "bob@example.com", entity.RoleCustomer)

	o, err := alice.CreateOrder(ctx, zinger())
	require.NoError(t, err)

	var got []error
	agent := client.NewAgent(bob, client.NewMemoryStore(), client.AgentConfig{
		UserID:  &bobID,
		OnError: func(_ string, err error) { got = append(got, err) },
	})
	require.NoError(t, agent.Track(ctx, o.ID))
	agent.Poll(ctx)
	agent.Poll(ctx)

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], client.ErrForbidden)
	assert.Nil(t, agent.Current())
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	admin, _ := s.signIn(t, "admin@example.com", entity.RoleAdmin)
	customer, _ := s.signIn(t, "c@example.com", entity.RoleCustomer)

	_, err := s.api.CreateOrder(ctx, zinger())
	require.NoError(t, err)

	_, err = customer.Analytics(ctx, 7, "")
	assert.ErrorIs(t, err, client.ErrForbidden)

	a, err := admin.Analytics(ctx, 7, "Asia/Karachi")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Karachi", a.Timezone)
	assert.Equal(t, 1, a.Orders)
	assert.Len(t, a.PeakHours, 24)
}
