package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"smartorder/entity"
	"smartorder/events"
	"smartorder/pkg/lifecycle"
	"smartorder/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderService struct {
	DB       *gorm.DB
	Repo     *repository.OrderRepository
	CartRepo *repository.CartRepository
	Events   events.Publisher
	Log      *logrus.Logger
	Now      func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	repo *repository.OrderRepository,
	cartRepo *repository.CartRepository,
	pub events.Publisher,
	log *logrus.Logger,
) *OrderService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderService{DB: db, Repo: repo, CartRepo: cartRepo, Events: pub, Log: log, Now: time.Now}
}

// ----- DTOs from Controller -----
type OrderItemIn struct {
	ProductID uint     `json:"productId"`
	Name      string   `json:"name" binding:"required"`
	Price     *float64 `json:"price" binding:"required"`
	Image     string   `json:"image"`
	Quantity  int      `json:"quantity" binding:"required,min=1"`
}

type CreateOrderReq struct {
	Items               []OrderItemIn  `json:"items" binding:"required,min=1,dive"`
	Subtotal            *float64       `json:"subtotal" binding:"required"`
	AdditionalCharges   *float64       `json:"additionalCharges"`
	Total               *float64       `json:"total" binding:"required"`
	SpecialInstructions string         `json:"specialInstructions"`
	TableNumber         string         `json:"tableNumber" binding:"required"`
	Metadata            map[string]any `json:"metadata"`
}

func (req *CreateOrderReq) validate() error {
	if len(req.Items) == 0 {
		return validationError("items is required")
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" {
			return validationError("items[%d].name is required", i)
		}
		if it.Price == nil || !finite(*it.Price) {
			return validationError("items[%d].price must be a number", i)
		}
		if it.Quantity < 1 {
			return validationError("items[%d].quantity must be at least 1", i)
		}
	}
	if req.Subtotal == nil || !finite(*req.Subtotal) {
		return validationError("subtotal must be a number")
	}
	if req.Total == nil || !finite(*req.Total) {
		return validationError("total must be a number")
	}
	if req.AdditionalCharges != nil && !finite(*req.AdditionalCharges) {
		return validationError("additionalCharges must be a number")
	}
	if strings.TrimSpace(req.TableNumber) == "" {
		return validationError("tableNumber is required")
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// ----- Create -----

// Create stores a new order in status placed. For an authenticated owner the
// cart is cleared afterwards on a best-effort basis; that failure never
// fails the checkout.
func (s *OrderService) Create(ctx context.Context, caller Identity, req *CreateOrderReq) (*entity.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	order := entity.Order{
		ID:                  uuid.NewString(),
		Subtotal:            *req.Subtotal,
		Total:               *req.Total,
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
		TableNumber:         strings.TrimSpace(req.TableNumber),
		Status:              lifecycle.StatusPlaced,
		UserID:              caller.UserID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.AdditionalCharges != nil {
		order.AdditionalCharges = *req.AdditionalCharges
	}
	if len(req.Metadata) > 0 {
		order.Metadata = datatypes.JSONMap(req.Metadata)
	}
	for _, it := range req.Items {
		order.Items = append(order.Items, entity.OrderItem{
			MenuItemID: it.ProductID,
			Name:       strings.TrimSpace(it.Name),
			Price:      *it.Price,
			Image:      it.Image,
			Quantity:   it.Quantity,
		})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.Repo.CreateOrder(tx, &order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if caller.Authenticated() {
		if err := s.CartRepo.ClearCart(s.DB.WithContext(ctx), *caller.UserID); err != nil {
			s.Log.WithError(err).WithFields(logrus.Fields{
				"order_id": order.ID,
				"user_id":  *caller.UserID,
			}).Warn("clear cart after checkout failed")
		}
	}

	s.publish(ctx, events.TypeOrderPlaced, &order, caller.UserID)

	s.Log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"table":    order.TableNumber,
		"total":    order.Total,
		"guest":    !caller.Authenticated(),
	}).Info("order placed")
	return &order, nil
}

// ----- Read -----

func (s *OrderService) Get(ctx context.Context, caller Identity, orderID string) (*entity.Order, error) {
	o, err := s.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := caller.canView(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) History(ctx context.Context, caller Identity, orderID string) ([]entity.OrderStatusLog, error) {
	if _, err := s.Get(ctx, caller, orderID); err != nil {
		return nil, err
	}
	return s.Repo.History(ctx, orderID)
}

func (s *OrderService) ListForUser(ctx context.Context, userID uint, limit int) ([]repository.OrderSummary, error) {
	return s.Repo.ListOrdersForUser(ctx, userID, limit)
}

// ListActive feeds the kitchen board: everything not yet closed, or one status.
func (s *OrderService) ListActive(ctx context.Context, status string) ([]entity.Order, error) {
	return s.Repo.ListActive(ctx, lifecycle.Normalize(status), closedStatuses, 0)
}

// ----- Status -----

// UpdateStatus writes any non-blank status; concurrent writers simply
// overwrite each other.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Identity, orderID, status string) (*entity.Order, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	next, err := lifecycle.ValidateStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var order *entity.Order
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.Repo.LockOrder(tx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		now := s.Now().UTC()
		if err := s.Repo.UpdateStatus(tx, o.ID, next, actor.UserID, now); err != nil {
			return err
		}
		o.Status = next
		o.UpdatedAt = now
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeOrderStatusChanged, order, actor.UserID)
	s.Log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
		"actor":    *actor.UserID,
	}).Info("order status updated")
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, typ string, o *entity.Order, by *uint) {
	err := s.Events.Publish(ctx, events.Event{
		Type:        typ,
		OrderID:     o.ID,
		Status:      o.Status,
		TableNumber: o.TableNumber,
		Total:       o.Total,
		ChangedBy:   by,
		OccurredAt:  o.UpdatedAt,
	})
	if err != nil {
		s.Log.WithError(err).WithField("order_id", o.ID).Warn("publish order event failed")
	}
}
