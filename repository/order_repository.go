package repository

import (
	"context"
	"time"

	"smartorder/entity"

	"gorm.io/gorm"
)

type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

func itemsInOrder(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

// CreateOrder inserts the order with its items and first status log row.
func (r *OrderRepository) CreateOrder(tx *gorm.DB, o *entity.Order) error {
	for i := range o.Items {
		o.Items[i].Position = i
	}
	if err := tx.Create(o).Error; err != nil {
		return err
	}
	return tx.Create(&entity.OrderStatusLog{
		OrderID:   o.ID,
		Status:    o.Status,
		ChangedBy: o.UserID,
		ChangedAt: o.CreatedAt,
	}).Error
}

// GetOrder returns gorm.ErrRecordNotFound for unknown ids.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	var o entity.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Where("id = ?", orderID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// LockOrder reads the order inside tx, without items.
func (r *OrderRepository) LockOrder(tx *gorm.DB, orderID string) (*entity.Order, error) {
	var o entity.Order
	if err := tx.Where("id = ?", orderID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus overwrites the status unconditionally (last write wins) and logs it.
func (r *OrderRepository) UpdateStatus(tx *gorm.DB, orderID, status string, changedBy *uint, at time.Time) error {
	if err := tx.Model(&entity.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"status": status, "updated_at": at}).Error; err != nil {
		return err
	}
	return tx.Create(&entity.OrderStatusLog{
		OrderID:   orderID,
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: at,
	}).Error
}

func (r *OrderRepository) History(ctx context.Context, orderID string) ([]entity.OrderStatusLog, error) {
	var out []entity.OrderStatusLog
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("changed_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// OrderSummary is the list row for profile and kitchen views.
type OrderSummary struct {
	ID          string    `json:"id"`
	TableNumber string    `json:"tableNumber"`
	Total       float64   `json:"total"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r *OrderRepository) ListOrdersForUser(ctx context.Context, userID uint, limit int) ([]OrderSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []OrderSummary
	err := r.DB.WithContext(ctx).Model(&entity.Order{}).
		Select("id, table_number, total, status, created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).
		Scan(&out).Error
	return out, err
}

// ListActive returns orders the kitchen still has to work, oldest first.
// A non-empty status narrows the list to that status (case-insensitive).
func (r *OrderRepository) ListActive(ctx context.Context, status string, closed []string, limit int) ([]entity.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	q := r.DB.WithContext(ctx).Preload("Items", itemsInOrder)
	if status != "" {
		q = q.Where("LOWER(status) = ?", status)
	} else if len(closed) > 0 {
		q = q.Where("LOWER(status) NOT IN ?", closed)
	}
	var out []entity.Order
	err := q.Order("created_at ASC").Limit(limit).Find(&out).Error
	return out, err
}
