package repository

import (
	"context"
	"time"

	"smartorder/entity"

	"gorm.io/gorm"
)

// ReportRepository runs the read-only aggregates behind the admin analytics.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// RevenueRow is one order reduced to what the revenue buckets need.
type RevenueRow struct {
	CreatedAt time.Time
	Total     float64
}

// RevenueSince lists non-excluded orders created at or after since.
func (r *ReportRepository) RevenueSince(ctx context.Context, since time.Time, exclude []string) ([]RevenueRow, error) {
	var rows []RevenueRow
	q := r.db.WithContext(ctx).Model(&entity.Order{}).
		Select("created_at, total").
		Where("created_at >= ?", since)
	if len(exclude) > 0 {
		q = q.Where("LOWER(status) NOT IN ?", exclude)
	}
	err := q.Order("created_at ASC").Scan(&rows).Error
	return rows, err
}

type TopItem struct {
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// TopItems ranks line items by quantity sold since the given time.
func (r *ReportRepository) TopItems(ctx context.Context, since time.Time, exclude []string, limit int) ([]TopItem, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []TopItem
	q := r.db.WithContext(ctx).Table("order_items AS oi").
		Select("oi.name AS name, SUM(oi.quantity) AS quantity, SUM(oi.quantity * oi.price) AS revenue").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.created_at >= ?", since)
	if len(exclude) > 0 {
		q = q.Where("LOWER(o.status) NOT IN ?", exclude)
	}
	err := q.Group("oi.name").
		Order("quantity DESC, name ASC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *ReportRepository) CountOrdersSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Order{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

func (r *ReportRepository) CountOpenOrders(ctx context.Context, closed []string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Order{}).Where("LOWER(status) NOT IN ?", closed).Count(&n).Error
	return n, err
}

func (r *ReportRepository) CountUnansweredFeedback(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Feedback{}).Where("responded_at IS NULL").Count(&n).Error
	return n, err
}
