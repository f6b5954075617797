package repository

import (
	"context"
	"time"

	"smartorder/entity"

	"gorm.io/gorm"
)

type FeedbackRepository struct{ DB *gorm.DB }

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository { return &FeedbackRepository{DB: db} }

// Create relies on the (user_id, order_id) unique index; a duplicate comes
// back as gorm.ErrDuplicatedKey.
func (r *FeedbackRepository) Create(ctx context.Context, f *entity.Feedback) error {
	return r.DB.WithContext(ctx).Create(f).Error
}

func (r *FeedbackRepository) Exists(ctx context.Context, userID uint, orderID string) (bool, error) {
	var cnt int64
	err := r.DB.WithContext(ctx).Model(&entity.Feedback{}).
		Where("user_id = ? AND order_id = ?", userID, orderID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *FeedbackRepository) Get(ctx context.Context, id string) (*entity.Feedback, error) {
	var f entity.Feedback
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// SetResponse records the staff reply. Zero rows means the id is unknown.
func (r *FeedbackRepository) SetResponse(ctx context.Context, id, response string, at time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&entity.Feedback{}).
		Where("id = ?", id).
		Updates(map[string]any{"response": response, "responded_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}

type FeedbackFilter struct {
	Unanswered bool
	Limit      int
	Offset     int
}

func (r *FeedbackRepository) List(ctx context.Context, f FeedbackFilter) ([]entity.Feedback, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	q := r.DB.WithContext(ctx).Model(&entity.Feedback{})
	if f.Unanswered {
		q = q.Where("responded_at IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []entity.Feedback
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&items).Error
	return items, total, err
}

// AverageRating returns the mean rating and the number of entries.
func (r *FeedbackRepository) AverageRating(ctx context.Context) (float64, int64, error) {
	var a struct {
		Avg   float64
		Count int64
	}
	err := r.DB.WithContext(ctx).Model(&entity.Feedback{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Scan(&a).Error
	return a.Avg, a.Count, err
}
