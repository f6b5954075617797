package repository

import (
	"context"

	"smartorder/entity"

	"gorm.io/gorm"
)

type MenuRepository struct {
	DB *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{DB: db}
}

// FindAll lists menu items, optionally narrowed to one category.
func (r *MenuRepository) FindAll(ctx context.Context, category string) ([]entity.MenuItem, error) {
	var items []entity.MenuItem
	q := r.DB.WithContext(ctx).Order("category ASC, name ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	err := q.Find(&items).Error
	return items, err
}

func (r *MenuRepository) FindByID(ctx context.Context, id uint) (*entity.MenuItem, error) {
	var item entity.MenuItem
	if err := r.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
