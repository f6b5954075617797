package repository

import (
	"context"
	"errors"

	"smartorder/entity"

	"gorm.io/gorm"
)

type CartRepository struct{ DB *gorm.DB }

func NewCartRepository(db *gorm.DB) *CartRepository { return &CartRepository{DB: db} }

// GetCartWithItems returns an empty cart rather than an error when none exists.
func (r *CartRepository) GetCartWithItems(ctx context.Context, userID uint) (*entity.Cart, error) {
	var c entity.Cart
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entity.Cart{UserID: userID, Items: []entity.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ReplaceItems overwrites the whole cart with items. There is no item-level merge.
func (r *CartRepository) ReplaceItems(tx *gorm.DB, userID uint, items []entity.CartItem) (*entity.Cart, error) {
	var c entity.Cart
	err := tx.Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = entity.Cart{UserID: userID}
		if err := tx.Create(&c).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := tx.Where("cart_id = ?", c.ID).Delete(&entity.CartItem{}).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ID = 0
		items[i].CartID = c.ID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return nil, err
		}
	}
	c.Items = items
	return &c, nil
}

func (r *CartRepository) ClearCart(tx *gorm.DB, userID uint) error {
	var c entity.Cart
	if err := tx.Where("user_id = ?", userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return tx.Where("cart_id = ?", c.ID).Delete(&entity.CartItem{}).Error
}
