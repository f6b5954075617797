package repository

import (
	"context"
	"errors"
	"time"

	"smartorder/entity"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create fails with gorm.ErrDuplicatedKey when the email is taken.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&entity.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepository) CreateReset(ctx context.Context, pr *entity.PasswordReset) error {
	return r.DB.WithContext(ctx).Create(pr).Error
}

// ConsumeReset marks an unexpired token used and sets the new password hash in one transaction.
func (r *UserRepository) ConsumeReset(ctx context.Context, token, passwordHash string, now time.Time) (bool, error) {
	consumed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pr entity.PasswordReset
		err := tx.Where("token = ? AND used_at IS NULL AND expires_at > ?", token, now).First(&pr).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res := tx.Model(&entity.PasswordReset{}).
			Where("token = ? AND used_at IS NULL", token).
			Update("used_at", now)
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		if err := tx.Model(&entity.User{}).Where("id = ?", pr.UserID).Update("password", passwordHash).Error; err != nil {
			return err
		}
		consumed = true
		return nil
	})
	return consumed, err
}
