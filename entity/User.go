package entity

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleChef     = "chef"
	RoleAdmin    = "admin"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `gorm:"not null;default:customer" json:"role"`

	// preload only when needed
	Orders   []Order    `json:"-"`
	Feedback []Feedback `json:"-"`
	Cart     *Cart      `json:"-"`
}

// IsStaff is true for the roles allowed to move orders through the kitchen.
func (u *User) IsStaff() bool {
	return u.Role == RoleChef || u.Role == RoleAdmin
}

// PasswordReset is a single-use token issued by the forgot-password flow.
type PasswordReset struct {
	Token     string    `gorm:"primaryKey;size:36"`
	UserID    uint      `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}
