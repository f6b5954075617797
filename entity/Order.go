package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Order is written once at checkout; afterwards only Status moves.
type Order struct {
	ID                  string            `gorm:"primaryKey;size:36" json:"id"`
	Items               []OrderItem       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	Subtotal            float64           `json:"subtotal"`
	AdditionalCharges   float64           `json:"additionalCharges"`
	Total               float64           `json:"total"`
	SpecialInstructions string            `json:"specialInstructions"`
	TableNumber         string            `gorm:"not null" json:"tableNumber"`
	Status              string            `gorm:"index;not null;default:placed" json:"status"`
	Metadata            datatypes.JSONMap `json:"metadata,omitempty"`

	// nil for guest orders
	UserID *uint `gorm:"index" json:"userId"`
	User   *User `json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy reports whether the order belongs to userID. Guest orders belong to nobody.
func (o *Order) OwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}
