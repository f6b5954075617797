package entity

import "time"

// OrderStatusLog records every status an order has been given.
type OrderStatusLog struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	OrderID   string    `gorm:"size:36;index;not null" json:"-"`
	Status    string    `gorm:"not null" json:"status"`
	ChangedBy *uint     `json:"changedBy,omitempty"`
	ChangedAt time.Time `gorm:"not null" json:"changedAt"`
}
