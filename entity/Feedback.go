package entity

import "time"

// Feedback is unique per (user, order). Guest feedback never reaches the server.
type Feedback struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	OrderID     string     `gorm:"size:36;not null;uniqueIndex:idx_feedback_user_order" json:"orderId"`
	Order       *Order     `json:"-"`
	UserID      *uint      `gorm:"uniqueIndex:idx_feedback_user_order" json:"userId"`
	User        *User      `json:"-"`
	Rating      float64    `gorm:"not null" json:"rating"`
	Message     string     `json:"message"`
	Response    string     `json:"response,omitempty"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
