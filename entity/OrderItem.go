package entity

// OrderItem snapshots the menu item as it was at checkout.
type OrderItem struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	OrderID    string  `gorm:"size:36;index;not null" json:"-"`
	MenuItemID uint    `gorm:"index" json:"productId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Image      string  `json:"image,omitempty"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	Position   int     `json:"-"`
}
