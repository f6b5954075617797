package entity

type CartItem struct {
	ID     uint `gorm:"primaryKey" json:"-"`
	CartID uint `gorm:"index" json:"-"`

	MenuItemID uint    `json:"productId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Image      string  `json:"image,omitempty"`
	Quantity   int     `json:"quantity"`
}
