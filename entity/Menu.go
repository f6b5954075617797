package entity

import (
	"gorm.io/gorm"
)

type MenuItem struct {
	gorm.Model
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	Category    string  `gorm:"index" json:"category"`
	Price       float64 `gorm:"not null" json:"price"`
	Image       string  `json:"image"`
	Available   bool    `gorm:"not null;default:true" json:"available"`
}
