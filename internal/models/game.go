package models

import "gorm.io/gorm"

// Game represents a board game held in a café's stock.
// Stock is never allowed below zero; every decrement is conditional.
type Game struct {
	gorm.Model
	CafeID      uint   `gorm:"not null;index"`
	Name        string `gorm:"size:255;not null"`
	Description string
	PriceCents  int64 `gorm:"not null;default:0"`
	Stock       int   `gorm:"not null;default:0;check:stock >= 0"`
}
