package models

import "gorm.io/gorm"

// Table is a bookable table inside a café.
type Table struct {
	gorm.Model
	CafeID   uint   `gorm:"not null;index"`
	Label    string `gorm:"size:100;not null"`
	Capacity int    `gorm:"not null;default:4"`
}
