package models

import (
	"time"

	"gorm.io/gorm"
)

// Reservation books a table, and optionally a game, for a time window.
type Reservation struct {
	gorm.Model
	CafeID    uint      `gorm:"not null;index"`
	TableID   uint      `gorm:"not null;index"`
	UserID    uint      `gorm:"not null;index"`
	GameID    *uint     `gorm:"index"`
	StartTime time.Time `gorm:"not null;index"`
	EndTime   time.Time `gorm:"not null;index"`

	Cafe  Cafe   `gorm:"foreignKey:CafeID"`
	Table Table  `gorm:"foreignKey:TableID"`
	User  User   `gorm:"foreignKey:UserID"`
	Game  *Game  `gorm:"foreignKey:GameID"`
	Group *Group `gorm:"foreignKey:ReservationID"`
}
