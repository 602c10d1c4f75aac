package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a social overlay on a reservation that other users can join
// while OpenSeats is above zero.
type Group struct {
	gorm.Model
	ReservationID uint   `gorm:"not null;uniqueIndex"`
	OwnerID       uint   `gorm:"not null;index"`
	Name          string `gorm:"size:255;not null"`
	OpenSeats     int    `gorm:"not null;default:0;check:open_seats >= 0"`

	Reservation Reservation   `gorm:"foreignKey:ReservationID"`
	Owner       User          `gorm:"foreignKey:OwnerID"`
	Members     []GroupMember `gorm:"foreignKey:GroupID"`
}

// GroupMember records a user who joined a group.
// The primary key is a composite of (GroupID, UserID) so a user joins once.
type GroupMember struct {
	GroupID   uint `gorm:"primaryKey"`
	UserID    uint `gorm:"primaryKey"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}
