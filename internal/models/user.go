package models

import "gorm.io/gorm"

// Roles carried in the session token and checked by the authorization policy.
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// User represents a user in the system.
type User struct {
	gorm.Model
	Nickname     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`
}
