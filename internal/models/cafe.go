package models

import "gorm.io/gorm"

// Cafe is a venue where tables can be booked and games bought or borrowed.
type Cafe struct {
	gorm.Model
	Name        string `gorm:"size:255;not null"`
	Address     string `gorm:"size:512"`
	Description string
	ImagePath   string `gorm:"size:512"`

	Tables []Table `gorm:"foreignKey:CafeID"`
	Games  []Game  `gorm:"foreignKey:CafeID"`
}

// TableName overrides the inflected "caves".
func (Cafe) TableName() string { return "cafes" }

// Manager links a user to the single café they administer.
type Manager struct {
	gorm.Model
	UserID uint `gorm:"not null;uniqueIndex"`
	CafeID uint `gorm:"not null;uniqueIndex"`

	User User `gorm:"foreignKey:UserID"`
	Cafe Cafe `gorm:"foreignKey:CafeID"`
}
