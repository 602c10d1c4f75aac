// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"boardcafe/backend/internal/database"
	"boardcafe/backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture is a café with one table and one game plus two plain users.
type Fixture struct {
	Cafe  models.Cafe
	Table models.Table
	Game  models.Game
	Owner models.User
	Other models.User
}

// Seed inserts a Fixture. The game starts with the given stock and the
// table seats four.
func Seed(t *testing.T, db *gorm.DB, stock int) Fixture {
	t.Helper()
	f := Fixture{
		Cafe:  models.Cafe{Name: "Meeple House", Address: "1 Dice Street"},
		Owner: models.User{Nickname: "owner", Email: "owner@example.com", PasswordHash: "x", Role: models.RoleUser},
		Other: models.User{Nickname: "other", Email: "other@example.com", PasswordHash: "x", Role: models.RoleUser},
	}
	must(t, db.Create(&f.Cafe).Error)
	must(t, db.Create(&f.Owner).Error)
	must(t, db.Create(&f.Other).Error)

	f.Table = models.Table{CafeID: f.Cafe.ID, Label: "T1", Capacity: 4}
	must(t, db.Create(&f.Table).Error)

	f.Game = models.Game{CafeID: f.Cafe.ID, Name: "Catan", PriceCents: 4500, Stock: stock}
	must(t, db.Create(&f.Game).Error)
	return f
}

// CreateUser inserts a user with the given nickname and role.
func CreateUser(t *testing.T, db *gorm.DB, nickname, role string) models.User {
	t.Helper()
	u := models.User{Nickname: nickname, Email: nickname + "@example.com", PasswordHash: "x", Role: role}
	must(t, db.Create(&u).Error)
	return u
}

// Clock is a settable time source for sweeper and validation tests.
type Clock struct{ T time.Time }

func (c *Clock) Now() time.Time { return c.T }

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
