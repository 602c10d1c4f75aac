// Package events publishes reservation and group lifecycle events to a
// RabbitMQ topic exchange and consumes them for notifications.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys.
const (
	ReservationCreated   = "reservation.created"
	ReservationUpdated   = "reservation.updated"
	ReservationCancelled = "reservation.cancelled"
	ReservationExpired   = "reservation.expired"
	GroupJoined          = "group.joined"
	GroupLeft            = "group.left"
	GamePurchased        = "game.purchased"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// NewEnvelope wraps data with a fresh id and timestamp.
func NewEnvelope(kind string, data any) Envelope {
	return Envelope{ID: uuid.NewString(), Type: kind, OccurredAt: time.Now().UTC(), Data: data}
}

// ReservationEvent is the payload of reservation.* events.
type ReservationEvent struct {
	ReservationID uint      `json:"reservation_id"`
	UserID        uint      `json:"user_id"`
	CafeID        uint      `json:"cafe_id"`
	TableID       uint      `json:"table_id"`
	GameID        *uint     `json:"game_id,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// GroupEvent is the payload of group.* events.
type GroupEvent struct {
	GroupID       uint `json:"group_id"`
	ReservationID uint `json:"reservation_id"`
	UserID        uint `json:"user_id"`
	OpenSeats     int  `json:"open_seats"`
}

// PurchaseEvent is the payload of game.purchased.
type PurchaseEvent struct {
	GameID uint `json:"game_id"`
	UserID uint `json:"user_id"`
	Stock  int  `json:"stock"`
}

// Publisher emits domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, key string, data any) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
