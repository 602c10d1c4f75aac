// Package service holds the reservation lifecycle: booking, mutation,
// cancellation, game stock, group seats and the expiry sweep. Every
// read-then-write sequence runs in a single database transaction.
package service

import (
	"context"
	"log/slog"
	"time"

	"boardcafe/backend/internal/events"
	"boardcafe/backend/internal/hub"

	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	events events.Publisher
	hub    *hub.Hub
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHub sets the hub that receives group membership broadcasts.
func WithHub(h *hub.Hub) Option {
	return func(s *Service) { s.hub = h }
}

func New(db *gorm.DB, pub events.Publisher, opts ...Option) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	s := &Service{db: db, events: pub, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time { return s.now().UTC() }

// publish never fails the caller: the database change is already committed.
func (s *Service) publish(ctx context.Context, key string, data any) {
	if err := s.events.Publish(ctx, key, data); err != nil {
		slog.Warn("publish event failed", "type", key, "error", err)
	}
}

func (s *Service) broadcast(groupID uint, kind string, payload any) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(groupID, hub.Event{Type: kind, Payload: payload})
}
