package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"boardcafe/backend/internal/events"
	"boardcafe/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Locker grants a short-lived lease so only one replica sweeps per tick.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

const sweepLockKey = "sweeper:expired-reservations"

// Sweeper removes reservations whose end time has passed and returns their
// games to stock.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	locker   Locker
}

func NewSweeper(svc *Service, interval time.Duration, locker Locker) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{svc: svc, interval: interval, locker: locker}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("sweeper started", "interval", s.interval)
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if s.locker != nil {
		// the lease outlives the sweep but expires before the next tick
		ok, err := s.locker.TryLock(ctx, sweepLockKey, s.interval*9/10)
		if err != nil {
			slog.Warn("sweeper lock failed, sweeping anyway", "error", err)
		} else if !ok {
			slog.Debug("sweeper lock held elsewhere, skipping tick")
			return
		}
	}
	if _, err := s.RunOnce(ctx); err != nil {
		slog.Error("sweep failed", "error", err)
	}
}

// RunOnce performs a single sweep and returns how many reservations were
// removed. A failure on one reservation is logged and the sweep moves on;
// it is retried on the next run.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	now := s.svc.clock()

	var ids []uint
	if err := s.svc.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("end_time <= ?", now).
		Order("end_time ASC").
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		ok, err := s.svc.expireReservation(ctx, id, now)
		if err != nil {
			slog.Error("expire reservation failed", "reservation_id", id, "error", err)
			continue
		}
		if ok {
			removed++
		}
	}
	if removed > 0 {
		slog.Info("expired reservations removed", "count", removed)
	}
	return removed, nil
}

// expireReservation removes one reservation if it is still present and
// still expired at now.
func (s *Service) expireReservation(ctx context.Context, id uint, now time.Time) (bool, error) {
	var res models.Reservation
	removed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&res, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // cancelled by its owner in the meantime
		}
		if err != nil {
			return err
		}
		if res.EndTime.After(now) {
			return nil // extended since it was listed
		}
		removed, err = removeReservation(tx, &res)
		return err
	})
	if err != nil || !removed {
		return false, err
	}

	s.publish(ctx, events.ReservationExpired, reservationEvent(&res))
	return true, nil
}
