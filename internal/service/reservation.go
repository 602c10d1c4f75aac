package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"boardcafe/backend/internal/events"
	"boardcafe/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateReservationInput is a booking request made by UserID.
type CreateReservationInput struct {
	UserID    uint
	CafeID    uint
	TableID   uint
	GameID    *uint
	StartTime time.Time
	EndTime   time.Time

	// GroupName and GroupSeats open the reservation to other players.
	GroupName  string
	GroupSeats int
}

// UpdateReservationInput carries the fields to change; nil keeps the stored
// value. A GameID pointing at zero releases the reserved game.
type UpdateReservationInput struct {
	TableID    *uint
	GameID     *uint
	StartTime  *time.Time
	EndTime    *time.Time
	GroupName  *string
	GroupSeats *int
}

func (in *CreateReservationInput) validate(now time.Time) error {
	if in.CafeID == 0 {
		return invalid("cafe_id", "is required")
	}
	if in.TableID == 0 {
		return invalid("table_id", "is required")
	}
	if in.StartTime.IsZero() {
		return invalid("start_time", "is required")
	}
	if in.EndTime.IsZero() {
		return invalid("end_time", "is required")
	}
	if !in.EndTime.After(in.StartTime) {
		return invalid("end_time", "must be after start_time")
	}
	if in.StartTime.Before(now) {
		return invalid("start_time", "must be in the future")
	}
	in.GroupName = strings.TrimSpace(in.GroupName)
	if in.GroupName != "" && in.GroupSeats < 1 {
		return invalid("group_seats", "must be at least 1 when a group is opened")
	}
	if in.GroupName == "" && in.GroupSeats != 0 {
		return invalid("group_name", "is required when group_seats is set")
	}
	return nil
}

// lockTable loads a table with a row lock so that overlap checks for the
// same table are serialized.
func lockTable(tx *gorm.DB, tableID, cafeID uint) (*models.Table, error) {
	var table models.Table
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&table, tableID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("table_id", "table does not exist")
	}
	if err != nil {
		return nil, err
	}
	if table.CafeID != cafeID {
		return nil, invalid("table_id", "table does not belong to this cafe")
	}
	return &table, nil
}

// checkOverlap fails when another reservation holds tableID during
// [start, end). excludeID skips the reservation being updated.
func checkOverlap(tx *gorm.DB, tableID uint, start, end time.Time, excludeID uint) error {
	var count int64
	q := tx.Model(&models.Reservation{}).
		Where("table_id = ?", tableID).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrTableTaken
	}
	return nil
}

func checkGroupSeats(seats int, table *models.Table, members int) error {
	if seats < 0 {
		return invalid("group_seats", "must not be negative")
	}
	// the reservation owner occupies one seat
	if seats+members > table.Capacity-1 {
		return invalid("group_seats", "exceeds the table capacity")
	}
	return nil
}

// CreateReservation books a table for a time window. When a game is named
// one unit is taken from its stock; it is returned when the reservation is
// cancelled or expires.
func (s *Service) CreateReservation(ctx context.Context, in CreateReservationInput) (*models.Reservation, error) {
	in.StartTime = in.StartTime.UTC()
	in.EndTime = in.EndTime.UTC()
	if err := in.validate(s.clock()); err != nil {
		return nil, err
	}
	if in.GameID != nil && *in.GameID == 0 {
		in.GameID = nil
	}

	res := models.Reservation{
		CafeID:    in.CafeID,
		TableID:   in.TableID,
		UserID:    in.UserID,
		GameID:    in.GameID,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cafe models.Cafe
		if err := tx.First(&cafe, in.CafeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("cafe_id", "cafe does not exist")
			}
			return err
		}

		table, err := lockTable(tx, in.TableID, in.CafeID)
		if err != nil {
			return err
		}
		if in.GroupName != "" {
			if err := checkGroupSeats(in.GroupSeats, table, 0); err != nil {
				return err
			}
		}
		if err := checkOverlap(tx, table.ID, in.StartTime, in.EndTime, 0); err != nil {
			return err
		}

		if in.GameID != nil {
			if _, err := gameForCafe(tx, *in.GameID, in.CafeID); err != nil {
				return err
			}
			if err := takeStock(tx, *in.GameID); err != nil {
				return err
			}
		}

		if err := tx.Create(&res).Error; err != nil {
			return err
		}

		if in.GroupName != "" {
			group := models.Group{
				ReservationID: res.ID,
				OwnerID:       in.UserID,
				Name:          in.GroupName,
				OpenSeats:     in.GroupSeats,
			}
			if err := tx.Create(&group).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ReservationCreated, reservationEvent(&res))
	return s.GetReservation(ctx, res.ID)
}

// GetReservation loads a reservation with its table, game and group.
func (s *Service) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := s.db.WithContext(ctx).
		Preload("Cafe").Preload("Table").Preload("Game").
		Preload("Group").Preload("Group.Members").
		First(&res, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("reservation")
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateReservation changes a reservation owned by userID. Omitted fields
// keep their stored values; the result is re-validated as a whole.
func (s *Service) UpdateReservation(ctx context.Context, userID, id uint, in UpdateReservationInput) (*models.Reservation, error) {
	now := s.clock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res models.Reservation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Group").First(&res, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("reservation")
			}
			return err
		}
		if res.UserID != userID {
			return ErrForbidden
		}

		tableID, start, end := res.TableID, res.StartTime.UTC(), res.EndTime.UTC()
		if in.TableID != nil {
			tableID = *in.TableID
		}
		if in.StartTime != nil {
			start = in.StartTime.UTC()
			if start.Before(now) {
				return invalid("start_time", "must be in the future")
			}
		}
		if in.EndTime != nil {
			end = in.EndTime.UTC()
		}
		if !end.After(start) {
			return invalid("end_time", "must be after start_time")
		}
		if !end.After(now) {
			return invalid("end_time", "must be in the future")
		}

		table, err := lockTable(tx, tableID, res.CafeID)
		if err != nil {
			return err
		}
		if err := checkOverlap(tx, table.ID, start, end, res.ID); err != nil {
			return err
		}

		gameID := res.GameID
		if in.GameID != nil {
			if *in.GameID == 0 {
				gameID = nil
			} else {
				g := *in.GameID
				gameID = &g
			}
		}
		if !sameGame(res.GameID, gameID) {
			if gameID != nil {
				if _, err := gameForCafe(tx, *gameID, res.CafeID); err != nil {
					return err
				}
				if err := takeStock(tx, *gameID); err != nil {
					return err
				}
			}
			if res.GameID != nil {
				if err := restoreStock(tx, *res.GameID); err != nil {
					return err
				}
			}
		}

		if err := s.applyGroupChanges(tx, &res, table, in); err != nil {
			return err
		}

		return tx.Model(&res).Updates(map[string]any{
			"table_id":   table.ID,
			"game_id":    gameID,
			"start_time": start,
			"end_time":   end,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ReservationUpdated, reservationEvent(updated))
	return updated, nil
}

func (s *Service) applyGroupChanges(tx *gorm.DB, res *models.Reservation, table *models.Table, in UpdateReservationInput) error {
	if in.GroupName == nil && in.GroupSeats == nil {
		// a table swap can still shrink the capacity below the open seats
		if res.Group != nil {
			members, err := memberCount(tx, res.Group.ID)
			if err != nil {
				return err
			}
			return checkGroupSeats(res.Group.OpenSeats, table, members)
		}
		return nil
	}

	if res.Group == nil {
		name := ""
		if in.GroupName != nil {
			name = strings.TrimSpace(*in.GroupName)
		}
		if name == "" {
			return invalid("group_name", "is required to open a group")
		}
		seats := 0
		if in.GroupSeats != nil {
			seats = *in.GroupSeats
		}
		if seats < 1 {
			return invalid("group_seats", "must be at least 1 when a group is opened")
		}
		if err := checkGroupSeats(seats, table, 0); err != nil {
			return err
		}
		return tx.Create(&models.Group{
			ReservationID: res.ID,
			OwnerID:       res.UserID,
			Name:          name,
			OpenSeats:     seats,
		}).Error
	}

	updates := map[string]any{}
	if in.GroupName != nil {
		name := strings.TrimSpace(*in.GroupName)
		if name == "" {
			return invalid("group_name", "must not be empty")
		}
		updates["name"] = name
	}
	seats := res.Group.OpenSeats
	if in.GroupSeats != nil {
		seats = *in.GroupSeats
		updates["open_seats"] = seats
	}
	members, err := memberCount(tx, res.Group.ID)
	if err != nil {
		return err
	}
	if err := checkGroupSeats(seats, table, members); err != nil {
		return err
	}
	return tx.Model(res.Group).Updates(updates).Error
}

// CancelReservation deletes a reservation owned by userID and returns its
// game to stock.
func (s *Service) CancelReservation(ctx context.Context, userID, id uint) error {
	var res models.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&res, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("reservation")
			}
			return err
		}
		if res.UserID != userID {
			return ErrForbidden
		}
		removed, err := removeReservation(tx, &res)
		if err != nil {
			return err
		}
		if !removed {
			return notFound("reservation")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.ReservationCancelled, reservationEvent(&res))
	return nil
}

// removeReservation deletes the reservation with its group, then restores
// the game only when this call actually removed the row. A cancel racing
// the sweeper therefore restores stock once.
func removeReservation(tx *gorm.DB, res *models.Reservation) (bool, error) {
	var groupIDs []uint
	if err := tx.Model(&models.Group{}).Where("reservation_id = ?", res.ID).Pluck("id", &groupIDs).Error; err != nil {
		return false, err
	}
	if len(groupIDs) > 0 {
		if err := tx.Where("group_id IN ?", groupIDs).Delete(&models.GroupMember{}).Error; err != nil {
			return false, err
		}
		if err := tx.Unscoped().Where("id IN ?", groupIDs).Delete(&models.Group{}).Error; err != nil {
			return false, err
		}
	}

	result := tx.Unscoped().Where("id = ?", res.ID).Delete(&models.Reservation{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	if res.GameID != nil {
		if err := restoreStock(tx, *res.GameID); err != nil {
			return false, err
		}
	}
	return true, nil
}

func memberCount(tx *gorm.DB, groupID uint) (int, error) {
	var n int64
	err := tx.Model(&models.GroupMember{}).Where("group_id = ?", groupID).Count(&n).Error
	return int(n), err
}

func sameGame(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func reservationEvent(res *models.Reservation) events.ReservationEvent {
	return events.ReservationEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		CafeID:        res.CafeID,
		TableID:       res.TableID,
		GameID:        res.GameID,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
	}
}
