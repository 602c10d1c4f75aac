package service

import (
	"context"
	"errors"

	"boardcafe/backend/internal/events"
	"boardcafe/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetGroup loads a group with its reservation and members.
func (s *Service) GetGroup(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	err := s.db.WithContext(ctx).
		Preload("Reservation").Preload("Reservation.Table").Preload("Reservation.Cafe").Preload("Reservation.Game").
		Preload("Owner").Preload("Members").Preload("Members.User").
		First(&group, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("group")
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// JoinGroup seats userID in a group. The open-seat counter is decremented
// with a conditional update in the same transaction as the member insert,
// so the last seat cannot be handed out twice.
func (s *Service) JoinGroup(ctx context.Context, userID, groupID uint) (*models.Group, error) {
	now := s.clock()
	var group models.Group

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Reservation").First(&group, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("group")
			}
			return err
		}
		if group.OwnerID == userID {
			return ErrAlreadyMember
		}
		if !group.Reservation.EndTime.After(now) {
			return ErrReservationOver
		}

		var existing int64
		if err := tx.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyMember
		}

		result := tx.Model(&models.Group{}).
			Where("id = ? AND open_seats > 0", groupID).
			UpdateColumn("open_seats", gorm.Expr("open_seats - ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGroupFull
		}

		if err := tx.Create(&models.GroupMember{GroupID: groupID, UserID: userID}).Error; err != nil {
			return err
		}
		return tx.First(&group, groupID).Error
	})
	if err != nil {
		return nil, err
	}

	ev := events.GroupEvent{GroupID: group.ID, ReservationID: group.ReservationID, UserID: userID, OpenSeats: group.OpenSeats}
	s.publish(ctx, events.GroupJoined, ev)
	s.broadcast(group.ID, events.GroupJoined, ev)
	return s.GetGroup(ctx, groupID)
}

// LeaveGroup removes userID from a group and frees their seat.
func (s *Service) LeaveGroup(ctx context.Context, userID, groupID uint) (*models.Group, error) {
	var group models.Group

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&group, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("group")
			}
			return err
		}

		result := tx.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound("group membership")
		}

		if err := tx.Model(&models.Group{}).
			Where("id = ?", groupID).
			UpdateColumn("open_seats", gorm.Expr("open_seats + ?", 1)).Error; err != nil {
			return err
		}
		return tx.First(&group, groupID).Error
	})
	if err != nil {
		return nil, err
	}

	ev := events.GroupEvent{GroupID: group.ID, ReservationID: group.ReservationID, UserID: userID, OpenSeats: group.OpenSeats}
	s.publish(ctx, events.GroupLeft, ev)
	s.broadcast(group.ID, events.GroupLeft, ev)
	return s.GetGroup(ctx, groupID)
}
