package service

import (
	"context"
	"errors"

	"boardcafe/backend/internal/models"

	"gorm.io/gorm"
)

// ManagedCafeID returns the café administered by userID.
func (s *Service) ManagedCafeID(ctx context.Context, userID uint) (uint, error) {
	var m models.Manager
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, notFound("managed cafe")
	}
	if err != nil {
		return 0, err
	}
	return m.CafeID, nil
}

// CanManageCafe reports whether a caller with the given role may
// administer cafeID. Admins manage every café.
func (s *Service) CanManageCafe(ctx context.Context, userID uint, role string, cafeID uint) (bool, error) {
	if role == models.RoleAdmin {
		return true, nil
	}
	if role != models.RoleManager {
		return false, nil
	}
	managed, err := s.ManagedCafeID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return managed == cafeID, nil
}

// AssignManager makes userID the manager of cafeID and promotes their role.
// A user manages at most one café and a café has at most one manager.
func (s *Service) AssignManager(ctx context.Context, userID, cafeID uint) (*models.Manager, error) {
	m := models.Manager{UserID: userID, CafeID: cafeID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("user_id", "user does not exist")
			}
			return err
		}
		var cafe models.Cafe
		if err := tx.First(&cafe, cafeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("cafe_id", "cafe does not exist")
			}
			return err
		}

		var taken int64
		if err := tx.Model(&models.Manager{}).
			Where("user_id = ? OR cafe_id = ?", userID, cafeID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return conflictError("user already manages a cafe or cafe already has a manager")
		}

		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if user.Role == models.RoleAdmin {
			return nil
		}
		return tx.Model(&user).Update("role", models.RoleManager).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RemoveManager deletes a manager assignment and demotes the user back to a
// plain user.
func (s *Service) RemoveManager(ctx context.Context, managerID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Manager
		if err := tx.First(&m, managerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("manager")
			}
			return err
		}
		if err := tx.Unscoped().Delete(&m).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND role = ?", m.UserID, models.RoleManager).
			Update("role", models.RoleUser).Error
	})
}
