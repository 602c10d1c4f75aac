package service

import (
	"context"
	"errors"

	"boardcafe/backend/internal/events"
	"boardcafe/backend/internal/models"

	"gorm.io/gorm"
)

// takeStock removes one unit of a game. The decrement is conditional on
// stock > 0, so concurrent callers can never drive it negative.
func takeStock(tx *gorm.DB, gameID uint) error {
	result := tx.Model(&models.Game{}).
		Where("id = ? AND stock > 0", gameID).
		UpdateColumn("stock", gorm.Expr("stock - ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOutOfStock
	}
	return nil
}

// restoreStock puts one unit of a game back. A game deleted in the
// meantime is ignored.
func restoreStock(tx *gorm.DB, gameID uint) error {
	return tx.Model(&models.Game{}).
		Where("id = ?", gameID).
		UpdateColumn("stock", gorm.Expr("stock + ?", 1)).Error
}

// gameForCafe loads a game and checks that it is stocked by cafeID.
func gameForCafe(tx *gorm.DB, gameID, cafeID uint) (*models.Game, error) {
	var game models.Game
	if err := tx.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("game_id", "game does not exist")
		}
		return nil, err
	}
	if game.CafeID != cafeID {
		return nil, invalid("game_id", "game is not stocked by this cafe")
	}
	return &game, nil
}

// PurchaseGame sells one unit of a game to userID and returns the game with
// its remaining stock.
func (s *Service) PurchaseGame(ctx context.Context, userID, gameID uint) (*models.Game, error) {
	var game models.Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&game, gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("game")
			}
			return err
		}
		if err := takeStock(tx, gameID); err != nil {
			return err
		}
		return tx.First(&game, gameID).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.GamePurchased, events.PurchaseEvent{GameID: game.ID, UserID: userID, Stock: game.Stock})
	return &game, nil
}
