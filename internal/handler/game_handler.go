package handler

import (
	"errors"
	"net/http"

	"boardcafe/backend/internal/auth"
	"boardcafe/backend/internal/database"
	"boardcafe/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// region --- DTOs ---

// GameInput creates or updates a game. CafeID defaults to the café the
// caller manages. Setting Stock is how a manager restocks.
type GameInput struct {
	CafeID      uint   `json:"cafe_id" example:"1"`
	Name        string `json:"name" binding:"required,max=255" example:"Catan"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"min=0" example:"4500"`
	Stock       int    `json:"stock" binding:"min=0" example:"3"`
}

// endregion

// region --- Manager Handlers ---

// CreateGame godoc
// @Summary      Add a game to a café
// @Tags         manager-games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameInput true "Game Info"
// @Success      201  {object}  GameResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the café's manager"
// @Router       /games [post]
func CreateGame(c *gin.Context) {
	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cafeID, ok := resolveCafeID(c, input.CafeID)
	if !ok || !cafeExists(c, cafeID) || !requireCafeManager(c, cafeID) {
		return
	}

	game := models.Game{
		CafeID:      cafeID,
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
	}
	if err := database.DB.Create(&game).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
		return
	}

	c.JSON(http.StatusCreated, newGameResponse(game))
}

// UpdateGame godoc
// @Summary      Update or restock a game
// @Tags         manager-games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int        true  "Game ID"
// @Param        input body      GameInput  true  "New Game Info"
// @Success      200   {object}  GameResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [put]
func UpdateGame(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var game models.Game
	if err := database.DB.First(&game, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if !requireCafeManager(c, game.CafeID) {
		return
	}

	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.CafeID != 0 && input.CafeID != game.CafeID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cafe_id: a game cannot move to another cafe", "field": "cafe_id"})
		return
	}

	// Stock is written as an absolute value; concurrent purchases between
	// read and write are overwritten by the manager's count.
	if err := database.DB.Model(&game).Updates(map[string]any{
		"name":        input.Name,
		"description": input.Description,
		"price_cents": input.PriceCents,
		"stock":       input.Stock,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update game"})
		return
	}

	if err := database.DB.First(&game, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload game"})
		return
	}
	c.JSON(http.StatusOK, newGameResponse(game))
}

// DeleteGame godoc
// @Summary      Remove a game
// @Description  Refused while reservations still hold the game.
// @Tags         manager-games
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      204  "No Content"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Game is reserved"
// @Router       /games/{id} [delete]
func DeleteGame(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var game models.Game
	if err := database.DB.First(&game, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if !requireCafeManager(c, game.CafeID) {
		return
	}

	errReserved := errors.New("game is reserved")
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, id).Error; err != nil {
			return err
		}
		var reservations int64
		if err := tx.Model(&models.Reservation{}).Where("game_id = ?", id).Count(&reservations).Error; err != nil {
			return err
		}
		if reservations > 0 {
			return errReserved
		}
		return tx.Delete(&game).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	case errors.Is(err, errReserved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete game"})
		return
	}
	c.Status(http.StatusNoContent)
}

// endregion

// region --- User Handlers ---

// PurchaseGame godoc
// @Summary      Buy a game
// @Description  Takes one unit from the game's stock. Fails with 409 when it is sold out.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      200  {object}  GameResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Out of stock"
// @Router       /games/{id}/purchase [post]
func PurchaseGame(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	game, err := Svc.PurchaseGame(c.Request.Context(), auth.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameResponse(*game))
}

// endregion
