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

// TableInput creates or updates a table. CafeID defaults to the café the
// caller manages; admins must set it.
type TableInput struct {
	CafeID   uint   `json:"cafe_id" example:"1"`
	Label    string `json:"label" binding:"required,max=100" example:"T1"`
	Capacity int    `json:"capacity" binding:"required,min=1,max=50" example:"4"`
}

// endregion

// resolveCafeID fills a missing café id with the café the caller manages.
func resolveCafeID(c *gin.Context, cafeID uint) (uint, bool) {
	if cafeID != 0 {
		return cafeID, true
	}
	managed, err := Svc.ManagedCafeID(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cafe_id: is required", "field": "cafe_id"})
		return 0, false
	}
	return managed, true
}

// CreateTable godoc
// @Summary      Add a table
// @Tags         manager-tables
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body TableInput true "Table Info"
// @Success      201  {object}  TableResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the café's manager"
// @Router       /tables [post]
func CreateTable(c *gin.Context) {
	var input TableInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cafeID, ok := resolveCafeID(c, input.CafeID)
	if !ok || !cafeExists(c, cafeID) || !requireCafeManager(c, cafeID) {
		return
	}

	table := models.Table{CafeID: cafeID, Label: input.Label, Capacity: input.Capacity}
	if err := database.DB.Create(&table).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create table"})
		return
	}

	c.JSON(http.StatusCreated, newTableResponse(table))
}

// UpdateTable godoc
// @Summary      Update a table
// @Tags         manager-tables
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int         true  "Table ID"
// @Param        input body      TableInput  true  "New Table Info"
// @Success      200   {object}  TableResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /tables/{id} [put]
func UpdateTable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var table models.Table
	if err := database.DB.First(&table, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
		return
	}
	if !requireCafeManager(c, table.CafeID) {
		return
	}

	var input TableInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.CafeID != 0 && input.CafeID != table.CafeID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cafe_id: a table cannot move to another cafe", "field": "cafe_id"})
		return
	}

	table.Label = input.Label
	table.Capacity = input.Capacity
	if err := database.DB.Save(&table).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update table"})
		return
	}

	c.JSON(http.StatusOK, newTableResponse(table))
}

// DeleteTable godoc
// @Summary      Remove a table
// @Description  Refused while the table has reservations.
// @Tags         manager-tables
// @Security     BearerAuth
// @Param        id   path      int  true  "Table ID"
// @Success      204  "No Content"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Table has reservations"
// @Router       /tables/{id} [delete]
func DeleteTable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var table models.Table
	if err := database.DB.First(&table, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
		return
	}
	if !requireCafeManager(c, table.CafeID) {
		return
	}

	errReserved := errors.New("table has reservations")
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&table, id).Error; err != nil {
			return err
		}
		var reservations int64
		if err := tx.Model(&models.Reservation{}).Where("table_id = ?", id).Count(&reservations).Error; err != nil {
			return err
		}
		if reservations > 0 {
			return errReserved
		}
		return tx.Delete(&table).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
		return
	case errors.Is(err, errReserved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete table"})
		return
	}
	c.Status(http.StatusNoContent)
}
