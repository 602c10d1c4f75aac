package handler

import (
	"net/http"

	"boardcafe/backend/internal/auth"
	"boardcafe/backend/internal/database"
	"boardcafe/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type ManagerInput struct {
	UserID uint `json:"user_id" binding:"required" example:"2"`
	CafeID uint `json:"cafe_id" binding:"required" example:"1"`
}

// endregion

// region --- Admin Handlers ---

// CreateManager godoc
// @Summary      Assign a café manager
// @Description  Makes a user the manager of a café and promotes their role. The user must log in again to receive the new role.
// @Tags         admin-managers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body ManagerInput true "Assignment"
// @Success      201  {object}  ManagerResponse
// @Failure      400  {object}  ValidationErrorResponse
// @Failure      409  {object}  ErrorResponse "User or café already assigned"
// @Router       /managers [post]
func CreateManager(c *gin.Context) {
	var input ManagerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := Svc.AssignManager(c.Request.Context(), input.UserID, input.CafeID)
	if err != nil {
		respondError(c, err)
		return
	}

	database.DB.Preload("User").Preload("Cafe").First(m, m.ID)
	c.JSON(http.StatusCreated, newManagerResponse(*m))
}

// ListManagers godoc
// @Summary      List café managers
// @Tags         admin-managers
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[ManagerResponse]
// @Router       /managers [get]
func ListManagers(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.Manager{}).Preload("User").Preload("Cafe").Order("id ASC")
	result, err := Paginate[models.Manager](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve managers"})
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newManagerResponse))
}

// DeleteManager godoc
// @Summary      Remove a café manager
// @Description  Deletes the assignment and demotes the user back to a plain user.
// @Tags         admin-managers
// @Security     BearerAuth
// @Param        id   path      int  true  "Manager ID"
// @Success      204  "No Content"
// @Failure      404  {object}  ErrorResponse
// @Router       /managers/{id} [delete]
func DeleteManager(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := Svc.RemoveManager(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// endregion

// region --- Manager Handlers ---

// GetManagedCafe godoc
// @Summary      Get the café I manage
// @Tags         manager
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  CafeResponse
// @Failure      404  {object}  ErrorResponse "Not managing a café"
// @Router       /manager/cafe [get]
func GetManagedCafe(c *gin.Context) {
	cafeID, err := Svc.ManagedCafeID(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var cafe models.Cafe
	if err := database.DB.First(&cafe, cafeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cafe not found"})
		return
	}
	c.JSON(http.StatusOK, newCafeResponse(cafe))
}

// GetManagedReservations godoc
// @Summary      List reservations at my café
// @Description  Lists the reservations of the café the caller manages, ordered by start time. Filter by day with date=YYYY-MM-DD (UTC).
// @Tags         manager
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  false  "Day to show (YYYY-MM-DD)"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[ReservationResponse]
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse "Not managing a café"
// @Router       /manager/reservations [get]
func GetManagedReservations(c *gin.Context) {
	cafeID, err := Svc.ManagedCafeID(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	page, limit := pageParams(c)

	query := database.DB.Model(&models.Reservation{}).Where("cafe_id = ?", cafeID)
	if date := c.Query("date"); date != "" {
		day, err := parseDay(date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		query = query.Where("start_time < ? AND end_time > ?", day.AddDate(0, 0, 1), day)
	}
	query = query.Order("start_time ASC").
		Preload("Cafe").Preload("Table").Preload("Game").Preload("Group").Preload("Group.Members")

	result, err := Paginate[models.Reservation](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reservations"})
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newReservationResponse))
}

// endregion
