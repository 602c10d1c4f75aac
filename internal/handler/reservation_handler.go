package handler

import (
	"net/http"
	"time"

	"boardcafe/backend/internal/auth"
	"boardcafe/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// ReservationInput books a table. Times are RFC 3339. Giving a group name
// and seat count opens the reservation to other players.
type ReservationInput struct {
	CafeID     uint      `json:"cafe_id" example:"1"`
	TableID    uint      `json:"table_id" example:"1"`
	GameID     *uint     `json:"game_id,omitempty" example:"1"`
	StartTime  time.Time `json:"start_time" example:"2026-01-10T18:00:00Z"`
	EndTime    time.Time `json:"end_time" example:"2026-01-10T21:00:00Z"`
	GroupName  string    `json:"group_name,omitempty" example:"Friday Catan"`
	GroupSeats int       `json:"group_seats,omitempty" example:"2"`
}

// ReservationPatch changes a reservation. Omitted fields keep their value;
// game_id 0 releases the reserved game.
type ReservationPatch struct {
	TableID    *uint      `json:"table_id,omitempty" example:"2"`
	GameID     *uint      `json:"game_id,omitempty" example:"0"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	GroupName  *string    `json:"group_name,omitempty"`
	GroupSeats *int       `json:"group_seats,omitempty"`
}

// endregion

// CreateReservation godoc
// @Summary      Book a table
// @Description  Books a table for a time window, optionally reserving a game (one unit of stock) and opening a group.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body ReservationInput true "Booking"
// @Success      201  {object}  ReservationResponse
// @Failure      400  {object}  ValidationErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Table taken or game out of stock"
// @Router       /reservations [post]
func CreateReservation(c *gin.Context) {
	var input ReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := Svc.CreateReservation(c.Request.Context(), service.CreateReservationInput{
		UserID:     auth.CurrentUserID(c),
		CafeID:     input.CafeID,
		TableID:    input.TableID,
		GameID:     input.GameID,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		GroupName:  input.GroupName,
		GroupSeats: input.GroupSeats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newReservationResponse(*res))
}

// GetReservation godoc
// @Summary      Get a reservation
// @Description  Visible to its owner, the café's manager and admins.
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Reservation ID"
// @Success      200  {object}  ReservationResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /reservations/{id} [get]
func GetReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res, err := Svc.GetReservation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if res.UserID != auth.CurrentUserID(c) && !requireCafeManager(c, res.CafeID) {
		return
	}

	c.JSON(http.StatusOK, newReservationResponse(*res))
}

// UpdateReservation godoc
// @Summary      Change a reservation
// @Description  Only the user who made the reservation may change it. Omitted fields keep their stored values.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int               true  "Reservation ID"
// @Param        input body      ReservationPatch  true  "Fields to change"
// @Success      200   {object}  ReservationResponse
// @Failure      400   {object}  ValidationErrorResponse
// @Failure      403   {object}  ErrorResponse "Not the owner"
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /reservations/{id} [patch]
func UpdateReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input ReservationPatch
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := Svc.UpdateReservation(c.Request.Context(), auth.CurrentUserID(c), id, service.UpdateReservationInput{
		TableID:    input.TableID,
		GameID:     input.GameID,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		GroupName:  input.GroupName,
		GroupSeats: input.GroupSeats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newReservationResponse(*res))
}

// DeleteReservation godoc
// @Summary      Cancel a reservation
// @Description  Only the user who made the reservation may cancel it. A reserved game goes back to stock.
// @Tags         reservations
// @Security     BearerAuth
// @Param        id   path      int  true  "Reservation ID"
// @Success      204  "No Content"
// @Failure      403  {object}  ErrorResponse "Not the owner"
// @Failure      404  {object}  ErrorResponse
// @Router       /reservations/{id} [delete]
func DeleteReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := Svc.CancelReservation(c.Request.Context(), auth.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
