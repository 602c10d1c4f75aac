package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"boardcafe/backend/internal/auth"
	"boardcafe/backend/internal/database"
	"boardcafe/backend/internal/hub"
	"boardcafe/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// keepAlive is how often an idle event stream gets a ping.
var keepAlive = 25 * time.Second

// ListGroups godoc
// @Summary      List open groups
// @Description  Lists groups with free seats whose reservation has not ended, soonest first.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        cafe_id  query     int  false  "Only groups at this café"
// @Param        page     query     int  false  "Page number" default(1)
// @Param        limit    query     int  false  "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[GroupResponse]
// @Router       /groups [get]
func ListGroups(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.Group{}).
		Joins(`JOIN reservations ON reservations.id = "groups".reservation_id`).
		Where(`"groups".open_seats > 0 AND reservations.end_time > ?`, nowUTC())
	if cafeID, err := strconv.ParseUint(c.Query("cafe_id"), 10, 32); err == nil && cafeID > 0 {
		query = query.Where("reservations.cafe_id = ?", cafeID)
	}
	query = query.Order("reservations.start_time ASC").
		Preload("Reservation").Preload("Reservation.Cafe").Preload("Reservation.Table").Preload("Reservation.Game").
		Preload("Members").Preload("Members.User")

	result, err := Paginate[models.Group](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve groups"})
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newGroupResponse))
}

// GetGroup godoc
// @Summary      Get a group
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Group ID"
// @Success      200  {object}  GroupResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /groups/{id} [get]
func GetGroup(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	group, err := Svc.GetGroup(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGroupResponse(*group))
}

// JoinGroup godoc
// @Summary      Join a group
// @Description  Takes one of the group's open seats.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Group ID"
// @Success      200  {object}  GroupResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Group full, already a member or reservation over"
// @Router       /groups/{id}/join [post]
func JoinGroup(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	group, err := Svc.JoinGroup(c.Request.Context(), auth.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGroupResponse(*group))
}

// LeaveGroup godoc
// @Summary      Leave a group
// @Description  Gives the caller's seat back to the group.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Group ID"
// @Success      200  {object}  GroupResponse
// @Failure      404  {object}  ErrorResponse "Group not found or not a member"
// @Router       /groups/{id}/leave [post]
func LeaveGroup(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	group, err := Svc.LeaveGroup(c.Request.Context(), auth.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGroupResponse(*group))
}

// GroupEvents godoc
// @Summary      Stream group updates
// @Description  Server-sent events for joins and leaves of a group. Each event's data is a JSON object with type and payload.
// @Tags         groups
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id   path      int  true  "Group ID"
// @Success      200  {string}  string "event stream"
// @Failure      404  {object}  ErrorResponse
// @Router       /groups/{id}/events [get]
func GroupEvents(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := Svc.GetGroup(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	client := hub.GlobalHub.Subscribe(id)
	defer hub.GlobalHub.Unsubscribe(id, client)

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("group", string(msg))
			return true
		case <-ticker.C:
			c.SSEvent("ping", nowUTC().Format(time.RFC3339))
			return true
		}
	})
}
