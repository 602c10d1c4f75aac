package handler

import (
	"net/http"
	"strconv"
	"time"

	"boardcafe/backend/internal/auth"
	"boardcafe/backend/internal/database"
	"boardcafe/backend/internal/models"
	"boardcafe/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Svc is the reservation service used by the handlers. It is set once at
// startup, next to database.DB.
var Svc *service.Service

func Init(s *service.Service) {
	Svc = s
}

var nowUTC = func() time.Time { return time.Now().UTC() }

func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

// paramID parses a positive numeric path parameter. On failure it writes a
// 400 response and returns false.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// pageParams reads page and limit with the usual defaults and bounds.
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // Max limit
	}
	return page, limit
}

// requireCafeManager answers 403 unless the caller manages cafeID or is an
// admin.
func requireCafeManager(c *gin.Context, cafeID uint) bool {
	ok, err := Svc.CanManageCafe(c.Request.Context(), auth.CurrentUserID(c), auth.CurrentRole(c), cafeID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not manage this cafe"})
		return false
	}
	return true
}

// cafeExists writes 404 when the café is missing.
func cafeExists(c *gin.Context, cafeID uint) bool {
	var count int64
	if err := database.DB.Model(&models.Cafe{}).Where("id = ?", cafeID).Count(&count).Error; err != nil {
		respondError(c, err)
		return false
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cafe not found"})
		return false
	}
	return true
}
