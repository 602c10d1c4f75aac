package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"boardcafe/backend/internal/config"
	"boardcafe/backend/internal/database"
	"boardcafe/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// region --- DTOs ---

type CafeInput struct {
	Name        string `json:"name" binding:"required,max=255" example:"Meeple House"`
	Address     string `json:"address" binding:"max=512" example:"1 Dice Street"`
	Description string `json:"description" example:"Two hundred games and good coffee"`
}

// endregion

const maxImageBytes = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// region --- Public Handlers ---

// ListCafes godoc
// @Summary      List cafés
// @Description  Lists cafés ordered by name, optionally filtered by name.
// @Tags         cafes
// @Produce      json
// @Param        q     query     string  false  "Search query for café name"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[CafeResponse]
// @Router       /cafes [get]
func ListCafes(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.Cafe{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	query = query.Order("name ASC")

	result, err := Paginate[models.Cafe](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cafes"})
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newCafeResponse))
}

// GetCafe godoc
// @Summary      Get a café
// @Tags         cafes
// @Produce      json
// @Param        id   path      int  true  "Cafe ID"
// @Success      200  {object}  CafeResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /cafes/{id} [get]
func GetCafe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var cafe models.Cafe
	if err := database.DB.First(&cafe, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cafe not found"})
		return
	}

	c.JSON(http.StatusOK, newCafeResponse(cafe))
}

// GetCafeTables godoc
// @Summary      List a café's tables
// @Tags         cafes
// @Produce      json
// @Param        id   path      int  true  "Cafe ID"
// @Success      200  {array}   TableResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /cafes/{id}/tables [get]
func GetCafeTables(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !cafeExists(c, id) {
		return
	}

	var tables []models.Table
	if err := database.DB.Where("cafe_id = ?", id).Order("label ASC").Find(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tables"})
		return
	}

	response := make([]TableResponse, 0, len(tables))
	for _, t := range tables {
		response = append(response, newTableResponse(t))
	}
	c.JSON(http.StatusOK, response)
}

// GetCafeGames godoc
// @Summary      List a café's games
// @Description  Lists the games stocked by a café. Use in_stock=true to hide sold-out games.
// @Tags         cafes
// @Produce      json
// @Param        id        path      int   true   "Cafe ID"
// @Param        in_stock  query     bool  false  "Only games with stock left"
// @Success      200  {array}   GameResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /cafes/{id}/games [get]
func GetCafeGames(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !cafeExists(c, id) {
		return
	}

	query := database.DB.Where("cafe_id = ?", id)
	if c.Query("in_stock") == "true" {
		query = query.Where("stock > 0")
	}

	var games []models.Game
	if err := query.Order("name ASC").Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve games"})
		return
	}

	response := make([]GameResponse, 0, len(games))
	for _, g := range games {
		response = append(response, newGameResponse(g))
	}
	c.JSON(http.StatusOK, response)
}

// endregion

// region --- Admin Handlers ---

// CreateCafe godoc
// @Summary      Create a café
// @Tags         admin-cafes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CafeInput true "Cafe Info"
// @Success      201  {object}  CafeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /cafes [post]
func CreateCafe(c *gin.Context) {
	var input CafeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cafe := models.Cafe{Name: input.Name, Address: input.Address, Description: input.Description}
	if err := database.DB.Create(&cafe).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cafe"})
		return
	}

	c.JSON(http.StatusCreated, newCafeResponse(cafe))
}

// UpdateCafe godoc
// @Summary      Update a café
// @Tags         admin-cafes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int        true  "Cafe ID"
// @Param        input body      CafeInput  true  "New Cafe Info"
// @Success      200   {object}  CafeResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse "Cafe not found"
// @Router       /cafes/{id} [put]
func UpdateCafe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var cafe models.Cafe
	if err := database.DB.First(&cafe, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cafe not found"})
		return
	}

	var input CafeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cafe.Name = input.Name
	cafe.Address = input.Address
	cafe.Description = input.Description
	if err := database.DB.Save(&cafe).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cafe"})
		return
	}

	c.JSON(http.StatusOK, newCafeResponse(cafe))
}

// DeleteCafe godoc
// @Summary      Delete a café
// @Description  Deletes a café with its tables, games and manager assignment. Refused while reservations exist.
// @Tags         admin-cafes
// @Security     BearerAuth
// @Param        id   path      int  true  "Cafe ID"
// @Success      204  "No Content"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Cafe still has reservations"
// @Router       /cafes/{id} [delete]
func DeleteCafe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	errHasReservations := errors.New("cafe still has reservations")
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var cafe models.Cafe
		if err := tx.First(&cafe, id).Error; err != nil {
			return err
		}
		var reservations int64
		if err := tx.Model(&models.Reservation{}).Where("cafe_id = ?", id).Count(&reservations).Error; err != nil {
			return err
		}
		if reservations > 0 {
			return errHasReservations
		}
		if err := tx.Where("cafe_id = ?", id).Delete(&models.Table{}).Error; err != nil {
			return err
		}
		if err := tx.Where("cafe_id = ?", id).Delete(&models.Game{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("cafe_id = ?", id).Delete(&models.Manager{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cafe).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cafe not found"})
	case errors.Is(err, errHasReservations):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete cafe"})
	default:
		c.Status(http.StatusNoContent)
	}
}

// UploadCafeImage godoc
// @Summary      Upload a café image
// @Description  Replaces the café's picture. Allowed for the café's manager and admins.
// @Tags         cafes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int   true  "Cafe ID"
// @Param        image  formData  file  true  "JPEG, PNG or WebP image, at most 5 MB"
// @Success      200    {object}  CafeResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Router       /cafes/{id}/image [post]
func UploadCafeImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !requireCafeManager(c, id) {
		return
	}

	var cafe models.Cafe
	if err := database.DB.First(&cafe, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cafe not found"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image file"})
		return
	}
	if file.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image is larger than 5 MB"})
		return
	}
	ext, ok := allowedImageTypes[file.Header.Get("Content-Type")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image must be JPEG, PNG or WebP"})
		return
	}

	relPath := filepath.ToSlash(filepath.Join("cafes", uuid.NewString()+ext))
	dst := filepath.Join(config.AppConfig.UploadDir, relPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}

	previous := cafe.ImagePath
	if err := database.DB.Model(&cafe).Update("image_path", relPath).Error; err != nil {
		_ = os.Remove(dst)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cafe"})
		return
	}
	cafe.ImagePath = relPath
	if previous != "" {
		_ = os.Remove(filepath.Join(config.AppConfig.UploadDir, previous))
	}

	c.JSON(http.StatusOK, newCafeResponse(cafe))
}

// endregion
