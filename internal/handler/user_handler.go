package handler

import (
	"net/http"

	"boardcafe/backend/internal/auth"
	"boardcafe/backend/internal/config"
	"boardcafe/backend/internal/database"
	"boardcafe/backend/internal/models"
	"boardcafe/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Nickname string `json:"nickname" binding:"required" example:"testuser"`
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// TokenResponse carries the session token also set as a cookie.
type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// endregion

// region --- Auth Handlers ---

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new user, sets the session cookie and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing int64
	if err := database.DB.Model(&models.User{}).Where("nickname = ? OR email = ?", input.Nickname, input.Email).Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing users"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Nickname or email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Nickname:     input.Nickname,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	issueSession(c, http.StatusCreated, user)
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates a user with nickname/email and password, sets the session cookie and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("nickname = ? OR email = ?", input.Login, input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	issueSession(c, http.StatusOK, user)
}

// LogoutUser godoc
// @Summary      Log out
// @Description  Clears the session cookie.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "{"message": "Logged out"}"
// @Router       /auth/logout [post]
func LogoutUser(c *gin.Context) {
	cfg := config.AppConfig
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func issueSession(c *gin.Context, status int, user models.User) {
	token, err := jwt.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	cfg := config.AppConfig
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, token, int(cfg.TokenTTL.Seconds()), "/", "", cfg.CookieSecure, true)
	c.JSON(status, TokenResponse{Token: token, User: newUserResponse(user)})
}

// endregion

// region --- User Handlers ---

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func GetMe(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, auth.CurrentUserID(c)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// GetMyReservations godoc
// @Summary      List my reservations
// @Description  Lists the current user's reservations ordered by start time. Use upcoming=true to hide finished ones.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        upcoming query    bool  false  "Only reservations that have not ended"
// @Param        page     query    int   false  "Page number" default(1)
// @Param        limit    query    int   false  "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[ReservationResponse]
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/reservations [get]
func GetMyReservations(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.Reservation{}).
		Where("user_id = ?", auth.CurrentUserID(c))
	if c.Query("upcoming") == "true" {
		query = query.Where("end_time > ?", nowUTC())
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
