// Package server assembles the gin engine: middleware, the route table and
// the per-route authorization policy.
package server

import (
	"net/http"

	"boardcafe/backend/internal/auth"
	"boardcafe/backend/internal/handler"
	"boardcafe/backend/internal/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Options struct {
	Enforcer  *casbin.Enforcer
	Redis     *redis.Client
	RateLimit middleware.RateLimitConfig
	UploadDir string
}

// NewRouter builds the HTTP engine. handler.Init and database.DB must be
// set before it serves requests.
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = 8 << 20

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	limit := middleware.RateLimit(opts.RateLimit, opts.Redis)
	protected := []gin.HandlerFunc{auth.AuthMiddleware(), auth.Authorize(opts.Enforcer), limit}

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", limit, handler.RegisterUser)
			authRoutes.POST("/login", limit, handler.LoginUser)
			authRoutes.POST("/logout", append(protected, handler.LogoutUser)...)
		}

		// Public café routes
		cafeRoutes := apiV1.Group("/cafes")
		{
			cafeRoutes.GET("", auth.OptionalAuthMiddleware(), limit, handler.ListCafes)
			cafeRoutes.GET("/:id", auth.OptionalAuthMiddleware(), limit, handler.GetCafe)
			cafeRoutes.GET("/:id/tables", auth.OptionalAuthMiddleware(), limit, handler.GetCafeTables)
			cafeRoutes.GET("/:id/games", auth.OptionalAuthMiddleware(), limit, handler.GetCafeGames)
		}

		// Everything below requires a session and passes the role policy
		secured := apiV1.Group("")
		secured.Use(protected...)
		{
			secured.GET("/users/me", handler.GetMe)
			secured.GET("/users/me/reservations", handler.GetMyReservations)

			// Admin
			secured.POST("/cafes", handler.CreateCafe)
			secured.PUT("/cafes/:id", handler.UpdateCafe)
			secured.DELETE("/cafes/:id", handler.DeleteCafe)
			secured.POST("/cafes/:id/image", handler.UploadCafeImage)

			secured.POST("/managers", handler.CreateManager)
			secured.GET("/managers", handler.ListManagers)
			secured.DELETE("/managers/:id", handler.DeleteManager)

			// Manager self-service
			secured.GET("/manager/cafe", handler.GetManagedCafe)
			secured.GET("/manager/reservations", handler.GetManagedReservations)

			secured.POST("/tables", handler.CreateTable)
			secured.PUT("/tables/:id", handler.UpdateTable)
			secured.DELETE("/tables/:id", handler.DeleteTable)

			secured.POST("/games", handler.CreateGame)
			secured.PUT("/games/:id", handler.UpdateGame)
			secured.DELETE("/games/:id", handler.DeleteGame)
			secured.POST("/games/:id/purchase", handler.PurchaseGame)

			// Reservations
			secured.POST("/reservations", handler.CreateReservation)
			secured.GET("/reservations", handler.GetMyReservations)
			secured.GET("/reservations/:id", handler.GetReservation)
			secured.PATCH("/reservations/:id", handler.UpdateReservation)
			secured.DELETE("/reservations/:id", handler.DeleteReservation)

			// Groups
			secured.GET("/groups", handler.ListGroups)
			secured.GET("/groups/:id", handler.GetGroup)
			secured.POST("/groups/:id/join", handler.JoinGroup)
			secured.POST("/groups/:id/leave", handler.LeaveGroup)
			secured.GET("/groups/:id/events", handler.GroupEvents)
		}
	}

	return router
}
