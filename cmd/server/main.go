package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boardcafe/backend/internal/auth"
	"boardcafe/backend/internal/cache"
	"boardcafe/backend/internal/config"
	"boardcafe/backend/internal/database"
	"boardcafe/backend/internal/events"
	"boardcafe/backend/internal/handler"
	"boardcafe/backend/internal/hub"
	"boardcafe/backend/internal/logging"
	"boardcafe/backend/internal/middleware"
	"boardcafe/backend/internal/server"
	"boardcafe/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	// Swagger imports
	_ "boardcafe/backend/docs" // This is important for swag to find the generated docs
)

// @title           Board Game Cafe API
// @version         1.0
// @description     Reservations, game stock and player groups for board-game cafés.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	root := &cobra.Command{
		Use:   "boardcafe",
		Short: "Board game café reservation backend",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			cfg := config.AppConfig
			w := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
			gin.DefaultWriter = w
			gin.DefaultErrorWriter = w
		},
		RunE: func(cmd *cobra.Command, args []string) error { return serve() },
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the expiry sweeper",
		RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(config.AppConfig.DatabaseURL)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			slog.Info("database migrated")
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Remove expired reservations once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			database.Connect(config.AppConfig.DatabaseURL)
			pub, closePub := newPublisher()
			defer closePub()

			svc := service.New(database.DB, pub)
			n, err := service.NewSweeper(svc, config.AppConfig.SweepInterval, nil).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("removed %d expired reservations\n", n)
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "notify",
		Short: "Consume reservation and group events and send notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.AppConfig
			if cfg.RabbitMQURL == "" {
				return errors.New("RABBITMQ_URL must be set")
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := events.Consume(ctx, cfg.RabbitMQURL, cfg.EventsExchange, events.LogNotifier{})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	})

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// newPublisher connects to RabbitMQ when configured and falls back to
// dropping events otherwise.
func newPublisher() (events.Publisher, func()) {
	cfg := config.AppConfig
	if cfg.RabbitMQURL == "" {
		slog.Info("RABBITMQ_URL not set, events are not published")
		return events.Nop{}, func() {}
	}
	pub, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		slog.Warn("event broker unavailable, events are not published", "error", err)
		return events.Nop{}, func() {}
	}
	return pub, func() { _ = pub.Close() }
}

func serve() error {
	cfg := config.AppConfig

	// Connect to the database
	database.Connect(cfg.DatabaseURL)

	rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}

	pub, closePub := newPublisher()
	defer closePub()

	svc := service.New(database.DB, pub, service.WithHub(hub.GlobalHub))
	handler.Init(svc)

	enforcer, err := auth.NewEnforcer()
	if err != nil {
		return fmt.Errorf("load authorization policy: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go service.NewSweeper(svc, cfg.SweepInterval, sweepLocker(rdb)).Run(ctx)

	router := server.NewRouter(server.Options{
		Enforcer: enforcer,
		Redis:    rdb,
		RateLimit: middleware.RateLimitConfig{
			Enabled:        cfg.RateLimitEnabled,
			Capacity:       cfg.RateLimitCapacity,
			RefillTokens:   1,
			RefillInterval: cfg.RateLimitRefillInterval,
		},
		UploadDir: cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// event streams end when the signal context is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server is running", "addr", srv.Addr)
		slog.Info("swagger UI is available", "url", "http://localhost:"+cfg.Port+"/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepLocker shares the sweep between replicas when Redis is available.
func sweepLocker(rdb *redis.Client) service.Locker {
	if rdb == nil {
		return nil
	}
	return cache.NewLocker(rdb)
}
