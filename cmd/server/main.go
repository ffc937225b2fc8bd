package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking-api/internal/config"
	"github.com/voyago/travel-booking-api/internal/database"
	"github.com/voyago/travel-booking-api/internal/handler"
	"github.com/voyago/travel-booking-api/internal/logger"
	"github.com/voyago/travel-booking-api/internal/middleware"
	"github.com/voyago/travel-booking-api/internal/otp"
	"github.com/voyago/travel-booking-api/internal/queue"
	"github.com/voyago/travel-booking-api/internal/repository"
	"github.com/voyago/travel-booking-api/internal/router"
)

func main() {
	// .env is optional; real deployments inject the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.RunMigrations(migrateCtx, db); err != nil {
		cancelMigrate()
		log.Fatal("migrations failed", zap.Error(err))
	}
	cancelMigrate()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	bookings := repository.NewBookingRepo(db)
	notifications := repository.NewNotificationRepo(db)
	permissions := repository.NewPermissionRepo(db)

	sender := otp.NewSenderFromEnv(log)
	publishEvents := cfg.AMQPURL != ""

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, notifications, sender, log),
		Profile:      handler.NewProfileHandler(cfg, users, notifications, log),
		Booking:      handler.NewBookingHandler(bookings, log, publishEvents),
		Notification: handler.NewNotificationHandler(notifications, log),
		Permission:   handler.NewPermissionHandler(permissions, log),
		Location:     handler.NewLocationHandler(permissions, log),
		Admin:        handler.NewAdminHandler(users, bookings, permissions, log),
		Health:       handler.NewHealthHandler(db),
	}

	limits := config.LoadRateLimits()
	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.NewTokenBucket(limits.API, rdb))

	router.Register(e, h, cfg, limits, cacheCfg, rdb, users)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if publishEvents {
		go queue.StartBookingConsumer(rootCtx, notifications, log)
	} else {
		log.Info("RABBITMQ_URL not set, booking events disabled")
	}
	go startNotificationSweep(rootCtx, notifications, log)

	addr := ":" + cfg.Port
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// startNotificationSweep periodically deletes expired notifications.
// Reads already filter expiry, so the sweep only reclaims storage.
func startNotificationSweep(ctx context.Context, notifications *repository.NotificationRepo, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := notifications.PurgeExpired(opCtx)
			cancel()
			if err != nil {
				log.Warn("notification sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired notifications", zap.Int64("count", n))
			}
		}
	}
}
