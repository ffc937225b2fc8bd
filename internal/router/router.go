// Package router wires handlers, auth middleware and rate-limit scopes
// onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/voyago/travel-booking-api/internal/config"
	"github.com/voyago/travel-booking-api/internal/handler"
	"github.com/voyago/travel-booking-api/internal/middleware"
	"github.com/voyago/travel-booking-api/internal/model"
	"github.com/voyago/travel-booking-api/internal/repository"
)

// Handlers bundles everything the router registers.
type Handlers struct {
	Auth         *handler.AuthHandler
	Profile      *handler.ProfileHandler
	Booking      *handler.BookingHandler
	Notification *handler.NotificationHandler
	Permission   *handler.PermissionHandler
	Location     *handler.LocationHandler
	Admin        *handler.AdminHandler
	Health       *handler.HealthHandler
}

// Register mounts all routes.  The public surface is /api/health and
// /api/auth; everything else requires a Bearer token, and /api/admin
// additionally requires the admin role.
func Register(e *echo.Echo, h Handlers, cfg config.Config, limits config.RateLimits, cacheCfg config.CacheConfig, rdb *redis.Client, users *repository.UserRepo) {
	api := e.Group("/api")
	api.GET("/health", h.Health.Check)

	// Unauthenticated auth flows.  Each sensitive flow carries its own
	// stingy token bucket on top of the global API limiter.
	auth := api.Group("/auth")
	authLimit := middleware.NewTokenBucket(limits.Auth, rdb)
	otpLimit := middleware.NewTokenBucket(limits.OTP, rdb)
	resetLimit := middleware.NewTokenBucket(limits.Reset, rdb)

	auth.POST("/register", h.Auth.Register, authLimit)
	auth.POST("/login", h.Auth.Login, authLimit)
	auth.POST("/forgot-password", h.Auth.ForgotPassword, resetLimit)
	auth.POST("/verify-otp", h.Auth.VerifyOTP, otpLimit)
	auth.POST("/reset-password", h.Auth.ResetPassword, resetLimit)

	// Everything below requires a live, active account.
	jwt := middleware.JWTAuth(cfg.JWTSecret, users)

	auth.GET("/me", h.Auth.Me, jwt)

	profile := api.Group("/profile", jwt)
	profile.GET("", h.Profile.Get)
	profile.PUT("", h.Profile.Update)
	profile.PUT("/password", h.Profile.ChangePassword)

	bookings := api.Group("/bookings", jwt)
	bookings.POST("", h.Booking.Create)
	bookings.GET("", h.Booking.List)
	bookings.GET("/:id", h.Booking.Get)
	bookings.PUT("/:id/cancel", h.Booking.Cancel)
	bookings.POST("/:id/payment", h.Booking.ConfirmPayment)

	notifications := api.Group("/notifications", jwt)
	notifications.GET("", h.Notification.List)
	notifications.GET("/unread-count", h.Notification.UnreadCount)
	notifications.PUT("/:id/read", h.Notification.MarkRead)
	notifications.PUT("/read-all", h.Notification.MarkAllRead)
	notifications.DELETE("/:id", h.Notification.Delete)

	permissions := api.Group("/permissions", jwt)
	permissions.GET("", h.Permission.Get)
	permissions.PUT("/notifications", h.Permission.UpdateNotifications)
	permissions.PUT("/:category", h.Permission.UpdateCategory)

	location := api.Group("/location", jwt)
	location.GET("/current", h.Location.Current)
	location.PUT("/update", h.Location.Update)

	admin := api.Group("/admin", jwt, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/dashboard", h.Admin.Dashboard, middleware.NewRedisCache(cacheCfg, rdb))
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/users/:id", h.Admin.GetUser)
	admin.PUT("/users/:id/role", h.Admin.UpdateRole)
	admin.PUT("/users/:id/status", h.Admin.UpdateStatus)
	admin.DELETE("/users/:id", h.Admin.DeleteUser)
	admin.GET("/bookings", h.Admin.ListBookings)
	admin.PUT("/bookings/:id/status", h.Booking.UpdateStatus)
}
