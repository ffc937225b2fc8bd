package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voyago/travel-booking-api/internal/repository"
	"github.com/voyago/travel-booking-api/internal/utils"
)

// JWTAuth validates a Bearer token and loads the live user behind it.
// The lookup means a deactivated or deleted account is rejected even
// while its token is still within the 7-day window.  On success the
// context carries "user" (*model.User), "user_id" (uint64) and "role"
// (string).
//
// Every failure mode returns the same 401 body so callers cannot
// distinguish a bad token from a vanished account.
func JWTAuth(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, err := utils.ParseAuthToken(secret, raw)
			if err != nil {
				return unauthorized(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			user, err := users.GetByID(ctx, userID)
			if err != nil {
				return unauthorized(c)
			}
			if !user.IsActive {
				return unauthorized(c)
			}

			c.Set("user", user)
			c.Set("user_id", user.ID)
			c.Set("role", user.Role)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"message": "Not authorized to access this route",
	})
}
