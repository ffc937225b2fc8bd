package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness plus database reachability.
type HealthHandler struct{ DB *sql.DB }

func NewHealthHandler(db *sql.DB) *HealthHandler { return &HealthHandler{DB: db} }

// Check answers 200 when the database responds and 503 otherwise.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"success": false,
			"status":  "degraded",
			"db":      "down",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"status":  "ok",
		"db":      "up",
	})
}
