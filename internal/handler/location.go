package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking-api/internal/model"
	"github.com/voyago/travel-booking-api/internal/repository"
)

// LocationHandler serves the user's last known location.  The data
// lives inside the location permission category, so every operation
// goes through the permission ledger.
type LocationHandler struct {
	Permissions *repository.PermissionRepo
	Log         *zap.Logger
}

func NewLocationHandler(permissions *repository.PermissionRepo, log *zap.Logger) *LocationHandler {
	return &LocationHandler{Permissions: permissions, Log: log}
}

type updateLocationReq struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Country   string   `json:"country"`
	ZipCode   string   `json:"zipCode"`
}

// Current returns the stored location.  403 when the category is
// disabled, 404 when it is enabled but nothing has been stored yet.
func (h *LocationHandler) Current(c echo.Context) error {
	u := currentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Permissions.Ensure(ctx, u.ID)
	if err != nil {
		h.Log.Error("ensure permissions failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load location")
	}
	if !p.Location.Enabled {
		return fail(c, http.StatusForbidden, "Location permission is disabled")
	}
	loc := p.Location.LastKnownLocation
	if loc.Latitude == nil || loc.Longitude == nil {
		return fail(c, http.StatusNotFound, "No location data available")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "location": loc})
}

// Update stores a new location fix.  Writing a location implicitly
// enables the category, mirroring the mobile flow where granting the
// OS permission and reporting the first fix arrive together.
func (h *LocationHandler) Update(c echo.Context) error {
	u := currentUser(c)

	var req updateLocationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return fail(c, http.StatusBadRequest, "Latitude and longitude are required")
	}
	if *req.Latitude < -90 || *req.Latitude > 90 {
		return fail(c, http.StatusBadRequest, "Latitude must be between -90 and 90")
	}
	if *req.Longitude < -180 || *req.Longitude > 180 {
		return fail(c, http.StatusBadRequest, "Longitude must be between -180 and 180")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Permissions.Ensure(ctx, u.ID)
	if err != nil {
		h.Log.Error("ensure permissions failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update location")
	}

	now := time.Now().UTC()
	if !p.Location.Enabled {
		p.SetLocationEnabled(true, now)
	}
	p.Location.LastKnownLocation = model.LocationData{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Country:   req.Country,
		ZipCode:   req.ZipCode,
		UpdatedAt: &now,
	}
	if err := h.Permissions.Update(ctx, p); err != nil {
		h.Log.Error("update location failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update location")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "location": p.Location.LastKnownLocation})
}
