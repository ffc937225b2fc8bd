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

// PermissionHandler serves the per-user permission ledger.  The record
// is created lazily: the first read or write materializes defaults.
type PermissionHandler struct {
	Permissions *repository.PermissionRepo
	Log         *zap.Logger
}

func NewPermissionHandler(permissions *repository.PermissionRepo, log *zap.Logger) *PermissionHandler {
	return &PermissionHandler{Permissions: permissions, Log: log}
}

type updatePermissionReq struct {
	Enabled bool `json:"enabled"`
	// Contact only: wiped automatically when the category is disabled.
	ShareWithPartners *bool `json:"shareWithPartners"`
}

type updateNotificationPermsReq struct {
	Push  *bool `json:"push"`
	Email *bool `json:"email"`
	SMS   *bool `json:"sms"`
}

// permissionView is the wire shape of the ledger.
type permissionView struct {
	Location      model.LocationPermission      `json:"location"`
	Contact       model.ContactPermission       `json:"contact"`
	Camera        model.Toggle                  `json:"camera"`
	Notifications model.NotificationPermissions `json:"notifications"`
	Storage       model.Toggle                  `json:"storage"`
	Analytics     model.Toggle                  `json:"analytics"`
	UpdatedAt     time.Time                     `json:"updatedAt"`
}

func viewPermission(p *model.Permission) permissionView {
	return permissionView{
		Location:      p.Location,
		Contact:       p.Contact,
		Camera:        p.Camera,
		Notifications: p.Notifications,
		Storage:       p.Storage,
		Analytics:     p.Analytics,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Get returns the ledger, creating it with defaults on first access.
func (h *PermissionHandler) Get(c echo.Context) error {
	u := currentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Permissions.Ensure(ctx, u.ID)
	if err != nil {
		h.Log.Error("ensure permissions failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load permissions")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "permissions": viewPermission(p)})
}

// UpdateCategory flips one permission category.  Disabling location or
// contact destroys their dependent data; that is deliberate and not
// reversible by re-enabling.
func (h *PermissionHandler) UpdateCategory(c echo.Context) error {
	u := currentUser(c)
	category := c.Param("category")

	var req updatePermissionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Permissions.Ensure(ctx, u.ID)
	if err != nil {
		h.Log.Error("ensure permissions failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load permissions")
	}

	now := time.Now().UTC()
	switch category {
	case "location":
		p.SetLocationEnabled(req.Enabled, now)
	case "contact":
		p.SetContactEnabled(req.Enabled, now)
		if req.Enabled && req.ShareWithPartners != nil {
			p.Contact.ShareWithPartners = *req.ShareWithPartners
		}
	case "camera":
		p.Camera.Set(req.Enabled, now)
	case "storage":
		p.Storage.Set(req.Enabled, now)
	case "analytics":
		p.Analytics.Set(req.Enabled, now)
	default:
		return fail(c, http.StatusBadRequest, "Unknown permission category: "+category)
	}

	if err := h.Permissions.Update(ctx, p); err != nil {
		h.Log.Error("update permissions failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update permissions")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "permissions": viewPermission(p)})
}

// UpdateNotifications sets the three notification channels in one
// call.  Omitted channels keep their state.
func (h *PermissionHandler) UpdateNotifications(c echo.Context) error {
	u := currentUser(c)

	var req updateNotificationPermsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Permissions.Ensure(ctx, u.ID)
	if err != nil {
		h.Log.Error("ensure permissions failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load permissions")
	}

	now := time.Now().UTC()
	if req.Push != nil {
		p.Notifications.Push.Set(*req.Push, now)
	}
	if req.Email != nil {
		p.Notifications.Email.Set(*req.Email, now)
	}
	if req.SMS != nil {
		p.Notifications.SMS.Set(*req.SMS, now)
	}

	if err := h.Permissions.Update(ctx, p); err != nil {
		h.Log.Error("update permissions failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update permissions")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "permissions": viewPermission(p)})
}
