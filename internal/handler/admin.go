package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking-api/internal/model"
	"github.com/voyago/travel-booking-api/internal/repository"
)

// AdminHandler serves the admin dashboard and user management.
type AdminHandler struct {
	Users       *repository.UserRepo
	Bookings    *repository.BookingRepo
	Permissions *repository.PermissionRepo
	Log         *zap.Logger
}

func NewAdminHandler(users *repository.UserRepo, bookings *repository.BookingRepo, permissions *repository.PermissionRepo, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Users: users, Bookings: bookings, Permissions: permissions, Log: log}
}

type updateRoleReq struct {
	Role string `json:"role"`
}

type updateUserStatusReq struct {
	IsActive *bool `json:"isActive"`
}

// Dashboard aggregates platform statistics.  The route sits behind the
// short-TTL response cache, so these queries run at most once per
// cache window.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	totalUsers, activeUsers, err := h.Users.CountAll(ctx)
	if err != nil {
		h.Log.Error("dashboard user counts failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load dashboard")
	}
	statusCounts, err := h.Bookings.StatusCounts(ctx)
	if err != nil {
		h.Log.Error("dashboard status counts failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load dashboard")
	}
	revenue, err := h.Bookings.RevenueTotal(ctx)
	if err != nil {
		h.Log.Error("dashboard revenue failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load dashboard")
	}
	recent, err := h.Bookings.Recent(ctx, 10)
	if err != nil {
		h.Log.Error("dashboard recent bookings failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load dashboard")
	}
	lastWeek, err := h.Bookings.CreatedSince(ctx, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		h.Log.Error("dashboard weekly count failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load dashboard")
	}

	totalBookings := 0
	for _, n := range statusCounts {
		totalBookings += n
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"stats": echo.Map{
			"users": echo.Map{
				"total":  totalUsers,
				"active": activeUsers,
			},
			"bookings": echo.Map{
				"total":    totalBookings,
				"byStatus": statusCounts,
				"lastWeek": lastWeek,
			},
			"revenue": echo.Map{
				"total": revenue,
			},
		},
		"recentBookings": viewBookings(recent),
	})
}

// ListUsers returns a filtered page of accounts.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	f := repository.UserFilter{
		Role:   c.QueryParam("role"),
		Search: c.QueryParam("search"),
	}
	if v := c.QueryParam("isActive"); v != "" {
		active := v == "true"
		f.IsActive = &active
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, total, err := h.Users.List(ctx, f)
	if err != nil {
		h.Log.Error("list users failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load users")
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewUser(u))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"users":      views,
		"pagination": paginate(f.Page, f.Limit, total),
	})
}

// GetUser returns one account with its bookings and permission ledger.
// A user who never touched permissions simply has none.
func (h *AdminHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid user id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		h.Log.Error("get user failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load user")
	}

	bookings, _, err := h.Bookings.List(ctx, repository.BookingFilter{UserID: id, Limit: 50})
	if err != nil {
		h.Log.Error("get user bookings failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load user")
	}

	resp := echo.Map{
		"success":  true,
		"user":     viewUser(u),
		"bookings": viewBookings(bookings),
	}
	if p, err := h.Permissions.GetByUser(ctx, id); err == nil {
		resp["permissions"] = viewPermission(p)
	} else if !errors.Is(err, repository.ErrNotFound) {
		h.Log.Error("get user permissions failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load user")
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateRole promotes or demotes an account.  Admins cannot change
// their own role, so the platform always keeps at least one admin.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	admin := currentUser(c)
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid user id")
	}
	if id == admin.ID {
		return fail(c, http.StatusBadRequest, "You cannot change your own role")
	}

	var req updateRoleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return fail(c, http.StatusBadRequest, "Role must be 'user' or 'admin'")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		h.Log.Error("get user failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update role")
	}
	if err := h.Users.UpdateRole(ctx, id, req.Role); err != nil {
		h.Log.Error("update role failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update role")
	}
	u.Role = req.Role
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewUser(u)})
}

// UpdateStatus activates or deactivates an account.  Deactivation cuts
// off the user on their next request; admins cannot deactivate
// themselves.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	admin := currentUser(c)
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid user id")
	}
	if id == admin.ID {
		return fail(c, http.StatusBadRequest, "You cannot deactivate your own account")
	}

	var req updateUserStatusReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return fail(c, http.StatusBadRequest, "isActive is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		h.Log.Error("get user failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update status")
	}
	if err := h.Users.UpdateStatus(ctx, id, *req.IsActive); err != nil {
		h.Log.Error("update status failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update status")
	}
	u.IsActive = *req.IsActive
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewUser(u)})
}

// DeleteUser removes the account and its permission ledger.  Bookings
// and notifications are kept for audit.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	admin := currentUser(c)
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid user id")
	}
	if id == admin.ID {
		return fail(c, http.StatusBadRequest, "You cannot delete your own account")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		h.Log.Error("delete user failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not delete user")
	}
	if err := h.Permissions.DeleteByUser(ctx, id); err != nil {
		h.Log.Error("delete user permissions failed", zap.Error(err), zap.Uint64("user_id", id))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User deleted successfully"})
}

// ListBookings returns bookings across all users.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	f := repository.BookingFilter{
		Type:   model.BookingType(c.QueryParam("type")),
		Status: model.BookingStatus(c.QueryParam("status")),
	}
	if v := c.QueryParam("userId"); v != "" {
		f.UserID, _ = strconv.ParseUint(v, 10, 64)
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	bookings, total, err := h.Bookings.List(ctx, f)
	if err != nil {
		h.Log.Error("admin list bookings failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load bookings")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"bookings":   viewBookings(bookings),
		"pagination": paginate(f.Page, f.Limit, total),
	})
}
