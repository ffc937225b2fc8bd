package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking-api/internal/repository"
)

// NotificationHandler serves the user's notification feed.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
	Log           *zap.Logger
}

func NewNotificationHandler(notifications *repository.NotificationRepo, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications, Log: log}
}

// List returns a page of live notifications plus the unread count.
// Expired notifications never appear even if the background sweep has
// not deleted them yet.
func (h *NotificationHandler) List(c echo.Context) error {
	u := currentUser(c)

	f := repository.NotificationFilter{Type: c.QueryParam("type")}
	if v := c.QueryParam("read"); v != "" {
		read := v == "true"
		f.Read = &read
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	notifs, total, err := h.Notifications.List(ctx, u.ID, f)
	if err != nil {
		h.Log.Error("list notifications failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load notifications")
	}
	unread, err := h.Notifications.UnreadCount(ctx, u.ID)
	if err != nil {
		h.Log.Error("unread count failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load notifications")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"notifications": viewNotifications(notifs),
		"unreadCount":   unread,
		"pagination":    paginate(f.Page, f.Limit, total),
	})
}

// UnreadCount returns just the badge number.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	u := currentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	unread, err := h.Notifications.UnreadCount(ctx, u.ID)
	if err != nil {
		h.Log.Error("unread count failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load unread count")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "unreadCount": unread})
}

// MarkRead marks one notification as read.  Calling it twice is safe;
// the original read timestamp is kept.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	u := currentUser(c)
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid notification id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	n, err := h.Notifications.MarkRead(ctx, id, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Notification not found")
		}
		h.Log.Error("mark read failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update notification")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "notification": viewNotification(n)})
}

// MarkAllRead marks every unread notification as read and reports how
// many changed.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	u := currentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	updated, err := h.Notifications.MarkAllRead(ctx, u.ID)
	if err != nil {
		h.Log.Error("mark all read failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not update notifications")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      "All notifications marked as read",
		"updatedCount": updated,
	})
}

// Delete removes one of the caller's notifications.
func (h *NotificationHandler) Delete(c echo.Context) error {
	u := currentUser(c)
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid notification id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Notifications.Delete(ctx, id, u.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Notification not found")
		}
		h.Log.Error("delete notification failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not delete notification")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Notification deleted"})
}
