package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking-api/internal/config"
	"github.com/voyago/travel-booking-api/internal/model"
	"github.com/voyago/travel-booking-api/internal/repository"
	"github.com/voyago/travel-booking-api/internal/utils"
)

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	Cfg           config.Config
	Users         *repository.UserRepo
	Notifications *repository.NotificationRepo
	Log           *zap.Logger
}

func NewProfileHandler(cfg config.Config, users *repository.UserRepo, notifications *repository.NotificationRepo, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{Cfg: cfg, Users: users, Notifications: notifications, Log: log}
}

type updateProfileReq struct {
	Name           *string                  `json:"name"`
	Email          *string                  `json:"email"`
	Mobile         *string                  `json:"mobile"`
	ProfilePicture *string                  `json:"profilePicture"`
	DateOfBirth    *time.Time               `json:"dateOfBirth"`
	Gender         *string                  `json:"gender"`
	Address        *model.Address           `json:"address"`
	Preferences    *model.Preferences       `json:"preferences"`
	TravelPrefs    *model.TravelPreferences `json:"travelPreferences"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Get returns the profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	u := currentUser(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewUser(u)})
}

// Update applies a partial profile update.  Omitted fields keep their
// current values; changing email or mobile resets the matching
// verified flag.
func (h *ProfileHandler) Update(c echo.Context) error {
	u := currentUser(c)

	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return fail(c, http.StatusBadRequest, "Name cannot be empty")
		}
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !utils.ValidEmail(email) {
			return fail(c, http.StatusBadRequest, "Please provide a valid email")
		}
		if email != u.Email {
			u.Email = email
			u.IsEmailVerified = false
		}
	}
	if req.Mobile != nil {
		mobile := strings.TrimSpace(*req.Mobile)
		if !utils.ValidMobile(mobile) {
			return fail(c, http.StatusBadRequest, "Mobile number must be 10-15 digits")
		}
		if mobile != u.Mobile {
			u.Mobile = mobile
			u.IsMobileVerified = false
		}
	}
	if req.Gender != nil {
		if !utils.ValidGender(*req.Gender) {
			return fail(c, http.StatusBadRequest, "Please select a valid gender")
		}
		u.Gender = *req.Gender
	}
	if req.ProfilePicture != nil {
		u.ProfilePicture = *req.ProfilePicture
	}
	if req.DateOfBirth != nil {
		u.DateOfBirth = req.DateOfBirth
	}
	if req.Address != nil {
		u.Address = *req.Address
	}
	if req.Preferences != nil {
		u.Preferences = *req.Preferences
	}
	if req.TravelPrefs != nil {
		u.TravelPrefs = *req.TravelPrefs
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return fail(c, http.StatusConflict, "An account with this email already exists")
		case errors.Is(err, repository.ErrMobileExists):
			return fail(c, http.StatusConflict, "An account with this mobile number already exists")
		}
		h.Log.Error("update profile failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Profile update failed")
	}

	if _, err := h.Notifications.Create(ctx, &model.Notification{
		UserID:   u.ID,
		Type:     model.NotifProfileUpdated,
		Title:    "Profile Updated",
		Message:  "Your profile details were updated successfully.",
		Priority: model.PriorityLow,
	}); err != nil {
		h.Log.Warn("profile-updated notification failed", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewUser(u)})
}

// ChangePassword verifies the current password before setting the new
// one.  Unlike the reset flow it requires an authenticated session.
func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	u := currentUser(c)

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return fail(c, http.StatusUnauthorized, "Current password is incorrect")
	}
	if msg := utils.ValidatePassword(req.NewPassword); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Password change failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		h.Log.Error("change password failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Password change failed")
	}

	if _, err := h.Notifications.Create(ctx, &model.Notification{
		UserID:   u.ID,
		Type:     model.NotifPasswordChanged,
		Title:    "Password Changed",
		Message:  "Your password was changed. If this wasn't you, contact support immediately.",
		Priority: model.PriorityHigh,
	}); err != nil {
		h.Log.Warn("password-changed notification failed", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password changed successfully"})
}
