package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking-api/internal/config"
	"github.com/voyago/travel-booking-api/internal/model"
	"github.com/voyago/travel-booking-api/internal/otp"
	"github.com/voyago/travel-booking-api/internal/repository"
	"github.com/voyago/travel-booking-api/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg           config.Config
	Users         *repository.UserRepo
	Notifications *repository.NotificationRepo
	OTP           otp.Sender
	Log           *zap.Logger
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, notifications *repository.NotificationRepo, sender otp.Sender, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Notifications: notifications, OTP: sender, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Mobile   string        `json:"mobile"`
	Password string        `json:"password"`
	Gender   string        `json:"gender"`
	Address  model.Address `json:"address"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type contactReq struct {
	Contact     string `json:"contact"`
	ContactType string `json:"contactType"` // "email" or "mobile"
}

type verifyOTPReq struct {
	Contact     string `json:"contact"`
	ContactType string `json:"contactType"`
	OTP         string `json:"otp"`
}

type resetPasswordReq struct {
	Contact     string `json:"contact"`
	ContactType string `json:"contactType"`
	NewPassword string `json:"newPassword"`
}

type authResp struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    userView `json:"user"`
}

// Register creates an account and signs the user in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	errs := utils.ValidateRegistration(utils.RegistrationInput{
		Name:     req.Name,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
		Gender:   req.Gender,
		Street:   req.Address.Street,
		City:     req.Address.City,
		State:    req.Address.State,
		Country:  req.Address.Country,
	})
	if len(errs) > 0 {
		return failFields(c, http.StatusBadRequest, "Validation failed", fieldErrors(errs))
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Registration failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Mobile:       strings.TrimSpace(req.Mobile),
		PasswordHash: hash,
		Gender:       req.Gender,
		Address:      req.Address,
		Preferences:  model.DefaultPreferences(),
		TravelPrefs:  model.DefaultTravelPreferences(),
		Role:         model.RoleUser,
		IsActive:     true,
	}
	uid, err := h.Users.Create(ctx, u)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return fail(c, http.StatusConflict, "An account with this email already exists")
		case errors.Is(err, repository.ErrMobileExists):
			return fail(c, http.StatusConflict, "An account with this mobile number already exists")
		}
		h.Log.Error("register failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Registration failed")
	}

	created, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.Log.Error("load created user failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Registration failed")
	}

	tok, err := utils.NewAuthToken(h.Cfg.JWTSecret, uid, created.Role, h.Cfg.TokenTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Token generation failed")
	}
	return c.JSON(http.StatusCreated, authResp{Success: true, Token: tok.Token, User: viewUser(created)})
}

// Login verifies credentials and enforces the lockout policy: five
// consecutive failures lock the account for two hours.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Please provide email and password")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "Invalid credentials")
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Login failed")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "Account has been deactivated. Please contact support.")
	}

	now := time.Now().UTC()
	if u.IsLocked(now) {
		return fail(c, http.StatusLocked,
			fmt.Sprintf("Account locked due to too many failed login attempts. Try again in %d minutes.", u.LockRemainingMinutes(now)))
	}

	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		attempts, lockUntil := u.NextLockState(now)
		if err := h.Users.SetLockState(ctx, u.ID, attempts, lockUntil); err != nil {
			h.Log.Error("persist lock state failed", zap.Error(err))
		}
		if lockUntil != nil && lockUntil.After(now) {
			locked := *u
			locked.LockUntil = lockUntil
			return fail(c, http.StatusLocked,
				fmt.Sprintf("Account locked due to too many failed login attempts. Try again in %d minutes.", locked.LockRemainingMinutes(now)))
		}
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	if err := h.Users.RecordLogin(ctx, u.ID); err != nil {
		h.Log.Error("record login failed", zap.Error(err))
	}

	tok, err := utils.NewAuthToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.TokenTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Token generation failed")
	}
	return c.JSON(http.StatusOK, authResp{Success: true, Token: tok.Token, User: viewUser(u)})
}

// ForgotPassword issues a reset code to the account's email or mobile.
// Delivery problems are logged but not surfaced: once the code is
// stored the client gets a success either way.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validateContact(req.Contact, req.ContactType); err != "" {
		return fail(c, http.StatusBadRequest, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByContact(ctx, req.Contact, req.ContactType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "No account found with this "+req.ContactType)
		}
		h.Log.Error("forgot-password lookup failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Request failed")
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		h.Log.Error("generate OTP failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Request failed")
	}
	if err := h.Users.SetOTP(ctx, u.ID, code, time.Now().UTC().Add(utils.OTPTTL)); err != nil {
		h.Log.Error("store OTP failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Request failed")
	}
	if err := h.OTP.Send(ctx, req.Contact, req.ContactType, code, "password reset"); err != nil {
		h.Log.Warn("OTP delivery failed", zap.Error(err), zap.Uint64("user_id", u.ID))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "OTP sent to your " + req.ContactType,
	})
}

// VerifyOTP checks the reset code.  A valid code is consumed and a
// verification stamp is stored; reset-password must follow within ten
// minutes.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.OTP == "" {
		return fail(c, http.StatusBadRequest, "OTP is required")
	}
	if err := validateContact(req.Contact, req.ContactType); err != "" {
		return fail(c, http.StatusBadRequest, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByContact(ctx, req.Contact, req.ContactType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "No account found with this "+req.ContactType)
		}
		h.Log.Error("verify-otp lookup failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Verification failed")
	}

	now := time.Now().UTC()
	if err := u.VerifyOTP(req.OTP, now); err != nil {
		switch {
		case errors.Is(err, model.ErrOTPExpired):
			return fail(c, http.StatusGone, "OTP has expired. Please request a new one.")
		case errors.Is(err, model.ErrOTPMissing):
			return fail(c, http.StatusBadRequest, "No OTP was requested for this account")
		default:
			return fail(c, http.StatusBadRequest, "Invalid OTP")
		}
	}
	if err := h.Users.ConsumeOTP(ctx, u.ID, now); err != nil {
		h.Log.Error("consume OTP failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Verification failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "OTP verified successfully"})
}

// ResetPassword sets a new password and signs the user in with a fresh
// token.  It requires a successful OTP verification within the reset
// window; the stamp is cleared on use so one verification allows
// exactly one reset.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validateContact(req.Contact, req.ContactType); err != "" {
		return fail(c, http.StatusBadRequest, err)
	}
	if msg := utils.ValidatePassword(req.NewPassword); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByContact(ctx, req.Contact, req.ContactType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "No account found with this "+req.ContactType)
		}
		h.Log.Error("reset-password lookup failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Reset failed")
	}

	if !u.CanResetPassword(time.Now().UTC(), utils.ResetWindow) {
		return fail(c, http.StatusBadRequest, "OTP verification required before resetting password")
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Reset failed")
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		h.Log.Error("update password failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Reset failed")
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

	tok, err := utils.NewAuthToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.TokenTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Token generation failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Password reset successfully",
		"token":   tok.Token,
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return fail(c, http.StatusUnauthorized, "Not authorized to access this route")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewUser(u)})
}

func validateContact(contact, contactType string) string {
	switch contactType {
	case "email":
		if !utils.ValidEmail(contact) {
			return "Please provide a valid email"
		}
	case "mobile":
		if !utils.ValidMobile(contact) {
			return "Please provide a valid mobile number"
		}
	default:
		return "contactType must be 'email' or 'mobile'"
	}
	return ""
}

func fieldErrors(errs []utils.FieldError) []FieldErrorView {
	out := make([]FieldErrorView, 0, len(errs))
	for _, e := range errs {
		out = append(out, FieldErrorView{Field: e.Field, Message: e.Message})
	}
	return out
}
