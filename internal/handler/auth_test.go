package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking-api/internal/config"
	"github.com/voyago/travel-booking-api/internal/otp"
	"github.com/voyago/travel-booking-api/internal/repository"
	"github.com/voyago/travel-booking-api/internal/utils"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	cfg := config.Config{JWTSecret: "test-secret", TokenTTLDays: 7, BcryptCost: 4}
	log := zap.NewNop()
	h := NewAuthHandler(cfg,
		repository.NewUserRepo(db),
		repository.NewNotificationRepo(db),
		&otp.ConsoleSender{Log: log},
		log)
	cleanup := func() { db.Close() }
	return h, mock, cleanup
}

type userRowOpts struct {
	passwordHash  string
	loginAttempts int
	lockUntil     *time.Time
	otpCode       *string
	otpExpiresAt  *time.Time
	otpVerifiedAt *time.Time
	isActive      bool
}

func userRow(opts userRowOpts) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "mobile", "password_hash", "profile_picture", "date_of_birth", "gender",
		"address", "preferences", "travel_preferences",
		"otp_code", "otp_expires_at", "otp_verified_at",
		"is_email_verified", "is_mobile_verified", "role", "is_active",
		"login_attempts", "lock_until", "last_login", "created_at", "updated_at",
	}).AddRow(
		uint64(3), "Asha Verma", "asha@example.com", "9876543210", opts.passwordHash, "", nil, "female",
		[]byte(`{"street":"12 MG Road","city":"Bengaluru","state":"Karnataka","country":"India"}`),
		[]byte(`{"language":"en","currency":"INR","theme":"dark","notifications":{"email":true,"sms":false,"push":true}}`),
		[]byte(`{"seatPreference":"window"}`),
		opts.otpCode, opts.otpExpiresAt, opts.otpVerifiedAt,
		false, false, "user", opts.isActive,
		opts.loginAttempts, opts.lockUntil, nil, now, now,
	)
}

func postJSON(t *testing.T, h echo.HandlerFunc, body string) (*httptest.ResponseRecorder, map[string]any) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return rec, resp
}

func TestLogin_MissingCredentials(t *testing.T) {
	h, _, cleanup := setupAuthHandler(t)
	defer cleanup()

	rec, resp := postJSON(t, h.Login, `{"email":"asha@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp["success"] != false {
		t.Errorf("expected success=false, got %v", resp["success"])
	}
}

func TestLogin_LockedAccount(t *testing.T) {
	h, mock, cleanup := setupAuthHandler(t)
	defer cleanup()

	hash, _ := utils.HashPassword("Secure@Pass1", 4)
	until := time.Now().UTC().Add(90 * time.Minute)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WillReturnRows(userRow(userRowOpts{passwordHash: hash, loginAttempts: 5, lockUntil: &until, isActive: true}))

	rec, resp := postJSON(t, h.Login, `{"email":"asha@example.com","password":"Secure@Pass1"}`)
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", rec.Code)
	}
	msg, _ := resp["message"].(string)
	if !strings.Contains(msg, "locked") {
		t.Errorf("expected lockout message, got %q", msg)
	}
}

func TestLogin_WrongPasswordCountsAttempt(t *testing.T) {
	h, mock, cleanup := setupAuthHandler(t)
	defer cleanup()

	hash, _ := utils.HashPassword("Secure@Pass1", 4)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WillReturnRows(userRow(userRowOpts{passwordHash: hash, loginAttempts: 2, isActive: true}))
	mock.ExpectExec("UPDATE users SET login_attempts=").
		WithArgs(3, nil, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec, _ := postJSON(t, h.Login, `{"email":"asha@example.com","password":"Wrong@Pass1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	h, mock, cleanup := setupAuthHandler(t)
	defer cleanup()

	hash, _ := utils.HashPassword("Secure@Pass1", 4)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WillReturnRows(userRow(userRowOpts{passwordHash: hash, isActive: false}))

	rec, _ := postJSON(t, h.Login, `{"email":"asha@example.com","password":"Secure@Pass1"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestLogin_Success(t *testing.T) {
	h, mock, cleanup := setupAuthHandler(t)
	defer cleanup()

	hash, _ := utils.HashPassword("Secure@Pass1", 4)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WillReturnRows(userRow(userRowOpts{passwordHash: hash, isActive: true}))
	mock.ExpectExec("UPDATE users SET login_attempts=0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec, resp := postJSON(t, h.Login, `{"email":"asha@example.com","password":"Secure@Pass1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatal("expected a token in the response")
	}
	userID, err := utils.ParseAuthToken("test-secret", token)
	if err != nil || userID != 3 {
		t.Errorf("token does not verify: id=%d err=%v", userID, err)
	}
}

func TestRegister_ReportsEveryViolation(t *testing.T) {
	h, _, cleanup := setupAuthHandler(t)
	defer cleanup()

	rec, resp := postJSON(t, h.Register, `{"email":"bad","password":"weak"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	errs, _ := resp["errors"].([]any)
	if len(errs) < 5 {
		t.Errorf("expected all violations reported, got %d: %v", len(errs), errs)
	}
}

func TestResetPassword_IssuesToken(t *testing.T) {
	h, mock, cleanup := setupAuthHandler(t)
	defer cleanup()

	verified := time.Now().UTC().Add(-2 * time.Minute)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WillReturnRows(userRow(userRowOpts{passwordHash: "old", otpVerifiedAt: &verified, isActive: true}))
	mock.ExpectExec("UPDATE users SET password_hash=").
		WithArgs(sqlmock.AnyArg(), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, resp := postJSON(t, h.ResetPassword,
		`{"contact":"asha@example.com","contactType":"email","newPassword":"Fresh@Pass1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatal("expected a session token after reset")
	}
	userID, err := utils.ParseAuthToken("test-secret", token)
	if err != nil || userID != 3 {
		t.Errorf("token does not verify: id=%d err=%v", userID, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestResetPassword_RequiresRecentVerification(t *testing.T) {
	h, mock, cleanup := setupAuthHandler(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WillReturnRows(userRow(userRowOpts{passwordHash: "old", isActive: true}))

	rec, _ := postJSON(t, h.ResetPassword,
		`{"contact":"asha@example.com","contactType":"email","newPassword":"Fresh@Pass1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a verified OTP, got %d", rec.Code)
	}
}

func TestVerifyOTP_Expired(t *testing.T) {
	h, mock, cleanup := setupAuthHandler(t)
	defer cleanup()

	code := "123456"
	expired := time.Now().UTC().Add(-time.Minute)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WillReturnRows(userRow(userRowOpts{passwordHash: "x", otpCode: &code, otpExpiresAt: &expired, isActive: true}))

	rec, _ := postJSON(t, h.VerifyOTP,
		`{"contact":"asha@example.com","contactType":"email","otp":"123456"}`)
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410 for an expired code, got %d", rec.Code)
	}
}
