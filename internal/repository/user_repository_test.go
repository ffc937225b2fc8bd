package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/voyago/travel-booking-api/internal/model"
)

func setupUserMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewUserRepo(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func dupKeyErr(key string) error {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key '" + key + "'"}
}

func userRow(id uint64, email string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "mobile", "password_hash", "profile_picture", "date_of_birth", "gender",
		"address", "preferences", "travel_preferences",
		"otp_code", "otp_expires_at", "otp_verified_at",
		"is_email_verified", "is_mobile_verified", "role", "is_active",
		"login_attempts", "lock_until", "last_login", "created_at", "updated_at",
	}).AddRow(
		id, "Asha Verma", email, "9876543210", "$2a$10$hash", "", nil, "female",
		[]byte(`{"street":"12 MG Road","city":"Bengaluru","state":"Karnataka","country":"India","zipCode":"560001"}`),
		[]byte(`{"language":"en","currency":"INR","theme":"dark","notifications":{"email":true,"sms":false,"push":true}}`),
		[]byte(`{"seatPreference":"window","mealPreference":"vegetarian","baggagePreference":"standard","classPreference":"economy"}`),
		nil, nil, nil,
		false, false, "user", true,
		0, nil, nil, now, now,
	)
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO users").WillReturnError(dupKeyErr("uq_users_email"))

	_, err := repo.Create(context.Background(), &model.User{Email: "asha@example.com"})
	if err != ErrEmailExists {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserCreate_DuplicateMobile(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO users").WillReturnError(dupKeyErr("uq_users_mobile"))

	_, err := repo.Create(context.Background(), &model.User{Email: "asha@example.com"})
	if err != ErrMobileExists {
		t.Fatalf("expected ErrMobileExists, got %v", err)
	}
}

func TestUserCreate_Success(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), &model.User{Email: "ASHA@Example.com "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Errorf("expected id 7, got %d", id)
	}
}

func TestGetByEmail_NormalizesAndScans(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WithArgs("asha@example.com").
		WillReturnRows(userRow(3, "asha@example.com"))

	u, err := repo.GetByEmail(context.Background(), "  ASHA@Example.com ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 3 || u.Email != "asha@example.com" {
		t.Errorf("unexpected user: %+v", u)
	}
	if u.Address.City != "Bengaluru" {
		t.Errorf("address JSON not decoded: %+v", u.Address)
	}
	if u.Preferences.Currency != "INR" || !u.Preferences.Notifications.Push {
		t.Errorf("preferences JSON not decoded: %+v", u.Preferences)
	}
	if u.TravelPrefs.SeatPreference != "window" {
		t.Errorf("travel preferences JSON not decoded: %+v", u.TravelPrefs)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetLockState(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	until := time.Now().UTC().Add(2 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET login_attempts=?, lock_until=? WHERE id=?")).
		WithArgs(5, until, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetLockState(context.Background(), 3, 5, &until); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecordLogin_ClearsCounters(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET login_attempts=0, lock_until=NULL, last_login=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordLogin(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConsumeOTP_ClearsCodeAndStampsVerification(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET otp_code=NULL, otp_expires_at=NULL, otp_verified_at=? WHERE id=?")).
		WithArgs(now, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ConsumeOTP(context.Background(), 3, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserDelete_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 99); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
