package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupPermissionMock(t *testing.T) (*PermissionRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPermissionRepo(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func permissionRow(id, userID uint64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "user_id", "location", "contact", "camera", "notifications", "storage", "analytics",
		"created_at", "updated_at",
	}).AddRow(
		id, userID,
		[]byte(`{"enabled":false,"lastKnownLocation":{"latitude":null,"longitude":null},"grantedAt":null}`),
		[]byte(`{"enabled":false,"shareWithPartners":false,"grantedAt":null}`),
		[]byte(`{"enabled":false,"grantedAt":null}`),
		[]byte(`{"push":{"enabled":true,"grantedAt":"2026-01-01T00:00:00Z"},"email":{"enabled":true,"grantedAt":"2026-01-01T00:00:00Z"},"sms":{"enabled":false,"grantedAt":null}}`),
		[]byte(`{"enabled":true,"grantedAt":"2026-01-01T00:00:00Z"}`),
		[]byte(`{"enabled":false,"grantedAt":null}`),
		now, now,
	)
}

func TestEnsure_ReturnsExistingRecord(t *testing.T) {
	repo, mock, cleanup := setupPermissionMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM permissions WHERE user_id=\\?").
		WithArgs(uint64(42)).
		WillReturnRows(permissionRow(9, 42))

	p, err := repo.Ensure(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 9 || p.UserID != 42 {
		t.Errorf("unexpected record: %+v", p)
	}
	if !p.Notifications.Push.Enabled || p.Location.Enabled {
		t.Errorf("JSON categories not decoded: %+v", p)
	}
}

func TestEnsure_CreatesDefaultsOnFirstAccess(t *testing.T) {
	repo, mock, cleanup := setupPermissionMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM permissions WHERE user_id=\\?").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO permissions").
		WillReturnResult(sqlmock.NewResult(13, 1))

	p, err := repo.Ensure(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 13 {
		t.Errorf("expected id 13, got %d", p.ID)
	}
	if !p.Notifications.Push.Enabled || !p.Notifications.Email.Enabled || !p.Storage.Enabled {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.Location.Enabled || p.Contact.Enabled || p.Camera.Enabled || p.Analytics.Enabled || p.Notifications.SMS.Enabled {
		t.Errorf("defaults not applied: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEnsure_LosingRaceRereadsWinner(t *testing.T) {
	repo, mock, cleanup := setupPermissionMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM permissions WHERE user_id=\\?").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO permissions").
		WillReturnError(dupKeyErr("uq_permissions_user"))
	mock.ExpectQuery("SELECT .+ FROM permissions WHERE user_id=\\?").
		WithArgs(uint64(42)).
		WillReturnRows(permissionRow(9, 42))

	p, err := repo.Ensure(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 9 {
		t.Errorf("expected winner's row, got %+v", p)
	}
}
