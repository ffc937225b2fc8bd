package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/voyago/travel-booking-api/internal/model"
)

func setupNotificationMock(t *testing.T) (*NotificationRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewNotificationRepo(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestNotificationCreate_DefaultsPriority(t *testing.T) {
	repo, mock, cleanup := setupNotificationMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(uint64(1), "alert", "Heads up", "Something happened", nil, model.PriorityMedium, nil, "", nil).
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := repo.Create(context.Background(), &model.Notification{
		UserID:  1,
		Type:    "alert",
		Title:   "Heads up",
		Message: "Something happened",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 11 {
		t.Errorf("expected id 11, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUnreadCount_ExcludesExpired(t *testing.T) {
	repo, mock, cleanup := setupNotificationMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=0 AND (expires_at IS NULL OR expires_at > ?)")).
		WithArgs(uint64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.UnreadCount(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}

func TestMarkAllRead_SecondCallIsZero(t *testing.T) {
	repo, mock, cleanup := setupNotificationMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE notifications SET is_read=1, read_at=? WHERE user_id=? AND is_read=0")).
		WithArgs(sqlmock.AnyArg(), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE notifications SET is_read=1, read_at=? WHERE user_id=? AND is_read=0")).
		WithArgs(sqlmock.AnyArg(), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.MarkAllRead(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 updated, got %d", n)
	}

	n, err = repo.MarkAllRead(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 updated on second call, got %d", n)
	}
}

func TestMarkRead_ExpiredNotificationIsNotFound(t *testing.T) {
	repo, mock, cleanup := setupNotificationMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE notifications SET is_read=1, read_at=? WHERE id=? AND user_id=? AND is_read=0 AND (expires_at IS NULL OR expires_at > ?)")).
		WithArgs(sqlmock.AnyArg(), uint64(5), uint64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM notifications WHERE id=\\? AND user_id=\\?").
		WithArgs(uint64(5), uint64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.MarkRead(context.Background(), 5, 1)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for an expired notification, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNotificationDelete_EnforcesOwnership(t *testing.T) {
	repo, mock, cleanup := setupNotificationMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE id=? AND user_id=?")).
		WithArgs(uint64(5), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 5, 2); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for someone else's notification, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	repo, mock, cleanup := setupNotificationMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM notifications WHERE expires_at IS NOT NULL AND expires_at <= ?")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7 purged, got %d", n)
	}
}
