package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/voyago/travel-booking-api/internal/model"
)

// NotificationRepo owns all SQL against the notifications table.
// Expiry is enforced at read time: expired rows never appear in lists
// or unread counts even before the background sweep deletes them.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

const notificationColumns = `id, user_id, type, title, message, data, is_read, read_at,
 priority, booking_id, action_url, expires_at, created_at`

const notExpired = "(expires_at IS NULL OR expires_at > ?)"

// Create inserts a notification and returns its ID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) (uint64, error) {
	var data any
	if n.Data != nil {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return 0, err
		}
		data = raw
	}
	if n.Priority == "" {
		n.Priority = model.PriorityMedium
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, data, priority, booking_id, action_url, expires_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		n.UserID, n.Type, n.Title, n.Message, data, n.Priority, n.BookingID, n.ActionURL, n.ExpiresAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// NotificationFilter narrows a user's notification listing.
type NotificationFilter struct {
	Read  *bool
	Type  string
	Page  int
	Limit int
}

// List returns a page of the user's live notifications (newest first)
// plus the total match count.
func (r *NotificationRepo) List(ctx context.Context, userID uint64, f NotificationFilter) ([]*model.Notification, int, error) {
	now := time.Now().UTC()
	where := []string{"user_id=?", notExpired}
	args := []any{userID, now}
	if f.Read != nil {
		where = append(where, "is_read=?")
		args = append(args, *f.Read)
	}
	if f.Type != "" {
		where = append(where, "type=?")
		args = append(args, f.Type)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE "+cond+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	var (
		n         model.Notification
		data      []byte
		readAt    sql.NullTime
		bookingID sql.NullInt64
		expiresAt sql.NullTime
	)
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.Read, &readAt,
		&n.Priority, &bookingID, &n.ActionURL, &expiresAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	n.ReadAt = nullTimePtr(readAt)
	n.ExpiresAt = nullTimePtr(expiresAt)
	if bookingID.Valid {
		id := uint64(bookingID.Int64)
		n.BookingID = &id
	}
	return &n, nil
}

// UnreadCount counts the user's unread, unexpired notifications.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=0 AND "+notExpired,
		userID, time.Now().UTC()).Scan(&n)
	return n, err
}

// MarkRead marks one of the user's live notifications as read.
// Repeated calls are idempotent: the row must exist, belong to the user
// and not be expired, but an already-read row keeps its original
// read_at.  Expired rows are invisible here just as in List.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) (*model.Notification, error) {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=1, read_at=? WHERE id=? AND user_id=? AND is_read=0 AND "+notExpired,
		now, id, userID, now)
	if err != nil {
		return nil, err
	}
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id=? AND user_id=? AND "+notExpired+" LIMIT 1",
		id, userID, now)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return n, err
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many rows changed.  A second call returns 0.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (int, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=1, read_at=? WHERE user_id=? AND is_read=0",
		time.Now().UTC(), userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Delete removes one of the user's notifications.
func (r *NotificationRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM notifications WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired deletes rows whose expiry has passed.  Called by the
// background sweep.
func (r *NotificationRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM notifications WHERE expires_at IS NOT NULL AND expires_at <= ?",
		time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
