package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/voyago/travel-booking-api/internal/model"
)

// PermissionRepo owns all SQL against the permissions table.  Each
// category is its own JSON column so a row always round-trips into
// model.Permission as a whole.
type PermissionRepo struct{ DB *sql.DB }

func NewPermissionRepo(db *sql.DB) *PermissionRepo { return &PermissionRepo{DB: db} }

const permissionColumns = `id, user_id, location, contact, camera, notifications, storage, analytics, created_at, updated_at`

// Ensure returns the user's permission record, creating it with
// defaults on first access.  Two concurrent first calls race on the
// unique user index; the loser re-reads the winner's row.
func (r *PermissionRepo) Ensure(ctx context.Context, userID uint64) (*model.Permission, error) {
	p, err := r.GetByUser(ctx, userID)
	if err == nil {
		return p, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	p = model.DefaultPermissions(userID, time.Now().UTC())
	cols, err := marshalPermission(p)
	if err != nil {
		return nil, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO permissions (user_id, location, contact, camera, notifications, storage, analytics)
		 VALUES (?,?,?,?,?,?,?)`,
		userID, cols.location, cols.contact, cols.camera, cols.notifications, cols.storage, cols.analytics)
	if err != nil {
		if duplicateOn(err, "uq_permissions_user") {
			return r.GetByUser(ctx, userID)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	p.ID = uint64(id)
	return p, nil
}

// GetByUser fetches the user's permission record, ErrNotFound if it was
// never created.
func (r *PermissionRepo) GetByUser(ctx context.Context, userID uint64) (*model.Permission, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+permissionColumns+" FROM permissions WHERE user_id=? LIMIT 1", userID)
	var (
		p                                                     model.Permission
		location, contact, camera, notifs, storage, analytics []byte
	)
	err := row.Scan(&p.ID, &p.UserID, &location, &contact, &camera, &notifs, &storage, &analytics,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{location, &p.Location},
		{contact, &p.Contact},
		{camera, &p.Camera},
		{notifs, &p.Notifications},
		{storage, &p.Storage},
		{analytics, &p.Analytics},
	} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode permission: %w", err)
		}
	}
	return &p, nil
}

// Update persists all six categories of an existing record.
func (r *PermissionRepo) Update(ctx context.Context, p *model.Permission) error {
	cols, err := marshalPermission(p)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE permissions SET location=?, contact=?, camera=?, notifications=?, storage=?, analytics=?
		 WHERE id=?`,
		cols.location, cols.contact, cols.camera, cols.notifications, cols.storage, cols.analytics, p.ID)
	return err
}

// DeleteByUser removes the user's permission record, if any.  Used when
// an admin deletes the account.
func (r *PermissionRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM permissions WHERE user_id=?", userID)
	return err
}

type permissionColumnsJSON struct {
	location, contact, camera, notifications, storage, analytics []byte
}

func marshalPermission(p *model.Permission) (*permissionColumnsJSON, error) {
	var (
		cols permissionColumnsJSON
		err  error
	)
	if cols.location, err = json.Marshal(p.Location); err != nil {
		return nil, err
	}
	if cols.contact, err = json.Marshal(p.Contact); err != nil {
		return nil, err
	}
	if cols.camera, err = json.Marshal(p.Camera); err != nil {
		return nil, err
	}
	if cols.notifications, err = json.Marshal(p.Notifications); err != nil {
		return nil, err
	}
	if cols.storage, err = json.Marshal(p.Storage); err != nil {
		return nil, err
	}
	if cols.analytics, err = json.Marshal(p.Analytics); err != nil {
		return nil, err
	}
	return &cols, nil
}
