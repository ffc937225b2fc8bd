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

// UserRepo owns all SQL against the users table.  The address,
// preferences and travel_preferences sub-documents live in JSON
// columns and are (un)marshalled here so the rest of the code only
// sees model.User.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, name, email, mobile, password_hash, profile_picture, date_of_birth, gender,
 address, preferences, travel_preferences,
 otp_code, otp_expires_at, otp_verified_at,
 is_email_verified, is_mobile_verified, role, is_active,
 login_attempts, lock_until, last_login, created_at, updated_at`

// Create inserts a new user and returns its ID.  Duplicate email or
// mobile surface as ErrEmailExists / ErrMobileExists via the unique
// indexes; the check-and-insert race between concurrent registrations
// is resolved there, not in application code.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	addr, err := json.Marshal(u.Address)
	if err != nil {
		return 0, err
	}
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return 0, err
	}
	travel, err := json.Marshal(u.TravelPrefs)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, email, mobile, password_hash, gender, address, preferences, travel_preferences, role)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		u.Name, u.Email, u.Mobile, u.PasswordHash, u.Gender, addr, prefs, travel, u.Role)
	if err != nil {
		if duplicateOn(err, "uq_users_email") {
			return 0, ErrEmailExists
		}
		if duplicateOn(err, "uq_users_mobile") {
			return 0, ErrMobileExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getWhere(ctx, "email=?", email)
}

// GetByMobile fetches a user by mobile number.
func (r *UserRepo) GetByMobile(ctx context.Context, mobile string) (*model.User, error) {
	return r.getWhere(ctx, "mobile=?", strings.TrimSpace(mobile))
}

// GetByContact resolves the forgot-password contact: contactType is
// "email" or "mobile".
func (r *UserRepo) GetByContact(ctx context.Context, contact, contactType string) (*model.User, error) {
	if contactType == "mobile" {
		return r.GetByMobile(ctx, contact)
	}
	return r.GetByEmail(ctx, contact)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getWhere(ctx, "id=?", id)
}

func (r *UserRepo) getWhere(ctx context.Context, where string, arg any) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return u, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                   model.User
		addr, prefs, travel []byte
		otpCode             sql.NullString
		dob, otpExp, otpVer sql.NullTime
		lockUntil, lastLog  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Mobile, &u.PasswordHash, &u.ProfilePicture, &dob, &u.Gender,
		&addr, &prefs, &travel,
		&otpCode, &otpExp, &otpVer,
		&u.IsEmailVerified, &u.IsMobileVerified, &u.Role, &u.IsActive,
		&u.LoginAttempts, &lockUntil, &lastLog, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addr, &u.Address); err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	if err := json.Unmarshal(prefs, &u.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if err := json.Unmarshal(travel, &u.TravelPrefs); err != nil {
		return nil, fmt.Errorf("decode travel preferences: %w", err)
	}
	if otpCode.Valid {
		u.OTPCode = &otpCode.String
	}
	u.DateOfBirth = nullTimePtr(dob)
	u.OTPExpiresAt = nullTimePtr(otpExp)
	u.OTPVerifiedAt = nullTimePtr(otpVer)
	u.LockUntil = nullTimePtr(lockUntil)
	u.LastLogin = nullTimePtr(lastLog)
	return &u, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// SetLockState persists the lockout counters after a failed login.
func (r *UserRepo) SetLockState(ctx context.Context, id uint64, attempts int, lockUntil *time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET login_attempts=?, lock_until=? WHERE id=?",
		attempts, lockUntil, id)
	return err
}

// RecordLogin clears the lockout counters and stamps last_login.
func (r *UserRepo) RecordLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET login_attempts=0, lock_until=NULL, last_login=? WHERE id=?",
		time.Now().UTC(), id)
	return err
}

// SetOTP stores a fresh reset code.  Issuing a new code always
// overwrites the previous one and drops any verification stamp, so
// concurrent forgot-password calls simply last-write-win.
func (r *UserRepo) SetOTP(ctx context.Context, id uint64, code string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp_code=?, otp_expires_at=?, otp_verified_at=NULL WHERE id=?",
		code, expiresAt, id)
	return err
}

// ConsumeOTP clears the code (single use) and stamps the verification
// time that gates reset-password.
func (r *UserRepo) ConsumeOTP(ctx context.Context, id uint64, verifiedAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp_code=NULL, otp_expires_at=NULL, otp_verified_at=? WHERE id=?",
		verifiedAt, id)
	return err
}

// UpdatePassword overwrites the password hash and clears all OTP state.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, otp_code=NULL, otp_expires_at=NULL, otp_verified_at=NULL WHERE id=?",
		hash, id)
	return err
}

// UpdateProfile writes the mutable profile fields.  Email/mobile
// uniqueness is enforced by the same indexes used at registration.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	addr, err := json.Marshal(u.Address)
	if err != nil {
		return err
	}
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return err
	}
	travel, err := json.Marshal(u.TravelPrefs)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE users SET name=?, email=?, mobile=?, profile_picture=?, date_of_birth=?, gender=?,
		 address=?, preferences=?, travel_preferences=? WHERE id=?`,
		u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.Mobile, u.ProfilePicture, u.DateOfBirth, u.Gender,
		addr, prefs, travel, u.ID)
	if err != nil {
		if duplicateOn(err, "uq_users_email") {
			return ErrEmailExists
		}
		if duplicateOn(err, "uq_users_mobile") {
			return ErrMobileExists
		}
	}
	return err
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role     string
	IsActive *bool
	Search   string // matches name, email or mobile
	Page     int
	Limit    int
}

// List returns a page of users (newest first) and the total match
// count for pagination.
func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]*model.User, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Role != "" {
		where = append(where, "role=?")
		args = append(args, f.Role)
	}
	if f.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *f.IsActive)
	}
	if f.Search != "" {
		where = append(where, "(name LIKE ? OR email LIKE ? OR mobile LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// CountAll returns total and active user counts for the dashboard.
func (r *UserRepo) CountAll(ctx context.Context) (total, active int, err error) {
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(is_active),0) FROM users").Scan(&total, &active)
	return total, active, err
}

// UpdateRole changes a user's role.  Callers verify the user exists
// first; a no-op update (same role) affects zero rows and is fine.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	return err
}

// UpdateStatus activates or deactivates an account.
func (r *UserRepo) UpdateStatus(ctx context.Context, id uint64, isActive bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", isActive, id)
	return err
}

// Delete removes the user row.  Bookings and notifications are
// deliberately retained for audit; the caller removes the permission
// row separately.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
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

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
