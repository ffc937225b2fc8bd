package database

import (
	"context"
	"database/sql"
	"fmt"
)

const createUsersTableSQL = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	name VARCHAR(191) NOT NULL,
	email VARCHAR(191) NOT NULL,
	mobile VARCHAR(32) NOT NULL,
	password_hash VARCHAR(191) NOT NULL,
	profile_picture VARCHAR(512) NOT NULL DEFAULT '',
	date_of_birth DATETIME NULL,
	gender VARCHAR(16) NOT NULL DEFAULT '',
	address JSON NOT NULL,
	preferences JSON NOT NULL,
	travel_preferences JSON NOT NULL,
	otp_code VARCHAR(12) NULL,
	otp_expires_at DATETIME NULL,
	otp_verified_at DATETIME NULL,
	is_email_verified TINYINT(1) NOT NULL DEFAULT 0,
	is_mobile_verified TINYINT(1) NOT NULL DEFAULT 0,
	role VARCHAR(16) NOT NULL DEFAULT 'user',
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	login_attempts INT NOT NULL DEFAULT 0,
	lock_until DATETIME NULL,
	last_login DATETIME NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	UNIQUE KEY uq_users_email (email),
	UNIQUE KEY uq_users_mobile (mobile),
	KEY idx_users_role (role)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const createBookingsTableSQL = `
CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	user_id BIGINT UNSIGNED NOT NULL,
	type VARCHAR(32) NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	booking_reference VARCHAR(32) NOT NULL,
	details JSON NOT NULL,
	base_price DOUBLE NOT NULL,
	taxes DOUBLE NOT NULL DEFAULT 0,
	fees DOUBLE NOT NULL DEFAULT 0,
	discount DOUBLE NOT NULL DEFAULT 0,
	total_price DOUBLE NOT NULL,
	currency VARCHAR(8) NOT NULL DEFAULT 'INR',
	payment JSON NOT NULL,
	cancellation JSON NULL,
	notes TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	UNIQUE KEY uq_bookings_reference (booking_reference),
	KEY idx_bookings_user (user_id),
	KEY idx_bookings_status (status),
	KEY idx_bookings_type (type),
	KEY idx_bookings_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const createNotificationsTableSQL = `
CREATE TABLE IF NOT EXISTS notifications (
	id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	user_id BIGINT UNSIGNED NOT NULL,
	type VARCHAR(32) NOT NULL,
	title VARCHAR(191) NOT NULL,
	message TEXT NOT NULL,
	data JSON NULL,
	is_read TINYINT(1) NOT NULL DEFAULT 0,
	read_at DATETIME NULL,
	priority VARCHAR(16) NOT NULL DEFAULT 'medium',
	booking_id BIGINT UNSIGNED NULL,
	action_url VARCHAR(512) NOT NULL DEFAULT '',
	expires_at DATETIME NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	KEY idx_notifications_user_read (user_id, is_read),
	KEY idx_notifications_user_created (user_id, created_at),
	KEY idx_notifications_type (type),
	KEY idx_notifications_expires (expires_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const createPermissionsTableSQL = `
CREATE TABLE IF NOT EXISTS permissions (
	id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	user_id BIGINT UNSIGNED NOT NULL,
	location JSON NOT NULL,
	contact JSON NOT NULL,
	camera JSON NOT NULL,
	notifications JSON NOT NULL,
	storage JSON NOT NULL,
	analytics JSON NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	UNIQUE KEY uq_permissions_user (user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

// RunMigrations creates the schema.  Statements are idempotent
// (CREATE TABLE IF NOT EXISTS) so this runs on every startup.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", createUsersTableSQL},
		{"bookings", createBookingsTableSQL},
		{"notifications", createNotificationsTableSQL},
		{"permissions", createPermissionsTableSQL},
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return fmt.Errorf("migrate %s: %w", s.name, err)
		}
	}
	return nil
}
