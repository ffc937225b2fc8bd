package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/voyago/travel-booking-api/internal/config"
)

// Open builds a MySQL pool from the DB_* settings and verifies it with
// a short ping.  parseTime/loc pin every DATETIME to a UTC time.Time;
// the OTP expiry and lockout comparisons depend on that.
func Open(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func dsn(cfg config.Config) string {
	creds := cfg.DBUser
	if cfg.DBPass != "" {
		creds += ":" + cfg.DBPass
	}
	return creds + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName +
		"?charset=utf8mb4&parseTime=true&loc=UTC"
}
