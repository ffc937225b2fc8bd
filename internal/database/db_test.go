package database

import (
	"testing"

	"github.com/voyago/travel-booking-api/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{DBUser: "voyago", DBPass: "s3cret", DBHost: "db", DBPort: "3306", DBName: "travel"}
	want := "voyago:s3cret@tcp(db:3306)/travel?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := dsn(cfg); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}

func TestDSN_EmptyPasswordOmitsColon(t *testing.T) {
	cfg := config.Config{DBUser: "voyago", DBHost: "localhost", DBPort: "3306", DBName: "travel"}
	want := "voyago@tcp(localhost:3306)/travel?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := dsn(cfg); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}
