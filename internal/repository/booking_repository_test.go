package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/voyago/travel-booking-api/internal/model"
)

func setupBookingMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewBookingRepo(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func testBooking() *model.Booking {
	return &model.Booking{
		UserID:    7,
		Type:      model.TypeFlight,
		Status:    model.StatusPending,
		Reference: "BKTEST01ABCDEF",
		Details: model.BookingDetails{
			Flight: &model.FlightDetails{Airline: "IndiGo", FlightNumber: "6E-204"},
		},
		Pricing: model.Pricing{
			BasePrice: 4000, Taxes: 500, Fees: 100, Discount: 200,
			TotalPrice: 9999, // client-supplied garbage, must be recomputed
			Currency:   "INR",
		},
		Payment: model.Payment{Status: model.PaymentPending},
	}
}

func TestBookingCreate_RecomputesTotal(t *testing.T) {
	repo, mock, cleanup := setupBookingMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(7), model.TypeFlight, model.StatusPending, "BKTEST01ABCDEF",
			sqlmock.AnyArg(), // details JSON
			4000.0, 500.0, 100.0, 200.0, 4400.0, "INR",
			sqlmock.AnyArg(), // payment JSON
			"").
		WillReturnResult(sqlmock.NewResult(21, 1))

	b := testBooking()
	id, err := repo.Create(context.Background(), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 21 {
		t.Errorf("expected id 21, got %d", id)
	}
	if b.Pricing.TotalPrice != 4400 {
		t.Errorf("expected recomputed total 4400, got %v", b.Pricing.TotalPrice)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestBookingCreate_ReferenceCollision(t *testing.T) {
	repo, mock, cleanup := setupBookingMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(dupKeyErr("uq_bookings_reference"))

	_, err := repo.Create(context.Background(), testBooking())
	if err != ErrReferenceExists {
		t.Fatalf("expected ErrReferenceExists, got %v", err)
	}
}

func TestGetByIDForUser_NotFoundForOtherOwner(t *testing.T) {
	repo, mock, cleanup := setupBookingMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id=\\? AND user_id=\\?").
		WithArgs(uint64(21), uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByIDForUser(context.Background(), 21, 8)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusCounts(t *testing.T) {
	repo, mock, cleanup := setupBookingMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM bookings GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("confirmed", 5).
			AddRow("cancelled", 1))

	counts, err := repo.StatusCounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[model.StatusPending] != 3 || counts[model.StatusConfirmed] != 5 || counts[model.StatusCancelled] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestRevenueTotal_OnlyCompletedPayments(t *testing.T) {
	repo, mock, cleanup := setupBookingMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(total_price\\),0\\) FROM bookings").
		WithArgs(model.PaymentCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(123456.78))

	total, err := repo.RevenueTotal(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 123456.78 {
		t.Errorf("expected 123456.78, got %v", total)
	}
}
