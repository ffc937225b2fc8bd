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

// BookingRepo owns all SQL against the bookings table.  The details,
// payment and cancellation sub-documents are JSON columns; the price
// breakdown is flattened into real columns so the dashboard can
// aggregate without JSON extraction.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingColumns = `id, user_id, type, status, booking_reference, details,
 base_price, taxes, fees, discount, total_price, currency,
 payment, cancellation, notes, created_at, updated_at`

// Create inserts a booking and returns its ID.  TotalPrice is
// recomputed here so whatever the client sent is discarded.  A
// reference collision surfaces as ErrReferenceExists so the caller can
// regenerate and retry.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) (uint64, error) {
	b.Pricing.Recalculate()
	details, err := json.Marshal(b.Details)
	if err != nil {
		return 0, err
	}
	payment, err := json.Marshal(b.Payment)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO bookings (user_id, type, status, booking_reference, details,
		  base_price, taxes, fees, discount, total_price, currency, payment, notes)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.UserID, b.Type, b.Status, b.Reference, details,
		b.Pricing.BasePrice, b.Pricing.Taxes, b.Pricing.Fees, b.Pricing.Discount,
		b.Pricing.TotalPrice, b.Pricing.Currency, payment, b.Notes)
	if err != nil {
		if duplicateOn(err, "uq_bookings_reference") {
			return 0, ErrReferenceExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a booking regardless of owner (admin paths).
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id)
	return scanBookingRow(row)
}

// GetByIDForUser fetches a booking only if it belongs to userID.  A
// booking owned by someone else is indistinguishable from a missing
// one: both return ErrNotFound.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Booking, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? AND user_id=? LIMIT 1", id, userID)
	return scanBookingRow(row)
}

func scanBookingRow(row rowScanner) (*model.Booking, error) {
	var (
		b            model.Booking
		details      []byte
		payment      []byte
		cancellation []byte
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Type, &b.Status, &b.Reference, &details,
		&b.Pricing.BasePrice, &b.Pricing.Taxes, &b.Pricing.Fees, &b.Pricing.Discount,
		&b.Pricing.TotalPrice, &b.Pricing.Currency,
		&payment, &cancellation, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(details, &b.Details); err != nil {
		return nil, fmt.Errorf("decode details: %w", err)
	}
	if err := json.Unmarshal(payment, &b.Payment); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}
	if len(cancellation) > 0 {
		var c model.Cancellation
		if err := json.Unmarshal(cancellation, &c); err != nil {
			return nil, fmt.Errorf("decode cancellation: %w", err)
		}
		b.Cancellation = &c
	}
	return &b, nil
}

// Update writes the mutable fields of a booking.  The pricing total is
// recomputed from the breakdown before persisting.
func (r *BookingRepo) Update(ctx context.Context, b *model.Booking) error {
	b.Pricing.Recalculate()
	details, err := json.Marshal(b.Details)
	if err != nil {
		return err
	}
	payment, err := json.Marshal(b.Payment)
	if err != nil {
		return err
	}
	var cancellation any
	if b.Cancellation != nil {
		raw, err := json.Marshal(b.Cancellation)
		if err != nil {
			return err
		}
		cancellation = raw
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE bookings SET status=?, details=?,
		  base_price=?, taxes=?, fees=?, discount=?, total_price=?, currency=?,
		  payment=?, cancellation=?, notes=?
		 WHERE id=?`,
		b.Status, details,
		b.Pricing.BasePrice, b.Pricing.Taxes, b.Pricing.Fees, b.Pricing.Discount,
		b.Pricing.TotalPrice, b.Pricing.Currency,
		payment, cancellation, b.Notes, b.ID)
	return err
}

// BookingFilter narrows a booking listing.  UserID 0 means all users
// (admin listing).
type BookingFilter struct {
	UserID uint64
	Type   model.BookingType
	Status model.BookingStatus
	Page   int
	Limit  int
}

// List returns a page of bookings (newest first) plus the total match
// count.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]*model.Booking, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.UserID != 0 {
		where = append(where, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.Type != "" {
		where = append(where, "type=?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE "+cond+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBookingRow(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	return bookings, total, rows.Err()
}

// StatusCounts returns booking totals per lifecycle state for the
// dashboard.
func (r *BookingRepo) StatusCounts(ctx context.Context) (map[model.BookingStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM bookings GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.BookingStatus]int)
	for rows.Next() {
		var (
			s model.BookingStatus
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

// RevenueTotal sums total_price over bookings whose payment completed.
func (r *BookingRepo) RevenueTotal(ctx context.Context) (float64, error) {
	var total float64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_price),0) FROM bookings
		 WHERE JSON_UNQUOTE(JSON_EXTRACT(payment,'$.status'))=?`,
		model.PaymentCompleted).Scan(&total)
	return total, err
}

// Recent returns the newest bookings for the dashboard feed.
func (r *BookingRepo) Recent(ctx context.Context, limit int) ([]*model.Booking, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBookingRow(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CreatedSince counts bookings created at or after the cutoff.
func (r *BookingRepo) CreatedSince(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE created_at >= ?", cutoff).Scan(&n)
	return n, err
}
