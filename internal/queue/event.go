// Package queue defines booking lifecycle events and the broker code
// that moves them.  Handlers publish events; the consumer turns them
// into user notifications.
package queue

import "time"

// Event names carried in BookingEvent.Event.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

// BookingEvent is published on every booking lifecycle change.  It
// carries enough for downstream consumers to notify the user without
// querying the primary database.
type BookingEvent struct {
	Event      string    `json:"event"`
	BookingID  uint64    `json:"booking_id"`
	UserID     uint64    `json:"user_id"`
	Reference  string    `json:"reference"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	TotalPrice float64   `json:"total_price"`
	Currency   string    `json:"currency"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
