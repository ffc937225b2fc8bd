package model

import "time"

// Notification types produced by the system.  The booking lifecycle
// events arrive through the queue consumer; the rest are created by
// handlers directly.
const (
	NotifBookingConfirmation = "booking-confirmation"
	NotifBookingCancelled    = "booking-cancelled"
	NotifBookingReminder     = "booking-reminder"
	NotifPaymentSuccess      = "payment-success"
	NotifPaymentFailed       = "payment-failed"
	NotifPasswordChanged     = "password-changed"
	NotifProfileUpdated      = "profile-updated"
	NotifSystemUpdate        = "system-update"
	NotifPromotion           = "promotion"
	NotifReminder            = "reminder"
	NotifAlert               = "alert"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification mirrors the 'notifications' table.  Type, Title, Message
// and Data are immutable after creation; only the read state changes.
// BookingID is a weak reference: it is lookup-only and never blocks
// deleting or mutating the booking it points at.
type Notification struct {
	ID        uint64
	UserID    uint64
	Type      string
	Title     string
	Message   string
	Data      map[string]any
	Read      bool
	ReadAt    *time.Time
	Priority  string
	BookingID *uint64
	ActionURL string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Expired reports whether the notification is past its expiry.  Expired
// records are excluded from lists and unread counts at read time; the
// background sweep that deletes them is an optimization on top.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}
