// Package handler implements the HTTP endpoints.  Every handler binds
// its request, validates, runs repository calls under a short timeout
// and answers with a success flag plus payload so clients can branch
// on one field.
package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voyago/travel-booking-api/internal/model"
)

const dbTimeout = 5 * time.Second

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

func failFields(c echo.Context, status int, message string, errs []FieldErrorView) error {
	return c.JSON(status, echo.Map{"success": false, "message": message, "errors": errs})
}

// FieldErrorView is one per-field validation failure in an error response.
type FieldErrorView struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// userView is the wire shape of a user.  The password hash and OTP
// state never leave the server.
type userView struct {
	ID               uint64                   `json:"id"`
	Name             string                   `json:"name"`
	Email            string                   `json:"email"`
	Mobile           string                   `json:"mobile"`
	ProfilePicture   string                   `json:"profilePicture,omitempty"`
	DateOfBirth      *time.Time               `json:"dateOfBirth,omitempty"`
	Gender           string                   `json:"gender"`
	Address          model.Address            `json:"address"`
	Preferences      model.Preferences        `json:"preferences"`
	TravelPrefs      model.TravelPreferences  `json:"travelPreferences"`
	IsEmailVerified  bool                     `json:"isEmailVerified"`
	IsMobileVerified bool                     `json:"isMobileVerified"`
	Role             string                   `json:"role"`
	IsActive         bool                     `json:"isActive"`
	LastLogin        *time.Time               `json:"lastLogin,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
}

func viewUser(u *model.User) userView {
	return userView{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Mobile:           u.Mobile,
		ProfilePicture:   u.ProfilePicture,
		DateOfBirth:      u.DateOfBirth,
		Gender:           u.Gender,
		Address:          u.Address,
		Preferences:      u.Preferences,
		TravelPrefs:      u.TravelPrefs,
		IsEmailVerified:  u.IsEmailVerified,
		IsMobileVerified: u.IsMobileVerified,
		Role:             u.Role,
		IsActive:         u.IsActive,
		LastLogin:        u.LastLogin,
		CreatedAt:        u.CreatedAt,
	}
}

// bookingView is the wire shape of a booking.
type bookingView struct {
	ID           uint64               `json:"id"`
	UserID       uint64               `json:"userId"`
	Type         model.BookingType    `json:"bookingType"`
	Status       model.BookingStatus  `json:"status"`
	Reference    string               `json:"bookingReference"`
	Details      model.BookingDetails `json:"bookingDetails"`
	Pricing      model.Pricing        `json:"pricing"`
	Payment      model.Payment        `json:"payment"`
	Cancellation *model.Cancellation  `json:"cancellation,omitempty"`
	Notes        string               `json:"notes,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

func viewBooking(b *model.Booking) bookingView {
	return bookingView{
		ID:           b.ID,
		UserID:       b.UserID,
		Type:         b.Type,
		Status:       b.Status,
		Reference:    b.Reference,
		Details:      b.Details,
		Pricing:      b.Pricing,
		Payment:      b.Payment,
		Cancellation: b.Cancellation,
		Notes:        b.Notes,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func viewBookings(bs []*model.Booking) []bookingView {
	out := make([]bookingView, 0, len(bs))
	for _, b := range bs {
		out = append(out, viewBooking(b))
	}
	return out
}

// notificationView is the wire shape of a notification.
type notificationView struct {
	ID        uint64         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
	Priority  string         `json:"priority"`
	BookingID *uint64        `json:"bookingId,omitempty"`
	ActionURL string         `json:"actionUrl,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func viewNotification(n *model.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		Priority:  n.Priority,
		BookingID: n.BookingID,
		ActionURL: n.ActionURL,
		ExpiresAt: n.ExpiresAt,
		CreatedAt: n.CreatedAt,
	}
}

func viewNotifications(ns []*model.Notification) []notificationView {
	out := make([]notificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, viewNotification(n))
	}
	return out
}

// paginationView is attached to every list response.
type paginationView struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func paginate(page, limit, total int) paginationView {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return paginationView{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func currentUser(c echo.Context) *model.User {
	u, _ := c.Get("user").(*model.User)
	return u
}
