package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking-api/internal/model"
	"github.com/voyago/travel-booking-api/internal/queue"
	"github.com/voyago/travel-booking-api/internal/repository"
	"github.com/voyago/travel-booking-api/internal/utils"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Log      *zap.Logger
	// PublishEvents gates the broker integration so tests and
	// broker-less deployments skip publishing entirely.
	PublishEvents bool
}

func NewBookingHandler(bookings *repository.BookingRepo, log *zap.Logger, publishEvents bool) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Log: log, PublishEvents: publishEvents}
}

type createBookingReq struct {
	Type    model.BookingType    `json:"bookingType"`
	Details model.BookingDetails `json:"bookingDetails"`
	Pricing model.Pricing        `json:"pricing"`
	Payment model.Payment        `json:"payment"`
	Notes   string               `json:"notes"`
}

type cancelBookingReq struct {
	Reason string `json:"reason"`
}

type confirmPaymentReq struct {
	Method        string `json:"method"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"` // "completed" or "failed"
}

type updateStatusReq struct {
	Status model.BookingStatus `json:"status"`
}

// Create books a trip.  The total price is always derived server-side
// and the generated reference is retried once on the rare collision.
func (h *BookingHandler) Create(c echo.Context) error {
	u := currentUser(c)

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if !req.Type.Valid() {
		return fail(c, http.StatusBadRequest, "Invalid booking type")
	}
	if err := req.Details.Validate(req.Type); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if req.Pricing.BasePrice <= 0 {
		return fail(c, http.StatusBadRequest, "Base price must be greater than zero")
	}
	if req.Pricing.Taxes < 0 || req.Pricing.Fees < 0 || req.Pricing.Discount < 0 {
		return fail(c, http.StatusBadRequest, "Price components cannot be negative")
	}
	if req.Pricing.Currency == "" {
		req.Pricing.Currency = "INR"
	}

	b := &model.Booking{
		UserID:  u.ID,
		Type:    req.Type,
		Status:  model.StatusPending,
		Details: req.Details,
		Pricing: req.Pricing,
		Payment: model.Payment{Method: req.Payment.Method, Status: model.PaymentPending},
		Notes:   req.Notes,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	var id uint64
	for attempt := 0; attempt < 2; attempt++ {
		ref, err := utils.NewBookingReference()
		if err != nil {
			return fail(c, http.StatusInternalServerError, "Booking creation failed")
		}
		b.Reference = ref
		id, err = h.Bookings.Create(ctx, b)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrReferenceExists) && attempt == 0 {
			continue
		}
		if errors.Is(err, repository.ErrReferenceExists) {
			return fail(c, http.StatusConflict, "Could not allocate a booking reference, please retry")
		}
		h.Log.Error("create booking failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Booking creation failed")
	}
	b.ID = id

	created, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("load created booking failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Booking creation failed")
	}

	h.publish(queue.BookingEvent{
		Event:      queue.EventBookingCreated,
		BookingID:  created.ID,
		UserID:     created.UserID,
		Reference:  created.Reference,
		Type:       string(created.Type),
		Status:     string(created.Status),
		TotalPrice: created.Pricing.TotalPrice,
		Currency:   created.Pricing.Currency,
		OccurredAt: time.Now().UTC(),
	})

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "booking": viewBooking(created)})
}

// List returns the caller's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	u := currentUser(c)

	f := repository.BookingFilter{
		UserID: u.ID,
		Type:   model.BookingType(c.QueryParam("type")),
		Status: model.BookingStatus(c.QueryParam("status")),
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	bookings, total, err := h.Bookings.List(ctx, f)
	if err != nil {
		h.Log.Error("list bookings failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load bookings")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"bookings":   viewBookings(bookings),
		"pagination": paginate(f.Page, f.Limit, total),
	})
}

// Get returns one of the caller's bookings.  A booking owned by
// another user is reported as missing.
func (h *BookingHandler) Get(c echo.Context) error {
	u := currentUser(c)
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid booking id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Bookings.GetByIDForUser(ctx, id, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Booking not found")
		}
		h.Log.Error("get booking failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Could not load booking")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewBooking(b)})
}

// Cancel moves a pending or confirmed booking to cancelled and opens a
// full-amount refund.
func (h *BookingHandler) Cancel(c echo.Context) error {
	u := currentUser(c)
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid booking id")
	}

	var req cancelBookingReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Bookings.GetByIDForUser(ctx, id, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Booking not found")
		}
		h.Log.Error("get booking failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Cancellation failed")
	}
	if !b.Status.CanTransitionTo(model.StatusCancelled) {
		return fail(c, http.StatusBadRequest, "Booking cannot be cancelled in its current status: "+string(b.Status))
	}

	now := time.Now().UTC()
	b.Status = model.StatusCancelled
	b.Cancellation = &model.Cancellation{
		CancelledAt:  &now,
		Reason:       req.Reason,
		RefundAmount: b.Pricing.TotalPrice,
		RefundStatus: model.RefundPending,
	}
	if err := h.Bookings.Update(ctx, b); err != nil {
		h.Log.Error("cancel booking failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Cancellation failed")
	}

	h.publish(queue.BookingEvent{
		Event:      queue.EventBookingCancelled,
		BookingID:  b.ID,
		UserID:     b.UserID,
		Reference:  b.Reference,
		Type:       string(b.Type),
		Status:     string(b.Status),
		TotalPrice: b.Pricing.TotalPrice,
		Currency:   b.Pricing.Currency,
		Reason:     req.Reason,
		OccurredAt: now,
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewBooking(b)})
}

// ConfirmPayment records the payment outcome.  A completed payment
// confirms the booking; a failed one leaves it pending so the user can
// retry.
func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
	u := currentUser(c)
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid booking id")
	}

	var req confirmPaymentReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Status != model.PaymentCompleted && req.Status != model.PaymentFailed {
		return fail(c, http.StatusBadRequest, "Payment status must be 'completed' or 'failed'")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Bookings.GetByIDForUser(ctx, id, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Booking not found")
		}
		h.Log.Error("get booking failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Payment update failed")
	}
	if b.Status != model.StatusPending {
		return fail(c, http.StatusBadRequest, "Payment can only be recorded for pending bookings")
	}

	now := time.Now().UTC()
	b.Payment.Method = req.Method
	b.Payment.TransactionID = req.TransactionID
	b.Payment.Status = req.Status

	event := queue.EventPaymentFailed
	if req.Status == model.PaymentCompleted {
		b.Payment.PaidAt = &now
		b.Status = model.StatusConfirmed
		event = queue.EventPaymentCompleted
	}
	if err := h.Bookings.Update(ctx, b); err != nil {
		h.Log.Error("record payment failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Payment update failed")
	}

	h.publish(queue.BookingEvent{
		Event:      event,
		BookingID:  b.ID,
		UserID:     b.UserID,
		Reference:  b.Reference,
		Type:       string(b.Type),
		Status:     string(b.Status),
		TotalPrice: b.Pricing.TotalPrice,
		Currency:   b.Pricing.Currency,
		OccurredAt: now,
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewBooking(b)})
}

// UpdateStatus is the admin override for the booking state machine.
// The transition rules still apply: completed and refunded stay
// terminal even for admins.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid booking id")
	}

	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Booking not found")
		}
		h.Log.Error("get booking failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Status update failed")
	}
	if !b.Status.CanTransitionTo(req.Status) {
		return fail(c, http.StatusBadRequest,
			"Cannot transition booking from "+string(b.Status)+" to "+string(req.Status))
	}

	now := time.Now().UTC()
	b.Status = req.Status
	if req.Status == model.StatusRefunded {
		if b.Cancellation == nil {
			b.Cancellation = &model.Cancellation{RefundAmount: b.Pricing.TotalPrice}
		}
		b.Cancellation.RefundStatus = model.RefundCompleted
		b.Payment.Status = model.PaymentRefunded
	}
	if err := h.Bookings.Update(ctx, b); err != nil {
		h.Log.Error("update booking status failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Status update failed")
	}

	if req.Status == model.StatusCancelled {
		h.publish(queue.BookingEvent{
			Event:      queue.EventBookingCancelled,
			BookingID:  b.ID,
			UserID:     b.UserID,
			Reference:  b.Reference,
			Type:       string(b.Type),
			Status:     string(b.Status),
			TotalPrice: b.Pricing.TotalPrice,
			Currency:   b.Pricing.Currency,
			OccurredAt: now,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewBooking(b)})
}

// publish fires the event in the background; request latency never
// waits on the broker.
func (h *BookingHandler) publish(ev queue.BookingEvent) {
	if !h.PublishEvents {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue.PublishBookingEvent(ctx, ev)
	}()
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
