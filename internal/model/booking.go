package model

import (
	"errors"
	"fmt"
	"time"
)

// BookingType discriminates which bookingDetails variant is populated.
type BookingType string

const (
	TypeFlight      BookingType = "flight"
	TypeHotel       BookingType = "hotel"
	TypeTrain       BookingType = "train"
	TypeCarRental   BookingType = "car-rental"
	TypeTourPackage BookingType = "tour-package"
	TypeCruise      BookingType = "cruise"
)

// Valid reports whether t is a known booking type.
func (t BookingType) Valid() bool {
	switch t {
	case TypeFlight, TypeHotel, TypeTrain, TypeCarRental, TypeTourPackage, TypeCruise:
		return true
	}
	return false
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
	StatusRefunded  BookingStatus = "refunded"
)

// ErrInvalidTransition is returned for lifecycle moves the state
// machine does not allow.  completed and refunded are terminal.
var ErrInvalidTransition = errors.New("invalid status transition")

// CanTransitionTo enforces the booking state machine:
// pending -> confirmed -> completed; pending|confirmed -> cancelled;
// cancelled -> refunded.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	case StatusCancelled:
		return next == StatusRefunded
	}
	return false
}

// Passenger appears on flight, train and cruise bookings.
type Passenger struct {
	Name            string `json:"name"`
	Age             int    `json:"age"`
	Gender          string `json:"gender"`
	SeatNumber      string `json:"seatNumber,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

// Stop is one end of a flight or train leg.  Place holds the airport
// or station name depending on the booking type.
type Stop struct {
	Place string     `json:"place"`
	City  string     `json:"city"`
	Date  *time.Time `json:"date,omitempty"`
	Time  string     `json:"time,omitempty"`
}

type FlightDetails struct {
	Airline      string      `json:"airline"`
	FlightNumber string      `json:"flightNumber"`
	Departure    Stop        `json:"departure"`
	Arrival      Stop        `json:"arrival"`
	Class        string      `json:"class,omitempty"`
	Passengers   []Passenger `json:"passengers,omitempty"`
}

type HotelDetails struct {
	Name     string     `json:"name"`
	Address  string     `json:"address,omitempty"`
	City     string     `json:"city"`
	CheckIn  *time.Time `json:"checkIn,omitempty"`
	CheckOut *time.Time `json:"checkOut,omitempty"`
	Rooms    int        `json:"rooms,omitempty"`
	Guests   int        `json:"guests,omitempty"`
	RoomType string     `json:"roomType,omitempty"`
}

type TrainDetails struct {
	TrainNumber string      `json:"trainNumber"`
	TrainName   string      `json:"trainName,omitempty"`
	Departure   Stop        `json:"departure"`
	Arrival     Stop        `json:"arrival"`
	Class       string      `json:"class,omitempty"`
	Passengers  []Passenger `json:"passengers,omitempty"`
}

type CarRentalDetails struct {
	CarType         string     `json:"carType"`
	PickupLocation  string     `json:"pickupLocation"`
	DropoffLocation string     `json:"dropoffLocation,omitempty"`
	PickupDate      *time.Time `json:"pickupDate,omitempty"`
	DropoffDate     *time.Time `json:"dropoffDate,omitempty"`
	DriverName      string     `json:"driverName,omitempty"`
	DriverLicense   string     `json:"driverLicense,omitempty"`
}

type TourPackageDetails struct {
	PackageName    string         `json:"packageName"`
	Destination    string         `json:"destination"`
	StartDate      *time.Time     `json:"startDate,omitempty"`
	EndDate        *time.Time     `json:"endDate,omitempty"`
	Travelers      int            `json:"travelers,omitempty"`
	PackageDetails map[string]any `json:"packageDetails,omitempty"`
}

type CruiseDetails struct {
	CruiseName    string      `json:"cruiseName"`
	ShipName      string      `json:"shipName,omitempty"`
	DeparturePort string      `json:"departurePort"`
	ArrivalPort   string      `json:"arrivalPort,omitempty"`
	DepartureDate *time.Time  `json:"departureDate,omitempty"`
	ArrivalDate   *time.Time  `json:"arrivalDate,omitempty"`
	CabinType     string      `json:"cabinType,omitempty"`
	Passengers    []Passenger `json:"passengers,omitempty"`
}

// BookingDetails is a tagged union keyed by Booking.Type: exactly one
// variant pointer is non-nil, and it must match the declared type.
// Validate enforces this on every write.
type BookingDetails struct {
	Flight      *FlightDetails      `json:"flight,omitempty"`
	Hotel       *HotelDetails       `json:"hotel,omitempty"`
	Train       *TrainDetails       `json:"train,omitempty"`
	CarRental   *CarRentalDetails   `json:"carRental,omitempty"`
	TourPackage *TourPackageDetails `json:"tourPackage,omitempty"`
	Cruise      *CruiseDetails      `json:"cruise,omitempty"`
}

// Validate checks that exactly one variant is populated and that it is
// the one matching t.
func (d BookingDetails) Validate(t BookingType) error {
	var set []BookingType
	if d.Flight != nil {
		set = append(set, TypeFlight)
	}
	if d.Hotel != nil {
		set = append(set, TypeHotel)
	}
	if d.Train != nil {
		set = append(set, TypeTrain)
	}
	if d.CarRental != nil {
		set = append(set, TypeCarRental)
	}
	if d.TourPackage != nil {
		set = append(set, TypeTourPackage)
	}
	if d.Cruise != nil {
		set = append(set, TypeCruise)
	}
	if len(set) != 1 {
		return fmt.Errorf("bookingDetails must carry exactly one variant, got %d", len(set))
	}
	if set[0] != t {
		return fmt.Errorf("bookingDetails variant %q does not match booking type %q", set[0], t)
	}
	return nil
}

// Pricing is the price breakdown.  TotalPrice is derived: it is
// recomputed from the other fields on every save and any
// client-supplied value is discarded.
type Pricing struct {
	BasePrice  float64 `json:"basePrice"`
	Taxes      float64 `json:"taxes"`
	Fees       float64 `json:"fees"`
	Discount   float64 `json:"discount"`
	TotalPrice float64 `json:"totalPrice"`
	Currency   string  `json:"currency"`
}

// Recalculate overwrites TotalPrice with base + taxes + fees - discount
// and returns the result.
func (p *Pricing) Recalculate() float64 {
	p.TotalPrice = p.BasePrice + p.Taxes + p.Fees - p.Discount
	return p.TotalPrice
}

// Payment records the payment attempt attached to a booking.  The
// fields exist for bookkeeping; settlement against a gateway is out of
// scope.
type Payment struct {
	Method        string     `json:"method,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	Status        string     `json:"status"`
}

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Cancellation bookkeeping, present only once a booking is cancelled.
type Cancellation struct {
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
	Reason       string     `json:"cancellationReason,omitempty"`
	RefundAmount float64    `json:"refundAmount"`
	RefundStatus string     `json:"refundStatus,omitempty"`
}

// Refund statuses for a cancellation.
const (
	RefundPending   = "pending"
	RefundProcessed = "processed"
	RefundCompleted = "completed"
)

// Booking mirrors the 'bookings' table.  Details, Payment and
// Cancellation are JSON columns.
type Booking struct {
	ID           uint64
	UserID       uint64
	Type         BookingType
	Status       BookingStatus
	Reference    string
	Details      BookingDetails
	Pricing      Pricing
	Payment      Payment
	Cancellation *Cancellation
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
