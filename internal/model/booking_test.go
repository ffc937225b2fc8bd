package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPricingRecalculate(t *testing.T) {
	p := Pricing{BasePrice: 4000, Taxes: 500, Fees: 100, Discount: 200, TotalPrice: 1}

	total := p.Recalculate()
	require.Equal(t, 4400.0, total)
	require.Equal(t, 4400.0, p.TotalPrice, "client-supplied total is discarded")
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusRefunded, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusRefunded, true},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusRefunded, false},
		{StatusRefunded, StatusPending, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestBookingTypeValid(t *testing.T) {
	for _, typ := range []BookingType{TypeFlight, TypeHotel, TypeTrain, TypeCarRental, TypeTourPackage, TypeCruise} {
		require.True(t, typ.Valid())
	}
	require.False(t, BookingType("spaceship").Valid())
	require.False(t, BookingType("").Valid())
}

func TestBookingDetailsValidate(t *testing.T) {
	flight := &FlightDetails{Airline: "IndiGo", FlightNumber: "6E-204"}
	hotel := &HotelDetails{Name: "Taj Palace", City: "Mumbai"}

	t.Run("empty union", func(t *testing.T) {
		require.Error(t, BookingDetails{}.Validate(TypeFlight))
	})

	t.Run("two variants", func(t *testing.T) {
		d := BookingDetails{Flight: flight, Hotel: hotel}
		require.Error(t, d.Validate(TypeFlight))
	})

	t.Run("variant does not match type", func(t *testing.T) {
		d := BookingDetails{Hotel: hotel}
		require.Error(t, d.Validate(TypeFlight))
	})

	t.Run("matching variant", func(t *testing.T) {
		require.NoError(t, BookingDetails{Flight: flight}.Validate(TypeFlight))
		require.NoError(t, BookingDetails{Hotel: hotel}.Validate(TypeHotel))
	})
}
