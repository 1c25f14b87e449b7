package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestBookingDuration(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"four night trip", "2025-01-01", "2025-01-05", 4},
		{"same day", "2025-01-01", "2025-01-01", 0},
		{"single night", "2025-01-01", "2025-01-02", 1},
		{"across month boundary", "2025-01-30", "2025-02-02", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := &Booking{
				StartDate: mustParse(t, tt.start),
				EndDate:   mustParse(t, tt.end),
			}
			assert.Equal(t, tt.want, booking.Duration())
		})
	}

	t.Run("partial day rounds up", func(t *testing.T) {
		start := mustParse(t, "2025-01-01")
		booking := &Booking{
			StartDate: start,
			EndDate:   start.Add(36 * time.Hour),
		}
		assert.Equal(t, 2, booking.Duration())
	})
}

func TestNewBookingReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewBookingReference()
		assert.Len(t, ref, 8)
		for _, ch := range ref {
			assert.True(t, strings.ContainsRune(referenceAlphabet, ch),
				"unexpected character %q in reference %s", ch, ref)
		}
		seen[ref] = true
	}
	// Ambiguous glyphs are excluded from the alphabet
	assert.NotContains(t, referenceAlphabet, "0")
	assert.NotContains(t, referenceAlphabet, "O")
	assert.NotContains(t, referenceAlphabet, "1")
	assert.NotContains(t, referenceAlphabet, "I")
	// 32^8 keyspace, collisions in 100 draws would be suspicious
	assert.Greater(t, len(seen), 95)
}

func TestAdditionalServicesTotal(t *testing.T) {
	assert.Equal(t, 0.0, AdditionalServices(nil).Total())
	services := AdditionalServices{
		{Name: "Insurance", Price: 50},
		{Name: "Airport Transfer", Price: 25.5},
	}
	assert.InDelta(t, 75.5, services.Total(), 0.001)
}

func TestMarshalServices(t *testing.T) {
	empty, err := AdditionalServices(nil).MarshalServices()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)

	services := AdditionalServices{{Name: "Insurance", Price: 50}}
	raw, err := services.MarshalServices()
	require.NoError(t, err)

	parsed, err := UnmarshalServices(raw)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "Insurance", parsed[0].Name)
	assert.Equal(t, 50.0, parsed[0].Price)

	none, err := UnmarshalServices("")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = UnmarshalServices("{not json")
	assert.Error(t, err)
}

func TestCheckoutSessionRequestValidate(t *testing.T) {
	valid := func() CheckoutSessionRequest {
		return CheckoutSessionRequest{
			StartDate: "2026-09-01",
			EndDate:   "2026-09-05",
			Adults:    2,
			Children:  1,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		req := valid()
		assert.NoError(t, req.Validate())
	})

	t.Run("Missing Dates", func(t *testing.T) {
		req := valid()
		req.StartDate = ""
		assert.ErrorContains(t, req.Validate(), "required")
	})

	t.Run("Bad Date Format", func(t *testing.T) {
		req := valid()
		req.StartDate = "09/01/2026"
		assert.ErrorContains(t, req.Validate(), "YYYY-MM-DD")
	})

	t.Run("End Before Start", func(t *testing.T) {
		req := valid()
		req.EndDate = "2026-08-30"
		assert.ErrorContains(t, req.Validate(), "must not be before")
	})

	t.Run("No Adults", func(t *testing.T) {
		req := valid()
		req.Adults = 0
		assert.ErrorContains(t, req.Validate(), "adults")
	})

	t.Run("Negative Children", func(t *testing.T) {
		req := valid()
		req.Children = -1
		assert.ErrorContains(t, req.Validate(), "children")
	})

	t.Run("Unnamed Service", func(t *testing.T) {
		req := valid()
		req.AdditionalServices = AdditionalServices{{Price: 10}}
		assert.ErrorContains(t, req.Validate(), "name")
	})

	t.Run("Negative Service Price", func(t *testing.T) {
		req := valid()
		req.AdditionalServices = AdditionalServices{{Name: "Spa", Price: -5}}
		assert.ErrorContains(t, req.Validate(), "negative")
	})
}

func TestDirectBookingRequestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		req := DirectBookingRequest{TravelDate: "2026-10-01", NumberOfTravelers: 2}
		assert.NoError(t, req.Validate())
	})

	t.Run("Missing Travel Date", func(t *testing.T) {
		req := DirectBookingRequest{NumberOfTravelers: 2}
		assert.ErrorContains(t, req.Validate(), "travel_date")
	})

	t.Run("Zero Travelers", func(t *testing.T) {
		req := DirectBookingRequest{TravelDate: "2026-10-01"}
		assert.ErrorContains(t, req.Validate(), "travelers")
	})
}

func TestUpdateBookingRequestValidate(t *testing.T) {
	status := BookingStatusConfirmed
	paymentStatus := PaymentStatusPaid

	t.Run("Valid Partial Update", func(t *testing.T) {
		req := UpdateBookingRequest{Status: &status, PaymentStatus: &paymentStatus}
		assert.NoError(t, req.Validate())
	})

	t.Run("Empty Update Allowed", func(t *testing.T) {
		req := UpdateBookingRequest{}
		assert.NoError(t, req.Validate())
	})

	t.Run("Unknown Status", func(t *testing.T) {
		bad := BookingStatus("lost")
		req := UpdateBookingRequest{Status: &bad}
		assert.Error(t, req.Validate())
	})

	t.Run("Unknown Payment Status", func(t *testing.T) {
		bad := PaymentStatus("maybe")
		req := UpdateBookingRequest{PaymentStatus: &bad}
		assert.Error(t, req.Validate())
	})

	t.Run("Bad Date", func(t *testing.T) {
		badDate := "next tuesday"
		req := UpdateBookingRequest{StartDate: &badDate}
		assert.Error(t, req.Validate())
	})

	t.Run("Zero Adults", func(t *testing.T) {
		adults := 0
		req := UpdateBookingRequest{Adults: &adults}
		assert.Error(t, req.Validate())
	})
}
