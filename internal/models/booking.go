package models

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"time"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// PaymentMethod represents how a booking is paid for
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

// ChildRate is the fraction of the adult unit price charged per child
const ChildRate = 0.7

// AdditionalService is an optional add-on priced on top of the package
type AdditionalService struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

// AdditionalServices is stored as a JSONB column
type AdditionalServices []AdditionalService

// Total sums the add-on prices
func (s AdditionalServices) Total() float64 {
	var total float64
	for _, svc := range s {
		total += svc.Price
	}
	return total
}

// Booking represents a reservation against a travel package
type Booking struct {
	ID                 string             `json:"id" db:"id"`
	BookingReference   string             `json:"booking_reference" db:"booking_reference"`
	PackageID          string             `json:"package_id" db:"package_id"`
	UserID             string             `json:"user_id" db:"user_id"`
	Price              float64            `json:"price" db:"price"`
	TotalAmount        float64            `json:"total_amount" db:"total_amount"`
	AdditionalServices AdditionalServices `json:"additional_services,omitempty" db:"additional_services"`
	StartDate          time.Time          `json:"start_date" db:"start_date"`
	EndDate            time.Time          `json:"end_date" db:"end_date"`
	Adults             int                `json:"adults" db:"adults"`
	Children           int                `json:"children" db:"children"`
	SpecialRequests    *string            `json:"special_requests,omitempty" db:"special_requests"`
	Status             BookingStatus      `json:"status" db:"status"`
	PaymentStatus      PaymentStatus      `json:"payment_status" db:"payment_status"`
	PaymentMethod      PaymentMethod      `json:"payment_method" db:"payment_method"`
	PaymentID          *string            `json:"payment_id,omitempty" db:"payment_id"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// Duration returns the trip length in days, rounded up
func (b *Booking) Duration() int {
	d := b.EndDate.Sub(b.StartDate)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// IsCancelled reports whether the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// MarshalServices serializes the add-ons for session metadata and storage
func (s AdditionalServices) MarshalServices() (string, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalServices parses a serialized add-on list
func UnmarshalServices(raw string) (AdditionalServices, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var services AdditionalServices
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return nil, err
	}
	return services, nil
}

// CheckoutSessionRequest is the payload for starting a gateway checkout
type CheckoutSessionRequest struct {
	StartDate          string             `json:"start_date" binding:"required"`
	EndDate            string             `json:"end_date" binding:"required"`
	Adults             int                `json:"adults" binding:"required,min=1"`
	Children           int                `json:"children"`
	AdditionalServices AdditionalServices `json:"additional_services,omitempty"`
	SpecialRequests    string             `json:"special_requests,omitempty"`
}

// Validate validates the checkout session request
func (r *CheckoutSessionRequest) Validate() error {
	if r.StartDate == "" || r.EndDate == "" {
		return errors.New("start_date and end_date are required")
	}
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return errors.New("start_date must be in YYYY-MM-DD format")
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return errors.New("end_date must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return errors.New("end_date must not be before start_date")
	}
	if r.Adults < 1 {
		return errors.New("adults must be at least 1")
	}
	if r.Children < 0 {
		return errors.New("children must not be negative")
	}
	for _, svc := range r.AdditionalServices {
		if svc.Name == "" {
			return errors.New("additional services must have a name")
		}
		if svc.Price < 0 {
			return errors.New("additional service prices must not be negative")
		}
	}
	return nil
}

// DirectBookingRequest is the payload for the reserve-now-pay-later flow
type DirectBookingRequest struct {
	TravelDate        string `json:"travel_date" binding:"required"`
	NumberOfTravelers int    `json:"number_of_travelers" binding:"required,min=1"`
	SpecialRequests   string `json:"special_requests,omitempty"`
}

// Validate validates the direct booking request
func (r *DirectBookingRequest) Validate() error {
	if r.TravelDate == "" {
		return errors.New("travel_date is required")
	}
	if _, err := time.Parse("2006-01-02", r.TravelDate); err != nil {
		return errors.New("travel_date must be in YYYY-MM-DD format")
	}
	if r.NumberOfTravelers < 1 {
		return errors.New("number_of_travelers must be at least 1")
	}
	return nil
}

// PaymentIntentRequest is the payload for client-side payment elements that
// need a bare payment intent instead of a hosted checkout page
type PaymentIntentRequest struct {
	PackageID          string             `json:"package_id" binding:"required"`
	Adults             int                `json:"adults" binding:"required,min=1"`
	Children           int                `json:"children"`
	AdditionalServices AdditionalServices `json:"additional_services,omitempty"`
	BookingReference   string             `json:"booking_reference,omitempty"`
}

// Validate validates the payment intent request
func (r *PaymentIntentRequest) Validate() error {
	if r.PackageID == "" {
		return errors.New("package_id is required")
	}
	if r.Adults < 1 {
		return errors.New("adults must be at least 1")
	}
	if r.Children < 0 {
		return errors.New("children must not be negative")
	}
	for _, svc := range r.AdditionalServices {
		if svc.Name == "" {
			return errors.New("additional services must have a name")
		}
		if svc.Price < 0 {
			return errors.New("additional service prices must not be negative")
		}
	}
	return nil
}

// UpdateBookingRequest is the admin partial update payload
type UpdateBookingRequest struct {
	Status          *BookingStatus `json:"status,omitempty"`
	PaymentStatus   *PaymentStatus `json:"payment_status,omitempty"`
	StartDate       *string        `json:"start_date,omitempty"`
	EndDate         *string        `json:"end_date,omitempty"`
	Adults          *int           `json:"adults,omitempty"`
	Children        *int           `json:"children,omitempty"`
	SpecialRequests *string        `json:"special_requests,omitempty"`
}

// Validate validates the admin update request
func (r *UpdateBookingRequest) Validate() error {
	if r.Status != nil {
		switch *r.Status {
		case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		default:
			return errors.New("invalid booking status")
		}
	}
	if r.PaymentStatus != nil {
		switch *r.PaymentStatus {
		case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusFailed:
		default:
			return errors.New("invalid payment status")
		}
	}
	if r.StartDate != nil {
		if _, err := time.Parse("2006-01-02", *r.StartDate); err != nil {
			return errors.New("start_date must be in YYYY-MM-DD format")
		}
	}
	if r.EndDate != nil {
		if _, err := time.Parse("2006-01-02", *r.EndDate); err != nil {
			return errors.New("end_date must be in YYYY-MM-DD format")
		}
	}
	if r.Adults != nil && *r.Adults < 1 {
		return errors.New("adults must be at least 1")
	}
	if r.Children != nil && *r.Children < 0 {
		return errors.New("children must not be negative")
	}
	return nil
}

// MonthlyBookingStat is one row of the admin stats aggregation
type MonthlyBookingStat struct {
	Month        int     `json:"month" db:"month"`
	NumBookings  int     `json:"num_bookings" db:"num_bookings"`
	TotalRevenue float64 `json:"total_revenue" db:"total_revenue"`
}

// PaymentInstructions carries the manual bank transfer details for a
// reserve-now-pay-later booking
type PaymentInstructions struct {
	Amount        float64 `json:"amount"`
	Reference     string  `json:"reference"`
	AccountName   string  `json:"account_name"`
	AccountNumber string  `json:"account_number"`
	BankName      string  `json:"bank_name"`
}

// DirectBookingResponse is returned by the reserve-now-pay-later flow
type DirectBookingResponse struct {
	Booking             *Booking            `json:"booking"`
	QRCode              string              `json:"qr_code"`
	PaymentInstructions PaymentInstructions `json:"payment_details"`
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewBookingReference generates an 8-character human-readable booking code.
// Ambiguous characters (0/O, 1/I) are excluded.
func NewBookingReference() string {
	ref := make([]byte, 8)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range ref {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			ref[i] = referenceAlphabet[i%len(referenceAlphabet)]
			continue
		}
		ref[i] = referenceAlphabet[n.Int64()]
	}
	return string(ref)
}
