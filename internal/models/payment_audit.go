package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventSessionCreated         PaymentEventType = "session_created"
	PaymentEventSessionRetrieved       PaymentEventType = "session_retrieved"
	PaymentEventWebhookReceived        PaymentEventType = "webhook_received"
	PaymentEventWebhookRejected        PaymentEventType = "webhook_rejected"
	PaymentEventPaymentSucceeded       PaymentEventType = "payment_succeeded"
	PaymentEventPaymentFailed          PaymentEventType = "payment_failed"
	PaymentEventBookingCreated         PaymentEventType = "booking_created"
	PaymentEventReconciliationMismatch PaymentEventType = "reconciliation_mismatch"
	PaymentEventError                  PaymentEventType = "error"
)

// PaymentEventSource identifies where the event originated
type PaymentEventSource string

const (
	PaymentSourceBackend  PaymentEventSource = "backend"
	PaymentSourceWebhook  PaymentEventSource = "gateway_webhook"
	PaymentSourceRedirect PaymentEventSource = "gateway_redirect"
	PaymentSourceAPI      PaymentEventSource = "gateway_api"
)

// PaymentAudit is an immutable log entry for every payment interaction.
// Amount mismatches and duplicate deliveries are recorded here so the
// reconciliation path can be replayed after the fact.
type PaymentAudit struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID *string   `json:"booking_id,omitempty" db:"booking_id"`
	SessionID *string   `json:"session_id,omitempty" db:"session_id"`
	PaymentID *string   `json:"payment_id,omitempty" db:"payment_id"`

	EventType   PaymentEventType   `json:"event_type" db:"event_type"`
	EventSource PaymentEventSource `json:"event_source" db:"event_source"`

	ExpectedAmount *float64 `json:"expected_amount,omitempty" db:"expected_amount"`
	ReceivedAmount *float64 `json:"received_amount,omitempty" db:"received_amount"`
	AmountsMatch   *bool    `json:"amounts_match,omitempty" db:"amounts_match"`

	RawBody      *string `json:"raw_body,omitempty" db:"raw_body"`
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`
	IsDuplicate  bool    `json:"is_duplicate" db:"is_duplicate"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewPaymentAudit creates a new payment audit entry with required fields
func NewPaymentAudit(eventType PaymentEventType, source PaymentEventSource) *PaymentAudit {
	return &PaymentAudit{
		ID:          uuid.New(),
		EventType:   eventType,
		EventSource: source,
		CreatedAt:   time.Now(),
	}
}

// SetBooking sets the booking ID for the audit
func (pa *PaymentAudit) SetBooking(bookingID string) *PaymentAudit {
	pa.BookingID = &bookingID
	return pa
}

// SetSession sets the gateway checkout session ID
func (pa *PaymentAudit) SetSession(sessionID string) *PaymentAudit {
	pa.SessionID = &sessionID
	return pa
}

// SetPaymentID sets the gateway payment (transaction) ID
func (pa *PaymentAudit) SetPaymentID(paymentID string) *PaymentAudit {
	pa.PaymentID = &paymentID
	return pa
}

// SetAmounts records expected vs received amounts and returns whether they match
func (pa *PaymentAudit) SetAmounts(expected, received float64) bool {
	pa.ExpectedAmount = &expected
	pa.ReceivedAmount = &received

	// Compare with tolerance for floating point
	const tolerance = 0.01
	match := abs(expected-received) < tolerance
	pa.AmountsMatch = &match
	return match
}

// SetError sets error information
func (pa *PaymentAudit) SetError(message string) *PaymentAudit {
	pa.ErrorMessage = &message
	return pa
}

// SetRawBody stores the raw payload before parsing
func (pa *PaymentAudit) SetRawBody(body string) *PaymentAudit {
	pa.RawBody = &body
	return pa
}

// MarkAsDuplicate marks this event as a replayed delivery
func (pa *PaymentAudit) MarkAsDuplicate() *PaymentAudit {
	pa.IsDuplicate = true
	return pa
}

// abs returns absolute value of float64
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
