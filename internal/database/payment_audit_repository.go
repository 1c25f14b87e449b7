package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/roamtrails/travel-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new payment audit entry. Payment events must always be
// recorded, so a failure here is logged at error level before returning.
func (r *PaymentAuditRepository) Log(audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, booking_id, session_id, payment_id,
			event_type, event_source,
			expected_amount, received_amount, amounts_match,
			raw_body, error_message, is_duplicate,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := r.db.Exec(query,
		audit.ID, audit.BookingID, audit.SessionID, audit.PaymentID,
		audit.EventType, audit.EventSource,
		audit.ExpectedAmount, audit.ReceivedAmount, audit.AmountsMatch,
		audit.RawBody, audit.ErrorMessage, audit.IsDuplicate,
		audit.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": audit.EventType,
			"session_id": audit.SessionID,
		}).Error("Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	return nil
}

// GetBySessionID retrieves all audit entries for a checkout session
func (r *PaymentAuditRepository) GetBySessionID(sessionID string) ([]models.PaymentAudit, error) {
	query := `
		SELECT id, booking_id, session_id, payment_id,
			   event_type, event_source,
			   expected_amount, received_amount, amounts_match,
			   raw_body, error_message, is_duplicate, created_at
		FROM payment_audits
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audits by session: %w", err)
	}
	defer rows.Close()

	audits := make([]models.PaymentAudit, 0)
	for rows.Next() {
		var audit models.PaymentAudit
		if err := rows.Scan(
			&audit.ID, &audit.BookingID, &audit.SessionID, &audit.PaymentID,
			&audit.EventType, &audit.EventSource,
			&audit.ExpectedAmount, &audit.ReceivedAmount, &audit.AmountsMatch,
			&audit.RawBody, &audit.ErrorMessage, &audit.IsDuplicate, &audit.CreatedAt,
		); err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}

	return audits, rows.Err()
}
