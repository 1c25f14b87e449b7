package services

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/roamtrails/travel-booking-backend/internal/config"
	"github.com/roamtrails/travel-booking-backend/internal/database"
	"github.com/roamtrails/travel-booking-backend/internal/models"
	"github.com/roamtrails/travel-booking-backend/pkg/mail"
)

const dateLayout = "2006-01-02"

// PaymentGateway abstracts the hosted checkout provider so the booking
// lifecycle can be tested without live gateway calls
type PaymentGateway interface {
	CreateCheckoutSession(params *CheckoutSessionParams) (*CheckoutSession, error)
	RetrieveSession(sessionID string) (*CheckoutSession, error)
	CreatePaymentIntent(params *PaymentIntentParams) (*PaymentIntent, error)
	ParseWebhookEvent(payload []byte, sigHeader string) (*WebhookEvent, error)
	IsPaid(session *CheckoutSession) bool
}

// CheckoutSessionResult is returned to the client after session creation.
// No booking exists yet at this point.
type CheckoutSessionResult struct {
	SessionID        string `json:"session_id"`
	CheckoutURL      string `json:"checkout_url"`
	BookingReference string `json:"booking_reference"`
}

// BookingService implements the booking lifecycle: gateway checkout,
// payment reconciliation, direct reserve-now-pay-later bookings,
// cancellation, admin updates and stats
type BookingService struct {
	bookings *database.BookingRepository
	packages *database.PackageRepository
	users    *database.UserRepository
	audits   *database.PaymentAuditRepository
	gateway  PaymentGateway
	mailer   mail.Sender
	bank     config.BankConfig
	logger   *logrus.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookings *database.BookingRepository,
	packages *database.PackageRepository,
	users *database.UserRepository,
	audits *database.PaymentAuditRepository,
	gateway PaymentGateway,
	mailer mail.Sender,
	bank config.BankConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		packages: packages,
		users:    users,
		audits:   audits,
		gateway:  gateway,
		mailer:   mailer,
		bank:     bank,
		logger:   logger,
	}
}

// ComputeTotal calculates the booking total: full price per adult, the child
// rate per child, plus any selected add-ons
func ComputeTotal(unitPrice float64, adults, children int, services models.AdditionalServices) float64 {
	return unitPrice*float64(adults) +
		unitPrice*models.ChildRate*float64(children) +
		services.Total()
}

// CreateCheckoutSession validates the request, prices it server-side and
// opens a hosted checkout session. The full booking context travels in the
// session metadata; nothing is persisted until payment is confirmed.
func (s *BookingService) CreateCheckoutSession(userID, packageID string, req *models.CheckoutSessionRequest) (*CheckoutSessionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewInvalidInput(err.Error())
	}

	pkg, err := s.packages.GetByID(packageID)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	if pkg == nil {
		return nil, models.NewNotFound("package not found")
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	if user == nil {
		return nil, models.NewNotFound("user not found")
	}

	total := ComputeTotal(pkg.Price, req.Adults, req.Children, req.AdditionalServices)

	servicesJSON, err := req.AdditionalServices.MarshalServices()
	if err != nil {
		return nil, models.NewInvalidInput("invalid additional services")
	}

	reference := models.NewBookingReference()

	params := &CheckoutSessionParams{
		BookingReference: reference,
		PackageID:        pkg.ID,
		PackageName:      pkg.Name,
		UserID:           user.ID.String(),
		CustomerEmail:    user.Email,
		Amount:           total,
		Metadata: map[string]string{
			"booking_reference":   reference,
			"package_id":          pkg.ID,
			"user_id":             user.ID.String(),
			"start_date":          req.StartDate,
			"end_date":            req.EndDate,
			"adults":              strconv.Itoa(req.Adults),
			"children":            strconv.Itoa(req.Children),
			"additional_services": servicesJSON,
			"special_requests":    req.SpecialRequests,
		},
	}

	session, err := s.gateway.CreateCheckoutSession(params)
	if err != nil {
		audit := models.NewPaymentAudit(models.PaymentEventError, models.PaymentSourceAPI)
		audit.SetError(err.Error())
		s.audits.Log(audit)
		return nil, models.NewGatewayError(err)
	}

	audit := models.NewPaymentAudit(models.PaymentEventSessionCreated, models.PaymentSourceAPI)
	audit.SetSession(session.ID)
	audit.ExpectedAmount = &total
	s.audits.Log(audit)

	s.logger.WithFields(logrus.Fields{
		"session_id":        session.ID,
		"booking_reference": reference,
		"package_id":        pkg.ID,
		"user_id":           userID,
		"total_amount":      total,
	}).Info("Checkout session created")

	return &CheckoutSessionResult{
		SessionID:        session.ID,
		CheckoutURL:      session.URL,
		BookingReference: reference,
	}, nil
}

// ReconcileSession handles the success redirect: the session is re-fetched
// from the gateway and, if paid, converted into a booking. Safe to call more
// than once for the same session.
func (s *BookingService) ReconcileSession(sessionID string) (*models.Booking, error) {
	if sessionID == "" {
		return nil, models.NewInvalidInput("session_id is required")
	}

	session, err := s.gateway.RetrieveSession(sessionID)
	if err != nil {
		return nil, models.NewGatewayError(err)
	}

	audit := models.NewPaymentAudit(models.PaymentEventSessionRetrieved, models.PaymentSourceRedirect)
	audit.SetSession(session.ID)
	s.audits.Log(audit)

	if !s.gateway.IsPaid(session) {
		audit := models.NewPaymentAudit(models.PaymentEventPaymentFailed, models.PaymentSourceRedirect)
		audit.SetSession(session.ID)
		audit.SetError(fmt.Sprintf("payment_status=%s", session.PaymentStatus))
		s.audits.Log(audit)
		return nil, models.NewPaymentNotSuccessful("payment has not completed for this session")
	}

	return s.finalizePaidSession(session, models.PaymentSourceRedirect)
}

// HandleWebhookEvent verifies and processes a gateway webhook delivery
func (s *BookingService) HandleWebhookEvent(payload []byte, sigHeader string) error {
	event, err := s.gateway.ParseWebhookEvent(payload, sigHeader)
	if err != nil {
		audit := models.NewPaymentAudit(models.PaymentEventWebhookRejected, models.PaymentSourceWebhook)
		audit.SetError(err.Error())
		audit.SetRawBody(string(payload))
		s.audits.Log(audit)
		return models.NewInvalidInput("webhook verification failed")
	}

	audit := models.NewPaymentAudit(models.PaymentEventWebhookReceived, models.PaymentSourceWebhook)
	audit.SetRawBody(string(payload))
	s.audits.Log(audit)

	switch event.Type {
	case "checkout.session.completed":
		var session CheckoutSession
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return models.NewInvalidInput("malformed checkout session payload")
		}
		if !s.gateway.IsPaid(&session) {
			s.logger.WithField("session_id", session.ID).Info("Ignoring unpaid session completion")
			return nil
		}
		_, err := s.finalizePaidSession(&session, models.PaymentSourceWebhook)
		return err

	case "payment_intent.succeeded":
		var intent PaymentIntent
		if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
			return models.NewInvalidInput("malformed payment intent payload")
		}
		return s.handlePaymentSuccess(&intent)

	case "payment_intent.payment_failed":
		var intent PaymentIntent
		if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
			return models.NewInvalidInput("malformed payment intent payload")
		}
		return s.handlePaymentFailure(&intent)

	default:
		s.logger.WithField("event_type", event.Type).Debug("Ignoring unhandled webhook event")
		return nil
	}
}

// finalizePaidSession converts a paid checkout session into a persisted
// booking. Duplicate deliveries return the already-created booking.
func (s *BookingService) finalizePaidSession(session *CheckoutSession, source models.PaymentEventSource) (*models.Booking, error) {
	paymentID := session.PaymentIntent
	if paymentID == "" {
		paymentID = session.ID
	}

	// Replays of the same payment must not create a second booking
	existing, err := s.bookings.GetByPaymentID(paymentID)
	if err == nil && existing != nil {
		audit := models.NewPaymentAudit(models.PaymentEventBookingCreated, source)
		audit.SetSession(session.ID).SetPaymentID(paymentID).SetBooking(existing.ID).MarkAsDuplicate()
		s.audits.Log(audit)

		s.logger.WithFields(logrus.Fields{
			"session_id": session.ID,
			"payment_id": paymentID,
			"booking_id": existing.ID,
		}).Info("Duplicate payment event, returning existing booking")
		return existing, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewPersistenceError(err)
	}

	booking, err := s.bookingFromSession(session, paymentID)
	if err != nil {
		audit := models.NewPaymentAudit(models.PaymentEventError, source)
		audit.SetSession(session.ID).SetError(err.Error())
		s.audits.Log(audit)
		return nil, err
	}

	// The gateway-verified amount must agree with the server-side pricing.
	// On mismatch the server-computed total stands and the event is audited.
	received := MinorUnitsToAmount(session.AmountTotal)
	successAudit := models.NewPaymentAudit(models.PaymentEventPaymentSucceeded, source)
	successAudit.SetSession(session.ID).SetPaymentID(paymentID)
	if !successAudit.SetAmounts(booking.TotalAmount, received) {
		mismatch := models.NewPaymentAudit(models.PaymentEventReconciliationMismatch, source)
		mismatch.SetSession(session.ID).SetPaymentID(paymentID)
		mismatch.SetAmounts(booking.TotalAmount, received)
		s.audits.Log(mismatch)

		s.logger.WithFields(logrus.Fields{
			"session_id": session.ID,
			"expected":   booking.TotalAmount,
			"received":   received,
		}).Warn("Amount mismatch during reconciliation, server-computed total wins")
	}
	s.audits.Log(successAudit)

	if err := s.bookings.Create(booking); err != nil {
		// A concurrent delivery may have won the race on the unique payment_id
		if existing, lookupErr := s.bookings.GetByPaymentID(paymentID); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, models.NewPersistenceError(err)
	}

	createdAudit := models.NewPaymentAudit(models.PaymentEventBookingCreated, source)
	createdAudit.SetSession(session.ID).SetPaymentID(paymentID).SetBooking(booking.ID)
	s.audits.Log(createdAudit)

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"session_id":        session.ID,
		"payment_id":        paymentID,
	}).Info("Booking created from paid session")

	s.sendBookingEmail(booking, "Booking confirmed",
		fmt.Sprintf("Your booking %s is confirmed and paid. Total: %.2f.", booking.BookingReference, booking.TotalAmount))

	return booking, nil
}

// bookingFromSession rebuilds the booking from session metadata and reprices
// it against the current catalog
func (s *BookingService) bookingFromSession(session *CheckoutSession, paymentID string) (*models.Booking, error) {
	meta := session.Metadata

	packageID := meta["package_id"]
	userID := meta["user_id"]
	if packageID == "" || userID == "" {
		return nil, models.NewInvalidInput("session metadata missing booking context")
	}

	pkg, err := s.packages.GetByID(packageID)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	if pkg == nil {
		return nil, models.NewNotFound("package not found")
	}

	startDate, err := time.Parse(dateLayout, meta["start_date"])
	if err != nil {
		return nil, models.NewInvalidInput("invalid start_date in session metadata")
	}
	endDate, err := time.Parse(dateLayout, meta["end_date"])
	if err != nil {
		return nil, models.NewInvalidInput("invalid end_date in session metadata")
	}

	adults, err := strconv.Atoi(meta["adults"])
	if err != nil || adults < 1 {
		return nil, models.NewInvalidInput("invalid adults in session metadata")
	}
	children, _ := strconv.Atoi(meta["children"])

	services, err := models.UnmarshalServices(meta["additional_services"])
	if err != nil {
		return nil, models.NewInvalidInput("invalid additional services in session metadata")
	}

	reference := meta["booking_reference"]
	if reference == "" {
		reference = session.ClientReferenceID
	}

	booking := &models.Booking{
		BookingReference:   reference,
		PackageID:          pkg.ID,
		UserID:             userID,
		Price:              pkg.Price,
		TotalAmount:        ComputeTotal(pkg.Price, adults, children, services),
		AdditionalServices: services,
		StartDate:          startDate,
		EndDate:            endDate,
		Adults:             adults,
		Children:           children,
		Status:             models.BookingStatusConfirmed,
		PaymentStatus:      models.PaymentStatusPaid,
		PaymentMethod:      models.PaymentMethodCreditCard,
		PaymentID:          &paymentID,
	}

	if sr := meta["special_requests"]; sr != "" {
		booking.SpecialRequests = &sr
	}

	return booking, nil
}

// handlePaymentSuccess settles a succeeded payment intent against the booking
// it was opened for. Pay-later bookings settled through the payment element
// carry their booking reference in the intent metadata.
func (s *BookingService) handlePaymentSuccess(intent *PaymentIntent) error {
	audit := models.NewPaymentAudit(models.PaymentEventPaymentSucceeded, models.PaymentSourceWebhook)
	audit.SetPaymentID(intent.ID)
	s.audits.Log(audit)

	booking, err := s.resolveIntentBooking(intent)
	if err != nil {
		return err
	}
	if booking == nil {
		s.logger.WithField("payment_id", intent.ID).Info("Payment success for unknown payment, nothing to update")
		return nil
	}
	if booking.PaymentStatus == models.PaymentStatusPaid {
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"payment_id": intent.ID,
		}).Info("Booking already paid, ignoring replayed payment success")
		return nil
	}

	if err := s.bookings.UpdatePaymentStatus(booking.ID, models.PaymentStatusPaid, &intent.ID); err != nil {
		return models.NewPersistenceError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"payment_id": intent.ID,
	}).Info("Booking payment marked as paid")

	s.sendBookingEmail(booking, "Payment received",
		fmt.Sprintf("We received your payment for booking %s. Total: %.2f.", booking.BookingReference, booking.TotalAmount))

	return nil
}

// handlePaymentFailure marks the booking behind a failed payment intent
func (s *BookingService) handlePaymentFailure(intent *PaymentIntent) error {
	audit := models.NewPaymentAudit(models.PaymentEventPaymentFailed, models.PaymentSourceWebhook)
	audit.SetPaymentID(intent.ID)
	if intent.LastPaymentError != nil {
		audit.SetError(intent.LastPaymentError.Message)
	}
	s.audits.Log(audit)

	booking, err := s.resolveIntentBooking(intent)
	if err != nil {
		return err
	}
	if booking == nil {
		// Checkout sessions only create bookings after successful payment,
		// so a failed intent without a booking reference has nothing to update
		s.logger.WithField("payment_id", intent.ID).Info("Payment failure for unknown payment, nothing to update")
		return nil
	}

	if err := s.bookings.UpdatePaymentStatus(booking.ID, models.PaymentStatusFailed, nil); err != nil {
		return models.NewPersistenceError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"payment_id": intent.ID,
	}).Warn("Booking payment marked as failed")

	return nil
}

// resolveIntentBooking finds the booking behind a payment intent, first by
// the stored payment id and then by the booking reference carried in the
// intent metadata. Returns nil when neither matches a booking.
func (s *BookingService) resolveIntentBooking(intent *PaymentIntent) (*models.Booking, error) {
	booking, err := s.bookings.GetByPaymentID(intent.ID)
	if err == nil && booking != nil {
		return booking, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewPersistenceError(err)
	}

	reference := intent.Metadata["booking_reference"]
	if reference == "" {
		return nil, nil
	}

	booking, err = s.bookings.GetByReference(reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WithFields(logrus.Fields{
				"payment_id":        intent.ID,
				"booking_reference": reference,
			}).Warn("Payment intent references a booking that does not exist")
			return nil, nil
		}
		return nil, models.NewPersistenceError(err)
	}
	return booking, nil
}

// GetSessionAudits returns the audit trail recorded for a checkout session,
// oldest first
func (s *BookingService) GetSessionAudits(sessionID string) ([]models.PaymentAudit, error) {
	if sessionID == "" {
		return nil, models.NewInvalidInput("session id is required")
	}

	audits, err := s.audits.GetBySessionID(sessionID)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	return audits, nil
}

// CreatePaymentIntent prices the request server-side and opens a bare
// payment intent for client-rendered payment forms. When the request names
// an existing booking, the intent metadata carries its reference so the
// success webhook can settle the booking.
func (s *BookingService) CreatePaymentIntent(userID string, req *models.PaymentIntentRequest) (*PaymentIntent, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewInvalidInput(err.Error())
	}

	pkg, err := s.packages.GetByID(req.PackageID)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	if pkg == nil {
		return nil, models.NewNotFound("package not found")
	}

	total := ComputeTotal(pkg.Price, req.Adults, req.Children, req.AdditionalServices)

	metadata := map[string]string{
		"package_id": pkg.ID,
		"user_id":    userID,
	}
	if req.BookingReference != "" {
		booking, err := s.bookings.GetByReference(req.BookingReference)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, models.NewNotFound("booking not found")
			}
			return nil, models.NewPersistenceError(err)
		}
		if booking.UserID != userID {
			return nil, models.NewForbidden("you can only pay for your own bookings")
		}
		metadata["booking_reference"] = booking.BookingReference
	}

	intent, err := s.gateway.CreatePaymentIntent(&PaymentIntentParams{
		Amount:   total,
		Metadata: metadata,
	})
	if err != nil {
		return nil, models.NewGatewayError(err)
	}

	return intent, nil
}

// CreateDirectBooking creates a reserve-now-pay-later booking: the booking is
// confirmed immediately, payment stays pending until the manual bank transfer
// clears, and the response carries a QR code plus transfer instructions
func (s *BookingService) CreateDirectBooking(userID, packageID string, req *models.DirectBookingRequest) (*models.DirectBookingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewInvalidInput(err.Error())
	}

	pkg, err := s.packages.GetByID(packageID)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	if pkg == nil {
		return nil, models.NewNotFound("package not found")
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	if user == nil {
		return nil, models.NewNotFound("user not found")
	}

	startDate, _ := time.Parse(dateLayout, req.TravelDate)
	endDate := startDate.AddDate(0, 0, pkg.Duration)

	total := pkg.Price * float64(req.NumberOfTravelers)

	booking := &models.Booking{
		BookingReference: models.NewBookingReference(),
		PackageID:        pkg.ID,
		UserID:           userID,
		Price:            pkg.Price,
		TotalAmount:      total,
		StartDate:        startDate,
		EndDate:          endDate,
		Adults:           req.NumberOfTravelers,
		Children:         0,
		Status:           models.BookingStatusConfirmed,
		PaymentStatus:    models.PaymentStatusPending,
		PaymentMethod:    models.PaymentMethodBankTransfer,
	}
	if req.SpecialRequests != "" {
		booking.SpecialRequests = &req.SpecialRequests
	}

	if err := s.bookings.Create(booking); err != nil {
		return nil, models.NewPersistenceError(err)
	}

	audit := models.NewPaymentAudit(models.PaymentEventBookingCreated, models.PaymentSourceBackend)
	audit.SetBooking(booking.ID)
	audit.ExpectedAmount = &total
	s.audits.Log(audit)

	qrCode, err := s.generateBookingQR(booking, pkg.Name)
	if err != nil {
		// The booking exists either way; the client can re-request the code
		s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to generate booking QR code")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"package_id":        pkg.ID,
		"user_id":           userID,
		"total_amount":      total,
	}).Info("Direct booking created")

	s.sendBookingEmail(booking, "Booking received",
		fmt.Sprintf("Your booking %s is reserved. Please transfer %.2f to %s (%s, account %s) using reference %s.",
			booking.BookingReference, total, s.bank.AccountName, s.bank.BankName, s.bank.AccountNumber, booking.BookingReference))

	return &models.DirectBookingResponse{
		Booking: booking,
		QRCode:  qrCode,
		PaymentInstructions: models.PaymentInstructions{
			Amount:        total,
			Reference:     booking.BookingReference,
			AccountName:   s.bank.AccountName,
			AccountNumber: s.bank.AccountNumber,
			BankName:      s.bank.BankName,
		},
	}, nil
}

// generateBookingQR renders the booking summary as a PNG QR code data URL
func (s *BookingService) generateBookingQR(booking *models.Booking, packageName string) (string, error) {
	content, err := json.Marshal(map[string]interface{}{
		"booking_reference": booking.BookingReference,
		"package":           packageName,
		"travel_date":       booking.StartDate.Format(dateLayout),
		"travelers":         booking.Adults,
		"total_amount":      booking.TotalAmount,
	})
	if err != nil {
		return "", err
	}

	png, err := qrcode.Encode(string(content), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// CancelBooking cancels a booking on behalf of its owner or an admin
func (s *BookingService) CancelBooking(bookingID, actorID, actorRole string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFound("booking not found")
		}
		return nil, models.NewPersistenceError(err)
	}

	if booking.UserID != actorID && actorRole != models.RoleAdmin {
		return nil, models.NewForbidden("you can only cancel your own bookings")
	}

	if booking.IsCancelled() {
		return nil, models.NewConflict("booking is already cancelled")
	}

	if err := s.bookings.UpdateStatus(booking.ID, models.BookingStatusCancelled); err != nil {
		return nil, models.NewPersistenceError(err)
	}
	booking.Status = models.BookingStatusCancelled

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"actor_id":   actorID,
		"actor_role": actorRole,
	}).Info("Booking cancelled")

	s.sendBookingEmail(booking, "Booking cancelled",
		fmt.Sprintf("Your booking %s has been cancelled.", booking.BookingReference))

	return booking, nil
}

// AdminUpdateBooking applies a validated partial update and notifies the
// customer of the new status
func (s *BookingService) AdminUpdateBooking(bookingID string, req *models.UpdateBookingRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, models.NewInvalidInput(err.Error())
	}

	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFound("booking not found")
		}
		return nil, models.NewPersistenceError(err)
	}

	if req.Status != nil {
		booking.Status = *req.Status
	}
	if req.PaymentStatus != nil {
		booking.PaymentStatus = *req.PaymentStatus
	}
	if req.StartDate != nil {
		startDate, _ := time.Parse(dateLayout, *req.StartDate)
		booking.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, _ := time.Parse(dateLayout, *req.EndDate)
		booking.EndDate = endDate
	}
	if req.Adults != nil {
		booking.Adults = *req.Adults
	}
	if req.Children != nil {
		booking.Children = *req.Children
	}
	if req.SpecialRequests != nil {
		booking.SpecialRequests = req.SpecialRequests
	}

	if booking.EndDate.Before(booking.StartDate) {
		return nil, models.NewInvalidInput("end_date must not be before start_date")
	}

	if err := s.bookings.Update(booking); err != nil {
		return nil, models.NewPersistenceError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"status":     booking.Status,
	}).Info("Booking updated by admin")

	s.sendBookingEmail(booking, "Booking updated",
		fmt.Sprintf("Your booking %s has been updated. Current status: %s.", booking.BookingReference, booking.Status))

	return booking, nil
}

// GetBooking returns a booking readable by its owner or an admin
func (s *BookingService) GetBooking(bookingID, actorID, actorRole string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFound("booking not found")
		}
		return nil, models.NewPersistenceError(err)
	}

	if booking.UserID != actorID && actorRole != models.RoleAdmin {
		return nil, models.NewForbidden("you can only view your own bookings")
	}

	return booking, nil
}

// ListUserBookings returns the caller's bookings, newest first
func (s *BookingService) ListUserBookings(userID string) ([]models.Booking, error) {
	bookings, err := s.bookings.GetByUserID(userID)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	return bookings, nil
}

// ListAllBookings returns every booking, newest first
func (s *BookingService) ListAllBookings() ([]models.Booking, error) {
	bookings, err := s.bookings.GetAll()
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	return bookings, nil
}

// GetMonthlyStats returns the per-month booking counts and revenue,
// excluding cancelled bookings
func (s *BookingService) GetMonthlyStats() ([]models.MonthlyBookingStat, error) {
	stats, err := s.bookings.GetMonthlyStats()
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	return stats, nil
}

// sendBookingEmail delivers a notification to the booking owner.
// Mail failures are logged and never fail the booking operation.
func (s *BookingService) sendBookingEmail(booking *models.Booking, subject, body string) {
	if s.mailer == nil {
		return
	}

	user, err := s.users.GetByID(booking.UserID)
	if err != nil || user == nil {
		s.logger.WithField("user_id", booking.UserID).Warn("Could not resolve booking owner for email")
		return
	}

	if _, err := s.mailer.Send(mail.Message{
		To:      user.Email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"to":         user.Email,
		}).Error("Failed to send booking email")
	}
}
