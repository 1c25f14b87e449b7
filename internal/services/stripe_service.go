package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roamtrails/travel-booking-backend/internal/config"
)

// webhookTolerance is the maximum accepted age of a signed webhook payload.
// Events older than this are rejected to limit replay attacks.
const webhookTolerance = 5 * time.Minute

// StripeService handles payment integration with Stripe Checkout
type StripeService struct {
	config *config.StripeConfig
	logger *logrus.Logger
	client *http.Client
}

// CheckoutSession represents a Stripe Checkout Session object
type CheckoutSession struct {
	ID                string            `json:"id"`
	Object            string            `json:"object"`
	AmountTotal       int64             `json:"amount_total"` // smallest currency unit
	Currency          string            `json:"currency"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email"`
	Metadata          map[string]string `json:"metadata"`
	PaymentIntent     string            `json:"payment_intent"`
	PaymentStatus     string            `json:"payment_status"` // paid, unpaid, no_payment_required
	Status            string            `json:"status"`         // open, complete, expired
	URL               string            `json:"url"`
}

// PaymentIntent represents a Stripe PaymentIntent object
type PaymentIntent struct {
	ID           string            `json:"id"`
	Object       string            `json:"object"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
	Status       string            `json:"status"`
	LastPaymentError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// WebhookEvent represents a Stripe event delivered to the webhook endpoint
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
	Created int64 `json:"created"`
}

// stripeError represents the error envelope returned by the Stripe API
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CheckoutSessionParams contains all parameters needed to create a checkout session
type CheckoutSessionParams struct {
	BookingReference string
	PackageID        string
	PackageName      string
	UserID           string
	CustomerEmail    string
	Amount           float64 // major currency units
	Metadata         map[string]string
}

// PaymentIntentParams contains parameters for a direct PaymentIntent
type PaymentIntentParams struct {
	Amount   float64
	Metadata map[string]string
}

// NewStripeService creates a new Stripe payment service
func NewStripeService(cfg *config.StripeConfig, logger *logrus.Logger) *StripeService {
	return &StripeService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if the payment gateway is properly configured
func (s *StripeService) IsConfigured() bool {
	return s.config.SecretKey != ""
}

// AmountToMinorUnits converts a major-unit amount to the smallest currency unit
func AmountToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// MinorUnitsToAmount converts a smallest-currency-unit amount back to major units
func MinorUnitsToAmount(minor int64) float64 {
	return float64(minor) / 100
}

// CreateCheckoutSession creates a hosted Checkout Session and returns it.
// The session carries the booking reference as client_reference_id and the
// full booking context in metadata so the webhook can create the booking
// without any server-side session storage.
func (s *StripeService) CreateCheckoutSession(params *CheckoutSessionParams) (*CheckoutSession, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("payment gateway not configured: missing secret key")
	}

	successURL := fmt.Sprintf("%s/booking/success?session_id={CHECKOUT_SESSION_ID}", s.config.ClientBaseURL)
	cancelURL := fmt.Sprintf("%s/packages/%s", s.config.ClientBaseURL, params.PackageID)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("client_reference_id", params.BookingReference)
	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}
	form.Set("line_items[0][price_data][currency]", s.config.Currency)
	form.Set("line_items[0][price_data][product_data][name]", params.PackageName)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(AmountToMinorUnits(params.Amount), 10))
	form.Set("line_items[0][quantity]", "1")
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_reference": params.BookingReference,
		"package_id":        params.PackageID,
		"amount":            params.Amount,
		"currency":          s.config.Currency,
	}).Info("Creating Stripe checkout session")

	var session CheckoutSession
	if err := s.doRequest(http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}

	if session.URL == "" {
		return nil, fmt.Errorf("checkout session creation failed: no payment page URL returned")
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":        session.ID,
		"booking_reference": params.BookingReference,
	}).Info("Stripe checkout session created")

	return &session, nil
}

// RetrieveSession fetches a Checkout Session by ID, used by the redirect
// reconciliation path to confirm payment before creating the booking
func (s *StripeService) RetrieveSession(sessionID string) (*CheckoutSession, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("payment gateway not configured: missing secret key")
	}

	s.logger.WithField("session_id", sessionID).Info("Retrieving Stripe checkout session")

	var session CheckoutSession
	path := fmt.Sprintf("/v1/checkout/sessions/%s", url.PathEscape(sessionID))
	if err := s.doRequest(http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// CreatePaymentIntent creates a bare PaymentIntent for clients that render
// their own payment form instead of using hosted Checkout
func (s *StripeService) CreatePaymentIntent(params *PaymentIntentParams) (*PaymentIntent, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("payment gateway not configured: missing secret key")
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(AmountToMinorUnits(params.Amount), 10))
	form.Set("currency", s.config.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var intent PaymentIntent
	if err := s.doRequest(http.MethodPost, "/v1/payment_intents", form, &intent); err != nil {
		return nil, err
	}

	return &intent, nil
}

// doRequest performs an authenticated form-encoded request against the
// Stripe API and decodes the JSON response into out
func (s *StripeService) doRequest(method, path string, form url.Values, out interface{}) error {
	endpoint := s.config.APIBaseURL + path

	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.config.SecretKey))
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call Stripe endpoint")
		return fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr stripeError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			s.logger.WithFields(logrus.Fields{
				"status_code": resp.StatusCode,
				"error_type":  apiErr.Error.Type,
				"error_code":  apiErr.Error.Code,
			}).Error("Stripe API error")
			return fmt.Errorf("payment gateway error: %s (code: %s)", apiErr.Error.Message, apiErr.Error.Code)
		}
		return fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		s.logger.WithFields(logrus.Fields{
			"body":  string(body),
			"error": err.Error(),
		}).Error("Failed to parse Stripe response")
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// VerifyWebhookSignature validates the Stripe-Signature header against the
// webhook signing secret. The header has the form "t=<unix>,v1=<hex hmac>"
// and the signed payload is "<t>.<raw body>".
func (s *StripeService) VerifyWebhookSignature(payload []byte, sigHeader string) error {
	return s.verifyWebhookSignatureAt(payload, sigHeader, time.Now())
}

func (s *StripeService) verifyWebhookSignatureAt(payload []byte, sigHeader string, now time.Time) error {
	if s.config.WebhookSecret == "" {
		return fmt.Errorf("webhook secret not configured")
	}
	if sigHeader == "" {
		return fmt.Errorf("missing signature header")
	}

	var timestamp int64
	var signatures []string

	for _, part := range strings.Split(sigHeader, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			ts, err := strconv.ParseInt(pair[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid signature timestamp: %w", err)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, pair[1])
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		sigBytes, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		expectedBytes, _ := hex.DecodeString(expected)
		if hmac.Equal(sigBytes, expectedBytes) {
			return nil
		}
	}

	return fmt.Errorf("no matching signature found")
}

// ParseWebhookEvent verifies the signature and decodes the event envelope
func (s *StripeService) ParseWebhookEvent(payload []byte, sigHeader string) (*WebhookEvent, error) {
	if err := s.VerifyWebhookSignature(payload, sigHeader); err != nil {
		return nil, err
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("webhook missing required fields")
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	}).Info("Webhook payload verified")

	return &event, nil
}

// SignWebhookPayload produces a Stripe-Signature header value for a payload.
// Used by tests and local tooling to exercise the webhook endpoint.
func (s *StripeService) SignWebhookPayload(payload []byte, at time.Time) string {
	timestamp := at.Unix()
	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

// IsPaid reports whether a checkout session completed with successful payment
func (s *StripeService) IsPaid(session *CheckoutSession) bool {
	return session.PaymentStatus == "paid"
}
