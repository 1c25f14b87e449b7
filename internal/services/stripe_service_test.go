package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamtrails/travel-booking-backend/internal/config"
)

func newTestStripeService(apiBaseURL string) *StripeService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewStripeService(&config.StripeConfig{
		APIBaseURL:    apiBaseURL,
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_test_456",
		Currency:      "usd",
		ClientBaseURL: "https://app.example.com",
	}, logger)
}

func TestAmountConversion(t *testing.T) {
	tests := []struct {
		amount float64
		minor  int64
	}{
		{10, 1000},
		{10.5, 1050},
		{0.01, 1},
		{2750, 275000},
		{10.006, 1001}, // rounds, never truncates
		{10.004, 1000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.minor, AmountToMinorUnits(tt.amount))
	}

	assert.Equal(t, 27.5, MinorUnitsToAmount(2750))
}

func TestIsConfigured(t *testing.T) {
	svc := newTestStripeService("https://api.stripe.com")
	assert.True(t, svc.IsConfigured())

	svc.config.SecretKey = ""
	assert.False(t, svc.IsConfigured())
}

func TestVerifyWebhookSignature(t *testing.T) {
	svc := newTestStripeService("https://api.stripe.com")
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()

	t.Run("Valid Signature", func(t *testing.T) {
		header := svc.SignWebhookPayload(payload, now)
		assert.NoError(t, svc.verifyWebhookSignatureAt(payload, header, now))
	})

	t.Run("Tampered Payload", func(t *testing.T) {
		header := svc.SignWebhookPayload(payload, now)
		tampered := []byte(`{"id":"evt_1","type":"checkout.session.completed","amount":1}`)
		err := svc.verifyWebhookSignatureAt(tampered, header, now)
		assert.ErrorContains(t, err, "no matching signature")
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		other := newTestStripeService("https://api.stripe.com")
		other.config.WebhookSecret = "whsec_other"
		header := other.SignWebhookPayload(payload, now)
		err := svc.verifyWebhookSignatureAt(payload, header, now)
		assert.ErrorContains(t, err, "no matching signature")
	})

	t.Run("Stale Timestamp", func(t *testing.T) {
		header := svc.SignWebhookPayload(payload, now.Add(-10*time.Minute))
		err := svc.verifyWebhookSignatureAt(payload, header, now)
		assert.ErrorContains(t, err, "outside tolerance")
	})

	t.Run("Future Timestamp", func(t *testing.T) {
		header := svc.SignWebhookPayload(payload, now.Add(10*time.Minute))
		err := svc.verifyWebhookSignatureAt(payload, header, now)
		assert.ErrorContains(t, err, "outside tolerance")
	})

	t.Run("Within Tolerance", func(t *testing.T) {
		header := svc.SignWebhookPayload(payload, now.Add(-4*time.Minute))
		assert.NoError(t, svc.verifyWebhookSignatureAt(payload, header, now))
	})

	t.Run("Missing Header", func(t *testing.T) {
		err := svc.verifyWebhookSignatureAt(payload, "", now)
		assert.ErrorContains(t, err, "missing signature header")
	})

	t.Run("Malformed Header", func(t *testing.T) {
		err := svc.verifyWebhookSignatureAt(payload, "nonsense", now)
		assert.ErrorContains(t, err, "malformed signature header")
	})
}

func TestParseWebhookEvent(t *testing.T) {
	svc := newTestStripeService("https://api.stripe.com")

	t.Run("Valid Event", func(t *testing.T) {
		payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)
		header := svc.SignWebhookPayload(payload, time.Now())

		event, err := svc.ParseWebhookEvent(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
		assert.Equal(t, "checkout.session.completed", event.Type)

		var session CheckoutSession
		require.NoError(t, json.Unmarshal(event.Data.Object, &session))
		assert.Equal(t, "cs_1", session.ID)
	})

	t.Run("Bad Signature", func(t *testing.T) {
		payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
		event, err := svc.ParseWebhookEvent(payload, "t=1,v1=deadbeef")
		assert.Nil(t, event)
		assert.Error(t, err)
	})

	t.Run("Missing Required Fields", func(t *testing.T) {
		payload := []byte(`{"id":"evt_1"}`)
		header := svc.SignWebhookPayload(payload, time.Now())
		event, err := svc.ParseWebhookEvent(payload, header)
		assert.Nil(t, event)
		assert.ErrorContains(t, err, "missing required fields")
	})
}

func TestCreateCheckoutSessionRequest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotForm map[string][]string
		var gotAuth string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")

			require.NoError(t, r.ParseForm())
			gotForm = r.PostForm

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"id": "cs_test_1",
				"url": "https://checkout.stripe.com/c/pay/cs_test_1",
				"amount_total": 275000,
				"currency": "usd",
				"client_reference_id": "ABCD2345",
				"payment_status": "unpaid",
				"status": "open"
			}`))
		}))
		defer server.Close()

		svc := newTestStripeService(server.URL)
		session, err := svc.CreateCheckoutSession(&CheckoutSessionParams{
			BookingReference: "ABCD2345",
			PackageID:        "pkg_1",
			PackageName:      "Island Escape",
			UserID:           "user_1",
			CustomerEmail:    "jane@example.com",
			Amount:           2750,
			Metadata: map[string]string{
				"booking_reference": "ABCD2345",
				"adults":            "2",
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "cs_test_1", session.ID)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.URL)

		assert.Equal(t, "Bearer sk_test_123", gotAuth)
		assert.Equal(t, "payment", gotForm["mode"][0])
		assert.Equal(t, "ABCD2345", gotForm["client_reference_id"][0])
		assert.Equal(t, "jane@example.com", gotForm["customer_email"][0])
		assert.Equal(t, "275000", gotForm["line_items[0][price_data][unit_amount]"][0])
		assert.Equal(t, "usd", gotForm["line_items[0][price_data][currency]"][0])
		assert.Equal(t, "Island Escape", gotForm["line_items[0][price_data][product_data][name]"][0])
		assert.Equal(t, "2", gotForm["metadata[adults]"][0])
		assert.Equal(t, "https://app.example.com/booking/success?session_id={CHECKOUT_SESSION_ID}", gotForm["success_url"][0])
		assert.Equal(t, "https://app.example.com/packages/pkg_1", gotForm["cancel_url"][0])
	})

	t.Run("Gateway Error Response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Missing required param: mode"}}`))
		}))
		defer server.Close()

		svc := newTestStripeService(server.URL)
		session, err := svc.CreateCheckoutSession(&CheckoutSessionParams{
			BookingReference: "ABCD2345",
			PackageID:        "pkg_1",
			PackageName:      "Island Escape",
			Amount:           100,
		})
		assert.Nil(t, session)
		assert.ErrorContains(t, err, "Missing required param")
	})

	t.Run("Not Configured", func(t *testing.T) {
		svc := newTestStripeService("https://api.stripe.com")
		svc.config.SecretKey = ""

		session, err := svc.CreateCheckoutSession(&CheckoutSessionParams{Amount: 100})
		assert.Nil(t, session)
		assert.ErrorContains(t, err, "not configured")
	})
}

func TestRetrieveSessionRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cs_test_1",
			"amount_total": 275000,
			"payment_intent": "pi_test_1",
			"payment_status": "paid",
			"status": "complete",
			"metadata": {"booking_reference": "ABCD2345"}
		}`))
	}))
	defer server.Close()

	svc := newTestStripeService(server.URL)
	session, err := svc.RetrieveSession("cs_test_1")
	require.NoError(t, err)

	assert.Equal(t, "pi_test_1", session.PaymentIntent)
	assert.Equal(t, int64(275000), session.AmountTotal)
	assert.Equal(t, "ABCD2345", session.Metadata["booking_reference"])
	assert.True(t, svc.IsPaid(session))
}

func TestCreatePaymentIntentRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "275000", r.PostForm["amount"][0])
		assert.Equal(t, "usd", r.PostForm["currency"][0])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_test_1","client_secret":"pi_test_1_secret","amount":275000,"currency":"usd","status":"requires_payment_method"}`))
	}))
	defer server.Close()

	svc := newTestStripeService(server.URL)
	intent, err := svc.CreatePaymentIntent(&PaymentIntentParams{Amount: 2750})
	require.NoError(t, err)

	assert.Equal(t, "pi_test_1", intent.ID)
	assert.Equal(t, "pi_test_1_secret", intent.ClientSecret)
}
