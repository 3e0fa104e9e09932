package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stayhive/hotel-booking-backend/internal/config"
)

// Checkout purposes carried in session metadata so the webhook can tell a
// booking charge from a fee collection.
const (
	CheckoutPurposeBooking = "booking"
	CheckoutPurposeFee     = "fee"
)

// webhookTolerance is how old a signed webhook timestamp may be before it
// is rejected as a possible replay.
const webhookTolerance = 5 * time.Minute

// StripeService handles payment gateway integration with Stripe Checkout
type StripeService struct {
	config *config.StripeConfig
	logger *logrus.Logger
	client *http.Client
}

// CheckoutParams carries the inputs for creating a checkout session
type CheckoutParams struct {
	BookingID   string
	Purpose     string // CheckoutPurposeBooking or CheckoutPurposeFee
	Amount      float64
	Description string
}

// CheckoutSession represents the created Stripe checkout session
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// WebhookEvent is the subset of a Stripe event the webhook handler needs
type WebhookEvent struct {
	Type      string
	SessionID string
	BookingID string
	Purpose   string
	Amount    float64 // In major currency units
	Currency  string
}

// stripeEvent mirrors the wire shape of a Stripe webhook event
type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string            `json:"id"`
			AmountTotal int64             `json:"amount_total"` // Minor units
			Currency    string            `json:"currency"`
			Metadata    map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
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

// IsConfigured reports whether the service has credentials to talk to Stripe
func (s *StripeService) IsConfigured() bool {
	return s.config.SecretKey != ""
}

// CreateCheckoutSession creates a hosted checkout session for a booking
// charge or fee. The booking id and purpose travel in session metadata and
// come back on the webhook.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("stripe service is not configured")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", s.config.SuccessURL)
	form.Set("cancel_url", s.config.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", s.config.Currency)
	form.Set("line_items[0][price_data][product_data][name]", params.Description)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(int64(params.Amount*100+0.5), 10))
	form.Set("metadata[booking_id]", params.BookingID)
	form.Set("metadata[purpose]", params.Purpose)

	endpoint := s.config.APIBaseURL + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call stripe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stripe response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, string(body))
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"booking_id": params.BookingID,
		"purpose":    params.Purpose,
		"amount":     params.Amount,
	}).Info("Stripe checkout session created")

	return &session, nil
}

// VerifyWebhookSignature validates the Stripe-Signature header against the
// webhook signing secret. The header carries a timestamp and one or more
// v1 signatures: HMAC-SHA256 over "<timestamp>.<payload>".
func (s *StripeService) VerifyWebhookSignature(payload []byte, header string, now time.Time) error {
	if s.config.WebhookSecret == "" {
		return fmt.Errorf("webhook secret is not configured")
	}
	if header == "" {
		return fmt.Errorf("missing signature header")
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid signature timestamp: %w", err)
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}

// SignWebhookPayload computes a valid Stripe-Signature header value for the
// payload. Used by tests and the sandbox tooling.
func (s *StripeService) SignWebhookPayload(payload []byte, now time.Time) string {
	timestamp := strconv.FormatInt(now.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

// ParseWebhookEvent decodes a verified webhook payload into the fields the
// handler acts on
func (s *StripeService) ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook event: %w", err)
	}

	obj := event.Data.Object
	return &WebhookEvent{
		Type:      event.Type,
		SessionID: obj.ID,
		BookingID: obj.Metadata["booking_id"],
		Purpose:   obj.Metadata["purpose"],
		Amount:    float64(obj.AmountTotal) / 100,
		Currency:  obj.Currency,
	}, nil
}
