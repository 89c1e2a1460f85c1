// Package snippe integrates the Snippe hosted checkout: session creation and
// webhook authentication.
package snippe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vydio/internal/domain"
)

// Options controls how the Snippe client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client implements domain.CheckoutGateway.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("snippe: api key not configured")

func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.snippe.sh"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: client,
		logger:     opts.Logger,
	}
}

type customer struct {
	Email string `json:"email,omitempty"`
}

type createPaymentRequest struct {
	Amount     int64    `json:"amount"`
	Currency   string   `json:"currency"`
	Reference  string   `json:"reference"`
	WebhookURL string   `json:"webhook_url,omitempty"`
	SuccessURL string   `json:"success_url,omitempty"`
	CancelURL  string   `json:"cancel_url,omitempty"`
	Customer   customer `json:"customer"`
}

type createPaymentResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
	PaymentURL  string `json:"payment_url"`
}

// CreateCheckoutSession calls POST /v1/payments. The idempotency key makes
// retries of the same request return the same session.
func (c *Client) CreateCheckoutSession(ctx context.Context, in domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(createPaymentRequest{
		Amount:     in.Amount,
		Currency:   in.Currency,
		Reference:  in.Reference,
		WebhookURL: in.WebhookURL,
		SuccessURL: in.SuccessURL,
		CancelURL:  in.CancelURL,
		Customer:   customer{Email: in.CustomerEmail},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", in.IdempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke snippe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("reference", in.Reference).
			Str("body", strings.TrimSpace(string(data))).
			Msg("snippe: create payment failed")
		return nil, fmt.Errorf("snippe status %d", resp.StatusCode)
	}

	var out createPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode snippe response: %w", err)
	}
	checkoutURL := out.CheckoutURL
	if checkoutURL == "" {
		checkoutURL = out.PaymentURL
	}
	return &domain.CheckoutSession{SessionID: out.ID, CheckoutURL: checkoutURL}, nil
}

var _ domain.CheckoutGateway = (*Client)(nil)
