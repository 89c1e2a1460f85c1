package snippe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"vydio/internal/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Snippe-Signature"

// Sign returns the signature Snippe would send for payload.
func Sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against the exact payload bytes.
func Verify(secret, payload []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(strings.TrimPrefix(signature, "sha256=")))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Reference string `json:"reference"`
		ID        string `json:"id"`
	} `json:"data"`
}

// WebhookDecoder authenticates and decodes Snippe webhook deliveries.
type WebhookDecoder struct {
	secret []byte
}

func NewWebhookDecoder(secret string) *WebhookDecoder {
	return &WebhookDecoder{secret: []byte(secret)}
}

func (d *WebhookDecoder) Decode(payload []byte, signature string) (domain.PaymentEvent, error) {
	if len(d.secret) == 0 {
		return domain.PaymentEvent{}, fmt.Errorf("webhook secret not configured: %w", domain.ErrUnauthorized)
	}
	if strings.TrimSpace(signature) == "" {
		return domain.PaymentEvent{}, fmt.Errorf("missing %s: %w", SignatureHeader, domain.ErrUnauthorized)
	}
	if !Verify(d.secret, payload, signature) {
		return domain.PaymentEvent{}, fmt.Errorf("signature mismatch: %w", domain.ErrUnauthorized)
	}

	var evt webhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("%w: webhook body: %v", domain.ErrInvalidInput, err)
	}
	if strings.TrimSpace(evt.ID) == "" {
		return domain.PaymentEvent{}, fmt.Errorf("%w: webhook event id missing", domain.ErrInvalidInput)
	}
	return domain.PaymentEvent{
		ID:          evt.ID,
		Provider:    domain.ProviderSnippe,
		Type:        evt.Type,
		Reference:   evt.Data.Reference,
		ProviderRef: evt.Data.ID,
	}, nil
}
