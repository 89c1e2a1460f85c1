package domain

import "time"

// PaymentStatus enumerates payment lifecycle states.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment is an intended credit purchase. Amount, Currency and CreditsBought
// never change after creation.
type Payment struct {
	ID             string
	UserID         string
	Amount         int64
	Currency       string
	CreditsBought  int
	IdempotencyKey string
	ProviderRef    string
	Status         PaymentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WebhookEvent marks a provider event as applied.
type WebhookEvent struct {
	EventID   string
	Provider  string
	EventType string
	CreatedAt time.Time
}

// Webhook provider tags and event types.
const (
	ProviderSnippe = "snippe"

	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// PaymentEvent is a verified and decoded payment provider notification.
type PaymentEvent struct {
	ID          string
	Provider    string
	Type        string
	Reference   string
	ProviderRef string
}
