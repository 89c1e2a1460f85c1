package domain

import "context"

// GenerationPoll is the provider's view of a generation operation.
type GenerationPoll struct {
	Done           bool
	ResultLocation string
	ErrorMessage   string
}

// VideoGateway is the generation provider boundary. Calls are blocking network
// operations and must never run inside a store transaction.
type VideoGateway interface {
	StartGeneration(ctx context.Context, prompt string, durationSeconds int) (handle string, err error)
	// PollGeneration returns an error only for transient failures; a failed
	// generation is reported through GenerationPoll.ErrorMessage.
	PollGeneration(ctx context.Context, handle string) (GenerationPoll, error)
}

// CheckoutRequest describes a hosted checkout session to create.
type CheckoutRequest struct {
	Amount         int64
	Currency       string
	Reference      string
	IdempotencyKey string
	CustomerEmail  string
	WebhookURL     string
	SuccessURL     string
	CancelURL      string
}

// CheckoutSession is the provider's acknowledgement of a checkout request.
type CheckoutSession struct {
	SessionID   string
	CheckoutURL string
}

// CheckoutGateway is the payment provider boundary.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}
