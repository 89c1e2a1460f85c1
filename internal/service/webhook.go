package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"vydio/internal/domain"
)

// WebhookDecoder authenticates a raw provider payload and decodes it. It must
// return an ErrUnauthorized error for a bad signature and an ErrInvalidInput
// error for an unreadable body.
type WebhookDecoder interface {
	Decode(payload []byte, signature string) (domain.PaymentEvent, error)
}

// WebhookOutcome summarises what a delivery did.
type WebhookOutcome string

const (
	OutcomeApplied   WebhookOutcome = "applied"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
)

// WebhookProcessor applies payment notifications exactly once per event id.
type WebhookProcessor struct {
	store   domain.Store
	decoder WebhookDecoder
	logger  zerolog.Logger
	opts    Options
}

func NewWebhookProcessor(store domain.Store, decoder WebhookDecoder, logger zerolog.Logger, opts Options) *WebhookProcessor {
	return &WebhookProcessor{
		store:   store,
		decoder: decoder,
		logger:  logger.With().Str("component", "webhook").Logger(),
		opts:    opts.withDefaults(),
	}
}

// Handle verifies payload against signature before touching the store.
func (p *WebhookProcessor) Handle(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error) {
	event, err := p.decoder.Decode(payload, signature)
	if err != nil {
		p.logger.Warn().Err(err).Msg("rejected webhook delivery")
		return "", err
	}
	log := p.logger.With().Str("event_id", event.ID).Str("event_type", event.Type).Str("payment_id", event.Reference).Logger()

	seen, err := p.store.Payments().EventExists(ctx, event.ID)
	if err != nil {
		return "", fmt.Errorf("check event: %w: %v", domain.ErrInternal, err)
	}
	if seen {
		log.Info().Msg("webhook already processed")
		return OutcomeDuplicate, nil
	}

	var apply func(context.Context, domain.Repositories, domain.PaymentEvent) (bool, error)
	switch event.Type {
	case domain.EventPaymentSucceeded:
		apply = p.applySucceeded
	case domain.EventPaymentFailed:
		apply = p.applyFailed
	default:
		log.Info().Msg("ignoring webhook event type")
		return OutcomeIgnored, nil
	}
	if event.Reference == "" {
		log.Warn().Msg("webhook without payment reference")
		return OutcomeIgnored, nil
	}

	var applied bool
	err = p.store.WithinTx(ctx, func(tx domain.Repositories) error {
		ok, err := apply(ctx, tx, event)
		if err != nil || !ok {
			return err
		}
		applied = true
		return tx.Payments().RecordEvent(ctx, domain.WebhookEvent{
			EventID:   event.ID,
			Provider:  event.Provider,
			EventType: event.Type,
			CreatedAt: p.opts.Now(),
		})
	})
	switch {
	case errors.Is(err, domain.ErrDuplicateEvent):
		// A concurrent delivery of the same event committed first.
		log.Info().Msg("webhook raced with duplicate delivery")
		return OutcomeDuplicate, nil
	case err != nil:
		log.Error().Err(err).Msg("apply webhook")
		return "", fmt.Errorf("apply webhook %s: %w: %v", event.ID, domain.ErrInternal, err)
	case !applied:
		log.Info().Msg("webhook matched no payment to settle")
		return OutcomeIgnored, nil
	}
	log.Info().Msg("webhook applied")
	return OutcomeApplied, nil
}

// applySucceeded marks the payment paid and grants its credits. It reports
// false when the payment is absent or already paid.
func (p *WebhookProcessor) applySucceeded(ctx context.Context, tx domain.Repositories, event domain.PaymentEvent) (bool, error) {
	payment, ok, err := tx.Payments().MarkPaid(ctx, event.Reference, event.ProviderRef)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil || !ok {
		return false, err
	}
	balance, err := tx.Ledger().Credit(ctx, payment.UserID, payment.CreditsBought)
	if err != nil {
		return false, err
	}
	p.logger.Info().
		Str("payment_id", payment.ID).
		Str("user_id", payment.UserID).
		Int("credits", payment.CreditsBought).
		Int("balance", balance).
		Msg("payment credited")
	return true, nil
}

func (p *WebhookProcessor) applyFailed(ctx context.Context, tx domain.Repositories, event domain.PaymentEvent) (bool, error) {
	ok, err := tx.Payments().MarkFailed(ctx, event.Reference)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return ok, err
}
