package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"vydio/internal/domain"
)

// CheckoutURLs are the callback locations handed to the payment provider.
type CheckoutURLs struct {
	Webhook string
	Success string
	Cancel  string
}

// CheckoutResult is returned to the buyer.
type CheckoutResult struct {
	Payment     *domain.Payment
	CheckoutURL string
}

// Checkout opens hosted checkout sessions for credit packages. It never
// changes a payment's status; only webhooks do that.
type Checkout struct {
	store   domain.Store
	gateway domain.CheckoutGateway
	urls    CheckoutURLs
	logger  zerolog.Logger
	opts    Options
}

func NewCheckout(store domain.Store, gateway domain.CheckoutGateway, urls CheckoutURLs, logger zerolog.Logger, opts Options) *Checkout {
	return &Checkout{
		store:   store,
		gateway: gateway,
		urls:    urls,
		logger:  logger.With().Str("component", "checkout").Logger(),
		opts:    opts.withDefaults(),
	}
}

func (c *Checkout) Create(ctx context.Context, userID, email, packageID string) (*CheckoutResult, error) {
	pkg, err := domain.FindPackage(packageID)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:             c.opts.NewID(),
		UserID:         userID,
		Amount:         pkg.Price,
		Currency:       pkg.Currency,
		CreditsBought:  pkg.Credits,
		IdempotencyKey: c.opts.NewID(),
		Status:         domain.PaymentStatusPending,
		CreatedAt:      c.opts.Now(),
	}
	if err := c.store.Payments().Create(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("create payment: %w: %v", domain.ErrInternal, err)
	}
	log := c.logger.With().Str("payment_id", payment.ID).Str("user_id", userID).Logger()

	callCtx, cancel := context.WithTimeout(ctx, c.opts.ProviderTimeout)
	defer cancel()
	session, err := c.gateway.CreateCheckoutSession(callCtx, domain.CheckoutRequest{
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		Reference:      payment.ID,
		IdempotencyKey: payment.IdempotencyKey,
		CustomerEmail:  email,
		WebhookURL:     c.urls.Webhook,
		SuccessURL:     c.urls.Success,
		CancelURL:      c.urls.Cancel,
	})
	if err != nil {
		log.Warn().Err(err).Msg("create checkout session")
		return nil, fmt.Errorf("create checkout session: %w: %v", domain.ErrProviderUnavailable, err)
	}
	if session.CheckoutURL == "" {
		log.Warn().Msg("checkout session without url")
		return nil, fmt.Errorf("checkout session has no url: %w", domain.ErrProviderUnavailable)
	}

	if session.SessionID != "" {
		if err := c.store.Payments().AttachProviderRef(context.WithoutCancel(ctx), payment.ID, session.SessionID); err != nil {
			log.Error().Err(err).Str("provider_ref", session.SessionID).Msg("attach provider ref")
		} else {
			payment.ProviderRef = session.SessionID
		}
	}
	log.Info().Str("package_id", pkg.ID).Int64("amount", pkg.Price).Str("currency", pkg.Currency).Msg("checkout session created")
	return &CheckoutResult{Payment: payment, CheckoutURL: session.CheckoutURL}, nil
}
