package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"vydio/internal/domain"
)

// Submitter validates generation requests, reserves credits and hands the job
// to the video provider.
type Submitter struct {
	store   domain.Store
	gateway domain.VideoGateway
	limiter *RateLimiter
	logger  zerolog.Logger
	opts    Options
}

func NewSubmitter(store domain.Store, gateway domain.VideoGateway, logger zerolog.Logger, opts Options) *Submitter {
	return &Submitter{
		store:   store,
		gateway: gateway,
		limiter: NewRateLimiter(store.Jobs()),
		logger:  logger.With().Str("component", "submitter").Logger(),
		opts:    opts.withDefaults(),
	}
}

// Submit creates a job for userID. On success the returned job is running,
// or still queued if the provider handle could not be stored. When the
// provider refuses the request the reservation is returned and the error is a
// *domain.RefundedError.
func (s *Submitter) Submit(ctx context.Context, userID, rawPrompt string, durationSeconds int) (*domain.Job, error) {
	prompt, err := domain.NormalizePrompt(rawPrompt)
	if err != nil {
		return nil, err
	}
	cost, err := domain.ValidateDuration(durationSeconds)
	if err != nil {
		return nil, err
	}
	now := s.opts.Now()
	if err := s.limiter.Allow(ctx, userID, now); err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:              s.opts.NewID(),
		UserID:          userID,
		Prompt:          prompt,
		DurationSeconds: durationSeconds,
		CreditCost:      cost,
		Status:          domain.JobStatusQueued,
		CreatedAt:       now,
	}
	if err := s.reserve(ctx, job); err != nil {
		return nil, err
	}
	log := s.logger.With().Str("job_id", job.ID).Str("user_id", userID).Logger()
	log.Info().Int("credits", cost).Int("duration_seconds", durationSeconds).Msg("credits reserved")

	// The request context may be cancelled by a disconnecting client; the
	// follow-up writes must still land.
	bg := context.WithoutCancel(ctx)

	handle, startErr := s.start(ctx, prompt, durationSeconds)
	if startErr != nil {
		log.Warn().Err(startErr).Msg("provider rejected generation")
		return nil, s.compensate(bg, log, job, startErr)
	}

	ok, err := s.store.Jobs().MarkRunning(bg, job.ID, handle)
	switch {
	case err != nil:
		log.Error().Err(err).Str("provider_job_id", handle).Msg("store provider handle")
		return job, nil
	case !ok:
		log.Warn().Msg("job left queued before provider handle was stored")
	default:
		job.Status = domain.JobStatusRunning
		job.ProviderJobID = handle
		log.Info().Str("provider_job_id", handle).Str("status", string(job.Status)).Msg("generation started")
		return job, nil
	}

	current, err := s.store.Jobs().GetForUser(bg, job.ID, userID)
	if err != nil {
		return job, nil
	}
	return current, nil
}

// reserve debits the cost and inserts the queued job in one transaction.
func (s *Submitter) reserve(ctx context.Context, job *domain.Job) error {
	err := s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		if _, err := tx.Ledger().Debit(ctx, job.UserID, job.CreditCost); err != nil {
			return err
		}
		return tx.Jobs().Create(ctx, job)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInsufficientCredits):
		return err
	case errors.Is(err, domain.ErrNotFound):
		// No ledger row yet means a zero balance.
		return fmt.Errorf("user %s has no credits: %w", job.UserID, domain.ErrInsufficientCredits)
	default:
		return fmt.Errorf("reserve credits: %w: %v", domain.ErrInternal, err)
	}
}

func (s *Submitter) start(ctx context.Context, prompt string, durationSeconds int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()
	handle, err := s.gateway.StartGeneration(ctx, prompt, durationSeconds)
	if err != nil {
		return "", err
	}
	if handle == "" {
		return "", errors.New("provider returned no operation handle")
	}
	return handle, nil
}

// compensate fails the job and refunds its stored cost atomically. If the
// job already left the queued state nothing is refunded here.
func (s *Submitter) compensate(ctx context.Context, log zerolog.Logger, job *domain.Job, cause error) error {
	reason := cause.Error()
	var refunded bool
	err := s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		ok, err := tx.Jobs().MarkFailed(ctx, job.ID, reason)
		if err != nil || !ok {
			return err
		}
		if _, err := tx.Ledger().Credit(ctx, job.UserID, job.CreditCost); err != nil {
			return err
		}
		refunded = true
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int("credits", job.CreditCost).Msg("refund after provider failure")
		return fmt.Errorf("refund job %s: %w: %v", job.ID, domain.ErrInternal, err)
	}
	if refunded {
		log.Info().Bool("refund", true).Int("credits", job.CreditCost).Str("status", string(domain.JobStatusFailed)).Msg("job failed at submission")
	}
	return &domain.RefundedError{JobID: job.ID, Credits: job.CreditCost, Reason: reason}
}
