package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"vydio/internal/domain"
)

// Failure reasons recorded by the reconciler itself.
const (
	ReasonNeverStarted  = "generation was never started"
	ReasonNoResult      = "generation finished without a result"
	reasonProviderError = "generation failed"
)

// StatusReconciler brings a stored job up to date with the provider. Each
// call polls at most once; callers drive the cadence.
type StatusReconciler struct {
	store   domain.Store
	gateway domain.VideoGateway
	logger  zerolog.Logger
	opts    Options
}

func NewStatusReconciler(store domain.Store, gateway domain.VideoGateway, logger zerolog.Logger, opts Options) *StatusReconciler {
	return &StatusReconciler{
		store:   store,
		gateway: gateway,
		logger:  logger.With().Str("component", "status").Logger(),
		opts:    opts.withDefaults(),
	}
}

// Poll returns the job owned by userID after reconciling it. Transient
// provider errors leave the job untouched and are not reported.
func (r *StatusReconciler) Poll(ctx context.Context, userID, jobID string) (*domain.Job, error) {
	job, err := r.store.Jobs().GetForUser(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return job, nil
	}

	log := r.logger.With().Str("job_id", job.ID).Str("user_id", userID).Logger()

	if !job.HasProviderHandle() {
		if job.Status == domain.JobStatusQueued && r.opts.Now().Sub(job.CreatedAt) >= r.opts.StaleQueuedAfter {
			return r.failAndRefund(ctx, log, job, ReasonNeverStarted)
		}
		return job, nil
	}

	pollCtx, cancel := context.WithTimeout(ctx, r.opts.ProviderTimeout)
	poll, err := r.gateway.PollGeneration(pollCtx, job.ProviderJobID)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("provider_job_id", job.ProviderJobID).Msg("poll generation")
		return job, nil
	}
	if !poll.Done {
		return job, nil
	}

	bg := context.WithoutCancel(ctx)
	switch {
	case poll.ErrorMessage != "":
		return r.failAndRefund(bg, log, job, poll.ErrorMessage)
	case poll.ResultLocation != "":
		return r.succeed(bg, log, job, poll.ResultLocation)
	default:
		return r.failAndRefund(bg, log, job, ReasonNoResult)
	}
}

func (r *StatusReconciler) succeed(ctx context.Context, log zerolog.Logger, job *domain.Job, videoURL string) (*domain.Job, error) {
	ok, err := r.store.Jobs().MarkSucceeded(ctx, job.ID, videoURL)
	if err != nil {
		return nil, fmt.Errorf("mark job succeeded: %w: %v", domain.ErrInternal, err)
	}
	if ok {
		log.Info().Str("status", string(domain.JobStatusSucceeded)).Msg("generation succeeded")
	}
	return r.reload(ctx, job)
}

// failAndRefund fails the job and returns its stored cost in one
// transaction. The conditional transition makes concurrent polls refund at
// most once.
func (r *StatusReconciler) failAndRefund(ctx context.Context, log zerolog.Logger, job *domain.Job, reason string) (*domain.Job, error) {
	if reason == "" {
		reason = reasonProviderError
	}
	var refunded bool
	err := r.store.WithinTx(ctx, func(tx domain.Repositories) error {
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
		log.Error().Err(err).Msg("fail and refund job")
		return nil, fmt.Errorf("fail job %s: %w: %v", job.ID, domain.ErrInternal, err)
	}
	if refunded {
		log.Info().
			Str("status", string(domain.JobStatusFailed)).
			Bool("refund", true).
			Int("credits", job.CreditCost).
			Str("reason", reason).
			Msg("generation failed")
	}
	return r.reload(ctx, job)
}

func (r *StatusReconciler) reload(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	current, err := r.store.Jobs().GetForUser(ctx, job.ID, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("reload job: %w", err)
	}
	return current, nil
}
