package service

import (
	"context"
	"fmt"
	"time"

	"vydio/internal/domain"
)

// RateLimiter bounds job submissions per user by counting stored jobs in a
// trailing window. It keeps no state of its own.
type RateLimiter struct {
	jobs   domain.JobRepository
	window time.Duration
	limit  int
}

func NewRateLimiter(jobs domain.JobRepository) *RateLimiter {
	return &RateLimiter{jobs: jobs, window: domain.SubmissionWindow, limit: domain.SubmissionsPerWindow}
}

// Allow returns ErrRateLimited when userID already has limit or more jobs
// created at or after now-window.
func (l *RateLimiter) Allow(ctx context.Context, userID string, now time.Time) error {
	n, err := l.jobs.CountCreatedSince(ctx, userID, now.Add(-l.window))
	if err != nil {
		return fmt.Errorf("count recent jobs: %w", err)
	}
	if n >= l.limit {
		return fmt.Errorf("%d jobs in the last %s: %w", n, l.window, domain.ErrRateLimited)
	}
	return nil
}
