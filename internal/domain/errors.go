package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrRateLimited         = errors.New("rate limited")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInternal            = errors.New("internal error")
	ErrConflict            = errors.New("conflict")
	ErrDuplicateEvent      = errors.New("duplicate webhook event")
)

// RefundedError reports a submission whose provider hand-off failed after the
// credits were reserved. The reservation has already been returned.
type RefundedError struct {
	JobID   string
	Credits int
	Reason  string
}

func (e *RefundedError) Error() string {
	return fmt.Sprintf("generation could not be started for job %s (refunded %d credits): %s", e.JobID, e.Credits, e.Reason)
}

func (e *RefundedError) Unwrap() error {
	return ErrProviderUnavailable
}

// Code maps an error onto the stable code used by API error envelopes.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
