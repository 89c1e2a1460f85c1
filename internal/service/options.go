// Package service holds the credit ledger and job lifecycle operations. All
// coordination between concurrent callers happens inside domain.Store
// transactions; nothing here keeps shared mutable state.
package service

import (
	"time"

	"github.com/google/uuid"
)

// Options tunes timing behaviour shared by the services.
type Options struct {
	// Now is the clock used for job timestamps and rate-limit windows.
	Now func() time.Time
	// ProviderTimeout bounds each outbound provider call.
	ProviderTimeout time.Duration
	// StaleQueuedAfter is how long a job may stay queued without a provider
	// handle before a poll gives up on it and refunds the reservation.
	StaleQueuedAfter time.Duration
	// NewID generates job and payment identifiers.
	NewID func() string
}

const (
	defaultProviderTimeout  = 30 * time.Second
	defaultStaleQueuedAfter = 2 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = defaultProviderTimeout
	}
	if o.StaleQueuedAfter <= 0 {
		o.StaleQueuedAfter = defaultStaleQueuedAfter
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}
