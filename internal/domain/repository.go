package domain

import (
	"context"
	"time"
)

// LedgerRepository owns user credit balances.
type LedgerRepository interface {
	// Balance returns the current balance without locking.
	Balance(ctx context.Context, userID string) (int, error)
	// Debit locks the user row, checks the balance and decrements it. It
	// returns ErrInsufficientCredits when balance < amount.
	Debit(ctx context.Context, userID string, amount int) (int, error)
	// Credit increments the balance and returns the new value.
	Credit(ctx context.Context, userID string, amount int) (int, error)
	// Upsert creates the user if missing and keeps the existing balance otherwise.
	Upsert(ctx context.Context, userID, email string) (*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
}

// JobRepository persists generation jobs. Transition methods are conditional
// updates: they return false without error when the stored status no longer
// allows the transition.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	// GetForUser returns ErrNotFound when the job is absent or owned by someone else.
	GetForUser(ctx context.Context, jobID, userID string) (*Job, error)
	CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error)
	ListRecentForUser(ctx context.Context, userID string, limit int) ([]Job, error)
	// MarkRunning moves a queued job to running and attaches the provider handle.
	MarkRunning(ctx context.Context, jobID, providerJobID string) (bool, error)
	// MarkSucceeded moves a non-terminal job to succeeded.
	MarkSucceeded(ctx context.Context, jobID, videoURL string) (bool, error)
	// MarkFailed moves a non-terminal job to failed.
	MarkFailed(ctx context.Context, jobID, reason string) (bool, error)
}

// PaymentRepository persists payment intents and the processed-event ledger.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, paymentID string) (*Payment, error)
	ListRecentForUser(ctx context.Context, userID string, limit int) ([]Payment, error)
	AttachProviderRef(ctx context.Context, paymentID, providerRef string) error
	// MarkPaid moves a pending or failed payment to paid. It returns the
	// payment and false when it was already paid.
	MarkPaid(ctx context.Context, paymentID, providerRef string) (*Payment, bool, error)
	// MarkFailed moves a pending payment to failed.
	MarkFailed(ctx context.Context, paymentID string) (bool, error)
	EventExists(ctx context.Context, eventID string) (bool, error)
	// RecordEvent returns ErrDuplicateEvent when the event id is already stored.
	RecordEvent(ctx context.Context, event WebhookEvent) error
}

// Repositories is a set of repositories sharing one connection or transaction.
type Repositories interface {
	Ledger() LedgerRepository
	Jobs() JobRepository
	Payments() PaymentRepository
}

// Store is the transactional persistence boundary. Methods on the embedded
// Repositories run in autocommit mode; WithinTx runs fn in a single ACID
// transaction that commits only when fn returns nil.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
}
