// Package memory provides an in-process domain.Store. A transaction holds the
// store mutex for its whole duration and works on a copy of the state that
// replaces the live state only on commit, so concurrent callers observe the
// same all-or-nothing behaviour as the PostgreSQL store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vydio/internal/domain"
)

type state struct {
	users    map[string]domain.User
	jobs     map[string]domain.Job
	payments map[string]domain.Payment
	events   map[string]domain.WebhookEvent
}

func newState() *state {
	return &state{
		users:    make(map[string]domain.User),
		jobs:     make(map[string]domain.Job),
		payments: make(map[string]domain.Payment),
		events:   make(map[string]domain.WebhookEvent),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[string]domain.User, len(s.users)),
		jobs:     make(map[string]domain.Job, len(s.jobs)),
		payments: make(map[string]domain.Payment, len(s.payments)),
		events:   make(map[string]domain.WebhookEvent, len(s.events)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	return c
}

// Store is a goroutine-safe domain.Store kept in memory.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the timestamp source for UpdatedAt/CreatedAt defaults.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// WithinTx runs fn against a private copy of the state and publishes it when
// fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(&txView{st: work, now: s.now}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) autocommit(ctx context.Context, fn func(v *txView) error) error {
	return s.WithinTx(ctx, func(tx domain.Repositories) error {
		return fn(tx.(*txView))
	})
}

func (s *Store) Ledger() domain.LedgerRepository    { return ledgerAuto{s} }
func (s *Store) Jobs() domain.JobRepository         { return jobsAuto{s} }
func (s *Store) Payments() domain.PaymentRepository { return paymentsAuto{s} }

// SeedUser inserts or replaces a user with the given balance.
func (s *Store) SeedUser(userID string, credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.state.users[userID] = domain.User{ID: userID, Credits: credits, CreatedAt: now, UpdatedAt: now}
}

// txView implements domain.Repositories over one state snapshot. It does no
// locking; the owning transaction holds the store mutex.
type txView struct {
	st  *state
	now func() time.Time
}

func (v *txView) Ledger() domain.LedgerRepository    { return ledgerTx{v} }
func (v *txView) Jobs() domain.JobRepository         { return jobsTx{v} }
func (v *txView) Payments() domain.PaymentRepository { return paymentsTx{v} }

var (
	_ domain.Store        = (*Store)(nil)
	_ domain.Repositories = (*txView)(nil)
)

// ---- ledger ----

type ledgerTx struct{ v *txView }

func (l ledgerTx) Balance(_ context.Context, userID string) (int, error) {
	u, ok := l.v.st.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return u.Credits, nil
}

func (l ledgerTx) Debit(_ context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount %d: %w", amount, domain.ErrInvalidInput)
	}
	u, ok := l.v.st.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if u.Credits < amount {
		return u.Credits, domain.ErrInsufficientCredits
	}
	u.Credits -= amount
	u.UpdatedAt = l.v.now()
	l.v.st.users[userID] = u
	return u.Credits, nil
}

func (l ledgerTx) Credit(_ context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount %d: %w", amount, domain.ErrInvalidInput)
	}
	u, ok := l.v.st.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	u.Credits += amount
	u.UpdatedAt = l.v.now()
	l.v.st.users[userID] = u
	return u.Credits, nil
}

func (l ledgerTx) Upsert(_ context.Context, userID, email string) (*domain.User, error) {
	now := l.v.now()
	u, ok := l.v.st.users[userID]
	if !ok {
		u = domain.User{ID: userID, CreatedAt: now}
	}
	if email != "" {
		u.Email = email
	}
	u.UpdatedAt = now
	l.v.st.users[userID] = u
	return &u, nil
}

func (l ledgerTx) GetUser(_ context.Context, userID string) (*domain.User, error) {
	u, ok := l.v.st.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return &u, nil
}

type ledgerAuto struct{ s *Store }

func (l ledgerAuto) Balance(ctx context.Context, userID string) (balance int, err error) {
	err = l.s.autocommit(ctx, func(v *txView) error {
		balance, err = v.Ledger().Balance(ctx, userID)
		return err
	})
	return balance, err
}

func (l ledgerAuto) Debit(ctx context.Context, userID string, amount int) (balance int, err error) {
	err = l.s.autocommit(ctx, func(v *txView) error {
		balance, err = v.Ledger().Debit(ctx, userID, amount)
		return err
	})
	return balance, err
}

func (l ledgerAuto) Credit(ctx context.Context, userID string, amount int) (balance int, err error) {
	err = l.s.autocommit(ctx, func(v *txView) error {
		balance, err = v.Ledger().Credit(ctx, userID, amount)
		return err
	})
	return balance, err
}

func (l ledgerAuto) Upsert(ctx context.Context, userID, email string) (u *domain.User, err error) {
	err = l.s.autocommit(ctx, func(v *txView) error {
		u, err = v.Ledger().Upsert(ctx, userID, email)
		return err
	})
	return u, err
}

func (l ledgerAuto) GetUser(ctx context.Context, userID string) (u *domain.User, err error) {
	err = l.s.autocommit(ctx, func(v *txView) error {
		u, err = v.Ledger().GetUser(ctx, userID)
		return err
	})
	return u, err
}

// ---- jobs ----

type jobsTx struct{ v *txView }

func (j jobsTx) Create(_ context.Context, job *domain.Job) error {
	if _, exists := j.v.st.jobs[job.ID]; exists {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrConflict)
	}
	if _, ok := j.v.st.users[job.UserID]; !ok {
		return fmt.Errorf("user %s: %w", job.UserID, domain.ErrNotFound)
	}
	now := j.v.now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	j.v.st.jobs[job.ID] = *job
	return nil
}

func (j jobsTx) GetForUser(_ context.Context, jobID, userID string) (*domain.Job, error) {
	job, ok := j.v.st.jobs[jobID]
	if !ok || job.UserID != userID {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	return &job, nil
}

func (j jobsTx) CountCreatedSince(_ context.Context, userID string, since time.Time) (int, error) {
	count := 0
	for _, job := range j.v.st.jobs {
		if job.UserID == userID && !job.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (j jobsTx) ListRecentForUser(_ context.Context, userID string, limit int) ([]domain.Job, error) {
	var out []domain.Job
	for _, job := range j.v.st.jobs {
		if job.UserID == userID {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (j jobsTx) transition(jobID string, allowed func(domain.JobStatus) bool, apply func(*domain.Job)) (bool, error) {
	job, ok := j.v.st.jobs[jobID]
	if !ok {
		return false, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	if !allowed(job.Status) {
		return false, nil
	}
	apply(&job)
	job.UpdatedAt = j.v.now()
	j.v.st.jobs[jobID] = job
	return true, nil
}

func nonTerminal(s domain.JobStatus) bool { return !s.Terminal() }

func (j jobsTx) MarkRunning(_ context.Context, jobID, providerJobID string) (bool, error) {
	return j.transition(jobID, func(s domain.JobStatus) bool { return s == domain.JobStatusQueued }, func(job *domain.Job) {
		job.Status = domain.JobStatusRunning
		job.ProviderJobID = providerJobID
	})
}

func (j jobsTx) MarkSucceeded(_ context.Context, jobID, videoURL string) (bool, error) {
	return j.transition(jobID, nonTerminal, func(job *domain.Job) {
		job.Status = domain.JobStatusSucceeded
		job.VideoURL = videoURL
	})
}

func (j jobsTx) MarkFailed(_ context.Context, jobID, reason string) (bool, error) {
	return j.transition(jobID, nonTerminal, func(job *domain.Job) {
		job.Status = domain.JobStatusFailed
		job.Error = reason
	})
}

type jobsAuto struct{ s *Store }

func (j jobsAuto) Create(ctx context.Context, job *domain.Job) error {
	return j.s.autocommit(ctx, func(v *txView) error { return v.Jobs().Create(ctx, job) })
}

func (j jobsAuto) GetForUser(ctx context.Context, jobID, userID string) (job *domain.Job, err error) {
	err = j.s.autocommit(ctx, func(v *txView) error {
		job, err = v.Jobs().GetForUser(ctx, jobID, userID)
		return err
	})
	return job, err
}

func (j jobsAuto) CountCreatedSince(ctx context.Context, userID string, since time.Time) (n int, err error) {
	err = j.s.autocommit(ctx, func(v *txView) error {
		n, err = v.Jobs().CountCreatedSince(ctx, userID, since)
		return err
	})
	return n, err
}

func (j jobsAuto) ListRecentForUser(ctx context.Context, userID string, limit int) (jobs []domain.Job, err error) {
	err = j.s.autocommit(ctx, func(v *txView) error {
		jobs, err = v.Jobs().ListRecentForUser(ctx, userID, limit)
		return err
	})
	return jobs, err
}

func (j jobsAuto) MarkRunning(ctx context.Context, jobID, providerJobID string) (ok bool, err error) {
	err = j.s.autocommit(ctx, func(v *txView) error {
		ok, err = v.Jobs().MarkRunning(ctx, jobID, providerJobID)
		return err
	})
	return ok, err
}

func (j jobsAuto) MarkSucceeded(ctx context.Context, jobID, videoURL string) (ok bool, err error) {
	err = j.s.autocommit(ctx, func(v *txView) error {
		ok, err = v.Jobs().MarkSucceeded(ctx, jobID, videoURL)
		return err
	})
	return ok, err
}

func (j jobsAuto) MarkFailed(ctx context.Context, jobID, reason string) (ok bool, err error) {
	err = j.s.autocommit(ctx, func(v *txView) error {
		ok, err = v.Jobs().MarkFailed(ctx, jobID, reason)
		return err
	})
	return ok, err
}

// ---- payments ----

type paymentsTx struct{ v *txView }

func (p paymentsTx) Create(_ context.Context, payment *domain.Payment) error {
	if _, exists := p.v.st.payments[payment.ID]; exists {
		return fmt.Errorf("payment %s: %w", payment.ID, domain.ErrConflict)
	}
	for _, existing := range p.v.st.payments {
		if existing.IdempotencyKey == payment.IdempotencyKey {
			return fmt.Errorf("idempotency key: %w", domain.ErrConflict)
		}
	}
	now := p.v.now()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = domain.PaymentStatusPending
	}
	p.v.st.payments[payment.ID] = *payment
	return nil
}

func (p paymentsTx) GetByID(_ context.Context, paymentID string) (*domain.Payment, error) {
	payment, ok := p.v.st.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
	}
	return &payment, nil
}

func (p paymentsTx) ListRecentForUser(_ context.Context, userID string, limit int) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, payment := range p.v.st.payments {
		if payment.UserID == userID {
			out = append(out, payment)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (p paymentsTx) AttachProviderRef(_ context.Context, paymentID, providerRef string) error {
	payment, ok := p.v.st.payments[paymentID]
	if !ok {
		return fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
	}
	payment.ProviderRef = providerRef
	payment.UpdatedAt = p.v.now()
	p.v.st.payments[paymentID] = payment
	return nil
}

func (p paymentsTx) MarkPaid(_ context.Context, paymentID, providerRef string) (*domain.Payment, bool, error) {
	payment, ok := p.v.st.payments[paymentID]
	if !ok {
		return nil, false, fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
	}
	if payment.Status == domain.PaymentStatusPaid {
		return &payment, false, nil
	}
	payment.Status = domain.PaymentStatusPaid
	if providerRef != "" {
		payment.ProviderRef = providerRef
	}
	payment.UpdatedAt = p.v.now()
	p.v.st.payments[paymentID] = payment
	return &payment, true, nil
}

func (p paymentsTx) MarkFailed(_ context.Context, paymentID string) (bool, error) {
	payment, ok := p.v.st.payments[paymentID]
	if !ok {
		return false, fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
	}
	if payment.Status != domain.PaymentStatusPending {
		return false, nil
	}
	payment.Status = domain.PaymentStatusFailed
	payment.UpdatedAt = p.v.now()
	p.v.st.payments[paymentID] = payment
	return true, nil
}

func (p paymentsTx) EventExists(_ context.Context, eventID string) (bool, error) {
	_, ok := p.v.st.events[eventID]
	return ok, nil
}

func (p paymentsTx) RecordEvent(_ context.Context, event domain.WebhookEvent) error {
	if _, ok := p.v.st.events[event.EventID]; ok {
		return fmt.Errorf("event %s: %w", event.EventID, domain.ErrDuplicateEvent)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = p.v.now()
	}
	p.v.st.events[event.EventID] = event
	return nil
}

type paymentsAuto struct{ s *Store }

func (p paymentsAuto) Create(ctx context.Context, payment *domain.Payment) error {
	return p.s.autocommit(ctx, func(v *txView) error { return v.Payments().Create(ctx, payment) })
}

func (p paymentsAuto) GetByID(ctx context.Context, paymentID string) (payment *domain.Payment, err error) {
	err = p.s.autocommit(ctx, func(v *txView) error {
		payment, err = v.Payments().GetByID(ctx, paymentID)
		return err
	})
	return payment, err
}

func (p paymentsAuto) ListRecentForUser(ctx context.Context, userID string, limit int) (out []domain.Payment, err error) {
	err = p.s.autocommit(ctx, func(v *txView) error {
		out, err = v.Payments().ListRecentForUser(ctx, userID, limit)
		return err
	})
	return out, err
}

func (p paymentsAuto) AttachProviderRef(ctx context.Context, paymentID, providerRef string) error {
	return p.s.autocommit(ctx, func(v *txView) error {
		return v.Payments().AttachProviderRef(ctx, paymentID, providerRef)
	})
}

func (p paymentsAuto) MarkPaid(ctx context.Context, paymentID, providerRef string) (payment *domain.Payment, ok bool, err error) {
	err = p.s.autocommit(ctx, func(v *txView) error {
		payment, ok, err = v.Payments().MarkPaid(ctx, paymentID, providerRef)
		return err
	})
	return payment, ok, err
}

func (p paymentsAuto) MarkFailed(ctx context.Context, paymentID string) (ok bool, err error) {
	err = p.s.autocommit(ctx, func(v *txView) error {
		ok, err = v.Payments().MarkFailed(ctx, paymentID)
		return err
	})
	return ok, err
}

func (p paymentsAuto) EventExists(ctx context.Context, eventID string) (ok bool, err error) {
	err = p.s.autocommit(ctx, func(v *txView) error {
		ok, err = v.Payments().EventExists(ctx, eventID)
		return err
	})
	return ok, err
}

func (p paymentsAuto) RecordEvent(ctx context.Context, event domain.WebhookEvent) error {
	return p.s.autocommit(ctx, func(v *txView) error { return v.Payments().RecordEvent(ctx, event) })
}
