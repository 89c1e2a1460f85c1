package repo

import (
	"context"

	"vydio/internal/domain"
	"vydio/internal/infra"
)

// Store is the PostgreSQL domain.Store. Each WithinTx call gets repositories
// bound to one pgx transaction.
type Store struct {
	runner *infra.SQLRunner
}

func NewStore(runner *infra.SQLRunner) *Store {
	return &Store{runner: runner}
}

func (s *Store) Ledger() domain.LedgerRepository    { return NewLedgerRepository(s.runner) }
func (s *Store) Jobs() domain.JobRepository         { return NewJobRepository(s.runner) }
func (s *Store) Payments() domain.PaymentRepository { return NewPaymentRepository(s.runner) }

func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Repositories) error) error {
	return s.runner.WithinTx(ctx, func(tx *infra.SQLRunner) error {
		return fn(txRepositories{db: tx})
	})
}

type txRepositories struct {
	db infra.SQLExecutor
}

func (t txRepositories) Ledger() domain.LedgerRepository    { return NewLedgerRepository(t.db) }
func (t txRepositories) Jobs() domain.JobRepository         { return NewJobRepository(t.db) }
func (t txRepositories) Payments() domain.PaymentRepository { return NewPaymentRepository(t.db) }

var (
	_ domain.Store             = (*Store)(nil)
	_ domain.LedgerRepository  = (*LedgerRepositoryPG)(nil)
	_ domain.JobRepository     = (*JobRepositoryPG)(nil)
	_ domain.PaymentRepository = (*PaymentRepositoryPG)(nil)
)
