package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"vydio/internal/domain"
	"vydio/internal/infra"
	"vydio/internal/sqlinline"
)

// LedgerRepositoryPG implements domain.LedgerRepository on the users table.
type LedgerRepositoryPG struct {
	db infra.SQLExecutor
}

// NewLedgerRepository creates a ledger repository bound to db, which may be a
// pool runner or a transaction runner.
func NewLedgerRepository(db infra.SQLExecutor) *LedgerRepositoryPG {
	return &LedgerRepositoryPG{db: db}
}

func (r *LedgerRepositoryPG) Balance(ctx context.Context, userID string) (int, error) {
	var credits int
	if err := r.db.QueryRow(ctx, sqlinline.QSelectUserCredits, userID).Scan(&credits); err != nil {
		return 0, mapDBError("select credits", err)
	}
	return credits, nil
}

// Debit locks the user row before checking the balance. Outside a
// transaction the lock is released immediately, but the conditional update
// still refuses to overdraw.
func (r *LedgerRepositoryPG) Debit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount %d: %w", amount, domain.ErrInvalidInput)
	}
	var credits int
	if err := r.db.QueryRow(ctx, sqlinline.QLockUserCredits, userID).Scan(&credits); err != nil {
		return 0, mapDBError("lock credits", err)
	}
	if credits < amount {
		return credits, domain.ErrInsufficientCredits
	}
	if err := r.db.QueryRow(ctx, sqlinline.QDebitUserCredits, userID, amount).Scan(&credits); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, mapDBError("debit credits", err)
	}
	return credits, nil
}

func (r *LedgerRepositoryPG) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount %d: %w", amount, domain.ErrInvalidInput)
	}
	var credits int
	if err := r.db.QueryRow(ctx, sqlinline.QCreditUserCredits, userID, amount).Scan(&credits); err != nil {
		return 0, mapDBError("credit credits", err)
	}
	return credits, nil
}

func (r *LedgerRepositoryPG) Upsert(ctx context.Context, userID, email string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, sqlinline.QUpsertUser, userID, email))
	if err != nil {
		return nil, mapDBError("upsert user", err)
	}
	return user, nil
}

func (r *LedgerRepositoryPG) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, sqlinline.QSelectUserByID, userID))
	if err != nil {
		return nil, mapDBError("select user", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Credits, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
