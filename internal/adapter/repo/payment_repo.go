package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"vydio/internal/domain"
	"vydio/internal/infra"
	"vydio/internal/sqlinline"
)

// PaymentRepositoryPG implements domain.PaymentRepository on the payments
// and webhook_events tables.
type PaymentRepositoryPG struct {
	db infra.SQLExecutor
}

func NewPaymentRepository(db infra.SQLExecutor) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{db: db}
}

func (r *PaymentRepositoryPG) Create(ctx context.Context, p *domain.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = domain.PaymentStatusPending
	}
	err := r.db.QueryRow(ctx, sqlinline.QInsertPayment,
		p.ID,
		p.UserID,
		p.Amount,
		p.Currency,
		p.CreditsBought,
		p.IdempotencyKey,
		p.ProviderRef,
		p.Status,
		p.CreatedAt,
	).Scan(&p.UpdatedAt)
	return mapDBError("insert payment", err)
}

func (r *PaymentRepositoryPG) GetByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, sqlinline.QSelectPaymentByID, paymentID))
	if err != nil {
		return nil, mapDBError("select payment", err)
	}
	return p, nil
}

func (r *PaymentRepositoryPG) ListRecentForUser(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListRecentPayments, userID, limit)
	if err != nil {
		return nil, mapDBError("list payments", err)
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, mapDBError("scan payment", err)
		}
		out = append(out, *p)
	}
	return out, mapDBError("list payments", rows.Err())
}

func (r *PaymentRepositoryPG) AttachProviderRef(ctx context.Context, paymentID, providerRef string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QAttachPaymentProviderRef, paymentID, providerRef)
	if err != nil {
		return mapDBError("attach provider ref", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attach provider ref %s: %w", paymentID, domain.ErrNotFound)
	}
	return nil
}

// MarkPaid returns the current payment with false when it was already paid.
func (r *PaymentRepositoryPG) MarkPaid(ctx context.Context, paymentID, providerRef string) (*domain.Payment, bool, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, sqlinline.QMarkPaymentPaid, paymentID, providerRef))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, mapDBError("mark paid", err)
	}
	current, err := r.GetByID(ctx, paymentID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *PaymentRepositoryPG) MarkFailed(ctx context.Context, paymentID string) (bool, error) {
	tag, err := r.db.Exec(ctx, sqlinline.QMarkPaymentFailed, paymentID)
	if err != nil {
		return false, mapDBError("mark payment failed", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, sqlinline.QPaymentExists, paymentID).Scan(&exists); err != nil {
		return false, mapDBError("mark payment failed", err)
	}
	if !exists {
		return false, fmt.Errorf("mark payment failed %s: %w", paymentID, domain.ErrNotFound)
	}
	return false, nil
}

func (r *PaymentRepositoryPG) EventExists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, sqlinline.QWebhookEventExists, eventID).Scan(&exists); err != nil {
		return false, mapDBError("event exists", err)
	}
	return exists, nil
}

// RecordEvent relies on the primary key of webhook_events; a concurrent
// delivery of the same event loses the race with ErrDuplicateEvent.
func (r *PaymentRepositoryPG) RecordEvent(ctx context.Context, event domain.WebhookEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, sqlinline.QInsertWebhookEvent, event.EventID, event.Provider, event.EventType, event.CreatedAt)
	err = mapDBError("record event", err)
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("event %s: %w", event.EventID, domain.ErrDuplicateEvent)
	}
	return err
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Amount,
		&p.Currency,
		&p.CreditsBought,
		&p.IdempotencyKey,
		&p.ProviderRef,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
