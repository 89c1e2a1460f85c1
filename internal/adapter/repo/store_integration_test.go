package repo

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"vydio/internal/domain"
	"vydio/internal/infra"
)

// setupTestStore connects to TEST_DATABASE_URL and applies migrations.
// Tests are skipped when the variable is unset.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool, zerolog.Nop()))
	require.NoError(t, Migrate(ctx, pool, zerolog.Nop()), "second run must be a no-op")
	return NewStore(infra.NewSQLRunner(pool, zerolog.Nop()))
}

func seedUser(t *testing.T, s *Store, credits int) string {
	t.Helper()
	ctx := context.Background()
	userID := "user-" + uuid.NewString()
	_, err := s.Ledger().Upsert(ctx, userID, userID+"@example.com")
	require.NoError(t, err)
	if credits > 0 {
		_, err = s.Ledger().Credit(ctx, userID, credits)
		require.NoError(t, err)
	}
	return userID
}

func TestPostgresConcurrentDebitsNeverOverdraw(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := seedUser(t, s, 3)

	var debited atomic.Int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			err := s.WithinTx(ctx, func(tx domain.Repositories) error {
				_, err := tx.Ledger().Debit(ctx, userID, 1)
				return err
			})
			if errors.Is(err, domain.ErrInsufficientCredits) {
				return nil
			}
			if err == nil {
				debited.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 3, debited.Load())

	balance, err := s.Ledger().Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestPostgresTxRollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := seedUser(t, s, 5)
	jobID := uuid.NewString()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx domain.Repositories) error {
		if _, err := tx.Ledger().Debit(ctx, userID, 2); err != nil {
			return err
		}
		if err := tx.Jobs().Create(ctx, &domain.Job{
			ID: jobID, UserID: userID, Prompt: "a cat", DurationSeconds: 10, CreditCost: 2, Status: domain.JobStatusQueued,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, err := s.Ledger().Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	_, err = s.Jobs().GetForUser(ctx, jobID, userID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresJobLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := seedUser(t, s, 0)
	job := &domain.Job{
		ID: uuid.NewString(), UserID: userID, Prompt: "sunset", DurationSeconds: 4, CreditCost: 1,
		Status: domain.JobStatusQueued, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Jobs().Create(ctx, job))

	ok, err := s.Jobs().MarkRunning(ctx, job.ID, "operations/xyz")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Jobs().MarkSucceeded(ctx, job.ID, "https://cdn.example.com/v.mp4")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Jobs().MarkFailed(ctx, job.ID, "late failure")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Jobs().MarkFailed(ctx, uuid.NewString(), "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := s.Jobs().GetForUser(ctx, job.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusSucceeded, got.Status)
	assert.Equal(t, "operations/xyz", got.ProviderJobID)

	n, err := s.Jobs().CountCreatedSince(ctx, userID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Jobs().GetForUser(ctx, job.ID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresPaymentsAndEvents(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := seedUser(t, s, 0)
	p := &domain.Payment{
		ID: uuid.NewString(), UserID: userID, Amount: 12000, Currency: "TZS", CreditsBought: 3,
		IdempotencyKey: uuid.NewString(),
	}
	require.NoError(t, s.Payments().Create(ctx, p))
	require.NoError(t, s.Payments().AttachProviderRef(ctx, p.ID, "sn_123"))

	paid, ok, err := s.Payments().MarkPaid(ctx, p.ID, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sn_123", paid.ProviderRef)

	_, ok, err = s.Payments().MarkPaid(ctx, p.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	eventID := "evt_" + uuid.NewString()
	event := domain.WebhookEvent{EventID: eventID, Provider: domain.ProviderSnippe, EventType: domain.EventPaymentSucceeded}
	require.NoError(t, s.Payments().RecordEvent(ctx, event))
	assert.ErrorIs(t, s.Payments().RecordEvent(ctx, event), domain.ErrDuplicateEvent)

	exists, err := s.Payments().EventExists(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPostgresFailedPaymentCanStillBePaid(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := seedUser(t, s, 0)
	p := &domain.Payment{
		ID: uuid.NewString(), UserID: userID, Amount: 5000, Currency: "TZS", CreditsBought: 1,
		IdempotencyKey: uuid.NewString(),
	}
	require.NoError(t, s.Payments().Create(ctx, p))

	ok, err := s.Payments().MarkFailed(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)

	paid, ok, err := s.Payments().MarkPaid(ctx, p.ID, "sn_retry")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.PaymentStatusPaid, paid.Status)
	assert.Equal(t, "sn_retry", paid.ProviderRef)

	ok, err = s.Payments().MarkFailed(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok, "paid is final")
}
