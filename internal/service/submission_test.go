package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"vydio/internal/domain"
	"vydio/internal/mocks"
)

func balanceOf(t *testing.T, store domain.Store, userID string) int {
	t.Helper()
	b, err := store.Ledger().Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func TestSubmitReservesCreditsAndStartsGeneration(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.SeedUser("u1", 5)

	gateway := mocks.NewMockVideoGateway(gomock.NewController(t))
	gateway.EXPECT().StartGeneration(gomock.Any(), "a fox in the snow", 10).Return("operations/op-1", nil)

	s := NewSubmitter(store, gateway, nopLogger, testOptions(clock))
	job, err := s.Submit(ctx, "u1", "  a fox in the snow ", 10)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, job.Status)
	assert.Equal(t, "operations/op-1", job.ProviderJobID)
	assert.Equal(t, 2, job.CreditCost)
	assert.Equal(t, 3, balanceOf(t, store, "u1"))

	stored, err := store.Jobs().GetForUser(ctx, job.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, stored.Status)
	assert.Equal(t, "a fox in the snow", stored.Prompt)
	assert.Equal(t, clock.Now(), stored.CreatedAt)
}

func TestSubmitValidationHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.SeedUser("u1", 5)

	// No expectations: any provider call fails the test.
	gateway := mocks.NewMockVideoGateway(gomock.NewController(t))
	s := NewSubmitter(store, gateway, nopLogger, testOptions(clock))

	_, err := s.Submit(ctx, "u1", "a cat", 45)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Submit(ctx, "u1", "   ", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 5, balanceOf(t, store, "u1"))
	jobs, err := store.Jobs().ListRecentForUser(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSubmitInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.SeedUser("u1", 4)

	gateway := mocks.NewMockVideoGateway(gomock.NewController(t))
	s := NewSubmitter(store, gateway, nopLogger, testOptions(clock))

	_, err := s.Submit(ctx, "u1", "long film", 60)
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
	assert.Equal(t, 4, balanceOf(t, store, "u1"))

	_, err = s.Submit(ctx, "stranger", "long film", 4)
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)

	jobs, err := store.Jobs().ListRecentForUser(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSubmitTruncatesLongPrompt(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.SeedUser("u1", 5)

	raw := strings.Repeat("x", 900)
	gateway := mocks.NewMockVideoGateway(gomock.NewController(t))
	gateway.EXPECT().StartGeneration(gomock.Any(), raw[:800], 4).Return("operations/op-2", nil)

	s := NewSubmitter(store, gateway, nopLogger, testOptions(clock))
	job, err := s.Submit(ctx, "u1", raw, 4)
	require.NoError(t, err)
	assert.Len(t, job.Prompt, 800)
}

func TestSubmitStoresComposedPrompt(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.SeedUser("u1", 5)

	gateway := mocks.NewMockVideoGateway(gomock.NewController(t))
	gateway.EXPECT().StartGeneration(gomock.Any(), "caf\u00e9 at dusk", 4).Return("operations/op-nfc", nil)

	s := NewSubmitter(store, gateway, nopLogger, testOptions(clock))
	job, err := s.Submit(ctx, "u1", " cafe\u0301 at dusk ", 4)
	require.NoError(t, err)

	stored, err := store.Jobs().GetForUser(ctx, job.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9 at dusk", stored.Prompt)
}

func TestSubmitRefundsWhenProviderRejects(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.SeedUser("u1", 5)

	gateway := mocks.NewMockVideoGateway(gomock.NewController(t))
	gateway.EXPECT().StartGeneration(gomock.Any(), gomock.Any(), 10).Return("", errors.New("veo: status 503"))

	s := NewSubmitter(store, gateway, nopLogger, testOptions(clock))
	job, err := s.Submit(ctx, "u1", "a fox", 10)
	require.Error(t, err)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)

	var refunded *domain.RefundedError
	require.ErrorAs(t, err, &refunded)
	assert.Equal(t, 2, refunded.Credits)
	assert.Equal(t, 5, balanceOf(t, store, "u1"))

	stored, err := store.Jobs().GetForUser(ctx, refunded.JobID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "503")
}

func TestSubmitTreatsEmptyHandleAsRejection(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.SeedUser("u1", 1)

	gateway := mocks.NewMockVideoGateway(gomock.NewController(t))
	gateway.EXPECT().StartGeneration(gomock.Any(), gomock.Any(), 4).Return("", nil)

	s := NewSubmitter(store, gateway, nopLogger, testOptions(clock))
	_, err := s.Submit(ctx, "u1", "a fox", 4)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, 1, balanceOf(t, store, "u1"))
}

func TestSubmitRateLimitBoundary(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.SeedUser("u1", 20)

	gateway := mocks.NewMockVideoGateway(gomock.NewController(t))
	gateway.EXPECT().StartGeneration(gomock.Any(), gomock.Any(), 4).Return("operations/x", nil).Times(4)

	s := NewSubmitter(store, gateway, nopLogger, testOptions(clock))
	for i := 0; i < 3; i++ {
		_, err := s.Submit(ctx, "u1", "clip", 4)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	_, err := s.Submit(ctx, "u1", "clip", 4)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 17, balanceOf(t, store, "u1"))

	// The first job was created 3s ago; move past its window.
	clock.Advance(58 * time.Second)
	_, err = s.Submit(ctx, "u1", "clip", 4)
	require.NoError(t, err)
	assert.Equal(t, 16, balanceOf(t, store, "u1"))
}

func TestSubmitConcurrentNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)
	store.SeedUser("u1", 7)

	var n atomic.Int32
	gateway := mocks.NewMockVideoGateway(gomock.NewController(t))
	gateway.EXPECT().StartGeneration(gomock.Any(), gomock.Any(), 10).
		DoAndReturn(func(context.Context, string, int) (string, error) {
			return fmt.Sprintf("operations/%d", n.Add(1)), nil
		}).AnyTimes()

	s := NewSubmitter(store, gateway, nopLogger, testOptions(clock))
	s.limiter.limit = 1000

	var accepted atomic.Int32
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := s.Submit(ctx, "u1", "race", 10)
			switch {
			case err == nil:
				accepted.Add(1)
				return nil
			case errors.Is(err, domain.ErrInsufficientCredits):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 3, accepted.Load())
	assert.Equal(t, 1, balanceOf(t, store, "u1"))
}
