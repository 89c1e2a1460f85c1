package service

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vydio/internal/adapter/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, clock *fakeClock) *memory.Store {
	t.Helper()
	return memory.NewStore().WithClock(clock.Now)
}

func testOptions(clock *fakeClock) Options {
	return Options{Now: clock.Now, ProviderTimeout: time.Second, StaleQueuedAfter: 2 * time.Minute}
}

var nopLogger = zerolog.Nop()
