package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackteamhq/portal/internal/models"
	"go.uber.org/zap"
)

// gatedFetcher blocks each ListSummaries call until the test releases it,
// so the test can pile up notifications while a re-fetch is in flight.
type gatedFetcher struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
	err     error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *gatedFetcher) ListSummaries(context.Context, uuid.UUID) ([]models.ThreadSummary, error) {
	f.mu.Lock()
	f.calls++
	err := f.err
	f.mu.Unlock()
	f.started <- struct{}{}
	<-f.release
	if err != nil {
		return nil, err
	}
	return []models.ThreadSummary{}, nil
}

func (f *gatedFetcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *gatedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Notifications that arrive while a re-fetch is running coalesce into
// exactly one follow-up re-fetch, never one each and never a concurrent one.
func TestSessionCoalescesNotifications(t *testing.T) {
	fetcher := newGatedFetcher()
	var pushes int
	session := NewSession(uuid.New(), fetcher, func([]models.ThreadSummary) error {
		pushes++
		return nil
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	// Initial snapshot fetch is in flight; burst notifications at it.
	<-fetcher.started
	for i := 0; i < 10; i++ {
		session.Notify()
	}
	fetcher.release <- struct{}{}

	// The burst collapses to a single follow-up re-fetch.
	<-fetcher.started
	fetcher.release <- struct{}{}

	// And no third fetch happens without a new notification.
	select {
	case <-fetcher.started:
		t.Fatal("unexpected extra re-fetch")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, fetcher.callCount())
	assert.Equal(t, 2, pushes)
}

func TestSessionNotifyNeverBlocks(t *testing.T) {
	session := NewSession(uuid.New(), newGatedFetcher(), func([]models.ThreadSummary) error {
		return nil
	}, zap.NewNop())

	// No goroutine is draining the channel; repeated notifications must
	// still return immediately.
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			session.Notify()
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked")
	}
}

// A push failure means the socket is gone: the session ends with the error.
func TestSessionEndsOnPushFailure(t *testing.T) {
	fetcher := newGatedFetcher()
	session := NewSession(uuid.New(), fetcher, func([]models.ThreadSummary) error {
		return errors.New("broken pipe")
	}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- session.Run(context.Background()) }()

	<-fetcher.started
	fetcher.release <- struct{}{}

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

// A fetch failure is transient (logged, no push); the session stays up and
// the next notification retries.
func TestSessionSurvivesFetchFailure(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.setErr(errors.New("db down"))

	var pushes int
	session := NewSession(uuid.New(), fetcher, func([]models.ThreadSummary) error {
		pushes++
		return nil
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	<-fetcher.started
	fetcher.release <- struct{}{}

	// Recovered: the next notification fetches successfully and pushes.
	fetcher.setErr(nil)
	session.Notify()
	<-fetcher.started
	fetcher.release <- struct{}{}

	cancel()
	<-done
	assert.Equal(t, 2, fetcher.callCount())
	assert.Equal(t, 1, pushes)
}
