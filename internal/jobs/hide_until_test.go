package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/jobsworth/internal/metrics"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []time.Time
	count int
	err   error
}

func (f *fakeExpirer) ExpireHideUntil(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.count, f.err
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce(t *testing.T) {
	expirer := &fakeExpirer{count: 3}
	m := metrics.New()
	sweeper := NewHideUntilSweeper(expirer, time.Minute, m, discardLogger())
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return fixed }

	count, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []time.Time{fixed}, expirer.calls)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.HideUntilExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues("ok")))
}

func TestRunOnceError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db down")}
	m := metrics.New()
	sweeper := NewHideUntilSweeper(expirer, time.Minute, m, discardLogger())

	_, err := sweeper.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HideUntilExpired))
}

func TestStartTicksUntilStopped(t *testing.T) {
	expirer := &fakeExpirer{}
	sweeper := NewHideUntilSweeper(expirer, 5*time.Millisecond, nil, discardLogger())

	sweeper.Start(context.Background())
	assert.Eventually(t, func() bool { return expirer.callCount() >= 2 }, time.Second, 5*time.Millisecond)

	sweeper.Stop()
	calls := expirer.callCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, expirer.callCount())

	// stopping twice is safe
	sweeper.Stop()
}

func TestStartStopsWithContext(t *testing.T) {
	expirer := &fakeExpirer{}
	sweeper := NewHideUntilSweeper(expirer, time.Hour, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
	assert.Zero(t, expirer.callCount())
}
