// Package jobs runs the periodic maintenance work of the service.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yukikurage/jobsworth/internal/metrics"
)

// Expirer clears passed hide_until dates and reports how many tasks changed.
type Expirer interface {
	ExpireHideUntil(ctx context.Context, now time.Time) (int, error)
}

// HideUntilSweeper calls the expirer on a fixed interval. Overlapping runs
// across replicas are harmless since clearing an expired date is idempotent.
type HideUntilSweeper struct {
	expirer  Expirer
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewHideUntilSweeper(expirer Expirer, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *HideUntilSweeper {
	return &HideUntilSweeper{
		expirer:  expirer,
		interval: interval,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

func (s *HideUntilSweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *HideUntilSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *HideUntilSweeper) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (s *HideUntilSweeper) RunOnce(ctx context.Context) (int, error) {
	count, err := s.expirer.ExpireHideUntil(ctx, s.now())
	s.metrics.ObserveSweep(count, err)
	if err != nil {
		s.logger.Error("hide_until sweep failed", "error", err)
		return count, err
	}

	if count > 0 {
		s.logger.Info("hide_until expired", "count", count)
	} else {
		s.logger.Debug("hide_until sweep found nothing")
	}
	return count, nil
}
