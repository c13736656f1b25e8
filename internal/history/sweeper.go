package history

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs the retention sweep on a fixed interval, independent of the
// sweep the near-miss batch performs before each run.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper. A non-positive interval defaults to one hour.
func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// Sweep failures are logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.service.Sweep(ctx); err != nil {
			s.logger.ErrorContext(ctx, "history sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
