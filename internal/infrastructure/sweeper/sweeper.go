package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Closer closes expired auctions in batches.
type Closer interface {
	CloseExpired(ctx context.Context, limit int) (int, error)
}

// Sweeper periodically closes auctions whose end time has passed.
// Expiry is already enforced at settlement time, so the sweep only
// bounds how long a quiet auction stays open after its deadline.
type Sweeper struct {
	closer    Closer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// Config for Sweeper.
type Config struct {
	Closer    Closer
	Logger    *slog.Logger
	Interval  time.Duration
	BatchSize int
}

// New creates a new Sweeper.
func New(cfg Config) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 50
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Sweeper{
		closer:    cfg.Closer,
		logger:    cfg.Logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("auction sweeper started",
		slog.Duration("interval", s.interval),
		slog.Int("batch_size", s.batchSize))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("auction sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			closed, err := s.closer.CloseExpired(ctx, s.batchSize)
			if err != nil {
				s.logger.Error("sweep failed", slog.String("error", err.Error()))
				continue
			}

			if closed > 0 {
				s.logger.Info("closed expired auctions", slog.Int("count", closed))
			}
		}
	}
}
