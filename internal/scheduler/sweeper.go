// Package scheduler runs the background completion sweep.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
)

// Sweeper periodically transitions Approved bookings whose slot has ended to
// Completed. Reads of individual bookings also complete lazily, so the sweep
// interval only bounds how stale list views can get.
type Sweeper struct {
	booking  portssvc.BookingWriterSvc
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper over the booking service.
func NewSweeper(booking portssvc.BookingWriterSvc, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		booking:  booking,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks, sweeping once per interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Completion sweeper started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Completion sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	completed, err := s.booking.CompleteElapsed(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("Completion sweep failed", slog.String("error", err.Error()))
		return
	}
	if len(completed) > 0 {
		s.logger.Info("Completion sweep finished", slog.Int("completed", len(completed)))
	}
}
