package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pharmastock/internal/domain"
	"pharmastock/internal/errors"
)

const sweepBatchSize = 100

type Canceller interface {
	Cancel(ctx context.Context, id string) (*domain.Reservation, error)
}

type ExpiredFinder interface {
	FindExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// SweepStats summarizes one pass over expired reservations.
type SweepStats struct {
	Total       int       `json:"total"`
	Released    int       `json:"released"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processedAt"`
}

// ReservationSweeper cancels committed reservations whose hold has lapsed,
// returning their stock to the available pool.
type ReservationSweeper struct {
	finder    ExpiredFinder
	canceller Canceller
	clock     domain.Clock
	interval  time.Duration
	metrics   Metrics
	logger    *zap.Logger
}

func NewReservationSweeper(finder ExpiredFinder, canceller Canceller, clock domain.Clock, interval time.Duration, metrics Metrics, logger *zap.Logger) *ReservationSweeper {
	return &ReservationSweeper{
		finder:    finder,
		canceller: canceller,
		clock:     clock,
		interval:  interval,
		metrics:   metrics,
		logger:    logger,
	}
}

// SweepOnce cancels up to one batch of expired reservations through the
// regular idempotent cancel path.
func (s *ReservationSweeper) SweepOnce(ctx context.Context) (*SweepStats, error) {
	now := s.clock.Now()
	stats := &SweepStats{ProcessedAt: now}

	ids, err := s.finder.FindExpiredIDs(ctx, now, sweepBatchSize)
	if err != nil {
		s.logger.Error("failed to find expired reservations", zap.Error(err))
		return nil, err
	}

	stats.Total = len(ids)
	if stats.Total == 0 {
		s.logger.Debug("no expired reservations found")
		return stats, nil
	}

	for _, id := range ids {
		_, err := s.canceller.Cancel(ctx, id)
		if errors.HasKind(err, errors.KindInvalidTransition) {
			// Fulfilled after it was listed.
			stats.Skipped++
			continue
		}
		if err != nil {
			s.logger.Error("failed to release expired reservation", zap.String("planId", id), zap.Error(err))
			stats.Failed++
			continue
		}
		stats.Released++
	}

	s.metrics.AddExpiredReleased(stats.Released)
	s.logger.Info("completed expired reservation sweep",
		zap.Int("total", stats.Total),
		zap.Int("released", stats.Released),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)

	return stats, nil
}

// Run sweeps every interval until ctx is done. A zero interval disables it.
func (s *ReservationSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("reservation sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("reservation sweep failed", zap.Error(err))
			}
		}
	}
}
