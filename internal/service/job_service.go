package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"surgepark/internal/db"
	"surgepark/internal/events"
	"surgepark/internal/metrics"
	"surgepark/internal/repository"
)

const sweepTimeout = time.Minute

type JobService struct {
	store   repository.Store
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time
}

func NewJobService(store repository.Store, publisher events.Publisher, m *metrics.Metrics, ttl time.Duration, logger *slog.Logger) *JobService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{store: store, events: publisher, metrics: m, logger: logger, ttl: ttl, now: time.Now}
}

// FailAbandonedCheckouts fails BOOKED reservations whose payment is still
// pending after the TTL, which gives their spots back.
func (s *JobService) FailAbandonedCheckouts(ctx context.Context) (int64, error) {
	now := s.now()
	stale, err := s.store.ListStalePending(ctx, now.Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to list pending reservations: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(stale))
	for _, r := range stale {
		ids = append(ids, r.ID)
	}
	n, err := s.store.FailReservations(ctx, ids, now)
	if err != nil {
		return n, fmt.Errorf("cron job: failed to fail abandoned reservations: %w", err)
	}

	for _, id := range ids {
		r, err := s.store.GetReservation(ctx, id)
		if err != nil || r.Status != db.StatusFailed {
			continue
		}
		s.metrics.Transition(string(db.StatusFailed))
		if err := s.events.Publish(ctx, events.NewEvent(events.ReservationFailed, *r, now)); err != nil {
			s.logger.Warn("event_publish_failed", "type", events.ReservationFailed, "reservation_id", id, "err", err)
		}
	}
	s.logger.Info("abandoned_checkouts_failed", "candidates", len(ids), "failed", n)
	return n, nil
}

// Start schedules the sweep on a robfig/cron spec. Stop the returned cron on
// shutdown.
func (s *JobService) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := s.FailAbandonedCheckouts(ctx); err != nil {
			s.logger.Error("abandoned_checkout_sweep_failed", "err", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling sweep %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
