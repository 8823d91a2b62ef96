package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/patients-api/internal/repository"
	"github.com/jwalitptl/patients-api/internal/service/event"
	"github.com/jwalitptl/patients-api/pkg/metrics"
)

// OutboxCleanupWorker deletes processed outbox events older than the
// retention period.
type OutboxCleanupWorker struct {
	repo            repository.OutboxRepository
	retention       time.Duration
	cleanupInterval time.Duration
	metrics         *metrics.Metrics
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retention, cleanupInterval time.Duration, m *metrics.Metrics) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		metrics:         m,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				log.Error().Err(err).Msg("Error cleaning up outbox events")
			}
		}
	}
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	rows, err := event.CleanupProcessedEvents(ctx, w.repo, w.retention)
	if err != nil {
		return 0, err
	}

	if w.metrics != nil {
		w.metrics.OutboxEventsDeleted.Add(float64(rows))
	}
	if rows > 0 {
		log.Info().
			Int64("rows", rows).
			Dur("retention", w.retention).
			Msg("Cleaned up processed outbox events")
	}
	return rows, nil
}
