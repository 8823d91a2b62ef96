package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/repository"
	"github.com/jwalitptl/patients-api/pkg/messaging"
)

// OutboxPublisher records patient changes in the outbox. The worker relays
// them to the broker.
type OutboxPublisher struct {
	outboxRepo repository.OutboxRepository
}

func NewOutboxPublisher(outboxRepo repository.OutboxRepository) *OutboxPublisher {
	return &OutboxPublisher{outboxRepo: outboxRepo}
}

func (p *OutboxPublisher) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payloadJSON,
	}

	if err := p.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (p *OutboxPublisher) Refresh(ctx context.Context, change model.PatientChange) error {
	return p.Emit(ctx, change.EventType, change)
}

// CleanupProcessedEvents deletes processed events older than retention.
func CleanupProcessedEvents(ctx context.Context, repo repository.OutboxRepository, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	count, err := repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup events: %w", err)
	}
	return count, nil
}

// Subscribe forwards patient change messages arriving on channel to
// refresher until ctx is cancelled.
func Subscribe(ctx context.Context, broker messaging.Broker, channel string, refresher Refresher) error {
	return messaging.Consume(ctx, broker, channel, func(ctx context.Context, msg messaging.Message) error {
		var change model.PatientChange
		if err := json.Unmarshal(msg.Payload, &change); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", msg.Type, err)
		}
		if change.EventType == "" {
			change.EventType = msg.Type
		}

		log.Debug().
			Str("event_type", change.EventType).
			Str("patient_id", change.PatientID.String()).
			Msg("Received patient change")

		return refresher.Refresh(ctx, change)
	})
}
