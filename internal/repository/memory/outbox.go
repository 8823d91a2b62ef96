package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/repository"
)

type OutboxRepository struct {
	mu     sync.Mutex
	events map[uuid.UUID]*model.OutboxEvent
	order  []uuid.UUID
	now    func() time.Time
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		events: make(map[uuid.UUID]*model.OutboxEvent),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.OutboxRepository = (*OutboxRepository)(nil)

func (r *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := r.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.Status = model.OutboxStatusPending

	if _, ok := r.events[event.ID]; !ok {
		r.order = append(r.order, event.ID)
	}
	c := *event
	r.events[c.ID] = &c
	return nil
}

func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int, reclaimAfter time.Duration) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stale := r.now().Add(-reclaimAfter)
	pending := make([]*model.OutboxEvent, 0)
	for _, id := range r.order {
		if len(pending) == limit {
			break
		}
		e := r.events[id]
		switch {
		case e.Status == model.OutboxStatusPending:
			pending = append(pending, e)
		case reclaimAfter > 0 && e.Status == model.OutboxStatusProcessing && e.UpdatedAt.Before(stale):
			pending = append(pending, e)
		}
	}

	out := make([]*model.OutboxEvent, 0, len(pending))
	for _, e := range pending {
		e.Status = model.OutboxStatusProcessing
		e.UpdatedAt = r.now()
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := r.now()
	e.Status = model.OutboxStatusProcessed
	e.ErrorMessage = nil
	e.ProcessedAt = &now
	e.UpdatedAt = now
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = model.OutboxStatusFailed
	e.ErrorMessage = &reason
	e.UpdatedAt = r.now()
	return nil
}

func (r *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	kept := r.order[:0]
	for _, id := range r.order {
		e := r.events[id]
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.events, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return n, nil
}

// Events returns a snapshot of every stored event, oldest first.
func (r *OutboxRepository) Events() []model.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.OutboxEvent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.events[id])
	}
	return out
}
