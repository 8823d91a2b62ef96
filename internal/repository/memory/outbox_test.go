package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patients-api/internal/model"
)

func newOutbox(clock *time.Time) *OutboxRepository {
	r := NewOutboxRepository()
	r.now = func() time.Time { return *clock }
	return r
}

func emit(t *testing.T, r *OutboxRepository, eventType string) *model.OutboxEvent {
	t.Helper()
	e := &model.OutboxEvent{EventType: eventType, Payload: json.RawMessage(`{}`)}
	require.NoError(t, r.Create(context.Background(), e))
	return e
}

func TestOutboxRepository_ClaimIsExclusive(t *testing.T) {
	clock := base
	r := newOutbox(&clock)
	ctx := context.Background()
	emit(t, r, model.EventPatientCreated)
	emit(t, r, model.EventPatientUpdated)

	first, err := r.ClaimPending(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := r.ClaimPending(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestOutboxRepository_ReclaimsStaleProcessing(t *testing.T) {
	clock := base
	r := newOutbox(&clock)
	ctx := context.Background()
	stuck := emit(t, r, model.EventPatientCreated)

	claimed, err := r.ClaimPending(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	// The claimer died before marking the event.
	clock = clock.Add(30 * time.Second)
	claimed, err = r.ClaimPending(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	clock = clock.Add(time.Minute)
	claimed, err = r.ClaimPending(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, claimed, "reclaim disabled")

	claimed, err = r.ClaimPending(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, stuck.ID, claimed[0].ID)
	assert.Equal(t, model.OutboxStatusProcessing, claimed[0].Status)
	assert.Equal(t, clock, claimed[0].UpdatedAt)

	require.NoError(t, r.MarkProcessed(ctx, stuck.ID))
	clock = clock.Add(time.Hour)
	claimed, err = r.ClaimPending(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, claimed, "processed events are never reclaimed")
}
