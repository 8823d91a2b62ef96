package worker

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/repository/memory"
	"github.com/jwalitptl/patients-api/internal/service/event"
	"github.com/jwalitptl/patients-api/pkg/metrics"
)

func TestOutboxCleanupWorker_Cleanup(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOutboxRepository()
	pub := event.NewOutboxPublisher(repo)
	require.NoError(t, pub.Emit(ctx, model.EventPatientCreated, map[string]string{}))
	require.NoError(t, pub.Emit(ctx, model.EventPatientUpdated, map[string]string{}))

	claimed, err := repo.ClaimPending(ctx, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.NoError(t, repo.MarkProcessed(ctx, claimed[0].ID))

	m := metrics.New("test", prometheus.NewRegistry())
	// Negative retention puts the cutoff in the future.
	w := NewOutboxCleanupWorker(repo, -time.Minute, time.Hour, m)

	rows, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsDeleted))

	remaining := repo.Events()
	require.Len(t, remaining, 1)
	assert.Equal(t, model.OutboxStatusPending, remaining[0].Status)
}

func TestOutboxCleanupWorker_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewOutboxCleanupWorker(memory.NewOutboxRepository(), time.Hour, time.Millisecond, nil)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
