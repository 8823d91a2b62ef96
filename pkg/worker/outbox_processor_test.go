package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/patients-api/internal/model"
	"github.com/jwalitptl/patients-api/internal/repository/memory"
	"github.com/jwalitptl/patients-api/internal/service/event"
	"github.com/jwalitptl/patients-api/pkg/logger"
	"github.com/jwalitptl/patients-api/pkg/messaging"
	"github.com/jwalitptl/patients-api/pkg/metrics"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

func (m *mockBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	args := m.Called(ctx, channel)
	return nil, args.Error(1)
}

func (m *mockBroker) Close() error {
	return m.Called().Error(0)
}

func newProcessor(t *testing.T, repo *memory.OutboxRepository, broker messaging.Broker) (*OutboxProcessor, *metrics.Metrics) {
	t.Helper()
	m := metrics.New("test", prometheus.NewRegistry())
	p, err := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		Channel:           "patients.events",
		BatchSize:         10,
		PollInterval:      time.Second,
		VisibilityTimeout: time.Minute,
	}, logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}), m)
	require.NoError(t, err)
	return p, m
}

func TestNewOutboxProcessor_RejectsBadConfig(t *testing.T) {
	repo := memory.NewOutboxRepository()
	for _, cfg := range []OutboxProcessorConfig{
		{BatchSize: 1, PollInterval: time.Second, VisibilityTimeout: time.Minute},
		{Channel: "c", PollInterval: time.Second, VisibilityTimeout: time.Minute},
		{Channel: "c", BatchSize: 1, VisibilityTimeout: time.Minute},
		{Channel: "c", BatchSize: 1, PollInterval: time.Second},
	} {
		_, err := NewOutboxProcessor(repo, new(mockBroker), cfg, logger.NewLogger(nil), nil)
		assert.Error(t, err)
	}
}

func TestProcessBatch_PublishesAndMarksProcessed(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOutboxRepository()
	pub := event.NewOutboxPublisher(repo)
	require.NoError(t, pub.Emit(ctx, model.EventPatientCreated, map[string]string{"name": "Ann"}))
	require.NoError(t, pub.Emit(ctx, model.EventPatientArchived, map[string]string{"name": "Bob"}))

	broker := new(mockBroker)
	broker.On("Publish", ctx, "patients.events", mock.MatchedBy(func(msg messaging.Message) bool {
		return msg.ID != "" && len(msg.Payload) > 0
	})).Return(nil).Twice()

	p, m := newProcessor(t, repo, broker)
	n, err := p.ProcessBatch(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	broker.AssertExpectations(t)
	for _, e := range repo.Events() {
		assert.Equal(t, model.OutboxStatusProcessed, e.Status)
		assert.NotNil(t, e.ProcessedAt)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxEventsProcessed))

	// Nothing left to claim.
	n, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessBatch_FailedPublishIsNotRetried(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOutboxRepository()
	require.NoError(t, event.NewOutboxPublisher(repo).Emit(ctx, model.EventPatientUpdated, map[string]string{}))

	broker := new(mockBroker)
	broker.On("Publish", ctx, "patients.events", mock.Anything).Return(errors.New("circuit breaker is open")).Once()

	p, m := newProcessor(t, repo, broker)
	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.OutboxStatusFailed, events[0].Status)
	require.NotNil(t, events[0].ErrorMessage)
	assert.Contains(t, *events[0].ErrorMessage, "circuit breaker is open")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsFailed))

	n, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	broker.AssertNumberOfCalls(t, "Publish", 1)
}
