package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/pkg/logger"
	"github.com/jwalitptl/collabcare-api/pkg/messaging"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

type fakeBroker struct {
	mu        sync.Mutex
	err       error
	calls     int
	published []messaging.Message
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, message.(messaging.Message))
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBroker) Close() error { return nil }

func newProcessor(t *testing.T, store *memory.Store, broker messaging.Broker) *OutboxProcessor {
	t.Helper()
	p, err := NewOutboxProcessor(store, broker, OutboxProcessorConfig{
		Channel:       "collabcare.events",
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
	}, logger.Nop(), metrics.NewNop())
	require.NoError(t, err)
	return p
}

func addEvent(t *testing.T, store *memory.Store, eventType string) {
	t.Helper()
	err := store.Outbox().Create(context.Background(), &model.OutboxEvent{
		AggregateType: "patient",
		AggregateID:   uuid.New(),
		EventType:     eventType,
		Payload:       json.RawMessage(`{"ok":true}`),
	})
	require.NoError(t, err)
}

func TestOutboxProcessor_PublishesPending(t *testing.T) {
	store := memory.NewStore()
	broker := &fakeBroker{}
	addEvent(t, store, model.EventIntakeCreated)
	addEvent(t, store, model.EventPatientDeactivated)

	n, err := newProcessor(t, store, broker).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, broker.published, 2)
	assert.Equal(t, model.EventIntakeCreated, broker.published[0].Type)
	assert.JSONEq(t, `{"ok":true}`, string(broker.published[0].Payload))
	for _, e := range store.Events() {
		assert.Equal(t, model.OutboxStatusProcessed, e.Status)
		assert.NotNil(t, e.ProcessedAt)
	}

	n, err = newProcessor(t, store, broker).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxProcessor_FailsAfterRetries(t *testing.T) {
	store := memory.NewStore()
	broker := &fakeBroker{err: errors.New("broker down")}
	addEvent(t, store, model.EventReminderCreated)
	p := newProcessor(t, store, broker)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, broker.calls)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.OutboxStatusPending, events[0].Status)
	assert.Equal(t, 1, events[0].RetryCount)
	require.NotNil(t, events[0].ErrorMessage)
	assert.Equal(t, "broker down", *events[0].ErrorMessage)

	_, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.OutboxStatusFailed, store.Events()[0].Status)
}

func TestNewOutboxProcessor_RejectsBadConfig(t *testing.T) {
	_, err := NewOutboxProcessor(memory.NewStore(), &fakeBroker{}, OutboxProcessorConfig{Channel: "c"}, logger.Nop(), metrics.NewNop())
	assert.Error(t, err)
}
