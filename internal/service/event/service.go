package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
)

// Emitter writes domain events to the transactional outbox. Events are
// stored through the caller's transaction so they commit or roll back with
// the change they describe.
type Emitter struct {
	enabled bool
}

func NewEmitter(enabled bool) *Emitter {
	return &Emitter{enabled: enabled}
}

func (e *Emitter) Emit(ctx context.Context, tx repository.Store, aggregateType string, aggregateID uuid.UUID, eventType string, payload interface{}) error {
	if e == nil || !e.enabled {
		return nil
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payloadJSON,
		Status:        model.OutboxStatusPending,
		CreatedAt:     time.Now(),
	}

	if err := tx.Outbox().Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
