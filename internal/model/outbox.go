package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Domain event types written to the outbox.
const (
	EventAssessmentSubmitted = "assessment.submitted"
	EventIntakeCreated       = "intake.created"
	EventPatientCreated      = "patient.created"
	EventPatientDeactivated  = "patient.deactivated"
	EventSafetyPlanCreated   = "safety_plan.created"
	EventSafetyPlanResolved  = "safety_plan.resolved"
	EventReminderCreated     = "reminder.created"
	EventConsultRecorded     = "psych_consult.recorded"
)

type OutboxEvent struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AggregateType string          `json:"aggregateType" db:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregateId" db:"aggregate_id"`
	EventType     string          `json:"eventType" db:"event_type"`
	Payload       json.RawMessage `json:"payload" db:"payload"`
	Status        OutboxStatus    `json:"status" db:"status"`
	ErrorMessage  *string         `json:"errorMessage,omitempty" db:"error_message"`
	RetryCount    int             `json:"retryCount" db:"retry_count"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	ProcessedAt   *time.Time      `json:"processedAt,omitempty" db:"processed_at"`
}
