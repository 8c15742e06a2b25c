package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     *uuid.UUID      `json:"userId" db:"user_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entityType" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entityId" db:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty" db:"changes"`
	IPAddress  string          `json:"ipAddress" db:"ip_address"`
	UserAgent  string          `json:"userAgent" db:"user_agent"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate     = "create"
	AuditActionUpdate     = "update"
	AuditActionDelete     = "delete"
	AuditActionDeactivate = "deactivate"
	AuditActionLogin      = "login"

	// Entity types
	AuditEntityUser         = "user"
	AuditEntityClinic       = "clinic"
	AuditEntityPatient      = "patient"
	AuditEntityReminder     = "reminder"
	AuditEntityConsultation = "psych_consultation"
)

// AuditFilter selects audit entries. Zero values match everything.
type AuditFilter struct {
	UserID     *uuid.UUID
	EntityType string
	EntityID   *uuid.UUID
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
