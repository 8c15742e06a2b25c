package model

import (
	"time"

	"github.com/google/uuid"
)

// SafetyPlanAction is recorded in the safety plan history log.
type SafetyPlanAction string

const (
	SafetyPlanCreated  SafetyPlanAction = "created"
	SafetyPlanResolved SafetyPlanAction = "resolved"
)

// SafetyPlan is the full safety plan document filled in with the patient.
type SafetyPlan struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PatientID   uuid.UUID `json:"patientId" db:"patient_id"`
	CreatedBy   uuid.UUID `json:"createdBy" db:"created_by"`
	ContactDate Date      `json:"contactDate" db:"contact_date"`
	ClinicalSections
	SafetyPlanDiscussed bool      `json:"safetyPlanDiscussed" db:"safety_plan_discussed"`
	Minutes             int       `json:"minutes" db:"minutes"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
}

type CreateSafetyPlanRequest struct {
	PatientID   uuid.UUID `json:"patientId" binding:"required"`
	CreatedBy   uuid.UUID `json:"createdBy" binding:"required"`
	ContactDate string    `json:"contactDate" binding:"required"`
	ClinicalSections
	SafetyPlanDiscussed bool `json:"safetyPlanDiscussed"`
	Minutes             int  `json:"minutes" binding:"required,min=1"`
}

// SafetyPlanHistory is one immutable workflow transition.
type SafetyPlanHistory struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	PatientID  uuid.UUID        `json:"patientId" db:"patient_id"`
	Action     SafetyPlanAction `json:"action" db:"action"`
	ResolvedBy *uuid.UUID       `json:"resolvedBy,omitempty" db:"resolved_by"`
	Minutes    *int             `json:"minutes,omitempty" db:"minutes"`
	Notes      *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
}

// SafetyPlanStatus reports whether a patient currently has an active plan.
type SafetyPlanStatus struct {
	PatientID uuid.UUID          `json:"patientId"`
	Active    bool               `json:"active"`
	LastEvent *SafetyPlanHistory `json:"lastEvent,omitempty"`
}

type SafetyPlanFlagRequest struct {
	PatientID uuid.UUID `json:"patientId" binding:"required"`
}

type CompleteSafetyPlanRequest struct {
	PatientID  uuid.UUID `json:"patientId" binding:"required"`
	ResolvedBy uuid.UUID `json:"resolverId" binding:"required"`
	Minutes    int       `json:"minutes" binding:"min=0"`
	Notes      string    `json:"notes"`
}

type SafetyPlanResult struct {
	ID          uuid.UUID `json:"id"`
	Message     string    `json:"message"`
	FlagActive  bool      `json:"flagActive"`
	FlagChanged bool      `json:"flagChanged"`
}
