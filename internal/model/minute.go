package model

import (
	"time"

	"github.com/google/uuid"
)

// MinuteActivity names what a ledger entry was logged for.
type MinuteActivity string

const (
	ActivityAssessment     MinuteActivity = "assessment"
	ActivityContactAttempt MinuteActivity = "contact_attempt"
	ActivityIntake         MinuteActivity = "intake"
	ActivitySafetyPlan     MinuteActivity = "safety_plan"
	ActivityPsychConsult   MinuteActivity = "psych_consult"
)

// MinuteEntry is one append-only row of the billing ledger.
type MinuteEntry struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	UserID           uuid.UUID      `json:"userId" db:"user_id"`
	PatientID        *uuid.UUID     `json:"patientId" db:"patient_id"`
	TotalMinutes     int            `json:"totalMinutes" db:"total_minutes"`
	TrackingDate     Date           `json:"trackingDate" db:"tracking_date"`
	Activity         MinuteActivity `json:"activity" db:"activity"`
	ContactID        *uuid.UUID     `json:"contactId,omitempty" db:"contact_id"`
	ContactAttemptID *uuid.UUID     `json:"contactAttemptId,omitempty" db:"contact_attempt_id"`
	PsychConsultID   *uuid.UUID     `json:"psychConsultId,omitempty" db:"psych_consult_id"`
	IntakeID         *uuid.UUID     `json:"intakeId,omitempty" db:"intake_id"`
	SafetyPlanID     *uuid.UUID     `json:"safetyPlanId,omitempty" db:"safety_plan_id"`
	CreatedAt        time.Time      `json:"createdAt" db:"created_at"`
}

// MinuteReportRow is a ledger entry joined with user and patient names for exports.
type MinuteReportRow struct {
	TrackingDate Date           `db:"tracking_date"`
	UserName     string         `db:"user_name"`
	PatientName  *string        `db:"patient_name"`
	PatientMRN   *string        `db:"patient_mrn"`
	Activity     MinuteActivity `db:"activity"`
	TotalMinutes int            `db:"total_minutes"`
}

// MinuteFilter bounds ledger queries. Zero dates are open ends.
type MinuteFilter struct {
	UserID    *uuid.UUID
	ClinicID  *uuid.UUID
	StartDate Date
	EndDate   Date
}

type UserMinutes struct {
	UserID       uuid.UUID `json:"userId"`
	StartDate    *Date     `json:"startDate,omitempty"`
	EndDate      *Date     `json:"endDate,omitempty"`
	TotalMinutes int       `json:"totalMinutes"`
}
