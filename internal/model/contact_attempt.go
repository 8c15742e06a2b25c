package model

import (
	"time"

	"github.com/google/uuid"
)

const defaultAttemptDescription = "Contact attempt"

type ContactAttempt struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PatientID   uuid.UUID `json:"patientId" db:"patient_id"`
	AttemptDate Date      `json:"attemptDate" db:"attempt_date"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// AttemptDescription falls back to a generic label when no notes were given.
func AttemptDescription(notes string) string {
	if notes == "" {
		return defaultAttemptDescription
	}
	return notes
}

type RecordContactAttemptRequest struct {
	PatientID       uuid.UUID       `json:"patientId" binding:"required"`
	UserID          uuid.UUID       `json:"userId" binding:"required"`
	AttemptDate     string          `json:"attemptDate" binding:"required"`
	Minutes         int             `json:"minutes" binding:"required,min=1"`
	InteractionMode InteractionMode `json:"interactionMode" binding:"required,oneof=by_phone by_video in_clinic"`
	Notes           string          `json:"notes"`
}

type ContactAttemptResult struct {
	AttemptID       uuid.UUID       `json:"attemptId"`
	MinuteEntryID   uuid.UUID       `json:"minuteEntryId"`
	PatientID       uuid.UUID       `json:"patientId"`
	AttemptDate     Date            `json:"attemptDate"`
	Minutes         int             `json:"minutes"`
	InteractionMode InteractionMode `json:"interactionMode"`
	Message         string          `json:"message"`
}
