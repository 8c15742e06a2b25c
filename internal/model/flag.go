package model

import (
	"time"

	"github.com/google/uuid"
)

// FlagLabel names an outstanding clinical condition on a patient.
type FlagLabel string

const (
	FlagSafetyPlan         FlagLabel = "Safety Plan"
	FlagPsychiatricConsult FlagLabel = "Psychiatric Consult"
	FlagPediatricPatient   FlagLabel = "Pediatric Patient"
)

func (f FlagLabel) Valid() bool {
	switch f {
	case FlagSafetyPlan, FlagPsychiatricConsult, FlagPediatricPatient:
		return true
	}
	return false
}

type PatientFlag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PatientID uuid.UUID `json:"patientId" db:"patient_id"`
	Flag      FlagLabel `json:"flag" db:"flag"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
