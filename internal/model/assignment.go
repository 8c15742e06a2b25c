package model

import (
	"github.com/google/uuid"
)

// ProviderType classifies a user's role on a patient's care team.
type ProviderType string

const (
	ProviderBHCM                  ProviderType = "BHCM"
	ProviderPsychiatricConsultant ProviderType = "Psychiatric Consultant"
	ProviderPrimaryCarePhysician  ProviderType = "Primary Care Physician"
)

// Assignment is a care-team role held over an interval. EndDate is nil while open.
type Assignment struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       uuid.UUID    `json:"userId" db:"user_id"`
	PatientID    uuid.UUID    `json:"patientId" db:"patient_id"`
	ProviderType ProviderType `json:"providerType" db:"provider_type"`
	BeginDate    Date         `json:"serviceBeginDate" db:"service_begin_date"`
	EndDate      *Date        `json:"serviceEndDate" db:"service_end_date"`
}

func (a *Assignment) IsOpen() bool {
	return a.EndDate == nil
}
