package model

import (
	"github.com/google/uuid"
)

// DocumentKind groups files in a patient's documents folder.
type DocumentKind string

const (
	DocumentAssessment     DocumentKind = "assessment"
	DocumentIntake         DocumentKind = "intake"
	DocumentSafetyPlan     DocumentKind = "safety_plan"
	DocumentContactAttempt DocumentKind = "contact_attempt"
)

// DocumentFile is one exportable record, identified by its date and kind.
type DocumentFile struct {
	ID         uuid.UUID      `json:"id"`
	Kind       DocumentKind   `json:"kind"`
	Title      string         `json:"title"`
	Date       Date           `json:"date"`
	Type       AssessmentType `json:"type,omitempty"`
	ExportPath string         `json:"exportPath"`
}

// DocumentFolder is the documents view for a patient, newest first.
type DocumentFolder struct {
	PatientID uuid.UUID       `json:"patientId"`
	Files     []*DocumentFile `json:"files"`
}
