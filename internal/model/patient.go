package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PatientStatus is the single-letter registry status stored on the patient row.
type PatientStatus string

const (
	PatientStatusEnrolled          PatientStatus = "E"
	PatientStatusActive            PatientStatus = "A"
	PatientStatusRelapsePrevention PatientStatus = "R"
	PatientStatusTransitional      PatientStatus = "T"
	PatientStatusDeactivated       PatientStatus = "D"
)

// ActiveStatuses are the statuses counted as "in treatment".
var ActiveStatuses = []PatientStatus{
	PatientStatusActive,
	PatientStatusRelapsePrevention,
	PatientStatusTransitional,
}

// PatientEvent drives the status state machine.
type PatientEvent string

const (
	EventFirstIntake PatientEvent = "first_intake"
	EventDeactivate  PatientEvent = "deactivate"
)

// ErrTransitionRejected is returned when an event is not allowed from the current status.
type ErrTransitionRejected struct {
	From  PatientStatus
	Event PatientEvent
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition %s not allowed from status %s", e.Event, e.From)
}

func (s PatientStatus) Valid() bool {
	switch s {
	case PatientStatusEnrolled, PatientStatusActive, PatientStatusRelapsePrevention,
		PatientStatusTransitional, PatientStatusDeactivated:
		return true
	}
	return false
}

func (s PatientStatus) IsDeactivated() bool {
	return s == PatientStatusDeactivated
}

// Transition returns the status that follows ev. A status that ev does not
// affect is returned unchanged with a nil error. Deactivated is terminal:
// deactivating again keeps it, and no event leads out of it.
func (s PatientStatus) Transition(ev PatientEvent) (PatientStatus, error) {
	switch ev {
	case EventFirstIntake:
		if s == PatientStatusEnrolled {
			return PatientStatusActive, nil
		}
		return s, nil
	case EventDeactivate:
		return PatientStatusDeactivated, nil
	}
	return s, &ErrTransitionRejected{From: s, Event: ev}
}

type Patient struct {
	Base
	ClinicID       uuid.UUID     `json:"clinicId" db:"clinic_id"`
	MRN            string        `json:"mrn" db:"mrn"`
	FirstName      string        `json:"firstName" db:"first_name"`
	LastName       string        `json:"lastName" db:"last_name"`
	DateOfBirth    Date          `json:"dob" db:"dob"`
	EnrollmentDate Date          `json:"enrollmentDate" db:"enrollment_date"`
	Status         PatientStatus `json:"status" db:"status"`
	PHQ9First      *int          `json:"phq9First" db:"phq9_first"`
	PHQ9Last       *int          `json:"phq9Last" db:"phq9_last"`
	GAD7First      *int          `json:"gad7First" db:"gad7_first"`
	GAD7Last       *int          `json:"gad7Last" db:"gad7_last"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// AgeOn returns the patient's age in whole years on d.
func (p *Patient) AgeOn(d Date) int {
	dob := p.DateOfBirth
	age := d.Year() - dob.Year()
	if d.Month() < dob.Month() || (d.Month() == dob.Month() && d.Day() < dob.Day()) {
		age--
	}
	return age
}

// IsPediatricOn reports whether the patient is 21 or younger on d.
func (p *Patient) IsPediatricOn(d Date) bool {
	age := p.AgeOn(d)
	return age >= 0 && age <= 21
}

// PatientSummary is a list row joined with the latest scores and care manager.
type PatientSummary struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	MRN                string        `json:"mrn" db:"mrn"`
	FirstName          string        `json:"firstName" db:"first_name"`
	LastName           string        `json:"lastName" db:"last_name"`
	DateOfBirth        Date          `json:"dob" db:"dob"`
	EnrollmentDate     Date          `json:"enrollmentDate" db:"enrollment_date"`
	Status             PatientStatus `json:"status" db:"status"`
	PHQ9First          *int          `json:"phq9First" db:"phq9_first"`
	PHQ9Last           *int          `json:"phq9Last" db:"phq9_last"`
	GAD7First          *int          `json:"gad7First" db:"gad7_first"`
	GAD7Last           *int          `json:"gad7Last" db:"gad7_last"`
	LastContactDate    *Date         `json:"lastContactDate" db:"last_contact_date"`
	CareManagerName    *string       `json:"careManagerName" db:"care_manager_name"`
	DeactivationDate   *Date         `json:"deactivationDate,omitempty" db:"deactivation_date"`
	DeactivationReason *string       `json:"deactivationReason,omitempty" db:"deactivation_reason"`
	Flags              []FlagLabel   `json:"flags" db:"-"`
}

// Provider is a user currently assigned to a patient.
type Provider struct {
	UserID           uuid.UUID    `json:"userId" db:"user_id"`
	Name             string       `json:"name" db:"name"`
	Email            string       `json:"email" db:"email"`
	ProviderType     ProviderType `json:"providerType" db:"provider_type"`
	ServiceBeginDate Date         `json:"serviceBeginDate" db:"service_begin_date"`
}

// PatientDetail is the full patient view.
type PatientDetail struct {
	Patient
	ClinicName string      `json:"clinicName"`
	Providers  []*Provider `json:"providers"`
	Flags      []FlagLabel `json:"flags"`
}

type Deactivation struct {
	ID               uuid.UUID `json:"id" db:"id"`
	PatientID        uuid.UUID `json:"patientId" db:"patient_id"`
	DeactivationDate Date      `json:"deactivationDate" db:"deactivation_date"`
	Reason           string    `json:"reason" db:"reason"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

type CreatePatientRequest struct {
	ClinicID                uuid.UUID  `json:"clinicId" binding:"required"`
	MRN                     string     `json:"mrn" binding:"required,mrn"`
	FirstName               string     `json:"firstName" binding:"required"`
	LastName                string     `json:"lastName" binding:"required"`
	DateOfBirth             string     `json:"dob" binding:"required,isodate"`
	EnrollmentDate          string     `json:"enrollmentDate" binding:"required,isodate"`
	CareManagerID           *uuid.UUID `json:"careManagerId"`
	PsychiatricConsultantID *uuid.UUID `json:"psychiatricConsultantId"`
	PrimaryCarePhysicianID  *uuid.UUID `json:"primaryCarePhysicianId"`
}

type DeactivatePatientRequest struct {
	Reason string `json:"reason"`
}

// PatientListFilter selects patients of a clinic by status set.
type PatientListFilter struct {
	ClinicID uuid.UUID
	Statuses []PatientStatus
}
