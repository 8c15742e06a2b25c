package model

import (
	"time"

	"github.com/google/uuid"
)

type Consultation struct {
	ID               uuid.UUID `json:"id" db:"id"`
	PatientID        uuid.UUID `json:"patientId" db:"patient_id"`
	ConsultantID     uuid.UUID `json:"consultantId" db:"consultant_id"`
	ConsultDate      Date      `json:"consultDate" db:"consult_date"`
	Minutes          int       `json:"minutes" db:"minutes"`
	Recommendations  string    `json:"recommendations" db:"recommendations"`
	TreatmentPlan    *string   `json:"treatmentPlan" db:"treatment_plan"`
	Medications      *string   `json:"medications" db:"medications"`
	FollowUpNeeded   bool      `json:"followUpNeeded" db:"follow_up_needed"`
	NextFollowUpDate *Date     `json:"nextFollowUpDate" db:"next_follow_up_date"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// ConsultationView is a history row with the consultant's name and role.
type ConsultationView struct {
	Consultation
	ConsultBy     string `json:"consultBy" db:"consult_by"`
	ConsultByRole Role   `json:"consultByRole" db:"consult_by_role"`
}

type ConsultRequest struct {
	PatientID        uuid.UUID `json:"patientId" binding:"required"`
	UserID           uuid.UUID `json:"userId" binding:"required"`
	ConsultDate      string    `json:"consultDate" binding:"required,isodate"`
	Minutes          int       `json:"minutes" binding:"required,min=1"`
	Recommendations  string    `json:"recommendations" binding:"required"`
	TreatmentPlan    *string   `json:"treatmentPlan"`
	Medications      *string   `json:"medications"`
	FollowUpNeeded   bool      `json:"followUpNeeded"`
	NextFollowUpDate string    `json:"nextFollowUpDate" binding:"omitempty,isodate"`
}

type PsychDashboard struct {
	AssignedPatients         int `json:"assignedPatients"`
	TotalMinutesTracked      int `json:"totalMinutesTracked"`
	AverageMinutesPerPatient int `json:"averageMinutesPerPatient"`
	UpcomingReferrals        int `json:"upcomingReferrals"`
}

// ReferredPatient is a patient referred to a consultant by a care manager.
type ReferredPatient struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	FirstName       string        `json:"firstName" db:"first_name"`
	LastName        string        `json:"lastName" db:"last_name"`
	MRN             string        `json:"mrn" db:"mrn"`
	DateOfBirth     *Date         `json:"dob,omitempty" db:"dob"`
	Status          PatientStatus `json:"status,omitempty" db:"status"`
	ReferralDate    *Date         `json:"referralDate" db:"referral_date"`
	ReferralReason  *string       `json:"referralReason" db:"referral_reason"`
	PHQ9Score       *int          `json:"phq9Score" db:"phq9_score"`
	GAD7Score       *int          `json:"gad7Score" db:"gad7_score"`
	CareManagerName *string       `json:"careManagerName,omitempty" db:"care_manager_name"`
}

// CareManagerNote is a contact where the care manager asked for consultant input.
type CareManagerNote struct {
	ID                uuid.UUID `json:"id" db:"id"`
	NoteDate          Date      `json:"noteDate" db:"contact_date"`
	Content           Answers   `json:"content" db:"answers_json"`
	ReferralNeeded    bool      `json:"referralNeeded" db:"discuss_with_consultant"`
	PsychReferralNote *string   `json:"psychReferralNote" db:"notes"`
	CreatedBy         string    `json:"createdBy" db:"created_by_name"`
	UserRole          Role      `json:"userRole" db:"user_role"`
}
