package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AssessmentType string

const (
	AssessmentPHQ9 AssessmentType = "PHQ-9"
	AssessmentGAD7 AssessmentType = "GAD-7"
)

const (
	phq9Items    = 9
	gad7Items    = 7
	maxItemValue = 3

	// SafetyItemIndex is the PHQ-9 self-harm item.
	SafetyItemIndex = 8
)

func (t AssessmentType) Valid() bool {
	return t == AssessmentPHQ9 || t == AssessmentGAD7
}

// Items is the number of questions on the instrument.
func (t AssessmentType) Items() int {
	if t == AssessmentGAD7 {
		return gad7Items
	}
	return phq9Items
}

// MaxScore is the highest total the instrument can produce.
func (t AssessmentType) MaxScore() int {
	return t.Items() * maxItemValue
}

// Answers are per-item responses in questionnaire order, each 0..3.
type Answers []int

// Validate checks the answer count and per-item range for t.
func (a Answers) Validate(t AssessmentType) error {
	if len(a) != t.Items() {
		return fmt.Errorf("%s requires %d answers, got %d", t, t.Items(), len(a))
	}
	for i, v := range a {
		if v < 0 || v > maxItemValue {
			return fmt.Errorf("%s answer %d out of range: %d", t, i+1, v)
		}
	}
	return nil
}

// IndicatesSelfHarmRisk reports whether the PHQ-9 self-harm item is above "not at all".
func (a Answers) IndicatesSelfHarmRisk() bool {
	return len(a) > SafetyItemIndex && a[SafetyItemIndex] >= 1
}

func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Answers) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Answers", src)
	}
	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode answers: %w", err)
	}
	*a = out
	return nil
}

type Assessment struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	PatientID uuid.UUID      `json:"patientId" db:"patient_id"`
	Type      AssessmentType `json:"type" db:"type"`
	Score     int            `json:"score" db:"score"`
	Date      Date           `json:"date" db:"date"`
	Answers   Answers        `json:"answers" db:"answers_json"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

// Severity is the display band for the assessment's score.
func (a *Assessment) Severity() string {
	return Severity(a.Type, a.Score)
}

// Severity bands a total score. It is presentation only and never stored.
func Severity(t AssessmentType, score int) string {
	if score < 0 || score > t.MaxScore() {
		return "Unknown"
	}
	switch t {
	case AssessmentPHQ9:
		switch {
		case score <= 4:
			return "Minimal/none"
		case score <= 9:
			return "Mild"
		case score <= 14:
			return "Moderate"
		case score <= 19:
			return "Moderately severe"
		default:
			return "Severe"
		}
	case AssessmentGAD7:
		switch {
		case score <= 4:
			return "Minimal"
		case score <= 9:
			return "Mild"
		case score <= 14:
			return "Moderate"
		default:
			return "Severe"
		}
	}
	return "Unknown"
}

type ContactType string

const (
	ContactInitialAssessment  ContactType = "Initial Assessment"
	ContactFollowupAssessment ContactType = "Follow-up Assessment"
)

// InteractionMode is how a session took place.
type InteractionMode string

const (
	ModeByPhone  InteractionMode = "by_phone"
	ModeByVideo  InteractionMode = "by_video"
	ModeInClinic InteractionMode = "in_clinic"
	ModeInGroup  InteractionMode = "in_group"
)

func (m InteractionMode) Valid() bool {
	switch m {
	case ModeByPhone, ModeByVideo, ModeInClinic, ModeInGroup:
		return true
	}
	return false
}

// Label is the human readable mode used in treatment history and reports.
func (m InteractionMode) Label() string {
	switch m {
	case ModeByVideo:
		return "Video"
	case ModeByPhone:
		return "Phone"
	case ModeInClinic:
		return "In-Clinic"
	case ModeInGroup:
		return "Group"
	}
	return string(m)
}

type Contact struct {
	ID                      uuid.UUID       `json:"id" db:"id"`
	PatientID               uuid.UUID       `json:"patientId" db:"patient_id"`
	ContactDate             Date            `json:"contactDate" db:"contact_date"`
	ContactType             ContactType     `json:"contactType" db:"contact_type"`
	InteractionMode         InteractionMode `json:"interactionMode" db:"interaction_mode"`
	DurationMinutes         int             `json:"durationMinutes" db:"duration_minutes"`
	FlagPsychiatricConsult  bool            `json:"flagPsychiatricConsult" db:"flag_psychiatric_consult"`
	DiscussWithConsultant   bool            `json:"discussWithConsultant" db:"discuss_with_consultant"`
	Notes                   *string         `json:"notes" db:"notes"`
	CreatedBy               uuid.UUID       `json:"createdBy" db:"created_by"`
	PsychiatricConsultantID *uuid.UUID      `json:"psychiatricConsultantId" db:"psychiatric_consultant_id"`
	CreatedAt               time.Time       `json:"createdAt" db:"created_at"`
}

// SubmitAssessmentRequest is the body of the initial and follow-up assessment endpoints.
type SubmitAssessmentRequest struct {
	PatientID               uuid.UUID  `json:"patientId" binding:"required"`
	ClinicID                *uuid.UUID `json:"clinicId"`
	CreatedBy               uuid.UUID  `json:"createdBy" binding:"required"`
	ContactDate             string     `json:"contactDate" binding:"required"`
	PHQ9Score               int        `json:"phq9Score" binding:"min=0,max=27"`
	GAD7Score               int        `json:"gad7Score" binding:"min=0,max=21"`
	PHQ9Answers             Answers    `json:"phq9Answers" binding:"required"`
	GAD7Answers             Answers    `json:"gad7Answers" binding:"required"`
	DiscussWithConsultant   bool       `json:"discussWithConsultant"`
	ConsultantNotes         string     `json:"consultantNotes"`
	SessionType             string     `json:"sessionType" binding:"required"`
	SessionDuration         int        `json:"sessionDuration" binding:"required,min=1"`
	PsychiatricConsultantID *uuid.UUID `json:"psychiatricConsultantId"`
}

// ConsultRequested reports whether this submission refers the patient to a consultant.
func (r *SubmitAssessmentRequest) ConsultRequested() bool {
	return r.DiscussWithConsultant || (r.PsychiatricConsultantID != nil && *r.PsychiatricConsultantID != uuid.Nil)
}

// AssessmentResult summarizes the derived state of a committed submission.
type AssessmentResult struct {
	Message           string    `json:"message"`
	ContactID         uuid.UUID `json:"contactId"`
	SafetyPlanFlagged bool      `json:"safetyPlanFlagged"`
	ConsultFlagged    bool      `json:"consultFlagged"`
	ReminderScheduled bool      `json:"reminderScheduled"`
	PHQ9Severity      string    `json:"phq9Severity"`
	GAD7Severity      string    `json:"gad7Severity"`
}

// LatestAssessments is the most recent PHQ-9 and GAD-7 for a patient.
type LatestAssessments struct {
	PHQ9 *AssessmentView `json:"phq9"`
	GAD7 *AssessmentView `json:"gad7"`
}

// AssessmentView is an assessment with its display severity.
type AssessmentView struct {
	Assessment
	Severity string `json:"severity"`
}

func NewAssessmentView(a *Assessment) *AssessmentView {
	if a == nil {
		return nil
	}
	return &AssessmentView{Assessment: *a, Severity: a.Severity()}
}

// TreatmentHistoryEntry is one contact with the scores taken that day.
type TreatmentHistoryEntry struct {
	ContactID       uuid.UUID       `json:"contactId" db:"id"`
	ContactDate     Date            `json:"contactDate" db:"contact_date"`
	ContactType     ContactType     `json:"contactType" db:"contact_type"`
	InteractionMode InteractionMode `json:"-" db:"interaction_mode"`
	Mode            string          `json:"interactionMode" db:"-"`
	DurationMinutes int             `json:"durationMinutes" db:"duration_minutes"`
	PHQ9Score       *int            `json:"phq9Score" db:"phq9_score"`
	GAD7Score       *int            `json:"gad7Score" db:"gad7_score"`
	CreatedByName   *string         `json:"createdByName" db:"created_by_name"`
	Notes           *string         `json:"notes" db:"notes"`
}

// LastUpdate is the most recent assessment date and score of one type.
type LastUpdate struct {
	Type  AssessmentType `json:"type"`
	Date  *Date          `json:"date"`
	Score *int           `json:"score"`
}
