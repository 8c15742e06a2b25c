package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Checklist is a set of yes/no items keyed by the form's item name.
type Checklist map[string]bool

// Selected returns the checked item names in a stable order.
func (c Checklist) Selected() []string {
	out := make([]string, 0, len(c))
	for k, v := range c {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// SubstanceStatus records current and past use of one substance.
type SubstanceStatus struct {
	Current bool `json:"current"`
	Past    bool `json:"past"`
}

// SubstanceUse maps a substance name to its usage status.
type SubstanceUse map[string]SubstanceStatus

// Reported lists substances with current or past use, with a status description.
func (s SubstanceUse) Reported() []string {
	names := make([]string, 0, len(s))
	for k, v := range s {
		if v.Current || v.Past {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		st := s[name]
		var parts []string
		if st.Current {
			parts = append(parts, "Current")
		}
		if st.Past {
			parts = append(parts, "Past")
		}
		out = append(out, fmt.Sprintf("%s: %s", HumanizeKey(name), strings.Join(parts, ", ")))
	}
	return out
}

// SocialSituation holds free-text answers keyed by question.
type SocialSituation map[string]string

// Answered returns non-empty answers in a stable order.
func (s SocialSituation) Answered() []string {
	keys := make([]string, 0, len(s))
	for k, v := range s {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %s", HumanizeKey(k), s[k]))
	}
	return out
}

func (c Checklist) Value() (driver.Value, error)       { return jsonValue(c) }
func (c *Checklist) Scan(src interface{}) error        { return jsonScan(src, c) }
func (s SubstanceUse) Value() (driver.Value, error)    { return jsonValue(s) }
func (s *SubstanceUse) Scan(src interface{}) error     { return jsonScan(src, s) }
func (s SocialSituation) Value() (driver.Value, error) { return jsonValue(s) }
func (s *SocialSituation) Scan(src interface{}) error  { return jsonScan(src, s) }

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonScan tolerates NULL and malformed legacy rows by leaving dst empty.
func jsonScan(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
	if len(raw) == 0 {
		return nil
	}
	_ = json.Unmarshal(raw, dst)
	return nil
}

// HumanizeKey turns a form key such as "sleepProblems" or "sleep_problems" into "Sleep Problems".
func HumanizeKey(key string) string {
	var b strings.Builder
	prevLower := false
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
		}
		if i == 0 || b.Len() == 0 || strings.HasSuffix(b.String(), " ") {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return b.String()
}

// ClinicalSections are the structured history sections shared by the intake
// form and the safety plan document.
type ClinicalSections struct {
	Symptoms                    Checklist       `json:"symptoms" db:"symptoms_json"`
	ColumbiaSuicideSeverity     *string         `json:"columbiaSuicideSeverity" db:"columbia_suicide_severity"`
	AnxietyPanicAttacks         *string         `json:"anxietyPanicAttacks" db:"anxiety_panic_attacks"`
	PastMentalHealth            Checklist       `json:"pastMentalHealth" db:"past_mental_health_json"`
	PsychiatricHospitalizations *string         `json:"psychiatricHospitalizations" db:"psychiatric_hospitalizations"`
	SubstanceUse                SubstanceUse    `json:"substanceUse" db:"substance_use_json"`
	MedicalHistory              Checklist       `json:"medicalHistory" db:"medical_history_json"`
	OtherMedicalHistory         *string         `json:"otherMedicalHistory" db:"other_medical_history"`
	FamilyMentalHealth          Checklist       `json:"familyMentalHealth" db:"family_mental_health_json"`
	SocialSituation             SocialSituation `json:"socialSituation" db:"social_situation_json"`
	CurrentMedications          *string         `json:"currentMedications" db:"current_medications"`
	PastMedications             *string         `json:"pastMedications" db:"past_medications"`
	Narrative                   *string         `json:"narrative" db:"narrative"`
}

type Intake struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PatientID   uuid.UUID `json:"patientId" db:"patient_id"`
	CreatedBy   uuid.UUID `json:"createdBy" db:"created_by"`
	ContactDate Date      `json:"contactDate" db:"contact_date"`
	ClinicalSections
	Minutes   int       `json:"minutes" db:"minutes"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CreateIntakeRequest struct {
	PatientID   uuid.UUID `json:"patientId" binding:"required"`
	CreatedBy   uuid.UUID `json:"createdBy" binding:"required"`
	ContactDate string    `json:"contactDate" binding:"required"`
	ClinicalSections
	Minutes int `json:"minutes" binding:"required,min=1"`
}

type IntakeResult struct {
	ID            uuid.UUID `json:"id"`
	Message       string    `json:"message"`
	StatusUpdated bool      `json:"statusUpdated"`
}
