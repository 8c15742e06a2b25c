// Package report renders patient documents as PDF and the minute ledger as XLSX.
package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// File is a rendered export ready to be sent as an attachment.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

func fileName(kind string, p *model.Patient, date model.Date, ext string) string {
	name := fmt.Sprintf("%s_%s_%s_%s.%s", kind, p.LastName, p.FirstName, date.String(), ext)
	return strings.ReplaceAll(name, " ", "_")
}

// header loads the patient, clinic name and the author of a document.
func (s *Service) header(ctx context.Context, patientID uuid.UUID, authorID *uuid.UUID) (*model.Patient, string, *model.User, error) {
	patient, err := s.store.Patients().Get(ctx, patientID)
	if err != nil {
		return nil, "", nil, err
	}
	var clinicName string
	if clinic, err := s.store.Clinics().Get(ctx, patient.ClinicID); err == nil {
		clinicName = clinic.Name
	}
	var author *model.User
	if authorID != nil {
		author, _ = s.store.Users().Get(ctx, *authorID)
	}
	return patient, clinicName, author, nil
}

func authorFields(d *document, author *model.User) {
	if author == nil {
		d.field("Created By", "")
		return
	}
	d.field("Created By", author.Name)
	d.field("Role", string(author.Role))
}

func (s *Service) IntakePDF(ctx context.Context, intakeID uuid.UUID) (*File, error) {
	intake, err := s.store.Intakes().Get(ctx, intakeID)
	if err != nil {
		return nil, err
	}
	patient, clinic, author, err := s.header(ctx, intake.PatientID, &intake.CreatedBy)
	if err != nil {
		return nil, err
	}

	d := newDocument("Patient Intake Assessment")
	d.banner("PATIENT INTAKE ASSESSMENT", patient, clinic, intake.ContactDate)
	authorFields(d, author)
	d.field("Session Duration", fmt.Sprintf("%d minutes", intake.Minutes))
	d.clinical(&intake.ClinicalSections)

	data, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &File{Name: fileName("Patient_Intake", patient, intake.ContactDate, "pdf"), ContentType: ContentTypePDF, Data: data}, nil
}

func (s *Service) SafetyPlanPDF(ctx context.Context, planID uuid.UUID) (*File, error) {
	plan, err := s.store.SafetyPlans().Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	patient, clinic, author, err := s.header(ctx, plan.PatientID, &plan.CreatedBy)
	if err != nil {
		return nil, err
	}

	d := newDocument("Safety Plan")
	d.banner("SAFETY PLAN", patient, clinic, plan.ContactDate)
	authorFields(d, author)
	d.field("Session Duration", fmt.Sprintf("%d minutes", plan.Minutes))
	d.field("Safety Plan Discussed", yesNo(plan.SafetyPlanDiscussed))
	d.clinical(&plan.ClinicalSections)

	data, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &File{Name: fileName("Safety_Plan", patient, plan.ContactDate, "pdf"), ContentType: ContentTypePDF, Data: data}, nil
}

// AssessmentPDF renders one questionnaire with the session it was taken in.
func (s *Service) AssessmentPDF(ctx context.Context, patientID uuid.UUID, date model.Date, t model.AssessmentType) (*File, error) {
	a, err := s.store.Assessments().GetByDate(ctx, patientID, t, date)
	if err != nil {
		return nil, err
	}
	contacts, err := s.store.Contacts().List(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	var session *model.Contact
	for _, c := range contacts {
		if c.ContactDate.Equal(date) {
			session = c
			break
		}
	}
	var authorID *uuid.UUID
	if session != nil {
		authorID = &session.CreatedBy
	}
	patient, clinic, author, err := s.header(ctx, patientID, authorID)
	if err != nil {
		return nil, err
	}

	d := newDocument(string(t) + " Assessment")
	d.banner(strings.ToUpper(string(t))+" ASSESSMENT", patient, clinic, date)
	authorFields(d, author)
	if session != nil {
		d.field("Contact Type", string(session.ContactType))
		d.field("Interaction Mode", session.InteractionMode.Label())
		d.field("Session Duration", fmt.Sprintf("%d minutes", session.DurationMinutes))
	}

	d.section("Results")
	d.field("Total Score", fmt.Sprintf("%d / %d", a.Score, t.MaxScore()))
	d.field("Severity", a.Severity())

	d.section("Responses")
	items := make([]string, len(a.Answers))
	for i, v := range a.Answers {
		items[i] = "Question " + strconv.Itoa(i+1) + ": " + strconv.Itoa(v)
	}
	d.list(items, "No responses recorded")
	if t == model.AssessmentPHQ9 && a.Answers.IndicatesSelfHarmRisk() {
		d.field("Self-harm item", "Positive, safety plan required")
	}

	if session != nil && session.Notes != nil {
		d.section("Notes")
		d.paragraph(*session.Notes, "")
	}

	data, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &File{Name: fileName(strings.ReplaceAll(string(t), "-", "")+"_Assessment", patient, date, "pdf"), ContentType: ContentTypePDF, Data: data}, nil
}

func (s *Service) ContactAttemptPDF(ctx context.Context, attemptID uuid.UUID) (*File, error) {
	attempt, err := s.store.Contacts().GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	patient, clinic, _, err := s.header(ctx, attempt.PatientID, nil)
	if err != nil {
		return nil, err
	}

	d := newDocument("Contact Attempt")
	d.banner("CONTACT ATTEMPT", patient, clinic, attempt.AttemptDate)
	d.section("Details")
	d.field("Attempt Date", longDate(attempt.AttemptDate))
	d.paragraph(attempt.Description, "No description")

	data, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &File{Name: fileName("Contact_Attempt", patient, attempt.AttemptDate, "pdf"), ContentType: ContentTypePDF, Data: data}, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
