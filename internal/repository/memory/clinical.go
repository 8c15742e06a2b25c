package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

// newestFirst orders rows by date descending, later inserts first on ties.
func newestFirst[T any](rows []T, date func(T) model.Date) []*T {
	out := make([]*T, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		out = append(out, &row)
	}
	sort.SliceStable(out, func(i, j int) bool { return date(*out[j]).Before(date(*out[i])) })
	return out
}

type assessmentRepo struct{ s *Store }

func (r *assessmentRepo) Create(ctx context.Context, a *model.Assessment) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("assessments.create"); err != nil {
		return err
	}

	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	r.s.db().assessments = append(r.s.db().assessments, *a)
	return nil
}

func (r *assessmentRepo) matching(patientID uuid.UUID, t model.AssessmentType) []*model.Assessment {
	var rows []model.Assessment
	for _, a := range r.s.db().assessments {
		if a.PatientID == patientID && a.Type == t {
			rows = append(rows, a)
		}
	}
	return newestFirst(rows, func(a model.Assessment) model.Date { return a.Date })
}

func (r *assessmentRepo) Latest(ctx context.Context, patientID uuid.UUID, t model.AssessmentType) (*model.Assessment, error) {
	unlock := r.s.lock()
	defer unlock()

	rows := r.matching(patientID, t)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *assessmentRepo) History(ctx context.Context, patientID uuid.UUID, t model.AssessmentType) ([]*model.Assessment, error) {
	unlock := r.s.lock()
	defer unlock()

	return r.matching(patientID, t), nil
}

func (r *assessmentRepo) GetByDate(ctx context.Context, patientID uuid.UUID, t model.AssessmentType, date model.Date) (*model.Assessment, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, a := range r.matching(patientID, t) {
		if a.Date.Equal(date) {
			return a, nil
		}
	}
	return nil, apperrors.NewNotFound("assessment", nil)
}

type contactRepo struct{ s *Store }

func (r *contactRepo) Create(ctx context.Context, c *model.Contact) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("contacts.create"); err != nil {
		return err
	}

	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	r.s.db().contacts = append(r.s.db().contacts, *c)
	return nil
}

func (r *contactRepo) forPatient(patientID uuid.UUID) []*model.Contact {
	var rows []model.Contact
	for _, c := range r.s.db().contacts {
		if c.PatientID == patientID {
			rows = append(rows, c)
		}
	}
	return newestFirst(rows, func(c model.Contact) model.Date { return c.ContactDate })
}

func (r *contactRepo) List(ctx context.Context, patientID uuid.UUID) ([]*model.Contact, error) {
	unlock := r.s.lock()
	defer unlock()

	return r.forPatient(patientID), nil
}

func (r *contactRepo) LastContactDate(ctx context.Context, patientID uuid.UUID) (*model.Date, error) {
	unlock := r.s.lock()
	defer unlock()

	return r.s.db().lastContact(patientID), nil
}

func (r *contactRepo) TreatmentHistory(ctx context.Context, patientID uuid.UUID) ([]*model.TreatmentHistoryEntry, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	scoreOn := func(t model.AssessmentType, date model.Date) *int {
		var score *int
		for _, a := range d.assessments {
			if a.PatientID == patientID && a.Type == t && a.Date.Equal(date) {
				s := a.Score
				score = &s
			}
		}
		return score
	}

	out := []*model.TreatmentHistoryEntry{}
	for _, c := range r.forPatient(patientID) {
		out = append(out, &model.TreatmentHistoryEntry{
			ContactID:       c.ID,
			ContactDate:     c.ContactDate,
			ContactType:     c.ContactType,
			InteractionMode: c.InteractionMode,
			Mode:            c.InteractionMode.Label(),
			DurationMinutes: c.DurationMinutes,
			PHQ9Score:       scoreOn(model.AssessmentPHQ9, c.ContactDate),
			GAD7Score:       scoreOn(model.AssessmentGAD7, c.ContactDate),
			CreatedByName:   d.userName(c.CreatedBy),
			Notes:           c.Notes,
		})
	}
	return out, nil
}

func (r *contactRepo) HasConsultReferral(ctx context.Context, patientID, consultantID uuid.UUID) (bool, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, c := range r.s.db().contacts {
		if c.PatientID == patientID && c.DiscussWithConsultant &&
			c.PsychiatricConsultantID != nil && *c.PsychiatricConsultantID == consultantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *contactRepo) CreateAttempt(ctx context.Context, a *model.ContactAttempt) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("contacts.create_attempt"); err != nil {
		return err
	}

	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	r.s.db().attempts = append(r.s.db().attempts, *a)
	return nil
}

func (r *contactRepo) GetAttempt(ctx context.Context, id uuid.UUID) (*model.ContactAttempt, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, a := range r.s.db().attempts {
		if a.ID == id {
			out := a
			return &out, nil
		}
	}
	return nil, apperrors.NewNotFound("contact attempt", nil)
}

func (r *contactRepo) ListAttempts(ctx context.Context, patientID uuid.UUID) ([]*model.ContactAttempt, error) {
	unlock := r.s.lock()
	defer unlock()

	var rows []model.ContactAttempt
	for _, a := range r.s.db().attempts {
		if a.PatientID == patientID {
			rows = append(rows, a)
		}
	}
	return newestFirst(rows, func(a model.ContactAttempt) model.Date { return a.AttemptDate }), nil
}

type minuteRepo struct{ s *Store }

func (r *minuteRepo) Create(ctx context.Context, e *model.MinuteEntry) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("minutes.create"); err != nil {
		return err
	}
	if e.TotalMinutes <= 0 {
		return fmt.Errorf("failed to track minutes: total_minutes must be positive")
	}

	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.s.db().minutes = append(r.s.db().minutes, *e)
	return nil
}

// Entries returns the whole minute ledger in insertion order.
func (s *Store) Entries() []model.MinuteEntry {
	unlock := s.lock()
	defer unlock()
	return append([]model.MinuteEntry(nil), s.db().minutes...)
}

func (r *minuteRepo) matching(f model.MinuteFilter) []model.MinuteEntry {
	d := r.s.db()
	var out []model.MinuteEntry
	for _, e := range d.minutes {
		if f.UserID != nil && e.UserID != *f.UserID {
			continue
		}
		if f.ClinicID != nil {
			if e.PatientID == nil {
				continue
			}
			if p := d.patient(*e.PatientID); p == nil || p.ClinicID != *f.ClinicID {
				continue
			}
		}
		if !f.StartDate.IsZero() && e.TrackingDate.Before(f.StartDate) {
			continue
		}
		if !f.EndDate.IsZero() && f.EndDate.Before(e.TrackingDate) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r *minuteRepo) Sum(ctx context.Context, filter model.MinuteFilter) (int, error) {
	unlock := r.s.lock()
	defer unlock()

	total := 0
	for _, e := range r.matching(filter) {
		total += e.TotalMinutes
	}
	return total, nil
}

func (r *minuteRepo) Report(ctx context.Context, filter model.MinuteFilter) ([]*model.MinuteReportRow, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	out := []*model.MinuteReportRow{}
	for _, e := range r.matching(filter) {
		u := d.user(e.UserID)
		if u == nil {
			continue
		}
		row := &model.MinuteReportRow{
			TrackingDate: e.TrackingDate,
			UserName:     u.Name,
			Activity:     e.Activity,
			TotalMinutes: e.TotalMinutes,
		}
		if e.PatientID != nil {
			if p := d.patient(*e.PatientID); p != nil {
				name, mrn := p.FullName(), p.MRN
				row.PatientName, row.PatientMRN = &name, &mrn
			}
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TrackingDate.Equal(out[j].TrackingDate) {
			return out[i].TrackingDate.Before(out[j].TrackingDate)
		}
		return out[i].UserName < out[j].UserName
	})
	return out, nil
}

type intakeRepo struct{ s *Store }

func (r *intakeRepo) Create(ctx context.Context, in *model.Intake) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("intakes.create"); err != nil {
		return err
	}

	in.ID = uuid.New()
	in.CreatedAt = time.Now()
	r.s.db().intakes = append(r.s.db().intakes, *in)
	return nil
}

func (r *intakeRepo) forPatient(patientID uuid.UUID) []*model.Intake {
	var rows []model.Intake
	for _, in := range r.s.db().intakes {
		if in.PatientID == patientID {
			rows = append(rows, in)
		}
	}
	return newestFirst(rows, func(in model.Intake) model.Date { return in.ContactDate })
}

func (r *intakeRepo) Get(ctx context.Context, id uuid.UUID) (*model.Intake, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, in := range r.s.db().intakes {
		if in.ID == id {
			out := in
			return &out, nil
		}
	}
	return nil, apperrors.NewNotFound("intake", nil)
}

func (r *intakeRepo) CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	unlock := r.s.lock()
	defer unlock()

	return len(r.forPatient(patientID)), nil
}

func (r *intakeRepo) Latest(ctx context.Context, patientID uuid.UUID) (*model.Intake, error) {
	unlock := r.s.lock()
	defer unlock()

	rows := r.forPatient(patientID)
	if len(rows) == 0 {
		return nil, apperrors.NewNotFound("intake", nil)
	}
	return rows[0], nil
}

func (r *intakeRepo) List(ctx context.Context, patientID uuid.UUID) ([]*model.Intake, error) {
	unlock := r.s.lock()
	defer unlock()

	return r.forPatient(patientID), nil
}

type safetyPlanRepo struct{ s *Store }

func (r *safetyPlanRepo) Create(ctx context.Context, plan *model.SafetyPlan) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("safety_plans.create"); err != nil {
		return err
	}

	plan.ID = uuid.New()
	plan.CreatedAt = time.Now()
	r.s.db().safetyPlans = append(r.s.db().safetyPlans, *plan)
	return nil
}

func (r *safetyPlanRepo) forPatient(patientID uuid.UUID) []*model.SafetyPlan {
	var rows []model.SafetyPlan
	for _, p := range r.s.db().safetyPlans {
		if p.PatientID == patientID {
			rows = append(rows, p)
		}
	}
	return newestFirst(rows, func(p model.SafetyPlan) model.Date { return p.ContactDate })
}

func (r *safetyPlanRepo) Get(ctx context.Context, id uuid.UUID) (*model.SafetyPlan, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, p := range r.s.db().safetyPlans {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, apperrors.NewNotFound("safety plan", nil)
}

func (r *safetyPlanRepo) Latest(ctx context.Context, patientID uuid.UUID) (*model.SafetyPlan, error) {
	unlock := r.s.lock()
	defer unlock()

	rows := r.forPatient(patientID)
	if len(rows) == 0 {
		return nil, apperrors.NewNotFound("safety plan", nil)
	}
	return rows[0], nil
}

func (r *safetyPlanRepo) List(ctx context.Context, patientID uuid.UUID) ([]*model.SafetyPlan, error) {
	unlock := r.s.lock()
	defer unlock()

	return r.forPatient(patientID), nil
}

func (r *safetyPlanRepo) AppendHistory(ctx context.Context, h *model.SafetyPlanHistory) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("safety_plans.append_history"); err != nil {
		return err
	}

	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	r.s.db().safetyHistory = append(r.s.db().safetyHistory, *h)
	return nil
}

func (r *safetyPlanRepo) History(ctx context.Context, patientID uuid.UUID) ([]*model.SafetyPlanHistory, error) {
	unlock := r.s.lock()
	defer unlock()

	out := []*model.SafetyPlanHistory{}
	rows := r.s.db().safetyHistory
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].PatientID == patientID {
			h := rows[i]
			out = append(out, &h)
		}
	}
	return out, nil
}
