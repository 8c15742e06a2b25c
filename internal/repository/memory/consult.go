package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type consultationRepo struct{ s *Store }

func (r *consultationRepo) Create(ctx context.Context, c *model.Consultation) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("consultations.create"); err != nil {
		return err
	}

	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	r.s.db().consultations = append(r.s.db().consultations, *c)
	return nil
}

func (r *consultationRepo) History(ctx context.Context, patientID uuid.UUID) ([]*model.ConsultationView, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	var rows []model.Consultation
	for _, c := range d.consultations {
		if c.PatientID == patientID {
			rows = append(rows, c)
		}
	}
	out := []*model.ConsultationView{}
	for _, c := range newestFirst(rows, func(c model.Consultation) model.Date { return c.ConsultDate }) {
		u := d.user(c.ConsultantID)
		if u == nil {
			continue
		}
		out = append(out, &model.ConsultationView{Consultation: *c, ConsultBy: u.Name, ConsultByRole: u.Role})
	}
	return out, nil
}

// assignedPatients are patients the consultant has ever been assigned to.
func (d *data) assignedPatients(consultantID uuid.UUID, clinicID *uuid.UUID) []*model.Patient {
	seen := map[uuid.UUID]bool{}
	var out []*model.Patient
	for _, a := range d.assignments {
		if a.UserID != consultantID || a.ProviderType != model.ProviderPsychiatricConsultant || seen[a.PatientID] {
			continue
		}
		p := d.patient(a.PatientID)
		if p == nil || (clinicID != nil && p.ClinicID != *clinicID) {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

func (r *consultationRepo) CountAssignedPatients(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (int, error) {
	unlock := r.s.lock()
	defer unlock()

	return len(r.s.db().assignedPatients(consultantID, clinicID)), nil
}

func (r *consultationRepo) TotalMinutes(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (int, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	total := 0
	for _, e := range d.minutes {
		if e.UserID != consultantID || e.PatientID == nil {
			continue
		}
		if e.Activity != model.ActivityPsychConsult && e.Activity != model.ActivityContactAttempt {
			continue
		}
		p := d.patient(*e.PatientID)
		if p == nil || (clinicID != nil && p.ClinicID != *clinicID) {
			continue
		}
		total += e.TotalMinutes
	}
	return total, nil
}

func (d *data) consulted(patientID, consultantID uuid.UUID) bool {
	for _, c := range d.consultations {
		if c.PatientID == patientID && c.ConsultantID == consultantID {
			return true
		}
	}
	return false
}

func (r *consultationRepo) CountUpcomingReferrals(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (int, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	seen := map[uuid.UUID]bool{}
	for _, c := range d.contacts {
		if !c.DiscussWithConsultant || c.PsychiatricConsultantID == nil || *c.PsychiatricConsultantID != consultantID {
			continue
		}
		p := d.patient(c.PatientID)
		if p == nil || (clinicID != nil && p.ClinicID != *clinicID) || d.consulted(p.ID, consultantID) {
			continue
		}
		seen[p.ID] = true
	}
	return len(seen), nil
}

func (r *consultationRepo) RecentReferrals(ctx context.Context, consultantID uuid.UUID, limit int) ([]*model.ReferredPatient, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	var rows []model.Contact
	for _, c := range d.contacts {
		if c.DiscussWithConsultant && c.PsychiatricConsultantID != nil && *c.PsychiatricConsultantID == consultantID {
			rows = append(rows, c)
		}
	}

	out := []*model.ReferredPatient{}
	for _, c := range newestFirst(rows, func(c model.Contact) model.Date { return c.ContactDate }) {
		if len(out) == limit {
			break
		}
		p := d.patient(c.PatientID)
		if p == nil {
			continue
		}
		date := c.ContactDate
		out = append(out, &model.ReferredPatient{
			ID:             p.ID,
			FirstName:      p.FirstName,
			LastName:       p.LastName,
			MRN:            p.MRN,
			ReferralDate:   &date,
			ReferralReason: c.Notes,
			PHQ9Score:      d.maxScore(p.ID, model.AssessmentPHQ9),
			GAD7Score:      d.maxScore(p.ID, model.AssessmentGAD7),
		})
	}
	return out, nil
}

func (r *consultationRepo) AssignedPatients(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) ([]*model.ReferredPatient, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	out := []*model.ReferredPatient{}
	for _, p := range d.assignedPatients(consultantID, clinicID) {
		rp := &model.ReferredPatient{
			ID:        p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			MRN:       p.MRN,
			Status:    p.Status,
			PHQ9Score: d.maxScore(p.ID, model.AssessmentPHQ9),
			GAD7Score: d.maxScore(p.ID, model.AssessmentGAD7),
		}
		dob := p.DateOfBirth
		rp.DateOfBirth = &dob
		var contacts []model.Contact
		for _, c := range d.contacts {
			if c.PatientID == p.ID {
				contacts = append(contacts, c)
			}
		}
		if latest := newestFirst(contacts, func(c model.Contact) model.Date { return c.ContactDate }); len(latest) > 0 {
			date := latest[0].ContactDate
			rp.ReferralDate, rp.ReferralReason = &date, latest[0].Notes
		}
		if a := d.openProvider(p.ID, model.ProviderBHCM); a != nil {
			rp.CareManagerName = d.userName(a.UserID)
		}
		out = append(out, rp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (r *consultationRepo) CareManagerNotes(ctx context.Context, patientID uuid.UUID) ([]*model.CareManagerNote, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	var rows []model.Contact
	for _, c := range d.contacts {
		if c.PatientID == patientID && c.DiscussWithConsultant {
			rows = append(rows, c)
		}
	}

	out := []*model.CareManagerNote{}
	for _, c := range newestFirst(rows, func(c model.Contact) model.Date { return c.ContactDate }) {
		u := d.user(c.CreatedBy)
		if u == nil {
			continue
		}
		for _, a := range d.assessments {
			if a.PatientID != patientID || a.Type != model.AssessmentPHQ9 || !a.Date.Equal(c.ContactDate) {
				continue
			}
			out = append(out, &model.CareManagerNote{
				ID:                c.ID,
				NoteDate:          c.ContactDate,
				Content:           a.Answers,
				ReferralNeeded:    c.DiscussWithConsultant,
				PsychReferralNote: c.Notes,
				CreatedBy:         u.Name,
				UserRole:          u.Role,
			})
		}
	}
	return out, nil
}
