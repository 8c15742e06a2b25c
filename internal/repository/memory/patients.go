package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

type patientRepo struct{ s *Store }

func (r *patientRepo) Create(ctx context.Context, patient *model.Patient) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("patients.create"); err != nil {
		return err
	}

	d := r.s.db()
	for _, p := range d.patients {
		if p.ClinicID == patient.ClinicID && p.MRN == patient.MRN {
			return apperrors.NewConflict("patient with this MRN already exists", nil)
		}
	}
	patient.ID = newID(patient.ID)
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt
	d.patients = append(d.patients, *patient)
	return nil
}

func (r *patientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	unlock := r.s.lock()
	defer unlock()

	p := r.s.db().patient(id)
	if p == nil {
		return nil, apperrors.NewNotFound("patient", nil)
	}
	out := *p
	return &out, nil
}

func (r *patientRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return r.Get(ctx, id)
}

func (r *patientRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("patients.update_status"); err != nil {
		return err
	}

	p := r.s.db().patient(id)
	if p == nil {
		return apperrors.NewNotFound("patient", nil)
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

func (r *patientRepo) UpdateScores(ctx context.Context, id uuid.UUID, phq9, gad7 int, initial bool) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("patients.update_scores"); err != nil {
		return err
	}

	p := r.s.db().patient(id)
	if p == nil {
		return apperrors.NewNotFound("patient", nil)
	}
	phq, gad := phq9, gad7
	p.PHQ9Last, p.GAD7Last = &phq, &gad
	if initial {
		phqFirst, gadFirst := phq9, gad7
		p.PHQ9First, p.GAD7First = &phqFirst, &gadFirst
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (r *patientRepo) List(ctx context.Context, filter model.PatientListFilter) ([]*model.PatientSummary, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	out := []*model.PatientSummary{}
	for _, p := range d.patients {
		if p.ClinicID != filter.ClinicID || !hasStatus(filter.Statuses, p.Status) {
			continue
		}
		sum := &model.PatientSummary{
			ID:             p.ID,
			MRN:            p.MRN,
			FirstName:      p.FirstName,
			LastName:       p.LastName,
			DateOfBirth:    p.DateOfBirth,
			EnrollmentDate: p.EnrollmentDate,
			Status:         p.Status,
			PHQ9First:      p.PHQ9First,
			PHQ9Last:       p.PHQ9Last,
			GAD7First:      p.GAD7First,
			GAD7Last:       p.GAD7Last,
		}
		sum.LastContactDate = d.lastContact(p.ID)
		if a := d.openProvider(p.ID, model.ProviderBHCM); a != nil {
			sum.CareManagerName = d.userName(a.UserID)
		}
		if deact := d.latestDeactivation(p.ID); deact != nil {
			date, reason := deact.DeactivationDate, deact.Reason
			sum.DeactivationDate, sum.DeactivationReason = &date, &reason
		}
		out = append(out, sum)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func hasStatus(set []model.PatientStatus, s model.PatientStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func (r *patientRepo) CreateDeactivation(ctx context.Context, deact *model.Deactivation) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("patients.create_deactivation"); err != nil {
		return err
	}

	deact.ID = uuid.New()
	deact.CreatedAt = time.Now()
	r.s.db().deactivations = append(r.s.db().deactivations, *deact)
	return nil
}

func (r *patientRepo) LatestDeactivation(ctx context.Context, patientID uuid.UUID) (*model.Deactivation, error) {
	unlock := r.s.lock()
	defer unlock()

	deact := r.s.db().latestDeactivation(patientID)
	if deact == nil {
		return nil, nil
	}
	out := *deact
	return &out, nil
}

func (d *data) latestDeactivation(patientID uuid.UUID) *model.Deactivation {
	var latest *model.Deactivation
	for i := range d.deactivations {
		deact := &d.deactivations[i]
		if deact.PatientID != patientID {
			continue
		}
		if latest == nil || !deact.DeactivationDate.Before(latest.DeactivationDate) {
			latest = deact
		}
	}
	return latest
}

func (d *data) lastContact(patientID uuid.UUID) *model.Date {
	var last *model.Date
	for _, c := range d.contacts {
		if c.PatientID == patientID && (last == nil || last.Before(c.ContactDate)) {
			date := c.ContactDate
			last = &date
		}
	}
	return last
}

type flagRepo struct{ s *Store }

func (r *flagRepo) Add(ctx context.Context, patientID uuid.UUID, flag model.FlagLabel) (bool, error) {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("flags.add"); err != nil {
		return false, err
	}

	d := r.s.db()
	for _, f := range d.flags {
		if f.PatientID == patientID && f.Flag == flag {
			return false, nil
		}
	}
	d.flags = append(d.flags, model.PatientFlag{
		ID:        uuid.New(),
		PatientID: patientID,
		Flag:      flag,
		CreatedAt: time.Now(),
	})
	return true, nil
}

func (r *flagRepo) Remove(ctx context.Context, patientID uuid.UUID, flag model.FlagLabel) (bool, error) {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("flags.remove"); err != nil {
		return false, err
	}

	d := r.s.db()
	for i, f := range d.flags {
		if f.PatientID == patientID && f.Flag == flag {
			d.flags = append(d.flags[:i:i], d.flags[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *flagRepo) Has(ctx context.Context, patientID uuid.UUID, flag model.FlagLabel) (bool, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, f := range r.s.db().flags {
		if f.PatientID == patientID && f.Flag == flag {
			return true, nil
		}
	}
	return false, nil
}

func (r *flagRepo) List(ctx context.Context, patientID uuid.UUID) ([]model.FlagLabel, error) {
	unlock := r.s.lock()
	defer unlock()

	out := []model.FlagLabel{}
	for _, f := range r.s.db().flags {
		if f.PatientID == patientID {
			out = append(out, f.Flag)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *flagRepo) ListForPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID][]model.FlagLabel, error) {
	out := make(map[uuid.UUID][]model.FlagLabel, len(patientIDs))
	for _, id := range patientIDs {
		flags, err := r.List(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(flags) > 0 {
			out[id] = flags
		}
	}
	return out, nil
}

type assignmentRepo struct{ s *Store }

func (r *assignmentRepo) GetOpen(ctx context.Context, patientID uuid.UUID, providerType model.ProviderType) (*model.Assignment, error) {
	unlock := r.s.lock()
	defer unlock()

	a := r.s.db().openProvider(patientID, providerType)
	if a == nil {
		return nil, nil
	}
	out := *a
	return &out, nil
}

func (r *assignmentRepo) Open(ctx context.Context, a *model.Assignment) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("assignments.open"); err != nil {
		return err
	}

	d := r.s.db()
	if d.openProvider(a.PatientID, a.ProviderType) != nil {
		return apperrors.NewConflict("open assignment already exists", nil)
	}
	a.ID = newID(a.ID)
	a.EndDate = nil
	d.assignments = append(d.assignments, *a)
	return nil
}

func (r *assignmentRepo) Close(ctx context.Context, id uuid.UUID, end model.Date) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("assignments.close"); err != nil {
		return err
	}

	d := r.s.db()
	for i := range d.assignments {
		a := &d.assignments[i]
		if a.ID == id && a.IsOpen() {
			e := end
			a.EndDate = &e
			return nil
		}
	}
	return apperrors.NewNotFound("assignment", nil)
}

// AssignmentHistory returns every assignment row of a patient, open and closed.
func (s *Store) AssignmentHistory(patientID uuid.UUID) []model.Assignment {
	unlock := s.lock()
	defer unlock()

	var out []model.Assignment
	for _, a := range s.db().assignments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out
}

func (r *assignmentRepo) ListOpenProviders(ctx context.Context, patientID uuid.UUID) ([]*model.Provider, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	out := []*model.Provider{}
	for _, a := range d.assignments {
		if a.PatientID != patientID || !a.IsOpen() {
			continue
		}
		u := d.user(a.UserID)
		if u == nil {
			continue
		}
		out = append(out, &model.Provider{
			UserID:           a.UserID,
			Name:             u.Name,
			Email:            u.Email,
			ProviderType:     a.ProviderType,
			ServiceBeginDate: a.BeginDate,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProviderType < out[j].ProviderType })
	return out, nil
}
