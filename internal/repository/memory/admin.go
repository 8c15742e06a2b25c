package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

type clinicRepo struct{ s *Store }

func (r *clinicRepo) Create(ctx context.Context, clinic *model.Clinic) error {
	unlock := r.s.lock()
	defer unlock()

	clinic.ID = newID(clinic.ID)
	clinic.CreatedAt = time.Now()
	clinic.UpdatedAt = clinic.CreatedAt
	r.s.db().clinics = append(r.s.db().clinics, *clinic)
	return nil
}

func (r *clinicRepo) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	unlock := r.s.lock()
	defer unlock()

	c := r.s.db().clinic(id)
	if c == nil {
		return nil, apperrors.NewNotFound("clinic", nil)
	}
	out := *c
	return &out, nil
}

func (r *clinicRepo) Update(ctx context.Context, clinic *model.Clinic) error {
	unlock := r.s.lock()
	defer unlock()

	c := r.s.db().clinic(clinic.ID)
	if c == nil {
		return apperrors.NewNotFound("clinic", nil)
	}
	clinic.CreatedAt = c.CreatedAt
	clinic.UpdatedAt = time.Now()
	*c = *clinic
	return nil
}

func (r *clinicRepo) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	for i := range d.clinics {
		if d.clinics[i].ID == id {
			d.clinics = append(d.clinics[:i:i], d.clinics[i+1:]...)
			for userID, ids := range d.userClinics {
				d.userClinics[userID] = without(ids, id)
			}
			return nil
		}
	}
	return apperrors.NewNotFound("clinic", nil)
}

func without(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (r *clinicRepo) List(ctx context.Context) ([]*model.Clinic, error) {
	unlock := r.s.lock()
	defer unlock()

	out := []*model.Clinic{}
	for _, c := range r.s.db().clinics {
		c := c
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *clinicRepo) ListUsers(ctx context.Context, clinicID uuid.UUID) ([]*model.UserRef, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	out := []*model.UserRef{}
	for _, u := range d.users {
		for _, id := range d.userClinics[u.ID] {
			if id == clinicID {
				out = append(out, &model.UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *clinicRepo) Dashboard(ctx context.Context, clinicID uuid.UUID, newSince model.Date) (*model.ClinicDashboard, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	dash := &model.ClinicDashboard{}
	for _, p := range d.patients {
		if p.ClinicID != clinicID {
			continue
		}
		dash.TotalPatients++
		if hasStatus(model.ActiveStatuses, p.Status) {
			dash.ActivePatients++
		}
		if !p.EnrollmentDate.Before(newSince) {
			dash.NewPatientsThisMonth++
		}
	}
	for _, e := range d.minutes {
		if e.PatientID == nil {
			continue
		}
		if p := d.patient(*e.PatientID); p != nil && p.ClinicID == clinicID {
			dash.TotalMinutesTracked += e.TotalMinutes
		}
	}
	if dash.TotalPatients > 0 {
		dash.AverageMinutesPerPatient = dash.TotalMinutesTracked / dash.TotalPatients
	}
	return dash, nil
}

type userRepo struct{ s *Store }

func (r *userRepo) emailTaken(email string, except uuid.UUID) bool {
	for _, u := range r.s.db().users {
		if u.ID != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	unlock := r.s.lock()
	defer unlock()

	user.Email = strings.ToLower(user.Email)
	if r.emailTaken(user.Email, uuid.Nil) {
		return apperrors.NewConflict("user with this email already exists", nil)
	}
	user.ID = newID(user.ID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.db().users = append(r.s.db().users, *user)
	return nil
}

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	unlock := r.s.lock()
	defer unlock()

	u := r.s.db().user(id)
	if u == nil {
		return nil, apperrors.NewNotFound("user", nil)
	}
	out := *u
	return &out, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, u := range r.s.db().users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, apperrors.NewNotFound("user", nil)
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	unlock := r.s.lock()
	defer unlock()

	u := r.s.db().user(user.ID)
	if u == nil {
		return apperrors.NewNotFound("user", nil)
	}
	user.Email = strings.ToLower(user.Email)
	if r.emailTaken(user.Email, user.ID) {
		return apperrors.NewConflict("user with this email already exists", nil)
	}
	user.CreatedAt = u.CreatedAt
	user.UpdatedAt = time.Now()
	*u = *user
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	for i := range d.users {
		if d.users[i].ID == id {
			d.users = append(d.users[:i:i], d.users[i+1:]...)
			delete(d.userClinics, id)
			return nil
		}
	}
	return apperrors.NewNotFound("user", nil)
}

func (r *userRepo) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	out := []*model.User{}
	for _, u := range d.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		ids := d.userClinics[u.ID]
		if filter.ClinicID != nil && !containsID(ids, *filter.ClinicID) {
			continue
		}
		var names []string
		for _, id := range ids {
			if c := d.clinic(id); c != nil {
				names = append(names, c.Name)
			}
		}
		u := u
		if len(names) > 0 {
			sort.Strings(names)
			joined := strings.Join(names, ", ")
			u.ClinicNames = &joined
		}
		out = append(out, &u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (r *userRepo) SetClinics(ctx context.Context, userID uuid.UUID, clinicIDs []uuid.UUID) error {
	unlock := r.s.lock()
	defer unlock()

	var ids []uuid.UUID
	for _, id := range clinicIDs {
		if !containsID(ids, id) {
			ids = append(ids, id)
		}
	}
	r.s.db().userClinics[userID] = ids
	return nil
}

func (r *userRepo) ListClinics(ctx context.Context, userID uuid.UUID) ([]*model.ClinicRef, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	out := []*model.ClinicRef{}
	for _, id := range d.userClinics[userID] {
		if c := d.clinic(id); c != nil {
			out = append(out, &model.ClinicRef{ID: c.ID, Name: c.Name})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("outbox.create"); err != nil {
		return err
	}

	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	event.Status = model.OutboxStatusPending
	r.s.db().outbox = append(r.s.db().outbox, *event)
	return nil
}

// Events returns every outbox row in insertion order.
func (s *Store) Events() []model.OutboxEvent {
	unlock := s.lock()
	defer unlock()
	return append([]model.OutboxEvent(nil), s.db().outbox...)
}

func (r *outboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	unlock := r.s.lock()
	defer unlock()

	out := []*model.OutboxEvent{}
	for _, e := range r.s.db().outbox {
		if len(out) == limit {
			break
		}
		if e.Status == model.OutboxStatusPending {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r *outboxRepo) find(id uuid.UUID) *model.OutboxEvent {
	d := r.s.db()
	for i := range d.outbox {
		if d.outbox[i].ID == id {
			return &d.outbox[i]
		}
	}
	return nil
}

func (r *outboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	unlock := r.s.lock()
	defer unlock()

	e := r.find(id)
	if e == nil {
		return apperrors.NewNotFound("outbox event", nil)
	}
	now := time.Now()
	e.Status, e.ProcessedAt, e.ErrorMessage = model.OutboxStatusProcessed, &now, nil
	return nil
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error {
	unlock := r.s.lock()
	defer unlock()

	e := r.find(id)
	if e == nil {
		return apperrors.NewNotFound("outbox event", nil)
	}
	msg := errMsg
	e.RetryCount++
	e.ErrorMessage = &msg
	if e.RetryCount >= maxRetries {
		e.Status = model.OutboxStatusFailed
	}
	return nil
}

func (r *outboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	kept := d.outbox[:0:0]
	var n int64
	for _, e := range d.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	d.outbox = kept
	return n, nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	unlock := r.s.lock()
	defer unlock()

	log.ID = newID(log.ID)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	r.s.db().audit = append(r.s.db().audit, *log)
	return nil
}

func (r *auditRepo) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, int64, error) {
	unlock := r.s.lock()
	defer unlock()

	var matched []*model.AuditLog
	rows := r.s.db().audit
	for i := len(rows) - 1; i >= 0; i-- {
		l := rows[i]
		if filter.UserID != nil && (l.UserID == nil || *l.UserID != *filter.UserID) {
			continue
		}
		if filter.EntityType != "" && l.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != nil && l.EntityID != *filter.EntityID {
			continue
		}
		if !filter.From.IsZero() && l.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && l.CreatedAt.After(filter.To) {
			continue
		}
		matched = append(matched, &l)
	}

	total := int64(len(matched))
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]*model.AuditLog{}, matched[start:end]...), total, nil
}

func (r *auditRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	kept := d.audit[:0:0]
	var n int64
	for _, l := range d.audit {
		if l.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	d.audit = kept
	return n, nil
}
