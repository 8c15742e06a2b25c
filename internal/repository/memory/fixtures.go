package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

// The Must helpers seed rows for tests and panic on failure.

func (s *Store) MustClinic(name string) *model.Clinic {
	c := &model.Clinic{Name: name}
	if err := s.Clinics().Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

func (s *Store) MustUser(name, email string, role model.Role, clinicIDs ...uuid.UUID) *model.User {
	ctx := context.Background()
	u := &model.User{Name: name, Email: email, Role: role, PasswordHash: "x"}
	if err := s.Users().Create(ctx, u); err != nil {
		panic(err)
	}
	if len(clinicIDs) > 0 {
		if err := s.Users().SetClinics(ctx, u.ID, clinicIDs); err != nil {
			panic(err)
		}
	}
	return u
}

func (s *Store) MustPatient(clinicID uuid.UUID, mrn string, status model.PatientStatus) *model.Patient {
	p := &model.Patient{
		ClinicID:       clinicID,
		MRN:            mrn,
		FirstName:      "Ada",
		LastName:       "Stone",
		DateOfBirth:    model.NewDate(1980, time.May, 2),
		EnrollmentDate: model.NewDate(2024, time.January, 1),
		Status:         status,
	}
	if err := s.Patients().Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

// Deactivations returns every deactivation recorded for the patient, oldest first.
func (s *Store) Deactivations(patientID uuid.UUID) []model.Deactivation {
	unlock := s.lock()
	defer unlock()

	var out []model.Deactivation
	for _, d := range s.db().deactivations {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out
}
