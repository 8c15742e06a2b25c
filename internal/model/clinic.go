package model

type Clinic struct {
	Base
	Name        string  `json:"name" db:"name"`
	Address     *string `json:"address" db:"address"`
	PhoneNumber *string `json:"phoneNumber" db:"phone_number"`
	Email       *string `json:"email" db:"email"`
}

type ClinicRequest struct {
	Name        string  `json:"name" binding:"required"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       *string `json:"email" binding:"omitempty,email"`
}

// ClinicDashboard summarizes patient and minute counts for a clinic.
type ClinicDashboard struct {
	TotalPatients            int `json:"totalPatients" db:"total_patients"`
	ActivePatients           int `json:"activePatients" db:"active_patients"`
	TotalMinutesTracked      int `json:"totalMinutesTracked" db:"total_minutes"`
	AverageMinutesPerPatient int `json:"averageMinutesPerPatient" db:"-"`
	NewPatientsThisMonth     int `json:"newPatientsThisMonth" db:"new_patients"`
}
