package model

import (
	"github.com/google/uuid"
)

// Role is the user's job on the care team.
type Role string

const (
	RoleBHCM                  Role = "BHCM"
	RolePsychiatricConsultant Role = "Psychiatric Consultant"
	RolePrimaryCarePhysician  Role = "Primary Care Physician"
	RoleAdmin                 Role = "Admin"
)

// Roles lists every assignable role.
var Roles = []Role{RoleBHCM, RolePsychiatricConsultant, RolePrimaryCarePhysician, RoleAdmin}

func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents a system user
type User struct {
	Base
	Name         string  `json:"name" db:"name"`
	Email        string  `json:"email" db:"email"`
	PasswordHash string  `json:"-" db:"password_hash"`
	PhoneNumber  *string `json:"phoneNumber" db:"phone_number"`
	Role         Role    `json:"role" db:"role"`
	ClinicNames  *string `json:"clinicNames,omitempty" db:"clinic_names"`
}

// UserDetail is a user with the clinics they belong to.
type UserDetail struct {
	User
	Clinics []*ClinicRef `json:"clinics"`
}

// ClinicRef is the id/name pair used in pickers.
type ClinicRef struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

// UserRef is a user id/name pair for provider pickers.
type UserRef struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email,omitempty" db:"email"`
	Role  Role      `json:"role,omitempty" db:"role"`
}

type CreateUserRequest struct {
	Name        string      `json:"name" binding:"required"`
	Email       string      `json:"email" binding:"required,email"`
	Password    string      `json:"password" binding:"required,strong_password"`
	PhoneNumber *string     `json:"phoneNumber"`
	Role        Role        `json:"role" binding:"required,oneof=BHCM 'Psychiatric Consultant' 'Primary Care Physician' Admin"`
	ClinicIDs   []uuid.UUID `json:"clinicIds"`
}

// UpdateUserRequest replaces profile fields; an empty password keeps the current one.
type UpdateUserRequest struct {
	Name        string      `json:"name" binding:"required"`
	Email       string      `json:"email" binding:"required,email"`
	Password    string      `json:"password" binding:"omitempty,strong_password"`
	PhoneNumber *string     `json:"phoneNumber"`
	Role        Role        `json:"role" binding:"required,oneof=BHCM 'Psychiatric Consultant' 'Primary Care Physician' Admin"`
	ClinicIDs   []uuid.UUID `json:"clinicIds"`
}

// UserFilter narrows user listings. Zero values match everything.
type UserFilter struct {
	Role     Role
	ClinicID *uuid.UUID
}
