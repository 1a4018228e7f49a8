// Package user holds the read model of platform accounts. Accounts are owned
// by an external collaborator; the adherence engine only reads them.
package user

import (
	"time"
)

// Role is the account role.
type Role string

const (
	RolePatient Role = "patient"
	RoleExpert  Role = "expert"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleExpert, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r can act on other users' data.
func (r Role) IsStaff() bool {
	return r == RoleExpert || r == RoleAdmin
}

// User is an account as seen by the engine.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`

	// Hospital is an externally owned affiliation; nil when not declared.
	Hospital *string `json:"hospital,omitempty"`

	// AssignedExpertID is a weak reference to another user.
	AssignedExpertID *string `json:"assigned_expert_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPatient reports whether the user is a patient.
func (u *User) IsPatient() bool {
	return u.Role == RolePatient
}

// HospitalCount is one row of the hospital breakdown.
type HospitalCount struct {
	Hospital     string `json:"hospital"`
	PatientCount int    `json:"patient_count"`
}
