package identity

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Actor identifies who is performing a request. It is passed explicitly into
// every core operation instead of being read from ambient state.
type Actor struct {
	UserID uuid.UUID
	Role   Role
	Name   string
	Email  string
}

// DoctorID returns the doctor the actor is acting as, if any. For doctor-role
// callers their user ID is their doctor ID.
func (a Actor) DoctorID() (uuid.UUID, bool) {
	if a.Role == RoleDoctor {
		return a.UserID, true
	}
	return uuid.Nil, false
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsDoctor() bool  { return a.Role == RoleDoctor }
func (a Actor) IsPatient() bool { return a.Role == RolePatient }
