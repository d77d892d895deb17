package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Filter narrows appointment listings. Nil fields are not applied. From is
// inclusive, To exclusive.
type Filter struct {
	DoctorID         *uuid.UUID
	PatientID        *uuid.UUID
	From             *time.Time
	To               *time.Time
	Status           *Status
	ExcludeCancelled bool
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	FindPatientByEmail(ctx context.Context, email string) (*Patient, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetDetailByID(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, f Filter) ([]Detail, error)

	// For conflict checks inside the booking critical section
	GetActiveByDoctorSlot(ctx context.Context, doctorID uuid.UUID, at time.Time) (*Appointment, error)

	// CreateConfirmed inserts the appointment as one atomic conflict-checked
	// write; for an assigned doctor it must fail with ErrSlotTaken when a
	// non-cancelled appointment already holds (doctor, scheduled_at).
	CreateConfirmed(ctx context.Context, a *Appointment) (*Appointment, error)

	// Conditional transitions: the update applies only while the row is still
	// in the expected from-state.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, from, to PaymentStatus, amountCents *int64) (*Appointment, error)
	UpdateTreatment(ctx context.Context, id uuid.UUID, from, to TreatmentStatus) (*Appointment, error)

	// Completion worker
	FindPastConfirmed(ctx context.Context, before time.Time) ([]Appointment, error)

	// Self-service check: does the patient hold an upcoming non-terminal booking
	HasActiveAppointment(ctx context.Context, patientID uuid.UUID, after time.Time) (bool, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
