package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Terminal reports whether no further status transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

type TreatmentStatus string

const (
	TreatmentPending   TreatmentStatus = "PENDING"
	TreatmentPartial   TreatmentStatus = "PARTIAL"
	TreatmentCompleted TreatmentStatus = "COMPLETED"
)

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment occupies a single instant, not an interval; conflict detection
// compares exact (doctor, scheduled_at) pairs. Either PatientID is set (linked
// account) or all three guest fields are set.
type Appointment struct {
	ID                 uuid.UUID
	DoctorID           *uuid.UUID // nil means unassigned; never collides
	PatientID          *uuid.UUID
	PatientName        *string
	PatientEmail       *string
	PatientPhone       *string
	Service            string
	ScheduledAt        time.Time
	Status             Status
	PaymentStatus      PaymentStatus
	PaymentAmountCents *int64
	PaymentUpdatedAt   *time.Time
	TreatmentStatus    TreatmentStatus
	CreatedBy          string
	Notes              *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type Detail struct {
	Appointment
	Patient *Patient
	Doctor  *Doctor
}

// OccupantName returns the display name for calendar views: linked patient
// name, else free-text guest name, else "N/A".
func (d *Detail) OccupantName() string {
	if d.Patient != nil && d.Patient.Name != "" {
		return d.Patient.Name
	}
	if d.PatientName != nil && *d.PatientName != "" {
		return *d.PatientName
	}
	return "N/A"
}
