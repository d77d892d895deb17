package schedule

import (
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
)

// Slot is a grid slot annotated with its booking state. This is what calendar
// views render directly.
type Slot struct {
	DoctorID      uuid.UUID
	At            time.Time
	Booked        bool
	AppointmentID *uuid.UUID
	OccupantName  string
}

type occupancyKey struct {
	doctorID uuid.UUID
	bucket   int64
}

// Overlay marks each grid slot vacant or occupied using the given
// non-cancelled appointments. Appointment instants are truncated to the grid
// granularity for matching; an appointment outside every window (e.g. created
// outside normal hours) matches no slot and stays invisible here, though it
// still occupies the doctor for booking conflicts.
func Overlay(grid iter.Seq[GridSlot], appts []appointment.Detail, slotDur time.Duration) []Slot {
	occupied := make(map[occupancyKey]*appointment.Detail, len(appts))
	for i := range appts {
		a := &appts[i]
		if a.Status == appointment.StatusCancelled || a.DoctorID == nil {
			continue
		}
		key := occupancyKey{
			doctorID: *a.DoctorID,
			bucket:   a.ScheduledAt.Truncate(slotDur).Unix(),
		}
		if _, taken := occupied[key]; !taken {
			occupied[key] = a
		}
	}

	var out []Slot
	for gs := range grid {
		s := Slot{
			DoctorID: gs.DoctorID,
			At:       gs.At,
		}

		key := occupancyKey{
			doctorID: gs.DoctorID,
			bucket:   gs.At.Truncate(slotDur).Unix(),
		}
		if a, ok := occupied[key]; ok {
			id := a.ID
			s.Booked = true
			s.AppointmentID = &id
			s.OccupantName = a.OccupantName()
		}

		out = append(out, s)
	}

	return out
}
