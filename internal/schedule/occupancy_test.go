package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
	"github.com/centrodental/clinic-scheduling/internal/availability"
)

func monday() time.Time {
	return time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
}

func mondayGrid(doctorID uuid.UUID) func(func(GridSlot) bool) {
	windows := []availability.Availability{
		{DoctorID: doctorID, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 11 * 60, IsActive: true},
	}
	return Grid(windows, monday(), monday(), 30*time.Minute, time.UTC)
}

func guestAppt(doctorID uuid.UUID, at time.Time, name string) appointment.Detail {
	email := name + "@example.com"
	phone := "0400 000 000"
	return appointment.Detail{
		Appointment: appointment.Appointment{
			ID:           uuid.New(),
			DoctorID:     &doctorID,
			PatientName:  &name,
			PatientEmail: &email,
			PatientPhone: &phone,
			Service:      "Checkup",
			ScheduledAt:  at,
			Status:       appointment.StatusConfirmed,
		},
	}
}

func TestOverlayMarksBookedSlot(t *testing.T) {
	doctorID := uuid.New()
	at := monday().Add(9*time.Hour + 30*time.Minute)
	appt := guestAppt(doctorID, at, "Jane Citizen")

	slots := Overlay(mondayGrid(doctorID), []appointment.Detail{appt}, 30*time.Minute)

	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}

	var booked, vacant int
	for _, s := range slots {
		if s.Booked {
			booked++
			if !s.At.Equal(at) {
				t.Errorf("booked slot at %v, want %v", s.At, at)
			}
			if s.AppointmentID == nil || *s.AppointmentID != appt.ID {
				t.Error("booked slot does not carry the appointment id")
			}
			if s.OccupantName != "Jane Citizen" {
				t.Errorf("occupant name %q, want Jane Citizen", s.OccupantName)
			}
		} else {
			vacant++
			if s.AppointmentID != nil || s.OccupantName != "" {
				t.Error("vacant slot carries booking data")
			}
		}
	}
	if booked != 1 || vacant != 3 {
		t.Errorf("booked=%d vacant=%d, want 1 and 3", booked, vacant)
	}
}

func TestOverlayIgnoresCancelled(t *testing.T) {
	doctorID := uuid.New()
	appt := guestAppt(doctorID, monday().Add(9*time.Hour), "Jane Citizen")
	appt.Status = appointment.StatusCancelled

	slots := Overlay(mondayGrid(doctorID), []appointment.Detail{appt}, 30*time.Minute)

	for _, s := range slots {
		if s.Booked {
			t.Fatal("cancelled appointment marked a slot booked")
		}
	}
}

func TestOverlayIgnoresOtherDoctors(t *testing.T) {
	doctorID := uuid.New()
	other := uuid.New()
	appt := guestAppt(other, monday().Add(9*time.Hour), "Jane Citizen")

	slots := Overlay(mondayGrid(doctorID), []appointment.Detail{appt}, 30*time.Minute)

	for _, s := range slots {
		if s.Booked {
			t.Fatal("another doctor's appointment marked this doctor's slot booked")
		}
	}
}

func TestOverlayBucketsNearBoundaryInstants(t *testing.T) {
	doctorID := uuid.New()
	// Booked at 09:10: inside the 09:00 bucket at 30m granularity.
	appt := guestAppt(doctorID, monday().Add(9*time.Hour+10*time.Minute), "Jane Citizen")

	slots := Overlay(mondayGrid(doctorID), []appointment.Detail{appt}, 30*time.Minute)

	if !slots[0].Booked {
		t.Error("09:10 booking should occupy the 09:00 slot")
	}
	if slots[1].Booked {
		t.Error("09:10 booking must not also occupy the 09:30 slot")
	}
}

func TestOverlayOutOfWindowAppointmentInvisible(t *testing.T) {
	doctorID := uuid.New()
	appt := guestAppt(doctorID, monday().Add(20*time.Hour), "Jane Citizen")

	slots := Overlay(mondayGrid(doctorID), []appointment.Detail{appt}, 30*time.Minute)

	for _, s := range slots {
		if s.Booked {
			t.Fatal("out-of-window appointment should match no grid slot")
		}
	}
}

func TestOverlayLinkedPatientNameWins(t *testing.T) {
	doctorID := uuid.New()
	at := monday().Add(9 * time.Hour)

	guestName := "Guest Name"
	patientID := uuid.New()
	appt := appointment.Detail{
		Appointment: appointment.Appointment{
			ID:          uuid.New(),
			DoctorID:    &doctorID,
			PatientID:   &patientID,
			PatientName: &guestName,
			Service:     "Checkup",
			ScheduledAt: at,
			Status:      appointment.StatusConfirmed,
		},
		Patient: &appointment.Patient{ID: patientID, Name: "Linked Patient"},
	}

	slots := Overlay(mondayGrid(doctorID), []appointment.Detail{appt}, 30*time.Minute)

	if slots[0].OccupantName != "Linked Patient" {
		t.Errorf("occupant name %q, want the linked patient name", slots[0].OccupantName)
	}
}
