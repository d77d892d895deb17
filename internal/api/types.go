package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
	"github.com/centrodental/clinic-scheduling/internal/availability"
	"github.com/centrodental/clinic-scheduling/internal/schedule"
)

var validate = validator.New()

type BookAppointmentRequest struct {
	Date     string  `json:"date" validate:"required"`
	Time     string  `json:"time"`
	Name     string  `json:"name"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Phone    string  `json:"phone"`
	Service  string  `json:"service" validate:"required"`
	Notes    *string `json:"notes"`
	DoctorID *string `json:"doctor_id" validate:"omitempty,uuid"`
}

type SetAvailabilityRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	IsActive  *bool  `json:"is_active"`
}

type UpdatePaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=PENDING PARTIAL PAID"`
	AmountCents   *int64 `json:"amount_cents" validate:"omitempty,min=0"`
}

type UpdateTreatmentRequest struct {
	TreatmentStatus string `json:"treatment_status" validate:"required,oneof=PENDING PARTIAL COMPLETED"`
}

type PatientSummary struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type DoctorSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type AppointmentResponse struct {
	ID              uuid.UUID       `json:"id"`
	DoctorID        *uuid.UUID      `json:"doctor_id,omitempty"`
	Service         string          `json:"service"`
	ScheduledAt     time.Time       `json:"scheduled_at"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	AmountCents     *int64          `json:"amount_cents,omitempty"`
	TreatmentStatus string          `json:"treatment_status"`
	CreatedBy       string          `json:"created_by"`
	Notes           *string         `json:"notes,omitempty"`
	Patient         *PatientSummary `json:"patient,omitempty"`
	Doctor          *DoctorSummary  `json:"doctor,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:              a.ID,
		DoctorID:        a.DoctorID,
		Service:         a.Service,
		ScheduledAt:     a.ScheduledAt,
		Status:          string(a.Status),
		PaymentStatus:   string(a.PaymentStatus),
		AmountCents:     a.PaymentAmountCents,
		TreatmentStatus: string(a.TreatmentStatus),
		CreatedBy:       a.CreatedBy,
		Notes:           a.Notes,
	}
	if a.PatientName != nil {
		resp.Patient = &PatientSummary{Name: *a.PatientName, Email: a.PatientEmail, Phone: a.PatientPhone}
	}
	return resp
}

func toDetailResponse(d *appointment.Detail) AppointmentResponse {
	resp := toAppointmentResponse(&d.Appointment)
	if d.Patient != nil {
		resp.Patient = &PatientSummary{Name: d.Patient.Name, Email: d.Patient.Email, Phone: d.Patient.Phone}
	}
	if d.Doctor != nil {
		resp.Doctor = &DoctorSummary{ID: d.Doctor.ID, Name: d.Doctor.Name}
	}
	return resp
}

type SlotResponse struct {
	DoctorID      uuid.UUID  `json:"doctor_id"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	IsBooked      bool       `json:"is_booked"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	OccupantName  string     `json:"occupant_name,omitempty"`
}

func toSlotResponse(s schedule.Slot) SlotResponse {
	return SlotResponse{
		DoctorID:      s.DoctorID,
		Date:          s.At.Format(time.DateOnly),
		Time:          s.At.Format("15:04"),
		IsBooked:      s.Booked,
		AppointmentID: s.AppointmentID,
		OccupantName:  s.OccupantName,
	}
}

type AvailabilityResponse struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	IsActive  bool      `json:"is_active"`
}

func toAvailabilityResponse(a availability.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		DoctorID:  a.DoctorID,
		DayOfWeek: a.DayOfWeek,
		StartTime: availability.FormatClock(a.StartMinute),
		EndTime:   availability.FormatClock(a.EndMinute),
		IsActive:  a.IsActive,
	}
}

type ReceiptResponse struct {
	AppointmentID   uuid.UUID `json:"appointment_id"`
	ClinicName      string    `json:"clinic_name"`
	ClinicPhone     string    `json:"clinic_phone"`
	ClinicEmail     string    `json:"clinic_email"`
	PatientName     string    `json:"patient_name"`
	Service         string    `json:"service"`
	AmountCents     int64     `json:"amount_cents"`
	AppointmentDate time.Time `json:"appointment_date"`
	PaymentDate     time.Time `json:"payment_date"`
	IssuedBy        string    `json:"issued_by"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
