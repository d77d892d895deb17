package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/identity"
	redisclient "github.com/centrodental/clinic-scheduling/internal/redis"
)

const (
	EventBooked           = "APPOINTMENT_BOOKED"
	EventCancelled        = "APPOINTMENT_CANCELLED"
	EventCompleted        = "APPOINTMENT_COMPLETED"
	EventPaymentUpdated   = "PAYMENT_UPDATED"
	EventTreatmentUpdated = "TREATMENT_UPDATED"
)

var (
	ErrSlotTaken          = errors.New("doctor already has an appointment at that time")
	ErrSlotBeingBooked    = errors.New("slot is currently being booked, please retry")
	ErrInvalidRequest     = errors.New("invalid booking request")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAlreadyTerminal    = errors.New("appointment is already in a terminal state")
	ErrForbidden          = errors.New("not allowed for this role")
	ErrReceiptUnavailable = errors.New("receipt available only after payment is marked as received")
)

// BookingRequest is the payload for TryBook. DoctorID nil means unassigned:
// the appointment occupies no doctor and never conflicts.
type BookingRequest struct {
	DoctorID    *uuid.UUID
	ScheduledAt time.Time
	Service     string
	Name        string
	Email       string
	Phone       string
	Notes       *string
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		log:    log,
	}
}

// TryBook admits or rejects a booking atomically. For an assigned doctor the
// check and the insert are paired inside an advisory Redis lock, and the
// database's partial unique index arbitrates whatever the lock lets through,
// so two racing requests for the same (doctor, instant) resolve to exactly
// one winner.
func (s *Service) TryBook(ctx context.Context, actor identity.Actor, req BookingRequest) (*Appointment, error) {
	if req.Service == "" {
		return nil, fmt.Errorf("%w: service is required", ErrInvalidRequest)
	}
	if req.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled time is required", ErrInvalidRequest)
	}

	at := req.ScheduledAt.Truncate(time.Minute)

	doctorID := req.DoctorID
	if own, ok := actor.DoctorID(); ok {
		// Doctors book into their own calendar only.
		doctorID = &own
	}

	a := &Appointment{
		DoctorID:    doctorID,
		Service:     req.Service,
		ScheduledAt: at,
		CreatedBy:   string(actor.Role),
		Notes:       req.Notes,
	}

	if err := s.resolvePatient(ctx, actor, req, a); err != nil {
		return nil, err
	}

	if doctorID != nil {
		if _, err := s.repo.GetDoctorByID(ctx, *doctorID); err != nil {
			if errors.Is(err, ErrDoctorNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("load doctor: %w", err)
		}
		return s.bookAssigned(ctx, *doctorID, at, a)
	}

	// Unassigned appointments occupy no doctor; no conflict check.
	created, err := s.repo.CreateConfirmed(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	s.logBooked(ctx, created)
	return created, nil
}

func (s *Service) bookAssigned(ctx context.Context, doctorID uuid.UUID, at time.Time, a *Appointment) (*Appointment, error) {
	var created *Appointment

	err := s.locker.WithBookingLock(ctx, doctorID, at, func(lockCtx context.Context) error {
		// Inside the critical section re-check for a live appointment at this instant
		existing, err := s.repo.GetActiveByDoctorSlot(lockCtx, doctorID, at)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check active appointment: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		appt, err := s.repo.CreateConfirmed(lockCtx, a)
		if err != nil {
			if errors.Is(err, ErrSlotTaken) {
				return ErrSlotTaken
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logBooked(ctx, created)
	return created, nil
}

// resolvePatient fills either the linked patient reference or the guest
// fields. Patient-role actors always book for themselves; other roles link an
// existing patient by email when one exists, else store the guest contact.
func (s *Service) resolvePatient(ctx context.Context, actor identity.Actor, req BookingRequest, a *Appointment) error {
	if actor.IsPatient() {
		p, err := s.repo.GetPatientByID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, ErrPatientNotFound) {
				return err
			}
			return fmt.Errorf("load patient: %w", err)
		}
		a.PatientID = &p.ID
		return nil
	}

	if req.Email != "" {
		p, err := s.repo.FindPatientByEmail(ctx, req.Email)
		if err == nil {
			a.PatientID = &p.ID
			return nil
		}
		if !errors.Is(err, ErrPatientNotFound) {
			return fmt.Errorf("find patient by email: %w", err)
		}
	}

	if req.Name == "" || req.Email == "" || req.Phone == "" {
		return fmt.Errorf("%w: guest bookings need name, email and phone", ErrInvalidRequest)
	}

	name, email, phone := req.Name, req.Email, req.Phone
	a.PatientName = &name
	a.PatientEmail = &email
	a.PatientPhone = &phone
	return nil
}

// Cancel moves a non-terminal appointment to CANCELLED, freeing its
// (doctor, instant) for future bookings. The row is kept; deletion is a
// separate admin action.
func (s *Service) Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorize(actor, appt); err != nil {
		return err
	}

	if appt.Status.Terminal() {
		return ErrAlreadyTerminal
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition.
			return ErrAlreadyTerminal
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventCancelled, map[string]any{
		"cancelled_by": string(actor.Role),
	})

	return nil
}

// Complete marks a confirmed appointment COMPLETED. Reserved transition,
// exposed to admin and doctor roles.
func (s *Service) Complete(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Appointment, error) {
	if !actor.IsAdmin() && !actor.IsDoctor() {
		return nil, ErrForbidden
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(actor, appt); err != nil {
		return nil, err
	}

	if appt.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrAlreadyTerminal
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventCompleted, map[string]any{})

	return updated, nil
}

// UpdatePayment moves the payment axis forward. Backward moves are not a
// defined operation.
func (s *Service) UpdatePayment(ctx context.Context, actor identity.Actor, id uuid.UUID, to PaymentStatus, amountCents *int64) (*Appointment, error) {
	if !actor.IsAdmin() && !actor.IsDoctor() {
		return nil, ErrForbidden
	}
	if amountCents != nil && *amountCents < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidRequest)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(actor, appt); err != nil {
		return nil, err
	}

	if !CanTransitionPayment(appt.PaymentStatus, to) {
		return nil, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, appt.PaymentStatus, to)
	}

	updated, err := s.repo.UpdatePayment(ctx, id, appt.PaymentStatus, to, amountCents)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, fmt.Errorf("%w: payment state changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update payment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventPaymentUpdated, map[string]any{
		"payment_status": string(to),
	})

	return updated, nil
}

// UpdateTreatment moves the treatment axis forward, independently of payment.
func (s *Service) UpdateTreatment(ctx context.Context, actor identity.Actor, id uuid.UUID, to TreatmentStatus) (*Appointment, error) {
	if !actor.IsAdmin() && !actor.IsDoctor() {
		return nil, ErrForbidden
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(actor, appt); err != nil {
		return nil, err
	}

	if !CanTransitionTreatment(appt.TreatmentStatus, to) {
		return nil, fmt.Errorf("%w: treatment %s -> %s", ErrInvalidTransition, appt.TreatmentStatus, to)
	}

	updated, err := s.repo.UpdateTreatment(ctx, id, appt.TreatmentStatus, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, fmt.Errorf("%w: treatment state changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update treatment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventTreatmentUpdated, map[string]any{
		"treatment_status": string(to),
	})

	return updated, nil
}

// ListDoctors returns the clinic's doctor directory, ordered by name.
func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// ListAppointments returns appointments scoped to what the actor may see:
// admins see everything, doctors their own non-cancelled calendar, patients
// their own bookings.
func (s *Service) ListAppointments(ctx context.Context, actor identity.Actor, f Filter) ([]Detail, error) {
	if own, ok := actor.DoctorID(); ok {
		f.DoctorID = &own
		f.ExcludeCancelled = true
	} else if actor.IsPatient() {
		own := actor.UserID
		f.PatientID = &own
	}

	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return list, nil
}

// GetAppointment retrieves a fully hydrated appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Detail, error) {
	detail, err := s.repo.GetDetailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, &detail.Appointment); err != nil {
		return nil, err
	}
	return detail, nil
}

// HasActiveAppointment reports whether the patient holds an upcoming
// non-terminal booking.
func (s *Service) HasActiveAppointment(ctx context.Context, actor identity.Actor) (bool, error) {
	if !actor.IsPatient() {
		return false, ErrForbidden
	}
	return s.repo.HasActiveAppointment(ctx, actor.UserID, time.Now())
}

// CompletePastConfirmed is intended to be called by the worker periodically.
// Confirmed appointments whose instant is before the cutoff move to COMPLETED.
func (s *Service) CompletePastConfirmed(ctx context.Context, before time.Time) error {
	candidates, err := s.repo.FindPastConfirmed(ctx, before)
	if err != nil {
		return fmt.Errorf("find past confirmed appointments: %w", err)
	}

	for _, appt := range candidates {
		_, err := s.repo.UpdateStatus(ctx, appt.ID, StatusConfirmed, StatusCompleted)
		if err != nil {
			// Not-found here means the row left CONFIRMED between the find
			// and the update; it was not completed, so no event.
			if !errors.Is(err, ErrAppointmentNotFound) {
				s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to complete appointment")
			}
			continue
		}
		s.logEvent(ctx, appt.ID, EventCompleted, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// authorize rejects cross-tenant access: doctors touch their own calendar
// only, patients their own bookings only.
func (s *Service) authorize(actor identity.Actor, appt *Appointment) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsDoctor():
		if appt.DoctorID == nil || *appt.DoctorID != actor.UserID {
			return ErrForbidden
		}
		return nil
	case actor.IsPatient():
		if appt.PatientID == nil || *appt.PatientID != actor.UserID {
			return ErrForbidden
		}
		return nil
	}
	return ErrForbidden
}

func (s *Service) logBooked(ctx context.Context, appt *Appointment) {
	payload := map[string]any{
		"scheduled_at": appt.ScheduledAt,
		"service":      appt.Service,
		"created_by":   appt.CreatedBy,
	}
	if appt.DoctorID != nil {
		payload["doctor_id"] = appt.DoctorID.String()
	}
	s.logEvent(ctx, appt.ID, EventBooked, payload)
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert event log")
	}
}
