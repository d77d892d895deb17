package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
	redisclient "github.com/centrodental/clinic-scheduling/internal/redis"
)

// AppointmentHandler exposes the appointment lifecycle over HTTP.
type AppointmentHandler struct {
	svc *appointment.Service
	log zerolog.Logger
}

func NewAppointmentHandler(svc *appointment.Service, log zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, log: log}
}

// Book handles POST /api/appointments
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	var req BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", validationDetails(err))
		return
	}

	scheduledAt, err := parseScheduledAt(req.Date, req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_schedule", err.Error())
		return
	}

	booking := appointment.BookingRequest{
		ScheduledAt: scheduledAt,
		Service:     req.Service,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Notes:       req.Notes,
	}
	if req.DoctorID != nil {
		id, err := uuid.Parse(*req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		booking.DoctorID = &id
	}

	created, err := h.svc.TryBook(r.Context(), actor, booking)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(created))
}

// List handles GET /api/appointments
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	list, err := h.svc.ListAppointments(r.Context(), actor, f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]AppointmentResponse, 0, len(list))
	for i := range list {
		out = append(out, toDetailResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/appointments/{id}
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "appointment id must be a valid UUID")
		return
	}

	detail, err := h.svc.GetAppointment(r.Context(), actor, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toDetailResponse(detail))
}

// Cancel handles POST /api/appointments/{id}/cancel
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "appointment id must be a valid UUID")
		return
	}

	if err := h.svc.Cancel(r.Context(), actor, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Complete handles POST /api/appointments/{id}/complete
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "appointment id must be a valid UUID")
		return
	}

	updated, err := h.svc.Complete(r.Context(), actor, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
}

// UpdatePayment handles PATCH /api/appointments/{id}/payment
func (h *AppointmentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "appointment id must be a valid UUID")
		return
	}

	var req UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", validationDetails(err))
		return
	}

	updated, err := h.svc.UpdatePayment(r.Context(), actor, id, appointment.PaymentStatus(req.PaymentStatus), req.AmountCents)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
}

// UpdateTreatment handles PATCH /api/appointments/{id}/treatment
func (h *AppointmentHandler) UpdateTreatment(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "appointment id must be a valid UUID")
		return
	}

	var req UpdateTreatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", validationDetails(err))
		return
	}

	updated, err := h.svc.UpdateTreatment(r.Context(), actor, id, appointment.TreatmentStatus(req.TreatmentStatus))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
}

// Receipt handles GET /api/appointments/{id}/receipt
func (h *AppointmentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "appointment id must be a valid UUID")
		return
	}

	receipt, err := h.svc.Receipt(r.Context(), actor, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ReceiptResponse{
		AppointmentID:   receipt.AppointmentID,
		ClinicName:      receipt.ClinicName,
		ClinicPhone:     receipt.ClinicPhone,
		ClinicEmail:     receipt.ClinicEmail,
		PatientName:     receipt.PatientName,
		Service:         receipt.Service,
		AmountCents:     receipt.AmountCents,
		AppointmentDate: receipt.AppointmentDate,
		PaymentDate:     receipt.PaymentDate,
		IssuedBy:        receipt.IssuedBy,
	})
}

// CheckActive handles GET /api/appointments/check
func (h *AppointmentHandler) CheckActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	active, err := h.svc.HasActiveAppointment(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"has_active_appointment": active})
}

// writeServiceError maps service errors to HTTP responses.
func (h *AppointmentHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "doctor already has an appointment at that time")
	case errors.Is(err, appointment.ErrSlotBeingBooked), errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_contended", "slot is currently being booked, please retry")
	case errors.Is(err, appointment.ErrAlreadyTerminal):
		writeError(w, http.StatusConflict, "already_terminal", "appointment is already cancelled or completed")
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, appointment.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, appointment.ErrReceiptUnavailable):
		writeError(w, http.StatusConflict, "receipt_unavailable", "receipt is available only after payment is marked as PAID")
	case errors.Is(err, appointment.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "not allowed for this actor")
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "appointment does not exist")
	case errors.Is(err, appointment.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", "doctor does not exist")
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", "patient does not exist")
	default:
		h.log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("appointment handler error")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}

// parseScheduledAt combines a date and an optional wall-clock time.
func parseScheduledAt(date, clock string) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
}

func filterFromQuery(r *http.Request) (appointment.Filter, error) {
	var f appointment.Filter
	q := r.URL.Query()

	if v := q.Get("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, errors.New("doctor_id must be a valid UUID")
		}
		f.DoctorID = &id
	}
	if v := q.Get("status"); v != "" {
		status := appointment.Status(v)
		switch status {
		case appointment.StatusConfirmed, appointment.StatusCancelled, appointment.StatusCompleted:
		default:
			return f, errors.New("status must be CONFIRMED, CANCELLED or COMPLETED")
		}
		f.Status = &status
	}
	if v := q.Get("from"); v != "" {
		t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			return f, errors.New("from must be YYYY-MM-DD")
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			return f, errors.New("to must be YYYY-MM-DD")
		}
		end := t.AddDate(0, 0, 1)
		f.To = &end
	}

	return f, nil
}

func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid field: " + verrs[0].Field()
	}
	return err.Error()
}
