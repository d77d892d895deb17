package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/availability"
)

// AvailabilityHandler manages doctors' weekly working windows.
type AvailabilityHandler struct {
	svc *availability.Service
	log zerolog.Logger
}

func NewAvailabilityHandler(svc *availability.Service, log zerolog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, log: log}
}

// Get handles GET /api/doctors/{doctorID}/availability
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a valid UUID")
		return
	}

	list, err := h.svc.GetAvailability(r.Context(), doctorID)
	if err != nil {
		h.log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("availability lookup failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
		return
	}

	out := make([]AvailabilityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAvailabilityResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// Put handles PUT /api/doctors/{doctorID}/availability. Admins may edit any
// doctor; doctors may edit themselves only.
func (h *AvailabilityHandler) Put(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return
	}

	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a valid UUID")
		return
	}

	if actor.IsDoctor() && actor.UserID != doctorID {
		writeError(w, http.StatusForbidden, "forbidden", "doctors can only edit their own availability")
		return
	}

	var req SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", validationDetails(err))
		return
	}

	startMinute, err := availability.ParseClock(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
		return
	}
	endMinute, err := availability.ParseClock(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	saved, err := h.svc.SetAvailability(r.Context(), doctorID, req.DayOfWeek, availability.Window{
		StartMinute: startMinute,
		EndMinute:   endMinute,
		IsActive:    active,
	})
	if err != nil {
		if errors.Is(err, availability.ErrInvalidWindow) {
			writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
			return
		}
		h.log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("availability update failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, toAvailabilityResponse(*saved))
}
