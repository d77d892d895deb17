package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/schedule"
)

// SlotHandler serves the annotated slot grid.
type SlotHandler struct {
	svc *schedule.Service
	log zerolog.Logger
}

func NewSlotHandler(svc *schedule.Service, log zerolog.Logger) *SlotHandler {
	return &SlotHandler{svc: svc, log: log}
}

// List handles GET /api/slots?doctor_id=&start_date=&end_date=
func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var doctorID *uuid.UUID
	if v := q.Get("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		doctorID = &id
	}

	from, to, err := parseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
		return
	}

	slots, err := h.svc.ListSlots(r.Context(), doctorID, from, to)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidRange) {
			writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
			return
		}
		h.log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("slot listing failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
		return
	}

	// Occupant identity is for staff; the public surface sees vacancy only.
	actor, ok := ActorFrom(r.Context())
	staff := ok && (actor.IsAdmin() || actor.IsDoctor())

	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		resp := toSlotResponse(s)
		if !staff {
			resp.AppointmentID = nil
			resp.OccupantName = ""
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// parseDateRange defaults to today when start_date is empty, and to a
// single-day range when end_date is empty.
func parseDateRange(start, end string) (time.Time, time.Time, error) {
	var from time.Time
	if start == "" {
		now := time.Now()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	} else {
		t, err := time.ParseInLocation(time.DateOnly, start, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}

	to := from
	if end != "" {
		t, err := time.ParseInLocation(time.DateOnly, end, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}

	return from, to, nil
}
