package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
)

// DoctorHandler serves the public doctor directory the booking page renders.
type DoctorHandler struct {
	svc *appointment.Service
	log zerolog.Logger
}

func NewDoctorHandler(svc *appointment.Service, log zerolog.Logger) *DoctorHandler {
	return &DoctorHandler{svc: svc, log: log}
}

type DoctorResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Specialty *string `json:"specialty,omitempty"`
}

// List handles GET /api/doctors
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.svc.ListDoctors(r.Context())
	if err != nil {
		h.log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("doctor listing failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
		return
	}

	out := make([]DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, DoctorResponse{ID: d.ID.String(), Name: d.Name, Specialty: d.Specialty})
	}
	writeJSON(w, http.StatusOK, out)
}
