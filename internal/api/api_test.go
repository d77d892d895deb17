package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
	"github.com/centrodental/clinic-scheduling/internal/identity"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	tokens := identity.NewTokenService("test-secret", time.Hour)
	h := AuthMiddleware(tokens)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	tokens := identity.NewTokenService("test-secret", time.Hour)
	h := AuthMiddleware(tokens)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewarePassesActorThrough(t *testing.T) {
	tokens := identity.NewTokenService("test-secret", time.Hour)
	actor := identity.Actor{UserID: uuid.New(), Role: identity.RoleDoctor, Name: "Dr. Smith"}
	raw, err := tokens.Issue(actor)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	var seen identity.Actor
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := ActorFrom(r.Context())
		if !ok {
			t.Error("actor missing from context")
		}
		seen = got
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	AuthMiddleware(tokens)(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	if seen != actor {
		t.Errorf("context actor %+v, want %+v", seen, actor)
	}
}

func TestRequireRole(t *testing.T) {
	tokens := identity.NewTokenService("test-secret", time.Hour)
	h := AuthMiddleware(tokens)(RequireRole(identity.RoleAdmin)(okHandler()))

	patientToken, err := tokens.Issue(identity.Actor{UserID: uuid.New(), Role: identity.RolePatient})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	adminToken, err := tokens.Issue(identity.Actor{UserID: uuid.New(), Role: identity.RoleAdmin})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+patientToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient status %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("admin status %d, want 204", rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var inner string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	echoed := rec.Header().Get("X-Request-ID")
	if echoed == "" || echoed != inner {
		t.Errorf("request id header %q does not match context value %q", echoed, inner)
	}

	// A caller-supplied ID is propagated untouched.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "fixed-id" {
		t.Error("supplied request id was replaced")
	}
}

func TestWriteServiceErrorMapping(t *testing.T) {
	h := NewAppointmentHandler(nil, zerolog.Nop())

	cases := []struct {
		err  error
		want int
	}{
		{appointment.ErrSlotTaken, http.StatusConflict},
		{appointment.ErrSlotBeingBooked, http.StatusConflict},
		{appointment.ErrAlreadyTerminal, http.StatusConflict},
		{appointment.ErrInvalidTransition, http.StatusConflict},
		{appointment.ErrReceiptUnavailable, http.StatusConflict},
		{appointment.ErrInvalidRequest, http.StatusBadRequest},
		{appointment.ErrForbidden, http.StatusForbidden},
		{appointment.ErrAppointmentNotFound, http.StatusNotFound},
		{appointment.ErrDoctorNotFound, http.StatusNotFound},
		{appointment.ErrPatientNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.writeServiceError(rec, req, c.err)

		if rec.Code != c.want {
			t.Errorf("%v mapped to %d, want %d", c.err, rec.Code, c.want)
		}

		var body ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Errorf("%v produced non-JSON body: %v", c.err, err)
		}
	}
}

func TestParseScheduledAt(t *testing.T) {
	got, err := parseScheduledAt("2026-09-07", "09:30")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := time.Date(2026, 9, 7, 9, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = parseScheduledAt("2026-09-07", "")
	if err != nil {
		t.Fatalf("parse without time failed: %v", err)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("missing time should default to midnight, got %v", got)
	}

	if _, err := parseScheduledAt("07/09/2026", "09:30"); err == nil {
		t.Error("non-ISO date should fail")
	}
}

func TestParseDateRange(t *testing.T) {
	from, to, err := parseDateRange("2026-09-07", "2026-09-11")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if from.Day() != 7 || to.Day() != 11 {
		t.Errorf("range %v to %v", from, to)
	}

	// Missing end collapses to a single day.
	from, to, err = parseDateRange("2026-09-07", "")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !from.Equal(to) {
		t.Errorf("single-day range %v to %v", from, to)
	}

	if _, _, err := parseDateRange("bad", ""); err == nil {
		t.Error("bad start date should fail")
	}
}

func TestFilterFromQuery(t *testing.T) {
	doctorID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/appointments?doctor_id="+doctorID.String()+"&status=CONFIRMED&from=2026-09-01&to=2026-09-30", nil)

	f, err := filterFromQuery(req)
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if f.DoctorID == nil || *f.DoctorID != doctorID {
		t.Error("doctor_id not parsed")
	}
	if f.Status == nil || *f.Status != appointment.StatusConfirmed {
		t.Error("status not parsed")
	}
	if f.From == nil || f.To == nil {
		t.Fatal("date bounds not parsed")
	}
	// The upper bound is exclusive, one day past the requested end.
	if f.To.Day() != 1 || f.To.Month() != time.October {
		t.Errorf("to bound %v, want exclusive October 1", *f.To)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/appointments?doctor_id=nope", nil)
	if _, err := filterFromQuery(req); err == nil {
		t.Error("bad doctor_id should fail")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/appointments?status=BOGUS", nil)
	if _, err := filterFromQuery(req); err == nil {
		t.Error("unknown status should fail, not match nothing")
	}
}
