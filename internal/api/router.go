package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
	"github.com/centrodental/clinic-scheduling/internal/availability"
	"github.com/centrodental/clinic-scheduling/internal/identity"
	"github.com/centrodental/clinic-scheduling/internal/schedule"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Appointments *appointment.Service
	Availability *availability.Service
	Schedule     *schedule.Service
	Tokens       *identity.TokenService
	Pool         *pgxpool.Pool
	Redis        *redis.Client
	Log          zerolog.Logger
}

// NewRouter wires middleware and routes. Slots are public; everything else
// needs a bearer token.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.Pool, cfg.Redis)
	appts := NewAppointmentHandler(cfg.Appointments, cfg.Log)
	avail := NewAvailabilityHandler(cfg.Availability, cfg.Log)
	slots := NewSlotHandler(cfg.Schedule, cfg.Log)
	doctors := NewDoctorHandler(cfg.Appointments, cfg.Log)

	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness)

	r.Route("/api", func(r chi.Router) {
		// The slot grid is the public booking surface; staff tokens unlock
		// occupant annotations.
		r.With(OptionalAuth(cfg.Tokens)).Get("/slots", slots.List)
		r.Get("/doctors", doctors.List)
		r.Get("/doctors/{doctorID}/availability", avail.Get)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Tokens))

			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", appts.Book)
				r.Get("/", appts.List)

				r.With(RequireRole(identity.RolePatient)).Get("/check", appts.CheckActive)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", appts.Get)
					r.Post("/cancel", appts.Cancel)

					r.With(RequireRole(identity.RoleAdmin, identity.RoleDoctor)).Post("/complete", appts.Complete)
					r.With(RequireRole(identity.RoleAdmin, identity.RoleDoctor)).Patch("/payment", appts.UpdatePayment)
					r.With(RequireRole(identity.RoleAdmin, identity.RoleDoctor)).Patch("/treatment", appts.UpdateTreatment)
					r.With(RequireRole(identity.RoleAdmin)).Get("/receipt", appts.Receipt)
				})
			})

			r.With(RequireRole(identity.RoleAdmin, identity.RoleDoctor)).
				Put("/doctors/{doctorID}/availability", avail.Put)
		})
	})

	return r
}
