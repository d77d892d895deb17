package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centrodental/clinic-scheduling/internal/appointment"
	"github.com/centrodental/clinic-scheduling/internal/availability"
)

var ErrInvalidRange = errors.New("invalid date range")

// AvailabilitySource is the read side of the availability store.
type AvailabilitySource interface {
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]availability.Availability, error)
	ListActive(ctx context.Context) ([]availability.Availability, error)
}

// AppointmentSource supplies the bookings to overlay onto the grid.
type AppointmentSource interface {
	List(ctx context.Context, f appointment.Filter) ([]appointment.Detail, error)
}

type Service struct {
	avail    AvailabilitySource
	appts    AppointmentSource
	slotDur  time.Duration
	location *time.Location
	log      zerolog.Logger
}

func NewService(avail AvailabilitySource, appts AppointmentSource, slotDur time.Duration, loc *time.Location, log zerolog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		avail:    avail,
		appts:    appts,
		slotDur:  slotDur,
		location: loc,
		log:      log,
	}
}

// ListSlots produces the annotated slot sequence for the inclusive date
// range, for one doctor or for all doctors when doctorID is nil. The
// appointment overlay is best-effort: if bookings cannot be loaded the grid
// is returned fully vacant rather than failing the request.
func (s *Service) ListSlots(ctx context.Context, doctorID *uuid.UUID, from, to time.Time) ([]Slot, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidRange, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	var (
		windows []availability.Availability
		err     error
	)
	if doctorID != nil {
		windows, err = s.avail.ListByDoctor(ctx, *doctorID)
	} else {
		windows, err = s.avail.ListActive(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	grid := Grid(windows, from, to, s.slotDur, s.location)

	rangeStart := startOfDay(from, s.location)
	rangeEnd := startOfDay(to, s.location).AddDate(0, 0, 1)

	appts, err := s.appts.List(ctx, appointment.Filter{
		DoctorID:         doctorID,
		From:             &rangeStart,
		To:               &rangeEnd,
		ExcludeCancelled: true,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load bookings for slot overlay, returning vacant grid")
		appts = nil
	}

	return Overlay(grid, appts, s.slotDur), nil
}
