package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetAvailability returns the doctor's weekly windows ordered by day of week.
func (s *Service) GetAvailability(ctx context.Context, doctorID uuid.UUID) ([]Availability, error) {
	list, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return list, nil
}

// SetAvailability replaces the doctor's window for one day of week. Upsert
// semantics: at most one window per (doctor, day) can exist, so overlapping
// same-day windows are unrepresentable.
func (s *Service) SetAvailability(ctx context.Context, doctorID uuid.UUID, dayOfWeek int, w Window) (*Availability, error) {
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor id is required", ErrInvalidWindow)
	}
	if err := w.Validate(dayOfWeek); err != nil {
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, doctorID, dayOfWeek, w)
	if err != nil {
		return nil, fmt.Errorf("upsert availability: %w", err)
	}

	s.log.Info().
		Str("doctor_id", doctorID.String()).
		Int("day_of_week", dayOfWeek).
		Str("start", FormatClock(w.StartMinute)).
		Str("end", FormatClock(w.EndMinute)).
		Bool("active", w.IsActive).
		Msg("availability window set")

	return saved, nil
}
