package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidWindow = errors.New("invalid availability window")
)

// Availability is one doctor's recurring weekly open window for a single
// day of week. Times are minutes from midnight in clinic-local time.
type Availability struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	DayOfWeek   int // 0 = Sunday ... 6 = Saturday
	StartMinute int
	EndMinute   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Window is the caller-supplied part of an availability row.
type Window struct {
	StartMinute int
	EndMinute   int
	IsActive    bool
}

func (w Window) Validate(dayOfWeek int) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidWindow, dayOfWeek)
	}
	if w.StartMinute < 0 || w.StartMinute >= minutesPerDay {
		return fmt.Errorf("%w: start %d out of range", ErrInvalidWindow, w.StartMinute)
	}
	if w.EndMinute <= 0 || w.EndMinute > minutesPerDay {
		return fmt.Errorf("%w: end %d out of range", ErrInvalidWindow, w.EndMinute)
	}
	if w.StartMinute >= w.EndMinute {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow,
			FormatClock(w.StartMinute), FormatClock(w.EndMinute))
	}
	return nil
}

const minutesPerDay = 24 * 60

// ParseClock converts "HH:MM" to minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || h*60+m > minutesPerDay {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes from midnight to "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
