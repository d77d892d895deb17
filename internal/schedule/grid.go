package schedule

import (
	"iter"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/centrodental/clinic-scheduling/internal/availability"
)

// GridSlot is a candidate booking time produced by expanding availability.
// It carries no booking knowledge.
type GridSlot struct {
	DoctorID uuid.UUID
	At       time.Time
}

// Grid expands recurring weekly windows into slot start instants for every
// calendar day in the inclusive [from, to] range. The sequence is lazy,
// finite, restartable and chronological (date ascending, then time ascending).
// A slot whose end would exceed the window end is not emitted.
func Grid(windows []availability.Availability, from, to time.Time, slotDur time.Duration, loc *time.Location) iter.Seq[GridSlot] {
	if loc == nil {
		loc = time.Local
	}

	// Index by weekday; inactive windows contribute nothing.
	byDay := make(map[time.Weekday][]availability.Availability)
	for _, w := range windows {
		if !w.IsActive {
			continue
		}
		d := time.Weekday(w.DayOfWeek)
		byDay[d] = append(byDay[d], w)
	}

	first := startOfDay(from, loc)
	last := startOfDay(to, loc)

	return func(yield func(GridSlot) bool) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			wins := byDay[day.Weekday()]
			if len(wins) == 0 {
				continue
			}

			slots := expandDay(day, wins, slotDur)
			for _, s := range slots {
				if !yield(s) {
					return
				}
			}
		}
	}
}

func expandDay(day time.Time, wins []availability.Availability, slotDur time.Duration) []GridSlot {
	step := int(slotDur / time.Minute)
	if step <= 0 {
		return nil
	}

	var slots []GridSlot
	for _, w := range wins {
		for m := w.StartMinute; m+step <= w.EndMinute; m += step {
			slots = append(slots, GridSlot{
				DoctorID: w.DoctorID,
				At:       day.Add(time.Duration(m) * time.Minute),
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].At.Equal(slots[j].At) {
			return slots[i].At.Before(slots[j].At)
		}
		return slots[i].DoctorID.String() < slots[j].DoctorID.String()
	})

	return slots
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
