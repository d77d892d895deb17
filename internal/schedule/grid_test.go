package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/centrodental/clinic-scheduling/internal/availability"
)

func collect(seq func(func(GridSlot) bool)) []GridSlot {
	var out []GridSlot
	seq(func(s GridSlot) bool {
		out = append(out, s)
		return true
	})
	return out
}

func TestGridExpandsFullDay(t *testing.T) {
	doctorID := uuid.New()
	windows := []availability.Availability{
		{DoctorID: doctorID, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 17 * 60, IsActive: true},
	}

	// 2026-09-07 is a Monday.
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots := collect(Grid(windows, day, day, 30*time.Minute, time.UTC))

	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for a 09:00-17:00 day at 30m, got %d", len(slots))
	}

	first := slots[0].At
	if first.Hour() != 9 || first.Minute() != 0 {
		t.Errorf("first slot at %02d:%02d, want 09:00", first.Hour(), first.Minute())
	}

	last := slots[len(slots)-1].At
	if last.Hour() != 16 || last.Minute() != 30 {
		t.Errorf("last slot at %02d:%02d, want 16:30", last.Hour(), last.Minute())
	}
}

func TestGridStrictContainment(t *testing.T) {
	doctorID := uuid.New()
	// 09:00-09:45 holds exactly one 30m slot; 09:30-10:00 would overflow.
	windows := []availability.Availability{
		{DoctorID: doctorID, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 9*60 + 45, IsActive: true},
	}

	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots := collect(Grid(windows, day, day, 30*time.Minute, time.UTC))

	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].At.Minute() != 0 {
		t.Errorf("slot at minute %d, want 0", slots[0].At.Minute())
	}
}

func TestGridSkipsInactiveWindows(t *testing.T) {
	doctorID := uuid.New()
	windows := []availability.Availability{
		{DoctorID: doctorID, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 17 * 60, IsActive: false},
	}

	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots := collect(Grid(windows, day, day, 30*time.Minute, time.UTC))

	if len(slots) != 0 {
		t.Fatalf("inactive window produced %d slots", len(slots))
	}
}

func TestGridCoversMultipleDays(t *testing.T) {
	doctorID := uuid.New()
	windows := []availability.Availability{
		{DoctorID: doctorID, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 10 * 60, IsActive: true},
		{DoctorID: doctorID, DayOfWeek: 2, StartMinute: 9 * 60, EndMinute: 10 * 60, IsActive: true},
	}

	// Monday through Wednesday; Wednesday has no window.
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	slots := collect(Grid(windows, from, to, 30*time.Minute, time.UTC))

	if len(slots) != 4 {
		t.Fatalf("expected 4 slots across two working days, got %d", len(slots))
	}
	if slots[0].At.Day() != 7 || slots[2].At.Day() != 8 {
		t.Errorf("slots not grouped by day: %v", slots)
	}

	for i := 1; i < len(slots); i++ {
		if slots[i].At.Before(slots[i-1].At) {
			t.Fatalf("slots out of chronological order at %d", i)
		}
	}
}

func TestGridOrdersDoctorsWithinInstant(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	windows := []availability.Availability{
		{DoctorID: b, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 9*60 + 30, IsActive: true},
		{DoctorID: a, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 9*60 + 30, IsActive: true},
	}

	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots := collect(Grid(windows, day, day, 30*time.Minute, time.UTC))

	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].DoctorID != a || slots[1].DoctorID != b {
		t.Errorf("same-instant slots not ordered by doctor id")
	}
}

func TestGridIsRestartable(t *testing.T) {
	doctorID := uuid.New()
	windows := []availability.Availability{
		{DoctorID: doctorID, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 11 * 60, IsActive: true},
	}

	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	seq := Grid(windows, day, day, 30*time.Minute, time.UTC)

	first := collect(seq)
	second := collect(seq)

	if len(first) != len(second) {
		t.Fatalf("second iteration yielded %d slots, first yielded %d", len(second), len(first))
	}

	// Early break must not poison later iterations.
	n := 0
	seq(func(GridSlot) bool {
		n++
		return n < 2
	})
	third := collect(seq)
	if len(third) != len(first) {
		t.Fatalf("iteration after early break yielded %d slots, want %d", len(third), len(first))
	}
}
