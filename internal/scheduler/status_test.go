package scheduler

import (
	"testing"
	"time"
)

func mustClock(t *testing.T, value string) ClockTime {
	t.Helper()
	c, err := ParseClock(value)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", value, err)
	}
	return c
}

func TestParseClock(t *testing.T) {
	valid := map[string]string{"00:00": "00:00", "09:05": "09:05", "23:59": "23:59"}
	for input, want := range valid {
		c, err := ParseClock(input)
		if err != nil {
			t.Fatalf("ParseClock(%q) returned error: %v", input, err)
		}
		if c.String() != want {
			t.Fatalf("ParseClock(%q).String() = %q", input, c.String())
		}
	}

	for _, input := range []string{"", "9:00", "09:5", "24:00", "12:60", "ab:cd", "09:00:00", " 09:00"} {
		if _, err := ParseClock(input); err == nil {
			t.Fatalf("ParseClock(%q) expected error", input)
		}
	}
}

func TestClockOf(t *testing.T) {
	tm := time.Date(2024, time.January, 2, 14, 37, 59, 0, time.UTC)
	if got := ClockOf(tm).String(); got != "14:37" {
		t.Fatalf("ClockOf() = %s", got)
	}
}

func TestDayNames(t *testing.T) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := DayName(day)
		parsed, ok := ParseDayName(name)
		if !ok || parsed != day {
			t.Fatalf("round trip failed for %v: %q", day, name)
		}
	}
	if _, ok := ParseDayName("Monday"); ok {
		t.Fatal("expected long day name to be rejected")
	}
	if !IsHoliday(time.Saturday) || !IsHoliday(time.Sunday) {
		t.Fatal("weekend must be a holiday")
	}
	if IsHoliday(time.Monday) || IsHoliday(time.Friday) {
		t.Fatal("weekdays must not be holidays")
	}
}

func TestCurrentSlot(t *testing.T) {
	slots := []Slot{
		{ID: "p2", PeriodIndex: 2, Start: mustClock(t, "10:00"), End: mustClock(t, "11:00"), FacultyID: "f2"},
		{ID: "p1", PeriodIndex: 1, Start: mustClock(t, "09:00"), End: mustClock(t, "10:00"), FacultyID: "f1"},
	}

	tests := []struct {
		now    string
		wantID string
		found  bool
	}{
		{now: "08:59", found: false},
		{now: "09:00", wantID: "p1", found: true},
		{now: "09:30", wantID: "p1", found: true},
		{now: "10:00", wantID: "p1", found: true},
		{now: "10:01", wantID: "p2", found: true},
		{now: "11:00", wantID: "p2", found: true},
		{now: "11:01", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			slot, ok := CurrentSlot(slots, mustClock(t, tt.now))
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && slot.ID != tt.wantID {
				t.Fatalf("slot = %s, want %s", slot.ID, tt.wantID)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		facts StatusFacts
		want  RoomStatus
	}{
		{name: "holiday wins over everything", facts: StatusFacts{Holiday: true, HasCurrentSlot: true, HasBookings: true}, want: StatusHoliday},
		{name: "running class", facts: StatusFacts{HasCurrentSlot: true}, want: StatusRunning},
		{name: "running class with bookings", facts: StatusFacts{HasCurrentSlot: true, HasBookings: true}, want: StatusRunning},
		{name: "absent faculty frees the slot", facts: StatusFacts{HasCurrentSlot: true, FacultyAbsent: true}, want: StatusFree},
		{name: "booked without a class", facts: StatusFacts{HasBookings: true}, want: StatusBooked},
		{name: "absence without a slot is ignored", facts: StatusFacts{FacultyAbsent: true}, want: StatusEmpty},
		{name: "empty", facts: StatusFacts{}, want: StatusEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.facts); got != tt.want {
				t.Fatalf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	want := map[RoomStatus]string{
		StatusHoliday: "No classes scheduled — holiday.",
		StatusRunning: "Room currently has an ongoing class.",
		StatusFree:    "Faculty is absent — room free for booking.",
		StatusBooked:  "Room booked for extra class or event.",
		StatusEmpty:   "Room currently empty.",
	}
	for status, message := range want {
		if got := Message(status); got != message {
			t.Fatalf("Message(%s) = %q, want %q", status, got, message)
		}
	}
}
