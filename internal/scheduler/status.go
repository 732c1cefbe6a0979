package scheduler

import "sort"

// RoomStatus is the resolved state of a room at one instant.
type RoomStatus string

const (
	StatusHoliday RoomStatus = "holiday"
	StatusRunning RoomStatus = "running"
	StatusFree    RoomStatus = "free"
	StatusBooked  RoomStatus = "booked"
	StatusEmpty   RoomStatus = "empty"
)

var statusMessages = map[RoomStatus]string{
	StatusHoliday: "No classes scheduled — holiday.",
	StatusRunning: "Room currently has an ongoing class.",
	StatusFree:    "Faculty is absent — room free for booking.",
	StatusBooked:  "Room booked for extra class or event.",
	StatusEmpty:   "Room currently empty.",
}

// Message returns the human readable text for a status.
func Message(status RoomStatus) string {
	return statusMessages[status]
}

// Slot is one timetable period held in a room. Start and End are inclusive.
type Slot struct {
	ID          string
	PeriodIndex int
	Start       ClockTime
	End         ClockTime
	FacultyID   string
}

// Contains reports whether now falls within the slot, boundaries included.
func (s Slot) Contains(now ClockTime) bool {
	return s.Start <= now && now <= s.End
}

// CurrentSlot returns the slot in progress at now. When a boundary minute is shared by
// two periods the lower period index wins, then the smaller ID.
func CurrentSlot(slots []Slot, now ClockTime) (Slot, bool) {
	var matches []Slot
	for _, slot := range slots {
		if slot.Contains(now) {
			matches = append(matches, slot)
		}
	}
	if len(matches) == 0 {
		return Slot{}, false
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].PeriodIndex != matches[j].PeriodIndex {
			return matches[i].PeriodIndex < matches[j].PeriodIndex
		}
		return matches[i].ID < matches[j].ID
	})
	return matches[0], true
}

// StatusFacts are the observations a room status is derived from.
type StatusFacts struct {
	Holiday        bool
	HasCurrentSlot bool
	FacultyAbsent  bool
	HasBookings    bool
}

// Resolve applies the status table: holiday first, then the current slot with its
// faculty override, then bookings of the day.
func Resolve(facts StatusFacts) RoomStatus {
	switch {
	case facts.Holiday:
		return StatusHoliday
	case facts.HasCurrentSlot && facts.FacultyAbsent:
		return StatusFree
	case facts.HasCurrentSlot:
		return StatusRunning
	case facts.HasBookings:
		return StatusBooked
	default:
		return StatusEmpty
	}
}
