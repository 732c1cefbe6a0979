package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// ClockTime is a wall-clock minute of the day, counted from midnight.
type ClockTime int

// ParseClock parses a strict two-digit "HH:mm" value between 00:00 and 23:59.
func ParseClock(value string) (ClockTime, error) {
	if !clockPattern.MatchString(value) {
		return 0, fmt.Errorf("invalid clock time %q: want HH:mm", value)
	}
	hours, _ := strconv.Atoi(value[:2])
	minutes, _ := strconv.Atoi(value[3:])
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("invalid clock time %q: out of range", value)
	}
	return ClockTime(hours*60 + minutes), nil
}

// ClockOf returns the wall-clock minute of t in t's location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

// String formats the value as HH:mm.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

var dayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DayName returns the three-letter English name used by the timetable.
func DayName(day time.Weekday) string {
	return dayNames[day]
}

// ParseDayName is the inverse of DayName.
func ParseDayName(name string) (time.Weekday, bool) {
	for i, candidate := range dayNames {
		if candidate == name {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// IsHoliday reports whether no classes are held on the weekday.
func IsHoliday(day time.Weekday) bool {
	return day == time.Saturday || day == time.Sunday
}
