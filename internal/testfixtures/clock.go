// Package testfixtures provides deterministic clocks, identifiers, seeded campus data
// and a migrated SQLite harness for tests.
package testfixtures

import (
	"sync"
	"time"
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures. It falls on
// a Tuesday.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock is a settable time source pinned to a campus timezone.
type Clock struct {
	mu       sync.Mutex
	current  time.Time
	location *time.Location
}

// NewClock returns a clock at start in UTC. A zero start means ReferenceTime.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start, location: time.UTC}
}

// NewCampusClock returns a clock at the given wall-clock date and HH:mm in location.
func NewCampusClock(location *time.Location, date, hhmm string) *Clock {
	clock := &Clock{location: location}
	clock.At(date, hhmm)
	return clock
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection into services.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock forward and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// At moves the clock to a campus wall-clock date (YYYY-MM-DD) and time (HH:mm). It
// panics on malformed input since fixtures are written by hand.
func (c *Clock) At(date, hhmm string) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	location := c.location
	if location == nil {
		location = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, location)
	if err != nil {
		panic(err)
	}
	c.current = t
	return t
}

// Date returns the current campus date as YYYY-MM-DD.
func (c *Clock) Date() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	location := c.location
	if location == nil {
		location = time.UTC
	}
	return c.current.In(location).Format("2006-01-02")
}
