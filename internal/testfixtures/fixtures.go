package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

var (
	userCounter      uint64
	roomCounter      uint64
	entryCounter     uint64
	bookingCounter   uint64
	staffroomCounter uint64
)

// UserOption configures a generated user.
type UserOption func(*persistence.User)

// NewUser returns a student account with a unique ID and email.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:        fmt.Sprintf("user-%03d", idx),
		Email:     fmt.Sprintf("user-%03d@campus.edu", idx),
		Name:      fmt.Sprintf("User %03d", idx),
		Role:      "student",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(u *persistence.User) { u.Name = name }
}

// WithRole sets the account role.
func WithRole(role string) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// RoomOption configures a generated room.
type RoomOption func(*persistence.Room)

// NewRoom returns a 60-seat classroom with a unique name.
func NewRoom(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	room := persistence.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("A-%03d", 100+idx),
		Type:      "classroom",
		Capacity:  60,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated ID.
func WithRoomID(id string) RoomOption {
	return func(r *persistence.Room) { r.ID = id }
}

// AsLab makes the room a lab.
func AsLab() RoomOption {
	return func(r *persistence.Room) { r.Type = "lab" }
}

// EntryOption configures a generated timetable entry.
type EntryOption func(*persistence.TimetableEntry)

// NewTimetableEntry returns period 1 (09:00-10:00) on Tuesday for CSE semester 3
// section A, taught by facultyID in roomID.
func NewTimetableEntry(facultyID, roomID string, opts ...EntryOption) persistence.TimetableEntry {
	idx := atomic.AddUint64(&entryCounter, 1)
	entry := persistence.TimetableEntry{
		ID:          fmt.Sprintf("tt-%03d", idx),
		Branch:      "CSE",
		Semester:    3,
		Section:     "A",
		DayOfWeek:   "Tue",
		PeriodIndex: 1,
		Subject:     "Data Structures",
		FacultyID:   facultyID,
		RoomID:      roomID,
		StartTime:   "09:00",
		EndTime:     "10:00",
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&entry)
	}
	return entry
}

// WithPeriod sets the period index and its HH:mm bounds.
func WithPeriod(index int, start, end string) EntryOption {
	return func(e *persistence.TimetableEntry) {
		e.PeriodIndex = index
		e.StartTime = start
		e.EndTime = end
	}
}

// WithDay sets the weekday abbreviation (Mon..Sat).
func WithDay(day string) EntryOption {
	return func(e *persistence.TimetableEntry) { e.DayOfWeek = day }
}

// NewBooking returns an approved booking of roomID by userID over [start, end).
func NewBooking(userID, roomID string, start, end time.Time) persistence.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	return persistence.Booking{
		ID:        fmt.Sprintf("booking-%03d", idx),
		UserID:    userID,
		RoomID:    roomID,
		Start:     start.UTC(),
		End:       end.UTC(),
		Status:    "approved",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// NewStaffroom returns a staffroom with a unique name.
func NewStaffroom(name string) persistence.Staffroom {
	idx := atomic.AddUint64(&staffroomCounter, 1)
	if name == "" {
		name = fmt.Sprintf("Staffroom %03d", idx)
	}
	return persistence.Staffroom{
		ID:        fmt.Sprintf("staffroom-%03d", idx),
		Name:      name,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// Campus is a small seeded dataset: one admin, two faculty members sharing a
// staffroom, one unassigned faculty member, a student, a classroom and a lab, and
// two Tuesday periods in the classroom.
type Campus struct {
	Admin      persistence.User
	Faculty    []persistence.User
	Unassigned persistence.User
	Student    persistence.User
	Classroom  persistence.Room
	Lab        persistence.Room
	Staffroom  persistence.Staffroom
	Periods    []persistence.TimetableEntry
}

// SeedCampus writes the Campus dataset through the harness repositories.
func SeedCampus(tb testing.TB, h *SQLiteHarness) Campus {
	tb.Helper()
	ctx := context.Background()

	c := Campus{
		Admin: NewUser(WithRole("admin"), WithUserName("Admin")),
		Faculty: []persistence.User{
			NewUser(WithRole("faculty"), WithUserName("Dr. Iyer")),
			NewUser(WithRole("faculty"), WithUserName("Dr. Rao")),
		},
		Unassigned: NewUser(WithRole("faculty"), WithUserName("Dr. Sen")),
		Student:    NewUser(WithUserName("Asha")),
		Classroom:  NewRoom(),
		Lab:        NewRoom(AsLab()),
		Staffroom:  NewStaffroom(""),
	}

	for _, user := range append([]persistence.User{c.Admin, c.Unassigned, c.Student}, c.Faculty...) {
		if err := h.Users.CreateUser(ctx, user); err != nil {
			tb.Fatalf("seed user %s: %v", user.ID, err)
		}
	}
	for _, room := range []persistence.Room{c.Classroom, c.Lab} {
		if err := h.Rooms.CreateRoom(ctx, room); err != nil {
			tb.Fatalf("seed room %s: %v", room.ID, err)
		}
	}
	if err := h.Staffrooms.CreateStaffroom(ctx, c.Staffroom, []string{c.Faculty[0].ID, c.Faculty[1].ID}); err != nil {
		tb.Fatalf("seed staffroom: %v", err)
	}
	for i := range c.Faculty {
		c.Faculty[i].StaffroomID = &c.Staffroom.ID
	}

	c.Periods = []persistence.TimetableEntry{
		NewTimetableEntry(c.Faculty[0].ID, c.Classroom.ID),
		NewTimetableEntry(c.Faculty[1].ID, c.Classroom.ID, WithPeriod(2, "10:00", "11:00")),
	}
	for _, entry := range c.Periods {
		if err := h.Timetable.CreateEntry(ctx, entry); err != nil {
			tb.Fatalf("seed timetable %s: %v", entry.ID, err)
		}
	}
	return c
}
