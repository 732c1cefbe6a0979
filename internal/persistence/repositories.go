package persistence

import (
	"context"
	"time"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Role        string
	StaffroomID *string
}

// UserRepository exposes CRUD operations for users and the staffroom back-reference.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)
	SetStaffroom(ctx context.Context, userID string, staffroomID *string, updatedAt time.Time) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, roomType string) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// TimetableRepository stores weekly timetable slots.
type TimetableRepository interface {
	CreateEntry(ctx context.Context, entry TimetableEntry) error
	GetEntry(ctx context.Context, id string) (TimetableEntry, error)
	ListBySection(ctx context.Context, branch string, semester int, section string) ([]TimetableEntry, error)
	ListByRoomAndDay(ctx context.Context, roomID, dayOfWeek string) ([]TimetableEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// BookingRepository stores bookings. InsertIfNoOverlap must be atomic with respect to
// the overlap check and return ErrOverlap when an active booking intersects the candidate.
type BookingRepository interface {
	InsertIfNoOverlap(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListActiveOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]Booking, error)
	ListByUser(ctx context.Context, userID string) ([]Booking, error)
	CountActiveOverlapping(ctx context.Context, start, end time.Time) (int, error)
}

// FacultyAvailabilityFilter narrows availability listings. Empty fields are ignored.
type FacultyAvailabilityFilter struct {
	FacultyID string
	From      string
	To        string
	Status    string
}

// FacultyAvailabilityRepository stores per-day presence overrides.
type FacultyAvailabilityRepository interface {
	UpsertAvailability(ctx context.Context, availability FacultyAvailability) (FacultyAvailability, error)
	GetAvailability(ctx context.Context, facultyID, date string) (FacultyAvailability, error)
	ListAvailability(ctx context.Context, filter FacultyAvailabilityFilter) ([]FacultyAvailability, error)
}

// StaffroomRepository stores staffrooms. CreateStaffroom assigns the given faculty atomically.
type StaffroomRepository interface {
	CreateStaffroom(ctx context.Context, staffroom Staffroom, facultyIDs []string) error
	GetStaffroom(ctx context.Context, id string) (Staffroom, error)
	ListStaffrooms(ctx context.Context) ([]Staffroom, error)
}

// NotificationRepository stores notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotifications(ctx context.Context, audience []string, limit int) ([]Notification, error)
}
