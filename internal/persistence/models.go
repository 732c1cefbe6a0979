package persistence

import "time"

// User represents a campus account. StaffroomID is the faculty back-reference to its staffroom.
type User struct {
	ID          string
	Email       string
	Name        string
	Role        string
	StaffroomID *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Room represents a classroom or lab.
type Room struct {
	ID        string
	Name      string
	Type      string
	Capacity  int
	Location  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimetableEntry represents a recurring weekly slot. StartTime and EndTime are HH:mm strings.
type TimetableEntry struct {
	ID          string
	Branch      string
	Semester    int
	Section     string
	DayOfWeek   string
	PeriodIndex int
	Subject     string
	FacultyID   string
	RoomID      string
	StartTime   string
	EndTime     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Booking represents a one-off room reservation.
type Booking struct {
	ID        string
	UserID    string
	RoomID    string
	Start     time.Time
	End       time.Time
	Reason    *string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FacultyAvailability is the per-day presence override of a faculty member. Date is YYYY-MM-DD.
type FacultyAvailability struct {
	ID        string
	FacultyID string
	Date      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Staffroom groups faculty members. Membership lives on User.StaffroomID.
type Staffroom struct {
	ID        string
	Name      string
	Location  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Notification is an append-only message. Empty Recipients means broadcast.
type Notification struct {
	ID         string
	Recipients []string
	Title      string
	Body       string
	Type       string
	Meta       map[string]any
	CreatedAt  time.Time
}
