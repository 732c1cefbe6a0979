package application

import (
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
)

// Role is the coarse permission class of an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return p.UserID != "" && p.Role != ""
}

// User represents a campus account.
type User struct {
	ID          string
	Email       string
	Name        string
	Role        Role
	StaffroomID *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=120"`
	Role  Role   `json:"role" validate:"required,oneof=student faculty admin"`
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// Room types.
const (
	RoomTypeClassroom = "classroom"
	RoomTypeLab       = "lab"
)

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

// RoomInput captures caller provided room fields. An empty Type means classroom.
type RoomInput struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Type     string  `json:"type" validate:"omitempty,oneof=classroom lab"`
	Capacity int     `json:"capacity" validate:"gte=0"`
	Location *string `json:"location"`
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// TimetableEntry is a recurring weekly slot. StartTime and EndTime are HH:mm.
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

// TimetableInput captures caller provided timetable fields.
type TimetableInput struct {
	Branch      string `json:"branch" validate:"required,max=32"`
	Semester    int    `json:"semester" validate:"required,min=1,max=8"`
	Section     string `json:"section" validate:"required,max=16"`
	DayOfWeek   string `json:"day_of_week" validate:"required,oneof=Mon Tue Wed Thu Fri Sat"`
	PeriodIndex int    `json:"period_index" validate:"required,min=1"`
	Subject     string `json:"subject" validate:"required,max=120"`
	FacultyID   string `json:"faculty_id" validate:"required"`
	RoomID      string `json:"room_id" validate:"required"`
	StartTime   string `json:"start_time" validate:"required,hhmm"`
	EndTime     string `json:"end_time" validate:"required,hhmm"`
}

// CreateTimetableEntryParams wraps the data required to create a timetable entry.
type CreateTimetableEntryParams struct {
	Principal Principal
	Input     TimetableInput
}

// ListSectionParams identifies one section's weekly timetable.
type ListSectionParams struct {
	Principal Principal
	Branch    string
	Semester  int
	Section   string
}

// Booking statuses. Only approved and pending bookings hold their room.
const (
	BookingStatusPending  = "pending"
	BookingStatusApproved = "approved"
	BookingStatusRejected = "rejected"
)

// Booking is a one-off room reservation over [Start, End).
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

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	RoomID string    `json:"room_id" validate:"required"`
	Start  time.Time `json:"start" validate:"required"`
	End    time.Time `json:"end" validate:"required,gtfield=Start"`
	Reason *string   `json:"reason" validate:"omitempty,max=500"`
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// RoomAvailabilityParams identifies the room and instant to resolve.
// Time is optional HH:mm; the current wall-clock minute is used when empty.
type RoomAvailabilityParams struct {
	Principal Principal
	RoomID    string `json:"room_id" validate:"required"`
	Date      string `json:"date" validate:"required,isodate"`
	Time      string `json:"time" validate:"omitempty,hhmm"`
}

// RoomAvailability is the resolved state of a room at one minute of a date.
type RoomAvailability struct {
	RoomID    string
	Date      string
	Time      string
	Status    scheduler.RoomStatus
	Message   string
	Current   *TimetableEntry
	Timetable []TimetableEntry
	Bookings  []Booking
}

// Faculty availability statuses. NotUpdated is derived, never stored.
const (
	AvailabilityPresent      = "present"
	AvailabilityNotAvailable = "not-available"
	AvailabilityAbsent       = "absent"
	AvailabilityNotUpdated   = "not-updated"
)

// FacultyAvailability is a per-day presence override. Date is YYYY-MM-DD.
type FacultyAvailability struct {
	ID        string
	FacultyID string
	Date      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FacultyAvailabilityInput captures a presence update. An empty FacultyID means the caller.
type FacultyAvailabilityInput struct {
	FacultyID string `json:"faculty_id"`
	Date      string `json:"date" validate:"required,isodate"`
	Status    string `json:"status" validate:"required,oneof=present not-available absent"`
}

// UpdateFacultyAvailabilityParams wraps the data required to record a presence update.
type UpdateFacultyAvailabilityParams struct {
	Principal Principal
	Input     FacultyAvailabilityInput
}

// ListFacultyAvailabilityParams narrows an availability listing. Dates are inclusive.
type ListFacultyAvailabilityParams struct {
	Principal Principal
	FacultyID string `json:"faculty_id"`
	From      string `json:"from" validate:"omitempty,isodate"`
	To        string `json:"to" validate:"omitempty,isodate"`
}

// AvailabilityFilter narrows repository availability listings.
type AvailabilityFilter struct {
	FacultyID string
	From      string
	To        string
	Status    string
}

// UserFilter narrows repository user listings.
type UserFilter struct {
	Role        Role
	StaffroomID *string
}

// Staffroom groups faculty members.
type Staffroom struct {
	ID        string
	Name      string
	Location  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StaffroomInput captures caller provided staffroom fields.
type StaffroomInput struct {
	Name       string   `json:"name" validate:"required,max=100"`
	Location   *string  `json:"location" validate:"omitempty,max=200"`
	FacultyIDs []string `json:"faculty_ids" validate:"omitempty,dive,required"`
}

// CreateStaffroomParams wraps the data required to create a staffroom.
type CreateStaffroomParams struct {
	Principal Principal
	Input     StaffroomInput
}

// StaffroomMembershipParams identifies a faculty member within a staffroom.
type StaffroomMembershipParams struct {
	Principal   Principal
	StaffroomID string
	FacultyID   string
}

// PresenceCounts tallies faculty statuses within a staffroom.
type PresenceCounts struct {
	Total        int
	Present      int
	Absent       int
	NotAvailable int
	NotUpdated   int
}

// FacultyPresence is one faculty member's status for the aggregated date.
type FacultyPresence struct {
	ID     string
	Name   string
	Email  string
	Status string
}

// StaffroomPresence is the per-day presence summary of a staffroom. The synthetic
// unassigned group has an empty ID.
type StaffroomPresence struct {
	ID       string
	Name     string
	Location string
	Date     string
	Counts   PresenceCounts
	Faculty  []FacultyPresence
}

// Notification is a persisted message. Empty Recipients means broadcast; entries are
// user IDs or role names.
type Notification struct {
	ID         string
	Recipients []string
	Title      string
	Body       string
	Type       string
	Meta       map[string]any
	CreatedAt  time.Time
}

// NotificationInput captures caller provided notification fields.
type NotificationInput struct {
	Recipients []string       `json:"recipients" validate:"omitempty,dive,required"`
	Title      string         `json:"title" validate:"required,max=200"`
	Body       string         `json:"body" validate:"required,max=2000"`
	Type       string         `json:"type" validate:"omitempty,max=32"`
	Meta       map[string]any `json:"meta"`
}

// SendNotificationParams wraps the data required to send a notification.
type SendNotificationParams struct {
	Principal Principal
	Input     NotificationInput
}

// ListNotificationsParams narrows a notification listing.
type ListNotificationsParams struct {
	Principal Principal
	Limit     int
}

// RequestCodeParams asks for a one-time login code.
type RequestCodeParams struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=120"`
}

// VerifyCodeParams exchanges a one-time code for a token.
type VerifyCodeParams struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// AuthResult is the outcome of a successful code verification.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// Digest summarises one campus day for administrators.
type Digest struct {
	Date           string
	Bookings       int
	AbsentFaculty  int
	NotificationID string
}
