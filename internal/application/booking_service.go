package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// BookingRepository captures the persistence operations needed for bookings.
// InsertIfNoOverlap must re-check the overlap in the same statement as the insert.
type BookingRepository interface {
	InsertIfNoOverlap(ctx context.Context, booking Booking) (Booking, error)
	ListActiveOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]Booking, error)
	ListByUser(ctx context.Context, userID string) ([]Booking, error)
	CountActiveOverlapping(ctx context.Context, start, end time.Time) (int, error)
}

// Notifier delivers system generated notifications.
type Notifier interface {
	Notify(ctx context.Context, input NotificationInput) (Notification, error)
}

// BookingService admits room bookings without overlaps.
type BookingService struct {
	bookings    BookingRepository
	rooms       RoomRepository
	users       UserRepository
	notifier    Notifier
	locks       *roomLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(bookings BookingRepository, rooms RoomRepository, users UserRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, users, notifier, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, rooms RoomRepository, users UserRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		users:       users,
		notifier:    notifier,
		locks:       newRoomLocks(),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking reserves [Start, End) in a room for the caller. An overlapping pending or
// approved booking yields a *ConflictError naming it.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	input := normalizeBookingInput(params.Input)
	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.UserID,
		"room_id", input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking created")
	}()

	if err = authorize(params.Principal, ActionBookingsCreate); err != nil {
		return
	}
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.bookings == nil || s.rooms == nil {
		err = fmt.Errorf("booking repositories not configured")
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	booking, err = s.reserve(ctx, params.Principal, room, input)
	if err != nil {
		return
	}

	s.notifyBooked(ctx, logger, params.Principal, booking, room)
	return
}

// ListMyBookings returns the caller's bookings ordered by start.
func (s *BookingService) ListMyBookings(ctx context.Context, principal Principal) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if err := authorize(principal, ActionBookingsListOwn); err != nil {
		return nil, err
	}
	if s.bookings == nil {
		return nil, nil
	}

	bookings, err := s.bookings.ListByUser(ctx, principal.UserID)
	if err != nil {
		err = mapBookingRepoError(err)
		s.loggerWith(ctx, "ListMyBookings", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return bookings, nil
}

// reserve persists the booking while holding the room lock. The lock is released before
// any notification is sent.
func (s *BookingService) reserve(ctx context.Context, principal Principal, room Room, input BookingInput) (Booking, error) {
	release := s.locks.lock(room.ID)
	defer release()

	candidate := scheduler.Interval{Start: input.Start, End: input.End}
	if err := s.checkConflict(ctx, room.ID, candidate); err != nil {
		return Booking{}, err
	}

	now := s.now()
	booking, err := s.bookings.InsertIfNoOverlap(ctx, Booking{
		ID:        s.idGenerator(),
		UserID:    principal.UserID,
		RoomID:    room.ID,
		Start:     input.Start,
		End:       input.End,
		Reason:    input.Reason,
		Status:    BookingStatusApproved,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrOverlap) {
			// Another process sharing the database won the race.
			if err = s.checkConflict(ctx, room.ID, candidate); err == nil {
				err = &ConflictError{Resource: "booking"}
			}
			return Booking{}, err
		}
		return Booking{}, mapBookingRepoError(err)
	}
	return booking, nil
}

func (s *BookingService) checkConflict(ctx context.Context, roomID string, candidate scheduler.Interval) error {
	existing, err := s.bookings.ListActiveOverlapping(ctx, roomID, candidate.Start, candidate.End)
	if err != nil {
		return mapBookingRepoError(err)
	}

	intervals := make([]scheduler.Interval, 0, len(existing))
	for _, b := range existing {
		if b.Status != BookingStatusApproved && b.Status != BookingStatusPending {
			continue
		}
		intervals = append(intervals, scheduler.Interval{ID: b.ID, Start: b.Start, End: b.End})
	}

	if conflict, ok := scheduler.FindConflict(intervals, candidate); ok {
		return &ConflictError{Resource: "booking", ConflictingID: conflict.ID}
	}
	return nil
}

func (s *BookingService) notifyBooked(ctx context.Context, logger *slog.Logger, principal Principal, booking Booking, room Room) {
	if s.notifier == nil {
		return
	}

	name := principal.UserID
	if s.users != nil {
		if user, err := s.users.GetUser(ctx, principal.UserID); err == nil && user.Name != "" {
			name = user.Name
		}
	}

	_, err := s.notifier.Notify(context.WithoutCancel(ctx), NotificationInput{
		Title: "Room booked",
		Body:  fmt.Sprintf("%s booked %s", name, room.Name),
		Type:  "booking",
		Meta: map[string]any{
			"booking_id": booking.ID,
			"room_id":    room.ID,
		},
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to send booking notification", "error", err)
	}
}

func normalizeBookingInput(input BookingInput) BookingInput {
	input.RoomID = strings.TrimSpace(input.RoomID)
	if !input.Start.IsZero() {
		input.Start = input.Start.UTC().Truncate(time.Millisecond)
	}
	if !input.End.IsZero() {
		input.End = input.End.UTC().Truncate(time.Millisecond)
	}
	input.Reason = normalizeOptionalString(input.Reason)
	return input
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrOverlap):
		return &ConflictError{Resource: "booking"}
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("end", "end must be after start")
	}
	return err
}
