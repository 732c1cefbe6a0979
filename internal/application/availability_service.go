package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
)

// AvailabilityService resolves what a room is doing at one minute of a date.
type AvailabilityService struct {
	rooms        RoomRepository
	timetable    TimetableRepository
	bookings     BookingRepository
	availability FacultyAvailabilityRepository
	location     *time.Location
	now          func() time.Time
	logger       *slog.Logger
}

// NewAvailabilityService constructs a resolver. Dates and wall-clock times are
// interpreted in location, which defaults to UTC.
func NewAvailabilityService(rooms RoomRepository, timetable TimetableRepository, bookings BookingRepository, availability FacultyAvailabilityRepository, location *time.Location, now func() time.Time) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(rooms, timetable, bookings, availability, location, now, nil)
}

// NewAvailabilityServiceWithLogger constructs a resolver with a specified logger.
func NewAvailabilityServiceWithLogger(rooms RoomRepository, timetable TimetableRepository, bookings BookingRepository, availability FacultyAvailabilityRepository, location *time.Location, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		rooms:        rooms,
		timetable:    timetable,
		bookings:     bookings,
		availability: availability,
		location:     location,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// GetRoomAvailability reports holiday on weekends; otherwise the class in progress
// (free when its faculty is absent), else booked when the room has bookings that day,
// else empty.
func (s *AvailabilityService) GetRoomAvailability(ctx context.Context, params RoomAvailabilityParams) (result RoomAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	params.RoomID = strings.TrimSpace(params.RoomID)
	params.Date = strings.TrimSpace(params.Date)
	params.Time = strings.TrimSpace(params.Time)

	logger := s.loggerWith(ctx, "GetRoomAvailability",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"date", params.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to resolve room availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", result.Status, "time", result.Time).InfoContext(ctx, "room availability resolved")
	}()

	if err = authorize(params.Principal, ActionRoomsAvailability); err != nil {
		return
	}
	if vErr := validateStruct(params); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.rooms == nil || s.timetable == nil || s.bookings == nil || s.availability == nil {
		err = fmt.Errorf("availability repositories not configured")
		return
	}

	day, _ := time.ParseInLocation(dateLayout, params.Date, s.location)
	clock := scheduler.ClockOf(s.now().In(s.location))
	if params.Time != "" {
		clock, _ = scheduler.ParseClock(params.Time)
	}

	if _, err = s.rooms.GetRoom(ctx, params.RoomID); err != nil {
		err = mapRoomRepoError(err)
		return
	}

	result = RoomAvailability{
		RoomID:    params.RoomID,
		Date:      params.Date,
		Time:      clock.String(),
		Timetable: []TimetableEntry{},
		Bookings:  []Booking{},
	}

	weekday := day.Weekday()
	if scheduler.IsHoliday(weekday) {
		result.Status = scheduler.Resolve(scheduler.StatusFacts{Holiday: true})
		result.Message = scheduler.Message(result.Status)
		return
	}

	var entries []TimetableEntry
	entries, err = s.timetable.ListByRoomAndDay(ctx, params.RoomID, scheduler.DayName(weekday))
	if err != nil {
		err = mapTimetableRepoError(err)
		return
	}
	var bookings []Booking
	bookings, err = s.bookings.ListActiveOverlapping(ctx, params.RoomID, day, day.AddDate(0, 0, 1))
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	if entries != nil {
		result.Timetable = entries
	}
	if bookings != nil {
		result.Bookings = bookings
	}

	facts := scheduler.StatusFacts{HasBookings: len(result.Bookings) > 0}
	slot, ok := scheduler.CurrentSlot(s.slots(ctx, logger, result.Timetable), clock)
	if ok {
		facts.HasCurrentSlot = true
		for i := range result.Timetable {
			if result.Timetable[i].ID == slot.ID {
				current := result.Timetable[i]
				result.Current = &current
				break
			}
		}

		var record FacultyAvailability
		record, err = s.availability.GetAvailability(ctx, slot.FacultyID, params.Date)
		switch {
		case err == nil:
			facts.FacultyAbsent = record.Status == AvailabilityAbsent
		case errors.Is(mapAvailabilityRepoError(err), ErrNotFound):
			err = nil
		default:
			err = mapAvailabilityRepoError(err)
			return
		}
	}

	result.Status = scheduler.Resolve(facts)
	result.Message = scheduler.Message(result.Status)
	return
}

func (s *AvailabilityService) slots(ctx context.Context, logger *slog.Logger, entries []TimetableEntry) []scheduler.Slot {
	slots := make([]scheduler.Slot, 0, len(entries))
	for _, entry := range entries {
		start, startErr := scheduler.ParseClock(entry.StartTime)
		end, endErr := scheduler.ParseClock(entry.EndTime)
		if startErr != nil || endErr != nil {
			logger.WarnContext(ctx, "skipping timetable entry with malformed times", "entry_id", entry.ID)
			continue
		}
		slots = append(slots, scheduler.Slot{
			ID:          entry.ID,
			PeriodIndex: entry.PeriodIndex,
			Start:       start,
			End:         end,
			FacultyID:   entry.FacultyID,
		})
	}
	return slots
}
