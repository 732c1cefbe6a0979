package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// TimetableRepository captures the persistence operations needed for the weekly timetable.
type TimetableRepository interface {
	CreateEntry(ctx context.Context, entry TimetableEntry) (TimetableEntry, error)
	GetEntry(ctx context.Context, id string) (TimetableEntry, error)
	ListBySection(ctx context.Context, branch string, semester int, section string) ([]TimetableEntry, error)
	ListByRoomAndDay(ctx context.Context, roomID, dayOfWeek string) ([]TimetableEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// TimetableService manages the recurring weekly timetable.
type TimetableService struct {
	entries     TimetableRepository
	users       UserRepository
	rooms       RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTimetableService constructs a timetable service with the provided dependencies.
func NewTimetableService(entries TimetableRepository, users UserRepository, rooms RoomRepository, idGenerator func() string, now func() time.Time) *TimetableService {
	return NewTimetableServiceWithLogger(entries, users, rooms, idGenerator, now, nil)
}

// NewTimetableServiceWithLogger constructs a timetable service with a specified logger.
func NewTimetableServiceWithLogger(entries TimetableRepository, users UserRepository, rooms RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TimetableService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TimetableService{
		entries:     entries,
		users:       users,
		rooms:       rooms,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TimetableService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TimetableService", operation, attrs...)
}

// CreateEntry adds a weekly slot for a section. The faculty must hold the faculty role
// and the room must exist; a taken slot yields a *ConflictError.
func (s *TimetableService) CreateEntry(ctx context.Context, params CreateTimetableEntryParams) (entry TimetableEntry, err error) {
	if s == nil {
		err = fmt.Errorf("TimetableService is nil")
		return
	}

	input := normalizeTimetableInput(params.Input)
	logger := s.loggerWith(ctx, "CreateEntry",
		"principal_id", params.Principal.UserID,
		"branch", input.Branch,
		"semester", input.Semester,
		"section", input.Section,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create timetable entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("entry_id", entry.ID).InfoContext(ctx, "timetable entry created")
	}()

	if err = authorize(params.Principal, ActionTimetableManage); err != nil {
		return
	}

	vErr := validateStruct(input)
	if !vErr.HasErrors() {
		start, _ := scheduler.ParseClock(input.StartTime)
		end, _ := scheduler.ParseClock(input.EndTime)
		if start >= end {
			vErr.add("end_time", "end_time must be after start_time")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.entries == nil || s.users == nil || s.rooms == nil {
		err = fmt.Errorf("timetable repositories not configured")
		return
	}

	var faculty User
	faculty, err = s.users.GetUser(ctx, input.FacultyID)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}
	if faculty.Role != RoleFaculty {
		err = newValidationError("faculty_id", "faculty_id must reference a faculty member")
		return
	}
	if _, err = s.rooms.GetRoom(ctx, input.RoomID); err != nil {
		err = mapRoomRepoError(err)
		return
	}

	now := s.now()
	entry, err = s.entries.CreateEntry(ctx, TimetableEntry{
		ID:          s.idGenerator(),
		Branch:      input.Branch,
		Semester:    input.Semester,
		Section:     input.Section,
		DayOfWeek:   input.DayOfWeek,
		PeriodIndex: input.PeriodIndex,
		Subject:     input.Subject,
		FacultyID:   input.FacultyID,
		RoomID:      input.RoomID,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		err = mapTimetableRepoError(err)
	}
	return
}

// ListSection returns a section's weekly timetable ordered by day then period. An unknown
// section yields an empty list.
func (s *TimetableService) ListSection(ctx context.Context, params ListSectionParams) ([]TimetableEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("TimetableService is nil")
	}
	if err := authorize(params.Principal, ActionTimetableView); err != nil {
		return nil, err
	}

	branch := strings.ToUpper(strings.TrimSpace(params.Branch))
	section := strings.ToUpper(strings.TrimSpace(params.Section))
	vErr := &ValidationError{}
	if branch == "" {
		vErr.add("branch", "branch is required")
	}
	if section == "" {
		vErr.add("section", "section is required")
	}
	if params.Semester < 1 || params.Semester > 8 {
		vErr.add("semester", "semester must be between 1 and 8")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	if s.entries == nil {
		return []TimetableEntry{}, nil
	}

	entries, err := s.entries.ListBySection(ctx, branch, params.Semester, section)
	if err != nil {
		err = mapTimetableRepoError(err)
		s.loggerWith(ctx, "ListSection", "branch", branch, "semester", params.Semester, "section", section).
			ErrorContext(ctx, "failed to list timetable", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	out := make([]TimetableEntry, len(entries))
	copy(out, entries)
	sortTimetable(out)
	return out, nil
}

// DeleteEntry removes a timetable entry for administrators.
func (s *TimetableService) DeleteEntry(ctx context.Context, principal Principal, entryID string) error {
	if s == nil {
		return fmt.Errorf("TimetableService is nil")
	}
	if err := authorize(principal, ActionTimetableManage); err != nil {
		return err
	}
	if s.entries == nil {
		return fmt.Errorf("timetable repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEntry",
		"principal_id", principal.UserID,
		"entry_id", entryID,
	)
	if err := s.entries.DeleteEntry(ctx, entryID); err != nil {
		err = mapTimetableRepoError(err)
		logger.ErrorContext(ctx, "failed to delete timetable entry", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "timetable entry deleted")
	return nil
}

func normalizeTimetableInput(input TimetableInput) TimetableInput {
	input.Branch = strings.ToUpper(strings.TrimSpace(input.Branch))
	input.Section = strings.ToUpper(strings.TrimSpace(input.Section))
	input.DayOfWeek = strings.TrimSpace(input.DayOfWeek)
	input.Subject = strings.TrimSpace(input.Subject)
	input.FacultyID = strings.TrimSpace(input.FacultyID)
	input.RoomID = strings.TrimSpace(input.RoomID)
	input.StartTime = strings.TrimSpace(input.StartTime)
	input.EndTime = strings.TrimSpace(input.EndTime)
	return input
}

func sortTimetable(entries []TimetableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, _ := scheduler.ParseDayName(entries[i].DayOfWeek)
		dj, _ := scheduler.ParseDayName(entries[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		if entries[i].PeriodIndex != entries[j].PeriodIndex {
			return entries[i].PeriodIndex < entries[j].PeriodIndex
		}
		return entries[i].ID < entries[j].ID
	})
}

func mapTimetableRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return &ConflictError{Resource: "timetable_entry"}
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("timetable_entry", "timetable entry violates a constraint")
	}
	return err
}
