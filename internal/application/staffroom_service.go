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
)

const (
	unassignedStaffroomName = "Unassigned"
	unspecifiedLocation     = "Not specified"
)

// StaffroomRepository captures the persistence operations for staffrooms. CreateStaffroom
// assigns the listed faculty in the same transaction.
type StaffroomRepository interface {
	CreateStaffroom(ctx context.Context, staffroom Staffroom, facultyIDs []string) (Staffroom, error)
	GetStaffroom(ctx context.Context, id string) (Staffroom, error)
	ListStaffrooms(ctx context.Context) ([]Staffroom, error)
}

// StaffroomService manages staffrooms and aggregates faculty presence per staffroom.
type StaffroomService struct {
	staffrooms   StaffroomRepository
	users        UserRepository
	availability FacultyAvailabilityRepository
	location     *time.Location
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewStaffroomService constructs a staffroom service. The default aggregation date is
// today in location.
func NewStaffroomService(staffrooms StaffroomRepository, users UserRepository, availability FacultyAvailabilityRepository, location *time.Location, idGenerator func() string, now func() time.Time) *StaffroomService {
	return NewStaffroomServiceWithLogger(staffrooms, users, availability, location, idGenerator, now, nil)
}

// NewStaffroomServiceWithLogger constructs a staffroom service with a specified logger.
func NewStaffroomServiceWithLogger(staffrooms StaffroomRepository, users UserRepository, availability FacultyAvailabilityRepository, location *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) *StaffroomService {
	if location == nil {
		location = time.UTC
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &StaffroomService{
		staffrooms:   staffrooms,
		users:        users,
		availability: availability,
		location:     location,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *StaffroomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StaffroomService", operation, attrs...)
}

// ListStaffroomPresence summarises each staffroom's faculty statuses for a date.
// Faculty without a record for the date are not-updated; faculty without a staffroom
// are reported under a trailing "Unassigned" group.
func (s *StaffroomService) ListStaffroomPresence(ctx context.Context, principal Principal, date string) (groups []StaffroomPresence, err error) {
	if s == nil {
		err = fmt.Errorf("StaffroomService is nil")
		return
	}

	date = strings.TrimSpace(date)
	if date == "" {
		date = s.now().In(s.location).Format(dateLayout)
	}

	logger := s.loggerWith(ctx, "ListStaffroomPresence",
		"principal_id", principal.UserID,
		"date", date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to aggregate staffroom presence", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(groups)).InfoContext(ctx, "staffroom presence aggregated")
	}()

	if err = authorize(principal, ActionStaffroomsView); err != nil {
		return
	}
	if _, perr := parseDate(date); perr != nil {
		err = newValidationError("date", "date must use YYYY-MM-DD format")
		return
	}
	if s.staffrooms == nil || s.users == nil || s.availability == nil {
		return []StaffroomPresence{}, nil
	}

	var staffrooms []Staffroom
	if staffrooms, err = s.staffrooms.ListStaffrooms(ctx); err != nil {
		err = mapStaffroomRepoError(err)
		return
	}
	var faculty []User
	if faculty, err = s.users.ListUsers(ctx, UserFilter{Role: RoleFaculty}); err != nil {
		err = mapUserRepoError(err)
		return
	}
	var records []FacultyAvailability
	if records, err = s.availability.ListAvailability(ctx, AvailabilityFilter{From: date, To: date}); err != nil {
		err = mapAvailabilityRepoError(err)
		return
	}

	groups = aggregatePresence(staffrooms, faculty, records, date)
	return
}

func aggregatePresence(staffrooms []Staffroom, faculty []User, records []FacultyAvailability, date string) []StaffroomPresence {
	statusByFaculty := make(map[string]string, len(records))
	for _, record := range records {
		if record.Date == date {
			statusByFaculty[record.FacultyID] = record.Status
		}
	}

	known := make(map[string]bool, len(staffrooms))
	for _, room := range staffrooms {
		known[room.ID] = true
	}
	members := make(map[string][]User)
	var unassigned []User
	for _, user := range faculty {
		if user.StaffroomID == nil || !known[*user.StaffroomID] {
			unassigned = append(unassigned, user)
			continue
		}
		members[*user.StaffroomID] = append(members[*user.StaffroomID], user)
	}

	sorted := make([]Staffroom, len(staffrooms))
	copy(sorted, staffrooms)
	sort.Slice(sorted, func(i, j int) bool {
		if strings.EqualFold(sorted[i].Name, sorted[j].Name) {
			return sorted[i].ID < sorted[j].ID
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	groups := make([]StaffroomPresence, 0, len(sorted)+1)
	for _, room := range sorted {
		location := unspecifiedLocation
		if room.Location != nil && *room.Location != "" {
			location = *room.Location
		}
		groups = append(groups, buildPresence(room.ID, room.Name, location, date, members[room.ID], statusByFaculty))
	}
	if len(unassigned) > 0 {
		groups = append(groups, buildPresence("", unassignedStaffroomName, unspecifiedLocation, date, unassigned, statusByFaculty))
	}
	return groups
}

func buildPresence(id, name, location, date string, members []User, statusByFaculty map[string]string) StaffroomPresence {
	users := make([]User, len(members))
	copy(users, members)
	sortUsersByName(users)

	group := StaffroomPresence{
		ID:       id,
		Name:     name,
		Location: location,
		Date:     date,
		Faculty:  make([]FacultyPresence, 0, len(users)),
	}
	for _, user := range users {
		status, ok := statusByFaculty[user.ID]
		if !ok {
			status = AvailabilityNotUpdated
		}
		switch status {
		case AvailabilityPresent:
			group.Counts.Present++
		case AvailabilityAbsent:
			group.Counts.Absent++
		case AvailabilityNotAvailable:
			group.Counts.NotAvailable++
		default:
			status = AvailabilityNotUpdated
			group.Counts.NotUpdated++
		}
		group.Counts.Total++
		group.Faculty = append(group.Faculty, FacultyPresence{ID: user.ID, Name: user.Name, Email: user.Email, Status: status})
	}
	return group
}

// CreateStaffroom creates a staffroom and assigns the listed faculty to it.
func (s *StaffroomService) CreateStaffroom(ctx context.Context, params CreateStaffroomParams) (staffroom Staffroom, err error) {
	if s == nil {
		err = fmt.Errorf("StaffroomService is nil")
		return
	}

	input := normalizeStaffroomInput(params.Input)
	logger := s.loggerWith(ctx, "CreateStaffroom",
		"principal_id", params.Principal.UserID,
		"faculty_count", len(input.FacultyIDs),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create staffroom", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("staffroom_id", staffroom.ID).InfoContext(ctx, "staffroom created")
	}()

	if err = authorize(params.Principal, ActionStaffroomsManage); err != nil {
		return
	}
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.staffrooms == nil || s.users == nil {
		err = fmt.Errorf("staffroom repositories not configured")
		return
	}

	for _, facultyID := range input.FacultyIDs {
		var user User
		if user, err = s.facultyMember(ctx, facultyID); err != nil {
			return
		}
		if user.StaffroomID != nil {
			err = &ConflictError{Resource: "staffroom_member", ConflictingID: user.ID}
			return
		}
	}

	now := s.now()
	staffroom, err = s.staffrooms.CreateStaffroom(ctx, Staffroom{
		ID:        s.idGenerator(),
		Name:      input.Name,
		Location:  input.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}, input.FacultyIDs)
	if err != nil {
		err = mapStaffroomRepoError(err)
	}
	return
}

// AssignFaculty places a faculty member without a staffroom into the staffroom.
func (s *StaffroomService) AssignFaculty(ctx context.Context, params StaffroomMembershipParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("StaffroomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AssignFaculty",
		"principal_id", params.Principal.UserID,
		"staffroom_id", params.StaffroomID,
		"faculty_id", params.FacultyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign faculty", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "faculty assigned")
	}()

	if err = authorize(params.Principal, ActionStaffroomsManage); err != nil {
		return
	}
	if s.staffrooms == nil || s.users == nil {
		err = fmt.Errorf("staffroom repositories not configured")
		return
	}
	if _, err = s.staffrooms.GetStaffroom(ctx, params.StaffroomID); err != nil {
		err = mapStaffroomRepoError(err)
		return
	}
	if user, err = s.facultyMember(ctx, strings.TrimSpace(params.FacultyID)); err != nil {
		return
	}
	if user.StaffroomID != nil {
		err = &ConflictError{Resource: "staffroom_member", ConflictingID: *user.StaffroomID}
		return
	}

	staffroomID := params.StaffroomID
	user.StaffroomID = &staffroomID
	user.UpdatedAt = s.now()
	if err = s.users.SetStaffroom(ctx, user.ID, user.StaffroomID, user.UpdatedAt); err != nil {
		err = mapUserRepoError(err)
	}
	return
}

// RemoveFaculty clears a faculty member's staffroom. The member must belong to it.
func (s *StaffroomService) RemoveFaculty(ctx context.Context, params StaffroomMembershipParams) (err error) {
	if s == nil {
		return fmt.Errorf("StaffroomService is nil")
	}

	logger := s.loggerWith(ctx, "RemoveFaculty",
		"principal_id", params.Principal.UserID,
		"staffroom_id", params.StaffroomID,
		"faculty_id", params.FacultyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to remove faculty", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "faculty removed")
	}()

	if err = authorize(params.Principal, ActionStaffroomsManage); err != nil {
		return
	}
	if s.staffrooms == nil || s.users == nil {
		return fmt.Errorf("staffroom repositories not configured")
	}
	if _, err = s.staffrooms.GetStaffroom(ctx, params.StaffroomID); err != nil {
		return mapStaffroomRepoError(err)
	}

	var user User
	if user, err = s.users.GetUser(ctx, params.FacultyID); err != nil {
		return mapUserRepoError(err)
	}
	if user.StaffroomID == nil || *user.StaffroomID != params.StaffroomID {
		return ErrNotFound
	}
	return mapUserRepoError(s.users.SetStaffroom(ctx, user.ID, nil, s.now()))
}

func (s *StaffroomService) facultyMember(ctx context.Context, id string) (User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	if user.Role != RoleFaculty {
		return User{}, newValidationError("faculty_ids", fmt.Sprintf("%s is not a faculty member", id))
	}
	return user, nil
}

func normalizeStaffroomInput(input StaffroomInput) StaffroomInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Location = normalizeOptionalString(input.Location)

	seen := make(map[string]bool, len(input.FacultyIDs))
	ids := make([]string, 0, len(input.FacultyIDs))
	for _, id := range input.FacultyIDs {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	input.FacultyIDs = ids
	return input
}

func mapStaffroomRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("staffroom", "staffroom attributes violate a constraint")
	}
	return err
}
