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

// FacultyAvailabilityRepository captures the persistence operations for presence overrides.
// UpsertAvailability keeps one record per (faculty, date); the last write wins.
type FacultyAvailabilityRepository interface {
	UpsertAvailability(ctx context.Context, availability FacultyAvailability) (FacultyAvailability, error)
	GetAvailability(ctx context.Context, facultyID, date string) (FacultyAvailability, error)
	ListAvailability(ctx context.Context, filter AvailabilityFilter) ([]FacultyAvailability, error)
}

// FacultyService records and lists faculty presence overrides.
type FacultyService struct {
	availability FacultyAvailabilityRepository
	users        UserRepository
	notifier     Notifier
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewFacultyService constructs a faculty service with the provided dependencies.
func NewFacultyService(availability FacultyAvailabilityRepository, users UserRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *FacultyService {
	return NewFacultyServiceWithLogger(availability, users, notifier, idGenerator, now, nil)
}

// NewFacultyServiceWithLogger constructs a faculty service with a specified logger.
func NewFacultyServiceWithLogger(availability FacultyAvailabilityRepository, users UserRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *FacultyService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &FacultyService{
		availability: availability,
		users:        users,
		notifier:     notifier,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *FacultyService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FacultyService", operation, attrs...)
}

// UpdateFacultyAvailability records the caller's presence for a date. Faculty may only
// update their own record.
func (s *FacultyService) UpdateFacultyAvailability(ctx context.Context, params UpdateFacultyAvailabilityParams) (record FacultyAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("FacultyService is nil")
		return
	}

	input := params.Input
	input.FacultyID = strings.TrimSpace(input.FacultyID)
	if input.FacultyID == "" {
		input.FacultyID = params.Principal.UserID
	}
	input.Date = strings.TrimSpace(input.Date)
	input.Status = strings.ToLower(strings.TrimSpace(input.Status))

	logger := s.loggerWith(ctx, "UpdateFacultyAvailability",
		"principal_id", params.Principal.UserID,
		"faculty_id", input.FacultyID,
		"date", input.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update faculty availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", record.Status).InfoContext(ctx, "faculty availability updated")
	}()

	if err = authorize(params.Principal, ActionFacultyAvailabilityEdit); err != nil {
		return
	}
	if input.FacultyID != params.Principal.UserID {
		err = ErrForbidden
		return
	}
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.availability == nil {
		err = fmt.Errorf("availability repository not configured")
		return
	}

	now := s.now()
	record, err = s.availability.UpsertAvailability(ctx, FacultyAvailability{
		ID:        s.idGenerator(),
		FacultyID: input.FacultyID,
		Date:      input.Date,
		Status:    input.Status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		err = mapAvailabilityRepoError(err)
		return
	}

	s.notifyUpdated(ctx, logger, record)
	return
}

// ListFacultyAvailability returns presence records ordered by date. Only administrators
// may list without naming a faculty member.
func (s *FacultyService) ListFacultyAvailability(ctx context.Context, params ListFacultyAvailabilityParams) ([]FacultyAvailability, error) {
	if s == nil {
		return nil, fmt.Errorf("FacultyService is nil")
	}
	if err := authorize(params.Principal, ActionFacultyAvailabilityView); err != nil {
		return nil, err
	}

	params.FacultyID = strings.TrimSpace(params.FacultyID)
	params.From = strings.TrimSpace(params.From)
	params.To = strings.TrimSpace(params.To)

	vErr := validateStruct(params)
	if params.FacultyID == "" && !DefaultPolicy.Allows(params.Principal, ActionFacultyAvailabilityAll) {
		vErr.add("faculty_id", "faculty_id is required")
	}
	if params.From != "" && params.To != "" && params.From > params.To {
		vErr.add("to", "to must not be before from")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	if s.availability == nil {
		return nil, nil
	}

	records, err := s.availability.ListAvailability(ctx, AvailabilityFilter{
		FacultyID: params.FacultyID,
		From:      params.From,
		To:        params.To,
	})
	if err != nil {
		err = mapAvailabilityRepoError(err)
		s.loggerWith(ctx, "ListFacultyAvailability", "principal_id", params.Principal.UserID).
			ErrorContext(ctx, "failed to list faculty availability", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	out := make([]FacultyAvailability, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].FacultyID < out[j].FacultyID
	})
	return out, nil
}

func (s *FacultyService) notifyUpdated(ctx context.Context, logger *slog.Logger, record FacultyAvailability) {
	if s.notifier == nil {
		return
	}

	name := record.FacultyID
	if s.users != nil {
		if user, err := s.users.GetUser(ctx, record.FacultyID); err == nil && user.Name != "" {
			name = user.Name
		}
	}

	_, err := s.notifier.Notify(context.WithoutCancel(ctx), NotificationInput{
		Title: "Faculty Availability Updated",
		Body:  fmt.Sprintf("%s marked as %s for %s", name, record.Status, record.Date),
		Type:  "availability",
		Meta: map[string]any{
			"faculty_id": record.FacultyID,
			"date":       record.Date,
			"status":     record.Status,
		},
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to send availability notification", "error", err)
	}
}

func mapAvailabilityRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("status", "status must be one of: present, not-available, absent")
	}
	return err
}
