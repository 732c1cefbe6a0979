package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/campus-scheduler/internal/application"
)

var (
	errInvalidEntryID  = errors.New("timetable entry id is required")
	errInvalidSemester = errors.New("semester must be a number")
)

type timetableService interface {
	CreateEntry(ctx context.Context, params application.CreateTimetableEntryParams) (application.TimetableEntry, error)
	ListSection(ctx context.Context, params application.ListSectionParams) ([]application.TimetableEntry, error)
	DeleteEntry(ctx context.Context, principal application.Principal, entryID string) error
}

// TimetableHandler serves the recurring weekly timetable.
type TimetableHandler struct {
	service   timetableService
	responder responder
	logger    *slog.Logger
}

func NewTimetableHandler(service timetableService, logger *slog.Logger) *TimetableHandler {
	base := defaultLogger(logger)
	return &TimetableHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TimetableHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TimetableHandler", operation, attrs...)
}

func (h *TimetableHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var input application.TimetableInput
	if err := decodeJSON(r, &input); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode timetable request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", input.RoomID)

	entry, err := h.service.CreateEntry(r.Context(), application.CreateTimetableEntryParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "timetable entry creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("entry_id", entry.ID).InfoContext(r.Context(), "timetable entry created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, timetableEntryResponse{Entry: toTimetableEntryDTO(entry)})
}

func (h *TimetableHandler) ListSection(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	semester, err := strconv.Atoi(r.PathValue("semester"))
	if err != nil {
		h.log(r.Context(), "ListSection", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid semester", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSemester)
		return
	}

	params := application.ListSectionParams{
		Principal: principal,
		Branch:    r.PathValue("branch"),
		Semester:  semester,
		Section:   r.PathValue("section"),
	}
	logger := h.log(r.Context(), "ListSection", "principal_id", principal.UserID, "branch", params.Branch, "semester", semester, "section", params.Section)

	entries, err := h.service.ListSection(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "timetable list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := timetableResponse{Entries: make([]timetableEntryDTO, 0, len(entries))}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, toTimetableEntryDTO(entry))
	}

	logger.InfoContext(r.Context(), "timetable listed", "count", len(resp.Entries))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *TimetableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID := strings.TrimSpace(r.PathValue("id"))
	if entryID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "entry_id", entryID)
	if err := h.service.DeleteEntry(r.Context(), principal, entryID); err != nil {
		logger.ErrorContext(r.Context(), "timetable entry delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "timetable entry deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type timetableEntryDTO struct {
	ID          string `json:"id"`
	Branch      string `json:"branch"`
	Semester    int    `json:"semester"`
	Section     string `json:"section"`
	DayOfWeek   string `json:"day_of_week"`
	PeriodIndex int    `json:"period_index"`
	Subject     string `json:"subject"`
	FacultyID   string `json:"faculty_id"`
	RoomID      string `json:"room_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

type timetableEntryResponse struct {
	Entry timetableEntryDTO `json:"entry"`
}

type timetableResponse struct {
	Entries []timetableEntryDTO `json:"entries"`
}

func toTimetableEntryDTO(entry application.TimetableEntry) timetableEntryDTO {
	return timetableEntryDTO{
		ID:          entry.ID,
		Branch:      entry.Branch,
		Semester:    entry.Semester,
		Section:     entry.Section,
		DayOfWeek:   entry.DayOfWeek,
		PeriodIndex: entry.PeriodIndex,
		Subject:     entry.Subject,
		FacultyID:   entry.FacultyID,
		RoomID:      entry.RoomID,
		StartTime:   entry.StartTime,
		EndTime:     entry.EndTime,
	}
}
