package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-scheduler/internal/application"
)

var errInvalidStaffroomID = errors.New("staffroom id is required")

type staffroomService interface {
	ListStaffroomPresence(ctx context.Context, principal application.Principal, date string) ([]application.StaffroomPresence, error)
	CreateStaffroom(ctx context.Context, params application.CreateStaffroomParams) (application.Staffroom, error)
	AssignFaculty(ctx context.Context, params application.StaffroomMembershipParams) (application.User, error)
	RemoveFaculty(ctx context.Context, params application.StaffroomMembershipParams) error
}

// StaffroomHandler serves staffrooms and their presence summaries.
type StaffroomHandler struct {
	service   staffroomService
	responder responder
	logger    *slog.Logger
}

func NewStaffroomHandler(service staffroomService, logger *slog.Logger) *StaffroomHandler {
	base := defaultLogger(logger)
	return &StaffroomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StaffroomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StaffroomHandler", operation, attrs...)
}

// List returns presence groups for ?date=, defaulting to today.
func (h *StaffroomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "date", date)

	groups, err := h.service.ListStaffroomPresence(r.Context(), principal, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "staffroom presence failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := staffroomsResponse{Staffrooms: make([]staffroomPresenceDTO, 0, len(groups))}
	for _, group := range groups {
		resp.Staffrooms = append(resp.Staffrooms, toStaffroomPresenceDTO(group))
	}

	logger.InfoContext(r.Context(), "staffroom presence listed", "count", len(resp.Staffrooms))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *StaffroomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var input application.StaffroomInput
	if err := decodeJSON(r, &input); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode staffroom request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	staffroom, err := h.service.CreateStaffroom(r.Context(), application.CreateStaffroomParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "staffroom creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("staffroom_id", staffroom.ID).InfoContext(r.Context(), "staffroom created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, staffroomResponse{Staffroom: toStaffroomDTO(staffroom)})
}

func (h *StaffroomHandler) AssignFaculty(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	staffroomID := strings.TrimSpace(r.PathValue("id"))
	if staffroomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStaffroomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req assignFacultyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "AssignFaculty", "principal_id", principal.UserID, "staffroom_id", staffroomID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode assignment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "AssignFaculty", "principal_id", principal.UserID, "staffroom_id", staffroomID, "faculty_id", req.FacultyID)

	user, err := h.service.AssignFaculty(r.Context(), application.StaffroomMembershipParams{
		Principal:   principal,
		StaffroomID: staffroomID,
		FacultyID:   strings.TrimSpace(req.FacultyID),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "faculty assignment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "faculty assigned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *StaffroomHandler) RemoveFaculty(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	staffroomID := strings.TrimSpace(r.PathValue("id"))
	facultyID := strings.TrimSpace(r.PathValue("facultyId"))
	if staffroomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStaffroomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RemoveFaculty", "principal_id", principal.UserID, "staffroom_id", staffroomID, "faculty_id", facultyID)

	err := h.service.RemoveFaculty(r.Context(), application.StaffroomMembershipParams{
		Principal:   principal,
		StaffroomID: staffroomID,
		FacultyID:   facultyID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "faculty removal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "faculty removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type assignFacultyRequest struct {
	FacultyID string `json:"faculty_id"`
}

type staffroomDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Location  *string `json:"location,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type staffroomResponse struct {
	Staffroom staffroomDTO `json:"staffroom"`
}

func toStaffroomDTO(staffroom application.Staffroom) staffroomDTO {
	return staffroomDTO{
		ID:        staffroom.ID,
		Name:      staffroom.Name,
		Location:  staffroom.Location,
		CreatedAt: formatTime(staffroom.CreatedAt),
	}
}

type presenceCountsDTO struct {
	Total        int `json:"total"`
	Present      int `json:"present"`
	Absent       int `json:"absent"`
	NotAvailable int `json:"not_available"`
	NotUpdated   int `json:"not_updated"`
}

type facultyPresenceDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

type staffroomPresenceDTO struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Location string               `json:"location"`
	Date     string               `json:"date"`
	Counts   presenceCountsDTO    `json:"counts"`
	Faculty  []facultyPresenceDTO `json:"faculty"`
}

type staffroomsResponse struct {
	Staffrooms []staffroomPresenceDTO `json:"staffrooms"`
}

func toStaffroomPresenceDTO(group application.StaffroomPresence) staffroomPresenceDTO {
	dto := staffroomPresenceDTO{
		ID:       group.ID,
		Name:     group.Name,
		Location: group.Location,
		Date:     group.Date,
		Counts: presenceCountsDTO{
			Total:        group.Counts.Total,
			Present:      group.Counts.Present,
			Absent:       group.Counts.Absent,
			NotAvailable: group.Counts.NotAvailable,
			NotUpdated:   group.Counts.NotUpdated,
		},
		Faculty: make([]facultyPresenceDTO, 0, len(group.Faculty)),
	}
	for _, member := range group.Faculty {
		dto.Faculty = append(dto.Faculty, facultyPresenceDTO(member))
	}
	return dto
}
