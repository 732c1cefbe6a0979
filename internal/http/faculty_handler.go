package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-scheduler/internal/application"
)

type facultyService interface {
	UpdateFacultyAvailability(ctx context.Context, params application.UpdateFacultyAvailabilityParams) (application.FacultyAvailability, error)
	ListFacultyAvailability(ctx context.Context, params application.ListFacultyAvailabilityParams) ([]application.FacultyAvailability, error)
}

// FacultyHandler serves per-day faculty presence.
type FacultyHandler struct {
	service   facultyService
	responder responder
	logger    *slog.Logger
}

func NewFacultyHandler(service facultyService, logger *slog.Logger) *FacultyHandler {
	base := defaultLogger(logger)
	return &FacultyHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *FacultyHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "FacultyHandler", operation, attrs...)
}

func (h *FacultyHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var input application.FacultyAvailabilityInput
	if err := decodeJSON(r, &input); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode availability request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "date", input.Date)

	record, err := h.service.UpdateFacultyAvailability(r.Context(), application.UpdateFacultyAvailabilityParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "availability update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "availability updated", "faculty_id", record.FacultyID, "status", record.Status)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{Availability: toAvailabilityDTO(record)})
}

// List accepts optional faculty_id, from and to query parameters.
func (h *FacultyHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	params := application.ListFacultyAvailabilityParams{
		Principal: principal,
		FacultyID: strings.TrimSpace(query.Get("faculty_id")),
		From:      strings.TrimSpace(query.Get("from")),
		To:        strings.TrimSpace(query.Get("to")),
	}
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "faculty_id", params.FacultyID)

	records, err := h.service.ListFacultyAvailability(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := availabilityListResponse{Availability: make([]availabilityDTO, 0, len(records))}
	for _, record := range records {
		resp.Availability = append(resp.Availability, toAvailabilityDTO(record))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type availabilityDTO struct {
	ID        string `json:"id"`
	FacultyID string `json:"faculty_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

type availabilityResponse struct {
	Availability availabilityDTO `json:"availability"`
}

type availabilityListResponse struct {
	Availability []availabilityDTO `json:"availability"`
}

func toAvailabilityDTO(record application.FacultyAvailability) availabilityDTO {
	return availabilityDTO{
		ID:        record.ID,
		FacultyID: record.FacultyID,
		Date:      record.Date,
		Status:    record.Status,
		UpdatedAt: formatTime(record.UpdatedAt),
	}
}
