package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
)

var errInvalidRoomID = errors.New("room id is required")

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	ListRooms(ctx context.Context, principal application.Principal, roomType string) ([]application.Room, error)
}

type roomAvailabilityService interface {
	GetRoomAvailability(ctx context.Context, params application.RoomAvailabilityParams) (application.RoomAvailability, error)
}

// RoomHandler serves the room catalogue and live room status.
type RoomHandler struct {
	service      roomService
	availability roomAvailabilityService
	responder    responder
	logger       *slog.Logger
}

func NewRoomHandler(service roomService, availability roomAvailabilityService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, availability: availability, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(r.PathValue("id"))
	if roomID == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "room_id", roomID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "room_id", roomID)

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(r.PathValue("id"))
	if roomID == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "room_id", roomID)
	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		logger.ErrorContext(r.Context(), "room delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomType := strings.TrimSpace(r.URL.Query().Get("type"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "room_type", roomType)

	rooms, err := h.service.ListRooms(r.Context(), principal, roomType)
	if err != nil {
		logger.ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := roomsResponse{Rooms: make([]roomDTO, 0, len(rooms))}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, toRoomDTO(room))
	}

	logger.InfoContext(r.Context(), "rooms listed", "count", len(resp.Rooms))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Availability resolves the room status at ?date=YYYY-MM-DD and optional ?time=HH:mm.
func (h *RoomHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.availability == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(r.PathValue("id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	params := application.RoomAvailabilityParams{
		Principal: principal,
		RoomID:    roomID,
		Date:      strings.TrimSpace(query.Get("date")),
		Time:      strings.TrimSpace(query.Get("time")),
	}
	logger := h.log(r.Context(), "Availability", "principal_id", principal.UserID, "room_id", roomID, "date", params.Date, "time", params.Time)

	result, err := h.availability.GetRoomAvailability(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "room availability failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room availability resolved", "status", result.Status)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomAvailabilityResponse(result))
}

type roomRequest struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Capacity int     `json:"capacity"`
	Location *string `json:"location"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Name:     strings.TrimSpace(r.Name),
		Type:     strings.TrimSpace(r.Type),
		Capacity: r.Capacity,
		Location: r.Location,
	}
}

type roomDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Capacity  int     `json:"capacity"`
	Location  *string `json:"location,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type roomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Type:      room.Type,
		Capacity:  room.Capacity,
		Location:  room.Location,
		CreatedAt: formatTime(room.CreatedAt),
		UpdatedAt: formatTime(room.UpdatedAt),
	}
}

type roomAvailabilityResponse struct {
	RoomID    string              `json:"room_id"`
	Date      string              `json:"date"`
	Time      string              `json:"time"`
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	Current   *timetableEntryDTO  `json:"current,omitempty"`
	Timetable []timetableEntryDTO `json:"timetable"`
	Bookings  []bookingDTO        `json:"bookings"`
}

func toRoomAvailabilityResponse(result application.RoomAvailability) roomAvailabilityResponse {
	resp := roomAvailabilityResponse{
		RoomID:    result.RoomID,
		Date:      result.Date,
		Time:      result.Time,
		Status:    string(result.Status),
		Message:   result.Message,
		Timetable: make([]timetableEntryDTO, 0, len(result.Timetable)),
		Bookings:  make([]bookingDTO, 0, len(result.Bookings)),
	}
	if result.Current != nil {
		current := toTimetableEntryDTO(*result.Current)
		resp.Current = &current
	}
	for _, entry := range result.Timetable {
		resp.Timetable = append(resp.Timetable, toTimetableEntryDTO(entry))
	}
	for _, booking := range result.Bookings {
		resp.Bookings = append(resp.Bookings, toBookingDTO(booking))
	}
	return resp
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
