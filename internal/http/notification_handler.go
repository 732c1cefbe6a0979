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

var errInvalidLimit = errors.New("limit must be a positive number")

type notificationService interface {
	Send(ctx context.Context, params application.SendNotificationParams) (application.Notification, error)
	List(ctx context.Context, params application.ListNotificationsParams) ([]application.Notification, error)
}

// StreamServer upgrades a request into a push subscription for the principal.
type StreamServer interface {
	Serve(w http.ResponseWriter, r *http.Request, principal application.Principal) error
}

// NotificationHandler serves stored notifications and the push stream.
type NotificationHandler struct {
	service   notificationService
	stream    StreamServer
	responder responder
	logger    *slog.Logger
}

func NewNotificationHandler(service notificationService, stream StreamServer, logger *slog.Logger) *NotificationHandler {
	base := defaultLogger(logger)
	return &NotificationHandler{service: service, stream: stream, responder: newResponder(base), logger: base}
}

func (h *NotificationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "NotificationHandler", operation, attrs...)
}

func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var input application.NotificationInput
	if err := decodeJSON(r, &input); err != nil {
		h.log(r.Context(), "Send", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode notification request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Send", "principal_id", principal.UserID, "recipients", len(input.Recipients))

	notification, err := h.service.Send(r.Context(), application.SendNotificationParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "notification send failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("notification_id", notification.ID).InfoContext(r.Context(), "notification sent")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, notificationResponse{Notification: toNotificationDTO(notification)})
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = parsed
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "limit", limit)

	notifications, err := h.service.List(r.Context(), application.ListNotificationsParams{
		Principal: principal,
		Limit:     limit,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "notification list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := notificationsResponse{Notifications: make([]notificationDTO, 0, len(notifications))}
	for _, notification := range notifications {
		resp.Notifications = append(resp.Notifications, toNotificationDTO(notification))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Stream upgrades the connection to a websocket that receives notifications addressed
// to the caller.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.stream == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Stream", "principal_id", principal.UserID)
	logger.InfoContext(r.Context(), "notification stream opened")

	if err := h.stream.Serve(w, r, principal); err != nil {
		logger.WarnContext(r.Context(), "notification stream ended", "error", err, "error_kind", application.ErrorKind(err))
		return
	}
	logger.InfoContext(r.Context(), "notification stream closed")
}

type notificationDTO struct {
	ID         string         `json:"id"`
	Recipients []string       `json:"recipients"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Type       string         `json:"type"`
	Meta       map[string]any `json:"meta"`
	CreatedAt  string         `json:"created_at"`
}

type notificationResponse struct {
	Notification notificationDTO `json:"notification"`
}

type notificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
}

func toNotificationDTO(n application.Notification) notificationDTO {
	recipients := n.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	meta := n.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return notificationDTO{
		ID:         n.ID,
		Recipients: recipients,
		Title:      n.Title,
		Body:       n.Body,
		Type:       n.Type,
		Meta:       meta,
		CreatedAt:  formatTime(n.CreatedAt),
	}
}
