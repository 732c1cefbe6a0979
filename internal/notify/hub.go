// Package notify pushes notifications to connected websocket clients.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olahol/melody"

	"github.com/example/campus-scheduler/internal/application"
)

const (
	keyUserID = "user_id"
	keyRole   = "role"

	eventNotification = "notification"
)

// ErrClosed is returned when publishing through a closed hub.
var ErrClosed = errors.New("notify: hub closed")

// Event is the frame written to websocket clients.
type Event struct {
	Event string  `json:"event"`
	Data  Payload `json:"data"`
}

// Payload is the wire form of a notification.
type Payload struct {
	ID         string         `json:"id"`
	Recipients []string       `json:"recipients"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Type       string         `json:"type"`
	Meta       map[string]any `json:"meta"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewPayload converts a notification to its wire form.
func NewPayload(n application.Notification) Payload {
	recipients := n.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	meta := n.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return Payload{
		ID:         n.ID,
		Recipients: recipients,
		Title:      n.Title,
		Body:       n.Body,
		Type:       n.Type,
		Meta:       meta,
		CreatedAt:  n.CreatedAt.UTC(),
	}
}

// Hub tracks authenticated websocket sessions and fans notifications out to the
// sessions they are addressed to.
type Hub struct {
	melody *melody.Melody
	logger *slog.Logger
}

// NewHub constructs a hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{melody: melody.New(), logger: logger}
	h.melody.HandleConnect(func(s *melody.Session) {
		userID, _ := s.Get(keyUserID)
		h.logger.Info("websocket client connected", "user_id", userID, "sessions", h.melody.Len())
	})
	h.melody.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get(keyUserID)
		h.logger.Info("websocket client disconnected", "user_id", userID)
	})
	h.melody.HandleError(func(s *melody.Session, err error) {
		userID, _ := s.Get(keyUserID)
		h.logger.Warn("websocket session error", "user_id", userID, "error", err)
	})
	return h
}

// Serve upgrades the request and registers the session for principal. It blocks until
// the client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, principal application.Principal) error {
	if !principal.Authenticated() {
		return application.ErrUnauthenticated
	}
	return h.melody.HandleRequestWithKeys(w, r, map[string]any{
		keyUserID: principal.UserID,
		keyRole:   string(principal.Role),
	})
}

// Publish delivers the notification to every session allowed to see it.
func (h *Hub) Publish(ctx context.Context, n application.Notification) error {
	if h.melody.IsClosed() {
		return ErrClosed
	}
	frame, err := json.Marshal(Event{Event: eventNotification, Data: NewPayload(n)})
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	err = h.melody.BroadcastFilter(frame, func(s *melody.Session) bool {
		userID, _ := s.Get(keyUserID)
		role, _ := s.Get(keyRole)
		id, _ := userID.(string)
		r, _ := role.(string)
		return application.VisibleTo(n, id, application.Role(r))
	})
	if err != nil {
		return fmt.Errorf("notify: broadcast: %w", err)
	}
	return nil
}

// Len returns the number of connected sessions.
func (h *Hub) Len() int {
	return h.melody.Len()
}

// Close disconnects every session.
func (h *Hub) Close() error {
	if h.melody.IsClosed() {
		return nil
	}
	return h.melody.Close()
}
