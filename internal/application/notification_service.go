package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
	defaultNotificationType  = "info"
)

// NotificationRepository captures the persistence operations for notifications.
// ListNotifications returns broadcasts plus notifications addressed to any audience entry,
// newest first.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) (Notification, error)
	ListNotifications(ctx context.Context, audience []string, limit int) ([]Notification, error)
}

// Publisher fans a stored notification out to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, notification Notification) error
}

// NotificationService persists notifications and publishes them to subscribers.
type NotificationService struct {
	notifications NotificationRepository
	publisher     Publisher
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewNotificationService constructs a notification service with the provided dependencies.
func NewNotificationService(notifications NotificationRepository, publisher Publisher, idGenerator func() string, now func() time.Time) *NotificationService {
	return NewNotificationServiceWithLogger(notifications, publisher, idGenerator, now, nil)
}

// NewNotificationServiceWithLogger constructs a notification service with a specified logger.
func NewNotificationServiceWithLogger(notifications NotificationRepository, publisher Publisher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *NotificationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		notifications: notifications,
		publisher:     publisher,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// Send stores and publishes a notification on behalf of faculty or administrators.
func (s *NotificationService) Send(ctx context.Context, params SendNotificationParams) (Notification, error) {
	if s == nil {
		return Notification{}, fmt.Errorf("NotificationService is nil")
	}
	if err := authorize(params.Principal, ActionNotificationsSend); err != nil {
		return Notification{}, err
	}
	if params.Input.Meta == nil {
		params.Input.Meta = map[string]any{}
	}
	if _, exists := params.Input.Meta["sender_id"]; !exists {
		params.Input.Meta["sender_id"] = params.Principal.UserID
	}
	return s.Notify(ctx, params.Input)
}

// Notify stores and publishes a system notification. Publishing failures are logged and
// do not fail the call.
func (s *NotificationService) Notify(ctx context.Context, input NotificationInput) (notification Notification, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}

	input = normalizeNotificationInput(input)
	logger := s.loggerWith(ctx, "Notify",
		"title", input.Title,
		"recipient_count", len(input.Recipients),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to send notification", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("notification_id", notification.ID).InfoContext(ctx, "notification sent")
	}()

	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.notifications == nil {
		err = fmt.Errorf("notification repository not configured")
		return
	}

	notification, err = s.notifications.CreateNotification(ctx, Notification{
		ID:         s.idGenerator(),
		Recipients: input.Recipients,
		Title:      input.Title,
		Body:       input.Body,
		Type:       input.Type,
		Meta:       input.Meta,
		CreatedAt:  s.now(),
	})
	if err != nil {
		err = mapNotificationRepoError(err)
		return
	}

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, notification); perr != nil {
			logger.WarnContext(ctx, "failed to publish notification", "error", perr)
		}
	}
	return
}

// List returns the newest notifications visible to the caller: broadcasts and those
// addressed to the caller's user ID or role.
func (s *NotificationService) List(ctx context.Context, params ListNotificationsParams) ([]Notification, error) {
	if s == nil {
		return nil, fmt.Errorf("NotificationService is nil")
	}
	if err := authorize(params.Principal, ActionNotificationsList); err != nil {
		return nil, err
	}
	if params.Limit < 0 {
		return nil, newValidationError("limit", "limit must be positive")
	}
	if s.notifications == nil {
		return nil, nil
	}

	audience := []string{params.Principal.UserID, string(params.Principal.Role)}
	notifications, err := s.notifications.ListNotifications(ctx, audience, clampLimit(params.Limit))
	if err != nil {
		err = mapNotificationRepoError(err)
		s.loggerWith(ctx, "List", "principal_id", params.Principal.UserID).
			ErrorContext(ctx, "failed to list notifications", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return notifications, nil
}

// VisibleTo reports whether a notification is addressed to the principal.
func VisibleTo(notification Notification, userID string, role Role) bool {
	if len(notification.Recipients) == 0 {
		return true
	}
	for _, recipient := range notification.Recipients {
		if recipient == userID || recipient == string(role) {
			return true
		}
	}
	return false
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultNotificationLimit
	case limit > maxNotificationLimit:
		return maxNotificationLimit
	}
	return limit
}

func normalizeNotificationInput(input NotificationInput) NotificationInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Body = strings.TrimSpace(input.Body)
	input.Type = strings.TrimSpace(input.Type)
	if input.Type == "" {
		input.Type = defaultNotificationType
	}

	seen := make(map[string]bool, len(input.Recipients))
	recipients := make([]string, 0, len(input.Recipients))
	for _, recipient := range input.Recipients {
		recipient = strings.TrimSpace(recipient)
		if seen[recipient] {
			continue
		}
		seen[recipient] = true
		recipients = append(recipients, recipient)
	}
	input.Recipients = recipients

	if input.Meta == nil {
		input.Meta = map[string]any{}
	}
	return input
}

func mapNotificationRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("notification", "notification violates a constraint")
	}
	return err
}
