package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/campus-scheduler/internal/persistence"
)

const notificationColumns = `id, recipients, title, body, type, meta, created_at`

// NotificationRepository implements persistence.NotificationRepository using SQLite.
// Recipients and meta are stored as JSON text.
type NotificationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewNotificationRepository creates a new SQLite notification repository.
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// CreateNotification appends a notification.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	if notification.ID == "" {
		return persistence.ErrConstraintViolation
	}

	recipients := notification.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	recipientsJSON, err := json.Marshal(recipients)
	if err != nil {
		return fmt.Errorf("encode recipients: %w", err)
	}
	meta := notification.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		notification.ID,
		string(recipientsJSON),
		notification.Title,
		notification.Body,
		notification.Type,
		string(metaJSON),
		formatTimestamp(notification.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// ListNotifications returns the newest notifications visible to the audience: broadcasts
// plus those naming any audience entry as a recipient. An empty audience sees only broadcasts.
func (r *NotificationRepository) ListNotifications(ctx context.Context, audience []string, limit int) ([]persistence.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipients = '[]'`
	args := make([]any, 0, len(audience)+1)
	if len(audience) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(audience)), ", ")
		query += ` OR EXISTS (SELECT 1 FROM json_each(notifications.recipients) WHERE json_each.value IN (` + placeholders + `))`
		for _, member := range audience {
			args = append(args, member)
		}
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return notifications, nil
}

func scanNotification(row rowScanner) (persistence.Notification, error) {
	var (
		notification             persistence.Notification
		recipientsJSON, metaJSON string
		createdAt                string
	)
	err := row.Scan(
		&notification.ID,
		&recipientsJSON,
		&notification.Title,
		&notification.Body,
		&notification.Type,
		&metaJSON,
		&createdAt,
	)
	if err != nil {
		return persistence.Notification{}, err
	}
	if err := json.Unmarshal([]byte(recipientsJSON), &notification.Recipients); err != nil {
		return persistence.Notification{}, fmt.Errorf("decode recipients: %w", err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &notification.Meta); err != nil {
		return persistence.Notification{}, fmt.Errorf("decode meta: %w", err)
	}
	if notification.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Notification{}, err
	}
	return notification, nil
}
