// internal/store/notifications.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// NotificationStore persists notification rows in PostgreSQL.
type NotificationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewNotificationStore(db *sql.DB, log logger.Logger) *NotificationStore {
	return &NotificationStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "notification_store"}),
	}
}

const notificationColumns = `id, user_id, title, message, type, channel, status, metadata, created_at, updated_at, read_at, expires_at`

// Create inserts a new pending notification and fills in id and timestamps.
func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = models.StatusPending
	}

	metadata, err := marshalMetadata(n.Metadata)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeDatabaseInsertFailed, "encode metadata", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, channel, status, metadata, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.UserID, n.Title, n.Message, n.Type, n.Channel, n.Status, metadata, n.CreatedAt, n.UpdatedAt, n.ExpiresAt,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeDatabaseInsertFailed, "insert notification", err)
	}
	return nil
}

// GetByID fetches a single notification.
func (s *NotificationStore) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE id = $1`, id)

	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("notification")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "get notification", err)
	}
	return n, nil
}

// ListByUser returns a user's notifications, newest first.
func (s *NotificationStore) ListByUser(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "list notifications", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "scan notification", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "list notifications", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *NotificationStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "count unread", err)
	}
	return count, nil
}

// MarkRead sets read_at once; calling it again is a no-op that still
// returns the row (first-write-wins).
func (s *NotificationStore) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET read_at = $2, status = $3, updated_at = $2
		WHERE id = $1 AND read_at IS NULL`,
		id, now, models.StatusRead,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "mark read", err)
	}
	return s.GetByID(ctx, id)
}

// MarkAllRead marks every unread notification of a user as read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET read_at = $2, status = $3, updated_at = $2
		WHERE user_id = $1 AND read_at IS NULL`,
		userID, now, models.StatusRead,
	)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "mark all read", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// UpdateStatus transitions the lifecycle status of a notification.
func (s *NotificationStore) UpdateStatus(ctx context.Context, id, status string) (*models.Notification, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = $2, updated_at = $3
		WHERE id = $1`,
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "update status", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, apperrors.NotFound("notification")
	}
	return s.GetByID(ctx, id)
}

// UpdateMetadata replaces the structured metadata of a notification.
func (s *NotificationStore) UpdateMetadata(ctx context.Context, id string, metadata map[string]interface{}) (*models.Notification, error) {
	encoded, err := marshalMetadata(metadata)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "encode metadata", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET metadata = $2, updated_at = $3
		WHERE id = $1`,
		id, encoded, time.Now().UTC(),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "update metadata", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, apperrors.NotFound("notification")
	}
	return s.GetByID(ctx, id)
}

// Delete removes a notification permanently.
func (s *NotificationStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "delete notification", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var metadata []byte
	var readAt, expiresAt sql.NullTime

	err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Channel, &n.Status,
		&metadata, &n.CreatedAt, &n.UpdatedAt, &readAt, &expiresAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, err
		}
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		n.ExpiresAt = &t
	}
	return &n, nil
}

func marshalMetadata(metadata map[string]interface{}) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	return json.Marshal(metadata)
}
