// internal/store/devices.go
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// DeviceStore persists push-capable device tokens.
type DeviceStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewDeviceStore(db *sql.DB, log logger.Logger) *DeviceStore {
	return &DeviceStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "device_store"}),
	}
}

// Register upserts a device token and reactivates it if previously disabled.
func (s *DeviceStore) Register(ctx context.Context, userID, deviceToken, deviceType string) (*models.UserDevice, error) {
	now := time.Now().UTC()
	d := &models.UserDevice{
		ID:          uuid.New().String(),
		UserID:      userID,
		DeviceToken: deviceToken,
		DeviceType:  deviceType,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_devices (id, user_id, device_token, device_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT (user_id, device_token) DO UPDATE SET
			device_type = EXCLUDED.device_type,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at`,
		d.ID, d.UserID, d.DeviceToken, d.DeviceType, now,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabaseInsertFailed, "register device", err)
	}
	return d, nil
}

// Deactivate soft-deletes a device token.
func (s *DeviceStore) Deactivate(ctx context.Context, userID, deviceToken string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_devices
		SET is_active = FALSE, updated_at = $3
		WHERE user_id = $1 AND device_token = $2`,
		userID, deviceToken, time.Now().UTC(),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "deactivate device", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NotFound("device")
	}
	return nil
}

// DeactivateAll disables every token of a user, e.g. after a forced re-auth.
func (s *DeviceStore) DeactivateAll(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_devices
		SET is_active = FALSE, updated_at = $2
		WHERE user_id = $1 AND is_active = TRUE`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "deactivate devices", err)
	}
	return nil
}

// ActiveTokens returns the active device tokens of a user.
func (s *DeviceStore) ActiveTokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_token FROM user_devices
		WHERE user_id = $1 AND is_active = TRUE`, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "list device tokens", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "scan device token", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "list device tokens", err)
	}
	return tokens, nil
}
