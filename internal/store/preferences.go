// internal/store/preferences.go
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// PreferenceStore persists per-user notification preferences.
type PreferenceStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPreferenceStore(db *sql.DB, log logger.Logger) *PreferenceStore {
	return &PreferenceStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "preference_store"}),
	}
}

const preferenceColumns = `id, user_id, email_enabled, push_enabled, sms_enabled, in_app_enabled, email_types, push_types, sms_types, quiet_hours_start, quiet_hours_end, created_at, updated_at`

// Get returns the stored row for a user, or nil when none exists.
func (s *PreferenceStore) Get(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+preferenceColumns+`
		FROM notification_preferences
		WHERE user_id = $1`, userID)

	p, err := scanPreferences(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeQueryExecutionFailed, "get preferences", err)
	}
	return p, nil
}

// Resolve returns the stored preferences, or the hardcoded defaults when
// no row exists. All-or-nothing defaulting at the row level.
func (s *PreferenceStore) Resolve(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return models.DefaultPreferences(userID), nil
	}
	return p, nil
}

// Upsert applies a partial update on top of the resolved preferences and
// writes the full row. Creates the row lazily on first write.
func (s *PreferenceStore) Upsert(ctx context.Context, userID string, update *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
	p, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyUpdate(p, update)
	p.UpdatedAt = time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
		p.CreatedAt = p.UpdatedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notification_preferences
			(id, user_id, email_enabled, push_enabled, sms_enabled, in_app_enabled, email_types, push_types, sms_types, quiet_hours_start, quiet_hours_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			in_app_enabled = EXCLUDED.in_app_enabled,
			email_types = EXCLUDED.email_types,
			push_types = EXCLUDED.push_types,
			sms_types = EXCLUDED.sms_types,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.UserID, p.EmailEnabled, p.PushEnabled, p.SMSEnabled, p.InAppEnabled,
		joinTypes(p.EmailTypes), joinTypes(p.PushTypes), joinTypes(p.SMSTypes),
		nullString(p.QuietHoursStart), nullString(p.QuietHoursEnd),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabaseInsertFailed, "upsert preferences", err)
	}
	return p, nil
}

func applyUpdate(p *models.NotificationPreferences, u *models.PreferencesUpdate) {
	if u == nil {
		return
	}
	if u.EmailEnabled != nil {
		p.EmailEnabled = *u.EmailEnabled
	}
	if u.PushEnabled != nil {
		p.PushEnabled = *u.PushEnabled
	}
	if u.SMSEnabled != nil {
		p.SMSEnabled = *u.SMSEnabled
	}
	if u.InAppEnabled != nil {
		p.InAppEnabled = *u.InAppEnabled
	}
	if u.EmailTypes != nil {
		p.EmailTypes = u.EmailTypes
	}
	if u.PushTypes != nil {
		p.PushTypes = u.PushTypes
	}
	if u.SMSTypes != nil {
		p.SMSTypes = u.SMSTypes
	}
	if u.QuietHoursStart != nil {
		p.QuietHoursStart = *u.QuietHoursStart
	}
	if u.QuietHoursEnd != nil {
		p.QuietHoursEnd = *u.QuietHoursEnd
	}
}

func scanPreferences(row rowScanner) (*models.NotificationPreferences, error) {
	var p models.NotificationPreferences
	var emailTypes, pushTypes, smsTypes string
	var quietStart, quietEnd sql.NullString

	err := row.Scan(
		&p.ID, &p.UserID, &p.EmailEnabled, &p.PushEnabled, &p.SMSEnabled, &p.InAppEnabled,
		&emailTypes, &pushTypes, &smsTypes, &quietStart, &quietEnd,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.EmailTypes = splitTypes(emailTypes)
	p.PushTypes = splitTypes(pushTypes)
	p.SMSTypes = splitTypes(smsTypes)
	p.QuietHoursStart = quietStart.String
	p.QuietHoursEnd = quietEnd.String
	return &p, nil
}

// Type allow-lists are stored comma-joined in a text column.
func joinTypes(types []string) string {
	return strings.Join(types, ",")
}

func splitTypes(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
