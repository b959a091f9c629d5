// internal/models/preferences.go
package models

import "time"

// NotificationPreferences is the per-user channel configuration.
// One row per user; created lazily on first write.
type NotificationPreferences struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	EmailEnabled    bool      `json:"email_enabled"`
	PushEnabled     bool      `json:"push_enabled"`
	SMSEnabled      bool      `json:"sms_enabled"`
	InAppEnabled    bool      `json:"in_app_enabled"`
	EmailTypes      []string  `json:"email_types"`
	PushTypes       []string  `json:"push_types"`
	SMSTypes        []string  `json:"sms_types"`
	QuietHoursStart string    `json:"quiet_hours_start,omitempty"` // "HH:MM"
	QuietHoursEnd   string    `json:"quiet_hours_end,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChannelEnabled reports whether the given channel is switched on.
func (p *NotificationPreferences) ChannelEnabled(channel string) bool {
	switch channel {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelPush:
		return p.PushEnabled
	case ChannelSMS:
		return p.SMSEnabled
	case ChannelInApp:
		return p.InAppEnabled
	default:
		return false
	}
}

// DefaultPreferences returns the assumed preferences for a user with no row.
func DefaultPreferences(userID string) *NotificationPreferences {
	now := time.Now().UTC()
	return &NotificationPreferences{
		UserID:       userID,
		EmailEnabled: true,
		PushEnabled:  true,
		SMSEnabled:   false,
		InAppEnabled: true,
		EmailTypes:   []string{TypeInfo, TypeSuccess, TypeWarning, TypeError},
		PushTypes:    []string{TypeInfo, TypeSuccess, TypeWarning, TypeError},
		SMSTypes:     []string{TypeError},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// PreferencesUpdate carries a partial preference write; nil fields keep
// their stored (or default) values.
type PreferencesUpdate struct {
	EmailEnabled    *bool    `json:"email_enabled,omitempty"`
	PushEnabled     *bool    `json:"push_enabled,omitempty"`
	SMSEnabled      *bool    `json:"sms_enabled,omitempty"`
	InAppEnabled    *bool    `json:"in_app_enabled,omitempty"`
	EmailTypes      []string `json:"email_types,omitempty"`
	PushTypes       []string `json:"push_types,omitempty"`
	SMSTypes        []string `json:"sms_types,omitempty"`
	QuietHoursStart *string  `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   *string  `json:"quiet_hours_end,omitempty"`
}

// UserDevice identifies a push-capable endpoint for a user.
type UserDevice struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DeviceToken string    `json:"device_token"`
	DeviceType  string    `json:"device_type"` // "ios", "android", "web"
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
