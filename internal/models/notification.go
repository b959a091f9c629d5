// internal/models/notification.go
package models

import "time"

// Notification types
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
	TypeConfirm = "confirm"
)

// Channels
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelSMS   = "sms"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusRead      = "read"
)

// NotificationTypes lists every valid notification type.
var NotificationTypes = []string{TypeInfo, TypeSuccess, TypeWarning, TypeError, TypeConfirm}

// Channels lists every valid delivery channel.
var Channels = []string{ChannelInApp, ChannelEmail, ChannelPush, ChannelSMS}

type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type"`
	Channel   string                 `json:"channel"` // primary channel, first of the requested list
	Status    string                 `json:"status"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	ExpiresAt *time.Time             `json:"expires_at,omitempty"`
}

// IsRead reports whether the notification has ever been read.
// read_at transitions unset to set at most once.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// DeliveryResult is the per-channel outcome of one dispatch.
type DeliveryResult struct {
	Channel      string               `json:"channel"`
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`
	MessageID    string               `json:"message_id,omitempty"`
	SuccessCount int                  `json:"success_count,omitempty"`
	FailureCount int                  `json:"failure_count,omitempty"`
	Responses    []PushTokenResponse  `json:"responses,omitempty"`
}

// PushTokenResponse is the per-device outcome of one push multicast.
type PushTokenResponse struct {
	Token   string `json:"token"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
