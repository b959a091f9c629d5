// internal/channels/sms.go
package channels

import (
	"context"

	"notification-service/internal/models"
)

// SMSSender is a registered placeholder: the channel exists in the
// request surface but has no delivery implementation yet.
// TODO: wire SNS PhoneNumber publish once recipient numbers are stored.
type SMSSender struct{}

func NewSMSSender() *SMSSender {
	return &SMSSender{}
}

func (s *SMSSender) Channel() string {
	return models.ChannelSMS
}

// Unimplemented marks the sender as a placeholder for dispatch.
func (s *SMSSender) Unimplemented() {}

func (s *SMSSender) Send(_ context.Context, _ *models.Notification, _ Target) models.DeliveryResult {
	return failed(models.ChannelSMS, "SMS not implemented yet")
}
