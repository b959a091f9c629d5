// internal/channels/inapp.go
package channels

import (
	"context"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// StatusUpdater is the slice of the notification store the in-app
// sender uses.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id, status string) (*models.Notification, error)
}

// InAppSender treats the persisted record as the delivery medium: the
// row already exists, so delivering means marking it delivered. It
// never touches read_at; reading stays a user-initiated transition.
type InAppSender struct {
	store  StatusUpdater
	logger logger.Logger
}

func NewInAppSender(store StatusUpdater, log logger.Logger) *InAppSender {
	return &InAppSender{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"channel": models.ChannelInApp}),
	}
}

func (s *InAppSender) Channel() string {
	return models.ChannelInApp
}

func (s *InAppSender) Send(ctx context.Context, n *models.Notification, _ Target) models.DeliveryResult {
	if _, err := s.store.UpdateStatus(ctx, n.ID, models.StatusDelivered); err != nil {
		return failed(models.ChannelInApp, err.Error())
	}
	return models.DeliveryResult{Channel: models.ChannelInApp, Success: true}
}
