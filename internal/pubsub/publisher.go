// internal/pubsub/publisher.go
package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
	"notification-service/internal/models"
)

// DefaultChannel is the shared channel carrying notification-change events.
const DefaultChannel = "notifications"

// Publisher emits notification-change events to a shared Redis channel.
// Subscribers may live in a different process; nothing here assumes
// shared memory with them.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  logger.Logger
}

func NewPublisher(client *redis.Client, channel string, log logger.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  log.WithFields(map[string]interface{}{"component": "publisher"}),
	}
}

// Publish serializes one notification event and publishes it.
func (p *Publisher) Publish(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodePublishFailed, "encode event", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodePublishFailed, "publish event", err)
	}
	metrics.EventsPublished.Inc()
	return nil
}

// PublishBulk pipelines multiple publishes as one batch.
func (p *Publisher) PublishBulk(ctx context.Context, notifications []*models.Notification) error {
	pipe := p.client.Pipeline()
	for _, n := range notifications {
		payload, err := json.Marshal(n)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodePublishFailed, "encode event", err)
		}
		pipe.Publish(ctx, p.channel, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrCodePublishFailed, "publish bulk", err)
	}
	metrics.EventsPublished.Add(float64(len(notifications)))
	return nil
}

// Channel returns the channel name events are published on.
func (p *Publisher) Channel() string {
	return p.channel
}
