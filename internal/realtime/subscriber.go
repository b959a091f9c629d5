// internal/realtime/subscriber.go
package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// Subscriber bridges the shared pub/sub channel into the process-local
// hub. Any process holding a live connection for a user receives and
// delivers the event, regardless of which process published it.
type Subscriber struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  logger.Logger

	pubsub *redis.PubSub
}

func NewSubscriber(client *redis.Client, channel string, hub *Hub, log logger.Logger) *Subscriber {
	return &Subscriber{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  log.WithFields(map[string]interface{}{"component": "realtime_subscriber"}),
	}
}

// Start subscribes and consumes events until the context is canceled.
// It blocks; run it in its own goroutine.
func (s *Subscriber) Start(ctx context.Context) error {
	s.pubsub = s.client.Subscribe(ctx, s.channel)

	// Force the subscription to be established before consuming.
	if _, err := s.pubsub.Receive(ctx); err != nil {
		return err
	}

	s.logger.Info("subscribed to notification events", map[string]interface{}{
		"channel": s.channel,
	})

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handleMessage(msg.Payload)
		}
	}
}

// Close tears down the subscription.
func (s *Subscriber) Close() error {
	if s.pubsub == nil {
		return nil
	}
	return s.pubsub.Close()
}

func (s *Subscriber) handleMessage(payload string) {
	var n models.Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		s.logger.Warn("dropping malformed event", map[string]interface{}{"error": err.Error()})
		return
	}
	if n.UserID == "" {
		s.logger.Warn("dropping event without user id", nil)
		return
	}

	delivered := s.hub.BroadcastToUser(n.UserID, Message{
		Type: MessageTypeNotification,
		Data: &n,
	})
	s.logger.Debug("event delivered", map[string]interface{}{
		"userId":      n.UserID,
		"connections": delivered,
	})
}
