// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
	"notification-service/internal/models"
)

// Cache key prefixes and TTLs. The aggregate views are deliberately
// short-lived: cheap to recompute, low staleness tolerance.
const (
	notificationPrefix = "notification:"
	userPrefix         = "user_notifications:"
	unreadPrefix       = "unread_count:"

	NotificationTTL = time.Hour
	UserListTTL     = 5 * time.Minute
	UnreadCountTTL  = time.Minute
)

// NotificationCache caches notification lookups in Redis. Every failure
// degrades: a read error counts as a miss, a write error is logged and
// swallowed, never failing the enclosing request.
type NotificationCache struct {
	client *redis.Client
	logger logger.Logger
}

func New(client *redis.Client, log logger.Logger) *NotificationCache {
	return &NotificationCache{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "notification_cache"}),
	}
}

// CacheNotification stores a single notification under notification:<id>.
func (c *NotificationCache) CacheNotification(ctx context.Context, n *models.Notification) {
	c.setJSON(ctx, notificationPrefix+n.ID, "notification", n, NotificationTTL)
}

// GetNotification returns the cached notification or nil on miss.
func (c *NotificationCache) GetNotification(ctx context.Context, id string) *models.Notification {
	var n models.Notification
	if !c.getJSON(ctx, notificationPrefix+id, "notification", &n) {
		return nil
	}
	return &n
}

// CacheUserNotifications stores a user's notification list.
func (c *NotificationCache) CacheUserNotifications(ctx context.Context, userID string, notifications []*models.Notification) {
	c.setJSON(ctx, userPrefix+userID, "user_list", notifications, UserListTTL)
}

// GetUserNotifications returns the cached list or nil on miss.
func (c *NotificationCache) GetUserNotifications(ctx context.Context, userID string) []*models.Notification {
	var notifications []*models.Notification
	if !c.getJSON(ctx, userPrefix+userID, "user_list", &notifications) {
		return nil
	}
	return notifications
}

// CacheUnreadCount stores a user's unread counter.
func (c *NotificationCache) CacheUnreadCount(ctx context.Context, userID string, count int) {
	err := c.client.Set(ctx, unreadPrefix+userID, strconv.Itoa(count), UnreadCountTTL).Err()
	if err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   unreadPrefix + userID,
			"error": err.Error(),
		})
	}
}

// GetUnreadCount returns the cached counter, or -1 on miss.
func (c *NotificationCache) GetUnreadCount(ctx context.Context, userID string) int {
	val, err := c.client.Get(ctx, unreadPrefix+userID).Result()
	if err != nil {
		outcome := "miss"
		if err != redis.Nil {
			outcome = "error"
			c.logger.Warn("cache read failed", map[string]interface{}{
				"key":   unreadPrefix + userID,
				"error": err.Error(),
			})
		}
		metrics.CacheOperations.WithLabelValues("unread_count", outcome).Inc()
		return -1
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		metrics.CacheOperations.WithLabelValues("unread_count", "error").Inc()
		return -1
	}
	metrics.CacheOperations.WithLabelValues("unread_count", "hit").Inc()
	return count
}

// InvalidateNotification drops the single-notification entry.
func (c *NotificationCache) InvalidateNotification(ctx context.Context, id string) {
	c.invalidate(ctx, notificationPrefix+id)
}

// InvalidateUser drops a user's list and unread-count entries.
func (c *NotificationCache) InvalidateUser(ctx context.Context, userID string) {
	c.invalidate(ctx, userPrefix+userID, unreadPrefix+userID)
}

func (c *NotificationCache) setJSON(ctx context.Context, key, kind string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (c *NotificationCache) getJSON(ctx context.Context, key, kind string, out interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		outcome := "miss"
		if err != redis.Nil {
			outcome = "error"
			c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		metrics.CacheOperations.WithLabelValues(kind, outcome).Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		metrics.CacheOperations.WithLabelValues(kind, "error").Inc()
		return false
	}
	metrics.CacheOperations.WithLabelValues(kind, "hit").Inc()
	return true
}

func (c *NotificationCache) invalidate(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}
