// internal/service/service.go
package service

import (
	"context"
	"time"

	"notification-service/internal/cache"
	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
	"notification-service/internal/models"
)

const defaultListLimit = 50

// NotificationRepo is the persistence surface the service needs.
type NotificationRepo interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Notification, error)
	UpdateMetadata(ctx context.Context, id string, metadata map[string]interface{}) (*models.Notification, error)
	Delete(ctx context.Context, id string) error
}

// PreferenceRepo resolves and writes per-user preferences.
type PreferenceRepo interface {
	Resolve(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	Upsert(ctx context.Context, userID string, update *models.PreferencesUpdate) (*models.NotificationPreferences, error)
}

// DeviceRepo manages push device tokens.
type DeviceRepo interface {
	Register(ctx context.Context, userID, deviceToken, deviceType string) (*models.UserDevice, error)
	Deactivate(ctx context.Context, userID, deviceToken string) error
}

// Dispatcher fans one notification out to its channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *models.Notification, channels []string) []models.DeliveryResult
}

// Publisher emits notification-change events.
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification) error
	PublishBulk(ctx context.Context, notifications []*models.Notification) error
}

// DeliveryIndexer records dispatched notifications for audit search.
type DeliveryIndexer interface {
	IndexDelivery(ctx context.Context, n *models.Notification, results []models.DeliveryResult)
	Search(ctx context.Context, userID, query string, size int) ([]*models.Notification, error)
}

// NotificationService implements the endpoint semantics: persist first,
// then fan out; delivery failures are embedded per-channel results and
// never fail the request once persistence succeeded.
type NotificationService struct {
	notifications NotificationRepo
	preferences   PreferenceRepo
	devices       DeviceRepo
	dispatcher    Dispatcher
	publisher     Publisher
	cache         *cache.NotificationCache
	indexer       DeliveryIndexer
	logger        logger.Logger
}

func New(
	notifications NotificationRepo,
	preferences PreferenceRepo,
	devices DeviceRepo,
	dispatcher Dispatcher,
	publisher Publisher,
	c *cache.NotificationCache,
	indexer DeliveryIndexer,
	log logger.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		preferences:   preferences,
		devices:       devices,
		dispatcher:    dispatcher,
		publisher:     publisher,
		cache:         c,
		indexer:       indexer,
		logger:        log.WithFields(map[string]interface{}{"component": "notification_service"}),
	}
}

// CreateInput is a validated create request for one user.
type CreateInput struct {
	UserID    string
	Title     string
	Message   string
	Type      string
	Channels  []string
	Metadata  map[string]interface{}
	ExpiresAt *time.Time
}

// Create persists a pending notification, dispatches it, and publishes
// the change event.
func (s *NotificationService) Create(ctx context.Context, in *CreateInput) (*models.Notification, []models.DeliveryResult, error) {
	n := &models.Notification{
		UserID:    in.UserID,
		Title:     in.Title,
		Message:   in.Message,
		Type:      in.Type,
		Channel:   in.Channels[0],
		Status:    models.StatusPending,
		Metadata:  in.Metadata,
		ExpiresAt: in.ExpiresAt,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(n.Type).Inc()

	results := s.dispatcher.Dispatch(ctx, n, in.Channels)
	s.afterWrite(ctx, n, results)

	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.Warn("event publish failed", map[string]interface{}{
			"notificationId": n.ID,
			"error":          err.Error(),
		})
	}
	return n, results, nil
}

// CreateBulk creates and dispatches one notification per user, then
// publishes the change events as one pipelined batch.
func (s *NotificationService) CreateBulk(ctx context.Context, userIDs []string, in *CreateInput) ([]*models.Notification, [][]models.DeliveryResult, error) {
	notifications := make([]*models.Notification, 0, len(userIDs))
	allResults := make([][]models.DeliveryResult, 0, len(userIDs))

	for _, userID := range userIDs {
		n := &models.Notification{
			UserID:    userID,
			Title:     in.Title,
			Message:   in.Message,
			Type:      in.Type,
			Channel:   in.Channels[0],
			Status:    models.StatusPending,
			Metadata:  in.Metadata,
			ExpiresAt: in.ExpiresAt,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			return nil, nil, err
		}
		metrics.NotificationsCreated.WithLabelValues(n.Type).Inc()

		results := s.dispatcher.Dispatch(ctx, n, in.Channels)
		s.afterWrite(ctx, n, results)

		notifications = append(notifications, n)
		allResults = append(allResults, results)
	}

	if err := s.publisher.PublishBulk(ctx, notifications); err != nil {
		s.logger.Warn("bulk event publish failed", map[string]interface{}{
			"count": len(notifications),
			"error": err.Error(),
		})
	}
	return notifications, allResults, nil
}

// List returns a user's notifications. The cached list serves only the
// default view; filtered or paginated reads always hit the store.
func (s *NotificationService) List(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*models.Notification, error) {
	defaultView := (limit == 0 || limit == defaultListLimit) && offset == 0 && !unreadOnly
	if defaultView {
		if cached := s.cache.GetUserNotifications(ctx, userID); cached != nil {
			return cached, nil
		}
	}

	notifications, err := s.notifications.ListByUser(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		return nil, err
	}
	if defaultView {
		s.cache.CacheUserNotifications(ctx, userID, notifications)
	}
	return notifications, nil
}

// Get is the read-through lookup: cache first, then store, then
// repopulate with the long TTL.
func (s *NotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	if cached := s.cache.GetNotification(ctx, id); cached != nil {
		return cached, nil
	}
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.CacheNotification(ctx, n)
	return n, nil
}

// UpdateInput is a validated partial update.
type UpdateInput struct {
	Read     *bool
	Status   *string
	Metadata map[string]interface{}
}

// Update applies a partial update. Marking read is first-write-wins:
// an already-read notification keeps its original read_at and the call
// still succeeds.
func (s *NotificationService) Update(ctx context.Context, id string, in *UpdateInput) (*models.Notification, error) {
	var n *models.Notification
	var err error

	switch {
	case in.Read != nil && *in.Read:
		n, err = s.notifications.MarkRead(ctx, id)
	case in.Status != nil:
		n, err = s.notifications.UpdateStatus(ctx, id, *in.Status)
	case in.Metadata != nil:
		n, err = s.notifications.UpdateMetadata(ctx, id, in.Metadata)
	default:
		n, err = s.notifications.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateNotification(ctx, id)
	s.cache.InvalidateUser(ctx, n.UserID)

	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.Warn("event publish failed", map[string]interface{}{
			"notificationId": n.ID,
			"error":          err.Error(),
		})
	}
	return n, nil
}

// Delete removes a notification permanently.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateNotification(ctx, id)
	s.cache.InvalidateUser(ctx, n.UserID)
	return nil
}

// UnreadCount returns the user's unread counter, cache-first.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if cached := s.cache.GetUnreadCount(ctx, userID); cached >= 0 {
		return cached, nil
	}
	count, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.CacheUnreadCount(ctx, userID, count)
	return count, nil
}

// MarkAllRead marks every unread notification of a user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	affected, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.InvalidateUser(ctx, userID)
	return affected, nil
}

// GetPreferences returns stored preferences or the defaults.
func (s *NotificationService) GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	return s.preferences.Resolve(ctx, userID)
}

// UpdatePreferences applies a partial preference write.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, update *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
	return s.preferences.Upsert(ctx, userID, update)
}

// RegisterDevice upserts a push device token.
func (s *NotificationService) RegisterDevice(ctx context.Context, userID, token, deviceType string) (*models.UserDevice, error) {
	return s.devices.Register(ctx, userID, token, deviceType)
}

// DeactivateDevice soft-deletes a push device token.
func (s *NotificationService) DeactivateDevice(ctx context.Context, userID, token string) error {
	return s.devices.Deactivate(ctx, userID, token)
}

// Search queries the delivery audit index.
func (s *NotificationService) Search(ctx context.Context, userID, query string, size int) ([]*models.Notification, error) {
	if s.indexer == nil {
		return nil, apperrors.New(apperrors.ErrCodeSearchQueryFailed, "search index not configured")
	}
	return s.indexer.Search(ctx, userID, query, size)
}

// afterWrite invalidates a user's aggregate caches and records the
// dispatch in the audit index.
func (s *NotificationService) afterWrite(ctx context.Context, n *models.Notification, results []models.DeliveryResult) {
	s.cache.InvalidateUser(ctx, n.UserID)
	if s.indexer != nil {
		s.indexer.IndexDelivery(ctx, n, results)
	}
}
