// internal/service/service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-service/internal/cache"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

type fakeNotificationRepo struct {
	creates    []*models.Notification
	getCalls   int
	listCalls  int
	notifs     map[string]*models.Notification
	markedRead []string
}

func newFakeRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifs: make(map[string]*models.Notification)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	n.ID = "n-" + n.UserID
	n.CreatedAt = time.Now().UTC()
	f.creates = append(f.creates, n)
	f.notifs[n.ID] = n
	return nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id string) (*models.Notification, error) {
	f.getCalls++
	return f.notifs[id], nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID string, _, _ int, _ bool) ([]*models.Notification, error) {
	f.listCalls++
	var out []*models.Notification
	for _, n := range f.notifs {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	if out == nil {
		out = []*models.Notification{}
	}
	return out, nil
}

func (f *fakeNotificationRepo) UnreadCount(context.Context, string) (int, error) { return 4, nil }

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id string) (*models.Notification, error) {
	f.markedRead = append(f.markedRead, id)
	n := f.notifs[id]
	now := time.Now().UTC()
	n.ReadAt = &now
	n.Status = models.StatusRead
	return n, nil
}

func (f *fakeNotificationRepo) MarkAllRead(context.Context, string) (int64, error) { return 2, nil }

func (f *fakeNotificationRepo) UpdateStatus(_ context.Context, id, status string) (*models.Notification, error) {
	n := f.notifs[id]
	n.Status = status
	return n, nil
}

func (f *fakeNotificationRepo) UpdateMetadata(_ context.Context, id string, metadata map[string]interface{}) (*models.Notification, error) {
	n := f.notifs[id]
	n.Metadata = metadata
	return n, nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, id string) error {
	delete(f.notifs, id)
	return nil
}

type fakeDispatcher struct {
	calls   [][]string
	results []models.DeliveryResult
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ *models.Notification, channels []string) []models.DeliveryResult {
	f.calls = append(f.calls, channels)
	return f.results
}

type fakePublisher struct {
	published []*models.Notification
	bulk      [][]*models.Notification
}

func (f *fakePublisher) Publish(_ context.Context, n *models.Notification) error {
	f.published = append(f.published, n)
	return nil
}

func (f *fakePublisher) PublishBulk(_ context.Context, ns []*models.Notification) error {
	f.bulk = append(f.bulk, ns)
	return nil
}

type fakeIndexer struct {
	indexed []*models.Notification
}

func (f *fakeIndexer) IndexDelivery(_ context.Context, n *models.Notification, _ []models.DeliveryResult) {
	f.indexed = append(f.indexed, n)
}

func (f *fakeIndexer) Search(context.Context, string, string, int) ([]*models.Notification, error) {
	return nil, nil
}

type fixture struct {
	svc        *NotificationService
	repo       *fakeNotificationRepo
	dispatcher *fakeDispatcher
	publisher  *fakePublisher
	indexer    *fakeIndexer
	cache      *cache.NotificationCache
	redis      *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &fixture{
		repo: newFakeRepo(),
		dispatcher: &fakeDispatcher{results: []models.DeliveryResult{
			{Channel: models.ChannelInApp, Success: true},
		}},
		publisher: &fakePublisher{},
		indexer:   &fakeIndexer{},
		cache:     cache.New(client, logger.NewNoOpLogger()),
		redis:     mr,
	}
	f.svc = New(f.repo, nil, nil, f.dispatcher, f.publisher, f.cache, f.indexer, logger.NewNoOpLogger())
	return f
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Pre-warm the aggregate caches so invalidation is observable.
	f.cache.CacheUserNotifications(ctx, "user-1", []*models.Notification{})
	f.cache.CacheUnreadCount(ctx, "user-1", 0)

	n, results, err := f.svc.Create(ctx, &CreateInput{
		UserID:   "user-1",
		Title:    "Build finished",
		Message:  "main is green",
		Type:     models.TypeSuccess,
		Channels: []string{models.ChannelInApp, models.ChannelEmail},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, models.StatusPending, f.repo.creates[0].Status)
	require.Len(t, results, 1)

	// Dispatch got the requested channels in order.
	require.Len(t, f.dispatcher.calls, 1)
	assert.Equal(t, []string{models.ChannelInApp, models.ChannelEmail}, f.dispatcher.calls[0])

	// The change event went out and the audit record was written.
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, n.ID, f.publisher.published[0].ID)
	assert.Len(t, f.indexer.indexed, 1)

	// Aggregate caches for the user were invalidated.
	assert.False(t, f.redis.Exists("user_notifications:user-1"))
	assert.False(t, f.redis.Exists("unread_count:user-1"))
}

func TestService_CreateBulk(t *testing.T) {
	f := newFixture(t)

	notifications, results, err := f.svc.CreateBulk(context.Background(),
		[]string{"user-1", "user-2", "user-3"},
		&CreateInput{
			Title:    "Maintenance tonight",
			Message:  "Expect downtime",
			Type:     models.TypeWarning,
			Channels: []string{models.ChannelInApp},
		})

	require.NoError(t, err)
	require.Len(t, notifications, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "user-2", notifications[1].UserID)

	// One pipelined publish for the whole batch.
	require.Len(t, f.publisher.bulk, 1)
	assert.Len(t, f.publisher.bulk[0], 3)
	assert.Empty(t, f.publisher.published)
}

func TestService_Get_ReadThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n := &models.Notification{ID: "n-1", UserID: "user-1", Title: "hello"}
	f.repo.notifs["n-1"] = n

	got, err := f.svc.Get(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, "n-1", got.ID)
	assert.Equal(t, 1, f.repo.getCalls)

	// Second read is served from the cache.
	got, err = f.svc.Get(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, "n-1", got.ID)
	assert.Equal(t, 1, f.repo.getCalls)
}

func TestService_List_DefaultViewCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.notifs["n-1"] = &models.Notification{ID: "n-1", UserID: "user-1"}

	_, err := f.svc.List(ctx, "user-1", 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.listCalls)

	_, err = f.svc.List(ctx, "user-1", 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.listCalls)

	// Filtered reads bypass the cache.
	_, err = f.svc.List(ctx, "user-1", 0, 0, true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.listCalls)
}

func TestService_UnreadCount_CacheFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	count, err := f.svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	// The store value is now cached, including when it is zero later.
	assert.True(t, f.redis.Exists("unread_count:user-1"))

	f.cache.CacheUnreadCount(ctx, "user-2", 0)
	count, err = f.svc.UnreadCount(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestService_Update_MarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.notifs["n-1"] = &models.Notification{ID: "n-1", UserID: "user-1"}
	f.cache.CacheNotification(ctx, f.repo.notifs["n-1"])

	read := true
	n, err := f.svc.Update(ctx, "n-1", &UpdateInput{Read: &read})

	require.NoError(t, err)
	assert.True(t, n.IsRead())
	assert.Equal(t, []string{"n-1"}, f.repo.markedRead)
	require.Len(t, f.publisher.published, 1)
	assert.False(t, f.redis.Exists("notification:n-1"))
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.notifs["n-1"] = &models.Notification{ID: "n-1", UserID: "user-1"}
	f.cache.CacheNotification(ctx, f.repo.notifs["n-1"])

	require.NoError(t, f.svc.Delete(ctx, "n-1"))
	assert.NotContains(t, f.repo.notifs, "n-1")
	assert.False(t, f.redis.Exists("notification:n-1"))
}

func TestService_Search_NotConfigured(t *testing.T) {
	f := newFixture(t)
	f.svc = New(f.repo, nil, nil, f.dispatcher, f.publisher, f.cache, nil, logger.NewNoOpLogger())

	_, err := f.svc.Search(context.Background(), "user-1", "invoice", 10)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search index not configured")
}
