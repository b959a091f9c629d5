// internal/transport/http/handler/notifications_test.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/models"
	"notification-service/internal/service"
)

type fakeNotificationService struct {
	CreateFunc      func(ctx context.Context, in *service.CreateInput) (*models.Notification, []models.DeliveryResult, error)
	CreateBulkFunc  func(ctx context.Context, userIDs []string, in *service.CreateInput) ([]*models.Notification, [][]models.DeliveryResult, error)
	ListFunc        func(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*models.Notification, error)
	GetFunc         func(ctx context.Context, id string) (*models.Notification, error)
	UpdateFunc      func(ctx context.Context, id string, in *service.UpdateInput) (*models.Notification, error)
	DeleteFunc      func(ctx context.Context, id string) error
	UnreadCountFunc func(ctx context.Context, userID string) (int, error)
	MarkAllReadFunc func(ctx context.Context, userID string) (int64, error)
	SearchFunc      func(ctx context.Context, userID, query string, size int) ([]*models.Notification, error)
}

func (f *fakeNotificationService) Create(ctx context.Context, in *service.CreateInput) (*models.Notification, []models.DeliveryResult, error) {
	return f.CreateFunc(ctx, in)
}

func (f *fakeNotificationService) CreateBulk(ctx context.Context, userIDs []string, in *service.CreateInput) ([]*models.Notification, [][]models.DeliveryResult, error) {
	return f.CreateBulkFunc(ctx, userIDs, in)
}

func (f *fakeNotificationService) List(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*models.Notification, error) {
	return f.ListFunc(ctx, userID, limit, offset, unreadOnly)
}

func (f *fakeNotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	return f.GetFunc(ctx, id)
}

func (f *fakeNotificationService) Update(ctx context.Context, id string, in *service.UpdateInput) (*models.Notification, error) {
	return f.UpdateFunc(ctx, id, in)
}

func (f *fakeNotificationService) Delete(ctx context.Context, id string) error {
	return f.DeleteFunc(ctx, id)
}

func (f *fakeNotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return f.UnreadCountFunc(ctx, userID)
}

func (f *fakeNotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return f.MarkAllReadFunc(ctx, userID)
}

func (f *fakeNotificationService) Search(ctx context.Context, userID, query string, size int) ([]*models.Notification, error) {
	return f.SearchFunc(ctx, userID, query, size)
}

func notificationRouter(svc NotificationService) http.Handler {
	h := NewNotificationHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/unread-count", h.UnreadCount)
		r.Post("/mark-all-read", h.MarkAllRead)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const validUUID = "9b2e72e1-5b2f-4b7e-9f65-0f6a93b4f001"

func TestCreate_Single_PartialDelivery(t *testing.T) {
	svc := &fakeNotificationService{
		CreateFunc: func(_ context.Context, in *service.CreateInput) (*models.Notification, []models.DeliveryResult, error) {
			return &models.Notification{ID: "n-1", UserID: in.UserID, Title: in.Title},
				[]models.DeliveryResult{
					{Channel: models.ChannelInApp, Success: true},
					{Channel: models.ChannelPush, Success: false, Error: "No device tokens found"},
				}, nil
		},
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodPost, "/api/notifications", `{
		"user_id": "`+validUUID+`",
		"title": "Build finished",
		"message": "main is green",
		"type": "success",
		"channels": ["in_app", "push"]
	}`)

	// Partial delivery failure still answers 200 with per-channel results.
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	results := body["delivery_results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	second := results[1].(map[string]interface{})
	assert.Equal(t, true, first["success"])
	assert.Equal(t, false, second["success"])
	assert.Equal(t, "No device tokens found", second["error"])
}

func TestCreate_Bulk(t *testing.T) {
	svc := &fakeNotificationService{
		CreateBulkFunc: func(_ context.Context, userIDs []string, in *service.CreateInput) ([]*models.Notification, [][]models.DeliveryResult, error) {
			notifications := make([]*models.Notification, len(userIDs))
			results := make([][]models.DeliveryResult, len(userIDs))
			for i, id := range userIDs {
				notifications[i] = &models.Notification{ID: "n-" + id, UserID: id, Title: in.Title}
				results[i] = []models.DeliveryResult{{Channel: models.ChannelInApp, Success: true}}
			}
			return notifications, results, nil
		},
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodPost, "/api/notifications", `{
		"user_ids": ["`+validUUID+`", "7c9e6679-7425-40de-944b-e07fc1f90ae7"],
		"title": "Maintenance tonight",
		"message": "Expect downtime",
		"type": "warning",
		"channels": ["in_app"]
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["notifications"].([]interface{}), 2)
	assert.Len(t, body["delivery_results"].([]interface{}), 2)
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc := &fakeNotificationService{
		CreateFunc: func(context.Context, *service.CreateInput) (*models.Notification, []models.DeliveryResult, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, nil, nil
		},
	}
	router := notificationRouter(svc)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"user_id":"` + validUUID + `","message":"m","type":"info","channels":["in_app"]}`},
		{"title too long", `{"user_id":"` + validUUID + `","title":"` + strings.Repeat("a", 256) + `","message":"m","type":"info","channels":["in_app"]}`},
		{"bad type", `{"user_id":"` + validUUID + `","title":"t","message":"m","type":"shout","channels":["in_app"]}`},
		{"bad channel", `{"user_id":"` + validUUID + `","title":"t","message":"m","type":"info","channels":["pigeon"]}`},
		{"empty channels", `{"user_id":"` + validUUID + `","title":"t","message":"m","type":"info","channels":[]}`},
		{"bad uuid", `{"user_id":"not-a-uuid","title":"t","message":"m","type":"info","channels":["in_app"]}`},
		{"no recipient", `{"title":"t","message":"m","type":"info","channels":["in_app"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/notifications", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeBody(t, rec)
			assert.Equal(t, "Validation failed", body["error"])
			assert.NotEmpty(t, body["details"])
		})
	}
}

func TestList(t *testing.T) {
	svc := &fakeNotificationService{
		ListFunc: func(_ context.Context, userID string, limit, offset int, unreadOnly bool) ([]*models.Notification, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, 10, limit)
			assert.Equal(t, 5, offset)
			assert.True(t, unreadOnly)
			return []*models.Notification{{ID: "n-1", UserID: userID}}, nil
		},
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodGet,
		"/api/notifications?user_id=user-1&limit=10&offset=5&unread_only=true", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["notifications"].([]interface{}), 1)
}

func TestList_MissingUserID(t *testing.T) {
	rec := doJSON(t, notificationRouter(&fakeNotificationService{}), http.MethodGet, "/api/notifications", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_id is required")
}

func TestGet_NotFound(t *testing.T) {
	svc := &fakeNotificationService{
		GetFunc: func(context.Context, string) (*models.Notification, error) {
			return nil, apperrors.NotFound("notification")
		},
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodGet, "/api/notifications/n-404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdate_MarkRead(t *testing.T) {
	var gotIn *service.UpdateInput
	svc := &fakeNotificationService{
		UpdateFunc: func(_ context.Context, id string, in *service.UpdateInput) (*models.Notification, error) {
			gotIn = in
			return &models.Notification{ID: id, Status: models.StatusRead}, nil
		},
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodPut, "/api/notifications/n-1", `{"read": true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotIn.Read)
	assert.True(t, *gotIn.Read)
}

func TestUpdate_RejectsUnknownFields(t *testing.T) {
	svc := &fakeNotificationService{
		UpdateFunc: func(context.Context, string, *service.UpdateInput) (*models.Notification, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, nil
		},
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodPut, "/api/notifications/n-1", `{"title": "sneaky rename"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete(t *testing.T) {
	svc := &fakeNotificationService{
		DeleteFunc: func(_ context.Context, id string) error {
			assert.Equal(t, "n-1", id)
			return nil
		},
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodDelete, "/api/notifications/n-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notification deleted")
}

func TestUnreadCount(t *testing.T) {
	svc := &fakeNotificationService{
		UnreadCountFunc: func(context.Context, string) (int, error) { return 9, nil },
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodGet, "/api/notifications/unread-count?user_id=user-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(9), decodeBody(t, rec)["unread_count"])
}

func TestMarkAllRead(t *testing.T) {
	svc := &fakeNotificationService{
		MarkAllReadFunc: func(context.Context, string) (int64, error) { return 5, nil },
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodPost, "/api/notifications/mark-all-read?user_id=user-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), decodeBody(t, rec)["updated"])
}

func TestSearch(t *testing.T) {
	svc := &fakeNotificationService{
		SearchFunc: func(_ context.Context, userID, query string, size int) ([]*models.Notification, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, "invoice", query)
			return []*models.Notification{{ID: "n-1"}}, nil
		},
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodGet, "/api/notifications/search?user_id=user-1&q=invoice", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["notifications"].([]interface{}), 1)
}

func TestSearch_MissingParams(t *testing.T) {
	rec := doJSON(t, notificationRouter(&fakeNotificationService{}), http.MethodGet, "/api/notifications/search?user_id=user-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInternalErrorIsGeneric(t *testing.T) {
	svc := &fakeNotificationService{
		GetFunc: func(context.Context, string) (*models.Notification, error) {
			return nil, apperrors.New(apperrors.ErrCodeQueryExecutionFailed, "SELECT blew up on host db-7")
		},
	}

	rec := doJSON(t, notificationRouter(svc), http.MethodGet, "/api/notifications/n-1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.NotContains(t, rec.Body.String(), "db-7")
}
