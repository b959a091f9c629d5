// internal/transport/http/handler/notifications.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"notification-service/internal/models"
	"notification-service/internal/service"
)

// NotificationService is the application surface the notification
// endpoints use.
type NotificationService interface {
	Create(ctx context.Context, in *service.CreateInput) (*models.Notification, []models.DeliveryResult, error)
	CreateBulk(ctx context.Context, userIDs []string, in *service.CreateInput) ([]*models.Notification, [][]models.DeliveryResult, error)
	List(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*models.Notification, error)
	Get(ctx context.Context, id string) (*models.Notification, error)
	Update(ctx context.Context, id string, in *service.UpdateInput) (*models.Notification, error)
	Delete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Search(ctx context.Context, userID, query string, size int) ([]*models.Notification, error)
}

// NotificationHandler handles the /api/notifications endpoints.
type NotificationHandler struct {
	svc NotificationService
}

func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type createNotificationRequest struct {
	UserID    string                 `json:"user_id"`
	UserIDs   []string               `json:"user_ids"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type"`
	Channels  []string               `json:"channels"`
	Metadata  map[string]interface{} `json:"metadata"`
	ExpiresAt *time.Time             `json:"expires_at"`
}

// List returns a user's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	notifications, err := h.svc.List(r.Context(), userID, limit, offset, unreadOnly)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

// Create accepts a single-recipient (user_id) or bulk (user_ids)
// create. Delivery failures ride along as per-channel results; the
// request itself succeeds once the record is persisted.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if !readValidated(w, r, createNotificationSchema, &req) {
		return
	}

	in := &service.CreateInput{
		Title:     req.Title,
		Message:   req.Message,
		Type:      req.Type,
		Channels:  req.Channels,
		Metadata:  req.Metadata,
		ExpiresAt: req.ExpiresAt,
	}

	if len(req.UserIDs) > 0 {
		notifications, results, err := h.svc.CreateBulk(r.Context(), req.UserIDs, in)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"notifications":    notifications,
			"delivery_results": results,
		})
		return
	}

	in.UserID = req.UserID
	n, results, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notification":     n,
		"delivery_results": results,
	})
}

// Get returns one notification by id.
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notification": n})
}

type updateNotificationRequest struct {
	Read     *bool                  `json:"read"`
	Status   *string                `json:"status"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Update applies a partial update: read flag, status, or metadata.
func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateNotificationRequest
	if !readValidated(w, r, updateNotificationSchema, &req) {
		return
	}

	n, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), &service.UpdateInput{
		Read:     req.Read,
		Status:   req.Status,
		Metadata: req.Metadata,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notification": n})
}

// Delete removes a notification permanently.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "notification deleted"})
}

// UnreadCount returns the user's unread counter.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	count, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"unread_count": count})
}

// MarkAllRead marks every unread notification of a user as read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	updated, err := h.svc.MarkAllRead(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"updated": updated})
}

// Search runs a full-text query over the delivery audit index.
func (h *NotificationHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	query := r.URL.Query().Get("q")
	if userID == "" || query == "" {
		writeError(w, http.StatusBadRequest, "user_id and q are required")
		return
	}

	notifications, err := h.svc.Search(r.Context(), userID, query, queryInt(r, "size", 20))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}
