// internal/transport/http/handler/preferences.go
package handler

import (
	"context"
	"net/http"

	"notification-service/internal/models"
)

// PreferenceService resolves and writes per-user preferences.
type PreferenceService interface {
	GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	UpdatePreferences(ctx context.Context, userID string, update *models.PreferencesUpdate) (*models.NotificationPreferences, error)
}

// PreferenceHandler handles /api/notifications/preferences.
type PreferenceHandler struct {
	svc PreferenceService
}

func NewPreferenceHandler(svc PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{svc: svc}
}

// Get returns the user's effective preferences; users with no stored
// row get the defaults.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	prefs, err := h.svc.GetPreferences(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"preferences": prefs})
}

// Update applies a partial preference write and returns the full
// resulting row.
func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var update models.PreferencesUpdate
	if !readValidated(w, r, preferencesSchema, &update) {
		return
	}

	prefs, err := h.svc.UpdatePreferences(r.Context(), userID, &update)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"preferences": prefs})
}
