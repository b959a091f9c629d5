// internal/transport/http/handler/preferences_test.go
package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-service/internal/models"
)

type fakePreferenceService struct {
	GetPreferencesFunc    func(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	UpdatePreferencesFunc func(ctx context.Context, userID string, update *models.PreferencesUpdate) (*models.NotificationPreferences, error)
}

func (f *fakePreferenceService) GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	return f.GetPreferencesFunc(ctx, userID)
}

func (f *fakePreferenceService) UpdatePreferences(ctx context.Context, userID string, update *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
	return f.UpdatePreferencesFunc(ctx, userID, update)
}

func preferenceRouter(svc PreferenceService) http.Handler {
	h := NewPreferenceHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/notifications/preferences", h.Get)
	r.Post("/api/notifications/preferences", h.Update)
	return r
}

func TestPreferences_Get_Defaults(t *testing.T) {
	svc := &fakePreferenceService{
		GetPreferencesFunc: func(_ context.Context, userID string) (*models.NotificationPreferences, error) {
			return models.DefaultPreferences(userID), nil
		},
	}

	rec := doJSON(t, preferenceRouter(svc), http.MethodGet, "/api/notifications/preferences?user_id=user-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	prefs := decodeBody(t, rec)["preferences"].(map[string]interface{})
	assert.Equal(t, true, prefs["email_enabled"])
	assert.Equal(t, false, prefs["sms_enabled"])
}

func TestPreferences_Get_MissingUserID(t *testing.T) {
	rec := doJSON(t, preferenceRouter(&fakePreferenceService{}), http.MethodGet, "/api/notifications/preferences", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreferences_Update_Partial(t *testing.T) {
	var gotUpdate *models.PreferencesUpdate
	svc := &fakePreferenceService{
		UpdatePreferencesFunc: func(_ context.Context, userID string, update *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
			gotUpdate = update
			p := models.DefaultPreferences(userID)
			p.EmailEnabled = false
			return p, nil
		},
	}

	rec := doJSON(t, preferenceRouter(svc), http.MethodPost,
		"/api/notifications/preferences?user_id=user-1",
		`{"email_enabled": false, "sms_types": ["error"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUpdate.EmailEnabled)
	assert.False(t, *gotUpdate.EmailEnabled)
	assert.Equal(t, []string{"error"}, gotUpdate.SMSTypes)
	assert.Nil(t, gotUpdate.PushEnabled)
}

func TestPreferences_Update_BadQuietHours(t *testing.T) {
	svc := &fakePreferenceService{
		UpdatePreferencesFunc: func(context.Context, string, *models.PreferencesUpdate) (*models.NotificationPreferences, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, nil
		},
	}

	rec := doJSON(t, preferenceRouter(svc), http.MethodPost,
		"/api/notifications/preferences?user_id=user-1",
		`{"quiet_hours_start": "25:99"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
