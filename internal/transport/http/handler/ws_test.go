// internal/transport/http/handler/ws_test.go
package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"
	"notification-service/internal/realtime"
)

func TestWSHandler_RequiresUserID(t *testing.T) {
	hub := realtime.NewHub(logger.NewNoOpLogger())
	h := NewWSHandler(hub, []string{"*"}, time.Minute, logger.NewNoOpLogger())

	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_id is required")
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestWSHandler_UpgradeAndBroadcast(t *testing.T) {
	hub := realtime.NewHub(logger.NewNoOpLogger())
	h := NewWSHandler(hub, []string{"*"}, time.Minute, logger.NewNoOpLogger())

	srv := httptest.NewServer(http.HandlerFunc(h.Serve))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user_id=user-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.UserConnectionCount("user-1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastToUser("user-1", realtime.Message{
		Type: realtime.MessageTypeNotification,
		Data: &models.Notification{ID: "n-1", UserID: "user-1"},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg realtime.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, realtime.MessageTypeNotification, msg.Type)
}

func TestWSHandler_OriginRejected(t *testing.T) {
	hub := realtime.NewHub(logger.NewNoOpLogger())
	h := NewWSHandler(hub, []string{"https://app.example.com"}, time.Minute, logger.NewNoOpLogger())

	srv := httptest.NewServer(http.HandlerFunc(h.Serve))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user_id=user-1"
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)

	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
