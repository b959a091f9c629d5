// internal/realtime/client.go
package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"notification-service/internal/common/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	defaultPing    = 30 * time.Second
	maxMessageSize = 4 * 1024
)

// Client is a middleman between one websocket connection and the hub.
// Each client is owned by exactly one user id.
type Client struct {
	userID string
	hub    *Hub
	conn   *websocket.Conn
	logger logger.Logger

	pingInterval time.Duration

	// mu serializes sends against close: the hub may broadcast to a
	// client that is concurrently unregistering.
	mu     sync.Mutex
	send   chan Message
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, pingInterval time.Duration, log logger.Logger) *Client {
	if pingInterval <= 0 {
		pingInterval = defaultPing
	}
	return &Client{
		userID:       userID,
		hub:          hub,
		conn:         conn,
		send:         make(chan Message, 64),
		logger:       log.WithFields(map[string]interface{}{"userId": userID}),
		pingInterval: pingInterval,
	}
}

// UserID returns the owning user id.
func (c *Client) UserID() string {
	return c.userID
}

// Start registers the client and begins its read/write pumps.
func (c *Client) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// trySend queues a message without blocking. A full buffer means the
// connection is stalled or gone; a closed client just drops the send.
func (c *Client) trySend(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend marks the client closed and releases writePump. Safe to
// call concurrently with trySend and safe to call twice.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump drains the connection and drives pong-based liveness.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", map[string]interface{}{"error": err.Error()})
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("unexpected websocket close", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		if msg.Type == MessageTypePing {
			c.trySend(Message{Type: MessageTypePong})
		}
	}
}

// writePump writes queued messages and protocol pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				// Connection already gone; readPump's unregister cleans up.
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
