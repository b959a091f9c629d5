// internal/realtime/hub.go
package realtime

import (
	"sync"

	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
)

// Message is the envelope written to live connections.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Message types
const (
	MessageTypeNotification = "notification"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Hub maintains the set of live connections per user and pushes
// serialized events to every connection a user owns. Connections are
// process-local; cross-process delivery happens through the shared
// pub/sub channel feeding each process's hub.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  log.WithFields(map[string]interface{}{"component": "realtime_hub"}),
	}
}

// Register adds a connection to its user's set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	total := h.countLocked()
	h.mu.Unlock()

	metrics.WebsocketConnections.Set(float64(total))
	h.logger.Info("client connected", map[string]interface{}{
		"userId":       c.userID,
		"totalClients": total,
	})
}

// Unregister removes a connection; the user's set is dropped when empty.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		if _, registered := set[c]; registered {
			delete(set, c)
			c.closeSend()
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
	total := h.countLocked()
	h.mu.Unlock()

	metrics.WebsocketConnections.Set(float64(total))
	h.logger.Info("client disconnected", map[string]interface{}{
		"userId":       c.userID,
		"totalClients": total,
	})
}

// BroadcastToUser delivers a message to every open connection of a user.
// Delivery is best-effort, at-most-once: a connection with a full send
// buffer is treated as gone and unregistered lazily.
func (h *Hub) BroadcastToUser(userID string, msg Message) int {
	h.mu.RLock()
	set := h.clients[userID]
	targets := make([]*Client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.trySend(msg) {
			delivered++
		} else {
			h.Unregister(c)
		}
	}
	return delivered
}

// ConnectionCount returns the number of live connections across all users.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

// UserConnectionCount returns the number of live connections for one user.
func (h *Hub) UserConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Shutdown closes every live connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	for userID, set := range h.clients {
		for c := range set {
			c.closeSend()
		}
		delete(h.clients, userID)
	}
	h.mu.Unlock()
	metrics.WebsocketConnections.Set(0)
}

func (h *Hub) countLocked() int {
	total := 0
	for _, set := range h.clients {
		total += len(set)
	}
	return total
}
