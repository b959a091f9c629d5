// internal/channels/sender.go
package channels

import (
	"context"

	"notification-service/internal/models"
)

// Target identifies where a channel send goes for one user.
type Target struct {
	Email        string
	DeviceTokens []string
}

// Sender delivers one notification over one channel. Implementations
// never panic outward and never return a Go error: every failure is a
// DeliveryResult with Success=false.
type Sender interface {
	Channel() string
	Send(ctx context.Context, n *models.Notification, target Target) models.DeliveryResult
}

// Unimplemented marks a placeholder sender that has no delivery path.
// Dispatch surfaces its fixed failure message ahead of preference
// gating, so callers learn the channel cannot deliver at all rather
// than that it happens to be disabled.
type Unimplemented interface {
	Unimplemented()
}

// Registry maps channel identifiers to sender implementations. Adding a
// channel means registering a new Sender, not editing a switch.
type Registry struct {
	senders map[string]Sender
}

func NewRegistry(senders ...Sender) *Registry {
	r := &Registry{senders: make(map[string]Sender, len(senders))}
	for _, s := range senders {
		r.Register(s)
	}
	return r
}

// Register installs a sender, replacing any previous one for its channel.
func (r *Registry) Register(s Sender) {
	r.senders[s.Channel()] = s
}

// Get returns the sender for a channel.
func (r *Registry) Get(channel string) (Sender, bool) {
	s, ok := r.senders[channel]
	return s, ok
}

// Channels returns the registered channel identifiers.
func (r *Registry) Channels() []string {
	out := make([]string, 0, len(r.senders))
	for ch := range r.senders {
		out = append(out, ch)
	}
	return out
}

func failed(channel, errMsg string) models.DeliveryResult {
	return models.DeliveryResult{Channel: channel, Success: false, Error: errMsg}
}
