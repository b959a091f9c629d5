// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"time"

	"notification-service/internal/channels"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
	"notification-service/internal/common/observability"
	"notification-service/internal/models"
)

// PreferenceResolver returns a user's effective preferences.
type PreferenceResolver interface {
	Resolve(ctx context.Context, userID string) (*models.NotificationPreferences, error)
}

// TokenSource returns a user's active device tokens.
type TokenSource interface {
	ActiveTokens(ctx context.Context, userID string) ([]string, error)
}

// EmailResolver returns the recipient address for a user.
type EmailResolver func(userID string) string

// DefaultEmailResolver derives a platform address from the user id. The
// user directory lives in another service; this mirrors its convention.
func DefaultEmailResolver(userID string) string {
	return fmt.Sprintf("user-%s@example.com", userID)
}

// Dispatcher fans a persisted notification out to its requested
// channels. Channel sends are invoked in the caller-supplied order and
// each is independently guarded: one failure never aborts siblings, and
// the result slice always has one entry per requested channel.
type Dispatcher struct {
	registry    *channels.Registry
	preferences PreferenceResolver
	devices     TokenSource
	emailFor    EmailResolver
	obs         *observability.Observability
	logger      logger.Logger
	sendTimeout time.Duration
}

type Option func(*Dispatcher)

// WithSendTimeout bounds each channel send; a timeout is reported as a
// normal failed result, never an error.
func WithSendTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.sendTimeout = d }
}

// WithEmailResolver overrides how recipient addresses are derived.
func WithEmailResolver(r EmailResolver) Option {
	return func(dp *Dispatcher) { dp.emailFor = r }
}

func New(registry *channels.Registry, prefs PreferenceResolver, devices TokenSource, obs *observability.Observability, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		preferences: prefs,
		devices:     devices,
		emailFor:    DefaultEmailResolver,
		obs:         obs,
		logger:      log.WithFields(map[string]interface{}{"component": "dispatcher"}),
		sendTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers one notification over the given channels. The
// returned slice preserves the input channel order.
func (d *Dispatcher) Dispatch(ctx context.Context, n *models.Notification, requested []string) []models.DeliveryResult {
	started := time.Now()

	prefs, err := d.preferences.Resolve(ctx, n.UserID)
	if err != nil {
		// Preference store trouble must not block delivery; fall back
		// to the defaults a missing row would get.
		d.logger.Warn("preference resolution failed, using defaults", map[string]interface{}{
			"userId": n.UserID,
			"error":  err.Error(),
		})
		prefs = models.DefaultPreferences(n.UserID)
	}

	results := make([]models.DeliveryResult, 0, len(requested))
	allOK := true
	for _, channel := range requested {
		result := d.sendOne(ctx, n, channel, prefs)
		results = append(results, result)

		outcome := "success"
		if !result.Success {
			outcome = "failure"
			allOK = false
		}
		metrics.DeliveryAttempts.WithLabelValues(channel, outcome).Inc()
	}

	status := "partial"
	if allOK {
		status = "success"
	}
	if d.obs != nil {
		d.obs.RecordDispatch(ctx, status, time.Since(started))
	}

	d.logger.Info("dispatch complete", map[string]interface{}{
		"notificationId": n.ID,
		"channels":       requested,
		"status":         status,
	})
	return results
}

func (d *Dispatcher) sendOne(ctx context.Context, n *models.Notification, channel string, prefs *models.NotificationPreferences) (result models.DeliveryResult) {
	timer := time.Now()
	defer func() {
		metrics.DeliveryDuration.WithLabelValues(channel).Observe(time.Since(timer).Seconds())
		if r := recover(); r != nil {
			d.logger.Error("sender panicked", map[string]interface{}{
				"channel": channel,
				"panic":   fmt.Sprint(r),
			})
			result = models.DeliveryResult{Channel: channel, Success: false, Error: fmt.Sprintf("sender panic: %v", r)}
		}
	}()

	sender, ok := d.registry.Get(channel)
	if !ok {
		return models.DeliveryResult{Channel: channel, Success: false, Error: "no sender registered for channel"}
	}

	if _, stub := sender.(channels.Unimplemented); stub {
		// A placeholder has nothing to gate; its fixed message wins
		// over "disabled by preferences".
		return sender.Send(ctx, n, channels.Target{})
	}

	if !prefs.ChannelEnabled(channel) {
		return models.DeliveryResult{Channel: channel, Success: false, Error: "channel disabled by user preferences"}
	}

	target, result, done := d.buildTarget(ctx, n, channel)
	if done {
		return result
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	result = sender.Send(sendCtx, n, target)
	if !result.Success && sendCtx.Err() == context.DeadlineExceeded {
		result.Error = "timeout"
	}
	return result
}

// buildTarget gathers per-channel delivery coordinates. done=true means
// a prerequisite is missing and result is the final outcome.
func (d *Dispatcher) buildTarget(ctx context.Context, n *models.Notification, channel string) (channels.Target, models.DeliveryResult, bool) {
	var target channels.Target

	switch channel {
	case models.ChannelEmail:
		target.Email = d.emailFor(n.UserID)

	case models.ChannelPush:
		tokens, err := d.devices.ActiveTokens(ctx, n.UserID)
		if err != nil {
			return target, models.DeliveryResult{Channel: channel, Success: false, Error: err.Error()}, true
		}
		if len(tokens) == 0 {
			// Skip the gateway entirely when nothing can receive.
			return target, models.DeliveryResult{Channel: channel, Success: false, Error: "No device tokens found"}, true
		}
		target.DeviceTokens = tokens
	}

	return target, models.DeliveryResult{}, false
}
