// Package daemon provides supporting services for the xnotid process:
// self-notifications about daemon events and config file watching.
package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/xnotid/xnotid/internal/dbus"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// InternalNotifier sends notifications about daemon events through the
// same pipeline as external clients. Rate limiting prevents floods when
// an error repeats.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	notifyHandler func(notification *dbus.DBusNotification) uint32

	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	return &InternalNotifier{
		logger:         logger,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetNotifyHandler sets the function to call when creating a notification.
// This should be the same handler used for D-Bus notifications.
func (n *InternalNotifier) SetNotifyHandler(handler func(notification *dbus.DBusNotification) uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifyHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Notify sends an internal notification if not rate-limited.
// The key is used for rate limiting - same key won't notify again within minInterval.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return
	}
	if n.notifyHandler == nil {
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return
	}

	if lastTime, ok := n.lastNotifyTime[key]; ok {
		if time.Since(lastTime) < n.minInterval {
			n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
			return
		}
	}
	n.lastNotifyTime[key] = time.Now()

	urgency := byte(1)
	icon := "dialog-information"
	switch level {
	case NotificationLevelInfo:
		urgency = 0
	case NotificationLevelWarning:
		urgency = 1
		icon = "dialog-warning"
	case NotificationLevelError:
		urgency = 2
		icon = "dialog-error"
	}

	notification := &dbus.DBusNotification{
		AppName: "xnotid",
		AppIcon: icon,
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(urgency),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant("xnotid"),
		},
		ExpireTimeout: 5000,
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	_ = n.notifyHandler(notification)
}

// NotifyStartup sends a notification that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"xnotid Started",
		"Notification daemon v"+version+" is now running.",
		NotificationLevelInfo,
	)
}

// NotifyConfigChanged sends a notification that the config file changed
// on disk. The running engine keeps its startup snapshot.
func (n *InternalNotifier) NotifyConfigChanged() {
	n.Notify(
		"config-changed",
		"Configuration Changed",
		"The configuration file was modified. Restart xnotid to apply the changes.",
		NotificationLevelInfo,
	)
}

// NotifyAudioError sends a notification about audio playback error.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify(
		"audio-error",
		"Audio Error",
		"Failed to play notification sound: "+err.Error(),
		NotificationLevelWarning,
	)
}
