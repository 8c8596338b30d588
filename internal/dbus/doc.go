// Package dbus exposes the daemon's bus surfaces. It implements the
// org.freedesktop.Notifications interface per the freedesktop.org
// notification specification (Notify, CloseNotification,
// GetCapabilities, GetServerInformation plus the NotificationClosed and
// ActionInvoked signals) and a daemon-specific control interface used
// by xnotctl for center visibility, Do Not Disturb and dismissal.
package dbus
