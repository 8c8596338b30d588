package dbus

import (
	"fmt"

	"github.com/xnotid/xnotid/internal/model"
)

// EmitNotificationClosed emits the NotificationClosed signal.
// This signal is emitted when a notification is closed, either by timeout,
// user dismissal, or explicit close request.
func (s *NotificationServer) EmitNotificationClosed(id uint32, reason model.CloseReason) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason))
	if err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}

	s.logger.Debug("emitted NotificationClosed signal", "id", id, "reason", reason.String())
	return nil
}

// EmitActionInvoked emits the ActionInvoked signal.
// This signal is emitted when the user invokes an action on a notification.
func (s *NotificationServer) EmitActionInvoked(id uint32, actionKey string) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".ActionInvoked", id, actionKey)
	if err != nil {
		return fmt.Errorf("failed to emit ActionInvoked signal: %w", err)
	}

	s.logger.Debug("emitted ActionInvoked signal", "id", id, "action_key", actionKey)
	return nil
}
