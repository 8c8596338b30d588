package dbus

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/xnotid/xnotid/internal/model"
)

const (
	// ControlInterface is the daemon control interface name.
	ControlInterface = "org.xnotid.Control"
	// ControlPath is the control object path.
	ControlPath = "/org/xnotid/Control"
)

// Controller is the daemon-side surface the control interface drives.
// All methods are synchronous; identifier-based operations are no-ops
// for unknown identifiers, matching the notification interface.
type Controller interface {
	ToggleCenter() bool
	ToggleDnD() bool
	ClearCenter()
	Acknowledge(id uint32)
	Dismiss(id uint32)
	InvokeAction(id uint32, actionKey string)
	CenterEntries() []model.CenterEntry
	Status() (visible, archived uint32, dnd, centerVisible bool)
}

// ControlServer exposes the org.xnotid.Control interface on an existing
// bus connection. It shares the connection (and bus name) of the
// notification server.
type ControlServer struct {
	conn   *dbus.Conn
	ctrl   Controller
	logger *slog.Logger
}

// NewControlServer creates a control server backed by ctrl.
func NewControlServer(conn *dbus.Conn, ctrl Controller, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		conn:   conn,
		ctrl:   ctrl,
		logger: logger,
	}
}

// Start exports the control object and its introspection data.
func (c *ControlServer) Start() error {
	if c.conn == nil {
		return fmt.Errorf("no bus connection")
	}

	if err := c.conn.Export(c, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export control object: %w", err)
	}

	node := &introspect.Node{
		Name: ControlPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ControlInterface,
				Methods: controlMethods(),
			},
		},
	}
	if err := c.conn.Export(introspect.NewIntrospectable(node), ControlPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export control introspectable: %w", err)
	}

	c.logger.Info("D-Bus control interface started", "interface", ControlInterface, "path", ControlPath)
	return nil
}

// ToggleCenter flips notification-center visibility.
// D-Bus method: ToggleCenter() -> b
func (c *ControlServer) ToggleCenter() (bool, *dbus.Error) {
	c.logger.Debug("ToggleCenter called")
	return c.ctrl.ToggleCenter(), nil
}

// ToggleDnD flips Do Not Disturb mode.
// D-Bus method: ToggleDnD() -> b
func (c *ControlServer) ToggleDnD() (bool, *dbus.Error) {
	c.logger.Debug("ToggleDnD called")
	return c.ctrl.ToggleDnD(), nil
}

// ClearCenter empties the notification-center backlog.
// D-Bus method: ClearCenter() -> nothing
func (c *ControlServer) ClearCenter() *dbus.Error {
	c.logger.Debug("ClearCenter called")
	c.ctrl.ClearCenter()
	return nil
}

// Acknowledge removes a single notification-center entry.
// D-Bus method: Acknowledge(u) -> nothing
func (c *ControlServer) Acknowledge(id uint32) *dbus.Error {
	c.logger.Debug("Acknowledge called", "id", id)
	c.ctrl.Acknowledge(id)
	return nil
}

// Dismiss closes a visible notification as dismissed-by-user.
// D-Bus method: Dismiss(u) -> nothing
func (c *ControlServer) Dismiss(id uint32) *dbus.Error {
	c.logger.Debug("Dismiss called", "id", id)
	c.ctrl.Dismiss(id)
	return nil
}

// InvokeAction records a user action on a notification.
// D-Bus method: InvokeAction(us) -> nothing
func (c *ControlServer) InvokeAction(id uint32, actionKey string) *dbus.Error {
	c.logger.Debug("InvokeAction called", "id", id, "action", actionKey)
	c.ctrl.InvokeAction(id, actionKey)
	return nil
}

// ListCenter returns the notification-center entries as a JSON array.
// D-Bus method: ListCenter() -> s
func (c *ControlServer) ListCenter() (string, *dbus.Error) {
	c.logger.Debug("ListCenter called")

	entries := c.ctrl.CenterEntries()
	data, err := json.Marshal(entries)
	if err != nil {
		return "", dbus.MakeFailedError(fmt.Errorf("failed to encode center entries: %w", err))
	}
	return string(data), nil
}

// Status reports current daemon counters and flags.
// D-Bus method: Status() -> (uubb)
func (c *ControlServer) Status() (uint32, uint32, bool, bool, *dbus.Error) {
	c.logger.Debug("Status called")
	visible, archived, dnd, centerVisible := c.ctrl.Status()
	return visible, archived, dnd, centerVisible, nil
}

// controlMethods returns the control interface introspection data.
func controlMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "ToggleCenter",
			Args: []introspect.Arg{
				{Name: "visible", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "ToggleDnD",
			Args: []introspect.Arg{
				{Name: "enabled", Type: "b", Direction: "out"},
			},
		},
		{Name: "ClearCenter"},
		{
			Name: "Acknowledge",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "Dismiss",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "InvokeAction",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
				{Name: "action_key", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "ListCenter",
			Args: []introspect.Arg{
				{Name: "entries", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "visible", Type: "u", Direction: "out"},
				{Name: "archived", Type: "u", Direction: "out"},
				{Name: "dnd", Type: "b", Direction: "out"},
				{Name: "center_visible", Type: "b", Direction: "out"},
			},
		},
	}
}
