package dbus

import (
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/xnotid/xnotid/internal/model"
)

// Client talks to a running daemon over the session bus. It is used by
// the control CLI for both the standard notification interface and the
// daemon control interface.
type Client struct {
	conn *dbus.Conn
}

// Connect opens a session-bus connection to the daemon.
func Connect() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the client connection. The shared session bus stays open.
func (c *Client) Close() error {
	return nil
}

func (c *Client) notifications() dbus.BusObject {
	return c.conn.Object(DBusBusName, DBusPath)
}

func (c *Client) control() dbus.BusObject {
	return c.conn.Object(DBusBusName, ControlPath)
}

// Notify sends a notification and returns the assigned identifier.
func (c *Client) Notify(n *DBusNotification) (uint32, error) {
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}

	var id uint32
	err := c.notifications().Call(DBusInterface+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body,
		actions, hints, n.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("Notify failed: %w", err)
	}
	return id, nil
}

// CloseNotification asks the daemon to close a notification.
func (c *Client) CloseNotification(id uint32) error {
	if err := c.notifications().Call(DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("CloseNotification failed: %w", err)
	}
	return nil
}

// ServerInformation queries the daemon's GetServerInformation method.
func (c *Client) ServerInformation() (ServerInfo, error) {
	var info ServerInfo
	err := c.notifications().Call(DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("GetServerInformation failed: %w", err)
	}
	return info, nil
}

// Capabilities queries the daemon's advertised capability list.
func (c *Client) Capabilities() ([]string, error) {
	var caps []string
	err := c.notifications().Call(DBusInterface+".GetCapabilities", 0).Store(&caps)
	if err != nil {
		return nil, fmt.Errorf("GetCapabilities failed: %w", err)
	}
	return caps, nil
}

// ToggleCenter flips center visibility and returns the new state.
func (c *Client) ToggleCenter() (bool, error) {
	var visible bool
	err := c.control().Call(ControlInterface+".ToggleCenter", 0).Store(&visible)
	if err != nil {
		return false, fmt.Errorf("ToggleCenter failed: %w", err)
	}
	return visible, nil
}

// ToggleDnD flips Do Not Disturb and returns the new state.
func (c *Client) ToggleDnD() (bool, error) {
	var enabled bool
	err := c.control().Call(ControlInterface+".ToggleDnD", 0).Store(&enabled)
	if err != nil {
		return false, fmt.Errorf("ToggleDnD failed: %w", err)
	}
	return enabled, nil
}

// ClearCenter empties the daemon's notification-center backlog.
func (c *Client) ClearCenter() error {
	if err := c.control().Call(ControlInterface+".ClearCenter", 0).Err; err != nil {
		return fmt.Errorf("ClearCenter failed: %w", err)
	}
	return nil
}

// Acknowledge removes one notification-center entry.
func (c *Client) Acknowledge(id uint32) error {
	if err := c.control().Call(ControlInterface+".Acknowledge", 0, id).Err; err != nil {
		return fmt.Errorf("Acknowledge failed: %w", err)
	}
	return nil
}

// Dismiss closes a visible notification as dismissed-by-user.
func (c *Client) Dismiss(id uint32) error {
	if err := c.control().Call(ControlInterface+".Dismiss", 0, id).Err; err != nil {
		return fmt.Errorf("Dismiss failed: %w", err)
	}
	return nil
}

// InvokeAction records a user action on a notification.
func (c *Client) InvokeAction(id uint32, actionKey string) error {
	if err := c.control().Call(ControlInterface+".InvokeAction", 0, id, actionKey).Err; err != nil {
		return fmt.Errorf("InvokeAction failed: %w", err)
	}
	return nil
}

// ListCenter fetches the notification-center entries.
func (c *Client) ListCenter() ([]model.CenterEntry, error) {
	var raw string
	err := c.control().Call(ControlInterface+".ListCenter", 0).Store(&raw)
	if err != nil {
		return nil, fmt.Errorf("ListCenter failed: %w", err)
	}

	var entries []model.CenterEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode center entries: %w", err)
	}
	return entries, nil
}

// DaemonStatus is the control-interface status snapshot.
type DaemonStatus struct {
	Visible       uint32
	Archived      uint32
	DnD           bool
	CenterVisible bool
}

// Status queries daemon counters and flags.
func (c *Client) Status() (DaemonStatus, error) {
	var st DaemonStatus
	err := c.control().Call(ControlInterface+".Status", 0).
		Store(&st.Visible, &st.Archived, &st.DnD, &st.CenterVisible)
	if err != nil {
		return DaemonStatus{}, fmt.Errorf("Status failed: %w", err)
	}
	return st, nil
}
