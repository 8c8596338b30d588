package dbus

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"
)

// NotifyHandler is called for each incoming Notify request and returns
// the identifier assigned to the notification.
type NotifyHandler func(notification *DBusNotification) uint32

// CloseHandler is called when CloseNotification is requested.
type CloseHandler func(id uint32)

// NotificationServer implements the org.freedesktop.Notifications D-Bus interface.
// It owns no notification state itself: identifier assignment and
// lifecycle live behind the handlers.
type NotificationServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	notifyHandler NotifyHandler
	closeHandler  CloseHandler

	mu           sync.Mutex
	capabilities []string
	serverInfo   ServerInfo
	running      bool
}

// NewNotificationServer creates a new NotificationServer.
func NewNotificationServer(logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger:       logger,
		capabilities: BaseCapabilities,
		serverInfo:   DefaultServerInfo(),
	}
}

// SetNotifyHandler sets the handler called when a notification is received.
func (s *NotificationServer) SetNotifyHandler(handler NotifyHandler) {
	s.notifyHandler = handler
}

// SetCloseHandler sets the handler called when CloseNotification is requested.
func (s *NotificationServer) SetCloseHandler(handler CloseHandler) {
	s.closeHandler = handler
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverInfo = info
}

// AddCapabilities merges extra capability strings (typically from the
// rendering surface) into the advertised set, deduplicated and sorted.
func (s *NotificationServer) AddCapabilities(extra []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.capabilities)+len(extra))
	merged := make([]string, 0, len(s.capabilities)+len(extra))
	for _, c := range append(append([]string{}, s.capabilities...), extra...) {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		merged = append(merged, c)
	}
	sort.Strings(merged)
	s.capabilities = merged
}

// Start connects to the session bus and exports the notification service.
func (s *NotificationServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	// Export the notification server object
	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	// Export introspection data
	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	// Request the bus name
	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus notification server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		_, err := s.conn.ReleaseName(DBusBusName)
		if err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// Connection returns the underlying D-Bus connection. The control
// surface is exported on the same connection.
func (s *NotificationServer) Connection() *dbus.Conn {
	return s.conn
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	s.logger.Debug("GetCapabilities called")
	s.mu.Lock()
	defer s.mu.Unlock()
	caps := make([]string, len(s.capabilities))
	copy(caps, s.capabilities)
	return caps, nil
}

// GetServerInformation returns information about the notification server.
// D-Bus method: GetServerInformation() -> (ssss)
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.logger.Debug("GetServerInformation called")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverInfo.Name, s.serverInfo.Vendor, s.serverInfo.Version, s.serverInfo.SpecVersion, nil
}

// Notify handles incoming notification requests.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	s.logger.Debug("Notify called",
		"app_name", appName,
		"replaces_id", replacesID,
		"summary", summary,
	)

	if s.notifyHandler == nil {
		return 0, dbus.MakeFailedError(fmt.Errorf("notification handling not available"))
	}

	notification := &DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}

	return s.notifyHandler(notification), nil
}

// CloseNotification closes a notification by ID.
// Unknown identifiers succeed as no-ops; sending clients race with
// expiry and dismissal, and the spec treats that as normal.
// D-Bus method: CloseNotification(u) -> nothing
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	s.logger.Debug("CloseNotification called", "id", id)

	if s.closeHandler != nil {
		s.closeHandler(id)
	}
	return nil
}

// notificationMethods returns the D-Bus method introspection data.
func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

// notificationSignals returns the D-Bus signal introspection data.
func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
