package dbus

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/xnotid/xnotid/internal/model"
)

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // >0 = milliseconds, 0 = urgency default, <0 = never
}

// ParsedActions converts the D-Bus action array to structured form.
// D-Bus actions are passed as alternating key/label pairs.
func (n *DBusNotification) ParsedActions() []model.Action {
	actions := make([]model.Action, 0, len(n.Actions)/2)
	for i := 0; i+1 < len(n.Actions); i += 2 {
		actions = append(actions, model.Action{
			Key:   n.Actions[i],
			Label: n.Actions[i+1],
		})
	}
	return actions
}

// Urgency extracts the urgency hint from the notification.
// Returns model.UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() model.Urgency {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return model.UrgencyFromByte(b)
		}
	}
	return model.UrgencyNormal
}

// Category extracts the category hint from the notification.
// Returns empty string if not specified.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	return n.stringHint("desktop-entry")
}

// SoundFile extracts the sound-file hint.
func (n *DBusNotification) SoundFile() string {
	return n.stringHint("sound-file")
}

// Group extracts the x-group hint. Notifications sharing a group key
// collapse together.
func (n *DBusNotification) Group() string {
	return n.stringHint("x-group")
}

// SuppressSound returns true if the suppress-sound hint is set.
func (n *DBusNotification) SuppressSound() bool {
	return n.boolHint("suppress-sound")
}

// Transient returns true if the transient hint is set.
// Transient notifications are dropped instead of archived when no
// popup slot is free.
func (n *DBusNotification) Transient() bool {
	return n.boolHint("transient")
}

// AcknowledgeToDismiss returns true if the x-acknowledge hint is set.
// Such notifications stay on screen until the user acts on them.
func (n *DBusNotification) AcknowledgeToDismiss() bool {
	return n.boolHint("x-acknowledge")
}

// Image hint keys in decode order.
var (
	rawImageKeys  = []string{"image-data", "image_data", "icon_data"}
	imagePathKeys = []string{"image-path", "image_path"}
)

// Image resolves the notification image. Raw image-data pixels are
// preferred over the path hints, which are preferred over the app_icon
// parameter. File paths are told apart from themed icon names by a
// leading / or file:// prefix.
func (n *DBusNotification) Image() model.Image {
	for _, key := range rawImageKeys {
		if raw := n.rawImageHint(key); raw != nil {
			return model.Image{Kind: model.ImageRaw, Raw: raw}
		}
	}
	for _, key := range imagePathKeys {
		if path := n.stringHint(key); path != "" {
			return imageFromName(path)
		}
	}
	if n.AppIcon != "" {
		return imageFromName(n.AppIcon)
	}
	return model.Image{Kind: model.ImageNone}
}

func imageFromName(s string) model.Image {
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "file://") {
		return model.Image{Kind: model.ImagePath, Path: s}
	}
	return model.Image{Kind: model.ImageName, Path: s}
}

// rawImageHint decodes an iiibiiay image hint value. Anything that does
// not match the wire shape is ignored.
func (n *DBusNotification) rawImageHint(key string) *model.RawImage {
	v, ok := n.Hints[key]
	if !ok {
		return nil
	}
	fields, ok := v.Value().([]interface{})
	if !ok || len(fields) != 7 {
		return nil
	}

	width, ok1 := fields[0].(int32)
	height, ok2 := fields[1].(int32)
	rowStride, ok3 := fields[2].(int32)
	hasAlpha, ok4 := fields[3].(bool)
	bits, ok5 := fields[4].(int32)
	channels, ok6 := fields[5].(int32)
	pixels, ok7 := fields[6].([]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 {
		return nil
	}

	return &model.RawImage{
		Width:         int(width),
		Height:        int(height),
		RowStride:     int(rowStride),
		HasAlpha:      hasAlpha,
		BitsPerSample: int(bits),
		Channels:      int(channels),
		Pixels:        pixels,
	}
}

// Progress extracts the progress value hint.
// Returns -1 if not present, 0-100 for valid progress values.
// This is used by dunstify with the -h int:value:N option.
func (n *DBusNotification) Progress() int {
	if v, ok := n.Hints["value"]; ok {
		switch val := v.Value().(type) {
		case int32:
			return int(val)
		case uint32:
			return int(val)
		case int:
			return val
		case byte:
			return int(val)
		}
	}
	return -1
}

// StringHints flattens the variant hint bag into a plain string map
// for lifecycle records. Non-scalar hint values (image data and the
// like) are skipped.
func (n *DBusNotification) StringHints() map[string]string {
	if len(n.Hints) == 0 {
		return nil
	}
	out := make(map[string]string, len(n.Hints))
	for k, v := range n.Hints {
		// Image hints are lifted into the Image field.
		switch k {
		case "image-data", "image_data", "icon_data", "image-path", "image_path":
			continue
		}
		switch val := v.Value().(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = fmt.Sprintf("%t", val)
		case byte:
			out[k] = fmt.Sprintf("%d", val)
		case int16, uint16, int32, uint32, int64, uint64, int:
			out[k] = fmt.Sprintf("%d", val)
		case float64:
			out[k] = fmt.Sprintf("%g", val)
		}
	}
	return out
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func (n *DBusNotification) boolHint(key string) bool {
	if v, ok := n.Hints[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// BaseCapabilities lists the capabilities the daemon always advertises,
// before the rendering surface adds its own.
var BaseCapabilities = []string{
	"actions",     // Support notification actions
	"body",        // Support body text
	"icon-static", // Support static icons
	"sound",       // Play sounds
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string // "xnotid"
	Vendor      string // "xnotid"
	Version     string // Build version
	SpecVersion string // "1.2"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "xnotid",
		Vendor:      "xnotid",
		Version:     "0.1.0", // Will be replaced by build-time version
		SpecVersion: "1.2",
	}
}
