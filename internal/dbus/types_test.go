package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/xnotid/xnotid/internal/model"
)

func TestParsedActions(t *testing.T) {
	tests := []struct {
		name     string
		actions  []string
		expected []model.Action
	}{
		{
			name:     "empty",
			actions:  nil,
			expected: []model.Action{},
		},
		{
			name:     "single action",
			actions:  []string{"default", "Open"},
			expected: []model.Action{{Key: "default", Label: "Open"}},
		},
		{
			name:    "multiple actions",
			actions: []string{"default", "Open", "dismiss", "Dismiss", "reply", "Reply"},
			expected: []model.Action{
				{Key: "default", Label: "Open"},
				{Key: "dismiss", Label: "Dismiss"},
				{Key: "reply", Label: "Reply"},
			},
		},
		{
			name:     "odd number (incomplete pair ignored)",
			actions:  []string{"default", "Open", "orphan"},
			expected: []model.Action{{Key: "default", Label: "Open"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Actions: tt.actions}
			assert.Equal(t, tt.expected, n.ParsedActions())
		})
	}
}

func TestUrgency(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected model.Urgency
	}{
		{
			name:     "no hint",
			hints:    nil,
			expected: model.UrgencyNormal,
		},
		{
			name:     "low urgency",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(0))},
			expected: model.UrgencyLow,
		},
		{
			name:     "normal urgency",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(1))},
			expected: model.UrgencyNormal,
		},
		{
			name:     "critical urgency",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))},
			expected: model.UrgencyCritical,
		},
		{
			name:     "wrong type returns normal",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant("high")},
			expected: model.UrgencyNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.Urgency())
		})
	}
}

func TestDesktopEntry(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{
			"desktop-entry": dbus.MakeVariant("firefox"),
		},
	}
	assert.Equal(t, "firefox", n.DesktopEntry())

	n.Hints = nil
	assert.Equal(t, "", n.DesktopEntry())
}

func TestSuppressSound(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected bool
	}{
		{
			name:     "no hint",
			hints:    nil,
			expected: false,
		},
		{
			name:     "suppress true",
			hints:    map[string]dbus.Variant{"suppress-sound": dbus.MakeVariant(true)},
			expected: true,
		},
		{
			name:     "suppress false",
			hints:    map[string]dbus.Variant{"suppress-sound": dbus.MakeVariant(false)},
			expected: false,
		},
		{
			name:     "wrong type",
			hints:    map[string]dbus.Variant{"suppress-sound": dbus.MakeVariant("yes")},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.SuppressSound())
		})
	}
}

func TestTransient(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{
			"transient": dbus.MakeVariant(true),
		},
	}
	assert.True(t, n.Transient())

	n.Hints = map[string]dbus.Variant{
		"transient": dbus.MakeVariant(false),
	}
	assert.False(t, n.Transient())

	n.Hints = nil
	assert.False(t, n.Transient())
}

func TestAcknowledgeToDismiss(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{
			"x-acknowledge": dbus.MakeVariant(true),
		},
	}
	assert.True(t, n.AcknowledgeToDismiss())

	n.Hints = nil
	assert.False(t, n.AcknowledgeToDismiss())
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected int
	}{
		{
			name:     "no hint",
			hints:    nil,
			expected: -1,
		},
		{
			name:     "int32 value",
			hints:    map[string]dbus.Variant{"value": dbus.MakeVariant(int32(50))},
			expected: 50,
		},
		{
			name:     "uint32 value",
			hints:    map[string]dbus.Variant{"value": dbus.MakeVariant(uint32(75))},
			expected: 75,
		},
		{
			name:     "byte value",
			hints:    map[string]dbus.Variant{"value": dbus.MakeVariant(byte(25))},
			expected: 25,
		},
		{
			name:     "wrong type",
			hints:    map[string]dbus.Variant{"value": dbus.MakeVariant("50%")},
			expected: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.Progress())
		})
	}
}

func TestStringHints(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{
			"category":  dbus.MakeVariant("email.arrived"),
			"urgency":   dbus.MakeVariant(byte(2)),
			"transient": dbus.MakeVariant(true),
			"value":     dbus.MakeVariant(int32(40)),
		},
	}

	hints := n.StringHints()
	assert.Equal(t, "email.arrived", hints["category"])
	assert.Equal(t, "2", hints["urgency"])
	assert.Equal(t, "true", hints["transient"])
	assert.Equal(t, "40", hints["value"])

	n.Hints = nil
	assert.Nil(t, n.StringHints())
}

func TestDefaultServerInfo(t *testing.T) {
	info := DefaultServerInfo()
	assert.Equal(t, "xnotid", info.Name)
	assert.Equal(t, "xnotid", info.Vendor)
	assert.Equal(t, "1.2", info.SpecVersion)
	assert.NotEmpty(t, info.Version)
}

func TestAddCapabilities(t *testing.T) {
	s := NewNotificationServer(nil)
	s.AddCapabilities([]string{"body-markup", "actions", ""})

	caps, derr := s.GetCapabilities()
	assert.Nil(t, derr)
	assert.Contains(t, caps, "actions")
	assert.Contains(t, caps, "body")
	assert.Contains(t, caps, "body-markup")
	assert.NotContains(t, caps, "")

	// Deduplicated: "actions" appears once.
	count := 0
	for _, c := range caps {
		if c == "actions" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCategory(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{"category": dbus.MakeVariant("email.arrived")},
	}
	assert.Equal(t, "email.arrived", n.Category())
	assert.Empty(t, (&DBusNotification{}).Category())
}

func TestSoundFile(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{"sound-file": dbus.MakeVariant("/usr/share/sounds/ding.ogg")},
	}
	assert.Equal(t, "/usr/share/sounds/ding.ogg", n.SoundFile())
	assert.Empty(t, (&DBusNotification{}).SoundFile())
}

func TestGroup(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{"x-group": dbus.MakeVariant("chat")},
	}
	assert.Equal(t, "chat", n.Group())
	assert.Empty(t, (&DBusNotification{}).Group())
}

func TestImage(t *testing.T) {
	rawValue := []interface{}{
		int32(2), int32(2), int32(8), true, int32(8), int32(4), []byte{1, 2, 3},
	}

	tests := []struct {
		name string
		n    *DBusNotification
		kind model.ImageKind
		path string
	}{
		{
			name: "raw data wins over path and icon",
			n: &DBusNotification{
				AppIcon: "firefox",
				Hints: map[string]dbus.Variant{
					"image-data": dbus.MakeVariant(rawValue),
					"image-path": dbus.MakeVariant("/tmp/shot.png"),
				},
			},
			kind: model.ImageRaw,
		},
		{
			name: "absolute path",
			n: &DBusNotification{
				Hints: map[string]dbus.Variant{"image-path": dbus.MakeVariant("/tmp/shot.png")},
			},
			kind: model.ImagePath,
			path: "/tmp/shot.png",
		},
		{
			name: "file uri is a path",
			n: &DBusNotification{
				Hints: map[string]dbus.Variant{"image-path": dbus.MakeVariant("file:///tmp/shot.png")},
			},
			kind: model.ImagePath,
			path: "file:///tmp/shot.png",
		},
		{
			name: "icon name",
			n: &DBusNotification{
				Hints: map[string]dbus.Variant{"image-path": dbus.MakeVariant("mail-unread")},
			},
			kind: model.ImageName,
			path: "mail-unread",
		},
		{
			name: "legacy underscore key",
			n: &DBusNotification{
				Hints: map[string]dbus.Variant{"image_path": dbus.MakeVariant("/tmp/x.png")},
			},
			kind: model.ImagePath,
			path: "/tmp/x.png",
		},
		{
			name: "app icon fallback",
			n:    &DBusNotification{AppIcon: "firefox"},
			kind: model.ImageName,
			path: "firefox",
		},
		{
			name: "malformed raw data falls through",
			n: &DBusNotification{
				AppIcon: "firefox",
				Hints: map[string]dbus.Variant{
					"image-data": dbus.MakeVariant([]interface{}{int32(2), int32(2)}),
				},
			},
			kind: model.ImageName,
			path: "firefox",
		},
		{
			name: "no image",
			n:    &DBusNotification{},
			kind: model.ImageNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := tt.n.Image()
			assert.Equal(t, tt.kind, img.Kind)
			assert.Equal(t, tt.path, img.Path)
		})
	}
}

func TestImage_RawFields(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{
			"icon_data": dbus.MakeVariant([]interface{}{
				int32(4), int32(3), int32(16), false, int32(8), int32(3), []byte{9, 9},
			}),
		},
	}

	img := n.Image()
	assert.Equal(t, model.ImageRaw, img.Kind)
	if assert.NotNil(t, img.Raw) {
		assert.Equal(t, 4, img.Raw.Width)
		assert.Equal(t, 3, img.Raw.Height)
		assert.Equal(t, 16, img.Raw.RowStride)
		assert.False(t, img.Raw.HasAlpha)
		assert.Equal(t, 8, img.Raw.BitsPerSample)
		assert.Equal(t, 3, img.Raw.Channels)
		assert.Equal(t, []byte{9, 9}, img.Raw.Pixels)
	}
}

func TestStringHints_SkipsImageHints(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{
			"image-path": dbus.MakeVariant("/tmp/shot.png"),
			"x-group":    dbus.MakeVariant("chat"),
		},
	}

	hints := n.StringHints()
	assert.NotContains(t, hints, "image-path")
	assert.Equal(t, "chat", hints["x-group"])
}
