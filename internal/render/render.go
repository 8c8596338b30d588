// Package render defines the one-way intent interface between the
// notification engine and a rendering surface. The engine never blocks
// on a frame being drawn; implementations must return promptly and relay
// user interactions back through the engine's inbound entry points.
package render

import (
	"log/slog"

	"github.com/xnotid/xnotid/internal/model"
)

// Renderer is the rendering collaborator consumed by the engine.
// Records are passed by value so a surface can never mutate live store
// state. Slot indices are dense in [0, max_visible).
type Renderer interface {
	// ShowPopup displays a notification in the given slot.
	ShowPopup(n model.Notification, slot int)
	// UpdatePopup refreshes a popup in place after a replacement update.
	UpdatePopup(n model.Notification, slot int)
	// RemovePopup clears the given slot.
	RemovePopup(slot int)
	// ShowCenter displays the notification center with the given entries.
	// Called again with fresh entries whenever the backlog changes while
	// the center is visible.
	ShowCenter(entries []model.CenterEntry)
	// HideCenter hides the notification center.
	HideCenter()
	// Capabilities reports surface capabilities merged into the server's
	// advertised capability list (e.g. "body-markup", "body-images").
	Capabilities() []string
}

// LogRenderer is a headless rendering surface that logs every intent.
// It stands in when no GUI frontend is attached and doubles as a debug
// surface.
type LogRenderer struct {
	logger *slog.Logger
}

// NewLogRenderer creates a LogRenderer.
func NewLogRenderer(logger *slog.Logger) *LogRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRenderer{logger: logger}
}

func (r *LogRenderer) ShowPopup(n model.Notification, slot int) {
	r.logger.Info("show popup",
		"slot", slot,
		"id", n.ID,
		"app", n.AppName,
		"summary", n.Summary,
		"urgency", n.Urgency.String(),
		"card", n.Card != nil,
		"group", n.Group,
		"image", n.Image.Kind.String(),
	)
}

func (r *LogRenderer) UpdatePopup(n model.Notification, slot int) {
	r.logger.Info("update popup", "slot", slot, "id", n.ID, "summary", n.Summary)
}

func (r *LogRenderer) RemovePopup(slot int) {
	r.logger.Info("remove popup", "slot", slot)
}

func (r *LogRenderer) ShowCenter(entries []model.CenterEntry) {
	r.logger.Info("show center", "entries", len(entries))
}

func (r *LogRenderer) HideCenter() {
	r.logger.Info("hide center")
}

func (r *LogRenderer) Capabilities() []string {
	return nil
}
