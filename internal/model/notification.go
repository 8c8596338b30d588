// Package model defines the core data structures for xnotid.
package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/xnotid/xnotid/internal/card"
)

// Urgency levels matching the freedesktop notification spec.
type Urgency int

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// String returns the human-readable urgency name.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// UrgencyFromByte maps the raw urgency hint byte to an Urgency.
// Unknown values default to normal.
func UrgencyFromByte(b byte) Urgency {
	switch b {
	case 0:
		return UrgencyLow
	case 2:
		return UrgencyCritical
	default:
		return UrgencyNormal
	}
}

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved/undefined per the spec.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of a notification record.
type State int

const (
	// StateQueued means the record was created but admission has not placed it yet.
	StateQueued State = iota
	// StateVisible means the record occupies a popup slot.
	StateVisible
	// StateArchived means the record was deferred to the notification center.
	StateArchived
	// StateClosed means the record has been removed.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateVisible:
		return "visible"
	case StateArchived:
		return "archived"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ImageKind discriminates the source of a notification image.
type ImageKind int

const (
	// ImageNone means the notification carries no image.
	ImageNone ImageKind = iota
	// ImageRaw is decoded pixel data from the image-data hint.
	ImageRaw
	// ImagePath is an absolute file path or file:// URI.
	ImagePath
	// ImageName is a themed icon name.
	ImageName
)

// String returns the string representation of the image kind.
func (k ImageKind) String() string {
	switch k {
	case ImageRaw:
		return "raw"
	case ImagePath:
		return "path"
	case ImageName:
		return "name"
	default:
		return "none"
	}
}

// RawImage is decoded content of an image-data hint (wire type iiibiiay).
type RawImage struct {
	Width         int
	Height        int
	RowStride     int
	HasAlpha      bool
	BitsPerSample int
	Channels      int
	Pixels        []byte
}

// Image is a notification's resolved image. Resolution prefers raw
// image data over the path hints over the app icon parameter.
type Image struct {
	Kind ImageKind
	// Path holds the file path for ImagePath and the icon name for
	// ImageName.
	Path string
	// Raw is set for ImageRaw only.
	Raw *RawImage
}

// Notification is a live notification record owned by the engine store.
// All other components reference records by ID; anything handed outward
// is a value copy taken with Clone.
type Notification struct {
	// ID is the protocol-visible identifier, assigned by the store.
	// Never zero for a live record.
	ID uint32
	// UID is a ULID used for journal correlation. It is stable across
	// replacement updates of the same record.
	UID string

	AppName string
	Summary string
	Body    string
	Icon    string

	Urgency Urgency
	Actions []Action
	// Hints holds string representations of hints not lifted into
	// dedicated fields.
	Hints map[string]string

	// ExpireTimeout is the caller-requested expiry in milliseconds.
	// Zero means use the configured default for the urgency, negative
	// means never expire.
	ExpireTimeout int32

	// Card is the parsed interactive card descriptor, nil for plain
	// notifications. Immutable once attached; replacement re-parses.
	Card *card.Card

	// AcknowledgeToDismiss means any action invocation also closes the
	// record. Implied by a card, or by the x-acknowledge hint.
	AcknowledgeToDismiss bool
	// Transient records are popup-only and never archived to the center.
	Transient    bool
	DesktopEntry string
	Category     string
	// Group is the x-group hint key. Records sharing a non-empty group
	// collapse together on rendering surfaces.
	Group string
	// Image is the resolved notification image (see Image).
	Image Image
	// SoundFile is a caller-supplied sound path, overriding the
	// per-urgency configured sound.
	SoundFile     string
	SuppressSound bool
	// Progress is 0-100, or -1 when absent.
	Progress int

	State     State
	CreatedAt time.Time
}

// NewUID generates a new ULID string for journal correlation.
func NewUID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Clone creates a deep copy of the notification.
func (n *Notification) Clone() Notification {
	clone := *n
	if n.Actions != nil {
		clone.Actions = make([]Action, len(n.Actions))
		copy(clone.Actions, n.Actions)
	}
	if n.Hints != nil {
		clone.Hints = make(map[string]string, len(n.Hints))
		for k, v := range n.Hints {
			clone.Hints[k] = v
		}
	}
	if n.Card != nil {
		cardClone := n.Card.Clone()
		clone.Card = &cardClone
	}
	if n.Image.Raw != nil {
		raw := *n.Image.Raw
		raw.Pixels = make([]byte, len(n.Image.Raw.Pixels))
		copy(raw.Pixels, n.Image.Raw.Pixels)
		clone.Image.Raw = &raw
	}
	return clone
}

// ActionByKey returns the action with the given key, or false if absent.
// Card-bearing records answer from the card's synthesized actions.
func (n *Notification) ActionByKey(key string) (Action, bool) {
	if n.Card != nil {
		for _, c := range n.Card.Actions() {
			if c.ID == key {
				return Action{Key: c.ID, Label: c.Label}, true
			}
		}
	}
	for _, a := range n.Actions {
		if a.Key == key {
			return a, true
		}
	}
	return Action{}, false
}

// CenterEntry is a read-only snapshot of a notification's display fields
// kept by the notification center. It is taken at archive time and never
// mutated afterwards, so later changes to the live record cannot corrupt
// the center's view.
type CenterEntry struct {
	ID         uint32    `json:"id"`
	UID        string    `json:"uid"`
	AppName    string    `json:"app_name"`
	Summary    string    `json:"summary"`
	Body       string    `json:"body"`
	Icon       string    `json:"icon,omitempty"`
	Urgency    Urgency   `json:"urgency"`
	ArchivedAt time.Time `json:"archived_at"`
	Group      string    `json:"group,omitempty"`
	// GroupSize counts the live records sharing Group at archive time,
	// this one included. Zero for ungrouped records.
	GroupSize int `json:"group_size,omitempty"`
}

// Snapshot takes a center entry from the record at the current time.
func (n *Notification) Snapshot(now time.Time) CenterEntry {
	return CenterEntry{
		ID:         n.ID,
		UID:        n.UID,
		AppName:    n.AppName,
		Summary:    n.Summary,
		Body:       n.Body,
		Icon:       n.Icon,
		Urgency:    n.Urgency,
		ArchivedAt: now,
		Group:      n.Group,
	}
}
