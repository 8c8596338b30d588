// Package card parses the structured card sub-protocol embedded in
// notification bodies. A card is a JSON envelope carrying the marker
// field "xnotid_card" with version "v1"; bodies without the marker are
// plain notifications and parse as "not a card" without error.
package card

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Marker is the envelope version accepted by this parser.
const Marker = "v1"

// MarkerField is the envelope key identifying a card body.
const MarkerField = "xnotid_card"

// ErrMalformed is returned when a body carries the card marker but the
// declared card cannot be decoded. Callers fall back to treating the
// notification as plain text rather than rejecting it.
var ErrMalformed = errors.New("malformed card")

// Type identifies a card variant. The protocol defines exactly two.
type Type string

const (
	TypeMultipleChoice Type = "multiple-choice"
	TypePermission     Type = "permission"
)

// DefaultAllowLabel is the allow-button label used when a permission
// card does not specify one.
const DefaultAllowLabel = "Allow"

// Choice is a single selectable option of a multiple-choice card.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Card is a parsed interactive-card descriptor. It is immutable once
// attached to a notification; replacement requests re-parse a fresh one.
type Card struct {
	Type     Type
	Question string

	// Multiple-choice fields.
	Choices    []Choice
	AllowOther bool

	// Permission fields.
	AllowLabel string
}

// envelope is the wire form of a card body.
type envelope struct {
	Marker     string   `json:"xnotid_card"`
	Type       string   `json:"type"`
	Question   string   `json:"question"`
	Choices    []Choice `json:"choices,omitempty"`
	AllowOther bool     `json:"allow_other,omitempty"`
	AllowLabel string   `json:"allow_label,omitempty"`
}

// Parse attempts to decode a card from a notification body.
//
// A nil Card with nil error means the body is not a card (no marker, or
// an unrecognized marker version): the plain notification path continues
// unchanged. A non-nil error always wraps ErrMalformed: the marker was
// present but the declared card is unusable.
func Parse(body string) (*Card, error) {
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		// Not JSON at all: an ordinary text body.
		return nil, nil
	}
	if env.Marker == "" {
		return nil, nil
	}
	if env.Marker != Marker {
		// Future envelope versions are not ours to reject.
		return nil, nil
	}

	switch Type(env.Type) {
	case TypeMultipleChoice:
		return parseMultipleChoice(&env)
	case TypePermission:
		return parsePermission(&env)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
}

func parseMultipleChoice(env *envelope) (*Card, error) {
	if env.Question == "" {
		return nil, fmt.Errorf("%w: multiple-choice card missing question", ErrMalformed)
	}
	if len(env.Choices) == 0 {
		return nil, fmt.Errorf("%w: multiple-choice card has no choices", ErrMalformed)
	}
	seen := make(map[string]bool, len(env.Choices))
	for _, c := range env.Choices {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: choice with empty id", ErrMalformed)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: duplicate choice id %q", ErrMalformed, c.ID)
		}
		seen[c.ID] = true
	}

	choices := make([]Choice, len(env.Choices))
	copy(choices, env.Choices)

	return &Card{
		Type:       TypeMultipleChoice,
		Question:   env.Question,
		Choices:    choices,
		AllowOther: env.AllowOther,
	}, nil
}

func parsePermission(env *envelope) (*Card, error) {
	if env.Question == "" {
		return nil, fmt.Errorf("%w: permission card missing question", ErrMalformed)
	}
	label := env.AllowLabel
	if label == "" {
		label = DefaultAllowLabel
	}
	return &Card{
		Type:       TypePermission,
		Question:   env.Question,
		AllowLabel: label,
	}, nil
}

// Actions returns the actionable (key, label) pairs a renderer should
// offer for this card. Permission cards expose the single "allow" key.
func (c *Card) Actions() []Choice {
	switch c.Type {
	case TypeMultipleChoice:
		actions := make([]Choice, len(c.Choices))
		copy(actions, c.Choices)
		return actions
	case TypePermission:
		return []Choice{{ID: "allow", Label: c.AllowLabel}}
	default:
		return nil
	}
}

// Clone creates a deep copy of the card.
func (c *Card) Clone() Card {
	clone := *c
	if c.Choices != nil {
		clone.Choices = make([]Choice, len(c.Choices))
		copy(clone.Choices, c.Choices)
	}
	return clone
}

// EncodeBody renders the card back into a notification body envelope.
// Used by sending clients (xnotctl) and tests.
func (c *Card) EncodeBody() (string, error) {
	env := envelope{
		Marker:   Marker,
		Type:     string(c.Type),
		Question: c.Question,
	}
	switch c.Type {
	case TypeMultipleChoice:
		env.Choices = c.Choices
		env.AllowOther = c.AllowOther
	case TypePermission:
		env.AllowLabel = c.AllowLabel
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrMalformed, c.Type)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode card: %w", err)
	}
	return string(data), nil
}
