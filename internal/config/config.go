// Package config loads and validates the xnotid daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"github.com/xnotid/xnotid/internal/model"
)

// Duration is a time.Duration that can be unmarshaled from human-readable
// strings. Supports formats like "5s", "10s", "1m30s", or integer
// milliseconds. A value of "0" or 0 means never expire.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Integer values are milliseconds, matching the wire timeout unit.
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m30s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the daemon configuration. The engine receives it as an
// immutable snapshot at startup; on-disk changes only take effect after
// a restart.
type Config struct {
	Display  DisplayConfig `toml:"display"`
	Timeouts TimeoutConfig `toml:"timeouts"`
	DnD      DnDConfig     `toml:"dnd"`
	Audio    AudioConfig   `toml:"audio"`
	Journal  JournalConfig `toml:"journal"`
}

// DisplayConfig contains popup placement settings consumed by the
// rendering collaborator, plus the admission limit used by the engine.
type DisplayConfig struct {
	Monitor    int    `toml:"monitor"`     // 0 = primary
	Corner     string `toml:"corner"`      // "top-right", "top-left", etc.
	OffsetX    int    `toml:"offset_x"`    // Pixels from screen edge
	OffsetY    int    `toml:"offset_y"`    // Pixels from screen edge
	Width      int    `toml:"width"`       // Popup width in pixels
	Gap        int    `toml:"gap"`         // Gap between stacked popups
	MaxVisible int    `toml:"max_visible"` // Maximum simultaneous popups
}

// TimeoutConfig contains timeout settings per urgency level.
// Durations can be specified as "5s", "10s", "1m", etc. or as integer
// milliseconds. A value of "0" or 0 means never expire.
type TimeoutConfig struct {
	Low      Duration `toml:"low"`
	Normal   Duration `toml:"normal"`
	Critical Duration `toml:"critical"`
}

// DnDConfig contains Do Not Disturb settings.
type DnDConfig struct {
	Enabled        bool `toml:"enabled"`         // Initial state
	CriticalBypass bool `toml:"critical_bypass"` // Show critical even in DnD mode
}

// AudioConfig contains notification sound settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-urgency sound file paths.
type SoundConfig struct {
	Low      string `toml:"low"`
	Normal   string `toml:"normal"`
	Critical string `toml:"critical"`
}

// JournalConfig contains lifecycle event journal settings.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Empty = default under XDG data dir
}

// Corner represents a popup corner placement.
type Corner string

const (
	CornerTopLeft     Corner = "top-left"
	CornerTopRight    Corner = "top-right"
	CornerBottomLeft  Corner = "bottom-left"
	CornerBottomRight Corner = "bottom-right"
)

// ValidCorners returns all valid corner values.
func ValidCorners() []Corner {
	return []Corner{CornerTopLeft, CornerTopRight, CornerBottomLeft, CornerBottomRight}
}

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Monitor:    0,
			Corner:     string(CornerTopRight),
			OffsetX:    12,
			OffsetY:    12,
			Width:      400,
			Gap:        8,
			MaxVisible: 3,
		},
		Timeouts: TimeoutConfig{
			Low:      Duration(5 * time.Second),
			Normal:   Duration(10 * time.Second),
			Critical: Duration(0), // Never expires
		},
		DnD: DnDConfig{
			Enabled:        false,
			CriticalBypass: true,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  80,
			Sounds:  SoundConfig{},
		},
		Journal: JournalConfig{
			Enabled: true,
		},
	}
}

// Path returns the path to the config file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, "xnotid", "xnotid.toml")
}

// DataDir returns the xnotid data directory.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "xnotid")
}

// Load loads the configuration from the given path. An empty path uses
// the default location. If the file doesn't exist, defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents.
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validCorner := false
	for _, corner := range ValidCorners() {
		if c.Display.Corner == string(corner) {
			validCorner = true
			break
		}
	}
	if !validCorner {
		return fmt.Errorf("invalid corner %q, must be one of: %v", c.Display.Corner, ValidCorners())
	}

	if c.Display.Width < 100 || c.Display.Width > 1000 {
		return fmt.Errorf("width must be between 100 and 1000, got %d", c.Display.Width)
	}
	if c.Display.MaxVisible < 1 || c.Display.MaxVisible > 20 {
		return fmt.Errorf("max_visible must be between 1 and 20, got %d", c.Display.MaxVisible)
	}
	if c.Display.Monitor < 0 {
		return fmt.Errorf("monitor must not be negative, got %d", c.Display.Monitor)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	for _, d := range []Duration{c.Timeouts.Low, c.Timeouts.Normal, c.Timeouts.Critical} {
		if d < 0 {
			return fmt.Errorf("timeouts must not be negative, got %s", d.Duration())
		}
	}

	return nil
}

// TimeoutFor returns the configured default timeout for the given
// urgency level. Zero means never expire.
func (c *Config) TimeoutFor(urgency model.Urgency) time.Duration {
	switch urgency {
	case model.UrgencyLow:
		return c.Timeouts.Low.Duration()
	case model.UrgencyCritical:
		return c.Timeouts.Critical.Duration()
	default:
		return c.Timeouts.Normal.Duration()
	}
}

// SoundFor returns the configured sound file path for the given urgency
// level, or empty when none is configured.
func (c *Config) SoundFor(urgency model.Urgency) string {
	switch urgency {
	case model.UrgencyLow:
		return c.Audio.Sounds.Low
	case model.UrgencyCritical:
		return c.Audio.Sounds.Critical
	default:
		return c.Audio.Sounds.Normal
	}
}

// JournalPath returns the effective journal path.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(DataDir(), "events.jsonl")
}
