package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"

	"github.com/xnotid/xnotid/internal/config"
	"github.com/xnotid/xnotid/internal/model"
)

// Manager plays per-urgency notification sounds.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	cfg     *config.Config

	// Urgency to sound path mapping
	sounds map[model.Urgency]string
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)

	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		cfg:     cfg,
		sounds:  make(map[model.Urgency]string),
	}
	m.loadSoundConfig()
	return m
}

// loadSoundConfig loads sounds from the configuration.
func (m *Manager) loadSoundConfig() {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Config volume is 0-100, the player wants 0.0-1.0.
	m.player.SetVolume(float64(m.cfg.Audio.Volume) / 100.0)

	for _, urgency := range []model.Urgency{model.UrgencyLow, model.UrgencyNormal, model.UrgencyCritical} {
		path := m.cfg.SoundFor(urgency)
		if path == "" {
			continue
		}

		path = expandPath(path)
		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("sound file not found", "urgency", urgency.String(), "path", path)
			continue
		}

		m.sounds[urgency] = path
		m.logger.Debug("loaded sound", "urgency", urgency.String(), "path", path)
	}
}

// Start preloads configured sounds and starts the file watcher.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.RLock()
	sounds := make(map[model.Urgency]string, len(m.sounds))
	maps.Copy(sounds, m.sounds)
	m.mu.RUnlock()

	for _, path := range sounds {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}

	if err := m.watcher.Start(ctx); err != nil {
		return err
	}

	m.logger.Info("audio manager started", "sounds", len(sounds))
	return nil
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// PlayForUrgency plays the sound configured for the given urgency level.
func (m *Manager) PlayForUrgency(urgency model.Urgency) error {
	if !m.cfg.Audio.Enabled {
		return nil
	}

	m.mu.RLock()
	path, ok := m.sounds[urgency]
	m.mu.RUnlock()

	if !ok {
		m.logger.Debug("no sound configured for urgency", "urgency", urgency.String())
		return nil
	}

	return m.player.Play(path)
}

// PlayFile plays a specific sound file, typically from a sound-file hint.
func (m *Manager) PlayFile(path string) error {
	if !m.cfg.Audio.Enabled {
		return nil
	}
	return m.player.Play(path)
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(volume float64) {
	m.player.SetVolume(volume)
}
