// Package main is the entry point for the xnotid notification daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xnotid/xnotid/internal/audio"
	"github.com/xnotid/xnotid/internal/config"
	"github.com/xnotid/xnotid/internal/daemon"
	"github.com/xnotid/xnotid/internal/dbus"
	"github.com/xnotid/xnotid/internal/engine"
	"github.com/xnotid/xnotid/internal/journal"
	"github.com/xnotid/xnotid/internal/model"
	"github.com/xnotid/xnotid/internal/render"
)

const appName = "xnotid"

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: XDG config dir)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	if err := run(logger, *configPath); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath string) error {
	logger.Info("starting xnotid", "version", version)

	if configPath == "" {
		configPath = config.Path()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Lifecycle journal
	var journalWriter *journal.Writer
	if cfg.Journal.Enabled {
		journalWriter, err = journal.NewWriter(cfg.JournalPath())
		if err != nil {
			logger.Warn("failed to open journal, continuing without", "error", err)
		} else {
			defer func() { _ = journalWriter.Close() }()
			logger.Info("journal opened", "path", cfg.JournalPath())
		}
	}

	// The rendering surface is an external collaborator; the daemon
	// ships a headless renderer that logs display intents.
	renderer := render.NewLogRenderer(logger)

	eng := engine.New(cfg, renderer, logger)
	if journalWriter != nil {
		eng.SetJournal(journalWriter)
	}

	// Audio
	audioManager := audio.NewManager(cfg, logger)
	if err := audioManager.Start(ctx); err != nil {
		logger.Warn("failed to start audio manager", "error", err)
	}
	defer audioManager.Stop()

	eng.SetShownCallback(func(n model.Notification) {
		playSound(audioManager, n, logger)
	})

	// D-Bus notification interface
	server := dbus.NewNotificationServer(logger)
	server.SetServerInfo(dbus.ServerInfo{
		Name:        appName,
		Vendor:      "xnotid",
		Version:     version,
		SpecVersion: "1.2",
	})
	server.AddCapabilities(renderer.Capabilities())

	server.SetNotifyHandler(func(notification *dbus.DBusNotification) uint32 {
		return eng.Notify(requestFromDBus(notification))
	})
	server.SetCloseHandler(func(id uint32) {
		eng.Close(id, model.CloseReasonClosed)
	})

	eng.SetSink(engine.NewAsyncSink(&signalSink{server: server, logger: logger}, logger))

	go eng.Run(ctx)

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start D-Bus server: %w", err)
	}
	defer func() { _ = server.Stop() }()

	// Control interface on the same connection
	control := dbus.NewControlServer(server.Connection(), &engineController{eng: eng}, logger)
	if err := control.Start(); err != nil {
		return fmt.Errorf("failed to start control interface: %w", err)
	}

	// Internal notifier routes through the normal notify path
	notifier := daemon.NewInternalNotifier(logger)
	notifier.SetNotifyHandler(func(notification *dbus.DBusNotification) uint32 {
		return eng.Notify(requestFromDBus(notification))
	})

	// Config changes require a restart; just tell the user.
	configWatcher, err := daemon.NewConfigWatcher(configPath, notifier.NotifyConfigChanged, logger)
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
	} else {
		if err := configWatcher.Start(); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}
		defer func() { _ = configWatcher.Stop() }()
	}

	notifier.NotifyStartup(version)
	logger.Info("xnotid ready", "dbus_interface", dbus.DBusInterface)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	cancel()
	logger.Info("xnotid stopped")
	return nil
}

// requestFromDBus converts a raw Notify call into an engine request.
func requestFromDBus(n *dbus.DBusNotification) engine.Request {
	return engine.Request{
		ReplacesID:           n.ReplacesID,
		AppName:              n.AppName,
		Icon:                 n.AppIcon,
		Summary:              n.Summary,
		Body:                 n.Body,
		Actions:              n.ParsedActions(),
		Urgency:              n.Urgency(),
		ExpireTimeout:        n.ExpireTimeout,
		Hints:                n.StringHints(),
		Transient:            n.Transient(),
		AcknowledgeToDismiss: n.AcknowledgeToDismiss(),
		DesktopEntry:         n.DesktopEntry(),
		Category:             n.Category(),
		Group:                n.Group(),
		Image:                n.Image(),
		SoundFile:            n.SoundFile(),
		SuppressSound:        n.SuppressSound(),
		Progress:             n.Progress(),
	}
}

// playSound plays the sound for a freshly shown notification, honoring
// the suppress-sound and sound-file hints.
func playSound(m *audio.Manager, n model.Notification, logger *slog.Logger) {
	if n.SuppressSound {
		return
	}

	go func() {
		var err error
		if n.SoundFile != "" {
			err = m.PlayFile(n.SoundFile)
		} else {
			err = m.PlayForUrgency(n.Urgency)
		}
		if err != nil {
			logger.Debug("failed to play notification sound", "id", n.ID, "error", err)
		}
	}()
}

// signalSink forwards engine close and action events to the bus.
type signalSink struct {
	server *dbus.NotificationServer
	logger *slog.Logger
}

func (s *signalSink) NotificationClosed(id uint32, reason model.CloseReason) {
	if err := s.server.EmitNotificationClosed(id, reason); err != nil {
		s.logger.Warn("failed to emit close signal", "id", id, "error", err)
	}
}

func (s *signalSink) ActionInvoked(id uint32, actionKey string) {
	if err := s.server.EmitActionInvoked(id, actionKey); err != nil {
		s.logger.Warn("failed to emit action signal", "id", id, "error", err)
	}
}

// engineController adapts the engine to the control interface.
type engineController struct {
	eng *engine.Engine
}

func (c *engineController) ToggleCenter() bool { return c.eng.ToggleCenter() }
func (c *engineController) ToggleDnD() bool    { return c.eng.ToggleDnD() }
func (c *engineController) ClearCenter()       { c.eng.ClearCenter() }

func (c *engineController) Acknowledge(id uint32) { c.eng.Acknowledge(id) }

func (c *engineController) Dismiss(id uint32) {
	c.eng.Close(id, model.CloseReasonDismissed)
}

func (c *engineController) InvokeAction(id uint32, actionKey string) {
	c.eng.RecordAction(id, actionKey)
}

func (c *engineController) CenterEntries() []model.CenterEntry {
	return c.eng.CenterEntries()
}

func (c *engineController) Status() (uint32, uint32, bool, bool) {
	st := c.eng.Status()
	return uint32(st.Visible), uint32(st.Archived), st.DnD, st.CenterVisible
}

// parseLogLevel maps the flag value to a slog level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
