package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/xnotid/xnotid/internal/config"
	"github.com/xnotid/xnotid/internal/journal"
)

var historyOpts struct {
	journalPath string
	since       string
	event       string
	app         string
	urgency     string
	limit       int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the notification lifecycle journal",
	Long: `Show the daemon's lifecycle journal.

The journal is read directly from disk, so this works whether or not
the daemon is running.

Examples:
  # Last 20 events
  xnotctl history -n 20

  # Only dismissals from firefox
  xnotctl history --event dismissed --app firefox

  # Critical notifications received in the last week
  xnotctl history --event received --urgency critical --since 1w`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyOpts.journalPath, "journal", "",
		"Path to journal file (default: XDG data dir)")
	historyCmd.Flags().StringVar(&historyOpts.since, "since", "0",
		"Only show events newer than this (e.g. 48h, 7d, 1w; 0=all)")
	historyCmd.Flags().StringVar(&historyOpts.event, "event", "",
		"Filter by event (received, expired, dismissed, closed, action, acknowledged, cleared)")
	historyCmd.Flags().StringVar(&historyOpts.app, "app", "",
		"Filter by application name (exact match)")
	historyCmd.Flags().StringVar(&historyOpts.urgency, "urgency", "",
		"Filter by urgency (low, normal, critical); only received events carry urgency")
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Maximum number of events to show, newest last (0=unlimited)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := historyOpts.journalPath
	if path == "" {
		cfg, err := config.Load(config.Path())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		path = cfg.JournalPath()
	}

	opts := journal.FilterOptions{
		Event: journal.Event(historyOpts.event),
		App:   historyOpts.app,
		Limit: historyOpts.limit,
	}

	since, err := journal.ParseDuration(historyOpts.since)
	if err != nil {
		return err
	}
	opts.Since = since

	if historyOpts.urgency != "" {
		urgency, err := journal.ParseUrgency(historyOpts.urgency)
		if err != nil {
			return err
		}
		opts.Urgency = &urgency
	}

	entries, err := journal.Load(path)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	filtered := journal.Filter(entries, opts)
	if len(filtered) == 0 {
		fmt.Println("no journal entries")
		return nil
	}

	for _, e := range filtered {
		line := fmt.Sprintf("%s | %-12s | %s | %s",
			humanize.Time(e.Time()), e.Event, e.AppName, e.Summary)
		if e.ActionKey != "" {
			line += " [" + e.ActionKey + "]"
		}
		fmt.Println(line)
	}
	return nil
}
