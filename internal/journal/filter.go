package journal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xnotid/xnotid/internal/model"
)

// FilterOptions specifies criteria for filtering journal entries.
type FilterOptions struct {
	Since   time.Duration  // Entries newer than now-since (0=all)
	Event   Event          // Filter by event type (""=any)
	App     string         // Exact match on app name
	Urgency *model.Urgency // Filter by urgency level (nil=any)
	Limit   int            // Maximum results, newest kept (0=unlimited)
}

// Filter filters journal entries based on the provided options.
// Entry order is preserved; with a limit, the newest entries win.
func Filter(entries []Entry, opts FilterOptions) []Entry {
	now := time.Now()
	result := make([]Entry, 0, len(entries))

	for _, e := range entries {
		if opts.Since > 0 && e.Time().Before(now.Add(-opts.Since)) {
			continue
		}
		if opts.Event != "" && e.Event != opts.Event {
			continue
		}
		if opts.App != "" && e.AppName != opts.App {
			continue
		}
		if opts.Urgency != nil && e.Urgency != opts.Urgency.String() {
			continue
		}
		result = append(result, e)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[len(result)-opts.Limit:]
	}
	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	// Special case: 0 means no filter (all time)
	if s == "0" || s == "" {
		return 0, nil
	}

	// Handle day suffix (7d -> 168h)
	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	// Handle week suffix (1w -> 168h)
	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

// ParseUrgency parses an urgency string to its model value.
// Accepts: low, normal, critical, 0, 1, 2
func ParseUrgency(s string) (model.Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "0":
		return model.UrgencyLow, nil
	case "normal", "1":
		return model.UrgencyNormal, nil
	case "critical", "2":
		return model.UrgencyCritical, nil
	default:
		return 0, fmt.Errorf("invalid urgency: %s (use low, normal, or critical)", s)
	}
}
