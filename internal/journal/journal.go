// Package journal appends notification lifecycle events to a JSONL file.
// The journal is an audit log, not a restore source: the daemon never
// rebuilds live state from it.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xnotid/xnotid/internal/model"
)

// Event identifies a lifecycle event type.
type Event string

const (
	EventReceived     Event = "received"
	EventExpired      Event = "expired"
	EventDismissed    Event = "dismissed"
	EventClosed       Event = "closed"
	EventAction       Event = "action"
	EventAcknowledged Event = "acknowledged"
	EventCleared      Event = "cleared"
)

// Entry is a single journal line.
type Entry struct {
	UID       string `json:"uid"`
	Timestamp string `json:"timestamp"`
	Event     Event  `json:"event"`
	ID        uint32 `json:"id"`
	AppName   string `json:"app_name,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Body      string `json:"body,omitempty"`
	Urgency   string `json:"urgency,omitempty"`
	Group     string `json:"group,omitempty"`
	ActionKey string `json:"action_key,omitempty"`
}

// ErrClosed is returned when operations are attempted on a closed writer.
var ErrClosed = errors.New("journal is closed")

// Writer appends entries to a JSONL journal file.
type Writer struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// NewWriter opens (creating if needed) the journal at path for appending.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}

	return &Writer{path: path, file: file}, nil
}

// Path returns the journal file path.
func (w *Writer) Path() string {
	return w.path
}

// Record appends a lifecycle event for the given record. The full body
// and urgency are only journaled for received events; later events
// reference the record by UID and id.
func (w *Writer) Record(event Event, n *model.Notification, actionKey string) error {
	entry := Entry{
		UID:       n.UID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Event:     event,
		ID:        n.ID,
		AppName:   n.AppName,
		Summary:   n.Summary,
		Group:     n.Group,
		ActionKey: actionKey,
	}
	if event == EventReceived {
		entry.Body = n.Body
		entry.Urgency = n.Urgency.String()
	}
	return w.Append(entry)
}

// Append writes a single entry.
func (w *Writer) Append(entry Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.file == nil {
		return ErrClosed
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	return nil
}

// Close releases the underlying file handle.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

// Load reads all entries from the journal at path. Malformed lines are
// skipped. A missing file yields an empty slice.
func Load(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(file)

	// Bodies may carry long card payloads.
	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.UID == "" {
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("error reading journal: %w", err)
	}
	return entries, nil
}

// Time parses the entry timestamp, returning the zero time on failure.
func (e Entry) Time() time.Time {
	t, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
