// Package report writes the audit trail of an import as JSON lines, one
// event per file read, record added or record skipped.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventScan     EventType = "scan"     // a file was read
	EventAdd      EventType = "add"      // a record was added to the catalog
	EventSkip     EventType = "skip"     // a file is already cataloged
	EventSnapshot EventType = "snapshot" // a dump was stored
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event is one line of the log
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	Kind      string            `json:"kind,omitempty"` // catalog data kind for add/skip
	UniqueID  string            `json:"uid,omitempty"`
	ID        uint16            `json:"id,omitempty"`
	Name      string            `json:"name,omitempty"`
	SrcPath   string            `json:"src_path,omitempty"`
	Bytes     int64             `json:"bytes,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil logger discards
// everything, so callers never need to check.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates events-<timestamp>.jsonl in outputDir. Events
// below minLevel are dropped.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(outputDir, fmt.Sprintf("events-%s.jsonl", timestamp))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event. Safe for concurrent use.
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return nil
}

// LogScan records a file read. fromTags is false when everything came
// from the path.
func (l *EventLogger) LogScan(srcPath string, sizeBytes int64, fromTags bool) error {
	return l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventScan,
		SrcPath: srcPath,
		Bytes:   sizeBytes,
		Extra: map[string]string{
			"from_tags": fmt.Sprintf("%t", fromTags),
		},
	})
}

// LogAdd records a new catalog record
func (l *EventLogger) LogAdd(kind, uid string, id uint16, name, srcPath string) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventAdd,
		Kind:     kind,
		UniqueID: uid,
		ID:       id,
		Name:     name,
		SrcPath:  srcPath,
	})
}

// LogSkip records a file whose item already exists
func (l *EventLogger) LogSkip(uid, srcPath string) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventSkip,
		Kind:     "item",
		UniqueID: uid,
		SrcPath:  srcPath,
	})
}

// LogSnapshot records a stored dump
func (l *EventLogger) LogSnapshot(id int64, serial string, bytes int64) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventSnapshot,
		UniqueID: serial,
		Bytes:    bytes,
		Extra: map[string]string{
			"snapshot_id": fmt.Sprintf("%d", id),
		},
	})
}

// LogError records a failure tied to a file, if any
func (l *EventLogger) LogError(srcPath string, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   EventError,
		SrcPath: srcPath,
		Error:   err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
