// Package audit records the changes the CLI makes to student and scholarship
// records. Events are stored as JSON Lines (JSONL) files, one per record kind.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// EventType classifies a change.
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
	EventImport EventType = "import"
	EventError  EventType = "error"
)

// Kind names a record collection.
type Kind string

const (
	KindStudents     Kind = "students"
	KindScholarships Kind = "scholarships"
)

// ParseKind accepts the collection names used on the command line.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStudents, "student":
		return KindStudents, nil
	case KindScholarships, "scholarship":
		return KindScholarships, nil
	default:
		return "", fmt.Errorf("unknown record kind %q (want students or scholarships)", s)
	}
}

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Kind      Kind      `json:"kind"`
	RecordID  string    `json:"record_id,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Logger writes and reads audit events.
// Events are stored in {stateDir}/audit/{kind}.events.jsonl.
type Logger struct {
	stateDir string
}

// NewLogger creates a new audit logger rooted at stateDir.
func NewLogger(stateDir string) *Logger {
	return &Logger{stateDir: stateDir}
}

// eventPath returns the path to the JSONL event log for a record kind. The
// kind is resolved inside the audit directory even if it contains "..".
func (l *Logger) eventPath(kind Kind) (string, error) {
	if kind == "" {
		return "", fmt.Errorf("audit event has no record kind")
	}
	return securejoin.SecureJoin(filepath.Join(l.stateDir, "audit"), string(kind)+".events.jsonl")
}

// Log appends an event to the kind's audit log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	path, err := l.eventPath(event.Kind)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent is a convenience method that creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, kind Kind, recordID, details string) error {
	return l.Log(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Kind:      kind,
		RecordID:  recordID,
		Details:   details,
	})
}

// Events reads all events for a kind in chronological order.
func (l *Logger) Events(kind Kind) ([]Event, error) {
	path, err := l.eventPath(kind)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}

// Remove deletes the audit log for a kind.
func (l *Logger) Remove(kind Kind) error {
	path, err := l.eventPath(kind)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
