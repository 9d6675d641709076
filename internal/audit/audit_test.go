package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogger_LogAndEvents(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	now := time.Now().Truncate(time.Millisecond)

	events := []Event{
		{Timestamp: now, Type: EventCreate, Kind: KindStudents, RecordID: "1", Details: "Alami Sara"},
		{Timestamp: now.Add(time.Second), Type: EventUpdate, Kind: KindStudents, RecordID: "1"},
		{Timestamp: now.Add(2 * time.Second), Type: EventImport, Kind: KindStudents, Details: "added=3 failed=1"},
		{Timestamp: now.Add(3 * time.Second), Type: EventDelete, Kind: KindStudents, RecordID: "1"},
	}

	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	result, err := logger.Events(KindStudents)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != len(events) {
		t.Fatalf("got %d events, want %d", len(result), len(events))
	}

	for i, e := range result {
		if e.Type != events[i].Type {
			t.Errorf("event %d: type = %q, want %q", i, e.Type, events[i].Type)
		}
		if e.RecordID != events[i].RecordID {
			t.Errorf("event %d: record = %q, want %q", i, e.RecordID, events[i].RecordID)
		}
		if e.Details != events[i].Details {
			t.Errorf("event %d: details = %q, want %q", i, e.Details, events[i].Details)
		}
	}
}

func TestLogger_KindsAreSeparate(t *testing.T) {
	logger := NewLogger(t.TempDir())

	logger.LogEvent(EventCreate, KindStudents, "1", "")
	logger.LogEvent(EventCreate, KindScholarships, "9", "")
	logger.LogEvent(EventDelete, KindScholarships, "9", "")

	students, _ := logger.Events(KindStudents)
	scholarships, _ := logger.Events(KindScholarships)
	if len(students) != 1 || len(scholarships) != 2 {
		t.Errorf("students = %d, scholarships = %d; want 1 and 2", len(students), len(scholarships))
	}
}

func TestLogger_EventsEmpty(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	result, err := logger.Events(KindScholarships)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != 0 {
		t.Errorf("got %d events, want 0", len(result))
	}
}

func TestLogger_LogEvent(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	if err := logger.LogEvent(EventCreate, KindScholarships, "12", "title=Excellence"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := logger.Events(KindScholarships)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Type != EventCreate {
		t.Errorf("type = %q, want %q", e.Type, EventCreate)
	}
	if e.Kind != KindScholarships {
		t.Errorf("kind = %q, want %q", e.Kind, KindScholarships)
	}
	if e.Details != "title=Excellence" {
		t.Errorf("details = %q, want %q", e.Details, "title=Excellence")
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set automatically")
	}
}

func TestLogger_EventPathStaysInside(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	if err := logger.LogEvent(EventError, Kind("../../escape"), "", ""); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	path, err := logger.eventPath(Kind("../../escape"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(path, filepath.Join(dir, "audit")+string(os.PathSeparator)) {
		t.Errorf("event path %q escaped the audit directory", path)
	}
}

func TestLogger_MissingKind(t *testing.T) {
	logger := NewLogger(t.TempDir())
	if err := logger.Log(Event{Type: EventCreate}); err == nil {
		t.Error("expected error for an event without kind")
	}
}

func TestLogger_Remove(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	logger.LogEvent(EventCreate, KindStudents, "1", "")

	if err := logger.Remove(KindStudents); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	events, err := logger.Events(KindStudents)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events after remove, want 0", len(events))
	}
}

func TestLogger_RemoveNonexistent(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	if err := logger.Remove(KindStudents); err != nil {
		t.Errorf("Remove should not error for nonexistent: %v", err)
	}
}

func TestLogger_EventOrder(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	base := time.Now()
	for i := 0; i < 5; i++ {
		logger.Log(Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Type:      EventUpdate,
			Kind:      KindStudents,
			Details:   string(rune('A' + i)),
		})
	}

	events, _ := logger.Events(KindStudents)
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("event %d timestamp before event %d", i, i-1)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"students", KindStudents, false},
		{"student", KindStudents, false},
		{"scholarships", KindScholarships, false},
		{"bourses", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}
