package log

import (
	"path/filepath"
	"testing"
	"time"

	"worldedit.ai/internal/persistence/history"
)

func TestEditLoggerWritesReadableLines(t *testing.T) {
	dir := t.TempDir()
	l := NewEditLogger(dir)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	l.w.now = func() time.Time { return at }

	for _, a := range []history.Action{history.ActionRecord, history.ActionUndo} {
		if err := l.WriteAudit(history.AuditEntry{Time: at, WorldID: "w1", ActorID: "alice", Action: a, Width: 2, Height: 3}); err != nil {
			t.Fatalf("WriteAudit: %v", err)
		}
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadEdits(filepath.Join(dir, "audit", "edits-2026-03-04-05.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadEdits: %v", err)
	}
	if len(got) != 2 || got[1].Action != history.ActionUndo || got[0].Rect().H != 3 {
		t.Fatalf("entries: %+v", got)
	}
}

func TestJSONLZstdWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "edits")
	at := time.Date(2026, 3, 4, 5, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return at }
	if err := w.Write(history.AuditEntry{ActorID: "a"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	at = at.Add(2 * time.Minute)
	if err := w.Write(history.AuditEntry{ActorID: "b"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "edits-*.jsonl.zst"))
	if len(matches) != 2 {
		t.Fatalf("files: %v", matches)
	}
	got, err := ReadEdits(filepath.Join(dir, "edits-2026-03-04-06.jsonl.zst"))
	if err != nil || len(got) != 1 || got[0].ActorID != "b" {
		t.Fatalf("second hour: %+v %v", got, err)
	}
}
