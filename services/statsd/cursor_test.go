package statsd

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCursorNextDayPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor.db")
	cursor, err := OpenCursor(path)
	if err != nil {
		t.Fatalf("open cursor: %v", err)
	}
	next, err := cursor.NextDay()
	if err != nil {
		t.Fatalf("next day: %v", err)
	}
	if next != 0 {
		t.Fatalf("fresh cursor should start at zero, got %d", next)
	}
	if err := cursor.SetNextDay(5); err != nil {
		t.Fatalf("set next day: %v", err)
	}
	if err := cursor.Close(); err != nil {
		t.Fatalf("close cursor: %v", err)
	}

	reopened, err := OpenCursor(path)
	if err != nil {
		t.Fatalf("reopen cursor: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	next, err = reopened.NextDay()
	if err != nil {
		t.Fatalf("next day after reopen: %v", err)
	}
	if next != 5 {
		t.Fatalf("cursor lost across restart: got %d want 5", next)
	}
}

func TestCursorLastExport(t *testing.T) {
	cursor, err := OpenCursor(filepath.Join(t.TempDir(), "cursor.db"))
	if err != nil {
		t.Fatalf("open cursor: %v", err)
	}
	t.Cleanup(func() { _ = cursor.Close() })

	last, err := cursor.LastExport()
	if err != nil {
		t.Fatalf("last export: %v", err)
	}
	if !last.IsZero() {
		t.Fatalf("expected zero watermark, got %s", last)
	}
	at := time.Unix(1_700_000_000, 0).UTC()
	if err := cursor.SetLastExport(at); err != nil {
		t.Fatalf("set last export: %v", err)
	}
	last, err = cursor.LastExport()
	if err != nil {
		t.Fatalf("last export after set: %v", err)
	}
	if !last.Equal(at) {
		t.Fatalf("watermark mismatch: got %s want %s", last, at)
	}
}

func TestOpenCursorRequiresPath(t *testing.T) {
	if _, err := OpenCursor("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
