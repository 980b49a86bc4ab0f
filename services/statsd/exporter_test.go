package statsd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExporterWritesSnapshotBatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	recorded := time.Unix(1_700_200_000, 0).UTC()
	if err := store.UpsertDay(ctx, 0, sampleStats(1_700_000_000, "12000"), recorded); err != nil {
		t.Fatalf("upsert day 0: %v", err)
	}
	if err := store.UpsertDay(ctx, 1, sampleStats(1_700_086_400, "8000"), recorded); err != nil {
		t.Fatalf("upsert day 1: %v", err)
	}

	dir := t.TempDir()
	exporter, err := NewExporter(store, dir)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	exporter.now = func() time.Time { return time.Unix(1_700_200_100, 0).UTC() }

	result, err := exporter.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", result.Rows)
	}

	csvData, err := os.ReadFile(result.CSVPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	csvText := string(csvData)
	if !strings.Contains(csvText, "day_index,day_start,released") {
		t.Fatalf("missing csv header: %s", csvText)
	}
	if !strings.Contains(csvText, "12000") || !strings.Contains(csvText, "8000") {
		t.Fatalf("missing amounts: %s", csvText)
	}

	jsonlData, err := os.ReadFile(result.JSONLPath)
	if err != nil {
		t.Fatalf("read jsonl: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(jsonlData)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 jsonl lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "\"day_index\":1") {
		t.Fatalf("unexpected jsonl order: %s", lines[1])
	}

	info, err := os.Stat(result.ParquetPath)
	if err != nil {
		t.Fatalf("stat parquet: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("parquet file empty")
	}

	manifestData, err := os.ReadFile(result.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest exportManifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if manifest.Rows != 2 {
		t.Fatalf("unexpected manifest rows: %d", manifest.Rows)
	}
	if len(manifest.Files) != 3 {
		t.Fatalf("expected 3 manifest files, got %d", len(manifest.Files))
	}
	runDir := filepath.Dir(result.ManifestPath)
	for _, entry := range manifest.Files {
		data, err := os.ReadFile(filepath.Join(runDir, entry.Name))
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name, err)
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != entry.SHA256 {
			t.Fatalf("checksum mismatch for %s", entry.Name)
		}
	}
}

func TestExporterEmptyArchiveWritesNothing(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()
	exporter, err := NewExporter(store, dir)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	result, err := exporter.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Rows != 0 || result.ManifestPath != "" {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if got := countEntries(t, dir); got != 0 {
		t.Fatalf("expected no batches, got %d", got)
	}
}

func TestExporterRejectsCorruptAmount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	corrupt := sampleStats(1_700_000_000, "not-a-number")
	if err := store.UpsertDay(ctx, 0, corrupt, time.Unix(1_700_000_100, 0)); err != nil {
		t.Fatalf("upsert day: %v", err)
	}
	exporter, err := NewExporter(store, t.TempDir())
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	if _, err := exporter.Export(ctx); err == nil {
		t.Fatalf("expected export to reject corrupt amount")
	}
}

func TestNewExporterValidates(t *testing.T) {
	store := openTestStore(t)
	if _, err := NewExporter(nil, "out"); err == nil {
		t.Fatalf("expected error for missing store")
	}
	if _, err := NewExporter(store, "  "); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}
