package statsd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"rotexchain/integrations/exports"
	"rotexchain/native/stats"
	"rotexchain/observability"
)

// Exporter snapshots the day archive into parquet, CSV, and JSONL files with
// a checksum manifest.
type Exporter struct {
	store   *Store
	dir     string
	now     func() time.Time
	metrics *observability.ExportMetrics
}

// NewExporter builds an exporter writing batches under dir.
func NewExporter(store *Store, dir string) (*Exporter, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("export directory required")
	}
	return &Exporter{
		store:   store,
		dir:     trimmed,
		now:     time.Now,
		metrics: observability.Exports(),
	}, nil
}

// ExportResult describes one snapshot batch.
type ExportResult struct {
	Rows         int
	CSVPath      string
	JSONLPath    string
	ParquetPath  string
	ManifestPath string
}

type exportManifest struct {
	GeneratedAt string         `json:"generated_at"`
	Rows        int            `json:"rows"`
	Files       []manifestFile `json:"files"`
}

type manifestFile struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

// Export writes a full snapshot of the archive. An empty archive produces no
// files.
func (e *Exporter) Export(ctx context.Context) (*ExportResult, error) {
	if e == nil {
		return nil, fmt.Errorf("exporter not configured")
	}
	rows, err := e.store.Days(ctx)
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	if len(rows) == 0 {
		return &ExportResult{}, nil
	}
	records := make([]*stats.DayRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.Record()
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", row.Index, err)
		}
		records = append(records, record)
	}

	stamp := e.now().UTC().Format("20060102T150405Z")
	runDir := filepath.Join(e.dir, stamp)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure export dir: %w", err)
	}

	result := &ExportResult{Rows: len(rows)}
	manifest := exportManifest{GeneratedAt: e.now().UTC().Format(time.RFC3339), Rows: len(rows)}

	start := time.Now()
	csvData, csvSum, err := exports.DayStatsCSV(records)
	e.metrics.Observe("csv", len(records), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("csv export: %w", err)
	}
	result.CSVPath = filepath.Join(runDir, "stats_days.csv")
	if err := os.WriteFile(result.CSVPath, csvData, 0o644); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	manifest.Files = append(manifest.Files, manifestFile{Name: "stats_days.csv", SHA256: csvSum})

	start = time.Now()
	jsonlData, jsonlSum, err := exports.DayStatsJSONL(records)
	e.metrics.Observe("jsonl", len(records), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("jsonl export: %w", err)
	}
	result.JSONLPath = filepath.Join(runDir, "stats_days.jsonl")
	if err := os.WriteFile(result.JSONLPath, jsonlData, 0o644); err != nil {
		return nil, fmt.Errorf("write jsonl: %w", err)
	}
	manifest.Files = append(manifest.Files, manifestFile{Name: "stats_days.jsonl", SHA256: jsonlSum})

	result.ParquetPath = filepath.Join(runDir, "stats_days.parquet")
	start = time.Now()
	err = writeParquet(result.ParquetPath, rows)
	e.metrics.Observe("parquet", len(rows), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	parquetSum, err := fileChecksum(result.ParquetPath)
	if err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, manifestFile{Name: "stats_days.parquet", SHA256: parquetSum})

	result.ManifestPath = filepath.Join(runDir, "manifest.json")
	encoded, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(result.ManifestPath, append(encoded, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return result, nil
}

// Record converts the row into the ledger's archived day representation.
func (r DayRow) Record() (*stats.DayRecord, error) {
	counters := &stats.Counters{
		DayStart:     r.Stats.DayStart,
		SwapCount:    r.Stats.SwapCount,
		Participants: r.Stats.Participants,
	}
	var err error
	if counters.Released, err = parseAmount(r.Stats.Released); err != nil {
		return nil, fmt.Errorf("parse released: %w", err)
	}
	if counters.ReleasedNormal, err = parseAmount(r.Stats.ReleasedNormal); err != nil {
		return nil, fmt.Errorf("parse released normal: %w", err)
	}
	if counters.ReleasedReverse, err = parseAmount(r.Stats.ReleasedReverse); err != nil {
		return nil, fmt.Errorf("parse released reverse: %w", err)
	}
	return &stats.DayRecord{Index: r.Index, Counters: counters}, nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return value, nil
}

type parquetRow struct {
	DayIndex        int64  `parquet:"name=day_index, type=INT64"`
	DayStart        int64  `parquet:"name=day_start, type=INT64"`
	Released        string `parquet:"name=released, type=BYTE_ARRAY, convertedtype=UTF8"`
	ReleasedNormal  string `parquet:"name=released_normal, type=BYTE_ARRAY, convertedtype=UTF8"`
	ReleasedReverse string `parquet:"name=released_reverse, type=BYTE_ARRAY, convertedtype=UTF8"`
	SwapCount       int64  `parquet:"name=swap_count, type=INT64"`
	Participants    int64  `parquet:"name=participants, type=INT64"`
	RecordedAt      string `parquet:"name=recorded_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func writeParquet(path string, rows []DayRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		file.Close()
		return fmt.Errorf("parquet schema: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		pr := &parquetRow{
			DayIndex:        int64(row.Index),
			DayStart:        row.Stats.DayStart,
			Released:        row.Stats.Released,
			ReleasedNormal:  row.Stats.ReleasedNormal,
			ReleasedReverse: row.Stats.ReleasedReverse,
			SwapCount:       int64(row.Stats.SwapCount),
			Participants:    int64(row.Stats.Participants),
			RecordedAt:      row.RecordedAt.UTC().Format(time.RFC3339),
		}
		if err := pw.Write(pr); err != nil {
			pw.WriteStop()
			file.Close()
			return fmt.Errorf("parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("parquet flush: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	return nil
}

func fileChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
