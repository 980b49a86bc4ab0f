package statsd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/glebarez/sqlite"
)

// ErrStorePathRequired is returned when the archive path is missing.
var ErrStorePathRequired = errors.New("statsd: storage path must be configured")

const defaultFilePragmas = "mode=rwc&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// FileDSN converts a filesystem path into an on-disk SQLite DSN with sensible
// defaults. Callers must ensure the path is non-empty.
func FileDSN(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", ErrStorePathRequired
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve storage path: %w", err)
	}
	return fmt.Sprintf("file:%s?%s", abs, defaultFilePragmas), nil
}

// Store wraps the day archive persistence layer.
type Store struct {
	db *sql.DB
}

// OpenStore initialises the archive using a sqlite-compatible DSN.
func OpenStore(dsn string) (*Store, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrStorePathRequired
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DayRow pairs an archived day with its index and the poll that captured it.
type DayRow struct {
	Index      uint64
	Stats      DayStats
	RecordedAt time.Time
}

// UpsertDay persists the archived day at index, replacing any earlier poll of
// the same index.
func (s *Store) UpsertDay(ctx context.Context, index uint64, day DayStats, recorded time.Time) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO stat_days(day_index, day_start, released, released_normal, released_reverse, swap_count, participants, recorded_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(day_index) DO UPDATE SET
            day_start=excluded.day_start,
            released=excluded.released,
            released_normal=excluded.released_normal,
            released_reverse=excluded.released_reverse,
            swap_count=excluded.swap_count,
            participants=excluded.participants,
            recorded_at=excluded.recorded_at
    `, int64(index), day.DayStart, normalizeAmount(day.Released), normalizeAmount(day.ReleasedNormal), normalizeAmount(day.ReleasedReverse), int64(day.SwapCount), int64(day.Participants), recorded.UTC())
	if err != nil {
		return fmt.Errorf("upsert day %d: %w", index, err)
	}
	return nil
}

// Day returns the archived day at index when present.
func (s *Store) Day(ctx context.Context, index uint64) (DayStats, bool, error) {
	if s == nil {
		return DayStats{}, false, fmt.Errorf("storage not configured")
	}
	row := s.db.QueryRowContext(ctx, `
        SELECT day_start, released, released_normal, released_reverse, swap_count, participants
        FROM stat_days
        WHERE day_index = ?
    `, int64(index))
	day, err := scanDayStats(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DayStats{}, false, nil
		}
		return DayStats{}, false, fmt.Errorf("query day %d: %w", index, err)
	}
	return day, true, nil
}

// Days returns the full archive ordered by day index.
func (s *Store) Days(ctx context.Context) ([]DayRow, error) {
	if s == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT day_index, day_start, released, released_normal, released_reverse, swap_count, participants, recorded_at
        FROM stat_days
        ORDER BY day_index ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()
	records := make([]DayRow, 0)
	for rows.Next() {
		var (
			index, dayStart, swapCount, participants int64
			rec                                      DayRow
		)
		if err := rows.Scan(&index, &dayStart, &rec.Stats.Released, &rec.Stats.ReleasedNormal, &rec.Stats.ReleasedReverse, &swapCount, &participants, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		rec.Index = uint64(index)
		rec.Stats.DayStart = dayStart
		rec.Stats.SwapCount = uint64(swapCount)
		rec.Stats.Participants = uint64(participants)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}
	return records, nil
}

// DayCount reports how many days the archive holds.
func (s *Store) DayCount(ctx context.Context) (uint64, error) {
	if s == nil {
		return 0, fmt.Errorf("storage not configured")
	}
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stat_days`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count days: %w", err)
	}
	return uint64(count), nil
}

// SaveToday upserts the single running-day row.
func (s *Store) SaveToday(ctx context.Context, day DayStats, updated time.Time) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO stat_today(id, day_start, released, released_normal, released_reverse, swap_count, participants, updated_at)
        VALUES(0, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            day_start=excluded.day_start,
            released=excluded.released,
            released_normal=excluded.released_normal,
            released_reverse=excluded.released_reverse,
            swap_count=excluded.swap_count,
            participants=excluded.participants,
            updated_at=excluded.updated_at
    `, day.DayStart, normalizeAmount(day.Released), normalizeAmount(day.ReleasedNormal), normalizeAmount(day.ReleasedReverse), int64(day.SwapCount), int64(day.Participants), updated.UTC())
	if err != nil {
		return fmt.Errorf("save today: %w", err)
	}
	return nil
}

// Today returns the most recently polled running day when present.
func (s *Store) Today(ctx context.Context) (DayStats, bool, error) {
	if s == nil {
		return DayStats{}, false, fmt.Errorf("storage not configured")
	}
	row := s.db.QueryRowContext(ctx, `
        SELECT day_start, released, released_normal, released_reverse, swap_count, participants
        FROM stat_today
        WHERE id = 0
    `)
	day, err := scanDayStats(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DayStats{}, false, nil
		}
		return DayStats{}, false, fmt.Errorf("query today: %w", err)
	}
	return day, true, nil
}

func scanDayStats(row *sql.Row) (DayStats, error) {
	var (
		day                               DayStats
		dayStart, swapCount, participants int64
	)
	if err := row.Scan(&dayStart, &day.Released, &day.ReleasedNormal, &day.ReleasedReverse, &swapCount, &participants); err != nil {
		return DayStats{}, err
	}
	day.DayStart = dayStart
	day.SwapCount = uint64(swapCount)
	day.Participants = uint64(participants)
	return day, nil
}

func normalizeAmount(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS stat_days (
    day_index INTEGER PRIMARY KEY,
    day_start INTEGER NOT NULL,
    released TEXT NOT NULL,
    released_normal TEXT NOT NULL,
    released_reverse TEXT NOT NULL,
    swap_count INTEGER NOT NULL,
    participants INTEGER NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stat_days_start ON stat_days(day_start);

CREATE TABLE IF NOT EXISTS stat_today (
    id INTEGER PRIMARY KEY CHECK (id = 0),
    day_start INTEGER NOT NULL,
    released TEXT NOT NULL,
    released_normal TEXT NOT NULL,
    released_reverse TEXT NOT NULL,
    swap_count INTEGER NOT NULL,
    participants INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`
