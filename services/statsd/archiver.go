package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"rotexchain/integrations/webhooks"
)

// StatsSource resolves stats payloads from the node.
type StatsSource interface {
	StatsToday(ctx context.Context) (DayStats, error)
	StatsDayCount(ctx context.Context) (uint64, error)
	StatsDay(ctx context.Context, index uint64) (DayStats, bool, error)
}

const defaultBatchLimit = 256

// Archiver drives the poll loop: every tick it refreshes the running day,
// pulls any newly archived days past the cursor, and periodically snapshots
// the archive to disk.
type Archiver struct {
	logger      *slog.Logger
	source      StatsSource
	store       *Store
	cursor      *CursorStore
	interval    time.Duration
	exporter    *Exporter
	exportEvery time.Duration
	batchLimit  int
	hooks       *webhooks.Dispatcher
	now         func() time.Time
	once        sync.Once
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithLogger installs a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock sets the function used to derive timestamps.
func WithClock(clock func() time.Time) Option {
	return func(a *Archiver) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithExporter enables periodic archive snapshots on the supplied cadence.
func WithExporter(exporter *Exporter, every time.Duration) Option {
	return func(a *Archiver) {
		a.exporter = exporter
		a.exportEvery = every
	}
}

// WithBatchLimit caps how many archived days one tick may fetch.
func WithBatchLimit(limit int) Option {
	return func(a *Archiver) {
		if limit > 0 {
			a.batchLimit = limit
		}
	}
}

// WithWebhooks announces archive and snapshot progress to the dispatcher.
func WithWebhooks(hooks *webhooks.Dispatcher) Option {
	return func(a *Archiver) {
		a.hooks = hooks
	}
}

// New constructs an archiver instance.
func New(source StatsSource, store *Store, cursor *CursorStore, interval time.Duration, opts ...Option) (*Archiver, error) {
	if source == nil {
		return nil, fmt.Errorf("stats source required")
	}
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cursor == nil {
		return nil, fmt.Errorf("cursor store required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	archiver := &Archiver{
		logger:     slog.Default(),
		source:     source,
		store:      store,
		cursor:     cursor,
		interval:   interval,
		batchLimit: defaultBatchLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(archiver)
		}
	}
	return archiver, nil
}

// Run blocks, polling the node until the context is cancelled.
func (a *Archiver) Run(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("archiver not configured")
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	a.once.Do(func() {
		a.logger.Info("statsd: archiver started", slog.Duration("interval", a.interval))
	})
	for {
		if err := a.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.Warn("statsd: tick failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick performs a single poll cycle.
func (a *Archiver) Tick(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("archiver not configured")
	}
	now := a.now()
	today, err := a.source.StatsToday(ctx)
	if err != nil {
		return fmt.Errorf("poll today: %w", err)
	}
	if err := a.store.SaveToday(ctx, today, now); err != nil {
		return err
	}
	count, err := a.source.StatsDayCount(ctx)
	if err != nil {
		return fmt.Errorf("poll day count: %w", err)
	}
	next, err := a.cursor.NextDay()
	if err != nil {
		return err
	}
	first := next
	fetched := 0
	for next < count {
		if a.batchLimit > 0 && fetched >= a.batchLimit {
			break
		}
		day, ok, err := a.source.StatsDay(ctx, next)
		if err != nil {
			return fmt.Errorf("poll day %d: %w", next, err)
		}
		if !ok {
			// Announced but not served yet; retry next tick.
			break
		}
		if err := a.store.UpsertDay(ctx, next, day, now); err != nil {
			return err
		}
		next++
		if err := a.cursor.SetNextDay(next); err != nil {
			return err
		}
		fetched++
	}
	if fetched > 0 {
		a.logger.Info("statsd: archived days",
			slog.Int("fetched", fetched),
			slog.Uint64("next", next),
		)
		if a.hooks != nil {
			err := a.hooks.EnqueueDaysArchived(webhooks.DaysArchivedPayload{
				FirstIndex: first,
				LastIndex:  next - 1,
				Count:      fetched,
				ArchivedAt: now.UTC(),
			})
			if err != nil {
				a.logger.Warn("statsd: webhook enqueue failed", slog.Any("error", err))
			}
		}
	}
	return a.maybeExport(ctx, now)
}

func (a *Archiver) maybeExport(ctx context.Context, now time.Time) error {
	if a.exporter == nil || a.exportEvery <= 0 {
		return nil
	}
	last, err := a.cursor.LastExport()
	if err != nil {
		return err
	}
	if !last.IsZero() && now.Sub(last) < a.exportEvery {
		return nil
	}
	result, err := a.exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("export archive: %w", err)
	}
	if err := a.cursor.SetLastExport(now); err != nil {
		return err
	}
	if result.Rows == 0 {
		a.logger.Info("statsd: export skipped, archive empty")
		return nil
	}
	a.logger.Info("statsd: export complete",
		slog.Int("rows", result.Rows),
		slog.String("manifest", result.ManifestPath),
	)
	if a.hooks != nil {
		err := a.hooks.EnqueueExportReady(webhooks.ExportReadyPayload{
			Rows:        result.Rows,
			Manifest:    result.ManifestPath,
			Files:       exportFileNames(result),
			GeneratedAt: now.UTC(),
		})
		if err != nil {
			a.logger.Warn("statsd: webhook enqueue failed", slog.Any("error", err))
		}
	}
	return nil
}

func exportFileNames(result *ExportResult) []string {
	var names []string
	for _, path := range []string{result.CSVPath, result.JSONLPath, result.ParquetPath} {
		if path != "" {
			names = append(names, filepath.Base(path))
		}
	}
	return names
}
