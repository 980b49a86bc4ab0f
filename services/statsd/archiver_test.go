package statsd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rotexchain/integrations/webhooks"
)

type fakeStatsSource struct {
	today    DayStats
	days     []DayStats
	dayCalls int
}

func (f *fakeStatsSource) StatsToday(ctx context.Context) (DayStats, error) {
	_ = ctx
	return f.today, nil
}

func (f *fakeStatsSource) StatsDayCount(ctx context.Context) (uint64, error) {
	_ = ctx
	return uint64(len(f.days)), nil
}

func (f *fakeStatsSource) StatsDay(ctx context.Context, index uint64) (DayStats, bool, error) {
	_ = ctx
	f.dayCalls++
	if index >= uint64(len(f.days)) {
		return DayStats{}, false, nil
	}
	return f.days[index], true, nil
}

func openTestCursor(t *testing.T) *CursorStore {
	t.Helper()
	cursor, err := OpenCursor(filepath.Join(t.TempDir(), "cursor.db"))
	if err != nil {
		t.Fatalf("open cursor: %v", err)
	}
	t.Cleanup(func() { _ = cursor.Close() })
	return cursor
}

func TestArchiverTickArchivesNewDays(t *testing.T) {
	store := openTestStore(t)
	cursor := openTestCursor(t)
	source := &fakeStatsSource{
		today: sampleStats(1_700_172_800, "50"),
		days:  []DayStats{sampleStats(1_700_000_000, "100"), sampleStats(1_700_086_400, "200")},
	}
	archiver, err := New(source, store, cursor, time.Second)
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	ctx := context.Background()
	if err := archiver.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	count, err := store.DayCount(ctx)
	if err != nil {
		t.Fatalf("day count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 archived days, got %d", count)
	}
	next, err := cursor.NextDay()
	if err != nil {
		t.Fatalf("next day: %v", err)
	}
	if next != 2 {
		t.Fatalf("cursor should point past archive, got %d", next)
	}
	today, ok, err := store.Today(ctx)
	if err != nil || !ok {
		t.Fatalf("today missing: ok=%v err=%v", ok, err)
	}
	if today.Released != "50" {
		t.Fatalf("unexpected today: %+v", today)
	}

	// A later tick only fetches the newly announced day.
	source.days = append(source.days, sampleStats(1_700_172_800, "300"))
	source.dayCalls = 0
	if err := archiver.Tick(ctx); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if source.dayCalls != 1 {
		t.Fatalf("expected one day fetch, got %d", source.dayCalls)
	}
	count, _ = store.DayCount(ctx)
	if count != 3 {
		t.Fatalf("expected 3 archived days, got %d", count)
	}
	day, ok, err := store.Day(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("day 2 missing: ok=%v err=%v", ok, err)
	}
	if day.Released != "300" {
		t.Fatalf("unexpected day 2: %+v", day)
	}
}

func TestArchiverTickIdleWhenCaughtUp(t *testing.T) {
	store := openTestStore(t)
	cursor := openTestCursor(t)
	source := &fakeStatsSource{today: sampleStats(1_700_000_000, "10")}
	archiver, err := New(source, store, cursor, time.Second)
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	ctx := context.Background()
	if err := archiver.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if source.dayCalls != 0 {
		t.Fatalf("expected no day fetches, got %d", source.dayCalls)
	}
	if err := archiver.Tick(ctx); err != nil {
		t.Fatalf("idle tick: %v", err)
	}
	count, err := store.DayCount(ctx)
	if err != nil {
		t.Fatalf("day count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty archive, got %d", count)
	}
}

func TestArchiverBatchLimitCapsFetch(t *testing.T) {
	store := openTestStore(t)
	cursor := openTestCursor(t)
	source := &fakeStatsSource{
		today: sampleStats(1_700_259_200, "1"),
		days: []DayStats{
			sampleStats(1_700_000_000, "1"),
			sampleStats(1_700_086_400, "2"),
			sampleStats(1_700_172_800, "3"),
		},
	}
	archiver, err := New(source, store, cursor, time.Second, WithBatchLimit(2))
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	ctx := context.Background()
	if err := archiver.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	next, _ := cursor.NextDay()
	if next != 2 {
		t.Fatalf("expected cursor at 2 after capped tick, got %d", next)
	}
	if err := archiver.Tick(ctx); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	next, _ = cursor.NextDay()
	if next != 3 {
		t.Fatalf("expected cursor at 3, got %d", next)
	}
}

func TestArchiverExportCadence(t *testing.T) {
	store := openTestStore(t)
	cursor := openTestCursor(t)
	exportDir := t.TempDir()
	exporter, err := NewExporter(store, exportDir)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	now := time.Unix(1_700_000_000, 0).UTC()
	exporter.now = func() time.Time { return now }
	source := &fakeStatsSource{
		today: sampleStats(1_700_086_400, "5"),
		days:  []DayStats{sampleStats(1_700_000_000, "100")},
	}
	archiver, err := New(source, store, cursor, time.Second,
		WithExporter(exporter, time.Hour),
		WithClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	ctx := context.Background()
	if err := archiver.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := countEntries(t, exportDir); got != 1 {
		t.Fatalf("expected one export batch, got %d", got)
	}

	// Half an hour later the watermark suppresses a second export.
	now = now.Add(30 * time.Minute)
	if err := archiver.Tick(ctx); err != nil {
		t.Fatalf("tick at 30m: %v", err)
	}
	if got := countEntries(t, exportDir); got != 1 {
		t.Fatalf("expected export suppressed, got %d batches", got)
	}

	now = now.Add(35 * time.Minute)
	if err := archiver.Tick(ctx); err != nil {
		t.Fatalf("tick at 65m: %v", err)
	}
	if got := countEntries(t, exportDir); got != 2 {
		t.Fatalf("expected second export batch, got %d", got)
	}
}

func TestNewArchiverValidatesDependencies(t *testing.T) {
	store := openTestStore(t)
	cursor := openTestCursor(t)
	source := &fakeStatsSource{}
	if _, err := New(nil, store, cursor, time.Second); err == nil {
		t.Fatalf("expected error for missing source")
	}
	if _, err := New(source, nil, cursor, time.Second); err == nil {
		t.Fatalf("expected error for missing store")
	}
	if _, err := New(source, store, nil, time.Second); err == nil {
		t.Fatalf("expected error for missing cursor")
	}
	if _, err := New(source, store, cursor, 0); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}

func TestArchiverNotifiesWebhookOnArchive(t *testing.T) {
	store := openTestStore(t)
	cursor := openTestCursor(t)
	source := &fakeStatsSource{
		today: sampleStats(1_700_172_800, "50"),
		days:  []DayStats{sampleStats(1_700_000_000, "100"), sampleStats(1_700_086_400, "200")},
	}
	received := make(chan webhooks.DaysArchivedPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload webhooks.DaysArchivedPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	hooks, err := webhooks.NewDispatcher(server.URL, []byte("secret"))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	defer hooks.Close()
	archiver, err := New(source, store, cursor, time.Second, WithWebhooks(hooks))
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	if err := archiver.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	select {
	case payload := <-received:
		if payload.Type != webhooks.EventDaysArchived {
			t.Fatalf("unexpected event type %s", payload.Type)
		}
		if payload.FirstIndex != 0 || payload.LastIndex != 1 || payload.Count != 2 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("webhook not delivered")
	}

	// A caught-up tick stays silent.
	if err := archiver.Tick(context.Background()); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	select {
	case payload := <-received:
		t.Fatalf("unexpected delivery: %+v", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	return len(entries)
}
