package statsd

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	bucketCursor  = []byte("cursor")
	keyNextDay    = []byte("next_day")
	keyLastExport = []byte("last_export")
)

// CursorStore persists the poll cursor and export watermark between runs.
type CursorStore struct {
	db *bbolt.DB
}

// OpenCursor opens (or creates) the cursor database.
func OpenCursor(path string) (*CursorStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("statsd: cursor path must be configured")
	}
	db, err := bbolt.Open(trimmed, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCursor)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &CursorStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *CursorStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NextDay returns the first archive index that has not been polled yet. A
// fresh store starts at zero.
func (s *CursorStore) NextDay() (uint64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("cursor store not initialised")
	}
	var next uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketCursor).Get(keyNextDay)
		if len(raw) == 8 {
			next = binary.BigEndian.Uint64(raw)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// SetNextDay advances the poll cursor.
func (s *CursorStore) SetNextDay(index uint64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("cursor store not initialised")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, index)
		return tx.Bucket(bucketCursor).Put(keyNextDay, buf)
	})
}

// LastExport returns when the archive snapshot last ran, zero when it never
// has.
func (s *CursorStore) LastExport() (time.Time, error) {
	if s == nil || s.db == nil {
		return time.Time{}, fmt.Errorf("cursor store not initialised")
	}
	var unix uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketCursor).Get(keyLastExport)
		if len(raw) == 8 {
			unix = binary.BigEndian.Uint64(raw)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	if unix == 0 {
		return time.Time{}, nil
	}
	return time.Unix(int64(unix), 0).UTC(), nil
}

// SetLastExport records the export watermark.
func (s *CursorStore) SetLastExport(at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("cursor store not initialised")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(at.UTC().Unix()))
		return tx.Bucket(bucketCursor).Put(keyLastExport, buf)
	})
}
