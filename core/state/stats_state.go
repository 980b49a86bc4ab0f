package state

import (
	"fmt"
	"math/big"

	"rotexchain/native/stats"
)

var (
	statsCurrentKey  = []byte("stats/current")
	statsDayCountKey = []byte("stats/days")
)

func statsDayKey(index uint64) []byte {
	return []byte(fmt.Sprintf("stats/day/%d", index))
}

func statsParticipantKey(dayStart int64, addr [20]byte) []byte {
	return []byte(fmt.Sprintf("stats/participant/%d/%x", dayStart, addr))
}

// storedCounters is the RLP shape of a day's counters.
type storedCounters struct {
	DayStart        uint64
	Released        *big.Int
	ReleasedNormal  *big.Int
	ReleasedReverse *big.Int
	SwapCount       uint64
	Participants    uint64
}

func countersToStored(c *stats.Counters) *storedCounters {
	return &storedCounters{
		DayStart:        uint64(c.DayStart),
		Released:        c.Released,
		ReleasedNormal:  c.ReleasedNormal,
		ReleasedReverse: c.ReleasedReverse,
		SwapCount:       c.SwapCount,
		Participants:    c.Participants,
	}
}

func storedToCounters(s *storedCounters) *stats.Counters {
	return &stats.Counters{
		DayStart:        int64(s.DayStart),
		Released:        s.Released,
		ReleasedNormal:  s.ReleasedNormal,
		ReleasedReverse: s.ReleasedReverse,
		SwapCount:       s.SwapCount,
		Participants:    s.Participants,
	}
}

// StatsCurrent loads the counters of the open day.
func (m *Manager) StatsCurrent() (*stats.Counters, bool, error) {
	stored := new(storedCounters)
	ok, err := m.KVGet(statsCurrentKey, stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return storedToCounters(stored), true, nil
}

// PutStatsCurrent persists the counters of the open day.
func (m *Manager) PutStatsCurrent(counters *stats.Counters) error {
	if counters == nil {
		return fmt.Errorf("stats: nil counters")
	}
	return m.KVPut(statsCurrentKey, countersToStored(counters))
}

// AppendStatsDay archives a closed day under the provided index and advances
// the archive length.
func (m *Manager) AppendStatsDay(index uint64, day *stats.Counters) error {
	if day == nil {
		return fmt.Errorf("stats: nil day record")
	}
	if err := m.KVPut(statsDayKey(index), countersToStored(day)); err != nil {
		return err
	}
	return m.KVPut(statsDayCountKey, index+1)
}

// StatsDay loads an archived day by index.
func (m *Manager) StatsDay(index uint64) (*stats.Counters, bool, error) {
	stored := new(storedCounters)
	ok, err := m.KVGet(statsDayKey(index), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return storedToCounters(stored), true, nil
}

// StatsDayCount reports how many days have been archived.
func (m *Manager) StatsDayCount() (uint64, error) {
	var count uint64
	if _, err := m.KVGet(statsDayCountKey, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// StatsParticipantSeen reports whether the address was already counted for
// the day starting at dayStart.
func (m *Manager) StatsParticipantSeen(dayStart int64, addr [20]byte) (bool, error) {
	return m.KVGet(statsParticipantKey(dayStart, addr), nil)
}

// MarkStatsParticipant counts the address for the day starting at dayStart.
func (m *Manager) MarkStatsParticipant(dayStart int64, addr [20]byte) error {
	return m.KVPut(statsParticipantKey(dayStart, addr), uint64(1))
}
