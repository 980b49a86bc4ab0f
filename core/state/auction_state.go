package state

import (
	"fmt"

	"rotexchain/native/auction"
)

var auctionScheduleKey = []byte("auction/schedule")

// storedSchedule is the RLP shape of the rotation schedule. Timestamps are
// persisted unsigned; validation keeps them non-negative.
type storedSchedule struct {
	Tokens    []string
	StartTime uint64
	Duration  uint64
	Gap       uint64
	DaysLimit uint64
}

// AuctionSchedule loads the rotation schedule, if one has been set.
func (m *Manager) AuctionSchedule() (*auction.Schedule, bool, error) {
	stored := new(storedSchedule)
	ok, err := m.KVGet(auctionScheduleKey, stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &auction.Schedule{
		Tokens:    append([]string(nil), stored.Tokens...),
		StartTime: int64(stored.StartTime),
		Duration:  int64(stored.Duration),
		Gap:       int64(stored.Gap),
		DaysLimit: stored.DaysLimit,
	}, true, nil
}

// PutAuctionSchedule persists the rotation schedule.
func (m *Manager) PutAuctionSchedule(schedule *auction.Schedule) error {
	if schedule == nil {
		return fmt.Errorf("auction: nil schedule")
	}
	return m.KVPut(auctionScheduleKey, &storedSchedule{
		Tokens:    append([]string(nil), schedule.Tokens...),
		StartTime: uint64(schedule.StartTime),
		Duration:  uint64(schedule.Duration),
		Gap:       uint64(schedule.Gap),
		DaysLimit: schedule.DaysLimit,
	})
}
