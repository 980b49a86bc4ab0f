package stats

import (
	"fmt"
	"math/big"
	"testing"
)

func TestNextBoundary(t *testing.T) {
	cases := []struct {
		ts          int64
		offsetHours int
		hour        int
		minute      int
		want        int64
	}{
		{0, 5, 23, 0, 64800},
		{64799, 5, 23, 0, 64800},
		{64800, 5, 23, 0, 151200},
		{151199, 5, 23, 0, 151200},
		{0, 0, 0, 0, 86400},
		{1, 0, 12, 30, 45000},
	}
	for _, tc := range cases {
		got := NextBoundary(tc.ts, tc.offsetHours, tc.hour, tc.minute)
		if got != tc.want {
			t.Fatalf("NextBoundary(%d, %d, %d:%02d) = %d, want %d", tc.ts, tc.offsetHours, tc.hour, tc.minute, got, tc.want)
		}
		if got <= tc.ts {
			t.Fatalf("boundary %d not strictly after %d", got, tc.ts)
		}
	}
}

type stubState struct {
	current      *Counters
	days         map[uint64]*Counters
	participants map[string]bool
}

func newStubState() *stubState {
	return &stubState{days: make(map[uint64]*Counters), participants: make(map[string]bool)}
}

func (s *stubState) StatsCurrent() (*Counters, bool, error) {
	if s.current == nil {
		return nil, false, nil
	}
	return s.current.Clone(), true, nil
}

func (s *stubState) PutStatsCurrent(c *Counters) error {
	s.current = c.Clone()
	return nil
}

func (s *stubState) AppendStatsDay(index uint64, day *Counters) error {
	s.days[index] = day.Clone()
	return nil
}

func (s *stubState) StatsDay(index uint64) (*Counters, bool, error) {
	day, ok := s.days[index]
	if !ok {
		return nil, false, nil
	}
	return day.Clone(), true, nil
}

func (s *stubState) StatsDayCount() (uint64, error) { return uint64(len(s.days)), nil }

func (s *stubState) StatsParticipantSeen(dayStart int64, addr [20]byte) (bool, error) {
	return s.participants[participantKey(dayStart, addr)], nil
}

func (s *stubState) MarkStatsParticipant(dayStart int64, addr [20]byte) error {
	s.participants[participantKey(dayStart, addr)] = true
	return nil
}

func participantKey(dayStart int64, addr [20]byte) string {
	return fmt.Sprintf("%d/%x", dayStart, addr)
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func newTestLedger(state *stubState) *Ledger {
	ledger := NewLedger()
	ledger.SetState(state)
	return ledger
}

func TestRolloverOpensInitialDay(t *testing.T) {
	state := newStubState()
	ledger := newTestLedger(state)

	archived, err := ledger.Rollover(100000)
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if archived {
		t.Fatalf("first rollover must only open the day")
	}
	if state.current == nil || state.current.DayStart != 64800 {
		t.Fatalf("expected day open at 64800, got %+v", state.current)
	}
}

func TestRolloverArchivesExpiredDay(t *testing.T) {
	state := newStubState()
	ledger := newTestLedger(state)
	if _, err := ledger.Rollover(100000); err != nil {
		t.Fatalf("open day: %v", err)
	}

	user := newTestAddress(0xaa)
	if err := ledger.RecordRelease(big.NewInt(11940), false); err != nil {
		t.Fatalf("record release: %v", err)
	}
	if err := ledger.RecordRelease(big.NewInt(60), true); err != nil {
		t.Fatalf("record reverse release: %v", err)
	}
	if err := ledger.RecordSwap(user); err != nil {
		t.Fatalf("record swap: %v", err)
	}
	if err := ledger.RecordSwap(user); err != nil {
		t.Fatalf("record second swap: %v", err)
	}

	archived, err := ledger.Rollover(151200)
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if !archived {
		t.Fatalf("expected day archive at boundary")
	}

	day, ok, err := ledger.Day(0)
	if err != nil || !ok {
		t.Fatalf("archived day missing: %v", err)
	}
	if day.Counters.Released.Cmp(big.NewInt(12000)) != 0 {
		t.Fatalf("expected released 12000, got %s", day.Counters.Released)
	}
	if day.Counters.ReleasedNormal.Cmp(big.NewInt(11940)) != 0 {
		t.Fatalf("expected normal released 11940, got %s", day.Counters.ReleasedNormal)
	}
	if day.Counters.ReleasedReverse.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected reverse released 60, got %s", day.Counters.ReleasedReverse)
	}
	if day.Counters.SwapCount != 2 {
		t.Fatalf("expected 2 swaps, got %d", day.Counters.SwapCount)
	}
	if day.Counters.Participants != 1 {
		t.Fatalf("expected 1 unique participant, got %d", day.Counters.Participants)
	}
	if state.current.DayStart != 151200 {
		t.Fatalf("expected next day open at 151200, got %d", state.current.DayStart)
	}

	count, err := ledger.DayCount()
	if err != nil || count != 1 {
		t.Fatalf("expected 1 archived day, got %d (%v)", count, err)
	}
}

func TestRolloverIdempotentWithinDay(t *testing.T) {
	state := newStubState()
	ledger := newTestLedger(state)
	if _, err := ledger.Rollover(100000); err != nil {
		t.Fatalf("open day: %v", err)
	}

	for _, now := range []int64{100001, 120000, 151199} {
		archived, err := ledger.Rollover(now)
		if err != nil {
			t.Fatalf("rollover at %d: %v", now, err)
		}
		if archived {
			t.Fatalf("unexpected archive at %d", now)
		}
	}
	if len(state.days) != 0 {
		t.Fatalf("expected no archived days, got %d", len(state.days))
	}
}

func TestParticipantsResetAcrossDays(t *testing.T) {
	state := newStubState()
	ledger := newTestLedger(state)
	if _, err := ledger.Rollover(100000); err != nil {
		t.Fatalf("open day: %v", err)
	}

	user := newTestAddress(0x01)
	other := newTestAddress(0x02)
	if err := ledger.RecordSwap(user); err != nil {
		t.Fatalf("record swap: %v", err)
	}
	if err := ledger.RecordSwap(other); err != nil {
		t.Fatalf("record swap: %v", err)
	}
	if state.current.Participants != 2 {
		t.Fatalf("expected 2 participants, got %d", state.current.Participants)
	}

	if _, err := ledger.Rollover(151200); err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if err := ledger.RecordSwap(user); err != nil {
		t.Fatalf("record swap after rollover: %v", err)
	}
	if state.current.Participants != 1 {
		t.Fatalf("expected participant tally to reset, got %d", state.current.Participants)
	}
	if state.current.SwapCount != 1 {
		t.Fatalf("expected swap count to reset, got %d", state.current.SwapCount)
	}
}
