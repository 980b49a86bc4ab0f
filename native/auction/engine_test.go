package auction

import (
	"errors"
	"testing"
)

type stubState struct {
	schedule *Schedule
	tokens   map[string]bool
}

func newStubState(symbols ...string) *stubState {
	tokens := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		tokens[symbol] = true
	}
	return &stubState{tokens: tokens}
}

func (s *stubState) AuctionSchedule() (*Schedule, bool, error) {
	if s.schedule == nil {
		return nil, false, nil
	}
	return s.schedule, true, nil
}

func (s *stubState) PutAuctionSchedule(schedule *Schedule) error {
	s.schedule = schedule
	return nil
}

func (s *stubState) TokenExists(symbol string) bool { return s.tokens[symbol] }

func newTestEngine(state *stubState, duration, gap int64) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetRotation(0, duration, gap)
	return engine
}

func TestSetScheduleValidation(t *testing.T) {
	state := newStubState("AUR", "BOL")
	engine := newTestEngine(state, 7200, 0)

	if _, err := engine.SetSchedule(nil, 1000); !errors.Is(err, ErrScheduleSize) {
		t.Fatalf("expected ErrScheduleSize for empty roster, got %v", err)
	}
	engine.SetRotation(3, 7200, 0)
	if _, err := engine.SetSchedule([]string{"AUR", "BOL"}, 1000); !errors.Is(err, ErrScheduleSize) {
		t.Fatalf("expected ErrScheduleSize for roster size mismatch, got %v", err)
	}
	engine.SetRotation(0, 7200, 0)
	if _, err := engine.SetSchedule([]string{"AUR", "  "}, 1000); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
	if _, err := engine.SetSchedule([]string{"AUR", "aur"}, 1000); !errors.Is(err, ErrTokenDuplicate) {
		t.Fatalf("expected ErrTokenDuplicate, got %v", err)
	}
	if _, err := engine.SetSchedule([]string{"AUR", "MISSING"}, 1000); !errors.Is(err, ErrTokenUnsupported) {
		t.Fatalf("expected ErrTokenUnsupported, got %v", err)
	}
	if _, err := engine.SetSchedule([]string{"AUR", "BOL"}, 0); !errors.Is(err, ErrInvalidStart) {
		t.Fatalf("expected ErrInvalidStart, got %v", err)
	}

	schedule, err := engine.SetSchedule([]string{"aur", "bol"}, 1000)
	if err != nil {
		t.Fatalf("set schedule: %v", err)
	}
	if schedule.Tokens[0] != "AUR" || schedule.Tokens[1] != "BOL" {
		t.Fatalf("expected normalised roster, got %v", schedule.Tokens)
	}
	if schedule.DaysLimit != 40 {
		t.Fatalf("expected days limit 40, got %d", schedule.DaysLimit)
	}
	if _, err := engine.SetSchedule([]string{"AUR", "BOL"}, 2000); !errors.Is(err, ErrScheduleAlreadySet) {
		t.Fatalf("expected ErrScheduleAlreadySet, got %v", err)
	}
}

func TestRotationAssignsSlots(t *testing.T) {
	state := newStubState("AUR", "BOL")
	engine := newTestEngine(state, 7200, 0)
	if _, err := engine.SetSchedule([]string{"AUR", "BOL"}, 1000); err != nil {
		t.Fatalf("set schedule: %v", err)
	}

	cases := []struct {
		now        int64
		token      string
		appearance uint64
	}{
		{1000, "AUR", 1},
		{8199, "AUR", 1},
		{8200, "BOL", 1},
		{15400, "AUR", 2},
		{22600, "BOL", 2},
	}
	for _, tc := range cases {
		slot, err := engine.TodayToken(tc.now)
		if err != nil {
			t.Fatalf("today token at %d: %v", tc.now, err)
		}
		if slot.Token != tc.token {
			t.Fatalf("at %d expected token %s, got %s", tc.now, tc.token, slot.Token)
		}
		if slot.Appearance != tc.appearance {
			t.Fatalf("at %d expected appearance %d, got %d", tc.now, tc.appearance, slot.Appearance)
		}
		if !slot.Active {
			t.Fatalf("at %d expected active window", tc.now)
		}
	}

	if _, err := engine.TodayToken(999); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted before start, got %v", err)
	}

	left, err := engine.TimeLeft("AUR", 1000)
	if err != nil || left != 7200 {
		t.Fatalf("expected 7200 seconds left, got %d (%v)", left, err)
	}
	left, err = engine.TimeLeft("BOL", 1000)
	if err != nil || left != 0 {
		t.Fatalf("expected 0 seconds left for inactive token, got %d (%v)", left, err)
	}
	left, err = engine.TimeLeft("AUR", 15500)
	if err != nil || left != 7100 {
		t.Fatalf("expected 7100 seconds left on second appearance, got %d (%v)", left, err)
	}
}

func TestAppearanceCounting(t *testing.T) {
	state := newStubState("AUR", "BOL")
	engine := newTestEngine(state, 7200, 0)
	if _, err := engine.SetSchedule([]string{"AUR", "BOL"}, 1000); err != nil {
		t.Fatalf("set schedule: %v", err)
	}

	count, err := engine.AppearanceCount("AUR", 500)
	if err != nil || count != 0 {
		t.Fatalf("expected 0 appearances before start, got %d (%v)", count, err)
	}
	count, err = engine.AppearanceCount("BOL", 1000)
	if err != nil || count != 0 {
		t.Fatalf("expected 0 appearances before first slot, got %d (%v)", count, err)
	}
	count, err = engine.AppearanceCount("BOL", 15400)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 appearance for idle token, got %d (%v)", count, err)
	}
	count, err = engine.AppearanceCount("AUR", 15400)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 appearances for active token, got %d (%v)", count, err)
	}
	count, err = engine.AppearanceCount("UNKNOWN", 15400)
	if err != nil || count != 0 {
		t.Fatalf("expected 0 appearances for unknown token, got %d (%v)", count, err)
	}
}

func TestReverseWindowsEveryFourthAppearance(t *testing.T) {
	state := newStubState("AUR")
	engine := newTestEngine(state, 10, 0)
	if _, err := engine.SetSchedule([]string{"AUR"}, 100); err != nil {
		t.Fatalf("set schedule: %v", err)
	}

	for appearance := uint64(1); appearance <= MaxCycles; appearance++ {
		now := int64(100 + (appearance-1)*10)
		slot, err := engine.TodayToken(now)
		if err != nil {
			t.Fatalf("today token appearance %d: %v", appearance, err)
		}
		if slot.Appearance != appearance {
			t.Fatalf("expected appearance %d, got %d", appearance, slot.Appearance)
		}
		wantReverse := appearance%4 == 0
		if slot.Reverse != wantReverse {
			t.Fatalf("appearance %d: expected reverse=%v", appearance, wantReverse)
		}
		active, err := engine.IsReverseActive("AUR", now)
		if err != nil {
			t.Fatalf("reverse query appearance %d: %v", appearance, err)
		}
		if active != wantReverse {
			t.Fatalf("appearance %d: expected IsReverseActive=%v", appearance, wantReverse)
		}
	}
}

func TestGapSuspendsWindow(t *testing.T) {
	state := newStubState("AUR", "BOL")
	engine := newTestEngine(state, 100, 50)
	if _, err := engine.SetSchedule([]string{"AUR", "BOL"}, 1000); err != nil {
		t.Fatalf("set schedule: %v", err)
	}

	slot, err := engine.TodayToken(1120)
	if err != nil {
		t.Fatalf("today token inside gap: %v", err)
	}
	if slot.Active {
		t.Fatalf("expected inactive slot inside gap")
	}
	if slot.Token != "AUR" {
		t.Fatalf("expected gap slot to project AUR, got %s", slot.Token)
	}
	if _, err := engine.ActiveSlot(1120); !errors.Is(err, ErrNoActiveAuction) {
		t.Fatalf("expected ErrNoActiveAuction inside gap, got %v", err)
	}
	left, err := engine.TimeLeft("AUR", 1120)
	if err != nil || left != 0 {
		t.Fatalf("expected 0 seconds left inside gap, got %d (%v)", left, err)
	}

	slot, err = engine.TodayToken(1150)
	if err != nil {
		t.Fatalf("today token after gap: %v", err)
	}
	if !slot.Active || slot.Token != "BOL" {
		t.Fatalf("expected BOL active after gap, got %+v", slot)
	}
}

func TestCycleBudgetExhausted(t *testing.T) {
	state := newStubState("AUR")
	engine := newTestEngine(state, 10, 0)
	if _, err := engine.SetSchedule([]string{"AUR"}, 100); err != nil {
		t.Fatalf("set schedule: %v", err)
	}

	lastWindow := int64(100 + 19*10)
	slot, err := engine.TodayToken(lastWindow)
	if err != nil {
		t.Fatalf("today token final window: %v", err)
	}
	if slot.Appearance != MaxCycles {
		t.Fatalf("expected final appearance %d, got %d", MaxCycles, slot.Appearance)
	}

	done := int64(100 + 20*10)
	if _, err := engine.TodayToken(done); !errors.Is(err, ErrCyclesCompleted) {
		t.Fatalf("expected ErrCyclesCompleted, got %v", err)
	}
	count, err := engine.AppearanceCount("AUR", done)
	if err != nil || count != MaxCycles {
		t.Fatalf("expected capped appearance count %d, got %d (%v)", MaxCycles, count, err)
	}
	left, err := engine.TimeLeft("AUR", done)
	if err != nil || left != 0 {
		t.Fatalf("expected 0 seconds left after exhaustion, got %d (%v)", left, err)
	}
	reverse, err := engine.IsReverseActive("AUR", done)
	if err != nil || reverse {
		t.Fatalf("expected no reverse window after exhaustion, got %v (%v)", reverse, err)
	}
}

func TestScheduleUnsetQueries(t *testing.T) {
	engine := newTestEngine(newStubState("AUR"), 10, 0)

	if _, err := engine.TodayToken(100); !errors.Is(err, ErrScheduleNotSet) {
		t.Fatalf("expected ErrScheduleNotSet, got %v", err)
	}
	left, err := engine.TimeLeft("AUR", 100)
	if err != nil || left != 0 {
		t.Fatalf("expected 0 time left without schedule, got %d (%v)", left, err)
	}
	count, err := engine.AppearanceCount("AUR", 100)
	if err != nil || count != 0 {
		t.Fatalf("expected 0 appearances without schedule, got %d (%v)", count, err)
	}
}
