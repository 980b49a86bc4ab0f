package auction

import (
	"errors"
	"time"

	"rotexchain/core/events"
)

var (
	// ErrScheduleAlreadySet rejects a second SetSchedule call; the rotation
	// record is immutable once installed.
	ErrScheduleAlreadySet = errors.New("auction: schedule already set")
	// ErrScheduleSize rejects rosters that do not match the configured size.
	ErrScheduleSize = errors.New("auction: roster size mismatch")
	// ErrTokenEmpty rejects blank roster entries.
	ErrTokenEmpty = errors.New("auction: empty token symbol")
	// ErrTokenDuplicate rejects repeated roster entries.
	ErrTokenDuplicate = errors.New("auction: duplicate token symbol")
	// ErrTokenUnsupported rejects roster entries missing from the token
	// ledger.
	ErrTokenUnsupported = errors.New("auction: token not registered")
	// ErrScheduleNotSet indicates no rotation record exists yet.
	ErrScheduleNotSet = errors.New("auction: schedule not set")
	// ErrNotStarted indicates the rotation start time is still in the future.
	ErrNotStarted = errors.New("auction: rotation not started")
	// ErrNoActiveAuction indicates now falls in the gap between windows.
	ErrNoActiveAuction = errors.New("auction: no active auction window")
	// ErrWrongPhase indicates the requested operation belongs to the other
	// phase of the rotation (normal vs reverse).
	ErrWrongPhase = errors.New("auction: wrong phase for operation")
	// ErrCyclesCompleted indicates the rotation has exhausted its cycle
	// budget.
	ErrCyclesCompleted = errors.New("auction: cycle limit reached")
	// ErrInvalidStart rejects non-positive start times.
	ErrInvalidStart = errors.New("auction: start time must be positive")

	errNilState = errors.New("auction engine: state not configured")
)

type engineState interface {
	AuctionSchedule() (*Schedule, bool, error)
	PutAuctionSchedule(*Schedule) error
	TokenExists(symbol string) bool
}

// Engine resolves the rotation schedule into live window assignments and
// per-token cycle counts.
type Engine struct {
	state      engineState
	emitter    events.Emitter
	nowFn      func() int64
	rosterSize int
	duration   int64
	gap        int64
}

// NewEngine creates an auction engine with a no-op emitter and the one-day
// default window geometry.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
		duration: DefaultDuration,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil restores the no-op
// emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetNowFunc overrides the engine clock, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	e.nowFn = now
}

// SetRotation configures the roster size SetSchedule expects and the slot
// geometry applied to the installed schedule. A zero roster size accepts any
// non-empty roster; a non-positive duration falls back to the one-day
// default.
func (e *Engine) SetRotation(rosterSize int, duration, gap int64) {
	if rosterSize < 0 {
		rosterSize = 0
	}
	e.rosterSize = rosterSize
	if duration <= 0 {
		duration = DefaultDuration
	}
	e.duration = duration
	if gap < 0 {
		gap = 0
	}
	e.gap = gap
}

// Now exposes the engine clock so hosts share a single time source.
func (e *Engine) Now() int64 { return e.nowFn() }

// SetSchedule installs the rotation exactly once. Symbols are normalised to
// upper case and must already exist on the token ledger. The cycle budget is
// fixed at roster size times MaxCycles slots.
func (e *Engine) SetSchedule(tokens []string, startTime int64) (*Schedule, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.AuctionSchedule(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrScheduleAlreadySet
	}
	if startTime <= 0 {
		return nil, ErrInvalidStart
	}
	if len(tokens) == 0 {
		return nil, ErrScheduleSize
	}
	if e.rosterSize > 0 && len(tokens) != e.rosterSize {
		return nil, ErrScheduleSize
	}
	roster := make([]string, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for i, raw := range tokens {
		symbol := NormalizeSymbol(raw)
		if symbol == "" {
			return nil, ErrTokenEmpty
		}
		if _, dup := seen[symbol]; dup {
			return nil, ErrTokenDuplicate
		}
		if !e.state.TokenExists(symbol) {
			return nil, ErrTokenUnsupported
		}
		seen[symbol] = struct{}{}
		roster[i] = symbol
	}
	schedule := &Schedule{
		Tokens:    roster,
		StartTime: startTime,
		Duration:  e.duration,
		Gap:       e.gap,
		DaysLimit: uint64(len(roster)) * MaxCycles,
	}
	if err := e.state.PutAuctionSchedule(schedule); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AuctionScheduleSet{
		Tokens:    roster,
		StartTime: startTime,
		Duration:  e.duration,
		Gap:       e.gap,
	})
	return schedule, nil
}

// Schedule returns the installed rotation record, if any.
func (e *Engine) Schedule() (*Schedule, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.AuctionSchedule()
}

func (e *Engine) slotAt(now int64) (*Schedule, *Slot, error) {
	schedule, ok, err := e.Schedule()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrScheduleNotSet
	}
	if now < schedule.StartTime {
		return schedule, nil, ErrNotStarted
	}
	slot := schedule.Resolve(now)
	if slot.Number >= schedule.DaysLimit {
		return schedule, nil, ErrCyclesCompleted
	}
	return schedule, slot, nil
}

// TodayToken resolves the slot covering now. The slot is returned even inside
// the inter-window gap so callers can surface the upcoming assignment; the
// Active flag reports whether the window itself is open.
func (e *Engine) TodayToken(now int64) (*Slot, error) {
	_, slot, err := e.slotAt(now)
	return slot, err
}

// ActiveSlot is the flow-entry variant of TodayToken: the resolved slot must
// be inside an open window, otherwise ErrNoActiveAuction.
func (e *Engine) ActiveSlot(now int64) (*Slot, error) {
	_, slot, err := e.slotAt(now)
	if err != nil {
		return nil, err
	}
	if !slot.Active {
		return nil, ErrNoActiveAuction
	}
	return slot, nil
}

// TimeLeft reports the seconds remaining in the live window when symbol is
// the active token, zero in every other situation.
func (e *Engine) TimeLeft(symbol string, now int64) (int64, error) {
	_, slot, err := e.slotAt(now)
	if err != nil {
		if errors.Is(err, ErrScheduleNotSet) || errors.Is(err, ErrNotStarted) || errors.Is(err, ErrCyclesCompleted) {
			return 0, nil
		}
		return 0, err
	}
	if !slot.Active || slot.Token != NormalizeSymbol(symbol) {
		return 0, nil
	}
	return slot.WindowEnd - now, nil
}

// AppearanceCount reports how many slots have been assigned to symbol up to
// now, counting the current slot. Zero before the rotation begins or for
// symbols off the roster; once the rotation is exhausted every roster token
// reports the full cycle budget.
func (e *Engine) AppearanceCount(symbol string, now int64) (uint64, error) {
	schedule, slot, err := e.slotAt(now)
	normalized := NormalizeSymbol(symbol)
	switch {
	case err == nil:
	case errors.Is(err, ErrScheduleNotSet), errors.Is(err, ErrNotStarted):
		return 0, nil
	case errors.Is(err, ErrCyclesCompleted):
		if schedule.TokenIndex(normalized) < 0 {
			return 0, nil
		}
		return MaxCycles, nil
	default:
		return 0, err
	}
	index := schedule.TokenIndex(normalized)
	if index < 0 {
		return 0, nil
	}
	return schedule.Appearances(index, slot.Number), nil
}

// IsReverseActive reports whether symbol is live right now inside a reverse
// window. Reverse windows are every fourth appearance of a token.
func (e *Engine) IsReverseActive(symbol string, now int64) (bool, error) {
	_, slot, err := e.slotAt(now)
	if err != nil {
		if errors.Is(err, ErrScheduleNotSet) || errors.Is(err, ErrNotStarted) || errors.Is(err, ErrCyclesCompleted) {
			return false, nil
		}
		return false, err
	}
	return slot.Active && slot.Token == NormalizeSymbol(symbol) && slot.Reverse, nil
}
