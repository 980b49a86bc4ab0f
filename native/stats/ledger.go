package stats

import (
	"errors"
	"math/big"
	"time"

	"rotexchain/core/events"
)

var errNilState = errors.New("stats ledger: state not configured")

// Counters accumulates one day of exchange activity. DayStart is the
// boundary that opened the day.
type Counters struct {
	DayStart        int64
	Released        *big.Int
	ReleasedNormal  *big.Int
	ReleasedReverse *big.Int
	SwapCount       uint64
	Participants    uint64
}

// NewCounters returns a zeroed day anchored at dayStart.
func NewCounters(dayStart int64) *Counters {
	return &Counters{
		DayStart:        dayStart,
		Released:        big.NewInt(0),
		ReleasedNormal:  big.NewInt(0),
		ReleasedReverse: big.NewInt(0),
	}
}

// Clone returns a deep copy so callers can mutate without aliasing stored
// amounts.
func (c *Counters) Clone() *Counters {
	if c == nil {
		return nil
	}
	clone := &Counters{
		DayStart:     c.DayStart,
		SwapCount:    c.SwapCount,
		Participants: c.Participants,
	}
	clone.Released = cloneAmount(c.Released)
	clone.ReleasedNormal = cloneAmount(c.ReleasedNormal)
	clone.ReleasedReverse = cloneAmount(c.ReleasedReverse)
	return clone
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// DayRecord pairs archived counters with their archive index.
type DayRecord struct {
	Index    uint64
	Counters *Counters
}

type engineState interface {
	StatsCurrent() (*Counters, bool, error)
	PutStatsCurrent(*Counters) error
	AppendStatsDay(index uint64, day *Counters) error
	StatsDay(index uint64) (*Counters, bool, error)
	StatsDayCount() (uint64, error)
	StatsParticipantSeen(dayStart int64, addr [20]byte) (bool, error)
	MarkStatsParticipant(dayStart int64, addr [20]byte) error
}

// Ledger maintains the running daily counters and the day archive. Hosts run
// Rollover as the prologue of every entry point; the remaining methods only
// touch the day that is currently open.
type Ledger struct {
	state          engineState
	emitter        events.Emitter
	nowFn          func() int64
	offsetHours    int
	boundaryHour   int
	boundaryMinute int
}

// NewLedger creates a stats ledger bound to the 23:00 UTC+5 boundary.
func NewLedger() *Ledger {
	return &Ledger{
		emitter:        events.NoopEmitter{},
		nowFn:          func() int64 { return time.Now().Unix() },
		offsetHours:    DefaultUTCOffsetHours,
		boundaryHour:   DefaultBoundaryHour,
		boundaryMinute: DefaultBoundaryMinute,
	}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state engineState) { l.state = state }

// SetEmitter configures the event emitter. Passing nil restores the no-op
// emitter.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	l.emitter = emitter
}

// SetNowFunc overrides the ledger clock, primarily for deterministic tests.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	l.nowFn = now
}

// SetBoundary overrides the rollover anchor.
func (l *Ledger) SetBoundary(offsetHours, hour, minute int) {
	l.offsetHours = offsetHours
	l.boundaryHour = hour
	l.boundaryMinute = minute
}

func (l *Ledger) open(now int64) int64 {
	return dayOpen(now, l.offsetHours, l.boundaryHour, l.boundaryMinute)
}

// Rollover archives the running day once it has expired and opens the day
// containing now. Repeat calls inside the same day are no-ops; the first call
// ever only opens the initial day. Reports whether a day was archived.
func (l *Ledger) Rollover(now int64) (bool, error) {
	if l == nil || l.state == nil {
		return false, errNilState
	}
	current, ok, err := l.state.StatsCurrent()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, l.state.PutStatsCurrent(NewCounters(l.open(now)))
	}
	if now < current.DayStart+DayLength {
		return false, nil
	}
	index, err := l.state.StatsDayCount()
	if err != nil {
		return false, err
	}
	if err := l.state.AppendStatsDay(index, current); err != nil {
		return false, err
	}
	if err := l.state.PutStatsCurrent(NewCounters(l.open(now))); err != nil {
		return false, err
	}
	l.emitter.Emit(events.StatsDayClosed{
		DayIndex:        index,
		DayStart:        current.DayStart,
		Released:        cloneAmount(current.Released),
		ReleasedNormal:  cloneAmount(current.ReleasedNormal),
		ReleasedReverse: cloneAmount(current.ReleasedReverse),
		SwapCount:       current.SwapCount,
		Participants:    current.Participants,
	})
	return true, nil
}

func (l *Ledger) mutableCurrent() (*Counters, error) {
	current, ok, err := l.state.StatsCurrent()
	if err != nil {
		return nil, err
	}
	if !ok {
		current = NewCounters(l.open(l.nowFn()))
	}
	return current, nil
}

// RecordRelease adds settlement paid out by a flow to the running day.
func (l *Ledger) RecordRelease(amount *big.Int, reverse bool) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	current, err := l.mutableCurrent()
	if err != nil {
		return err
	}
	current.Released = new(big.Int).Add(cloneAmount(current.Released), amount)
	if reverse {
		current.ReleasedReverse = new(big.Int).Add(cloneAmount(current.ReleasedReverse), amount)
	} else {
		current.ReleasedNormal = new(big.Int).Add(cloneAmount(current.ReleasedNormal), amount)
	}
	return l.state.PutStatsCurrent(current)
}

// RecordSwap counts a pool-mediated swap toward the running day and, on the
// swapper's first swap of the day, the unique-participant tally.
func (l *Ledger) RecordSwap(user [20]byte) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	current, err := l.mutableCurrent()
	if err != nil {
		return err
	}
	current.SwapCount++
	seen, err := l.state.StatsParticipantSeen(current.DayStart, user)
	if err != nil {
		return err
	}
	if !seen {
		if err := l.state.MarkStatsParticipant(current.DayStart, user); err != nil {
			return err
		}
		current.Participants++
	}
	return l.state.PutStatsCurrent(current)
}

// Today returns the running day, zeroed when nothing has been recorded yet.
func (l *Ledger) Today(now int64) (*Counters, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	current, ok, err := l.state.StatsCurrent()
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewCounters(l.open(now)), nil
	}
	return current.Clone(), nil
}

// Day returns the archived record at index.
func (l *Ledger) Day(index uint64) (*DayRecord, bool, error) {
	if l == nil || l.state == nil {
		return nil, false, errNilState
	}
	counters, ok, err := l.state.StatsDay(index)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &DayRecord{Index: index, Counters: counters.Clone()}, true, nil
}

// DayCount reports how many days have been archived.
func (l *Ledger) DayCount() (uint64, error) {
	if l == nil || l.state == nil {
		return 0, errNilState
	}
	return l.state.StatsDayCount()
}
