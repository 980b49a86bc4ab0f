package gov

import (
	"errors"
	"time"

	"rotexchain/core/events"
)

// DefaultHandoffDelay is the advisory delay stamped on queued governance
// handoffs: seven days.
const DefaultHandoffDelay int64 = 7 * 86400

var (
	// ErrNotGovernance rejects callers other than the governance address.
	ErrNotGovernance = errors.New("gov: caller is not governance")
	// ErrNotAdminDelegate rejects callers other than the administrative
	// delegate.
	ErrNotAdminDelegate = errors.New("gov: caller is not the admin delegate")
	// ErrNoPendingChange indicates no handoff is queued.
	ErrNoPendingChange = errors.New("gov: no pending change")
	// ErrZeroAddress rejects the zero address where an identity is required.
	ErrZeroAddress = errors.New("gov: zero address")

	errNilState = errors.New("gov engine: state not configured")
)

// PendingChange is a queued governance handoff. The earliest-execution stamp
// is recorded and surfaced for the external timelock policy; the engine does
// not enforce it.
type PendingChange struct {
	NewGovernance     [20]byte
	EarliestExecution int64
}

// Clone returns a copy safe for caller mutation.
func (p *PendingChange) Clone() *PendingChange {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

type engineState interface {
	GovPendingChange() (*PendingChange, bool, error)
	PutGovPendingChange(*PendingChange) error
	ClearGovPendingChange() error
	GovernanceAddress() ([20]byte, bool, error)
	PutGovernanceAddress([20]byte) error
	AdminDelegate() ([20]byte, bool, error)
	PutAdminDelegate([20]byte) error
}

// Engine stores the governance identities and the single queued handoff
// record, and answers the capability checks the other modules delegate to it.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	delay   int64
}

// NewEngine creates a governance engine with the default handoff delay and a
// no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		delay:   DefaultHandoffDelay,
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

// SetHandoffDelay overrides the advisory delay stamped on queued handoffs.
// Non-positive values restore the default.
func (e *Engine) SetHandoffDelay(seconds int64) {
	if seconds <= 0 {
		seconds = DefaultHandoffDelay
	}
	e.delay = seconds
}

// Governance returns the current governance address.
func (e *Engine) Governance() ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, errNilState
	}
	return e.state.GovernanceAddress()
}

// Delegate returns the administrative delegate.
func (e *Engine) Delegate() ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, errNilState
	}
	return e.state.AdminDelegate()
}

// RequireGovernance verifies caller is the governance address.
func (e *Engine) RequireGovernance(caller [20]byte) error {
	governance, ok, err := e.Governance()
	if err != nil {
		return err
	}
	if !ok || governance != caller {
		return ErrNotGovernance
	}
	return nil
}

// RequireAdmin verifies caller is the administrative delegate. When no
// delegate is appointed the governance address administers directly.
func (e *Engine) RequireAdmin(caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	delegate, ok, err := e.state.AdminDelegate()
	if err != nil {
		return err
	}
	if ok {
		if delegate != caller {
			return ErrNotAdminDelegate
		}
		return nil
	}
	if err := e.RequireGovernance(caller); err != nil {
		return ErrNotAdminDelegate
	}
	return nil
}

// SetDelegate re-points the administrative delegate. Governance only.
func (e *Engine) SetDelegate(caller, delegate [20]byte) error {
	if err := e.RequireGovernance(caller); err != nil {
		return err
	}
	if delegate == ([20]byte{}) {
		return ErrZeroAddress
	}
	return e.state.PutAdminDelegate(delegate)
}

// PendingChange returns the queued handoff, if any.
func (e *Engine) PendingChange() (*PendingChange, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	pending, ok, err := e.state.GovPendingChange()
	if err != nil || !ok {
		return nil, ok, err
	}
	return pending.Clone(), true, nil
}

// QueuePendingChange records a governance handoff stamped with the earliest
// execution allowed by the advisory delay. Re-queueing replaces the previous
// record. Admin delegate only.
func (e *Engine) QueuePendingChange(caller, newGovernance [20]byte) (*PendingChange, error) {
	if err := e.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if newGovernance == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	pending := &PendingChange{
		NewGovernance:     newGovernance,
		EarliestExecution: e.nowFn() + e.delay,
	}
	if err := e.state.PutGovPendingChange(pending); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.GovPendingChange{
		NewGovernance:     pending.NewGovernance,
		EarliestExecution: pending.EarliestExecution,
	})
	return pending.Clone(), nil
}

// ClearPendingChange abandons the queued handoff. Admin delegate only.
func (e *Engine) ClearPendingChange(caller [20]byte) error {
	if err := e.RequireAdmin(caller); err != nil {
		return err
	}
	pending, ok, err := e.state.GovPendingChange()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPendingChange
	}
	if err := e.state.ClearGovPendingChange(); err != nil {
		return err
	}
	e.emitter.Emit(events.GovChangeCleared{Abandoned: pending.NewGovernance})
	return nil
}

// CommitPendingChange applies the queued handoff, flipping the governance
// address and clearing the record. Admin delegate only.
func (e *Engine) CommitPendingChange(caller [20]byte) error {
	if err := e.RequireAdmin(caller); err != nil {
		return err
	}
	pending, ok, err := e.state.GovPendingChange()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPendingChange
	}
	previous, _, err := e.state.GovernanceAddress()
	if err != nil {
		return err
	}
	if err := e.state.PutGovernanceAddress(pending.NewGovernance); err != nil {
		return err
	}
	if err := e.state.ClearGovPendingChange(); err != nil {
		return err
	}
	e.emitter.Emit(events.GovChangeCommitted{Previous: previous, Current: pending.NewGovernance})
	return nil
}
