package registry

import (
	"errors"
	"strings"
	"time"

	"rotexchain/core/events"
)

// DefaultMaxParticipants caps lifetime registrations.
const DefaultMaxParticipants uint64 = 5000

var (
	// ErrCapacityReached rejects registrations beyond the participant cap.
	ErrCapacityReached = errors.New("registry: participant capacity reached")
	// ErrTokenExists rejects a second admission of the same symbol.
	ErrTokenExists = errors.New("registry: token already admitted")
	// ErrTokenNotFound indicates the symbol was never admitted.
	ErrTokenNotFound = errors.New("registry: token not admitted")
	// ErrTokenEmpty rejects blank symbols.
	ErrTokenEmpty = errors.New("registry: empty token symbol")
	// ErrPoolNotAttached indicates the token has no liquidity pair bound yet.
	ErrPoolNotAttached = errors.New("registry: no pool attached to token")
	// ErrPoolIDEmpty rejects blank pair identifiers.
	ErrPoolIDEmpty = errors.New("registry: empty pool id")

	errNilState = errors.New("registry engine: state not configured")
)

// TokenEntry describes an admitted auction token. Entries are never deleted.
type TokenEntry struct {
	Symbol    string
	PairID    string
	Owner     [20]byte
	Supported bool
	CreatedAt int64
}

// Clone returns a copy safe for caller mutation.
func (t *TokenEntry) Clone() *TokenEntry {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

type engineState interface {
	ParticipantCount() (uint64, error)
	PutParticipantCount(uint64) error
	ParticipantExists(addr [20]byte) (bool, error)
	MarkParticipant(addr [20]byte) error
	RegistryToken(symbol string) (*TokenEntry, bool, error)
	PutRegistryToken(*TokenEntry) error
	RegistryTokenSymbols() ([]string, error)
}

// Engine tracks lifetime participants and the roster of admitted auction
// tokens.
type Engine struct {
	state           engineState
	emitter         events.Emitter
	nowFn           func() int64
	maxParticipants uint64
}

// NewEngine creates a registry engine with the default participant cap and a
// no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter:         events.NoopEmitter{},
		nowFn:           func() int64 { return time.Now().Unix() },
		maxParticipants: DefaultMaxParticipants,
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

// SetMaxParticipants overrides the registration cap. Zero restores the
// default.
func (e *Engine) SetMaxParticipants(max uint64) {
	if max == 0 {
		max = DefaultMaxParticipants
	}
	e.maxParticipants = max
}

// RegisterIfNew admits user on first contact. Registered users pass through
// untouched; new users must fit under the lifetime cap. Reports whether the
// registration was new.
func (e *Engine) RegisterIfNew(user [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	exists, err := e.state.ParticipantExists(user)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	count, err := e.state.ParticipantCount()
	if err != nil {
		return false, err
	}
	if count >= e.maxParticipants {
		return false, ErrCapacityReached
	}
	if err := e.state.MarkParticipant(user); err != nil {
		return false, err
	}
	if err := e.state.PutParticipantCount(count + 1); err != nil {
		return false, err
	}
	e.emitter.Emit(events.RegistryParticipantAdded{User: user, Count: count + 1})
	return true, nil
}

// Participants reports the lifetime registration count.
func (e *Engine) Participants() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.ParticipantCount()
}

// Registered reports whether user has ever registered.
func (e *Engine) Registered(user [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.ParticipantExists(user)
}

// AdmitToken records a new auction token owned by owner. The symbol must be
// unused; the entry starts supported with no pool attached.
func (e *Engine) AdmitToken(symbol string, owner [20]byte) (*TokenEntry, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return nil, ErrTokenEmpty
	}
	if _, ok, err := e.state.RegistryToken(normalized); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrTokenExists
	}
	entry := &TokenEntry{
		Symbol:    normalized,
		Owner:     owner,
		Supported: true,
		CreatedAt: e.nowFn(),
	}
	if err := e.state.PutRegistryToken(entry); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RegistryTokenAdded{Symbol: normalized, Owner: owner})
	return entry.Clone(), nil
}

// AttachPool binds the liquidity pair the exchange flows price against.
func (e *Engine) AttachPool(symbol, pairID string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if strings.TrimSpace(pairID) == "" {
		return ErrPoolIDEmpty
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	entry, ok, err := e.state.RegistryToken(normalized)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	entry.PairID = strings.TrimSpace(pairID)
	return e.state.PutRegistryToken(entry)
}

// Token returns the registry entry for symbol.
func (e *Engine) Token(symbol string) (*TokenEntry, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	entry, ok, err := e.state.RegistryToken(strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenNotFound
	}
	return entry.Clone(), nil
}

// PairID resolves the liquidity pair bound to symbol.
func (e *Engine) PairID(symbol string) (string, error) {
	entry, err := e.Token(symbol)
	if err != nil {
		return "", err
	}
	if entry.PairID == "" {
		return "", ErrPoolNotAttached
	}
	return entry.PairID, nil
}

// Supported reports whether symbol is admitted and currently supported.
func (e *Engine) Supported(symbol string) (bool, error) {
	entry, err := e.Token(symbol)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return false, nil
		}
		return false, err
	}
	return entry.Supported, nil
}

// TokenSymbols lists every admitted symbol.
func (e *Engine) TokenSymbols() ([]string, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.RegistryTokenSymbols()
}
