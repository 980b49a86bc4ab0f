package pool

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"rotexchain/core/events"
	"rotexchain/native/exchange/pricing"
)

var (
	// ErrPairExists rejects creating a pair whose identifier is taken.
	ErrPairExists = errors.New("pool: pair already exists")
	// ErrPairNotFound indicates the pair identifier is unknown.
	ErrPairNotFound = errors.New("pool: pair not found")
	// ErrBadPath rejects swap paths that are not a single hop across the
	// pair's two tokens.
	ErrBadPath = errors.New("pool: invalid swap path")
	// ErrExpired rejects swaps submitted past their deadline.
	ErrExpired = errors.New("pool: deadline expired")
	// ErrSlippage rejects swaps whose quote falls under the minimum output.
	ErrSlippage = errors.New("pool: output below minimum")
	// ErrNoLiquidity indicates the pair cannot quote the requested swap.
	ErrNoLiquidity = errors.New("pool: insufficient liquidity")
	// ErrZeroSeed rejects reserve top-ups that move nothing.
	ErrZeroSeed = errors.New("pool: seed amounts required")

	errNilState = errors.New("pool engine: state not configured")
)

// Pair is a fixed two-token liquidity record. TokenA is the auction token,
// TokenB the settlement token; the reserves mirror the real balances held by
// the pair vault account.
type Pair struct {
	ID       string
	TokenA   string
	TokenB   string
	ReserveA *big.Int
	ReserveB *big.Int
}

// Clone returns a deep copy safe for caller mutation.
func (p *Pair) Clone() *Pair {
	if p == nil {
		return nil
	}
	clone := &Pair{ID: p.ID, TokenA: p.TokenA, TokenB: p.TokenB}
	clone.ReserveA = cloneAmount(p.ReserveA)
	clone.ReserveB = cloneAmount(p.ReserveB)
	return clone
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// PairID derives the canonical identifier for a token pair.
func PairID(tokenA, tokenB string) string {
	return normalize(tokenA) + "-" + normalize(tokenB)
}

func normalize(symbol string) string { return strings.ToUpper(strings.TrimSpace(symbol)) }

type engineState interface {
	PoolPair(id string) (*Pair, bool, error)
	PutPoolPair(*Pair) error
	PoolPairIDForToken(symbol string) (string, bool, error)
	PutPoolPairIDForToken(symbol, id string) error
	PoolVaultAddress(id string) ([20]byte, error)
	TokenExists(symbol string) bool
	Transfer(from, to []byte, symbol string, amount *big.Int) error
	TransferFrom(spender, owner, to []byte, symbol string, amount *big.Int) error
}

// Engine executes constant-product swaps against fixed pairs. It is the
// repository's only liquidity-pool implementation and deliberately stays a
// pair vault: no LP shares, no factory, single-hop paths only.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a pool engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
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

// CreatePair records a fresh pair for the two tokens. Both symbols must exist
// on the token ledger. The auction-token side is indexed for lookups; the
// settlement side is shared across pairs and stays unindexed.
func (e *Engine) CreatePair(tokenA, tokenB string) (*Pair, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	a, b := normalize(tokenA), normalize(tokenB)
	if a == "" || b == "" || a == b {
		return nil, ErrBadPath
	}
	if !e.state.TokenExists(a) || !e.state.TokenExists(b) {
		return nil, ErrBadPath
	}
	id := PairID(a, b)
	if _, ok, err := e.state.PoolPair(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrPairExists
	}
	if _, ok, err := e.state.PoolPairIDForToken(a); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrPairExists
	}
	pair := &Pair{ID: id, TokenA: a, TokenB: b, ReserveA: big.NewInt(0), ReserveB: big.NewInt(0)}
	if err := e.state.PutPoolPair(pair); err != nil {
		return nil, err
	}
	if err := e.state.PutPoolPairIDForToken(a, id); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.PoolPairCreated{ID: id, TokenA: a, TokenB: b})
	return pair.Clone(), nil
}

// Seed moves reserves from funder into the pair vault. Either side may be
// zero but not both.
func (e *Engine) Seed(funder [20]byte, id string, amountA, amountB *big.Int) (*Pair, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pair, ok, err := e.state.PoolPair(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPairNotFound
	}
	if amountA == nil {
		amountA = big.NewInt(0)
	}
	if amountB == nil {
		amountB = big.NewInt(0)
	}
	if amountA.Sign() < 0 || amountB.Sign() < 0 || (amountA.Sign() == 0 && amountB.Sign() == 0) {
		return nil, ErrZeroSeed
	}
	vault, err := e.state.PoolVaultAddress(pair.ID)
	if err != nil {
		return nil, err
	}
	if amountA.Sign() > 0 {
		if err := e.state.Transfer(funder[:], vault[:], pair.TokenA, amountA); err != nil {
			return nil, err
		}
		pair.ReserveA = new(big.Int).Add(cloneAmount(pair.ReserveA), amountA)
	}
	if amountB.Sign() > 0 {
		if err := e.state.Transfer(funder[:], vault[:], pair.TokenB, amountB); err != nil {
			return nil, err
		}
		pair.ReserveB = new(big.Int).Add(cloneAmount(pair.ReserveB), amountB)
	}
	if err := e.state.PutPoolPair(pair); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.PoolSeeded{
		ID:       pair.ID,
		AmountA:  cloneAmount(amountA),
		AmountB:  cloneAmount(amountB),
		ReserveA: cloneAmount(pair.ReserveA),
		ReserveB: cloneAmount(pair.ReserveB),
	})
	return pair.Clone(), nil
}

// Pair returns the stored record for id.
func (e *Engine) Pair(id string) (*Pair, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pair, ok, err := e.state.PoolPair(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPairNotFound
	}
	return pair.Clone(), nil
}

// PairIDForToken resolves the pair indexed under an auction-token symbol.
func (e *Engine) PairIDForToken(symbol string) (string, error) {
	if e == nil || e.state == nil {
		return "", errNilState
	}
	id, ok, err := e.state.PoolPairIDForToken(normalize(symbol))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrPairNotFound
	}
	return id, nil
}

// Reserves reports both reserves and the pair token identities.
func (e *Engine) Reserves(id string) (tokenReserve, settlementReserve *big.Int, tokenSym, settlementSym string, err error) {
	pair, err := e.Pair(id)
	if err != nil {
		return nil, nil, "", "", err
	}
	return pair.ReserveA, pair.ReserveB, pair.TokenA, pair.TokenB, nil
}

// Spender is the pair vault account that pulls swap input via allowance.
func (e *Engine) Spender(id string) ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	if _, ok, err := e.state.PoolPair(id); err != nil {
		return [20]byte{}, err
	} else if !ok {
		return [20]byte{}, ErrPairNotFound
	}
	return e.state.PoolVaultAddress(id)
}

// SwapExactIn executes a single-hop swap along path, pulling amountIn from
// the funding account through its allowance and paying the quoted output
// directly to recipient. The quote must meet minOut and the call must land
// before deadline (zero disables the check).
func (e *Engine) SwapExactIn(id string, path []string, amountIn, minOut *big.Int, from, recipient [20]byte, deadline int64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pair, ok, err := e.state.PoolPair(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPairNotFound
	}
	if len(path) != 2 {
		return nil, ErrBadPath
	}
	in, out := normalize(path[0]), normalize(path[1])
	if in == out {
		return nil, ErrBadPath
	}
	var reserveIn, reserveOut *big.Int
	switch {
	case in == pair.TokenA && out == pair.TokenB:
		reserveIn, reserveOut = pair.ReserveA, pair.ReserveB
	case in == pair.TokenB && out == pair.TokenA:
		reserveIn, reserveOut = pair.ReserveB, pair.ReserveA
	default:
		return nil, ErrBadPath
	}
	if deadline > 0 && e.nowFn() > deadline {
		return nil, ErrExpired
	}
	quote, err := pricing.ConstantProductOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		if errors.Is(err, pricing.ErrNoLiquidity) {
			return nil, ErrNoLiquidity
		}
		return nil, err
	}
	if quote.Sign() <= 0 {
		return nil, ErrNoLiquidity
	}
	if minOut != nil && quote.Cmp(minOut) < 0 {
		return nil, ErrSlippage
	}
	vault, err := e.state.PoolVaultAddress(pair.ID)
	if err != nil {
		return nil, err
	}
	if err := e.state.TransferFrom(vault[:], from[:], vault[:], in, amountIn); err != nil {
		return nil, err
	}
	if err := e.state.Transfer(vault[:], recipient[:], out, quote); err != nil {
		return nil, err
	}
	if in == pair.TokenA {
		pair.ReserveA = new(big.Int).Add(cloneAmount(pair.ReserveA), amountIn)
		pair.ReserveB = new(big.Int).Sub(cloneAmount(pair.ReserveB), quote)
	} else {
		pair.ReserveB = new(big.Int).Add(cloneAmount(pair.ReserveB), amountIn)
		pair.ReserveA = new(big.Int).Sub(cloneAmount(pair.ReserveA), quote)
	}
	if err := e.state.PutPoolPair(pair); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.PoolSwap{
		ID:        pair.ID,
		From:      from,
		Recipient: recipient,
		TokenIn:   in,
		TokenOut:  out,
		AmountIn:  cloneAmount(amountIn),
		AmountOut: cloneAmount(quote),
	})
	return quote, nil
}
