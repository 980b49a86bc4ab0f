package exchange

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"rotexchain/core/events"
	"rotexchain/native/auction"
)

var (
	// ErrClaimMissing rejects burns before the cycle's airdrop claim landed.
	ErrClaimMissing = errors.New("exchange: airdrop claim missing for cycle")
	// ErrAlreadyDoneThisCycle rejects repeating a once-per-cycle step.
	ErrAlreadyDoneThisCycle = errors.New("exchange: step already completed this cycle")
	// ErrStepIncomplete rejects a step whose predecessor has not run.
	ErrStepIncomplete = errors.New("exchange: predecessor step not completed")
	// ErrInsufficientVoucher rejects burns with no unused voucher balance.
	ErrInsufficientVoucher = errors.New("exchange: no unused voucher balance")
	// ErrNoPriorParticipation rejects reverse sales without lookback history.
	ErrNoPriorParticipation = errors.New("exchange: no prior participation in lookback window")
	// ErrNothingToSwap rejects swaps with no settlement credit outstanding.
	ErrNothingToSwap = errors.New("exchange: no settlement credit to swap")
	// ErrZeroAmount rejects non-positive caller amounts.
	ErrZeroAmount = errors.New("exchange: amount must be positive")
	// ErrInsufficientBalance rejects flows the caller cannot fund.
	ErrInsufficientBalance = errors.New("exchange: insufficient balance")
	// ErrInsufficientAllowance rejects flows the caller has not authorized.
	ErrInsufficientAllowance = errors.New("exchange: insufficient allowance")
	// ErrInsufficientVault aborts payouts the vault cannot cover.
	ErrInsufficientVault = errors.New("exchange: vault cannot cover payout")
	// ErrStaleReserves aborts pricing against empty or unusable reserves.
	ErrStaleReserves = errors.New("exchange: pool reserves unavailable")

	errNilState = errors.New("exchange engine: state not configured")
)

// TokenLedger moves and inspects token balances. The vault address acts as
// the engine's spender identity for caller allowances.
type TokenLedger interface {
	BalanceOf(addr [20]byte, symbol string) (*big.Int, error)
	Transfer(from, to [20]byte, symbol string, amount *big.Int) error
	TransferFrom(spender, owner, to [20]byte, symbol string, amount *big.Int) error
	Allowance(owner, spender [20]byte, symbol string) (*big.Int, error)
	Approve(owner, spender [20]byte, symbol string, amount *big.Int) error
}

// LiquidityPool quotes and executes swaps for the pair bound to a token.
type LiquidityPool interface {
	Reserves(pairID string) (tokenReserve, settlementReserve *big.Int, tokenSym, settlementSym string, err error)
	Spender(pairID string) ([20]byte, error)
	SwapExactIn(pairID string, path []string, amountIn, minOut *big.Int, from, recipient [20]byte, deadline int64) (*big.Int, error)
}

// Auctioneer resolves the live rotation window flows are gated by.
type Auctioneer interface {
	ActiveSlot(now int64) (*auction.Slot, error)
}

// Registrar admits first-time participants and binds tokens to their pools.
type Registrar interface {
	RegisterIfNew(user [20]byte) (bool, error)
	PairID(token string) (string, error)
}

// VoucherSource reports the live voucher (DAV) balance backing burns.
type VoucherSource interface {
	ActiveBalance(addr [20]byte) (*big.Int, error)
}

// ClaimSource reports airdrop units claimed per cycle, the step-one gate.
type ClaimSource interface {
	ClaimedUnits(addr [20]byte, token string, cycle uint64) (*big.Int, error)
}

// FeeDistributor forwards retained fees to the external payout split.
type FeeDistributor interface {
	Distribute(symbol string, amount *big.Int) error
}

type engineState interface {
	ExchangeUserCycle(user [20]byte, token string, cycle uint64) (*UserCycleState, bool, error)
	PutExchangeUserCycle(user [20]byte, token string, cycle uint64, state *UserCycleState) error
	ExchangeReverseCycle(user [20]byte, token string, cycle uint64) (*ReverseCycleState, bool, error)
	PutExchangeReverseCycle(user [20]byte, token string, cycle uint64, state *ReverseCycleState) error
	PutExchangeReceipt(receipt *Receipt) error
	ExchangeReceipt(digest [32]byte) (*Receipt, bool, error)
}

// Engine runs the dual-direction exchange flows against the vault account.
// All validation happens before the first balance moves; hosts wrap each
// call in a speculative state copy so failures leave nothing behind.
type Engine struct {
	state      engineState
	ledger     TokenLedger
	pool       LiquidityPool
	auctions   Auctioneer
	registrar  Registrar
	vouchers   VoucherSource
	claims     ClaimSource
	fees       FeeDistributor
	emitter    events.Emitter
	nowFn      func() int64
	vault      [20]byte
	settlement string
}

// NewEngine creates an exchange engine with a no-op emitter and the STATE
// settlement symbol.
func NewEngine() *Engine {
	return &Engine{
		emitter:    events.NoopEmitter{},
		nowFn:      func() int64 { return time.Now().Unix() },
		settlement: DefaultSettlementSymbol,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokenLedger wires the balance backend.
func (e *Engine) SetTokenLedger(ledger TokenLedger) { e.ledger = ledger }

// SetPool wires the liquidity pool collaborator.
func (e *Engine) SetPool(pool LiquidityPool) { e.pool = pool }

// SetAuctioneer wires the rotation schedule.
func (e *Engine) SetAuctioneer(auctions Auctioneer) { e.auctions = auctions }

// SetRegistrar wires the participant and token registry.
func (e *Engine) SetRegistrar(registrar Registrar) { e.registrar = registrar }

// SetVoucherSource wires the voucher balance collaborator.
func (e *Engine) SetVoucherSource(vouchers VoucherSource) { e.vouchers = vouchers }

// SetClaimSource wires the airdrop claim collaborator.
func (e *Engine) SetClaimSource(claims ClaimSource) { e.claims = claims }

// SetFeeDistributor wires the fee payout collaborator.
func (e *Engine) SetFeeDistributor(fees FeeDistributor) { e.fees = fees }

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

// SetVault configures the module account holding settlement inventory and
// burned tokens.
func (e *Engine) SetVault(vault [20]byte) { e.vault = vault }

// Vault reports the module account flows settle against.
func (e *Engine) Vault() [20]byte { return e.vault }

// SetSettlementSymbol overrides the settlement token symbol. Empty restores
// the default.
func (e *Engine) SetSettlementSymbol(symbol string) {
	if symbol == "" {
		symbol = DefaultSettlementSymbol
	}
	e.settlement = symbol
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	for _, dep := range []struct {
		name string
		ok   bool
	}{
		{"token ledger", e.ledger != nil},
		{"liquidity pool", e.pool != nil},
		{"auctioneer", e.auctions != nil},
		{"registrar", e.registrar != nil},
		{"voucher source", e.vouchers != nil},
		{"claim source", e.claims != nil},
		{"fee distributor", e.fees != nil},
	} {
		if !dep.ok {
			return fmt.Errorf("exchange engine: %s not configured", dep.name)
		}
	}
	if e.vault == ([20]byte{}) {
		return fmt.Errorf("exchange engine: vault not configured")
	}
	return nil
}

// userCycle loads the caller's record for (token, cycle), zeroed when absent.
func (e *Engine) userCycle(user [20]byte, token string, cycle uint64) (*UserCycleState, error) {
	state, ok, err := e.state.ExchangeUserCycle(user, token, cycle)
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewUserCycleState(), nil
	}
	return state, nil
}

// UserCycle is the query variant of userCycle; reports whether a record
// exists.
func (e *Engine) UserCycle(user [20]byte, token string, cycle uint64) (*UserCycleState, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	state, ok, err := e.state.ExchangeUserCycle(user, auction.NormalizeSymbol(token), cycle)
	if err != nil || !ok {
		return nil, ok, err
	}
	return state.Clone(), true, nil
}

// ReverseCycle returns the pending reverse payout record, if any.
func (e *Engine) ReverseCycle(user [20]byte, token string, cycle uint64) (*ReverseCycleState, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	state, ok, err := e.state.ExchangeReverseCycle(user, auction.NormalizeSymbol(token), cycle)
	if err != nil || !ok {
		return nil, ok, err
	}
	return state.Clone(), true, nil
}

// requireFunds verifies the caller holds amount and has authorized the vault
// to move it.
func (e *Engine) requireFunds(user [20]byte, symbol string, amount *big.Int) error {
	balance, err := e.ledger.BalanceOf(user, symbol)
	if err != nil {
		return err
	}
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	allowance, err := e.ledger.Allowance(user, e.vault, symbol)
	if err != nil {
		return err
	}
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	return nil
}

// reserves loads and validates the pricing reserves for token.
func (e *Engine) reserves(token string) (pairID string, tokenReserve, settlementReserve *big.Int, err error) {
	pairID, err = e.registrar.PairID(token)
	if err != nil {
		return "", nil, nil, err
	}
	tokenReserve, settlementReserve, _, _, err = e.pool.Reserves(pairID)
	if err != nil {
		return "", nil, nil, err
	}
	if tokenReserve == nil || tokenReserve.Sign() <= 0 || settlementReserve == nil || settlementReserve.Sign() <= 0 {
		return "", nil, nil, ErrStaleReserves
	}
	return pairID, tokenReserve, settlementReserve, nil
}
