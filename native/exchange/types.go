package exchange

import "math/big"

const (
	// TokensPerVoucher is the auction-token burn obligation per unused
	// whole voucher unit.
	TokensPerVoucher = 3000
	// AirdropUnitScale weights claimed airdrop units inside the reverse
	// lookback cap.
	AirdropUnitScale = 10000
	// BurnFeeBps is the 0.5% fee retained on both burn directions.
	BurnFeeBps uint32 = 50
	// SwapSlippageBps bounds the pool swap output at 5% under quote.
	SwapSlippageBps uint32 = 500
	// SwapDeadline is the pool swap submission window in seconds.
	SwapDeadline int64 = 300
	// ReverseLookback is how many preceding cycles feed the reverse cap.
	ReverseLookback uint64 = 3
	// DefaultSettlementSymbol is the settlement token every flow prices
	// against.
	DefaultSettlementSymbol = "STATE"
)

// UserCycleState tracks one participant's progress through a single cycle of
// a token's rotation. Records accumulate and are never reset.
type UserCycleState struct {
	SettlementCredit *big.Int
	Burned           *big.Int
	VoucherUsed      *big.Int
	SwapReceived     *big.Int
	BurnOccurred     bool
	SwapOccurred     bool
	ReverseSwapDone  bool
	ReverseBurnDone  bool
}

// NewUserCycleState returns a zeroed cycle record.
func NewUserCycleState() *UserCycleState {
	return &UserCycleState{
		SettlementCredit: big.NewInt(0),
		Burned:           big.NewInt(0),
		VoucherUsed:      big.NewInt(0),
		SwapReceived:     big.NewInt(0),
	}
}

// Clone returns a deep copy safe for caller mutation.
func (s *UserCycleState) Clone() *UserCycleState {
	if s == nil {
		return nil
	}
	clone := &UserCycleState{
		BurnOccurred:    s.BurnOccurred,
		SwapOccurred:    s.SwapOccurred,
		ReverseSwapDone: s.ReverseSwapDone,
		ReverseBurnDone: s.ReverseBurnDone,
	}
	clone.SettlementCredit = cloneAmount(s.SettlementCredit)
	clone.Burned = cloneAmount(s.Burned)
	clone.VoucherUsed = cloneAmount(s.VoucherUsed)
	clone.SwapReceived = cloneAmount(s.SwapReceived)
	return clone
}

// ReverseCycleState holds the settlement paid out by reverse step one. Step
// two consumes it exactly; the record stays for audit with ReverseBurnDone
// marking consumption.
type ReverseCycleState struct {
	SettlementOut *big.Int
}

// Clone returns a copy safe for caller mutation.
func (s *ReverseCycleState) Clone() *ReverseCycleState {
	if s == nil {
		return nil
	}
	return &ReverseCycleState{SettlementOut: cloneAmount(s.SettlementOut)}
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// BurnResult reports a completed normal-phase burn.
type BurnResult struct {
	Token           string
	Cycle           uint64
	VoucherApplied  *big.Int
	TokensBurned    *big.Int
	SettlementGross *big.Int
	SettlementNet   *big.Int
	Fee             *big.Int
	Receipt         [32]byte
}

// SwapResult reports a completed normal-phase swap.
type SwapResult struct {
	Token           string
	Cycle           uint64
	SettlementIn    *big.Int
	TokensOut       *big.Int
	CreditRemaining *big.Int
	Receipt         [32]byte
}

// ReverseSwapResult reports reverse step one.
type ReverseSwapResult struct {
	Token         string
	Cycle         uint64
	TokensIn      *big.Int
	Clamped       bool
	Cap           *big.Int
	SettlementOut *big.Int
	Receipt       [32]byte
}

// ReverseBurnResult reports reverse step two.
type ReverseBurnResult struct {
	Token        string
	Cycle        uint64
	SettlementIn *big.Int
	TokensGross  *big.Int
	TokensNet    *big.Int
	Fee          *big.Int
	Receipt      [32]byte
}
