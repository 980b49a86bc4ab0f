package pricing

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// Constant-product swaps burn 0.3% of the input before pricing, mirroring the
// fee retained by the pair reserves.
const SwapFeeBps = 30

var (
	// ErrNoLiquidity indicates one of the pair reserves is empty.
	ErrNoLiquidity = errors.New("pricing: empty reserves")
	// ErrBadAmount indicates a non-positive input amount.
	ErrBadAmount = errors.New("pricing: amount must be positive")

	bpsDenominator = big.NewInt(10_000)
	feeMul         = big.NewInt(997)
	feeDen         = big.NewInt(1000)
	two            = big.NewInt(2)
)

// SettlementGross computes the settlement value released for a token burn:
// tokensBurned multiplied by the reserve price of the token and doubled. The
// multiplication happens before the division so fractional reserve ratios do
// not truncate early.
func SettlementGross(tokensBurned, tokenReserve, settlementReserve *big.Int) (*big.Int, error) {
	if tokensBurned == nil || tokensBurned.Sign() <= 0 {
		return nil, ErrBadAmount
	}
	if tokenReserve == nil || tokenReserve.Sign() <= 0 || settlementReserve == nil || settlementReserve.Sign() <= 0 {
		return nil, ErrNoLiquidity
	}
	gross := new(big.Int).Mul(tokensBurned, settlementReserve)
	gross.Mul(gross, two)
	return gross.Quo(gross, tokenReserve), nil
}

// ReverseTokensOut inverts SettlementGross: the auction tokens owed for a
// settlement burn of the provided size at the current reserve ratio.
func ReverseTokensOut(settlementIn, tokenReserve, settlementReserve *big.Int) (*big.Int, error) {
	if settlementIn == nil || settlementIn.Sign() <= 0 {
		return nil, ErrBadAmount
	}
	if tokenReserve == nil || tokenReserve.Sign() <= 0 || settlementReserve == nil || settlementReserve.Sign() <= 0 {
		return nil, ErrNoLiquidity
	}
	out := new(big.Int).Mul(settlementIn, tokenReserve)
	den := new(big.Int).Mul(settlementReserve, two)
	return out.Quo(out, den), nil
}

// ApplyFeeBps splits amount into the net remainder and the retained fee at the
// provided basis-point rate. The fee is floored; the caller receives net.
func ApplyFeeBps(amount *big.Int, bps uint32) (net, fee *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	if bps == 0 {
		return new(big.Int).Set(amount), big.NewInt(0)
	}
	fee = new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	fee.Div(fee, bpsDenominator)
	if fee.Cmp(amount) >= 0 {
		return big.NewInt(0), new(big.Int).Set(amount)
	}
	return new(big.Int).Sub(amount, fee), fee
}

// WithSlippage floors a quoted output by the provided basis points, producing
// the minimum acceptable amount for a swap submission.
func WithSlippage(quote *big.Int, bps uint32) *big.Int {
	if quote == nil || quote.Sign() <= 0 {
		return big.NewInt(0)
	}
	min := new(big.Int).Mul(quote, big.NewInt(int64(10_000-int(bps))))
	return min.Div(min, bpsDenominator)
}

// ConstantProductOut quotes a swap against constant-product reserves with the
// 0.3% input fee. The arithmetic runs on uint256 words while the operands fit
// and falls back to big.Int otherwise.
func ConstantProductOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrBadAmount
	}
	if reserveIn == nil || reserveIn.Sign() <= 0 || reserveOut == nil || reserveOut.Sign() <= 0 {
		return nil, ErrNoLiquidity
	}
	if out, ok := constantProductOutFast(amountIn, reserveIn, reserveOut); ok {
		return out, nil
	}
	inWithFee := new(big.Int).Mul(amountIn, feeMul)
	denominator := new(big.Int).Mul(reserveIn, feeDen)
	denominator.Add(denominator, inWithFee)
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	return numerator.Quo(numerator, denominator), nil
}

func constantProductOutFast(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, bool) {
	in, overflow := uint256.FromBig(amountIn)
	if overflow {
		return nil, false
	}
	rin, overflow := uint256.FromBig(reserveIn)
	if overflow {
		return nil, false
	}
	rout, overflow := uint256.FromBig(reserveOut)
	if overflow {
		return nil, false
	}
	inWithFee, overflow := new(uint256.Int).MulOverflow(in, uint256.NewInt(997))
	if overflow {
		return nil, false
	}
	den, overflow := new(uint256.Int).MulOverflow(rin, uint256.NewInt(1000))
	if overflow {
		return nil, false
	}
	den, overflow = den.AddOverflow(den, inWithFee)
	if overflow {
		return nil, false
	}
	num, overflow := new(uint256.Int).MulOverflow(inWithFee, rout)
	if overflow {
		return nil, false
	}
	return new(uint256.Int).Div(num, den).ToBig(), true
}
