package events

import (
	"math/big"

	"rotexchain/core/types"
	"rotexchain/crypto"
)

const (
	// TypeExchangeBurned is emitted when an auction-token burn credits
	// settlement value to a participant.
	TypeExchangeBurned = "exchange.burned"
	// TypeExchangeSwapped is emitted when settlement credit is swapped back
	// into the active auction token.
	TypeExchangeSwapped = "exchange.swapped"
	// TypeExchangeReverseSwapped is emitted for the first reverse-phase step.
	TypeExchangeReverseSwapped = "exchange.reverseSwapped"
	// TypeExchangeReverseBurned is emitted for the second reverse-phase step.
	TypeExchangeReverseBurned = "exchange.reverseBurned"
	// TypeExchangeAllowanceAdjusted is emitted when a vault allowance is
	// reconciled to an exact target value.
	TypeExchangeAllowanceAdjusted = "exchange.allowanceAdjusted"
	// TypeExchangeClaimRecorded is emitted when the claim authority records
	// airdrop units for a cycle.
	TypeExchangeClaimRecorded = "exchange.claimRecorded"
)

func addressString(addr [20]byte) string {
	if addr == ([20]byte{}) {
		return ""
	}
	return crypto.NewAddress(crypto.RTXPrefix, addr[:]).String()
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// ExchangeBurned captures a completed normal-phase burn step.
type ExchangeBurned struct {
	User            [20]byte
	Token           string
	Cycle           uint64
	TokensBurned    *big.Int
	SettlementGross *big.Int
	SettlementNet   *big.Int
	Fee             *big.Int
}

func (ExchangeBurned) EventType() string { return TypeExchangeBurned }

func (e ExchangeBurned) Event() *types.Event {
	return &types.Event{
		Type: TypeExchangeBurned,
		Attributes: map[string]string{
			"user":            addressString(e.User),
			"token":           e.Token,
			"cycle":           new(big.Int).SetUint64(e.Cycle).String(),
			"tokensBurned":    amountString(e.TokensBurned),
			"settlementGross": amountString(e.SettlementGross),
			"settlementNet":   amountString(e.SettlementNet),
			"fee":             amountString(e.Fee),
		},
	}
}

// ExchangeSwapped captures a completed normal-phase swap step.
type ExchangeSwapped struct {
	User            [20]byte
	Token           string
	Cycle           uint64
	SettlementIn    *big.Int
	TokensOut       *big.Int
	CreditRemaining *big.Int
}

func (ExchangeSwapped) EventType() string { return TypeExchangeSwapped }

func (e ExchangeSwapped) Event() *types.Event {
	return &types.Event{
		Type: TypeExchangeSwapped,
		Attributes: map[string]string{
			"user":            addressString(e.User),
			"token":           e.Token,
			"cycle":           new(big.Int).SetUint64(e.Cycle).String(),
			"settlementIn":    amountString(e.SettlementIn),
			"tokensOut":       amountString(e.TokensOut),
			"creditRemaining": amountString(e.CreditRemaining),
		},
	}
}

// ExchangeReverseSwapped captures the reverse-phase token sale step.
type ExchangeReverseSwapped struct {
	User          [20]byte
	Token         string
	Cycle         uint64
	TokensIn      *big.Int
	SettlementOut *big.Int
	ClampedFrom   *big.Int
}

func (ExchangeReverseSwapped) EventType() string { return TypeExchangeReverseSwapped }

func (e ExchangeReverseSwapped) Event() *types.Event {
	attrs := map[string]string{
		"user":          addressString(e.User),
		"token":         e.Token,
		"cycle":         new(big.Int).SetUint64(e.Cycle).String(),
		"tokensIn":      amountString(e.TokensIn),
		"settlementOut": amountString(e.SettlementOut),
	}
	if e.ClampedFrom != nil {
		attrs["clampedFrom"] = e.ClampedFrom.String()
	}
	return &types.Event{Type: TypeExchangeReverseSwapped, Attributes: attrs}
}

// ExchangeReverseBurned captures the reverse-phase settlement burn step.
type ExchangeReverseBurned struct {
	User         [20]byte
	Token        string
	Cycle        uint64
	SettlementIn *big.Int
	TokensOut    *big.Int
	Fee          *big.Int
}

func (ExchangeReverseBurned) EventType() string { return TypeExchangeReverseBurned }

func (e ExchangeReverseBurned) Event() *types.Event {
	return &types.Event{
		Type: TypeExchangeReverseBurned,
		Attributes: map[string]string{
			"user":         addressString(e.User),
			"token":        e.Token,
			"cycle":        new(big.Int).SetUint64(e.Cycle).String(),
			"settlementIn": amountString(e.SettlementIn),
			"tokensOut":    amountString(e.TokensOut),
			"fee":          amountString(e.Fee),
		},
	}
}

// ExchangeClaimRecorded captures airdrop units recorded for a user's cycle.
type ExchangeClaimRecorded struct {
	User  [20]byte
	Token string
	Cycle uint64
	Units *big.Int
	Total *big.Int
}

func (ExchangeClaimRecorded) EventType() string { return TypeExchangeClaimRecorded }

func (e ExchangeClaimRecorded) Event() *types.Event {
	return &types.Event{
		Type: TypeExchangeClaimRecorded,
		Attributes: map[string]string{
			"user":  addressString(e.User),
			"token": e.Token,
			"cycle": new(big.Int).SetUint64(e.Cycle).String(),
			"units": amountString(e.Units),
			"total": amountString(e.Total),
		},
	}
}

// ExchangeAllowanceAdjusted captures a vault allowance reconciliation.
type ExchangeAllowanceAdjusted struct {
	Token    string
	Spender  [20]byte
	Previous *big.Int
	Target   *big.Int
}

func (ExchangeAllowanceAdjusted) EventType() string { return TypeExchangeAllowanceAdjusted }

func (e ExchangeAllowanceAdjusted) Event() *types.Event {
	return &types.Event{
		Type: TypeExchangeAllowanceAdjusted,
		Attributes: map[string]string{
			"token":    e.Token,
			"spender":  addressString(e.Spender),
			"previous": amountString(e.Previous),
			"target":   amountString(e.Target),
		},
	}
}
