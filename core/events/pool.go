package events

import (
	"math/big"

	"rotexchain/core/types"
)

const (
	// TypePoolPairCreated is emitted when a liquidity pair record is created.
	TypePoolPairCreated = "pool.pairCreated"
	// TypePoolSeeded is emitted when reserves are added to a pair vault.
	TypePoolSeeded = "pool.seeded"
	// TypePoolSwap is emitted for every executed pair swap.
	TypePoolSwap = "pool.swap"
)

// PoolPairCreated captures a new liquidity pair.
type PoolPairCreated struct {
	ID     string
	TokenA string
	TokenB string
}

func (PoolPairCreated) EventType() string { return TypePoolPairCreated }

func (e PoolPairCreated) Event() *types.Event {
	return &types.Event{
		Type: TypePoolPairCreated,
		Attributes: map[string]string{
			"id":     e.ID,
			"tokenA": e.TokenA,
			"tokenB": e.TokenB,
		},
	}
}

// PoolSeeded captures a reserve top-up.
type PoolSeeded struct {
	ID       string
	AmountA  *big.Int
	AmountB  *big.Int
	ReserveA *big.Int
	ReserveB *big.Int
}

func (PoolSeeded) EventType() string { return TypePoolSeeded }

func (e PoolSeeded) Event() *types.Event {
	return &types.Event{
		Type: TypePoolSeeded,
		Attributes: map[string]string{
			"id":       e.ID,
			"amountA":  amountString(e.AmountA),
			"amountB":  amountString(e.AmountB),
			"reserveA": amountString(e.ReserveA),
			"reserveB": amountString(e.ReserveB),
		},
	}
}

// PoolSwap captures an executed constant-product swap.
type PoolSwap struct {
	ID        string
	From      [20]byte
	Recipient [20]byte
	TokenIn   string
	TokenOut  string
	AmountIn  *big.Int
	AmountOut *big.Int
}

func (PoolSwap) EventType() string { return TypePoolSwap }

func (e PoolSwap) Event() *types.Event {
	return &types.Event{
		Type: TypePoolSwap,
		Attributes: map[string]string{
			"id":        e.ID,
			"from":      addressString(e.From),
			"recipient": addressString(e.Recipient),
			"tokenIn":   e.TokenIn,
			"tokenOut":  e.TokenOut,
			"amountIn":  amountString(e.AmountIn),
			"amountOut": amountString(e.AmountOut),
		},
	}
}
