package events

import (
	"math/big"

	"rotexchain/core/types"
)

const (
	// TypeTransfer is emitted for direct token ledger balance movements.
	TypeTransfer = "transfer.token"
)

// Transfer captures a completed token movement between two accounts.
type Transfer struct {
	Asset  string
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{
		"from":   addressString(e.From),
		"to":     addressString(e.To),
		"amount": amountString(e.Amount),
	}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}
