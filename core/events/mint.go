package events

import (
	"math/big"

	"rotexchain/core/types"
)

const (
	// TypeTokenMinted is emitted whenever the mint authority issues supply.
	TypeTokenMinted = "token.minted"
)

// TokenMinted captures freshly issued token supply.
type TokenMinted struct {
	Token     string
	Recipient [20]byte
	Amount    *big.Int
}

func (TokenMinted) EventType() string { return TypeTokenMinted }

func (e TokenMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMinted,
		Attributes: map[string]string{
			"token":     normalizeAsset(e.Token),
			"recipient": addressString(e.Recipient),
			"amount":    amountString(e.Amount),
		},
	}
}
