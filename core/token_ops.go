package core

import (
	"math/big"
	"strings"

	"rotexchain/core/events"
	nativecommon "rotexchain/native/common"
	"rotexchain/observability"
)

// TokenTransfer moves amount of symbol between two accounts.
func (l *Ledger) TokenTransfer(from, to [20]byte, symbol string, amount *big.Int) error {
	err := l.run("token.transfer", func(ctx *opContext) error {
		if err := nativecommon.Guard(ctx.manager, ModuleToken); err != nil {
			return err
		}
		if err := ctx.manager.Transfer(from[:], to[:], symbol, amount); err != nil {
			return err
		}
		ctx.evts.Emit(events.Transfer{
			Asset:  strings.ToUpper(strings.TrimSpace(symbol)),
			From:   from,
			To:     to,
			Amount: new(big.Int).Set(amount),
		})
		return nil
	})
	if err == nil {
		observability.Events().RecordTransfer(symbol)
	}
	return err
}

// TokenTransferFrom moves amount of symbol from owner to the destination
// through the spender's allowance.
func (l *Ledger) TokenTransferFrom(spender, owner, to [20]byte, symbol string, amount *big.Int) error {
	err := l.run("token.transferFrom", func(ctx *opContext) error {
		if err := nativecommon.Guard(ctx.manager, ModuleToken); err != nil {
			return err
		}
		if err := ctx.manager.TransferFrom(spender[:], owner[:], to[:], symbol, amount); err != nil {
			return err
		}
		ctx.evts.Emit(events.Transfer{
			Asset:  strings.ToUpper(strings.TrimSpace(symbol)),
			From:   owner,
			To:     to,
			Amount: new(big.Int).Set(amount),
		})
		return nil
	})
	if err == nil {
		observability.Events().RecordTransfer(symbol)
	}
	return err
}

// TokenApprove sets the spender's allowance over the owner's balance to the
// absolute amount.
func (l *Ledger) TokenApprove(owner, spender [20]byte, symbol string, amount *big.Int) error {
	return l.run("token.approve", func(ctx *opContext) error {
		if err := nativecommon.Guard(ctx.manager, ModuleToken); err != nil {
			return err
		}
		return ctx.manager.Approve(owner[:], spender[:], symbol, amount)
	})
}
