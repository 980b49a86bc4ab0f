package core

import (
	"math/big"

	nativecommon "rotexchain/native/common"
	"rotexchain/native/exchange"
)

// ExchangeBurn runs the normal-phase burn for user against the active window
// token. The settlement credited to the user counts toward the running day's
// released totals.
func (l *Ledger) ExchangeBurn(user [20]byte) (*exchange.BurnResult, error) {
	var result *exchange.BurnResult
	err := l.run("exchange.burn", func(ctx *opContext) error {
		if err := nativecommon.Guard(ctx.manager, ModuleExchange); err != nil {
			return err
		}
		res, err := l.newExchangeEngine(ctx).Burn(user)
		if err != nil {
			return err
		}
		if err := l.newStatsLedger(ctx).RecordRelease(res.SettlementNet, false); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExchangeSwap converts user's outstanding settlement credit through the
// window token's pool. Counts toward the day's swap and unique-participant
// tallies.
func (l *Ledger) ExchangeSwap(user [20]byte) (*exchange.SwapResult, error) {
	var result *exchange.SwapResult
	err := l.run("exchange.swap", func(ctx *opContext) error {
		if err := nativecommon.Guard(ctx.manager, ModuleExchange); err != nil {
			return err
		}
		res, err := l.newExchangeEngine(ctx).Swap(user)
		if err != nil {
			return err
		}
		if err := l.newStatsLedger(ctx).RecordSwap(user); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExchangeReverseSwap runs reverse step one, selling amountIn window tokens
// to the vault under the lookback cap. The settlement paid out counts toward
// the day's reverse released total.
func (l *Ledger) ExchangeReverseSwap(user [20]byte, amountIn *big.Int) (*exchange.ReverseSwapResult, error) {
	var result *exchange.ReverseSwapResult
	err := l.run("exchange.reverseSwap", func(ctx *opContext) error {
		if err := nativecommon.Guard(ctx.manager, ModuleExchange); err != nil {
			return err
		}
		res, err := l.newExchangeEngine(ctx).ReverseSwap(user, amountIn)
		if err != nil {
			return err
		}
		if err := l.newStatsLedger(ctx).RecordRelease(res.SettlementOut, true); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExchangeReverseBurn runs reverse step two, returning the settlement paid by
// step one for a fee-discounted token payout.
func (l *Ledger) ExchangeReverseBurn(user [20]byte) (*exchange.ReverseBurnResult, error) {
	var result *exchange.ReverseBurnResult
	err := l.run("exchange.reverseBurn", func(ctx *opContext) error {
		if err := nativecommon.Guard(ctx.manager, ModuleExchange); err != nil {
			return err
		}
		res, err := l.newExchangeEngine(ctx).ReverseBurn(user)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RegisterParticipant admits user on first contact. Reports whether the
// registration was new.
func (l *Ledger) RegisterParticipant(user [20]byte) (bool, error) {
	var registered bool
	err := l.run("registry.register", func(ctx *opContext) error {
		if err := nativecommon.Guard(ctx.manager, ModuleRegistry); err != nil {
			return err
		}
		fresh, err := l.newRegistryEngine(ctx).RegisterIfNew(user)
		if err != nil {
			return err
		}
		registered = fresh
		return nil
	})
	if err != nil {
		return false, err
	}
	return registered, nil
}
