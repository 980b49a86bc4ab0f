package exchange

import (
	"fmt"
	"math/big"

	"rotexchain/core/events"
	"rotexchain/native/auction"
)

// SetExactAllowance reconciles the vault's allowance for spender to exactly
// the target value. A matching allowance is left untouched; any other value
// is replaced with a single absolute approval, so the grant never passes
// through zero on its way to the target.
func (e *Engine) SetExactAllowance(symbol string, spender [20]byte, target *big.Int) error {
	if e == nil || e.ledger == nil {
		return fmt.Errorf("exchange engine: token ledger not configured")
	}
	if e.vault == ([20]byte{}) {
		return fmt.Errorf("exchange engine: vault not configured")
	}
	symbol = auction.NormalizeSymbol(symbol)
	want := cloneAmount(target)
	if want.Sign() < 0 {
		return ErrZeroAmount
	}
	current, err := e.ledger.Allowance(e.vault, spender, symbol)
	if err != nil {
		return err
	}
	have := cloneAmount(current)
	if have.Cmp(want) == 0 {
		return nil
	}
	if err := e.ledger.Approve(e.vault, spender, symbol, want); err != nil {
		return err
	}
	e.emitter.Emit(events.ExchangeAllowanceAdjusted{
		Token:    symbol,
		Spender:  spender,
		Previous: have,
		Target:   cloneAmount(want),
	})
	return nil
}
