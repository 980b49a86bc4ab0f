package exchange

import (
	"math/big"

	"rotexchain/core/events"
	"rotexchain/native/auction"
	"rotexchain/native/exchange/pricing"
)

// lookbackCap sums the participation balance of the three cycles preceding
// current: claimed airdrop units scaled to token units, plus tokens received
// from swaps, minus tokens burned. The sum is signed; heavy burning in a
// prior cycle reduces what later reverse cycles may sell back.
func (e *Engine) lookbackCap(user [20]byte, token string, current uint64) (*big.Int, error) {
	total := big.NewInt(0)
	for back := uint64(1); back <= ReverseLookback && back < current; back++ {
		cycle := current - back
		claimed, err := e.claims.ClaimedUnits(user, token, cycle)
		if err != nil {
			return nil, err
		}
		if claimed != nil && claimed.Sign() > 0 {
			total.Add(total, new(big.Int).Mul(claimed, big.NewInt(AirdropUnitScale)))
		}
		cycleState, err := e.userCycle(user, token, cycle)
		if err != nil {
			return nil, err
		}
		total.Add(total, cycleState.SwapReceived)
		total.Sub(total, cycleState.Burned)
	}
	return total, nil
}

// ReverseSwap runs step one of the reverse flow: the caller sells auction
// tokens back to the vault at the pool's constant-product quote. The amount
// is clamped down to the caller's three-cycle participation cap and the step
// runs at most once per cycle.
func (e *Engine) ReverseSwap(user [20]byte, amountIn *big.Int) (*ReverseSwapResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	now := e.nowFn()
	slot, err := e.auctions.ActiveSlot(now)
	if err != nil {
		return nil, err
	}
	if !slot.Reverse {
		return nil, auction.ErrWrongPhase
	}
	token, cycle := slot.Token, slot.Appearance
	cycleState, err := e.userCycle(user, token, cycle)
	if err != nil {
		return nil, err
	}
	if cycleState.ReverseSwapDone {
		return nil, ErrAlreadyDoneThisCycle
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	limit, err := e.lookbackCap(user, token, cycle)
	if err != nil {
		return nil, err
	}
	if limit.Sign() <= 0 {
		return nil, ErrNoPriorParticipation
	}
	amount := cloneAmount(amountIn)
	clamped := false
	if amount.Cmp(limit) > 0 {
		amount = cloneAmount(limit)
		clamped = true
	}
	if err := e.requireFunds(user, token, amount); err != nil {
		return nil, err
	}
	_, tokenReserve, settlementReserve, err := e.reserves(token)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.ConstantProductOut(amount, tokenReserve, settlementReserve)
	if err != nil {
		return nil, err
	}
	if quote.Sign() <= 0 {
		return nil, ErrStaleReserves
	}
	vaultBalance, err := e.ledger.BalanceOf(e.vault, e.settlement)
	if err != nil {
		return nil, err
	}
	if vaultBalance == nil || vaultBalance.Cmp(quote) < 0 {
		return nil, ErrInsufficientVault
	}

	if err := e.ledger.TransferFrom(e.vault, user, e.vault, token, amount); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(e.vault, user, e.settlement, quote); err != nil {
		return nil, err
	}

	if err := e.state.PutExchangeReverseCycle(user, token, cycle, &ReverseCycleState{SettlementOut: cloneAmount(quote)}); err != nil {
		return nil, err
	}
	cycleState.ReverseSwapDone = true
	if err := e.state.PutExchangeUserCycle(user, token, cycle, cycleState); err != nil {
		return nil, err
	}

	digest, err := e.recordReceipt(OpReverseSwap, user, token, cycle, amount, quote, nil, now)
	if err != nil {
		return nil, err
	}
	evt := events.ExchangeReverseSwapped{
		User:          user,
		Token:         token,
		Cycle:         cycle,
		TokensIn:      cloneAmount(amount),
		SettlementOut: cloneAmount(quote),
	}
	if clamped {
		evt.ClampedFrom = cloneAmount(amountIn)
	}
	e.emitter.Emit(evt)
	return &ReverseSwapResult{
		Token:         token,
		Cycle:         cycle,
		TokensIn:      amount,
		Clamped:       clamped,
		Cap:           limit,
		SettlementOut: quote,
		Receipt:       digest,
	}, nil
}

// ReverseBurn runs step two of the reverse flow: the settlement paid out by
// step one is pulled back in full and exchanged at the inverse of the normal
// burn rate, minus the 0.5% fee. The amount is never caller-supplied.
func (e *Engine) ReverseBurn(user [20]byte) (*ReverseBurnResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	now := e.nowFn()
	slot, err := e.auctions.ActiveSlot(now)
	if err != nil {
		return nil, err
	}
	if !slot.Reverse {
		return nil, auction.ErrWrongPhase
	}
	token, cycle := slot.Token, slot.Appearance
	cycleState, err := e.userCycle(user, token, cycle)
	if err != nil {
		return nil, err
	}
	if !cycleState.ReverseSwapDone {
		return nil, ErrStepIncomplete
	}
	if cycleState.ReverseBurnDone {
		return nil, ErrAlreadyDoneThisCycle
	}
	pending, ok, err := e.state.ExchangeReverseCycle(user, token, cycle)
	if err != nil {
		return nil, err
	}
	if !ok || pending == nil || pending.SettlementOut == nil || pending.SettlementOut.Sign() <= 0 {
		return nil, ErrStepIncomplete
	}
	burnAmount := cloneAmount(pending.SettlementOut)
	if err := e.requireFunds(user, e.settlement, burnAmount); err != nil {
		return nil, err
	}
	_, tokenReserve, settlementReserve, err := e.reserves(token)
	if err != nil {
		return nil, err
	}
	gross, err := pricing.ReverseTokensOut(burnAmount, tokenReserve, settlementReserve)
	if err != nil {
		return nil, err
	}
	if gross.Sign() <= 0 {
		return nil, ErrStaleReserves
	}
	net, fee := pricing.ApplyFeeBps(gross, BurnFeeBps)
	vaultBalance, err := e.ledger.BalanceOf(e.vault, token)
	if err != nil {
		return nil, err
	}
	if vaultBalance == nil || vaultBalance.Cmp(gross) < 0 {
		return nil, ErrInsufficientVault
	}

	if err := e.ledger.TransferFrom(e.vault, user, e.vault, e.settlement, burnAmount); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(e.vault, user, token, net); err != nil {
		return nil, err
	}
	if fee.Sign() > 0 {
		if err := e.fees.Distribute(token, fee); err != nil {
			return nil, err
		}
	}

	cycleState.ReverseBurnDone = true
	if err := e.state.PutExchangeUserCycle(user, token, cycle, cycleState); err != nil {
		return nil, err
	}

	digest, err := e.recordReceipt(OpReverseBurn, user, token, cycle, burnAmount, net, fee, now)
	if err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ExchangeReverseBurned{
		User:         user,
		Token:        token,
		Cycle:        cycle,
		SettlementIn: cloneAmount(burnAmount),
		TokensOut:    cloneAmount(net),
		Fee:          cloneAmount(fee),
	})
	return &ReverseBurnResult{
		Token:        token,
		Cycle:        cycle,
		SettlementIn: burnAmount,
		TokensGross:  gross,
		TokensNet:    net,
		Fee:          fee,
		Receipt:      digest,
	}, nil
}
