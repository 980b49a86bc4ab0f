package exchange

import (
	"math/big"

	"rotexchain/core/events"
	"rotexchain/native/auction"
	"rotexchain/native/exchange/pricing"
)

// Burn runs step two of the normal flow: the caller surrenders auction
// tokens proportional to their unused voucher balance and the vault pays the
// doubled settlement value, retaining the 0.5% fee for distribution. The
// step repeats within a cycle whenever fresh voucher balance arrives.
func (e *Engine) Burn(user [20]byte) (*BurnResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	now := e.nowFn()
	slot, err := e.auctions.ActiveSlot(now)
	if err != nil {
		return nil, err
	}
	if slot.Reverse {
		return nil, auction.ErrWrongPhase
	}
	token, cycle := slot.Token, slot.Appearance
	if _, err := e.registrar.RegisterIfNew(user); err != nil {
		return nil, err
	}
	claimed, err := e.claims.ClaimedUnits(user, token, cycle)
	if err != nil {
		return nil, err
	}
	if claimed == nil || claimed.Sign() <= 0 {
		return nil, ErrClaimMissing
	}
	cycleState, err := e.userCycle(user, token, cycle)
	if err != nil {
		return nil, err
	}
	active, err := e.vouchers.ActiveBalance(user)
	if err != nil {
		return nil, err
	}
	unused := new(big.Int).Sub(cloneAmount(active), cloneAmount(cycleState.VoucherUsed))
	if unused.Sign() <= 0 {
		return nil, ErrInsufficientVoucher
	}
	tokensToBurn := new(big.Int).Mul(unused, big.NewInt(TokensPerVoucher))
	if err := e.requireFunds(user, token, tokensToBurn); err != nil {
		return nil, err
	}
	_, tokenReserve, settlementReserve, err := e.reserves(token)
	if err != nil {
		return nil, err
	}
	gross, err := pricing.SettlementGross(tokensToBurn, tokenReserve, settlementReserve)
	if err != nil {
		return nil, err
	}
	if gross.Sign() <= 0 {
		return nil, ErrStaleReserves
	}
	net, fee := pricing.ApplyFeeBps(gross, BurnFeeBps)
	vaultBalance, err := e.ledger.BalanceOf(e.vault, e.settlement)
	if err != nil {
		return nil, err
	}
	if vaultBalance == nil || vaultBalance.Cmp(gross) < 0 {
		return nil, ErrInsufficientVault
	}

	if err := e.ledger.TransferFrom(e.vault, user, e.vault, token, tokensToBurn); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(e.vault, user, e.settlement, net); err != nil {
		return nil, err
	}
	if fee.Sign() > 0 {
		if err := e.fees.Distribute(e.settlement, fee); err != nil {
			return nil, err
		}
	}

	cycleState.SettlementCredit = new(big.Int).Add(cloneAmount(cycleState.SettlementCredit), net)
	cycleState.Burned = new(big.Int).Add(cloneAmount(cycleState.Burned), tokensToBurn)
	cycleState.VoucherUsed = new(big.Int).Add(cloneAmount(cycleState.VoucherUsed), unused)
	cycleState.BurnOccurred = true
	if err := e.state.PutExchangeUserCycle(user, token, cycle, cycleState); err != nil {
		return nil, err
	}

	digest, err := e.recordReceipt(OpBurn, user, token, cycle, tokensToBurn, net, fee, now)
	if err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ExchangeBurned{
		User:            user,
		Token:           token,
		Cycle:           cycle,
		TokensBurned:    cloneAmount(tokensToBurn),
		SettlementGross: cloneAmount(gross),
		SettlementNet:   cloneAmount(net),
		Fee:             cloneAmount(fee),
	})
	return &BurnResult{
		Token:           token,
		Cycle:           cycle,
		VoucherApplied:  unused,
		TokensBurned:    tokensToBurn,
		SettlementGross: gross,
		SettlementNet:   net,
		Fee:             fee,
		Receipt:         digest,
	}, nil
}

// Swap runs step three of the normal flow: the caller's full outstanding
// settlement credit is pulled back into the vault and swapped through the
// pool into the auction token, which lands directly with the caller. The
// pool submission carries a 5% slippage floor and a five-minute deadline.
func (e *Engine) Swap(user [20]byte) (*SwapResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	now := e.nowFn()
	slot, err := e.auctions.ActiveSlot(now)
	if err != nil {
		return nil, err
	}
	if slot.Reverse {
		return nil, auction.ErrWrongPhase
	}
	token, cycle := slot.Token, slot.Appearance
	cycleState, err := e.userCycle(user, token, cycle)
	if err != nil {
		return nil, err
	}
	amount := cloneAmount(cycleState.SettlementCredit)
	if amount.Sign() <= 0 {
		return nil, ErrNothingToSwap
	}
	if err := e.requireFunds(user, e.settlement, amount); err != nil {
		return nil, err
	}
	pairID, tokenReserve, settlementReserve, err := e.reserves(token)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.ConstantProductOut(amount, settlementReserve, tokenReserve)
	if err != nil {
		return nil, err
	}
	minOut := pricing.WithSlippage(quote, SwapSlippageBps)
	spender, err := e.pool.Spender(pairID)
	if err != nil {
		return nil, err
	}

	if err := e.ledger.TransferFrom(e.vault, user, e.vault, e.settlement, amount); err != nil {
		return nil, err
	}
	if err := e.SetExactAllowance(e.settlement, spender, amount); err != nil {
		return nil, err
	}
	out, err := e.pool.SwapExactIn(pairID, []string{e.settlement, token}, amount, minOut, e.vault, user, now+SwapDeadline)
	if err != nil {
		return nil, err
	}

	cycleState.SettlementCredit = big.NewInt(0)
	cycleState.SwapReceived = new(big.Int).Add(cloneAmount(cycleState.SwapReceived), out)
	cycleState.SwapOccurred = true
	if err := e.state.PutExchangeUserCycle(user, token, cycle, cycleState); err != nil {
		return nil, err
	}

	digest, err := e.recordReceipt(OpSwap, user, token, cycle, amount, out, nil, now)
	if err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ExchangeSwapped{
		User:            user,
		Token:           token,
		Cycle:           cycle,
		SettlementIn:    cloneAmount(amount),
		TokensOut:       cloneAmount(out),
		CreditRemaining: big.NewInt(0),
	})
	return &SwapResult{
		Token:           token,
		Cycle:           cycle,
		SettlementIn:    amount,
		TokensOut:       out,
		CreditRemaining: big.NewInt(0),
		Receipt:         digest,
	}, nil
}
