package core

import (
	"math/big"

	rotexstate "rotexchain/core/state"
	"rotexchain/native/auction"
	"rotexchain/native/exchange"
	"rotexchain/native/gov"
	"rotexchain/native/pool"
	"rotexchain/native/registry"
	"rotexchain/native/stats"
)

// Schedule returns the installed rotation schedule, if any.
func (l *Ledger) Schedule() (*auction.Schedule, bool, error) {
	var (
		schedule *auction.Schedule
		ok       bool
	)
	err := l.view(func(ctx *opContext) error {
		var err error
		schedule, ok, err = l.newAuctionEngine(ctx).Schedule()
		return err
	})
	return schedule, ok, err
}

// ActiveSlot resolves the auction window covering the current instant.
func (l *Ledger) ActiveSlot() (*auction.Slot, error) {
	var slot *auction.Slot
	err := l.view(func(ctx *opContext) error {
		var err error
		slot, err = l.newAuctionEngine(ctx).ActiveSlot(ctx.now)
		return err
	})
	return slot, err
}

// TodayToken resolves the rotation slot for the current instant whether or
// not its trading window is still open.
func (l *Ledger) TodayToken() (*auction.Slot, error) {
	var slot *auction.Slot
	err := l.view(func(ctx *opContext) error {
		var err error
		slot, err = l.newAuctionEngine(ctx).TodayToken(ctx.now)
		return err
	})
	return slot, err
}

// TimeLeft reports the seconds remaining in symbol's active window.
func (l *Ledger) TimeLeft(symbol string) (int64, error) {
	var left int64
	err := l.view(func(ctx *opContext) error {
		var err error
		left, err = l.newAuctionEngine(ctx).TimeLeft(symbol, ctx.now)
		return err
	})
	return left, err
}

// AppearanceCount reports how many rotation windows symbol has opened.
func (l *Ledger) AppearanceCount(symbol string) (uint64, error) {
	var count uint64
	err := l.view(func(ctx *opContext) error {
		var err error
		count, err = l.newAuctionEngine(ctx).AppearanceCount(symbol, ctx.now)
		return err
	})
	return count, err
}

// TokenBalance reports addr's balance of symbol.
func (l *Ledger) TokenBalance(addr [20]byte, symbol string) (*big.Int, error) {
	var balance *big.Int
	err := l.view(func(ctx *opContext) error {
		var err error
		balance, err = ctx.manager.Balance(addr[:], symbol)
		return err
	})
	return balance, err
}

// TokenAllowance reports the spender's allowance over the owner's balance.
func (l *Ledger) TokenAllowance(owner, spender [20]byte, symbol string) (*big.Int, error) {
	var allowance *big.Int
	err := l.view(func(ctx *opContext) error {
		var err error
		allowance, err = ctx.manager.Allowance(owner[:], spender[:], symbol)
		return err
	})
	return allowance, err
}

// TokenSupply reports the total supply of symbol.
func (l *Ledger) TokenSupply(symbol string) (*big.Int, error) {
	var supply *big.Int
	err := l.view(func(ctx *opContext) error {
		var err error
		supply, err = ctx.manager.TokenSupply(symbol)
		return err
	})
	return supply, err
}

// TokenList returns every registered ledger token symbol.
func (l *Ledger) TokenList() ([]string, error) {
	var list []string
	err := l.view(func(ctx *opContext) error {
		var err error
		list, err = ctx.manager.TokenList()
		return err
	})
	return list, err
}

// TokenInfo returns ledger metadata for symbol, nil when unregistered.
func (l *Ledger) TokenInfo(symbol string) (*rotexstate.TokenMetadata, error) {
	var meta *rotexstate.TokenMetadata
	err := l.view(func(ctx *opContext) error {
		var err error
		meta, err = ctx.manager.Token(symbol)
		return err
	})
	return meta, err
}

// UserCycle returns the participant's progress record for a token cycle.
func (l *Ledger) UserCycle(user [20]byte, token string, cycle uint64) (*exchange.UserCycleState, bool, error) {
	var (
		record *exchange.UserCycleState
		ok     bool
	)
	err := l.view(func(ctx *opContext) error {
		var err error
		record, ok, err = l.newExchangeEngine(ctx).UserCycle(user, token, cycle)
		return err
	})
	return record, ok, err
}

// ReverseCycle returns the participant's reverse payout record for a token
// cycle.
func (l *Ledger) ReverseCycle(user [20]byte, token string, cycle uint64) (*exchange.ReverseCycleState, bool, error) {
	var (
		record *exchange.ReverseCycleState
		ok     bool
	)
	err := l.view(func(ctx *opContext) error {
		var err error
		record, ok, err = l.newExchangeEngine(ctx).ReverseCycle(user, token, cycle)
		return err
	})
	return record, ok, err
}

// ExchangeReceipt looks up a flow receipt by its digest.
func (l *Ledger) ExchangeReceipt(digest [32]byte) (*exchange.Receipt, bool, error) {
	var (
		receipt *exchange.Receipt
		ok      bool
	)
	err := l.view(func(ctx *opContext) error {
		var err error
		receipt, ok, err = l.newExchangeEngine(ctx).Receipt(digest)
		return err
	})
	return receipt, ok, err
}

// StatsToday returns the running day's counters.
func (l *Ledger) StatsToday() (*stats.Counters, error) {
	var counters *stats.Counters
	err := l.view(func(ctx *opContext) error {
		var err error
		counters, err = l.newStatsLedger(ctx).Today(ctx.now)
		return err
	})
	return counters, err
}

// StatsDay returns the archived day at index.
func (l *Ledger) StatsDay(index uint64) (*stats.DayRecord, bool, error) {
	var (
		record *stats.DayRecord
		ok     bool
	)
	err := l.view(func(ctx *opContext) error {
		var err error
		record, ok, err = l.newStatsLedger(ctx).Day(index)
		return err
	})
	return record, ok, err
}

// StatsDayCount reports how many days have been archived.
func (l *Ledger) StatsDayCount() (uint64, error) {
	var count uint64
	err := l.view(func(ctx *opContext) error {
		var err error
		count, err = l.newStatsLedger(ctx).DayCount()
		return err
	})
	return count, err
}

// Participants reports the lifetime registration count.
func (l *Ledger) Participants() (uint64, error) {
	var count uint64
	err := l.view(func(ctx *opContext) error {
		var err error
		count, err = l.newRegistryEngine(ctx).Participants()
		return err
	})
	return count, err
}

// Registered reports whether user has ever registered.
func (l *Ledger) Registered(user [20]byte) (bool, error) {
	var registered bool
	err := l.view(func(ctx *opContext) error {
		var err error
		registered, err = l.newRegistryEngine(ctx).Registered(user)
		return err
	})
	return registered, err
}

// RegistryToken returns the roster entry for symbol.
func (l *Ledger) RegistryToken(symbol string) (*registry.TokenEntry, error) {
	var entry *registry.TokenEntry
	err := l.view(func(ctx *opContext) error {
		var err error
		entry, err = l.newRegistryEngine(ctx).Token(symbol)
		return err
	})
	return entry, err
}

// RegistryTokens lists every admitted roster symbol.
func (l *Ledger) RegistryTokens() ([]string, error) {
	var symbols []string
	err := l.view(func(ctx *opContext) error {
		var err error
		symbols, err = l.newRegistryEngine(ctx).TokenSymbols()
		return err
	})
	return symbols, err
}

// PoolPair returns the stored pair record for id.
func (l *Ledger) PoolPair(id string) (*pool.Pair, error) {
	var pair *pool.Pair
	err := l.view(func(ctx *opContext) error {
		var err error
		pair, err = l.newPoolEngine(ctx).Pair(id)
		return err
	})
	return pair, err
}

// PoolPairForToken resolves the pair indexed under an auction-token symbol.
func (l *Ledger) PoolPairForToken(symbol string) (string, error) {
	var id string
	err := l.view(func(ctx *opContext) error {
		var err error
		id, err = l.newPoolEngine(ctx).PairIDForToken(symbol)
		return err
	})
	return id, err
}

// Governance returns the current governance address.
func (l *Ledger) Governance() ([20]byte, bool, error) {
	var (
		addr [20]byte
		ok   bool
	)
	err := l.view(func(ctx *opContext) error {
		var err error
		addr, ok, err = l.newGovEngine(ctx).Governance()
		return err
	})
	return addr, ok, err
}

// AdminDelegate returns the administrative delegate.
func (l *Ledger) AdminDelegate() ([20]byte, bool, error) {
	var (
		addr [20]byte
		ok   bool
	)
	err := l.view(func(ctx *opContext) error {
		var err error
		addr, ok, err = l.newGovEngine(ctx).Delegate()
		return err
	})
	return addr, ok, err
}

// GovPending returns the queued governance handoff, if any.
func (l *Ledger) GovPending() (*gov.PendingChange, bool, error) {
	var (
		pending *gov.PendingChange
		ok      bool
	)
	err := l.view(func(ctx *opContext) error {
		var err error
		pending, ok, err = l.newGovEngine(ctx).PendingChange()
		return err
	})
	return pending, ok, err
}

// ModulePaused reports the pause switch for a module.
func (l *Ledger) ModulePaused(module string) (bool, error) {
	var paused bool
	err := l.view(func(ctx *opContext) error {
		var err error
		paused, err = ctx.manager.ModulePaused(module)
		return err
	})
	return paused, err
}

// HasRole reports whether addr belongs to the named role list.
func (l *Ledger) HasRole(role string, addr [20]byte) (bool, error) {
	var member bool
	err := l.view(func(ctx *opContext) error {
		member = ctx.manager.HasRole(role, addr[:])
		return nil
	})
	return member, err
}
