package core

import (
	"math/big"

	rotexstate "rotexchain/core/state"
	"rotexchain/native/auction"
	"rotexchain/native/exchange"
	"rotexchain/native/gov"
	"rotexchain/native/pool"
	"rotexchain/native/registry"
)

// Engines are rebuilt per operation over the working manager, matching the
// speculative-copy lifecycle: a discarded copy takes its engines with it.

func (l *Ledger) newAuctionEngine(ctx *opContext) *auction.Engine {
	engine := auction.NewEngine()
	engine.SetState(ctx.manager)
	engine.SetEmitter(ctx.evts)
	engine.SetNowFunc(func() int64 { return ctx.now })
	if l.cfg.RosterSize > 0 || l.cfg.SlotDuration > 0 || l.cfg.SlotGap > 0 {
		engine.SetRotation(l.cfg.RosterSize, l.cfg.SlotDuration, l.cfg.SlotGap)
	}
	return engine
}

func (l *Ledger) newRegistryEngine(ctx *opContext) *registry.Engine {
	engine := registry.NewEngine()
	engine.SetState(ctx.manager)
	engine.SetEmitter(ctx.evts)
	engine.SetNowFunc(func() int64 { return ctx.now })
	if l.cfg.MaxParticipants > 0 {
		engine.SetMaxParticipants(l.cfg.MaxParticipants)
	}
	return engine
}

func (l *Ledger) newPoolEngine(ctx *opContext) *pool.Engine {
	engine := pool.NewEngine()
	engine.SetState(ctx.manager)
	engine.SetEmitter(ctx.evts)
	engine.SetNowFunc(func() int64 { return ctx.now })
	return engine
}

func (l *Ledger) newGovEngine(ctx *opContext) *gov.Engine {
	engine := gov.NewEngine()
	engine.SetState(ctx.manager)
	engine.SetEmitter(ctx.evts)
	engine.SetNowFunc(func() int64 { return ctx.now })
	if l.cfg.HandoffDelay > 0 {
		engine.SetHandoffDelay(l.cfg.HandoffDelay)
	}
	return engine
}

func (l *Ledger) newExchangeEngine(ctx *opContext) *exchange.Engine {
	engine := exchange.NewEngine()
	engine.SetState(ctx.manager)
	engine.SetTokenLedger(managerTokenLedger{manager: ctx.manager})
	engine.SetPool(l.newPoolEngine(ctx))
	engine.SetAuctioneer(l.newAuctionEngine(ctx))
	engine.SetRegistrar(l.newRegistryEngine(ctx))
	engine.SetVoucherSource(voucherBalanceSource{manager: ctx.manager, symbol: l.cfg.Voucher})
	engine.SetClaimSource(airdropClaimSource{manager: ctx.manager})
	engine.SetFeeDistributor(vaultFeeDistributor{
		manager:   ctx.manager,
		vault:     l.cfg.Vault,
		collector: l.cfg.FeeCollector,
	})
	engine.SetEmitter(ctx.evts)
	engine.SetNowFunc(func() int64 { return ctx.now })
	engine.SetVault(l.cfg.Vault)
	engine.SetSettlementSymbol(l.cfg.Settlement)
	return engine
}

// managerTokenLedger bridges the exchange engine's fixed-size addresses onto
// the byte-slice ledger API.
type managerTokenLedger struct {
	manager *rotexstate.Manager
}

func (b managerTokenLedger) BalanceOf(addr [20]byte, symbol string) (*big.Int, error) {
	return b.manager.Balance(addr[:], symbol)
}

func (b managerTokenLedger) Transfer(from, to [20]byte, symbol string, amount *big.Int) error {
	return b.manager.Transfer(from[:], to[:], symbol, amount)
}

func (b managerTokenLedger) TransferFrom(spender, owner, to [20]byte, symbol string, amount *big.Int) error {
	return b.manager.TransferFrom(spender[:], owner[:], to[:], symbol, amount)
}

func (b managerTokenLedger) Allowance(owner, spender [20]byte, symbol string) (*big.Int, error) {
	return b.manager.Allowance(owner[:], spender[:], symbol)
}

func (b managerTokenLedger) Approve(owner, spender [20]byte, symbol string, amount *big.Int) error {
	return b.manager.Approve(owner[:], spender[:], symbol, amount)
}

// voucherBalanceSource reads the live voucher balance off the token ledger.
type voucherBalanceSource struct {
	manager *rotexstate.Manager
	symbol  string
}

func (v voucherBalanceSource) ActiveBalance(addr [20]byte) (*big.Int, error) {
	return v.manager.Balance(addr[:], v.symbol)
}

// airdropClaimSource surfaces recorded per-cycle claims to the burn gate.
type airdropClaimSource struct {
	manager *rotexstate.Manager
}

func (a airdropClaimSource) ClaimedUnits(addr [20]byte, token string, cycle uint64) (*big.Int, error) {
	return a.manager.AirdropClaim(addr, token, cycle)
}

// vaultFeeDistributor forwards retained fees from the vault to the collector
// account. Without a collector the fees stay in the vault.
type vaultFeeDistributor struct {
	manager   *rotexstate.Manager
	vault     [20]byte
	collector [20]byte
}

func (d vaultFeeDistributor) Distribute(symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if d.collector == ([20]byte{}) {
		return nil
	}
	return d.manager.Transfer(d.vault[:], d.collector[:], symbol, amount)
}
