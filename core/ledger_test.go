package core

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"rotexchain/core/events"
	"rotexchain/core/genesis"
	"rotexchain/crypto"
	"rotexchain/native/auction"
	nativecommon "rotexchain/native/common"
	"rotexchain/native/exchange"
	"rotexchain/native/gov"
	"rotexchain/native/stats"
	"rotexchain/storage"
)

// The fixture rotation runs a single-token roster (AUR) on one-hour slots
// with no gap, so slot numbers and appearances advance hourly and the fourth
// appearance opens the first reverse window.
const ledgerGenesisUnix int64 = 1_700_000_000

func ledgerTestAddr(b byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = b
	}
	return addr
}

func ledgerTestBech32(b byte) string {
	addr := ledgerTestAddr(b)
	return crypto.NewAddress(crypto.RTXPrefix, addr[:]).String()
}

var (
	ledgerGovAddr    = ledgerTestAddr(0x01)
	ledgerAdminAddr  = ledgerTestAddr(0x02)
	ledgerUserAddr   = ledgerTestAddr(0x03)
	ledgerVaultAddr  = ledgerTestAddr(0x04)
	ledgerFeesAddr   = ledgerTestAddr(0x05)
	ledgerFunderAddr = ledgerTestAddr(0x06)
	ledgerClaimAddr  = ledgerTestAddr(0x07)
)

func ledgerTestConfig() LedgerConfig {
	return LedgerConfig{
		Vault:        ledgerVaultAddr,
		FeeCollector: ledgerFeesAddr,
		RosterSize:   1,
		SlotDuration: 3600,
	}
}

func ledgerGenesisSpec() *genesis.Spec {
	return &genesis.Spec{
		GenesisTime:   "2023-11-14T22:13:20Z",
		Governance:    ledgerTestBech32(0x01),
		AdminDelegate: ledgerTestBech32(0x02),
		Tokens: []genesis.TokenSpec{
			{Symbol: "STATE", Name: "Settlement Token", Decimals: 18},
			{Symbol: "DAV", Name: "Activity Voucher", Decimals: 0, MintAuthority: ledgerTestBech32(0x02)},
			{Symbol: "AUR", Name: "Aurora", Decimals: 6},
		},
		Alloc: map[string]map[string]string{
			ledgerTestBech32(0x03): {"AUR": "100000", "DAV": "1"},
			ledgerTestBech32(0x04): {"STATE": "500000"},
			ledgerTestBech32(0x06): {"AUR": "10000", "STATE": "20000"},
		},
		Roles: map[string][]string{
			RoleClaimModule: {ledgerTestBech32(0x07)},
		},
		Pairs: []genesis.PairSpec{
			{Token: "AUR", Settlement: "STATE", Funder: ledgerTestBech32(0x06), SeedToken: "10000", SeedSettlement: "20000"},
		},
		Schedule: &genesis.ScheduleSpec{Tokens: []string{"AUR"}},
	}
}

func newExchangeLedger(t *testing.T) (*Ledger, *storage.MemDB, *int64) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	ledger, err := NewLedger(db, ledgerTestConfig())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	t.Cleanup(ledger.Close)
	now := new(int64)
	*now = ledgerGenesisUnix + 10
	ledger.SetNowFunc(func() int64 { return *now })
	if err := ledger.ApplyGenesis(ledgerGenesisSpec()); err != nil {
		t.Fatalf("ApplyGenesis: %v", err)
	}
	return ledger, db, now
}

// seedBurnPrereqs records one claimed airdrop unit for the cycle and opens
// vault allowances over both legs of the flow.
func seedBurnPrereqs(t *testing.T, ledger *Ledger, cycle uint64) {
	t.Helper()
	if _, err := ledger.SetAirdropClaim(ledgerClaimAddr, ledgerUserAddr, "AUR", cycle, big.NewInt(1)); err != nil {
		t.Fatalf("SetAirdropClaim: %v", err)
	}
	for _, symbol := range []string{"AUR", "STATE"} {
		if err := ledger.TokenApprove(ledgerUserAddr, ledgerVaultAddr, symbol, big.NewInt(1_000_000)); err != nil {
			t.Fatalf("TokenApprove %s: %v", symbol, err)
		}
	}
}

func wantBalance(t *testing.T, ledger *Ledger, addr [20]byte, symbol string, want int64) {
	t.Helper()
	got, err := ledger.TokenBalance(addr, symbol)
	if err != nil {
		t.Fatalf("TokenBalance %s: %v", symbol, err)
	}
	if got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("balance %s: got %s want %d", symbol, got, want)
	}
}

func wantAmount(t *testing.T, label string, got *big.Int, want int64) {
	t.Helper()
	if got == nil || got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("%s: got %v want %d", label, got, want)
	}
}

func TestLedgerNormalFlow(t *testing.T) {
	ledger, _, now := newExchangeLedger(t)
	seedBurnPrereqs(t, ledger, 1)

	slot, err := ledger.TodayToken()
	if err != nil {
		t.Fatalf("TodayToken: %v", err)
	}
	if slot.Token != "AUR" || slot.Appearance != 1 || slot.Reverse || !slot.Active {
		t.Fatalf("unexpected opening slot: %+v", slot)
	}
	left, err := ledger.TimeLeft("AUR")
	if err != nil {
		t.Fatalf("TimeLeft: %v", err)
	}
	if left != 3590 {
		t.Fatalf("time left: got %d want 3590", left)
	}

	if _, err := ledger.ExchangeReverseSwap(ledgerUserAddr, big.NewInt(100)); !errors.Is(err, auction.ErrWrongPhase) {
		t.Fatalf("reverse swap during normal phase: got %v", err)
	}

	burn, err := ledger.ExchangeBurn(ledgerUserAddr)
	if err != nil {
		t.Fatalf("ExchangeBurn: %v", err)
	}
	if burn.Token != "AUR" || burn.Cycle != 1 {
		t.Fatalf("unexpected burn slot: %+v", burn)
	}
	wantAmount(t, "voucher applied", burn.VoucherApplied, 1)
	wantAmount(t, "tokens burned", burn.TokensBurned, 3000)
	wantAmount(t, "settlement gross", burn.SettlementGross, 12000)
	wantAmount(t, "settlement net", burn.SettlementNet, 11940)
	wantAmount(t, "burn fee", burn.Fee, 60)

	wantBalance(t, ledger, ledgerUserAddr, "AUR", 97000)
	wantBalance(t, ledger, ledgerUserAddr, "STATE", 11940)
	wantBalance(t, ledger, ledgerVaultAddr, "AUR", 3000)
	wantBalance(t, ledger, ledgerVaultAddr, "STATE", 488000)
	wantBalance(t, ledger, ledgerFeesAddr, "STATE", 60)

	cycle, ok, err := ledger.UserCycle(ledgerUserAddr, "AUR", 1)
	if err != nil || !ok {
		t.Fatalf("UserCycle: ok=%v err=%v", ok, err)
	}
	wantAmount(t, "cycle credit", cycle.SettlementCredit, 11940)
	wantAmount(t, "cycle burned", cycle.Burned, 3000)
	wantAmount(t, "cycle voucher used", cycle.VoucherUsed, 1)
	if !cycle.BurnOccurred || cycle.SwapOccurred {
		t.Fatalf("unexpected cycle flags: %+v", cycle)
	}

	receipt, ok, err := ledger.ExchangeReceipt(burn.Receipt)
	if err != nil || !ok {
		t.Fatalf("ExchangeReceipt: ok=%v err=%v", ok, err)
	}
	if receipt.Op != exchange.OpBurn || receipt.Timestamp != *now {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	wantAmount(t, "receipt in", receipt.AmountIn, 3000)
	wantAmount(t, "receipt out", receipt.AmountOut, 11940)

	registered, err := ledger.Registered(ledgerUserAddr)
	if err != nil || !registered {
		t.Fatalf("Registered: ok=%v err=%v", registered, err)
	}
	participants, err := ledger.Participants()
	if err != nil || participants != 1 {
		t.Fatalf("Participants: got %d err=%v", participants, err)
	}

	// The voucher balance is spent for the cycle; a second burn needs fresh
	// vouchers.
	if _, err := ledger.ExchangeBurn(ledgerUserAddr); !errors.Is(err, exchange.ErrInsufficientVoucher) {
		t.Fatalf("repeat burn: got %v", err)
	}

	*now = ledgerGenesisUnix + 20
	swap, err := ledger.ExchangeSwap(ledgerUserAddr)
	if err != nil {
		t.Fatalf("ExchangeSwap: %v", err)
	}
	wantAmount(t, "swap in", swap.SettlementIn, 11940)
	wantAmount(t, "swap out", swap.TokensOut, 3731)
	wantAmount(t, "swap credit left", swap.CreditRemaining, 0)

	wantBalance(t, ledger, ledgerUserAddr, "AUR", 100731)
	wantBalance(t, ledger, ledgerUserAddr, "STATE", 0)
	wantBalance(t, ledger, ledgerVaultAddr, "STATE", 488000)

	pair, err := ledger.PoolPair("AUR-STATE")
	if err != nil {
		t.Fatalf("PoolPair: %v", err)
	}
	wantAmount(t, "pool token reserve", pair.ReserveA, 6269)
	wantAmount(t, "pool settlement reserve", pair.ReserveB, 31940)

	if _, err := ledger.ExchangeSwap(ledgerUserAddr); !errors.Is(err, exchange.ErrNothingToSwap) {
		t.Fatalf("repeat swap: got %v", err)
	}

	today, err := ledger.StatsToday()
	if err != nil {
		t.Fatalf("StatsToday: %v", err)
	}
	wantAmount(t, "released", today.Released, 11940)
	wantAmount(t, "released normal", today.ReleasedNormal, 11940)
	wantAmount(t, "released reverse", today.ReleasedReverse, 0)
	if today.SwapCount != 1 || today.Participants != 1 {
		t.Fatalf("unexpected swap tallies: %+v", today)
	}
}

func TestLedgerVoucherRefreshRepeatsBurn(t *testing.T) {
	ledger, _, _ := newExchangeLedger(t)
	seedBurnPrereqs(t, ledger, 1)

	if _, err := ledger.ExchangeBurn(ledgerUserAddr); err != nil {
		t.Fatalf("first burn: %v", err)
	}
	if err := ledger.MintToken(ledgerAdminAddr, "DAV", ledgerUserAddr, big.NewInt(1)); err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	burn, err := ledger.ExchangeBurn(ledgerUserAddr)
	if err != nil {
		t.Fatalf("second burn: %v", err)
	}
	wantAmount(t, "voucher applied", burn.VoucherApplied, 1)
	wantAmount(t, "settlement net", burn.SettlementNet, 11940)

	cycle, ok, err := ledger.UserCycle(ledgerUserAddr, "AUR", 1)
	if err != nil || !ok {
		t.Fatalf("UserCycle: ok=%v err=%v", ok, err)
	}
	wantAmount(t, "cycle credit", cycle.SettlementCredit, 23880)
	wantAmount(t, "cycle burned", cycle.Burned, 6000)
	wantAmount(t, "cycle voucher used", cycle.VoucherUsed, 2)
	wantBalance(t, ledger, ledgerUserAddr, "AUR", 94000)
	wantBalance(t, ledger, ledgerFeesAddr, "STATE", 120)
}

func runNormalFlow(t *testing.T, ledger *Ledger, now *int64) {
	t.Helper()
	seedBurnPrereqs(t, ledger, 1)
	if _, err := ledger.ExchangeBurn(ledgerUserAddr); err != nil {
		t.Fatalf("ExchangeBurn: %v", err)
	}
	*now = ledgerGenesisUnix + 20
	if _, err := ledger.ExchangeSwap(ledgerUserAddr); err != nil {
		t.Fatalf("ExchangeSwap: %v", err)
	}
}

func TestLedgerReverseFlow(t *testing.T) {
	ledger, _, now := newExchangeLedger(t)
	runNormalFlow(t, ledger, now)

	// Appearance 4 of the single-token roster opens the reverse window.
	*now = ledgerGenesisUnix + 3*3600 + 10

	slot, err := ledger.ActiveSlot()
	if err != nil {
		t.Fatalf("ActiveSlot: %v", err)
	}
	if slot.Appearance != 4 || !slot.Reverse {
		t.Fatalf("unexpected reverse slot: %+v", slot)
	}
	if _, err := ledger.ExchangeBurn(ledgerUserAddr); !errors.Is(err, auction.ErrWrongPhase) {
		t.Fatalf("burn during reverse phase: got %v", err)
	}
	if _, err := ledger.ExchangeReverseSwap(ledgerUserAddr, big.NewInt(0)); !errors.Is(err, exchange.ErrZeroAmount) {
		t.Fatalf("zero reverse swap: got %v", err)
	}

	reverse, err := ledger.ExchangeReverseSwap(ledgerUserAddr, big.NewInt(5000))
	if err != nil {
		t.Fatalf("ExchangeReverseSwap: %v", err)
	}
	if reverse.Clamped {
		t.Fatalf("unexpected clamp: %+v", reverse)
	}
	wantAmount(t, "reverse cap", reverse.Cap, 10731)
	wantAmount(t, "reverse tokens in", reverse.TokensIn, 5000)
	wantAmount(t, "reverse settlement out", reverse.SettlementOut, 14147)

	wantBalance(t, ledger, ledgerUserAddr, "AUR", 95731)
	wantBalance(t, ledger, ledgerUserAddr, "STATE", 14147)
	wantBalance(t, ledger, ledgerVaultAddr, "AUR", 8000)
	wantBalance(t, ledger, ledgerVaultAddr, "STATE", 473853)

	if _, err := ledger.ExchangeReverseSwap(ledgerUserAddr, big.NewInt(100)); !errors.Is(err, exchange.ErrAlreadyDoneThisCycle) {
		t.Fatalf("repeat reverse swap: got %v", err)
	}

	pending, ok, err := ledger.ReverseCycle(ledgerUserAddr, "AUR", 4)
	if err != nil || !ok {
		t.Fatalf("ReverseCycle: ok=%v err=%v", ok, err)
	}
	wantAmount(t, "pending settlement", pending.SettlementOut, 14147)

	burn, err := ledger.ExchangeReverseBurn(ledgerUserAddr)
	if err != nil {
		t.Fatalf("ExchangeReverseBurn: %v", err)
	}
	wantAmount(t, "reverse burn in", burn.SettlementIn, 14147)
	wantAmount(t, "reverse burn gross", burn.TokensGross, 1388)
	wantAmount(t, "reverse burn net", burn.TokensNet, 1382)
	wantAmount(t, "reverse burn fee", burn.Fee, 6)

	wantBalance(t, ledger, ledgerUserAddr, "AUR", 97113)
	wantBalance(t, ledger, ledgerUserAddr, "STATE", 0)
	wantBalance(t, ledger, ledgerVaultAddr, "AUR", 6612)
	wantBalance(t, ledger, ledgerVaultAddr, "STATE", 488000)
	wantBalance(t, ledger, ledgerFeesAddr, "AUR", 6)

	if _, err := ledger.ExchangeReverseBurn(ledgerUserAddr); !errors.Is(err, exchange.ErrAlreadyDoneThisCycle) {
		t.Fatalf("repeat reverse burn: got %v", err)
	}

	today, err := ledger.StatsToday()
	if err != nil {
		t.Fatalf("StatsToday: %v", err)
	}
	wantAmount(t, "released", today.Released, 26087)
	wantAmount(t, "released normal", today.ReleasedNormal, 11940)
	wantAmount(t, "released reverse", today.ReleasedReverse, 14147)
}

func TestLedgerReverseClampAndEligibility(t *testing.T) {
	ledger, _, now := newExchangeLedger(t)
	runNormalFlow(t, ledger, now)
	*now = ledgerGenesisUnix + 3*3600 + 10

	// A participant with no prior claims, swaps or burns has a zero cap.
	if _, err := ledger.ExchangeReverseSwap(ledgerFunderAddr, big.NewInt(100)); !errors.Is(err, exchange.ErrNoPriorParticipation) {
		t.Fatalf("reverse without history: got %v", err)
	}

	// Asking for more than the three-cycle participation balance clamps down.
	reverse, err := ledger.ExchangeReverseSwap(ledgerUserAddr, big.NewInt(50000))
	if err != nil {
		t.Fatalf("ExchangeReverseSwap: %v", err)
	}
	if !reverse.Clamped {
		t.Fatalf("expected clamp: %+v", reverse)
	}
	wantAmount(t, "clamped tokens in", reverse.TokensIn, 10731)
	wantAmount(t, "reverse cap", reverse.Cap, 10731)
	wantAmount(t, "reverse settlement out", reverse.SettlementOut, 20139)
}

func TestLedgerFailedOpLeavesStateUntouched(t *testing.T) {
	ledger, db, _ := newExchangeLedger(t)

	rootBefore, seqBefore, err := loadLedgerHead(db)
	if err != nil {
		t.Fatalf("loadLedgerHead: %v", err)
	}

	// No claim recorded for the cycle: the burn fails after registering the
	// participant, and the registration must roll back with it.
	if _, err := ledger.ExchangeBurn(ledgerUserAddr); !errors.Is(err, exchange.ErrClaimMissing) {
		t.Fatalf("burn without claim: got %v", err)
	}

	rootAfter, seqAfter, err := loadLedgerHead(db)
	if err != nil {
		t.Fatalf("loadLedgerHead: %v", err)
	}
	if !bytes.Equal(rootBefore, rootAfter) || seqBefore != seqAfter {
		t.Fatalf("failed op advanced the ledger head")
	}
	registered, err := ledger.Registered(ledgerUserAddr)
	if err != nil {
		t.Fatalf("Registered: %v", err)
	}
	if registered {
		t.Fatalf("failed op left participant registered")
	}
	wantBalance(t, ledger, ledgerUserAddr, "AUR", 100000)
}

func TestLedgerNonceSequence(t *testing.T) {
	ledger, _, _ := newExchangeLedger(t)

	nonce, err := ledger.AccountNonce(ledgerUserAddr)
	if err != nil || nonce != 0 {
		t.Fatalf("AccountNonce: got %d err=%v", nonce, err)
	}
	if err := ledger.ConsumeNonce(ledgerUserAddr, 0); err != nil {
		t.Fatalf("ConsumeNonce: %v", err)
	}
	if err := ledger.ConsumeNonce(ledgerUserAddr, 0); !errors.Is(err, ErrNonceMismatch) {
		t.Fatalf("replayed nonce: got %v", err)
	}
	nonce, err = ledger.AccountNonce(ledgerUserAddr)
	if err != nil || nonce != 1 {
		t.Fatalf("AccountNonce after consume: got %d err=%v", nonce, err)
	}
	if err := ledger.ConsumeNonce(ledgerUserAddr, 1); err != nil {
		t.Fatalf("ConsumeNonce: %v", err)
	}
}

func TestLedgerPauseGuard(t *testing.T) {
	ledger, _, _ := newExchangeLedger(t)
	seedBurnPrereqs(t, ledger, 1)

	if err := ledger.SetModulePaused(ledgerAdminAddr, ModuleExchange, true); err != nil {
		t.Fatalf("SetModulePaused: %v", err)
	}
	paused, err := ledger.ModulePaused(ModuleExchange)
	if err != nil || !paused {
		t.Fatalf("ModulePaused: got %v err=%v", paused, err)
	}
	if _, err := ledger.ExchangeBurn(ledgerUserAddr); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("burn while paused: got %v", err)
	}

	// Administrative entry points bypass the guard.
	if _, err := ledger.SetAirdropClaim(ledgerAdminAddr, ledgerUserAddr, "AUR", 1, big.NewInt(1)); err != nil {
		t.Fatalf("SetAirdropClaim while paused: %v", err)
	}

	if err := ledger.SetModulePaused(ledgerAdminAddr, ModuleToken, true); err != nil {
		t.Fatalf("SetModulePaused token: %v", err)
	}
	if err := ledger.TokenTransfer(ledgerUserAddr, ledgerFunderAddr, "AUR", big.NewInt(1)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("transfer while paused: got %v", err)
	}
	if err := ledger.SetModulePaused(ledgerAdminAddr, ModuleToken, false); err != nil {
		t.Fatalf("unpause token: %v", err)
	}

	if err := ledger.SetModulePaused(ledgerAdminAddr, ModuleExchange, false); err != nil {
		t.Fatalf("unpause exchange: %v", err)
	}
	if _, err := ledger.ExchangeBurn(ledgerUserAddr); err != nil {
		t.Fatalf("burn after unpause: %v", err)
	}
}

func TestLedgerSubscription(t *testing.T) {
	ledger, _, _ := newExchangeLedger(t)
	seedBurnPrereqs(t, ledger, 1)

	id, ch := ledger.Subscribe(16)
	drain := func() []events.Event {
		var out []events.Event
		for {
			select {
			case evt, ok := <-ch:
				if !ok {
					return out
				}
				out = append(out, evt)
			default:
				return out
			}
		}
	}

	if _, err := ledger.ExchangeBurn(ledgerUserAddr); err != nil {
		t.Fatalf("ExchangeBurn: %v", err)
	}
	var burned *events.ExchangeBurned
	var joined bool
	for _, evt := range drain() {
		switch e := evt.(type) {
		case events.ExchangeBurned:
			burned = &e
		case events.RegistryParticipantAdded:
			joined = true
		}
	}
	if burned == nil || !joined {
		t.Fatalf("missing burn or registration event")
	}
	if burned.User != ledgerUserAddr || burned.Token != "AUR" {
		t.Fatalf("unexpected burn event: %+v", burned)
	}
	wantAmount(t, "event net", burned.SettlementNet, 11940)

	// Failed operations publish nothing.
	if _, err := ledger.ExchangeBurn(ledgerUserAddr); !errors.Is(err, exchange.ErrInsufficientVoucher) {
		t.Fatalf("repeat burn: got %v", err)
	}
	if leftover := drain(); len(leftover) != 0 {
		t.Fatalf("failed op published %d events", len(leftover))
	}

	ledger.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Fatalf("unsubscribed channel still open")
	}
}

func TestLedgerReopenPersistence(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	ledger, err := NewLedger(db, ledgerTestConfig())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	now := new(int64)
	*now = ledgerGenesisUnix + 10
	ledger.SetNowFunc(func() int64 { return *now })
	if err := ledger.ApplyGenesis(ledgerGenesisSpec()); err != nil {
		t.Fatalf("ApplyGenesis: %v", err)
	}
	runNormalFlow(t, ledger, now)
	ledger.Close()

	reopened, err := NewLedger(db, ledgerTestConfig())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	reopened.SetNowFunc(func() int64 { return *now })

	wantBalance(t, reopened, ledgerUserAddr, "AUR", 100731)
	cycle, ok, err := reopened.UserCycle(ledgerUserAddr, "AUR", 1)
	if err != nil || !ok {
		t.Fatalf("UserCycle after reopen: ok=%v err=%v", ok, err)
	}
	wantAmount(t, "cycle burned", cycle.Burned, 3000)
	wantAmount(t, "cycle swap received", cycle.SwapReceived, 3731)
	schedule, ok, err := reopened.Schedule()
	if err != nil || !ok {
		t.Fatalf("Schedule after reopen: ok=%v err=%v", ok, err)
	}
	if len(schedule.Tokens) != 1 || schedule.Tokens[0] != "AUR" || schedule.StartTime != ledgerGenesisUnix {
		t.Fatalf("unexpected schedule: %+v", schedule)
	}

	// The reopened ledger carries the history the reverse flow prices from.
	*now = ledgerGenesisUnix + 3*3600 + 10
	reverse, err := reopened.ExchangeReverseSwap(ledgerUserAddr, big.NewInt(5000))
	if err != nil {
		t.Fatalf("ExchangeReverseSwap after reopen: %v", err)
	}
	wantAmount(t, "reverse settlement out", reverse.SettlementOut, 14147)
}

func TestLedgerGenesisAppliesOnce(t *testing.T) {
	ledger, _, _ := newExchangeLedger(t)
	if err := ledger.ApplyGenesis(ledgerGenesisSpec()); !errors.Is(err, ErrGenesisApplied) {
		t.Fatalf("second genesis: got %v", err)
	}
}

func TestLedgerStatsRollover(t *testing.T) {
	ledger, _, now := newExchangeLedger(t)
	seedBurnPrereqs(t, ledger, 1)
	if _, err := ledger.ExchangeBurn(ledgerUserAddr); err != nil {
		t.Fatalf("ExchangeBurn: %v", err)
	}
	count, err := ledger.StatsDayCount()
	if err != nil || count != 0 {
		t.Fatalf("StatsDayCount: got %d err=%v", count, err)
	}
	openDay := stats.NextBoundary(*now, stats.DefaultUTCOffsetHours, stats.DefaultBoundaryHour, stats.DefaultBoundaryMinute) - stats.DayLength

	// Any committed operation after the day expires archives it.
	*now = ledgerGenesisUnix + stats.DayLength + 10
	if err := ledger.ConsumeNonce(ledgerUserAddr, 0); err != nil {
		t.Fatalf("ConsumeNonce: %v", err)
	}
	count, err = ledger.StatsDayCount()
	if err != nil || count != 1 {
		t.Fatalf("StatsDayCount after rollover: got %d err=%v", count, err)
	}
	day, ok, err := ledger.StatsDay(0)
	if err != nil || !ok {
		t.Fatalf("StatsDay: ok=%v err=%v", ok, err)
	}
	if day.Counters.DayStart != openDay {
		t.Fatalf("archived day start: got %d want %d", day.Counters.DayStart, openDay)
	}
	wantAmount(t, "archived released", day.Counters.Released, 11940)
	today, err := ledger.StatsToday()
	if err != nil {
		t.Fatalf("StatsToday: %v", err)
	}
	wantAmount(t, "fresh released", today.Released, 0)

	// A second commit inside the new day must not archive again.
	if err := ledger.ConsumeNonce(ledgerUserAddr, 1); err != nil {
		t.Fatalf("ConsumeNonce: %v", err)
	}
	count, err = ledger.StatsDayCount()
	if err != nil || count != 1 {
		t.Fatalf("StatsDayCount repeat: got %d err=%v", count, err)
	}
}

func TestLedgerAdminAuthority(t *testing.T) {
	ledger, _, _ := newExchangeLedger(t)

	if _, err := ledger.SetSchedule(ledgerUserAddr, []string{"AUR"}, ledgerGenesisUnix); !errors.Is(err, gov.ErrNotAdminDelegate) {
		t.Fatalf("schedule by outsider: got %v", err)
	}
	if _, err := ledger.SetSchedule(ledgerAdminAddr, []string{"AUR"}, ledgerGenesisUnix); !errors.Is(err, auction.ErrScheduleAlreadySet) {
		t.Fatalf("second schedule: got %v", err)
	}

	if _, err := ledger.SetAirdropClaim(ledgerUserAddr, ledgerUserAddr, "AUR", 1, big.NewInt(1)); !errors.Is(err, ErrNotClaimAuthority) {
		t.Fatalf("claim by outsider: got %v", err)
	}
	if _, err := ledger.SetAirdropClaim(ledgerClaimAddr, ledgerUserAddr, "AUR", 1, big.NewInt(1)); err != nil {
		t.Fatalf("claim by role holder: %v", err)
	}
	total, err := ledger.SetAirdropClaim(ledgerAdminAddr, ledgerUserAddr, "AUR", 1, big.NewInt(2))
	if err != nil {
		t.Fatalf("claim by delegate: %v", err)
	}
	wantAmount(t, "claim total", total, 3)

	if err := ledger.GovSetDelegate(ledgerAdminAddr, ledgerClaimAddr); !errors.Is(err, gov.ErrNotGovernance) {
		t.Fatalf("delegate change by delegate: got %v", err)
	}
	if err := ledger.GovSetDelegate(ledgerGovAddr, ledgerClaimAddr); err != nil {
		t.Fatalf("delegate change by governance: %v", err)
	}
	delegate, ok, err := ledger.AdminDelegate()
	if err != nil || !ok || delegate != ledgerClaimAddr {
		t.Fatalf("AdminDelegate: got %x ok=%v err=%v", delegate, ok, err)
	}
}
