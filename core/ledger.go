package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"rotexchain/core/events"
	rotexstate "rotexchain/core/state"
	"rotexchain/native/exchange"
	"rotexchain/native/stats"
	"rotexchain/observability"
	"rotexchain/storage"
	"rotexchain/storage/trie"
)

const (
	// DefaultVoucherSymbol is the DAV voucher token whose balance gates
	// burns.
	DefaultVoucherSymbol = "DAV"
	// RoleClaimModule authorizes recording per-cycle airdrop claims.
	RoleClaimModule = "ROLE_CLAIM_MODULE"
)

// Module names consulted by the pause guard. Administrative and governance
// entry points bypass the guard.
const (
	ModuleExchange = "exchange"
	ModulePool     = "pool"
	ModuleRegistry = "registry"
	ModuleToken    = "token"
)

// ErrNonceMismatch rejects signed operations submitted out of order.
var ErrNonceMismatch = errors.New("core: account nonce mismatch")

var (
	ledgerRootKey = []byte("ledger/root")
	ledgerSeqKey  = []byte("ledger/seq")
)

// LedgerConfig carries the host-level knobs. Zero values fall back to the
// engine defaults.
type LedgerConfig struct {
	Vault           [20]byte
	FeeCollector    [20]byte
	Settlement      string
	Voucher         string
	MaxParticipants uint64
	RosterSize      int
	SlotDuration    int64
	SlotGap         int64
	HandoffDelay    int64
}

// Ledger is the central controller owning storage, the state trie and the
// native engines. Every public entry point serializes on one mutex, rolls the
// stats day forward, and runs against a speculative trie copy that only
// becomes canonical when the operation succeeds.
type Ledger struct {
	mu       sync.Mutex
	db       storage.Database
	trie     *trie.Trie
	sequence uint64

	cfg   LedgerConfig
	nowFn func() int64

	subMu       sync.Mutex
	subscribers map[uint64]chan events.Event
	nextSubID   uint64
	closed      bool

	metrics *observability.LedgerMetrics
}

// NewLedger opens the ledger at the last committed root. When the trie node
// journal cannot resolve the recorded root the state is rebuilt from the flat
// mirror.
func NewLedger(db storage.Database, cfg LedgerConfig) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("core: database required")
	}
	if cfg.Settlement == "" {
		cfg.Settlement = exchange.DefaultSettlementSymbol
	}
	if cfg.Voucher == "" {
		cfg.Voucher = DefaultVoucherSymbol
	}
	root, sequence, err := loadLedgerHead(db)
	if err != nil {
		return nil, err
	}
	stateTrie, err := trie.NewTrie(db, root)
	if err != nil {
		stateTrie, err = rebuildFromMirror(db, root, sequence)
		if err != nil {
			return nil, err
		}
	}
	return &Ledger{
		db:          db,
		trie:        stateTrie,
		sequence:    sequence,
		cfg:         cfg,
		nowFn:       func() int64 { return time.Now().Unix() },
		subscribers: make(map[uint64]chan events.Event),
		metrics:     observability.Ledger(),
	}, nil
}

// SetNowFunc overrides the ledger clock, primarily for deterministic tests.
// Passing nil restores the wall clock.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nowFn = now
}

// Vault returns the exchange vault account.
func (l *Ledger) Vault() [20]byte { return l.cfg.Vault }

// Close shuts down the subscriber feeds. The backing database stays open; its
// lifecycle belongs to the caller.
func (l *Ledger) Close() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for id, ch := range l.subscribers {
		delete(l.subscribers, id)
		close(ch)
	}
}

// Subscribe registers a buffered event feed. Slow consumers drop events
// rather than blocking ledger commits.
func (l *Ledger) Subscribe(buffer int) (uint64, <-chan events.Event) {
	if buffer <= 0 {
		buffer = 64
	}
	l.subMu.Lock()
	defer l.subMu.Unlock()
	l.nextSubID++
	id := l.nextSubID
	ch := make(chan events.Event, buffer)
	if !l.closed {
		l.subscribers[id] = ch
	} else {
		close(ch)
	}
	return id, ch
}

// Unsubscribe tears down the feed registered under id.
func (l *Ledger) Unsubscribe(id uint64) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if ch, ok := l.subscribers[id]; ok {
		delete(l.subscribers, id)
		close(ch)
	}
}

func (l *Ledger) publish(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, evt := range evts {
		l.metrics.RecordEvent(evt.EventType())
		switch e := evt.(type) {
		case events.ExchangeBurned:
			l.metrics.RecordRelease("normal", e.SettlementNet)
		case events.ExchangeReverseSwapped:
			l.metrics.RecordRelease("reverse", e.SettlementOut)
		}
		for _, ch := range l.subscribers {
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

// opContext bundles the per-operation working state handed to entry points.
type opContext struct {
	manager  *rotexstate.Manager
	now      int64
	evts     *eventCollector
	archived bool
}

// eventCollector buffers engine events until the operation commits.
type eventCollector struct {
	list []events.Event
}

func (c *eventCollector) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	c.list = append(c.list, evt)
}

// run executes a mutating entry point. The operation works on a trie copy;
// only a fully successful run is committed, mirrored and published.
func (l *Ledger) run(op string, fn func(*opContext) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := time.Now()
	err := l.execute(fn)
	l.metrics.Observe(op, time.Since(start), err)
	return err
}

func (l *Ledger) execute(fn func(*opContext) error) error {
	ctx, err := l.begin()
	if err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}
	return l.commit(ctx)
}

// view executes a read-only entry point against a discarded trie copy. The
// rollover prologue still runs so queries observe the rolled day, but nothing
// it writes survives the call.
func (l *Ledger) view(fn func(*opContext) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ctx, err := l.begin()
	if err != nil {
		return err
	}
	return fn(ctx)
}

func (l *Ledger) begin() (*opContext, error) {
	work, err := l.trie.Copy()
	if err != nil {
		return nil, err
	}
	ctx := &opContext{
		manager: rotexstate.NewManager(work),
		now:     l.nowFn(),
		evts:    &eventCollector{},
	}
	archived, err := l.newStatsLedger(ctx).Rollover(ctx.now)
	if err != nil {
		return nil, err
	}
	ctx.archived = archived
	return ctx, nil
}

func (l *Ledger) commit(ctx *opContext) error {
	if ctx.manager.Dirty() == 0 {
		l.refreshGauges(ctx)
		l.publish(ctx.evts.list)
		return nil
	}
	work := ctx.manager.Trie()
	newRoot, err := work.Commit(l.trie.Root(), l.sequence+1)
	if err != nil {
		return err
	}
	if err := ctx.manager.FlushDirty(l.db); err != nil {
		return err
	}
	if err := storeLedgerHead(l.db, newRoot.Bytes(), l.sequence+1); err != nil {
		return err
	}
	l.trie = work
	l.sequence++
	if ctx.archived {
		l.metrics.RecordRollover()
	}
	l.refreshGauges(ctx)
	l.publish(ctx.evts.list)
	return nil
}

// refreshGauges snapshots the running day's participant tally and whether an
// auction window is open at ctx.now.
func (l *Ledger) refreshGauges(ctx *opContext) {
	if counters, ok, err := ctx.manager.StatsCurrent(); err == nil && ok {
		l.metrics.SetDayParticipants(counters.Participants)
	}
	active := 0
	if slot, err := l.newAuctionEngine(ctx).TodayToken(ctx.now); err == nil && slot.Active {
		active = 1
	}
	l.metrics.SetActiveAuctions(active)
}

// ConsumeNonce verifies and advances the replay-protection nonce for addr.
// The nonce is consumed even when the operation it fronts later fails.
func (l *Ledger) ConsumeNonce(addr [20]byte, nonce uint64) error {
	return l.run("nonce.consume", func(ctx *opContext) error {
		current, err := ctx.manager.AccountNonce(addr)
		if err != nil {
			return err
		}
		if nonce != current {
			return fmt.Errorf("%w: have %d, want %d", ErrNonceMismatch, nonce, current)
		}
		return ctx.manager.PutAccountNonce(addr, current+1)
	})
}

// AccountNonce reports the next expected nonce for addr.
func (l *Ledger) AccountNonce(addr [20]byte) (uint64, error) {
	var nonce uint64
	err := l.view(func(ctx *opContext) error {
		var err error
		nonce, err = ctx.manager.AccountNonce(addr)
		return err
	})
	return nonce, err
}

func (l *Ledger) newStatsLedger(ctx *opContext) *stats.Ledger {
	ledger := stats.NewLedger()
	ledger.SetState(ctx.manager)
	ledger.SetEmitter(ctx.evts)
	ledger.SetNowFunc(func() int64 { return ctx.now })
	return ledger
}

func loadLedgerHead(db storage.Database) ([]byte, uint64, error) {
	root, err := db.Get(ledgerRootKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	seqBytes, err := db.Get(ledgerSeqKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return root, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	if len(seqBytes) != 8 {
		return nil, 0, fmt.Errorf("core: malformed ledger sequence record")
	}
	return root, binary.BigEndian.Uint64(seqBytes), nil
}

func storeLedgerHead(db storage.Database, root []byte, sequence uint64) error {
	if err := db.Put(ledgerRootKey, root); err != nil {
		return err
	}
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, sequence)
	return db.Put(ledgerSeqKey, seqBytes)
}

func rebuildFromMirror(db storage.Database, root []byte, sequence uint64) (*trie.Trie, error) {
	rebuilt, err := trie.NewTrie(db, nil)
	if err != nil {
		return nil, err
	}
	manager := rotexstate.NewManager(rebuilt)
	if err := manager.Replay(db); err != nil {
		return nil, err
	}
	newRoot, err := rebuilt.Commit(rebuilt.Root(), sequence)
	if err != nil {
		return nil, err
	}
	if len(root) > 0 && !bytes.Equal(newRoot.Bytes(), root) {
		return nil, fmt.Errorf("core: state mirror does not reproduce recorded root")
	}
	return rebuilt, nil
}
