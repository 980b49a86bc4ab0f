// core/genesis/loader.go
package genesis

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"rotexchain/core/state"
	"rotexchain/native/auction"
	"rotexchain/native/pool"
	"rotexchain/native/registry"
)

// Params carries the host rotation geometry so the installed schedule and
// registry caps match the running configuration.
type Params struct {
	RosterSize      int
	SlotDuration    int64
	SlotGap         int64
	MaxParticipants uint64
}

// Apply executes the spec against an empty state. The caller owns the
// transaction boundary; a failed apply must discard the manager's trie.
func Apply(manager *state.Manager, spec *Spec, params Params) error {
	if manager == nil {
		return fmt.Errorf("state manager must not be nil")
	}
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	genesisUnix := spec.GenesisTimestamp().Unix()

	// 1) Tokens (sorted)
	tokens := append([]TokenSpec(nil), spec.Tokens...)
	sort.Slice(tokens, func(i, j int) bool {
		return strings.ToUpper(tokens[i].Symbol) < strings.ToUpper(tokens[j].Symbol)
	})
	for i := range tokens {
		token := &tokens[i]
		if err := manager.RegisterToken(token.Symbol, token.Name, token.Decimals); err != nil {
			return fmt.Errorf("register token %q: %w", token.Symbol, err)
		}
		if strings.TrimSpace(token.MintAuthority) != "" {
			addr, err := ParseBech32Account(strings.TrimSpace(token.MintAuthority))
			if err != nil {
				return fmt.Errorf("token %q mintAuthority: %w", token.Symbol, err)
			}
			if err := manager.SetTokenMintAuthority(token.Symbol, addr[:]); err != nil {
				return fmt.Errorf("token %q: %w", token.Symbol, err)
			}
		}
		if token.InitialMintPaused != nil {
			if err := manager.SetTokenMintPaused(token.Symbol, *token.InitialMintPaused); err != nil {
				return fmt.Errorf("token %q: %w", token.Symbol, err)
			}
		}
	}

	// 2) Allocations (outer: addresses sorted; inner: symbols sorted). The
	// per-symbol totals become the initial token supply.
	supplies := make(map[string]*big.Int)
	allocAddresses := make([]string, 0, len(spec.Alloc))
	for addr := range spec.Alloc {
		allocAddresses = append(allocAddresses, addr)
	}
	sort.Strings(allocAddresses)
	for _, addrStr := range allocAddresses {
		parsed, err := ParseBech32Account(addrStr)
		if err != nil {
			return fmt.Errorf("alloc[%q]: %w", addrStr, err)
		}
		balances := spec.Alloc[addrStr]
		symbols := make([]string, 0, len(balances))
		for symbol := range balances {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		for _, symbol := range symbols {
			normalized := strings.ToUpper(strings.TrimSpace(symbol))
			amount, ok := new(big.Int).SetString(strings.TrimSpace(balances[symbol]), 10)
			if !ok {
				return fmt.Errorf("alloc[%q][%q]: invalid amount %q", addrStr, symbol, balances[symbol])
			}
			if err := manager.SetBalance(parsed[:], normalized, amount); err != nil {
				return fmt.Errorf("alloc[%q][%q]: %w", addrStr, symbol, err)
			}
			total, ok := supplies[normalized]
			if !ok {
				total = big.NewInt(0)
			}
			supplies[normalized] = new(big.Int).Add(total, amount)
		}
	}
	supplySymbols := make([]string, 0, len(supplies))
	for symbol := range supplies {
		supplySymbols = append(supplySymbols, symbol)
	}
	sort.Strings(supplySymbols)
	for _, symbol := range supplySymbols {
		if err := manager.SetTokenSupply(symbol, supplies[symbol]); err != nil {
			return fmt.Errorf("supply %q: %w", symbol, err)
		}
	}

	// 3) Roles (role name sorted; addresses sorted)
	roleNames := make([]string, 0, len(spec.Roles))
	for role := range spec.Roles {
		roleNames = append(roleNames, role)
	}
	sort.Strings(roleNames)
	for _, role := range roleNames {
		addresses := append([]string(nil), spec.Roles[role]...)
		sort.Strings(addresses)
		for _, addrStr := range addresses {
			parsed, err := ParseBech32Account(addrStr)
			if err != nil {
				return fmt.Errorf("roles[%q]: %w", role, err)
			}
			if err := manager.SetRole(role, parsed[:]); err != nil {
				return fmt.Errorf("roles[%q]: %w", role, err)
			}
		}
	}

	// 4) Governance identities
	if err := manager.PutGovernanceAddress(spec.GovernanceAddress()); err != nil {
		return fmt.Errorf("governance: %w", err)
	}
	if delegate, ok := spec.DelegateAddress(); ok {
		if err := manager.PutAdminDelegate(delegate); err != nil {
			return fmt.Errorf("adminDelegate: %w", err)
		}
	}

	// 5) Pairs: admit the auction token, create and seed the pool, attach it.
	registryEngine := registry.NewEngine()
	registryEngine.SetState(manager)
	registryEngine.SetNowFunc(func() int64 { return genesisUnix })
	if params.MaxParticipants > 0 {
		registryEngine.SetMaxParticipants(params.MaxParticipants)
	}
	poolEngine := pool.NewEngine()
	poolEngine.SetState(manager)
	poolEngine.SetNowFunc(func() int64 { return genesisUnix })
	for i := range spec.Pairs {
		p := &spec.Pairs[i]
		if _, err := registryEngine.AdmitToken(p.Token, spec.GovernanceAddress()); err != nil {
			return fmt.Errorf("pair[%d] admit %q: %w", i, p.Token, err)
		}
		pair, err := poolEngine.CreatePair(p.Token, p.Settlement)
		if err != nil {
			return fmt.Errorf("pair[%d] create: %w", i, err)
		}
		if p.seedTokenAmt.Sign() > 0 || p.seedSettlementAmt.Sign() > 0 {
			if _, err := poolEngine.Seed(p.funderAddr, pair.ID, p.seedTokenAmt, p.seedSettlementAmt); err != nil {
				return fmt.Errorf("pair[%d] seed: %w", i, err)
			}
		}
		if err := registryEngine.AttachPool(p.Token, pair.ID); err != nil {
			return fmt.Errorf("pair[%d] attach: %w", i, err)
		}
	}

	// 6) Schedule last so every roster token is registered.
	if spec.Schedule != nil {
		auctionEngine := auction.NewEngine()
		auctionEngine.SetState(manager)
		auctionEngine.SetNowFunc(func() int64 { return genesisUnix })
		if params.RosterSize > 0 || params.SlotDuration > 0 || params.SlotGap > 0 {
			auctionEngine.SetRotation(params.RosterSize, params.SlotDuration, params.SlotGap)
		}
		start := spec.Schedule.StartTime
		if start == 0 {
			start = genesisUnix
		}
		if _, err := auctionEngine.SetSchedule(spec.Schedule.Tokens, start); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	}
	return nil
}
