// core/genesis/spec.go
package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"
)

// Spec is the bootstrap document applied to an empty ledger: the token set,
// initial balances, role grants, governance identities, liquidity pairs and
// the rotation schedule.
type Spec struct {
	GenesisTime   string                       `json:"genesisTime"`
	Governance    string                       `json:"governance"`
	AdminDelegate string                       `json:"adminDelegate,omitempty"`
	Tokens        []TokenSpec                  `json:"tokens"`
	Alloc         map[string]map[string]string `json:"alloc"` // addr -> token -> amount
	Roles         map[string][]string          `json:"roles"` // role -> []addr
	Pairs         []PairSpec                   `json:"pairs,omitempty"`
	Schedule      *ScheduleSpec                `json:"schedule,omitempty"`

	genesisTimestamp time.Time
	governanceAddr   [20]byte
	delegateAddr     [20]byte
	hasDelegate      bool
}

type TokenSpec struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	Decimals          uint8  `json:"decimals"`
	MintAuthority     string `json:"mintAuthority,omitempty"`
	InitialMintPaused *bool  `json:"initialMintPaused,omitempty"`
}

// PairSpec admits an auction token to the roster and backs it with a seeded
// liquidity pair against the settlement token.
type PairSpec struct {
	Token          string `json:"token"`
	Settlement     string `json:"settlement"`
	Funder         string `json:"funder,omitempty"`
	SeedToken      string `json:"seedToken,omitempty"`
	SeedSettlement string `json:"seedSettlement,omitempty"`

	funderAddr        [20]byte
	hasFunder         bool
	seedTokenAmt      *big.Int
	seedSettlementAmt *big.Int
}

// ScheduleSpec installs the rotation roster. A zero start time begins the
// rotation at the genesis timestamp.
type ScheduleSpec struct {
	Tokens    []string `json:"tokens"`
	StartTime int64    `json:"startTime,omitempty"`
}

func LoadSpec(path string) (*Spec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	var spec Spec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode genesis spec %q: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis spec %q: %w", path, err)
	}
	return &spec, nil
}

func (s *Spec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

// GovernanceAddress is the parsed governance account.
func (s *Spec) GovernanceAddress() [20]byte { return s.governanceAddr }

// DelegateAddress is the parsed admin delegate, when configured.
func (s *Spec) DelegateAddress() ([20]byte, bool) {
	return s.delegateAddr, s.hasDelegate
}

// Validate checks the document and caches the parsed addresses and amounts.
// It must pass before Apply is called.
func (s *Spec) Validate() error {
	parsedTime, err := parseGenesisTime(s.GenesisTime)
	if err != nil {
		return err
	}
	s.genesisTimestamp = parsedTime

	if strings.TrimSpace(s.Governance) == "" {
		return fmt.Errorf("governance must be provided")
	}
	govAddr, err := ParseBech32Account(strings.TrimSpace(s.Governance))
	if err != nil {
		return fmt.Errorf("governance: %w", err)
	}
	if govAddr == ([20]byte{}) {
		return fmt.Errorf("governance: zero address")
	}
	s.governanceAddr = govAddr

	s.hasDelegate = false
	if strings.TrimSpace(s.AdminDelegate) != "" {
		delegate, err := ParseBech32Account(strings.TrimSpace(s.AdminDelegate))
		if err != nil {
			return fmt.Errorf("adminDelegate: %w", err)
		}
		if delegate == ([20]byte{}) {
			return fmt.Errorf("adminDelegate: zero address")
		}
		s.delegateAddr = delegate
		s.hasDelegate = true
	}

	// tokens
	tokenSymbols := make(map[string]struct{}, len(s.Tokens))
	for i := range s.Tokens {
		if err := s.Tokens[i].validate(); err != nil {
			return fmt.Errorf("token[%d]: %w", i, err)
		}
		key := strings.ToUpper(strings.TrimSpace(s.Tokens[i].Symbol))
		if _, exists := tokenSymbols[key]; exists {
			return fmt.Errorf("token[%d]: duplicate symbol %q", i, s.Tokens[i].Symbol)
		}
		tokenSymbols[key] = struct{}{}
	}

	// alloc
	if len(s.Alloc) > 0 {
		accounts := make([]string, 0, len(s.Alloc))
		for account := range s.Alloc {
			accounts = append(accounts, account)
		}
		sort.Strings(accounts)
		for _, account := range accounts {
			if _, err := ParseBech32Account(account); err != nil {
				return fmt.Errorf("alloc[%q]: %w", account, err)
			}
			tokenAlloc := s.Alloc[account]
			if len(tokenAlloc) == 0 {
				continue
			}
			symbols := make([]string, 0, len(tokenAlloc))
			for symbol := range tokenAlloc {
				symbols = append(symbols, symbol)
			}
			sort.Strings(symbols)
			seen := make(map[string]struct{}, len(symbols))
			for _, symbol := range symbols {
				amount := tokenAlloc[symbol]
				if strings.TrimSpace(amount) == "" {
					return fmt.Errorf("alloc[%q][%q]: amount must be provided", account, symbol)
				}
				parsed, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
				if !ok || parsed.Sign() < 0 {
					return fmt.Errorf("alloc[%q][%q]: invalid amount %q", account, symbol, amount)
				}
				symKey := strings.ToUpper(strings.TrimSpace(symbol))
				if _, exists := tokenSymbols[symKey]; !exists {
					return fmt.Errorf("alloc[%q][%q]: undefined token", account, symbol)
				}
				if _, dup := seen[symKey]; dup {
					return fmt.Errorf("alloc[%q]: duplicate token %q", account, symbol)
				}
				seen[symKey] = struct{}{}
			}
		}
	}

	// roles
	roleNames := make([]string, 0, len(s.Roles))
	for role := range s.Roles {
		roleNames = append(roleNames, role)
	}
	sort.Strings(roleNames)
	for _, role := range roleNames {
		if strings.TrimSpace(role) == "" {
			return fmt.Errorf("roles: role name must be provided")
		}
		accounts := s.Roles[role]
		for i, account := range accounts {
			if _, err := ParseBech32Account(account); err != nil {
				return fmt.Errorf("roles[%q][%d]: %w", role, i, err)
			}
		}
	}

	// pairs
	pairTokens := make(map[string]struct{}, len(s.Pairs))
	for i := range s.Pairs {
		p := &s.Pairs[i]
		if err := p.validate(tokenSymbols); err != nil {
			return fmt.Errorf("pair[%d]: %w", i, err)
		}
		key := strings.ToUpper(strings.TrimSpace(p.Token))
		if _, exists := pairTokens[key]; exists {
			return fmt.Errorf("pair[%d]: duplicate token %q", i, p.Token)
		}
		pairTokens[key] = struct{}{}
	}

	// schedule
	if s.Schedule != nil {
		if len(s.Schedule.Tokens) == 0 {
			return fmt.Errorf("schedule: tokens must be provided")
		}
		if s.Schedule.StartTime < 0 {
			return fmt.Errorf("schedule: negative start time")
		}
		seen := make(map[string]struct{}, len(s.Schedule.Tokens))
		for i, symbol := range s.Schedule.Tokens {
			key := strings.ToUpper(strings.TrimSpace(symbol))
			if key == "" {
				return fmt.Errorf("schedule.tokens[%d]: symbol must be provided", i)
			}
			if _, exists := tokenSymbols[key]; !exists {
				return fmt.Errorf("schedule.tokens[%d]: undefined token %q", i, symbol)
			}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("schedule.tokens[%d]: duplicate token %q", i, symbol)
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}

func (t *TokenSpec) validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("symbol must be provided")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name must be provided")
	}
	if t.Decimals > 18 {
		return fmt.Errorf("decimals must be 18 or fewer")
	}
	if strings.TrimSpace(t.MintAuthority) != "" {
		if _, err := ParseBech32Account(strings.TrimSpace(t.MintAuthority)); err != nil {
			return fmt.Errorf("mintAuthority: %w", err)
		}
	}
	return nil
}

func (p *PairSpec) validate(tokenSymbols map[string]struct{}) error {
	token := strings.ToUpper(strings.TrimSpace(p.Token))
	settlement := strings.ToUpper(strings.TrimSpace(p.Settlement))
	if token == "" {
		return fmt.Errorf("token must be provided")
	}
	if settlement == "" {
		return fmt.Errorf("settlement must be provided")
	}
	if token == settlement {
		return fmt.Errorf("token and settlement must differ")
	}
	if _, exists := tokenSymbols[token]; !exists {
		return fmt.Errorf("undefined token %q", p.Token)
	}
	if _, exists := tokenSymbols[settlement]; !exists {
		return fmt.Errorf("undefined settlement token %q", p.Settlement)
	}
	seedToken, err := parseAmountString(p.SeedToken)
	if err != nil {
		return fmt.Errorf("seedToken: %w", err)
	}
	seedSettlement, err := parseAmountString(p.SeedSettlement)
	if err != nil {
		return fmt.Errorf("seedSettlement: %w", err)
	}
	p.hasFunder = false
	if strings.TrimSpace(p.Funder) != "" {
		funder, err := ParseBech32Account(strings.TrimSpace(p.Funder))
		if err != nil {
			return fmt.Errorf("funder: %w", err)
		}
		p.funderAddr = funder
		p.hasFunder = true
	}
	if (seedToken.Sign() > 0 || seedSettlement.Sign() > 0) && !p.hasFunder {
		return fmt.Errorf("funder required when seeding reserves")
	}
	p.seedTokenAmt = seedToken
	p.seedSettlementAmt = seedSettlement
	return nil
}

func parseAmountString(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func parseGenesisTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("genesisTime must be provided")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid genesisTime %q", value)
}
