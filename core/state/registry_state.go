package state

import (
	"fmt"

	"rotexchain/native/registry"
)

var (
	participantCountKey = []byte("registry/participants/count")
	registryTokensKey   = []byte("registry/tokens")
)

func participantKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("registry/participant/%x", addr))
}

func registryTokenKey(symbol string) []byte {
	return []byte(fmt.Sprintf("registry/token/%s", normalizeSymbol(symbol)))
}

// storedTokenEntry is the RLP shape of an admitted auction token.
type storedTokenEntry struct {
	Symbol    string
	PairID    string
	Owner     [20]byte
	Supported bool
	CreatedAt uint64
}

// ParticipantCount reports how many unique participants have registered.
func (m *Manager) ParticipantCount() (uint64, error) {
	var count uint64
	if _, err := m.KVGet(participantCountKey, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// PutParticipantCount persists the participant counter.
func (m *Manager) PutParticipantCount(count uint64) error {
	return m.KVPut(participantCountKey, count)
}

// ParticipantExists reports whether the address has registered.
func (m *Manager) ParticipantExists(addr [20]byte) (bool, error) {
	return m.KVGet(participantKey(addr), nil)
}

// MarkParticipant records the address as registered.
func (m *Manager) MarkParticipant(addr [20]byte) error {
	return m.KVPut(participantKey(addr), uint64(1))
}

// RegistryToken loads an admitted token entry.
func (m *Manager) RegistryToken(symbol string) (*registry.TokenEntry, bool, error) {
	stored := new(storedTokenEntry)
	ok, err := m.KVGet(registryTokenKey(symbol), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &registry.TokenEntry{
		Symbol:    stored.Symbol,
		PairID:    stored.PairID,
		Owner:     stored.Owner,
		Supported: stored.Supported,
		CreatedAt: int64(stored.CreatedAt),
	}, true, nil
}

// PutRegistryToken persists a token entry and indexes its symbol.
func (m *Manager) PutRegistryToken(entry *registry.TokenEntry) error {
	if entry == nil {
		return fmt.Errorf("registry: nil token entry")
	}
	if err := m.KVPut(registryTokenKey(entry.Symbol), &storedTokenEntry{
		Symbol:    entry.Symbol,
		PairID:    entry.PairID,
		Owner:     entry.Owner,
		Supported: entry.Supported,
		CreatedAt: uint64(entry.CreatedAt),
	}); err != nil {
		return err
	}
	return m.KVAppend(registryTokensKey, []byte(entry.Symbol))
}

// RegistryTokenSymbols lists admitted token symbols in admission order.
func (m *Manager) RegistryTokenSymbols() ([]string, error) {
	var raw [][]byte
	if err := m.KVGetList(registryTokensKey, &raw); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(raw))
	for _, symbol := range raw {
		symbols = append(symbols, string(symbol))
	}
	return symbols, nil
}
