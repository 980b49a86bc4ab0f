package state

import (
	"fmt"

	"rotexchain/native/pool"
)

func poolPairKey(id string) []byte {
	return []byte(fmt.Sprintf("pool/pair/%s", id))
}

func poolTokenIndexKey(symbol string) []byte {
	return []byte(fmt.Sprintf("pool/token/%s", normalizeSymbol(symbol)))
}

// PoolPair loads a pair record by identifier.
func (m *Manager) PoolPair(id string) (*pool.Pair, bool, error) {
	pair := new(pool.Pair)
	ok, err := m.KVGet(poolPairKey(id), pair)
	if err != nil || !ok {
		return nil, ok, err
	}
	return pair, true, nil
}

// PutPoolPair persists a pair record.
func (m *Manager) PutPoolPair(pair *pool.Pair) error {
	if pair == nil {
		return fmt.Errorf("pool: nil pair")
	}
	return m.KVPut(poolPairKey(pair.ID), pair)
}

// PoolPairIDForToken resolves the pair a token trades in.
func (m *Manager) PoolPairIDForToken(symbol string) (string, bool, error) {
	var id string
	ok, err := m.KVGet(poolTokenIndexKey(symbol), &id)
	return id, ok, err
}

// PutPoolPairIDForToken indexes the pair a token trades in.
func (m *Manager) PutPoolPairIDForToken(symbol, id string) error {
	return m.KVPut(poolTokenIndexKey(symbol), id)
}

// PoolVaultAddress derives the deterministic account holding a pair's
// reserves.
func (m *Manager) PoolVaultAddress(id string) ([20]byte, error) {
	if id == "" {
		return [20]byte{}, fmt.Errorf("pool: empty pair id")
	}
	return ModuleAddress("pool-vault/" + id), nil
}
