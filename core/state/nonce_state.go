package state

import "fmt"

func accountNonceKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("nonce/%x", addr))
}

// AccountNonce returns the next expected nonce for addr, zero for accounts
// that have never submitted a signed operation.
func (m *Manager) AccountNonce(addr [20]byte) (uint64, error) {
	var nonce uint64
	ok, err := m.KVGet(accountNonceKey(addr), &nonce)
	if err != nil || !ok {
		return 0, err
	}
	return nonce, nil
}

// PutAccountNonce stores the next expected nonce for addr.
func (m *Manager) PutAccountNonce(addr [20]byte, nonce uint64) error {
	return m.KVPut(accountNonceKey(addr), nonce)
}
