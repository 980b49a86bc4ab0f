package state

import (
	"fmt"

	"rotexchain/native/gov"
)

var (
	govPendingKey  = []byte("gov/pending")
	govAddressKey  = []byte("gov/governance")
	govDelegateKey = []byte("gov/delegate")
)

// storedPendingChange is the RLP shape of a queued governance handoff.
type storedPendingChange struct {
	NewGovernance     [20]byte
	EarliestExecution uint64
}

// GovPendingChange loads the queued governance handoff, if any.
func (m *Manager) GovPendingChange() (*gov.PendingChange, bool, error) {
	stored := new(storedPendingChange)
	ok, err := m.KVGet(govPendingKey, stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &gov.PendingChange{
		NewGovernance:     stored.NewGovernance,
		EarliestExecution: int64(stored.EarliestExecution),
	}, true, nil
}

// PutGovPendingChange persists the queued governance handoff.
func (m *Manager) PutGovPendingChange(change *gov.PendingChange) error {
	if change == nil {
		return fmt.Errorf("gov: nil pending change")
	}
	return m.KVPut(govPendingKey, &storedPendingChange{
		NewGovernance:     change.NewGovernance,
		EarliestExecution: uint64(change.EarliestExecution),
	})
}

// ClearGovPendingChange removes the queued governance handoff.
func (m *Manager) ClearGovPendingChange() error {
	return m.KVDelete(govPendingKey)
}

// GovernanceAddress loads the governance identity.
func (m *Manager) GovernanceAddress() ([20]byte, bool, error) {
	var addr [20]byte
	ok, err := m.KVGet(govAddressKey, &addr)
	return addr, ok, err
}

// PutGovernanceAddress persists the governance identity.
func (m *Manager) PutGovernanceAddress(addr [20]byte) error {
	return m.KVPut(govAddressKey, addr)
}

// AdminDelegate loads the administrative delegate identity.
func (m *Manager) AdminDelegate() ([20]byte, bool, error) {
	var addr [20]byte
	ok, err := m.KVGet(govDelegateKey, &addr)
	return addr, ok, err
}

// PutAdminDelegate persists the administrative delegate identity.
func (m *Manager) PutAdminDelegate(addr [20]byte) error {
	return m.KVPut(govDelegateKey, addr)
}
