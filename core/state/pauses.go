package state

import (
	"fmt"
	"strings"
)

func pauseKey(module string) []byte {
	return []byte(fmt.Sprintf("pause/%s", strings.ToLower(strings.TrimSpace(module))))
}

// SetModulePaused stores the pause switch for a module's user-facing entry
// points. Administrative operations never consult the switch.
func (m *Manager) SetModulePaused(module string, paused bool) error {
	if strings.TrimSpace(module) == "" {
		return fmt.Errorf("pause: module must not be empty")
	}
	return m.KVPut(pauseKey(module), paused)
}

// ModulePaused reports the stored pause switch for a module.
func (m *Manager) ModulePaused(module string) (bool, error) {
	var paused bool
	ok, err := m.KVGet(pauseKey(module), &paused)
	if err != nil || !ok {
		return false, err
	}
	return paused, nil
}

// IsPaused is the best-effort form used by the per-operation guard. Read
// failures report unpaused.
func (m *Manager) IsPaused(module string) bool {
	paused, err := m.ModulePaused(module)
	if err != nil {
		return false
	}
	return paused
}
