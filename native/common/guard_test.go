package common

import (
	"errors"
	"testing"
)

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	paused := pauseMap{"exchange": true}

	if err := Guard(nil, "exchange"); err != nil {
		t.Fatalf("nil view should pass: %v", err)
	}
	if err := Guard(paused, ""); err != nil {
		t.Fatalf("empty module should pass: %v", err)
	}
	if err := Guard(paused, "token"); err != nil {
		t.Fatalf("unpaused module should pass: %v", err)
	}
	if err := Guard(paused, "exchange"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
}
