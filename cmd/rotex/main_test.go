package main

import (
	"testing"

	"rotexchain/config"
)

func TestResolveGenesisPathPrecedence(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key != genesisPathEnv {
			t.Fatalf("unexpected lookup key: %s", key)
		}
		return "env-path", true
	}

	t.Run("cli flag takes precedence", func(t *testing.T) {
		if path := resolveGenesisPath("cli-path", "cfg-path", lookup); path != "cli-path" {
			t.Fatalf("unexpected path: got %q want %q", path, "cli-path")
		}
	})

	t.Run("environment overrides config", func(t *testing.T) {
		if path := resolveGenesisPath("", "cfg-path", lookup); path != "env-path" {
			t.Fatalf("unexpected path: got %q want %q", path, "env-path")
		}
	})

	t.Run("config used when no other sources", func(t *testing.T) {
		emptyLookup := func(string) (string, bool) { return "", false }
		if path := resolveGenesisPath("", "cfg-path", emptyLookup); path != "cfg-path" {
			t.Fatalf("unexpected path: got %q want %q", path, "cfg-path")
		}
	})

	t.Run("blank env value is skipped", func(t *testing.T) {
		blankLookup := func(string) (string, bool) { return "  \t ", true }
		if path := resolveGenesisPath("", " cfg ", blankLookup); path != "cfg" {
			t.Fatalf("expected trimmed config path, got %q", path)
		}
	})
}

func TestDeriveModuleAccountStable(t *testing.T) {
	a := deriveModuleAccount("vault", "rotex-main")
	b := deriveModuleAccount("vault", " Rotex-Main ")
	if a != b {
		t.Fatalf("derivation must fold case and whitespace: %x vs %x", a, b)
	}
	if a == ([20]byte{}) {
		t.Fatalf("derived account must not be zero")
	}
	if other := deriveModuleAccount("vault", "rotex-test"); other == a {
		t.Fatalf("different networks must derive different accounts")
	}
}

func TestBuildLedgerConfigDerivesVault(t *testing.T) {
	cfg := &config.Config{NetworkName: "rotex-local"}
	cfg.Exchange.SettlementSymbol = "STATE"
	cfg.Exchange.VoucherSymbol = "DAV"
	cfg.Rotation.AuctionDurationSecs = 3600

	ledgerCfg, err := buildLedgerConfig(cfg)
	if err != nil {
		t.Fatalf("buildLedgerConfig: %v", err)
	}
	if ledgerCfg.Vault == ([20]byte{}) {
		t.Fatalf("expected derived vault")
	}
	if ledgerCfg.Vault != deriveModuleAccount("vault", "rotex-local") {
		t.Fatalf("vault does not match derivation")
	}
	if ledgerCfg.FeeCollector != ([20]byte{}) {
		t.Fatalf("unset fee collector must stay zero so fees park in the vault")
	}
	if ledgerCfg.Settlement != "STATE" || ledgerCfg.Voucher != "DAV" || ledgerCfg.SlotDuration != 3600 {
		t.Fatalf("unexpected ledger config: %+v", ledgerCfg)
	}
}

func TestBuildLedgerConfigRejectsBadVault(t *testing.T) {
	cfg := &config.Config{NetworkName: "rotex-local"}
	cfg.Exchange.Vault = "not-a-bech32-address"
	if _, err := buildLedgerConfig(cfg); err == nil {
		t.Fatalf("expected error for malformed vault address")
	}
}

func TestDialAddressFor(t *testing.T) {
	if got := dialAddressFor(":8080"); got != "127.0.0.1:8080" {
		t.Fatalf("unexpected dial address: %s", got)
	}
	if got := dialAddressFor("10.0.0.5:9000"); got != "10.0.0.5:9000" {
		t.Fatalf("unexpected dial address: %s", got)
	}
	if got := dialAddressFor("bare-string"); got != "bare-string" {
		t.Fatalf("unexpected dial address: %s", got)
	}
}
