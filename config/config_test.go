package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rotexchain/crypto"
)

var (
	testVaultAddrBytes = func() [20]byte {
		var addr [20]byte
		addr[0] = 0x42
		addr[len(addr)-1] = 0x24
		return addr
	}()
	testVaultAddrString = crypto.NewAddress(crypto.RTXPrefix, testVaultAddrBytes[:]).String()

	testCollectorAddrBytes = func() [20]byte {
		var addr [20]byte
		addr[0] = 0x11
		addr[len(addr)-1] = 0x99
		return addr
	}()
	testCollectorAddrString = crypto.NewAddress(crypto.RTXPrefix, testCollectorAddrBytes[:]).String()
)

func TestLoadParsesExchangeSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := fmt.Sprintf(`RPCAddress = "0.0.0.0:9000"
DataDir = "./data"
GenesisFile = "genesis.json"
NetworkName = "rotex-test"
LogEnv = "production"
LogFile = "/var/log/rotex/rotex.log"
RPCAuthToken = "inline-token"
RPCAuthTokenEnv = "ROTEX_TEST_TOKEN"
RPCReadHeaderTimeout = 6
RPCReadTimeout = 20
RPCWriteTimeout = 18
RPCIdleTimeout = 45

[exchange]
Vault = "%s"
FeeCollector = "%s"
SettlementSymbol = "STATE"
VoucherSymbol = "DAV"
MaxParticipants = 1200

[rotation]
RosterSize = 4
AuctionDurationSecs = 86400
IntervalGapSecs = 3600
GovHandoffDelaySecs = 600
`, testVaultAddrString, testCollectorAddrString)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.RPCAddress != "0.0.0.0:9000" {
		t.Fatalf("unexpected rpc address: %s", cfg.RPCAddress)
	}
	if cfg.DataDir != "./data" || cfg.GenesisFile != "genesis.json" {
		t.Fatalf("unexpected paths: %s %s", cfg.DataDir, cfg.GenesisFile)
	}
	if cfg.NetworkName != "rotex-test" {
		t.Fatalf("unexpected network name: %s", cfg.NetworkName)
	}
	if cfg.LogEnv != "production" || cfg.LogFile != "/var/log/rotex/rotex.log" {
		t.Fatalf("unexpected log settings: %s %s", cfg.LogEnv, cfg.LogFile)
	}
	if cfg.RPCReadHeaderTimeout != 6 {
		t.Fatalf("unexpected read header timeout: %d", cfg.RPCReadHeaderTimeout)
	}
	if cfg.ReadTimeout() != 20*time.Second || cfg.WriteTimeout() != 18*time.Second {
		t.Fatalf("unexpected read/write timeouts: %v/%v", cfg.ReadTimeout(), cfg.WriteTimeout())
	}
	if cfg.IdleTimeout() != 45*time.Second {
		t.Fatalf("unexpected idle timeout: %v", cfg.IdleTimeout())
	}
	if cfg.Exchange.SettlementSymbol != "STATE" || cfg.Exchange.VoucherSymbol != "DAV" {
		t.Fatalf("unexpected symbols: %+v", cfg.Exchange)
	}
	if cfg.Exchange.MaxParticipants != 1200 {
		t.Fatalf("unexpected participant cap: %d", cfg.Exchange.MaxParticipants)
	}
	if cfg.Rotation.RosterSize != 4 || cfg.Rotation.AuctionDurationSecs != 86400 {
		t.Fatalf("unexpected rotation geometry: %+v", cfg.Rotation)
	}
	if cfg.Rotation.IntervalGapSecs != 3600 || cfg.Rotation.GovHandoffDelaySecs != 600 {
		t.Fatalf("unexpected rotation gaps: %+v", cfg.Rotation)
	}

	vault, ok, err := cfg.Exchange.VaultAccount()
	if err != nil || !ok {
		t.Fatalf("vault account: ok=%v err=%v", ok, err)
	}
	if vault != testVaultAddrBytes {
		t.Fatalf("unexpected vault bytes: %x", vault)
	}
	collector, ok, err := cfg.Exchange.FeeCollectorAccount()
	if err != nil || !ok {
		t.Fatalf("collector account: ok=%v err=%v", ok, err)
	}
	if collector != testCollectorAddrBytes {
		t.Fatalf("unexpected collector bytes: %x", collector)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `DataDir = "./somewhere"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.RPCAddress != ":8080" {
		t.Fatalf("unexpected default rpc address: %s", cfg.RPCAddress)
	}
	if cfg.DataDir != "./somewhere" {
		t.Fatalf("explicit DataDir overwritten: %s", cfg.DataDir)
	}
	if cfg.NetworkName != "rotex-local" {
		t.Fatalf("unexpected default network name: %s", cfg.NetworkName)
	}
	if cfg.RPCAuthTokenEnv != "ROTEX_RPC_TOKEN" {
		t.Fatalf("unexpected default token env: %s", cfg.RPCAuthTokenEnv)
	}
	if cfg.RPCReadHeaderTimeout != 5 || cfg.RPCReadTimeout != 15 || cfg.RPCWriteTimeout != 15 || cfg.RPCIdleTimeout != 60 {
		t.Fatalf("unexpected default timeouts: %+v", cfg)
	}
	if cfg.Exchange.SettlementSymbol != "STATE" || cfg.Exchange.VoucherSymbol != "DAV" {
		t.Fatalf("unexpected default symbols: %+v", cfg.Exchange)
	}
	if _, ok, err := cfg.Exchange.VaultAccount(); ok || err != nil {
		t.Fatalf("expected unset vault: ok=%v err=%v", ok, err)
	}
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config file: %v", err)
	}
	if cfg.RPCAddress != ":8080" || cfg.DataDir != "./rotex-data" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Rotation.AuctionDurationSecs != 86400 {
		t.Fatalf("unexpected default duration: %d", cfg.Rotation.AuctionDurationSecs)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if reloaded.NetworkName != cfg.NetworkName || reloaded.Rotation != cfg.Rotation {
		t.Fatalf("reloaded config diverges: %+v vs %+v", reloaded, cfg)
	}
}

func TestAuthTokenPrefersEnvironment(t *testing.T) {
	cfg := &Config{RPCAuthToken: "inline", RPCAuthTokenEnv: "ROTEX_TEST_AUTH"}

	if got := cfg.AuthToken(); got != "inline" {
		t.Fatalf("expected inline token fallback, got %q", got)
	}

	t.Setenv("ROTEX_TEST_AUTH", "from-env")
	if got := cfg.AuthToken(); got != "from-env" {
		t.Fatalf("expected env token, got %q", got)
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty rpc address", func(c *Config) { c.RPCAddress = " " }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"negative roster", func(c *Config) { c.Rotation.RosterSize = -1 }},
		{"negative duration", func(c *Config) { c.Rotation.AuctionDurationSecs = -5 }},
		{"negative gap", func(c *Config) { c.Rotation.IntervalGapSecs = -1 }},
		{"malformed vault", func(c *Config) { c.Exchange.Vault = "rtx1invalid" }},
		{"malformed collector", func(c *Config) { c.Exchange.FeeCollector = "not-bech32" }},
		{"lowercase symbol", func(c *Config) { c.Exchange.SettlementSymbol = "state" }},
		{"colliding symbols", func(c *Config) { c.Exchange.VoucherSymbol = "STATE" }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateRejectsForeignPrefix(t *testing.T) {
	vaultPrefixed := crypto.NewAddress(crypto.VaultPrefix, testVaultAddrBytes[:]).String()

	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Exchange.Vault = vaultPrefixed
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected rejection of %q prefixed account", crypto.VaultPrefix)
	}
}
