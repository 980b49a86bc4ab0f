package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon's startup knobs. Missing values fall back to the
// defaults applied by Load; the zero rotation geometry defers to the engine
// defaults.
type Config struct {
	RPCAddress           string `toml:"RPCAddress"`
	DataDir              string `toml:"DataDir"`
	GenesisFile          string `toml:"GenesisFile"`
	NetworkName          string `toml:"NetworkName"`
	LogEnv               string `toml:"LogEnv"`
	LogFile              string `toml:"LogFile"`
	RPCAuthToken         string `toml:"RPCAuthToken"`
	RPCAuthTokenEnv      string `toml:"RPCAuthTokenEnv"`
	RPCReadHeaderTimeout int    `toml:"RPCReadHeaderTimeout"`
	RPCReadTimeout       int    `toml:"RPCReadTimeout"`
	RPCWriteTimeout      int    `toml:"RPCWriteTimeout"`
	RPCIdleTimeout       int    `toml:"RPCIdleTimeout"`

	Exchange Exchange `toml:"exchange"`
	Rotation Rotation `toml:"rotation"`
}

// Load reads the configuration at path, creating a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RPCAddress == "" {
		c.RPCAddress = ":8080"
	}
	if c.DataDir == "" {
		c.DataDir = "./rotex-data"
	}
	if c.NetworkName == "" {
		c.NetworkName = "rotex-local"
	}
	if c.RPCAuthTokenEnv == "" {
		c.RPCAuthTokenEnv = "ROTEX_RPC_TOKEN"
	}
	if c.RPCReadHeaderTimeout <= 0 {
		c.RPCReadHeaderTimeout = 5
	}
	if c.RPCReadTimeout <= 0 {
		c.RPCReadTimeout = 15
	}
	if c.RPCWriteTimeout <= 0 {
		c.RPCWriteTimeout = 15
	}
	if c.RPCIdleTimeout <= 0 {
		c.RPCIdleTimeout = 60
	}
	if c.Exchange.SettlementSymbol == "" {
		c.Exchange.SettlementSymbol = "STATE"
	}
	if c.Exchange.VoucherSymbol == "" {
		c.Exchange.VoucherSymbol = "DAV"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Rotation: Rotation{AuctionDurationSecs: 86400},
	}
	cfg.applyDefaults()

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
