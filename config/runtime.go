package config

import (
	"os"
	"strings"
	"time"

	"rotexchain/crypto"
)

// AuthToken resolves the RPC bearer token. The environment variable named by
// RPCAuthTokenEnv wins over the inline value so deployments can keep the
// token out of the config file.
func (c *Config) AuthToken() string {
	if name := strings.TrimSpace(c.RPCAuthTokenEnv); name != "" {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(c.RPCAuthToken)
}

// ReadHeaderTimeout returns the RPC read-header timeout as a duration.
func (c *Config) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.RPCReadHeaderTimeout) * time.Second
}

// ReadTimeout returns the RPC read timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.RPCReadTimeout) * time.Second
}

// WriteTimeout returns the RPC write timeout as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.RPCWriteTimeout) * time.Second
}

// IdleTimeout returns the RPC idle timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.RPCIdleTimeout) * time.Second
}

// VaultAccount decodes the configured vault address. ok is false when the
// field is unset and the daemon should derive the module vault instead.
func (e Exchange) VaultAccount() (addr [20]byte, ok bool, err error) {
	return decodeAccount(e.Vault)
}

// FeeCollectorAccount decodes the configured fee collector. ok is false when
// fees should stay in the vault.
func (e Exchange) FeeCollectorAccount() (addr [20]byte, ok bool, err error) {
	return decodeAccount(e.FeeCollector)
}

func decodeAccount(value string) (addr [20]byte, ok bool, err error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return addr, false, nil
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return addr, false, err
	}
	copy(addr[:], decoded.Bytes())
	return addr, true, nil
}
