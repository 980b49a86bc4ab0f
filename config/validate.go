package config

import (
	"fmt"
	"strings"

	"rotexchain/crypto"
)

// Validate rejects configurations the daemon cannot start with. Optional
// fields are only checked when set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must not be empty")
	}
	if c.RPCReadHeaderTimeout <= 0 || c.RPCReadTimeout <= 0 || c.RPCWriteTimeout <= 0 || c.RPCIdleTimeout <= 0 {
		return fmt.Errorf("rpc timeouts must be positive")
	}
	if c.Rotation.RosterSize < 0 {
		return fmt.Errorf("rotation: RosterSize must not be negative")
	}
	if c.Rotation.AuctionDurationSecs < 0 {
		return fmt.Errorf("rotation: AuctionDurationSecs must not be negative")
	}
	if c.Rotation.IntervalGapSecs < 0 {
		return fmt.Errorf("rotation: IntervalGapSecs must not be negative")
	}
	if c.Rotation.GovHandoffDelaySecs < 0 {
		return fmt.Errorf("rotation: GovHandoffDelaySecs must not be negative")
	}
	if err := checkAccount("exchange.Vault", c.Exchange.Vault); err != nil {
		return err
	}
	if err := checkAccount("exchange.FeeCollector", c.Exchange.FeeCollector); err != nil {
		return err
	}
	if err := checkSymbol("exchange.SettlementSymbol", c.Exchange.SettlementSymbol); err != nil {
		return err
	}
	if err := checkSymbol("exchange.VoucherSymbol", c.Exchange.VoucherSymbol); err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(c.Exchange.SettlementSymbol), strings.TrimSpace(c.Exchange.VoucherSymbol)) {
		return fmt.Errorf("exchange: settlement and voucher symbols must differ")
	}
	return nil
}

func checkAccount(label, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	if addr.Prefix() != crypto.RTXPrefix {
		return fmt.Errorf("%s: expected %q address", label, crypto.RTXPrefix)
	}
	return nil
}

func checkSymbol(label, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", label)
	}
	for _, r := range trimmed {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("%s: symbol %q must be uppercase alphanumeric", label, trimmed)
		}
	}
	return nil
}
