package config

// Exchange names the host accounts and token symbols the exchange runs with.
// Vault and FeeCollector are bech32 account strings; an empty vault tells the
// daemon to derive the module vault address, and an empty collector leaves
// burn fees parked in the vault.
type Exchange struct {
	Vault            string `toml:"Vault"`
	FeeCollector     string `toml:"FeeCollector"`
	SettlementSymbol string `toml:"SettlementSymbol"`
	VoucherSymbol    string `toml:"VoucherSymbol"`
	MaxParticipants  uint64 `toml:"MaxParticipants"`
}

// Rotation fixes the schedule geometry installed at bootstrap. Zero values
// defer to the engine defaults.
type Rotation struct {
	RosterSize          int   `toml:"RosterSize"`
	AuctionDurationSecs int64 `toml:"AuctionDurationSecs"`
	IntervalGapSecs     int64 `toml:"IntervalGapSecs"`
	GovHandoffDelaySecs int64 `toml:"GovHandoffDelaySecs"`
}
