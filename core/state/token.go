package state

import (
	"bytes"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
)

var (
	// ErrTokenUnknown indicates the symbol has never been registered.
	ErrTokenUnknown = errors.New("token: unknown symbol")
	// ErrZeroAmount indicates a transfer or approval of a non-positive amount.
	ErrZeroAmount = errors.New("token: amount must be positive")
	// ErrInsufficientBalance indicates the source account cannot cover the move.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrInsufficientAllowance indicates the spender allowance cannot cover the move.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	// ErrMintPaused indicates issuance is administratively halted for the token.
	ErrMintPaused = errors.New("token: minting paused")
	// ErrNotMintAuthority indicates the caller is not the configured mint authority.
	ErrNotMintAuthority = errors.New("token: caller is not the mint authority")
)

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (m *Manager) requireToken(symbol string) (string, error) {
	normalized := normalizeSymbol(symbol)
	if normalized == "" {
		return "", ErrTokenUnknown
	}
	meta, err := m.loadTokenMetadata(normalized)
	if err != nil {
		return "", err
	}
	if meta == nil {
		return "", ErrTokenUnknown
	}
	return normalized, nil
}

// Transfer moves amount of symbol from one account to another. Both balances
// are rewritten atomically within the surrounding state transition.
func (m *Manager) Transfer(from, to []byte, symbol string, amount *big.Int) error {
	normalized, err := m.requireToken(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	fromBal, err := m.Balance(from, normalized)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBal, err := m.Balance(to, normalized)
	if err != nil {
		return err
	}
	if err := m.SetBalance(from, normalized, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return m.SetBalance(to, normalized, new(big.Int).Add(toBal, amount))
}

// TransferFrom moves amount of symbol from owner to recipient on behalf of
// spender, consuming the spender allowance.
func (m *Manager) TransferFrom(spender, owner, to []byte, symbol string, amount *big.Int) error {
	normalized, err := m.requireToken(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	allowance, err := m.Allowance(owner, spender, normalized)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := m.Transfer(owner, to, normalized, amount); err != nil {
		return err
	}
	return m.setAllowance(owner, spender, normalized, new(big.Int).Sub(allowance, amount))
}

// Approve sets the exact allowance granted by owner to spender.
func (m *Manager) Approve(owner, spender []byte, symbol string, amount *big.Int) error {
	normalized, err := m.requireToken(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrZeroAmount
	}
	return m.setAllowance(owner, spender, normalized, amount)
}

func (m *Manager) setAllowance(owner, spender []byte, symbol string, amount *big.Int) error {
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.update(allowanceComposite(owner, spender, symbol), encoded)
}

// Allowance returns the remaining allowance granted by owner to spender.
func (m *Manager) Allowance(owner, spender []byte, symbol string) (*big.Int, error) {
	data, err := m.read(allowanceComposite(owner, spender, normalizeSymbol(symbol)))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(data, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// Mint issues amount of symbol to the recipient. The caller must match the
// configured mint authority and issuance must not be paused.
func (m *Manager) Mint(caller, to []byte, symbol string, amount *big.Int) error {
	normalized, err := m.requireToken(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	meta, err := m.loadTokenMetadata(normalized)
	if err != nil {
		return err
	}
	if meta.MintPaused {
		return ErrMintPaused
	}
	if len(meta.MintAuthority) == 0 || !bytes.Equal(meta.MintAuthority, caller) {
		return ErrNotMintAuthority
	}
	balance, err := m.Balance(to, normalized)
	if err != nil {
		return err
	}
	if err := m.SetBalance(to, normalized, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	supply, err := m.TokenSupply(normalized)
	if err != nil {
		return err
	}
	return m.writeTokenSupply(normalized, new(big.Int).Add(supply, amount))
}

// Burn destroys amount of symbol held by from, shrinking total supply.
func (m *Manager) Burn(from []byte, symbol string, amount *big.Int) error {
	normalized, err := m.requireToken(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	balance, err := m.Balance(from, normalized)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := m.SetBalance(from, normalized, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	supply, err := m.TokenSupply(normalized)
	if err != nil {
		return err
	}
	next := new(big.Int).Sub(supply, amount)
	if next.Sign() < 0 {
		next = big.NewInt(0)
	}
	return m.writeTokenSupply(normalized, next)
}

func (m *Manager) writeTokenSupply(symbol string, total *big.Int) error {
	if total == nil {
		total = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(total)
	if err != nil {
		return err
	}
	return m.update(supplyComposite(symbol), encoded)
}

// SetTokenSupply overwrites the stored total supply for the token. Used by the
// genesis loader; runtime paths adjust supply through Mint and Burn.
func (m *Manager) SetTokenSupply(symbol string, amount *big.Int) error {
	normalized, err := m.requireToken(symbol)
	if err != nil {
		return err
	}
	if amount != nil && amount.Sign() < 0 {
		return ErrZeroAmount
	}
	return m.writeTokenSupply(normalized, amount)
}

// TokenSupply returns the persisted total supply for the provided token.
// Missing entries default to zero.
func (m *Manager) TokenSupply(symbol string) (*big.Int, error) {
	normalized := normalizeSymbol(symbol)
	if normalized == "" {
		return nil, ErrTokenUnknown
	}
	data, err := m.read(supplyComposite(normalized))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	total := new(big.Int)
	if err := rlp.DecodeBytes(data, total); err != nil {
		return nil, err
	}
	return total, nil
}
