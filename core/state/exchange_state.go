package state

import (
	"fmt"
	"math/big"

	"rotexchain/native/exchange"
)

func exchangeCycleKey(user [20]byte, token string, cycle uint64) []byte {
	return []byte(fmt.Sprintf("exchange/cycle/%s/%d/%x", normalizeSymbol(token), cycle, user))
}

func exchangeReverseKey(user [20]byte, token string, cycle uint64) []byte {
	return []byte(fmt.Sprintf("exchange/reverse/%s/%d/%x", normalizeSymbol(token), cycle, user))
}

func exchangeReceiptKey(digest [32]byte) []byte {
	return []byte(fmt.Sprintf("exchange/receipt/%x", digest))
}

func airdropClaimKey(user [20]byte, token string, cycle uint64) []byte {
	return []byte(fmt.Sprintf("exchange/airdrop/%s/%d/%x", normalizeSymbol(token), cycle, user))
}

// ExchangeUserCycle loads a participant's record for (token, cycle).
func (m *Manager) ExchangeUserCycle(user [20]byte, token string, cycle uint64) (*exchange.UserCycleState, bool, error) {
	record := new(exchange.UserCycleState)
	ok, err := m.KVGet(exchangeCycleKey(user, token, cycle), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	return record, true, nil
}

// PutExchangeUserCycle persists a participant's record for (token, cycle).
func (m *Manager) PutExchangeUserCycle(user [20]byte, token string, cycle uint64, record *exchange.UserCycleState) error {
	if record == nil {
		return fmt.Errorf("exchange: nil cycle record")
	}
	return m.KVPut(exchangeCycleKey(user, token, cycle), record)
}

// ExchangeReverseCycle loads the reverse payout record for (token, cycle).
func (m *Manager) ExchangeReverseCycle(user [20]byte, token string, cycle uint64) (*exchange.ReverseCycleState, bool, error) {
	record := new(exchange.ReverseCycleState)
	ok, err := m.KVGet(exchangeReverseKey(user, token, cycle), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	return record, true, nil
}

// PutExchangeReverseCycle persists the reverse payout record.
func (m *Manager) PutExchangeReverseCycle(user [20]byte, token string, cycle uint64, record *exchange.ReverseCycleState) error {
	if record == nil {
		return fmt.Errorf("exchange: nil reverse record")
	}
	return m.KVPut(exchangeReverseKey(user, token, cycle), record)
}

// storedReceipt is the RLP shape of a flow receipt.
type storedReceipt struct {
	Digest    [32]byte
	Op        string
	User      [20]byte
	Token     string
	Cycle     uint64
	AmountIn  *big.Int
	AmountOut *big.Int
	Fee       *big.Int
	Timestamp uint64
}

// PutExchangeReceipt persists a flow receipt under its digest.
func (m *Manager) PutExchangeReceipt(receipt *exchange.Receipt) error {
	if receipt == nil {
		return fmt.Errorf("exchange: nil receipt")
	}
	return m.KVPut(exchangeReceiptKey(receipt.Digest), &storedReceipt{
		Digest:    receipt.Digest,
		Op:        receipt.Op,
		User:      receipt.User,
		Token:     receipt.Token,
		Cycle:     receipt.Cycle,
		AmountIn:  receipt.AmountIn,
		AmountOut: receipt.AmountOut,
		Fee:       receipt.Fee,
		Timestamp: uint64(receipt.Timestamp),
	})
}

// ExchangeReceipt loads a flow receipt by digest.
func (m *Manager) ExchangeReceipt(digest [32]byte) (*exchange.Receipt, bool, error) {
	stored := new(storedReceipt)
	ok, err := m.KVGet(exchangeReceiptKey(digest), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &exchange.Receipt{
		Digest:    stored.Digest,
		Op:        stored.Op,
		User:      stored.User,
		Token:     stored.Token,
		Cycle:     stored.Cycle,
		AmountIn:  stored.AmountIn,
		AmountOut: stored.AmountOut,
		Fee:       stored.Fee,
		Timestamp: int64(stored.Timestamp),
	}, true, nil
}

// AddAirdropClaim accumulates claimed airdrop units for (user, token, cycle)
// and returns the new total.
func (m *Manager) AddAirdropClaim(user [20]byte, token string, cycle uint64, units *big.Int) (*big.Int, error) {
	if units == nil || units.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	total := new(big.Int)
	if _, err := m.KVGet(airdropClaimKey(user, token, cycle), total); err != nil {
		return nil, err
	}
	total.Add(total, units)
	if err := m.KVPut(airdropClaimKey(user, token, cycle), total); err != nil {
		return nil, err
	}
	return new(big.Int).Set(total), nil
}

// AirdropClaim returns the claimed units for (user, token, cycle), nil when
// nothing was claimed.
func (m *Manager) AirdropClaim(user [20]byte, token string, cycle uint64) (*big.Int, error) {
	total := new(big.Int)
	ok, err := m.KVGet(airdropClaimKey(user, token, cycle), total)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return total, nil
}
