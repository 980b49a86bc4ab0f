package exchange

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"lukechampine.com/blake3"
)

// Operation labels recorded in receipts.
const (
	OpBurn        = "BURN"
	OpSwap        = "SWAP"
	OpReverseSwap = "REVERSE_SWAP"
	OpReverseBurn = "REVERSE_BURN"
)

// Receipt is the durable record of a completed flow step. Its digest is
// deterministic over the step inputs, giving callers an idempotence handle
// for retries and audits.
type Receipt struct {
	Digest    [32]byte
	Op        string
	User      [20]byte
	Token     string
	Cycle     uint64
	AmountIn  *big.Int
	AmountOut *big.Int
	Fee       *big.Int
	Timestamp int64
}

// Clone returns a deep copy of the receipt.
func (r *Receipt) Clone() *Receipt {
	if r == nil {
		return nil
	}
	clone := *r
	clone.AmountIn = cloneAmount(r.AmountIn)
	clone.AmountOut = cloneAmount(r.AmountOut)
	clone.Fee = cloneAmount(r.Fee)
	return &clone
}

// CanonicalDigest hashes the receipt fields in a fixed length-delimited
// layout.
func (r *Receipt) CanonicalDigest() ([32]byte, error) {
	var zero [32]byte
	buf := bytes.NewBuffer(nil)
	if err := writeDelimited(buf, []byte(r.Op)); err != nil {
		return zero, err
	}
	buf.Write(r.User[:])
	if err := writeDelimited(buf, []byte(r.Token)); err != nil {
		return zero, err
	}
	if err := binary.Write(buf, binary.BigEndian, r.Cycle); err != nil {
		return zero, err
	}
	for _, amount := range []*big.Int{r.AmountIn, r.AmountOut, r.Fee} {
		var raw []byte
		if amount != nil {
			raw = amount.Bytes()
		}
		if err := writeDelimited(buf, raw); err != nil {
			return zero, err
		}
	}
	if err := binary.Write(buf, binary.BigEndian, uint64(r.Timestamp)); err != nil {
		return zero, err
	}
	return blake3.Sum256(buf.Bytes()), nil
}

func writeDelimited(buf *bytes.Buffer, data []byte) error {
	length := uint32(0)
	if data != nil {
		length = uint32(len(data))
	}
	if err := binary.Write(buf, binary.BigEndian, length); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	if _, err := buf.Write(data); err != nil {
		return err
	}
	return nil
}

// recordReceipt persists the receipt for a completed step and returns its
// digest.
func (e *Engine) recordReceipt(op string, user [20]byte, token string, cycle uint64, amountIn, amountOut, fee *big.Int, ts int64) ([32]byte, error) {
	receipt := &Receipt{
		Op:        op,
		User:      user,
		Token:     token,
		Cycle:     cycle,
		AmountIn:  cloneAmount(amountIn),
		AmountOut: cloneAmount(amountOut),
		Fee:       cloneAmount(fee),
		Timestamp: ts,
	}
	digest, err := receipt.CanonicalDigest()
	if err != nil {
		return [32]byte{}, err
	}
	receipt.Digest = digest
	if err := e.state.PutExchangeReceipt(receipt); err != nil {
		return [32]byte{}, err
	}
	return digest, nil
}

// Receipt returns a stored receipt by digest.
func (e *Engine) Receipt(digest [32]byte) (*Receipt, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	receipt, ok, err := e.state.ExchangeReceipt(digest)
	if err != nil || !ok {
		return nil, ok, err
	}
	return receipt.Clone(), true, nil
}
