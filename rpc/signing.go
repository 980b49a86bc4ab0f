package rpc

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"rotexchain/core"
	"rotexchain/crypto"
)

// OperationDigest is the canonical digest clients sign for a mutating call:
// keccak256 over the method name and its ordered fields joined with pipes.
// Addresses are folded to lower case before hashing, amounts are decimal
// strings and the account nonce is always the final field.
func OperationDigest(method string, fields ...string) []byte {
	parts := make([]string, 0, len(fields)+2)
	parts = append(parts, "rotex", method)
	for _, field := range fields {
		parts = append(parts, strings.ToLower(strings.TrimSpace(field)))
	}
	return ethcrypto.Keccak256([]byte(strings.Join(parts, "|")))
}

// SignOperation produces the hex signature for a call, for use by operator
// tooling and tests.
func SignOperation(key *crypto.PrivateKey, method string, fields ...string) (string, error) {
	if key == nil || key.PrivateKey == nil {
		return "", fmt.Errorf("signing key required")
	}
	sig, err := ethcrypto.Sign(OperationDigest(method, fields...), key.PrivateKey)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(sig), nil
}

// SignedFields assembles the canonical field order for a signed call: the
// account address first, any method-specific fields in the order the handler
// documents them, and the account nonce last.
func SignedFields(user string, nonce uint64, extra ...string) []string {
	fields := make([]string, 0, len(extra)+2)
	fields = append(fields, user)
	fields = append(fields, extra...)
	fields = append(fields, strconv.FormatUint(nonce, 10))
	return fields
}

func decodeSignature(value string) ([]byte, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if cleaned == "" {
		return nil, fmt.Errorf("signature required")
	}
	sig, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, err
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes")
	}
	return sig, nil
}

// authenticate recovers the signer of a user operation, checks it matches
// the claimed account and consumes the account nonce. A consumed nonce stays
// consumed even when the operation itself fails afterwards, so a retry must
// be re-signed against the next nonce.
func (s *Server) authenticate(w http.ResponseWriter, req *RPCRequest, user, sigHex string, nonce uint64, method string, extra ...string) ([20]byte, bool) {
	var zero [20]byte
	addr, err := decodeBech32(user)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return zero, false
	}
	sig, err := decodeSignature(sigHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid signature", err.Error())
		return zero, false
	}
	digest := OperationDigest(method, SignedFields(user, nonce, extra...)...)
	pubKey, err := ethcrypto.SigToPub(digest, sig)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid signature", err.Error())
		return zero, false
	}
	recovered := ethcrypto.PubkeyToAddress(*pubKey)
	if [20]byte(recovered) != addr {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "signature does not match account", nil)
		return zero, false
	}
	if err := s.ledger.ConsumeNonce(addr, nonce); err != nil {
		if errors.Is(err, core.ErrNonceMismatch) {
			current, nerr := s.ledger.AccountNonce(addr)
			if nerr == nil {
				writeError(w, http.StatusConflict, req.ID, codeConflict, err.Error(), map[string]uint64{"expected": current})
				return zero, false
			}
		}
		writeError(w, http.StatusConflict, req.ID, codeConflict, err.Error(), nil)
		return zero, false
	}
	return addr, true
}
