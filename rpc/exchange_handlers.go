package rpc

import (
	"encoding/hex"
	"net/http"
	"strings"

	"rotexchain/native/exchange"
)

type signedCallParams struct {
	User      string `json:"user"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type reverseSwapParams struct {
	User      string `json:"user"`
	Amount    string `json:"amount"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type setClaimParams struct {
	Caller string `json:"caller"`
	User   string `json:"user"`
	Token  string `json:"token"`
	Cycle  uint64 `json:"cycle"`
	Units  string `json:"units"`
}

type cycleQueryParams struct {
	User  string `json:"user"`
	Token string `json:"token"`
	Cycle uint64 `json:"cycle"`
}

type burnResult struct {
	Token           string `json:"token"`
	Cycle           uint64 `json:"cycle"`
	VoucherApplied  string `json:"voucherApplied"`
	TokensBurned    string `json:"tokensBurned"`
	SettlementGross string `json:"settlementGross"`
	SettlementNet   string `json:"settlementNet"`
	Fee             string `json:"fee"`
	Receipt         string `json:"receipt"`
}

type swapResult struct {
	Token           string `json:"token"`
	Cycle           uint64 `json:"cycle"`
	SettlementIn    string `json:"settlementIn"`
	TokensOut       string `json:"tokensOut"`
	CreditRemaining string `json:"creditRemaining"`
	Receipt         string `json:"receipt"`
}

type reverseSwapResult struct {
	Token         string `json:"token"`
	Cycle         uint64 `json:"cycle"`
	TokensIn      string `json:"tokensIn"`
	Clamped       bool   `json:"clamped"`
	Cap           string `json:"cap"`
	SettlementOut string `json:"settlementOut"`
	Receipt       string `json:"receipt"`
}

type reverseBurnResult struct {
	Token        string `json:"token"`
	Cycle        uint64 `json:"cycle"`
	SettlementIn string `json:"settlementIn"`
	TokensGross  string `json:"tokensGross"`
	TokensNet    string `json:"tokensNet"`
	Fee          string `json:"fee"`
	Receipt      string `json:"receipt"`
}

type cycleResult struct {
	SettlementCredit string `json:"settlementCredit"`
	Burned           string `json:"burned"`
	VoucherUsed      string `json:"voucherUsed"`
	SwapReceived     string `json:"swapReceived"`
	BurnOccurred     bool   `json:"burnOccurred"`
	SwapOccurred     bool   `json:"swapOccurred"`
	ReverseSwapDone  bool   `json:"reverseSwapDone"`
	ReverseBurnDone  bool   `json:"reverseBurnDone"`
}

type receiptResult struct {
	Digest    string `json:"digest"`
	Op        string `json:"op"`
	User      string `json:"user"`
	Token     string `json:"token"`
	Cycle     uint64 `json:"cycle"`
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
	Fee       string `json:"fee"`
	Timestamp int64  `json:"timestamp"`
}

func receiptHex(digest [32]byte) string {
	return "0x" + hex.EncodeToString(digest[:])
}

func (s *Server) handleExchangeBurn(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params signedCallParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, ok := s.authenticate(w, req, params.User, params.Signature, params.Nonce, "exchange_burn")
	if !ok {
		return
	}
	result, err := s.ledger.ExchangeBurn(user)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, burnResult{
		Token:           result.Token,
		Cycle:           result.Cycle,
		VoucherApplied:  amountString(result.VoucherApplied),
		TokensBurned:    amountString(result.TokensBurned),
		SettlementGross: amountString(result.SettlementGross),
		SettlementNet:   amountString(result.SettlementNet),
		Fee:             amountString(result.Fee),
		Receipt:         receiptHex(result.Receipt),
	})
}

func (s *Server) handleExchangeSwap(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params signedCallParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, ok := s.authenticate(w, req, params.User, params.Signature, params.Nonce, "exchange_swap")
	if !ok {
		return
	}
	result, err := s.ledger.ExchangeSwap(user)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, swapResult{
		Token:           result.Token,
		Cycle:           result.Cycle,
		SettlementIn:    amountString(result.SettlementIn),
		TokensOut:       amountString(result.TokensOut),
		CreditRemaining: amountString(result.CreditRemaining),
		Receipt:         receiptHex(result.Receipt),
	})
}

func (s *Server) handleExchangeReverseSwap(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params reverseSwapParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, ok := s.authenticate(w, req, params.User, params.Signature, params.Nonce, "exchange_reverseSwap", amount.String())
	if !ok {
		return
	}
	result, err := s.ledger.ExchangeReverseSwap(user, amount)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, reverseSwapResult{
		Token:         result.Token,
		Cycle:         result.Cycle,
		TokensIn:      amountString(result.TokensIn),
		Clamped:       result.Clamped,
		Cap:           amountString(result.Cap),
		SettlementOut: amountString(result.SettlementOut),
		Receipt:       receiptHex(result.Receipt),
	})
}

func (s *Server) handleExchangeReverseBurn(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params signedCallParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, ok := s.authenticate(w, req, params.User, params.Signature, params.Nonce, "exchange_reverseBurn")
	if !ok {
		return
	}
	result, err := s.ledger.ExchangeReverseBurn(user)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, reverseBurnResult{
		Token:        result.Token,
		Cycle:        result.Cycle,
		SettlementIn: amountString(result.SettlementIn),
		TokensGross:  amountString(result.TokensGross),
		TokensNet:    amountString(result.TokensNet),
		Fee:          amountString(result.Fee),
		Receipt:      receiptHex(result.Receipt),
	})
}

func (s *Server) handleExchangeSetClaim(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setClaimParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller", err.Error())
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user", err.Error())
		return
	}
	units, err := parseAmount(params.Units)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	total, err := s.ledger.SetAirdropClaim(caller, user, params.Token, params.Cycle, units)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"total": amountString(total)})
}

func (s *Server) handleExchangeCycle(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params cycleQueryParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user", err.Error())
		return
	}
	cycle, ok, err := s.ledger.UserCycle(user, params.Token, params.Cycle)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "no cycle record", nil)
		return
	}
	writeResult(w, req.ID, cycleResult{
		SettlementCredit: amountString(cycle.SettlementCredit),
		Burned:           amountString(cycle.Burned),
		VoucherUsed:      amountString(cycle.VoucherUsed),
		SwapReceived:     amountString(cycle.SwapReceived),
		BurnOccurred:     cycle.BurnOccurred,
		SwapOccurred:     cycle.SwapOccurred,
		ReverseSwapDone:  cycle.ReverseSwapDone,
		ReverseBurnDone:  cycle.ReverseBurnDone,
	})
}

func (s *Server) handleExchangeReverseCycle(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params cycleQueryParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := decodeBech32(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user", err.Error())
		return
	}
	pending, ok, err := s.ledger.ReverseCycle(user, params.Token, params.Cycle)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "no reverse record", nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"settlementOut": amountString(pending.SettlementOut)})
}

func (s *Server) handleExchangeReceipt(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Digest string `json:"digest"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	cleaned := strings.TrimPrefix(strings.TrimSpace(params.Digest), "0x")
	raw, err := hex.DecodeString(cleaned)
	if err != nil || len(raw) != 32 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "digest must be 32 hex bytes", nil)
		return
	}
	var digest [32]byte
	copy(digest[:], raw)
	receipt, ok, err := s.ledger.ExchangeReceipt(digest)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "receipt not found", nil)
		return
	}
	writeResult(w, req.ID, formatReceipt(receipt))
}

func formatReceipt(receipt *exchange.Receipt) receiptResult {
	return receiptResult{
		Digest:    receiptHex(receipt.Digest),
		Op:        receipt.Op,
		User:      encodeBech32(receipt.User),
		Token:     receipt.Token,
		Cycle:     receipt.Cycle,
		AmountIn:  amountString(receipt.AmountIn),
		AmountOut: amountString(receipt.AmountOut),
		Fee:       amountString(receipt.Fee),
		Timestamp: receipt.Timestamp,
	}
}
