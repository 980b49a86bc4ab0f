package rpc

import (
	"net/http"

	"rotexchain/native/pool"
)

type pairResult struct {
	ID       string `json:"id"`
	TokenA   string `json:"tokenA"`
	TokenB   string `json:"tokenB"`
	ReserveA string `json:"reserveA"`
	ReserveB string `json:"reserveB"`
}

func formatPair(pair *pool.Pair) pairResult {
	return pairResult{
		ID:       pair.ID,
		TokenA:   pair.TokenA,
		TokenB:   pair.TokenB,
		ReserveA: amountString(pair.ReserveA),
		ReserveB: amountString(pair.ReserveB),
	}
}

func (s *Server) handlePoolCreate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller string `json:"caller"`
		TokenA string `json:"tokenA"`
		TokenB string `json:"tokenB"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller", err.Error())
		return
	}
	pair, err := s.ledger.CreatePool(caller, params.TokenA, params.TokenB)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatPair(pair))
}

func (s *Server) handlePoolSeed(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller  string `json:"caller"`
		PairID  string `json:"pairId"`
		AmountA string `json:"amountA"`
		AmountB string `json:"amountB"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller", err.Error())
		return
	}
	amountA, err := parseAmount(params.AmountA)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amountB, err := parseAmount(params.AmountB)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pair, err := s.ledger.SeedPool(caller, params.PairID, amountA, amountB)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatPair(pair))
}

func (s *Server) handlePoolGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		PairID string `json:"pairId"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pair, err := s.ledger.PoolPair(params.PairID)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatPair(pair))
}

func (s *Server) handlePoolForToken(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Token string `json:"token"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pairID, err := s.ledger.PoolPairForToken(params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"pairId": pairID})
}
