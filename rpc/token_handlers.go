package rpc

import (
	"encoding/hex"
	"net/http"
)

type transferParams struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type transferFromParams struct {
	Spender   string `json:"spender"`
	Owner     string `json:"owner"`
	To        string `json:"to"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type approveParams struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type mintParams struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenInfoResult struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Decimals      uint8  `json:"decimals"`
	MintAuthority string `json:"mintAuthority,omitempty"`
	MintPaused    bool   `json:"mintPaused"`
	Supply        string `json:"supply"`
}

func (s *Server) handleTokenTransfer(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	from, ok := s.authenticate(w, req, params.From, params.Signature, params.Nonce,
		"token_transfer", params.To, params.Token, amount.String())
	if !ok {
		return
	}
	if err := s.ledger.TokenTransfer(from, to, params.Token, amount); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleTokenTransferFrom(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferFromParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	spender, ok := s.authenticate(w, req, params.Spender, params.Signature, params.Nonce,
		"token_transferFrom", params.Owner, params.To, params.Token, amount.String())
	if !ok {
		return
	}
	if err := s.ledger.TokenTransferFrom(spender, owner, to, params.Token, amount); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleTokenApprove(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params approveParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	spender, err := decodeBech32(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, ok := s.authenticate(w, req, params.Owner, params.Signature, params.Nonce,
		"token_approve", params.Spender, params.Token, amount.String())
	if !ok {
		return
	}
	if err := s.ledger.TokenApprove(owner, spender, params.Token, amount); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleTokenMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params mintParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.MintToken(caller, params.Token, to, amount); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleTokenSetMintAuthority(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller    string `json:"caller"`
		Token     string `json:"token"`
		Authority string `json:"authority"`
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
	authority, err := decodeBech32(params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid authority", err.Error())
		return
	}
	if err := s.ledger.SetMintAuthority(caller, params.Token, authority); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleTokenSetMintPaused(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller string `json:"caller"`
		Token  string `json:"token"`
		Paused bool   `json:"paused"`
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
	if err := s.ledger.SetMintPaused(caller, params.Token, params.Paused); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
		Token   string `json:"token"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	balance, err := s.ledger.TokenBalance(addr, params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": amountString(balance)})
}

func (s *Server) handleTokenAllowance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Owner   string `json:"owner"`
		Spender string `json:"spender"`
		Token   string `json:"token"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner", err.Error())
		return
	}
	spender, err := decodeBech32(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender", err.Error())
		return
	}
	allowance, err := s.ledger.TokenAllowance(owner, spender, params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"allowance": amountString(allowance)})
}

func (s *Server) handleTokenSupply(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Token string `json:"token"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	supply, err := s.ledger.TokenSupply(params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"supply": amountString(supply)})
}

func (s *Server) handleTokenList(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	symbols, err := s.ledger.TokenList()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, symbols)
}

func (s *Server) handleTokenInfo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Token string `json:"token"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	info, err := s.ledger.TokenInfo(params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	supply, err := s.ledger.TokenSupply(params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	result := tokenInfoResult{
		Symbol:     info.Symbol,
		Name:       info.Name,
		Decimals:   info.Decimals,
		MintPaused: info.MintPaused,
		Supply:     amountString(supply),
	}
	if len(info.MintAuthority) == 20 {
		var authority [20]byte
		copy(authority[:], info.MintAuthority)
		result.MintAuthority = encodeBech32(authority)
	} else if len(info.MintAuthority) > 0 {
		result.MintAuthority = "0x" + hex.EncodeToString(info.MintAuthority)
	}
	writeResult(w, req.ID, result)
}
