package rpc

import (
	"net/http"

	"rotexchain/native/registry"
)

type registerTokenParams struct {
	Caller   string `json:"caller"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Owner    string `json:"owner"`
}

type registryTokenResult struct {
	Symbol    string `json:"symbol"`
	PairID    string `json:"pairId,omitempty"`
	Owner     string `json:"owner"`
	Supported bool   `json:"supported"`
	CreatedAt int64  `json:"createdAt"`
}

func formatRegistryToken(entry *registry.TokenEntry) registryTokenResult {
	return registryTokenResult{
		Symbol:    entry.Symbol,
		PairID:    entry.PairID,
		Owner:     encodeBech32(entry.Owner),
		Supported: entry.Supported,
		CreatedAt: entry.CreatedAt,
	}
}

func (s *Server) handleRegistryRegister(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params signedCallParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, ok := s.authenticate(w, req, params.User, params.Signature, params.Nonce, "registry_register")
	if !ok {
		return
	}
	added, err := s.ledger.RegisterParticipant(user)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"added": added})
}

func (s *Server) handleRegistryRegisterToken(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registerTokenParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller", err.Error())
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner", err.Error())
		return
	}
	if err := s.ledger.AdmitToken(caller, params.Symbol, params.Name, params.Decimals, owner); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleRegistryAttachPool(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller string `json:"caller"`
		Symbol string `json:"symbol"`
		PairID string `json:"pairId"`
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
	if err := s.ledger.AttachPool(caller, params.Symbol, params.PairID); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleRegistryParticipants(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	count, err := s.ledger.Participants()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"participants": count})
}

func (s *Server) handleRegistryIsRegistered(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Address string `json:"address"`
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
	registered, err := s.ledger.Registered(addr)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"registered": registered})
}

func (s *Server) handleRegistryToken(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Symbol string `json:"symbol"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	entry, err := s.ledger.RegistryToken(params.Symbol)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatRegistryToken(entry))
}

func (s *Server) handleRegistryTokens(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	symbols, err := s.ledger.RegistryTokens()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, symbols)
}
