package rpc

import (
	"net/http"
)

type govInfoResult struct {
	Governance string            `json:"governance,omitempty"`
	Delegate   string            `json:"delegate,omitempty"`
	Pending    *pendingGovResult `json:"pending,omitempty"`
}

type pendingGovResult struct {
	NewGovernance     string `json:"newGovernance"`
	EarliestExecution int64  `json:"earliestExecution"`
}

func (s *Server) handleGovGrantRole(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller  string `json:"caller"`
		Role    string `json:"role"`
		Address string `json:"address"`
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
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	if err := s.ledger.GrantRole(caller, params.Role, addr); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGovQueue(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller        string `json:"caller"`
		NewGovernance string `json:"newGovernance"`
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
	next, err := decodeBech32(params.NewGovernance)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid newGovernance", err.Error())
		return
	}
	pending, err := s.ledger.GovQueueChange(caller, next)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, pendingGovResult{
		NewGovernance:     encodeBech32(pending.NewGovernance),
		EarliestExecution: pending.EarliestExecution,
	})
}

func (s *Server) handleGovClear(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller string `json:"caller"`
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
	if err := s.ledger.GovClearChange(caller); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGovCommit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller string `json:"caller"`
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
	if err := s.ledger.GovCommitChange(caller); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGovSetDelegate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller   string `json:"caller"`
		Delegate string `json:"delegate"`
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
	delegate, err := decodeBech32(params.Delegate)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid delegate", err.Error())
		return
	}
	if err := s.ledger.GovSetDelegate(caller, delegate); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGovInfo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var result govInfoResult
	governance, ok, err := s.ledger.Governance()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	if ok {
		result.Governance = encodeBech32(governance)
	}
	delegate, ok, err := s.ledger.AdminDelegate()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	if ok {
		result.Delegate = encodeBech32(delegate)
	}
	pending, ok, err := s.ledger.GovPending()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	if ok {
		result.Pending = &pendingGovResult{
			NewGovernance:     encodeBech32(pending.NewGovernance),
			EarliestExecution: pending.EarliestExecution,
		}
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleSystemSetPaused(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Caller string `json:"caller"`
		Module string `json:"module"`
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
	if err := s.ledger.SetModulePaused(caller, params.Module, params.Paused); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleSystemPaused(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Module string `json:"module"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	paused, err := s.ledger.ModulePaused(params.Module)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": paused})
}

func (s *Server) handleAccountNonce(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
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
	nonce, err := s.ledger.AccountNonce(addr)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"nonce": nonce})
}
