package rpc

import (
	"net/http"

	"rotexchain/native/auction"
)

type setScheduleParams struct {
	Caller    string   `json:"caller"`
	Tokens    []string `json:"tokens"`
	StartTime int64    `json:"startTime"`
}

type scheduleResult struct {
	Tokens    []string `json:"tokens"`
	StartTime int64    `json:"startTime"`
	Duration  int64    `json:"duration"`
	Gap       int64    `json:"gap"`
	DaysLimit uint64   `json:"daysLimit"`
}

type slotResult struct {
	Number      uint64 `json:"number"`
	Token       string `json:"token"`
	WindowStart int64  `json:"windowStart"`
	WindowEnd   int64  `json:"windowEnd"`
	Active      bool   `json:"active"`
	Appearance  uint64 `json:"appearance"`
	Reverse     bool   `json:"reverse"`
}

func formatSchedule(schedule *auction.Schedule) scheduleResult {
	return scheduleResult{
		Tokens:    append([]string(nil), schedule.Tokens...),
		StartTime: schedule.StartTime,
		Duration:  schedule.Duration,
		Gap:       schedule.Gap,
		DaysLimit: schedule.DaysLimit,
	}
}

func formatSlot(slot *auction.Slot) slotResult {
	return slotResult{
		Number:      slot.Number,
		Token:       slot.Token,
		WindowStart: slot.WindowStart,
		WindowEnd:   slot.WindowEnd,
		Active:      slot.Active,
		Appearance:  slot.Appearance,
		Reverse:     slot.Reverse,
	}
}

func (s *Server) handleAuctionSetSchedule(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setScheduleParams
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller", err.Error())
		return
	}
	schedule, err := s.ledger.SetSchedule(caller, params.Tokens, params.StartTime)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSchedule(schedule))
}

func (s *Server) handleAuctionSchedule(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	schedule, ok, err := s.ledger.Schedule()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, auction.ErrScheduleNotSet.Error(), nil)
		return
	}
	writeResult(w, req.ID, formatSchedule(schedule))
}

func (s *Server) handleAuctionActive(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	slot, err := s.ledger.ActiveSlot()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSlot(slot))
}

// handleAuctionTodayToken tolerates the inter-window gap: the resolved slot
// is returned with Active false instead of an error.
func (s *Server) handleAuctionTodayToken(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	slot, err := s.ledger.TodayToken()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSlot(slot))
}

func (s *Server) handleAuctionTimeLeft(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Token string `json:"token"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	left, err := s.ledger.TimeLeft(params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]int64{"seconds": left})
}

func (s *Server) handleAuctionAppearances(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Token string `json:"token"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	count, err := s.ledger.AppearanceCount(params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"appearances": count})
}
