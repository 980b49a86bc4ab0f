package rpc

import (
	"net/http"

	"rotexchain/native/stats"
)

type statsResult struct {
	DayStart        int64  `json:"dayStart"`
	Released        string `json:"released"`
	ReleasedNormal  string `json:"releasedNormal"`
	ReleasedReverse string `json:"releasedReverse"`
	SwapCount       uint64 `json:"swapCount"`
	Participants    uint64 `json:"participants"`
}

type statsDayResult struct {
	Index uint64      `json:"index"`
	Stats statsResult `json:"stats"`
}

func formatCounters(counters *stats.Counters) statsResult {
	return statsResult{
		DayStart:        counters.DayStart,
		Released:        amountString(counters.Released),
		ReleasedNormal:  amountString(counters.ReleasedNormal),
		ReleasedReverse: amountString(counters.ReleasedReverse),
		SwapCount:       counters.SwapCount,
		Participants:    counters.Participants,
	}
}

func (s *Server) handleStatsToday(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	counters, err := s.ledger.StatsToday()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatCounters(counters))
}

func (s *Server) handleStatsDay(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Index uint64 `json:"index"`
	}
	if err := singleObjectParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	day, ok, err := s.ledger.StatsDay(params.Index)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeNotFound, "day not archived", nil)
		return
	}
	writeResult(w, req.ID, statsDayResult{Index: day.Index, Stats: formatCounters(day.Counters)})
}

func (s *Server) handleStatsDays(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	count, err := s.ledger.StatsDayCount()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"days": count})
}
