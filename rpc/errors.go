package rpc

import (
	"errors"
	"net/http"

	"rotexchain/core"
	rotexstate "rotexchain/core/state"
	"rotexchain/native/auction"
	nativecommon "rotexchain/native/common"
	"rotexchain/native/exchange"
	"rotexchain/native/gov"
	"rotexchain/native/pool"
	"rotexchain/native/registry"
)

// writeLedgerError maps named engine errors onto JSON-RPC codes so clients
// can branch without string matching. Anything unmapped is a server error.
func writeLedgerError(w http.ResponseWriter, id interface{}, err error) {
	status, code := classifyError(err)
	writeError(w, status, id, code, err.Error(), nil)
}

func classifyError(err error) (status, code int) {
	switch {
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable, codePaused

	case errors.Is(err, gov.ErrNotGovernance),
		errors.Is(err, gov.ErrNotAdminDelegate),
		errors.Is(err, core.ErrNotClaimAuthority),
		errors.Is(err, rotexstate.ErrNotMintAuthority):
		return http.StatusForbidden, codeUnauthorized

	case errors.Is(err, core.ErrNonceMismatch),
		errors.Is(err, exchange.ErrAlreadyDoneThisCycle),
		errors.Is(err, auction.ErrScheduleAlreadySet),
		errors.Is(err, pool.ErrPairExists),
		errors.Is(err, registry.ErrTokenExists),
		errors.Is(err, core.ErrGenesisApplied):
		return http.StatusConflict, codeConflict

	case errors.Is(err, auction.ErrScheduleNotSet),
		errors.Is(err, pool.ErrPairNotFound),
		errors.Is(err, registry.ErrTokenNotFound),
		errors.Is(err, registry.ErrPoolNotAttached),
		errors.Is(err, rotexstate.ErrTokenUnknown),
		errors.Is(err, gov.ErrNoPendingChange):
		return http.StatusNotFound, codeNotFound

	case errors.Is(err, auction.ErrScheduleSize),
		errors.Is(err, auction.ErrTokenEmpty),
		errors.Is(err, auction.ErrTokenDuplicate),
		errors.Is(err, auction.ErrTokenUnsupported),
		errors.Is(err, auction.ErrInvalidStart),
		errors.Is(err, auction.ErrNotStarted),
		errors.Is(err, auction.ErrNoActiveAuction),
		errors.Is(err, auction.ErrWrongPhase),
		errors.Is(err, auction.ErrCyclesCompleted),
		errors.Is(err, exchange.ErrClaimMissing),
		errors.Is(err, exchange.ErrStepIncomplete),
		errors.Is(err, exchange.ErrInsufficientVoucher),
		errors.Is(err, exchange.ErrNoPriorParticipation),
		errors.Is(err, exchange.ErrNothingToSwap),
		errors.Is(err, exchange.ErrZeroAmount),
		errors.Is(err, exchange.ErrInsufficientBalance),
		errors.Is(err, exchange.ErrInsufficientAllowance),
		errors.Is(err, exchange.ErrInsufficientVault),
		errors.Is(err, exchange.ErrStaleReserves),
		errors.Is(err, pool.ErrBadPath),
		errors.Is(err, pool.ErrExpired),
		errors.Is(err, pool.ErrSlippage),
		errors.Is(err, pool.ErrNoLiquidity),
		errors.Is(err, pool.ErrZeroSeed),
		errors.Is(err, registry.ErrCapacityReached),
		errors.Is(err, registry.ErrTokenEmpty),
		errors.Is(err, registry.ErrPoolIDEmpty),
		errors.Is(err, gov.ErrZeroAddress),
		errors.Is(err, rotexstate.ErrZeroAmount),
		errors.Is(err, rotexstate.ErrInsufficientBalance),
		errors.Is(err, rotexstate.ErrInsufficientAllowance),
		errors.Is(err, rotexstate.ErrMintPaused):
		return http.StatusBadRequest, codeInvalidParams

	default:
		return http.StatusInternalServerError, codeServerError
	}
}
