package rpc

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rotexchain/core"
	"rotexchain/crypto"
	"rotexchain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeConflict       = -32010
	codeNotFound       = -32014
	codePaused         = -32021
)

// ServerConfig carries the transport knobs the daemon resolves from its
// configuration file. The zero value serves reads without any authenticated
// administrative surface.
type ServerConfig struct {
	AuthToken         string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// Server exposes the ledger over JSON-RPC 2.0. Mutating user methods carry a
// recoverable signature; administrative methods require the bearer token and
// an authorised caller identity checked by the ledger itself.
type Server struct {
	ledger *core.Ledger
	cfg    ServerConfig
	log    *slog.Logger

	httpSrv *http.Server
}

func NewServer(ledger *core.Ledger, cfg ServerConfig) *Server {
	return &Server{
		ledger: ledger,
		cfg:    cfg,
		log:    slog.Default().With("component", "rpc"),
	}
}

// Handler returns the full RPC mux: JSON-RPC at the root, the event stream
// at /ws/events and prometheus output at /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.HandleFunc("/ws/events", s.handleEventsWS)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}
	s.log.Info("serving JSON-RPC", "addr", addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// handle decodes one JSON-RPC request and routes it to the method handler.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	s.dispatch(recorder, r, req)
	observability.ModuleMetrics().Observe(methodModule(req.Method), req.Method, recorder.status, time.Since(start))
}

// dispatch routes a validated request to its method handler.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	// Signed participant operations.
	case "exchange_burn":
		s.handleExchangeBurn(w, r, req)
	case "exchange_swap":
		s.handleExchangeSwap(w, r, req)
	case "exchange_reverseSwap":
		s.handleExchangeReverseSwap(w, r, req)
	case "exchange_reverseBurn":
		s.handleExchangeReverseBurn(w, r, req)
	case "registry_register":
		s.handleRegistryRegister(w, r, req)
	case "token_transfer":
		s.handleTokenTransfer(w, r, req)
	case "token_transferFrom":
		s.handleTokenTransferFrom(w, r, req)
	case "token_approve":
		s.handleTokenApprove(w, r, req)

	// Administrative operations: bearer token plus an authorised caller.
	case "auction_setSchedule":
		s.adminHandler(w, r, req, s.handleAuctionSetSchedule)
	case "registry_registerToken":
		s.adminHandler(w, r, req, s.handleRegistryRegisterToken)
	case "registry_attachPool":
		s.adminHandler(w, r, req, s.handleRegistryAttachPool)
	case "pool_create":
		s.adminHandler(w, r, req, s.handlePoolCreate)
	case "pool_seed":
		s.adminHandler(w, r, req, s.handlePoolSeed)
	case "token_mint":
		s.adminHandler(w, r, req, s.handleTokenMint)
	case "token_setMintAuthority":
		s.adminHandler(w, r, req, s.handleTokenSetMintAuthority)
	case "token_setMintPaused":
		s.adminHandler(w, r, req, s.handleTokenSetMintPaused)
	case "exchange_setClaim":
		s.adminHandler(w, r, req, s.handleExchangeSetClaim)
	case "gov_grantRole":
		s.adminHandler(w, r, req, s.handleGovGrantRole)
	case "gov_queue":
		s.adminHandler(w, r, req, s.handleGovQueue)
	case "gov_clear":
		s.adminHandler(w, r, req, s.handleGovClear)
	case "gov_commit":
		s.adminHandler(w, r, req, s.handleGovCommit)
	case "gov_setDelegate":
		s.adminHandler(w, r, req, s.handleGovSetDelegate)
	case "system_setPaused":
		s.adminHandler(w, r, req, s.handleSystemSetPaused)

	// Open read methods.
	case "auction_schedule":
		s.handleAuctionSchedule(w, r, req)
	case "auction_active":
		s.handleAuctionActive(w, r, req)
	case "auction_todayToken":
		s.handleAuctionTodayToken(w, r, req)
	case "auction_timeLeft":
		s.handleAuctionTimeLeft(w, r, req)
	case "auction_appearances":
		s.handleAuctionAppearances(w, r, req)
	case "exchange_cycle":
		s.handleExchangeCycle(w, r, req)
	case "exchange_reverseCycle":
		s.handleExchangeReverseCycle(w, r, req)
	case "exchange_receipt":
		s.handleExchangeReceipt(w, r, req)
	case "token_balance":
		s.handleTokenBalance(w, r, req)
	case "token_allowance":
		s.handleTokenAllowance(w, r, req)
	case "token_supply":
		s.handleTokenSupply(w, r, req)
	case "token_list":
		s.handleTokenList(w, r, req)
	case "token_info":
		s.handleTokenInfo(w, r, req)
	case "registry_participants":
		s.handleRegistryParticipants(w, r, req)
	case "registry_isRegistered":
		s.handleRegistryIsRegistered(w, r, req)
	case "registry_token":
		s.handleRegistryToken(w, r, req)
	case "registry_tokens":
		s.handleRegistryTokens(w, r, req)
	case "pool_get":
		s.handlePoolGet(w, r, req)
	case "pool_forToken":
		s.handlePoolForToken(w, r, req)
	case "stats_today":
		s.handleStatsToday(w, r, req)
	case "stats_day":
		s.handleStatsDay(w, r, req)
	case "stats_days":
		s.handleStatsDays(w, r, req)
	case "gov_info":
		s.handleGovInfo(w, r, req)
	case "system_paused":
		s.handleSystemPaused(w, r, req)
	case "account_nonce":
		s.handleAccountNonce(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}

// statusRecorder captures the status ultimately written so request metrics
// can label outcomes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// methodModule extracts the module prefix from names like "exchange_burn".
func methodModule(method string) string {
	if idx := strings.Index(method, "_"); idx > 0 {
		return method[:idx]
	}
	return method
}

type handlerFunc func(http.ResponseWriter, *http.Request, *RPCRequest)

func (s *Server) adminHandler(w http.ResponseWriter, r *http.Request, req *RPCRequest, next handlerFunc) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	next(w, r, req)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.cfg.AuthToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

// --- shared parameter helpers ---

func singleObjectParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("parameter object required")
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return fmt.Errorf("invalid parameters: %s", err)
	}
	return nil
}

func decodeBech32(addr string) ([20]byte, error) {
	var out [20]byte
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(addr))
	if err != nil {
		return out, err
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func encodeBech32(addr [20]byte) string {
	return crypto.NewAddress(crypto.RTXPrefix, addr[:]).String()
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
