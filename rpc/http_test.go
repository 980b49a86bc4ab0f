package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rotexchain/core"
	"rotexchain/core/events"
	"rotexchain/core/genesis"
	"rotexchain/crypto"
	"rotexchain/storage"
)

const (
	testAuthToken   = "test-rpc-token"
	testGenesisUnix = 1_700_000_000
)

func rpcTestAddr(b byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = b
	}
	return addr
}

func rpcTestBech32(b byte) string {
	addr := rpcTestAddr(b)
	return crypto.NewAddress(crypto.RTXPrefix, addr[:]).String()
}

type testEnv struct {
	server *Server
	ledger *core.Ledger
	key    *crypto.PrivateKey
	user   string
	admin  string
	now    *int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	user := key.PubKey().Address().String()
	admin := rpcTestBech32(0x02)

	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	ledger, err := core.NewLedger(db, core.LedgerConfig{
		Vault:        rpcTestAddr(0x04),
		FeeCollector: rpcTestAddr(0x05),
		RosterSize:   1,
		SlotDuration: 3600,
	})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	t.Cleanup(ledger.Close)

	now := new(int64)
	*now = testGenesisUnix + 10
	ledger.SetNowFunc(func() int64 { return *now })

	spec := &genesis.Spec{
		GenesisTime:   "2023-11-14T22:13:20Z",
		Governance:    rpcTestBech32(0x01),
		AdminDelegate: admin,
		Tokens: []genesis.TokenSpec{
			{Symbol: "STATE", Name: "Settlement Token", Decimals: 18},
			{Symbol: "DAV", Name: "Activity Voucher", Decimals: 0, MintAuthority: admin},
			{Symbol: "AUR", Name: "Aurora", Decimals: 6},
		},
		Alloc: map[string]map[string]string{
			user:               {"AUR": "100000", "DAV": "1"},
			rpcTestBech32(0x04): {"STATE": "500000"},
			rpcTestBech32(0x06): {"AUR": "10000", "STATE": "20000"},
		},
		Pairs: []genesis.PairSpec{
			{Token: "AUR", Settlement: "STATE", Funder: rpcTestBech32(0x06), SeedToken: "10000", SeedSettlement: "20000"},
		},
		Schedule: &genesis.ScheduleSpec{Tokens: []string{"AUR"}},
	}
	if err := ledger.ApplyGenesis(spec); err != nil {
		t.Fatalf("ApplyGenesis: %v", err)
	}

	server := NewServer(ledger, ServerConfig{AuthToken: testAuthToken})
	return &testEnv{server: server, ledger: ledger, key: key, user: user, admin: admin, now: now}
}

type testResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func (env *testEnv) call(t *testing.T, bearer, method string, params interface{}) *testResponse {
	t.Helper()
	request := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		request["params"] = []interface{}{params}
	}
	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(body)))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(recorder, req)
	resp := &testResponse{}
	if err := json.Unmarshal(recorder.Body.Bytes(), resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, recorder.Body.String())
	}
	return resp
}

func (env *testEnv) mustResult(t *testing.T, bearer, method string, params, out interface{}) {
	t.Helper()
	resp := env.call(t, bearer, method, params)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error %+v", method, resp.Error)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			t.Fatalf("%s: decode result: %v", method, err)
		}
	}
}

func (env *testEnv) mustError(t *testing.T, bearer, method string, params interface{}, code int) *RPCError {
	t.Helper()
	resp := env.call(t, bearer, method, params)
	if resp.Error == nil {
		t.Fatalf("%s: expected error, got result %s", method, resp.Result)
	}
	if resp.Error.Code != code {
		t.Fatalf("%s: error code %d, want %d (%s)", method, resp.Error.Code, code, resp.Error.Message)
	}
	return resp.Error
}

func (env *testEnv) sign(t *testing.T, method string, nonce uint64, extra ...string) string {
	t.Helper()
	sig, err := SignOperation(env.key, method, SignedFields(env.user, nonce, extra...)...)
	if err != nil {
		t.Fatalf("SignOperation: %v", err)
	}
	return sig
}

// seedClaims records airdrop units and opens vault allowances so a burn can
// complete; the allowance approvals come in over signed RPC calls.
func (env *testEnv) seedBurn(t *testing.T, nonce uint64) uint64 {
	t.Helper()
	env.mustResult(t, testAuthToken, "exchange_setClaim", setClaimParams{
		Caller: env.admin, User: env.user, Token: "AUR", Cycle: 1, Units: "1",
	}, nil)
	for _, symbol := range []string{"AUR", "STATE"} {
		env.mustResult(t, "", "token_approve", approveParams{
			Owner:     env.user,
			Spender:   rpcTestBech32(0x04),
			Token:     symbol,
			Amount:    "1000000",
			Nonce:     nonce,
			Signature: env.sign(t, "token_approve", nonce, rpcTestBech32(0x04), symbol, "1000000"),
		}, nil)
		nonce++
	}
	return nonce
}

func TestUnknownMethod(t *testing.T) {
	env := newTestEnv(t)
	env.mustError(t, "", "bogus_method", nil, codeMethodNotFound)
}

func TestSignedExchangeFlow(t *testing.T) {
	env := newTestEnv(t)
	nonce := env.seedBurn(t, 0)

	var burn burnResult
	env.mustResult(t, "", "exchange_burn", signedCallParams{
		User:      env.user,
		Nonce:     nonce,
		Signature: env.sign(t, "exchange_burn", nonce),
	}, &burn)
	nonce++
	if burn.Token != "AUR" || burn.Cycle != 1 {
		t.Fatalf("unexpected burn slot: %+v", burn)
	}
	if burn.TokensBurned != "3000" || burn.SettlementNet != "11940" || burn.Fee != "60" {
		t.Fatalf("unexpected burn amounts: %+v", burn)
	}
	if !strings.HasPrefix(burn.Receipt, "0x") || len(burn.Receipt) != 66 {
		t.Fatalf("malformed receipt digest: %q", burn.Receipt)
	}

	*env.now = testGenesisUnix + 20
	var swap swapResult
	env.mustResult(t, "", "exchange_swap", signedCallParams{
		User:      env.user,
		Nonce:     nonce,
		Signature: env.sign(t, "exchange_swap", nonce),
	}, &swap)
	nonce++
	if swap.SettlementIn != "11940" || swap.TokensOut != "3731" || swap.CreditRemaining != "0" {
		t.Fatalf("unexpected swap amounts: %+v", swap)
	}

	var receipt receiptResult
	env.mustResult(t, "", "exchange_receipt", map[string]string{"digest": burn.Receipt}, &receipt)
	if receipt.Op != "BURN" || receipt.User != env.user || receipt.AmountIn != "3000" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	var cycle cycleResult
	env.mustResult(t, "", "exchange_cycle", cycleQueryParams{User: env.user, Token: "AUR", Cycle: 1}, &cycle)
	if !cycle.BurnOccurred || !cycle.SwapOccurred || cycle.Burned != "3000" {
		t.Fatalf("unexpected cycle record: %+v", cycle)
	}

	var nonceOut map[string]uint64
	env.mustResult(t, "", "account_nonce", map[string]string{"address": env.user}, &nonceOut)
	if nonceOut["nonce"] != nonce {
		t.Fatalf("account nonce: got %d want %d", nonceOut["nonce"], nonce)
	}
}

func TestReverseFlowOverRPC(t *testing.T) {
	env := newTestEnv(t)
	nonce := env.seedBurn(t, 0)

	env.mustResult(t, "", "exchange_burn", signedCallParams{
		User: env.user, Nonce: nonce, Signature: env.sign(t, "exchange_burn", nonce),
	}, nil)
	nonce++
	*env.now = testGenesisUnix + 20
	env.mustResult(t, "", "exchange_swap", signedCallParams{
		User: env.user, Nonce: nonce, Signature: env.sign(t, "exchange_swap", nonce),
	}, nil)
	nonce++

	// Appearance 4 of the single-token roster opens the reverse window.
	*env.now = testGenesisUnix + 3*3600 + 10

	var reverse reverseSwapResult
	env.mustResult(t, "", "exchange_reverseSwap", reverseSwapParams{
		User:      env.user,
		Amount:    "5000",
		Nonce:     nonce,
		Signature: env.sign(t, "exchange_reverseSwap", nonce, "5000"),
	}, &reverse)
	nonce++
	if reverse.Clamped || reverse.TokensIn != "5000" || reverse.SettlementOut != "14147" {
		t.Fatalf("unexpected reverse swap: %+v", reverse)
	}

	var burn reverseBurnResult
	env.mustResult(t, "", "exchange_reverseBurn", signedCallParams{
		User: env.user, Nonce: nonce, Signature: env.sign(t, "exchange_reverseBurn", nonce),
	}, &burn)
	if burn.SettlementIn != "14147" || burn.TokensNet != "1382" || burn.Fee != "6" {
		t.Fatalf("unexpected reverse burn: %+v", burn)
	}
}

func TestSignatureChecks(t *testing.T) {
	env := newTestEnv(t)

	otherKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	forged, err := SignOperation(otherKey, "registry_register", SignedFields(env.user, 0)...)
	if err != nil {
		t.Fatalf("SignOperation: %v", err)
	}
	env.mustError(t, "", "registry_register", signedCallParams{
		User: env.user, Nonce: 0, Signature: forged,
	}, codeUnauthorized)

	// A signature over different fields must not verify either.
	mismatched := env.sign(t, "exchange_reverseSwap", 0, "9999")
	env.mustError(t, "", "exchange_reverseSwap", reverseSwapParams{
		User: env.user, Amount: "5000", Nonce: 0, Signature: mismatched,
	}, codeUnauthorized)

	env.mustResult(t, "", "registry_register", signedCallParams{
		User: env.user, Nonce: 0, Signature: env.sign(t, "registry_register", 0),
	}, nil)

	// Replaying the consumed nonce conflicts and reports the expected one.
	replayErr := env.mustError(t, "", "registry_register", signedCallParams{
		User: env.user, Nonce: 0, Signature: env.sign(t, "registry_register", 0),
	}, codeConflict)
	if !strings.Contains(replayErr.Message, "nonce") {
		t.Fatalf("replay error message: %q", replayErr.Message)
	}
}

func TestAdminAuthority(t *testing.T) {
	env := newTestEnv(t)
	params := setScheduleParams{Caller: env.admin, Tokens: []string{"AUR"}, StartTime: testGenesisUnix}

	env.mustError(t, "", "auction_setSchedule", params, codeUnauthorized)
	env.mustError(t, "wrong-token", "auction_setSchedule", params, codeUnauthorized)

	// The bearer token alone is not enough: the ledger still checks the
	// caller identity.
	outsider := setScheduleParams{Caller: env.user, Tokens: []string{"AUR"}, StartTime: testGenesisUnix}
	env.mustError(t, testAuthToken, "auction_setSchedule", outsider, codeUnauthorized)

	// The genesis schedule is already installed, so the delegate conflicts.
	env.mustError(t, testAuthToken, "auction_setSchedule", params, codeConflict)
}

func TestReadSurface(t *testing.T) {
	env := newTestEnv(t)

	var slot slotResult
	env.mustResult(t, "", "auction_todayToken", nil, &slot)
	if slot.Token != "AUR" || !slot.Active || slot.Appearance != 1 {
		t.Fatalf("unexpected slot: %+v", slot)
	}

	var left map[string]int64
	env.mustResult(t, "", "auction_timeLeft", map[string]string{"token": "AUR"}, &left)
	if left["seconds"] != 3590 {
		t.Fatalf("time left: got %d want 3590", left["seconds"])
	}

	var balance map[string]string
	env.mustResult(t, "", "token_balance", map[string]string{"address": env.user, "token": "AUR"}, &balance)
	if balance["balance"] != "100000" {
		t.Fatalf("balance: got %s", balance["balance"])
	}

	var pair pairResult
	env.mustResult(t, "", "pool_get", map[string]string{"pairId": "AUR-STATE"}, &pair)
	if pair.ReserveA != "10000" || pair.ReserveB != "20000" {
		t.Fatalf("unexpected reserves: %+v", pair)
	}

	var info govInfoResult
	env.mustResult(t, "", "gov_info", nil, &info)
	if info.Governance != rpcTestBech32(0x01) || info.Delegate != env.admin {
		t.Fatalf("unexpected governance info: %+v", info)
	}

	var today statsResult
	env.mustResult(t, "", "stats_today", nil, &today)
	if today.Released != "0" || today.SwapCount != 0 {
		t.Fatalf("unexpected fresh stats: %+v", today)
	}

	env.mustError(t, "", "stats_day", map[string]uint64{"index": 0}, codeNotFound)
	env.mustError(t, "", "exchange_receipt", map[string]string{"digest": "0xff"}, codeInvalidParams)
}

func TestOperationDigestCanonicalisation(t *testing.T) {
	base := OperationDigest("exchange_burn", "rtx1abc", "7")
	spaced := OperationDigest("exchange_burn", "  RTX1ABC ", "7")
	if string(base) != string(spaced) {
		t.Fatalf("digest should fold case and whitespace")
	}
	other := OperationDigest("exchange_burn", "rtx1abc", "8")
	if string(base) == string(other) {
		t.Fatalf("digest should bind the nonce")
	}
}

func TestEventPayloadConversion(t *testing.T) {
	evt := events.ExchangeSwapped{Token: "AUR", Cycle: 2}
	payload := eventPayload(evt)
	if payload.Type != events.TypeExchangeSwapped {
		t.Fatalf("payload type: %s", payload.Type)
	}
	if payload.Attributes["cycle"] != "2" {
		t.Fatalf("payload cycle: %s", payload.Attributes["cycle"])
	}
}
