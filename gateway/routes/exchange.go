package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxEnvelopeBytes = 1 << 20

// signedOpEnvelope is a user-signed operation produced by a wallet or the
// rotex CLI. The gateway never signs on behalf of users, it only forwards the
// envelope to the node which recovers and checks the signer.
type signedOpEnvelope struct {
	User      string `json:"user"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type reverseSwapEnvelope struct {
	User      string `json:"user"`
	Amount    string `json:"amount"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type exchangeRoutes struct {
	node *NodeClient
}

func newExchangeRoutes(node *NodeClient) *exchangeRoutes {
	return &exchangeRoutes{node: node}
}

func (er *exchangeRoutes) mount(r chi.Router) {
	r.Get("/cycle", er.cycle)
	r.Get("/reverse-cycle", er.reverseCycle)
	r.Get("/receipt/{digest}", er.receipt)
	r.Post("/burn", er.signedOp("exchange_burn"))
	r.Post("/swap", er.signedOp("exchange_swap"))
	r.Post("/reverse-swap", er.reverseSwap)
	r.Post("/reverse-burn", er.signedOp("exchange_reverseBurn"))
}

func (er *exchangeRoutes) cycle(w http.ResponseWriter, r *http.Request) {
	er.cycleQuery(w, r, "exchange_cycle")
}

func (er *exchangeRoutes) reverseCycle(w http.ResponseWriter, r *http.Request) {
	er.cycleQuery(w, r, "exchange_reverseCycle")
}

func (er *exchangeRoutes) cycleQuery(w http.ResponseWriter, r *http.Request, method string) {
	query := r.URL.Query()
	user := strings.TrimSpace(query.Get("user"))
	token := strings.TrimSpace(query.Get("token"))
	if user == "" || token == "" {
		writeBadRequest(w, errors.New("user and token query parameters are required"))
		return
	}
	cycle := uint64(0)
	if raw := strings.TrimSpace(query.Get("cycle")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeBadRequest(w, fmt.Errorf("invalid cycle %q", raw))
			return
		}
		cycle = parsed
	}
	er.forward(w, r, method, map[string]interface{}{
		"user":  user,
		"token": token,
		"cycle": cycle,
	})
}

func (er *exchangeRoutes) receipt(w http.ResponseWriter, r *http.Request) {
	digest := strings.TrimSpace(chi.URLParam(r, "digest"))
	if digest == "" {
		writeBadRequest(w, errors.New("digest is required"))
		return
	}
	er.forward(w, r, "exchange_receipt", map[string]string{"digest": digest})
}

func (er *exchangeRoutes) signedOp(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var envelope signedOpEnvelope
		if err := decodeEnvelope(w, r, &envelope); err != nil {
			writeBadRequest(w, err)
			return
		}
		if err := validateSignedEnvelope(envelope.User, envelope.Signature); err != nil {
			writeBadRequest(w, err)
			return
		}
		er.forward(w, r, method, envelope)
	}
}

func (er *exchangeRoutes) reverseSwap(w http.ResponseWriter, r *http.Request) {
	var envelope reverseSwapEnvelope
	if err := decodeEnvelope(w, r, &envelope); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := validateSignedEnvelope(envelope.User, envelope.Signature); err != nil {
		writeBadRequest(w, err)
		return
	}
	if strings.TrimSpace(envelope.Amount) == "" {
		writeBadRequest(w, errors.New("amount is required"))
		return
	}
	er.forward(w, r, "exchange_reverseSwap", envelope)
}

func (er *exchangeRoutes) forward(w http.ResponseWriter, r *http.Request, method string, params interface{}) {
	ctx, cancel := er.node.context(r.Context())
	defer cancel()

	result, rpcErr, err := er.node.Call(ctx, method, params)
	if err != nil {
		writeBadGateway(w, err)
		return
	}
	if rpcErr != nil {
		writeNodeError(w, rpcErr)
		return
	}
	writeResultJSON(w, result)
}

func decodeEnvelope(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxEnvelopeBytes)
	defer body.Close()
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func validateSignedEnvelope(user, signature string) error {
	if strings.TrimSpace(user) == "" {
		return errors.New("user is required")
	}
	if strings.TrimSpace(signature) == "" {
		return errors.New("signature is required")
	}
	return nil
}
