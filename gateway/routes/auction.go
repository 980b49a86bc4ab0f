package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type auctionRoutes struct {
	node *NodeClient
}

func newAuctionRoutes(node *NodeClient) *auctionRoutes {
	return &auctionRoutes{node: node}
}

func (ar *auctionRoutes) mount(r chi.Router) {
	r.Get("/today", ar.today)
	r.Get("/active", ar.active)
	r.Get("/schedule", ar.schedule)
	r.Get("/time-left/{token}", ar.timeLeft)
	r.Get("/appearances/{token}", ar.appearances)
}

func (ar *auctionRoutes) today(w http.ResponseWriter, r *http.Request) {
	ar.forward(w, r, "auction_todayToken", nil)
}

func (ar *auctionRoutes) active(w http.ResponseWriter, r *http.Request) {
	ar.forward(w, r, "auction_active", nil)
}

func (ar *auctionRoutes) schedule(w http.ResponseWriter, r *http.Request) {
	ar.forward(w, r, "auction_schedule", nil)
}

func (ar *auctionRoutes) timeLeft(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		writeBadRequest(w, errors.New("token is required"))
		return
	}
	ar.forward(w, r, "auction_timeLeft", map[string]string{"token": token})
}

func (ar *auctionRoutes) appearances(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		writeBadRequest(w, errors.New("token is required"))
		return
	}
	ar.forward(w, r, "auction_appearances", map[string]string{"token": token})
}

func (ar *auctionRoutes) forward(w http.ResponseWriter, r *http.Request, method string, params interface{}) {
	ctx, cancel := ar.node.context(r.Context())
	defer cancel()

	result, rpcErr, err := ar.node.Call(ctx, method, params)
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
