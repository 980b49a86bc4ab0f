package routes

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type statsRoutes struct {
	node *NodeClient
}

func newStatsRoutes(node *NodeClient) *statsRoutes {
	return &statsRoutes{node: node}
}

func (sr *statsRoutes) mount(r chi.Router) {
	r.Get("/today", sr.today)
	r.Get("/days", sr.days)
	r.Get("/day/{index}", sr.day)
}

func (sr *statsRoutes) today(w http.ResponseWriter, r *http.Request) {
	sr.forward(w, r, "stats_today", nil)
}

func (sr *statsRoutes) days(w http.ResponseWriter, r *http.Request) {
	sr.forward(w, r, "stats_days", nil)
}

func (sr *statsRoutes) day(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(chi.URLParam(r, "index"))
	index, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid day index %q", raw))
		return
	}
	sr.forward(w, r, "stats_day", map[string]uint64{"index": index})
}

func (sr *statsRoutes) forward(w http.ResponseWriter, r *http.Request, method string, params interface{}) {
	ctx, cancel := sr.node.context(r.Context())
	defer cancel()

	result, rpcErr, err := sr.node.Call(ctx, method, params)
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
