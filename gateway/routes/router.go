package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rotexchain/gateway/middleware"
)

// GroupPolicy controls auth and throttling for one REST route group.
type GroupPolicy struct {
	RequireAuth    bool
	RequiredScopes []string
	RateLimitKey   string
}

type Config struct {
	Node          *NodeClient
	Auction       GroupPolicy
	Exchange      GroupPolicy
	Stats         GroupPolicy
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
}

func New(cfg Config) (http.Handler, error) {
	if cfg.Node == nil {
		return nil, errors.New("node client required")
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mountGroup := func(name, prefix string, policy GroupPolicy, mount func(chi.Router)) {
		r.Route(prefix, func(sr chi.Router) {
			if cfg.RateLimiter != nil && policy.RateLimitKey != "" {
				sr.Use(cfg.RateLimiter.Middleware(policy.RateLimitKey))
			}
			if cfg.Authenticator != nil && policy.RequireAuth {
				sr.Use(cfg.Authenticator.Middleware(policy.RequiredScopes...))
			}
			if cfg.Observability != nil {
				sr.Use(cfg.Observability.Middleware(name))
			}
			mount(sr)
		})
	}

	mountGroup("auction", "/v1/auction", cfg.Auction, newAuctionRoutes(cfg.Node).mount)
	mountGroup("exchange", "/v1/exchange", cfg.Exchange, newExchangeRoutes(cfg.Node).mount)
	mountGroup("stats", "/v1/stats", cfg.Stats, newStatsRoutes(cfg.Node).mount)

	if cfg.Observability != nil {
		r.Handle("/metrics", cfg.Observability.MetricsHandler())
	}

	return r, nil
}
