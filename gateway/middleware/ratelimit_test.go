package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"exchange": {RatePerSecond: 1, Burst: 1},
	}, nil)

	handler := limiter.Middleware("exchange")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", res.Code)
	}
}

func TestRateLimiterSeparatesRoutes(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"auction":  {RatePerSecond: 1, Burst: 1},
		"exchange": {RatePerSecond: 1, Burst: 1},
	}, nil)

	auctionHandler := limiter.Middleware("auction")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	exchangeHandler := limiter.Middleware("exchange")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/auction/today", nil)
	req.Header.Set("X-API-Key", "tenant-A")
	res := httptest.NewRecorder()
	auctionHandler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected auction request to succeed, got %d", res.Code)
	}

	exchangeReq := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	exchangeReq.Header.Set("X-API-Key", "tenant-A")
	exchangeRes := httptest.NewRecorder()
	exchangeHandler.ServeHTTP(exchangeRes, exchangeReq)
	if exchangeRes.Code != http.StatusOK {
		t.Fatalf("expected first exchange request to succeed, got %d", exchangeRes.Code)
	}

	exchangeRes = httptest.NewRecorder()
	exchangeHandler.ServeHTTP(exchangeRes, exchangeReq)
	if exchangeRes.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second exchange request to hit limit, got %d", exchangeRes.Code)
	}
}

func TestRateLimiterSeparatesClientsByAPIKey(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"exchange": {RatePerSecond: 1, Burst: 1},
	}, nil)

	handler := limiter.Middleware("exchange")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	reqA := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	reqA.Header.Set("X-API-Key", "tenant-A")
	resA := httptest.NewRecorder()
	handler.ServeHTTP(resA, reqA)
	if resA.Code != http.StatusOK {
		t.Fatalf("expected tenant A request to succeed, got %d", resA.Code)
	}

	reqB := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	reqB.Header.Set("X-API-Key", "tenant-B")
	resB := httptest.NewRecorder()
	handler.ServeHTTP(resB, reqB)
	if resB.Code != http.StatusOK {
		t.Fatalf("expected tenant B request to succeed, got %d", resB.Code)
	}
}

func TestRateLimiterIgnoresRoutesWithoutLimits(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{}, nil)

	handler := limiter.Middleware("stats")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/stats/today", nil)
	for i := 0; i < 5; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("expected unthrottled request %d to succeed, got %d", i, res.Code)
		}
	}
}
