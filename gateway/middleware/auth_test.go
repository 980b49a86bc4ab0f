package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "gateway-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authHandler(auth *Authenticator, scopes ...string) http.Handler {
	return auth.Middleware(scopes...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret}, nil)
	handler := authHandler(auth)

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.Code)
	}
}

func TestAuthenticatorAcceptsValidToken(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, Issuer: "rotex"}, nil)
	handler := authHandler(auth)

	token := signToken(t, testSecret, jwt.MapClaims{
		"iss": "rotex",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", res.Code)
	}
}

func TestAuthenticatorRejectsWrongSecret(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret}, nil)
	handler := authHandler(auth)

	token := signToken(t, "some-other-secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret, got %d", res.Code)
	}
}

func TestAuthenticatorRejectsExpiredToken(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, ClockSkew: time.Second}, nil)
	handler := authHandler(auth)

	token := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", res.Code)
	}
}

func TestAuthenticatorRejectsIssuerMismatch(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, Issuer: "rotex"}, nil)
	handler := authHandler(auth)

	token := signToken(t, testSecret, jwt.MapClaims{
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for issuer mismatch, got %d", res.Code)
	}
}

func TestAuthenticatorEnforcesScopes(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret}, nil)
	handler := authHandler(auth, "exchange.write")

	readToken := signToken(t, testSecret, jwt.MapClaims{
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": "exchange.read",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/exchange/burn", nil)
	req.Header.Set("Authorization", "Bearer "+readToken)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for insufficient scope, got %d", res.Code)
	}

	writeToken := signToken(t, testSecret, jwt.MapClaims{
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": "exchange.read exchange.write",
	})
	req = httptest.NewRequest(http.MethodPost, "/v1/exchange/burn", nil)
	req.Header.Set("Authorization", "Bearer "+writeToken)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for matching scope, got %d", res.Code)
	}
}

func TestAuthenticatorAllowsAnonymousOptionalPaths(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{
		Enabled:        true,
		HMACSecret:     testSecret,
		OptionalPaths:  []string{"/v1/auction"},
		AllowAnonymous: true,
	}, nil)
	handler := authHandler(auth)

	req := httptest.NewRequest(http.MethodGet, "/v1/auction/today", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected anonymous access on optional path, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 outside optional paths, got %d", res.Code)
	}
}

func TestAuthenticatorDisabledPassesThrough(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: false}, nil)
	handler := authHandler(auth)

	req := httptest.NewRequest(http.MethodGet, "/v1/exchange/cycle", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected pass-through when auth disabled, got %d", res.Code)
	}
}

func TestRequestIDGeneratesAndEchoes(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/auction/today", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if seen == "" {
		t.Fatalf("expected request id in context")
	}
	if got := res.Header().Get(RequestIDHeader); got != seen {
		t.Fatalf("expected response header %q to match context id %q", got, seen)
	}
}

func TestRequestIDReusesInboundHeader(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/auction/today", nil)
	req.Header.Set(RequestIDHeader, "trace-1234")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get(RequestIDHeader); got != "trace-1234" {
		t.Fatalf("expected inbound request id to be reused, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/auction/today", nil)
	req.Header.Set(RequestIDHeader, "bad id with spaces")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get(RequestIDHeader); got == "bad id with spaces" || got == "" {
		t.Fatalf("expected malformed inbound id to be replaced, got %q", got)
	}
}
