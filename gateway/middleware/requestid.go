package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request identifier between the gateway and
	// its callers. Inbound values are trusted so operators can correlate
	// retries across hops.
	RequestIDHeader = "X-Request-Id"

	ContextKeyRequestID contextKey = "gateway.requestID"

	maxRequestIDLength = 64
)

// RequestID assigns every request a correlation identifier. An acceptable
// inbound X-Request-Id is reused, otherwise a fresh UUID is generated. The
// identifier is echoed on the response and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sanitizeRequestID(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), ContextKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the identifier assigned by RequestID, or an
// empty string when the middleware is not installed.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

func sanitizeRequestID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > maxRequestIDLength {
		return ""
	}
	for _, ch := range trimmed {
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_':
		default:
			return ""
		}
	}
	return trimmed
}
