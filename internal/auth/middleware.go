package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// LoginPath is where unauthenticated clients are sent.
const LoginPath = "/login"

// TokenSource resolves the stored token of a request without a bearer
// header, and forgets it once it is no longer usable.
type TokenSource interface {
	TokenForRequest(ctx context.Context, r *http.Request) (string, error)
	ClearForRequest(ctx context.Context, r *http.Request) error
}

// Middleware resolves the platform token of a request and rejects requests
// whose token is missing or expired.
type Middleware struct {
	Policy Policy
	Tokens TokenSource
	Now    func() time.Time
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(policy Policy, tokens TokenSource) *Middleware {
	return &Middleware{Policy: policy, Tokens: tokens, Now: time.Now}
}

// Wrap applies authentication to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearer(r)
		stored := false
		if token == "" && m.Tokens != nil {
			// Store errors mean no usable session; treated as missing.
			token, _ = m.Tokens.TokenForRequest(r.Context(), r)
			stored = token != ""
		}
		if token == "" {
			Unauthorized(w, "missing token")
			return
		}
		reject := func(reason string) {
			if stored {
				_ = m.Tokens.ClearForRequest(r.Context(), r)
			}
			Unauthorized(w, reason)
		}
		claims, err := ParseClaims(token)
		if err != nil {
			reject("invalid token")
			return
		}
		now := time.Now
		if m.Now != nil {
			now = m.Now
		}
		if IsExpired(claims, now()) {
			reject("token expired")
			return
		}
		ctx := WithIdentity(r.Context(), claims.UserID(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Unauthorized writes a 401 telling the client to go back to the login view.
func Unauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason, "redirect": LoginPath})
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
