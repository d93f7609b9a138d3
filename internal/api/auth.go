package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	// ControlTokenHeader carries the control token on session requests
	ControlTokenHeader = "X-Control-Token"

	// ControlTokenQuery is accepted for WebSocket clients that cannot set headers
	ControlTokenQuery = "token"
)

// ControlGuard protects session control (start/stop) with a shared token.
// A guard with an empty token allows everything.
type ControlGuard struct {
	digest [sha256.Size]byte
	open   bool
}

// NewControlGuard creates a guard for token
func NewControlGuard(token string) *ControlGuard {
	if token == "" {
		return &ControlGuard{open: true}
	}
	return &ControlGuard{digest: sha256.Sum256([]byte(token))}
}

// Authorized reports whether r presents the control token
func (g *ControlGuard) Authorized(r *http.Request) bool {
	if g == nil || g.open {
		return true
	}
	return g.Check(requestToken(r))
}

// Check compares a presented token in constant time
func (g *ControlGuard) Check(token string) bool {
	if g == nil || g.open {
		return true
	}
	sum := sha256.Sum256([]byte(token))
	return hmac.Equal(sum[:], g.digest[:])
}

func requestToken(r *http.Request) string {
	if t := r.Header.Get(ControlTokenHeader); t != "" {
		return t
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get(ControlTokenQuery)
}

// Middleware rejects unauthorized requests with 401
func (g *ControlGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Authorized(r) {
			RecordConnectionRejected("unauthorized")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "unauthorized",
				"message": "Control token required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
