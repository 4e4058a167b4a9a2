package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"strings"
)

// AdminAuth checks a static bearer token on control routes. A zero-value or
// empty-token AdminAuth lets every request through.
type AdminAuth struct {
	digest []byte
}

// NewAdminAuth creates an authenticator for token
func NewAdminAuth(token string) *AdminAuth {
	if token == "" {
		return &AdminAuth{}
	}
	return &AdminAuth{digest: tokenDigest(token)}
}

// Enabled reports whether a token is required
func (a *AdminAuth) Enabled() bool {
	return len(a.digest) > 0
}

// Authorized checks the request's Authorization header
func (a *AdminAuth) Authorized(r *http.Request) bool {
	if !a.Enabled() {
		return true
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}
	// Compare fixed-size digests so length does not leak through timing
	return hmac.Equal(tokenDigest(token), a.digest)
}

// Middleware rejects unauthorized requests with 401
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authorized(r) {
			RecordConnectionRejected("auth")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="match"`)
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "unauthorized",
				"message": "Admin token required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
