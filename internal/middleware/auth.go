package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminKeyAuth guards operator endpoints (model listing, metrics) with a
// static key sent as "Authorization: Bearer <key>" or "X-Admin-Key". With no
// keys configured the endpoints stay open.
func AdminKeyAuth(validKeys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(validKeys) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get("X-Admin-Key"))
			if key == "" {
				auth := r.Header.Get("Authorization")
				if auth == "" {
					writeError(w, http.StatusUnauthorized, "missing Authorization header")
					return
				}
				key = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
			if key == "" {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}

			// constant-time comparison
			valid := false
			for _, k := range validKeys {
				if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
					valid = true
					break
				}
			}
			if !valid {
				writeError(w, http.StatusUnauthorized, "invalid admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
