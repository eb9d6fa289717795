package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminAuthMiddleware guards the admin API with a static bearer token. With
// an empty configured token every request is rejected, so a missing
// ADMIN_API_TOKEN cannot silently open the API.
func AdminAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "admin api is not configured")
				return
			}
			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
