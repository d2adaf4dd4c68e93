package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/popeskul/cadence/internal/api"
)

// BearerAuth rejects requests whose Authorization header is not
// "Bearer <secret>". The comparison runs in constant time.
func BearerAuth(secret string) func(next http.Handler) http.Handler {
	expected := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
				WriteError(w, r, http.StatusUnauthorized, ErrorCodeUnauthorized, ErrorMessageUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecuredOperations applies auth only to operations the API marks with the
// bearer security scheme, leaving the rest of the routes open.
func SecuredOperations(auth func(http.Handler) http.Handler) api.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		secured := auth(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Context().Value(api.BearerAuthScopes) != nil {
				secured.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
