package middleware_test

import (
	"context"
	"net/http"

	"github.com/popeskul/cadence/internal/api"
)

// contextWithScopes marks a request the way the generated router does for
// operations behind the bearer security scheme.
func contextWithScopes(r *http.Request) context.Context {
	return context.WithValue(r.Context(), api.BearerAuthScopes, []string{})
}
