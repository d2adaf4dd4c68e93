package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/popeskul/cadence/internal/api"
	"github.com/popeskul/cadence/internal/metrics"
	"github.com/popeskul/cadence/internal/middleware"
)

func setupRouter(handler api.ServerInterface, cronSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)

	// Serve OpenAPI spec
	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, "api/openapi.yaml")
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Mount API routes; cron and scheduler operations require the bearer secret.
	r.Mount("/", api.HandlerWithOptions(handler, api.ChiServerOptions{
		BaseRouter: chi.NewRouter(),
		Middlewares: []api.MiddlewareFunc{
			middleware.SecuredOperations(middleware.BearerAuth(cronSecret)),
		},
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			middleware.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		},
	}))

	return r
}
