package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"dashquery/internal/middleware"
)

// RouterDeps holds everything NewRouter mounts.
type RouterDeps struct {
	Handler        *Handler
	Spec           *openapi3.T
	Logger         *slog.Logger
	Metrics        http.Handler
	Health         func(ctx context.Context) error
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter builds the chi router of the HTTP API. An error means a route is
// missing from the OpenAPI document.
func NewRouter(deps RouterDeps) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(r.Context()); err != nil {
				deps.Logger.Warn("health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	r.Get("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, deps.Spec)
	})

	v := &requestValidator{doc: deps.Spec}
	posts := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/v1/dashboards/explain", deps.Handler.ExplainDashboard},
		{"/v1/dashboards/execute", deps.Handler.ExecuteDashboard},
		{"/v1/dashboards/export", deps.Handler.ExportDashboard},
		{"/v1/conditions/describe", deps.Handler.DescribeConditions},
	}

	var routeErr error
	r.Route("/v1", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware)
		}
		r.Get("/data-sources", deps.Handler.ListDataSources)
		r.Get("/data-sources/{id}", deps.Handler.GetDataSource)
		for _, p := range posts {
			validate, err := v.middleware(http.MethodPost, p.path)
			if err != nil {
				routeErr = err
				return
			}
			r.With(validate).Post(p.path[len("/v1"):], p.handler)
		}
	})
	if routeErr != nil {
		return nil, fmt.Errorf("build router: %w", routeErr)
	}
	return r, nil
}
