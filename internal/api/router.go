package api

import (
	_ "embed"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/blueprints/internal/api/handler"
	"github.com/daap14/blueprints/internal/api/middleware"
	"github.com/daap14/blueprints/internal/auth"
	"github.com/daap14/blueprints/internal/blueprint"
)

// OpenAPISpec is the YAML description of the HTTP API served at /openapi.json.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger      handler.DBPinger
	Version       string
	BlueprintRepo blueprint.Repository
	AuthService   *auth.Service
	OpenAPISpec   []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.BlueprintRepo != nil {
		authService := deps.AuthService
		if authService == nil {
			authService = auth.NewService("")
		}

		bpHandler := handler.NewBlueprintHandler(deps.BlueprintRepo)
		r.Route("/api/v1/blueprints", func(r chi.Router) {
			r.Get("/", bpHandler.List)
			r.Get("/{author}", bpHandler.ListByAuthor)
			r.Get("/{author}/{bpname}", bpHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(authService))
				r.Post("/", bpHandler.Create)
				r.Put("/{author}/{bpname}/points", bpHandler.AppendPoint)
				r.Delete("/{author}/{bpname}", bpHandler.Delete)
			})
		})
	}

	return r
}
