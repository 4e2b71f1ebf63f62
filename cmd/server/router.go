package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/quizimport/internal/api"
	apiMiddleware "github.com/phrazzld/quizimport/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
// The /api routes require a bearer token when JWT auth is configured.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	importHandler := api.NewImportHandler(app.importService, app.logger)

	r.Route("/api", func(r chi.Router) {
		if app.jwtService != nil {
			r.Use(apiMiddleware.NewAuthMiddleware(app.jwtService).Authenticate)
		}
		importHandler.Routes(r)
	})

	r.Get("/health", api.Health)

	return r
}
