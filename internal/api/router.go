package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(h *Handlers, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Add middleware stack
	r.Use(middleware.RequestID)
	r.Use(RequestIDResponse) // Add X-Request-ID to response headers
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recovery(logger))
	r.Use(middleware.Compress(5)) // Gzip compression

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"Link", "Location", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))
	r.Use(Authenticate(h.auth, logger))

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/api/products", h.Products)
		r.Post("/api/scenes-search", h.ScenesSearch)
		r.Get("/api/me", h.Me)

		r.Route("/api/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Patch("/filters", h.SetFilters)
				r.Post("/search", h.RunSearch)
				r.Post("/page", h.ChangePage)
				r.Post("/select", h.Select)
				r.Post("/hover", h.Hover)
				r.Put("/viewport", h.SetViewport)
				r.Get("/map", h.MapView)

				r.Route("/roi", func(r chi.Router) {
					r.Put("/", h.SetRoi)
					r.Post("/reset", h.ResetRoi)
					r.Put("/edit-mode", h.SetRoiEditMode)
					r.Post("/edit-mode/toggle", h.ToggleRoiEditMode)
					r.Post("/pointer", h.Pointer)
				})
			})
		})

		if h.cfg.Features.EnableSTAC {
			r.Route(STACPrefix, func(r chi.Router) {
				r.Get("/", h.STACLandingPage)
				r.Get("/conformance", h.STACConformance)
				r.Get("/collections", h.STACCollections)
				r.Get("/collections/{productId}", h.STACCollection)
				r.Get("/collections/{productId}/items", h.STACItems)
				r.Get("/search", h.STACSearch)
			})
		}
	})

	// The MCP transport negotiates its own content types.
	if h.mcp != nil {
		r.Handle("/mcp", h.mcp)
		r.Handle("/mcp/*", h.mcp)
	}

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "endpoint not found")
	})

	// 405 handler
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	})

	return r
}
