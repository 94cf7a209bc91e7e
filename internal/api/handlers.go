package api

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/robert-malhotra/scene-browser/internal/auth"
	"github.com/robert-malhotra/scene-browser/internal/catalog"
	"github.com/robert-malhotra/scene-browser/internal/config"
	"github.com/robert-malhotra/scene-browser/internal/session"
)

// Handlers contains all HTTP handlers of the scene browser API.
type Handlers struct {
	cfg      *config.Config
	catalog  catalog.Catalog
	sessions session.Store
	auth     *auth.Manager
	mcp      http.Handler
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(
	cfg *config.Config,
	c catalog.Catalog,
	sessions session.Store,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		cfg:      cfg,
		catalog:  c,
		sessions: sessions,
		logger:   logger,
	}
}

// WithAuth enables bearer token verification.
func (h *Handlers) WithAuth(m *auth.Manager) *Handlers {
	h.auth = m
	return h
}

// WithMCP mounts an MCP handler under /mcp.
func (h *Handlers) WithMCP(handler http.Handler) *Handlers {
	h.mcp = handler
	return h
}

// Health returns the health status of the service.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"catalog": h.catalog.Name(),
	})
}

// ProductsResponse is the body of GET /api/products.
type ProductsResponse struct {
	Products []catalog.Product `json:"products"`
}

// Products lists every product in catalog order.
// GET /api/products
func (h *Handlers) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list products",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		WriteUpstreamError(w, "failed to list products")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	WriteJSON(w, http.StatusOK, ProductsResponse{Products: products})
}

// ScenesSearch runs one stateless search. The body is parsed leniently:
// malformed values fall back to their defaults instead of failing.
// POST /api/scenes-search
func (h *Handlers) ScenesSearch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteBadRequest(w, "request body too large")
		return
	}
	q := catalog.ParseSearchRequest(bytes.NewReader(body))

	result, err := h.catalog.Search(r.Context(), q)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "scene search failed",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("catalog", h.catalog.Name()),
			slog.String("error", err.Error()),
		)
		WriteUpstreamError(w, "scene search failed")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// MeResponse is the body of GET /api/me. User is null when anonymous.
type MeResponse struct {
	User *auth.User `json:"user"`
}

// Me returns the signed-in user, if any.
// GET /api/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, MeResponse{User: auth.CurrentUser(r.Context())})
}
