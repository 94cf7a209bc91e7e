// Package server assembles the scene browser service from its configuration
// so it can be run by cmd/server or embedded in another application.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	"github.com/robert-malhotra/scene-browser/internal/api"
	"github.com/robert-malhotra/scene-browser/internal/auth"
	"github.com/robert-malhotra/scene-browser/internal/catalog"
	"github.com/robert-malhotra/scene-browser/internal/config"
	"github.com/robert-malhotra/scene-browser/internal/mcp"
	"github.com/robert-malhotra/scene-browser/internal/remote"
	"github.com/robert-malhotra/scene-browser/internal/session"
	"github.com/robert-malhotra/scene-browser/internal/store"
)

// Server is a scene browser service that can be embedded in another application.
type Server struct {
	router   chi.Router
	catalog  catalog.Catalog
	sessions *session.MemoryStore
	db       *bun.DB
	logger   *slog.Logger
}

// New creates a server from cfg. It connects to the configured catalog and,
// for Postgres, creates the schema and optionally seeds it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{logger: logger}

	cat, err := s.openCatalog(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.catalog = cat

	autoSearch, err := session.ParseAutoSearchPolicy(cfg.Session.AutoSearch)
	if err != nil {
		s.Close()
		return nil, err
	}

	roi := cfg.Session.DefaultROI
	s.sessions = session.NewMemoryStore(cat, session.Options{
		DefaultROI:   catalog.NewBBox(roi[0], roi[1], roi[2], roi[3]),
		DefaultLimit: cfg.Session.DefaultLimit,
		AutoSearch:   autoSearch,
		Logger:       logger,
	}, cfg.Session.TTL, cfg.Session.CleanupInterval)

	handlers := api.NewHandlers(cfg, cat, s.sessions, logger)

	if cfg.Auth.JWTSecret != "" {
		m, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create token manager: %w", err)
		}
		handlers.WithAuth(m)
		logger.Info("bearer token verification enabled", "issuer", cfg.Auth.Issuer)
	}

	if cfg.Features.EnableMCP {
		handlers.WithMCP(mcp.NewServer(cat, logger).HTTPHandler())
		logger.Info("mcp endpoint enabled", "path", "/mcp")
	}

	s.router = api.NewRouter(handlers, logger)
	return s, nil
}

func (s *Server) openCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, error) {
	switch cfg.Catalog.Type {
	case config.CatalogPostgres:
		db, err := store.Open(ctx, cfg.Database.URL, store.Options{
			Timeout: cfg.Database.Timeout,
			Debug:   cfg.Database.Debug,
		})
		if err != nil {
			return nil, err
		}
		s.db = db

		pg := store.New(db, s.logger)
		if err := pg.CreateSchema(ctx); err != nil {
			return nil, err
		}
		if cfg.Database.Seed {
			if err := seedIfEmpty(ctx, pg, cfg.Catalog.FixturePath, s.logger); err != nil {
				return nil, err
			}
		}
		s.logger.Info("using postgres catalog")
		return pg, nil

	case config.CatalogRemote:
		s.logger.Info("using remote catalog", "base_url", cfg.Catalog.RemoteURL)
		return remote.NewClient(cfg.Catalog.RemoteURL, cfg.Catalog.RemoteTimeout).WithLogger(s.logger), nil

	default:
		mem, err := config.LoadMemoryCatalog(cfg.Catalog.FixturePath)
		if err != nil {
			return nil, err
		}
		products, scenes := mem.Count()
		s.logger.Info("using memory catalog",
			"fixture", cfg.Catalog.FixturePath,
			"products", products,
			"scenes", scenes,
		)
		return mem, nil
	}
}

func seedIfEmpty(ctx context.Context, pg *store.Catalog, fixturePath string, logger *slog.Logger) error {
	empty, err := pg.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		logger.Info("catalog already populated, skipping seed")
		return nil
	}

	fixture, err := config.LoadFixture(fixturePath)
	if err != nil {
		return err
	}
	if err := pg.Seed(ctx, fixture.Products, fixture.Scenes); err != nil {
		return err
	}
	logger.Info("seeded catalog", "products", len(fixture.Products), "scenes", len(fixture.Scenes))
	return nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}

// Catalog returns the catalog the server searches.
func (s *Server) Catalog() catalog.Catalog {
	return s.catalog
}

// Close stops session cleanup and closes the database, if any.
func (s *Server) Close() {
	if s.sessions != nil {
		s.sessions.Stop()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("failed to close database", "error", err)
		}
	}
}
