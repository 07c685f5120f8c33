// Package server provides the public entry point for initializing the ZINC
// config service.
//
// This package exists in pkg/ (not internal/) so that other binaries can
// embed the admin API behind their own middleware.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	defer srv.Close(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jays-visionAI/ZINC-sub003/internal/api"
	"github.com/jays-visionAI/ZINC-sub003/internal/api/handlers"
	"github.com/jays-visionAI/ZINC-sub003/internal/catalog"
	"github.com/jays-visionAI/ZINC-sub003/internal/config"
	"github.com/jays-visionAI/ZINC-sub003/internal/events"
	"github.com/jays-visionAI/ZINC-sub003/internal/resolver"
	"github.com/jays-visionAI/ZINC-sub003/internal/router"
	"github.com/jays-visionAI/ZINC-sub003/internal/store"
	"github.com/jays-visionAI/ZINC-sub003/internal/telemetry"

	"github.com/rs/zerolog/log"
)

// Server holds the initialized config service.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the document store behind both resolvers.
	Store store.Store

	// Resolver and Runtime are exposed for in-process callers.
	Resolver *resolver.Resolver
	Runtime  *router.RuntimeResolver

	// Publisher receives config-change events.
	Publisher events.Publisher

	// Config is the server configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	shutdownTelemetry func(context.Context) error
}

// New initializes all components from the environment.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the service with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	dataStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		shutdown(ctx)
		return nil, err
	}

	if err := seedCatalog(ctx, dataStore, cfg.Seed); err != nil {
		dataStore.Close()
		shutdown(ctx)
		return nil, err
	}

	pub, err := openPublisher(cfg.Events)
	if err != nil {
		dataStore.Close()
		shutdown(ctx)
		return nil, err
	}

	res := resolver.NewResolver(dataStore,
		resolver.WithDefaultChannel(cfg.Resolver.DefaultChannel),
		resolver.WithPublisher(pub),
	)
	rt := router.NewRuntimeResolver(dataStore)
	log.Info().Str("default_channel", cfg.Resolver.DefaultChannel).Msg("Config resolvers initialized")

	h := handlers.New(dataStore, res, rt)

	return &Server{
		Handler:           api.NewRouter(cfg, h),
		Store:             dataStore,
		Resolver:          res,
		Runtime:           rt,
		Publisher:         pub,
		Config:            cfg,
		Port:              cfg.Port,
		shutdownTelemetry: shutdown,
	}, nil
}

// Close releases the publisher, the store and the tracer provider.
func (s *Server) Close(ctx context.Context) error {
	return errors.Join(
		s.Publisher.Close(),
		s.Store.Close(),
		s.shutdownTelemetry(ctx),
	)
}

// OpenStore opens the configured store backend.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		s := store.NewMemoryStore(cfg.DataDir)
		log.Info().Str("data_dir", cfg.DataDir).Msg("In-memory store initialized")
		return s, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("SQLite store initialized")
		return s, nil
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, errors.New("postgres store requires ZINC_POSTGRES_URL")
		}
		s, err := store.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// seedCatalog imports the seed file, or the generated catalog, into the store.
func seedCatalog(ctx context.Context, s store.Store, cfg config.SeedConfig) error {
	var (
		c   *catalog.Catalog
		err error
	)
	switch {
	case cfg.File != "":
		c, err = catalog.LoadFile(cfg.File)
		if err != nil {
			return fmt.Errorf("load seed file: %w", err)
		}
	case cfg.Catalog:
		c = catalog.Generate(catalog.GeneratorOptions{})
	default:
		return nil
	}

	if _, err := catalog.Seed(ctx, s, c, catalog.SeedOptions{AutoUpgrade: cfg.AutoUpgrade}); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

func openPublisher(cfg config.EventsConfig) (events.Publisher, error) {
	var pubs events.MultiPublisher
	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(events.NATSConfig{URL: cfg.NATSURL, Subject: cfg.Subject})
		if err != nil {
			return nil, fmt.Errorf("open event publisher: %w", err)
		}
		pubs = append(pubs, p)
	}
	if cfg.WebhookURL != "" {
		p, err := events.NewWebhookPublisher(events.WebhookConfig{URL: cfg.WebhookURL, Secret: cfg.WebhookSecret})
		if err != nil {
			pubs.Close()
			return nil, fmt.Errorf("open event publisher: %w", err)
		}
		pubs = append(pubs, p)
	}

	switch len(pubs) {
	case 0:
		log.Info().Msg("Config-change events disabled")
		return events.NopPublisher{}, nil
	case 1:
		return pubs[0], nil
	default:
		return pubs, nil
	}
}
