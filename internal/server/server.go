// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/adminforge/adminforge/internal/activity"
	"github.com/adminforge/adminforge/internal/editorwire"
	"github.com/adminforge/adminforge/internal/event"
	"github.com/adminforge/adminforge/internal/handler"
	"github.com/adminforge/adminforge/internal/metaspec"
	"github.com/adminforge/adminforge/internal/schema"
)

// Config holds server configuration.
type Config struct {
	Host     string
	Port     int
	Specs    metaspec.Store
	Registry *schema.Registry

	// PageSize overrides the default list page size for the REST surface.
	PageSize int

	// Recorder receives audit events from mutating handlers; nil disables
	// auditing. Activity backs the audit read endpoints; nil disables them.
	Recorder event.Recorder
	Activity activity.Store

	// Sessions manages editor websocket sessions. A nil value gets a
	// manager built from the limits below.
	Sessions *editorwire.Manager

	// Editor session limits; zero values fall back to 24h / 30m.
	SessionMaxAge      time.Duration
	SessionIdleTimeout time.Duration
}

// Router builds the full route tree. Split from Run so tests can mount it
// on httptest servers.
func Router(cfg Config) http.Handler {
	registry := cfg.Registry
	if registry == nil {
		registry = schema.DefaultRegistry()
	}

	maxAge := cfg.SessionMaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	idle := cfg.SessionIdleTimeout
	if idle <= 0 {
		idle = 30 * time.Minute
	}

	if cfg.PageSize > 0 {
		handler.SetDefaultPageCount(cfg.PageSize)
	}

	r := chi.NewRouter()
	r.Use(handler.Recovery, handler.Logging)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	sh := handler.NewMetadataSpecHandler(cfg.Specs, cfg.Recorder)
	r.Route("/v1/metadata-specs", func(r chi.Router) {
		r.Get("/", sh.List)
		r.Post("/", sh.Create)
		r.Get("/{id}", sh.Get)
		r.Put("/{id}", sh.Update)
		r.Delete("/{id}", sh.Delete)
	})

	sch := handler.NewSchemaHandler(registry)
	r.Get("/v1/schemas/{resource}", sch.Get)
	r.Get("/v1/forms/{resource}", sch.Form)

	r.Post("/v1/surface", handler.NewSurfaceHandler().Analyze)
	r.Post("/v1/validate/{resource}", handler.NewValidateHandler(registry).Validate)

	if cfg.Activity != nil {
		ah := handler.NewActivityHandler(cfg.Activity)
		r.Get("/v1/activity/search", ah.Search)
		r.Get("/v1/activity/{entityType}/{entityID}", ah.ByEntity)
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = editorwire.NewManager(maxAge, idle)
	}
	r.Get("/api/editor/ws", editorwire.NewHandler(sessions, cfg.Specs, cfg.Recorder).ServeHTTP)

	return r
}

// listenAddr builds the bind address. An empty host listens on all
// interfaces.
func listenAddr(cfg Config) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Run starts the HTTP server with all routes registered and shuts it down
// when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	addr := listenAddr(cfg)
	log.Info().Str("addr", addr).Msg("starting server")

	srv := &http.Server{
		Addr:    addr,
		Handler: Router(cfg),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
