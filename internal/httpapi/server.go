// Package httpapi implements Supertag's webhook surface: a loopback
// HTTP daemon exposing the query engine, schema service, and embedding
// search as a thin, unauthenticated JSON/text API. Modeled on
// codenerd's internal/auth/antigravity.StartCallbackServer for the
// listen/graceful-shutdown shape, routed through chi + chi/cors for
// the endpoint surface a single http.ServeMux would make unwieldy.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/nbbaier/supertag/internal/config"
	"github.com/nbbaier/supertag/internal/logging"
)

// Deps are the components the webhook handlers read from. Workspace
// resolution happens per-request via the `workspace` query param/body
// field, so Deps carries the registry rather than a single open store.
type Deps struct {
	Config *config.Config
	Pool   *WorkspacePool

	onceEngine lazyEngine
}

// Server is the webhook daemon: an http.Server plus the PID file
// lifecycle described for the daemon's shared resources.
type Server struct {
	httpServer *http.Server
	pidPath    string
}

// NewServer builds the router and binds it to addr (loopback by
// default; CORS is open since the surface carries no authentication).
func NewServer(addr string, deps *Deps, pidPath string) *Server {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	h := &handlers{deps: deps}
	r.Get("/health", h.health)
	r.Get("/workspaces", h.workspaces)
	r.Get("/help", h.help)
	r.Post("/search", h.search)
	r.Get("/stats", h.stats)
	r.Post("/tags", h.tags)
	r.Post("/nodes", h.nodes)
	r.Post("/refs", h.refs)
	r.Post("/semantic-search", h.semanticSearch)
	r.Get("/embed-stats", h.embedStats)

	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: r},
		pidPath:    pidPath,
	}
}

// Handler returns the routed http.Handler, for tests and for embedding
// behind an external listener.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Run binds and serves until ctx is cancelled, then shuts down
// gracefully. It writes the PID file on start (cleaning up any stale
// one first) and removes it on the way out.
func (s *Server) Run(ctx context.Context) error {
	if err := claimPIDFile(s.pidPath); err != nil {
		return err
	}
	defer removePIDFile(s.pidPath)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	logging.Get(logging.CategoryHTTP).Info("webhook daemon listening on %s", s.httpServer.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
