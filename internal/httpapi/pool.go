package httpapi

import (
	"sync"

	"github.com/nbbaier/supertag/internal/config"
	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/store"
	"github.com/nbbaier/supertag/internal/workspace"
)

// WorkspacePool lazily opens and caches one store+schema-service pair
// per workspace alias, so repeated webhook requests against the same
// workspace don't reopen the SQLite file each time.
type WorkspacePool struct {
	cfg  *config.Config
	mu   sync.Mutex
	open map[string]*openWorkspace
}

type openWorkspace struct {
	store *store.Store
	svc   *schema.Service
}

// NewWorkspacePool builds a pool over cfg's workspace registry.
func NewWorkspacePool(cfg *config.Config) *WorkspacePool {
	return &WorkspacePool{cfg: cfg, open: make(map[string]*openWorkspace)}
}

// Get resolves alias (empty alias means the configured default) and
// returns its open store and schema service, opening it on first use.
func (p *WorkspacePool) Get(alias string) (*store.Store, *schema.Service, error) {
	ws, err := workspace.Resolve(p.cfg, workspace.ResolveOptions{Alias: alias})
	if err != nil {
		return nil, nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ow, ok := p.open[ws.Alias]; ok {
		return ow.store, ow.svc, nil
	}

	s, err := workspace.Open(ws)
	if err != nil {
		return nil, nil, superr.Wrap(superr.DatabaseNotFound, err, "opening workspace "+ws.Alias)
	}
	svc := schema.New(s.DB())
	p.open[ws.Alias] = &openWorkspace{store: s, svc: svc}
	return s, svc, nil
}

// CloseAll closes every store opened by this pool. Call during daemon
// shutdown.
func (p *WorkspacePool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for alias, ow := range p.open {
		ow.store.Close()
		delete(p.open, alias)
	}
}
