package mcp

import (
	"sync"

	"github.com/nbbaier/supertag/internal/config"
	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/store"
	"github.com/nbbaier/supertag/internal/workspace"
)

// Pool lazily opens and caches one store+schema-service pair per
// workspace alias, mirroring the webhook surface's pool: an RPC
// session is typically long-lived (one process per AI-tool
// connection), so repeated tool calls against the same workspace
// shouldn't reopen the SQLite file each time.
type Pool struct {
	cfg  *config.Config
	mu   sync.Mutex
	open map[string]*openWorkspace
}

type openWorkspace struct {
	store *store.Store
	svc   *schema.Service
	ws    *config.Workspace
}

// NewPool builds a pool over cfg's workspace registry.
func NewPool(cfg *config.Config) *Pool {
	return &Pool{cfg: cfg, open: make(map[string]*openWorkspace)}
}

// Get resolves alias (empty alias means the configured default) and
// returns its open store, schema service, and resolved workspace,
// opening it on first use.
func (p *Pool) Get(alias string) (*store.Store, *schema.Service, *config.Workspace, error) {
	ws, err := workspace.Resolve(p.cfg, workspace.ResolveOptions{Alias: alias})
	if err != nil {
		return nil, nil, nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ow, ok := p.open[ws.Alias]; ok {
		return ow.store, ow.svc, ow.ws, nil
	}

	s, err := workspace.Open(ws)
	if err != nil {
		return nil, nil, nil, superr.Wrap(superr.DatabaseNotFound, err, "opening workspace "+ws.Alias)
	}
	svc := schema.New(s.DB())
	p.open[ws.Alias] = &openWorkspace{store: s, svc: svc, ws: ws}
	return s, svc, ws, nil
}

// CloseAll closes every store opened by this pool. Call on server shutdown.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for alias, ow := range p.open {
		ow.store.Close()
		delete(p.open, alias)
	}
}
