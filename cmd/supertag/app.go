package main

import (
	"os"
	"sync"

	"github.com/nbbaier/supertag/internal/config"
	"github.com/nbbaier/supertag/internal/embedding"
	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/sink"
	"github.com/nbbaier/supertag/internal/store"
	"github.com/nbbaier/supertag/internal/workspace"
)

// lazyEngine builds the embedding engine once per process, mirroring
// the webhook and RPC surfaces: construction may dial out to a local
// model server, so it must not happen per command invocation.
type lazyEngine struct {
	mu     sync.Mutex
	engine embedding.EmbeddingEngine
	err    error
	built  bool
}

// App carries the config and flags every command needs: which
// workspace(s) to target and whether to render JSON or paste text.
type App struct {
	Config     *config.Config
	ConfigPath string
	Workspace  string
	JSON       bool

	engineOnce lazyEngine
}

func newApp(configPath, ws string, jsonOut bool) (*App, error) {
	path := configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, ConfigPath: path, Workspace: ws, JSON: jsonOut}, nil
}

// Open resolves and opens the workspace named by a.Workspace (or the
// configured default when empty), returning the store, schema
// service, and resolved workspace entry together since nearly every
// command needs all three.
func (a *App) Open() (*store.Store, *schema.Service, *config.Workspace, error) {
	ws, err := workspace.Resolve(a.Config, workspace.ResolveOptions{Alias: a.Workspace})
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := workspace.Open(ws)
	if err != nil {
		return nil, nil, nil, superr.Wrap(superr.DatabaseNotFound, err, "opening workspace "+ws.Alias)
	}
	return s, schema.New(s.DB()), ws, nil
}

// Sink builds the write sink for ws, honoring its configured target
// and token. Returns an error only if ws has no target configured;
// callers that don't need to write (dry runs) should skip calling it.
func (a *App) Sink(ws *config.Workspace) (sink.Sink, error) {
	if ws.Target == "" {
		return nil, superr.New(superr.InvalidParameter, "workspace has no configured write-sink target (set one with `workspace update --target`)")
	}
	return sink.NewRateLimited(sink.NewHTTPSink(ws.Target, ws.Token)), nil
}

func mustHomeConfigDir() string {
	dir := config.DefaultDataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dir
	}
	return dir
}
