// Package workspace resolves which workspace a command targets and
// fans read/write operations out across multiple workspaces. Each
// workspace owns an isolated store file, vector directory, and schema
// cache, as configured by internal/config.
package workspace

import (
	"path/filepath"

	"github.com/nbbaier/supertag/internal/config"
	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/store"
)

// ResolveOptions carries the caller-supplied overrides consulted in
// priority order: explicit path, then explicit alias, then the
// configured default, then the single-db legacy path.
type ResolveOptions struct {
	ExplicitPath string
	Alias        string
}

// Resolve picks the workspace ResolveOptions and cfg together select.
// An ExplicitPath bypasses the registry entirely and names an ad-hoc
// workspace rooted at that single database file.
func Resolve(cfg *config.Config, opts ResolveOptions) (*config.Workspace, error) {
	if opts.ExplicitPath != "" {
		return explicitPathWorkspace(opts.ExplicitPath), nil
	}
	if opts.Alias != "" {
		return cfg.FindWorkspace(opts.Alias)
	}
	if ws, err := cfg.Default(); err == nil {
		return ws, nil
	}
	if cfg.LegacyDBPath != "" {
		return legacyWorkspace(cfg.LegacyDBPath), nil
	}
	return nil, superr.New(superr.WorkspaceNotFound, "no workspace resolved: no explicit path or alias, no configured default, no legacy database")
}

func explicitPathWorkspace(path string) *config.Workspace {
	dir := filepath.Dir(path)
	return &config.Workspace{
		Alias:           "(explicit path)",
		DBPath:          path,
		VectorDir:       filepath.Join(dir, "vectors"),
		SchemaCachePath: filepath.Join(dir, "schema.json"),
		Enabled:         true,
	}
}

func legacyWorkspace(path string) *config.Workspace {
	dir := filepath.Dir(path)
	return &config.Workspace{
		Alias:           "(legacy)",
		DBPath:          path,
		VectorDir:       filepath.Join(dir, "vectors"),
		SchemaCachePath: filepath.Join(dir, "schema.json"),
		Enabled:         true,
	}
}

// Open opens the store backing ws.
func Open(ws *config.Workspace) (*store.Store, error) {
	return store.Open(ws.DBPath, ws.VectorDir)
}

// Enabled returns the enabled workspaces from cfg's registry, in
// registry order.
func Enabled(cfg *config.Config) []config.Workspace {
	out := make([]config.Workspace, 0, len(cfg.Workspaces))
	for _, ws := range cfg.Workspaces {
		if ws.Enabled {
			out = append(out, ws)
		}
	}
	return out
}
