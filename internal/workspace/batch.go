package workspace

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nbbaier/supertag/internal/config"
	superr "github.com/nbbaier/supertag/internal/errors"
)

// Selector names which enabled workspaces a batch operation targets:
// every enabled workspace, or an explicit subset by alias.
type Selector struct {
	All    bool
	Subset []string
}

// Op is a per-workspace operation run during a batch fan-out. Its
// return value is opaque to the batch executor and surfaced verbatim
// in the matching Result.
type Op func(ctx context.Context, ws config.Workspace) (interface{}, error)

// Result is one workspace's outcome within a Batch report.
type Result struct {
	Alias string
	Value interface{}
	Err   error
}

// Report aggregates a batch fan-out: every targeted workspace gets
// exactly one Result, in selection order (registry order for All, the
// caller's alias order for a Subset), whether it
// succeeded or failed. A single workspace's failure never prevents the
// others from running.
type Report struct {
	RunID   string
	Results []Result
}

// Succeeded returns the results whose Op returned no error.
func (r Report) Succeeded() []Result {
	out := make([]Result, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the results whose Op returned an error.
func (r Report) Failed() []Result {
	out := make([]Result, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// selectWorkspaces resolves sel against cfg's enabled workspace
// registry.
func selectWorkspaces(cfg *config.Config, sel Selector) ([]config.Workspace, error) {
	enabled := Enabled(cfg)
	if sel.All {
		return enabled, nil
	}
	if len(sel.Subset) == 0 {
		return nil, superr.New(superr.InvalidParameter, "batch selector requires --all or an explicit workspace subset")
	}
	byAlias := make(map[string]config.Workspace, len(enabled))
	for _, ws := range enabled {
		byAlias[ws.Alias] = ws
	}
	out := make([]config.Workspace, 0, len(sel.Subset))
	for _, alias := range sel.Subset {
		ws, ok := byAlias[alias]
		if !ok {
			return nil, superr.Newf(superr.WorkspaceNotFound, "no enabled workspace named %q", alias)
		}
		out = append(out, ws)
	}
	return out, nil
}

// RunBatch fans op out across the workspaces selected by sel,
// continuing past individual failures. Unlike errgroup.WithContext,
// the group here does not cancel a shared context on first error: one
// workspace's failure must never abort another's in-flight operation.
func RunBatch(ctx context.Context, cfg *config.Config, sel Selector, op Op) (*Report, error) {
	workspaces, err := selectWorkspaces(cfg, sel)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(workspaces))
	var g errgroup.Group
	g.SetLimit(4)

	var mu sync.Mutex
	for i, ws := range workspaces {
		i, ws := i, ws
		g.Go(func() error {
			value, opErr := op(ctx, ws)
			mu.Lock()
			results[i] = Result{Alias: ws.Alias, Value: value, Err: opErr}
			mu.Unlock()
			return nil // never propagate: continue-on-error is the contract
		})
	}
	_ = g.Wait() // always nil: per-workspace errors are captured in results

	return &Report{RunID: uuid.New().String(), Results: results}, nil
}
