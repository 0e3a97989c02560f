package mcp

import (
	"context"
	"encoding/json"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/query"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/sink"
	"github.com/nbbaier/supertag/internal/watch"
)

func (s *Server) toolSearch(ctx context.Context, d *Deps, raw json.RawMessage) (interface{}, error) {
	var p searchParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	if p.Query == "" {
		return nil, superr.New(superr.MissingRequired, "search requires query")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	st, _, _, err := d.Pool.Get(p.Workspace)
	if err != nil {
		return nil, err
	}

	if p.Semantic {
		engine, err := d.embeddingEngine()
		if err != nil {
			return nil, err
		}
		return semanticSearch(ctx, st, engine, p.Query, limit)
	}
	return ftsSearch(st, p.Query, limit)
}

func (s *Server) toolTagged(ctx context.Context, d *Deps, raw json.RawMessage) (interface{}, error) {
	var p taggedParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	if p.Tag == "" {
		return nil, superr.New(superr.MissingRequired, "tagged requires tag")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	st, svc, _, err := d.Pool.Get(p.Workspace)
	if err != nil {
		return nil, err
	}

	res, err := query.Execute(ctx, st.DB(), svc, query.SystemClock{}, &query.Query{Find: p.Tag, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]nodeResult, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		out = append(out, nodeResult{ID: n.ID, Name: n.Name})
	}
	return out, nil
}

func (s *Server) toolStats(ctx context.Context, d *Deps, raw json.RawMessage) (interface{}, error) {
	var p statsParams
	_ = unmarshalParams(raw, &p) // stats has no required fields; ignore missing-params error

	st, _, _, err := d.Pool.Get(p.Workspace)
	if err != nil {
		return nil, err
	}
	return st.Stats()
}

func (s *Server) toolSupertags(ctx context.Context, d *Deps, raw json.RawMessage) (interface{}, error) {
	var p supertagsParams
	_ = unmarshalParams(raw, &p)

	_, svc, _, err := d.Pool.Get(p.Workspace)
	if err != nil {
		return nil, err
	}
	if p.Search != "" {
		return svc.SearchSupertags(p.Search)
	}
	return svc.ListSupertags()
}

func (s *Server) toolNode(ctx context.Context, d *Deps, raw json.RawMessage) (interface{}, error) {
	var p nodeParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, superr.New(superr.MissingRequired, "node requires id")
	}

	st, _, _, err := d.Pool.Get(p.Workspace)
	if err != nil {
		return nil, err
	}
	tree, err := loadNodeTree(st, p.ID, p.Depth)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, superr.Newf(superr.NodeNotFound, "no node with id %q", p.ID)
	}
	return tree, nil
}

func (s *Server) toolCreate(ctx context.Context, d *Deps, raw json.RawMessage) (interface{}, error) {
	var p createParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	if p.Tag == "" || p.Name == "" {
		return nil, superr.New(superr.MissingRequired, "create requires tag and name")
	}

	_, svc, ws, err := d.Pool.Get(p.Workspace)
	if err != nil {
		return nil, err
	}

	payload, err := svc.BuildPayload([]string{p.Tag}, p.Name, p.Fields)
	if err != nil {
		return nil, err
	}
	for _, child := range p.Children {
		payload.Children = append(payload.Children, schema.PayloadChild{Name: child})
	}

	if p.DryRun {
		return map[string]interface{}{"dry_run": true, "payload": payload}, nil
	}
	if d.Sink == nil {
		return nil, superr.New(superr.LocalApiUnavailable, "no write sink configured")
	}
	target := ws.Target
	if target == "" {
		return nil, superr.New(superr.InvalidParameter, "workspace has no configured write-sink target")
	}
	if err := d.Sink.Post(ctx, sink.Target(target), payload); err != nil {
		return nil, err
	}
	return map[string]interface{}{"dry_run": false, "payload": payload}, nil
}

func (s *Server) toolSync(ctx context.Context, d *Deps, raw json.RawMessage) (interface{}, error) {
	var p syncParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}

	st, _, ws, err := d.Pool.Get(p.Workspace)
	if err != nil {
		return nil, err
	}

	switch p.Action {
	case "status":
		stats, err := st.Stats()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"workspace": ws.Alias, "stats": stats}, nil
	case "index":
		report, err := watch.IndexLatest(ctx, watch.Config{
			SnapshotDir:     ws.ExportDir,
			SchemaCachePath: ws.SchemaCachePath,
			Store:           st,
		})
		if err != nil {
			return nil, err
		}
		if report == nil {
			return nil, superr.Newf(superr.DatabaseNotFound, "no snapshot file found in %s", ws.ExportDir)
		}
		return report, nil
	default:
		return nil, superr.Newf(superr.InvalidParameter, "sync action must be index or status, got %q", p.Action)
	}
}
