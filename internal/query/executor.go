package query

import (
	"context"
	"sort"
	"strconv"
	"strings"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/store"
)

// ResultNode is one matched node, projected per the query's select list.
type ResultNode struct {
	ID     string
	Name   string
	Tags   []string
	Fields map[string][]string
}

// Result is the paged outcome of executing a Query.
type Result struct {
	Nodes      []ResultNode
	MatchCount int // total matches before limit/offset was applied
}

// Execute plans and runs q against db, using svc to resolve the target
// supertag and clock for relative-date literals. It checks ctx between
// the candidate fetch and the per-row evaluation pass so a caller can
// cancel a query over a large corpus.
func Execute(ctx context.Context, db store.Queryer, svc *schema.Service, clock Clock, q *Query) (*Result, error) {
	if clock == nil {
		clock = SystemClock{}
	}

	candidates, err := candidateNodes(db, svc, q.Find)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, superr.Wrap(superr.Timeout, err, "query cancelled before evaluation")
	}

	evalCtx := evalContext{now: clock.Now().UnixMilli()}

	var matched []*row
	for _, n := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, superr.Wrap(superr.Timeout, err, "query cancelled during evaluation")
		}
		r, err := loadRow(db, n)
		if err != nil {
			return nil, err
		}
		if matchesWhere(q.Where, r, evalCtx) {
			matched = append(matched, r)
		}
	}

	sortRows(matched, q.OrderBy)

	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	page := matched[start:end]

	nodes := make([]ResultNode, 0, len(page))
	for _, r := range page {
		nodes = append(nodes, project(r, q.Select))
	}

	return &Result{Nodes: nodes, MatchCount: total}, nil
}

// candidateNodes returns every node bearing the supertag named by find,
// or every node in the store when find is "*". An unknown supertag
// name yields an empty result rather than an error.
func candidateNodes(db store.Queryer, svc *schema.Service, find string) ([]*store.Node, error) {
	if find == "*" {
		ids, err := store.AllNodeIDs(db)
		if err != nil {
			return nil, err
		}
		return loadNodes(db, ids)
	}

	tag, err := svc.GetSupertag(find)
	if err != nil {
		return nil, nil
	}

	rows, err := db.Query("SELECT data_node_id FROM tag_applications WHERE tag_id = ?", tag.ID)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "selecting nodes tagged "+tag.ID)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning tagged node id")
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "iterating tagged nodes")
	}

	return loadNodes(db, ids)
}

func loadNodes(db store.Queryer, ids map[string]bool) ([]*store.Node, error) {
	nodes := make([]*store.Node, 0, len(ids))
	for id := range ids {
		n, err := store.GetNode(db, id)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// sortRows orders matched by ob, defaulting to ascending id for a
// deterministic tie-break regardless of order_by. Numeric fields sort
// naturally, dates by ISO lexicographic order, strings case-insensitive.
func sortRows(matched []*row, ob *OrderBy) {
	sort.SliceStable(matched, func(i, j int) bool {
		if ob != nil {
			vi, oki := resolvedValues(ob.Field, matched[i])
			vj, okj := resolvedValues(ob.Field, matched[j])
			if oki && okj && len(vi) > 0 && len(vj) > 0 {
				cmp := compareForSort(vi[0], vj[0])
				if cmp != 0 {
					if ob.Desc {
						return cmp > 0
					}
					return cmp < 0
				}
			} else if oki != okj {
				// Rows missing the sort field sort last regardless of direction.
				return oki
			}
		}
		return matched[i].id < matched[j].id
	})
}

func compareForSort(a, b string) int {
	if an, err := strconv.ParseFloat(a, 64); err == nil {
		if bn, err := strconv.ParseFloat(b, 64); err == nil {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// project builds a ResultNode from r per the select list: nil means the
// default projection (id, name, tags); ["*"] means every resolved
// field; otherwise exactly the named fields.
func project(r *row, selectFields []string) ResultNode {
	out := ResultNode{ID: r.id, Tags: r.tags}
	if r.name.Valid {
		out.Name = r.name.String
	}

	if len(selectFields) == 0 {
		return out
	}

	out.Fields = make(map[string][]string)
	if len(selectFields) == 1 && selectFields[0] == "*" {
		for k, v := range r.fieldValues {
			out.Fields[k] = v
		}
		return out
	}

	for _, f := range selectFields {
		if vals, ok := resolvedValues(f, r); ok {
			out.Fields[f] = vals
		}
	}
	return out
}
