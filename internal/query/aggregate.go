package query

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/store"
)

// TimeBucket groups by calendar period over one of the node's date
// fields.
type TimeBucket struct {
	Period    string // day|week|month|quarter|year
	DateField string // created|updated
}

// GroupBy is either a plain field grouping or a TimeBucket grouping.
type GroupBy struct {
	Field string
	Time  *TimeBucket
}

// AggregateSpec is one aggregate function applied within each group.
type AggregateSpec struct {
	Fn    string // count, sum, avg, min, max
	Field string
	Alias string
}

// AggregateRequest extends a Query with grouping and aggregation.
type AggregateRequest struct {
	Query       *Query
	GroupBy     GroupBy
	GroupBy2    *GroupBy // second-level grouping, for nested counts
	Aggregates  []AggregateSpec
	ShowPercent bool
	Top         int
}

// AggregateGroup is one group's computed values, optionally with
// nested sub-groups when a second GroupBy level was requested.
type AggregateGroup struct {
	Key     string
	Count   int
	Percent float64
	Values  map[string]float64
	Sub     []AggregateGroup
}

// AggregateResult is the outcome of Aggregate: the group list plus
// whether Top truncation dropped any groups.
type AggregateResult struct {
	Groups    []AggregateGroup
	Truncated bool
}

// Aggregate runs req's query, groups the filtered rows, and computes
// each group's aggregate values. Percent is computed over the filtered
// total (not the store total). Top, if set, keeps only the N largest
// groups by count and reports Truncated when that drops any.
func Aggregate(ctx context.Context, db store.Queryer, svc *schema.Service, clock Clock, req *AggregateRequest) (*AggregateResult, error) {
	if clock == nil {
		clock = SystemClock{}
	}

	candidates, err := candidateNodes(db, svc, req.Query.Find)
	if err != nil {
		return nil, err
	}

	evalCtx := evalContext{now: clock.Now().UnixMilli()}

	var matched []*row
	for _, n := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := loadRow(db, n)
		if err != nil {
			return nil, err
		}
		if matchesWhere(req.Query.Where, r, evalCtx) {
			matched = append(matched, r)
		}
	}

	total := len(matched)
	groups := groupRows(matched, req.GroupBy)

	out := make([]AggregateGroup, 0, len(groups))
	for key, rows := range groups {
		g := AggregateGroup{Key: key, Count: len(rows), Values: computeAggregates(rows, req.Aggregates)}
		if req.ShowPercent && total > 0 {
			g.Percent = float64(len(rows)) / float64(total) * 100
		}
		if req.GroupBy2 != nil {
			sub := groupRows(rows, *req.GroupBy2)
			for subKey, subRows := range sub {
				sg := AggregateGroup{Key: subKey, Count: len(subRows), Values: computeAggregates(subRows, req.Aggregates)}
				if req.ShowPercent && len(rows) > 0 {
					sg.Percent = float64(len(subRows)) / float64(len(rows)) * 100
				}
				g.Sub = append(g.Sub, sg)
			}
			sort.Slice(g.Sub, func(i, j int) bool { return g.Sub[i].Key < g.Sub[j].Key })
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})

	result := &AggregateResult{Groups: out}
	if req.Top > 0 && len(out) > req.Top {
		result.Groups = out[:req.Top]
		result.Truncated = true
	}
	return result, nil
}

func groupRows(rows []*row, gb GroupBy) map[string][]*row {
	groups := make(map[string][]*row)
	for _, r := range rows {
		key := groupKey(r, gb)
		groups[key] = append(groups[key], r)
	}
	return groups
}

func groupKey(r *row, gb GroupBy) string {
	if gb.Time != nil {
		var ms int64
		switch gb.Time.DateField {
		case "updated":
			if r.updated.Valid {
				ms = r.updated.Int64
			}
		default:
			if r.created.Valid {
				ms = r.created.Int64
			}
		}
		return bucketKey(ms, gb.Time.Period)
	}

	vals, ok := resolvedValues(gb.Field, r)
	if !ok || len(vals) == 0 {
		return "(none)"
	}
	return vals[0]
}

func bucketKey(epochMs int64, period string) string {
	t := time.UnixMilli(epochMs).UTC()
	switch period {
	case "day":
		return t.Format("2006-01-02")
	case "week":
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case "month":
		return t.Format("2006-01")
	case "quarter":
		q := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", t.Year(), q)
	case "year":
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

func computeAggregates(rows []*row, specs []AggregateSpec) map[string]float64 {
	out := make(map[string]float64, len(specs))
	for _, spec := range specs {
		alias := spec.Alias
		if alias == "" {
			alias = spec.Fn
		}
		if spec.Fn == "count" {
			out[alias] = float64(len(rows))
			continue
		}
		nums := numericFieldValues(rows, spec.Field)
		if len(nums) == 0 {
			out[alias] = 0
			continue
		}
		switch spec.Fn {
		case "sum":
			out[alias] = sumFloats(nums)
		case "avg":
			out[alias] = sumFloats(nums) / float64(len(nums))
		case "min":
			out[alias] = minFloat(nums)
		case "max":
			out[alias] = maxFloat(nums)
		default:
			out[alias] = float64(len(rows))
		}
	}
	return out
}

func numericFieldValues(rows []*row, field string) []float64 {
	var out []float64
	for _, r := range rows {
		vals, ok := resolvedValues(field, r)
		if !ok {
			continue
		}
		for _, v := range vals {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}

func sumFloats(nums []float64) float64 {
	var s float64
	for _, n := range nums {
		s += n
	}
	return s
}

func minFloat(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

func maxFloat(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return m
}
