package query

import (
	"strconv"
	"strings"
)

// evalContext carries the per-query state clause evaluation needs: the
// injected clock's current time, for relative-date resolution.
type evalContext struct {
	now int64 // epoch ms
}

// matchesWhere reports whether row satisfies every item in items
// (implicit AND across items; a Group is an OR across its clauses).
func matchesWhere(items []WhereItem, r *row, ctx evalContext) bool {
	for _, item := range items {
		switch it := item.(type) {
		case *Clause:
			if !matchesClause(it, r, ctx) {
				return false
			}
		case *Group:
			ok := false
			for _, c := range it.Clauses {
				if matchesClause(c, r, ctx) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		}
	}
	return true
}

// resolvedValues returns the stored value(s) for a clause's field
// reference against row, per the reserved-field and custom-field
// resolution rules, plus whether the field was present at all.
func resolvedValues(field string, r *row) (values []string, present bool) {
	name := strings.TrimPrefix(field, "fields.")
	switch strings.ToLower(name) {
	case "id":
		return []string{r.id}, true
	case "name":
		if r.name.Valid {
			return []string{r.name.String}, true
		}
		return nil, false
	case "created":
		if r.created.Valid {
			return []string{strconv.FormatInt(r.created.Int64, 10)}, true
		}
		return nil, false
	case "updated":
		if r.updated.Valid {
			return []string{strconv.FormatInt(r.updated.Int64, 10)}, true
		}
		return nil, false
	case "done_at", "doneat":
		if r.doneAt.Valid {
			return []string{strconv.FormatInt(r.doneAt.Int64, 10)}, true
		}
		return nil, false
	case "tags", "parent.tags":
		tags := r.tags
		if strings.ToLower(name) == "parent.tags" {
			tags = r.parentTags
		}
		if len(tags) == 0 {
			return nil, false
		}
		return tags, true
	case "parent.name":
		if r.parentName.Valid {
			return []string{r.parentName.String}, true
		}
		return nil, false
	}

	key := normalizeFieldKey(name)
	vals, ok := r.fieldValues[key]
	return vals, ok && len(vals) > 0
}

func normalizeFieldKey(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func matchesClause(c *Clause, r *row, ctx evalContext) bool {
	result := evalClause(c, r, ctx)
	if c.Negated {
		return !result
	}
	return result
}

func evalClause(c *Clause, r *row, ctx evalContext) bool {
	values, present := resolvedValues(c.Field, r)

	switch c.Op {
	case OpExists:
		return present
	case OpIsEmpty:
		return !present
	}

	if !present {
		return false
	}

	for _, v := range values {
		if compareOne(c.Op, v, c.Value, ctx) {
			return true
		}
	}
	return false
}

// compareOne compares one stored string value against the clause's
// literal, which may itself be an array (OR-of-equals semantics).
func compareOne(op Operator, stored string, value Value, ctx evalContext) bool {
	if value.Kind == ValueArray {
		for _, sub := range value.Array {
			if compareScalar(op, stored, sub, ctx) {
				return true
			}
		}
		return false
	}
	return compareScalar(op, stored, value, ctx)
}

func compareScalar(op Operator, stored string, value Value, ctx evalContext) bool {
	switch op {
	case OpContains:
		return strings.Contains(strings.ToLower(stored), strings.ToLower(valueString(value)))
	case OpEquals:
		if n, ok := numericCompare(stored, value, ctx); ok {
			return n == 0
		}
		return stored == valueString(value)
	case OpNotEquals:
		if n, ok := numericCompare(stored, value, ctx); ok {
			return n != 0
		}
		return stored != valueString(value)
	case OpLess, OpLessEq, OpGreater, OpGreaterEq:
		n, ok := numericCompare(stored, value, ctx)
		if !ok {
			// ISO-lexicographic fallback for date-like strings that
			// didn't parse as numbers.
			cmp := strings.Compare(stored, valueString(value))
			return applyCmp(op, cmp)
		}
		return applyCmp(op, n)
	default:
		return false
	}
}

func applyCmp(op Operator, cmp int) bool {
	switch op {
	case OpLess:
		return cmp < 0
	case OpLessEq:
		return cmp <= 0
	case OpGreater:
		return cmp > 0
	case OpGreaterEq:
		return cmp >= 0
	case OpEquals:
		return cmp == 0
	case OpNotEquals:
		return cmp != 0
	default:
		return false
	}
}

// numericCompare compares stored (an epoch-ms or plain number string)
// against value. Relative-date values resolve against ctx.now first.
// ok is false when either side isn't numeric, signalling the caller to
// fall back to lexicographic string comparison.
func numericCompare(stored string, value Value, ctx evalContext) (int, bool) {
	storedNum, err := strconv.ParseFloat(stored, 64)
	if err != nil {
		return 0, false
	}

	var target float64
	switch value.Kind {
	case ValueNumber:
		target = value.Num
	case ValueRelativeDate:
		ms, err := ResolveRelativeDate(value.Str, epochToTime(ctx.now))
		if err != nil {
			return 0, false
		}
		target = float64(ms)
	default:
		n, err := strconv.ParseFloat(value.Str, 64)
		if err != nil {
			return 0, false
		}
		target = n
	}

	switch {
	case storedNum < target:
		return -1, true
	case storedNum > target:
		return 1, true
	default:
		return 0, true
	}
}

func valueString(v Value) string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return v.Str
	case ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValueRelativeDate:
		return v.Str
	default:
		return ""
	}
}
