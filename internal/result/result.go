// Package result assembles a stratified evaluation's final relation into
// the ordered, bounded, and validated tuple list a query actually returns
// (spec §4.8 "result assembler").
package result

import (
	"sort"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/eval"
	"github.com/cozodb/cozo/internal/plan"
	"github.com/cozodb/cozo/internal/value"
)

// HeadNames returns r's head-position names in row-column order: a plain
// position's variable name, or an aggregate position's bound variable —
// the names `:sort` keys are written against.
func HeadNames(r *plan.Rule) []string {
	names := make([]string, len(r.Aggregations))
	gi := 0
	for i, agg := range r.Aggregations {
		if agg == nil {
			names[i] = r.HeadVars[gi]
			gi++
			continue
		}
		names[i] = agg.Var
	}
	return names
}

// Assemble applies, in order, `:sort`, `:offset`, `:limit`, then
// `:assert none|some` to rel's tuples (spec §4.8 "1. Sort ... 2. Apply
// :offset then :limit. 3. Check :assert none|some."). headNames resolves a
// sort key's variable name to its column position; `:timeout` is not
// handled here — the caller threads a context.Context deadline through the
// evaluator instead (spec §5).
func Assemble(rel *eval.Relation, headNames []string, opts plan.Options) ([]eval.Row, error) {
	rows := rel.Rows()

	if len(opts.SortKeys) > 0 {
		cols := make([]int, len(opts.SortKeys))
		for i, sk := range opts.SortKeys {
			pos := indexOf(headNames, sk.Var)
			if pos < 0 {
				return nil, cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "unknown variable %q in :sort", sk.Var)
			}
			cols[i] = pos
		}
		sort.SliceStable(rows, func(i, j int) bool {
			for k, sk := range opts.SortKeys {
				c := value.Compare(rows[i][cols[k]], rows[j][cols[k]])
				if c == 0 {
					continue
				}
				if sk.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if opts.HasOffset {
		if opts.Offset >= int64(len(rows)) {
			rows = rows[:0]
		} else {
			rows = rows[opts.Offset:]
		}
	}
	if opts.HasLimit && opts.Limit < int64(len(rows)) {
		rows = rows[:opts.Limit]
	}

	if opts.HasAssert {
		if opts.AssertSome && len(rows) == 0 {
			return nil, cozoerr.NewAssertionError("?", nil, "assert some: entry relation has no rows")
		}
		if !opts.AssertSome && len(rows) != 0 {
			return nil, cozoerr.NewAssertionError("?", tuplesToStrings(rows), "assert none: entry relation has %d rows", len(rows))
		}
	}

	return rows, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func tuplesToStrings(rows []eval.Row) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		s := ""
		for j, v := range row {
			if j > 0 {
				s += ", "
			}
			s += v.String()
		}
		out[i] = s
	}
	return out
}
