package eval

import "github.com/cozodb/cozo/internal/value"

// Row is one tuple of a Relation, in the column order its producer defines
// (schema key+value order for a stored relation, head-argument order for a
// computed rule).
type Row []value.Value

func rowKey(row Row) string { return string(value.EncodeTuple(row)) }

func rowsEqual(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Relation is a deduplicated set of tuples of fixed Arity — the shape every
// rule and stored relation produces once evaluated (spec §4.4 "union into
// the rule's relation; deduplicate").
type Relation struct {
	Arity int
	rows  map[string]Row
}

// NewRelation returns an empty Relation of the given column count.
func NewRelation(arity int) *Relation {
	return &Relation{Arity: arity, rows: map[string]Row{}}
}

// Add inserts row, reporting whether it was not already present.
func (r *Relation) Add(row Row) bool {
	key := rowKey(row)
	if _, exists := r.rows[key]; exists {
		return false
	}
	r.rows[key] = row
	return true
}

// ReplaceGroup upserts row, replacing any existing row that shares the same
// leading groupCols columns. It is used by aggregation-in-recursion, where a
// monotone aggregator's finalized value for a group can improve across
// fixpoint rounds and must overwrite rather than accumulate (spec §4.4
// "monotone aggregator ... may participate in a recursive SCC"). Reports
// whether the relation's contents changed.
func (r *Relation) ReplaceGroup(groupCols int, row Row) bool {
	prefix := rowKey(row[:groupCols])
	for k, existing := range r.rows {
		if rowKey(existing[:groupCols]) == prefix {
			if rowsEqual(existing, row) {
				return false
			}
			delete(r.rows, k)
			r.rows[rowKey(row)] = row
			return true
		}
	}
	r.rows[rowKey(row)] = row
	return true
}

// Rows returns every tuple currently in the relation, in no particular
// order (callers needing a stable order sort via internal/result).
func (r *Relation) Rows() []Row {
	out := make([]Row, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out
}

// Len reports the number of tuples in the relation.
func (r *Relation) Len() int { return len(r.rows) }

func unionRelations(a, b *Relation) *Relation {
	out := NewRelation(a.Arity)
	for _, row := range a.Rows() {
		out.Add(row)
	}
	for _, row := range b.Rows() {
		out.Add(row)
	}
	return out
}
