package engine

import "github.com/cozodb/cozo/internal/storage"

// relationSource adapts one transaction plus the algorithm registry to
// plan.RelationSource, with an optional extra set of synthetic names that
// resolve as relations without touching storage — used for the `_new`/`_old`
// pseudo-relations a trigger clause sees (spec §4.7).
type relationSource struct {
	tx    storage.Txn
	algo  algoNamer
	extra map[string]bool
}

type algoNamer interface {
	Has(name string) bool
}

func (s *relationSource) HasRelation(name string) bool {
	if s.extra[name] {
		return true
	}
	if _, ok := s.tx.Schema(name); ok {
		return true
	}
	return false
}

func (s *relationSource) HasAlgorithm(name string) bool {
	return s.algo != nil && s.algo.Has(name)
}
