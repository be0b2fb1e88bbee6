package eval

import "github.com/cozodb/cozo/internal/value"

// Aggregator is a registered fold over the values one head position's
// aggregation form (`agg(var, ...)`) contributes across a group of matching
// tuples (spec §4.4 "registered by name with properties {commutative,
// idempotent, monotone, initial-value, combine, finalize}").
type Aggregator struct {
	Name       string
	Commutative bool
	Idempotent bool
	// Monotone aggregators may participate in a recursive SCC; non-monotone
	// ones are rejected there by the stratifier.
	Monotone bool

	Init     func() any
	Combine  func(state any, v value.Value, extra []value.Value) any
	Finalize func(state any) value.Value
}

// Aggregators is the built-in aggregator catalog.
var Aggregators = map[string]*Aggregator{}

func init() {
	register(&Aggregator{
		Name: "count", Commutative: true, Idempotent: false, Monotone: false,
		Init:     func() any { return int64(0) },
		Combine:  func(state any, v value.Value, extra []value.Value) any { return state.(int64) + 1 },
		Finalize: func(state any) value.Value { return value.Int(state.(int64)) },
	})
	register(&Aggregator{
		Name: "sum", Commutative: true, Idempotent: false, Monotone: false,
		Init: func() any { return 0.0 },
		Combine: func(state any, v value.Value, extra []value.Value) any {
			f, _ := v.AsFloat64()
			return state.(float64) + f
		},
		Finalize: func(state any) value.Value { return value.Float(state.(float64)) },
	})
	register(&Aggregator{
		Name: "min", Commutative: true, Idempotent: true, Monotone: true,
		Init: func() any { return (*value.Value)(nil) },
		Combine: func(state any, v value.Value, extra []value.Value) any {
			cur := state.(*value.Value)
			if cur == nil || value.Compare(v, *cur) < 0 {
				copied := v
				return &copied
			}
			return cur
		},
		Finalize: func(state any) value.Value {
			if cur := state.(*value.Value); cur != nil {
				return *cur
			}
			return value.Null()
		},
	})
	register(&Aggregator{
		Name: "max", Commutative: true, Idempotent: true, Monotone: true,
		Init: func() any { return (*value.Value)(nil) },
		Combine: func(state any, v value.Value, extra []value.Value) any {
			cur := state.(*value.Value)
			if cur == nil || value.Compare(v, *cur) > 0 {
				copied := v
				return &copied
			}
			return cur
		},
		Finalize: func(state any) value.Value {
			if cur := state.(*value.Value); cur != nil {
				return *cur
			}
			return value.Null()
		},
	})
	register(&Aggregator{
		// choice takes the first contributing value and ignores the rest,
		// which is trivially monotone: the fixpoint can only ever arrive at
		// the same choice once any tuple for the group exists.
		Name: "choice", Commutative: false, Idempotent: true, Monotone: true,
		Init: func() any { return (*value.Value)(nil) },
		Combine: func(state any, v value.Value, extra []value.Value) any {
			if cur := state.(*value.Value); cur != nil {
				return cur
			}
			copied := v
			return &copied
		},
		Finalize: func(state any) value.Value {
			if cur := state.(*value.Value); cur != nil {
				return *cur
			}
			return value.Null()
		},
	})
	register(&Aggregator{
		// shortest folds the same way as min, for the common "shortest
		// distance found so far" use inside a recursive path rule.
		Name: "shortest", Commutative: true, Idempotent: true, Monotone: true,
		Init:     Aggregators["min"].Init,
		Combine:  Aggregators["min"].Combine,
		Finalize: Aggregators["min"].Finalize,
	})
	register(&Aggregator{
		Name: "count_min", Commutative: true, Idempotent: true, Monotone: true,
		Init:     Aggregators["min"].Init,
		Combine:  Aggregators["min"].Combine,
		Finalize: Aggregators["min"].Finalize,
	})
	register(&Aggregator{
		Name: "collect", Commutative: false, Idempotent: false, Monotone: false,
		Init: func() any { return []value.Value{} },
		Combine: func(state any, v value.Value, extra []value.Value) any {
			return append(state.([]value.Value), v)
		},
		Finalize: func(state any) value.Value { return value.List(state.([]value.Value)) },
	})
	register(&Aggregator{
		Name: "collect_as_set", Commutative: true, Idempotent: true, Monotone: false,
		Init: func() any { return []value.Value{} },
		Combine: func(state any, v value.Value, extra []value.Value) any {
			elems := state.([]value.Value)
			for _, e := range elems {
				if value.Equal(e, v) {
					return elems
				}
			}
			return append(elems, v)
		},
		Finalize: func(state any) value.Value { return value.List(state.([]value.Value)) },
	})
}

func register(a *Aggregator) { Aggregators[a.Name] = a }
