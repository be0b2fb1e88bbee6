// Package expr compiles and evaluates CozoScript expression ASTs (spec
// §4.2 "Expression compilation"), following the environment/compile/eval
// structuring of the teacher's pkg/caveats package — without reusing its
// CEL backend, since CozoScript's operator grammar and Value lattice
// (Bytes, Uuid, ground tuples, the `++` operator) don't map onto CEL's
// fixed type model without re-deriving most of those semantics as CEL
// extensions (see DESIGN.md).
package expr

import (
	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/value"
)

// Env is the evaluation environment for one expression: the variable
// bindings produced by earlier atoms in the rule body, plus the script's
// late-bound `$name` parameters.
type Env struct {
	Vars   map[string]value.Value
	Params map[string]value.Value
}

// NewEnv returns an empty evaluation environment.
func NewEnv(params map[string]value.Value) *Env {
	return &Env{Vars: map[string]value.Value{}, Params: params}
}

// Bind returns a derived environment with name bound to v, leaving the
// receiver unmodified (evaluation fans out across disjuncts that must not
// see each other's bindings).
func (e *Env) Bind(name string, v value.Value) *Env {
	vars := make(map[string]value.Value, len(e.Vars)+1)
	for k, val := range e.Vars {
		vars[k] = val
	}
	vars[name] = v
	return &Env{Vars: vars, Params: e.Params}
}

func (e *Env) lookupVar(name string) (value.Value, bool) {
	v, ok := e.Vars[name]
	return v, ok
}

func (e *Env) lookupParam(name string) (value.Value, error) {
	v, ok := e.Params[name]
	if !ok {
		return value.Null(), cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "undefined parameter $%s", name)
	}
	return v, nil
}
