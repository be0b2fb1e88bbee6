// Package cozoerr defines the error kinds produced by the engine: Parse,
// Compile, Runtime, Assertion, and Schema. Each kind is a distinct Go type so
// callers can discriminate with errors.As, and each carries the
// source-position information needed to report a useful diagnostic.
package cozoerr

import (
	"fmt"

	"github.com/rs/zerolog"
)

// SourcePosition is a 1-indexed line/column position in script source text.
type SourcePosition struct {
	Line   int
	Column int
}

func (p SourcePosition) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// HasMetadata is implemented by errors that can contribute structured
// key/value metadata to an API-facing error response.
type HasMetadata interface {
	DetailsMetadata() map[string]string
}

// ParseError is returned by the lexer or parser. It carries the expected set
// of tokens or productions at the point of failure, the way a recursive
// descent parser's error recovery does.
type ParseError struct {
	error
	Pos      SourcePosition
	Expected []string
}

func NewParseError(pos SourcePosition, expected []string, format string, args ...any) *ParseError {
	return &ParseError{fmt.Errorf(format, args...), pos, expected}
}

func (e *ParseError) Unwrap() error { return e.error }

func (e *ParseError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Err(e.error).Str("pos", e.Pos.String()).Strs("expected", e.Expected)
}

func (e *ParseError) DetailsMetadata() map[string]string {
	return map[string]string{"position": e.Pos.String()}
}

// CompileErrorKind enumerates the sub-kinds of compile-time failure named in
// the spec: unresolved variable, arity mismatch, unknown function/algorithm,
// type mismatch, stratification violation, unbound head variable.
type CompileErrorKind int

const (
	UnresolvedVariable CompileErrorKind = iota
	ArityMismatch
	UnknownFunction
	UnknownAlgorithm
	TypeMismatch
	StratificationViolation
	UnboundHeadVariable
	NoEvaluableOrder
)

func (k CompileErrorKind) String() string {
	switch k {
	case UnresolvedVariable:
		return "UnresolvedVariable"
	case ArityMismatch:
		return "ArityMismatch"
	case UnknownFunction:
		return "UnknownFunction"
	case UnknownAlgorithm:
		return "UnknownAlgorithm"
	case TypeMismatch:
		return "TypeMismatch"
	case StratificationViolation:
		return "StratificationViolation"
	case UnboundHeadVariable:
		return "UnboundHeadVariable"
	case NoEvaluableOrder:
		return "NoEvaluableOrder"
	default:
		return "Unknown"
	}
}

// CompileError is raised by the compiler or stratifier.
type CompileError struct {
	error
	Kind  CompileErrorKind
	Rule  string
	Pos   SourcePosition
	Extra map[string]string
}

func NewCompileError(kind CompileErrorKind, rule string, pos SourcePosition, format string, args ...any) *CompileError {
	return &CompileError{fmt.Errorf(format, args...), kind, rule, pos, nil}
}

func (e *CompileError) Unwrap() error { return e.error }

func (e *CompileError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Err(e.error).Str("kind", e.Kind.String()).Str("rule", e.Rule).Str("pos", e.Pos.String())
}

func (e *CompileError) DetailsMetadata() map[string]string {
	md := map[string]string{"kind": e.Kind.String(), "rule": e.Rule}
	for k, v := range e.Extra {
		md[k] = v
	}
	return md
}

// RuntimeErrorKind enumerates the sub-kinds of evaluation-time failure.
type RuntimeErrorKind int

const (
	StorageIO RuntimeErrorKind = iota
	TypeCoercion
	DivisionByZero
	RegexFailure
	AlgorithmFailure
	Cancellation
	Timeout
)

func (k RuntimeErrorKind) String() string {
	switch k {
	case StorageIO:
		return "StorageIO"
	case TypeCoercion:
		return "TypeCoercion"
	case DivisionByZero:
		return "DivisionByZero"
	case RegexFailure:
		return "RegexFailure"
	case AlgorithmFailure:
		return "AlgorithmFailure"
	case Cancellation:
		return "Cancellation"
	case Timeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// RuntimeError is raised during evaluation, storage access, or algorithm
// invocation.
type RuntimeError struct {
	error
	Kind RuntimeErrorKind
}

func NewRuntimeError(kind RuntimeErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{fmt.Errorf(format, args...), kind}
}

func (e *RuntimeError) Unwrap() error { return e.error }

func (e *RuntimeError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Err(e.error).Str("kind", e.Kind.String())
}

func (e *RuntimeError) DetailsMetadata() map[string]string {
	return map[string]string{"kind": e.Kind.String()}
}

// AssertionError is raised by :assert, :ensure, or :ensure_not, and reports
// the offending tuples in their string form via Tuples.
type AssertionError struct {
	error
	Relation string
	Tuples   []string
}

func NewAssertionError(relation string, tuples []string, format string, args ...any) *AssertionError {
	return &AssertionError{fmt.Errorf(format, args...), relation, tuples}
}

func (e *AssertionError) Unwrap() error { return e.error }

func (e *AssertionError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Err(e.error).Str("relation", e.Relation).Strs("tuples", e.Tuples)
}

func (e *AssertionError) DetailsMetadata() map[string]string {
	return map[string]string{"relation": e.Relation}
}

// SchemaErrorKind enumerates the sub-kinds of schema-mutation failure.
type SchemaErrorKind int

const (
	CreateExists SchemaErrorKind = iota
	ReplaceInUse
	RenameConflict
	UnknownRelation
	AccessDenied
)

func (k SchemaErrorKind) String() string {
	switch k {
	case CreateExists:
		return "CreateExists"
	case ReplaceInUse:
		return "ReplaceInUse"
	case RenameConflict:
		return "RenameConflict"
	case UnknownRelation:
		return "UnknownRelation"
	case AccessDenied:
		return "AccessDenied"
	default:
		return "Unknown"
	}
}

// SchemaError is raised by :create, :replace, rename, or remove.
type SchemaError struct {
	error
	Kind     SchemaErrorKind
	Relation string
}

func NewSchemaError(kind SchemaErrorKind, relation string, format string, args ...any) *SchemaError {
	return &SchemaError{fmt.Errorf(format, args...), kind, relation}
}

func (e *SchemaError) Unwrap() error { return e.error }

func (e *SchemaError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Err(e.error).Str("kind", e.Kind.String()).Str("relation", e.Relation)
}

func (e *SchemaError) DetailsMetadata() map[string]string {
	return map[string]string{"kind": e.Kind.String(), "relation": e.Relation}
}
