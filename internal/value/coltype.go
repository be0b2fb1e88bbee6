package value

import "fmt"

// ColKind identifies the base kind of a ColumnType, mirroring the grammar's
// type syntax: Any|Bool|Int|Float|String|Bytes|Uuid|[T;n?]|(T,...).
type ColKind int

const (
	KindAny ColKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindUuid
	KindList
	KindTuple
)

// ColumnType is a structural type used for schema conformance checking
// (spec §3, §8 "Schema conformance"). Nullable columns additionally accept
// TagNull.
type ColumnType struct {
	Kind     ColKind
	Nullable bool

	// ListElem and ListLen apply only when Kind == KindList. ListLen < 0
	// means unbounded (n omitted in the grammar).
	ListElem *ColumnType
	ListLen  int

	// TupleElems applies only when Kind == KindTuple.
	TupleElems []ColumnType
}

// Any is the wildcard column type: it accepts any Value.
var Any = ColumnType{Kind: KindAny}

// Check reports whether v is a structurally valid instance of t.
func (t ColumnType) Check(v Value) bool {
	if v.IsNull() {
		return t.Nullable || t.Kind == KindAny
	}
	switch t.Kind {
	case KindAny:
		return true
	case KindBool:
		return v.Tag() == TagBool
	case KindInt:
		return v.Tag() == TagInt
	case KindFloat:
		return v.Tag() == TagFloat || v.Tag() == TagInt
	case KindString:
		return v.Tag() == TagString
	case KindBytes:
		return v.Tag() == TagBytes
	case KindUuid:
		return v.Tag() == TagUuid
	case KindList:
		elems, ok := v.AsList()
		if !ok {
			return false
		}
		if t.ListLen >= 0 && len(elems) != t.ListLen {
			return false
		}
		if t.ListElem == nil {
			return true
		}
		for _, e := range elems {
			if !t.ListElem.Check(e) {
				return false
			}
		}
		return true
	case KindTuple:
		elems, ok := v.AsTuple()
		if !ok || len(elems) != len(t.TupleElems) {
			return false
		}
		for i, et := range t.TupleElems {
			if !et.Check(elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (t ColumnType) String() string {
	base := t.baseString()
	if t.Nullable {
		return base + "?"
	}
	return base
}

func (t ColumnType) baseString() string {
	switch t.Kind {
	case KindAny:
		return "Any"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindUuid:
		return "Uuid"
	case KindList:
		if t.ListLen >= 0 {
			return fmt.Sprintf("[%s;%d]", t.ListElem.String(), t.ListLen)
		}
		return fmt.Sprintf("[%s]", t.ListElem.String())
	case KindTuple:
		s := "("
		for i, e := range t.TupleElems {
			if i > 0 {
				s += ", "
			}
			s += e.String()
		}
		return s + ")"
	default:
		return "?"
	}
}

// ColumnSpec names one column of a stored relation's schema.
type ColumnSpec struct {
	Name string
	Type ColumnType
}

// Schema is a stored relation's column schema, split into key and value
// parts as specified by the `{k1, k2 => v1, v2}` syntax (spec §3, §6). Key
// columns form the relation's unique key and define on-disk order.
type Schema struct {
	Key   []ColumnSpec
	Value []ColumnSpec
}

// Arity is the total number of columns (key + value).
func (s Schema) Arity() int { return len(s.Key) + len(s.Value) }

// CheckTuple reports whether tuple conforms to the schema (spec §8 "Schema
// conformance").
func (s Schema) CheckTuple(tuple []Value) error {
	if len(tuple) != s.Arity() {
		return fmt.Errorf("expected %d columns, got %d", s.Arity(), len(tuple))
	}
	for i, spec := range s.Key {
		if !spec.Type.Check(tuple[i]) {
			return fmt.Errorf("key column %q: value %s does not match type %s", spec.Name, tuple[i], spec.Type)
		}
	}
	for i, spec := range s.Value {
		v := tuple[len(s.Key)+i]
		if !spec.Type.Check(v) {
			return fmt.Errorf("value column %q: value %s does not match type %s", spec.Name, v, spec.Type)
		}
	}
	return nil
}
