// Package value implements the tagged Value union that is the engine's only
// runtime datum: every column of every tuple, every expression result, and
// every storage key/value component is a Value. A single total order over
// Values (Compare) is the sole source of truth for in-memory sort and for
// storage key byte order, per the engine's design notes.
package value

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Tag identifies which variant of Value is populated. Tag order is also the
// tag-rank used by Compare for values of different tag classes: Null < Bool <
// Int/Float < String < Bytes < Uuid < List < Tuple.
type Tag int

const (
	TagNull Tag = iota
	TagBool
	TagInt
	TagFloat
	TagString
	TagBytes
	TagUuid
	TagList
	TagTuple
)

// numeric tags are compared to each other by numeric value regardless of
// exact tag, per spec §4.5 ("Numeric operators auto-promote Int→Float").
func (t Tag) rank() int {
	switch t {
	case TagInt, TagFloat:
		return int(TagInt)
	default:
		return int(t)
	}
}

// Value is an immutable tagged scalar. The zero Value is Null.
type Value struct {
	tag Tag
	b   bool
	i   int64
	f   float64
	s   string
	by  []byte
	u   uuid.UUID
	l   []Value
}

func Null() Value               { return Value{tag: TagNull} }
func Bool(b bool) Value         { return Value{tag: TagBool, b: b} }
func Int(i int64) Value         { return Value{tag: TagInt, i: i} }
func Float(f float64) Value     { return Value{tag: TagFloat, f: f} }
func String(s string) Value     { return Value{tag: TagString, s: s} }
func Bytes(b []byte) Value      { return Value{tag: TagBytes, by: append([]byte(nil), b...)} }
func UUID(u uuid.UUID) Value    { return Value{tag: TagUuid, u: u} }
func List(vs []Value) Value     { return Value{tag: TagList, l: vs} }
func Tuple(vs []Value) Value    { return Value{tag: TagTuple, l: vs} }

func (v Value) Tag() Tag { return v.tag }
func (v Value) IsNull() bool { return v.tag == TagNull }

func (v Value) AsBool() (bool, bool)         { return v.b, v.tag == TagBool }
func (v Value) AsInt() (int64, bool)         { return v.i, v.tag == TagInt }
func (v Value) AsFloat() (float64, bool)     { return v.f, v.tag == TagFloat }
func (v Value) AsString() (string, bool)     { return v.s, v.tag == TagString }
func (v Value) AsBytes() ([]byte, bool)      { return v.by, v.tag == TagBytes }
func (v Value) AsUUID() (uuid.UUID, bool)    { return v.u, v.tag == TagUuid }
func (v Value) AsList() ([]Value, bool)      { return v.l, v.tag == TagList }
func (v Value) AsTuple() ([]Value, bool)     { return v.l, v.tag == TagTuple }

// AsFloat64 coerces Int or Float to float64, for numeric operators.
func (v Value) AsFloat64() (float64, bool) {
	switch v.tag {
	case TagInt:
		return float64(v.i), true
	case TagFloat:
		return v.f, true
	default:
		return 0, false
	}
}

func (v Value) String() string {
	switch v.tag {
	case TagNull:
		return "null"
	case TagBool:
		return fmt.Sprintf("%t", v.b)
	case TagInt:
		return fmt.Sprintf("%d", v.i)
	case TagFloat:
		return formatFloat(v.f)
	case TagString:
		return v.s
	case TagBytes:
		return fmt.Sprintf("b\"%x\"", v.by)
	case TagUuid:
		return v.u.String()
	case TagList:
		return joinSeq("[", "]", v.l)
	case TagTuple:
		return joinSeq("(", ")", v.l)
	default:
		return "<invalid>"
	}
}

func joinSeq(open, close string, vs []Value) string {
	parts := make([]string, len(vs))
	for i, e := range vs {
		parts[i] = e.String()
	}
	return open + strings.Join(parts, ", ") + close
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return fmt.Sprintf("%g", f)
}

// Compare implements the engine-wide total order. It returns -1, 0, or 1.
// NaN is ordered as the greatest Float, per spec §4.5, so that the order is
// total (reflexive, antisymmetric, transitive) even though IEEE-754
// comparison of NaN is not.
func Compare(a, b Value) int {
	ra, rb := a.tag.rank(), b.tag.rank()
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch a.tag {
	case TagNull:
		return 0
	case TagBool:
		return compareBool(a.b, b.b)
	case TagInt, TagFloat:
		return compareNumeric(a, b)
	case TagString:
		return strings.Compare(a.s, b.s)
	case TagBytes:
		return compareBytes(a.by, b.by)
	case TagUuid:
		return compareBytes(a.u[:], b.u[:])
	case TagList, TagTuple:
		return compareSeq(a.l, b.l)
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

// compareNumeric handles mixed Int/Float comparison, with NaN collating as
// the greatest value in its equivalence class (spec §3, §4.5).
func compareNumeric(a, b Value) int {
	if a.tag == TagInt && b.tag == TagInt {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	}
	af, aIsFloat := a.AsFloat()
	_ = aIsFloat
	bf, _ := b.AsFloat()

	var afv, bfv float64
	var aNaN, bNaN bool
	if a.tag == TagFloat {
		afv = af
		aNaN = math.IsNaN(af)
	} else {
		afv = float64(a.i)
	}
	if b.tag == TagFloat {
		bfv = bf
		bNaN = math.IsNaN(bf)
	} else {
		bfv = float64(b.i)
	}

	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case afv < bfv:
		return -1
	case afv > bfv:
		return 1
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareSeq(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b compare equal under the total order.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// Less reports whether a sorts before b under the total order.
func Less(a, b Value) bool { return Compare(a, b) < 0 }
