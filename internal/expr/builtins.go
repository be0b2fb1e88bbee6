package expr

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/value"
)

// Builtin is one entry in the function catalog (spec §4.2 "fixed catalog
// of built-in functions").
type Builtin struct {
	Name     string
	MinArity int
	MaxArity int // -1 for variadic
	Fn       func(args []value.Value) (value.Value, error)
}

// Builtins is the catalog consulted by Compile to resolve ast.Call nodes.
var Builtins = map[string]*Builtin{}

func register(b *Builtin) { Builtins[b.Name] = b }

func init() {
	registerMath()
	registerString()
	registerList()
	registerTypeCheck()
	registerHash()
	registerMisc()
}

func typeErr(fn string, v value.Value) error {
	return cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "%s: unexpected argument type for %s", fn, v.String())
}

func wantFloat(fn string, v value.Value) (float64, error) {
	if f, ok := v.AsFloat64(); ok {
		return f, nil
	}
	return 0, typeErr(fn, v)
}

func wantString(fn string, v value.Value) (string, error) {
	if s, ok := v.AsString(); ok {
		return s, nil
	}
	return "", typeErr(fn, v)
}

func registerMath() {
	register(&Builtin{"abs", 1, 1, func(a []value.Value) (value.Value, error) {
		if i, ok := a[0].AsInt(); ok {
			if i < 0 {
				i = -i
			}
			return value.Int(i), nil
		}
		f, err := wantFloat("abs", a[0])
		if err != nil {
			return value.Null(), err
		}
		if f < 0 {
			f = -f
		}
		return value.Float(f), nil
	}})

	register(&Builtin{"signum", 1, 1, func(a []value.Value) (value.Value, error) {
		f, err := wantFloat("signum", a[0])
		if err != nil {
			return value.Null(), err
		}
		switch {
		case f > 0:
			return value.Float(1), nil
		case f < 0:
			return value.Float(-1), nil
		default:
			return value.Float(0), nil
		}
	}})

	register(&Builtin{"min", 1, -1, func(a []value.Value) (value.Value, error) {
		best := a[0]
		for _, v := range a[1:] {
			if value.Compare(v, best) < 0 {
				best = v
			}
		}
		return best, nil
	}})

	register(&Builtin{"max", 1, -1, func(a []value.Value) (value.Value, error) {
		best := a[0]
		for _, v := range a[1:] {
			if value.Compare(v, best) > 0 {
				best = v
			}
		}
		return best, nil
	}})

	register(&Builtin{"floor", 1, 1, floatFn("floor", floorF)})
	register(&Builtin{"ceil", 1, 1, floatFn("ceil", ceilF)})
	register(&Builtin{"round", 1, 1, floatFn("round", roundF)})
	register(&Builtin{"sqrt", 1, 1, floatFn("sqrt", sqrtF)})
}

func floorF(f float64) float64 { return math.Floor(f) }
func ceilF(f float64) float64  { return math.Ceil(f) }
func roundF(f float64) float64 { return math.Round(f) }
func sqrtF(f float64) float64  { return math.Sqrt(f) }

func floatFn(name string, f func(float64) float64) func([]value.Value) (value.Value, error) {
	return func(a []value.Value) (value.Value, error) {
		v, err := wantFloat(name, a[0])
		if err != nil {
			return value.Null(), err
		}
		return value.Float(f(v)), nil
	}
}

func registerString() {
	register(&Builtin{"length", 1, 1, func(a []value.Value) (value.Value, error) {
		if s, ok := a[0].AsString(); ok {
			return value.Int(int64(len([]rune(s)))), nil
		}
		if l, ok := a[0].AsList(); ok {
			return value.Int(int64(len(l))), nil
		}
		if b, ok := a[0].AsBytes(); ok {
			return value.Int(int64(len(b))), nil
		}
		return value.Null(), typeErr("length", a[0])
	}})

	register(&Builtin{"lowercase", 1, 1, strFn(strings.ToLower)})
	register(&Builtin{"uppercase", 1, 1, strFn(strings.ToUpper)})
	register(&Builtin{"trim", 1, 1, strFn(strings.TrimSpace)})

	register(&Builtin{"starts_with", 2, 2, func(a []value.Value) (value.Value, error) {
		s, err := wantString("starts_with", a[0])
		if err != nil {
			return value.Null(), err
		}
		pre, err := wantString("starts_with", a[1])
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(strings.HasPrefix(s, pre)), nil
	}})

	register(&Builtin{"ends_with", 2, 2, func(a []value.Value) (value.Value, error) {
		s, err := wantString("ends_with", a[0])
		if err != nil {
			return value.Null(), err
		}
		suf, err := wantString("ends_with", a[1])
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(strings.HasSuffix(s, suf)), nil
	}})

	register(&Builtin{"str_includes", 2, 2, func(a []value.Value) (value.Value, error) {
		s, err := wantString("str_includes", a[0])
		if err != nil {
			return value.Null(), err
		}
		sub, err := wantString("str_includes", a[1])
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(strings.Contains(s, sub)), nil
	}})

	register(&Builtin{"regex_matches", 2, 2, func(a []value.Value) (value.Value, error) {
		s, err := wantString("regex_matches", a[0])
		if err != nil {
			return value.Null(), err
		}
		pat, err := wantString("regex_matches", a[1])
		if err != nil {
			return value.Null(), err
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return value.Null(), cozoerr.NewRuntimeError(cozoerr.RegexFailure, "invalid regex %q: %v", pat, err)
		}
		return value.Bool(re.MatchString(s)), nil
	}})

	register(&Builtin{"regex_extract", 2, 2, func(a []value.Value) (value.Value, error) {
		s, err := wantString("regex_extract", a[0])
		if err != nil {
			return value.Null(), err
		}
		pat, err := wantString("regex_extract", a[1])
		if err != nil {
			return value.Null(), err
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return value.Null(), cozoerr.NewRuntimeError(cozoerr.RegexFailure, "invalid regex %q: %v", pat, err)
		}
		matches := re.FindAllString(s, -1)
		out := make([]value.Value, len(matches))
		for i, m := range matches {
			out[i] = value.String(m)
		}
		return value.List(out), nil
	}})

	register(&Builtin{"concat", 1, -1, func(a []value.Value) (value.Value, error) {
		var b strings.Builder
		for _, v := range a {
			s, err := wantString("concat", v)
			if err != nil {
				return value.Null(), err
			}
			b.WriteString(s)
		}
		return value.String(b.String()), nil
	}})

	register(&Builtin{"to_string", 1, 1, func(a []value.Value) (value.Value, error) {
		return value.String(a[0].String()), nil
	}})

	register(&Builtin{"parse_int", 1, 1, func(a []value.Value) (value.Value, error) {
		s, err := wantString("parse_int", a[0])
		if err != nil {
			return value.Null(), err
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return value.Null(), cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "cannot parse %q as integer", s)
		}
		return value.Int(i), nil
	}})

	register(&Builtin{"parse_float", 1, 1, func(a []value.Value) (value.Value, error) {
		s, err := wantString("parse_float", a[0])
		if err != nil {
			return value.Null(), err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return value.Null(), cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "cannot parse %q as float", s)
		}
		return value.Float(f), nil
	}})
}

func strFn(f func(string) string) func([]value.Value) (value.Value, error) {
	return func(a []value.Value) (value.Value, error) {
		s, err := wantString("", a[0])
		if err != nil {
			return value.Null(), err
		}
		return value.String(f(s)), nil
	}
}

func registerList() {
	register(&Builtin{"list_len", 1, 1, func(a []value.Value) (value.Value, error) {
		l, ok := a[0].AsList()
		if !ok {
			return value.Null(), typeErr("list_len", a[0])
		}
		return value.Int(int64(len(l))), nil
	}})

	register(&Builtin{"list_get", 2, 2, func(a []value.Value) (value.Value, error) {
		l, ok := a[0].AsList()
		if !ok {
			return value.Null(), typeErr("list_get", a[0])
		}
		idx, ok := a[1].AsInt()
		if !ok {
			return value.Null(), typeErr("list_get", a[1])
		}
		if idx < 0 || idx >= int64(len(l)) {
			return value.Null(), cozoerr.NewRuntimeError(cozoerr.TypeCoercion, "list index %d out of range", idx)
		}
		return l[idx], nil
	}})

	register(&Builtin{"is_in", 2, 2, func(a []value.Value) (value.Value, error) {
		l, ok := a[1].AsList()
		if !ok {
			return value.Null(), typeErr("is_in", a[1])
		}
		for _, v := range l {
			if value.Equal(a[0], v) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	}})

	register(&Builtin{"list_append", 2, 2, func(a []value.Value) (value.Value, error) {
		l, ok := a[0].AsList()
		if !ok {
			return value.Null(), typeErr("list_append", a[0])
		}
		out := append(append([]value.Value(nil), l...), a[1])
		return value.List(out), nil
	}})
}

func registerTypeCheck() {
	register(&Builtin{"is_null", 1, 1, func(a []value.Value) (value.Value, error) { return value.Bool(a[0].IsNull()), nil }})
	register(&Builtin{"is_int", 1, 1, tagCheck(value.TagInt)})
	register(&Builtin{"is_float", 1, 1, tagCheck(value.TagFloat)})
	register(&Builtin{"is_string", 1, 1, tagCheck(value.TagString)})
	register(&Builtin{"is_list", 1, 1, tagCheck(value.TagList)})
	register(&Builtin{"is_bytes", 1, 1, tagCheck(value.TagBytes)})
	register(&Builtin{"is_uuid", 1, 1, tagCheck(value.TagUuid)})
}

func tagCheck(t value.Tag) func([]value.Value) (value.Value, error) {
	return func(a []value.Value) (value.Value, error) { return value.Bool(a[0].Tag() == t), nil }
}

func registerHash() {
	register(&Builtin{"xxhash", 1, 1, func(a []value.Value) (value.Value, error) {
		return value.Int(int64(xxhash.Sum64(encodeForHash(a[0])))), nil
	}})
	register(&Builtin{"md5", 1, 1, digestFn(md5.Sum)})
	register(&Builtin{"sha1", 1, 1, digestFn20(sha1.Sum)})
	register(&Builtin{"sha256", 1, 1, digestFn32(sha256.Sum256)})

	register(&Builtin{"uuid", 0, 0, func(a []value.Value) (value.Value, error) {
		return value.UUID(uuid.New()), nil
	}})
}

func encodeForHash(v value.Value) []byte { return value.Encode(v) }

func digestFn(f func([]byte) [16]byte) func([]value.Value) (value.Value, error) {
	return func(a []value.Value) (value.Value, error) {
		sum := f(encodeForHash(a[0]))
		return value.Bytes(sum[:]), nil
	}
}

func digestFn20(f func([]byte) [20]byte) func([]value.Value) (value.Value, error) {
	return func(a []value.Value) (value.Value, error) {
		sum := f(encodeForHash(a[0]))
		return value.Bytes(sum[:]), nil
	}
}

func digestFn32(f func([]byte) [32]byte) func([]value.Value) (value.Value, error) {
	return func(a []value.Value) (value.Value, error) {
		sum := f(encodeForHash(a[0]))
		return value.Bytes(sum[:]), nil
	}
}

func registerMisc() {
	register(&Builtin{"coalesce", 1, -1, func(a []value.Value) (value.Value, error) {
		for _, v := range a {
			if !v.IsNull() {
				return v, nil
			}
		}
		return value.Null(), nil
	}})
}
