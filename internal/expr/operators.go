package expr

import (
	"math"

	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/value"
)

func negate(v value.Value) (value.Value, error) {
	if i, ok := v.AsInt(); ok {
		return value.Int(-i), nil
	}
	if f, ok := v.AsFloat(); ok {
		return value.Float(-f), nil
	}
	return value.Null(), typeErr("-", v)
}

func not(v value.Value) (value.Value, error) {
	b, ok := v.AsBool()
	if !ok {
		return value.Null(), typeErr("!", v)
	}
	return value.Bool(!b), nil
}

// numericBinary applies an integer-preserving arithmetic operator: if both
// operands are Int the result stays Int, otherwise both are coerced to
// Float (spec §4.2 arithmetic).
func numericBinary(name string, x, y value.Value, intOp func(a, b int64) (int64, error), floatOp func(a, b float64) float64) (value.Value, error) {
	xi, xIsInt := x.AsInt()
	yi, yIsInt := y.AsInt()
	if xIsInt && yIsInt && intOp != nil {
		r, err := intOp(xi, yi)
		if err != nil {
			return value.Null(), err
		}
		return value.Int(r), nil
	}
	xf, ok := x.AsFloat64()
	if !ok {
		return value.Null(), typeErr(name, x)
	}
	yf, ok := y.AsFloat64()
	if !ok {
		return value.Null(), typeErr(name, y)
	}
	return value.Float(floatOp(xf, yf)), nil
}

func add(x, y value.Value) (value.Value, error) {
	return numericBinary("+", x, y, func(a, b int64) (int64, error) { return a + b, nil }, func(a, b float64) float64 { return a + b })
}

func sub(x, y value.Value) (value.Value, error) {
	return numericBinary("-", x, y, func(a, b int64) (int64, error) { return a - b, nil }, func(a, b float64) float64 { return a - b })
}

func mul(x, y value.Value) (value.Value, error) {
	return numericBinary("*", x, y, func(a, b int64) (int64, error) { return a * b, nil }, func(a, b float64) float64 { return a * b })
}

func div(x, y value.Value) (value.Value, error) {
	// Division always produces Float, per the usual Datalog-engine
	// convention of keeping `/` exact-free; integer division is not
	// separately named in the spec's operator table. A zero divisor is
	// only an error for Int/Int (spec §4.5); on floats it yields ±Inf/NaN
	// per IEEE, so the zero check only fires when both operands were Int.
	_, xIsInt := x.AsInt()
	_, yIsInt := y.AsInt()
	xf, ok := x.AsFloat64()
	if !ok {
		return value.Null(), typeErr("/", x)
	}
	yf, ok := y.AsFloat64()
	if !ok {
		return value.Null(), typeErr("/", y)
	}
	if xIsInt && yIsInt && yf == 0 {
		return value.Null(), cozoerr.NewRuntimeError(cozoerr.DivisionByZero, "division by zero")
	}
	return value.Float(xf / yf), nil
}

func mod(x, y value.Value) (value.Value, error) {
	return numericBinary("%", x, y, func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, cozoerr.NewRuntimeError(cozoerr.DivisionByZero, "modulo by zero")
		}
		return a % b, nil
	}, math.Mod)
}

func pow(x, y value.Value) (value.Value, error) {
	xf, ok := x.AsFloat64()
	if !ok {
		return value.Null(), typeErr("^", x)
	}
	yf, ok := y.AsFloat64()
	if !ok {
		return value.Null(), typeErr("^", y)
	}
	return value.Float(math.Pow(xf, yf)), nil
}

func concat(x, y value.Value) (value.Value, error) {
	if xs, ok := x.AsString(); ok {
		if ys, ok := y.AsString(); ok {
			return value.String(xs + ys), nil
		}
		return value.Null(), typeErr("++", y)
	}
	if xb, ok := x.AsBytes(); ok {
		if yb, ok := y.AsBytes(); ok {
			return value.Bytes(append(append([]byte(nil), xb...), yb...)), nil
		}
		return value.Null(), typeErr("++", y)
	}
	if xl, ok := x.AsList(); ok {
		if yl, ok := y.AsList(); ok {
			return value.List(append(append([]value.Value(nil), xl...), yl...)), nil
		}
		return value.Null(), typeErr("++", y)
	}
	return value.Null(), typeErr("++", x)
}

func cmp(op string, x, y value.Value) (value.Value, error) {
	c := value.Compare(x, y)
	switch op {
	case "==":
		return value.Bool(c == 0), nil
	case "!=":
		return value.Bool(c != 0), nil
	case ">":
		return value.Bool(c > 0), nil
	case "<":
		return value.Bool(c < 0), nil
	case ">=":
		return value.Bool(c >= 0), nil
	case "<=":
		return value.Bool(c <= 0), nil
	}
	return value.Null(), typeErr(op, x)
}
