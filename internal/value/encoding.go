package value

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Encode produces the canonical byte encoding of v: a type-tagged,
// length-prefixed sequence such that lexicographic byte order equals the
// Value order given by Compare (spec §4.6, §8 "Ordering law") for any two
// Values of the same tag. It is used both for storage keys (where
// prefix-free, order-preserving encoding is required so range scans return
// tuples in key order) and, via Decode, as a round-trip self-check of that
// property. Int and Float are the one place this is tag-scoped rather than
// global: each gets its own lossless order-preserving encoding, so an Int
// key never collides with another Int's and likewise for Float, but the two
// tags are not byte-comparable against each other — acceptable since a
// stored relation's column is always one declared type (spec §6 "Schema").
func Encode(v Value) []byte {
	buf := make([]byte, 0, 16)
	return appendValue(buf, v)
}

func appendValue(buf []byte, v Value) []byte {
	switch v.tag {
	case TagNull:
		return append(buf, byte(TagNull))
	case TagBool:
		b := byte(0)
		if v.b {
			b = 1
		}
		return append(buf, byte(TagBool), b)
	case TagInt:
		// Int gets its own order-preserving 64-bit encoding straight off
		// the raw int64 bits, rather than going through float64: Int is a
		// full 64-bit signed value (spec §3) but float64 only has a 53-bit
		// mantissa, so routing it through orderedFloatBits would both lose
		// precision on round-trip and collide two distinct large ints onto
		// the same storage key. The trade-off is that Int and Float no
		// longer share a byte-comparable encoding (a column holding both
		// would not sort cross-type by byte order), but every stored
		// relation's columns are single-typed (spec §6 "Schema"), so no
		// real key ever needs that cross-type comparison.
		buf = append(buf, byte(TagInt))
		return append(buf, orderedIntBits(v.i)...)
	case TagFloat:
		buf = append(buf, byte(TagFloat))
		return append(buf, orderedFloatBits(v.f)...)
	case TagString:
		return appendLenPrefixed(buf, byte(TagString+1), []byte(v.s))
	case TagBytes:
		return appendLenPrefixed(buf, byte(TagBytes+1), v.by)
	case TagUuid:
		buf = append(buf, byte(TagUuid+1))
		return append(buf, v.u[:]...)
	case TagList:
		return appendSeq(buf, byte(TagList+1), v.l)
	case TagTuple:
		return appendSeq(buf, byte(TagTuple+1), v.l)
	default:
		panic(fmt.Sprintf("value: unknown tag %d", v.tag))
	}
}

// orderedIntBits returns an 8-byte encoding of i such that unsigned
// byte-wise comparison matches int64 ordering: biasing the sign bit turns
// two's-complement order into unsigned order, and the transform is a
// lossless bijection on the full int64 range.
func orderedIntBits(i int64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, uint64(i)^(1<<63))
	return out
}

func decodeOrderedIntBits(b []byte) int64 {
	bits := binary.BigEndian.Uint64(b) ^ (1 << 63)
	return int64(bits)
}

// orderedFloatBits returns an 8-byte encoding of f such that unsigned
// byte-wise comparison matches IEEE-754 ordering (with NaN sorting highest,
// consistent with Compare). This is the standard "flip sign bit, or flip all
// bits for negatives" transform.
func orderedFloatBits(f float64) []byte {
	if math.IsNaN(f) {
		f = math.Inf(1)
	}
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, bits)
	return out
}

func appendLenPrefixed(buf []byte, tag byte, data []byte) []byte {
	buf = append(buf, tag)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}

func appendSeq(buf []byte, tag byte, elems []Value) []byte {
	buf = append(buf, tag)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(elems)))
	buf = append(buf, lenBuf[:]...)
	for _, e := range elems {
		buf = appendValue(buf, e)
	}
	return buf
}

// EncodeTuple concatenates the canonical encoding of each column, giving the
// engine-wide byte key used by storage.KV and by in-memory dedup sets.
func EncodeTuple(tuple []Value) []byte {
	buf := make([]byte, 0, 16*len(tuple))
	for _, v := range tuple {
		buf = appendValue(buf, v)
	}
	return buf
}

// Decode reads one Value from the front of buf and returns it along with the
// unconsumed remainder, inverting appendValue.
func Decode(buf []byte) (Value, []byte, error) {
	if len(buf) == 0 {
		return Value{}, nil, fmt.Errorf("value: empty buffer")
	}
	tag, rest := buf[0], buf[1:]
	switch tag {
	case byte(TagNull):
		return Null(), rest, nil
	case byte(TagBool):
		if len(rest) < 1 {
			return Value{}, nil, fmt.Errorf("value: truncated bool")
		}
		return Bool(rest[0] != 0), rest[1:], nil
	case byte(TagInt):
		if len(rest) < 8 {
			return Value{}, nil, fmt.Errorf("value: truncated int")
		}
		return Int(decodeOrderedIntBits(rest[:8])), rest[8:], nil
	case byte(TagFloat):
		if len(rest) < 8 {
			return Value{}, nil, fmt.Errorf("value: truncated float")
		}
		return Float(decodeOrderedFloatBits(rest[:8])), rest[8:], nil
	case byte(TagString + 1):
		s, rest, err := decodeLenPrefixed(rest)
		if err != nil {
			return Value{}, nil, err
		}
		return String(string(s)), rest, nil
	case byte(TagBytes + 1):
		b, rest, err := decodeLenPrefixed(rest)
		if err != nil {
			return Value{}, nil, err
		}
		return Bytes(b), rest, nil
	case byte(TagUuid + 1):
		if len(rest) < 16 {
			return Value{}, nil, fmt.Errorf("value: truncated uuid")
		}
		var u uuid.UUID
		copy(u[:], rest[:16])
		return UUID(u), rest[16:], nil
	case byte(TagList + 1):
		elems, rest, err := decodeSeq(rest)
		if err != nil {
			return Value{}, nil, err
		}
		return List(elems), rest, nil
	case byte(TagTuple + 1):
		elems, rest, err := decodeSeq(rest)
		if err != nil {
			return Value{}, nil, err
		}
		return Tuple(elems), rest, nil
	default:
		return Value{}, nil, fmt.Errorf("value: unknown tag byte %d", tag)
	}
}

// DecodeTuple decodes n consecutive Values from the front of buf, the
// inverse of EncodeTuple for a tuple of known arity (the arity a stored
// relation's Schema always supplies).
func DecodeTuple(buf []byte, n int) ([]Value, error) {
	out := make([]Value, 0, n)
	rest := buf
	for i := 0; i < n; i++ {
		v, r, err := Decode(rest)
		if err != nil {
			return nil, fmt.Errorf("value: decoding column %d: %w", i, err)
		}
		out = append(out, v)
		rest = r
	}
	return out, nil
}

func decodeOrderedFloatBits(b []byte) float64 {
	e := binary.BigEndian.Uint64(b)
	var bits uint64
	if e&(1<<63) != 0 {
		bits = e &^ (1 << 63)
	} else {
		bits = ^e
	}
	return math.Float64frombits(bits)
}

func decodeLenPrefixed(buf []byte) ([]byte, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("value: truncated length prefix")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint64(len(buf)) < uint64(n) {
		return nil, nil, fmt.Errorf("value: truncated payload")
	}
	return buf[:n], buf[n:], nil
}

func decodeSeq(buf []byte) ([]Value, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("value: truncated sequence length")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	rest := buf[4:]
	elems := make([]Value, 0, n)
	for i := uint32(0); i < n; i++ {
		v, r, err := Decode(rest)
		if err != nil {
			return nil, nil, err
		}
		elems = append(elems, v)
		rest = r
	}
	return elems, rest, nil
}
