package storage

import "github.com/cozodb/cozo/internal/value"

// EncodeKey produces the canonical storage key for a relation row's key
// columns. It is order-preserving (spec §4.6, §8): EncodeKey(a) is a byte
// prefix of EncodeKey(a, b, ...) for any extension, which is what lets Scan
// push a partially bound key down to the storage engine as a prefix match
// instead of a full-relation scan with a filter.
func EncodeKey(keyCols []value.Value) []byte {
	return value.EncodeTuple(keyCols)
}

// DecodeKey inverts EncodeKey given the relation's key arity.
func DecodeKey(buf []byte, arity int) ([]value.Value, error) {
	return value.DecodeTuple(buf, arity)
}
