package memkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozodb/cozo/internal/value"
)

func schemaOf(keyTypes, valTypes int) value.Schema {
	s := value.Schema{}
	for i := 0; i < keyTypes; i++ {
		s.Key = append(s.Key, value.ColumnSpec{Name: "k", Type: value.Any})
	}
	for i := 0; i < valTypes; i++ {
		s.Value = append(s.Value, value.ColumnSpec{Name: "v", Type: value.Any})
	}
	return s
}

func TestCreateGetPutDelete(t *testing.T) {
	store := New()
	tx, err := store.Begin(true)
	require.NoError(t, err)

	require.NoError(t, tx.Create("edge", schemaOf(2, 0)))

	key := []value.Value{value.String("a"), value.String("b")}
	require.NoError(t, tx.Put("edge", key, nil))

	val, found, err := tx.Get("edge", key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, val)

	require.NoError(t, tx.Delete("edge", key))
	_, found, err = tx.Get("edge", key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, tx.Commit())
}

func TestCreateAlreadyExistsFails(t *testing.T) {
	store := New()
	tx, err := store.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Create("edge", schemaOf(2, 0)))
	err = tx.Create("edge", schemaOf(2, 0))
	require.Error(t, err)
}

func TestScanOrdersByKeyAndHonorsPrefix(t *testing.T) {
	store := New()
	tx, err := store.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Create("edge", schemaOf(2, 0)))

	rows := [][2]string{{"a", "z"}, {"a", "y"}, {"b", "x"}}
	for _, r := range rows {
		key := []value.Value{value.String(r[0]), value.String(r[1])}
		require.NoError(t, tx.Put("edge", key, nil))
	}

	it, err := tx.Scan("edge", []value.Value{value.String("a")})
	require.NoError(t, err)
	defer it.Close()

	var seen []string
	for it.Next() {
		k := it.Key()
		seen = append(seen, k[1].String())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"y", "z"}, seen)
}

func TestRenameAndDrop(t *testing.T) {
	store := New()
	tx, err := store.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Create("old", schemaOf(1, 0)))
	require.NoError(t, tx.Rename("old", "new"))

	_, ok := tx.Schema("old")
	assert.False(t, ok)
	_, ok = tx.Schema("new")
	assert.True(t, ok)

	require.NoError(t, tx.Drop("new"))
	_, ok = tx.Schema("new")
	assert.False(t, ok)
}

func TestRenameConflictFails(t *testing.T) {
	store := New()
	tx, err := store.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Create("a", schemaOf(1, 0)))
	require.NoError(t, tx.Create("b", schemaOf(1, 0)))
	err = tx.Rename("a", "b")
	require.Error(t, err)
}

func TestListRelations(t *testing.T) {
	store := New()
	tx, err := store.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Create("a", schemaOf(1, 0)))
	require.NoError(t, tx.Create("b", schemaOf(1, 0)))
	assert.ElementsMatch(t, []string{"a", "b"}, tx.ListRelations())
}

func TestGetUnknownRelationFails(t *testing.T) {
	store := New()
	tx, err := store.Begin(false)
	require.NoError(t, err)
	_, _, err = tx.Get("nope", nil)
	require.Error(t, err)
}

func TestWritesVisibleAcrossTransactions(t *testing.T) {
	store := New()
	tx1, err := store.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx1.Create("edge", schemaOf(1, 1)))
	key := []value.Value{value.Int(1)}
	val := []value.Value{value.String("one")}
	require.NoError(t, tx1.Put("edge", key, val))
	require.NoError(t, tx1.Commit())

	tx2, err := store.Begin(false)
	require.NoError(t, err)
	got, found, err := tx2.Get("edge", key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "one", got[0].String())
}
