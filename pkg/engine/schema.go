package engine

import (
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/value"
)

// convertSchema turns a parsed `{k1: T?, ... => v1: T?, ...}` declaration
// into the structural value.Schema stored relations are checked against
// (spec §3 "Stored Relation", §6 schema grammar). Nothing in the codebase
// needed this conversion before `:create`/`:replace` existed.
func convertSchema(decl *ast.SchemaDecl) value.Schema {
	return value.Schema{
		Key:   convertColumns(decl.Key),
		Value: convertColumns(decl.Value),
	}
}

func convertColumns(cols []ast.ColumnDecl) []value.ColumnSpec {
	out := make([]value.ColumnSpec, len(cols))
	for i, c := range cols {
		t := convertType(c.Type)
		t.Nullable = c.Nullable
		out[i] = value.ColumnSpec{Name: c.Name, Type: t}
	}
	return out
}

func convertType(t ast.TypeExpr) value.ColumnType {
	switch t.Kind {
	case ast.TypeBool:
		return value.ColumnType{Kind: value.KindBool}
	case ast.TypeInt:
		return value.ColumnType{Kind: value.KindInt}
	case ast.TypeFloat:
		return value.ColumnType{Kind: value.KindFloat}
	case ast.TypeString:
		return value.ColumnType{Kind: value.KindString}
	case ast.TypeBytes:
		return value.ColumnType{Kind: value.KindBytes}
	case ast.TypeUuid:
		return value.ColumnType{Kind: value.KindUuid}
	case ast.TypeList:
		var elem *value.ColumnType
		if t.ListElem != nil {
			ct := convertType(*t.ListElem)
			elem = &ct
		}
		return value.ColumnType{Kind: value.KindList, ListElem: elem, ListLen: t.ListLen}
	case ast.TypeTuple:
		elems := make([]value.ColumnType, len(t.Tuple))
		for i, e := range t.Tuple {
			elems[i] = convertType(e)
		}
		return value.ColumnType{Kind: value.KindTuple, TupleElems: elems}
	default:
		return value.Any
	}
}
