package parser

import (
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/cozoscript/lexer"
)

var optionKeywords = map[string]ast.OptionKind{
	"limit":      ast.OptLimit,
	"offset":     ast.OptOffset,
	"sort":       ast.OptSort,
	"order":      ast.OptSort,
	"timeout":    ast.OptTimeout,
	"sleep":      ast.OptSleep,
	"assert":     ast.OptAssert,
	"create":     ast.OptCreate,
	"replace":    ast.OptReplace,
	"put":        ast.OptPut,
	"rm":         ast.OptRm,
	"ensure":     ast.OptEnsure,
	"ensure_not": ast.OptEnsureNot,
}

// parseOption parses one `:verb ...` directive attached to a query (spec
// §6 "Options").
func (p *parser) parseOption() *ast.Option {
	pos := p.pos()
	p.expect(lexer.TokenColon, "':'")
	nameTok, ok := p.expect(lexer.TokenIdentifier, "option name")
	if !ok {
		return &ast.Option{Pos: pos}
	}
	kind, known := optionKeywords[nameTok.Value]
	if !known {
		p.fail([]string{"option name"}, "unknown option %q", nameTok.Value)
		return &ast.Option{Pos: pos}
	}

	opt := &ast.Option{Pos: pos, Kind: kind}
	switch kind {
	case ast.OptLimit, ast.OptOffset:
		tok, _ := p.expect(lexer.TokenInt, "integer")
		opt.IntValue = parseIntLiteral(tok.Value)

	case ast.OptTimeout:
		if p.is(lexer.TokenFloat) {
			opt.FloatValue = p.parseFloatTokenValue()
		} else {
			tok, _ := p.expect(lexer.TokenInt, "integer")
			opt.IntValue = parseIntLiteral(tok.Value)
		}

	case ast.OptSleep:
		if p.is(lexer.TokenFloat) {
			opt.FloatValue = p.parseFloatTokenValue()
		} else {
			tok, _ := p.expect(lexer.TokenInt, "integer")
			opt.IntValue = parseIntLiteral(tok.Value)
		}

	case ast.OptSort:
		for {
			desc := false
			if p.isIdentifier("desc") || p.is(lexer.TokenMinus) {
				desc = true
				p.advance()
			} else if p.isIdentifier("asc") || p.is(lexer.TokenPlus) {
				p.advance()
			}
			varTok, ok := p.expect(lexer.TokenIdentifier, "variable")
			if !ok {
				break
			}
			opt.SortKeys = append(opt.SortKeys, ast.SortKey{Var: varTok.Value, Desc: desc})
			if _, ok := p.tryConsume(lexer.TokenComma); !ok {
				break
			}
		}

	case ast.OptAssert:
		if p.isIdentifier("some") {
			opt.AssertSome = true
			p.advance()
		} else if p.isIdentifier("none") {
			p.advance()
		} else {
			p.fail([]string{"some", "none"}, "expected 'some' or 'none', found %q", p.current.Value)
		}

	case ast.OptCreate, ast.OptReplace:
		relTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
		opt.Relation = relTok.Value
		opt.Schema = p.parseSchemaDecl()

	case ast.OptPut, ast.OptRm, ast.OptEnsure, ast.OptEnsureNot:
		relTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
		opt.Relation = relTok.Value
	}
	return opt
}

// parseFloatTokenValue consumes the current float token and returns its
// decoded value.
func (p *parser) parseFloatTokenValue() float64 {
	lit := p.parseExpr()
	if l, ok := lit.(*ast.Literal); ok {
		if f, ok := l.Val.AsFloat(); ok {
			return f
		}
	}
	return 0
}

// parseSchemaDecl parses the `{k1: T, ... => v1: T?, ...}` schema literal
// used by `:create`/`:replace` (spec §6 "Schema").
func (p *parser) parseSchemaDecl() *ast.SchemaDecl {
	pos := p.pos()
	decl := &ast.SchemaDecl{Pos: pos}
	if _, ok := p.expect(lexer.TokenLeftBrace, "'{'"); !ok {
		return decl
	}
	decl.Key = p.parseColumnDeclList()
	if _, ok := p.tryConsume(lexer.TokenArrow); ok {
		decl.Value = p.parseColumnDeclList()
	}
	p.expect(lexer.TokenRightBrace, "'}'")
	return decl
}

func (p *parser) parseColumnDeclList() []ast.ColumnDecl {
	var cols []ast.ColumnDecl
	for p.is(lexer.TokenIdentifier) {
		cols = append(cols, p.parseColumnDecl())
		if _, ok := p.tryConsume(lexer.TokenComma); !ok {
			break
		}
	}
	return cols
}

func (p *parser) parseColumnDecl() ast.ColumnDecl {
	nameTok, _ := p.expect(lexer.TokenIdentifier, "column name")
	col := ast.ColumnDecl{Name: nameTok.Value, Type: ast.TypeExpr{Kind: ast.TypeAny}}
	if _, ok := p.tryConsume(lexer.TokenColon); ok {
		col.Type = p.parseTypeExpr()
	}
	if _, ok := p.tryConsume(lexer.TokenQuestion); ok {
		col.Nullable = true
	}
	return col
}

var typeNames = map[string]ast.TypeExprKind{
	"Any":    ast.TypeAny,
	"Bool":   ast.TypeBool,
	"Int":    ast.TypeInt,
	"Float":  ast.TypeFloat,
	"String": ast.TypeString,
	"Bytes":  ast.TypeBytes,
	"Uuid":   ast.TypeUuid,
}

// parseTypeExpr parses a column type expression: a scalar name, `[T]` /
// `[T;N]` list form, or `(T, T, ...)` tuple form (spec §6 "Schema").
func (p *parser) parseTypeExpr() ast.TypeExpr {
	if p.is(lexer.TokenLeftBracket) {
		p.advance()
		elem := p.parseTypeExpr()
		te := ast.TypeExpr{Kind: ast.TypeList, ListElem: &elem, ListLen: -1}
		if _, ok := p.tryConsume(lexer.TokenSemicolon); ok {
			tok, _ := p.expect(lexer.TokenInt, "integer")
			te.ListLen = int(parseIntLiteral(tok.Value))
		}
		p.expect(lexer.TokenRightBracket, "']'")
		return te
	}
	if p.is(lexer.TokenLeftParen) {
		p.advance()
		te := ast.TypeExpr{Kind: ast.TypeTuple}
		for !p.is(lexer.TokenRightParen) && !p.failed() {
			te.Tuple = append(te.Tuple, p.parseTypeExpr())
			if _, ok := p.tryConsume(lexer.TokenComma); !ok {
				break
			}
		}
		p.expect(lexer.TokenRightParen, "')'")
		return te
	}
	nameTok, _ := p.expect(lexer.TokenIdentifier, "type name")
	kind, ok := typeNames[nameTok.Value]
	if !ok {
		p.fail([]string{"type name"}, "unknown type %q", nameTok.Value)
		return ast.TypeExpr{Kind: ast.TypeAny}
	}
	return ast.TypeExpr{Kind: kind}
}
