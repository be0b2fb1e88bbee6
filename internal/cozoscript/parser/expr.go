package parser

import (
	"strconv"
	"strings"

	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/cozoscript/lexer"
	"github.com/cozodb/cozo/internal/value"
)

// binaryPrec gives the precedence level of each binary operator, per spec
// §4.2's table: unary first (handled separately), then ^, then * / %, then
// + -, then ++, then comparisons, then &&, then ||. Higher numbers bind
// tighter.
var binaryPrec = map[lexer.TokenType]int{
	lexer.TokenOrOr:   1,
	lexer.TokenAndAnd: 2,
	lexer.TokenEq:     3, lexer.TokenNeq: 3, lexer.TokenGt: 3, lexer.TokenLt: 3, lexer.TokenGe: 3, lexer.TokenLe: 3,
	lexer.TokenConcat: 4,
	lexer.TokenPlus:   5, lexer.TokenMinus: 5,
	lexer.TokenStar: 6, lexer.TokenSlash: 6, lexer.TokenPercent: 6,
	lexer.TokenCaret: 7,
}

var tokenToOp = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokenCaret:   ast.OpPow,
	lexer.TokenStar:    ast.OpMul,
	lexer.TokenSlash:   ast.OpDiv,
	lexer.TokenPercent: ast.OpMod,
	lexer.TokenPlus:    ast.OpAdd,
	lexer.TokenMinus:   ast.OpSub,
	lexer.TokenConcat:  ast.OpConcat,
	lexer.TokenEq:      ast.OpEq,
	lexer.TokenNeq:     ast.OpNeq,
	lexer.TokenGt:      ast.OpGt,
	lexer.TokenLt:       ast.OpLt,
	lexer.TokenGe:      ast.OpGe,
	lexer.TokenLe:      ast.OpLe,
	lexer.TokenAndAnd:  ast.OpAnd,
	lexer.TokenOrOr:    ast.OpOr,
}

// parseExpr parses a full expression using precedence climbing.
func (p *parser) parseExpr() ast.Expr {
	return p.parseBinary(0)
}

func (p *parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := binaryPrec[p.current.Kind]
		if !ok || prec < minPrec {
			return left
		}
		op := tokenToOp[p.current.Kind]
		pos := p.pos()
		p.advance()
		// Left-associative: the recursive call requires strictly higher
		// precedence than the operator just consumed, except `^` which the
		// grammar treats as right-associative like most exponent operators.
		nextMin := prec + 1
		if op == ast.OpPow {
			nextMin = prec
		}
		right := p.parseBinary(nextMin)
		left = &ast.Binary{Pos: pos, Op: op, X: left, Y: right}
	}
}

func (p *parser) parseUnary() ast.Expr {
	pos := p.pos()
	if _, ok := p.tryConsume(lexer.TokenMinus); ok {
		return &ast.Unary{Pos: pos, Op: ast.UnaryNeg, X: p.parseUnary()}
	}
	if _, ok := p.tryConsume(lexer.TokenBang); ok {
		return &ast.Unary{Pos: pos, Op: ast.UnaryNot, X: p.parseUnary()}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() ast.Expr {
	pos := p.pos()

	switch {
	case p.is(lexer.TokenLeftParen):
		p.advance()
		e := p.parseExpr()
		p.expect(lexer.TokenRightParen, "')'")
		return e

	case p.is(lexer.TokenLeftBracket):
		p.advance()
		lst := &ast.ListExpr{Pos: pos}
		for !p.is(lexer.TokenRightBracket) && !p.failed() {
			lst.Elems = append(lst.Elems, p.parseExpr())
			if _, ok := p.tryConsume(lexer.TokenComma); !ok {
				break
			}
		}
		p.expect(lexer.TokenRightBracket, "']'")
		return lst

	case p.is(lexer.TokenParam):
		name := strings.TrimPrefix(p.current.Value, "$")
		p.advance()
		return &ast.ParamRef{Pos: pos, Name: name}

	case p.is(lexer.TokenInt):
		text := p.current.Value
		p.advance()
		return &ast.Literal{Pos: pos, Val: value.Int(parseIntLiteral(text))}

	case p.is(lexer.TokenFloat):
		text := p.current.Value
		p.advance()
		f, _ := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		return &ast.Literal{Pos: pos, Val: value.Float(f)}

	case p.is(lexer.TokenString):
		text := p.current.Value
		p.advance()
		return &ast.Literal{Pos: pos, Val: value.String(decodeStringLiteral(text))}

	case p.is(lexer.TokenKeyword) && (p.current.Value == "not"):
		p.advance()
		return &ast.Unary{Pos: pos, Op: ast.UnaryNot, X: p.parseUnary()}

	case p.is(lexer.TokenIdentifier):
		name := p.current.Value
		if name == "null" {
			p.advance()
			return &ast.Literal{Pos: pos, Val: value.Null()}
		}
		if name == "true" || name == "false" {
			p.advance()
			return &ast.Literal{Pos: pos, Val: value.Bool(name == "true")}
		}
		p.advance()
		if _, ok := p.tryConsume(lexer.TokenLeftParen); ok {
			call := &ast.Call{Pos: pos, Name: name}
			for !p.is(lexer.TokenRightParen) && !p.failed() {
				call.Args = append(call.Args, p.parseExpr())
				if _, ok := p.tryConsume(lexer.TokenComma); !ok {
					break
				}
			}
			p.expect(lexer.TokenRightParen, "')'")
			return call
		}
		return &ast.VarRef{Pos: pos, Name: name}

	default:
		p.fail([]string{"expression"}, "expected an expression, found %q", p.current.Value)
		return &ast.Literal{Pos: pos, Val: value.Null()}
	}
}

// parseIntLiteral parses the numeric literal forms in spec §4.1/§6:
// decimal, hex/oct/bin prefixes, and `_` digit separators.
func parseIntLiteral(text string) int64 {
	text = strings.ReplaceAll(text, "_", "")
	base := 10
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		base = 16
		text = text[2:]
	case strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O"):
		base = 8
		text = text[2:]
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		base = 2
		text = text[2:]
	}
	n, _ := strconv.ParseInt(text, base, 64)
	return n
}

// decodeStringLiteral strips the delimiters from a lexed string token and
// resolves C-style backslash escapes for the quoted flavors. Raw strings
// (`_"…"_`) are returned verbatim between their delimiters.
func decodeStringLiteral(text string) string {
	if len(text) == 0 {
		return text
	}
	if text[0] == '_' {
		i := 0
		for i < len(text) && text[i] == '_' {
			i++
		}
		inner := text[i+1 : len(text)-i-1]
		return inner
	}

	quote := text[0]
	inner := text[1 : len(text)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i == len(inner)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\':
			b.WriteByte('\\')
		case quote:
			b.WriteByte(quote)
		default:
			b.WriteByte(inner[i])
		}
	}
	return b.String()
}
