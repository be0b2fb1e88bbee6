// Package parser implements a recursive-descent parser producing the typed
// ast.Script from a token stream, following the teacher's sourceParser
// structuring (a struct tracking the current token over a peekable
// lexer, with consume/expect helpers) adapted to emit concrete AST structs
// directly instead of a generic node-graph tree.
package parser

import (
	"github.com/cozodb/cozo/internal/cozoerr"
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/cozoscript/lexer"
)

// ignoredTokenTypes are skipped transparently by advance.
var ignoredTokenTypes = map[lexer.TokenType]bool{
	lexer.TokenWhitespace:        true,
	lexer.TokenNewline:           true,
	lexer.TokenSinglelineComment: true,
	lexer.TokenMultilineComment:  true,
}

type parser struct {
	lex     *lexer.Peekable
	current lexer.Lexeme
	err     *cozoerr.ParseError
}

// Parse parses source into a Script, or returns a *cozoerr.ParseError.
func Parse(source string) (*ast.Script, error) {
	p := &parser{lex: lexer.NewPeekable(lexer.Lex(source))}
	p.advance()
	script := p.parseScript()
	if p.err != nil {
		return nil, p.err
	}
	return script, nil
}

func (p *parser) pos() ast.Pos {
	return ast.Pos{Line: p.current.Line, Column: p.current.Column}
}

// advance skips ignored tokens and loads the next significant token into
// p.current.
func (p *parser) advance() {
	for {
		tok := p.lex.Next()
		if tok.Kind == lexer.TokenError {
			p.fail([]string{}, "%s", tok.Value)
			p.current = lexer.Lexeme{Kind: lexer.TokenEOF}
			return
		}
		if ignoredTokenTypes[tok.Kind] {
			continue
		}
		p.current = tok
		return
	}
}

func (p *parser) is(kind lexer.TokenType) bool { return p.current.Kind == kind }

func (p *parser) isKeyword(word string) bool {
	return p.current.Kind == lexer.TokenKeyword && p.current.Value == word
}

func (p *parser) isIdentifier(word string) bool {
	return p.current.Kind == lexer.TokenIdentifier && p.current.Value == word
}

// tryConsume consumes and returns the current token if it matches kind.
func (p *parser) tryConsume(kind lexer.TokenType) (lexer.Lexeme, bool) {
	if p.current.Kind != kind {
		return lexer.Lexeme{}, false
	}
	tok := p.current
	p.advance()
	return tok, true
}

// expect consumes the current token if it matches kind, otherwise records a
// parse error naming kind among the expected set.
func (p *parser) expect(kind lexer.TokenType, desc string) (lexer.Lexeme, bool) {
	if tok, ok := p.tryConsume(kind); ok {
		return tok, true
	}
	p.fail([]string{desc}, "expected %s, found %q", desc, p.current.Value)
	return lexer.Lexeme{}, false
}

func (p *parser) fail(expected []string, format string, args ...any) {
	if p.err != nil {
		return // first error wins, per spec §7 propagation policy
	}
	p.err = cozoerr.NewParseError(cozoerr.SourcePosition{Line: p.current.Line, Column: p.current.Column}, expected, format, args...)
}

func (p *parser) failed() bool { return p.err != nil }

// parseScript dispatches on the leading token to one of the three top-level
// forms (spec §4.1, §6).
func (p *parser) parseScript() *ast.Script {
	if _, ok := p.tryConsume(lexer.TokenDoubleColonColon); ok {
		return &ast.Script{Sys: p.parseSysScript()}
	}
	if _, ok := p.tryConsume(lexer.TokenLeftBrace); ok {
		return &ast.Script{Multi: p.parseMultiScriptBody()}
	}
	return &ast.Script{Query: p.parseQueryScript()}
}

func (p *parser) parseMultiScriptBody() *ast.MultiScript {
	pos := p.pos()
	ms := &ast.MultiScript{Pos: pos}
	for !p.is(lexer.TokenRightBrace) && !p.is(lexer.TokenEOF) && !p.failed() {
		ms.Queries = append(ms.Queries, p.parseQueryScript())
	}
	p.expect(lexer.TokenRightBrace, "'}'")
	return ms
}

// parseQueryScript parses one or more rule definitions followed by an
// option set, terminated by EOF, '}' (inside a multi-script), or another
// rule head.
func (p *parser) parseQueryScript() *ast.QueryScript {
	qs := &ast.QueryScript{Pos: p.pos()}
	for p.startsRule() {
		qs.Rules = append(qs.Rules, p.parseRule())
		if p.failed() {
			return qs
		}
	}
	for p.is(lexer.TokenColon) {
		qs.Options = append(qs.Options, p.parseOption())
		if p.failed() {
			return qs
		}
		p.tryConsume(lexer.TokenSemicolon)
	}
	return qs
}

// startsRule reports whether the current token can begin a rule head:
// either the entry marker `?` or an identifier.
func (p *parser) startsRule() bool {
	return p.is(lexer.TokenQuestion) || p.is(lexer.TokenIdentifier)
}
