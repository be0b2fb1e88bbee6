package parser

import (
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/cozoscript/lexer"
)

var sysOpKeywords = map[string]ast.SysOpKind{
	"compact":       ast.SysCompact,
	"relations":     ast.SysRelations,
	"columns":       ast.SysColumns,
	"remove":        ast.SysRemove,
	"rename":        ast.SysRename,
	"running":       ast.SysRunning,
	"kill":          ast.SysKill,
	"explain":       ast.SysExplain,
	"access_level":  ast.SysAccessLevel,
	"show_triggers": ast.SysShowTriggers,
	"set_triggers":  ast.SysSetTriggers,
}

// parseSysScript parses a `::`-prefixed system command (spec §6 "System
// ops"). The leading `::` has already been consumed by parseScript.
func (p *parser) parseSysScript() *ast.SysScript {
	pos := p.pos()
	nameTok, ok := p.expect(lexer.TokenIdentifier, "system command")
	if !ok {
		return &ast.SysScript{Pos: pos}
	}
	kind, known := sysOpKeywords[nameTok.Value]
	if !known {
		p.fail([]string{"system command"}, "unknown system command %q", nameTok.Value)
		return &ast.SysScript{Pos: pos}
	}

	op := ast.SysOp{Kind: kind}
	switch kind {
	case ast.SysCompact, ast.SysRelations, ast.SysRunning, ast.SysShowTriggers:
		if kind == ast.SysShowTriggers {
			relTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
			op.Relation = relTok.Value
		}

	case ast.SysColumns:
		relTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
		op.Relation = relTok.Value

	case ast.SysRemove:
		for p.is(lexer.TokenIdentifier) {
			relTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
			op.Relations = append(op.Relations, relTok.Value)
			if _, ok := p.tryConsume(lexer.TokenComma); !ok {
				break
			}
		}

	case ast.SysRename:
		for p.is(lexer.TokenIdentifier) {
			oldTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
			p.expect(lexer.TokenArrow, "'=>'")
			newTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
			op.Renames = append(op.Renames, [2]string{oldTok.Value, newTok.Value})
			if _, ok := p.tryConsume(lexer.TokenComma); !ok {
				break
			}
		}

	case ast.SysKill:
		tok, _ := p.expect(lexer.TokenInt, "query handle")
		op.Handle = parseIntLiteral(tok.Value)

	case ast.SysExplain:
		p.expect(lexer.TokenLeftBrace, "'{'")
		op.Explained = p.parseQueryScript()
		p.expect(lexer.TokenRightBrace, "'}'")

	case ast.SysAccessLevel:
		levelTok, _ := p.expect(lexer.TokenIdentifier, "access level")
		op.AccessLevel = levelTok.Value
		for p.is(lexer.TokenIdentifier) {
			relTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
			op.AccessRelations = append(op.AccessRelations, relTok.Value)
			if _, ok := p.tryConsume(lexer.TokenComma); !ok {
				break
			}
		}

	case ast.SysSetTriggers:
		relTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
		op.Relation = relTok.Value
		for p.isIdentifier("on") {
			p.advance()
			verbTok, _ := p.expect(lexer.TokenIdentifier, "put/rm/replace")
			p.expect(lexer.TokenLeftBrace, "'{'")
			qs := p.parseQueryScript()
			p.expect(lexer.TokenRightBrace, "'}'")
			switch verbTok.Value {
			case "put":
				op.OnPut = append(op.OnPut, qs)
			case "rm":
				op.OnRm = append(op.OnRm, qs)
			case "replace":
				op.OnReplace = append(op.OnReplace, qs)
			default:
				p.fail([]string{"put", "rm", "replace"}, "unknown trigger verb %q", verbTok.Value)
			}
		}
	}

	return &ast.SysScript{Pos: pos, Op: op}
}
