package parser

import (
	"github.com/cozodb/cozo/internal/cozoscript/ast"
	"github.com/cozodb/cozo/internal/cozoscript/lexer"
)

// parseRule parses one `head := body;` / `head <- rows;` / `head <~
// algo(args);` definition (spec §3 "Rule", §6 "Rule syntax").
func (p *parser) parseRule() *ast.Rule {
	pos := p.pos()
	name := p.parseRuleName()
	head := p.parseHead()
	if p.failed() {
		return &ast.Rule{Pos: pos, Name: name, Head: head}
	}

	switch {
	case p.is(lexer.TokenAssign):
		p.advance()
		return p.parseDatalogRule(pos, name, head)
	case p.is(lexer.TokenConstAssign):
		p.advance()
		return p.parseConstRule(pos, name, head)
	case p.is(lexer.TokenAlgoAssign):
		p.advance()
		return p.parseAlgoRule(pos, name, head)
	default:
		p.fail([]string{":=", "<-", "<~"}, "expected a rule body operator, found %q", p.current.Value)
		return &ast.Rule{Pos: pos, Name: name, Head: head}
	}
}

func (p *parser) parseRuleName() string {
	if tok, ok := p.tryConsume(lexer.TokenQuestion); ok {
		return tok.Value
	}
	tok, _ := p.expect(lexer.TokenIdentifier, "rule name")
	return tok.Value
}

// parseHead parses the `[arg, agg(arg), ...]` head argument list.
func (p *parser) parseHead() []*ast.HeadArg {
	if _, ok := p.expect(lexer.TokenLeftBracket, "'['"); !ok {
		return nil
	}
	var args []*ast.HeadArg
	for !p.is(lexer.TokenRightBracket) && !p.failed() {
		args = append(args, p.parseHeadArg())
		if _, ok := p.tryConsume(lexer.TokenComma); !ok {
			break
		}
	}
	p.expect(lexer.TokenRightBracket, "']'")
	return args
}

func (p *parser) parseHeadArg() *ast.HeadArg {
	pos := p.pos()
	nameTok, ok := p.expect(lexer.TokenIdentifier, "identifier")
	if !ok {
		return &ast.HeadArg{Pos: pos}
	}
	if !p.is(lexer.TokenLeftParen) {
		return &ast.HeadArg{Pos: pos, Var: nameTok.Value}
	}

	// Aggregation form: agg(var, extraArg, ...)
	p.advance()
	varTok, ok := p.expect(lexer.TokenIdentifier, "variable")
	if !ok {
		return &ast.HeadArg{Pos: pos, Aggregate: nameTok.Value}
	}
	arg := &ast.HeadArg{Pos: pos, Var: varTok.Value, Aggregate: nameTok.Value}
	for {
		if _, ok := p.tryConsume(lexer.TokenComma); !ok {
			break
		}
		arg.ExtraArgs = append(arg.ExtraArgs, p.parseExpr())
	}
	p.expect(lexer.TokenRightParen, "')'")
	return arg
}

// parseDatalogRule parses the `or`-separated disjunction of `,`-separated
// conjunctions that forms a Datalog rule body (spec §3, §6).
func (p *parser) parseDatalogRule(pos ast.Pos, name string, head []*ast.HeadArg) *ast.Rule {
	rule := &ast.Rule{Pos: pos, Name: name, Head: head, Kind: ast.RuleDatalog}
	rule.Disjuncts = append(rule.Disjuncts, p.parseConjunct())
	for p.isKeyword("or") {
		p.advance()
		rule.Disjuncts = append(rule.Disjuncts, p.parseConjunct())
	}
	p.tryConsume(lexer.TokenSemicolon)
	return rule
}

func (p *parser) parseConjunct() *ast.Conjunct {
	pos := p.pos()
	c := &ast.Conjunct{Pos: pos}
	c.Atoms = append(c.Atoms, p.parseAtom())
	for p.is(lexer.TokenComma) {
		p.advance()
		c.Atoms = append(c.Atoms, p.parseAtom())
	}
	return c
}

// parseAtom parses one body atom (spec §6 "Atoms").
func (p *parser) parseAtom() *ast.Atom {
	pos := p.pos()

	if p.isKeyword("not") {
		p.advance()
		inner := p.parseAtom()
		return &ast.Atom{Pos: pos, Kind: ast.AtomNegation, Negated: inner}
	}

	if p.is(lexer.TokenStar) {
		p.advance()
		return p.parseRelationApp(pos, true)
	}

	if p.is(lexer.TokenIdentifier) && (p.lex.Peek(1).Kind == lexer.TokenLeftBracket || p.lex.Peek(1).Kind == lexer.TokenLeftBrace) {
		return p.parseRelationApp(pos, false)
	}

	// Otherwise: a unification `x = expr`, membership `x in expr`, or a bare
	// guard expression. All three start with an expression; a single
	// significant token of lookahead past a leading bare identifier
	// (whitespace and comments skipped) disambiguates without backtracking
	// (the peekable lexer only supports lookahead, not rewinding past a
	// consumed token).
	if p.is(lexer.TokenIdentifier) {
		next := p.lex.Peek(1)
		for i := 2; ignoredTokenTypes[next.Kind]; i++ {
			next = p.lex.Peek(i)
		}
		if next.Kind == lexer.TokenSingleEq {
			ident := p.current.Value
			p.advance()
			p.advance()
			return &ast.Atom{Pos: pos, Kind: ast.AtomUnify, Var: ident, Expr: p.parseExpr()}
		}
		if next.Kind == lexer.TokenKeyword && next.Value == "in" {
			ident := p.current.Value
			p.advance()
			p.advance()
			return &ast.Atom{Pos: pos, Kind: ast.AtomMembership, Var: ident, Expr: p.parseExpr()}
		}
	}

	return &ast.Atom{Pos: pos, Kind: ast.AtomExpr, Guard: p.parseExpr()}
}

// parseRelationApp parses `*R[...]`, `*R{col: var, ...}`, or `r[...]`.
func (p *parser) parseRelationApp(pos ast.Pos, stored bool) *ast.Atom {
	nameTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
	atom := &ast.Atom{Pos: pos, Name: nameTok.Value, IsStored: stored}
	if stored {
		atom.Kind = ast.AtomRelationApp
	} else {
		atom.Kind = ast.AtomRuleApp
	}

	if _, ok := p.tryConsume(lexer.TokenLeftBrace); ok {
		atom.NamedArgs = map[string]string{}
		for !p.is(lexer.TokenRightBrace) && !p.failed() {
			colTok, _ := p.expect(lexer.TokenIdentifier, "column name")
			p.expect(lexer.TokenColon, "':'")
			varTok, _ := p.expect(lexer.TokenIdentifier, "variable")
			atom.NamedArgs[colTok.Value] = varTok.Value
			if _, ok := p.tryConsume(lexer.TokenComma); !ok {
				break
			}
		}
		p.expect(lexer.TokenRightBrace, "'}'")
		return atom
	}

	p.expect(lexer.TokenLeftBracket, "'[' or '{'")
	for !p.is(lexer.TokenRightBracket) && !p.failed() {
		argTok, _ := p.expect(lexer.TokenIdentifier, "variable")
		atom.PosArgs = append(atom.PosArgs, argTok.Value)
		if _, ok := p.tryConsume(lexer.TokenComma); !ok {
			break
		}
	}
	p.expect(lexer.TokenRightBracket, "']'")
	return atom
}

// parseConstRule parses the `<- [[v, v], [v, v]]` constant rule body.
func (p *parser) parseConstRule(pos ast.Pos, name string, head []*ast.HeadArg) *ast.Rule {
	rule := &ast.Rule{Pos: pos, Name: name, Head: head, Kind: ast.RuleConst}
	p.expect(lexer.TokenLeftBracket, "'['")
	for !p.is(lexer.TokenRightBracket) && !p.failed() {
		rowPos := p.pos()
		p.expect(lexer.TokenLeftBracket, "'['")
		row := &ast.ConstRow{Pos: rowPos}
		for !p.is(lexer.TokenRightBracket) && !p.failed() {
			row.Values = append(row.Values, p.parseExpr())
			if _, ok := p.tryConsume(lexer.TokenComma); !ok {
				break
			}
		}
		p.expect(lexer.TokenRightBracket, "']'")
		rule.ConstRows = append(rule.ConstRows, row)
		if _, ok := p.tryConsume(lexer.TokenComma); !ok {
			break
		}
	}
	p.expect(lexer.TokenRightBracket, "']'")
	p.tryConsume(lexer.TokenSemicolon)
	return rule
}

// parseAlgoRule parses the `<~ algo_name(arg, arg: value, ...)` algorithm
// rule body (spec §3 "Algorithm rule", §6).
func (p *parser) parseAlgoRule(pos ast.Pos, name string, head []*ast.HeadArg) *ast.Rule {
	rule := &ast.Rule{Pos: pos, Name: name, Head: head, Kind: ast.RuleAlgo}
	algoTok, _ := p.expect(lexer.TokenIdentifier, "algorithm name")
	rule.AlgoName = algoTok.Value
	p.expect(lexer.TokenLeftParen, "'('")
	for !p.is(lexer.TokenRightParen) && !p.failed() {
		rule.AlgoArgs = append(rule.AlgoArgs, p.parseAlgoArg())
		if _, ok := p.tryConsume(lexer.TokenComma); !ok {
			break
		}
	}
	p.expect(lexer.TokenRightParen, "')'")
	p.tryConsume(lexer.TokenSemicolon)
	return rule
}

func (p *parser) parseAlgoArg() *ast.AlgoArg {
	pos := p.pos()

	if p.is(lexer.TokenStar) || (p.is(lexer.TokenIdentifier) && p.lex.Peek(1).Kind != lexer.TokenColon) {
		if p.is(lexer.TokenStar) {
			p.advance()
		}
		nameTok, _ := p.expect(lexer.TokenIdentifier, "relation name")
		arg := &ast.AlgoArg{Pos: pos, RelationRef: nameTok.Value}
		if _, ok := p.tryConsume(lexer.TokenLeftBrace); ok {
			arg.Bindings = map[string]string{}
			for !p.is(lexer.TokenRightBrace) && !p.failed() {
				colTok, _ := p.expect(lexer.TokenIdentifier, "column name")
				p.expect(lexer.TokenColon, "':'")
				varTok, _ := p.expect(lexer.TokenIdentifier, "variable")
				arg.Bindings[colTok.Value] = varTok.Value
				if _, ok := p.tryConsume(lexer.TokenComma); !ok {
					break
				}
			}
			p.expect(lexer.TokenRightBrace, "'}'")
		} else if _, ok := p.tryConsume(lexer.TokenLeftBracket); ok {
			for !p.is(lexer.TokenRightBracket) && !p.failed() {
				varTok, _ := p.expect(lexer.TokenIdentifier, "variable")
				if arg.Bindings == nil {
					arg.Bindings = map[string]string{}
				}
				arg.Bindings[varTok.Value] = varTok.Value
				if _, ok := p.tryConsume(lexer.TokenComma); !ok {
					break
				}
			}
			p.expect(lexer.TokenRightBracket, "']'")
		}
		return arg
	}

	// key: value option pair
	nameTok, _ := p.expect(lexer.TokenIdentifier, "option name")
	p.expect(lexer.TokenColon, "':'")
	return &ast.AlgoArg{Pos: pos, OptionName: nameTok.Value, OptionValue: p.parseExpr()}
}
