package lexer

import "container/list"

// Peekable wraps a Lexer and provides lookahead of arbitrary depth without
// losing state, by buffering tokens already pulled from the underlying
// Lexer.
type Peekable struct {
	lex        *Lexer
	readTokens *list.List
}

// NewPeekable returns a new Peekable wrapping lex.
func NewPeekable(lex *Lexer) *Peekable {
	return &Peekable{lex: lex, readTokens: list.New()}
}

// Next consumes and returns the next token.
func (p *Peekable) Next() Lexeme {
	if front := p.readTokens.Front(); front != nil {
		return p.readTokens.Remove(front).(Lexeme)
	}
	return p.lex.NextToken()
}

// Peek returns the count-th upcoming token (count=1 is the immediate next
// token) without consuming it.
func (p *Peekable) Peek(count int) Lexeme {
	if count < 1 {
		panic("lexer: Peek count must be >= 1")
	}
	for p.readTokens.Len() < count {
		p.readTokens.PushBack(p.lex.NextToken())
	}
	elem := p.readTokens.Front()
	for i := 1; i < count; i++ {
		elem = elem.Next()
	}
	return elem.Value.(Lexeme)
}
