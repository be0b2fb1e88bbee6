package lexer

import "testing"

type lexerTest struct {
	name   string
	input  string
	tokens []TokenType
}

var lexerTests = []lexerTest{
	{"empty", "", []TokenType{TokenEOF}},
	{"whitespace", "   ", []TokenType{TokenWhitespace, TokenEOF}},
	{"newline", "\n", []TokenType{TokenNewline, TokenEOF}},
	{"comment", "// hi\n", []TokenType{TokenSinglelineComment, TokenNewline, TokenEOF}},
	{"multiline comment", "/* a\nb */", []TokenType{TokenMultilineComment, TokenEOF}},

	{"identifier", "reach", []TokenType{TokenIdentifier, TokenEOF}},
	{"keyword not", "not", []TokenType{TokenKeyword, TokenEOF}},
	{"keyword in", "in", []TokenType{TokenKeyword, TokenEOF}},
	{"param", "$name", []TokenType{TokenParam, TokenEOF}},

	{"int", "123", []TokenType{TokenInt, TokenEOF}},
	{"int with sep", "1_000", []TokenType{TokenInt, TokenEOF}},
	{"hex", "0xFF", []TokenType{TokenInt, TokenEOF}},
	{"oct", "0o17", []TokenType{TokenInt, TokenEOF}},
	{"bin", "0b101", []TokenType{TokenInt, TokenEOF}},
	{"float", "1.5", []TokenType{TokenFloat, TokenEOF}},
	{"float sci", "1e10", []TokenType{TokenFloat, TokenEOF}},
	{"float sci signed", "1.5e-3", []TokenType{TokenFloat, TokenEOF}},

	{"double-quoted string", `"hello\n"`, []TokenType{TokenString, TokenEOF}},
	{"single-quoted string", `'hello'`, []TokenType{TokenString, TokenEOF}},
	{"raw string", `_"a"b""_`, []TokenType{TokenString, TokenEOF}},

	{"rule head and datalog assign", "reach[a,b] := *edge[a,b];", []TokenType{
		TokenIdentifier, TokenLeftBracket, TokenIdentifier, TokenComma, TokenIdentifier, TokenRightBracket,
		TokenWhitespace, TokenAssign, TokenWhitespace, TokenStar, TokenIdentifier, TokenLeftBracket, TokenIdentifier, TokenComma, TokenIdentifier,
		TokenRightBracket, TokenSemicolon, TokenEOF,
	}},

	{"const assign", "<-", []TokenType{TokenConstAssign, TokenEOF}},
	{"algo assign", "<~", []TokenType{TokenAlgoAssign, TokenEOF}},
	{"key-value split", "=>", []TokenType{TokenArrow, TokenEOF}},
	{"eq", "==", []TokenType{TokenEq, TokenEOF}},
	{"single eq", "=", []TokenType{TokenSingleEq, TokenEOF}},
	{"neq", "!=", []TokenType{TokenNeq, TokenEOF}},
	{"le", "<=", []TokenType{TokenLe, TokenEOF}},
	{"ge", ">=", []TokenType{TokenGe, TokenEOF}},
	{"andand", "&&", []TokenType{TokenAndAnd, TokenEOF}},
	{"oror", "||", []TokenType{TokenOrOr, TokenEOF}},
	{"concat", "++", []TokenType{TokenConcat, TokenEOF}},
	{"double colon", "::", []TokenType{TokenDoubleColonColon, TokenEOF}},
	{"entry marker", "?", []TokenType{TokenQuestion, TokenEOF}},

	{"error on lone ampersand", "&", []TokenType{TokenError}},
}

func TestLex(t *testing.T) {
	for _, tt := range lexerTests {
		t.Run(tt.name, func(t *testing.T) {
			lx := Lex(tt.input)
			for i, want := range tt.tokens {
				got := lx.NextToken()
				if got.Kind != want {
					t.Fatalf("token %d: got kind %v (%q), want %v", i, got.Kind, got.Value, want)
				}
			}
		})
	}
}

func TestPeekable(t *testing.T) {
	p := NewPeekable(Lex("a, b"))
	if got := p.Peek(1).Kind; got != TokenIdentifier {
		t.Fatalf("Peek(1) = %v, want TokenIdentifier", got)
	}
	if got := p.Peek(2).Kind; got != TokenComma {
		t.Fatalf("Peek(2) = %v, want TokenComma", got)
	}
	if got := p.Next().Kind; got != TokenIdentifier {
		t.Fatalf("Next() = %v, want TokenIdentifier", got)
	}
}
