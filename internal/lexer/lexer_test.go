package lexer_test

import (
	"testing"

	"github.com/andreasronge/ptclisp/internal/lexer"
	"github.com/andreasronge/ptclisp/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `(defn twice [x] (* x 2)) {:a 1, :b "two"} #{1 2} #(+ % 1) ; comment
ctx/user -5 3.14`

	expected := []struct {
		typ    token.Type
		lexeme string
	}{
		{token.LPAREN, "("},
		{token.SYMBOL, "defn"},
		{token.SYMBOL, "twice"},
		{token.LBRACKET, "["},
		{token.SYMBOL, "x"},
		{token.RBRACKET, "]"},
		{token.LPAREN, "("},
		{token.SYMBOL, "*"},
		{token.SYMBOL, "x"},
		{token.NUMBER, "2"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.KEYWORD, "a"},
		{token.NUMBER, "1"},
		{token.KEYWORD, "b"},
		{token.STRING, "two"},
		{token.RBRACE, "}"},
		{token.HASH_LBRACE, "#{"},
		{token.NUMBER, "1"},
		{token.NUMBER, "2"},
		{token.RBRACE, "}"},
		{token.HASH_LPAREN, "#("},
		{token.SYMBOL, "+"},
		{token.SYMBOL, "%"},
		{token.NUMBER, "1"},
		{token.RPAREN, ")"},
		{token.SYMBOL, "ctx/user"},
		{token.NUMBER, "-5"},
		{token.NUMBER, "3.14"},
		{token.EOF, ""},
	}

	l := lexer.New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Fatalf("token %d: expected type %q, got %q (%q)", i, exp.typ, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != exp.lexeme {
			t.Fatalf("token %d: expected lexeme %q, got %q", i, exp.lexeme, tok.Lexeme)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := lexer.New(`"a\nb\t\"c\\"`)
	tok := l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("expected STRING, got %q", tok.Type)
	}
	if tok.Lexeme != "a\nb\t\"c\\" {
		t.Fatalf("unexpected unescaped value %q", tok.Lexeme)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := lexer.New(`"abc`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL for unterminated string, got %q", tok.Type)
	}
}

func TestRegexLiteralIsIllegal(t *testing.T) {
	l := lexer.New(`#"ab+"`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL for #\"...\", got %q", tok.Type)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	l := lexer.New("(a\n  b)")
	l.NextToken() // (
	l.NextToken() // a
	tok := l.NextToken()
	if tok.Lexeme != "b" {
		t.Fatalf("expected b, got %q", tok.Lexeme)
	}
	if tok.Line != 2 {
		t.Fatalf("expected line 2, got %d", tok.Line)
	}
	if tok.Column != 3 {
		t.Fatalf("expected column 3, got %d", tok.Column)
	}
}

func TestCommasAreWhitespace(t *testing.T) {
	l := lexer.New("1,,2")
	if tok := l.NextToken(); tok.Lexeme != "1" {
		t.Fatalf("expected 1, got %q", tok.Lexeme)
	}
	if tok := l.NextToken(); tok.Lexeme != "2" {
		t.Fatalf("expected 2, got %q", tok.Lexeme)
	}
}
