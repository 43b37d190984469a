package parser_test

import (
	"strings"
	"testing"

	"github.com/andreasronge/ptclisp/internal/ast"
	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/lexer"
	"github.com/andreasronge/ptclisp/internal/parser"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, err := parser.New(lexer.New(input).Tokens(), input).Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return prog
}

func parseErr(t *testing.T, input string) *diag.Error {
	t.Helper()
	_, err := parser.New(lexer.New(input).Tokens(), input).Parse()
	if err == nil {
		t.Fatalf("expected parse error for %q", input)
	}
	return err
}

func TestParseForms(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		forms int
	}{
		{"call", "(+ 1 2 3)", 1},
		{"two_forms", "(def a 1) (def b 2)", 2},
		{"vector", "[1 2 3]", 1},
		{"map", "{:a 1 :b 2}", 1},
		{"set", "#{1 2 3}", 1},
		{"short_fn", "#(* % 2)", 1},
		{"nested", "(let [{:keys [a]} ctx/user] a)", 1},
		{"comment_only", "; nothing here", 0},
		{"commas", "[1, 2, 3]", 1},
		{"negative_number", "(- -5 +3)", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prog := parse(t, tc.input)
			if len(prog.Forms) != tc.forms {
				t.Fatalf("expected %d forms, got %d", tc.forms, len(prog.Forms))
			}
		})
	}
}

func TestTrailingDelimiterTolerance(t *testing.T) {
	prog := parse(t, "(+ 1 2)))]}")
	if len(prog.Forms) != 1 {
		t.Fatalf("expected 1 form, got %d", len(prog.Forms))
	}
}

func TestUnmatchedOpenIsError(t *testing.T) {
	err := parseErr(t, "((+ 1 2)")
	if err.Reason != diag.ParseError {
		t.Fatalf("expected parse_error, got %s", err.Reason)
	}
	if err.Line == 0 {
		t.Fatal("expected line information")
	}
}

func TestParseErrorHasSnippet(t *testing.T) {
	err := parseErr(t, "(foo \"bar")
	if !strings.Contains(err.Message, "(foo") {
		t.Fatalf("expected a source snippet in %q", err.Message)
	}
}

func TestRegexLiteralGuidance(t *testing.T) {
	err := parseErr(t, `(re-seq #"a+" "aaa")`)
	if !strings.Contains(err.Message, "re-pattern") {
		t.Fatalf("expected guidance toward re-pattern, got %q", err.Message)
	}
}

func TestOddMapLiteral(t *testing.T) {
	err := parseErr(t, "{:a 1 :b}")
	if !strings.Contains(err.Message, "even number") {
		t.Fatalf("unexpected message %q", err.Message)
	}
}

func TestNamespacedSymbols(t *testing.T) {
	prog := parse(t, "ctx/user")
	ns, ok := prog.Forms[0].(*ast.NSSymbol)
	if !ok {
		t.Fatalf("expected NSSymbol, got %T", prog.Forms[0])
	}
	if ns.NS != "ctx" || ns.Name != "user" {
		t.Fatalf("unexpected split %q/%q", ns.NS, ns.Name)
	}

	prog = parse(t, "a/b/c")
	ns = prog.Forms[0].(*ast.NSSymbol)
	if ns.NS != "a" || ns.Name != "b/c" {
		t.Fatalf("single-slash split failed: %q/%q", ns.NS, ns.Name)
	}
}

func TestLiterals(t *testing.T) {
	prog := parse(t, "nil true false 42 -1.5 :kw \"s\"")
	if _, ok := prog.Forms[0].(*ast.Nil); !ok {
		t.Fatalf("expected Nil, got %T", prog.Forms[0])
	}
	if b := prog.Forms[1].(*ast.Bool); !b.Value {
		t.Fatal("expected true")
	}
	if b := prog.Forms[2].(*ast.Bool); b.Value {
		t.Fatal("expected false")
	}
	if n := prog.Forms[3].(*ast.Number); n.IsFloat || n.Int != 42 {
		t.Fatalf("expected int 42, got %+v", n)
	}
	if n := prog.Forms[4].(*ast.Number); !n.IsFloat || n.Float != -1.5 {
		t.Fatalf("expected float -1.5, got %+v", n)
	}
	if k := prog.Forms[5].(*ast.Keyword); k.Name != "kw" {
		t.Fatalf("expected :kw, got %q", k.Name)
	}
	if s := prog.Forms[6].(*ast.String); s.Value != "s" {
		t.Fatalf("expected \"s\", got %q", s.Value)
	}
}

func TestDuplicateMapKeysKept(t *testing.T) {
	prog := parse(t, "{:a 1 :a 2}")
	m := prog.Forms[0].(*ast.Map)
	if len(m.Pairs) != 2 {
		t.Fatalf("reader should keep both entries, got %d", len(m.Pairs))
	}
}
