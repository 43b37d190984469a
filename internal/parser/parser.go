package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andreasronge/ptclisp/internal/ast"
	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/token"
)

// Parser turns a token stream into the raw syntactic AST. LLM-emitted
// programs frequently carry extra closing delimiters at top level; those
// are tolerated and skipped. Unmatched opening delimiters are errors.
type Parser struct {
	tokens []token.Token
	pos    int
	source string
}

func New(tokens []token.Token, source string) *Parser {
	return &Parser{tokens: tokens, source: source}
}

// Parse reads the whole stream into a Program node.
func (p *Parser) Parse() (*ast.Program, *diag.Error) {
	prog := &ast.Program{Token: p.current()}
	for {
		tok := p.current()
		switch tok.Type {
		case token.EOF:
			return prog, nil
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			// Trailing-delimiter tolerance.
			p.advance()
			continue
		}
		form, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		prog.Forms = append(prog.Forms, form)
	}
}

func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() token.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) parseForm() (ast.Node, *diag.Error) {
	tok := p.current()
	switch tok.Type {
	case token.LPAREN:
		p.advance()
		items, err := p.parseSeq(tok, token.RPAREN, ")")
		if err != nil {
			return nil, err
		}
		return &ast.List{Token: tok, Items: items}, nil
	case token.LBRACKET:
		p.advance()
		items, err := p.parseSeq(tok, token.RBRACKET, "]")
		if err != nil {
			return nil, err
		}
		return &ast.Vector{Token: tok, Items: items}, nil
	case token.LBRACE:
		p.advance()
		return p.parseMap(tok)
	case token.HASH_LBRACE:
		p.advance()
		items, err := p.parseSeq(tok, token.RBRACE, "}")
		if err != nil {
			return nil, err
		}
		return &ast.Set{Token: tok, Items: items}, nil
	case token.HASH_LPAREN:
		p.advance()
		items, err := p.parseSeq(tok, token.RPAREN, ")")
		if err != nil {
			return nil, err
		}
		return &ast.ShortFn{Token: tok, Body: &ast.List{Token: tok, Items: items}}, nil
	case token.STRING:
		p.advance()
		return &ast.String{Token: tok, Value: tok.Lexeme}, nil
	case token.NUMBER:
		p.advance()
		return p.parseNumber(tok)
	case token.KEYWORD:
		p.advance()
		if tok.Lexeme == "" {
			return nil, p.errorAt(tok, "empty keyword")
		}
		return &ast.Keyword{Token: tok, Name: tok.Lexeme}, nil
	case token.SYMBOL:
		p.advance()
		return p.parseSymbol(tok), nil
	case token.ILLEGAL:
		if strings.HasPrefix(tok.Lexeme, "#\"") {
			return nil, p.errorAt(tok, "regex literal #\"...\" is not supported; use (re-pattern \"...\") instead")
		}
		return nil, p.errorAt(tok, fmt.Sprintf("unexpected character %q", tok.Lexeme))
	case token.EOF:
		return nil, p.errorAt(tok, "unexpected end of input")
	default:
		return nil, p.errorAt(tok, fmt.Sprintf("unexpected token %q", tok.Lexeme))
	}
}

func (p *Parser) parseSeq(open token.Token, closer token.Type, closerLexeme string) ([]ast.Node, *diag.Error) {
	var items []ast.Node
	for {
		tok := p.current()
		if tok.Type == closer {
			p.advance()
			return items, nil
		}
		if tok.Type == token.EOF {
			return nil, p.errorAt(open, fmt.Sprintf("unclosed %q, expected %q", open.Lexeme, closerLexeme))
		}
		item, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (p *Parser) parseMap(open token.Token) (ast.Node, *diag.Error) {
	var pairs []ast.Pair
	for {
		tok := p.current()
		if tok.Type == token.RBRACE {
			p.advance()
			return &ast.Map{Token: open, Pairs: pairs}, nil
		}
		if tok.Type == token.EOF {
			return nil, p.errorAt(open, "unclosed \"{\", expected \"}\"")
		}
		key, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		valTok := p.current()
		if valTok.Type == token.RBRACE || valTok.Type == token.EOF {
			return nil, p.errorAt(valTok, "map literal requires an even number of forms")
		}
		val, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.Pair{Key: key, Value: val})
	}
}

func (p *Parser) parseNumber(tok token.Token) (ast.Node, *diag.Error) {
	lex := tok.Lexeme
	if strings.ContainsAny(lex, ".eE") {
		f, err := strconv.ParseFloat(lex, 64)
		if err != nil {
			return nil, p.errorAt(tok, fmt.Sprintf("invalid number %q", lex))
		}
		return &ast.Number{Token: tok, IsFloat: true, Float: f}, nil
	}
	i, err := strconv.ParseInt(lex, 10, 64)
	if err != nil {
		// Overflowing integers fall back to float.
		f, ferr := strconv.ParseFloat(lex, 64)
		if ferr != nil {
			return nil, p.errorAt(tok, fmt.Sprintf("invalid number %q", lex))
		}
		return &ast.Number{Token: tok, IsFloat: true, Float: f}, nil
	}
	return &ast.Number{Token: tok, Int: i}, nil
}

func (p *Parser) parseSymbol(tok token.Token) ast.Node {
	switch tok.Lexeme {
	case "nil":
		return &ast.Nil{Token: tok}
	case "true":
		return &ast.Bool{Token: tok, Value: true}
	case "false":
		return &ast.Bool{Token: tok, Value: false}
	}
	if idx := strings.Index(tok.Lexeme, "/"); idx > 0 && idx < len(tok.Lexeme)-1 {
		return &ast.NSSymbol{Token: tok, NS: tok.Lexeme[:idx], Name: tok.Lexeme[idx+1:]}
	}
	return &ast.Symbol{Token: tok, Name: tok.Lexeme}
}

// errorAt builds a parse_error with a one-line message that carries the
// position and a short source snippet.
func (p *Parser) errorAt(tok token.Token, msg string) *diag.Error {
	snippet := p.snippet(tok.Line)
	full := msg
	if snippet != "" {
		full = fmt.Sprintf("%s near %q", msg, snippet)
	}
	return diag.New(diag.ParseError, full).At(tok)
}

const snippetWidth = 40

func (p *Parser) snippet(line int) string {
	if p.source == "" || line <= 0 {
		return ""
	}
	lines := strings.Split(p.source, "\n")
	if line > len(lines) {
		return ""
	}
	s := strings.TrimSpace(lines[line-1])
	if len(s) > snippetWidth {
		s = s[:snippetWidth] + "..."
	}
	return s
}
