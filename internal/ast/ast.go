package ast

import (
	"github.com/andreasronge/ptclisp/internal/token"
)

// TokenProvider is an interface for any AST node that can provide its
// primary token. This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all raw syntactic AST nodes produced by
// the reader. The analyzer turns these into core forms.
type Node interface {
	TokenProvider
	nodeMarker()
}

// Program is the root node: a sequence of top-level forms.
type Program struct {
	Token token.Token
	Forms []Node
}

func (p *Program) nodeMarker() {}
func (p *Program) GetToken() token.Token {
	if p == nil {
		return token.Token{}
	}
	return p.Token
}

// List is a parenthesised form.
type List struct {
	Token token.Token // the '(' token
	Items []Node
}

func (l *List) nodeMarker() {}
func (l *List) GetToken() token.Token {
	if l == nil {
		return token.Token{}
	}
	return l.Token
}

// Vector is a square-bracketed sequence literal.
type Vector struct {
	Token token.Token // the '[' token
	Items []Node
}

func (v *Vector) nodeMarker() {}
func (v *Vector) GetToken() token.Token {
	if v == nil {
		return token.Token{}
	}
	return v.Token
}

// Pair is one key/value entry of a map literal.
type Pair struct {
	Key   Node
	Value Node
}

// Map is a brace-delimited map literal. Key uniqueness is not enforced
// here; on evaluation the later entry wins.
type Map struct {
	Token token.Token // the '{' token
	Pairs []Pair
}

func (m *Map) nodeMarker() {}
func (m *Map) GetToken() token.Token {
	if m == nil {
		return token.Token{}
	}
	return m.Token
}

// Set is a #{...} literal.
type Set struct {
	Token token.Token // the '#{' token
	Items []Node
}

func (s *Set) nodeMarker() {}
func (s *Set) GetToken() token.Token {
	if s == nil {
		return token.Token{}
	}
	return s.Token
}

// ShortFn is a #(...) anonymous-function literal. Its body is the inner
// call form; % placeholders are resolved by the analyzer.
type ShortFn struct {
	Token token.Token // the '#(' token
	Body  *List
}

func (s *ShortFn) nodeMarker() {}
func (s *ShortFn) GetToken() token.Token {
	if s == nil {
		return token.Token{}
	}
	return s.Token
}

// Symbol is a bare identifier.
type Symbol struct {
	Token token.Token
	Name  string
}

func (s *Symbol) nodeMarker() {}
func (s *Symbol) GetToken() token.Token {
	if s == nil {
		return token.Token{}
	}
	return s.Token
}

// NSSymbol is a namespaced identifier like ctx/user or tool/fetch. The
// namespace is the segment before the first slash; the remainder is the
// name and may itself contain slashes.
type NSSymbol struct {
	Token token.Token
	NS    string
	Name  string
}

func (s *NSSymbol) nodeMarker() {}
func (s *NSSymbol) GetToken() token.Token {
	if s == nil {
		return token.Token{}
	}
	return s.Token
}

// Keyword is a :name literal.
type Keyword struct {
	Token token.Token
	Name  string
}

func (k *Keyword) nodeMarker() {}
func (k *Keyword) GetToken() token.Token {
	if k == nil {
		return token.Token{}
	}
	return k.Token
}

// String is a double-quoted literal, already unescaped.
type String struct {
	Token token.Token
	Value string
}

func (s *String) nodeMarker() {}
func (s *String) GetToken() token.Token {
	if s == nil {
		return token.Token{}
	}
	return s.Token
}

// Number is an integer or float literal.
type Number struct {
	Token   token.Token
	IsFloat bool
	Int     int64
	Float   float64
}

func (n *Number) nodeMarker() {}
func (n *Number) GetToken() token.Token {
	if n == nil {
		return token.Token{}
	}
	return n.Token
}

// Bool is a true/false literal.
type Bool struct {
	Token token.Token
	Value bool
}

func (b *Bool) nodeMarker() {}
func (b *Bool) GetToken() token.Token {
	if b == nil {
		return token.Token{}
	}
	return b.Token
}

// Nil is the nil literal.
type Nil struct {
	Token token.Token
}

func (n *Nil) nodeMarker() {}
func (n *Nil) GetToken() token.Token {
	if n == nil {
		return token.Token{}
	}
	return n.Token
}
