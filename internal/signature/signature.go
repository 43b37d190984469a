package signature

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/andreasronge/ptclisp/internal/diag"
)

// Signature is a parsed declaration of the shape
//
//	"(param :type, ...) -> output_type"
//
// or the degenerate output-only form "{count :int}" used for return-only
// validation.
type Signature struct {
	Raw    string
	Params []Param
	Output Type
}

type Param struct {
	Name string
	Type Type
}

// Type is a closed set: primitives, lists, and records.
type Type interface {
	String() string
	typeNode()
}

// Prim is one of string/int/float/bool/keyword/any/map.
type Prim struct{ Kind string }

func (p Prim) String() string { return ":" + p.Kind }
func (Prim) typeNode()        {}

// List is [elem].
type List struct{ Elem Type }

func (l List) String() string { return "[" + l.Elem.String() + "]" }
func (List) typeNode()        {}

// Record is {field :type, ...}; optional fields carry a ? suffix.
type Record struct{ Fields []Field }

type Field struct {
	Name     string
	Type     Type
	Optional bool
}

func (r Record) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		name := f.Name
		if f.Optional {
			name += "?"
		}
		parts[i] = name + " " + f.Type.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (Record) typeNode() {}

var primKinds = map[string]bool{
	"string": true, "int": true, "float": true, "bool": true,
	"keyword": true, "any": true, "map": true,
}

// Parse reads a signature string.
func Parse(raw string) (*Signature, *diag.Error) {
	p := &parser{src: raw}
	p.skipSpace()

	sig := &Signature{Raw: raw}
	if p.peek() == '(' {
		params, err := p.parseParams()
		if err != nil {
			return nil, err
		}
		sig.Params = params
		p.skipSpace()
		if !p.consume("->") {
			return nil, p.errorf("expected -> after parameter list")
		}
	}

	out, err := p.parseType()
	if err != nil {
		return nil, err
	}
	sig.Output = out
	p.skipSpace()
	if !p.done() {
		return nil, p.errorf("unexpected trailing input %q", p.rest())
	}
	return sig, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) *diag.Error {
	return diag.Newf(diag.ValidationError,
		"invalid signature: "+format, args...).With("signature", p.src)
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) rest() string { return p.src[p.pos:] }

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == ',') {
		p.pos++
	}
}

func (p *parser) consume(s string) bool {
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		ch := rune(p.src[p.pos])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '-' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) parseParams() ([]Param, *diag.Error) {
	p.consume("(")
	var params []Param
	for {
		p.skipSpace()
		if p.consume(")") {
			return params, nil
		}
		if p.done() {
			return nil, p.errorf("unterminated parameter list")
		}
		name := p.parseIdent()
		if name == "" {
			return nil, p.errorf("expected parameter name at %q", p.rest())
		}
		p.skipSpace()
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: name, Type: typ})
	}
}

func (p *parser) parseType() (Type, *diag.Error) {
	p.skipSpace()
	switch p.peek() {
	case ':':
		p.pos++
		kind := p.parseIdent()
		if !primKinds[kind] {
			return nil, p.errorf("unknown type :%s", kind)
		}
		return Prim{Kind: kind}, nil
	case '[':
		p.pos++
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume("]") {
			return nil, p.errorf("expected ] to close list type")
		}
		return List{Elem: elem}, nil
	case '{':
		p.pos++
		var fields []Field
		for {
			p.skipSpace()
			if p.consume("}") {
				return Record{Fields: fields}, nil
			}
			if p.done() {
				return nil, p.errorf("unterminated record type")
			}
			name := p.parseIdent()
			if name == "" {
				return nil, p.errorf("expected field name at %q", p.rest())
			}
			optional := p.consume("?")
			p.skipSpace()
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: name, Type: typ, Optional: optional})
		}
	}
	return nil, p.errorf("expected a type at %q", p.rest())
}

func (s *Signature) String() string {
	if len(s.Params) == 0 {
		return s.Output.String()
	}
	parts := make([]string, len(s.Params))
	for i, param := range s.Params {
		parts[i] = fmt.Sprintf("%s %s", param.Name, param.Type)
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + s.Output.String()
}
