package analyzer

import (
	"github.com/andreasronge/ptclisp/internal/ast"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
)

// analyzePattern resolves a binding form into a destructuring pattern.
// Supported shapes:
//
//	sym                         plain binding
//	[p1 p2 ...]                 sequence
//	[p1 p2 & rest]              sequence with rest
//	{:keys [a b] :or {...} :as whole}
//	{alias :key ... :or {...} :as whole}
func (a *Analyzer) analyzePattern(node ast.Node) (core.Pattern, *diag.Error) {
	switch n := node.(type) {
	case *ast.Symbol:
		if isPlaceholder(n.Name) {
			return nil, diag.Newf(diag.UnsupportedPattern,
				"%s cannot be used as a binding name", n.Name).At(n.Token)
		}
		return core.VarPat{Name: n.Name}, nil
	case *ast.Vector:
		return a.analyzeSeqPattern(n)
	case *ast.Map:
		return a.analyzeMapPattern(n)
	}
	return nil, diag.Newf(diag.UnsupportedPattern,
		"unsupported binding form %T", node).At(node.GetToken())
}

func (a *Analyzer) analyzeSeqPattern(n *ast.Vector) (core.Pattern, *diag.Error) {
	var items []core.Pattern
	for i := 0; i < len(n.Items); i++ {
		if name, ok := symbolName(n.Items[i]); ok && name == "&" {
			if i != len(n.Items)-2 {
				return nil, diag.New(diag.UnsupportedPattern,
					"& must be followed by exactly one rest binding").At(n.Token)
			}
			rest, err := a.analyzePattern(n.Items[i+1])
			if err != nil {
				return nil, err
			}
			return core.SeqRestPat{Items: items, Rest: rest}, nil
		}
		pat, err := a.analyzePattern(n.Items[i])
		if err != nil {
			return nil, err
		}
		items = append(items, pat)
	}
	return core.SeqPat{Items: items}, nil
}

func (a *Analyzer) analyzeMapPattern(n *ast.Map) (core.Pattern, *diag.Error) {
	pat := core.MapPat{}
	alias := ""

	for _, pair := range n.Pairs {
		switch key := pair.Key.(type) {
		case *ast.Keyword:
			switch key.Name {
			case "keys":
				vec, ok := pair.Value.(*ast.Vector)
				if !ok {
					return nil, diag.New(diag.UnsupportedPattern,
						":keys requires a vector of symbols").At(n.Token)
				}
				for _, item := range vec.Items {
					name, ok := symbolName(item)
					if !ok {
						return nil, diag.New(diag.UnsupportedPattern,
							":keys entries must be symbols").At(n.Token)
					}
					pat.Keys = append(pat.Keys, name)
				}
			case "or":
				defaults, err := a.analyzeDefaults(pair.Value, n)
				if err != nil {
					return nil, err
				}
				pat.Defaults = append(pat.Defaults, defaults...)
			case "as":
				name, ok := symbolName(pair.Value)
				if !ok {
					return nil, diag.New(diag.UnsupportedPattern,
						":as requires a symbol").At(n.Token)
				}
				alias = name
			default:
				return nil, diag.Newf(diag.UnsupportedPattern,
					"unsupported map pattern option :%s", key.Name).At(n.Token)
			}
		case *ast.Symbol:
			// {local :key} rename entry.
			kw, ok := pair.Value.(*ast.Keyword)
			if !ok {
				return nil, diag.New(diag.UnsupportedPattern,
					"map pattern rename requires a keyword key").At(n.Token)
			}
			pat.Renames = append(pat.Renames, core.Rename{Local: key.Name, Key: kw.Name})
		default:
			return nil, diag.New(diag.UnsupportedPattern,
				"map pattern keys must be symbols or keywords").At(n.Token)
		}
	}

	if alias != "" {
		return core.AsPat{Alias: alias, Inner: pat}, nil
	}
	return pat, nil
}

func (a *Analyzer) analyzeDefaults(node ast.Node, ctx *ast.Map) ([]core.Default, *diag.Error) {
	m, ok := node.(*ast.Map)
	if !ok {
		return nil, diag.New(diag.UnsupportedPattern, ":or requires a map of defaults").At(ctx.Token)
	}
	var defaults []core.Default
	for _, pair := range m.Pairs {
		name, ok := symbolName(pair.Key)
		if !ok {
			return nil, diag.New(diag.UnsupportedPattern,
				":or keys must be symbols").At(ctx.Token)
		}
		val, err := a.Analyze(pair.Value)
		if err != nil {
			return nil, err
		}
		defaults = append(defaults, core.Default{Name: name, Value: val})
	}
	return defaults, nil
}
