package core

// Pattern is a destructuring pattern attached to let/loop bindings and fn
// parameters. Patterns are fully resolved by the analyzer; the evaluator's
// matcher only ever sees this closed set.

type Pattern interface {
	patternNode()
}

// VarPat binds a single name, no shape check.
type VarPat struct{ Name string }

// SeqPat matches a sequence positionally. Missing elements bind nil,
// extra elements are dropped.
type SeqPat struct{ Items []Pattern }

// SeqRestPat matches leading elements positionally and collects the rest
// into a vector.
type SeqRestPat struct {
	Items []Pattern
	Rest  Pattern
}

// Default is an :or default for one bound name. The value expression is
// evaluated at bind time, only when the key is absent.
type Default struct {
	Name  string
	Value Node
}

// Rename is a general map-pattern entry {local :key}.
type Rename struct {
	Local string
	Key   string
}

// MapPat covers both the {:keys [...]} shorthand and the general map
// pattern with renames. Lookup is flex keyword/string.
type MapPat struct {
	Keys     []string // names bound via :keys
	Renames  []Rename
	Defaults []Default
}

// AsPat binds the whole value to Alias, then matches Inner.
type AsPat struct {
	Alias string
	Inner Pattern
}

func (VarPat) patternNode()     {}
func (SeqPat) patternNode()     {}
func (SeqRestPat) patternNode() {}
func (MapPat) patternNode()     {}
func (AsPat) patternNode()      {}

// BoundNames returns every name the pattern introduces, in binding order.
func BoundNames(p Pattern) []string {
	var names []string
	collectNames(p, &names)
	return names
}

func collectNames(p Pattern, out *[]string) {
	switch pat := p.(type) {
	case VarPat:
		*out = append(*out, pat.Name)
	case SeqPat:
		for _, item := range pat.Items {
			collectNames(item, out)
		}
	case SeqRestPat:
		for _, item := range pat.Items {
			collectNames(item, out)
		}
		collectNames(pat.Rest, out)
	case MapPat:
		*out = append(*out, pat.Keys...)
		for _, r := range pat.Renames {
			*out = append(*out, r.Local)
		}
	case AsPat:
		*out = append(*out, pat.Alias)
		collectNames(pat.Inner, out)
	}
}
