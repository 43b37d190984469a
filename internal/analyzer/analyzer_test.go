package analyzer_test

import (
	"testing"

	"github.com/andreasronge/ptclisp/internal/analyzer"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/lexer"
	"github.com/andreasronge/ptclisp/internal/parser"
	"github.com/andreasronge/ptclisp/internal/serializer"
)

func analyze(t *testing.T, input string) core.Node {
	t.Helper()
	prog, perr := parser.New(lexer.New(input).Tokens(), input).Parse()
	if perr != nil {
		t.Fatalf("parse %q: %v", input, perr)
	}
	node, aerr := analyzer.New().AnalyzeProgram(prog)
	if aerr != nil {
		t.Fatalf("analyze %q: %v", input, aerr)
	}
	return node
}

func analyzeErr(t *testing.T, input string) *diag.Error {
	t.Helper()
	prog, perr := parser.New(lexer.New(input).Tokens(), input).Parse()
	if perr != nil {
		t.Fatalf("parse %q: %v", input, perr)
	}
	_, aerr := analyzer.New().AnalyzeProgram(prog)
	if aerr == nil {
		t.Fatalf("expected analysis error for %q", input)
	}
	return aerr
}

// Desugaring is asserted through the serializer: the printed core form
// shows exactly what the evaluator will see.
func TestDesugaring(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"when", "(when a b)", "(if a b)"},
		{"when_body", "(when a b c)", "(if a (do b c))"},
		{"cond", "(cond a 1 :else 2)", "(if a 1 (if true 2 nil))"},
		{"thread_first", "(-> x (f 1) g)", "(g (f x 1))"},
		{"thread_last", "(->> x (f 1) g)", "(g (f 1 x))"},
		{"thread_keyword", "(-> m :a)", "(:a m)"},
		{"defn", "(defn f [x] x)", "(def f (fn [x] x))"},
		{"if_let", "(if-let [v (f)] v 0)", "(let [v (f)] (if v v 0))"},
		{"when_let", "(when-let [v (f)] v)", "(let [v (f)] (if v v))"},
		{"short_fn", "#(+ % 1)", "#(+ %1 1)"},
		{"short_fn_two", "#(+ %1 %2)", "#(+ %1 %2)"},
		{"ctx_access", "ctx/user", "ctx/user"},
		{"data_access", "data/user", "ctx/user"},
		{"call_form", "(call f 1 2)", "(f 1 2)"},
		{"empty_list", "()", "[]"},
		{"where", "(where :a = 1)", "(where :a = 1)"},
		{"where_path", "(where [:a :b] > 2)", "(where [:a :b] > 2)"},
		{"where_truthy", "(where :a)", "(where :a)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := serializer.Print(analyze(t, tc.input))
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAnalysisErrors(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		reason string
	}{
		{"if_arity", "(if a)", diag.InvalidArity},
		{"cond_odd", "(cond a)", diag.InvalidCondForm},
		{"placeholder_outside", "(+ % 1)", diag.InvalidPlaceholder},
		{"nested_short_fn", "#(map #(inc %) %)", diag.InvalidPlaceholder},
		{"bad_where_field", "(where 5 = 1)", diag.InvalidWhereForm},
		{"bad_where_op", "(where :a like 1)", diag.InvalidWhereOperator},
		{"where_empty_path", "(where [] = 1)", diag.InvalidWhereForm},
		{"thread_number_step", "(-> x 5)", diag.InvalidThreadForm},
		{"def_non_symbol", "(def :a 1)", diag.InvalidForm},
		{"tool_value_position", "(f tool/fetch)", diag.InvalidForm},
		{"tool_two_args", "(tool/fetch {} {})", diag.InvalidArity},
		{"bad_pattern", "(let [5 x] x)", diag.UnsupportedPattern},
		{"or_non_map", "(let [{:keys [a] :or [a]} m] a)", diag.UnsupportedPattern},
		{"recur_outside", "(recur 1)", diag.InvalidForm},
		{"recur_not_tail", "(loop [i 0] (+ 1 (recur i)))", diag.InvalidForm},
		{"recur_arity", "(loop [i 0] (recur i i))", diag.InvalidArity},
		{"memory_unknown", "(memory/delete :a)", diag.InvalidForm},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := analyzeErr(t, tc.input)
			if err.Reason != tc.reason {
				t.Fatalf("expected %s, got %s (%s)", tc.reason, err.Reason, err.Message)
			}
		})
	}
}

func TestRecurTailPositions(t *testing.T) {
	accepted := []string{
		"(loop [i 0] (if (< i 5) (recur (inc i)) i))",
		"(loop [i 0] (do (println i) (recur (inc i))))",
		"(loop [i 0] (when (< i 5) (recur (inc i))))",
		"(loop [i 0] (let [j (inc i)] (recur j)))",
		"(fn [x] (if (pos? x) (recur (dec x)) x))",
		"(loop [i 0] (cond (< i 5) (recur (inc i)) :else i))",
	}
	for _, src := range accepted {
		analyze(t, src)
	}

	rejected := []string{
		"(loop [i 0] (+ (recur i) 1))",
		"(loop [i 0] (println (recur i)))",
		"(loop [i 0] (if (recur i) 1 2))",
		"(fn [x] (inc (recur x)))",
	}
	for _, src := range rejected {
		if err := analyzeErr(t, src); err.Reason != diag.InvalidForm {
			t.Fatalf("%q: expected invalid_form, got %s", src, err.Reason)
		}
	}
}

func TestFnInsideLoopHasOwnRecurPoint(t *testing.T) {
	// recur in a fn body targets the fn, so a one-arg recur inside a
	// two-binding loop is fine.
	analyze(t, "(loop [i 0 j 0] (if true ((fn [x] (if (pos? x) (recur (dec x)) x)) i) (recur i j)))")
}

func TestDestructurePatterns(t *testing.T) {
	node := analyze(t, "(let [[a b & rest] v {:keys [x] :or {x 1} :as all} m] a)")
	let, ok := node.(core.Let)
	if !ok {
		t.Fatalf("expected Let, got %T", node)
	}
	if _, ok := let.Bindings[0].Pattern.(core.SeqRestPat); !ok {
		t.Fatalf("expected SeqRestPat, got %T", let.Bindings[0].Pattern)
	}
	as, ok := let.Bindings[1].Pattern.(core.AsPat)
	if !ok {
		t.Fatalf("expected AsPat, got %T", let.Bindings[1].Pattern)
	}
	mp, ok := as.Inner.(core.MapPat)
	if !ok {
		t.Fatalf("expected MapPat inside :as, got %T", as.Inner)
	}
	if len(mp.Keys) != 1 || mp.Keys[0] != "x" {
		t.Fatalf("unexpected keys %v", mp.Keys)
	}
	if len(mp.Defaults) != 1 || mp.Defaults[0].Name != "x" {
		t.Fatalf("unexpected defaults %v", mp.Defaults)
	}
}

func TestRenamePattern(t *testing.T) {
	node := analyze(t, "(let [{the-name :name} m] the-name)")
	let := node.(core.Let)
	mp := let.Bindings[0].Pattern.(core.MapPat)
	if len(mp.Renames) != 1 || mp.Renames[0].Local != "the-name" || mp.Renames[0].Key != "name" {
		t.Fatalf("unexpected renames %+v", mp.Renames)
	}
}

func TestSymbolBudget(t *testing.T) {
	coreNames := map[string]bool{"+": true}
	node := analyze(t, "(+ alpha beta gamma)")
	if n := analyzer.CountSymbols(node, coreNames); n != 3 {
		t.Fatalf("expected 3 distinct symbols, got %d", n)
	}
	if err := analyzer.CheckBudget(node, coreNames, 2); err == nil || err.Reason != diag.SymbolLimitExceeded {
		t.Fatalf("expected symbol_limit_exceeded, got %v", err)
	}
	if err := analyzer.CheckBudget(node, coreNames, 3); err != nil {
		t.Fatalf("expected within budget, got %v", err)
	}
}

func TestKeywordsCountTowardBudget(t *testing.T) {
	node := analyze(t, "[:a :a :b]")
	if n := analyzer.CountSymbols(node, map[string]bool{}); n != 2 {
		t.Fatalf("expected 2 distinct keywords, got %d", n)
	}
}

func TestRequiredDataKeys(t *testing.T) {
	node := analyze(t, "(do ctx/a (let [x ctx/b] (f ctx/a data/c)))")
	keys := analyzer.RequiredDataKeys(node)
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}
