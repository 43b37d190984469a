package serializer_test

import (
	"reflect"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/andreasronge/ptclisp/internal/analyzer"
	"github.com/andreasronge/ptclisp/internal/core"
	"github.com/andreasronge/ptclisp/internal/lexer"
	"github.com/andreasronge/ptclisp/internal/parser"
	"github.com/andreasronge/ptclisp/internal/serializer"
)

func analyze(t *testing.T, src string) core.Node {
	t.Helper()
	prog, perr := parser.New(lexer.New(src).Tokens(), src).Parse()
	if perr != nil {
		t.Fatalf("parse %q: %v", src, perr)
	}
	node, aerr := analyzer.New().AnalyzeProgram(prog)
	if aerr != nil {
		t.Fatalf("analyze %q: %v", src, aerr)
	}
	return node
}

// The serializer's contract: re-reading its output analyzes to the same
// core program.
func TestRoundTrip(t *testing.T) {
	corpus := []string{
		"nil",
		"true",
		"42",
		"-1.5",
		"\"hi\\nthere\"",
		":kw",
		"[1 2 3]",
		"{:a 1 :b [2 3]}",
		"#{1 2}",
		"(+ 1 2 3)",
		"(if a b c)",
		"(do 1 2 3)",
		"(and a b)",
		"(or a b)",
		"(let [x 1 [a b] v] (+ x a))",
		"(let [{:keys [x y] :or {x 0}} m] x)",
		"(loop [i 0] (if (< i 5) (recur (inc i)) i))",
		"(fn [x & rest] (conj rest x))",
		"(def answer 42)",
		"(defn twice [x] (* x 2))",
		"(when a b c)",
		"(cond a 1 b 2 :else 3)",
		"(-> x (f 1) g)",
		"(->> items (filter pos?) (map inc))",
		"#(+ % 1)",
		"(where :active = true)",
		"(where [:a :b] includes \"x\")",
		"(where :present)",
		"(all-of pos? even?)",
		"(task \"id\" (tool/fetch {:x 1}))",
		"(step-done \"s\" \"done\")",
		"(task-reset \"s\")",
		"(pmap inc [1 2 3])",
		"(pcalls (fn [] 1))",
		"(juxt :a :b)",
		"(return 1)",
		"(fail \"m\")",
		"(budget-remaining)",
		"(turn-history)",
		"(memory/put :k 1)",
		"(memory/get :k)",
		"ctx/user",
		"(tool/fetch)",
		"(ctx/fetch {:a 1})",
		"(let [{n :name :as all} m] [n all])",
	}

	for _, src := range corpus {
		first := analyze(t, src)
		printed := serializer.Print(first)
		second := analyze(t, printed)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("round trip failed for %q:\n  printed: %s\n  first:  %#v\n  second: %#v",
				src, printed, first, second)
		}
	}
}

func TestClosureRendering(t *testing.T) {
	node := analyze(t, "(fn [x] (* x 2))")
	fn := node.(core.Fn)
	got := serializer.PrintFn(fn.Params, fn.Variadic, fn.Body)
	if got != "(fn [x] (* x 2))" {
		t.Fatalf("expected canonical fn form, got %q", got)
	}
}

func TestSerializeSnapshots(t *testing.T) {
	programs := []string{
		"(defn report [{:keys [name age]}] (str name \" is \" age))",
		"(->> ctx/items (filter (where :active = true)) (pluck :id))",
		"(loop [i 0 acc []] (if (< i 3) (recur (inc i) (conj acc i)) acc))",
	}
	for _, src := range programs {
		snaps.MatchSnapshot(t, serializer.Print(analyze(t, src)))
	}
}
