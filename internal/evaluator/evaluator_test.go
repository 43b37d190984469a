package evaluator_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/andreasronge/ptclisp/internal/analyzer"
	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/evaluator"
	"github.com/andreasronge/ptclisp/internal/lexer"
	"github.com/andreasronge/ptclisp/internal/parser"
)

func evalSource(t *testing.T, src string, rc *evaluator.RunContext) evaluator.Object {
	t.Helper()
	prog, perr := parser.New(lexer.New(src).Tokens(), src).Parse()
	if perr != nil {
		t.Fatalf("parse %q: %v", src, perr)
	}
	node, aerr := analyzer.New().AnalyzeProgram(prog)
	if aerr != nil {
		t.Fatalf("analyze %q: %v", src, aerr)
	}
	return evaluator.New(rc).Eval(node, evaluator.NewEnvironment())
}

func evalString(t *testing.T, src string) evaluator.Object {
	t.Helper()
	return evalSource(t, src, evaluator.NewRunContext())
}

func wantRendered(t *testing.T, src, want string) {
	t.Helper()
	got := evalString(t, src)
	if err, ok := got.(*evaluator.Error); ok {
		t.Fatalf("%q: unexpected error %s: %s", src, err.Reason, err.Message)
	}
	if got.Inspect() != want {
		t.Fatalf("%q: expected %s, got %s", src, want, got.Inspect())
	}
}

func wantError(t *testing.T, src, reason string) *evaluator.Error {
	t.Helper()
	got := evalString(t, src)
	err, ok := got.(*evaluator.Error)
	if !ok {
		t.Fatalf("%q: expected %s error, got %s", src, reason, got.Inspect())
	}
	if err.Reason != reason {
		t.Fatalf("%q: expected %s, got %s (%s)", src, reason, err.Reason, err.Message)
	}
	return err
}

func TestScalarEvaluation(t *testing.T) {
	testCases := []struct{ src, want string }{
		{"(+ 1 2 3)", "6"},
		{"(- 10 3 2)", "5"},
		{"(- 5)", "-5"},
		{"(* 2 3 4)", "24"},
		{"(/ 10 2)", "5"},
		{"(/ 1 2)", "0.5"},
		{"(+ 1 2.5)", "3.5"},
		{"(mod 7 3)", "1"},
		{"(mod -7 3)", "2"},
		{"(inc 41)", "42"},
		{"(dec 1)", "0"},
		{"(max 1 9 4)", "9"},
		{"(min 1 9 4)", "1"},
		{"(= 1 1 1)", "true"},
		{"(= 1 1.0)", "true"},
		{"(= :a \"a\")", "false"},
		{"(not= 1 2)", "true"},
		{"(< 1 2 3)", "true"},
		{"(< 1 3 2)", "false"},
		{"(>= 3 3 2)", "true"},
		{"(not nil)", "true"},
		{"(not 0)", "false"},
		{"(and 1 2 3)", "3"},
		{"(and 1 nil 3)", "nil"},
		{"(or nil false 3)", "3"},
		{"(or nil false)", "false"},
		{"(if 0 :yes :no)", ":yes"},
		{"(if nil :yes :no)", ":no"},
		{"(str \"a\" 1 nil :k)", "\"a1:k\""},
		{"(do 1 2 3)", "3"},
	}
	for _, tc := range testCases {
		wantRendered(t, tc.src, tc.want)
	}
}

func TestSequenceBuiltins(t *testing.T) {
	testCases := []struct{ src, want string }{
		{"(count [1 2 3])", "3"},
		{"(count nil)", "0"},
		{"(first [1 2])", "1"},
		{"(first [])", "nil"},
		{"(last [1 2 3])", "3"},
		{"(nth [1 2 3] 1)", "2"},
		{"(nth [1 2 3] 9 :missing)", ":missing"},
		{"(take 2 [1 2 3])", "[1 2]"},
		{"(drop 2 [1 2 3])", "[3]"},
		{"(take-while pos? [2 1 -1 3])", "[2 1]"},
		{"(drop-while pos? [2 1 -1 3])", "[-1 3]"},
		{"(reverse [1 2 3])", "[3 2 1]"},
		{"(sort [3 1 2])", "[1 2 3]"},
		{"(sort [\"b\" \"a\"])", "[\"a\" \"b\"]"},
		{"(sort-by :n [{:n 2} {:n 1}])", "[{:n 1} {:n 2}]"},
		{"(distinct [1 2 1 3 2])", "[1 2 3]"},
		{"(concat [1] [2 3] [])", "[1 2 3]"},
		{"(flatten [1 [2 [3 4]] 5])", "[1 2 3 4 5]"},
		{"(conj [1 2] 3 4)", "[1 2 3 4]"},
		{"(conj nil 1)", "[1]"},
		{"(into [1] [2 3])", "[1 2 3]"},
		{"(into {} [[:a 1] [:b 2]])", "{:a 1 :b 2}"},
		{"(partition 2 [1 2 3 4 5])", "[[1 2] [3 4]]"},
		{"(partition 2 1 [1 2 3])", "[[1 2] [2 3]]"},
		{"(partition-by pos? [1 2 -1 -2 3])", "[[1 2] [-1 -2] [3]]"},
		{"(range 4)", "[0 1 2 3]"},
		{"(range 1 4)", "[1 2 3]"},
		{"(range 0 10 3)", "[0 3 6 9]"},
		{"(repeat 3 :x)", "[:x :x :x]"},
		{"(map inc [1 2 3])", "[2 3 4]"},
		{"(map + [1 2] [10 20])", "[11 22]"},
		{"(mapv :a [{:a 1} {:a 2}])", "[1 2]"},
		{"(filter pos? [1 -1 2])", "[1 2]"},
		{"(remove pos? [1 -1 2])", "[-1]"},
		{"(find pos? [-1 2 3])", "2"},
		{"(some pos? [-1 -2])", "nil"},
		{"(not-any? pos? [-1 -2])", "true"},
		{"(every? pos? [1 2])", "true"},
		{"(reduce + [1 2 3 4])", "10"},
		{"(reduce + 100 [1 2 3])", "106"},
		{"(combinations 2 [1 2 3])", "[[1 2] [1 3] [2 3]]"},
	}
	for _, tc := range testCases {
		wantRendered(t, tc.src, tc.want)
	}
}

func TestRangeRejectsZeroArgs(t *testing.T) {
	wantError(t, "(range)", diag.ArityError)
}

func TestMapBuiltins(t *testing.T) {
	testCases := []struct{ src, want string }{
		{"(get {:a 1} :a)", "1"},
		{"(get {:a 1} :b :default)", ":default"},
		{"(get {\"a\" 1} :a)", "1"},
		{"(get {:a 1} \"a\")", "1"},
		{"(get-in {:a {:b 2}} [:a :b])", "2"},
		{"(get-in {:a {:b 2}} [:a :c] 0)", "0"},
		{"(assoc {:a 1} :b 2)", "{:a 1 :b 2}"},
		{"(assoc nil :a 1)", "{:a 1}"},
		{"(assoc {\"a\" 1} :a 2)", "{\"a\" 2}"},
		{"(assoc-in {} [:a :b] 1)", "{:a {:b 1}}"},
		{"(dissoc {:a 1 :b 2} :a)", "{:b 2}"},
		{"(merge {:a 1} {:b 2} nil)", "{:a 1 :b 2}"},
		{"(merge nil nil)", "nil"},
		{"(select-keys {:a 1 :b 2 :c 3} [:a :c])", "{:a 1 :c 3}"},
		{"(update {:a 1} :a inc)", "{:a 2}"},
		{"(update {:a 1} :a + 10)", "{:a 11}"},
		{"(update-in {:a {:n 1}} [:a :n] inc)", "{:a {:n 2}}"},
		{"(contains? {:a nil} :a)", "true"},
		{"(contains? {:a 1} :b)", "false"},
		{"(keys {:a 1 :b 2})", "[:a :b]"},
		{"(vals {:a 1 :b 2})", "[1 2]"},
		{"(set [1 2 2 3])", "#{1 2 3}"},
		{"(vec #{1})", "[1]"},
		{"{:a 1 :a 2}", "{:a 2}"},
	}
	for _, tc := range testCases {
		wantRendered(t, tc.src, tc.want)
	}
}

func TestStringBuiltins(t *testing.T) {
	testCases := []struct{ src, want string }{
		{"(subs \"hello\" 1 3)", "\"el\""},
		{"(subs \"hello\" 3)", "\"lo\""},
		{"(join \", \" [1 2 3])", "\"1, 2, 3\""},
		{"(join [\"a\" \"b\"])", "\"ab\""},
		{"(split \"a,b,c\" \",\")", "[\"a\" \"b\" \"c\"]"},
		{"(trim \"  x \")", "\"x\""},
		{"(upper-case \"abc\")", "\"ABC\""},
		{"(lower-case \"ABC\")", "\"abc\""},
		{"(starts-with? \"hello\" \"he\")", "true"},
		{"(ends-with? \"hello\" \"lo\")", "true"},
		{"(includes? \"hello\" \"ell\")", "true"},
		{"(replace \"aaa\" \"a\" \"b\")", "\"bbb\""},
		{"(parse-long \"42\")", "42"},
		{"(parse-long \"x\")", "nil"},
		{"(parse-double \"1.5\")", "1.5"},
		{"(seq \"ab\")", "[\"a\" \"b\"]"},
		{"(seq [])", "nil"},
		{"(re-seq (re-pattern \"[0-9]+\") \"a1b22\")", "[\"1\" \"22\"]"},
		{"(re-split (re-pattern \",+\") \"a,,b,c\")", "[\"a\" \"b\" \"c\"]"},
	}
	for _, tc := range testCases {
		wantRendered(t, tc.src, tc.want)
	}
}

func TestAggregations(t *testing.T) {
	testCases := []struct{ src, want string }{
		{"(sum-by :n [{:n 1} {:n 2}])", "3"},
		{"(avg-by :n [{:n 1} {:n 3}])", "2.0"},
		{"(min-by :n [{:n 3} {:n 1}])", "{:n 1}"},
		{"(max-by :n [{:n 3} {:n 1}])", "{:n 3}"},
		{"(group-by :k [{:k :a :v 1} {:k :b :v 2} {:k :a :v 3}])",
			"{:a [{:k :a :v 1} {:k :a :v 3}] :b [{:k :b :v 2}]}"},
		{"(pluck :id [{:id 1} {:id 2}])", "[1 2]"},
	}
	for _, tc := range testCases {
		wantRendered(t, tc.src, tc.want)
	}
}

func TestHigherOrder(t *testing.T) {
	testCases := []struct{ src, want string }{
		{"(identity :x)", ":x"},
		{"((fnil inc 0) nil)", "1"},
		{"((fnil inc 0) 5)", "6"},
		{"((juxt :a :b) {:a 1 :b 2})", "[1 2]"},
		{"(map (juxt :a :b) [{:a 1 :b 2}])", "[[1 2]]"},
		{"((all-of pos? even?) 4)", "true"},
		{"((all-of pos? even?) 3)", "false"},
		{"((any-of neg? even?) 3)", "false"},
		{"((any-of neg? even?) 4)", "true"},
		{"((none-of neg?) 4)", "true"},
		{"(filter (all-of pos? even?) [1 2 -4 6])", "[2 6]"},
	}
	for _, tc := range testCases {
		wantRendered(t, tc.src, tc.want)
	}
}

func TestWherePredicates(t *testing.T) {
	items := "[{:id 1 :active true :tags [\"a\"]} {:id 2 :active false :tags []} {:id 3 :active true :status \"open\"}]"
	testCases := []struct{ src, want string }{
		{"(pluck :id (filter (where :active = true) " + items + "))", "[1 3]"},
		{"(pluck :id (filter (where :active not= true) " + items + "))", "[2]"},
		{"(pluck :id (filter (where :id > 1) " + items + "))", "[2 3]"},
		{"(pluck :id (filter (where :id <= 2) " + items + "))", "[1 2]"},
		{"(pluck :id (filter (where :tags includes \"a\") " + items + "))", "[1]"},
		{"(pluck :id (filter (where :id in [1 3]) " + items + "))", "[1 3]"},
		{"(pluck :id (filter (where :status) " + items + "))", "[3]"},
		// Keyword/string coercion on equality, both directions.
		{"(count (filter (where :status = :open) " + items + "))", "1"},
		{"(pluck :v (filter (where [:a :b] = 1) [{:a {:b 1} :v :hit} {:a {:b 2} :v :miss}]))", "[:hit]"},
	}
	for _, tc := range testCases {
		wantRendered(t, tc.src, tc.want)
	}
}

func TestVectorAsPredicateIsRejected(t *testing.T) {
	err := wantError(t, "(filter [:status] [{}])", diag.TypeError)
	if !strings.Contains(err.Message, "single keyword") {
		t.Fatalf("expected guidance toward single keyword, got %q", err.Message)
	}
}

func TestLetAndDestructuring(t *testing.T) {
	testCases := []struct{ src, want string }{
		{"(let [x 1 y (inc x)] (+ x y))", "3"},
		{"(let [[a b] [1 2 3]] [a b])", "[1 2]"},
		{"(let [[a b] [1]] [a b])", "[1 nil]"},
		{"(let [[a & rest] [1 2 3]] [a rest])", "[1 [2 3]]"},
		{"(let [[a & rest] [1]] rest)", "[]"},
		{"(let [{:keys [x y]} {:x 1 :y 2}] [x y])", "[1 2]"},
		{"(let [{:keys [x]} {\"x\" 5}] x)", "5"},
		{"(let [{:keys [x] :or {x 9}} {}] x)", "9"},
		{"(let [{:keys [x] :or {x 0}} {:x nil}] x)", "nil"},
		{"(let [{n :name} {:name \"a\"}] n)", "\"a\""},
		{"(let [{:keys [x] :as all} {:x 1}] [x all])", "[1 {:x 1}]"},
		{"(let [[a [b c]] [1 [2 3]]] [a b c])", "[1 2 3]"},
		{"(let [{:keys [x]} nil] x)", "nil"},
	}
	for _, tc := range testCases {
		wantRendered(t, tc.src, tc.want)
	}
}

func TestDestructureTypeErrors(t *testing.T) {
	wantError(t, "(let [[a] 5] a)", diag.TypeError)
	wantError(t, "(let [{:keys [a]} 5] a)", diag.TypeError)
}

func TestFunctions(t *testing.T) {
	testCases := []struct{ src, want string }{
		{"((fn [x] (* x 2)) 21)", "42"},
		{"((fn [x y] [x y]) 1)", "[1 nil]"},
		{"((fn [& args] args) 1 2 3)", "[1 2 3]"},
		{"((fn [a & args] [a args]) 1)", "[1 []]"},
		{"((fn [{:keys [n]}] n) {:n 7})", "7"},
		{"(#(+ % 10) 32)", "42"},
		{"(#(+ %1 %2) 1 2)", "3"},
		{"(map #(* % %) [1 2 3])", "[1 4 9]"},
	}
	for _, tc := range testCases {
		wantRendered(t, tc.src, tc.want)
	}
}

func TestSurplusArgsError(t *testing.T) {
	wantError(t, "((fn [x] x) 1 2)", diag.ArityMismatch)
}

func TestArityErrorsIncludeCounts(t *testing.T) {
	err := wantError(t, "(inc 1 2)", diag.ArityError)
	if !strings.Contains(err.Message, "1") || !strings.Contains(err.Message, "2") {
		t.Fatalf("expected declared and actual arity in %q", err.Message)
	}
}

func TestLoopRecur(t *testing.T) {
	wantRendered(t, "(loop [i 0 acc 0] (if (< i 5) (recur (inc i) (+ acc i)) acc))", "10")
	wantRendered(t, "(loop [i 0] (if (< i 900) (recur (inc i)) i))", "900")
	// fn self-recur through the trampoline, no stack growth.
	wantRendered(t, "((fn [n acc] (if (pos? n) (recur (dec n) (+ acc n)) acc)) 500 0)", "125250")
}

func TestLoopLimit(t *testing.T) {
	rc := evaluator.NewRunContext()
	rc.LoopLimit = 50
	result := evalSource(t, "(loop [i 0] (recur (inc i)))", rc)
	err, ok := result.(*evaluator.Error)
	if !ok || err.Reason != diag.LoopLimitExceeded {
		t.Fatalf("expected loop_limit_exceeded, got %s", result.Inspect())
	}
}

func TestDefAndNamespace(t *testing.T) {
	rc := evaluator.NewRunContext()
	result := evalSource(t, "(def answer 42) answer", rc)
	if result.Inspect() != "42" {
		t.Fatalf("expected 42, got %s", result.Inspect())
	}
	if names := rc.UserNS.DeltaNames(); len(names) != 1 || names[0] != "answer" {
		t.Fatalf("unexpected delta %v", names)
	}
}

func TestDefReturnsVarSentinel(t *testing.T) {
	wantRendered(t, "(def x 1)", "#'x")
}

func TestCannotShadowBuiltin(t *testing.T) {
	for _, name := range []string{"count", "map", "str", "+"} {
		src := fmt.Sprintf("(def %s 1)", name)
		wantError(t, src, diag.CannotShadowBuiltin)
	}
}

func TestUnboundVar(t *testing.T) {
	wantError(t, "nosuchthing", diag.UnboundVar)
}

func TestResolutionPrecedence(t *testing.T) {
	// Local beats user namespace.
	rc := evaluator.NewRunContext()
	rc.UserNS.Seed("x", &evaluator.Integer{Value: 1})
	result := evalSource(t, "(let [x 2] x)", rc)
	if result.Inspect() != "2" {
		t.Fatalf("expected local to win, got %s", result.Inspect())
	}
	// User namespace beats nothing but survives across forms.
	result = evalSource(t, "x", rc)
	if result.Inspect() != "1" {
		t.Fatalf("expected user namespace value, got %s", result.Inspect())
	}
}

func TestMemoryGetPut(t *testing.T) {
	rc := evaluator.NewRunContext()
	result := evalSource(t, "(do (memory/put :notes \"hi\") (memory/get :notes))", rc)
	if result.Inspect() != "\"hi\"" {
		t.Fatalf("expected \"hi\", got %s", result.Inspect())
	}
}

func TestClosuresCaptureEnvironment(t *testing.T) {
	wantRendered(t, "(let [n 10] ((fn [x] (+ x n)) 1))", "11")
	// The captured env is a snapshot: later loop iterations don't leak in.
	wantRendered(t,
		"(first (map #(%) (loop [i 0 fns []] (if (< i 3) (recur (inc i) (conj fns (let [j i] (fn [] j)))) fns))))",
		"0")
}

func TestMutualRecursionViaNamespace(t *testing.T) {
	src := `
(defn even2? [n] (if (= n 0) true (odd2? (dec n))))
(defn odd2? [n] (if (= n 0) false (even2? (dec n))))
(even2? 10)`
	rc := evaluator.NewRunContext()
	result := evalSource(t, src, rc)
	if result.Inspect() != "true" {
		t.Fatalf("expected true, got %s", result.Inspect())
	}
}

func TestPrintlnCapture(t *testing.T) {
	rc := evaluator.NewRunContext()
	evalSource(t, "(do (println \"hello\" 42) (println {:a 1.0}))", rc)
	if len(rc.Prints) != 2 {
		t.Fatalf("expected 2 prints, got %v", rc.Prints)
	}
	if rc.Prints[0] != "hello 42" {
		t.Fatalf("unexpected print %q", rc.Prints[0])
	}
	if rc.Prints[1] != "{:a 1.0}" {
		t.Fatalf("unexpected print %q", rc.Prints[1])
	}
}

func TestReturnAndFailSentinels(t *testing.T) {
	rc := evaluator.NewRunContext()
	result := evalSource(t, "(do (println \"a\") (return 1) (println \"b\"))", rc)
	ret, ok := result.(*evaluator.ReturnSignal)
	if !ok {
		t.Fatalf("expected return signal, got %s", result.Inspect())
	}
	if ret.Value.Inspect() != "1" {
		t.Fatalf("expected payload 1, got %s", ret.Value.Inspect())
	}
	if len(rc.Prints) != 1 {
		t.Fatalf("return must short-circuit the do, prints: %v", rc.Prints)
	}

	result = evalString(t, "(fail \"boom\")")
	fail, ok := result.(*evaluator.FailSignal)
	if !ok {
		t.Fatalf("expected fail signal, got %s", result.Inspect())
	}
	if fail.Value.Inspect() != "\"boom\"" {
		t.Fatalf("unexpected payload %s", fail.Value.Inspect())
	}
}

func TestFailInUnreachedBranchIsInert(t *testing.T) {
	result := evalString(t, "(if true (return 1) (fail \"never\"))")
	ret, ok := result.(*evaluator.ReturnSignal)
	if !ok {
		t.Fatalf("expected return, got %s", result.Inspect())
	}
	if ret.Value.Inspect() != "1" {
		t.Fatalf("expected 1, got %s", ret.Value.Inspect())
	}
}

func newTool(name string, fn func(args *evaluator.Map) (evaluator.Object, error)) *evaluator.Tool {
	return &evaluator.Tool{Name: name, Fn: fn}
}

func TestToolDispatchAndLogOrder(t *testing.T) {
	rc := evaluator.NewRunContext()
	rc.Tools["a"] = newTool("a", func(_ *evaluator.Map) (evaluator.Object, error) {
		return &evaluator.Integer{Value: 1}, nil
	})
	rc.Tools["b"] = newTool("b", func(args *evaluator.Map) (evaluator.Object, error) {
		val, _ := args.GetFlex(&evaluator.Keyword{Name: "x"})
		return val, nil
	})

	result := evalSource(t, "[(tool/a {}) (tool/b {:x 5}) (ctx/a {})]", rc)
	if result.Inspect() != "[1 5 1]" {
		t.Fatalf("unexpected result %s", result.Inspect())
	}
	if len(rc.ToolCalls) != 3 {
		t.Fatalf("expected 3 logged calls, got %d", len(rc.ToolCalls))
	}
	names := []string{rc.ToolCalls[0].Name, rc.ToolCalls[1].Name, rc.ToolCalls[2].Name}
	if names[0] != "a" || names[1] != "b" || names[2] != "a" {
		t.Fatalf("tool log out of order: %v", names)
	}
}

func TestToolNotFound(t *testing.T) {
	wantError(t, "(tool/missing {})", diag.ToolNotFound)
}

func TestToolArgsMustBeMap(t *testing.T) {
	rc := evaluator.NewRunContext()
	rc.Tools["a"] = newTool("a", func(_ *evaluator.Map) (evaluator.Object, error) {
		return evaluator.NilValue, nil
	})
	result := evalSource(t, "(tool/a [1 2])", rc)
	err, ok := result.(*evaluator.Error)
	if !ok || err.Reason != diag.InvalidForm {
		t.Fatalf("expected invalid_form, got %s", result.Inspect())
	}
}

func TestToolPanicBecomesToolError(t *testing.T) {
	rc := evaluator.NewRunContext()
	rc.Tools["bad"] = newTool("bad", func(_ *evaluator.Map) (evaluator.Object, error) {
		panic("kaboom")
	})
	result := evalSource(t, "(tool/bad {})", rc)
	err, ok := result.(*evaluator.Error)
	if !ok || err.Reason != diag.ToolError {
		t.Fatalf("expected tool_error, got %s", result.Inspect())
	}
}

func TestTaskJournal(t *testing.T) {
	calls := 0
	rc := evaluator.NewRunContext()
	rc.Journal = evaluator.NewJournal()
	rc.Tools["slow"] = newTool("slow", func(_ *evaluator.Map) (evaluator.Object, error) {
		calls++
		return &evaluator.Integer{Value: 99}, nil
	})

	result := evalSource(t, "(task \"k\" (tool/slow {}))", rc)
	if result.Inspect() != "99" {
		t.Fatalf("expected 99, got %s", result.Inspect())
	}
	if calls != 1 {
		t.Fatalf("expected 1 tool call, got %d", calls)
	}

	// Replay with the committed journal: the body never runs.
	rc2 := evaluator.NewRunContext()
	rc2.Journal = rc.Journal
	result = evalSource(t, "(task \"k\" (tool/missing {}))", rc2)
	if result.Inspect() != "99" {
		t.Fatalf("expected cached 99, got %s", result.Inspect())
	}
	if len(rc2.ToolCalls) != 0 {
		t.Fatal("cached task must not invoke tools")
	}
}

func TestTaskFailDoesNotCommit(t *testing.T) {
	rc := evaluator.NewRunContext()
	rc.Journal = evaluator.NewJournal()
	result := evalSource(t, "(task \"k\" (fail \"nope\"))", rc)
	if _, ok := result.(*evaluator.FailSignal); !ok {
		t.Fatalf("expected fail signal, got %s", result.Inspect())
	}
	if _, ok := rc.Journal.Get("k"); ok {
		t.Fatal("failed task must not commit to the journal")
	}
}

func TestTaskWithNilJournalAlwaysRuns(t *testing.T) {
	calls := 0
	rc := evaluator.NewRunContext()
	rc.Tools["t"] = newTool("t", func(_ *evaluator.Map) (evaluator.Object, error) {
		calls++
		return &evaluator.Integer{Value: int64(calls)}, nil
	})
	evalSource(t, "(do (task \"k\" (tool/t {})) (task \"k\" (tool/t {})))", rc)
	if calls != 2 {
		t.Fatalf("journal disabled: expected 2 calls, got %d", calls)
	}
}

func TestTaskReset(t *testing.T) {
	rc := evaluator.NewRunContext()
	rc.Journal = evaluator.NewJournal()
	evalSource(t, "(do (task \"k\" 1) (task-reset \"k\"))", rc)
	if _, ok := rc.Journal.Get("k"); ok {
		t.Fatal("task-reset must clear the journal entry")
	}
}

func TestStepDoneSummaries(t *testing.T) {
	rc := evaluator.NewRunContext()
	evalSource(t, "(step-done \"phase-1\" \"fetched orders\")", rc)
	if rc.Summaries["phase-1"] != "fetched orders" {
		t.Fatalf("unexpected summaries %v", rc.Summaries)
	}
}

func TestPmapOrderingAndIsolation(t *testing.T) {
	rc := evaluator.NewRunContext()
	result := evalSource(t, "(pmap #(* % 10) [1 2 3 4])", rc)
	if result.Inspect() != "[10 20 30 40]" {
		t.Fatalf("pmap must preserve input order, got %s", result.Inspect())
	}

	// Prints and defs inside workers never reach the outer context.
	rc = evaluator.NewRunContext()
	result = evalSource(t, "(do (pmap #(do (println %) (def leak %) %) [1 2 3]) (println \"after\"))", rc)
	if err, ok := result.(*evaluator.Error); ok {
		t.Fatalf("unexpected error %s: %s", err.Reason, err.Message)
	}
	if len(rc.Prints) != 1 || rc.Prints[0] != "after" {
		t.Fatalf("worker prints leaked: %v", rc.Prints)
	}
	if _, ok := rc.UserNS.Get("leak"); ok {
		t.Fatal("worker namespace writes leaked")
	}
}

func TestPmapAtomicFailure(t *testing.T) {
	rc := evaluator.NewRunContext()
	result := evalSource(t, "(pmap #(if (= % 2) (nosuch %) %) [1 2 3])", rc)
	err, ok := result.(*evaluator.Error)
	if !ok || err.Reason != diag.UnboundVar {
		t.Fatalf("expected the worker error, got %s", result.Inspect())
	}
}

func TestPcalls(t *testing.T) {
	wantRendered(t, "(pcalls (fn [] 1) (fn [] 2) #(+ 1 2))", "[1 2 3]")
	wantRendered(t, "(pcalls)", "[]")
}

func TestTurnHistoryRegisters(t *testing.T) {
	rc := evaluator.NewRunContext()
	rc.TurnHistory = []evaluator.Object{
		&evaluator.Integer{Value: 30},
		&evaluator.Integer{Value: 20},
		&evaluator.Integer{Value: 10},
	}
	result := evalSource(t, "[*1 *2 *3 (turn-history)]", rc)
	if result.Inspect() != "[30 20 10 [30 20 10]]" {
		t.Fatalf("unexpected %s", result.Inspect())
	}
}

func TestClosureCapturesTurnHistory(t *testing.T) {
	rc := evaluator.NewRunContext()
	rc.TurnHistory = []evaluator.Object{&evaluator.Integer{Value: 7}}
	result := evalSource(t, "(def f (fn [] *1)) (f)", rc)
	if result.Inspect() != "7" {
		t.Fatalf("expected captured history, got %s", result.Inspect())
	}
}

func TestBudgetRemaining(t *testing.T) {
	rc := evaluator.NewRunContext()
	rc.Budget = &evaluator.Integer{Value: 3}
	result := evalSource(t, "(budget-remaining)", rc)
	if result.Inspect() != "3" {
		t.Fatalf("expected 3, got %s", result.Inspect())
	}
}

func TestDateShims(t *testing.T) {
	wantRendered(t, "(.getTime (LocalDate/parse \"1970-01-02\"))", "86400000")
	wantRendered(t, "(.indexOf \"hello\" \"l\")", "2")
	wantRendered(t, "(.lastIndexOf \"hello\" \"l\")", "3")
	wantRendered(t, "(.indexOf [1 2 3] 2)", "1")
}
