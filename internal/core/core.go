package core

// Package core defines the canonical AST the analyzer produces and the
// evaluator consumes. Surface sugar (threading, cond, short fns, when,
// if-let) never reaches this representation.

type Node interface {
	coreNode()
}

// --- Literals ---

type Nil struct{}

type Bool struct{ Value bool }

type Int struct{ Value int64 }

type Float struct{ Value float64 }

type Str struct{ Value string }

type Keyword struct{ Name string }

func (Nil) coreNode()     {}
func (Bool) coreNode()    {}
func (Int) coreNode()     {}
func (Float) coreNode()   {}
func (Str) coreNode()     {}
func (Keyword) coreNode() {}

// --- References ---

// Var is a bare symbol reference, resolved at eval time against the
// local env, then the user namespace, then the builtins.
type Var struct{ Name string }

// Data is a ctx/name context access.
type Data struct{ Name string }

// MemoryGet reads a user-namespace binding by evaluated key.
type MemoryGet struct{ Key Node }

// MemoryPut writes a user-namespace binding by evaluated key.
type MemoryPut struct {
	Key   Node
	Value Node
}

// TurnRegister is one of *1 *2 *3.
type TurnRegister struct{ Index int } // 1-based

type BudgetRemaining struct{}

type TurnHistory struct{}

func (Var) coreNode()             {}
func (Data) coreNode()            {}
func (MemoryGet) coreNode()       {}
func (MemoryPut) coreNode()       {}
func (TurnRegister) coreNode()    {}
func (BudgetRemaining) coreNode() {}
func (TurnHistory) coreNode()     {}

// --- Collections ---

type VectorLit struct{ Items []Node }

type MapPair struct {
	Key   Node
	Value Node
}

type MapLit struct{ Pairs []MapPair }

type SetLit struct{ Items []Node }

func (VectorLit) coreNode() {}
func (MapLit) coreNode()    {}
func (SetLit) coreNode()    {}

// --- Control flow ---

type If struct {
	Cond Node
	Then Node
	Else Node // nil for single-branch if / when
}

type Do struct{ Exprs []Node }

type And struct{ Exprs []Node }

type Or struct{ Exprs []Node }

func (If) coreNode()  {}
func (Do) coreNode()  {}
func (And) coreNode() {}
func (Or) coreNode()  {}

// --- Bindings ---

type Binding struct {
	Pattern Pattern
	Value   Node
}

type Let struct {
	Bindings []Binding
	Body     []Node
}

type Loop struct {
	Bindings []Binding
	Body     []Node
}

type Recur struct{ Args []Node }

func (Let) coreNode()   {}
func (Loop) coreNode()  {}
func (Recur) coreNode() {}

// --- Functions ---

type Fn struct {
	Params   []Pattern
	Variadic Pattern // non-nil when the param vector carries & rest
	Body     []Node
	Doc      string
}

type Def struct {
	Name  string
	Value Node
}

type Call struct {
	Fn   Node
	Args []Node
}

func (Fn) coreNode()   {}
func (Def) coreNode()  {}
func (Call) coreNode() {}

// --- Tooling and journal ---

// CallTool invokes a host tool. Arg is the (optional) args-map expression;
// at runtime it must evaluate to a map. ViaCtx marks the ctx/<name> spelling.
type CallTool struct {
	Name   string
	Arg    Node
	ViaCtx bool
}

type Task struct {
	ID   Node
	Body []Node
}

type StepDone struct {
	ID   Node
	Text Node
}

type TaskReset struct{ ID Node }

func (CallTool) coreNode()  {}
func (Task) coreNode()      {}
func (StepDone) coreNode()  {}
func (TaskReset) coreNode() {}

// --- Parallel and combinators ---

type Pmap struct {
	Fn   Node
	Coll Node
}

type Pcalls struct{ Thunks []Node }

type Juxt struct{ Fns []Node }

// Where is the normalised (where field op value) predicate.
// Path elements are map keys; keyword/string flex lookup applies.
type Where struct {
	Path  []string
	Op    WhereOp
	Value Node // nil for the unary truthy form
}

type WhereOp string

const (
	WhereEq       WhereOp = "eq"
	WhereNotEq    WhereOp = "not_eq"
	WhereGt       WhereOp = "gt"
	WhereLt       WhereOp = "lt"
	WhereGte     WhereOp = "gte"
	WhereLte     WhereOp = "lte"
	WhereIncludes WhereOp = "includes"
	WhereIn       WhereOp = "in"
	WhereTruthy   WhereOp = "truthy"
)

// PredComb is all-of / any-of / none-of over predicate values.
type PredComb struct {
	Kind  string // "all-of" | "any-of" | "none-of"
	Preds []Node
}

func (Pmap) coreNode()     {}
func (Pcalls) coreNode()   {}
func (Juxt) coreNode()     {}
func (Where) coreNode()    {}
func (PredComb) coreNode() {}

// --- Early exit ---

type Return struct{ Expr Node }

type Fail struct{ Expr Node }

func (Return) coreNode() {}
func (Fail) coreNode()   {}
