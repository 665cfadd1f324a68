package parser

import (
	"github.com/pkg/errors"

	"rvcc.dev/compiler/pkg/ast"
	"rvcc.dev/compiler/pkg/utils"
)

// ParserSymbolKind tags what a ParserSymbol denotes.
type ParserSymbolKind string

const (
	SymVariable ParserSymbolKind = "variable" // a local declared in the current function
	SymArgument ParserSymbolKind = "argument" // a parameter of the current function
	SymFunction ParserSymbolKind = "function" // a top-level function name (static, not mangled)
)

// ParserSymbol is one entry of a lexical scope (or the top-level static
// symbol table): a surface name, its resolved type, and, for variables and
// arguments, the unique_name codegen keys frame slots by.
type ParserSymbol struct {
	Kind       ParserSymbolKind
	Name       string // surface name as written in source
	UniqueName string // mangled name; unused (empty) for SymFunction
	Type       *ast.Datatype
}

// ParserScopeState is one lexical scope's ordered symbol list, and also
// doubles as the per-function flat aggregate (the same struct shape is
// reused there since both are "an ordered list of ParserSymbol owned by a
// scope", per the data model).
type ParserScopeState struct {
	Symbols []ParserSymbol
}

// find looks up name among this scope's variables/arguments only (never
// functions, which live in the separate static table).
func (s *ParserScopeState) find(name string) (ParserSymbol, bool) {
	for i := len(s.Symbols) - 1; i >= 0; i-- {
		if s.Symbols[i].Name == name {
			return s.Symbols[i], true
		}
	}
	return ParserSymbol{}, false
}

// LoopKind distinguishes a loop's state entry from a switch's; both share
// the break-target machinery, but only a loop is a valid continue target.
type LoopKind string

const (
	LoopKindLoop   LoopKind = "loop"
	LoopKindSwitch LoopKind = "switch"
)

// LoopState is one entry of the loop/switch stack: the unique id minted for
// this construct (used to render its labels) and its kind.
type LoopState struct {
	ID   int
	Kind LoopKind
}

// ParserState is the mutable context threaded through parsing: the lexical
// scope stack (name resolution), the current function's flat scope
// aggregate (frame layout), the top-level static symbol table (function
// signatures), the loop/switch stack (break/continue targets), and the
// Mangler shared with code generation.
type ParserState struct {
	Mangler *ast.Mangler

	scopes utils.Stack[*ParserScopeState]

	functionScope *ParserScopeState // nil outside of a function body

	staticSymbols []ParserSymbol // top-level function signatures, by surface name
	loops         utils.Stack[LoopState]
}

// NewParserState seeds a fresh ParserState around mangler.
func NewParserState(mangler *ast.Mangler) *ParserState {
	return &ParserState{Mangler: mangler}
}

// ----------------------------------------------------------------------------
// Lexical scopes

// PushScope opens a new nested lexical scope (a compound statement, loop
// body, or function body).
func (ps *ParserState) PushScope() { ps.scopes.Push(&ParserScopeState{}) }

// PopScope closes the innermost lexical scope. Its entries remain reachable
// through the function's flat scope aggregate; only name resolution loses
// access to them.
func (ps *ParserState) PopScope() {
	_, _ = ps.scopes.Pop() // parser only ever pops scopes it pushed, 1:1
}

// PushFunctionScope opens a fresh flat aggregate for a new function
// definition, in addition to pushing its outermost lexical scope.
func (ps *ParserState) PushFunctionScope() {
	ps.functionScope = &ParserScopeState{}
	ps.PushScope()
}

// PopFunctionScope closes the function's outermost lexical scope and
// returns the flat aggregate captured while it was open, converting it to
// the ast.FrameVariable list codegen expects, in first-declared order.
func (ps *ParserState) PopFunctionScope() []ast.FrameVariable {
	ps.PopScope()

	flat := ps.functionScope
	ps.functionScope = nil

	out := make([]ast.FrameVariable, 0, len(flat.Symbols))
	for _, sym := range flat.Symbols {
		out = append(out, ast.FrameVariable{Name: sym.UniqueName, Type: sym.Type})
	}
	return out
}

// DeclareArgument registers a function parameter: it is visible in the
// current (outermost) lexical scope and appears first, in declaration
// order, in the function's flat scope aggregate.
func (ps *ParserState) DeclareArgument(name string, typ *ast.Datatype) (string, error) {
	return ps.declareLocal(name, typ, SymArgument)
}

// DeclareVariable registers a local variable declaration in the current
// lexical scope and the enclosing function's flat aggregate.
func (ps *ParserState) DeclareVariable(name string, typ *ast.Datatype) (string, error) {
	return ps.declareLocal(name, typ, SymVariable)
}

func (ps *ParserState) declareLocal(name string, typ *ast.Datatype, kind ParserSymbolKind) (string, error) {
	top, err := ps.scopes.Top()
	if err != nil {
		return "", errors.New("parser: internal error, no active lexical scope to declare into")
	}

	if _, redeclared := top.find(name); redeclared {
		return "", errors.Errorf("parser: %q already declared in this scope", name)
	}

	unique := ps.Mangler.UniqueName(name)
	sym := ParserSymbol{Kind: kind, Name: name, UniqueName: unique, Type: typ}

	top.Symbols = append(top.Symbols, sym)
	if ps.functionScope != nil {
		ps.functionScope.Symbols = append(ps.functionScope.Symbols, sym)
	}
	return unique, nil
}

// ResolveVariable looks up name as a variable or argument, innermost scope
// first, matching ordinary C lexical shadowing.
func (ps *ParserState) ResolveVariable(name string) (ParserSymbol, error) {
	for _, scope := range ps.scopes.FromTop() {
		if sym, ok := scope.find(name); ok {
			return sym, nil
		}
	}
	return ParserSymbol{}, errors.Errorf("parser: reference to undeclared identifier %q", name)
}

// ----------------------------------------------------------------------------
// Static (top-level function) symbols

// DeclareFunction registers or re-validates a top-level function signature.
// A first declaration is simply recorded; a re-declaration must match the
// previously recorded signature exactly, or this is a hard error.
func (ps *ParserState) DeclareFunction(name string, signature *ast.Datatype) error {
	for i, sym := range ps.staticSymbols {
		if sym.Name != name {
			continue
		}
		if !sym.Type.Equal(signature) {
			return errors.Errorf("parser: conflicting signature for %q: %s vs previously declared %s",
				name, signature, sym.Type)
		}
		ps.staticSymbols[i].Type = signature // definition may carry the canonical type
		return nil
	}

	ps.staticSymbols = append(ps.staticSymbols, ParserSymbol{Kind: SymFunction, Name: name, Type: signature})
	return nil
}

// ResolveFunction looks up a top-level function by name.
func (ps *ParserState) ResolveFunction(name string) (ParserSymbol, error) {
	for _, sym := range ps.staticSymbols {
		if sym.Name == name {
			return sym, nil
		}
	}
	return ParserSymbol{}, errors.Errorf("parser: reference to undeclared function %q", name)
}

// ----------------------------------------------------------------------------
// Loop / switch stack

// PushLoop mints a fresh unique id for a loop or switch construct and makes
// it the innermost break/continue target.
func (ps *ParserState) PushLoop(kind LoopKind) int {
	id := ps.Mangler.NextID()
	ps.loops.Push(LoopState{ID: id, Kind: kind})
	return id
}

// PopLoop discards the innermost loop/switch construct on exit.
func (ps *ParserState) PopLoop() {
	_, _ = ps.loops.Pop()
}

// BreakTarget returns the innermost enclosing loop or switch's id, the
// target of a 'break' statement at this point in parsing.
func (ps *ParserState) BreakTarget() (int, error) {
	if ps.loops.Empty() {
		return 0, errors.New("parser: 'break' outside of a loop or switch")
	}
	top, _ := ps.loops.Top()
	return top.ID, nil
}

// ContinueTarget returns the innermost enclosing *loop's* id (a switch
// never hosts a 'continue', it delegates to whatever loop encloses it).
func (ps *ParserState) ContinueTarget() (int, error) {
	for _, loop := range ps.loops.FromTop() {
		if loop.Kind == LoopKindLoop {
			return loop.ID, nil
		}
	}
	return 0, errors.New("parser: 'continue' outside of a loop")
}

// SwitchTarget returns the innermost enclosing switch's id, searching
// outward past any nested loops, for 'case'/'default' labels.
func (ps *ParserState) SwitchTarget() (int, error) {
	for _, loop := range ps.loops.FromTop() {
		if loop.Kind == LoopKindSwitch {
			return loop.ID, nil
		}
	}
	return 0, errors.New("parser: 'case'/'default' outside of a switch")
}
