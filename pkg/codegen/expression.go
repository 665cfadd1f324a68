package codegen

import (
	"github.com/pkg/errors"

	"rvcc.dev/compiler/pkg/ast"
)

// CodeGenerator owns the Mangler shared with the parser (so labels minted
// here can never collide with a unique_name minted while parsing) and
// drives compilation of a whole ast.Program. Per-function state lives in a
// CompilerState, constructed fresh for every FunctionDefinition.
type CodeGenerator struct {
	program *ast.Program
	mangler *ast.Mangler
}

// NewCodeGenerator builds a generator for program, reusing mangler (the same
// instance the parser used) so every label this stage mints stays globally
// unique alongside the parser's variable names.
func NewCodeGenerator(program *ast.Program, mangler *ast.Mangler) *CodeGenerator {
	return &CodeGenerator{program: program, mangler: mangler}
}

// label mints a family-prefixed unique label name, e.g. label("short_circuit_and") -> "short_circuit_and_12".
func (cg *CodeGenerator) label(family string) string {
	return cg.mangler.UniqueName(family)
}

// ----------------------------------------------------------------------------
// Expressions

// CompileExpr emits instructions that leave expr's value in A0. On entry and
// exit sp is 16-byte aligned and no live value depends on a temporary this
// call consumed.
func (cs *CompilerState) CompileExpr(cg *CodeGenerator, expr ast.Expression) error {
	switch e := expr.(type) {
	case ast.NumberExpr:
		cs.Emit(AddiInst{Rd: A0, Rs1: Zero, Imm: Imm(int(e.Value))})
		return nil

	case ast.VariableExpr:
		v, err := cs.Lookup(e.Name)
		if err != nil {
			return err
		}
		cs.Emit(LwInst{Rd: A0, Mem: At(v.Offset, Fp)})
		return nil

	case ast.FunctionSymbolExpr:
		cs.Emit(LaInst{Rd: A0, Label: e.Name})
		return nil

	case ast.UnaryExpr:
		return cs.compileUnary(cg, e)

	case ast.BinaryExpr:
		return cs.compileBinary(cg, e)

	case ast.TernaryExpr:
		return cs.compileTernary(cg, e)

	case ast.CallExpr:
		return cs.compileCall(cg, e)

	default:
		return errors.Errorf("codegen: unhandled expression type %T", expr)
	}
}

func (cs *CompilerState) compileUnary(cg *CodeGenerator, e ast.UnaryExpr) error {
	switch e.Op {
	case ast.UnaryNothing:
		// '&'/'*' degenerate to the function symbol itself; no instruction.
		return cs.CompileExpr(cg, e.Operand)

	case ast.UnaryPlus:
		return cs.CompileExpr(cg, e.Operand)

	case ast.UnaryNeg:
		if err := cs.CompileExpr(cg, e.Operand); err != nil {
			return err
		}
		cs.Emit(NegInst{Rd: A0, Rs1: A0})
		return nil

	case ast.UnaryNot:
		if err := cs.CompileExpr(cg, e.Operand); err != nil {
			return err
		}
		cs.Emit(XoriInst{Rd: A0, Rs1: A0, Imm: Imm(-1)})
		return nil

	case ast.UnaryLogNot:
		if err := cs.CompileExpr(cg, e.Operand); err != nil {
			return err
		}
		cs.Emit(SeqzInst{Rd: A0, Rs: A0})
		return nil

	case ast.UnaryRef:
		return cs.CompileLvalue(cg, e.Operand)

	case ast.UnaryDeref:
		if err := cs.CompileExpr(cg, e.Operand); err != nil {
			return err
		}
		cs.Emit(LwInst{Rd: A0, Mem: At(0, A0)})
		return nil

	case ast.UnaryPreInc, ast.UnaryPreDec:
		return cs.compilePrePostUpdate(cg, e.Operand, e.Op == ast.UnaryPreInc, true)

	case ast.UnaryPostInc, ast.UnaryPostDec:
		return cs.compilePrePostUpdate(cg, e.Operand, e.Op == ast.UnaryPostInc, false)

	default:
		return errors.Errorf("codegen: unhandled unary operator %q", e.Op)
	}
}

// compilePrePostUpdate implements ++/-- for both prefix and postfix forms.
//
// The source this is grounded on yields the post-update value for the
// postfix form too (it emits the address update, loads, then re-applies the
// same addi it used for the prefix form on the loaded result, undoing the
// increment for the returned value rather than preserving the pre-update
// one). That is not C semantics: postfix must yield the value the variable
// held *before* the update. This implementation saves the pre-update value
// in A0 before ever touching the stored value, so the two forms differ only
// in which value ends up live in A0 once the store has completed.
func (cs *CompilerState) compilePrePostUpdate(cg *CodeGenerator, operand ast.Expression, isInc bool, isPrefix bool) error {
	if err := cs.CompileLvalue(cg, operand); err != nil {
		return err
	}
	cs.Emit(MvInst{Rd: T0, Rs: A0}) // T0 := address of operand

	cs.Emit(LwInst{Rd: A0, Mem: At(0, T0)}) // A0 := pre-update value

	delta := 1
	if !isInc {
		delta = -1
	}
	cs.Emit(AddiInst{Rd: T1, Rs1: A0, Imm: Imm(delta)}) // T1 := updated value
	cs.Emit(SwInst{Rs: T1, Mem: At(0, T0)})             // store updated value

	if isPrefix {
		cs.Emit(MvInst{Rd: A0, Rs: T1}) // prefix yields the updated value
	}
	// postfix already holds the pre-update value in A0; nothing further to do.
	return nil
}

func (cs *CompilerState) compileBinary(cg *CodeGenerator, e ast.BinaryExpr) error {
	switch e.Op {
	case ast.BinLogAnd:
		return cs.compileLogicalAnd(cg, e)
	case ast.BinLogOr:
		return cs.compileLogicalOr(cg, e)
	case ast.BinComma:
		if err := cs.CompileExpr(cg, e.Lhs); err != nil {
			return err
		}
		return cs.CompileExpr(cg, e.Rhs)
	case ast.BinAssign:
		return cs.compileAssign(cg, e)
	case ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe:
		return cs.compileComparison(cg, e)
	}

	if base, ok := e.Op.CompoundBase(); ok {
		// Compound assignments are desugared here rather than by the parser:
		// 'a += b' compiles as 'a = a + b', duplicating the Lhs subexpression.
		// This is safe because Expression is a read-only DAG: the same Lhs
		// node is simply visited (and compiled) twice, once as an rvalue and
		// once as an lvalue, never mutated.
		return cs.compileAssign(cg, ast.BinaryExpr{
			Op:  ast.BinAssign,
			Lhs: e.Lhs,
			Rhs: ast.BinaryExpr{Op: base, Lhs: e.Lhs, Rhs: e.Rhs},
		})
	}

	return cs.compileArithmetic(cg, e)
}

// compileArithmetic handles every binary operator that evaluates both
// operands unconditionally and combines them with one instruction.
func (cs *CompilerState) compileArithmetic(cg *CodeGenerator, e ast.BinaryExpr) error {
	if err := cs.CompileExpr(cg, e.Lhs); err != nil {
		return err
	}
	cs.Emit(PushInst{Rs: A0})
	if err := cs.CompileExpr(cg, e.Rhs); err != nil {
		return err
	}
	cs.Emit(PopInst{Rd: A1}) // A1 := Lhs, A0 := Rhs

	switch e.Op {
	case ast.BinAdd:
		cs.Emit(AddInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinSub:
		cs.Emit(SubInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinMul:
		cs.Emit(MulInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinDiv:
		cs.Emit(DivInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinRem:
		cs.Emit(RemInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinAnd:
		cs.Emit(AndInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinOr:
		cs.Emit(OrInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinXor:
		cs.Emit(XorInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinShl:
		cs.Emit(SllInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinShr:
		// int is treated as unsigned end-to-end (documented choice), so the
		// logical shift is used unconditionally; no signed variant exists.
		cs.Emit(SrlInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinEq:
		cs.Emit(SeqInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinNe:
		cs.Emit(XorInst{Rd: A0, Rs1: A1, Rs2: A0})
		cs.Emit(SnezInst{Rd: A0, Rs: A0})
	default:
		return errors.Errorf("codegen: unhandled arithmetic operator %q", e.Op)
	}
	return nil
}

// compileComparison handles '<', '<=', '>', '>=', all rewritten in terms of
// 'sltu' (unsigned only, matching the documented choice to treat int as
// unsigned) and '==' plus logical negation.
//
//	a < b   ==  sltu(a, b)
//	a > b   ==  sltu(b, a)
//	a >= b  ==  !(a < b)
//	a <= b  ==  !(a > b)
func (cs *CompilerState) compileComparison(cg *CodeGenerator, e ast.BinaryExpr) error {
	op, lhs, rhs := e.Op, e.Lhs, e.Rhs
	negate := false

	switch op {
	case ast.BinGe:
		op, negate = ast.BinLt, true
	case ast.BinLe:
		op, negate = ast.BinGt, true
	}

	if err := cs.CompileExpr(cg, lhs); err != nil {
		return err
	}
	cs.Emit(PushInst{Rs: A0})
	if err := cs.CompileExpr(cg, rhs); err != nil {
		return err
	}
	cs.Emit(PopInst{Rd: A1}) // A1 := Lhs, A0 := Rhs

	switch op {
	case ast.BinLt:
		cs.Emit(SltuInst{Rd: A0, Rs1: A1, Rs2: A0})
	case ast.BinGt:
		cs.Emit(SltuInst{Rd: A0, Rs1: A0, Rs2: A1})
	default:
		return errors.Errorf("codegen: unhandled comparison operator %q", op)
	}

	if negate {
		cs.Emit(SeqzInst{Rd: A0, Rs: A0})
	}
	return nil
}

// compileLogicalAnd implements '&&': evaluate Lhs; if zero, short-circuit
// with the result already 0; otherwise evaluate Rhs and coerce it to 0/1.
func (cs *CompilerState) compileLogicalAnd(cg *CodeGenerator, e ast.BinaryExpr) error {
	end := cg.label("short_circuit_and")

	if err := cs.CompileExpr(cg, e.Lhs); err != nil {
		return err
	}
	cs.Emit(BeqzInst{Rs: A0, Label: end})

	if err := cs.CompileExpr(cg, e.Rhs); err != nil {
		return err
	}
	cs.Emit(SnezInst{Rd: A0, Rs: A0})

	cs.Emit(LabelInst{Name: end})
	return nil
}

// compileLogicalOr implements '||': evaluate Lhs; if nonzero, short-circuit
// with the result forced to 1; otherwise evaluate Rhs and coerce to 0/1.
func (cs *CompilerState) compileLogicalOr(cg *CodeGenerator, e ast.BinaryExpr) error {
	rhs := cg.label("short_circuit_or_rhs")
	end := cg.label("short_circuit_or_end")

	if err := cs.CompileExpr(cg, e.Lhs); err != nil {
		return err
	}
	cs.Emit(BeqzInst{Rs: A0, Label: rhs})
	cs.Emit(AddiInst{Rd: A0, Rs1: Zero, Imm: Imm(1)})
	cs.Emit(JInst{Label: end})

	cs.Emit(LabelInst{Name: rhs})
	if err := cs.CompileExpr(cg, e.Rhs); err != nil {
		return err
	}
	cs.Emit(SnezInst{Rd: A0, Rs: A0})

	cs.Emit(LabelInst{Name: end})
	return nil
}

// compileTernary implements 'cond ? then : else'.
func (cs *CompilerState) compileTernary(cg *CodeGenerator, e ast.TernaryExpr) error {
	elseLabel := cg.label("ternary_else")
	end := cg.label("ternary_end")

	if err := cs.CompileExpr(cg, e.Condition); err != nil {
		return err
	}
	cs.Emit(BeqzInst{Rs: A0, Label: elseLabel})

	if err := cs.CompileExpr(cg, e.Then); err != nil {
		return err
	}
	cs.Emit(JInst{Label: end})

	cs.Emit(LabelInst{Name: elseLabel})
	if err := cs.CompileExpr(cg, e.Else); err != nil {
		return err
	}

	cs.Emit(LabelInst{Name: end})
	return nil
}

// compileAssign implements plain assignment. The stored value is reloaded
// into A0 after the store so the expression yields the assigned value, the
// correct C semantics (storing from A1 and leaving the lvalue's address in
// A0, as an address rather than a value, would be wrong).
func (cs *CompilerState) compileAssign(cg *CodeGenerator, e ast.BinaryExpr) error {
	if err := cs.CompileExpr(cg, e.Rhs); err != nil {
		return err
	}
	cs.Emit(PushInst{Rs: A0})
	if err := cs.CompileLvalue(cg, e.Lhs); err != nil {
		return err
	}
	cs.Emit(PopInst{Rd: A1}) // A1 := Rhs, A0 := Lhs address
	cs.Emit(SwInst{Rs: A1, Mem: At(0, A0)})
	cs.Emit(MvInst{Rd: A0, Rs: A1}) // yield the assigned value
	return nil
}

// CompileLvalue emits instructions that leave an lvalue's address in A0. Only
// variables and dereference expressions are lvalues; any other expression
// is a hard error the parser should already have rejected at construction
// time.
func (cs *CompilerState) CompileLvalue(cg *CodeGenerator, expr ast.Expression) error {
	switch e := expr.(type) {
	case ast.VariableExpr:
		v, err := cs.Lookup(e.Name)
		if err != nil {
			return err
		}
		cs.Emit(AddiInst{Rd: A0, Rs1: Fp, Imm: Imm(v.Offset)})
		return nil

	case ast.UnaryExpr:
		if e.Op == ast.UnaryDeref {
			return cs.CompileExpr(cg, e.Operand)
		}
		return errors.Errorf("codegen: expression is not an lvalue (unary op %q)", e.Op)

	default:
		return errors.Errorf("codegen: expression of type %T is not an lvalue", expr)
	}
}

// ----------------------------------------------------------------------------
// Calls

// compileCall lowers a call site following the calling convention: the
// first eight arguments pass in A0..A7, the remainder on the stack at
// positive offsets from the pre-call sp.
func (cs *CompilerState) compileCall(cg *CodeGenerator, e ast.CallExpr) error {
	n := len(e.Args)
	regArgs, stackArgs := e.Args, []ast.Expression(nil)
	if n > 8 {
		regArgs, stackArgs = e.Args[:8], e.Args[8:]
	}

	stackBytes := roundUp16(4 * len(stackArgs))
	tempBytes := roundUp16(4 * len(regArgs))

	if stackBytes > 0 {
		cs.Emit(AddiInst{Rd: Sp, Rs1: Sp, Imm: Imm(-stackBytes)})
		cs.Emit(MvInst{Rd: S1, Rs: Sp}) // S1 := base of the stack-argument region
	}
	if tempBytes > 0 {
		cs.Emit(AddiInst{Rd: Sp, Rs1: Sp, Imm: Imm(-tempBytes)})
	}

	for i, arg := range stackArgs {
		if err := cs.CompileExpr(cg, arg); err != nil {
			return err
		}
		cs.Emit(SwInst{Rs: A0, Mem: At(4*i, S1)})
	}

	// Register-bound arguments are evaluated in reverse order into the
	// temporary spill (bottom slot holds the first argument), so that
	// evaluating a later argument can never clobber an earlier one that is
	// still only held in A0.
	for i := len(regArgs) - 1; i >= 0; i-- {
		if err := cs.CompileExpr(cg, regArgs[i]); err != nil {
			return err
		}
		cs.Emit(SwInst{Rs: A0, Mem: At(4*i, Sp)})
	}

	if err := cs.CompileExpr(cg, e.Callee); err != nil {
		return err
	}
	cs.Emit(MvInst{Rd: T0, Rs: A0})

	for i := range regArgs {
		cs.Emit(LwInst{Rd: ArgRegisters[i], Mem: At(4*i, Sp)})
	}

	if tempBytes > 0 {
		cs.Emit(AddiInst{Rd: Sp, Rs1: Sp, Imm: Imm(tempBytes)})
	}

	cs.Emit(JalrInst{Rd: Ra, Mem: At(0, T0)})

	if stackBytes > 0 {
		cs.Emit(AddiInst{Rd: Sp, Rs1: Sp, Imm: Imm(stackBytes)})
	}

	return nil
}
