package codegen

import "rvcc.dev/compiler/pkg/ast"

// emitPrologue allocates the fixed 32-byte save area (ra@0, fp@16, s1@24),
// allocates the locals region on top of it, sets fp to the new sp, and
// spills the register-bound arguments into their frame slots.
func (cs *CompilerState) emitPrologue() {
	cs.Emit(AddiInst{Rd: Sp, Rs1: Sp, Imm: Imm(-prologueFixedSize)})
	cs.Emit(SwInst{Rs: Ra, Mem: At(0, Sp)})
	cs.Emit(SwInst{Rs: Fp, Mem: At(16, Sp)})
	cs.Emit(SwInst{Rs: S1, Mem: At(24, Sp)})

	if cs.frame.LocalsAlloc > 0 {
		cs.Emit(AddiInst{Rd: Sp, Rs1: Sp, Imm: Imm(-cs.frame.LocalsAlloc)})
	}
	cs.Emit(MvInst{Rd: Fp, Rs: Sp})

	for i := 0; i < cs.frame.ArgCount; i++ {
		cs.Emit(SwInst{Rs: ArgRegisters[i], Mem: At(4*i, Fp)})
	}
}

// emitEpilogue undoes emitPrologue's allocations and returns. Every return
// statement (including the implicit 'return 0' appended to every function
// body) routes through this so sp is restored to its entry value along
// every reachable exit.
func (cs *CompilerState) emitEpilogue() {
	if cs.frame.LocalsAlloc > 0 {
		cs.Emit(AddiInst{Rd: Sp, Rs1: Sp, Imm: Imm(cs.frame.LocalsAlloc)})
	}
	cs.Emit(LwInst{Rd: S1, Mem: At(24, Sp)})
	cs.Emit(LwInst{Rd: Fp, Mem: At(16, Sp)})
	cs.Emit(LwInst{Rd: Ra, Mem: At(0, Sp)})
	cs.Emit(AddiInst{Rd: Sp, Rs1: Sp, Imm: Imm(prologueFixedSize)})
	cs.Emit(RetInst{})
}

// CompileFunction emits '.globl name', 'name:', the prologue, the body
// (with an implicit 'return 0' appended), and the epilogue.
func CompileFunction(cg *CodeGenerator, fn *ast.FunctionDefinition) ([]Instruction, error) {
	cs := NewCompilerState(fn)

	cs.Emit(SymbolInst{Text: "globl " + fn.Name})
	cs.Emit(LabelInst{Name: fn.Name})

	cs.emitPrologue()

	if err := cs.CompileScope(cg, fn.Body); err != nil {
		return nil, err
	}

	// Every function body implicitly returns 0 if control falls off the end.
	if err := cs.compileJump(cg, ast.JumpStmt{Kind: ast.JumpReturn, Value: ast.NumberExpr{Value: 0}}); err != nil {
		return nil, err
	}

	return cs.Instructions(), nil
}

// Generate walks the whole program and returns the normalized instruction
// stream ready for textual rendering. Function declarations (prototypes
// with no body) contribute nothing to the output; they exist purely so the
// parser can check later re-declarations and call sites against a known
// signature.
func (cg *CodeGenerator) Generate() ([]Instruction, error) {
	var program []Instruction

	for _, stmt := range cg.program.Statements {
		def, ok := stmt.(*ast.FunctionDefinition)
		if !ok {
			continue
		}

		instrs, err := CompileFunction(cg, def)
		if err != nil {
			return nil, err
		}
		program = append(program, instrs...)
	}

	return Normalize(program), nil
}
