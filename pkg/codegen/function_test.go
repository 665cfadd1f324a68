package codegen_test

import (
	"testing"

	"rvcc.dev/compiler/pkg/ast"
	"rvcc.dev/compiler/pkg/codegen"
)

// TestPrologueEpilogueStackBalance checks the invariant from the pipeline's
// worked properties: the bytes a function's prologue subtracts from sp
// exactly equal the bytes its epilogue adds back, across both the fixed
// save area and the locals region.
func TestPrologueEpilogueStackBalance(t *testing.T) {
	fn := &ast.FunctionDefinition{
		Name: "main",
		Body: &ast.Scope{},
		FlatScope: []ast.FrameVariable{
			{Name: "a_1", Type: ast.Int()},
			{Name: "b_2", Type: ast.Int()},
			{Name: "c_3", Type: ast.Int()},
		},
	}

	cg := codegen.NewCodeGenerator(&ast.Program{}, ast.NewMangler())
	instrs, err := codegen.CompileFunction(cg, fn)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	allocated, deallocated := 0, 0
	for _, inst := range instrs {
		addi, ok := inst.(codegen.AddiInst)
		if !ok || addi.Rd != codegen.Sp || addi.Rs1 != codegen.Sp {
			continue
		}
		if addi.Imm.Number < 0 {
			allocated += -addi.Imm.Number
		} else {
			deallocated += addi.Imm.Number
		}
	}

	if allocated == 0 {
		t.Fatal("expected at least one sp-decrementing instruction")
	}
	if allocated != deallocated {
		t.Fatalf("stack allocation (%d) and deallocation (%d) bytes must match", allocated, deallocated)
	}
}

func TestCompileFunctionEmitsGloblAndLabel(t *testing.T) {
	fn := &ast.FunctionDefinition{Name: "add", Body: &ast.Scope{}}
	cg := codegen.NewCodeGenerator(&ast.Program{}, ast.NewMangler())

	instrs, err := codegen.CompileFunction(cg, fn)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(instrs) < 2 {
		t.Fatalf("expected at least a .globl and a label instruction, got %d", len(instrs))
	}

	sym, ok := instrs[0].(codegen.SymbolInst)
	if !ok || sym.Text != "globl add" {
		t.Fatalf("expected first instruction to be 'globl add', got %#v", instrs[0])
	}
	lbl, ok := instrs[1].(codegen.LabelInst)
	if !ok || lbl.Name != "add" {
		t.Fatalf("expected second instruction to be label 'add', got %#v", instrs[1])
	}

	last := instrs[len(instrs)-1]
	if _, ok := last.(codegen.RetInst); !ok {
		t.Fatalf("expected the function to end with ret, got %#v", last)
	}
}
