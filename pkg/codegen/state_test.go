package codegen_test

import (
	"testing"

	"rvcc.dev/compiler/pkg/ast"
	"rvcc.dev/compiler/pkg/codegen"
)

func TestBuildFrameLocalsOnly(t *testing.T) {
	fn := &ast.FunctionDefinition{
		Name: "main",
		FlatScope: []ast.FrameVariable{
			{Name: "a_1", Type: ast.Int()},
			{Name: "b_2", Type: ast.Int()},
		},
	}

	frame := codegen.BuildFrame(fn)

	if frame.ArgCount != 0 {
		t.Fatalf("expected ArgCount 0, got %d", frame.ArgCount)
	}
	if frame.LocalsAlloc != 16 {
		t.Fatalf("expected LocalsAlloc 16 (8 bytes rounded up to 16), got %d", frame.LocalsAlloc)
	}

	a := frame.Variables["a_1"]
	if a.Offset != 0 || a.Location != codegen.LocationStack {
		t.Fatalf("expected a_1 at offset 0 (stack), got %+v", a)
	}

	b := frame.Variables["b_2"]
	if b.Offset != 4 || b.Location != codegen.LocationStack {
		t.Fatalf("expected b_2 at offset 4 (stack), got %+v", b)
	}
}

func TestBuildFrameLeaksNinthParameter(t *testing.T) {
	params := make([]ast.Argument, 9)
	flat := make([]ast.FrameVariable, 9)
	for i := range params {
		name := string(rune('a' + i))
		params[i] = ast.Argument{Name: name, Type: ast.Int()}
		flat[i] = ast.FrameVariable{Name: name, Type: ast.Int()}
	}

	fn := &ast.FunctionDefinition{Name: "f", Params: params, FlatScope: flat}
	frame := codegen.BuildFrame(fn)

	if frame.ArgCount != 8 {
		t.Fatalf("expected ArgCount 8, got %d", frame.ArgCount)
	}

	ninth := frame.Variables["i"] // the 9th parameter, 0-indexed 8
	if ninth.Location != codegen.LocationLeaked {
		t.Fatalf("expected the 9th parameter to be leaked, got %+v", ninth)
	}
	// prologueFixedSize(32) + localsAlloc(64, since the 8 spilled args are
	// counted once in localsSize and again via the +4*argCount widening) + 4*(8-8)
	if ninth.Offset != 32+64 {
		t.Fatalf("expected leaked offset 96, got %d", ninth.Offset)
	}

	first := frame.Variables["a"]
	if first.Location != codegen.LocationStack || first.Offset != 0 {
		t.Fatalf("expected first parameter at stack offset 0, got %+v", first)
	}
}

func TestCompilerStateLookupMissError(t *testing.T) {
	fn := &ast.FunctionDefinition{Name: "f"}
	cs := codegen.NewCompilerState(fn)

	if _, err := cs.Lookup("never_declared"); err == nil {
		t.Fatal("expected Lookup of an unknown variable to error")
	}
}
