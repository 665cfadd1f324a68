package ast_test

import (
	"testing"

	"rvcc.dev/compiler/pkg/ast"
)

func TestDatatypeSize(t *testing.T) {
	cases := []struct {
		name string
		typ  *ast.Datatype
		want int
	}{
		{"int", ast.Int(), 4},
		{"pointer", ast.PointerTo(ast.Int()), 4},
		{"function", ast.FunctionType(ast.Int(), nil), 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.typ.Size(); got != c.want {
				t.Errorf("Size() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestDatatypeEqual(t *testing.T) {
	intFn := ast.FunctionType(ast.Int(), []ast.Argument{{Name: "a", Type: ast.Int()}})
	intFnDifferentName := ast.FunctionType(ast.Int(), []ast.Argument{{Name: "b", Type: ast.Int()}})
	ptrFn := ast.FunctionType(ast.PointerTo(ast.Int()), []ast.Argument{{Name: "a", Type: ast.Int()}})

	t.Run("identical primitives are equal", func(t *testing.T) {
		if !ast.Int().Equal(ast.Int()) {
			t.Fatal("expected two Int() instances to be Equal")
		}
	})

	t.Run("pointer levels must match", func(t *testing.T) {
		if ast.PointerTo(ast.Int()).Equal(ast.PointerTo(ast.PointerTo(ast.Int()))) {
			t.Fatal("int* should not equal int**")
		}
	})

	t.Run("argument names are ignored, only types matter", func(t *testing.T) {
		if !intFn.Equal(intFnDifferentName) {
			t.Fatal("expected signatures differing only in parameter name to be Equal")
		}
	})

	t.Run("differing return types are not equal", func(t *testing.T) {
		if intFn.Equal(ptrFn) {
			t.Fatal("expected differing return types to not be Equal")
		}
	})
}

func TestDatatypeIsFunction(t *testing.T) {
	if ast.Int().IsFunction() {
		t.Fatal("int should not report IsFunction")
	}
	if !ast.FunctionType(ast.Int(), nil).IsFunction() {
		t.Fatal("a function type should report IsFunction")
	}
}
