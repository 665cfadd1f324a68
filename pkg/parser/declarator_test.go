package parser

import (
	"strings"
	"testing"

	"rvcc.dev/compiler/pkg/ast"
)

func parseDeclaratorFromSource(source string) (string, *ast.Datatype, error) {
	tokens, err := Lex(source)
	if err != nil {
		return "", nil, err
	}
	return ParseDeclarator(newCursor(tokens), ast.Int())
}

func TestParseDeclaratorShapes(t *testing.T) {
	cases := []struct {
		name   string
		source string
		check  func(t *testing.T, declName string, typ *ast.Datatype)
	}{
		{
			name:   "plain identifier",
			source: "x",
			check: func(t *testing.T, declName string, typ *ast.Datatype) {
				if declName != "x" || typ.Kind != ast.KindInt {
					t.Fatalf("expected (x, int), got (%s, %s)", declName, typ)
				}
			},
		},
		{
			name:   "single pointer",
			source: "*p",
			check: func(t *testing.T, declName string, typ *ast.Datatype) {
				if declName != "p" || typ.Kind != ast.KindPointer || typ.Inner.Kind != ast.KindInt {
					t.Fatalf("expected (p, int*), got (%s, %s)", declName, typ)
				}
			},
		},
		{
			name:   "pointer to pointer",
			source: "**pp",
			check: func(t *testing.T, declName string, typ *ast.Datatype) {
				if declName != "pp" || typ.Kind != ast.KindPointer || typ.Inner.Kind != ast.KindPointer {
					t.Fatalf("expected (pp, int**), got (%s, %s)", declName, typ)
				}
			},
		},
		{
			name:   "function returning int taking two ints",
			source: "f(int a, int b)",
			check: func(t *testing.T, declName string, typ *ast.Datatype) {
				if declName != "f" || !typ.IsFunction() || len(typ.Args) != 2 {
					t.Fatalf("expected (f, function/2), got (%s, %s)", declName, typ)
				}
			},
		},
		{
			name:   "function with empty void parameter list",
			source: "f(void)",
			check: func(t *testing.T, declName string, typ *ast.Datatype) {
				if declName != "f" || !typ.IsFunction() || len(typ.Args) != 0 {
					t.Fatalf("expected (f, function/0), got (%s, %s)", declName, typ)
				}
			},
		},
		{
			name:   "pointer to function via parenthesized declarator",
			source: "(*fp)(int a)",
			check: func(t *testing.T, declName string, typ *ast.Datatype) {
				if declName != "fp" || typ.Kind != ast.KindPointer || !typ.Inner.IsFunction() {
					t.Fatalf("expected (fp, function(int)*), got (%s, %s)", declName, typ)
				}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			name, typ, err := parseDeclaratorFromSource(c.source)
			if err != nil {
				t.Fatalf("parse error: %s", err)
			}
			c.check(t, name, typ)
		})
	}
}

func TestUnnamedParameterDeclaratorIsAbstract(t *testing.T) {
	name, typ, err := parseDeclaratorFromSource("f(int, int*)")
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	if name != "f" || len(typ.Args) != 2 {
		t.Fatalf("expected 2 unnamed args on f, got %s / %d args", name, len(typ.Args))
	}
	if typ.Args[0].Name != "" || typ.Args[1].Name != "" {
		t.Fatalf("expected unnamed parameters to carry an empty Name, got %q and %q", typ.Args[0].Name, typ.Args[1].Name)
	}
	if typ.Args[1].Type.Kind != ast.KindPointer {
		t.Fatalf("expected second unnamed parameter to be a pointer, got %s", typ.Args[1].Type)
	}
}

func TestDeclaratorRejectsMissingIdentifier(t *testing.T) {
	if _, _, err := parseDeclaratorFromSource("(*)"); err == nil {
		t.Fatal("expected a concrete declarator lacking any identifier to fail")
	}
}

func TestLexNumericLiterals(t *testing.T) {
	tokens, err := Lex("0x1F 0b101 0o17 42")
	if err != nil {
		t.Fatalf("lex error: %s", err)
	}

	want := []int32{31, 5, 15, 42}
	var got []int32
	for _, tok := range tokens {
		if tok.Kind == TokNumber {
			got = append(got, tok.Value)
		}
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d numeric tokens, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestLexRejectsShortRadixLiteral(t *testing.T) {
	if _, err := Lex("0x1"); err == nil {
		t.Fatal("expected a radix literal with fewer than 2 digits to be rejected")
	}
}

func TestLexRejectsUnknownCharacter(t *testing.T) {
	if _, err := Lex("int x = 1 @ 2;"); err == nil {
		t.Fatal("expected an unrecognized character to be rejected")
	}
}

func TestTokenString(t *testing.T) {
	tokens, err := Lex("foo")
	if err != nil {
		t.Fatalf("lex error: %s", err)
	}
	if !strings.Contains(tokens[0].String(), "foo") {
		t.Fatalf("expected Token.String() to mention the token text, got %q", tokens[0].String())
	}
}
