package parser

import (
	"github.com/pkg/errors"

	"rvcc.dev/compiler/pkg/ast"
)

// innerDeclarator is the pre-typed intermediate tree C's mixed-fix
// declarator syntax folds into. Building this tree first and only then
// folding it right-to-left against a base type keeps the associativity
// rules of '*', '()' and parenthesized grouping from tangling with the type
// construction itself.
type innerDeclarator interface{}

// declAbstract is the empty leaf: no identifier, used only where an
// abstract (parameter) declarator is legal.
type declAbstract struct{}

// declIdent names the declared identifier.
type declIdent struct{ Name string }

// declPointer wraps Inner in one level of pointer-ness.
type declPointer struct{ Inner innerDeclarator }

// declFunction wraps Inner in a function type taking Params.
type declFunction struct {
	Params []paramDecl
	Inner  innerDeclarator
}

// paramDecl is one parameter of a declFunction: its primitive base type and
// its own (possibly abstract) declarator.
type paramDecl struct {
	Base       *ast.Datatype
	Declarator innerDeclarator
}

// ----------------------------------------------------------------------------
// Primitive types

// parsePrimitiveType parses the language's sole primitive type keyword,
// 'int'. 'void' is never a primitive type here; it only ever appears as the
// single-token empty-parameter-list marker.
func parsePrimitiveType(c *cursor) (*ast.Datatype, error) {
	if c.acceptPunct("int") {
		return ast.Int(), nil
	}
	return nil, errors.Errorf("parser: expected 'int', found %s", c.peek())
}

// ----------------------------------------------------------------------------
// Concrete declarators (identifier required)

// parseConcreteDeclarator parses a pointer-or-direct declarator, the form
// required everywhere a name must ultimately be present: top-level
// declarations and definitions.
func parseConcreteDeclarator(c *cursor) (innerDeclarator, error) {
	if c.acceptPunct("*") {
		inner, err := parseConcreteDeclarator(c)
		if err != nil {
			return nil, err
		}
		return declPointer{Inner: inner}, nil
	}
	return parseDirectDeclarator(c)
}

// parseDirectDeclarator parses a simple declarator optionally immediately
// followed by a parenthesized parameter list, which makes it a function
// declarator.
func parseDirectDeclarator(c *cursor) (innerDeclarator, error) {
	simple, err := parseSimpleDeclarator(c)
	if err != nil {
		return nil, err
	}

	if !c.atPunct("(") {
		return simple, nil
	}

	params, err := parseParamList(c)
	if err != nil {
		return nil, err
	}
	return declFunction{Params: params, Inner: simple}, nil
}

// parseSimpleDeclarator parses a bare identifier or a parenthesized
// (concrete, non-abstract) inner declarator.
func parseSimpleDeclarator(c *cursor) (innerDeclarator, error) {
	if name, ok := c.acceptIdent(); ok {
		return declIdent{Name: name}, nil
	}

	if c.acceptPunct("(") {
		inner, err := parseConcreteDeclarator(c)
		if err != nil {
			return nil, err
		}
		if err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	return nil, errors.Errorf("parser: expected identifier or '(', found %s", c.peek())
}

// parseParamList parses a parenthesized parameter list: either the single
// token 'void' (empty list) or a comma-separated run of
// (primitive-type, possibly-abstract declarator) pairs.
func parseParamList(c *cursor) ([]paramDecl, error) {
	if err := c.expectPunct("("); err != nil {
		return nil, err
	}

	if c.peek().Kind == TokIdent && c.peek().Text == "void" && c.peekAt(1).Text == ")" {
		c.advance() // 'void'
		c.advance() // ')'
		return nil, nil
	}

	var params []paramDecl
	if !c.atPunct(")") {
		for {
			base, err := parsePrimitiveType(c)
			if err != nil {
				return nil, err
			}
			decl, err := parseParamDeclarator(c)
			if err != nil {
				return nil, err
			}
			params = append(params, paramDecl{Base: base, Declarator: decl})

			if !c.acceptPunct(",") {
				break
			}
		}
	}

	if err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return params, nil
}

// parseParamDeclarator tries a concrete (named) declarator first, falling
// back to an abstract one; the two productions never overlap (a concrete
// declarator always bottoms out at an identifier, an abstract one never
// does), so trying concrete first and backtracking on failure is safe.
func parseParamDeclarator(c *cursor) (innerDeclarator, error) {
	save := c.mark()
	if decl, err := parseConcreteDeclarator(c); err == nil {
		return decl, nil
	}
	c.restore(save)
	return parseAbstractDeclarator(c)
}

// ----------------------------------------------------------------------------
// Abstract declarators (no identifier, used by unnamed parameters)

// parseAbstractDeclarator implements: '(' abstract-inner ')', or '*'
// followed by an optional abstract inner (defaulting to the Abstract leaf),
// or the empty production yielding Abstract. Only the parenthesized form can
// fail, when its closing ')' is missing; the other two always succeed.
func parseAbstractDeclarator(c *cursor) (innerDeclarator, error) {
	if c.acceptPunct("(") {
		inner, err := parseAbstractDeclarator(c)
		if err != nil {
			return nil, err
		}
		if err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	if c.acceptPunct("*") {
		save := c.mark()
		inner, err := parseAbstractDeclarator(c)
		if err != nil {
			c.restore(save)
			inner = declAbstract{}
		}
		return declPointer{Inner: inner}, nil
	}

	return declAbstract{}, nil
}

// ----------------------------------------------------------------------------
// Folding

// foldDeclarator folds inner against base right-to-left, implementing the C
// rule that type modifiers read right to left apply outward from the
// identifier: a Pointer wraps base before recursing into its inner with the
// new, wrapped base; a Function does likewise with a function type.
func foldDeclarator(inner innerDeclarator, base *ast.Datatype) (name string, typ *ast.Datatype, err error) {
	switch d := inner.(type) {
	case declIdent:
		return d.Name, base, nil

	case declAbstract:
		return "", base, nil

	case declPointer:
		return foldDeclarator(d.Inner, ast.PointerTo(base))

	case declFunction:
		args := make([]ast.Argument, 0, len(d.Params))
		for _, p := range d.Params {
			pName, pType, err := foldDeclarator(p.Declarator, p.Base)
			if err != nil {
				return "", nil, err
			}
			args = append(args, ast.Argument{Name: pName, Type: pType})
		}
		return foldDeclarator(d.Inner, ast.FunctionType(base, args))

	default:
		return "", nil, errors.Errorf("parser: internal error, unhandled declarator node %T", inner)
	}
}

// ParseDeclarator parses a full concrete declarator and folds it against
// base, returning the declared name and its fully resolved type.
func ParseDeclarator(c *cursor, base *ast.Datatype) (name string, typ *ast.Datatype, err error) {
	inner, err := parseConcreteDeclarator(c)
	if err != nil {
		return "", nil, err
	}
	return foldDeclarator(inner, base)
}
