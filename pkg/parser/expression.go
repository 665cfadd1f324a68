package parser

import (
	"github.com/pkg/errors"

	"rvcc.dev/compiler/pkg/ast"
)

// ExprType infers an expression's type by the fold described for the
// expression grammar: literals are Int, variables/symbols carry their
// resolved type, address-of/dereference adjust pointer-ness by one level,
// arithmetic/bitwise/shift/compare and comma return one operand's type, and
// calls return the callee's return type. It never re-walks scope, only the
// already-resolved types cached on VariableExpr/FunctionSymbolExpr nodes.
func ExprType(e ast.Expression) (*ast.Datatype, error) {
	switch v := e.(type) {
	case ast.NumberExpr:
		return ast.Int(), nil

	case ast.VariableExpr:
		return v.Type, nil

	case ast.FunctionSymbolExpr:
		return v.Type, nil

	case ast.UnaryExpr:
		return unaryExprType(v)

	case ast.BinaryExpr:
		if v.Op == ast.BinComma {
			return ExprType(v.Rhs)
		}
		return ExprType(v.Lhs)

	case ast.TernaryExpr:
		return ExprType(v.Then)

	case ast.CallExpr:
		return callExprType(v)

	default:
		return nil, errors.Errorf("parser: internal error, unhandled expression type %T", e)
	}
}

func unaryExprType(v ast.UnaryExpr) (*ast.Datatype, error) {
	switch v.Op {
	case ast.UnaryRef:
		inner, err := ExprType(v.Operand)
		if err != nil {
			return nil, err
		}
		return ast.PointerTo(inner), nil

	case ast.UnaryDeref:
		inner, err := ExprType(v.Operand)
		if err != nil {
			return nil, err
		}
		if inner.Kind == ast.KindFunction {
			return inner, nil // dereferencing a function value is a no-op
		}
		if inner.Kind != ast.KindPointer {
			return nil, errors.Errorf("parser: cannot dereference non-pointer type %s", inner)
		}
		return inner.Inner, nil

	default:
		return ExprType(v.Operand)
	}
}

func callExprType(v ast.CallExpr) (*ast.Datatype, error) {
	calleeType, err := ExprType(v.Callee)
	if err != nil {
		return nil, err
	}
	switch calleeType.Kind {
	case ast.KindFunction:
		return calleeType.Return, nil
	case ast.KindPointer:
		if calleeType.Inner.Kind == ast.KindFunction {
			return calleeType.Inner.Return, nil
		}
	}
	return nil, errors.Errorf("parser: cannot call a value of type %s", calleeType)
}

// isLvalue reports whether expr is an lvalue: a variable, or a dereference.
func isLvalue(expr ast.Expression) bool {
	switch v := expr.(type) {
	case ast.VariableExpr:
		return true
	case ast.UnaryExpr:
		return v.Op == ast.UnaryDeref
	default:
		return false
	}
}

// ----------------------------------------------------------------------------
// L15: comma (lowest precedence, left-associative)

func ParseExpression(c *cursor, ps *ParserState) (ast.Expression, error) {
	lhs, err := parseAssignment(c, ps)
	if err != nil {
		return nil, err
	}
	for c.acceptPunct(",") {
		rhs, err := parseAssignment(c, ps)
		if err != nil {
			return nil, err
		}
		lhs = ast.BinaryExpr{Op: ast.BinComma, Lhs: lhs, Rhs: rhs}
	}
	return lhs, nil
}

// ----------------------------------------------------------------------------
// L14: assignment and compound assignment (right-associative)

var assignOps = map[string]ast.BinaryOpKind{
	"=": ast.BinAssign, "+=": ast.BinAssignAdd, "-=": ast.BinAssignSub,
	"*=": ast.BinAssignMul, "/=": ast.BinAssignDiv, "%=": ast.BinAssignRem,
	"<<=": ast.BinAssignShl, ">>=": ast.BinAssignShr,
	"&=": ast.BinAssignAnd, "^=": ast.BinAssignXor, "|=": ast.BinAssignOr,
}

func parseAssignment(c *cursor, ps *ParserState) (ast.Expression, error) {
	lhs, err := parseTernary(c, ps)
	if err != nil {
		return nil, err
	}

	op, ok := matchOp(c, assignOps)
	if !ok {
		return lhs, nil
	}
	if !isLvalue(lhs) {
		return nil, errors.New("parser: left-hand side of assignment is not an lvalue")
	}

	rhs, err := parseAssignment(c, ps) // right-associative: recurse into itself
	if err != nil {
		return nil, err
	}
	return ast.BinaryExpr{Op: op, Lhs: lhs, Rhs: rhs}, nil
}

// ----------------------------------------------------------------------------
// L13: ternary

func parseTernary(c *cursor, ps *ParserState) (ast.Expression, error) {
	cond, err := parseLogicalOr(c, ps)
	if err != nil {
		return nil, err
	}
	if !c.acceptPunct("?") {
		return cond, nil
	}

	then, err := ParseExpression(c, ps)
	if err != nil {
		return nil, err
	}
	if err := c.expectPunct(":"); err != nil {
		return nil, err
	}
	els, err := ParseExpression(c, ps)
	if err != nil {
		return nil, err
	}

	thenType, err := ExprType(then)
	if err != nil {
		return nil, err
	}
	elseType, err := ExprType(els)
	if err != nil {
		return nil, err
	}
	if !thenType.Equal(elseType) {
		return nil, errors.Errorf("parser: ternary branches have mismatched types %s and %s", thenType, elseType)
	}

	return ast.TernaryExpr{Condition: cond, Then: then, Else: els}, nil
}

// ----------------------------------------------------------------------------
// L12..L3: generic binary levels, left-associative

// matchOp consumes and returns the operator kind if the current token's text
// is a key of ops.
func matchOp(c *cursor, ops map[string]ast.BinaryOpKind) (ast.BinaryOpKind, bool) {
	t := c.peek()
	if t.Kind != TokPunct {
		return "", false
	}
	if op, ok := ops[t.Text]; ok {
		c.advance()
		return op, true
	}
	return "", false
}

// binaryLevel parses "the next lower-level term, then greedily consumes
// (operator, next-lower-level-term) pairs", the shared routine every
// left-associative precedence level is built from.
func binaryLevel(
	c *cursor, ps *ParserState,
	ops map[string]ast.BinaryOpKind,
	next func(*cursor, *ParserState) (ast.Expression, error),
) (ast.Expression, error) {
	lhs, err := next(c, ps)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := matchOp(c, ops)
		if !ok {
			return lhs, nil
		}
		rhs, err := next(c, ps)
		if err != nil {
			return nil, err
		}
		lhs = ast.BinaryExpr{Op: op, Lhs: lhs, Rhs: rhs}
	}
}

var logOrOps = map[string]ast.BinaryOpKind{"||": ast.BinLogOr}
var logAndOps = map[string]ast.BinaryOpKind{"&&": ast.BinLogAnd}
var bitOrOps = map[string]ast.BinaryOpKind{"|": ast.BinOr}
var bitXorOps = map[string]ast.BinaryOpKind{"^": ast.BinXor}
var bitAndOps = map[string]ast.BinaryOpKind{"&": ast.BinAnd}
var equalityOps = map[string]ast.BinaryOpKind{"==": ast.BinEq, "!=": ast.BinNe}
var relationalOps = map[string]ast.BinaryOpKind{
	"<": ast.BinLt, ">": ast.BinGt, "<=": ast.BinLe, ">=": ast.BinGe,
}
var shiftOps = map[string]ast.BinaryOpKind{"<<": ast.BinShl, ">>": ast.BinShr}
var additiveOps = map[string]ast.BinaryOpKind{"+": ast.BinAdd, "-": ast.BinSub}
var multiplicativeOps = map[string]ast.BinaryOpKind{"*": ast.BinMul, "/": ast.BinDiv, "%": ast.BinRem}

func parseLogicalOr(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, logOrOps, parseLogicalAnd)
}
func parseLogicalAnd(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, logAndOps, parseBitOr)
}
func parseBitOr(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, bitOrOps, parseBitXor)
}
func parseBitXor(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, bitXorOps, parseBitAnd)
}
func parseBitAnd(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, bitAndOps, parseEquality)
}
func parseEquality(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, equalityOps, parseRelational)
}
func parseRelational(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, relationalOps, parseShift)
}
func parseShift(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, shiftOps, parseAdditive)
}
func parseAdditive(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, additiveOps, parseMultiplicative)
}
func parseMultiplicative(c *cursor, ps *ParserState) (ast.Expression, error) {
	return binaryLevel(c, ps, multiplicativeOps, parseFactor)
}

// ----------------------------------------------------------------------------
// Factor: unary prefixes, postfix ++/--/call, terms

var unaryPrefixOps = map[string]ast.UnaryOpKind{
	"+": ast.UnaryPlus, "-": ast.UnaryNeg, "~": ast.UnaryNot, "!": ast.UnaryLogNot,
	"++": ast.UnaryPreInc, "--": ast.UnaryPreDec,
}

func parseFactor(c *cursor, ps *ParserState) (ast.Expression, error) {
	t := c.peek()
	if t.Kind == TokPunct {
		if t.Text == "&" || t.Text == "*" {
			c.advance()
			operand, err := parseFactor(c, ps)
			if err != nil {
				return nil, err
			}
			return applyRefOrDeref(t.Text, operand)
		}
		if op, ok := unaryPrefixOps[t.Text]; ok {
			c.advance()
			operand, err := parseFactor(c, ps)
			if err != nil {
				return nil, err
			}
			return ast.UnaryExpr{Op: op, Operand: operand}, nil
		}
	}

	return parsePostfix(c, ps)
}

// applyRefOrDeref builds '&operand' or '*operand', degenerating to
// UnaryNothing when operand is a function value: neither address-of nor
// dereference emits an instruction there, the function symbol already
// denotes its own address.
func applyRefOrDeref(opText string, operand ast.Expression) (ast.Expression, error) {
	operandType, err := ExprType(operand)
	if err != nil {
		return nil, err
	}
	if operandType.Kind == ast.KindFunction {
		return ast.UnaryExpr{Op: ast.UnaryNothing, Operand: operand}, nil
	}

	if opText == "&" {
		return ast.UnaryExpr{Op: ast.UnaryRef, Operand: operand}, nil
	}
	if operandType.Kind != ast.KindPointer {
		return nil, errors.Errorf("parser: cannot dereference non-pointer type %s", operandType)
	}
	return ast.UnaryExpr{Op: ast.UnaryDeref, Operand: operand}, nil
}

// parsePostfix parses a term followed by at most one of '++', '--', or a
// call's '(args)'; this grammar allows only one such postfix suffix, so the
// first one encountered resolves the factor.
func parsePostfix(c *cursor, ps *ParserState) (ast.Expression, error) {
	term, err := parseTerm(c, ps)
	if err != nil {
		return nil, err
	}

	switch {
	case c.acceptPunct("++"):
		return ast.UnaryExpr{Op: ast.UnaryPostInc, Operand: term}, nil
	case c.acceptPunct("--"):
		return ast.UnaryExpr{Op: ast.UnaryPostDec, Operand: term}, nil
	case c.atPunct("("):
		return parseCall(c, ps, term)
	default:
		return term, nil
	}
}

func parseCall(c *cursor, ps *ParserState, callee ast.Expression) (ast.Expression, error) {
	calleeType, err := ExprType(callee)
	if err != nil {
		return nil, err
	}
	sig := calleeType
	if sig.Kind == ast.KindPointer {
		sig = sig.Inner
	}
	if sig.Kind != ast.KindFunction {
		return nil, errors.Errorf("parser: cannot call a value of type %s", calleeType)
	}

	if err := c.expectPunct("("); err != nil {
		return nil, err
	}

	var args []ast.Expression
	if !c.atPunct(")") {
		for {
			arg, err := parseAssignment(c, ps)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !c.acceptPunct(",") {
				break
			}
		}
	}
	if err := c.expectPunct(")"); err != nil {
		return nil, err
	}

	if len(args) != len(sig.Args) {
		return nil, errors.Errorf("parser: call expects %d argument(s), found %d", len(sig.Args), len(args))
	}
	for i, arg := range args {
		argType, err := ExprType(arg)
		if err != nil {
			return nil, err
		}
		if !argType.Equal(sig.Args[i].Type) {
			return nil, errors.Errorf("parser: argument %d has type %s, expected %s", i+1, argType, sig.Args[i].Type)
		}
	}

	return ast.CallExpr{Callee: callee, Args: args}, nil
}

// parseTerm parses an identifier (resolved against scope), a number
// literal, or a parenthesized sub-expression.
func parseTerm(c *cursor, ps *ParserState) (ast.Expression, error) {
	t := c.peek()

	switch {
	case t.Kind == TokNumber:
		c.advance()
		return ast.NumberExpr{Value: t.Value}, nil

	case c.acceptPunct("("):
		expr, err := ParseExpression(c, ps)
		if err != nil {
			return nil, err
		}
		if err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		return expr, nil

	case t.Kind == TokIdent && !keywords[t.Text]:
		c.advance()
		if sym, err := ps.ResolveVariable(t.Text); err == nil {
			return ast.VariableExpr{Name: sym.UniqueName, Type: sym.Type}, nil
		}
		sym, err := ps.ResolveFunction(t.Text)
		if err != nil {
			return nil, err
		}
		return ast.FunctionSymbolExpr{Name: sym.Name, Type: sym.Type}, nil

	default:
		return nil, errors.Errorf("parser: expected expression, found %s", t)
	}
}
