package parser

import (
	"github.com/pkg/errors"

	"rvcc.dev/compiler/pkg/ast"
)

// parseScope parses a braced compound statement, opening a fresh lexical
// scope for its declarations and closing it again on '}'. The declarations
// it registers remain reachable through the enclosing function's flat scope
// aggregate after the scope closes.
func parseScope(c *cursor, ps *ParserState) (*ast.Scope, error) {
	if err := c.expectPunct("{"); err != nil {
		return nil, err
	}
	ps.PushScope()

	var items []ast.ScopeItem
	for !c.atPunct("}") {
		item, err := parseScopeItem(c, ps)
		if err != nil {
			ps.PopScope()
			return nil, err
		}
		items = append(items, item)
	}

	ps.PopScope()
	if err := c.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.Scope{Items: items}, nil
}

// parseScopeItem parses one entry of a scope's item list: a declaration, a
// case/default label, or an ordinary statement.
func parseScopeItem(c *cursor, ps *ParserState) (ast.ScopeItem, error) {
	switch c.peek().Text {
	case "int":
		decl, err := parseDeclaration(c, ps)
		if err != nil {
			return ast.ScopeItem{}, err
		}
		return ast.ScopeItem{Kind: ast.ItemDeclaration, Declaration: decl}, nil

	case "case":
		return parseCaseLabel(c, ps)

	case "default":
		return parseDefaultLabel(c, ps)

	default:
		stmt, err := parseStatement(c, ps)
		if err != nil {
			return ast.ScopeItem{}, err
		}
		return ast.ScopeItem{Kind: ast.ItemStatement, Statement: stmt}, nil
	}
}

// parseDeclaration parses 'int <declarator> [= <expr>] ;'. The language has
// no nested typedefs or local function prototypes, so every local
// declaration names a variable; a declarator that folds to a function type
// inside a scope body is rejected.
func parseDeclaration(c *cursor, ps *ParserState) (*ast.Declaration, error) {
	base, err := parsePrimitiveType(c)
	if err != nil {
		return nil, err
	}
	name, typ, err := ParseDeclarator(c, base)
	if err != nil {
		return nil, err
	}
	if typ.IsFunction() {
		return nil, errors.New("parser: local function declarations are not supported")
	}
	if name == "" {
		return nil, errors.New("parser: variable declaration requires a name")
	}

	unique, err := ps.DeclareVariable(name, typ)
	if err != nil {
		return nil, err
	}

	var init ast.Expression
	if c.acceptPunct("=") {
		init, err = ParseExpression(c, ps)
		if err != nil {
			return nil, err
		}
	}
	if err := c.expectPunct(";"); err != nil {
		return nil, err
	}

	return &ast.Declaration{Name: unique, Type: typ, Init: init}, nil
}

func parseCaseLabel(c *cursor, ps *ParserState) (ast.ScopeItem, error) {
	c.advance() // 'case'
	valueExpr, err := ParseExpression(c, ps)
	if err != nil {
		return ast.ScopeItem{}, err
	}
	if err := c.expectPunct(":"); err != nil {
		return ast.ScopeItem{}, err
	}

	value, ok := ast.Fold(valueExpr)
	if !ok {
		return ast.ScopeItem{}, errors.New("parser: case label requires a compile-time constant expression")
	}
	id, err := ps.SwitchTarget()
	if err != nil {
		return ast.ScopeItem{}, err
	}

	return ast.ScopeItem{Kind: ast.ItemLabel, Label: &ast.Label{Kind: ast.LabelCase, ID: id, Value: int32(value)}}, nil
}

func parseDefaultLabel(c *cursor, ps *ParserState) (ast.ScopeItem, error) {
	c.advance() // 'default'
	if err := c.expectPunct(":"); err != nil {
		return ast.ScopeItem{}, err
	}
	id, err := ps.SwitchTarget()
	if err != nil {
		return ast.ScopeItem{}, err
	}
	return ast.ScopeItem{Kind: ast.ItemLabel, Label: &ast.Label{Kind: ast.LabelDefault, ID: id}}, nil
}

// parseStatement parses any of if/while/for/switch/break/continue/return/
// __ebreak/null/expression/compound statement, dispatching on the leading
// token.
func parseStatement(c *cursor, ps *ParserState) (ast.Statement, error) {
	if c.atPunct("{") {
		body, err := parseScope(c, ps)
		if err != nil {
			return nil, err
		}
		return ast.ScopeStmt{Body: body}, nil
	}

	switch c.peek().Text {
	case "if":
		return parseIf(c, ps)
	case "while":
		return parseWhile(c, ps)
	case "for":
		return parseFor(c, ps)
	case "switch":
		return parseSwitch(c, ps)
	case "break":
		return parseBreak(c, ps)
	case "continue":
		return parseContinue(c, ps)
	case "return":
		return parseReturn(c, ps)
	case "__ebreak":
		c.advance()
		if err := c.expectPunct(";"); err != nil {
			return nil, err
		}
		return ast.EbreakStmt{}, nil
	case ";":
		c.advance()
		return ast.NullStmt{}, nil
	default:
		expr, err := ParseExpression(c, ps)
		if err != nil {
			return nil, err
		}
		if err := c.expectPunct(";"); err != nil {
			return nil, err
		}
		return ast.ExprStmt{Expr: expr}, nil
	}
}

func parseIf(c *cursor, ps *ParserState) (ast.Statement, error) {
	c.advance() // 'if'
	if err := c.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := ParseExpression(c, ps)
	if err != nil {
		return nil, err
	}
	if err := c.expectPunct(")"); err != nil {
		return nil, err
	}

	then, err := parseStatement(c, ps)
	if err != nil {
		return nil, err
	}

	var elseStmt ast.Statement
	if c.acceptPunct("else") {
		elseStmt, err = parseStatement(c, ps)
		if err != nil {
			return nil, err
		}
	}

	return ast.IfStmt{Condition: cond, Then: then, Else: elseStmt}, nil
}

func parseWhile(c *cursor, ps *ParserState) (ast.Statement, error) {
	c.advance() // 'while'
	if err := c.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := ParseExpression(c, ps)
	if err != nil {
		return nil, err
	}
	if err := c.expectPunct(")"); err != nil {
		return nil, err
	}

	id := ps.PushLoop(LoopKindLoop)
	body, err := parseStatement(c, ps)
	ps.PopLoop()
	if err != nil {
		return nil, err
	}

	return ast.WhileStmt{ID: id, Condition: cond, Body: body}, nil
}

// parseFor opens a dedicated scope for the optional init-declaration,
// matching the construct's documented desugaring into
// 'scope { init; while (cond) scope { body; update; } }'.
func parseFor(c *cursor, ps *ParserState) (ast.Statement, error) {
	c.advance() // 'for'
	if err := c.expectPunct("("); err != nil {
		return nil, err
	}
	ps.PushScope()

	var init *ast.ScopeItem
	if c.atPunct(";") {
		c.advance()
	} else if c.peek().Text == "int" {
		decl, err := parseDeclaration(c, ps) // consumes the trailing ';'
		if err != nil {
			ps.PopScope()
			return nil, err
		}
		init = &ast.ScopeItem{Kind: ast.ItemDeclaration, Declaration: decl}
	} else {
		expr, err := ParseExpression(c, ps)
		if err != nil {
			ps.PopScope()
			return nil, err
		}
		if err := c.expectPunct(";"); err != nil {
			ps.PopScope()
			return nil, err
		}
		init = &ast.ScopeItem{Kind: ast.ItemStatement, Statement: ast.ExprStmt{Expr: expr}}
	}

	var cond ast.Expression
	if !c.atPunct(";") {
		var err error
		cond, err = ParseExpression(c, ps)
		if err != nil {
			ps.PopScope()
			return nil, err
		}
	}
	if err := c.expectPunct(";"); err != nil {
		ps.PopScope()
		return nil, err
	}

	var update ast.Expression
	if !c.atPunct(")") {
		var err error
		update, err = ParseExpression(c, ps)
		if err != nil {
			ps.PopScope()
			return nil, err
		}
	}
	if err := c.expectPunct(")"); err != nil {
		ps.PopScope()
		return nil, err
	}

	id := ps.PushLoop(LoopKindLoop)
	body, err := parseStatement(c, ps)
	ps.PopLoop()
	ps.PopScope()
	if err != nil {
		return nil, err
	}

	return ast.ForStmt{ID: id, Init: init, Condition: cond, Update: update, Body: body}, nil
}

func parseSwitch(c *cursor, ps *ParserState) (ast.Statement, error) {
	c.advance() // 'switch'
	if err := c.expectPunct("("); err != nil {
		return nil, err
	}
	disc, err := ParseExpression(c, ps)
	if err != nil {
		return nil, err
	}
	if err := c.expectPunct(")"); err != nil {
		return nil, err
	}

	id := ps.PushLoop(LoopKindSwitch)
	body, err := parseScope(c, ps)
	ps.PopLoop()
	if err != nil {
		return nil, err
	}

	return ast.SwitchStmt{ID: id, Discriminant: disc, Body: body}, nil
}

func parseBreak(c *cursor, ps *ParserState) (ast.Statement, error) {
	c.advance() // 'break'
	id, err := ps.BreakTarget()
	if err != nil {
		return nil, err
	}
	if err := c.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.JumpStmt{Kind: ast.JumpBreak, TargetID: id}, nil
}

func parseContinue(c *cursor, ps *ParserState) (ast.Statement, error) {
	c.advance() // 'continue'
	id, err := ps.ContinueTarget()
	if err != nil {
		return nil, err
	}
	if err := c.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.JumpStmt{Kind: ast.JumpContinue, TargetID: id}, nil
}

func parseReturn(c *cursor, ps *ParserState) (ast.Statement, error) {
	c.advance() // 'return'

	var value ast.Expression
	if !c.atPunct(";") {
		var err error
		value, err = ParseExpression(c, ps)
		if err != nil {
			return nil, err
		}
	}
	if err := c.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.JumpStmt{Kind: ast.JumpReturn, Value: value}, nil
}
