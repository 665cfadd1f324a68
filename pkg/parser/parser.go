package parser

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"rvcc.dev/compiler/pkg/ast"
)

// ----------------------------------------------------------------------------
// Top-level Parser

// Parser turns a C-subset source file into an ast.Program. It owns the
// single Mangler instance that must outlive parsing: code generation mints
// further unique names and ids (loop/switch labels already resolved here are
// rendered, but ternary/short-circuit labels are minted fresh during
// codegen) from the same counter, so names generated by either stage never
// collide.
type Parser struct {
	reader  io.Reader
	state   *ParserState
	mangler *ast.Mangler
}

// NewParser initializes a Parser reading source from r.
func NewParser(r io.Reader) *Parser {
	mangler := ast.NewMangler()
	return &Parser{
		reader:  r,
		mangler: mangler,
		state:   NewParserState(mangler),
	}
}

// Mangler returns the Mangler instance this Parser seeded, for the caller to
// thread into the code generator so both phases draw unique names and ids
// from the same counter.
func (p *Parser) Mangler() *ast.Mangler { return p.mangler }

// Parse reads the whole input, lexes it, and parses a complete Program.
func (p *Parser) Parse() (*ast.Program, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, errors.Wrap(err, "parser: cannot read source")
	}

	tokens, err := Lex(string(content))
	if err != nil {
		return nil, err
	}

	c := newCursor(tokens)
	var statements []ast.ProgramStatement

	for c.peek().Kind != TokEOF {
		stmt, err := p.parseTopLevel(c)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	return &ast.Program{Statements: statements}, nil
}

// parseTopLevel parses one top-level function definition or declaration:
// 'int' <declarator> then either a braced body (a definition) or ';' (a
// prototype).
func (p *Parser) parseTopLevel(c *cursor) (ast.ProgramStatement, error) {
	base, err := parsePrimitiveType(c)
	if err != nil {
		return nil, err
	}

	name, typ, err := ParseDeclarator(c, base)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("parser: top-level declaration requires a name")
	}
	if !typ.IsFunction() {
		return nil, errors.Errorf("parser: %q: only function declarations and definitions are supported at top level", name)
	}

	if err := checkDuplicateParams(typ.Args); err != nil {
		return nil, errors.Wrapf(err, "parser: %q", name)
	}
	if err := p.state.DeclareFunction(name, typ); err != nil {
		return nil, err
	}

	if c.acceptPunct(";") {
		return &ast.FunctionDeclaration{Name: name, Signature: typ}, nil
	}

	body, params, flat, err := p.parseFunctionBody(c, typ)
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDefinition{
		Name:      name,
		Signature: typ,
		Params:    params,
		FlatScope: flat,
		Body:      body,
	}, nil
}

// parseFunctionBody opens the function's scope, registers every parameter as
// an argument symbol (in order, so the flat aggregate lists them first),
// parses the braced body, and closes the scope to recover the flat aggregate.
func (p *Parser) parseFunctionBody(c *cursor, signature *ast.Datatype) (*ast.Scope, []ast.Argument, []ast.FrameVariable, error) {
	p.state.PushFunctionScope()

	params := make([]ast.Argument, len(signature.Args))
	for i, arg := range signature.Args {
		if arg.Name == "" {
			p.state.PopScope()
			return nil, nil, nil, errors.Errorf("parser: function definition requires every parameter to be named, parameter %d is not", i+1)
		}
		unique, err := p.state.DeclareArgument(arg.Name, arg.Type)
		if err != nil {
			p.state.PopScope()
			return nil, nil, nil, err
		}
		params[i] = ast.Argument{Name: unique, Type: arg.Type}
	}

	body, err := parseScope(c, p.state)
	if err != nil {
		// parseScope already popped the scope it pushed; the function scope
		// opened above still needs closing so its bookkeeping isn't left
		// dangling.
		p.state.PopFunctionScope()
		return nil, nil, nil, err
	}

	flat := p.state.PopFunctionScope()
	return body, params, flat, nil
}

// checkDuplicateParams rejects a parameter list naming the same identifier
// twice; unnamed (abstract) parameters never collide with one another.
func checkDuplicateParams(args []ast.Argument) error {
	seen := make(map[string]bool, len(args))
	for _, arg := range args {
		if arg.Name == "" {
			continue
		}
		if seen[arg.Name] {
			return fmt.Errorf("duplicate parameter name %q", arg.Name)
		}
		seen[arg.Name] = true
	}
	return nil
}
