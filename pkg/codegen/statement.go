package codegen

import (
	"fmt"

	"github.com/pkg/errors"

	"rvcc.dev/compiler/pkg/ast"
)

// loopStart / loopEnd render a loop or switch's pair of boundary labels.
// Break resolves to loopEnd regardless of whether the enclosing construct is
// a loop or a switch; continue only ever targets a loop's loopStart (the
// parser rejects continue inside a bare switch before codegen ever sees it).
func loopStart(id int) string { return fmt.Sprintf("%d_start", id) }
func loopEnd(id int) string   { return fmt.Sprintf("%d_end", id) }

// caseLabel / defaultLabel render a switch's case and default targets.
func caseLabel(id int, value int32) string { return fmt.Sprintf("%d____case_%d", id, value) }
func defaultLabel(id int) string           { return fmt.Sprintf("%d____default", id) }

// CompileStmt emits instructions for a single statement. sp alignment is
// preserved across the call exactly as for CompileExpr.
func (cs *CompilerState) CompileStmt(cg *CodeGenerator, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case ast.NullStmt:
		return nil

	case ast.ExprStmt:
		return cs.CompileExpr(cg, s.Expr)

	case ast.JumpStmt:
		return cs.compileJump(cg, s)

	case ast.ScopeStmt:
		return cs.CompileScope(cg, s.Body)

	case ast.IfStmt:
		return cs.compileIf(cg, s)

	case ast.WhileStmt:
		return cs.compileWhile(cg, s)

	case ast.ForStmt:
		return cs.compileFor(cg, s)

	case ast.SwitchStmt:
		return cs.compileSwitch(cg, s)

	case ast.EbreakStmt:
		cs.Emit(EbreakInst{})
		return nil

	default:
		return errors.Errorf("codegen: unhandled statement type %T", stmt)
	}
}

func (cs *CompilerState) compileJump(cg *CodeGenerator, s ast.JumpStmt) error {
	switch s.Kind {
	case ast.JumpReturn:
		if s.Value != nil {
			if err := cs.CompileExpr(cg, s.Value); err != nil {
				return err
			}
		} else {
			cs.Emit(AddiInst{Rd: A0, Rs1: Zero, Imm: Imm(0)})
		}
		cs.emitEpilogue()
		return nil

	case ast.JumpBreak:
		cs.Emit(JInst{Label: loopEnd(s.TargetID)})
		return nil

	case ast.JumpContinue:
		cs.Emit(JInst{Label: loopStart(s.TargetID)})
		return nil

	default:
		return errors.Errorf("codegen: unhandled jump kind %q", s.Kind)
	}
}

// CompileScope emits every item of a lexical scope in order: declarations
// (which, since the flat function scope already assigned every local its
// frame slot, only need to evaluate and store an optional initializer),
// statements, and inline case/default labels.
func (cs *CompilerState) CompileScope(cg *CodeGenerator, scope *ast.Scope) error {
	for _, item := range scope.Items {
		switch item.Kind {
		case ast.ItemDeclaration:
			if err := cs.compileDeclaration(cg, item.Declaration); err != nil {
				return err
			}
		case ast.ItemStatement:
			if err := cs.CompileStmt(cg, item.Statement); err != nil {
				return err
			}
		case ast.ItemLabel:
			cs.compileLabel(item.Label)
		default:
			return errors.Errorf("codegen: unhandled scope item kind %q", item.Kind)
		}
	}
	return nil
}

func (cs *CompilerState) compileDeclaration(cg *CodeGenerator, decl *ast.Declaration) error {
	if decl.Init == nil {
		return nil
	}
	v, err := cs.Lookup(decl.Name)
	if err != nil {
		return err
	}
	if err := cs.CompileExpr(cg, decl.Init); err != nil {
		return err
	}
	cs.Emit(SwInst{Rs: A0, Mem: At(v.Offset, Fp)})
	return nil
}

func (cs *CompilerState) compileLabel(label *ast.Label) {
	switch label.Kind {
	case ast.LabelCase:
		cs.Emit(LabelInst{Name: caseLabel(label.ID, label.Value)})
	case ast.LabelDefault:
		cs.Emit(LabelInst{Name: defaultLabel(label.ID)})
	case ast.LabelNamed:
		cs.Emit(LabelInst{Name: label.Name})
	}
}

func (cs *CompilerState) compileIf(cg *CodeGenerator, s ast.IfStmt) error {
	if s.Else == nil {
		end := cg.label("if_end")
		if err := cs.CompileExpr(cg, s.Condition); err != nil {
			return err
		}
		cs.Emit(BeqzInst{Rs: A0, Label: end})
		if err := cs.CompileStmt(cg, s.Then); err != nil {
			return err
		}
		cs.Emit(LabelInst{Name: end})
		return nil
	}

	elseLabel := cg.label("if_else")
	end := cg.label("if_end")

	if err := cs.CompileExpr(cg, s.Condition); err != nil {
		return err
	}
	cs.Emit(BeqzInst{Rs: A0, Label: elseLabel})
	if err := cs.CompileStmt(cg, s.Then); err != nil {
		return err
	}
	cs.Emit(JInst{Label: end})

	cs.Emit(LabelInst{Name: elseLabel})
	if err := cs.CompileStmt(cg, s.Else); err != nil {
		return err
	}

	cs.Emit(LabelInst{Name: end})
	return nil
}

func (cs *CompilerState) compileWhile(cg *CodeGenerator, s ast.WhileStmt) error {
	cs.Emit(LabelInst{Name: loopStart(s.ID)})

	if err := cs.CompileExpr(cg, s.Condition); err != nil {
		return err
	}
	cs.Emit(BeqzInst{Rs: A0, Label: loopEnd(s.ID)})

	cs.PushLoop(s.ID)
	err := cs.CompileStmt(cg, s.Body)
	cs.PopLoop()
	if err != nil {
		return err
	}

	cs.Emit(JInst{Label: loopStart(s.ID)})
	cs.Emit(LabelInst{Name: loopEnd(s.ID)})
	return nil
}

// compileFor desugars 'for (init; cond; update) body' into
// 'scope { init; while (cond-or-1) scope { body; update; } }' at codegen
// time, per the construct's specified desugaring; the AST node itself keeps
// the three clauses distinct so earlier passes still see ordinary C syntax.
func (cs *CompilerState) compileFor(cg *CodeGenerator, s ast.ForStmt) error {
	if s.Init != nil {
		switch s.Init.Kind {
		case ast.ItemDeclaration:
			if err := cs.compileDeclaration(cg, s.Init.Declaration); err != nil {
				return err
			}
		case ast.ItemStatement:
			if err := cs.CompileStmt(cg, s.Init.Statement); err != nil {
				return err
			}
		}
	}

	cs.Emit(LabelInst{Name: loopStart(s.ID)})

	if s.Condition != nil {
		if err := cs.CompileExpr(cg, s.Condition); err != nil {
			return err
		}
		cs.Emit(BeqzInst{Rs: A0, Label: loopEnd(s.ID)})
	}

	cs.PushLoop(s.ID)
	err := cs.CompileStmt(cg, s.Body)
	if err == nil && s.Update != nil {
		err = cs.CompileExpr(cg, s.Update)
	}
	cs.PopLoop()
	if err != nil {
		return err
	}

	cs.Emit(JInst{Label: loopStart(s.ID)})
	cs.Emit(LabelInst{Name: loopEnd(s.ID)})
	return nil
}

// compileSwitch evaluates the discriminant into S1 (safe to clobber: S1 is
// callee-saved, and no expression evaluated while dispatching a switch ever
// spans a call that would need S1 preserved across it), then emits one beq
// per case against a freshly loaded constant, a fallthrough jump to default
// if present, and finally the body (whose embedded case/default labels are
// inline jump targets already emitted by CompileScope).
func (cs *CompilerState) compileSwitch(cg *CodeGenerator, s ast.SwitchStmt) error {
	if err := cs.CompileExpr(cg, s.Discriminant); err != nil {
		return err
	}
	cs.Emit(MvInst{Rd: S1, Rs: A0})

	hasDefault := false
	for _, item := range s.Body.Items {
		if item.Kind == ast.ItemLabel && item.Label.Kind == ast.LabelCase {
			cs.Emit(AddiInst{Rd: A0, Rs1: Zero, Imm: Imm(int(item.Label.Value))})
			cs.Emit(BeqInst{Rs1: S1, Rs2: A0, Label: caseLabel(s.ID, item.Label.Value)})
		}
		if item.Kind == ast.ItemLabel && item.Label.Kind == ast.LabelDefault {
			hasDefault = true
		}
	}
	if hasDefault {
		cs.Emit(JInst{Label: defaultLabel(s.ID)})
	} else {
		cs.Emit(JInst{Label: loopEnd(s.ID)})
	}

	prevDisc := cs.switchDisc
	cs.switchDisc = S1
	cs.PushLoop(s.ID)
	err := cs.CompileScope(cg, s.Body)
	cs.PopLoop()
	cs.switchDisc = prevDisc
	if err != nil {
		return err
	}

	cs.Emit(LabelInst{Name: loopEnd(s.ID)})
	return nil
}
