package codegen

import (
	"fmt"

	"github.com/pkg/errors"

	"rvcc.dev/compiler/pkg/ast"
	"rvcc.dev/compiler/pkg/utils"
)

// ----------------------------------------------------------------------------
// Frame variables

// VarLocation tags where a CompilerVariable's storage lives relative to the
// current frame.
type VarLocation string

const (
	// LocationStack variables (locals and the first eight parameters) live
	// at positive offsets within the current frame, below the saved-register
	// block.
	LocationStack VarLocation = "stack"
	// LocationLeaked variables are stack-passed parameters beyond the
	// eighth, addressed at positive offsets above the saved-register block,
	// in the region the caller populated before the call.
	LocationLeaked VarLocation = "leaked"
)

// CompilerVariable is one entry of a function's frame: its frame-pointer
// relative byte offset, its type, and whether it lives in the locals region
// or was leaked in by the caller on the stack.
type CompilerVariable struct {
	Name     string
	Offset   int
	Type     *ast.Datatype
	Location VarLocation
}

// prologueFixedSize is the always-allocated save area at function entry:
// ra at 0, fp at 16, s1 at 24, rounded up to a 16-byte boundary.
const prologueFixedSize = 32

// Frame is the fully laid out stack frame for one function: every variable's
// offset, and the locals allocation size the prologue/epilogue must
// allocate/deallocate.
type Frame struct {
	Variables   map[string]CompilerVariable
	LocalsAlloc int // bytes allocated beyond the fixed 32-byte save area
	ArgCount    int // number of register-bound parameters (min(len(Params), 8))
}

// BuildFrame computes the frame layout for a function definition's flattened
// scope aggregate, following the layout the prologue/epilogue rely on: the
// first min(len(Params),8) flat-scope entries are the register-spilled
// parameters (and so fall at the same sequential offsets the prologue spills
// a0..a7 into), every other flat-scope entry is a plain local stacked above
// them, and any parameter beyond the eighth is leaked in by the caller above
// the saved-register block rather than occupying locals space at all.
func BuildFrame(fn *ast.FunctionDefinition) Frame {
	argCount := len(fn.Params)
	if argCount > 8 {
		argCount = 8
	}

	leaked := make(map[string]int) // param name -> its index in Params (8 or more)
	for i := 8; i < len(fn.Params); i++ {
		leaked[fn.Params[i].Name] = i
	}

	localsSize := 0
	for _, v := range fn.FlatScope {
		if _, isLeaked := leaked[v.Name]; isLeaked {
			continue
		}
		localsSize += 4
	}

	localsAlloc := utils.RoundUpToMultiple(localsSize+4*argCount, 16)

	variables := make(map[string]CompilerVariable, len(fn.FlatScope))
	offset := 0
	for _, v := range fn.FlatScope {
		if idx, isLeaked := leaked[v.Name]; isLeaked {
			variables[v.Name] = CompilerVariable{
				Name:     v.Name,
				Type:     v.Type,
				Location: LocationLeaked,
				Offset:   prologueFixedSize + localsAlloc + 4*(idx-8),
			}
			continue
		}

		variables[v.Name] = CompilerVariable{
			Name:     v.Name,
			Type:     v.Type,
			Location: LocationStack,
			Offset:   offset,
		}
		offset += 4
	}

	return Frame{Variables: variables, LocalsAlloc: localsAlloc, ArgCount: argCount}
}

// ----------------------------------------------------------------------------
// Compiler state

// CompilerState is the mutable context threaded through code generation of
// a single function: the laid-out frame, the emitted instruction list, and
// the identifiers needed to close out the current loop/switch construct.
type CompilerState struct {
	frame Frame
	out   []Instruction

	funcName   string
	loopIDs    utils.Stack[int] // nested enclosing loop/switch ids; break/continue jump to the TargetID the parser resolved
	switchDisc Register         // register holding the active switch's discriminant, "" if not in one
}

// NewCompilerState seeds a fresh CompilerState for compiling fn.
func NewCompilerState(fn *ast.FunctionDefinition) *CompilerState {
	return &CompilerState{
		frame:    BuildFrame(fn),
		funcName: fn.Name,
	}
}

// Emit appends a single instruction to the output stream.
func (cs *CompilerState) Emit(inst Instruction) { cs.out = append(cs.out, inst) }

// Emitf is a convenience for appending a CommentInst built with fmt.Sprintf.
func (cs *CompilerState) Emitf(format string, args ...any) {
	cs.Emit(CommentInst{Text: fmt.Sprintf(format, args...)})
}

// Instructions returns everything emitted so far.
func (cs *CompilerState) Instructions() []Instruction { return cs.out }

// Lookup resolves a unique variable name to its frame slot. Every Variable
// AST node is guaranteed by the parser to have a corresponding frame entry,
// so a miss here indicates an internal inconsistency rather than a user
// error.
func (cs *CompilerState) Lookup(name string) (CompilerVariable, error) {
	v, ok := cs.frame.Variables[name]
	if !ok {
		return CompilerVariable{}, errors.Errorf("codegen: internal error, unresolved frame variable %q", name)
	}
	return v, nil
}

// PushLoop records id as the innermost enclosing loop/switch construct.
func (cs *CompilerState) PushLoop(id int) { cs.loopIDs.Push(id) }

// PopLoop discards the innermost enclosing loop/switch construct.
func (cs *CompilerState) PopLoop() {
	_, _ = cs.loopIDs.Pop() // parser already validated break/continue nesting
}

// roundUp16 rounds n up to the nearest 16, the alignment every call-site
// stack region and every frame allocation must respect.
func roundUp16(n int) int { return utils.RoundUpToMultiple(n, 16) }
