// Package codegen walks a parsed ast.Program and emits RISC-V (RV64I)
// assembly text: stack-frame layout, calling-convention lowering, expression
// and statement lowering, and a final peephole normalization pass.
package codegen

import "fmt"

// ----------------------------------------------------------------------------
// Registers

// Register is one of the RV64I integer registers, rendered using its ABI
// name rather than its numeric x0..x31 form, matching every RISC-V assembler
// this output is meant to feed.
type Register string

const (
	Zero Register = "zero"
	Ra   Register = "ra"
	Sp   Register = "sp"
	Gp   Register = "gp"
	Tp   Register = "tp"

	T0 Register = "t0"
	T1 Register = "t1"
	T2 Register = "t2"

	S0 Register = "s0" // the frame pointer, aliased as Fp below
	Fp Register = "s0"
	S1 Register = "s1"

	A0 Register = "a0"
	A1 Register = "a1"
	A2 Register = "a2"
	A3 Register = "a3"
	A4 Register = "a4"
	A5 Register = "a5"
	A6 Register = "a6"
	A7 Register = "a7"

	S2  Register = "s2"
	S3  Register = "s3"
	S4  Register = "s4"
	S5  Register = "s5"
	S6  Register = "s6"
	S7  Register = "s7"
	S8  Register = "s8"
	S9  Register = "s9"
	S10 Register = "s10"
	S11 Register = "s11"

	T3 Register = "t3"
	T4 Register = "t4"
	T5 Register = "t5"
	T6 Register = "t6"
)

// ArgRegisters are the eight integer registers the calling convention passes
// arguments in, in order.
var ArgRegisters = [8]Register{A0, A1, A2, A3, A4, A5, A6, A7}

// String renders the register's ABI name.
func (r Register) String() string { return string(r) }

// ----------------------------------------------------------------------------
// Immediates and memory operands

// Immediate is either a raw integer constant or a label reference, matching
// the two forms an RV64I immediate operand or branch/jump target can take.
type Immediate struct {
	IsLabel bool
	Number  int
	Label   string
}

// Imm builds a numeric immediate.
func Imm(n int) Immediate { return Immediate{Number: n} }

// ImmLabel builds a label-valued immediate. LaInst, JInst and JalInst carry
// their target as a plain Label string instead of an Immediate.
func ImmLabel(label string) Immediate { return Immediate{IsLabel: true, Label: label} }

// String renders the immediate the way the assembler expects it inline.
func (i Immediate) String() string {
	if i.IsLabel {
		return i.Label
	}
	return fmt.Sprintf("%d", i.Number)
}

// Offset is a register-plus-constant-offset memory operand, rendered as
// 'off(reg)' for load/store instructions.
type Offset struct {
	Disp int
	Base Register
}

// At builds a 'disp(base)' memory operand.
func At(disp int, base Register) Offset { return Offset{Disp: disp, Base: base} }

// String renders the operand as 'disp(base)'.
func (o Offset) String() string { return fmt.Sprintf("%d(%s)", o.Disp, o.Base) }
