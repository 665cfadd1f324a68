package codegen

import "fmt"

// ----------------------------------------------------------------------------
// Instructions

// Instruction is the shared marker for every RISC-V instruction (and
// assembler pseudo-instruction) this package emits. Kept as an empty
// interface and rendered by type switch in Render.
type Instruction interface{}

// Three-register arithmetic/logical ops: 'op rd, rs1, rs2'.
type AddInst struct{ Rd, Rs1, Rs2 Register }
type SubInst struct{ Rd, Rs1, Rs2 Register }
type MulInst struct{ Rd, Rs1, Rs2 Register }
type DivInst struct{ Rd, Rs1, Rs2 Register }
type RemInst struct{ Rd, Rs1, Rs2 Register }
type AndInst struct{ Rd, Rs1, Rs2 Register }
type OrInst struct{ Rd, Rs1, Rs2 Register }
type XorInst struct{ Rd, Rs1, Rs2 Register }
type SllInst struct{ Rd, Rs1, Rs2 Register }
type SrlInst struct{ Rd, Rs1, Rs2 Register }
type SltuInst struct{ Rd, Rs1, Rs2 Register }

// Register-immediate ops: 'op rd, rs1, imm'.
type AddiInst struct {
	Rd, Rs1 Register
	Imm     Immediate
}
type XoriInst struct {
	Rd, Rs1 Register
	Imm     Immediate
}
type SltiuInst struct {
	Rd, Rs Register
	Imm    Immediate
}

// NegInst is the one-operand negation pseudo-instruction 'neg rd, rs1'.
type NegInst struct{ Rd, Rs1 Register }

// MvInst copies a register: 'mv rd, rs'. Emitted directly by codegen and
// also produced by the peephole pass from 'addi rd, rs, 0' / 'add' forms.
type MvInst struct{ Rd, Rs Register }

// LiInst loads a constant: 'li rd, imm'. Only ever produced by the peephole
// pass; codegen proper always emits the equivalent 'addi rd, x0, imm'.
type LiInst struct {
	Rd  Register
	Imm Immediate
}

// LaInst loads a symbol's address: 'la rd, label'.
type LaInst struct {
	Rd    Register
	Label string
}

// Loads and stores: 'op rd, disp(base)' / 'op rs, disp(base)'.
type LwInst struct {
	Rd  Register
	Mem Offset
}
type LdInst struct {
	Rd  Register
	Mem Offset
}
type SwInst struct {
	Rs  Register
	Mem Offset
}
type SdInst struct {
	Rs  Register
	Mem Offset
}

// Unconditional jumps.
type JInst struct{ Label string }
type JalInst struct {
	Rd    Register
	Label string
}
type JalrInst struct {
	Rd  Register
	Mem Offset
}

// RetInst is 'ret', the callee-return pseudo-instruction, equivalent to
// 'jalr zero, 0(ra)'.
type RetInst struct{}

// Conditional branches.
type BeqInst struct {
	Rs1, Rs2 Register
	Label    string
}
type BneInst struct {
	Rs1, Rs2 Register
	Label    string
}
type BeqzInst struct {
	Rs    Register
	Label string
}
type BnezInst struct {
	Rs    Register
	Label string
}

// Set-on-condition pseudo-instructions.
type SeqzInst struct{ Rd, Rs Register }
type SnezInst struct{ Rd, Rs Register }

// SeqInst ('rd := rs1 == rs2') expands to two lines: 'xor' then 'seqz'.
type SeqInst struct{ Rd, Rs1, Rs2 Register }

// PushInst spills a register to a freshly-allocated 16-byte stack slot,
// expanding to 'addi sp,sp,-16' then 'sw rs,0(sp)'.
type PushInst struct{ Rs Register }

// PopInst reloads the top 16-byte stack slot into a register and frees it,
// expanding to 'lw rd,0(sp)' then 'addi sp,sp,16'.
type PopInst struct{ Rd Register }

// LabelInst declares a jump target: 'L:'.
type LabelInst struct{ Name string }

// SymbolInst emits an assembler directive verbatim, rendered as '.s'. Used
// for '.globl <name>' ahead of every function definition.
type SymbolInst struct{ Text string }

// CommentInst emits a '# text' comment line without affecting assembly
// semantics. CompilerState.Emitf builds one; no code generation path calls
// Emitf, so compiled output contains no comment lines.
type CommentInst struct{ Text string }

// EbreakInst emits a bare 'ebreak' trap, surfaced by the source's
// '__ebreak' keyword.
type EbreakInst struct{}

// ----------------------------------------------------------------------------
// Rendering

// Render converts a single Instruction into its textual assembly lines. Most
// instructions render to exactly one line; Push, Pop and Seq render to two,
// matching the pseudo-instruction expansions this compiler relies on rather
// than emitting a true RV64I 'push'/'pop' (which does not exist).
func Render(inst Instruction) []string {
	switch i := inst.(type) {
	case AddInst:
		return one("add %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case AddiInst:
		return one("addi %s, %s, %s", i.Rd, i.Rs1, i.Imm)
	case SubInst:
		return one("sub %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case MulInst:
		return one("mul %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case DivInst:
		return one("div %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case RemInst:
		return one("rem %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case AndInst:
		return one("and %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case OrInst:
		return one("or %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case XorInst:
		return one("xor %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case XoriInst:
		return one("xori %s, %s, %s", i.Rd, i.Rs1, i.Imm)
	case SllInst:
		return one("sll %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case SrlInst:
		return one("srl %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case NegInst:
		return one("neg %s, %s", i.Rd, i.Rs1)
	case LiInst:
		return one("li %s, %s", i.Rd, i.Imm)
	case LaInst:
		return one("la %s, %s", i.Rd, i.Label)
	case LwInst:
		return one("lw %s, %s", i.Rd, i.Mem)
	case LdInst:
		return one("ld %s, %s", i.Rd, i.Mem)
	case SwInst:
		return one("sw %s, %s", i.Rs, i.Mem)
	case SdInst:
		return one("sd %s, %s", i.Rs, i.Mem)
	case JInst:
		return one("j %s", i.Label)
	case JalInst:
		return one("jal %s, %s", i.Rd, i.Label)
	case JalrInst:
		return one("jalr %s, %s", i.Rd, i.Mem)
	case RetInst:
		return one("ret")
	case BeqInst:
		return one("beq %s, %s, %s", i.Rs1, i.Rs2, i.Label)
	case BneInst:
		return one("bne %s, %s, %s", i.Rs1, i.Rs2, i.Label)
	case BeqzInst:
		return one("beqz %s, %s", i.Rs, i.Label)
	case BnezInst:
		return one("bnez %s, %s", i.Rs, i.Label)
	case SeqzInst:
		return one("seqz %s, %s", i.Rd, i.Rs)
	case SnezInst:
		return one("snez %s, %s", i.Rd, i.Rs)
	case SltuInst:
		return one("sltu %s, %s, %s", i.Rd, i.Rs1, i.Rs2)
	case SltiuInst:
		return one("sltiu %s, %s, %s", i.Rd, i.Rs, i.Imm)
	case MvInst:
		return one("mv %s, %s", i.Rd, i.Rs)
	case LabelInst:
		return one("%s:", i.Name)
	case SymbolInst:
		return one(".%s", i.Text)
	case CommentInst:
		return one("# %s", i.Text)
	case EbreakInst:
		return one("ebreak")
	case SeqInst:
		return []string{
			fmt.Sprintf("xor %s, %s, %s", i.Rd, i.Rs1, i.Rs2),
			fmt.Sprintf("seqz %s, %s", i.Rd, i.Rd),
		}
	case PushInst:
		return []string{
			"addi sp, sp, -16",
			fmt.Sprintf("sw %s, 0(sp)", i.Rs),
		}
	case PopInst:
		return []string{
			fmt.Sprintf("lw %s, 0(sp)", i.Rd),
			"addi sp, sp, 16",
		}
	default:
		panic(fmt.Sprintf("codegen: unhandled instruction type %T in Render", inst))
	}
}

func one(format string, args ...any) []string {
	return []string{fmt.Sprintf(format, args...)}
}
