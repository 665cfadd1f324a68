package codegen

// Normalize rewrites each instruction in prog through a single pass of local
// rewrite rules, applied in the fixed order below and not iterated to a
// fixpoint: running Normalize twice on its own output is a no-op, but a
// rewrite that only becomes visible after an earlier rewrite in the same
// slot (e.g. 'addi rd,rs,0' becoming 'add rd,rs,x0' becoming 'mv rd,rs')
// is folded directly into one rule rather than chained across passes.
//
//   - 'addi rd, x0, k'              -> 'li rd, k'
//   - 'addi rd, rs, 0'              -> 'mv rd, rs'
//   - 'add rd, x0, rs' / 'rd,rs,x0' -> 'mv rd, rs'
//   - 'mv rd, rd'                   -> (dropped)
func Normalize(prog []Instruction) []Instruction {
	out := make([]Instruction, 0, len(prog))

	for _, inst := range prog {
		rewritten, drop := normalizeOne(inst)
		if drop {
			continue
		}
		out = append(out, rewritten)
	}

	return out
}

func normalizeOne(inst Instruction) (Instruction, bool) {
	switch i := inst.(type) {
	case AddiInst:
		if i.Rs1 == Zero && !i.Imm.IsLabel {
			return LiInst{Rd: i.Rd, Imm: i.Imm}, false
		}
		if !i.Imm.IsLabel && i.Imm.Number == 0 {
			if i.Rd == i.Rs1 {
				return nil, true
			}
			return MvInst{Rd: i.Rd, Rs: i.Rs1}, false
		}
		return inst, false

	case AddInst:
		switch {
		case i.Rs1 == Zero:
			if i.Rd == i.Rs2 {
				return nil, true
			}
			return MvInst{Rd: i.Rd, Rs: i.Rs2}, false
		case i.Rs2 == Zero:
			if i.Rd == i.Rs1 {
				return nil, true
			}
			return MvInst{Rd: i.Rd, Rs: i.Rs1}, false
		default:
			return inst, false
		}

	case MvInst:
		if i.Rd == i.Rs {
			return nil, true
		}
		return inst, false

	default:
		return inst, false
	}
}
