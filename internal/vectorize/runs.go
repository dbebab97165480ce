package vectorize

import "ssaopt/internal/ir"

// run is a maximal, non-overlapping sequence of same-opcode, mutually
// independent vectorizable binary instructions within one block, up to
// vectorLaneWidth members (spec §4.11 "Run construction").
type run struct {
	op      ir.Op
	members []*ir.Instruction
}

// buildRuns scans blockInstrs for runs. A run is not required to be
// textually contiguous — an unrelated instruction in between neither
// joins nor ends it — but it does end at a store (alias barrier), at an
// instruction that consumes a run member's destination, at a different
// vectorizable opcode, or once it reaches the lane width. Only one run
// is ever open at a time (spec's greedy, non-backtracking construction);
// Preprocess's canonicalize step is what makes runs contiguous in
// practice.
func buildRuns(blockInstrs []*ir.Instruction) []run {
	var runs []run
	var current run
	dests := map[string]bool{}

	flush := func() {
		if len(current.members) > 0 {
			runs = append(runs, current)
		}
		current = run{}
		dests = map[string]bool{}
	}

	for _, instr := range blockInstrs {
		if len(current.members) > 0 {
			if instr.Op == ir.OpStore || usesAny(instr.Args, dests) {
				flush()
			}
		}
		if !ir.VectorArithOps[instr.Op] {
			continue
		}
		if len(current.members) == 0 {
			current = run{op: instr.Op, members: []*ir.Instruction{instr}}
			dests = map[string]bool{instr.Dest: true}
			continue
		}
		if instr.Op != current.op || len(current.members) >= vectorLaneWidth {
			flush()
			current = run{op: instr.Op, members: []*ir.Instruction{instr}}
			dests = map[string]bool{instr.Dest: true}
			continue
		}
		current.members = append(current.members, instr)
		dests[instr.Dest] = true
	}
	flush()
	return runs
}

func usesAny(args []string, set map[string]bool) bool {
	for _, a := range args {
		if set[a] {
			return true
		}
	}
	return false
}

// spliceRuns rebuilds blockInstrs with each run's generated code inserted
// at the position of its last member, and every run member instruction
// (including that last one) dropped from the stream — mirroring
// opportunistic_lvn_slp.py's lvn_slp_basic_block two-phase stitch.
func spliceRuns(blockInstrs []*ir.Instruction, runs []run, generated [][]*ir.Instruction) []*ir.Instruction {
	lastMember := map[*ir.Instruction]int{}
	isMember := map[*ir.Instruction]bool{}
	for i, r := range runs {
		lastMember[r.members[len(r.members)-1]] = i
		for _, m := range r.members {
			isMember[m] = true
		}
	}

	var out []*ir.Instruction
	for _, instr := range blockInstrs {
		if isMember[instr] {
			if i, ok := lastMember[instr]; ok {
				out = append(out, generated[i]...)
			}
			continue
		}
		out = append(out, instr)
	}
	return out
}

func vecOpFor(op ir.Op) ir.Op {
	switch op {
	case ir.OpAdd:
		return ir.OpVecAdd
	case ir.OpSub:
		return ir.OpVecSub
	case ir.OpMul:
		return ir.OpVecMul
	default:
		panic("vectorize: unhandled vectorizable op " + string(op))
	}
}

// runOperands pulls the left args, right args, destinations, and shared
// destination type out of a run's members in member order.
func runOperands(r run) (left, right, dests []string, destType ir.Type) {
	left = make([]string, len(r.members))
	right = make([]string, len(r.members))
	dests = make([]string, len(r.members))
	for i, m := range r.members {
		left[i], right[i] = m.Args[0], m.Args[1]
		dests[i] = m.Dest
		destType = m.Type
	}
	return left, right, dests, destType
}
