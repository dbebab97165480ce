package vectorize

import "ssaopt/internal/ir"

func codegenNaiveBlock(blockInstrs []*ir.Instruction, fresh func(string) string) []*ir.Instruction {
	runs := buildRuns(blockInstrs)
	if len(runs) == 0 {
		return blockInstrs
	}
	generated := make([][]*ir.Instruction, len(runs))
	for i, r := range runs {
		generated[i] = codegenNaiveRun(r, fresh)
	}
	return spliceRuns(blockInstrs, runs, generated)
}

// codegenNaiveRun packs a run's operands into two zeroed vectors loaded
// lane by lane, applies one vec<op>, then destructures the result back
// into the original scalar destinations. Every vector and index name is
// fresh to this run; nothing is reused across runs (that reuse is what
// distinguishes Opportunistic).
func codegenNaiveRun(r run, fresh func(string) string) []*ir.Instruction {
	left, right, dests, destType := runOperands(r)

	var out []*ir.Instruction
	leftVec := fresh("vecl")
	out = append(out, ir.VecZero(leftVec))
	out = append(out, loadChain(leftVec, left, fresh)...)

	rightVec := fresh("vecr")
	out = append(out, ir.VecZero(rightVec))
	out = append(out, loadChain(rightVec, right, fresh)...)

	resultVec := fresh("vecresult")
	out = append(out, ir.VecBinary(vecOpFor(r.op), resultVec, leftVec, rightVec))
	out = append(out, storeChain(resultVec, dests, destType, fresh)...)
	return out
}

// loadChain vecloads each of args into vec at increasing lane indices,
// incrementing the index by a fresh `one` constant between lanes.
func loadChain(vec string, args []string, fresh func(string) string) []*ir.Instruction {
	var out []*ir.Instruction
	one := fresh("one")
	out = append(out, ir.Const(one, ir.IntType{}, int64(1)))
	idx := fresh("idx")
	out = append(out, ir.Const(idx, ir.IntType{}, int64(0)))
	for i, a := range args {
		out = append(out, ir.VecLoad(vec, idx, a))
		if i < len(args)-1 {
			next := fresh("idx")
			out = append(out, ir.Binary(ir.OpAdd, next, ir.IntType{}, idx, one))
			idx = next
		}
	}
	return out
}

// storeChain is loadChain's mirror image: vecstore each lane of vec back
// into dests in order.
func storeChain(vec string, dests []string, t ir.Type, fresh func(string) string) []*ir.Instruction {
	var out []*ir.Instruction
	one := fresh("one")
	out = append(out, ir.Const(one, ir.IntType{}, int64(1)))
	idx := fresh("idx")
	out = append(out, ir.Const(idx, ir.IntType{}, int64(0)))
	for i, d := range dests {
		out = append(out, ir.VecStore(d, t, vec, idx))
		if i < len(dests)-1 {
			next := fresh("idx")
			out = append(out, ir.Binary(ir.OpAdd, next, ir.IntType{}, idx, one))
			idx = next
		}
	}
	return out
}
