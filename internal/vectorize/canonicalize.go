package vectorize

import "ssaopt/internal/ir"

// canonicalizableOps is wider than VectorArithOps: canonicalize also
// regroups div instructions (pulling them to the front of their
// arithmetic window) even though div itself is never packed into a
// vectorizable run.
var canonicalizableOps = map[ir.Op]bool{
	ir.OpAdd: true, ir.OpSub: true, ir.OpMul: true, ir.OpDiv: true,
}

// canonicalizeBlock finds each maximal adjacent, mutually independent
// span of arithmetic instructions and reorders it so same-opcode members
// become contiguous, with any div group moved first (spec §4.11: "pulled
// to the front of their group to keep div-by-zero semantics
// predictable").
func canonicalizeBlock(blockInstrs []*ir.Instruction) []*ir.Instruction {
	var out []*ir.Instruction
	i := 0
	for i < len(blockInstrs) {
		if !canonicalizableOps[blockInstrs[i].Op] {
			out = append(out, blockInstrs[i])
			i++
			continue
		}
		j := i
		var window []*ir.Instruction
		dests := map[string]bool{}
		for j < len(blockInstrs) && canonicalizableOps[blockInstrs[j].Op] && !usesAny(blockInstrs[j].Args, dests) {
			window = append(window, blockInstrs[j])
			dests[blockInstrs[j].Dest] = true
			j++
		}
		out = append(out, canonicalizeWindow(window)...)
		i = j
	}
	return out
}

// canonicalizeWindow stably groups window by opcode, preserving each
// group's internal order and the order groups first appeared in, except
// div's group (if present) is always moved to the front.
func canonicalizeWindow(window []*ir.Instruction) []*ir.Instruction {
	var order []ir.Op
	buckets := map[ir.Op][]*ir.Instruction{}
	for _, instr := range window {
		if _, seen := buckets[instr.Op]; !seen {
			order = append(order, instr.Op)
		}
		buckets[instr.Op] = append(buckets[instr.Op], instr)
	}

	finalOrder := make([]ir.Op, 0, len(order))
	if buckets[ir.OpDiv] != nil {
		finalOrder = append(finalOrder, ir.OpDiv)
	}
	for _, op := range order {
		if op != ir.OpDiv {
			finalOrder = append(finalOrder, op)
		}
	}

	out := make([]*ir.Instruction, 0, len(window))
	for _, op := range finalOrder {
		out = append(out, buckets[op]...)
	}
	return out
}

// memOps is the set of instructions a conservative store movement
// refuses to cross: without a points-to oracle (original_source's
// alias_analysis.py's may_alias needs one we don't build), any other
// memory operation is treated as a possible alias, matching
// store_movement.py's own fallback for alloc/free/ptradd.
var memOps = map[ir.Op]bool{
	ir.OpLoad: true, ir.OpStore: true, ir.OpAlloc: true, ir.OpFree: true, ir.OpPtrAdd: true,
}

// moveStoresLate pushes each store as late in the block as it can go
// without crossing another memory operation, via store_movement.py's
// reverse pop-and-stash technique: walk backward, and for each store pop
// non-memory instructions off the tail of the (reversed) output, stash
// them, append the store once a memory op or the list's end is hit, then
// replay the stash after it.
func moveStoresLate(blockInstrs []*ir.Instruction) []*ir.Instruction {
	var reversed []*ir.Instruction
	for i := len(blockInstrs) - 1; i >= 0; i-- {
		instr := blockInstrs[i]
		if instr.Op != ir.OpStore {
			reversed = append(reversed, instr)
			continue
		}
		var stash []*ir.Instruction
		for {
			if len(reversed) == 0 {
				reversed = append(reversed, instr)
				break
			}
			last := reversed[len(reversed)-1]
			if memOps[last.Op] {
				reversed = append(reversed, instr)
				break
			}
			reversed = reversed[:len(reversed)-1]
			stash = append(stash, last)
		}
		reversed = append(reversed, stash...)
	}

	out := make([]*ir.Instruction, len(reversed))
	for i, instr := range reversed {
		out[len(out)-1-i] = instr
	}
	return out
}

// moveConstAndIDEarly is moveStoresLate's mirror: it walks forward and
// sinks const/id instructions as early as legal, stopping at the first
// instruction it actually depends on or any side-effecting/terminating
// instruction (crossing those would change what they observe).
func moveConstAndIDEarly(blockInstrs []*ir.Instruction) []*ir.Instruction {
	var out []*ir.Instruction
	for _, instr := range blockInstrs {
		if instr.Op != ir.OpConst && instr.Op != ir.OpID {
			out = append(out, instr)
			continue
		}
		var stash []*ir.Instruction
		for len(out) > 0 {
			last := out[len(out)-1]
			if dependsOn(instr, last) || last.Op.HasSideEffect() || last.IsTerminator() {
				break
			}
			out = out[:len(out)-1]
			stash = append(stash, last)
		}
		out = append(out, instr)
		for i := len(stash) - 1; i >= 0; i-- {
			out = append(out, stash[i])
		}
	}
	return out
}

func dependsOn(instr, other *ir.Instruction) bool {
	if !other.HasDest() {
		return false
	}
	for _, a := range instr.Args {
		if a == other.Dest {
			return true
		}
	}
	return false
}
