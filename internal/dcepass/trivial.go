// Package dcepass implements the dead-code-elimination family from spec
// §4.7: trivial whole-function "delete unused", per-block local DCE, and
// aggressive (SSA, control-dependence-based) DCE in its safe and unsafe
// variants. Trivial and local are grounded on
// original_source/dce.py's delete_unused_dce/local_dce/iterate_dce;
// aggressive has no working counterpart there (mark_sweep_dce is a
// `pass`-bodied stub) and is built from spec §4.7's prose directly.
package dcepass

import (
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

// TrivialOnce deletes every instruction whose dest is written but never
// read by any other instruction in the function, in one pass. It reports
// whether anything changed.
func TrivialOnce(fn *ir.Function) bool {
	unused := map[string]bool{}
	for _, instr := range fn.Instrs {
		if instr.HasDest() {
			unused[instr.Dest] = true
		}
	}
	for _, instr := range fn.Instrs {
		for _, a := range instr.Args {
			delete(unused, a)
		}
	}
	if len(unused) == 0 {
		return false
	}

	kept := make([]*ir.Instruction, 0, len(fn.Instrs))
	changed := false
	for _, instr := range fn.Instrs {
		if instr.HasDest() && unused[instr.Dest] {
			changed = true
			continue
		}
		kept = append(kept, instr)
	}
	fn.Instrs = kept
	return changed
}

// Trivial iterates TrivialOnce to a fixpoint, per spec §4.7's "iterate to
// fixpoint" requirement (original_source/dce.py's iterate_dce).
func Trivial(fn *ir.Function) {
	for TrivialOnce(fn) {
	}
}

// LocalOnce runs one pass of per-block local DCE: inside each block, an
// instruction whose dest is redefined before any use is deleted. Grounded
// on original_source/dce.py's local_dce, including its documented
// deliberate omission — a destination never used before the block ends is
// NOT deleted here, because (per that file's own comment) it may still be
// live across a join the way the trivial/aggressive passes check instead.
func LocalOnce(fn *ir.Function) bool {
	cfg := ircfg.Build(fn)
	changed := false
	for _, name := range cfg.Order {
		block := cfg.Blocks[name]
		toDelete := map[int]bool{}
		lastDefIdx := map[string]int{}
		used := map[string]bool{}

		for idx, instr := range block.Instrs {
			for _, a := range instr.Args {
				if _, ok := lastDefIdx[a]; ok {
					used[a] = true
				}
			}
			if instr.HasDest() {
				dst := instr.Dest
				if defIdx, ok := lastDefIdx[dst]; ok && !used[dst] {
					toDelete[defIdx] = true
				}
				lastDefIdx[dst] = idx
				used[dst] = false
			}
		}

		if len(toDelete) == 0 {
			continue
		}
		changed = true
		kept := make([]*ir.Instruction, 0, len(block.Instrs))
		for idx, instr := range block.Instrs {
			if toDelete[idx] {
				continue
			}
			kept = append(kept, instr)
		}
		block.Instrs = kept
	}
	if changed {
		fn.Instrs = ircfg.Join(cfg)
	}
	return changed
}

// Local iterates LocalOnce to a fixpoint.
func Local(fn *ir.Function) {
	for LocalOnce(fn) {
	}
}
