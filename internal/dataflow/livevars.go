package dataflow

import (
	"ssaopt/internal/ircfg"
	"ssaopt/internal/worklist"
)

type varSet map[string]bool

func unionVarSets(sets []varSet) varSet {
	out := varSet{}
	for _, s := range sets {
		for v := range s {
			out[v] = true
		}
	}
	return out
}

func equalVarSets(a, b varSet) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if !b[v] {
			return false
		}
	}
	return true
}

// LiveVars runs live-variable analysis backward: OUT[b] is the set of
// variables live on exit from b. Spec §4.3: per block, scan forward
// accumulating "read before written" into use(block) and "written" into
// def(block); transfer = use ∪ (in \ def). The backward direction is
// implemented, as throughout this package, by solving over the reversed
// CFG and reading the result's Out map as the analysis's IN sets (and
// vice versa) — the reversed graph's OUT at a block is the original
// graph's IN.
func LiveVars(cfg *ircfg.CFG) worklist.Result[varSet] {
	rev := ircfg.Reverse(cfg)
	exitBlock := findExit(cfg)

	lat := worklist.Lattice[varSet]{
		Bottom:   varSet{},
		Boundary: varSet{},
		Merge:    unionVarSets,
		Equal:    equalVarSets,
	}
	transfer := func(in varSet, block *ircfg.Block) varSet {
		use, def := useDef(block)
		out := varSet{}
		for v := range in {
			if !def[v] {
				out[v] = true
			}
		}
		for v := range use {
			out[v] = true
		}
		return out
	}
	result := worklist.Solve(rev, exitBlock, lat, transfer)
	// The reversed solve's Out is this analysis's IN (live-on-entry) and
	// its In is this analysis's OUT (live-on-exit); swap the labels back
	// so callers see the conventional names.
	return worklist.Result[varSet]{In: result.Out, Out: result.In}
}

// findExit picks a reasonable single exit to seed the backward solve's
// boundary from: the block with no successors, or the last block in
// program order if the CFG has none (e.g. an infinite loop with no ret).
func findExit(cfg *ircfg.CFG) string {
	for _, name := range cfg.Order {
		if len(cfg.Blocks[name].Succs) == 0 {
			return name
		}
	}
	if len(cfg.Order) > 0 {
		return cfg.Order[len(cfg.Order)-1]
	}
	return ""
}

func useDef(block *ircfg.Block) (use, def varSet) {
	use, def = varSet{}, varSet{}
	for _, instr := range block.Instrs {
		for _, arg := range instr.Args {
			if !def[arg] {
				use[arg] = true
			}
		}
		if instr.HasDest() {
			def[instr.Dest] = true
		}
	}
	return use, def
}
