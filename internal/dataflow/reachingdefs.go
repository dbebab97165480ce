// Package dataflow instantiates internal/worklist with the gen/kill
// transfer functions spec §4.3 assigns to each classical analysis:
// reaching definitions, live variables, available expressions, constant
// propagation, and (intraprocedural) alias analysis. None of this has an
// original_source counterpart beyond alias_analysis.py's stubbed-out
// `pass` bodies, so the lattices and transfer functions below follow spec
// §4.3's prose directly; the solver plumbing (Lattice/Transfer/Solve) is
// internal/worklist, grounded on original_source/worklist_solver.py.
package dataflow

import (
	"ssaopt/internal/ircfg"
	"ssaopt/internal/worklist"
)

// Def identifies one definition site: the instruction that wrote it and
// the variable written.
type Def struct {
	InstrID int
	Var     string
}

type defSet map[Def]bool

func unionDefSets(sets []defSet) defSet {
	out := defSet{}
	for _, s := range sets {
		for d := range s {
			out[d] = true
		}
	}
	return out
}

func equalDefSets(a, b defSet) bool {
	if len(a) != len(b) {
		return false
	}
	for d := range a {
		if !b[d] {
			return false
		}
	}
	return true
}

// ReachingDefs runs reaching-definitions analysis: IN/OUT sets of (instr,
// var) pairs reachable along some control-flow path to that point.
func ReachingDefs(cfg *ircfg.CFG) worklist.Result[defSet] {
	lat := worklist.Lattice[defSet]{
		Bottom:   defSet{},
		Boundary: defSet{},
		Merge:    unionDefSets,
		Equal:    equalDefSets,
	}
	transfer := func(in defSet, block *ircfg.Block) defSet {
		killed := map[string]bool{}
		for _, instr := range block.Instrs {
			if instr.HasDest() {
				killed[instr.Dest] = true
			}
		}
		out := defSet{}
		for d := range in {
			if !killed[d.Var] {
				out[d] = true
			}
		}
		lastDef := map[string]int{}
		for _, instr := range block.Instrs {
			if instr.HasDest() {
				lastDef[instr.Dest] = instr.ID
			}
		}
		for v, id := range lastDef {
			out[Def{InstrID: id, Var: v}] = true
		}
		return out
	}
	return worklist.Solve(cfg, cfg.Entry, lat, transfer)
}
