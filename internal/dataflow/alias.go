package dataflow

import (
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
	"ssaopt/internal/worklist"
)

// Location is an abstract heap location: the site (instruction ID) of the
// alloc that may have created it, paired with its type, per spec §4.3.
type Location struct {
	Site int
	Type string
}

type locSet map[Location]bool

func locUnion(a, b locSet) locSet {
	out := locSet{}
	for l := range a {
		out[l] = true
	}
	for l := range b {
		out[l] = true
	}
	return out
}

// AliasState maps each pointer-typed variable to the set of abstract
// locations it may point to.
type AliasState map[string]locSet

func mergeAliasStates(states []AliasState) AliasState {
	out := AliasState{}
	for _, s := range states {
		for v, locs := range s {
			if existing, ok := out[v]; ok {
				out[v] = locUnion(existing, locs)
			} else {
				out[v] = locs
			}
		}
	}
	return out
}

func equalAliasStates(a, b AliasState) bool {
	if len(a) != len(b) {
		return false
	}
	for v, locs := range a {
		ov, ok := b[v]
		if !ok || len(ov) != len(locs) {
			return false
		}
		for l := range locs {
			if !ov[l] {
				return false
			}
		}
	}
	return true
}

// AliasAnalysis runs the intraprocedural alias analysis of spec §4.3:
// alloc introduces a fresh location at its own instruction site; ptradd
// and id propagate the pointer argument's location set to the
// destination; a load of a pointer-typed value conservatively unions
// every location currently mapped to any variable of the same pointer
// type (any store of that type may have written there); function pointer
// parameters start with an empty location set (an intraprocedural
// overapproximation — the caller's allocations are invisible here).
func AliasAnalysis(cfg *ircfg.CFG) worklist.Result[AliasState] {
	lat := worklist.Lattice[AliasState]{
		Bottom:   AliasState{},
		Boundary: AliasState{},
		Merge:    mergeAliasStates,
		Equal:    equalAliasStates,
	}
	transfer := func(in AliasState, block *ircfg.Block) AliasState {
		state := AliasState{}
		for v, locs := range in {
			state[v] = locs
		}
		for _, instr := range block.Instrs {
			applyAliasInstr(instr, state)
		}
		return state
	}
	return worklist.Solve(cfg, cfg.Entry, lat, transfer)
}

func applyAliasInstr(instr *ir.Instruction, state AliasState) {
	switch instr.Op {
	case ir.OpAlloc:
		if !instr.HasDest() {
			return
		}
		state[instr.Dest] = locSet{{Site: instr.ID, Type: typeKey(instr.Type)}: true}
	case ir.OpPtrAdd, ir.OpID:
		if !instr.HasDest() || len(instr.Args) == 0 {
			return
		}
		state[instr.Dest] = cloneLocs(state[instr.Args[0]])
	case ir.OpLoad:
		if !instr.HasDest() {
			return
		}
		state[instr.Dest] = locationsOfType(state, typeKey(instr.Type))
	}
}

func typeKey(t ir.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func cloneLocs(s locSet) locSet {
	out := make(locSet, len(s))
	for l := range s {
		out[l] = true
	}
	return out
}

// locationsOfType conservatively unions the location sets of every
// variable whose own locations are of the matching pointer type — any
// store through such a variable may have written the loaded location.
func locationsOfType(state AliasState, typeName string) locSet {
	out := locSet{}
	for _, locs := range state {
		for l := range locs {
			if l.Type == typeName {
				out[l] = true
			}
		}
	}
	return out
}

// MayAlias reports whether p and q may refer to overlapping storage.
func MayAlias(state AliasState, p, q string) bool {
	for l := range state[p] {
		if state[q][l] {
			return true
		}
	}
	return false
}
