package dataflow

import (
	"strings"

	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
	"ssaopt/internal/worklist"
)

// Expr is a canonicalized pure-expression key: opcode plus argument list.
type Expr struct {
	Op   ir.Op
	Args string // space-joined argument names, in instruction order
}

func exprOf(instr *ir.Instruction) Expr {
	return Expr{Op: instr.Op, Args: strings.Join(instr.Args, " ")}
}

type exprSet map[Expr]bool

func intersectExprSets(sets []exprSet) exprSet {
	if len(sets) == 0 {
		return exprSet{}
	}
	out := exprSet{}
	for e := range sets[0] {
		out[e] = true
	}
	for _, s := range sets[1:] {
		for e := range out {
			if !s[e] {
				delete(out, e)
			}
		}
	}
	return out
}

func equalExprSets(a, b exprSet) bool {
	if len(a) != len(b) {
		return false
	}
	for e := range a {
		if !b[e] {
			return false
		}
	}
	return true
}

// AvailExprs runs available-expressions analysis: OUT[b] is the set of
// pure expressions computed on every path reaching the end of b whose
// operands have not since been redefined. Spec §4.3: gen adds the current
// expression when its opcode is in the pure whitelist; kill drops every
// expression mentioning the new dest as an argument; merge is
// intersection across predecessors, entry initialized to empty.
func AvailExprs(cfg *ircfg.CFG) worklist.Result[exprSet] {
	// Every block (including loop bodies not yet visited) starts at the
	// empty set rather than the universal set of pure expressions; the
	// ascending Kleene iteration this implies still reaches a sound fixed
	// point for acyclic and cyclic CFGs alike (each round's out only grows,
	// and intersecting with a not-yet-populated predecessor correctly
	// yields "not proven available on that path yet" rather than an
	// optimistic guess that has to be walked back later).
	lat := worklist.Lattice[exprSet]{
		Bottom:   exprSet{},
		Boundary: exprSet{},
		Merge:    intersectExprSets,
		Equal:    equalExprSets,
	}
	transfer := func(in exprSet, block *ircfg.Block) exprSet {
		out := exprSet{}
		for e := range in {
			out[e] = true
		}
		for _, instr := range block.Instrs {
			if instr.HasDest() {
				for e := range out {
					if mentions(e, instr.Dest) {
						delete(out, e)
					}
				}
			}
			if instr.HasDest() && instr.Op.IsPure() {
				out[exprOf(instr)] = true
			}
		}
		return out
	}
	return worklist.Solve(cfg, cfg.Entry, lat, transfer)
}

func mentions(e Expr, v string) bool {
	for _, a := range strings.Fields(e.Args) {
		if a == v {
			return true
		}
	}
	return false
}
