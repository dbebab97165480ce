// Package worklist implements the generic monotone dataflow fixpoint
// solver shared by every analysis in internal/dataflow: seed boundary and
// interior values,
// repeatedly merge predecessor OUT sets into a block's IN set and run a
// transfer function, and requeue successors whenever OUT changes.
//
// Direction (forward vs. backward) is not a parameter of Solve itself —
// exactly as in the Bril reference solver this is modeled on
// (original_source/worklist_solver.py), the caller supplies an
// already-oriented ircfg.CFG: a forward analysis solves over the CFG as
// built, a backward analysis solves over ircfg.Reverse(cfg). Solve only
// ever looks at Preds (to gather inputs to merge) and Succs (to decide
// what to requeue), so the same code computes both directions.
package worklist

import "ssaopt/internal/ircfg"

// Lattice packages the three things a concrete analysis must supply:
// Bottom, the value every non-entry block's OUT starts at; Boundary, the
// value seeded into the entry block's IN (reaching defs uses the empty
// set for both, constant propagation the empty state for both — whatever
// the analysis needs); Merge, the join over a
// block's predecessors' OUT sets; and Equal, used to detect a fixpoint
// since L may not be comparable with ==.
type Lattice[L any] struct {
	Bottom   L
	Boundary L
	Merge    func(ins []L) L
	Equal    func(a, b L) bool
}

// Transfer computes a block's OUT from its IN and its instructions.
type Transfer[L any] func(in L, block *ircfg.Block) L

// Result holds the IN and OUT sets computed for every block, keyed by
// block name.
type Result[L any] struct {
	In  map[string]L
	Out map[string]L
}

// Solve runs the fixpoint iteration to convergence and returns the final
// IN/OUT maps. Grounded on original_source/worklist_solver.py's solve:
// same boundary seeding, same "merge preds, transfer, requeue successors
// on change" loop, generalized from Python's set/list lattice values to
// an arbitrary Go type L via the Lattice/Transfer parameters above.
func Solve[L any](cfg *ircfg.CFG, entry string, lat Lattice[L], transfer Transfer[L]) Result[L] {
	in := make(map[string]L, len(cfg.Order))
	out := make(map[string]L, len(cfg.Order))
	for _, name := range cfg.Order {
		if name == entry {
			in[name] = lat.Boundary
		} else {
			in[name] = lat.Bottom
		}
		out[name] = lat.Bottom
	}

	queue := append([]string(nil), cfg.Order...)
	queued := make(map[string]bool, len(cfg.Order))
	for _, name := range queue {
		queued[name] = true
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		queued[name] = false

		block := cfg.Blocks[name]
		if block == nil {
			continue
		}

		var preds []L
		if name == entry {
			preds = append(preds, lat.Boundary)
		}
		for _, p := range block.Preds {
			preds = append(preds, out[p])
		}
		inB := lat.Merge(preds)
		in[name] = inB

		newOut := transfer(inB, block)
		if !lat.Equal(newOut, out[name]) {
			out[name] = newOut
			for _, s := range block.Succs {
				if !queued[s] {
					queue = append(queue, s)
					queued[s] = true
				}
			}
		}
	}

	return Result[L]{In: in, Out: out}
}
