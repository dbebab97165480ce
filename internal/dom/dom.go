// Package dom computes dominator sets, the dominator tree, dominance
// frontiers, and natural loops over an internal/ircfg.CFG. Grounded on
// original_source/dominator_utilities.py's get_dominators /
// get_strict_dominators / get_immediate_dominators / build_dominance_tree;
// the dominance-frontier and natural-loop algorithms, left as a stub
// (`pass`) and entirely absent respectively in that reference, follow
// spec §4.4's definitions directly (the standard Cytron et al. frontier
// equation and back-edge/reachability loop-body characterization).
package dom

import "ssaopt/internal/ircfg"

// Info is the full dominator toolkit result for one function's CFG.
type Info struct {
	Dom    map[string]map[string]bool // dom[b] = set of blocks dominating b (includes b)
	IDom   map[string]string          // immediate dominator; entry maps to itself
	Tree   map[string][]string        // idom -> its immediate children
	Front  map[string]map[string]bool // dominance frontier
	Order  []string
	Entry  string
}

// Build computes the full dominator toolkit for a CFG in one pass.
func Build(cfg *ircfg.CFG) *Info {
	info := &Info{Entry: cfg.Entry, Order: append([]string(nil), cfg.Order...)}
	info.Dom = computeDominators(cfg)
	strict := strictDominators(info.Dom)
	info.IDom = immediateDominators(info.Order, strict)
	info.Tree = dominatorTree(info.Order, info.IDom)
	info.Front = dominanceFrontier(cfg, info.Dom, strict)
	return info
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (i *Info) Dominates(a, b string) bool { return i.Dom[b][a] }

// StrictlyDominates reports whether a dominates b and a != b.
func (i *Info) StrictlyDominates(a, b string) bool { return a != b && i.Dom[b][a] }

func reachable(cfg *ircfg.CFG, start string) map[string]bool {
	seen := map[string]bool{}
	var visit func(string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		b := cfg.Blocks[name]
		if b == nil {
			return
		}
		for _, s := range b.Succs {
			visit(s)
		}
	}
	if start != "" {
		visit(start)
	}
	return seen
}

func computeDominators(cfg *ircfg.CFG) map[string]map[string]bool {
	dom := map[string]map[string]bool{}
	reach := reachable(cfg, cfg.Entry)

	for _, name := range cfg.Order {
		if reach[name] {
			dom[name] = cloneSet(reach)
		} else {
			dom[name] = map[string]bool{}
		}
	}

	changed := true
	for changed {
		changed = false
		for _, name := range cfg.Order {
			if !reach[name] {
				continue
			}
			b := cfg.Blocks[name]
			var sets []map[string]bool
			for _, p := range b.Preds {
				if reach[p] {
					sets = append(sets, dom[p])
				}
			}
			next := intersectAll(sets)
			next[name] = true
			if !setEqual(next, dom[name]) {
				dom[name] = next
				changed = true
			}
		}
	}
	return dom
}

func strictDominators(dom map[string]map[string]bool) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(dom))
	for name, doms := range dom {
		s := cloneSet(doms)
		delete(s, name)
		out[name] = s
	}
	return out
}

// immediateDominators picks, for each block, the strict dominator that
// strictly dominates none of the block's other strict dominators — the
// unique maximal element of the strict-dominance partial order restricted
// to that set. Entry is its own immediate dominator by convention.
func immediateDominators(order []string, strict map[string]map[string]bool) map[string]string {
	idom := make(map[string]string, len(order))
	for _, name := range order {
		candidates := strict[name]
		chosen := ""
		for c := range candidates {
			dominatedByOther := false
			for other := range candidates {
				if other == c {
					continue
				}
				if strict[other][c] {
					dominatedByOther = true
					break
				}
			}
			if !dominatedByOther {
				chosen = c
				break
			}
		}
		if chosen == "" {
			idom[name] = name
		} else {
			idom[name] = chosen
		}
	}
	return idom
}

func dominatorTree(order []string, idom map[string]string) map[string][]string {
	tree := map[string][]string{}
	for _, name := range order {
		parent := idom[name]
		if parent == name {
			continue
		}
		tree[parent] = append(tree[parent], name)
	}
	return tree
}

// dominanceFrontier implements spec §4.4's "b in df[a] iff a dominates
// some predecessor of b but does not strictly dominate b": for every
// block with 2+ predecessors, walk up each predecessor's dominator chain
// (stopping once we reach the block's own idom) adding the block to each
// visited node's frontier.
func dominanceFrontier(cfg *ircfg.CFG, dom, strict map[string]map[string]bool) map[string]map[string]bool {
	front := map[string]map[string]bool{}
	for _, name := range cfg.Order {
		front[name] = map[string]bool{}
	}
	idom := immediateDominators(cfg.Order, strict)

	for _, name := range cfg.Order {
		b := cfg.Blocks[name]
		if len(b.Preds) < 2 {
			continue
		}
		for _, p := range b.Preds {
			runner := p
			for runner != "" && !strict[name][runner] {
				if front[runner] == nil {
					front[runner] = map[string]bool{}
				}
				front[runner][name] = true
				if runner == idom[name] {
					break
				}
				next := idom[runner]
				if next == runner {
					break
				}
				runner = next
			}
		}
	}
	return front
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func intersectAll(sets []map[string]bool) map[string]bool {
	if len(sets) == 0 {
		return map[string]bool{}
	}
	out := cloneSet(sets[0])
	for _, s := range sets[1:] {
		for k := range out {
			if !s[k] {
				delete(out, k)
			}
		}
	}
	return out
}

func setEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
