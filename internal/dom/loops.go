package dom

import "ssaopt/internal/ircfg"

// Loop is a natural loop: Header dominates every block in Body (including
// itself), Latches are the back-edge tails, and Exits are the blocks
// inside Body with at least one successor outside it.
type Loop struct {
	Header  string
	Body    map[string]bool
	Latches map[string]bool
	Exits   map[string]bool
}

// NaturalLoops finds every natural loop in the CFG: a back edge is any
// edge (t, h) where h dominates t (spec §4.4). The loop body is the
// header plus every block that can reach the latch without passing
// through the header again. Loops sharing a header are merged into one
// loop whose body, latches, and exits are the union across all of that
// header's back edges, per spec §4.4's "share a header" rule.
func NaturalLoops(cfg *ircfg.CFG, info *Info) []*Loop {
	byHeader := map[string]*Loop{}
	var order []string

	for _, t := range cfg.Order {
		b := cfg.Blocks[t]
		for _, h := range b.Succs {
			if !info.Dom[t][h] {
				continue
			}
			loop, ok := byHeader[h]
			if !ok {
				loop = &Loop{Header: h, Body: map[string]bool{h: true}, Latches: map[string]bool{}}
				byHeader[h] = loop
				order = append(order, h)
			}
			loop.Latches[t] = true
			for name := range reachesWithoutHeader(cfg, t, h) {
				loop.Body[name] = true
			}
		}
	}

	var loops []*Loop
	for _, h := range order {
		loop := byHeader[h]
		loop.Exits = loopExits(cfg, loop.Body)
		loops = append(loops, loop)
	}
	return loops
}

// reachesWithoutHeader returns every block (including from) that can
// reach `from` by walking predecessors, without passing through header —
// i.e. the set of blocks on some path from header to the latch `from`,
// found by walking the CFG backwards from the latch and stopping at
// header.
func reachesWithoutHeader(cfg *ircfg.CFG, from, header string) map[string]bool {
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if name == header {
			continue
		}
		b := cfg.Blocks[name]
		if b == nil {
			continue
		}
		for _, p := range b.Preds {
			if !seen[p] {
				seen[p] = true
				stack = append(stack, p)
			}
		}
	}
	return seen
}

func loopExits(cfg *ircfg.CFG, body map[string]bool) map[string]bool {
	exits := map[string]bool{}
	for name := range body {
		b := cfg.Blocks[name]
		if b == nil {
			continue
		}
		for _, s := range b.Succs {
			if !body[s] {
				exits[name] = true
			}
		}
	}
	return exits
}
