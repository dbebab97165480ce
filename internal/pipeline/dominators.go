package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"ssaopt/internal/dom"
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

// DominatorOptions selects which of spec §6's print-a-view flags to run
// over internal/dom's toolkit.
type DominatorOptions struct {
	Dominator bool // the dominator sets themselves
	Tree      bool // the dominator tree (idom -> children)
	Frontier  bool // the dominance frontier
}

// Dominators computes the full dominator toolkit for fn and returns one
// report line per block per view opts selects, in block order.
func Dominators(fn *ir.Function, opts DominatorOptions) []string {
	cfg := ircfg.Build(fn)
	info := dom.Build(cfg)
	var lines []string

	if opts.Dominator {
		for _, name := range cfg.Order {
			lines = append(lines, fmt.Sprintf("dom[%s]: %s", name, formatBlockSet(info.Dom[name])))
		}
	}
	if opts.Tree {
		for _, name := range cfg.Order {
			children := append([]string(nil), info.Tree[name]...)
			sort.Strings(children)
			lines = append(lines, fmt.Sprintf("tree[%s]: %s", name, "{"+strings.Join(children, ", ")+"}"))
		}
	}
	if opts.Frontier {
		for _, name := range cfg.Order {
			lines = append(lines, fmt.Sprintf("frontier[%s]: %s", name, formatBlockSet(info.Front[name])))
		}
	}
	return lines
}

func formatBlockSet(set map[string]bool) string {
	var names []string
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ", ") + "}"
}
