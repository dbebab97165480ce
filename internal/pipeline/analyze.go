package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"ssaopt/internal/dataflow"
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

// AnalysisOptions selects which of spec §6's print-an-analysis flags to
// run. Unlike Options' transform passes, these never mutate fn; they
// only report what the analysis found, one flag per classical dataflow
// analysis internal/dataflow implements.
type AnalysisOptions struct {
	Reaching  bool
	Constant  bool
	Live      bool
	Available bool
}

// Analyze runs every analysis opts selects over fn and returns one
// report per block, in block order, suitable for direct printing by the
// CLI (spec §6: "Run and print the corresponding analysis").
func Analyze(fn *ir.Function, opts AnalysisOptions) []string {
	cfg := ircfg.Build(fn)
	var lines []string

	if opts.Reaching {
		result := dataflow.ReachingDefs(cfg)
		for _, name := range cfg.Order {
			lines = append(lines, fmt.Sprintf("reaching[%s].in: %s", name, formatDefs(result.In[name])))
			lines = append(lines, fmt.Sprintf("reaching[%s].out: %s", name, formatDefs(result.Out[name])))
		}
	}
	if opts.Live {
		result := dataflow.LiveVars(cfg)
		for _, name := range cfg.Order {
			lines = append(lines, fmt.Sprintf("live[%s].in: %s", name, formatVars(result.In[name])))
			lines = append(lines, fmt.Sprintf("live[%s].out: %s", name, formatVars(result.Out[name])))
		}
	}
	if opts.Available {
		result := dataflow.AvailExprs(cfg)
		for _, name := range cfg.Order {
			lines = append(lines, fmt.Sprintf("available[%s].in: %s", name, formatExprs(result.In[name])))
			lines = append(lines, fmt.Sprintf("available[%s].out: %s", name, formatExprs(result.Out[name])))
		}
	}
	if opts.Constant {
		result := dataflow.ConstProp(cfg)
		for _, name := range cfg.Order {
			lines = append(lines, fmt.Sprintf("constant[%s].in: %s", name, formatConsts(result.In[name])))
			lines = append(lines, fmt.Sprintf("constant[%s].out: %s", name, formatConsts(result.Out[name])))
		}
	}
	return lines
}

func formatDefs(defs map[dataflow.Def]bool) string {
	var parts []string
	for d := range defs {
		parts = append(parts, fmt.Sprintf("%s@%d", d.Var, d.InstrID))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatVars(vars map[string]bool) string {
	var parts []string
	for v := range vars {
		parts = append(parts, v)
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatExprs(exprs map[dataflow.Expr]bool) string {
	var parts []string
	for e := range exprs {
		parts = append(parts, fmt.Sprintf("%s(%s)", e.Op, e.Args))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatConsts(state map[string]dataflow.CPValue) string {
	var names []string
	for v := range state {
		names = append(names, v)
	}
	sort.Strings(names)
	var parts []string
	for _, v := range names {
		cp := state[v]
		switch cp.Kind {
		case dataflow.CPConst:
			parts = append(parts, fmt.Sprintf("%s=%v", v, cp.Value))
		case dataflow.CPTop:
			parts = append(parts, fmt.Sprintf("%s=⊤", v))
		default:
			parts = append(parts, fmt.Sprintf("%s=⊥", v))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
