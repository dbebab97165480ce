package valuenum

import (
	"fmt"
	"sort"
	"strings"

	"ssaopt/internal/dom"
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
	"ssaopt/internal/ssapass"
)

// GVN runs dominator-tree-directed global value numbering over fn, which
// must already be in SSA form. Grounded on original_source/gvn.py's
// dvnt/gvn_func: a var-to-canonical-name table and an expression-to-
// canonical-name table are threaded down the dominator tree, copied per
// child so each subtree's extensions stay scoped to it and siblings never
// see each other's discoveries. The original's extra reverse-postorder
// pass over dominator-tree children is dropped: scoping already comes
// from the per-child copy, so sibling visit order cannot affect the
// result.
func GVN(fn *ir.Function) error {
	fn.Renumber()
	if !ssapass.IsSSA(fn) {
		return fmt.Errorf("valuenum: GVN requires SSA form")
	}
	cfg := ircfg.Build(fn)
	if len(cfg.Order) == 0 {
		return nil
	}
	info := dom.Build(cfg)

	var2num := map[string]string{}
	expr2num := map[string]string{}
	for _, p := range fn.Params {
		var2num[p.Name] = p.Name
		expr2num[argumentExpr(p.Name)] = p.Name
	}

	dvnt(cfg, info, cfg.Entry, var2num, expr2num)

	fn.Instrs = ircfg.Join(cfg)
	fn.Renumber()
	return nil
}

func argumentExpr(name string) string { return fmt.Sprintf("argument(%s)", name) }

func dvnt(cfg *ircfg.CFG, info *dom.Info, blockName string, var2num, expr2num map[string]string) {
	block := cfg.Blocks[blockName]
	phi2num := map[string]string{}

	var afterPhis []*ir.Instruction
	for _, instr := range block.Instrs {
		if instr.Op != ir.OpPhi {
			afterPhis = append(afterPhis, instr)
			continue
		}
		dst := instr.Dest
		fullyAnalyzed := true
		for _, a := range instr.Args {
			if _, ok := var2num[a]; !ok {
				fullyAnalyzed = false
				break
			}
		}
		noMeaning, meaningVar := phiMeaningless(instr)
		expr := phiExpr(instr)
		redundantVar, isRedundant := phi2num[expr]

		switch {
		case !fullyAnalyzed:
			var2num[dst] = dst
			phi2num[expr] = dst
			afterPhis = append(afterPhis, instr)
		case noMeaning:
			var2num[dst] = meaningVar
		case isRedundant:
			var2num[dst] = redundantVar
		default:
			var2num[dst] = dst
			phi2num[expr] = dst
			afterPhis = append(afterPhis, instr)
		}
	}

	var final []*ir.Instruction
	for _, instr := range afterPhis {
		switch {
		case instr.Op == ir.OpPhi:
			final = append(final, instr)
		case eligibleForGVN(instr):
			if instr.Op != ir.OpConst {
				rewriteArgsWithCanon(instr, var2num)
			}
			canonicalizeCommutativeArgs(instr)
			expr := instrExpr(instr)
			dst := instr.Dest
			if canon, ok := expr2num[expr]; ok {
				var2num[dst] = canon
			} else {
				var2num[dst] = dst
				expr2num[expr] = dst
				final = append(final, instr)
			}
		default:
			rewriteArgsWithCanon(instr, var2num)
			final = append(final, instr)
		}
	}
	block.Instrs = final

	for _, succName := range block.Succs {
		succ := cfg.Blocks[succName]
		for _, instr := range succ.Instrs {
			if instr.Op != ir.OpPhi {
				continue
			}
			for i, a := range instr.Args {
				if v, ok := var2num[a]; ok {
					instr.Args[i] = v
				}
			}
		}
	}

	for _, child := range info.Tree[blockName] {
		dvnt(cfg, info, child, cloneStringMap(var2num), cloneStringMap(expr2num))
	}
}

// eligibleForGVN reports whether instr's result can be tracked in the
// value table: a const or any side-effect-free operator over already-
// value-numbered operands (spec §4.6's PureOps, generalized from
// gvn.py's id/unop/binop set to include this IR's ptradd).
func eligibleForGVN(instr *ir.Instruction) bool {
	if !instr.HasDest() || instr.Op == ir.OpPhi {
		return false
	}
	return instr.Op == ir.OpConst || instr.Op.IsPure()
}

func rewriteArgsWithCanon(instr *ir.Instruction, var2num map[string]string) {
	for i, a := range instr.Args {
		if v, ok := var2num[a]; ok {
			instr.Args[i] = v
		}
	}
}

func canonicalizeCommutativeArgs(instr *ir.Instruction) {
	if instr.Op.IsCommutative() && len(instr.Args) == 2 {
		sort.Strings(instr.Args)
	}
}

func instrExpr(instr *ir.Instruction) string {
	if instr.Op == ir.OpConst {
		return fmt.Sprintf("const(%v:%T)", instr.Value, instr.Value)
	}
	return fmt.Sprintf("%s(%s)", instr.Op, strings.Join(instr.Args, ","))
}

// phiExpr mirrors instr_to_expr for phi nodes: raw argument order, never
// canonicalized (a phi's operands are positionally tied to predecessors,
// unlike a commutative binop's).
func phiExpr(instr *ir.Instruction) string {
	return fmt.Sprintf("%s(%s)", instr.Op, strings.Join(instr.Args, ","))
}

// phiMeaningless reports whether every operand of a phi is the same
// variable, per gvn.py's meaningless: such a phi just forwards that one
// value and can be deleted.
func phiMeaningless(instr *ir.Instruction) (bool, string) {
	if len(instr.Args) == 0 {
		return false, ""
	}
	first := instr.Args[0]
	for _, a := range instr.Args {
		if a != first {
			return false, ""
		}
	}
	return true, first
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
