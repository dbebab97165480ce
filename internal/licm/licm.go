// Package licm implements loop-invariant code motion and induction-variable
// rewriting (spec §4.8). Unlike internal/valuenum's GVN and
// internal/dcepass's aggressive variant, this pass runs on the plain,
// pre-SSA named-variable CFG: a basic induction variable is a direct
// reassignment (`i: int = add i one`), which an SSA renaming would have
// already split into a fresh name per iteration. original_source/licm.py
// and original_source/induction_variables.py are both almost entirely
// `pass`-bodied stubs (insert_preheaders has a syntax error and no body;
// identify_loop_invariant_instrs, move_loop_invariant_instrs,
// find_loop_invariant, find_basic_ivs, find_derived_ivs, and replace_ivs
// are all empty), so the classification and rewrite rules here follow
// spec §4.8's prose directly; only the CFG/loop plumbing
// (internal/dom.NaturalLoops, internal/ircfg.InsertPreheader) is shared
// with the rest of the toolkit.
package licm

import (
	"fmt"

	"ssaopt/internal/dom"
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

// Run hoists loop-invariant instructions to a per-loop preheader and then
// rewrites basic/derived induction variables, per spec §4.8.
func Run(fn *ir.Function) error {
	if err := hoistPass(fn); err != nil {
		return err
	}
	rewriteInductionVariables(fn)
	return nil
}

func hoistPass(fn *ir.Function) error {
	fn.Renumber()
	cfg := ircfg.Build(fn)
	if len(cfg.Order) == 0 {
		return nil
	}
	info := dom.Build(cfg)
	loops := dom.NaturalLoops(cfg, info)
	fresh := freshNameFunc(cfg)

	for _, loop := range loops {
		preheader, err := ircfg.InsertPreheader(cfg, loop.Header, loop.Latches, fresh)
		if err != nil {
			return fmt.Errorf("licm: %w", err)
		}
		hoistLoop(cfg, info, loop, preheader)
	}

	fn.Instrs = ircfg.Join(cfg)
	fn.Renumber()
	return nil
}

func freshNameFunc(cfg *ircfg.CFG) func() string {
	n := 0
	return func() string {
		for {
			name := fmt.Sprintf("licm.preheader%d", n)
			n++
			if _, taken := cfg.Blocks[name]; !taken {
				return name
			}
		}
	}
}

type loc struct {
	block string
	idx   int
}

// hoistLoop classifies loop-invariant instructions within loop and moves
// every one that passes the safe-to-hoist filter into the preheader
// block, in original program order so a hoisted instruction's own
// invariant operands are always hoisted ahead of it.
func hoistLoop(cfg *ircfg.CFG, info *dom.Info, loop *dom.Loop, preheader string) {
	where := map[*ir.Instruction]loc{}
	defCount := map[string]int{}
	defInstr := map[string]*ir.Instruction{}
	for name := range loop.Body {
		for idx, instr := range cfg.Blocks[name].Instrs {
			where[instr] = loc{name, idx}
			if instr.HasDest() {
				defCount[instr.Dest]++
				defInstr[instr.Dest] = instr
			}
		}
	}

	invariant := classifyInvariant(cfg, loop, defCount, defInstr)

	useSites := map[string][]loc{}
	for _, name := range cfg.Order {
		for idx, instr := range cfg.Blocks[name].Instrs {
			for _, a := range instr.Args {
				useSites[a] = append(useSites[a], loc{name, idx})
			}
		}
	}

	decided := map[*ir.Instruction]bool{}
	inProgress := map[*ir.Instruction]bool{}
	var shouldHoist func(instr *ir.Instruction) bool
	shouldHoist = func(instr *ir.Instruction) bool {
		if v, ok := decided[instr]; ok {
			return v
		}
		if inProgress[instr] {
			return false
		}
		inProgress[instr] = true
		defer delete(inProgress, instr)

		ok := safeToHoist(instr, where, defCount, useSites, info, loop)
		if ok {
			for _, a := range instr.Args {
				if di, isLoopDef := defInstr[a]; isLoopDef && invariant[di] {
					if !shouldHoist(di) {
						ok = false
						break
					}
				}
			}
		}
		decided[instr] = ok
		return ok
	}

	pre := cfg.Blocks[preheader]
	var hoisted []*ir.Instruction
	for _, name := range cfg.Order {
		if !loop.Body[name] {
			continue
		}
		block := cfg.Blocks[name]
		var kept []*ir.Instruction
		for _, instr := range block.Instrs {
			if instr.HasDest() && invariant[instr] && shouldHoist(instr) {
				hoisted = append(hoisted, instr)
				continue
			}
			kept = append(kept, instr)
		}
		block.Instrs = kept
	}
	insertBeforeTerminator(pre, hoisted)
}

func insertBeforeTerminator(block *ircfg.Block, instrs []*ir.Instruction) {
	if len(instrs) == 0 {
		return
	}
	if len(block.Instrs) == 0 {
		block.Instrs = instrs
		return
	}
	term := block.Instrs[len(block.Instrs)-1]
	body := block.Instrs[:len(block.Instrs)-1]
	block.Instrs = append(append(append([]*ir.Instruction{}, body...), instrs...), term)
}

// classifyInvariant runs the spec §4.8 fixpoint: a constant uniquely
// defined in the loop is invariant; otherwise an instruction is invariant
// iff every argument either reaches in from outside the loop (never
// redefined in the loop body — guaranteed by the loop's own dominance
// over its body to be the same outer value on every iteration) or is
// defined exactly once in the loop by an already-invariant instruction.
func classifyInvariant(cfg *ircfg.CFG, loop *dom.Loop, defCount map[string]int, defInstr map[string]*ir.Instruction) map[*ir.Instruction]bool {
	invariant := map[*ir.Instruction]bool{}
	reachesInFromOutside := func(name string) bool { return defCount[name] == 0 }

	changed := true
	for changed {
		changed = false
		for name := range loop.Body {
			for _, instr := range cfg.Blocks[name].Instrs {
				if !instr.HasDest() || instr.IsTerminator() || invariant[instr] {
					continue
				}
				if instr.Op == ir.OpConst {
					if defCount[instr.Dest] == 1 {
						invariant[instr] = true
						changed = true
					}
					continue
				}
				if len(instr.Args) == 0 {
					continue
				}
				allOK := true
				for _, a := range instr.Args {
					if reachesInFromOutside(a) {
						continue
					}
					if di, ok := defInstr[a]; ok && defCount[a] == 1 && invariant[di] {
						continue
					}
					allOK = false
					break
				}
				if allOK {
					invariant[instr] = true
					changed = true
				}
			}
		}
	}
	return invariant
}

// safeToHoist applies spec §4.8's three-part filter (operand-dependency
// recursion is handled by the caller).
func safeToHoist(instr *ir.Instruction, where map[*ir.Instruction]loc, defCount map[string]int, useSites map[string][]loc, info *dom.Info, loop *dom.Loop) bool {
	l, ok := where[instr]
	if !ok || defCount[instr.Dest] != 1 {
		return false
	}

	dominates := func(u loc) bool {
		if u.block == l.block {
			return l.idx < u.idx
		}
		return info.Dominates(l.block, u.block)
	}

	for _, u := range useSites[instr.Dest] {
		if loop.Body[u.block] && !dominates(u) {
			return false
		}
	}

	dominatesAllExits := true
	for exit := range loop.Exits {
		if !info.Dominates(l.block, exit) {
			dominatesAllExits = false
			break
		}
	}
	if dominatesAllExits {
		return true
	}

	deadAfterLoop := true
	for _, u := range useSites[instr.Dest] {
		if !loop.Body[u.block] {
			deadAfterLoop = false
			break
		}
	}
	return deadAfterLoop && !instr.Op.HasSideEffect()
}
