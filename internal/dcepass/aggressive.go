package dcepass

import (
	"fmt"

	"ssaopt/internal/dom"
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
	"ssaopt/internal/ssapass"
)

const syntheticExit = "dce.exit"

// Aggressive runs aggressive DCE over an SSA function (spec §4.7). unsafe
// selects the variant that does not force a back-edge's terminator live,
// and so may delete an infinite, side-effect-free loop; the safe variant
// (unsafe=false) keeps every loop's back edge reachable regardless of
// whether anything downstream needs it.
func Aggressive(fn *ir.Function, unsafe bool) error {
	fn.Renumber()
	if !ssapass.IsSSA(fn) {
		return fmt.Errorf("dcepass: aggressive DCE requires SSA form")
	}
	cfg := ircfg.Build(fn)
	if len(cfg.Order) == 0 {
		return nil
	}
	info := dom.Build(cfg)

	exitCFG := ircfg.Build(fn)
	ircfg.AddUniqueExit(exitCFG, syntheticExit)
	rcfg := ircfg.Reverse(exitCFG)
	rcfg.Entry = syntheticExit
	rinfo := dom.Build(rcfg)

	defOf := map[string]*ir.Instruction{}
	blockOf := map[*ir.Instruction]string{}
	for _, name := range cfg.Order {
		for _, instr := range cfg.Blocks[name].Instrs {
			blockOf[instr] = name
			if instr.HasDest() {
				defOf[instr.Dest] = instr
			}
		}
	}

	live := map[*ir.Instruction]bool{}
	var queue []*ir.Instruction
	mark := func(instr *ir.Instruction) {
		if instr == nil || live[instr] {
			return
		}
		live[instr] = true
		queue = append(queue, instr)
	}

	for _, name := range cfg.Order {
		for _, instr := range cfg.Blocks[name].Instrs {
			if isEffectful(instr) {
				mark(instr)
			}
		}
	}

	if !unsafe {
		for _, loop := range dom.NaturalLoops(cfg, info) {
			for latch := range loop.Latches {
				mark(cfg.Blocks[latch].Terminator())
			}
		}
	}

	for len(queue) > 0 {
		instr := queue[0]
		queue = queue[1:]

		for _, a := range instr.Args {
			mark(defOf[a])
		}

		from := blockOf[instr]
		for _, b := range cfg.Order {
			if rinfo.Front[from][b] {
				mark(cfg.Blocks[b].Terminator())
			}
		}
	}

	for _, name := range cfg.Order {
		block := cfg.Blocks[name]
		var kept []*ir.Instruction
		for i, instr := range block.Instrs {
			isLast := i == len(block.Instrs)-1
			if !isLast || !instr.IsTerminator() {
				if live[instr] {
					kept = append(kept, instr)
				}
				continue
			}
			kept = append(kept, rewriteDeadTerminator(instr, live, name, rinfo))
		}
		block.Instrs = kept
	}

	fn.Instrs = ircfg.Join(cfg)
	fn.Renumber()
	return nil
}

func isEffectful(instr *ir.Instruction) bool { return instr.Op.HasSideEffect() }

// rewriteDeadTerminator collapses an unmarked conditional branch to an
// unconditional jump at its immediate post-dominator — the point where
// both arms reconverge, so erasing the condition cannot change which
// live code still runs. Every other terminator shape (jmp, ret, or a
// branch that was marked live) passes through unchanged.
func rewriteDeadTerminator(instr *ir.Instruction, live map[*ir.Instruction]bool, blockName string, rinfo *dom.Info) *ir.Instruction {
	if live[instr] || instr.Op != ir.OpBr {
		return instr
	}
	target, ok := rinfo.IDom[blockName]
	if !ok || target == "" || target == syntheticExit {
		return instr
	}
	return ir.Jump(target)
}
