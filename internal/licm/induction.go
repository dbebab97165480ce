package licm

import (
	"ssaopt/internal/dom"
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

// basicIV is `i = i + c`: i redefines itself by a loop-invariant bump and
// has exactly one definition in the loop (spec §4.8).
type basicIV struct {
	instr *ir.Instruction
	block string
	bump  string
}

// multIV is `a = c*i`: c invariant, i a recognized basic IV.
type multIV struct {
	c string
	i string
}

// derivedIV is `j = a + d = c*i + d`: a multiplied-invariant, d a concrete
// loop-invariant integer constant.
type derivedIV struct {
	instr *ir.Instruction
	block string
	mult  multIV
	d     string
}

// rewriteInductionVariables runs over every natural loop that already has
// a preheader (hoistPass inserts one for every loop before this runs) and
// strength-reduces every derived induction variable it finds: `j` is
// initialized once in the preheader and incremented alongside `i` in the
// loop instead of being recomputed from a multiply every iteration.
func rewriteInductionVariables(fn *ir.Function) {
	fn.Renumber()
	cfg := ircfg.Build(fn)
	if len(cfg.Order) == 0 {
		return
	}
	info := dom.Build(cfg)
	loops := dom.NaturalLoops(cfg, info)

	for _, loop := range loops {
		preheader := findPreheader(cfg, loop)
		if preheader == "" {
			continue
		}
		rewriteLoopIVs(cfg, info, loop, preheader)
	}

	fn.Instrs = ircfg.Join(cfg)
	fn.Renumber()
}

func findPreheader(cfg *ircfg.CFG, loop *dom.Loop) string {
	hb := cfg.Blocks[loop.Header]
	for _, p := range hb.Preds {
		if !loop.Latches[p] {
			return p
		}
	}
	return ""
}

func rewriteLoopIVs(cfg *ircfg.CFG, info *dom.Info, loop *dom.Loop, preheader string) {
	defCount := map[string]int{}
	defInstr := map[string]*ir.Instruction{}
	for name := range loop.Body {
		for _, instr := range cfg.Blocks[name].Instrs {
			if instr.HasDest() {
				defCount[instr.Dest]++
				defInstr[instr.Dest] = instr
			}
		}
	}
	invariant := classifyInvariant(cfg, loop, defCount, defInstr)
	invariantName := func(name string) bool { return isInvariantName(name, defCount, defInstr, invariant) }

	basics := findBasicIVs(cfg, info, loop, defCount)
	mults := findMultipliedInvariants(cfg, loop, invariantName, basics)
	derived := findDerivedIVs(cfg, info, loop, defCount, mults)

	pre := cfg.Blocks[preheader]
	for _, d := range derived {
		basic, ok := basics[d.mult.i]
		if !ok {
			continue
		}
		iBlockRef := cfg.Blocks[basic.block]

		var jDominatesI bool
		if d.block == basic.block {
			jDominatesI = indexOfInstr(cfg.Blocks[d.block], d.instr) < indexOfInstr(iBlockRef, basic.instr)
		} else {
			jDominatesI = info.Dominates(d.block, basic.block)
		}

		removeInstr(cfg.Blocks[d.block], d.instr)

		initInstr := ir.Unary(ir.OpID, d.instr.Dest, d.instr.Type, d.d)
		insertBeforeTerminator(pre, []*ir.Instruction{initInstr})

		newUpdate := ir.Binary(ir.OpAdd, d.instr.Dest, d.instr.Type, d.instr.Dest, d.mult.c)
		iIdx := indexOfInstr(iBlockRef, basic.instr)
		if jDominatesI {
			insertAt(iBlockRef, iIdx, newUpdate)
		} else {
			insertAt(iBlockRef, iIdx+1, newUpdate)
		}
	}
}

// isInvariantName reports whether name is loop-invariant: reaching in from
// outside the loop (never redefined in the body) or defined exactly once
// in the loop by an instruction already classified invariant.
func isInvariantName(name string, defCount map[string]int, defInstr map[string]*ir.Instruction, invariant map[*ir.Instruction]bool) bool {
	if defCount[name] == 0 {
		return true
	}
	if di, ok := defInstr[name]; ok && defCount[name] == 1 {
		return invariant[di]
	}
	return false
}

func findBasicIVs(cfg *ircfg.CFG, info *dom.Info, loop *dom.Loop, defCount map[string]int) map[string]basicIV {
	basics := map[string]basicIV{}
	for name := range loop.Body {
		for _, instr := range cfg.Blocks[name].Instrs {
			if instr.Op != ir.OpAdd || !instr.HasDest() || len(instr.Args) != 2 {
				continue
			}
			dest := instr.Dest
			a0, a1 := instr.Args[0], instr.Args[1]
			var bump string
			switch dest {
			case a0:
				bump = a1
			case a1:
				bump = a0
			default:
				continue
			}
			if defCount[dest] != 1 {
				continue
			}
			v, ok := constIntValue(cfg, info, loop, defCount, bump)
			if !ok || v != 1 {
				continue
			}
			basics[dest] = basicIV{instr: instr, block: name, bump: bump}
		}
	}
	return basics
}

func findMultipliedInvariants(cfg *ircfg.CFG, loop *dom.Loop, invariantName func(string) bool, basics map[string]basicIV) map[string]multIV {
	mults := map[string]multIV{}
	for name := range loop.Body {
		for _, instr := range cfg.Blocks[name].Instrs {
			if instr.Op != ir.OpMul || !instr.HasDest() || len(instr.Args) != 2 {
				continue
			}
			a0, a1 := instr.Args[0], instr.Args[1]
			var c, i string
			if _, isBasic := basics[a1]; isBasic && invariantName(a0) {
				c, i = a0, a1
			} else if _, isBasic := basics[a0]; isBasic && invariantName(a1) {
				c, i = a1, a0
			} else {
				continue
			}
			mults[instr.Dest] = multIV{c: c, i: i}
		}
	}
	return mults
}

func findDerivedIVs(cfg *ircfg.CFG, info *dom.Info, loop *dom.Loop, defCount map[string]int, mults map[string]multIV) []derivedIV {
	var out []derivedIV
	for name := range loop.Body {
		for _, instr := range cfg.Blocks[name].Instrs {
			if instr.Op != ir.OpAdd || !instr.HasDest() || len(instr.Args) != 2 {
				continue
			}
			a0, a1 := instr.Args[0], instr.Args[1]
			var m multIV
			var d string
			var ok bool
			if mv, found := mults[a0]; found {
				if _, isOK := constIntValue(cfg, info, loop, defCount, a1); isOK {
					m, d, ok = mv, a1, true
				}
			}
			if !ok {
				if mv, found := mults[a1]; found {
					if _, isOK := constIntValue(cfg, info, loop, defCount, a0); isOK {
						m, d, ok = mv, a0, true
					}
				}
			}
			if !ok {
				continue
			}
			out = append(out, derivedIV{instr: instr, block: name, mult: m, d: d})
		}
	}
	return out
}

// constIntValue resolves name to an integer constant's value, preferring a
// unique in-loop definition and falling back to a definition in a block
// that dominates the loop header (a reaching-in-from-outside proxy: since
// the whole pass runs pre-SSA, full reaching-definitions analysis would
// be needed for the general case, but every loop this pass can already
// hoist into a preheader has its invariant constants defined in blocks
// that dominate the header).
func constIntValue(cfg *ircfg.CFG, info *dom.Info, loop *dom.Loop, defCount map[string]int, name string) (int64, bool) {
	for blk := range loop.Body {
		for _, instr := range cfg.Blocks[blk].Instrs {
			if instr.Dest == name && instr.Op == ir.OpConst {
				if defCount[name] != 1 {
					return 0, false
				}
				return toInt(instr.Value)
			}
		}
	}
	for _, blkName := range cfg.Order {
		if loop.Body[blkName] || !info.Dominates(blkName, loop.Header) {
			continue
		}
		for _, instr := range cfg.Blocks[blkName].Instrs {
			if instr.Dest == name && instr.Op == ir.OpConst {
				return toInt(instr.Value)
			}
		}
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func indexOfInstr(block *ircfg.Block, instr *ir.Instruction) int {
	for idx, in := range block.Instrs {
		if in == instr {
			return idx
		}
	}
	return -1
}

func removeInstr(block *ircfg.Block, instr *ir.Instruction) {
	kept := make([]*ir.Instruction, 0, len(block.Instrs))
	for _, in := range block.Instrs {
		if in != instr {
			kept = append(kept, in)
		}
	}
	block.Instrs = kept
}

func insertAt(block *ircfg.Block, idx int, instr *ir.Instruction) {
	if idx < 0 || idx > len(block.Instrs) {
		block.Instrs = append(block.Instrs, instr)
		return
	}
	block.Instrs = append(block.Instrs[:idx:idx], append([]*ir.Instruction{instr}, block.Instrs[idx:]...)...)
}
