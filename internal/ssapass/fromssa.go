package ssapass

import (
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

// FromSSA removes every phi in fn, splicing an `id` copy into each
// predecessor instead. Grounded on original_source/ssa.py's
// func_from_ssa / insert_at_end_of_bb: the copy goes immediately before
// the predecessor's terminator (or at the very end of a predecessor with
// none), per spec §4.5.
func FromSSA(fn *ir.Function) {
	cfg := ircfg.Build(fn)
	for _, name := range cfg.Order {
		block := cfg.Blocks[name]
		var kept []*ir.Instruction
		for _, instr := range block.Instrs {
			if instr.Op != ir.OpPhi {
				kept = append(kept, instr)
				continue
			}
			for i, arg := range instr.Args {
				pred := instr.Labels[i]
				predBlock := cfg.Blocks[pred]
				if predBlock == nil {
					continue
				}
				copyInstr := ir.Unary(ir.OpID, instr.Dest, instr.Type, arg)
				insertBeforeTerminator(predBlock, copyInstr)
			}
		}
		block.Instrs = kept
	}
	fn.Instrs = ircfg.Join(cfg)
	fn.Renumber()
}
