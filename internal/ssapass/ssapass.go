// Package ssapass converts a Function to and from SSA form, and checks
// the SSA well-formedness invariant the rest of the pipeline relies on
// between passes. Grounded on original_source/ssa.py's func_to_ssa /
// func_from_ssa / is_ssa; the one genuine addition over that reference is
// the synthetic-definition rule for an unbound phi operand (spec §4.5),
// which original_source's rename silently leaves as a dangling variable
// reference on the unbound path instead of manufacturing a value.
package ssapass

import (
	"fmt"

	"ssaopt/internal/dom"
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

type nameVersion struct {
	base    string
	version int
}

func (nv nameVersion) name() string {
	if nv.version == 0 {
		return nv.base
	}
	return fmt.Sprintf("%s_%d", nv.base, nv.version)
}

// ToSSA rewrites fn in place into SSA form: one static definition per
// variable version, phi nodes at every dominance-frontier join.
func ToSSA(fn *ir.Function) error {
	fn.Renumber()
	cfg := ircfg.Build(fn)
	if len(cfg.Order) == 0 {
		return nil
	}
	info := dom.Build(cfg)

	defBlocks, types := collectDefs(fn, cfg)
	phiBase := map[*ir.Instruction]string{}
	insertPhis(cfg, info, defBlocks, types, phiBase)

	stack := map[string][]nameVersion{}
	counters := map[string]int{}
	for _, p := range fn.Params {
		stack[p.Name] = []nameVersion{{base: p.Name, version: 0}}
	}

	r := &renamer{cfg: cfg, info: info, types: types, stack: stack, counters: counters, phiBase: phiBase}
	r.rename(cfg.Entry)

	fn.Params = renameParams(fn.Params, r)
	fn.Instrs = ircfg.Join(cfg)
	fn.Renumber()
	return nil
}

// renameParams declares each parameter under the SSA name its incoming
// (version-0) value is known by everywhere else in the body: rename
// leaves an unreassigned read as the bare base name (nameVersion's
// version 0 carries no suffix, see name() above), so the declaration
// must match that, not assume every parameter got a "_0" suffix.
func renameParams(params []ir.Param, r *renamer) []ir.Param {
	out := make([]ir.Param, len(params))
	for i, p := range params {
		name := p.Name
		if nv, ok := r.top(p.Name); ok {
			name = nv.name()
		}
		out[i] = ir.Param{Name: name, Type: p.Type}
	}
	return out
}

// collectDefs gathers, for every variable, the set of blocks that define
// it (function parameters are attributed to the entry block) and its
// declared type.
func collectDefs(fn *ir.Function, cfg *ircfg.CFG) (map[string]map[string]bool, map[string]ir.Type) {
	defBlocks := map[string]map[string]bool{}
	types := map[string]ir.Type{}

	add := func(v, block string, t ir.Type) {
		if defBlocks[v] == nil {
			defBlocks[v] = map[string]bool{}
		}
		defBlocks[v][block] = true
		if t != nil {
			types[v] = t
		}
	}
	for _, p := range fn.Params {
		add(p.Name, cfg.Entry, p.Type)
	}
	for _, name := range cfg.Order {
		for _, instr := range cfg.Blocks[name].Instrs {
			if instr.HasDest() {
				add(instr.Dest, name, instr.Type)
			}
		}
	}
	return defBlocks, types
}

// insertPhis places a deduplicated phi at the top of every block in the
// iterated dominance frontier of each of a variable's defining blocks
// (spec §4.5), closing over newly-added phi blocks as additional
// definition sites the way original_source/ssa.py's insert_phi does.
func insertPhis(cfg *ircfg.CFG, info *dom.Info, defBlocks map[string]map[string]bool, types map[string]ir.Type, phiBase map[*ir.Instruction]string) {
	for v, blocks := range defBlocks {
		added := map[string]bool{}
		worklist := setToSlice(blocks)
		for len(worklist) > 0 {
			b := worklist[0]
			worklist = worklist[1:]
			for df := range info.Front[b] {
				if added[df] {
					continue
				}
				added[df] = true
				block := cfg.Blocks[df]
				phi := ir.Phi(v, types[v], repeat(v, len(block.Preds)), append([]string(nil), block.Preds...))
				phiBase[phi] = v
				block.Instrs = prependPhi(block.Instrs, phi)
				if !blocks[df] {
					blocks[df] = true
					worklist = append(worklist, df)
				}
			}
		}
	}
}

func setToSlice(s map[string]bool) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

func repeat(v string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func prependPhi(instrs []*ir.Instruction, phi *ir.Instruction) []*ir.Instruction {
	out := make([]*ir.Instruction, 0, len(instrs)+1)
	out = append(out, phi)
	out = append(out, instrs...)
	return out
}

type renamer struct {
	cfg      *ircfg.CFG
	info     *dom.Info
	types    map[string]ir.Type
	stack    map[string][]nameVersion
	counters map[string]int
	phiBase  map[*ir.Instruction]string
}

func (r *renamer) fresh(base string) nameVersion {
	r.counters[base]++
	return nameVersion{base: base, version: r.counters[base]}
}

func (r *renamer) top(v string) (nameVersion, bool) {
	s := r.stack[v]
	if len(s) == 0 {
		return nameVersion{}, false
	}
	return s[len(s)-1], true
}

// rename performs the dominator-tree-directed recursive rewrite from spec
// §4.5 / original_source/ssa.py's rename: rewrite reads to the top of
// stack, push a fresh name on each write, fill successor phi operands
// from the current stack (synthesizing a default definition when a
// variable is unbound on this path), recurse over dominator-tree
// children, then pop every name this block pushed.
func (r *renamer) rename(blockName string) {
	block := r.cfg.Blocks[blockName]
	pushed := map[string][]string{}

	for _, instr := range block.Instrs {
		if instr.Op != ir.OpPhi {
			for i, a := range instr.Args {
				if nv, ok := r.top(a); ok {
					instr.Args[i] = nv.name()
				}
			}
		}
		if instr.HasDest() {
			nv := r.fresh(instr.Dest)
			r.stack[instr.Dest] = append(r.stack[instr.Dest], nv)
			pushed[instr.Dest] = append(pushed[instr.Dest], nv.name())
			instr.Dest = nv.name()
		}
	}

	for _, succName := range block.Succs {
		succ := r.cfg.Blocks[succName]
		for _, instr := range succ.Instrs {
			if instr.Op != ir.OpPhi {
				continue
			}
			base := r.phiBase[instr]
			for i, label := range instr.Labels {
				if label != blockName {
					continue
				}
				if nv, ok := r.top(base); ok {
					instr.Args[i] = nv.name()
				} else {
					synthetic := r.synthesizeDefault(block, base)
					instr.Args[i] = synthetic
				}
			}
		}
	}

	for _, child := range r.info.Tree[blockName] {
		r.rename(child)
	}

	for v, names := range pushed {
		for range names {
			r.stack[v] = r.stack[v][:len(r.stack[v])-1]
		}
	}
}

// synthesizeDefault appends a fresh default-valued definition to block
// (before its terminator) for a phi operand unbound on this path, per
// spec §4.5, and returns its renamed name.
func (r *renamer) synthesizeDefault(block *ircfg.Block, base string) string {
	t := r.types[base]
	def := ir.Const(base, t, ir.DefaultValue(t))
	insertBeforeTerminator(block, def)
	nv := r.fresh(base)
	def.Dest = nv.name()
	return nv.name()
}

func insertBeforeTerminator(block *ircfg.Block, instr *ir.Instruction) {
	if len(block.Instrs) > 0 && block.Instrs[len(block.Instrs)-1].IsTerminator() {
		last := len(block.Instrs) - 1
		block.Instrs = append(block.Instrs, nil)
		copy(block.Instrs[last+1:], block.Instrs[last:])
		block.Instrs[last] = instr
		return
	}
	block.Instrs = append(block.Instrs, instr)
}

// IsSSA reports whether every destination in fn is defined exactly once
// (function parameters count as the entry definition), per
// original_source/ssa.py's is_ssa.
func IsSSA(fn *ir.Function) bool {
	seen := map[string]bool{}
	for _, p := range fn.Params {
		seen[p.Name] = true
	}
	for _, instr := range fn.Instrs {
		if instr.Op == ir.OpPhi {
			continue
		}
		if instr.HasDest() {
			if seen[instr.Dest] {
				return false
			}
			seen[instr.Dest] = true
		}
	}
	return true
}
