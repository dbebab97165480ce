package ircfg

import (
	"fmt"

	"ssaopt/internal/ir"
)

// Build constructs a deterministic CFG from a function's instruction
// stream: blocks split the way splitBlocks does, successors come from
// jmp/br targets or fallthrough to the next block, ret has no successors,
// and predecessors are the transpose of the successor relation. This
// mirrors original_source/cfg.py's get_cfg_w_blocks.
func Build(fn *ir.Function) *CFG {
	raw := splitBlocks(fn.Instrs)
	cfg := &CFG{Blocks: map[string]*Block{}}

	names := make([]string, len(raw))
	bodies := make([][]*ir.Instruction, len(raw))
	for i, block := range raw {
		name, body := blockName(block, i)
		names[i] = name
		bodies[i] = body
	}

	for i, name := range names {
		b := &Block{Name: name, Instrs: bodies[i]}
		if term := b.Terminator(); term != nil {
			switch term.Op {
			case ir.OpJmp, ir.OpBr:
				b.Succs = append([]string(nil), term.Labels...)
			case ir.OpRet:
				b.Succs = nil
			default:
				b.Succs = fallthroughSucc(names, i)
			}
		} else {
			b.Succs = fallthroughSucc(names, i)
		}
		cfg.Blocks[name] = b
		cfg.Order = append(cfg.Order, name)
	}

	for _, name := range names {
		for _, succ := range cfg.Blocks[name].Succs {
			target, ok := cfg.Blocks[succ]
			if !ok {
				continue
			}
			target.Preds = append(target.Preds, name)
		}
	}

	if len(names) > 0 {
		cfg.Entry = names[0]
	}
	return cfg
}

func fallthroughSucc(names []string, i int) []string {
	if i == len(names)-1 {
		return nil
	}
	return []string{names[i+1]}
}

// InsertBlock adds a new named block with the given instructions,
// predecessors and successors, and wires it into the predecessor and
// successor sides of the existing edges it names. The caller is
// responsible for making sure those neighbor blocks' own edge lists agree
// (Build's invariant is that Preds/Succs are always kept as transposes of
// each other); it edits both sides by hand instead of recomputing them.
func InsertBlock(cfg *CFG, label string, instrs []*ir.Instruction, preds, succs []string) {
	b := &Block{Name: label, Instrs: instrs, Preds: append([]string(nil), preds...), Succs: append([]string(nil), succs...)}
	cfg.Blocks[label] = b
	cfg.Order = append(cfg.Order, label)
	for _, p := range preds {
		if pb, ok := cfg.Blocks[p]; ok {
			pb.Succs = append(pb.Succs, label)
		}
	}
	for _, s := range succs {
		if sb, ok := cfg.Blocks[s]; ok {
			sb.Preds = append(sb.Preds, label)
		}
	}
}

// InsertPreheader injects a new block whose sole successor is header and
// whose predecessors are every predecessor of header that is not a
// back-edge tail (spec: back-edge tails keep pointing at the header
// itself). Every non-back-edge predecessor is rewired to jump to the new
// preheader instead. Grounded on original_source/cfg.py's
// insert_into_cfg, generalized from its hardcoded fatal "safe.return"
// stub to an unconditional jmp preheader (LICM has no use for a dummy ret
// block; it only needs a hoist target).
func InsertPreheader(cfg *CFG, header string, backEdgeTails map[string]bool, freshName func() string) (string, error) {
	hb, ok := cfg.Blocks[header]
	if !ok {
		return "", fmt.Errorf("insert preheader: unknown header block %q", header)
	}

	var keep, redirect []string
	for _, p := range hb.Preds {
		if backEdgeTails[p] {
			keep = append(keep, p)
		} else {
			redirect = append(redirect, p)
		}
	}

	name := freshName()
	pre := &Block{
		Name:   name,
		Instrs: []*ir.Instruction{ir.Jump(header)},
		Preds:  append([]string(nil), redirect...),
		Succs:  []string{header},
	}
	cfg.Blocks[name] = pre
	cfg.Order = append(cfg.Order, name)

	hb.Preds = append(append([]string(nil), keep...), name)

	for _, p := range redirect {
		pb := cfg.Blocks[p]
		if pb == nil {
			continue
		}
		rewireSuccessor(pb, header, name)
		term := pb.Terminator()
		if term == nil || (term.Op != ir.OpJmp && term.Op != ir.OpBr) {
			pb.Instrs = append(pb.Instrs, ir.Jump(name))
			continue
		}
		rewireTerminatorLabel(term, header, name)
	}
	return name, nil
}

func rewireSuccessor(b *Block, from, to string) {
	for i, s := range b.Succs {
		if s == from {
			b.Succs[i] = to
		}
	}
}

func rewireTerminatorLabel(term *ir.Instruction, from, to string) {
	if term == nil {
		return
	}
	for i, l := range term.Labels {
		if l == from {
			term.Labels[i] = to
		}
	}
}

// Reverse returns a new CFG with every Preds/Succs edge flipped; blocks'
// instructions are shared, not copied, since ADCE's reverse-CFG walk only
// reads edges. Grounded on original_source/cfg.py's reverse_cfg.
func Reverse(cfg *CFG) *CFG {
	out := &CFG{Entry: cfg.Entry, Blocks: map[string]*Block{}, Order: append([]string(nil), cfg.Order...)}
	for name, b := range cfg.Blocks {
		out.Blocks[name] = &Block{
			Name:   name,
			Instrs: b.Instrs,
			Preds:  append([]string(nil), b.Succs...),
			Succs:  append([]string(nil), b.Preds...),
		}
	}
	return out
}

// AddUniqueExit synthesizes a single empty exit block that every
// currently-successor-less block (a ret block, or an unterminated last
// block) is connected to, so that reverse-dominance and post-dominance
// analyses have one well-defined root. Grounded on
// original_source/cfg.py's add_unique_exit_to_cfg.
func AddUniqueExit(cfg *CFG, name string) {
	var preds []string
	for _, n := range cfg.Order {
		b := cfg.Blocks[n]
		if len(b.Succs) == 0 {
			b.Succs = append(b.Succs, name)
			preds = append(preds, n)
		}
	}
	cfg.Blocks[name] = &Block{Name: name, Preds: preds}
	cfg.Order = append(cfg.Order, name)
}

// Join flattens a CFG back into a single instruction stream in Order,
// reinserting a synthetic label instruction for any block whose first
// instruction is not already a label (spec §4.1; grounded on
// original_source/cfg.py's join_cfg).
func Join(cfg *CFG) []*ir.Instruction {
	var out []*ir.Instruction
	for _, name := range cfg.Order {
		b := cfg.Blocks[name]
		if len(b.Instrs) == 0 || !b.Instrs[0].IsLabel() {
			out = append(out, ir.Label(name))
		}
		out = append(out, b.Instrs...)
	}
	return out
}

// Coalesce merges a block into its sole predecessor whenever that
// predecessor has exactly one successor (this block) and this block has
// exactly one predecessor (that predecessor), dropping the now-redundant
// jmp connecting them. The entry block is never merged away so its name
// stays a stable handle for the caller. Spec §4.1: "no other side effects
// in between, no labels referenced elsewhere" — enforced here by the
// single-pred/single-succ degree check, which rules out any other
// instruction in the CFG naming this block's label.
func Coalesce(cfg *CFG) {
	changed := true
	for changed {
		changed = false
		for _, name := range append([]string(nil), cfg.Order...) {
			if name == cfg.Entry {
				continue
			}
			b, ok := cfg.Blocks[name]
			if !ok || len(b.Preds) != 1 {
				continue
			}
			pred := cfg.Blocks[b.Preds[0]]
			if pred == nil || len(pred.Succs) != 1 || pred.Succs[0] != name {
				continue
			}
			mergeInto(cfg, pred, b)
			changed = true
		}
	}
}

func mergeInto(cfg *CFG, pred, b *Block) {
	if term := pred.Terminator(); term != nil && term.Op == ir.OpJmp {
		pred.Instrs = pred.Instrs[:len(pred.Instrs)-1]
	}
	pred.Instrs = append(pred.Instrs, b.Instrs...)
	pred.Succs = append([]string(nil), b.Succs...)
	for _, s := range pred.Succs {
		if sb := cfg.Blocks[s]; sb != nil {
			sb.Preds = replace(sb.Preds, b.Name, pred.Name)
		}
	}
	delete(cfg.Blocks, b.Name)
	cfg.Order = removeName(cfg.Order, b.Name)
}

func replace(ss []string, from, to string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		if s == from {
			out[i] = to
		} else {
			out[i] = s
		}
	}
	return out
}

func removeName(order []string, name string) []string {
	out := make([]string, 0, len(order))
	for _, n := range order {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
