// Package ircfg builds and rewrites the control-flow graph a Function's
// flat instruction stream implies, in the tradition of the Bril reference
// implementation's cfg.py: blocks split on labels and terminators, and the
// CFG itself is just a label-keyed adjacency map over those blocks.
package ircfg

import (
	"strconv"

	"ssaopt/internal/ir"
)

// Block is a maximal straight-line instruction run: no instruction but the
// last is a terminator, and no instruction but the first is a label target.
// The leading label, if any, is not duplicated in Instrs — it is the map
// key in CFG.Blocks instead.
type Block struct {
	Name   string
	Instrs []*ir.Instruction
	Preds  []string
	Succs  []string
}

// Terminator returns the block's last instruction, or nil for an empty
// block (the synthetic unique-exit block has no instructions).
func (b *Block) Terminator() *ir.Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

// CFG is a control-flow graph over a single function: a deterministically
// ordered set of named blocks plus their predecessor/successor edges.
type CFG struct {
	Entry  string
	Blocks map[string]*Block
	Order  []string
}

// Block looks up a block by name.
func (c *CFG) Block(name string) *Block { return c.Blocks[name] }

// splitBlocks partitions an instruction stream into maximal straight-line
// runs, mirroring original_source/cfg.py's form_blocks: a label always
// starts a new block, and a terminator always ends the current one.
func splitBlocks(instrs []*ir.Instruction) [][]*ir.Instruction {
	var blocks [][]*ir.Instruction
	var cur []*ir.Instruction
	for _, instr := range instrs {
		if instr.IsLabel() {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
			}
			cur = []*ir.Instruction{instr}
			continue
		}
		cur = append(cur, instr)
		if instr.IsTerminator() {
			blocks = append(blocks, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

// BuildBlocks is the public form of splitBlocks: an ordered list of raw
// instruction runs, before names or edges are assigned. Callers that only
// need the partition (e.g. a pretty-printer) can use this directly instead
// of paying for a full Build.
func BuildBlocks(instrs []*ir.Instruction) [][]*ir.Instruction {
	return splitBlocks(instrs)
}

func blockName(raw []*ir.Instruction, index int) (string, []*ir.Instruction) {
	if len(raw) > 0 && raw[0].IsLabel() {
		return raw[0].Label, raw[1:]
	}
	return syntheticName(index), raw
}

func syntheticName(index int) string {
	return "b" + strconv.Itoa(index)
}
