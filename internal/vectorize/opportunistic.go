package vectorize

import (
	"fmt"
	"strings"

	"ssaopt/internal/ir"
)

// minMatchesForPartial is the threshold below which two operand tuples
// are treated as unrelated rather than partially reusable (spec §4.11 /
// opportunistic_lvn_slp.py's MIN_MATCHES_FOR_PARTIAL).
const minMatchesForPartial = 2

// packEntry is one row of the packing table: the source-name tuple a
// vector register was built from, in insertion order so partial-match
// scanning mirrors the reference's dict-iteration-order behavior.
type packEntry struct {
	args []string
	vec  string
}

type packTable struct {
	exact   map[string]string
	entries []packEntry
}

func newPackTable() *packTable { return &packTable{exact: map[string]string{}} }

func tupleKey(args []string) string { return strings.Join(args, "\x00") }

func (p *packTable) lookup(args []string) (string, bool) {
	v, ok := p.exact[tupleKey(args)]
	return v, ok
}

// partialMatch returns the first prior entry sharing at least
// minMatchesForPartial leading-position-aligned names with args, plus the
// positions that differ.
func (p *packTable) partialMatch(args []string) (packEntry, []int, bool) {
	for _, e := range p.entries {
		matched, unmatched := partialMatchIndices(args, e.args)
		if matched {
			return e, unmatched, true
		}
	}
	return packEntry{}, nil, false
}

func partialMatchIndices(args, prior []string) (bool, []int) {
	minLen := len(args)
	if len(prior) < minLen {
		minLen = len(prior)
	}
	matched := 0
	var unmatched []int
	for i := 0; i < minLen; i++ {
		if args[i] == prior[i] {
			matched++
		} else {
			unmatched = append(unmatched, i)
		}
	}
	return matched >= minMatchesForPartial, unmatched
}

func (p *packTable) set(args []string, vec string) {
	key := tupleKey(args)
	p.exact[key] = vec
	p.entries = append(p.entries, packEntry{args: append([]string(nil), args...), vec: vec})
}

func codegenOpportunisticBlock(blockInstrs []*ir.Instruction, fresh func(string) string) []*ir.Instruction {
	runs := buildRuns(blockInstrs)
	if len(runs) == 0 {
		return blockInstrs
	}
	packs := newPackTable()
	consts := map[int64]string{}

	generated := make([][]*ir.Instruction, len(runs))
	for i, r := range runs {
		generated[i] = codegenOpportunisticRun(r, packs, consts, fresh)
	}
	return spliceRuns(blockInstrs, runs, generated)
}

// codegenOpportunisticRun resolves each operand side against the packing
// table (exact reuse, partial reuse via vecmove + the differing
// vecloads, or a fresh pack), emits the vec<op>, records the result under
// the destination tuple so a later run consuming these same scalars can
// reuse it, and destructures the result back to scalars.
func codegenOpportunisticRun(r run, packs *packTable, consts map[int64]string, fresh func(string) string) []*ir.Instruction {
	left, right, dests, destType := runOperands(r)

	var out []*ir.Instruction
	leftVec := resolveOperand(left, packs, consts, fresh, &out)
	packs.set(left, leftVec)

	rightVec := resolveOperand(right, packs, consts, fresh, &out)
	packs.set(right, rightVec)

	resultVec := fresh("vecresult")
	out = append(out, ir.VecBinary(vecOpFor(r.op), resultVec, leftVec, rightVec))
	packs.set(dests, resultVec)

	destructureOpportunistic(resultVec, dests, destType, consts, fresh, &out)
	return out
}

func resolveOperand(args []string, packs *packTable, consts map[int64]string, fresh func(string) string, out *[]*ir.Instruction) string {
	if v, ok := packs.lookup(args); ok {
		return v
	}
	if entry, unmatched, ok := packs.partialMatch(args); ok {
		return buildPartialMatchVector(entry.vec, unmatched, args, consts, fresh, out)
	}
	return buildFreshVector(args, consts, fresh, out)
}

func cachedConst(v int64, consts map[int64]string, fresh func(string) string, out *[]*ir.Instruction) string {
	if name, ok := consts[v]; ok {
		return name
	}
	name := fresh(fmt.Sprintf("vecconst%d", v))
	*out = append(*out, ir.Const(name, ir.IntType{}, v))
	consts[v] = name
	return name
}

func buildFreshVector(args []string, consts map[int64]string, fresh func(string) string, out *[]*ir.Instruction) string {
	vec := fresh("vecpack")
	*out = append(*out, ir.VecZero(vec))
	one := cachedConst(1, consts, fresh, out)

	idx := fresh("vecidx")
	*out = append(*out, ir.Const(idx, ir.IntType{}, int64(0)))
	for i, a := range args {
		*out = append(*out, ir.VecLoad(vec, idx, a))
		if i < len(args)-1 {
			next := fresh("vecidx")
			*out = append(*out, ir.Binary(ir.OpAdd, next, ir.IntType{}, idx, one))
			idx = next
		}
	}
	return vec
}

// buildPartialMatchVector copies priorVec into a fresh register via
// vecmove, then vecloads only the lanes that differ from the matched
// pack, bumping the lane index by the literal gap between differing
// positions (cached so the same gap is never redefined within a block).
func buildPartialMatchVector(priorVec string, unmatchedIdx []int, args []string, consts map[int64]string, fresh func(string) string, out *[]*ir.Instruction) string {
	newVec := fresh("vecpack")
	*out = append(*out, ir.VecMove(newVec, priorVec))

	idxName := fresh("vecidx")
	*out = append(*out, ir.Const(idxName, ir.IntType{}, int64(0)))
	priorIdx := int64(0)

	for _, idx := range unmatchedIdx {
		if int64(idx) != priorIdx {
			diff := int64(idx) - priorIdx
			diffName := cachedConst(diff, consts, fresh, out)
			next := fresh("vecidx")
			*out = append(*out, ir.Binary(ir.OpAdd, next, ir.IntType{}, idxName, diffName))
			idxName = next
			priorIdx = int64(idx)
		}
		*out = append(*out, ir.VecLoad(newVec, idxName, args[idx]))
	}
	return newVec
}

func destructureOpportunistic(vec string, dests []string, t ir.Type, consts map[int64]string, fresh func(string) string, out *[]*ir.Instruction) {
	one := cachedConst(1, consts, fresh, out)
	idx := fresh("vecidx")
	*out = append(*out, ir.Const(idx, ir.IntType{}, int64(0)))
	for i, d := range dests {
		*out = append(*out, ir.VecStore(d, t, vec, idx))
		if i < len(dests)-1 {
			next := fresh("vecidx")
			*out = append(*out, ir.Binary(ir.OpAdd, next, ir.IntType{}, idx, one))
			idx = next
		}
	}
}
