// Package unroll implements the full and partial loop-unrolling modes of
// spec §4.9. original_source/loop_unrolling.py is an unimplemented stub
// (a bare `pass` with a comment admitting the author never worked out how
// to recognize an unrollable loop), so both the detector and the
// emission shape here follow spec prose directly rather than a working
// reference.
package unroll

import (
	"fmt"

	"ssaopt/internal/dom"
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

// plan is a fully-characterized countable loop: header holds the single
// comparison between i and an invariant bound, body (the loop's one
// non-header block) holds the single i-update, and exit is the block
// outside the loop the header's false edge leads to.
type plan struct {
	header, body, exit string
	cmp                 ir.Op
	start, bound        int64
	step                int64
}

// Full fully unrolls every loop that spec §4.9 classifies as countable
// with a statically known trip count of at least 2; every other loop is
// left untouched.
func Full(fn *ir.Function) error {
	fn.Renumber()
	cfg := ircfg.Build(fn)
	if len(cfg.Order) == 0 {
		return nil
	}
	info := dom.Build(cfg)
	loops := dom.NaturalLoops(cfg, info)
	fresh := freshLabelFunc(cfg)

	for _, loop := range loops {
		p, ok := detectFullyUnrollable(cfg, info, loops, loop)
		if !ok {
			continue
		}
		trip, finite := tripCount(p.cmp, p.start, p.bound, p.step)
		if !finite || trip < 2 {
			continue
		}
		unrollFully(cfg, p, trip, fresh)
	}

	fn.Instrs = ircfg.Join(cfg)
	fn.Renumber()
	return nil
}

// Partial replicates every single-block-body loop's header+body K times
// without proving a trip-count bound: each copy's within-loop branch is
// rewired to the next copy's body, the last copy closes the cycle back to
// the original header, and every guard branch is left in place (spec
// §4.9's "keeps the guard branches").
func Partial(fn *ir.Function, k int) error {
	if k < 2 {
		return fmt.Errorf("unroll: partial factor must be at least 2, got %d", k)
	}
	fn.Renumber()
	cfg := ircfg.Build(fn)
	if len(cfg.Order) == 0 {
		return nil
	}
	info := dom.Build(cfg)
	loops := dom.NaturalLoops(cfg, info)
	fresh := freshLabelFunc(cfg)

	for _, loop := range loops {
		body, ok := singleBodyBlock(loop)
		if !ok {
			continue
		}
		if len(loop.Latches) != 1 || !loop.Latches[body] {
			continue
		}
		unrollPartially(cfg, loop.Header, body, k, fresh)
	}

	fn.Instrs = ircfg.Join(cfg)
	fn.Renumber()
	return nil
}

func freshLabelFunc(cfg *ircfg.CFG) func(base string) string {
	n := 0
	return func(base string) string {
		for {
			name := fmt.Sprintf("%s.unroll%d", base, n)
			n++
			if _, taken := cfg.Blocks[name]; !taken {
				return name
			}
		}
	}
}

func singleBodyBlock(loop *dom.Loop) (string, bool) {
	var body string
	for name := range loop.Body {
		if name == loop.Header {
			continue
		}
		if body != "" {
			return "", false
		}
		body = name
	}
	if body == "" {
		return "", false
	}
	return body, true
}

var comparisonOps = map[ir.Op]bool{ir.OpEq: true, ir.OpLt: true, ir.OpGt: true, ir.OpLe: true, ir.OpGe: true}

// detectFullyUnrollable checks spec §4.9's full shape: single exit via the
// header, no loop nesting, exactly one header comparison feeding the
// branch, exactly one body i±1 update, exactly one back edge, and a
// constant start value reachable in the header's strict dominators.
func detectFullyUnrollable(cfg *ircfg.CFG, info *dom.Info, loops []*dom.Loop, loop *dom.Loop) (plan, bool) {
	if len(loop.Exits) != 1 || !loop.Exits[loop.Header] {
		return plan{}, false
	}
	for _, other := range loops {
		if other == loop {
			continue
		}
		if properSubset(other.Body, loop.Body) || properSubset(loop.Body, other.Body) {
			return plan{}, false
		}
	}
	body, ok := singleBodyBlock(loop)
	if !ok {
		return plan{}, false
	}
	if len(loop.Latches) != 1 || !loop.Latches[body] {
		return plan{}, false
	}

	header := cfg.Blocks[loop.Header]
	term := header.Terminator()
	if term == nil || term.Op != ir.OpBr {
		return plan{}, false
	}
	var cmpInstr *ir.Instruction
	for _, instr := range header.Instrs {
		if comparisonOps[instr.Op] && instr.HasDest() && instr.Dest == term.Args[0] {
			if cmpInstr != nil {
				return plan{}, false
			}
			cmpInstr = instr
		}
	}
	if cmpInstr == nil || len(cmpInstr.Args) != 2 {
		return plan{}, false
	}
	if term.Labels[0] != body {
		return plan{}, false
	}
	exit := term.Labels[1]

	a0, a1 := cmpInstr.Args[0], cmpInstr.Args[1]
	var i string
	var boundVal int64
	if v, ok := strictDomConst(cfg, info, loop.Header, a1); ok {
		i, boundVal = a0, v
	} else if v, ok := strictDomConst(cfg, info, loop.Header, a0); ok {
		i, boundVal = a1, v
	} else {
		return plan{}, false
	}

	bodyBlock := cfg.Blocks[body]
	bodyTerm := bodyBlock.Terminator()
	if bodyTerm == nil || bodyTerm.Op != ir.OpJmp || len(bodyTerm.Labels) != 1 || bodyTerm.Labels[0] != loop.Header {
		return plan{}, false
	}

	var bump *ir.Instruction
	var step int64
	for _, instr := range bodyBlock.Instrs {
		if !instr.HasDest() || instr.Dest != i {
			continue
		}
		if instr.Op != ir.OpAdd && instr.Op != ir.OpSub || len(instr.Args) != 2 {
			continue
		}
		dest := instr.Dest
		var other string
		switch dest {
		case instr.Args[0]:
			other = instr.Args[1]
		case instr.Args[1]:
			if instr.Op == ir.OpSub {
				// i = c - i is not an induction update.
				continue
			}
			other = instr.Args[0]
		default:
			continue
		}
		v, ok := localOrDominatingConst(cfg, info, body, other)
		if !ok || v != 1 {
			continue
		}
		if bump != nil {
			return plan{}, false
		}
		bump = instr
		if instr.Op == ir.OpAdd {
			step = 1
		} else {
			step = -1
		}
	}
	if bump == nil {
		return plan{}, false
	}

	start, ok := strictDomConst(cfg, info, loop.Header, i)
	if !ok {
		return plan{}, false
	}

	return plan{header: loop.Header, body: body, exit: exit, cmp: cmpInstr.Op, start: start, bound: boundVal, step: step}, true
}

func properSubset(a, b map[string]bool) bool {
	if len(a) >= len(b) {
		return false
	}
	for name := range a {
		if !b[name] {
			return false
		}
	}
	return true
}

// localOrDominatingConst looks for name's constant definition first inside
// block itself (the common case: the bump amount declared right next to
// its use), falling back to the nearest strict dominator.
func localOrDominatingConst(cfg *ircfg.CFG, info *dom.Info, block, name string) (int64, bool) {
	for _, instr := range cfg.Blocks[block].Instrs {
		if instr.Dest == name && instr.Op == ir.OpConst {
			return toInt(instr.Value)
		}
	}
	return strictDomConst(cfg, info, block, name)
}

// strictDomConst walks from's strict dominator chain, nearest first,
// looking for name's most recent constant assignment (spec §4.9).
func strictDomConst(cfg *ircfg.CFG, info *dom.Info, from, name string) (int64, bool) {
	cur := from
	for {
		parent, ok := info.IDom[cur]
		if !ok || parent == cur {
			return 0, false
		}
		cur = parent
		b := cfg.Blocks[cur]
		for idx := len(b.Instrs) - 1; idx >= 0; idx-- {
			instr := b.Instrs[idx]
			if instr.Dest == name && instr.Op == ir.OpConst {
				return toInt(instr.Value)
			}
		}
	}
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

// tripCount computes the closed-form iteration count for cmp/start/
// bound/step per spec §4.9's table. The second return is false when the
// combination cannot be bounded without knowing it runs zero times (an
// increasing i checked with > or >=, or a decreasing i checked with < or
// <=, diverge whenever the loop is entered at all).
func tripCount(cmp ir.Op, start, bound, step int64) (int64, bool) {
	switch step {
	case 1:
		switch cmp {
		case ir.OpLt:
			if bound <= start {
				return 0, true
			}
			return bound - start, true
		case ir.OpLe:
			if bound < start {
				return 0, true
			}
			return bound - start + 1, true
		case ir.OpGt:
			if start <= bound {
				return 0, true
			}
			return 0, false
		case ir.OpGe:
			if start < bound {
				return 0, true
			}
			return 0, false
		case ir.OpEq:
			if start == bound {
				return 1, true
			}
			return 0, true
		}
	case -1:
		switch cmp {
		case ir.OpGt:
			if start <= bound {
				return 0, true
			}
			return start - bound, true
		case ir.OpGe:
			if start < bound {
				return 0, true
			}
			return start - bound + 1, true
		case ir.OpLt:
			if start >= bound {
				return 0, true
			}
			return 0, false
		case ir.OpLe:
			if start > bound {
				return 0, true
			}
			return 0, false
		case ir.OpEq:
			if start == bound {
				return 1, true
			}
			return 0, true
		}
	}
	return 0, false
}

// unrollFully emits trip-1 fresh copies of body covering iterations
// 1..trip-1, reusing the existing body block as the final iteration, and
// a trailing header copy that re-evaluates the comparison but always
// jumps straight to exit (the trip count already proves it would).
// header's own true edge is retargeted to the first fresh copy.
func unrollFully(cfg *ircfg.CFG, p plan, trip int64, fresh func(string) string) {
	header := cfg.Blocks[p.header]
	body := cfg.Blocks[p.body]

	copies := make([]string, trip-1)
	for k := range copies {
		copies[k] = fresh(p.body)
	}
	for k, label := range copies {
		next := p.body
		if k+1 < len(copies) {
			next = copies[k+1]
		}
		clone := cloneInstrs(body.Instrs)
		retargetJump(clone[len(clone)-1], p.header, next)
		cfg.Blocks[label] = &ircfg.Block{Name: label, Instrs: clone, Preds: nil, Succs: []string{next}}
		cfg.Order = append(cfg.Order, label)
	}

	trailing := fresh(p.header)
	trailingInstrs := cloneInstrs(header.Instrs[:len(header.Instrs)-1])
	trailingInstrs = append(trailingInstrs, ir.Jump(p.exit))
	cfg.Blocks[trailing] = &ircfg.Block{Name: trailing, Instrs: trailingInstrs, Succs: []string{p.exit}}
	cfg.Order = append(cfg.Order, trailing)

	bodyTerm := body.Instrs[len(body.Instrs)-1]
	retargetJump(bodyTerm, p.header, trailing)
	body.Succs = []string{trailing}

	headerTerm := header.Instrs[len(header.Instrs)-1]
	if len(copies) > 0 {
		retargetBranchTrue(headerTerm, p.body, copies[0])
		header.Succs = []string{copies[0], p.exit}
	}
}

// unrollPartially emits k-1 fresh (header, body) copies reusing the
// original header+body as the first of k unrolled iterations: each
// copy's header keeps its original guard branch (both edges, including
// the escape to the real exit) and only its true edge is rewired to the
// next copy's body; the final copy's body closes the cycle back to the
// original header so the next round of k iterations re-enters normally.
func unrollPartially(cfg *ircfg.CFG, headerName, bodyName string, k int, fresh func(string) string) {
	header := cfg.Blocks[headerName]
	body := cfg.Blocks[bodyName]

	headerCopies := make([]string, k-1)
	bodyCopies := make([]string, k-1)
	for idx := range headerCopies {
		headerCopies[idx] = fresh(headerName)
		bodyCopies[idx] = fresh(bodyName)
	}

	for idx := 0; idx < k-1; idx++ {
		hClone := cloneInstrs(header.Instrs)
		retargetBranchTrue(hClone[len(hClone)-1], bodyName, bodyCopies[idx])
		cfg.Blocks[headerCopies[idx]] = &ircfg.Block{Name: headerCopies[idx], Instrs: hClone, Succs: append([]string(nil), header.Succs...)}
		cfg.Order = append(cfg.Order, headerCopies[idx])

		bClone := cloneInstrs(body.Instrs)
		nextHeader := headerName
		if idx+1 < k-1 {
			nextHeader = headerCopies[idx+1]
		}
		retargetJump(bClone[len(bClone)-1], headerName, nextHeader)
		cfg.Blocks[bodyCopies[idx]] = &ircfg.Block{Name: bodyCopies[idx], Instrs: bClone, Succs: []string{nextHeader}}
		cfg.Order = append(cfg.Order, bodyCopies[idx])
	}

	if k-1 > 0 {
		bodyTerm := body.Instrs[len(body.Instrs)-1]
		retargetJump(bodyTerm, headerName, headerCopies[0])
		body.Succs = []string{headerCopies[0]}
	}
}

func cloneInstrs(instrs []*ir.Instruction) []*ir.Instruction {
	out := make([]*ir.Instruction, len(instrs))
	for i, instr := range instrs {
		out[i] = instr.Clone()
	}
	return out
}

func retargetJump(term *ir.Instruction, from, to string) {
	if term.Op != ir.OpJmp {
		return
	}
	for i, l := range term.Labels {
		if l == from {
			term.Labels[i] = to
		}
	}
}

func retargetBranchTrue(term *ir.Instruction, from, to string) {
	if term.Op != ir.OpBr || len(term.Labels) == 0 {
		return
	}
	if term.Labels[0] == from {
		term.Labels[0] = to
	}
}
