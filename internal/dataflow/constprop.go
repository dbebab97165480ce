package dataflow

import (
	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
	"ssaopt/internal/worklist"
)

// LatticeKind distinguishes the three states a variable's constant-value
// estimate can take (spec §4.3): Bottom (undefined, not yet reached by
// any path), Const (a concrete literal agreed by every path so far), or
// Top (proven not a single constant, either by conflicting paths or by an
// opaque operation like call).
type LatticeKind int

const (
	CPBottom LatticeKind = iota
	CPConst
	CPTop
)

// CPValue is one variable's abstract value in the constant-propagation
// lattice: Bottom < Const(v) < Top.
type CPValue struct {
	Kind  LatticeKind
	Value any
}

type cpState map[string]CPValue

func joinCP(a, b CPValue) CPValue {
	if a.Kind == CPBottom {
		return b
	}
	if b.Kind == CPBottom {
		return a
	}
	if a.Kind == CPTop || b.Kind == CPTop {
		return CPValue{Kind: CPTop}
	}
	if a.Value == b.Value {
		return a
	}
	return CPValue{Kind: CPTop}
}

func mergeCPStates(states []cpState) cpState {
	out := cpState{}
	for _, s := range states {
		for v, val := range s {
			if existing, ok := out[v]; ok {
				out[v] = joinCP(existing, val)
			} else {
				out[v] = val
			}
		}
	}
	return out
}

func equalCPStates(a, b cpState) bool {
	if len(a) != len(b) {
		return false
	}
	for v, val := range a {
		ov, ok := b[v]
		if !ok || ov.Kind != val.Kind || ov.Value != val.Value {
			return false
		}
	}
	return true
}

// ConstProp runs sparse conditional-free constant propagation: for every
// block, OUT[b] maps each variable seen so far to Bottom/Const/Top. Spec
// §4.3: transfer interprets const, arithmetic, comparison, logic, and id
// directly; call forces Top; merge takes equal-then-keep, else Top.
func ConstProp(cfg *ircfg.CFG) worklist.Result[cpState] {
	lat := worklist.Lattice[cpState]{
		Bottom:   cpState{},
		Boundary: cpState{},
		Merge:    mergeCPStates,
		Equal:    equalCPStates,
	}
	transfer := func(in cpState, block *ircfg.Block) cpState {
		state := cpState{}
		for v, val := range in {
			state[v] = val
		}
		for _, instr := range block.Instrs {
			if !instr.HasDest() {
				continue
			}
			state[instr.Dest] = evalConst(instr, state)
		}
		return state
	}
	return worklist.Solve(cfg, cfg.Entry, lat, transfer)
}

func evalConst(instr *ir.Instruction, state cpState) CPValue {
	if instr.Op == ir.OpCall {
		return CPValue{Kind: CPTop}
	}
	if instr.Op == ir.OpConst {
		return CPValue{Kind: CPConst, Value: instr.Value}
	}
	if instr.Op == ir.OpPhi {
		return CPValue{Kind: CPTop}
	}

	args := make([]CPValue, len(instr.Args))
	for i, a := range instr.Args {
		if v, ok := state[a]; ok {
			args[i] = v
		} else {
			args[i] = CPValue{Kind: CPBottom}
		}
	}
	for _, a := range args {
		if a.Kind == CPTop {
			return CPValue{Kind: CPTop}
		}
	}
	for _, a := range args {
		if a.Kind == CPBottom {
			return CPValue{Kind: CPBottom}
		}
	}

	switch instr.Op {
	case ir.OpID:
		return args[0]
	case ir.OpAdd:
		return intBinOp(args, func(a, b int64) int64 { return a + b })
	case ir.OpSub:
		return intBinOp(args, func(a, b int64) int64 { return a - b })
	case ir.OpMul:
		return intBinOp(args, func(a, b int64) int64 { return a * b })
	case ir.OpDiv:
		b, ok := args[1].Value.(int64)
		if !ok || b == 0 {
			return CPValue{Kind: CPTop}
		}
		a := args[0].Value.(int64)
		return CPValue{Kind: CPConst, Value: a / b}
	case ir.OpEq:
		return CPValue{Kind: CPConst, Value: args[0].Value == args[1].Value}
	case ir.OpLt:
		return intCmpOp(args, func(a, b int64) bool { return a < b })
	case ir.OpGt:
		return intCmpOp(args, func(a, b int64) bool { return a > b })
	case ir.OpLe:
		return intCmpOp(args, func(a, b int64) bool { return a <= b })
	case ir.OpGe:
		return intCmpOp(args, func(a, b int64) bool { return a >= b })
	case ir.OpNot:
		b, ok := args[0].Value.(bool)
		if !ok {
			return CPValue{Kind: CPTop}
		}
		return CPValue{Kind: CPConst, Value: !b}
	case ir.OpAnd:
		return boolBinOp(args, func(a, b bool) bool { return a && b })
	case ir.OpOr:
		return boolBinOp(args, func(a, b bool) bool { return a || b })
	default:
		return CPValue{Kind: CPTop}
	}
}

func intBinOp(args []CPValue, f func(a, b int64) int64) CPValue {
	a, aok := args[0].Value.(int64)
	b, bok := args[1].Value.(int64)
	if !aok || !bok {
		return CPValue{Kind: CPTop}
	}
	return CPValue{Kind: CPConst, Value: f(a, b)}
}

func intCmpOp(args []CPValue, f func(a, b int64) bool) CPValue {
	a, aok := args[0].Value.(int64)
	b, bok := args[1].Value.(int64)
	if !aok || !bok {
		return CPValue{Kind: CPTop}
	}
	return CPValue{Kind: CPConst, Value: f(a, b)}
}

func boolBinOp(args []CPValue, f func(a, b bool) bool) CPValue {
	a, aok := args[0].Value.(bool)
	b, bok := args[1].Value.(bool)
	if !aok || !bok {
		return CPValue{Kind: CPTop}
	}
	return CPValue{Kind: CPConst, Value: f(a, b)}
}
