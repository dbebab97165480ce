// Package valuenum implements local value numbering (per basic block) and
// dominator-tree-directed global value numbering (whole function, SSA
// required), grounded on original_source/lvn.py and original_source/gvn.py
// respectively.
package valuenum

import (
	"fmt"
	"sort"

	"ssaopt/internal/ir"
)

// Value is a canonicalized value-numbering expression: either a constant,
// an opaque prior definition (a block argument, a call result, or any
// variable read before its own def in this scope), or an operator applied
// to other values' numbers. Two instructions get the same number iff
// their Values are equal after canonicalization — commutative operators
// sort their operand numbers, mirroring lvn.py's `instr_to_lvn_value`
// sorting args for BRIL_COMMUTE_BINOPS before building the tuple.
type Value struct {
	Op     ir.Op
	Nums   [2]int // operand value numbers; unused slots are 0
	NumOps int
	Const  any
	IsOpaque bool // an argument, call result, or otherwise uninterpreted value
}

func constValue(op ir.Op, v any) Value { return Value{Op: op, Const: v} }

func opaqueValue(op ir.Op) Value { return Value{Op: op, IsOpaque: true} }

func exprValue(op ir.Op, nums []int, commutative bool) Value {
	v := Value{Op: op, NumOps: len(nums)}
	ordered := append([]int(nil), nums...)
	if commutative {
		sort.Ints(ordered)
	}
	for i := 0; i < len(ordered) && i < 2; i++ {
		v.Nums[i] = ordered[i]
	}
	return v
}

func (v Value) key() string {
	if v.IsOpaque {
		return fmt.Sprintf("opaque:%s", v.Op)
	}
	if v.NumOps == 0 {
		return fmt.Sprintf("const:%v", v.Const)
	}
	return fmt.Sprintf("%s(%d,%d,%d)", v.Op, v.Nums[0], v.Nums[1], v.NumOps)
}
