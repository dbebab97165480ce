package valuenum

import (
	"fmt"

	"ssaopt/internal/ircfg"
	"ssaopt/internal/ir"
)

type row struct {
	Num int
	Val Value
	Var string // canonical variable currently holding this value
}

type table struct {
	rows    []row
	byKey   map[string]int // Value.key() -> row index, for exact matches
	varNum  map[string]int // variable name -> value number
	counter int
}

func newTable() *table {
	return &table{byKey: map[string]int{}, varNum: map[string]int{}}
}

func (t *table) add(v Value, canonicalVar string) int {
	t.counter++
	t.rows = append(t.rows, row{Num: t.counter, Val: v, Var: canonicalVar})
	t.byKey[v.key()] = t.counter
	return t.counter
}

func (t *table) find(v Value) (int, bool) {
	if n, ok := t.byKey[v.key()]; ok {
		return n, true
	}
	if n, ok := t.findAlgebraic(v); ok {
		return n, true
	}
	return 0, false
}

// findAlgebraic looks for the `a+a ≡ 2*a` identity and its mirror, the
// two algebraic (non-opcode-identical) equivalences spec §4.6 calls out,
// grounded on original_source/lvn.py's lvn_value_equality.
func (t *table) findAlgebraic(v Value) (int, bool) {
	if v.NumOps != 2 {
		return 0, false
	}
	for _, r := range t.rows {
		if valuesAlgebraicallyEqual(v, r.Val, t) {
			return r.Num, true
		}
	}
	return 0, false
}

func valuesAlgebraicallyEqual(a, b Value, t *table) bool {
	return doublingMatch(a, b, t) || doublingMatch(b, a, t)
}

// doublingMatch checks whether add matches mul-by-2 where add's two
// operands are the same value number and mul's other operand is the
// constant 2.
func doublingMatch(add, mul Value, t *table) bool {
	if add.Op != ir.OpAdd || mul.Op != ir.OpMul {
		return false
	}
	if add.Nums[0] != add.Nums[1] {
		return false
	}
	x := add.Nums[0]
	if mul.Nums[0] == x && isConstTwo(mul.Nums[1], t) {
		return true
	}
	if mul.Nums[1] == x && isConstTwo(mul.Nums[0], t) {
		return true
	}
	return false
}

func isConstTwo(num int, t *table) bool {
	for _, r := range t.rows {
		if r.Num == num {
			if iv, ok := r.Val.Const.(int64); ok {
				return r.Val.NumOps == 0 && iv == 2
			}
			return false
		}
	}
	return false
}

func (t *table) numOf(varName string) int {
	if n, ok := t.varNum[varName]; ok {
		return n
	}
	n := t.add(opaqueValue("prevdef"), varName)
	t.varNum[varName] = n
	return n
}

func (t *table) canonicalVar(num int) string {
	for _, r := range t.rows {
		if r.Num == num {
			return r.Var
		}
	}
	return ""
}

// LVN runs local value numbering over one basic block's instructions in
// place, grounded on original_source/lvn.py's instr_lvn loop: constant
// and copy propagation shortcuts, redundant-computation replacement with
// an `id` from the canonical location, and renaming a destination that
// gets redefined later in the same block so the earlier value survives
// under a fresh name.
func LVN(block *ircfg.Block) {
	t := newTable()
	for i, instr := range block.Instrs {
		if !instr.HasDest() {
			rewriteArgsToCanonical(instr, t)
			continue
		}
		rewriteArgsToCanonical(instr, t)
		v := computeValue(instr, t)

		if instr.Op == ir.OpID {
			num := t.numOf(instr.Args[0])
			t.varNum[instr.Dest] = num
			instr.Args[0] = t.canonicalVar(num)
			continue
		}

		// A call result is never matched against the table: two calls
		// with identical opcode shape are still distinct occurrences,
		// not a redundant computation.
		if !v.IsOpaque {
			if num, ok := t.find(v); ok {
				t.varNum[instr.Dest] = num
				replaceWithCopyOrConst(instr, v, num, t)
				continue
			}
		}

		dest := instr.Dest
		if overwrittenLater(block.Instrs[i+1:], dest) {
			dest = fmt.Sprintf("%s.lvn%d", instr.Dest, t.counter+1)
		}
		num := t.add(v, dest)
		t.varNum[instr.Dest] = num
		instr.Dest = dest

		// First sighting of a value that folds to a constant still
		// materializes as a const instruction, not the original operator.
		if v.NumOps == 0 && !v.IsOpaque && instr.Op != ir.OpConst {
			instr.Op = ir.OpConst
			instr.Value = v.Const
			instr.Args = nil
		}
	}
}

func rewriteArgsToCanonical(instr *ir.Instruction, t *table) {
	if instr.Op == ir.OpPhi || len(instr.Args) == 0 {
		return
	}
	for i, a := range instr.Args {
		num := t.numOf(a)
		instr.Args[i] = t.canonicalVar(num)
	}
}

func computeValue(instr *ir.Instruction, t *table) Value {
	switch instr.Op {
	case ir.OpConst:
		return constValue(ir.OpConst, instr.Value)
	case ir.OpCall:
		return opaqueValue(ir.OpCall)
	default:
		nums := make([]int, len(instr.Args))
		for i, a := range instr.Args {
			nums[i] = t.numOf(a)
		}
		if folded, ok := foldConstant(instr.Op, nums, t); ok {
			return folded
		}
		if folded, ok := foldEqualOperands(instr.Op, nums); ok {
			return folded
		}
		return exprValue(instr.Op, nums, instr.Op.IsCommutative())
	}
}

func constOf(num int, t *table) (any, bool) {
	for _, r := range t.rows {
		if r.Num == num && r.Val.NumOps == 0 && !r.Val.IsOpaque {
			return r.Val.Const, true
		}
	}
	return nil, false
}

func foldConstant(op ir.Op, nums []int, t *table) (Value, bool) {
	if len(nums) == 1 {
		a, ok := constOf(nums[0], t)
		if !ok {
			return Value{}, false
		}
		switch op {
		case ir.OpNot:
			return constValue(ir.OpConst, !a.(bool)), true
		}
		return Value{}, false
	}
	if len(nums) != 2 {
		return Value{}, false
	}
	a, aok := constOf(nums[0], t)
	b, bok := constOf(nums[1], t)
	if !aok || !bok {
		return Value{}, false
	}
	switch op {
	case ir.OpAdd:
		return constValue(ir.OpConst, a.(int64)+b.(int64)), true
	case ir.OpSub:
		return constValue(ir.OpConst, a.(int64)-b.(int64)), true
	case ir.OpMul:
		return constValue(ir.OpConst, a.(int64)*b.(int64)), true
	case ir.OpDiv:
		if b.(int64) == 0 {
			return Value{}, false
		}
		return constValue(ir.OpConst, a.(int64)/b.(int64)), true
	case ir.OpEq:
		return constValue(ir.OpConst, a == b), true
	case ir.OpLt:
		return constValue(ir.OpConst, a.(int64) < b.(int64)), true
	case ir.OpGt:
		return constValue(ir.OpConst, a.(int64) > b.(int64)), true
	case ir.OpLe:
		return constValue(ir.OpConst, a.(int64) <= b.(int64)), true
	case ir.OpGe:
		return constValue(ir.OpConst, a.(int64) >= b.(int64)), true
	case ir.OpAnd:
		return constValue(ir.OpConst, a.(bool) && b.(bool)), true
	case ir.OpOr:
		return constValue(ir.OpConst, a.(bool) || b.(bool)), true
	}
	return Value{}, false
}

// foldEqualOperands folds a comparison whose two operands are the exact
// same value number, per spec §4.6 (`eq`/`le`/`ge` of equal operands
// is `true`; `lt`/`gt` is `false`), without needing either to be a
// known constant.
func foldEqualOperands(op ir.Op, nums []int) (Value, bool) {
	if len(nums) != 2 || nums[0] != nums[1] {
		return Value{}, false
	}
	switch op {
	case ir.OpEq, ir.OpLe, ir.OpGe:
		return constValue(ir.OpConst, true), true
	case ir.OpLt, ir.OpGt:
		return constValue(ir.OpConst, false), true
	}
	return Value{}, false
}

func replaceWithCopyOrConst(instr *ir.Instruction, v Value, num int, t *table) {
	if v.NumOps == 0 && !v.IsOpaque {
		instr.Op = ir.OpConst
		instr.Value = v.Const
		instr.Args = nil
		return
	}
	canonical := t.canonicalVar(num)
	instr.Op = ir.OpID
	instr.Args = []string{canonical}
	instr.Value = nil
}

func overwrittenLater(rest []*ir.Instruction, dest string) bool {
	for _, instr := range rest {
		if instr.Dest == dest {
			return true
		}
	}
	return false
}
