package dcepass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

func TestTrivialRemovesUnusedDef(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Const("x", ir.IntType{}, int64(1)),
		ir.Const("y", ir.IntType{}, int64(2)),
		ir.Print("y"),
	}}
	Trivial(fn)

	for _, instr := range fn.Instrs {
		assert.NotEqual(t, "x", instr.Dest)
	}
	assert.Len(t, fn.Instrs, 2)
}

func TestTrivialFixpointRemovesChain(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Const("a", ir.IntType{}, int64(1)),
		ir.Unary(ir.OpID, "b", ir.IntType{}, "a"),
		ir.Ret(""),
	}}
	Trivial(fn)

	require.Len(t, fn.Instrs, 1)
	assert.Equal(t, ir.OpRet, fn.Instrs[0].Op)
}

func TestLocalDCERemovesOverwrittenBeforeUse(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Const("x", ir.IntType{}, int64(1)),
		ir.Const("x", ir.IntType{}, int64(2)),
		ir.Ret("x"),
	}}
	Local(fn)

	var defs int
	for _, instr := range fn.Instrs {
		if instr.Dest == "x" {
			defs++
			assert.Equal(t, int64(2), instr.Value)
		}
	}
	assert.Equal(t, 1, defs, "only the live second definition of x should remain")
}

func TestLocalDCEKeepsCrossBlockValue(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Const("x", ir.IntType{}, int64(1)),
		ir.Jump("exit"),
		ir.Label("exit"),
		ir.Ret("x"),
	}}
	changed := LocalOnce(fn)

	assert.False(t, changed, "a value used in a different block must not be deleted")
	var sawX bool
	for _, instr := range fn.Instrs {
		if instr.Dest == "x" {
			sawX = true
		}
	}
	assert.True(t, sawX)
}

// diamond where the branch's result is never actually needed: both arms
// compute a dead phi, and the live print reads an entry-defined value
// independent of which arm ran.
func diamondWithDeadBranch() *ir.Function {
	return &ir.Function{
		Instrs: []*ir.Instruction{
			ir.Label("entry"),
			ir.Const("x0", ir.IntType{}, int64(1)),
			ir.Const("c", ir.BoolType{}, true),
			ir.Branch("c", "left", "right"),
			ir.Label("left"),
			ir.Const("y0", ir.IntType{}, int64(2)),
			ir.Jump("join"),
			ir.Label("right"),
			ir.Const("y1", ir.IntType{}, int64(3)),
			ir.Jump("join"),
			ir.Label("join"),
			ir.Phi("y2", ir.IntType{}, []string{"y0", "y1"}, []string{"left", "right"}),
			ir.Print("x0"),
			ir.Ret(""),
		},
	}
}

func TestAggressiveCollapsesDeadBranchToJump(t *testing.T) {
	fn := diamondWithDeadBranch()
	require.NoError(t, Aggressive(fn, false))

	for _, instr := range fn.Instrs {
		assert.NotEqual(t, ir.OpBr, instr.Op, "the branch's condition is never used by live code, so it should collapse to a jump")
		assert.NotEqual(t, ir.OpPhi, instr.Op, "the dead phi should be removed")
		assert.NotContains(t, []string{"y0", "y1", "y2", "c"}, instr.Dest)
	}

	var sawPrint bool
	for _, instr := range fn.Instrs {
		if instr.Op == ir.OpPrint {
			sawPrint = true
			assert.Equal(t, []string{"x0"}, instr.Args)
		}
	}
	assert.True(t, sawPrint)
}

func TestAggressiveRequiresSSA(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Const("a", ir.IntType{}, int64(1)),
		ir.Const("a", ir.IntType{}, int64(2)),
		ir.Ret("a"),
	}}
	assert.Error(t, Aggressive(fn, false))
}

func TestAggressiveKeepsEffectfulCallAndItsOperands(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Const("a", ir.IntType{}, int64(5)),
		ir.Const("dead", ir.IntType{}, int64(9)),
		ir.Call("", nil, "sideEffect", "a"),
		ir.Ret(""),
	}}
	require.NoError(t, Aggressive(fn, false))

	var sawA, sawDead bool
	for _, instr := range fn.Instrs {
		if instr.Dest == "a" {
			sawA = true
		}
		if instr.Dest == "dead" {
			sawDead = true
		}
	}
	assert.True(t, sawA, "call's operand must survive")
	assert.False(t, sawDead, "unused constant must be removed")
}
