package unroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// a countable `for i := 0; i < 3; i++` shaped loop: start and bound are
// both constants reachable in the header's strict dominators, the body
// has exactly one i+1 update, and there is exactly one back edge.
func countedLoopFunc(bound int64) *ir.Function {
	return &ir.Function{
		Name: "f",
		Instrs: []*ir.Instruction{
			ir.Label("entry"),
			ir.Const("i", ir.IntType{}, int64(0)),
			ir.Const("bound", ir.IntType{}, bound),
			ir.Jump("header"),

			ir.Label("header"),
			ir.Binary(ir.OpLt, "cond", ir.BoolType{}, "i", "bound"),
			ir.Branch("cond", "body", "exit"),

			ir.Label("body"),
			ir.Const("one", ir.IntType{}, int64(1)),
			ir.Binary(ir.OpAdd, "i", ir.IntType{}, "i", "one"),
			ir.Jump("header"),

			ir.Label("exit"),
			ir.Ret(""),
		},
	}
}

func TestFullUnrollEmitsTripMinusOneCopies(t *testing.T) {
	fn := countedLoopFunc(3)
	require.NoError(t, Full(fn))

	var iUpdates int
	for _, instr := range fn.Instrs {
		if instr.Dest == "i" && instr.Op == ir.OpAdd {
			iUpdates++
		}
	}
	assert.Equal(t, 3, iUpdates, "a trip count of 3 needs exactly 3 increments total")
}

func TestFullUnrollRetargetsHeaderToFirstCopy(t *testing.T) {
	fn := countedLoopFunc(3)
	require.NoError(t, Full(fn))

	var sawHeaderBranch bool
	for i, instr := range fn.Instrs {
		if instr.Label == "header" {
			// the header's branch is the last instruction before the next label.
			for j := i + 1; j < len(fn.Instrs); j++ {
				if fn.Instrs[j].Op == ir.OpBr {
					assert.NotEqual(t, "body", fn.Instrs[j].Labels[0], "header must no longer branch straight into the original body")
					sawHeaderBranch = true
					break
				}
				if fn.Instrs[j].IsLabel() {
					break
				}
			}
		}
	}
	assert.True(t, sawHeaderBranch)
}

func TestFullUnrollLeavesSmallTripCountAlone(t *testing.T) {
	fn := countedLoopFunc(1)
	before := len(fn.Instrs)
	require.NoError(t, Full(fn))
	assert.Equal(t, before, len(fn.Instrs), "trip count of 1 must be left untouched")
}

func TestPartialUnrollKeepsGuardBranches(t *testing.T) {
	fn := countedLoopFunc(100)
	require.NoError(t, Partial(fn, 3))

	var branches int
	for _, instr := range fn.Instrs {
		if instr.Op == ir.OpBr {
			branches++
		}
	}
	assert.Equal(t, 3, branches, "partial unroll by 3 keeps one guard branch per copy, including the original header")
}
