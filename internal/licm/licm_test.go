package licm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// a single natural loop whose body computes a loop-invariant doubling of
// an outer-scope value that nothing outside the loop reads; the loop
// itself counts i up to bound with a plain (non-SSA) reassignment.
func invariantLoopFunc() *ir.Function {
	return &ir.Function{
		Name: "f",
		Instrs: []*ir.Instruction{
			ir.Label("entry"),
			ir.Const("i", ir.IntType{}, int64(0)),
			ir.Const("bound", ir.IntType{}, int64(10)),
			ir.Jump("header"),

			ir.Label("header"),
			ir.Binary(ir.OpLt, "cond", ir.BoolType{}, "i", "bound"),
			ir.Branch("cond", "body", "exit"),

			ir.Label("body"),
			ir.Binary(ir.OpAdd, "inv", ir.IntType{}, "bound", "bound"),
			ir.Binary(ir.OpAdd, "use", ir.IntType{}, "inv", "inv"),
			ir.Const("one", ir.IntType{}, int64(1)),
			ir.Binary(ir.OpAdd, "i", ir.IntType{}, "i", "one"),
			ir.Jump("header"),

			ir.Label("exit"),
			ir.Ret(""),
		},
	}
}

func TestHoistMovesLoopInvariantComputationToPreheader(t *testing.T) {
	fn := invariantLoopFunc()
	require.NoError(t, Run(fn))

	var preheaderDests, bodyDests []string
	inPreheader := false
	for _, instr := range fn.Instrs {
		if instr.IsLabel() {
			inPreheader = instr.Label != "entry" && instr.Label != "header" && instr.Label != "exit" && instr.Label != "body"
			continue
		}
		if inPreheader && instr.HasDest() {
			preheaderDests = append(preheaderDests, instr.Dest)
		}
		if !inPreheader && instr.HasDest() {
			bodyDests = append(bodyDests, instr.Dest)
		}
	}

	assert.Contains(t, preheaderDests, "inv", "bound+bound never changes across iterations and is dead after the loop")
	assert.Contains(t, preheaderDests, "use", "inv+inv is itself invariant once inv is hoisted")
	assert.NotContains(t, bodyDests, "inv")
	assert.NotContains(t, bodyDests, "use")
}

func TestHoistLeavesInductionUpdateInLoop(t *testing.T) {
	fn := invariantLoopFunc()
	require.NoError(t, Run(fn))

	var sawIUpdate bool
	for _, instr := range fn.Instrs {
		if instr.Dest == "i" && instr.Op == ir.OpAdd {
			sawIUpdate = true
		}
	}
	assert.True(t, sawIUpdate, "the basic induction variable's own update must stay in the loop")
}
