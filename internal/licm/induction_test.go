package licm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// a loop with a basic IV i, a multiplied invariant a = c*i, and a derived
// IV j = a + d, all loop-invariant inputs (c, d) defined once outside the
// loop in entry.
func derivedIVLoopFunc() *ir.Function {
	return &ir.Function{
		Name: "f",
		Instrs: []*ir.Instruction{
			ir.Label("entry"),
			ir.Const("i", ir.IntType{}, int64(0)),
			ir.Const("bound", ir.IntType{}, int64(10)),
			ir.Const("c", ir.IntType{}, int64(4)),
			ir.Const("d", ir.IntType{}, int64(100)),
			ir.Jump("header"),

			ir.Label("header"),
			ir.Binary(ir.OpLt, "cond", ir.BoolType{}, "i", "bound"),
			ir.Branch("cond", "body", "exit"),

			ir.Label("body"),
			ir.Const("one", ir.IntType{}, int64(1)),
			ir.Binary(ir.OpMul, "a", ir.IntType{}, "c", "i"),
			ir.Binary(ir.OpAdd, "j", ir.IntType{}, "a", "d"),
			ir.Binary(ir.OpAdd, "i", ir.IntType{}, "i", "one"),
			ir.Jump("header"),

			ir.Label("exit"),
			ir.Ret(""),
		},
	}
}

func TestInductionRewriteInitializesDerivedVariableInPreheader(t *testing.T) {
	fn := derivedIVLoopFunc()
	require.NoError(t, Run(fn))

	var foundInit bool
	for _, instr := range fn.Instrs {
		if instr.Dest == "j" && instr.Op == ir.OpID {
			require.Equal(t, []string{"d"}, instr.Args)
			foundInit = true
		}
	}
	assert.True(t, foundInit, "j must be initialized from d once, outside the loop")
}

func TestInductionRewriteReplacesMultiplyWithIncrementInLoop(t *testing.T) {
	fn := derivedIVLoopFunc()
	require.NoError(t, Run(fn))

	var sawStrengthReducedUpdate bool
	for _, instr := range fn.Instrs {
		if instr.Dest == "j" && instr.Op == ir.OpAdd {
			assert.Contains(t, instr.Args, "j")
			assert.Contains(t, instr.Args, "c")
			sawStrengthReducedUpdate = true
		}
	}
	assert.True(t, sawStrengthReducedUpdate, "j's in-loop definition should become j := j + c, not a + d")

	for _, instr := range fn.Instrs {
		if instr.Dest == "j" {
			assert.NotContains(t, instr.Args, "a", "the old a+d computation must be gone")
		}
	}
}
