package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
	"ssaopt/internal/ssapass"
)

// deadAddProgram computes one live result and one instruction whose
// result is never used.
func deadAddProgram() *ir.Function {
	return &ir.Function{
		Name: "main",
		Instrs: []*ir.Instruction{
			ir.Const("a", ir.IntType{}, int64(1)),
			ir.Const("b", ir.IntType{}, int64(2)),
			ir.Binary(ir.OpAdd, "dead", ir.IntType{}, "a", "b"),
			ir.Binary(ir.OpMul, "live", ir.IntType{}, "a", "b"),
			ir.Print("live"),
			ir.Ret(""),
		},
	}
}

func TestRunGlobalDeleteRemovesUnusedInstruction(t *testing.T) {
	fn := deadAddProgram()
	prog := &ir.Program{Functions: []*ir.Function{fn}}

	require.NoError(t, Run(prog, Options{GlobalDelete: true}))

	for _, instr := range fn.Instrs {
		assert.NotEqual(t, "dead", instr.Dest)
	}
}

func TestRunGVNAutoConvertsToAndLeavesSSA(t *testing.T) {
	fn := loopFunc()
	prog := &ir.Program{Functions: []*ir.Function{fn}}
	require.False(t, ssapass.IsSSA(fn))

	require.NoError(t, Run(prog, Options{GVN: true}))

	assert.True(t, ssapass.IsSSA(fn), "gvn requires and preserves SSA; pipeline must leave it in SSA form")
}

func TestRunToSSAThenFromSSARoundTrips(t *testing.T) {
	fn := loopFunc()
	prog := &ir.Program{Functions: []*ir.Function{fn}}

	require.NoError(t, Run(prog, Options{ToSSA: true, FromSSA: true}))

	assert.False(t, ssapass.IsSSA(fn))
}

// loopFunc is i = 0; while i < 3 { i = i + 1 }; print i.
func loopFunc() *ir.Function {
	return &ir.Function{
		Name: "main",
		Instrs: []*ir.Instruction{
			ir.Const("i", ir.IntType{}, int64(0)),
			ir.Const("bound", ir.IntType{}, int64(3)),
			ir.Label("loop"),
			ir.Binary(ir.OpLt, "cond", ir.BoolType{}, "i", "bound"),
			ir.Branch("cond", "body", "done"),
			ir.Label("body"),
			ir.Const("one", ir.IntType{}, int64(1)),
			ir.Binary(ir.OpAdd, "i", ir.IntType{}, "i", "one"),
			ir.Jump("loop"),
			ir.Label("done"),
			ir.Print("i"),
			ir.Ret(""),
		},
	}
}

func TestAnalyzeReachingReportsEveryBlock(t *testing.T) {
	fn := loopFunc()
	lines := Analyze(fn, AnalysisOptions{Reaching: true})

	assert.NotEmpty(t, lines)
	found := false
	for _, l := range lines {
		if l == "reaching[loop].in: {bound@1, i@0}" || (len(l) > 0 && l[:14] == "reaching[loop]") {
			found = true
		}
	}
	assert.True(t, found, "expected a reaching-defs line for the loop header block, got %v", lines)
}

func TestAnalyzeWithNoFlagsReturnsNothing(t *testing.T) {
	fn := loopFunc()
	assert.Empty(t, Analyze(fn, AnalysisOptions{}))
}

func TestDominatorsReportsDominatorTreeAndFrontier(t *testing.T) {
	fn := loopFunc()
	lines := Dominators(fn, DominatorOptions{Dominator: true, Tree: true, Frontier: true})

	assert.NotEmpty(t, lines)
	var sawDom, sawTree, sawFrontier bool
	for _, l := range lines {
		switch {
		case len(l) >= 3 && l[:3] == "dom":
			sawDom = true
		case len(l) >= 4 && l[:4] == "tree":
			sawTree = true
		case len(l) >= 8 && l[:8] == "frontier":
			sawFrontier = true
		}
	}
	assert.True(t, sawDom && sawTree && sawFrontier)
}
