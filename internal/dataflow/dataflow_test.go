package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

func straightLine() *ircfg.CFG {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Const("a", ir.IntType{}, int64(1)),
		ir.Const("b", ir.IntType{}, int64(2)),
		ir.Binary(ir.OpAdd, "c", ir.IntType{}, "a", "b"),
		ir.Ret("c"),
	}}
	fn.Renumber()
	return ircfg.Build(fn)
}

func TestReachingDefsStraightLine(t *testing.T) {
	cfg := straightLine()
	result := ReachingDefs(cfg)
	out := result.Out["entry"]
	assert.True(t, out[Def{InstrID: 1, Var: "a"}])
	assert.True(t, out[Def{InstrID: 2, Var: "b"}])
	assert.True(t, out[Def{InstrID: 3, Var: "c"}])
}

func TestReachingDefsKillsOldDef(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Const("a", ir.IntType{}, int64(1)),
		ir.Const("a", ir.IntType{}, int64(2)),
		ir.Ret("a"),
	}}
	fn.Renumber()
	cfg := ircfg.Build(fn)
	result := ReachingDefs(cfg)
	out := result.Out["entry"]
	assert.False(t, out[Def{InstrID: 1, Var: "a"}], "first def of a should be killed by the second")
	assert.True(t, out[Def{InstrID: 2, Var: "a"}])
}

func TestLiveVarsBackward(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Const("a", ir.IntType{}, int64(1)),
		ir.Const("unused", ir.IntType{}, int64(9)),
		ir.Jump("exit"),
		ir.Label("exit"),
		ir.Ret("a"),
	}}
	cfg := ircfg.Build(fn)
	result := LiveVars(cfg)
	assert.True(t, result.Out["entry"]["a"], "a is live across the jump since exit reads it")
	assert.False(t, result.Out["entry"]["unused"], "unused is dead after its definition")
}

func TestAvailExprsWithinBlock(t *testing.T) {
	cfg := straightLine()
	result := AvailExprs(cfg)
	out := result.Out["entry"]
	assert.True(t, out[Expr{Op: ir.OpAdd, Args: "a b"}])
}

func TestAvailExprsKilledByRedefinition(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Const("a", ir.IntType{}, int64(1)),
		ir.Const("b", ir.IntType{}, int64(2)),
		ir.Binary(ir.OpAdd, "c", ir.IntType{}, "a", "b"),
		ir.Const("a", ir.IntType{}, int64(5)),
		ir.Ret("c"),
	}}
	cfg := ircfg.Build(fn)
	result := AvailExprs(cfg)
	out := result.Out["entry"]
	assert.False(t, out[Expr{Op: ir.OpAdd, Args: "a b"}], "redefining a kills the a+b expression")
}

func TestConstPropFoldsArithmetic(t *testing.T) {
	cfg := straightLine()
	result := ConstProp(cfg)
	out := result.Out["entry"]
	require.Equal(t, CPConst, out["c"].Kind)
	assert.Equal(t, int64(3), out["c"].Value)
}

func TestConstPropCallForcesTop(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Call("r", ir.IntType{}, "f"),
		ir.Ret("r"),
	}}
	cfg := ircfg.Build(fn)
	result := ConstProp(cfg)
	assert.Equal(t, CPTop, result.Out["entry"]["r"].Kind)
}

func TestConstPropJoinsDiamondToTop(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Branch("cond", "left", "right"),
		ir.Label("left"),
		ir.Const("x", ir.IntType{}, int64(1)),
		ir.Jump("join"),
		ir.Label("right"),
		ir.Const("x", ir.IntType{}, int64(2)),
		ir.Jump("join"),
		ir.Label("join"),
		ir.Ret("x"),
	}}
	cfg := ircfg.Build(fn)
	result := ConstProp(cfg)
	assert.Equal(t, CPTop, result.In["join"]["x"].Kind, "conflicting constants on two paths join to Top")
}

func TestAliasAnalysisAllocAndPtrAdd(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		{Op: ir.OpAlloc, Dest: "p", Type: ir.PtrType{Elem: ir.IntType{}}},
		ir.Binary(ir.OpPtrAdd, "q", ir.PtrType{Elem: ir.IntType{}}, "p", "one"),
		ir.Ret(""),
	}}
	fn.Renumber()
	cfg := ircfg.Build(fn)
	result := AliasAnalysis(cfg)
	state := result.Out["entry"]
	require.NotEmpty(t, state["p"])
	assert.True(t, MayAlias(state, "p", "q"), "q = ptradd(p, ...) must alias p")
}
