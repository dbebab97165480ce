package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
)

// diamond: entry -> (left, right) -> join -> ret
func diamond() *ircfg.CFG {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Branch("c", "left", "right"),
		ir.Label("left"),
		ir.Jump("join"),
		ir.Label("right"),
		ir.Jump("join"),
		ir.Label("join"),
		ir.Ret(""),
	}}
	return ircfg.Build(fn)
}

// loopy: entry -> header -> (body -> header [back edge], exit)
func loopy() *ircfg.CFG {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Jump("header"),
		ir.Label("header"),
		ir.Branch("c", "body", "exit"),
		ir.Label("body"),
		ir.Jump("header"),
		ir.Label("exit"),
		ir.Ret(""),
	}}
	return ircfg.Build(fn)
}

func TestDominatorsDiamond(t *testing.T) {
	cfg := diamond()
	info := Build(cfg)

	assert.True(t, info.Dominates("entry", "join"))
	assert.True(t, info.Dominates("entry", "left"))
	assert.False(t, info.Dominates("left", "join"), "left does not dominate join: right is another path")
	assert.False(t, info.Dominates("right", "join"))
	assert.True(t, info.Dominates("join", "join"), "dominance is reflexive")
}

func TestImmediateDominatorsDiamond(t *testing.T) {
	cfg := diamond()
	info := Build(cfg)

	assert.Equal(t, "entry", info.IDom["entry"])
	assert.Equal(t, "entry", info.IDom["left"])
	assert.Equal(t, "entry", info.IDom["right"])
	assert.Equal(t, "entry", info.IDom["join"], "join's idom is entry, not left or right")
}

func TestDominanceFrontierDiamond(t *testing.T) {
	cfg := diamond()
	info := Build(cfg)

	assert.True(t, info.Front["left"]["join"], "left's frontier includes join")
	assert.True(t, info.Front["right"]["join"], "right's frontier includes join")
	assert.False(t, info.Front["entry"]["join"], "entry strictly dominates join, so join is not in entry's frontier")
}

func TestNaturalLoopDetection(t *testing.T) {
	cfg := loopy()
	info := Build(cfg)
	loops := NaturalLoops(cfg, info)
	require.Len(t, loops, 1)

	loop := loops[0]
	assert.Equal(t, "header", loop.Header)
	assert.True(t, loop.Latches["body"])
	assert.True(t, loop.Body["header"])
	assert.True(t, loop.Body["body"])
	assert.False(t, loop.Body["exit"], "exit block is not part of the loop body")
	assert.True(t, loop.Exits["header"], "header is a loop-exiting block via the branch to exit")
}
