package ssapass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// diamond: entry branches to left/right, both jump to join which reads x.
func diamondFunc() *ir.Function {
	return &ir.Function{
		Name: "f",
		Instrs: []*ir.Instruction{
			ir.Label("entry"),
			ir.Const("c", ir.BoolType{}, true),
			ir.Branch("c", "left", "right"),
			ir.Label("left"),
			ir.Const("x", ir.IntType{}, int64(1)),
			ir.Jump("join"),
			ir.Label("right"),
			ir.Const("x", ir.IntType{}, int64(2)),
			ir.Jump("join"),
			ir.Label("join"),
			ir.Ret("x"),
		},
	}
}

func TestToSSAInsertsPhiAtJoin(t *testing.T) {
	fn := diamondFunc()
	require.NoError(t, ToSSA(fn))

	var sawPhi bool
	for _, instr := range fn.Instrs {
		if instr.Op == ir.OpPhi {
			sawPhi = true
			assert.Len(t, instr.Args, 2)
			assert.Len(t, instr.Labels, 2)
		}
	}
	assert.True(t, sawPhi, "join block should gain a phi for x")
	assert.True(t, IsSSA(fn), "converted function should satisfy the SSA invariant")
}

func TestToSSARenamesDistinctDefs(t *testing.T) {
	fn := diamondFunc()
	require.NoError(t, ToSSA(fn))

	dests := map[string]int{}
	for _, instr := range fn.Instrs {
		if instr.HasDest() {
			dests[instr.Dest]++
		}
	}
	for dest, count := range dests {
		assert.Equal(t, 1, count, "dest %q should be defined exactly once", dest)
	}
}

func TestFromSSARemovesPhis(t *testing.T) {
	fn := diamondFunc()
	require.NoError(t, ToSSA(fn))
	FromSSA(fn)

	for _, instr := range fn.Instrs {
		assert.NotEqual(t, ir.OpPhi, instr.Op)
	}
}

func TestIsSSADetectsRepeatedDest(t *testing.T) {
	fn := &ir.Function{Instrs: []*ir.Instruction{
		ir.Label("entry"),
		ir.Const("a", ir.IntType{}, int64(1)),
		ir.Const("a", ir.IntType{}, int64(2)),
		ir.Ret("a"),
	}}
	assert.False(t, IsSSA(fn))
}

// unreassignedParamFunc just returns its parameter untouched.
func unreassignedParamFunc() *ir.Function {
	return &ir.Function{
		Name:       "f",
		Params:     []ir.Param{{Name: "x", Type: ir.IntType{}}},
		ReturnType: ir.IntType{},
		Instrs: []*ir.Instruction{
			ir.Label("entry"),
			ir.Ret("x"),
		},
	}
}

func TestToSSALeavesUnreassignedParamReadable(t *testing.T) {
	fn := unreassignedParamFunc()
	require.NoError(t, ToSSA(fn))

	require.Len(t, fn.Params, 1)
	ret := fn.Instrs[len(fn.Instrs)-1]
	require.Equal(t, ir.OpRet, ret.Op)
	assert.Equal(t, fn.Params[0].Name, ret.Args[0], "the declared parameter name must match what the body actually reads")
}

// reassignedParamFunc overwrites its parameter before returning it.
func reassignedParamFunc() *ir.Function {
	return &ir.Function{
		Name:       "f",
		Params:     []ir.Param{{Name: "x", Type: ir.IntType{}}},
		ReturnType: ir.IntType{},
		Instrs: []*ir.Instruction{
			ir.Label("entry"),
			ir.Const("one", ir.IntType{}, int64(1)),
			ir.Binary(ir.OpAdd, "x", ir.IntType{}, "x", "one"),
			ir.Ret("x"),
		},
	}
}

func TestToSSARenamesReassignedParamBeforeUse(t *testing.T) {
	fn := reassignedParamFunc()
	require.NoError(t, ToSSA(fn))

	require.Len(t, fn.Params, 1)
	var add *ir.Instruction
	for _, instr := range fn.Instrs {
		if instr.Op == ir.OpAdd {
			add = instr
		}
	}
	require.NotNil(t, add)
	assert.Equal(t, fn.Params[0].Name, add.Args[0], "the add's first operand should read the parameter's incoming SSA name")
	assert.NotEqual(t, fn.Params[0].Name, add.Dest, "reassigning the parameter must mint a fresh SSA name, not reuse the declared one")
	assert.True(t, IsSSA(fn))
}

func TestSyntheticDefinitionOnUnboundPath(t *testing.T) {
	// entry branches to then (defines y) or directly to join (y unbound).
	fn := &ir.Function{
		Instrs: []*ir.Instruction{
			ir.Label("entry"),
			ir.Const("c", ir.BoolType{}, true),
			ir.Branch("c", "then", "join"),
			ir.Label("then"),
			ir.Const("y", ir.IntType{}, int64(7)),
			ir.Jump("join"),
			ir.Label("join"),
			ir.Ret("y"),
		},
	}
	require.NoError(t, ToSSA(fn))
	assert.True(t, IsSSA(fn))

	var sawDefaultConst bool
	for _, instr := range fn.Instrs {
		if instr.Op == ir.OpConst && instr.Type != nil {
			if _, ok := instr.Type.(ir.IntType); ok && instr.Value == int64(0) {
				sawDefaultConst = true
			}
		}
	}
	assert.True(t, sawDefaultConst, "entry's unbound path to the join's phi should synthesize a default int")
}
