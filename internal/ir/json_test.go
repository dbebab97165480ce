package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	src := []byte(`{
		"functions": [
			{
				"name": "main",
				"instrs": [
					{"dest": "a", "op": "const", "type": "int", "value": 3},
					{"dest": "b", "op": "const", "type": "int", "value": 4},
					{"dest": "c", "op": "add", "type": "int", "args": ["a", "b"]},
					{"op": "print", "args": ["c"]},
					{"op": "ret"}
				]
			}
		]
	}`)

	prog, err := Decode(src)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)

	fn := prog.Functions[0]
	assert.Equal(t, "main", fn.Name)
	require.Len(t, fn.Instrs, 5)
	assert.Equal(t, OpConst, fn.Instrs[0].Op)
	assert.Equal(t, int64(3), fn.Instrs[0].Value)
	assert.Equal(t, IntType{}, fn.Instrs[0].Type)
	assert.Equal(t, []string{"a", "b"}, fn.Instrs[2].Args)
	assert.True(t, fn.Instrs[4].IsTerminator())

	out, err := Encode(prog)
	require.NoError(t, err)

	roundTripped, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, prog.Functions[0].Name, roundTripped.Functions[0].Name)
	assert.Equal(t, len(prog.Functions[0].Instrs), len(roundTripped.Functions[0].Instrs))
}

func TestDecodePtrType(t *testing.T) {
	src := []byte(`{"functions": [{"name": "f", "args": [{"name": "p", "type": {"ptr": {"ptr": "int"}}}], "instrs": [{"op": "ret"}]}]}`)
	prog, err := Decode(src)
	require.NoError(t, err)
	fn := prog.Functions[0]
	require.Len(t, fn.Params, 1)
	want := PtrType{Elem: PtrType{Elem: IntType{}}}
	assert.True(t, fn.Params[0].Type.Equal(want))
	assert.Equal(t, "ptr<ptr<int>>", fn.Params[0].Type.String())
}

func TestDecodeBoolAndFloatLiterals(t *testing.T) {
	src := []byte(`{"functions": [{"name": "f", "instrs": [
		{"dest": "t", "op": "const", "type": "bool", "value": true},
		{"dest": "x", "op": "const", "type": "float", "value": 1.5},
		{"op": "ret"}
	]}]}`)
	prog, err := Decode(src)
	require.NoError(t, err)
	fn := prog.Functions[0]
	assert.Equal(t, true, fn.Instrs[0].Value)
	assert.Equal(t, 1.5, fn.Instrs[1].Value)
}

func TestLabelInstruction(t *testing.T) {
	l := Label("loop")
	assert.True(t, l.IsLabel())
	assert.False(t, l.HasDest())
}

func TestRenumberAssignsStableIDs(t *testing.T) {
	fn := &Function{Instrs: []*Instruction{
		Const("a", IntType{}, int64(1)),
		Const("b", IntType{}, int64(2)),
		Ret(""),
	}}
	fn.Renumber()
	for i, instr := range fn.Instrs {
		assert.Equal(t, i, instr.ID)
	}
}
