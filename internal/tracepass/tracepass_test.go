package tracepass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
)

// loopFunc is a tiny counting loop: i starts at 0, adds one each
// iteration, and branches back while i < bound.
func loopFunc() *ir.Function {
	return &ir.Function{
		Name: "main",
		Instrs: []*ir.Instruction{
			ir.Const("i", ir.IntType{}, int64(0)),
			ir.Const("bound", ir.IntType{}, int64(3)),
			ir.Label("loop"),
			ir.Const("one", ir.IntType{}, int64(1)),
			ir.Binary(ir.OpAdd, "i", ir.IntType{}, "i", "one"),
			ir.Binary(ir.OpLt, "cond", ir.BoolType{}, "i", "bound"),
			ir.Branch("cond", "loop", "done"),
			ir.Label("done"),
			ir.Print("i"),
			ir.Ret(""),
		},
	}
}

// traceOneIteration records one pass through loopFunc's body, having
// taken the true arm of the loop's br (spec §6 trace shape: jmp/label
// recorded too, since the tracer logs exactly what executed).
func traceOneIteration(takenTrue bool) *Trace {
	instrs := loopFunc().Instrs
	taken := takenTrue
	return &Trace{
		StartFunc: "main", StartOffset: 2, EndFunc: "main", EndOffset: 6,
		Instrs: []Recorded{
			{Instr: instrs[2]}, // label loop
			{Instr: instrs[3]}, // const one
			{Instr: instrs[4]}, // add i
			{Instr: instrs[5]}, // lt cond
			{Instr: instrs[6], Branch: &taken}, // br cond loop done
		},
	}
}

func TestOptimizeEmitsSpeculateGuardCommit(t *testing.T) {
	prog := &ir.Program{Functions: []*ir.Function{loopFunc()}}
	require.NoError(t, Optimize(prog, traceOneIteration(true)))

	fn := prog.FindFunction("main")
	require.NotNil(t, fn)

	var ops []ir.Op
	for _, instr := range fn.Instrs {
		if instr.Op != "" {
			ops = append(ops, instr.Op)
		}
	}
	require.Contains(t, ops, ir.OpSpeculate)
	require.Contains(t, ops, ir.OpGuard)
	require.Contains(t, ops, ir.OpCommit)
}

func TestOptimizeDropsJumpsAndLabelsFromTraceBody(t *testing.T) {
	prog := &ir.Program{Functions: []*ir.Function{loopFunc()}}
	require.NoError(t, Optimize(prog, traceOneIteration(true)))

	fn := prog.FindFunction("main")
	require.NotNil(t, fn)

	speculateIdx, commitIdx := -1, -1
	for i, instr := range fn.Instrs {
		switch instr.Op {
		case ir.OpSpeculate:
			speculateIdx = i
		case ir.OpCommit:
			commitIdx = i
		}
	}
	require.NotEqual(t, -1, speculateIdx)
	require.NotEqual(t, -1, commitIdx)
	for _, instr := range fn.Instrs[speculateIdx+1 : commitIdx] {
		assert.NotEqual(t, ir.OpJmp, instr.Op, "a recorded jmp must be skipped, not copied into the trace body")
		assert.False(t, instr.IsLabel(), "a recorded label must be skipped, not copied into the trace body")
	}
}

func TestOptimizeNegatesConditionWhenFalseArmTaken(t *testing.T) {
	prog := &ir.Program{Functions: []*ir.Function{loopFunc()}}
	require.NoError(t, Optimize(prog, traceOneIteration(false)))

	fn := prog.FindFunction("main")
	require.NotNil(t, fn)

	var sawNot, sawGuardOnNot bool
	var notDest string
	for _, instr := range fn.Instrs {
		if instr.Op == ir.OpNot {
			sawNot = true
			notDest = instr.Dest
		}
		if instr.Op == ir.OpGuard && instr.Args[0] == notDest && notDest != "" {
			sawGuardOnNot = true
		}
	}
	assert.True(t, sawNot, "a false-arm branch must be negated with a fresh not")
	assert.True(t, sawGuardOnNot, "the guard must check the negated condition")
}

func TestOptimizeDefinesBailoutAtOriginalEntryAndJumpsPastTraceOnCommit(t *testing.T) {
	prog := &ir.Program{Functions: []*ir.Function{loopFunc()}}
	require.NoError(t, Optimize(prog, traceOneIteration(true)))

	fn := prog.FindFunction("main")
	require.NotNil(t, fn)

	var guardLabel, commitJumpLabel string
	for _, instr := range fn.Instrs {
		if instr.Op == ir.OpGuard {
			guardLabel = instr.Labels[0]
		}
		if instr.Op == ir.OpJmp && commitJumpLabel == "" {
			commitJumpLabel = instr.Labels[0]
		}
	}
	require.NotEmpty(t, guardLabel)
	require.NotEmpty(t, commitJumpLabel)
	assert.NotEqual(t, guardLabel, commitJumpLabel, "guard failure and commit success must resume at different points")

	var guardLabelIdx, commitJumpLabelIdx, origLoopLabelIdx = -1, -1, -1
	for i, instr := range fn.Instrs {
		if instr.IsLabel() && instr.Label == guardLabel {
			guardLabelIdx = i
		}
		if instr.IsLabel() && instr.Label == commitJumpLabel {
			commitJumpLabelIdx = i
		}
		if instr.Op == ir.OpBr {
			origLoopLabelIdx = i
		}
	}
	require.NotEqual(t, -1, guardLabelIdx)
	require.NotEqual(t, -1, commitJumpLabelIdx)
	assert.Less(t, guardLabelIdx, origLoopLabelIdx, "the bailout label must precede the untouched original region")
	assert.Less(t, origLoopLabelIdx, commitJumpLabelIdx, "the continuation label must follow the untouched original region")
}

func TestOptimizeRejectsTraceContainingMemoryOp(t *testing.T) {
	fn := loopFunc()
	ptr := ir.Const("p", ir.PtrType{Elem: ir.IntType{}}, nil)
	store := ir.Binary(ir.OpStore, "", nil, "p", "i")
	fn.Instrs = append(fn.Instrs, ptr, store)
	prog := &ir.Program{Functions: []*ir.Function{fn}}

	before := append([]*ir.Instruction(nil), fn.Instrs...)
	tr := traceOneIteration(true)
	tr.Instrs = append(tr.Instrs, Recorded{Instr: store})

	require.NoError(t, Optimize(prog, tr))
	assert.Equal(t, before, prog.FindFunction("main").Instrs, "a trace containing a memory op must leave the program unchanged")
}

func TestOptimizeLeavesFloatTraceUnLVNd(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Instrs: []*ir.Instruction{
			ir.Label("start"),
			ir.Const("a", ir.FloatType{}, 1.5),
			ir.Const("b", ir.FloatType{}, 1.5),
			ir.Binary(ir.OpFAdd, "sum", ir.FloatType{}, "a", "b"),
			ir.Ret(""),
		},
	}
	prog := &ir.Program{Functions: []*ir.Function{fn}}
	tr := &Trace{
		StartFunc: "main", StartOffset: 0, EndFunc: "main", EndOffset: 3,
		Instrs: []Recorded{
			{Instr: fn.Instrs[0]},
			{Instr: fn.Instrs[1]},
			{Instr: fn.Instrs[2]},
			{Instr: fn.Instrs[3]},
		},
	}
	require.NoError(t, Optimize(prog, tr))

	out := prog.FindFunction("main")
	speculateIdx, commitIdx := -1, -1
	for i, instr := range out.Instrs {
		switch instr.Op {
		case ir.OpSpeculate:
			speculateIdx = i
		case ir.OpCommit:
			commitIdx = i
		}
	}
	require.NotEqual(t, -1, speculateIdx)
	require.NotEqual(t, -1, commitIdx)

	var constCount int
	for _, instr := range out.Instrs[speculateIdx+1 : commitIdx] {
		if instr.Op == ir.OpConst && instr.Type != nil {
			if _, isFloat := instr.Type.(ir.FloatType); isFloat && instr.Value == 1.5 {
				constCount++
			}
		}
	}
	assert.Equal(t, 2, constCount, "LVN would have folded the two identical float consts in the trace body into one; float traces skip LVN so both survive")
}
