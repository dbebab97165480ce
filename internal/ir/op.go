package ir

// Op is the closed opcode universe: every opcode the IR carries is one of
// the constants below.
type Op string

const (
	OpConst Op = "const"

	// Integer arithmetic.
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpMul Op = "mul"
	OpDiv Op = "div"

	// Comparisons.
	OpEq Op = "eq"
	OpLt Op = "lt"
	OpGt Op = "gt"
	OpLe Op = "le"
	OpGe Op = "ge"

	// Logic.
	OpNot Op = "not"
	OpAnd Op = "and"
	OpOr  Op = "or"

	// Control flow.
	OpJmp Op = "jmp"
	OpBr  Op = "br"
	OpRet Op = "ret"

	// Calls.
	OpCall Op = "call"

	// Data movement.
	OpID    Op = "id"
	OpPrint Op = "print"
	OpNop   Op = "nop"

	// SSA join.
	OpPhi Op = "phi"

	// Memory.
	OpAlloc  Op = "alloc"
	OpFree   Op = "free"
	OpLoad   Op = "load"
	OpStore  Op = "store"
	OpPtrAdd Op = "ptradd"

	// Float variants.
	OpFAdd Op = "fadd"
	OpFSub Op = "fsub"
	OpFMul Op = "fmul"
	OpFDiv Op = "fdiv"

	// Speculation.
	OpSpeculate Op = "speculate"
	OpCommit    Op = "commit"
	OpGuard     Op = "guard"

	// Vector.
	OpVecAdd   Op = "vecadd"
	OpVecSub   Op = "vecsub"
	OpVecMul   Op = "vecmul"
	OpVecDiv   Op = "vecdiv"
	OpVecNeg   Op = "vecneg"
	OpVecMac   Op = "vecmac"
	OpVecLoad  Op = "vecload"
	OpVecStore Op = "vecstore"
	OpVecZero  Op = "veczero"
	OpVecMove  Op = "vecmove"
)

// Terminators is the set of opcodes that end a basic block.
var Terminators = map[Op]bool{OpJmp: true, OpBr: true, OpRet: true}

// CommutativeOps is the set of binary opcodes whose argument order may be
// canonicalized (sorted) for value-numbering purposes.
var CommutativeOps = map[Op]bool{
	OpAdd: true, OpMul: true, OpEq: true, OpAnd: true, OpOr: true,
	OpFAdd: true, OpFMul: true,
}

// PureOps is the opcode whitelist eligible for available-expressions
// tracking and LICM hoisting: no memory/IO/control side effects.
var PureOps = map[Op]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true,
	OpEq: true, OpLt: true, OpGt: true, OpLe: true, OpGe: true,
	OpNot: true, OpAnd: true, OpOr: true, OpID: true,
	OpFAdd: true, OpFSub: true, OpFMul: true, OpFDiv: true,
	OpPtrAdd: true,
}

// VectorArithOps are the opcodes the SLP vectorizer may pack into a run.
var VectorArithOps = map[Op]bool{OpAdd: true, OpSub: true, OpMul: true}

// SideEffectOps is the opcode set with an observable effect beyond
// defining its own destination: I/O, calls, memory writes, or
// speculation control. DCE's liveness seed and LICM's hoist filter both
// key off this.
var SideEffectOps = map[Op]bool{
	OpPrint: true, OpCall: true, OpRet: true, OpStore: true, OpFree: true,
	OpSpeculate: true, OpCommit: true, OpGuard: true,
}

func (o Op) IsTerminator() bool  { return Terminators[o] }
func (o Op) IsCommutative() bool { return CommutativeOps[o] }
func (o Op) IsPure() bool        { return PureOps[o] }
func (o Op) HasSideEffect() bool { return SideEffectOps[o] }
