package ir

// Builder helpers mirror the teacher's ir.Builder convenience constructors
// (kanso/internal/ir/builder.go uses one factory method per instruction
// shape); ssaopt's instruction shape is flatter so these are free
// functions instead of a stateful builder, in the spirit of the original
// source's bril_core_utilities.py build_* helpers.

// Label creates a block-header marker instruction.
func Label(name string) *Instruction { return &Instruction{Label: name} }

// Const creates a constant-definition instruction.
func Const(dest string, t Type, value any) *Instruction {
	return &Instruction{Op: OpConst, Dest: dest, Type: t, Value: value}
}

// Binary creates a two-argument value instruction (arithmetic, comparison,
// logic, float variants, ptradd).
func Binary(op Op, dest string, t Type, a, b string) *Instruction {
	return &Instruction{Op: op, Dest: dest, Type: t, Args: []string{a, b}}
}

// Unary creates a one-argument value instruction (not, id, load).
func Unary(op Op, dest string, t Type, a string) *Instruction {
	return &Instruction{Op: op, Dest: dest, Type: t, Args: []string{a}}
}

// Jump creates an unconditional control-transfer instruction.
func Jump(target string) *Instruction {
	return &Instruction{Op: OpJmp, Labels: []string{target}}
}

// Branch creates a conditional control-transfer instruction.
func Branch(cond, trueLabel, falseLabel string) *Instruction {
	return &Instruction{Op: OpBr, Args: []string{cond}, Labels: []string{trueLabel, falseLabel}}
}

// Ret creates a (possibly value-returning) return instruction.
func Ret(value string) *Instruction {
	if value == "" {
		return &Instruction{Op: OpRet}
	}
	return &Instruction{Op: OpRet, Args: []string{value}}
}

// Call creates a call instruction; dest/t are empty/nil for void calls.
func Call(dest string, t Type, fn string, args ...string) *Instruction {
	return &Instruction{Op: OpCall, Dest: dest, Type: t, Funcs: []string{fn}, Args: args}
}

// Print creates an I/O effect instruction.
func Print(args ...string) *Instruction { return &Instruction{Op: OpPrint, Args: args} }

// Phi creates an SSA join instruction; args[i] corresponds to labels[i].
func Phi(dest string, t Type, args, labels []string) *Instruction {
	return &Instruction{Op: OpPhi, Dest: dest, Type: t, Args: args, Labels: labels}
}

// VecZero creates a zero-initialized vector register.
func VecZero(dest string) *Instruction {
	return &Instruction{Op: OpVecZero, Dest: dest, Type: VectorType{}}
}

// VecLoad writes scalar into lane idx of vec, producing a new version of
// the same vector register.
func VecLoad(vec, idx, scalar string) *Instruction {
	return &Instruction{Op: OpVecLoad, Dest: vec, Type: VectorType{}, Args: []string{idx, scalar}}
}

// VecStore extracts lane idx of vec back into scalar destination dest.
func VecStore(dest string, t Type, vec, idx string) *Instruction {
	return &Instruction{Op: OpVecStore, Dest: dest, Type: t, Args: []string{vec, idx}}
}

// VecMove copies vector register src into a fresh name dest.
func VecMove(dest, src string) *Instruction {
	return &Instruction{Op: OpVecMove, Dest: dest, Type: VectorType{}, Args: []string{src}}
}

// VecBinary creates a lanewise vector arithmetic instruction (vecadd,
// vecsub, vecmul).
func VecBinary(op Op, dest, a, b string) *Instruction {
	return &Instruction{Op: op, Dest: dest, Type: VectorType{}, Args: []string{a, b}}
}

// Speculate marks the start of a speculative trace region.
func Speculate() *Instruction { return &Instruction{Op: OpSpeculate} }

// Commit marks the point a speculative trace region's guards have all
// passed and its effects become permanent.
func Commit() *Instruction { return &Instruction{Op: OpCommit} }

// Guard bails out to label unless cond holds.
func Guard(cond, label string) *Instruction {
	return &Instruction{Op: OpGuard, Args: []string{cond}, Labels: []string{label}}
}
