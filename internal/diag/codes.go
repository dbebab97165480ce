package diag

// Error codes for ssaopt, continuing the teacher's own E-code namespace:
// kanso/internal/errors/codes.go documents "E0900-E0999: Reserved for
// tooling errors" — exactly the slot a sibling tool's own diagnostics
// belong in, so ssaopt's codes pick up there instead of inventing a
// fresh prefix.
//
// Error code ranges (spec §7):
// E0900-E0909: Malformed IR errors
// E0910-E0919: Unsolvable analysis prerequisite errors
// E0920-E0929: Safe-folding refusals
// E0930-E0939: Loop transformation refusals
// E0940-E0949: Trace rejection

const (
	// Malformed IR (fatal, abort the current pass).

	// E0900: a required instruction field is absent (dest, type, op).
	ErrMissingField = "E0900"

	// E0901: an opcode outside the closed Op universe was read from JSON.
	ErrUnknownOpcode = "E0901"

	// E0902: an instruction argument names a variable with no reaching def.
	ErrUndefinedVariable = "E0902"

	// E0903: a phi's argument count does not match its block's predecessor count.
	ErrPhiArgCountMismatch = "E0903"

	// E0904: a terminator's label count does not match its opcode's arity.
	ErrTerminatorLabelCount = "E0904"

	// E0905: a variable is assigned more than once under an SSA claim.
	ErrMultipleDefinitionUnderSSA = "E0905"

	// Unsolvable analysis prerequisite (fatal).

	// E0910: GVN was invoked on non-SSA IR with no auto-conversion enabled.
	ErrGVNRequiresSSA = "E0910"

	// E0911: ADCE's unique-exit construction failed on a degenerate CFG.
	ErrADCERequiresUniqueExit = "E0911"

	// Safe-folding refusal (local: keep the original instruction).

	// E0920: constant folding would divide by zero.
	ErrFoldDivideByZero = "E0920"

	// E0921: a call was encountered where only interpretable pure ops are allowed.
	ErrFoldCallDuringInterpretation = "E0921"

	// E0922: GVN could not resolve an operand to a concrete value number.
	ErrGVNUnresolvedOperand = "E0922"

	// Loop transformation refusal (local: leave the loop unchanged).

	// E0930: a loop's trip count could not be determined statically.
	ErrNonUnrollableLoop = "E0930"

	// E0931: a loop slated for vectorization contains a side-effecting instruction.
	ErrLoopSideEffectDuringVectorization = "E0931"

	// E0932: a loop is nested inside another loop being unrolled.
	ErrLoopNestedDuringUnroll = "E0932"

	// Trace rejection (local: reject trace, emit original program unchanged).

	// E0940: a trace recorded a memory operation or I/O.
	ErrTraceContainsMemoryOrIO = "E0940"
)

// Describe returns a human-readable description of a diagnostic code.
func Describe(code string) string {
	switch code {
	case ErrMissingField:
		return "a required instruction field is missing"
	case ErrUnknownOpcode:
		return "the opcode is not a member of the closed opcode universe"
	case ErrUndefinedVariable:
		return "the variable has no reaching definition at this use"
	case ErrPhiArgCountMismatch:
		return "a phi's argument count does not match its block's predecessor count"
	case ErrTerminatorLabelCount:
		return "a terminator's label count does not match its opcode"
	case ErrMultipleDefinitionUnderSSA:
		return "a variable is defined more than once under an SSA claim"
	case ErrGVNRequiresSSA:
		return "GVN requires SSA form and auto-conversion was not enabled"
	case ErrADCERequiresUniqueExit:
		return "aggressive DCE could not construct a unique exit for this CFG"
	case ErrFoldDivideByZero:
		return "constant folding refused a divide by zero"
	case ErrFoldCallDuringInterpretation:
		return "a call cannot be folded during interpretation"
	case ErrGVNUnresolvedOperand:
		return "GVN could not resolve an operand to a value number"
	case ErrNonUnrollableLoop:
		return "the loop's trip count is not statically known"
	case ErrLoopSideEffectDuringVectorization:
		return "the loop has a side-effecting instruction and was left unvectorized"
	case ErrLoopNestedDuringUnroll:
		return "the loop is nested inside another loop being unrolled"
	case ErrTraceContainsMemoryOrIO:
		return "the trace recorded a memory operation or I/O and was rejected"
	default:
		return "unknown diagnostic code"
	}
}
