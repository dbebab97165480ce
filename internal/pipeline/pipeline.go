// Package pipeline exposes the fixed set of optimizer passes (spec §4.13)
// behind a single Options struct and a Run entry point: any subset of
// passes may be selected, each pass that requires SSA re-establishes it
// on entry, and each pass's exit is validated against the SSA invariant
// when it claims to preserve SSA. Grounded on original_source/pipeline.py
// (a `click`-group CLI stub with no driver body of its own — `run_pipeline`
// is `pass`) plus spec §4.13's own "re-establish on entry, validate on
// exit, abort on malformed IR" description; the fixed pass ordering below
// follows the order spec §6 lists the flags in.
package pipeline

import (
	"fmt"

	"ssaopt/internal/dcepass"
	"ssaopt/internal/diag"
	"ssaopt/internal/inlinepass"
	"ssaopt/internal/ir"
	"ssaopt/internal/licm"
	"ssaopt/internal/ssapass"
	"ssaopt/internal/unroll"
	"ssaopt/internal/valuenum"
	"ssaopt/internal/vectorize"
)

// Options selects which passes Run applies, one field per spec §6 CLI
// flag (plus Unroll/Inline, added in this expansion's CLI surface for
// C10/C11, which spec §6's table does not itself enumerate).
type Options struct {
	GlobalDelete bool // trivial DCE, whole-function unused-delete to fixpoint
	LocalDelete  bool // trivial DCE, within-block to fixpoint
	ADCE         bool // aggressive DCE; requires and reproduces SSA
	ADCEUnsafe   bool // aggressive DCE's unsafe variant (may drop back-edge terminators)
	ToSSA        bool
	FromSSA      bool
	LICM         bool // loop-invariant code motion
	IVE          bool // induction-variable elimination
	GVN          bool // dominator-based GVN; requires and preserves SSA
	Naive        bool // naive vectorization strategy
	Op           bool // opportunistic (LVN/SLP-based) vectorization strategy
	UnrollFull   bool
	UnrollK      int // > 0 selects partial unrolling by this factor instead
	Inline       bool
}

var logger = diag.Logger("pipeline")

// PassError pairs a pass failure with the spec §7 diagnostic code it
// corresponds to, the same way internal/errors' parse errors carry a
// participle.Error for cmd/kanso-cli to format. Callers that just want a
// message can treat it as a plain error; the CLI type-asserts it to
// print the full coded/colored report via internal/diag.
type PassError struct {
	Diagnostic diag.Diagnostic
	cause      error
}

func (e *PassError) Error() string { return e.Diagnostic.Message }
func (e *PassError) Unwrap() error { return e.cause }

func passErr(code, fnName, pass string, cause error) error {
	return &PassError{
		cause: cause,
		Diagnostic: diag.Diagnostic{
			Severity:   diag.Fatal,
			Code:       code,
			Message:    fmt.Sprintf("%s: %s", pass, cause),
			Function:   fnName,
			InstrIndex: -1,
		},
	}
}

// Run applies every pass opts selects, in a fixed order, to every
// function in prog. Errors from malformed IR or a pass precondition
// abort the pipeline immediately (spec §4.13): the caller sees prog left
// in whatever state the last successful pass produced.
func Run(prog *ir.Program, opts Options) error {
	if opts.Inline {
		logger.Info("running inlining pass")
		if err := inlinepass.Run(prog); err != nil {
			return passErr(diag.ErrMissingField, "", "inline", err)
		}
	}

	for _, fn := range prog.Functions {
		if err := runFunction(fn, opts); err != nil {
			return err
		}
	}
	return nil
}

func runFunction(fn *ir.Function, opts Options) error {
	fn.Renumber()

	if opts.ToSSA {
		logger.Debugf("converting %s to SSA", fn.Name)
		if err := ssapass.ToSSA(fn); err != nil {
			return passErr(diag.ErrMultipleDefinitionUnderSSA, fn.Name, "to-ssa", err)
		}
	}

	if opts.GlobalDelete {
		dcepass.Trivial(fn)
	}
	if opts.LocalDelete {
		dcepass.Local(fn)
	}

	if opts.ADCE {
		if err := runRequiringSSA(fn, "adce", diag.ErrADCERequiresUniqueExit, func() error {
			return dcepass.Aggressive(fn, opts.ADCEUnsafe)
		}); err != nil {
			return err
		}
	}

	if opts.LICM || opts.IVE {
		// internal/licm.Run couples hoisting and induction-variable
		// rewriting in one pass (see its package doc); either flag alone
		// runs the combined pass once.
		logger.Debugf("running LICM/IVE on %s", fn.Name)
		if err := licm.Run(fn); err != nil {
			return passErr(diag.ErrNonUnrollableLoop, fn.Name, "licm", err)
		}
	}

	if opts.GVN {
		if err := runRequiringSSA(fn, "gvn", diag.ErrGVNRequiresSSA, func() error {
			return valuenum.GVN(fn)
		}); err != nil {
			return err
		}
	}

	if opts.UnrollFull {
		if err := unroll.Full(fn); err != nil {
			return passErr(diag.ErrNonUnrollableLoop, fn.Name, "unroll", err)
		}
	}
	if opts.UnrollK > 0 {
		if err := unroll.Partial(fn, opts.UnrollK); err != nil {
			return passErr(diag.ErrNonUnrollableLoop, fn.Name, "unroll", err)
		}
	}

	if opts.Naive || opts.Op {
		// Op (opportunistic/SLP) converts fn to SSA itself for its packing
		// table's single-definition invariant; Naive has no such
		// requirement. The result is not checked against the SSA
		// invariant: every vecload redefines its vector register.
		if err := func() error {
			if err := vectorize.Preprocess(fn); err != nil {
				return err
			}
			if opts.Op {
				return vectorize.Opportunistic(fn)
			}
			return vectorize.Naive(fn)
		}(); err != nil {
			return passErr(diag.ErrLoopSideEffectDuringVectorization, fn.Name, "vectorize", err)
		}
	}

	if opts.FromSSA {
		logger.Debugf("converting %s out of SSA", fn.Name)
		ssapass.FromSSA(fn)
	}

	return nil
}

// runRequiringSSA re-establishes SSA on fn before running body if fn isn't
// already in SSA form, runs body, and then validates that SSA still holds
// afterward — every pass runRequiringSSA wraps (ADCE, GVN) both requires
// and preserves SSA per spec §4.13. code is
// the diagnostic this pass's own failure is reported under.
func runRequiringSSA(fn *ir.Function, pass, code string, body func() error) error {
	if !ssapass.IsSSA(fn) {
		logger.Debugf("%s requires SSA, converting %s", pass, fn.Name)
		if err := ssapass.ToSSA(fn); err != nil {
			return passErr(diag.ErrMultipleDefinitionUnderSSA, fn.Name, pass+": re-establishing SSA", err)
		}
	}
	if err := body(); err != nil {
		return passErr(code, fn.Name, pass, err)
	}
	if !ssapass.IsSSA(fn) {
		return passErr(diag.ErrMultipleDefinitionUnderSSA, fn.Name, pass, fmt.Errorf("did not preserve SSA"))
	}
	return nil
}
