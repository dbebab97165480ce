// Package tracepass implements the trace optimizer (spec §4.12): given an
// externally recorded linear trace through a function, it materializes a
// speculative straight-line version of that trace guarded by the
// conditions the trace actually observed, falling back to the original
// code on any guard failure.
//
// original_source/trace.py is a thin CLI shell — it reads a program,
// calls a (separately defined) `lvn`, and writes the result — with no
// trace-materialization logic of its own to translate, so the body
// construction below follows spec §4.12's prose directly. The shell's
// own shape (decode, transform, re-run LVN, encode) is still echoed here:
// Optimize ends by running the freshly built trace body through
// internal/valuenum's LVN, the same polish trace.py's `main` applies to
// whatever `lvn` returns.
package tracepass

import (
	"fmt"

	"ssaopt/internal/ir"
	"ssaopt/internal/ircfg"
	"ssaopt/internal/valuenum"
)

// memOrIOOps are the opcodes that disqualify a trace outright (spec §7:
// "Trace containing memory or I/O: local — reject trace, emit original
// program unchanged").
var memOrIOOps = map[ir.Op]bool{
	ir.OpLoad: true, ir.OpStore: true, ir.OpAlloc: true, ir.OpFree: true,
	ir.OpPtrAdd: true, ir.OpPrint: true,
}

// Optimize splices a speculative, guarded version of tr into prog in
// place of the region it traced. If the trace recorded a memory or I/O
// instruction, prog is left unchanged and Optimize returns nil (a local
// recovery, not a failure).
func Optimize(prog *ir.Program, tr *Trace) error {
	if containsMemOrIO(tr) {
		return nil
	}
	if tr.StartFunc != tr.EndFunc {
		return fmt.Errorf("tracepass: trace spans %s..%s, only a single-function trace is supported", tr.StartFunc, tr.EndFunc)
	}

	fn := prog.FindFunction(tr.StartFunc)
	if fn == nil {
		return fmt.Errorf("tracepass: trace references unknown function %q", tr.StartFunc)
	}
	if tr.StartOffset < 0 || tr.EndOffset >= len(fn.Instrs) || tr.StartOffset > tr.EndOffset {
		return fmt.Errorf("tracepass: trace offsets [%d,%d] out of range for %s (%d instructions)", tr.StartOffset, tr.EndOffset, fn.Name, len(fn.Instrs))
	}

	fresh := freshLabelFunc(fn)
	bailoutLabel := fresh("trace.bailout")
	continueLabel := fresh("trace.continue")

	body, err := buildTraceBody(tr, bailoutLabel, continueLabel)
	if err != nil {
		return err
	}
	if !containsFloat(body) {
		valuenum.LVN(&ircfg.Block{Instrs: body})
	}

	prefix := fn.Instrs[:tr.StartOffset]
	region := fn.Instrs[tr.StartOffset : tr.EndOffset+1]
	suffix := fn.Instrs[tr.EndOffset+1:]

	var spliced []*ir.Instruction
	spliced = append(spliced, prefix...)
	spliced = append(spliced, body...)
	spliced = append(spliced, ir.Label(bailoutLabel))
	spliced = append(spliced, region...)
	spliced = append(spliced, ir.Label(continueLabel))
	spliced = append(spliced, suffix...)

	fn.Instrs = spliced
	fn.Renumber()
	return nil
}

func containsMemOrIO(tr *Trace) bool {
	for _, r := range tr.Instrs {
		if memOrIOOps[r.Instr.Op] {
			return true
		}
	}
	return false
}

func containsFloat(instrs []*ir.Instruction) bool {
	for _, instr := range instrs {
		if _, isFloat := instr.Type.(ir.FloatType); isFloat {
			return true
		}
		switch instr.Op {
		case ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv:
			return true
		}
	}
	return false
}

// buildTraceBody emits speculate, then one instruction per recorded step
// — jmps and labels skipped, each br replaced by a guard on its condition
// (negated through a fresh not when the trace took the false arm) aimed
// at bailoutLabel, everything else copied as-is — then commit and a jump
// to continueLabel (spec §4.12 steps 1-3).
func buildTraceBody(tr *Trace, bailoutLabel, continueLabel string) ([]*ir.Instruction, error) {
	out := []*ir.Instruction{ir.Speculate()}
	notCounter := 0

	for _, r := range tr.Instrs {
		instr := r.Instr
		switch {
		case instr.IsLabel() || instr.Op == ir.OpJmp:
			continue
		case instr.Op == ir.OpBr:
			if r.Branch == nil {
				return nil, fmt.Errorf("tracepass: recorded br missing branch-taken bit")
			}
			cond := instr.Args[0]
			if *r.Branch {
				out = append(out, ir.Guard(cond, bailoutLabel))
				continue
			}
			notCounter++
			negated := fmt.Sprintf("trace.not%d", notCounter)
			out = append(out, ir.Unary(ir.OpNot, negated, ir.BoolType{}, cond))
			out = append(out, ir.Guard(negated, bailoutLabel))
		default:
			out = append(out, instr.Clone())
		}
	}

	out = append(out, ir.Commit())
	out = append(out, ir.Jump(continueLabel))
	return out, nil
}

// freshLabelFunc mints a label unique against every existing label and
// jump/branch target already in fn.
func freshLabelFunc(fn *ir.Function) func(prefix string) string {
	used := map[string]bool{}
	for _, instr := range fn.Instrs {
		if instr.Label != "" {
			used[instr.Label] = true
		}
		for _, l := range instr.Labels {
			used[l] = true
		}
	}
	counters := map[string]int{}
	return func(prefix string) string {
		name := prefix
		for used[name] {
			counters[prefix]++
			name = fmt.Sprintf("%s.%d", prefix, counters[prefix])
		}
		used[name] = true
		return name
	}
}
