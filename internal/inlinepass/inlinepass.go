// Package inlinepass implements whole-program function inlining (spec
// §4.10), grounded directly on original_source/inlining.py — unlike the
// licm/induction_variables/loop_unrolling stubs, this reference file has a
// complete working implementation, so the call-graph construction,
// topological ordering, and per-call-site splice shape below follow its
// algorithm line for line, translated into ssaopt's instruction shape.
package inlinepass

import (
	"fmt"

	"ssaopt/internal/ir"
)

// edge records "caller calls callee" as a (callee, caller) pair, mirroring
// build_call_graph's edge direction: a vertex is ready to process once no
// edge has it in the caller position, i.e. once it no longer calls
// anything unprocessed, so leaves (callees) settle before their callers.
type edge struct{ callee, caller string }

// Run inlines every call site of every non-recursive function into its
// callers, processing callees before callers so a function's own body is
// fully flattened before it is itself spliced into someone else's. A
// residual strongly connected component (mutual or self recursion) is
// left uninlined, per spec §4.10.
func Run(prog *ir.Program) error {
	vertices, edges := buildCallGraph(prog)
	order := topologicalOrder(vertices, edges)

	counter := 0
	for _, calleeName := range order {
		callee := prog.FindFunction(calleeName)
		if callee == nil {
			continue
		}

		seen := map[string]bool{}
		for _, callerName := range calledBy(calleeName, edges) {
			if callerName == calleeName || seen[callerName] {
				continue
			}
			seen[callerName] = true

			caller := prog.FindFunction(callerName)
			if caller == nil {
				continue
			}

			instrs, err := inlineAllCallSites(callee, calleeName, caller.Instrs, &counter)
			if err != nil {
				return fmt.Errorf("inlinepass: inlining %s into %s: %w", calleeName, callerName, err)
			}
			caller.Instrs = instrs
			caller.Renumber()
		}
	}
	return nil
}

func buildCallGraph(prog *ir.Program) (vertices []string, edges []edge) {
	for _, fn := range prog.Functions {
		vertices = append(vertices, fn.Name)
		for _, instr := range fn.Instrs {
			if instr.Op == ir.OpCall && len(instr.Funcs) > 0 {
				edges = append(edges, edge{callee: instr.Funcs[0], caller: fn.Name})
			}
		}
	}
	return vertices, edges
}

// topologicalOrder returns vertices in callees-first order. A vertex is
// ready once it no longer appears as a caller among the remaining edges;
// selecting it drops every edge where it is the callee, which is what
// lets its own callers eventually become ready in turn. If the loop ever
// finds no ready vertex while some remain, those form a residual
// component — self or mutual recursion — and are simply excluded from
// the returned order rather than appended as in the reference (ssaopt has
// no use for the excluded set beyond "never chosen as an inline source").
func topologicalOrder(vertices []string, edges []edge) []string {
	remainingV := append([]string(nil), vertices...)
	remainingE := append([]edge(nil), edges...)

	var order []string
	for len(remainingV) > 0 {
		progressed := false
		for _, v := range remainingV {
			callsSomethingRemaining := false
			for _, e := range remainingE {
				if e.caller == v {
					callsSomethingRemaining = true
					break
				}
			}
			if callsSomethingRemaining {
				continue
			}

			order = append(order, v)

			var nextE []edge
			for _, e := range remainingE {
				if e.callee != v {
					nextE = append(nextE, e)
				}
			}
			remainingE = nextE

			var nextV []string
			for _, vv := range remainingV {
				if vv != v {
					nextV = append(nextV, vv)
				}
			}
			remainingV = nextV

			progressed = true
			break
		}
		if !progressed {
			break
		}
	}
	return order
}

func calledBy(callee string, edges []edge) []string {
	var callers []string
	for _, e := range edges {
		if e.callee == callee {
			callers = append(callers, e.caller)
		}
	}
	return callers
}

// inlineAllCallSites replaces every call to calleeName in callerInstrs
// with a freshly renamed, spliced copy of callee's body. counter is
// shared across the whole Run so every call site in the program gets a
// distinct suffix.
func inlineAllCallSites(callee *ir.Function, calleeName string, callerInstrs []*ir.Instruction, counter *int) ([]*ir.Instruction, error) {
	var out []*ir.Instruction
	for _, instr := range callerInstrs {
		if instr.Op != ir.OpCall || len(instr.Funcs) == 0 || instr.Funcs[0] != calleeName {
			out = append(out, instr)
			continue
		}
		if len(instr.Args) != len(callee.Params) {
			return nil, fmt.Errorf("call site to %s passes %d args, want %d", calleeName, len(instr.Args), len(callee.Params))
		}

		*counter++
		spliced := inlineOneCallSite(instr, callee, *counter)
		out = append(out, spliced...)
	}
	return out, nil
}

// inlineOneCallSite deep-copies callee, renames every local name and
// label with a per-site suffix, forces its returns through one exit
// label, and wraps the copy with argument/result `id` bindings so it
// slots into the caller's instruction stream in place of the call.
func inlineOneCallSite(call *ir.Instruction, callee *ir.Function, counter int) []*ir.Instruction {
	suffix := fmt.Sprintf("%d", counter)

	calleeCopy := callee.Clone()
	renameCalleeCopy(calleeCopy, suffix)

	exitLabel := fmt.Sprintf("return.loc.%s", suffix)
	retVarName := fmt.Sprintf("return_var.%s.unique", suffix)
	bodyInstrs, hasRetVar := spliceUniqueExit(calleeCopy.Instrs, exitLabel, retVarName, callee.ReturnType)

	var out []*ir.Instruction
	for i, param := range calleeCopy.Params {
		out = append(out, ir.Unary(ir.OpID, param.Name, param.Type, call.Args[i]))
	}
	out = append(out, bodyInstrs...)
	if hasRetVar && call.Dest != "" {
		out = append(out, ir.Unary(ir.OpID, call.Dest, call.Type, retVarName))
	}
	return out
}

// renameCalleeCopy gives every destination, argument, and label in fn a
// suffix unique to this call site, including its own parameter names.
// Funcs (call targets) are left untouched — those name other functions,
// not locals.
func renameCalleeCopy(fn *ir.Function, suffix string) {
	for _, instr := range fn.Instrs {
		if instr.Dest != "" {
			instr.Dest = mangleVar(instr.Dest, suffix)
		}
		for i, a := range instr.Args {
			instr.Args[i] = mangleVar(a, suffix)
		}
		if instr.Label != "" {
			instr.Label = mangleLabel(instr.Label, suffix)
		}
		for i, l := range instr.Labels {
			instr.Labels[i] = mangleLabel(l, suffix)
		}
	}
	for i := range fn.Params {
		fn.Params[i].Name = mangleVar(fn.Params[i].Name, suffix)
	}
}

func mangleVar(name, suffix string) string  { return fmt.Sprintf("%s_%s_inlined", name, suffix) }
func mangleLabel(name, suffix string) string { return fmt.Sprintf("%s.inlined.%s", name, suffix) }

// spliceUniqueExit appends exitLabel to instrs and rewrites every ret into
// a jump to it, storing a returned value into retVarName first. It
// reports whether any ret actually carried a value, since a void callee
// leaves retVarName unused.
func spliceUniqueExit(instrs []*ir.Instruction, exitLabel, retVarName string, retType ir.Type) ([]*ir.Instruction, bool) {
	instrs = append(instrs, ir.Label(exitLabel))

	var out []*ir.Instruction
	hasRetVar := false
	for _, instr := range instrs {
		switch {
		case instr.Op == ir.OpRet && len(instr.Args) > 0:
			out = append(out, ir.Unary(ir.OpID, retVarName, retType, instr.Args[0]))
			out = append(out, ir.Jump(exitLabel))
			hasRetVar = true
		case instr.Op == ir.OpRet:
			out = append(out, ir.Jump(exitLabel))
		default:
			out = append(out, instr)
		}
	}
	return out, hasRetVar
}
