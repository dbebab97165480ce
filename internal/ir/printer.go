package ir

import (
	"fmt"
	"strings"
)

// Print renders a program in an indented, human-readable form, in the
// spirit of the teacher's ir.Print (kanso/internal/ir/printer.go) and the
// original source's --pretty-print flag (which just indented the JSON;
// ssaopt's version renders the instruction stream instead, which is more
// useful for a reader who is not also staring at JSON).
func Print(prog *Program) string {
	var b strings.Builder
	for i, fn := range prog.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		printFunction(&b, fn)
	}
	return b.String()
}

func printFunction(b *strings.Builder, fn *Function) {
	fmt.Fprintf(b, "@%s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s: %s", p.Name, p.Type)
	}
	b.WriteString(")")
	if fn.ReturnType != nil {
		fmt.Fprintf(b, ": %s", fn.ReturnType)
	}
	b.WriteString(" {\n")
	for _, instr := range fn.Instrs {
		if instr.IsLabel() {
			fmt.Fprintf(b, "%s:\n", instr.Label)
			continue
		}
		fmt.Fprintf(b, "  %s;\n", instr.String())
	}
	b.WriteString("}\n")
}
