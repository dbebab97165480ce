package ir

import (
	"strings"
	"testing"
)

func TestPrintRendersFunctionShape(t *testing.T) {
	fn := &Function{
		Name:       "main",
		Params:     []Param{{Name: "n", Type: IntType{}}},
		ReturnType: IntType{},
		Instrs: []*Instruction{
			Label("entry"),
			Const("one", IntType{}, int64(1)),
			Binary(OpAdd, "r", IntType{}, "n", "one"),
			Ret("r"),
		},
	}
	out := Print(&Program{Functions: []*Function{fn}})

	if !strings.Contains(out, "@main(n: int): int {") {
		t.Errorf("missing signature line, got:\n%s", out)
	}
	if !strings.Contains(out, "entry:\n") {
		t.Errorf("missing label line, got:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimRight(out, "\n"), "}") {
		t.Errorf("expected function to close with '}', got:\n%s", out)
	}
}

func TestPrintMultipleFunctionsSeparated(t *testing.T) {
	f1 := &Function{Name: "a", Instrs: []*Instruction{Ret("")}}
	f2 := &Function{Name: "b", Instrs: []*Instruction{Ret("")}}
	out := Print(&Program{Functions: []*Function{f1, f2}})
	if !strings.Contains(out, "@a(") || !strings.Contains(out, "@b(") {
		t.Errorf("expected both functions printed, got:\n%s", out)
	}
}
