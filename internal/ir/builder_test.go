package ir

import "testing"

func TestBuilderConstructors(t *testing.T) {
	c := Const("x", IntType{}, int64(5))
	if c.Op != OpConst || c.Dest != "x" || c.Value != int64(5) {
		t.Errorf("Const built wrong instruction: %+v", c)
	}

	add := Binary(OpAdd, "y", IntType{}, "x", "x")
	if len(add.Args) != 2 || add.Args[0] != "x" || add.Args[1] != "x" {
		t.Errorf("Binary built wrong args: %+v", add)
	}

	n := Unary(OpNot, "z", BoolType{}, "c")
	if len(n.Args) != 1 || n.Args[0] != "c" {
		t.Errorf("Unary built wrong args: %+v", n)
	}

	j := Jump("loop")
	if j.Op != OpJmp || len(j.Labels) != 1 || j.Labels[0] != "loop" {
		t.Errorf("Jump built wrong instruction: %+v", j)
	}

	br := Branch("c", "then", "else")
	if br.Op != OpBr || br.Args[0] != "c" || br.Labels[0] != "then" || br.Labels[1] != "else" {
		t.Errorf("Branch built wrong instruction: %+v", br)
	}

	r := Ret("x")
	if r.Op != OpRet || r.Args[0] != "x" {
		t.Errorf("Ret built wrong instruction: %+v", r)
	}
	rv := Ret("")
	if len(rv.Args) != 0 {
		t.Errorf("void Ret should have no args: %+v", rv)
	}

	call := Call("r", IntType{}, "f", "a", "b")
	if call.Op != OpCall || call.Funcs[0] != "f" || len(call.Args) != 2 {
		t.Errorf("Call built wrong instruction: %+v", call)
	}

	p := Print("a", "b")
	if p.Op != OpPrint || len(p.Args) != 2 {
		t.Errorf("Print built wrong instruction: %+v", p)
	}

	phi := Phi("x", IntType{}, []string{"a", "b"}, []string{"then", "else"})
	if phi.Op != OpPhi || len(phi.Args) != 2 || len(phi.Labels) != 2 {
		t.Errorf("Phi built wrong instruction: %+v", phi)
	}
}

func TestInstructionClone(t *testing.T) {
	orig := Binary(OpAdd, "x", IntType{}, "a", "b")
	clone := orig.Clone()
	clone.Args[0] = "mutated"
	if orig.Args[0] == "mutated" {
		t.Error("Clone should not alias the original Args slice")
	}
}
