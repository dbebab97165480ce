package ir

import "testing"

func TestOpClassification(t *testing.T) {
	if !OpRet.IsTerminator() {
		t.Error("ret should be a terminator")
	}
	if OpAdd.IsTerminator() {
		t.Error("add should not be a terminator")
	}
	if !OpAdd.IsCommutative() {
		t.Error("add should be commutative")
	}
	if OpSub.IsCommutative() {
		t.Error("sub should not be commutative")
	}
	if !OpAdd.IsPure() {
		t.Error("add should be pure")
	}
	if OpCall.IsPure() {
		t.Error("call should not be pure")
	}
	if OpPrint.IsPure() {
		t.Error("print should not be pure")
	}
}
