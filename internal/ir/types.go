// Package ir defines the three-address instruction set, the program and
// function records, and the JSON codec every analysis and transform pass
// in ssaopt operates over.
package ir

import "fmt"

// Type is the closed universe of IR value types: int, bool, float, vector,
// and recursively ptr<T>. Equality is structural, not identity.
type Type interface {
	String() string
	Equal(Type) bool
}

// IntType, BoolType, FloatType and VectorType are the leaf scalar/vector types.
type (
	IntType    struct{}
	BoolType   struct{}
	FloatType  struct{}
	VectorType struct{}
)

// PtrType is a pointer to a value of the wrapped type.
type PtrType struct {
	Elem Type
}

func (IntType) String() string    { return "int" }
func (BoolType) String() string   { return "bool" }
func (FloatType) String() string  { return "float" }
func (VectorType) String() string { return "vector" }
func (p PtrType) String() string  { return fmt.Sprintf("ptr<%s>", p.Elem) }

func (IntType) Equal(o Type) bool    { _, ok := o.(IntType); return ok }
func (BoolType) Equal(o Type) bool   { _, ok := o.(BoolType); return ok }
func (FloatType) Equal(o Type) bool  { _, ok := o.(FloatType); return ok }
func (VectorType) Equal(o Type) bool { _, ok := o.(VectorType); return ok }
func (p PtrType) Equal(o Type) bool {
	op, ok := o.(PtrType)
	if !ok {
		return false
	}
	return p.Elem.Equal(op.Elem)
}

// DefaultValue returns the canonical zero literal for a type, used when
// SSA construction must synthesize a definition on a path where a
// variable read by a phi is otherwise unbound.
func DefaultValue(t Type) any {
	switch t.(type) {
	case BoolType:
		return true
	case FloatType:
		return 0.0
	default:
		return int64(0)
	}
}
