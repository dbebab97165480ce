package ir

import (
	"encoding/json"
	"fmt"
)

// ParseType decodes spec §6's recursive type grammar: a bare string for a
// leaf type, or {"ptr": T} for a pointer.
func ParseType(raw json.RawMessage) (Type, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		switch name {
		case "int":
			return IntType{}, nil
		case "bool":
			return BoolType{}, nil
		case "float":
			return FloatType{}, nil
		case "vector":
			return VectorType{}, nil
		default:
			return nil, fmt.Errorf("unknown type name %q", name)
		}
	}

	var ptr struct {
		Ptr json.RawMessage `json:"ptr"`
	}
	if err := json.Unmarshal(raw, &ptr); err != nil || ptr.Ptr == nil {
		return nil, fmt.Errorf("malformed type %s", raw)
	}
	elem, err := ParseType(ptr.Ptr)
	if err != nil {
		return nil, fmt.Errorf("ptr elem: %w", err)
	}
	return PtrType{Elem: elem}, nil
}

// MarshalType encodes a Type back to spec §6's wire grammar.
func MarshalType(t Type) (json.RawMessage, error) {
	switch v := t.(type) {
	case IntType:
		return json.Marshal("int")
	case BoolType:
		return json.Marshal("bool")
	case FloatType:
		return json.Marshal("float")
	case VectorType:
		return json.Marshal("vector")
	case PtrType:
		inner, err := MarshalType(v.Elem)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Ptr json.RawMessage `json:"ptr"`
		}{Ptr: inner})
	default:
		return nil, fmt.Errorf("unknown type %T", t)
	}
}
