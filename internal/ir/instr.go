package ir

import (
	"encoding/json"
	"fmt"
)

// Instruction is the tagged record from spec §3: either a label marker, or
// an opcode with the union of optional fields. ssaopt keeps the external
// JSON shape as the in-memory representation directly (every instruction
// already carries the same optional-field shape on the wire; layering a
// second Go-side interface hierarchy on top, the way the teacher's EVM IR
// does for a non-serialized in-memory tree, would just be a re-encoding of
// the same tag with no behavioral difference — see DESIGN.md).
//
// ID is an arena index assigned by Function.Renumber; it is never
// marshaled and is the "stable handle" design notes ask passes like DCE
// and LVN to key off of instead of pointer identity.
type Instruction struct {
	ID int `json:"-"`

	Label string `json:"label,omitempty"`

	Op     Op       `json:"op,omitempty"`
	Dest   string   `json:"dest,omitempty"`
	Type   Type     `json:"-"`
	Args   []string `json:"args,omitempty"`
	Funcs  []string `json:"funcs,omitempty"`
	Labels []string `json:"labels,omitempty"`
	Value  any      `json:"-"`
}

// IsLabel reports whether this record only marks a basic block header.
func (i *Instruction) IsLabel() bool { return i.Label != "" && i.Op == "" }

// HasDest reports whether the instruction writes a destination variable.
func (i *Instruction) HasDest() bool { return i.Dest != "" }

// IsTerminator reports whether this instruction ends a basic block.
func (i *Instruction) IsTerminator() bool { return i.Op.IsTerminator() }

// Clone deep-copies the slices so the copy can be mutated independently.
func (i *Instruction) Clone() *Instruction {
	c := *i
	c.Args = append([]string(nil), i.Args...)
	c.Funcs = append([]string(nil), i.Funcs...)
	c.Labels = append([]string(nil), i.Labels...)
	return &c
}

func (i *Instruction) String() string {
	if i.IsLabel() {
		return fmt.Sprintf(".%s:", i.Label)
	}
	prefix := ""
	if i.Dest != "" {
		prefix = fmt.Sprintf("%s: %s = ", i.Dest, typeString(i.Type))
	}
	switch i.Op {
	case OpConst:
		return fmt.Sprintf("%s%s %v", prefix, i.Op, i.Value)
	case OpJmp, OpBr:
		return fmt.Sprintf("%s %s %s", i.Op, join(i.Args), join(i.Labels))
	case OpCall:
		return fmt.Sprintf("%s%s %s %s", prefix, i.Op, join(i.Funcs), join(i.Args))
	case OpPhi:
		return fmt.Sprintf("%s%s %s %s", prefix, i.Op, join(i.Args), join(i.Labels))
	default:
		return fmt.Sprintf("%s%s %s", prefix, i.Op, join(i.Args))
	}
}

func typeString(t Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

func join(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

// --- JSON codec -------------------------------------------------------

// wireInstruction mirrors Instruction's exported JSON shape exactly (spec
// §6), deferring Type/Value to raw messages so they can be decoded with
// the recursive ptr<T> and type-directed-literal rules.
type wireInstruction struct {
	Label  string          `json:"label,omitempty"`
	Op     Op              `json:"op,omitempty"`
	Dest   string          `json:"dest,omitempty"`
	Type   json.RawMessage `json:"type,omitempty"`
	Args   []string        `json:"args,omitempty"`
	Funcs  []string        `json:"funcs,omitempty"`
	Labels []string        `json:"labels,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
}

func (i *Instruction) MarshalJSON() ([]byte, error) {
	w := wireInstruction{
		Label: i.Label, Op: i.Op, Dest: i.Dest,
		Args: i.Args, Funcs: i.Funcs, Labels: i.Labels,
	}
	if i.Type != nil {
		raw, err := MarshalType(i.Type)
		if err != nil {
			return nil, err
		}
		w.Type = raw
	}
	if i.Value != nil {
		raw, err := json.Marshal(i.Value)
		if err != nil {
			return nil, err
		}
		w.Value = raw
	}
	return json.Marshal(w)
}

func (i *Instruction) UnmarshalJSON(data []byte) error {
	var w wireInstruction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	i.Label, i.Op, i.Dest = w.Label, w.Op, w.Dest
	i.Args, i.Funcs, i.Labels = w.Args, w.Funcs, w.Labels
	if len(w.Type) > 0 {
		t, err := ParseType(w.Type)
		if err != nil {
			return fmt.Errorf("instruction %+v: %w", w, err)
		}
		i.Type = t
	}
	if len(w.Value) > 0 {
		v, err := parseLiteral(w.Value, i.Type)
		if err != nil {
			return fmt.Errorf("instruction %+v: %w", w, err)
		}
		i.Value = v
	}
	return nil
}

func parseLiteral(raw json.RawMessage, t Type) (any, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	switch v := generic.(type) {
	case bool:
		return v, nil
	case float64:
		if _, isFloat := t.(FloatType); isFloat {
			return v, nil
		}
		return int64(v), nil
	default:
		return generic, nil
	}
}
