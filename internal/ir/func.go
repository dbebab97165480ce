package ir

import "encoding/json"

// Param is a function parameter name/type pair.
type Param struct {
	Name string
	Type Type
}

// Function is an ordered parameter list plus an ordered instruction stream
// (spec §3). Basic blocks are derived on demand by internal/ircfg rather
// than stored here, so a Function is cheap to copy between passes.
type Function struct {
	Name       string
	Params     []Param
	ReturnType Type // nil if the function returns nothing
	Instrs     []*Instruction
}

// Renumber assigns fresh, stable arena indices to every instruction in the
// function, in textual order. Passes that need identity-based marking
// (DCE, LVN) call this once at entry and use Instruction.ID thereafter;
// identity is never persisted outside a single pass (spec §3 Lifecycles).
func (f *Function) Renumber() {
	for idx, instr := range f.Instrs {
		instr.ID = idx
	}
}

// Clone deep-copies a function's instruction list (not instruction
// identity — the clones get their own *Instruction pointers).
func (f *Function) Clone() *Function {
	c := &Function{Name: f.Name, ReturnType: f.ReturnType}
	c.Params = append([]Param(nil), f.Params...)
	c.Instrs = make([]*Instruction, len(f.Instrs))
	for i, instr := range f.Instrs {
		c.Instrs[i] = instr.Clone()
	}
	return c
}

// Program is an ordered list of functions; by convention one is named
// "main" and is the entry point (spec §3).
type Program struct {
	Functions []*Function
}

// FindFunction returns the function with the given name, or nil.
func (p *Program) FindFunction(name string) *Function {
	for _, f := range p.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// --- JSON codec ---------------------------------------------------------

type wireParam struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type wireFunction struct {
	Name   string          `json:"name"`
	Args   []wireParam     `json:"args,omitempty"`
	Type   json.RawMessage `json:"type,omitempty"`
	Instrs []*Instruction  `json:"instrs"`
}

type wireProgram struct {
	Functions []wireFunction `json:"functions"`
}

// Decode parses a spec §6 JSON program.
func Decode(data []byte) (*Program, error) {
	var w wireProgram
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	prog := &Program{}
	for _, wf := range w.Functions {
		fn := &Function{Name: wf.Name, Instrs: wf.Instrs}
		for _, p := range wf.Args {
			t, err := ParseType(p.Type)
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, Param{Name: p.Name, Type: t})
		}
		if len(wf.Type) > 0 {
			t, err := ParseType(wf.Type)
			if err != nil {
				return nil, err
			}
			fn.ReturnType = t
		}
		fn.Renumber()
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

// Encode emits a spec §6 JSON program.
func Encode(prog *Program) ([]byte, error) {
	w := wireProgram{}
	for _, fn := range prog.Functions {
		wf := wireFunction{Name: fn.Name, Instrs: fn.Instrs}
		for _, p := range fn.Params {
			raw, err := MarshalType(p.Type)
			if err != nil {
				return nil, err
			}
			wf.Args = append(wf.Args, wireParam{Name: p.Name, Type: raw})
		}
		if fn.ReturnType != nil {
			raw, err := MarshalType(fn.ReturnType)
			if err != nil {
				return nil, err
			}
			wf.Type = raw
		}
		if wf.Instrs == nil {
			wf.Instrs = []*Instruction{}
		}
		w.Functions = append(w.Functions, wf)
	}
	return json.Marshal(w)
}
