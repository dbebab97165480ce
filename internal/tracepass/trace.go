package tracepass

import (
	"encoding/json"
	"fmt"

	"ssaopt/internal/ir"
)

// Recorded is one executed instruction from an externally supplied trace,
// plus the branch-taken boolean recorded for it when it was a br (spec
// §6's trace file shape).
type Recorded struct {
	Instr  *ir.Instruction
	Branch *bool
}

// Trace is the decoded trace file: spec §6's
// {start_func, start_offset, end_func, end_offset, instrs:[{instr, branch?}]}.
type Trace struct {
	StartFunc   string
	StartOffset int
	EndFunc     string
	EndOffset   int
	Instrs      []Recorded
}

type wireRecorded struct {
	Instr  *ir.Instruction `json:"instr"`
	Branch *bool           `json:"branch,omitempty"`
}

type wireTrace struct {
	StartFunc   string         `json:"start_func"`
	StartOffset int            `json:"start_offset"`
	EndFunc     string         `json:"end_func"`
	EndOffset   int            `json:"end_offset"`
	Instrs      []wireRecorded `json:"instrs"`
}

// DecodeTrace parses a spec §6 trace file.
func DecodeTrace(data []byte) (*Trace, error) {
	var w wireTrace
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("tracepass: decoding trace: %w", err)
	}
	tr := &Trace{
		StartFunc:   w.StartFunc,
		StartOffset: w.StartOffset,
		EndFunc:     w.EndFunc,
		EndOffset:   w.EndOffset,
	}
	for _, wr := range w.Instrs {
		if wr.Instr == nil {
			return nil, fmt.Errorf("tracepass: decoding trace: recorded entry missing instr")
		}
		tr.Instrs = append(tr.Instrs, Recorded{Instr: wr.Instr, Branch: wr.Branch})
	}
	return tr, nil
}
