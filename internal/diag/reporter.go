// Package diag adapts the teacher's rust-style diagnostic reporter
// (internal/errors/reporter.go) to a domain with no source text to quote:
// ssaopt's diagnostics locate a problem by function name and instruction
// index rather than by line and column, since the IR passes consume and
// emit JSON programs with no attached source spans (spec §3, §7).
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Severity mirrors spec §7's two recovery classes: Fatal aborts the
// current pass, Local keeps the original instruction/loop/trace and
// moves on.
type Severity string

const (
	Fatal Severity = "error"
	Local Severity = "note"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity   Severity
	Code       string
	Message    string
	Function   string // function the problem was found in, if any
	InstrIndex int     // arena index (Instruction.ID) of the offending instruction, or -1
}

// Reporter formats Diagnostics for CLI output.
type Reporter struct{}

// NewReporter constructs a Reporter.
func NewReporter() *Reporter { return &Reporter{} }

// Format renders d as a single rust-like diagnostic block.
func (r *Reporter) Format(d Diagnostic) string {
	var out strings.Builder

	severityColor := r.severityColor(d.Severity)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if d.Code != "" {
		out.WriteString(fmt.Sprintf("%s[%s]: %s\n", severityColor(string(d.Severity)), d.Code, d.Message))
	} else {
		out.WriteString(fmt.Sprintf("%s: %s\n", severityColor(string(d.Severity)), d.Message))
	}

	if d.Function != "" {
		loc := d.Function
		if d.InstrIndex >= 0 {
			loc = fmt.Sprintf("%s, instruction #%d", d.Function, d.InstrIndex)
		}
		out.WriteString(fmt.Sprintf("  %s %s\n", dim("-->"), loc))
	}

	if d.Code != "" {
		out.WriteString(fmt.Sprintf("  %s %s\n", dim("="), bold(Describe(d.Code))))
	}

	return out.String()
}

func (r *Reporter) severityColor(s Severity) func(...interface{}) string {
	switch s {
	case Fatal:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Local:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}
