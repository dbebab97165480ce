// Command ssaopt wires internal/pipeline (and internal/tracepass) to spec
// §6's CLI flag surface, one subcommand per flag group: `run` for the
// transform/analysis flags, `dominators` for the dominator-toolkit
// views, `trace` for the trace optimizer. Shaped on sast-engine/cmd's
// cobra root — a persistent verbosity flag plus one subcommand per
// distinct operation — which is the only cobra-based CLI in the example
// pack.
package main

import (
	"github.com/spf13/cobra"

	"ssaopt/internal/diag"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "ssaopt",
	Short: "An optimizing middle-end for a three-address SSA-capable IR",
	Long: `ssaopt reads a JSON program on one of its subcommand's input, runs the
selected optimizer passes and analyses over it, and writes the result back
out as JSON (or, for analysis/view flags, as a human-readable report).`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		diag.ConfigureLogging(verbosity)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().IntVar(&verbosity, "verbosity", 0, "logging verbosity (0 silent, higher is noisier)")
	rootCmd.PersistentFlags().String("input", "-", `input JSON program path ("-" for stdin)`)
	rootCmd.PersistentFlags().String("output", "-", `output JSON program path ("-" for stdout)`)
}
