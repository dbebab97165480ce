package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ssaopt/internal/tracepass"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Splice a recorded trace into its owning function as a speculative fast path",
	Long: `trace reads a JSON program plus a trace file of the shape spec §6
describes ({start_func, start_offset, end_func, end_offset, instrs}) and
materializes the recorded instruction sequence as a speculate/guard/
commit region, falling back to the original traced code on a failed
guard. A trace that recorded any memory operation or I/O is rejected and
the program is emitted unchanged.`,
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().String("trace-file", "", "path to the trace file (required)")
	traceCmd.Flags().Bool("pretty-print", false, "emit the output program in indented form")
	traceCmd.MarkFlagRequired("trace-file")
}

func runTrace(cmd *cobra.Command, _ []string) error {
	prog, _, err := readProgram(cmd)
	if err != nil {
		return err
	}

	tracePath, err := cmd.Flags().GetString("trace-file")
	if err != nil {
		return err
	}
	traceData, err := os.ReadFile(tracePath)
	if err != nil {
		return fmt.Errorf("reading trace file: %w", err)
	}
	tr, err := tracepass.DecodeTrace(traceData)
	if err != nil {
		return fmt.Errorf("decoding trace file: %w", err)
	}

	if err := tracepass.Optimize(prog, tr); err != nil {
		return err
	}

	pretty, _ := cmd.Flags().GetBool("pretty-print")
	return writeProgram(cmd, prog, pretty)
}
