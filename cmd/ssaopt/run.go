package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ssaopt/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the selected optimizer passes (and analysis flags) over a program",
	Long: `run reads a JSON program and applies whichever of spec §6's transform
flags are set, in pipeline order, writing the optimized program back out.
The analysis flags (reaching/constant/live/available) print their report
to stderr instead of mutating the program.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.Bool("pretty-print", false, "emit input and output programs in indented form")
	flags.Bool("global-delete", false, "trivial DCE: whole-function unused-delete to fixpoint")
	flags.Bool("local-delete", false, "trivial DCE: within-block to fixpoint")
	flags.Bool("adce", false, "aggressive DCE; requires SSA and reproduces SSA")
	flags.Bool("adce-unsafe", false, "aggressive DCE's unsafe variant (may drop back-edge terminators)")
	flags.Bool("to-ssa", false, "convert to SSA")
	flags.Bool("from-ssa", false, "convert out of SSA")
	flags.Bool("licm", false, "enable loop-invariant code motion")
	flags.Bool("ive", false, "enable induction-variable elimination")
	flags.Bool("gvn", false, "enable dominator-based GVN; requires and preserves SSA")
	flags.Bool("naive", false, "naive vectorization strategy")
	flags.Bool("op", false, "opportunistic (LVN/SLP-based) vectorization strategy")
	flags.Bool("unroll", false, "fully unroll statically-bounded loops")
	flags.Int("unroll-k", 0, "partially unroll loops by this factor (0 disables)")
	flags.Bool("inline", false, "inline call sites along the acyclic part of the call graph")
	flags.Bool("reaching", false, "run and print reaching-definitions analysis")
	flags.Bool("constant", false, "run and print constant-propagation analysis")
	flags.Bool("live", false, "run and print live-variables analysis")
	flags.Bool("available", false, "run and print available-expressions analysis")
}

func runRun(cmd *cobra.Command, _ []string) error {
	prog, rawInput, err := readProgram(cmd)
	if err != nil {
		return err
	}

	pretty, _ := cmd.Flags().GetBool("pretty-print")
	if pretty {
		indented, err := prettyJSON(rawInput)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, string(indented))
	}

	opts, analysisOpts, err := parseRunFlags(cmd)
	if err != nil {
		return err
	}

	if err := pipeline.Run(prog, opts); err != nil {
		return err
	}

	for _, fn := range prog.Functions {
		for _, line := range pipeline.Analyze(fn, analysisOpts) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", fn.Name, line)
		}
	}

	return writeProgram(cmd, prog, pretty)
}

func parseRunFlags(cmd *cobra.Command) (pipeline.Options, pipeline.AnalysisOptions, error) {
	flags := cmd.Flags()
	get := func(name string) bool { v, _ := flags.GetBool(name); return v }
	unrollK, err := flags.GetInt("unroll-k")
	if err != nil {
		return pipeline.Options{}, pipeline.AnalysisOptions{}, err
	}

	opts := pipeline.Options{
		GlobalDelete: get("global-delete"),
		LocalDelete:  get("local-delete"),
		ADCE:         get("adce"),
		ADCEUnsafe:   get("adce-unsafe"),
		ToSSA:        get("to-ssa"),
		FromSSA:      get("from-ssa"),
		LICM:         get("licm"),
		IVE:          get("ive"),
		GVN:          get("gvn"),
		Naive:        get("naive"),
		Op:           get("op"),
		UnrollFull:   get("unroll"),
		UnrollK:      unrollK,
		Inline:       get("inline"),
	}
	analysisOpts := pipeline.AnalysisOptions{
		Reaching:  get("reaching"),
		Constant:  get("constant"),
		Live:      get("live"),
		Available: get("available"),
	}
	return opts, analysisOpts, nil
}
