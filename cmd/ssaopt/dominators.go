package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ssaopt/internal/pipeline"
)

var dominatorsCmd = &cobra.Command{
	Use:   "dominators",
	Short: "Print the dominator toolkit's views over a program",
	Long: `dominators reads a JSON program and prints, per selected view, one line
per block of every function: the dominator sets, the dominator tree, or
the dominance frontier (spec §6).`,
	RunE: runDominators,
}

func init() {
	rootCmd.AddCommand(dominatorsCmd)

	flags := dominatorsCmd.Flags()
	flags.Bool("dominator", false, "print each block's dominator set")
	flags.Bool("tree", false, "print the dominator tree")
	flags.Bool("frontier", false, "print the dominance frontier")
}

func runDominators(cmd *cobra.Command, _ []string) error {
	prog, _, err := readProgram(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	get := func(name string) bool { v, _ := flags.GetBool(name); return v }
	opts := pipeline.DominatorOptions{
		Dominator: get("dominator"),
		Tree:      get("tree"),
		Frontier:  get("frontier"),
	}

	for _, fn := range prog.Functions {
		for _, line := range pipeline.Dominators(fn, opts) {
			fmt.Fprintf(os.Stdout, "%s: %s\n", fn.Name, line)
		}
	}
	return nil
}
