package main

import (
	"errors"
	"fmt"
	"os"

	"ssaopt/internal/diag"
	"ssaopt/internal/pipeline"
)

func main() {
	if err := Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints err as a coded/colored spec §7 diagnostic when it
// carries one (any pipeline.PassError in its chain), falling back to the
// plain message for errors raised outside the pipeline (flag parsing,
// I/O, JSON decode).
func reportError(err error) {
	var passErr *pipeline.PassError
	if errors.As(err, &passErr) {
		fmt.Fprint(os.Stderr, diag.NewReporter().Format(passErr.Diagnostic))
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
