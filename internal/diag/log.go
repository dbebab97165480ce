package diag

import "github.com/tliron/commonlog"

// ConfigureLogging sets the process-wide commonlog verbosity, the same
// call cmd/kanso-lsp makes at startup (internal/lsp's host). verbosity
// follows commonlog's convention: 0 is silent, higher numbers are
// noisier.
func ConfigureLogging(verbosity int) {
	commonlog.Configure(verbosity, nil)
}

// Logger returns a named commonlog.Logger scoped under "ssaopt.<name>",
// e.g. "ssaopt.pipeline" for the pass driver, "ssaopt.tracepass" for the
// trace optimizer.
func Logger(name string) commonlog.Logger {
	return commonlog.GetLogger("ssaopt." + name)
}
