// Command rededup is a content-addressed file and directory duplicate
// indexer and analyzer.
package main

import (
	"errors"
	"os"

	"github.com/sherwoodwang/rededup/rerrcode"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor translates a command error into a process exit status.
// Errors carrying a rerrcode.ErrorCoder, anywhere in the error chain,
// use its registered ExitCode; anything else (including cobra's own
// flag-parsing errors) falls back to ErrorCodeUnknown's.
func exitCodeFor(err error) int {
	var coder rerrcode.ErrorCoder
	if errors.As(err, &coder) {
		return coder.ErrorCode().ExitCode()
	}
	return rerrcode.ErrorCodeUnknown.ExitCode()
}
