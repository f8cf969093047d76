package version

import (
	"fmt"
	"io"
	"os"
)

// Package returns the canonical import path rededup was built under.
func Package() string {
	return mainpkg
}

// Version returns the module version the running binary was built
// from.
func Version() string {
	return version
}

// Revision returns the VCS revision used to build the program.
func Revision() string {
	return revision
}

// FprintVersion writes the version line to w, followed by a newline:
//
//	<cmd> <project> <version>
func FprintVersion(w io.Writer) {
	fmt.Fprintln(w, os.Args[0], Package(), Version())
}

// PrintVersion writes the version line to stdout.
func PrintVersion() {
	FprintVersion(os.Stdout)
}
