package config

import (
	"fmt"
	"os"
)

// Exit codes used by command entrypoints.
const (
	ExitFailure = 1
	// ExitUsage reports input the user must fix before retrying.
	ExitUsage = 2
)

// Exitf writes a formatted error message to stderr and exits with ExitFailure.
func Exitf(format string, args ...any) {
	ExitCodef(ExitFailure, format, args...)
}

// ExitCodef writes a formatted error message to stderr and exits with code.
func ExitCodef(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
