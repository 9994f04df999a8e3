package config

import (
	"fmt"
	"os"
)

// Exitf writes a formatted error message to stderr and exits with the given
// status. It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(status int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(status)
}
