// Package main provides the terse example CLI, a small command tree built
// from plain Go functions.
package main

import (
	"fmt"
	"os"

	"github.com/i2y/terse/cli"
	"github.com/i2y/terse/cmd/terse/commands"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	info := commands.BuildInfo{Version: version, Commit: commit, BuildDate: buildDate}

	root, err := commands.NewRoot(info)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := commands.NewLogger(os.Getenv("TERSE_LOG_LEVEL"), os.Getenv("TERSE_LOG_FORMAT"), os.Stderr)

	cli.Main(root,
		cli.WithVersion(info.String()),
		cli.WithLogger(logger),
		cli.WithSchemaCommand(),
	)
}
