// Command sdsmatch is the CLI entry point for schema-driven SDS extraction.
package main

import (
	"os"

	"github.com/turtacn/sdsmatch/internal/interfaces/cli"
	"github.com/turtacn/sdsmatch/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(errors.ExitStatus(err))
	}
}
