package main

import (
	"os"

	"github.com/marmos91/sharecheck/cmd/sharecheck/commands"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	root := commands.NewRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(commands.ExitCode(err))
	}
}
