// Package commands implements the sharecheck CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// globalFlags holds the persistent flag values shared by subcommands.
type globalFlags struct {
	configFile string
	output     string
	noColor    bool
	verbose    bool
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "sharecheck",
		Short: "Conformance checks for the appliance shared-folder API",
		Long: `sharecheck drives the shared-folder management API of a storage appliance
through a matrix of declarative cases (create, delete, edit and statistics
calls) and reports which cases returned the expected code.

Every folder a case creates is deleted when the case ends.

Configuration is read from $XDG_CONFIG_HOME/sharecheck/config.yaml and can be
overridden with SHARECHECK_<SECTION>_<KEY> environment variables, e.g.
SHARECHECK_APPLIANCE_API_ADDRESS or SHARECHECK_APPLIANCE_PASSWORD.

Use "sharecheck [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/sharecheck/config.yaml)")
	pf.StringVarP(&flags.output, "output", "o", "table", "Output format (table|json|yaml)")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newRunCmd(flags),
		newListCmd(flags),
		newStatsCmd(flags),
		newInitCmd(flags),
		newVersionCmd(),
	)
	root.CompletionOptions.DisableDefaultCmd = true

	return root
}
