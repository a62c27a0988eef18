package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/sharecheck/internal/cli/prompt"
	"github.com/marmos91/sharecheck/pkg/config"
)

type initOptions struct {
	force      bool
	apiAddress string
	userID     string
	workers    int
}

func newInitCmd(flags *globalFlags) *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file",
		Long: `Write a sharecheck configuration file.

Values not given as flags are prompted for when stdin is a terminal. The
password is only stored when requested interactively; otherwise it is
prompted for on every run or read from SHARECHECK_APPLIANCE_PASSWORD.

By default, the configuration file is created at
$XDG_CONFIG_HOME/sharecheck/config.yaml. Use --config to specify a custom path.

Examples:
  # Interactive setup
  sharecheck init

  # Non-interactive setup
  sharecheck init --api-address https://10.0.0.5:8080/cgi-bin/ezs3 --user-id admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "Force overwrite existing config file")
	cmd.Flags().StringVar(&opts.apiAddress, "api-address", "", "Management API base URL")
	cmd.Flags().StringVar(&opts.userID, "user-id", "", "Login user (default: admin)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Number of cases run concurrently (default: 1)")

	return cmd
}

func runInit(cmd *cobra.Command, flags *globalFlags, opts *initOptions) error {
	path := flags.configFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !opts.force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	cfg := config.GetDefaultConfig()
	cfg.Appliance.APIAddress = opts.apiAddress
	if opts.userID != "" {
		cfg.Appliance.UserID = opts.userID
	}
	if opts.workers != 0 {
		cfg.Runner.Workers = opts.workers
	}

	if prompt.Interactive() {
		if err := promptInit(cmd, cfg); err != nil {
			return err
		}
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Configuration file created at: %s\n", path)
	_, _ = fmt.Fprintln(w, "\nNext steps:")
	_, _ = fmt.Fprintln(w, "  1. List the built-in cases with: sharecheck list")
	_, _ = fmt.Fprintf(w, "  2. Run them with: sharecheck run --config %s\n", path)
	return nil
}

// promptInit asks for the values not given as flags.
func promptInit(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error

	if !f.Changed("api-address") {
		if cfg.Appliance.APIAddress, err = prompt.Input("Management API address", "", prompt.APIAddress); err != nil {
			return err
		}
	}
	if !f.Changed("user-id") {
		if cfg.Appliance.UserID, err = prompt.Input("User", cfg.Appliance.UserID, prompt.NonEmpty); err != nil {
			return err
		}
	}
	if !f.Changed("workers") {
		if cfg.Runner.Workers, err = prompt.InputInt("Concurrent cases", cfg.Runner.Workers, 1, 64); err != nil {
			return err
		}
	}

	store, err := prompt.Confirm("Store the password in the configuration file", false)
	if err != nil {
		return err
	}
	if store {
		if cfg.Appliance.Password, err = prompt.AppliancePassword(cfg.Appliance.UserID, cfg.Appliance.APIAddress); err != nil {
			return err
		}
	}
	return nil
}
