package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/sharecheck/internal/cli/output"
	"github.com/marmos91/sharecheck/internal/cli/prompt"
	"github.com/marmos91/sharecheck/internal/logger"
	"github.com/marmos91/sharecheck/internal/telemetry"
	"github.com/marmos91/sharecheck/pkg/apiclient"
	"github.com/marmos91/sharecheck/pkg/config"
	"github.com/marmos91/sharecheck/pkg/scenario"
	"github.com/marmos91/sharecheck/pkg/session"
)

// errNoPassword is returned when no password is configured and stdin cannot
// be prompted.
var errNoPassword = errors.New("no appliance password configured: set appliance.password or SHARECHECK_APPLIANCE_PASSWORD")

// loadConfig loads the configuration and applies --verbose.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		cfg.Logging.Level = "DEBUG"
	}
	return cfg, nil
}

// setupObservability initializes logging and tracing. The returned function
// flushes pending spans.
func setupObservability(ctx context.Context, cfg *config.Config) (func(), error) {
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	shutdown, err := telemetry.Init(ctx, telemetryConfig(cfg.Telemetry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if telemetry.IsEnabled() {
		logger.Debug("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}

	return func() {
		// The run context may already be cancelled; spans still need flushing.
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Telemetry shutdown error", logger.Err(err))
		}
	}, nil
}

// telemetryConfig overlays the configured telemetry section on the tracing
// defaults.
func telemetryConfig(c config.TelemetryConfig) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = Version
	tc.Enabled = c.Enabled
	tc.Insecure = c.Insecure
	tc.SampleRate = c.SampleRate
	if c.Endpoint != "" {
		tc.Endpoint = c.Endpoint
	}
	return tc
}

// newPrinter builds a printer on the command's stdout.
func newPrinter(cmd *cobra.Command, flags *globalFlags) (*output.Printer, error) {
	format, err := output.ParseFormat(flags.output)
	if err != nil {
		return nil, err
	}
	w := cmd.OutOrStdout()
	color := format == output.FormatTable && !flags.noColor && output.IsTerminal(w)
	return output.NewPrinter(w, format, color), nil
}

// resolvePassword prompts for the password when the configuration has none.
func resolvePassword(cfg *config.ApplianceConfig) error {
	if cfg.Password != "" {
		return nil
	}
	if !prompt.Interactive() {
		return errNoPassword
	}
	password, err := prompt.AppliancePassword(cfg.UserID, cfg.APIAddress)
	if err != nil {
		return err
	}
	cfg.Password = password
	return nil
}

// connect builds the API client and the lazily logging-in session manager.
func connect(cfg *config.ApplianceConfig) (*apiclient.Client, *session.Manager, error) {
	if err := resolvePassword(cfg); err != nil {
		return nil, nil, err
	}

	base := apiclient.New(cfg.APIAddress,
		apiclient.WithTimeout(cfg.Timeout),
		apiclient.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
	)
	sessions := session.New(base, session.Credential{
		APIAddress: cfg.APIAddress,
		UserID:     cfg.UserID,
		Password:   cfg.Password,
	})
	return base, sessions, nil
}

// selectCases loads the matrix (built-in when path is empty) and applies
// the label filter.
func selectCases(path, filter string) ([]scenario.Case, error) {
	cases := scenario.DefaultMatrix()
	if path != "" {
		loaded, err := scenario.LoadMatrix(path)
		if err != nil {
			return nil, err
		}
		cases = loaded
	}

	selected, err := scenario.Filter(cases, filter)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no case matches filter %q", filter)
	}
	return selected, nil
}
