package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/sharecheck/internal/cli/output"
	"github.com/marmos91/sharecheck/internal/logger"
	"github.com/marmos91/sharecheck/pkg/config"
	"github.com/marmos91/sharecheck/pkg/metrics"
	"github.com/marmos91/sharecheck/pkg/scenario"
)

type runOptions struct {
	matrix  string
	filter  string
	workers int
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the conformance matrix against the appliance",
		Long: `Run the conformance matrix against the configured appliance and print a
report of every case and every statistics schema violation.

The built-in matrix is used unless --matrix (or runner.matrix_file) names a
YAML matrix. The exit code is 1 when any case did not pass and 2 when the run
could not be completed.

Examples:
  # Run the built-in matrix
  sharecheck run

  # Only the create cases, four at a time, as JSON
  sharecheck run --filter '^create' --workers 4 -o json

  # Run a custom matrix
  sharecheck run --matrix ./cases.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(cmd, flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.matrix, "matrix", "", "YAML matrix file (default: built-in matrix)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Regular expression selecting cases by label")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Number of cases run concurrently (default: runner.workers)")

	return cmd
}

// applyRunFlags overrides the runner section with explicitly set flags.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, opts *runOptions) error {
	f := cmd.Flags()
	if f.Changed("matrix") {
		cfg.Runner.MatrixFile = opts.matrix
	}
	if f.Changed("filter") {
		cfg.Runner.Filter = opts.filter
	}
	if f.Changed("workers") {
		cfg.Runner.Workers = opts.workers
	}
	return config.Validate(cfg)
}

func runMatrix(cmd *cobra.Command, flags *globalFlags, opts *runOptions) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg, opts); err != nil {
		return err
	}
	printer, err := newPrinter(cmd, flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush, err := setupObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer flush()

	cases, err := selectCases(cfg.Runner.MatrixFile, cfg.Runner.Filter)
	if err != nil {
		return err
	}

	base, sessions, err := connect(&cfg.Appliance)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	runner := scenario.NewRunner(sessions, base,
		scenario.WithWorkers(cfg.Runner.Workers),
		scenario.WithTeardownTimeout(cfg.Runner.TeardownTimeout),
		scenario.WithMetrics(m),
	)

	logger.Info("Running matrix",
		logger.KeyAPI, cfg.Appliance.APIAddress,
		logger.KeyUser, cfg.Appliance.UserID,
		logger.KeyCases, len(cases),
		logger.KeyWorkers, cfg.Runner.Workers)

	results, runErr := runner.Run(ctx, cases)
	if results == nil {
		return runErr
	}

	report := output.NewReport(results)
	if err := printer.Print(report); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}

	if m != nil {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error("Failed to write metrics textfile", "path", cfg.Metrics.Textfile, logger.Err(err))
		} else {
			logger.Debug("Metrics written", "path", cfg.Metrics.Textfile)
		}
	}

	if errors.Is(runErr, scenario.ErrAborted) {
		return runErr
	}
	if runErr != nil {
		// Malformed responses are already reported on their cases.
		logger.Warn("Appliance returned malformed responses", logger.Err(runErr))
	}
	if !report.OK() {
		return &NonConformanceError{Summary: report.Summary}
	}
	return nil
}
