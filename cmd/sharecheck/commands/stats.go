package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/sharecheck/internal/cli/output"
	"github.com/marmos91/sharecheck/internal/logger"
	"github.com/marmos91/sharecheck/pkg/apiclient"
	"github.com/marmos91/sharecheck/pkg/envelope"
	"github.com/marmos91/sharecheck/pkg/statistics"
)

func newStatsCmd(flags *globalFlags) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Fetch realtime statistics once and check their schema",
		Long: `Log in, fetch the realtime statistics once and check the payload against the
statistics schema: a zero return code and the NFS read/write counters of the
Default gateway group under response.<category> (protocol_accumulate unless
--category says otherwise).

Exits with code 1 when the payload has schema violations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkStatistics(cmd, flags, category)
		},
	}

	cmd.Flags().StringVar(&category, "category", apiclient.CategoryProtocolAccumulate, "Statistics category")
	return cmd
}

func checkStatistics(cmd *cobra.Command, flags *globalFlags, category string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	printer, err := newPrinter(cmd, flags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	flush, err := setupObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer flush()

	base, sessions, err := connect(&cfg.Appliance)
	if err != nil {
		return err
	}

	sess, err := sessions.Get(ctx)
	if err != nil {
		return err
	}
	raw, err := sess.Client(base).GetRealtimeStatistic(ctx, category)
	if err != nil {
		return err
	}
	outcome, err := envelope.Decode(raw.Body, envelope.ShapeJSON)
	if err != nil {
		return fmt.Errorf("realtime statistic: %w", err)
	}

	check := output.StatisticsCheck{Code: outcome.Code, Violations: statistics.SchemaFor(category).Verify(outcome)}
	logger.Debug("Statistics checked", logger.ReturnCode(outcome.Code), logger.KeyViolations, len(check.Violations))

	if err := printer.Print(check); err != nil {
		return fmt.Errorf("failed to print statistics check: %w", err)
	}
	if !check.OK() {
		return &NonConformanceError{Violations: len(check.Violations)}
	}
	return nil
}
