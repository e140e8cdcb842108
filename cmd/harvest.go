package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/adapter"
	"github.com/ngmonitor/courtharvest/internal/clock/system"
	"github.com/ngmonitor/courtharvest/internal/courts"
	"github.com/ngmonitor/courtharvest/internal/harvest"
)

// newHarvestCmd creates the 'harvest' subcommand: the causelist sweep over
// the (court, date) work grid.
func newHarvestCmd() *cobra.Command {
	var (
		courtIDs []string
		category string
	)
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Sweeps daily causelists across the configured courts",
		Long: `Walks the work grid of courts and Bikram Sambat dates, newest first,
fetching each court's causelist for each date not yet checkpointed. Every
completed (court, date) unit is committed together with its checkpoint, so
re-running after an interruption only covers the remaining dates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvest(cmd, courtIDs, category)
		},
	}
	cmd.Flags().StringSliceVar(&courtIDs, "courts", nil, "harvest only these court identifiers")
	cmd.Flags().StringVar(&category, "category", "", "harvest only one category (district, high, supreme, special)")
	return cmd
}

func runHarvest(cmd *cobra.Command, courtIDs []string, category string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	targets, err := selectCourts(courtIDs, category)
	if err != nil {
		return err
	}

	clock := system.New()
	adapters := map[harvest.CourtCategory]harvest.Adapter{
		harvest.CategoryDistrict: adapter.NewDistrict(appInstance.Fetcher(), logger, clock, cfg.Portal.BaseURL),
		harvest.CategoryHigh:     adapter.NewHigh(appInstance.Fetcher(), logger, clock, cfg.Portal.BaseURL),
		harvest.CategorySupreme:  adapter.NewSupreme(appInstance.Fetcher(), logger, clock, cfg.Portal.BaseURL),
		harvest.CategorySpecial:  adapter.NewSpecial(appInstance.Fetcher(), logger, clock, cfg.Portal.BaseURL),
	}

	orchestrator := harvest.NewOrchestrator(
		harvest.Config{
			LookbackDays: cfg.Harvest.LookbackDays,
			OffsetDays:   cfg.Harvest.OffsetDays,
			Concurrency:  cfg.Harvest.Concurrency,
			Timezone:     cfg.Location(),
		},
		logger,
		appInstance.Store(),
		adapters,
		harvest.NewExponentialRetryPolicy(),
		clock,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := orchestrator.Run(ctx, targets)
	logger.Info("Harvest finished",
		zap.Int("planned", stats.UnitsPlanned),
		zap.Int("committed", stats.UnitsCommitted),
		zap.Int("skipped", stats.UnitsSkipped),
		zap.Int("blocked", stats.UnitsBlocked),
		zap.Int("failed", stats.UnitsFailed),
	)
	return err
}

// selectCourts narrows the registry by the --courts / --category flags; with
// neither flag the full registry is harvested.
func selectCourts(courtIDs []string, category string) ([]harvest.Court, error) {
	if len(courtIDs) > 0 && category != "" {
		return nil, fmt.Errorf("--courts and --category are mutually exclusive")
	}
	if len(courtIDs) > 0 {
		out := make([]harvest.Court, 0, len(courtIDs))
		for _, id := range courtIDs {
			c, err := courts.ByIdentifier(id)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	}
	if category != "" {
		selected := courts.ByCategory(harvest.CourtCategory(category))
		if len(selected) == 0 {
			return nil, fmt.Errorf("unknown category %q", category)
		}
		return selected, nil
	}
	return courts.All(), nil
}
