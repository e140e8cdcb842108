package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/courts"
	"github.com/ngmonitor/courtharvest/internal/enrich"
)

// newEnrichCmd creates the 'enrich' subcommand: the case-detail pass over
// cases the harvest sweep left pending.
func newEnrichCmd() *cobra.Command {
	var court string
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enriches pending cases from the portals' detail pages",
		Long: `Picks cases the causelist sweep recorded but has not yet enriched and
fetches their detail pages. Detail pages exist only for the supreme and
special courts; each court is walked as a separate pass.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnrich(cmd, court)
		},
	}
	cmd.Flags().StringVar(&court, "court", "", "enrich only one court (supreme or special)")
	return cmd
}

func runEnrich(cmd *cobra.Command, court string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	enrichers := []enrich.Enricher{
		enrich.NewSupreme(appInstance.Fetcher(), logger, courts.Supreme.Identifier, cfg.Portal.BaseURL),
		enrich.NewSpecial(appInstance.Fetcher(), logger, courts.Special.Identifier, cfg.Portal.BaseURL),
	}
	if court != "" {
		var selected []enrich.Enricher
		for _, e := range enrichers {
			if e.CourtID() == court {
				selected = append(selected, e)
			}
		}
		if len(selected) == 0 {
			return fmt.Errorf("no detail pages for court %q", court)
		}
		enrichers = selected
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	passConfig := enrich.Config{
		BatchLimit:         cfg.Enrich.BatchLimit,
		Concurrency:        cfg.Enrich.Concurrency,
		MarkNotFoundFailed: cfg.Enrich.MarkNotFoundFailed,
	}
	for _, enricher := range enrichers {
		pass := enrich.NewPass(passConfig, logger, appInstance.Store(), enricher)
		stats, err := pass.Run(ctx)
		logger.Info("Enrichment pass finished",
			zap.String("court", enricher.CourtID()),
			zap.Int("picked", stats.Picked),
			zap.Int("enriched", stats.Enriched),
			zap.Int("already_enriched", stats.AlreadyEnriched),
			zap.Int("not_found", stats.NotFound),
			zap.Int("failed", stats.Failed),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
