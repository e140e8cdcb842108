package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/courts"
)

// newSeedCmd creates the 'seed' subcommand: schema creation plus the court
// registry upsert. Idempotent, so it doubles as a migration step in deploys.
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Creates the database schema and seeds the court registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			logger := appInstance.Logger()

			if err := appInstance.Store().EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			registry := courts.All()
			if err := appInstance.Store().SeedCourts(cmd.Context(), registry); err != nil {
				return err
			}
			logger.Info("Database seeded", zap.Int("courts", len(registry)))
			return nil
		},
	}
}
