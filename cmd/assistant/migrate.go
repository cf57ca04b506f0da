package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and print the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			storage, err := openStorage(ctx, cfg, logger)
			if err != nil {
				logger.ErrorContext(ctx, "migration failed", "error", err)
				return err
			}
			defer storage.Close()

			status, err := storage.MigrationStatus(ctx)
			if err != nil {
				return fmt.Errorf("read migration status: %w", err)
			}
			fmt.Fprintf(opts.stdout, "schema version %s (%d applied, %d pending)\n",
				status.CurrentVersion, len(status.AppliedMigrations), status.PendingCount)
			return nil
		},
	}
}
