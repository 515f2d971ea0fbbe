package commands

import (
	"github.com/spf13/cobra"

	"estate/server/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.DSN, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			logger.Info("Running database migrations...")
			if err := db.RunMigrations(); err != nil {
				return err
			}
			logger.Info("Database migrations completed")
			return nil
		},
	}
}
