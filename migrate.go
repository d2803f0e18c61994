package main

import (
	"github.com/spf13/cobra"

	"splitfree/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _ := setup()
			db, err := database.Connect(cfg.DatabaseURL, false)
			if err != nil {
				return err
			}
			return database.Migrate(db.WithContext(cmd.Context()))
		},
	}
}
