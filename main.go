package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "splitfree",
		Short: "Shared bills, split evenly and settled up",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand(), newMigrateCommand(), newWorkerCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
