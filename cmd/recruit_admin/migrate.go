package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-grader/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, false, func(ctx context.Context, a *app) error {
		database, ok := a.store.(*db.DB)
		if !ok {
			return fmt.Errorf("migrate requires the %s store", storePostgres)
		}
		applied, err := database.Migrate(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
			return nil
		}
		for _, name := range applied {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
		}
		return nil
	})
}
