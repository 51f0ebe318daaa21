// Package main provides the recruit_admin CLI: batch grading operations, exports
// and the admin HTTP API of the recruitment grading engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recruit_admin",
	Short: "Recruitment grading administration",
	Long: "recruit_admin aggregates written and interview grades, categorizes applicants into decision tiers, " +
		"schedules graders and exports cycle data.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
