package main

import (
	"context"

	"github.com/spf13/cobra"
)

var recalcScoresCmd = &cobra.Command{
	Use:   "recalc-scores",
	Short: "Recompute every applicant's total score",
	Long:  "Recomputes each applicant's total score from raw written and interview grades and stores it. Applicants without grades get no score.",
	RunE:  runRecalcScores,
}

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Assign decision tiers by total score",
	Long:  "Ranks scored, non-terminal applicants and sets the top quarter to auto-accept, the bottom quarter to auto-reject and the rest to discuss.",
	RunE:  runCategorize,
}

var categorizeDryRun bool

func init() {
	categorizeCmd.Flags().BoolVar(&categorizeDryRun, "dry-run", false, "Report the tiers without writing statuses")

	rootCmd.AddCommand(recalcScoresCmd)
	rootCmd.AddCommand(categorizeCmd)
}

func runRecalcScores(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, a *app) error {
		result, err := a.svc.RecalculateScores(ctx, cfg.Cycle)
		if result != nil {
			a.printer.PrintAggregation(result)
		}
		return a.report(err)
	})
}

func runCategorize(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, a *app) error {
		result, err := a.svc.Categorize(ctx, cfg.Cycle, categorizeDryRun)
		if result != nil {
			a.printer.PrintCategorization(result)
		}
		return a.report(err)
	})
}
