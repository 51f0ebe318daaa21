package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-grader/internal/types"
)

var recordDecisionCmd = &cobra.Command{
	Use:   "record-decision",
	Short: "Record a final accept or reject decision",
	Long:  "Stores the deliberation outcome for one applicant, superseding any earlier decision, and moves the applicant to the matching terminal status.",
	RunE:  runRecordDecision,
}

var deliberationCmd = &cobra.Command{
	Use:   "deliberation",
	Short: "List applicants by score with their decision state as JSON",
	RunE:  runDeliberation,
}

var applicantDetailCmd = &cobra.Command{
	Use:   "applicant-detail",
	Short: "Show one applicant's grades by question, round and grader as JSON",
	RunE:  runApplicantDetail,
}

var detailApplicant string

var (
	decisionApplicant string
	decisionOutcome   string
	decisionActor     string
)

func init() {
	recordDecisionCmd.Flags().StringVar(&decisionApplicant, "applicant", "", "Application ID (required)")
	recordDecisionCmd.Flags().StringVar(&decisionOutcome, "decision", "", "accept or reject (required)")
	recordDecisionCmd.Flags().StringVar(&decisionActor, "actor", "", "Administrator recording the decision (required)")
	for _, name := range []string{"applicant", "decision", "actor"} {
		if err := recordDecisionCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	applicantDetailCmd.Flags().StringVar(&detailApplicant, "applicant", "", "Application ID (required)")
	if err := applicantDetailCmd.MarkFlagRequired("applicant"); err != nil {
		panic(fmt.Sprintf("failed to mark applicant flag as required: %v", err))
	}

	rootCmd.AddCommand(recordDecisionCmd, deliberationCmd, applicantDetailCmd)
}

func runRecordDecision(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, false, func(ctx context.Context, a *app) error {
		req := types.RecordDecisionRequest{
			ApplicantID: types.ApplicantID(decisionApplicant),
			Outcome:     types.Outcome(decisionOutcome),
		}
		if err := a.svc.RecordDecision(ctx, req, types.ActorID(decisionActor)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s (status %s)\n",
			req.Outcome, req.ApplicantID, req.Outcome.Status())
		return nil
	})
}

func runDeliberation(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, a *app) error {
		entries, err := a.svc.DeliberationList(ctx, cfg.Cycle)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), entries)
	})
}

func runApplicantDetail(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, false, func(ctx context.Context, a *app) error {
		detail, err := a.svc.ApplicantDetail(ctx, types.ApplicantID(detailApplicant))
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), detail)
	})
}
