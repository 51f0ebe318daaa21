package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-grader/internal/assignment"
	"github.com/jonathan/recruit-grader/internal/types"
)

var assignWrittenCmd = &cobra.Command{
	Use:   "assign-written",
	Short: "Assign three written graders to every applicant",
	Long:  "Creates five question slots for each of three least-loaded graders per applicant. Refuses to run when the cycle already has written slots.",
	RunE: scheduleRunner("Written Assignment", true, func(ctx context.Context, a *app) (*assignment.Result, error) {
		return a.svc.AssignWritten(ctx, cfg.Cycle)
	}),
}

var fillWrittenCmd = &cobra.Command{
	Use:   "fill-written",
	Short: "Top up applicants missing written graders",
	RunE: scheduleRunner("Written Gap Fill", true, func(ctx context.Context, a *app) (*assignment.Result, error) {
		return a.svc.FillWrittenGaps(ctx, cfg.Cycle)
	}),
}

var clearWrittenCmd = &cobra.Command{
	Use:   "clear-written",
	Short: "Delete every unscored written slot of the cycle",
	RunE: scheduleRunner("Clear Ungraded Written", true, func(ctx context.Context, a *app) (*assignment.Result, error) {
		return a.svc.ClearUngradedWritten(ctx, cfg.Cycle)
	}),
}

var fillInterviewCmd = &cobra.Command{
	Use:   "fill-interview",
	Short: "Top up interview rounds missing graders",
	Long:  "Gives every applicant two graders per interview round, never reusing a grader across rounds. Without --round both rounds are filled.",
	RunE: scheduleRunner("Interview Gap Fill", true, func(ctx context.Context, a *app) (*assignment.Result, error) {
		return a.svc.FillInterviewGaps(ctx, cfg.Cycle, fillInterviewRounds...)
	}),
}

var saveWrittenCmd = &cobra.Command{
	Use:   "save-written",
	Short: "Replace one applicant's written graders",
	RunE: scheduleRunner("Save Written Graders", false, func(ctx context.Context, a *app) (*assignment.Result, error) {
		return a.svc.SaveWrittenGraders(ctx, types.SaveGradersRequest{
			ApplicantID: types.ApplicantID(saveApplicant),
			Round:       1,
			GraderIDs:   graderIDs(saveGraders),
		})
	}),
}

var saveInterviewCmd = &cobra.Command{
	Use:   "save-interview",
	Short: "Replace one applicant's graders for one interview round",
	RunE: scheduleRunner("Save Interview Graders", false, func(ctx context.Context, a *app) (*assignment.Result, error) {
		return a.svc.SaveInterviewGraders(ctx, types.SaveGradersRequest{
			ApplicantID: types.ApplicantID(saveApplicant),
			Round:       saveRound,
			GraderIDs:   graderIDs(saveGraders),
		})
	}),
}

var workloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Show per-grader assignment counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *app) error {
			report, err := a.svc.Workload(ctx, cfg.Cycle)
			if err != nil {
				return err
			}
			a.printer.PrintWorkload(report)
			return nil
		})
	},
}

var overviewCmd = &cobra.Command{
	Use:       "overview [written|interview]",
	Short:     "Print each applicant's graders as JSON",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"written", "interview"},
	RunE:      runOverview,
}

var (
	fillInterviewRounds []int
	saveApplicant       string
	saveGraders         []string
	saveRound           int
)

func init() {
	fillInterviewCmd.Flags().IntSliceVar(&fillInterviewRounds, "round", nil, "Interview round to fill (1 or 2); repeatable")

	for _, c := range []*cobra.Command{saveWrittenCmd, saveInterviewCmd} {
		c.Flags().StringVar(&saveApplicant, "applicant", "", "Application ID (required)")
		c.Flags().StringSliceVar(&saveGraders, "graders", nil, "Comma-separated grader IDs (required)")
		if err := c.MarkFlagRequired("applicant"); err != nil {
			panic(fmt.Sprintf("failed to mark applicant flag as required: %v", err))
		}
		if err := c.MarkFlagRequired("graders"); err != nil {
			panic(fmt.Sprintf("failed to mark graders flag as required: %v", err))
		}
	}
	saveInterviewCmd.Flags().IntVar(&saveRound, "round", 0, "Interview round, 1 or 2 (required)")
	if err := saveInterviewCmd.MarkFlagRequired("round"); err != nil {
		panic(fmt.Sprintf("failed to mark round flag as required: %v", err))
	}

	rootCmd.AddCommand(assignWrittenCmd, fillWrittenCmd, clearWrittenCmd, saveWrittenCmd,
		fillInterviewCmd, saveInterviewCmd, workloadCmd, overviewCmd)
}

// scheduleRunner builds the RunE of a scheduling command.
func scheduleRunner(title string, needCycle bool, op func(context.Context, *app) (*assignment.Result, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, needCycle, func(ctx context.Context, a *app) error {
			result, err := op(ctx, a)
			if result != nil {
				a.printer.PrintSchedule(title, result)
			}
			return a.report(err)
		})
	}
}

func graderIDs(raw []string) []types.GraderID {
	ids := make([]types.GraderID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, types.GraderID(id))
	}
	return ids
}

func runOverview(cmd *cobra.Command, args []string) error {
	return withApp(cmd, true, func(ctx context.Context, a *app) error {
		switch args[0] {
		case "written":
			views, err := a.svc.WrittenOverview(ctx, cfg.Cycle)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), views)
		case "interview":
			views, err := a.svc.InterviewOverview(ctx, cfg.Cycle)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), views)
		default:
			return fmt.Errorf("unknown phase %q (want written or interview)", args[0])
		}
	})
}
