package grading

import (
	"context"
	"log/slog"

	"github.com/jonathan/recruit-grader/internal/logging"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// ApplicantScore is the aggregate view of one applicant's grades.
type ApplicantScore struct {
	ApplicantID         types.ApplicantID `json:"application_id"`
	AnonymousID         string            `json:"anonymous_id"`
	WrittenAvg          *float64          `json:"written_avg"`
	InterviewAvg        *float64          `json:"interview_avg"`
	TotalScore          *float64          `json:"total_score"`
	WrittenGradeCount   int               `json:"written_grade_count"`
	InterviewGradeCount int               `json:"interview_grade_count"`
	IsComplete          bool              `json:"is_complete"`
}

// AggregationResult reports one recalculation pass.
type AggregationResult struct {
	Scores          []ApplicantScore    `json:"scores"`
	Succeeded       int                 `json:"succeeded"`
	Failed          int                 `json:"failed"`
	FailedIDs       []types.ApplicantID `json:"failed_ids,omitempty"`
	IncompleteCount int                 `json:"incomplete_count"`
}

// ExpectedInterviewScores is the scored interview count of a fully graded applicant.
func ExpectedInterviewScores(assignments int) int {
	n := assignments * SubSectionsPerAssignment
	if n < MinInterviewScores {
		return MinInterviewScores
	}
	return n
}

// ScoreApplicant aggregates one applicant's written slots and interview score slots.
// Averages are reported rounded; the total is computed from the unrounded averages.
func ScoreApplicant(app types.Applicant, written []types.WrittenGrade, assignments int, interview []types.InterviewScore) ApplicantScore {
	writtenScores := make([]*int, 0, len(written))
	for _, w := range written {
		writtenScores = append(writtenScores, w.Score)
	}
	interviewScores := make([]*int, 0, len(interview))
	for _, s := range interview {
		interviewScores = append(interviewScores, s.Score)
	}

	writtenAvg := Mean(writtenScores)
	interviewAvg := Mean(interviewScores)
	writtenCount := countScored(writtenScores)
	interviewCount := countScored(interviewScores)

	return ApplicantScore{
		ApplicantID:         app.ID,
		AnonymousID:         app.AnonymousID,
		WrittenAvg:          Round2Ptr(writtenAvg),
		InterviewAvg:        Round2Ptr(interviewAvg),
		TotalScore:          Round2Ptr(CombineAverages(writtenAvg, interviewAvg)),
		WrittenGradeCount:   writtenCount,
		InterviewGradeCount: interviewCount,
		IsComplete: writtenCount == ExpectedWrittenScores &&
			interviewCount == ExpectedInterviewScores(assignments),
	}
}

func countScored(scores []*int) int {
	n := 0
	for _, s := range scores {
		if s != nil {
			n++
		}
	}
	return n
}

// Aggregator recomputes and persists applicant total scores.
type Aggregator struct {
	store  store.RecordStore
	logger *slog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(st store.RecordStore, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: st, logger: logging.Component(logger, "aggregator")}
}

// Recalculate recomputes every applicant's averages and persists each total score,
// null included. A failed persist does not stop the pass; when any fail, the result
// is returned together with a *types.PartialWriteError.
func (a *Aggregator) Recalculate(ctx context.Context, cycle string) (*AggregationResult, error) {
	snap, err := LoadSnapshot(ctx, a.store, cycle)
	if err != nil {
		return nil, err
	}
	if len(snap.Applicants) == 0 {
		return nil, types.Inputf("no applicants found for cycle %q", cycle)
	}

	result := &AggregationResult{Scores: make([]ApplicantScore, 0, len(snap.Applicants))}
	var firstErr error
	for _, app := range snap.Applicants {
		score := ScoreApplicant(app,
			snap.WrittenByApplicant[app.ID],
			len(snap.AssignmentsByApplicant[app.ID]),
			snap.InterviewScoresFor(app.ID),
		)
		result.Scores = append(result.Scores, score)
		if !score.IsComplete {
			result.IncompleteCount++
		}

		if err := a.store.UpdateApplicantScore(ctx, app.ID, score.TotalScore); err != nil {
			a.logger.Warn("failed to persist total score",
				"applicant", app.AnonymousID, "error", err)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, app.ID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result.Succeeded++
	}

	a.logger.Info("recalculated scores",
		"cycle", cycle,
		"applicants", len(snap.Applicants),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"incomplete", result.IncompleteCount,
	)

	if result.Failed > 0 {
		return result, &types.PartialWriteError{
			Operation: "recalculate scores",
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
			FailedIDs: idStrings(result.FailedIDs),
			Cause:     firstErr,
		}
	}
	return result, nil
}

func idStrings(ids []types.ApplicantID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
