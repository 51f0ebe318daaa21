package admin

import (
	"context"

	"github.com/jonathan/recruit-grader/internal/assignment"
	"github.com/jonathan/recruit-grader/internal/deliberation"
	"github.com/jonathan/recruit-grader/internal/export"
	"github.com/jonathan/recruit-grader/internal/grading"
	"github.com/jonathan/recruit-grader/internal/ranking"
	"github.com/jonathan/recruit-grader/internal/types"
)

// ---- Scoring Methods ----

// RecalculateScores recomputes and stores every applicant's total score.
func (s *Service) RecalculateScores(ctx context.Context, cycle string) (*grading.AggregationResult, error) {
	return run(ctx, s, OpRecalculate, cycle, func(ctx context.Context) (*grading.AggregationResult, error) {
		return s.aggregator.Recalculate(ctx, cycle)
	}, func(r *grading.AggregationResult) (int, int) {
		if r == nil {
			return 0, 0
		}
		return r.Succeeded, r.Failed
	})
}

// Categorize assigns decision tiers. With dryRun set nothing is written.
func (s *Service) Categorize(ctx context.Context, cycle string, dryRun bool) (*ranking.CategorizationResult, error) {
	op := OpCategorize
	if dryRun {
		op = OpPreviewCategories
	}
	return run(ctx, s, op, cycle, func(ctx context.Context) (*ranking.CategorizationResult, error) {
		if dryRun {
			result, _, err := s.categorizer.Preview(ctx, cycle)
			return result, err
		}
		return s.categorizer.Categorize(ctx, cycle)
	}, func(r *ranking.CategorizationResult) (int, int) {
		if r == nil || r.DryRun {
			return 0, 0
		}
		return r.Updated, r.Failed
	})
}

// PreviewCategories returns the tiers a categorization pass would assign.
func (s *Service) PreviewCategories(ctx context.Context, cycle string) (ranking.Partitioned, error) {
	return run(ctx, s, OpPreviewCategories, cycle, func(ctx context.Context) (ranking.Partitioned, error) {
		_, tiers, err := s.categorizer.Preview(ctx, cycle)
		return tiers, err
	}, nil)
}

// ---- Assignment Methods ----

// AssignWritten creates every written grading slot of a cycle that has none.
func (s *Service) AssignWritten(ctx context.Context, cycle string) (*assignment.Result, error) {
	return run(ctx, s, OpAssignWritten, cycle, func(ctx context.Context) (*assignment.Result, error) {
		return s.scheduler.AssignAll(ctx, cycle)
	}, scheduleCounts)
}

// FillWrittenGaps tops up applicants missing written graders.
func (s *Service) FillWrittenGaps(ctx context.Context, cycle string) (*assignment.Result, error) {
	return run(ctx, s, OpFillWritten, cycle, func(ctx context.Context) (*assignment.Result, error) {
		return s.scheduler.FillWrittenGaps(ctx, cycle)
	}, scheduleCounts)
}

// ClearUngradedWritten removes every unscored written slot of a cycle.
func (s *Service) ClearUngradedWritten(ctx context.Context, cycle string) (*assignment.Result, error) {
	return run(ctx, s, OpClearWritten, cycle, func(ctx context.Context) (*assignment.Result, error) {
		return s.scheduler.ClearUngradedWritten(ctx, cycle)
	}, scheduleCounts)
}

// SaveWrittenGraders replaces one applicant's written graders.
func (s *Service) SaveWrittenGraders(ctx context.Context, req types.SaveGradersRequest) (*assignment.Result, error) {
	return run(ctx, s, OpSaveWritten, "", func(ctx context.Context) (*assignment.Result, error) {
		return s.scheduler.SaveWrittenGraders(ctx, req)
	}, scheduleCounts)
}

// FillInterviewGaps tops up interview rounds missing graders. No rounds means both.
func (s *Service) FillInterviewGaps(ctx context.Context, cycle string, rounds ...int) (*assignment.Result, error) {
	return run(ctx, s, OpFillInterview, cycle, func(ctx context.Context) (*assignment.Result, error) {
		return s.scheduler.FillInterviewGaps(ctx, cycle, rounds...)
	}, scheduleCounts)
}

// SaveInterviewGraders replaces one applicant's graders for one interview round.
func (s *Service) SaveInterviewGraders(ctx context.Context, req types.SaveGradersRequest) (*assignment.Result, error) {
	return run(ctx, s, OpSaveInterview, "", func(ctx context.Context) (*assignment.Result, error) {
		return s.scheduler.SaveInterviewGraders(ctx, req)
	}, scheduleCounts)
}

// WrittenOverview lists each applicant's written graders and progress.
func (s *Service) WrittenOverview(ctx context.Context, cycle string) ([]assignment.WrittenView, error) {
	return run(ctx, s, OpWrittenOverview, cycle, func(ctx context.Context) ([]assignment.WrittenView, error) {
		return s.scheduler.WrittenOverview(ctx, cycle)
	}, nil)
}

// InterviewOverview lists each applicant's interview graders by round.
func (s *Service) InterviewOverview(ctx context.Context, cycle string) ([]assignment.InterviewView, error) {
	return run(ctx, s, OpInterviewOverview, cycle, func(ctx context.Context) ([]assignment.InterviewView, error) {
		return s.scheduler.InterviewOverview(ctx, cycle)
	}, nil)
}

// Workload reports per-grader load for both phases.
func (s *Service) Workload(ctx context.Context, cycle string) (*assignment.WorkloadReport, error) {
	return run(ctx, s, OpWorkload, cycle, func(ctx context.Context) (*assignment.WorkloadReport, error) {
		return s.scheduler.Workload(ctx, cycle)
	}, nil)
}

// ---- Grade Entry Methods ----

// WriteWrittenScore records a grader's score in one written slot.
func (s *Service) WriteWrittenScore(ctx context.Context, req types.WrittenScoreRequest) error {
	return runErr(ctx, s, OpWriteWrittenScore, func(ctx context.Context) error {
		return s.grades.WriteWrittenScore(ctx, req)
	})
}

// WriteInterviewScore records a grader's score for one interview sub-section.
func (s *Service) WriteInterviewScore(ctx context.Context, req types.InterviewScoreRequest) error {
	return runErr(ctx, s, OpWriteInterview, func(ctx context.Context) error {
		return s.grades.WriteInterviewScore(ctx, req)
	})
}

// SaveInterviewNote records a grader's notes for one interview question.
func (s *Service) SaveInterviewNote(ctx context.Context, req types.InterviewNoteRequest) error {
	return runErr(ctx, s, OpSaveNote, func(ctx context.Context) error {
		return s.grades.SaveInterviewNote(ctx, req)
	})
}

// CheckWrittenSubmission reports what a grader still has to score for an applicant.
func (s *Service) CheckWrittenSubmission(ctx context.Context, applicant types.ApplicantID, grader types.GraderID) (*grading.SubmissionCheck, error) {
	return run(ctx, s, OpCheckWritten, "", func(ctx context.Context) (*grading.SubmissionCheck, error) {
		return s.grades.CheckWrittenSubmission(ctx, applicant, grader)
	}, nil)
}

// CheckInterviewSubmission reports what a grader still has to enter for an assignment.
func (s *Service) CheckInterviewSubmission(ctx context.Context, id types.AssignmentID, grader types.GraderID) (*grading.SubmissionCheck, error) {
	return run(ctx, s, OpCheckInterview, "", func(ctx context.Context) (*grading.SubmissionCheck, error) {
		return s.grades.CheckInterviewSubmission(ctx, id, grader)
	}, nil)
}

// ---- Deliberation Methods ----

// RecordDecision stores a final decision made by the acting administrator.
func (s *Service) RecordDecision(ctx context.Context, req types.RecordDecisionRequest, actor types.ActorID) error {
	return runErr(WithActor(ctx, actor), s, OpRecordDecision, func(ctx context.Context) error {
		return s.deliberation.RecordDecision(ctx, req, actor)
	})
}

// DeliberationList lists the cycle's applicants with their decision state.
func (s *Service) DeliberationList(ctx context.Context, cycle string) ([]deliberation.Entry, error) {
	return run(ctx, s, OpDeliberationList, cycle, func(ctx context.Context) ([]deliberation.Entry, error) {
		return s.deliberation.ListApplicants(ctx, cycle)
	}, nil)
}

// ApplicantDetail returns one applicant's grades by question, round and grader.
func (s *Service) ApplicantDetail(ctx context.Context, id types.ApplicantID) (*deliberation.ApplicantDetail, error) {
	return run(ctx, s, OpApplicantDetail, "", func(ctx context.Context) (*deliberation.ApplicantDetail, error) {
		return s.deliberation.ApplicantDetail(ctx, id)
	}, nil)
}

// ---- Export Methods ----

// ExportRows recomputes the export rows of a cycle, optionally filtered by status.
func (s *Service) ExportRows(ctx context.Context, cycle string, statuses ...types.Status) ([]export.Row, error) {
	return run(ctx, s, OpExportRows, cycle, func(ctx context.Context) ([]export.Row, error) {
		return s.exporter.Rows(ctx, cycle, statuses...)
	}, nil)
}

// Backup dumps every record of a cycle.
func (s *Service) Backup(ctx context.Context, cycle string) (*export.SemesterBackup, error) {
	return run(ctx, s, OpBackup, cycle, func(ctx context.Context) (*export.SemesterBackup, error) {
		return s.exporter.Backup(ctx, cycle)
	}, nil)
}

// Analytics summarizes a cycle's applicant pool.
func (s *Service) Analytics(ctx context.Context, cycle string) (*export.Analytics, error) {
	return run(ctx, s, OpAnalytics, cycle, func(ctx context.Context) (*export.Analytics, error) {
		return s.exporter.Analytics(ctx, cycle)
	}, nil)
}
