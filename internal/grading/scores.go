package grading

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/recruit-grader/internal/logging"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// GradeWriter records scores and notes entered by graders.
type GradeWriter struct {
	store  store.RecordStore
	logger *slog.Logger
}

// NewGradeWriter creates a GradeWriter.
func NewGradeWriter(st store.RecordStore, logger *slog.Logger) *GradeWriter {
	return &GradeWriter{store: st, logger: logging.Component(logger, "grade_writer")}
}

// SubmissionCheck lists what still blocks a grader from submitting.
type SubmissionCheck struct {
	Ready   bool     `json:"ready"`
	Missing []string `json:"missing,omitempty"`
}

func (c *SubmissionCheck) require(ok bool, format string, args ...any) {
	if !ok {
		c.Missing = append(c.Missing, fmt.Sprintf(format, args...))
	}
}

// WriteWrittenScore stores a grader's score in one of their written slots.
func (w *GradeWriter) WriteWrittenScore(ctx context.Context, req types.WrittenScoreRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	grade, err := w.store.GetWrittenGrade(ctx, req.GradeID)
	if err != nil {
		return fmt.Errorf("failed to load written grade: %w", err)
	}
	if grade == nil {
		return &types.NotFoundError{Kind: "written grade", ID: string(req.GradeID)}
	}
	if grade.GraderID != req.GraderID {
		return types.Conflictf("written grade %s is assigned to another grader", req.GradeID)
	}
	if err := w.store.UpdateWrittenScore(ctx, req.GradeID, req.Score); err != nil {
		return fmt.Errorf("failed to save written score: %w", err)
	}
	w.logger.Debug("saved written score", "grade", req.GradeID, "question", grade.QuestionNumber)
	return nil
}

// loadOwnedAssignment fetches an assignment and checks it belongs to grader.
func (w *GradeWriter) loadOwnedAssignment(ctx context.Context, id types.AssignmentID, grader types.GraderID) (*types.InterviewAssignment, error) {
	a, err := w.store.GetInterviewAssignment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load interview assignment: %w", err)
	}
	if a == nil {
		return nil, &types.NotFoundError{Kind: "interview assignment", ID: string(id)}
	}
	if a.GraderID != grader {
		return nil, types.Conflictf("interview assignment %s belongs to another grader", id)
	}
	return a, nil
}

// WriteInterviewScore stores the score of one interview sub-section.
func (w *GradeWriter) WriteInterviewScore(ctx context.Context, req types.InterviewScoreRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := w.loadOwnedAssignment(ctx, req.AssignmentID, req.GraderID); err != nil {
		return err
	}
	if err := w.store.UpsertInterviewScore(ctx, req.AssignmentID, req.SubSection, req.Score); err != nil {
		return fmt.Errorf("failed to save interview score: %w", err)
	}
	return nil
}

// SaveInterviewNote stores a grader's notes for one interview question.
func (w *GradeWriter) SaveInterviewNote(ctx context.Context, req types.InterviewNoteRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := w.loadOwnedAssignment(ctx, req.AssignmentID, req.GraderID); err != nil {
		return err
	}
	if err := w.store.UpsertInterviewNote(ctx, req.AssignmentID, req.QuestionNumber, req.Notes); err != nil {
		return fmt.Errorf("failed to save interview note: %w", err)
	}
	return nil
}

// CheckWrittenSubmission reports whether a grader has scored every question of an applicant.
func (w *GradeWriter) CheckWrittenSubmission(ctx context.Context, applicant types.ApplicantID, grader types.GraderID) (*SubmissionCheck, error) {
	grades, err := w.store.ListWrittenGrades(ctx, []types.ApplicantID{applicant})
	if err != nil {
		return nil, fmt.Errorf("failed to load written grades: %w", err)
	}

	scored := make(map[int]bool, QuestionsPerApplicant)
	owned := false
	for _, g := range grades {
		if g.GraderID != grader {
			continue
		}
		owned = true
		if g.Graded() {
			scored[g.QuestionNumber] = true
		}
	}
	if !owned {
		return nil, &types.NotFoundError{Kind: "written assignment", ID: string(applicant)}
	}

	check := &SubmissionCheck{}
	for q := 1; q <= QuestionsPerApplicant; q++ {
		check.require(scored[q], "score for question %d", q)
	}
	check.Ready = len(check.Missing) == 0
	return check, nil
}

// CheckInterviewSubmission reports whether an interview assignment has both
// sub-section scores and sufficient notes for every rubric question of its round.
func (w *GradeWriter) CheckInterviewSubmission(ctx context.Context, id types.AssignmentID, grader types.GraderID) (*SubmissionCheck, error) {
	a, err := w.loadOwnedAssignment(ctx, id, grader)
	if err != nil {
		return nil, err
	}

	scores, err := w.store.ListInterviewScores(ctx, []types.AssignmentID{id})
	if err != nil {
		return nil, fmt.Errorf("failed to load interview scores: %w", err)
	}
	notes, err := w.store.ListInterviewNotes(ctx, []types.AssignmentID{id})
	if err != nil {
		return nil, fmt.Errorf("failed to load interview notes: %w", err)
	}
	rubrics, err := w.store.ListRubrics(ctx, types.QuestionInterview)
	if err != nil {
		return nil, fmt.Errorf("failed to load interview rubric: %w", err)
	}

	scored := make(map[int]bool, SubSectionsPerAssignment)
	for _, s := range scores {
		if s.Score != nil {
			scored[s.SubSection] = true
		}
	}
	noteText := make(map[int]string, len(notes))
	for _, n := range notes {
		noteText[n.QuestionNumber] = n.Notes
	}

	check := &SubmissionCheck{}
	for sub := 1; sub <= SubSectionsPerAssignment; sub++ {
		check.require(scored[sub], "score for sub-section %d", sub)
	}
	for _, r := range rubrics {
		if r.Round != nil && *r.Round != a.Round {
			continue
		}
		text := strings.TrimSpace(noteText[r.QuestionNumber])
		check.require(len([]rune(text)) >= MinNoteLength,
			"notes for question %d (at least %d characters)", r.QuestionNumber, MinNoteLength)
	}
	check.Ready = len(check.Missing) == 0
	return check, nil
}
