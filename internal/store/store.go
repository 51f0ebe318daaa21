// Package store defines the record store contract the grading engine reads from and writes to.
//
// Lookups by ID return (nil, nil) when the row does not exist; callers turn that
// into a types.NotFoundError. Delete operations only ever remove rows that carry
// no recorded score.
package store

import (
	"context"

	"github.com/jonathan/recruit-grader/internal/types"
)

// RecordStore is the narrow interface to the relational store holding applicants,
// grade records, assignments, rubrics and decisions.
type RecordStore interface {
	// Applicants
	ListApplicants(ctx context.Context, cycle string) ([]types.Applicant, error)
	GetApplicant(ctx context.Context, id types.ApplicantID) (*types.Applicant, error)
	UpdateApplicantScore(ctx context.Context, id types.ApplicantID, score *float64) error
	UpdateApplicantStatus(ctx context.Context, id types.ApplicantID, status types.Status) error
	// BulkUpdateApplicantStatus skips applicants already in a terminal status and
	// returns the number of rows changed.
	BulkUpdateApplicantStatus(ctx context.Context, ids []types.ApplicantID, status types.Status) (int, error)

	// Written grading
	ListWrittenGrades(ctx context.Context, ids []types.ApplicantID) ([]types.WrittenGrade, error)
	CountWrittenGrades(ctx context.Context, ids []types.ApplicantID) (int, error)
	GetWrittenGrade(ctx context.Context, id types.GradeID) (*types.WrittenGrade, error)
	BulkInsertWrittenGrades(ctx context.Context, rows []types.NewWrittenGrade) (int, error)
	UpdateWrittenScore(ctx context.Context, id types.GradeID, score int) error
	DeleteUngradedWrittenGrades(ctx context.Context, id types.ApplicantID) (int, error)

	// Interview grading
	ListInterviewAssignments(ctx context.Context, ids []types.ApplicantID) ([]types.InterviewAssignment, error)
	GetInterviewAssignment(ctx context.Context, id types.AssignmentID) (*types.InterviewAssignment, error)
	// InsertInterviewAssignments creates the assignments together with one
	// unscored slot per sub-section.
	InsertInterviewAssignments(ctx context.Context, rows []types.NewInterviewAssignment) ([]types.InterviewAssignment, error)
	// DeleteAssignments removes the ungraded assignments of one applicant and round.
	DeleteAssignments(ctx context.Context, id types.ApplicantID, round int) (int, error)
	ListInterviewScores(ctx context.Context, ids []types.AssignmentID) ([]types.InterviewScore, error)
	UpsertInterviewScore(ctx context.Context, id types.AssignmentID, subSection, score int) error
	ListInterviewNotes(ctx context.Context, ids []types.AssignmentID) ([]types.InterviewNote, error)
	UpsertInterviewNote(ctx context.Context, id types.AssignmentID, questionNumber int, notes string) error

	// Deliberation
	UpsertDecision(ctx context.Context, id types.ApplicantID, outcome types.Outcome, actor types.ActorID) error
	ListDecisions(ctx context.Context, ids []types.ApplicantID) ([]types.Decision, error)

	// Reference data
	ListGraderPool(ctx context.Context) ([]types.Grader, error)
	ListRubrics(ctx context.Context, questionType types.QuestionType) ([]types.Rubric, error)

	// InTx runs fn against a transaction-scoped store. Writes made through tx are
	// committed when fn returns nil and discarded otherwise.
	InTx(ctx context.Context, fn func(tx RecordStore) error) error
}
