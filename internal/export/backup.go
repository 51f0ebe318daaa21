package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recruit-grader/internal/schemas"
	"github.com/jonathan/recruit-grader/internal/types"
	schemadocs "github.com/jonathan/recruit-grader/schemas"
)

// SemesterBackup is a full dump of one cycle's records.
type SemesterBackup struct {
	ExportedAt           time.Time                   `json:"exported_at"`
	Semester             string                      `json:"semester"`
	Applications         []types.Applicant           `json:"applications"`
	WrittenGrades        []types.WrittenGrade        `json:"written_grades"`
	InterviewAssignments []types.InterviewAssignment `json:"interview_assignments"`
	InterviewScores      []types.InterviewScore      `json:"interview_scores"`
	InterviewNotes       []types.InterviewNote       `json:"interview_notes"`
	Decisions            []types.Decision            `json:"decisions"`
}

// Backup fetches every record set of the cycle and validates the resulting
// document against the embedded backup schema. An empty cycle is an InputError.
func (b *Builder) Backup(ctx context.Context, cycle string) (*SemesterBackup, error) {
	apps, err := b.store.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicants: %w", err)
	}
	if len(apps) == 0 {
		return nil, types.Inputf("no applicants found for cycle %s", cycle)
	}
	ids := types.ApplicantIDs(apps)

	backup := &SemesterBackup{
		ExportedAt:   b.now().UTC(),
		Semester:     cycle,
		Applications: apps,
	}

	// Applicant-keyed record sets
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := b.store.ListWrittenGrades(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch written grades: %w", err)
		}
		backup.WrittenGrades = rows
		return nil
	})
	g.Go(func() error {
		rows, err := b.store.ListInterviewAssignments(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch interview assignments: %w", err)
		}
		backup.InterviewAssignments = rows
		return nil
	})
	g.Go(func() error {
		rows, err := b.store.ListDecisions(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch decisions: %w", err)
		}
		backup.Decisions = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Assignment-keyed record sets
	assignmentIDs := make([]types.AssignmentID, 0, len(backup.InterviewAssignments))
	for _, a := range backup.InterviewAssignments {
		assignmentIDs = append(assignmentIDs, a.ID)
	}
	if len(assignmentIDs) > 0 {
		g, gctx = errgroup.WithContext(ctx)
		g.Go(func() error {
			rows, err := b.store.ListInterviewScores(gctx, assignmentIDs)
			if err != nil {
				return fmt.Errorf("failed to fetch interview scores: %w", err)
			}
			backup.InterviewScores = rows
			return nil
		})
		g.Go(func() error {
			rows, err := b.store.ListInterviewNotes(gctx, assignmentIDs)
			if err != nil {
				return fmt.Errorf("failed to fetch interview notes: %w", err)
			}
			backup.InterviewNotes = rows
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	backup.normalize()

	if err := schemas.ValidateDocument("semester backup", schemadocs.SemesterBackup, backup); err != nil {
		return nil, fmt.Errorf("failed to validate semester backup: %w", err)
	}

	b.logger.Info("semester backup built",
		slog.String("cycle", cycle),
		slog.Int("applications", len(backup.Applications)),
		slog.Int("written_grades", len(backup.WrittenGrades)),
		slog.Int("interview_assignments", len(backup.InterviewAssignments)),
		slog.Int("decisions", len(backup.Decisions)))
	return backup, nil
}

// normalize replaces nil record sets with empty ones so they encode as [].
func (s *SemesterBackup) normalize() {
	if s.WrittenGrades == nil {
		s.WrittenGrades = []types.WrittenGrade{}
	}
	if s.InterviewAssignments == nil {
		s.InterviewAssignments = []types.InterviewAssignment{}
	}
	if s.InterviewScores == nil {
		s.InterviewScores = []types.InterviewScore{}
	}
	if s.InterviewNotes == nil {
		s.InterviewNotes = []types.InterviewNote{}
	}
	if s.Decisions == nil {
		s.Decisions = []types.Decision{}
	}
}
