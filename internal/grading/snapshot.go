package grading

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// Snapshot is every record a batch pass reads, fetched once at the start of the run.
type Snapshot struct {
	Cycle                  string
	Applicants             []types.Applicant
	WrittenByApplicant     map[types.ApplicantID][]types.WrittenGrade
	AssignmentsByApplicant map[types.ApplicantID][]types.InterviewAssignment
	ScoresByAssignment     map[types.AssignmentID][]types.InterviewScore
}

// LoadSnapshot fetches the cycle's applicants and their grade records. Any fetch
// failure aborts the load.
func LoadSnapshot(ctx context.Context, st store.RecordStore, cycle string) (*Snapshot, error) {
	apps, err := st.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicants: %w", err)
	}
	return LoadRecords(ctx, st, cycle, apps)
}

// LoadRecords fetches the grade records of an already loaded applicant list.
func LoadRecords(ctx context.Context, st store.RecordStore, cycle string, apps []types.Applicant) (*Snapshot, error) {
	snap := &Snapshot{
		Cycle:                  cycle,
		Applicants:             apps,
		WrittenByApplicant:     make(map[types.ApplicantID][]types.WrittenGrade),
		AssignmentsByApplicant: make(map[types.ApplicantID][]types.InterviewAssignment),
		ScoresByAssignment:     make(map[types.AssignmentID][]types.InterviewScore),
	}
	if len(apps) == 0 {
		return snap, nil
	}
	ids := types.ApplicantIDs(apps)

	var (
		written     []types.WrittenGrade
		assignments []types.InterviewAssignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		written, err = st.ListWrittenGrades(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch written grades: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		assignments, err = st.ListInterviewAssignments(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch interview assignments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, w := range written {
		snap.WrittenByApplicant[w.ApplicantID] = append(snap.WrittenByApplicant[w.ApplicantID], w)
	}
	assignmentIDs := make([]types.AssignmentID, 0, len(assignments))
	for _, a := range assignments {
		snap.AssignmentsByApplicant[a.ApplicantID] = append(snap.AssignmentsByApplicant[a.ApplicantID], a)
		assignmentIDs = append(assignmentIDs, a.ID)
	}

	if len(assignmentIDs) > 0 {
		scores, err := st.ListInterviewScores(ctx, assignmentIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch interview scores: %w", err)
		}
		for _, s := range scores {
			snap.ScoresByAssignment[s.AssignmentID] = append(snap.ScoresByAssignment[s.AssignmentID], s)
		}
	}
	return snap, nil
}

// InterviewScoresFor returns every interview score slot of one applicant.
func (s *Snapshot) InterviewScoresFor(id types.ApplicantID) []types.InterviewScore {
	var out []types.InterviewScore
	for _, a := range s.AssignmentsByApplicant[id] {
		out = append(out, s.ScoresByAssignment[a.ID]...)
	}
	return out
}
