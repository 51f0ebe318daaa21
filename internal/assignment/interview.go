package assignment

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/recruit-grader/internal/grading"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// AllRounds lists the interview rounds in order.
var AllRounds = []int{1, 2}

func validRound(round int) bool {
	return round >= 1 && round <= grading.InterviewRounds
}

// roundKey identifies the graders of one applicant in one round.
type roundKey struct {
	applicant types.ApplicantID
	round     int
}

// FillInterviewGaps gives every applicant fewer than two graders in a round the
// missing graders for that round. With no rounds given, both rounds are filled.
// Existing assignments are never touched; a fully assigned cycle yields zero rows.
func (s *Scheduler) FillInterviewGaps(ctx context.Context, cycle string, rounds ...int) (*Result, error) {
	if len(rounds) == 0 {
		rounds = AllRounds
	}
	for _, r := range rounds {
		if !validRound(r) {
			return nil, types.Inputf("invalid interview round %d", r)
		}
	}

	apps, err := s.loadCycle(ctx, cycle)
	if err != nil {
		return nil, err
	}
	assignments, err := s.store.ListInterviewAssignments(ctx, types.ApplicantIDs(apps))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interview assignments: %w", err)
	}
	pool, err := s.store.ListGraderPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graders: %w", err)
	}

	// Current graders per (applicant, round) and load across all rounds
	current := make(map[roundKey]types.GraderSet)
	load := make(Workload)
	for _, a := range assignments {
		k := roundKey{a.ApplicantID, a.Round}
		if current[k] == nil {
			current[k] = make(types.GraderSet)
		}
		current[k].Add(a.GraderID)
		load[a.GraderID]++
	}

	// Plan every applicant before writing so an infeasible plan writes nothing
	var groups []pending[types.NewInterviewAssignment]
	for _, app := range apps {
		var rows []types.NewInterviewAssignment
		for _, round := range rounds {
			assigned := current[roundKey{app.ID, round}]
			needed := grading.InterviewGradersPerRound - len(assigned)
			if needed <= 0 {
				continue
			}
			picked := PickLeastLoaded(pool, load, needed, assigned)
			if len(picked) < needed {
				return nil, types.Inputf(
					"applicant %s needs %d more round %d graders but only %d unassigned graders are available",
					app.AnonymousID, needed, round, len(picked))
			}
			load.Add(picked)
			for _, g := range picked {
				rows = append(rows, types.NewInterviewAssignment{ApplicantID: app.ID, GraderID: g.ID, Round: round})
			}
		}
		if len(rows) > 0 {
			groups = append(groups, pending[types.NewInterviewAssignment]{applicant: app.ID, rows: rows})
		}
	}

	result := &Result{}
	if len(groups) == 0 {
		s.logger.Info("interview assignments already complete", "cycle", cycle, "rounds", rounds)
		return result, nil
	}
	cause := s.insertInterview(ctx, groups, result)
	s.logger.Info("filled interview gaps",
		"cycle", cycle, "rounds", rounds, "applicants", result.Applicants,
		"assignments", result.Created, "failed", result.Failed)
	return result, result.partialError("fill interview gaps", cause)
}

// gradedAssignments returns the graders of the given assignments who have
// recorded a score or notes.
func (s *Scheduler) gradedAssignments(ctx context.Context, assignments []types.InterviewAssignment) (types.GraderSet, error) {
	graded := make(types.GraderSet)
	if len(assignments) == 0 {
		return graded, nil
	}
	ids := make([]types.AssignmentID, 0, len(assignments))
	owner := make(map[types.AssignmentID]types.GraderID, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
		owner[a.ID] = a.GraderID
	}

	scores, err := s.store.ListInterviewScores(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interview scores: %w", err)
	}
	for _, sc := range scores {
		if sc.Score != nil {
			graded.Add(owner[sc.AssignmentID])
		}
	}
	notes, err := s.store.ListInterviewNotes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interview notes: %w", err)
	}
	for _, n := range notes {
		if strings.TrimSpace(n.Notes) != "" {
			graded.Add(owner[n.AssignmentID])
		}
	}
	return graded, nil
}

// SaveInterviewGraders replaces the two graders of one applicant for one round.
// Ungraded assignments are deleted and recreated in one transaction; a grader who
// has already scored or taken notes must stay in the selection.
func (s *Scheduler) SaveInterviewGraders(ctx context.Context, req types.SaveGradersRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	pool, err := s.store.ListGraderPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graders: %w", err)
	}
	if err := checkSelection(req.GraderIDs, grading.InterviewGradersPerRound, pool); err != nil {
		return nil, err
	}

	app, err := s.store.GetApplicant(ctx, req.ApplicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicant: %w", err)
	}
	if app == nil {
		return nil, &types.NotFoundError{Kind: "applicant", ID: string(req.ApplicantID)}
	}

	all, err := s.store.ListInterviewAssignments(ctx, []types.ApplicantID{app.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interview assignments: %w", err)
	}
	var inRound []types.InterviewAssignment
	for _, a := range all {
		if a.Round == req.Round {
			inRound = append(inRound, a)
		}
	}
	graded, err := s.gradedAssignments(ctx, inRound)
	if err != nil {
		return nil, err
	}

	desired := make(types.GraderSet, len(req.GraderIDs))
	for _, id := range req.GraderIDs {
		desired.Add(id)
	}
	for g := range graded {
		if !desired.Has(g) {
			return nil, types.Conflictf("grader %s has already graded round %d for %s and cannot be removed",
				g, req.Round, app.AnonymousID)
		}
	}

	var rows []types.NewInterviewAssignment
	for _, g := range req.GraderIDs {
		if graded.Has(g) {
			continue
		}
		rows = append(rows, types.NewInterviewAssignment{ApplicantID: app.ID, GraderID: g, Round: req.Round})
	}

	result := &Result{}
	err = s.store.InTx(ctx, func(tx store.RecordStore) error {
		deleted, err := tx.DeleteAssignments(ctx, app.ID, req.Round)
		if err != nil {
			return fmt.Errorf("failed to clear interview assignments: %w", err)
		}
		created, err := tx.InsertInterviewAssignments(ctx, rows)
		if err != nil {
			return fmt.Errorf("failed to insert interview assignments: %w", err)
		}
		result.Deleted, result.Created = deleted, len(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Applicants = 1
	s.logger.Info("saved interview graders",
		"applicant", app.AnonymousID, "round", req.Round,
		"deleted", result.Deleted, "created", result.Created)
	return result, nil
}
