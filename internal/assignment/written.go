package assignment

import (
	"context"
	"fmt"

	"github.com/jonathan/recruit-grader/internal/grading"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// writtenSlots builds the five question slots for a grader, skipping questions
// the grader already holds.
func writtenSlots(app types.ApplicantID, grader types.GraderID, have map[int]bool) []types.NewWrittenGrade {
	rows := make([]types.NewWrittenGrade, 0, grading.QuestionsPerApplicant)
	for q := 1; q <= grading.QuestionsPerApplicant; q++ {
		if have[q] {
			continue
		}
		rows = append(rows, types.NewWrittenGrade{ApplicantID: app, GraderID: grader, QuestionNumber: q})
	}
	return rows
}

// writtenState is the existing written assignment of one applicant.
type writtenState struct {
	order     []types.GraderID
	questions map[types.GraderID]map[int]bool
	graded    types.GraderSet
}

func groupWritten(grades []types.WrittenGrade) map[types.ApplicantID]*writtenState {
	out := make(map[types.ApplicantID]*writtenState)
	for _, g := range grades {
		st, ok := out[g.ApplicantID]
		if !ok {
			st = &writtenState{questions: make(map[types.GraderID]map[int]bool), graded: make(types.GraderSet)}
			out[g.ApplicantID] = st
		}
		if _, ok := st.questions[g.GraderID]; !ok {
			st.questions[g.GraderID] = make(map[int]bool)
			st.order = append(st.order, g.GraderID)
		}
		st.questions[g.GraderID][g.QuestionNumber] = true
		if g.Graded() {
			st.graded.Add(g.GraderID)
		}
	}
	return out
}

// writtenWorkload counts distinct applicants per grader.
func writtenWorkload(byApplicant map[types.ApplicantID]*writtenState) Workload {
	load := make(Workload)
	for _, st := range byApplicant {
		for _, g := range st.order {
			load[g]++
		}
	}
	return load
}

// AssignAll assigns three graders to every applicant of the cycle, five question
// slots each. It refuses to run when any written slot already exists for the cycle.
func (s *Scheduler) AssignAll(ctx context.Context, cycle string) (*Result, error) {
	apps, err := s.loadCycle(ctx, cycle)
	if err != nil {
		return nil, err
	}
	ids := types.ApplicantIDs(apps)

	existing, err := s.store.CountWrittenGrades(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing written grades: %w", err)
	}
	if existing > 0 {
		return nil, types.Conflictf(
			"%d written grade records already exist for cycle %q; fill gaps or clear ungraded slots instead",
			existing, cycle)
	}

	pool, err := s.loadPool(ctx, grading.WrittenGradersPerApplicant)
	if err != nil {
		return nil, err
	}

	// Pick the least-loaded graders per applicant, updating load as we go
	load := make(Workload)
	groups := make([]pending[types.NewWrittenGrade], 0, len(apps))
	for _, app := range apps {
		picked := PickLeastLoaded(pool, load, grading.WrittenGradersPerApplicant, nil)
		load.Add(picked)

		var rows []types.NewWrittenGrade
		for _, g := range picked {
			rows = append(rows, writtenSlots(app.ID, g.ID, nil)...)
		}
		groups = append(groups, pending[types.NewWrittenGrade]{applicant: app.ID, rows: rows})
	}

	result := &Result{}
	cause := s.insertWritten(ctx, groups, result)
	s.logger.Info("assigned written graders",
		"cycle", cycle, "applicants", result.Applicants, "slots", result.Created,
		"failed", result.Failed, "spread", load.Spread(pool))
	return result, result.partialError("assign written graders", cause)
}

// FillWrittenGaps gives every applicant with fewer than three graders the missing
// graders, and tops up missing question slots of graders already assigned.
// Existing slots are never touched. A fully assigned cycle yields zero rows.
func (s *Scheduler) FillWrittenGaps(ctx context.Context, cycle string) (*Result, error) {
	apps, err := s.loadCycle(ctx, cycle)
	if err != nil {
		return nil, err
	}
	grades, err := s.store.ListWrittenGrades(ctx, types.ApplicantIDs(apps))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch written grades: %w", err)
	}
	pool, err := s.store.ListGraderPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graders: %w", err)
	}

	byApplicant := groupWritten(grades)
	load := writtenWorkload(byApplicant)

	// Plan every applicant before writing so an infeasible plan writes nothing
	var groups []pending[types.NewWrittenGrade]
	for _, app := range apps {
		st := byApplicant[app.ID]
		var rows []types.NewWrittenGrade
		assigned := make(types.GraderSet)
		if st != nil {
			for _, g := range st.order {
				assigned.Add(g)
				rows = append(rows, writtenSlots(app.ID, g, st.questions[g])...)
			}
		}

		needed := grading.WrittenGradersPerApplicant - len(assigned)
		if needed > 0 {
			picked := PickLeastLoaded(pool, load, needed, assigned)
			if len(picked) < needed {
				return nil, types.Inputf(
					"applicant %s needs %d more graders but only %d unassigned graders are available",
					app.AnonymousID, needed, len(picked))
			}
			load.Add(picked)
			for _, g := range picked {
				rows = append(rows, writtenSlots(app.ID, g.ID, nil)...)
			}
		}
		if len(rows) > 0 {
			groups = append(groups, pending[types.NewWrittenGrade]{applicant: app.ID, rows: rows})
		}
	}

	result := &Result{}
	if len(groups) == 0 {
		s.logger.Info("written assignments already complete", "cycle", cycle)
		return result, nil
	}
	cause := s.insertWritten(ctx, groups, result)
	s.logger.Info("filled written gaps",
		"cycle", cycle, "applicants", result.Applicants, "slots", result.Created, "failed", result.Failed)
	return result, result.partialError("fill written gaps", cause)
}

// ClearUngradedWritten removes every unscored written slot of the cycle. Scored
// slots are kept.
func (s *Scheduler) ClearUngradedWritten(ctx context.Context, cycle string) (*Result, error) {
	apps, err := s.loadCycle(ctx, cycle)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var cause error
	for _, app := range apps {
		n, err := s.store.DeleteUngradedWrittenGrades(ctx, app.ID)
		if err != nil {
			result.fail(app.ID)
			if cause == nil {
				cause = fmt.Errorf("failed to clear written grades: %w", err)
			}
			continue
		}
		if n > 0 {
			result.Applicants++
			result.Deleted += n
		}
	}
	s.logger.Info("cleared ungraded written slots",
		"cycle", cycle, "deleted", result.Deleted, "failed", result.Failed)
	return result, result.partialError("clear written assignments", cause)
}

// SaveWrittenGraders replaces the written graders of one applicant. Unscored slots
// are deleted and recreated; a grader who has already recorded scores must stay
// in the selection.
func (s *Scheduler) SaveWrittenGraders(ctx context.Context, req types.SaveGradersRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	pool, err := s.store.ListGraderPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graders: %w", err)
	}
	if err := checkSelection(req.GraderIDs, grading.WrittenGradersPerApplicant, pool); err != nil {
		return nil, err
	}

	app, err := s.store.GetApplicant(ctx, req.ApplicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicant: %w", err)
	}
	if app == nil {
		return nil, &types.NotFoundError{Kind: "applicant", ID: string(req.ApplicantID)}
	}

	grades, err := s.store.ListWrittenGrades(ctx, []types.ApplicantID{app.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch written grades: %w", err)
	}
	current := groupWritten(grades)[app.ID]

	desired := make(types.GraderSet, len(req.GraderIDs))
	for _, id := range req.GraderIDs {
		desired.Add(id)
	}
	kept := make(map[types.GraderID]map[int]bool)
	if current != nil {
		for g := range current.graded {
			if !desired.Has(g) {
				return nil, types.Conflictf("grader %s has already recorded scores for %s and cannot be removed",
					g, app.AnonymousID)
			}
		}
		// Scored slots survive the delete
		for _, gr := range grades {
			if gr.Graded() {
				if kept[gr.GraderID] == nil {
					kept[gr.GraderID] = make(map[int]bool)
				}
				kept[gr.GraderID][gr.QuestionNumber] = true
			}
		}
	}

	var rows []types.NewWrittenGrade
	for _, g := range req.GraderIDs {
		rows = append(rows, writtenSlots(app.ID, g, kept[g])...)
	}

	result := &Result{}
	err = s.store.InTx(ctx, func(tx store.RecordStore) error {
		deleted, err := tx.DeleteUngradedWrittenGrades(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("failed to clear written grades: %w", err)
		}
		created, err := tx.BulkInsertWrittenGrades(ctx, rows)
		if err != nil {
			return fmt.Errorf("failed to insert written grades: %w", err)
		}
		result.Deleted, result.Created = deleted, created
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Applicants = 1
	s.logger.Info("saved written graders",
		"applicant", app.AnonymousID, "deleted", result.Deleted, "created", result.Created)
	return result, nil
}
