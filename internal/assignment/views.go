package assignment

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonathan/recruit-grader/internal/types"
)

// GraderRef names one assigned grader.
type GraderRef struct {
	ID   types.GraderID `json:"grader_id"`
	Name string         `json:"grader_name"`
}

// WrittenView is the written assignment of one applicant.
type WrittenView struct {
	ApplicantID types.ApplicantID `json:"application_id"`
	AnonymousID string            `json:"anonymous_id"`
	Graders     []GraderRef       `json:"graders"`
	SlotCount   int               `json:"slot_count"`
	GradedCount int               `json:"graded_count"`
}

// InterviewView is the interview assignment of one applicant, by round.
type InterviewView struct {
	ApplicantID types.ApplicantID `json:"application_id"`
	AnonymousID string            `json:"anonymous_id"`
	Round1      []GraderRef       `json:"section1"`
	Round2      []GraderRef       `json:"section2"`
}

// GraderLoad is one grader's assignment count.
type GraderLoad struct {
	GraderID   types.GraderID `json:"grader_id"`
	Name       string         `json:"grader_name"`
	Applicants int            `json:"applicants"`
}

// WorkloadReport recomputes grader load from stored assignments.
type WorkloadReport struct {
	Written         []GraderLoad `json:"written"`
	Interview       []GraderLoad `json:"interview"`
	WrittenSpread   int          `json:"written_spread"`
	InterviewSpread int          `json:"interview_spread"`
}

func refFor(idx map[types.GraderID]types.Grader, id types.GraderID) GraderRef {
	name := "Unknown"
	if g, ok := idx[id]; ok {
		name = g.FullName
	}
	return GraderRef{ID: id, Name: name}
}

// WrittenOverview lists every applicant's written graders and how many slots are scored.
func (s *Scheduler) WrittenOverview(ctx context.Context, cycle string) ([]WrittenView, error) {
	apps, err := s.store.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicants: %w", err)
	}
	if len(apps) == 0 {
		return []WrittenView{}, nil
	}
	grades, err := s.store.ListWrittenGrades(ctx, types.ApplicantIDs(apps))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch written grades: %w", err)
	}
	pool, err := s.store.ListGraderPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graders: %w", err)
	}
	idx := graderIndex(pool)

	byApplicant := groupWritten(grades)
	slots := make(map[types.ApplicantID]int)
	graded := make(map[types.ApplicantID]int)
	for _, g := range grades {
		slots[g.ApplicantID]++
		if g.Graded() {
			graded[g.ApplicantID]++
		}
	}

	out := make([]WrittenView, 0, len(apps))
	for _, app := range apps {
		view := WrittenView{
			ApplicantID: app.ID,
			AnonymousID: app.AnonymousID,
			Graders:     []GraderRef{},
			SlotCount:   slots[app.ID],
			GradedCount: graded[app.ID],
		}
		if st := byApplicant[app.ID]; st != nil {
			for _, g := range st.order {
				view.Graders = append(view.Graders, refFor(idx, g))
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// InterviewOverview lists every applicant's interview graders per round.
func (s *Scheduler) InterviewOverview(ctx context.Context, cycle string) ([]InterviewView, error) {
	apps, err := s.store.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicants: %w", err)
	}
	if len(apps) == 0 {
		return []InterviewView{}, nil
	}
	assignments, err := s.store.ListInterviewAssignments(ctx, types.ApplicantIDs(apps))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interview assignments: %w", err)
	}
	pool, err := s.store.ListGraderPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graders: %w", err)
	}
	idx := graderIndex(pool)

	byKey := make(map[roundKey][]GraderRef)
	for _, a := range assignments {
		k := roundKey{a.ApplicantID, a.Round}
		byKey[k] = append(byKey[k], refFor(idx, a.GraderID))
	}

	out := make([]InterviewView, 0, len(apps))
	for _, app := range apps {
		view := InterviewView{ApplicantID: app.ID, AnonymousID: app.AnonymousID, Round1: []GraderRef{}, Round2: []GraderRef{}}
		view.Round1 = append(view.Round1, byKey[roundKey{app.ID, 1}]...)
		view.Round2 = append(view.Round2, byKey[roundKey{app.ID, 2}]...)
		out = append(out, view)
	}
	return out, nil
}

// Workload recomputes per-grader load for the cycle. Every pool member appears,
// with zero when unassigned. Rows are sorted by load descending, then name.
func (s *Scheduler) Workload(ctx context.Context, cycle string) (*WorkloadReport, error) {
	apps, err := s.store.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicants: %w", err)
	}
	pool, err := s.store.ListGraderPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graders: %w", err)
	}

	written := make(Workload)
	interview := make(Workload)
	if len(apps) > 0 {
		ids := types.ApplicantIDs(apps)
		grades, err := s.store.ListWrittenGrades(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch written grades: %w", err)
		}
		written = writtenWorkload(groupWritten(grades))

		assignments, err := s.store.ListInterviewAssignments(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch interview assignments: %w", err)
		}
		for _, a := range assignments {
			interview[a.GraderID]++
		}
	}

	return &WorkloadReport{
		Written:         loads(pool, written),
		Interview:       loads(pool, interview),
		WrittenSpread:   written.Spread(pool),
		InterviewSpread: interview.Spread(pool),
	}, nil
}

func loads(pool []types.Grader, w Workload) []GraderLoad {
	out := make([]GraderLoad, 0, len(pool))
	for _, g := range pool {
		out = append(out, GraderLoad{GraderID: g.ID, Name: g.FullName, Applicants: w[g.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Applicants != out[j].Applicants {
			return out[i].Applicants > out[j].Applicants
		}
		return out[i].Name < out[j].Name
	})
	return out
}
