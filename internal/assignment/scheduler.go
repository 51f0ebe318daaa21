package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonathan/recruit-grader/internal/logging"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// DefaultBatchSize is the maximum number of rows sent to the store in one insert.
const DefaultBatchSize = 500

// Scheduler assigns graders to applicants.
type Scheduler struct {
	store     store.RecordStore
	logger    *slog.Logger
	batchSize int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBatchSize overrides the insert batch size. Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewScheduler creates a Scheduler.
func NewScheduler(st store.RecordStore, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:     st,
		logger:    logging.Component(logger, "scheduler"),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result reports the writes of one scheduling pass.
type Result struct {
	Applicants int                 `json:"applicants"`
	Created    int                 `json:"created"`
	Deleted    int                 `json:"deleted"`
	Failed     int                 `json:"failed"`
	FailedIDs  []types.ApplicantID `json:"failed_ids,omitempty"`
}

func (r *Result) fail(id types.ApplicantID) {
	r.Failed++
	r.FailedIDs = append(r.FailedIDs, id)
}

// partialError returns a PartialWriteError when any applicant failed.
func (r *Result) partialError(op string, cause error) error {
	if r.Failed == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.FailedIDs))
	for _, id := range r.FailedIDs {
		ids = append(ids, string(id))
	}
	return &types.PartialWriteError{
		Operation: op,
		Succeeded: r.Applicants,
		Failed:    r.Failed,
		FailedIDs: ids,
		Cause:     cause,
	}
}

// pending is the rows planned for one applicant. Batches never split an applicant.
type pending[T any] struct {
	applicant types.ApplicantID
	rows      []T
}

// chunk groups applicants into batches of at most size rows. An applicant whose
// rows alone exceed size forms its own batch.
func chunk[T any](groups []pending[T], size int) [][]pending[T] {
	var (
		batches [][]pending[T]
		current []pending[T]
		rows    int
	)
	for _, g := range groups {
		if len(current) > 0 && rows+len(g.rows) > size {
			batches = append(batches, current)
			current, rows = nil, 0
		}
		current = append(current, g)
		rows += len(g.rows)
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func flatten[T any](batch []pending[T]) []T {
	var out []T
	for _, g := range batch {
		out = append(out, g.rows...)
	}
	return out
}

// insertWritten writes planned written slots batch by batch. A failed batch marks
// its applicants failed and the remaining batches still run.
func (s *Scheduler) insertWritten(ctx context.Context, groups []pending[types.NewWrittenGrade], result *Result) error {
	var firstErr error
	for _, batch := range chunk(groups, s.batchSize) {
		n, err := s.store.BulkInsertWrittenGrades(ctx, flatten(batch))
		if err != nil {
			s.logger.Warn("written batch failed", "applicants", len(batch), "error", err)
			for _, g := range batch {
				result.fail(g.applicant)
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to insert written grades: %w", err)
			}
			continue
		}
		result.Created += n
		result.Applicants += len(batch)
	}
	return firstErr
}

// insertInterview writes planned interview assignments batch by batch.
func (s *Scheduler) insertInterview(ctx context.Context, groups []pending[types.NewInterviewAssignment], result *Result) error {
	var firstErr error
	for _, batch := range chunk(groups, s.batchSize) {
		created, err := s.store.InsertInterviewAssignments(ctx, flatten(batch))
		if err != nil {
			s.logger.Warn("interview batch failed", "applicants", len(batch), "error", err)
			for _, g := range batch {
				result.fail(g.applicant)
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to insert interview assignments: %w", err)
			}
			continue
		}
		result.Created += len(created)
		result.Applicants += len(batch)
	}
	return firstErr
}

// loadCycle fetches the cycle's applicants, failing when there are none.
func (s *Scheduler) loadCycle(ctx context.Context, cycle string) ([]types.Applicant, error) {
	apps, err := s.store.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicants: %w", err)
	}
	if len(apps) == 0 {
		return nil, types.Inputf("no applicants found for cycle %q", cycle)
	}
	return apps, nil
}

// loadPool fetches the grader pool and requires at least need graders.
func (s *Scheduler) loadPool(ctx context.Context, need int) ([]types.Grader, error) {
	pool, err := s.store.ListGraderPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graders: %w", err)
	}
	if len(pool) < need {
		return nil, types.Inputf("need at least %d graders, found %d", need, len(pool))
	}
	return pool, nil
}

// checkSelection validates a manual grader selection: exactly want graders, no
// duplicates, all from the pool.
func checkSelection(selected []types.GraderID, want int, pool []types.Grader) error {
	seen := make(types.GraderSet, len(selected))
	for _, id := range selected {
		if seen.Has(id) {
			return types.Conflictf("grader %s is selected more than once", id)
		}
		seen.Add(id)
	}
	if len(selected) != want {
		return types.Inputf("exactly %d graders must be selected, got %d", want, len(selected))
	}
	idx := graderIndex(pool)
	for _, id := range selected {
		if _, ok := idx[id]; !ok {
			return types.Inputf("grader %s is not in the grader pool", id)
		}
	}
	return nil
}
