// Package assignment assigns graders to applicants for written and interview grading,
// balancing grader workload and never assigning a grader twice to the same applicant
// within one round.
package assignment

import (
	"sort"

	"github.com/jonathan/recruit-grader/internal/types"
)

// Workload counts assignments per grader. It lives only for the duration of one
// run and is rebuilt from stored assignments at the start of each run.
type Workload map[types.GraderID]int

// Add increments the load of every picked grader.
func (w Workload) Add(graders []types.Grader) {
	for _, g := range graders {
		w[g.ID]++
	}
}

// Spread returns the max minus min load across pool, counting absent graders as zero.
func (w Workload) Spread(pool []types.Grader) int {
	if len(pool) == 0 {
		return 0
	}
	lo, hi := w[pool[0].ID], w[pool[0].ID]
	for _, g := range pool[1:] {
		n := w[g.ID]
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	return hi - lo
}

// PickLeastLoaded returns up to k graders from pool with the lowest current load,
// skipping excluded graders. Ties keep pool order. Fewer than k graders are
// returned only when the pool runs out of candidates.
func PickLeastLoaded(pool []types.Grader, load Workload, k int, exclude types.GraderSet) []types.Grader {
	if k <= 0 {
		return nil
	}
	seen := make(types.GraderSet, len(pool))
	candidates := make([]types.Grader, 0, len(pool))
	for _, g := range pool {
		if exclude.Has(g.ID) || seen.Has(g.ID) {
			continue
		}
		seen.Add(g.ID)
		candidates = append(candidates, g)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return load[candidates[i].ID] < load[candidates[j].ID]
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k]
}

// graderIndex maps pool members by ID.
func graderIndex(pool []types.Grader) map[types.GraderID]types.Grader {
	idx := make(map[types.GraderID]types.Grader, len(pool))
	for _, g := range pool {
		idx[g.ID] = g
	}
	return idx
}
