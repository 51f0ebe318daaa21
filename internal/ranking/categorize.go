// Package ranking ranks applicants by total score and partitions them into decision tiers.
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/jonathan/recruit-grader/internal/logging"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// TierFraction is the share of eligible applicants placed in each of the top and bottom tiers.
const TierFraction = 0.25

// Partitioned holds eligible applicants split into tiers, each in rank order.
type Partitioned struct {
	AutoAccept []types.Applicant `json:"auto_accept"`
	Discuss    []types.Applicant `json:"discuss"`
	AutoReject []types.Applicant `json:"auto_reject"`
}

// CategorizationResult reports the tier counts of one categorization pass.
type CategorizationResult struct {
	AutoAccept int  `json:"auto_accept"`
	Discuss    int  `json:"discuss"`
	AutoReject int  `json:"auto_reject"`
	Skipped    int  `json:"skipped"`
	Terminal   int  `json:"terminal"`
	DryRun     bool `json:"dry_run,omitempty"`

	// Updated and Failed count applicants whose status write succeeded or failed.
	Updated int `json:"updated"`
	Failed  int `json:"failed,omitempty"`
}

// Bands returns the tier boundaries for n eligible applicants: indices [0, top) are
// accepted, [top, bottomStart) discussed and [bottomStart, n) rejected. When the
// top and bottom bands would overlap the top band wins, so no applicant is counted twice.
func Bands(n int) (top, bottomStart int) {
	if n <= 0 {
		return 0, 0
	}
	band := int(math.Ceil(float64(n) * TierFraction))
	top = band
	bottomStart = n - band
	if bottomStart < top {
		bottomStart = top
	}
	return top, bottomStart
}

// Partition ranks eligible applicants by total score, descending, keeping the input
// order for ties, and splits them into tiers. Applicants without a score sort last.
func Partition(eligible []types.Applicant) Partitioned {
	ranked := make([]types.Applicant, len(eligible))
	copy(ranked, eligible)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scoreOf(ranked[i]) > scoreOf(ranked[j])
	})

	top, bottomStart := Bands(len(ranked))
	return Partitioned{
		AutoAccept: ranked[:top],
		Discuss:    ranked[top:bottomStart],
		AutoReject: ranked[bottomStart:],
	}
}

func scoreOf(a types.Applicant) float64 {
	if a.TotalScore == nil {
		return math.Inf(-1)
	}
	return *a.TotalScore
}

// Categorizer assigns decision tiers from cached total scores.
type Categorizer struct {
	store  store.RecordStore
	logger *slog.Logger
}

// NewCategorizer creates a Categorizer.
func NewCategorizer(st store.RecordStore, logger *slog.Logger) *Categorizer {
	return &Categorizer{store: st, logger: logging.Component(logger, "categorizer")}
}

// plan loads the cycle and partitions its eligible applicants.
func (c *Categorizer) plan(ctx context.Context, cycle string) (*CategorizationResult, Partitioned, error) {
	apps, err := c.store.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, Partitioned{}, fmt.Errorf("failed to fetch applicants: %w", err)
	}

	result := &CategorizationResult{}
	eligible := make([]types.Applicant, 0, len(apps))
	for _, a := range apps {
		switch {
		case a.Status.IsTerminal():
			result.Terminal++
		case a.TotalScore == nil:
			result.Skipped++
		default:
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		return nil, Partitioned{}, types.Inputf(
			"no applicants with scores to categorize (%d without a score, %d already decided); recalculate scores first",
			result.Skipped, result.Terminal)
	}

	parts := Partition(eligible)
	result.AutoAccept = len(parts.AutoAccept)
	result.Discuss = len(parts.Discuss)
	result.AutoReject = len(parts.AutoReject)
	return result, parts, nil
}

// Preview computes the partition without writing anything.
func (c *Categorizer) Preview(ctx context.Context, cycle string) (*CategorizationResult, Partitioned, error) {
	result, parts, err := c.plan(ctx, cycle)
	if err != nil {
		return nil, Partitioned{}, err
	}
	result.DryRun = true
	return result, parts, nil
}

// Categorize partitions eligible applicants and writes one bulk status update per
// tier. A failed tier update aborts the pass and returns a PartialWriteError with
// the result so far; re-running with unchanged scores reproduces the same partition.
func (c *Categorizer) Categorize(ctx context.Context, cycle string) (*CategorizationResult, error) {
	result, parts, err := c.plan(ctx, cycle)
	if err != nil {
		return nil, err
	}

	tiers := []struct {
		status types.Status
		apps   []types.Applicant
	}{
		{types.StatusAutoAccept, parts.AutoAccept},
		{types.StatusDiscuss, parts.Discuss},
		{types.StatusAutoReject, parts.AutoReject},
	}
	for _, tier := range tiers {
		if len(tier.apps) == 0 {
			continue
		}
		tierIDs := types.ApplicantIDs(tier.apps)
		if _, err := c.store.BulkUpdateApplicantStatus(ctx, tierIDs, tier.status); err != nil {
			// Earlier tiers stay written; the remaining tiers are not attempted.
			result.Failed = len(tierIDs)
			failed := make([]string, 0, len(tierIDs))
			for _, id := range tierIDs {
				failed = append(failed, string(id))
			}
			c.logger.Error("categorization aborted",
				"cycle", cycle, "tier", tier.status, "updated", result.Updated, "error", err)
			return result, &types.PartialWriteError{
				Operation: "categorize",
				Succeeded: result.Updated,
				Failed:    result.Failed,
				FailedIDs: failed,
				Cause:     fmt.Errorf("failed to update %s tier: %w", tier.status, err),
			}
		}
		result.Updated += len(tierIDs)
	}

	c.logger.Info("categorized applicants",
		"cycle", cycle,
		"auto_accept", result.AutoAccept,
		"discuss", result.Discuss,
		"auto_reject", result.AutoReject,
		"skipped", result.Skipped,
		"terminal", result.Terminal,
	)
	return result, nil
}
