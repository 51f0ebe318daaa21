// Package deliberation records final accept/reject decisions and lists the
// applicants under deliberation.
package deliberation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jonathan/recruit-grader/internal/logging"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// Entry is one applicant in the deliberation list.
type Entry struct {
	types.Applicant
	HasDecision bool           `json:"has_decision"`
	Decision    *types.Outcome `json:"decision,omitempty"`
}

// Service records and lists deliberation decisions.
type Service struct {
	store  store.RecordStore
	logger *slog.Logger
}

// NewService creates a deliberation service.
func NewService(st store.RecordStore, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logging.Component(logger, "deliberation")}
}

// RecordDecision stores the applicant's current decision, superseding any earlier
// one, and moves the applicant to the matching terminal status. Both writes share
// one transaction.
func (s *Service) RecordDecision(ctx context.Context, req types.RecordDecisionRequest, actor types.ActorID) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if actor == "" {
		return types.Inputf("decision requires an acting administrator")
	}

	app, err := s.store.GetApplicant(ctx, req.ApplicantID)
	if err != nil {
		return fmt.Errorf("failed to fetch applicant: %w", err)
	}
	if app == nil {
		return &types.NotFoundError{Kind: "applicant", ID: req.ApplicantID.String()}
	}

	err = s.store.InTx(ctx, func(tx store.RecordStore) error {
		if err := tx.UpsertDecision(ctx, req.ApplicantID, req.Outcome, actor); err != nil {
			return fmt.Errorf("failed to save decision: %w", err)
		}
		if err := tx.UpdateApplicantStatus(ctx, req.ApplicantID, req.Outcome.Status()); err != nil {
			return fmt.Errorf("failed to update applicant status: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("decision recorded",
		slog.String("applicant_id", req.ApplicantID.String()),
		slog.String("decision", string(req.Outcome)),
		slog.String("previous_status", string(app.Status)),
		slog.String("actor", actor.String()))
	return nil
}

// ListApplicants returns the cycle's applicants, ranked by total score, each
// flagged with whether a decision has been recorded.
func (s *Service) ListApplicants(ctx context.Context, cycle string) ([]Entry, error) {
	apps, err := s.store.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicants: %w", err)
	}
	if len(apps) == 0 {
		return []Entry{}, nil
	}

	decisions, err := s.store.ListDecisions(ctx, types.ApplicantIDs(apps))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch decisions: %w", err)
	}
	byApplicant := make(map[types.ApplicantID]types.Outcome, len(decisions))
	for _, d := range decisions {
		byApplicant[d.ApplicantID] = d.Outcome
	}

	entries := make([]Entry, 0, len(apps))
	for _, app := range apps {
		e := Entry{Applicant: app}
		if outcome, ok := byApplicant[app.ID]; ok {
			e.HasDecision = true
			e.Decision = &outcome
		}
		entries = append(entries, e)
	}
	sortByScore(entries)
	return entries, nil
}

// sortByScore orders entries by total score, descending, unscored last.
func sortByScore(entries []Entry) {
	score := func(e Entry) float64 {
		if e.TotalScore == nil {
			return -1
		}
		return *e.TotalScore
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return score(entries[i]) > score(entries[j])
	})
}
