// Package export re-derives applicant aggregates from raw grade records for
// CSV export, semester backups and cycle analytics.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/recruit-grader/internal/grading"
	"github.com/jonathan/recruit-grader/internal/logging"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// Row is one applicant's flattened export record. Field order is the column order
// of the CSV export. Nil figures have no scored data behind them.
type Row struct {
	// Identity
	ApplicantID types.ApplicantID `json:"application_id"`
	AnonymousID string            `json:"anonymous_id"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Email       string            `json:"email"`
	PhoneNumber string            `json:"phone_number"`

	// Demographics
	Major          string `json:"major"`
	GraduationYear int    `json:"graduation_year"`
	Gender         string `json:"gender"`
	SpanishFluent  bool   `json:"spanish_fluent"`
	CanAttendCamp  bool   `json:"can_attend_camp"`

	// Written grading
	QuestionAvgs [grading.QuestionsPerApplicant]*float64 `json:"question_avgs"`
	WrittenAvg   *float64                                `json:"written_avg"`

	// Interview grading, indexed [round-1] and [round-1][sub-section-1]
	RoundAvgs      [grading.InterviewRounds]*float64                                   `json:"round_avgs"`
	SubSectionAvgs [grading.InterviewRounds][grading.SubSectionsPerAssignment]*float64 `json:"sub_section_avgs"`
	InterviewAvg   *float64                                                            `json:"interview_avg"`

	TotalScore *float64       `json:"total_score"`
	Status     types.Status   `json:"status"`
	Decision   *types.Outcome `json:"decision"`
}

// Builder reads the record store and produces export documents.
type Builder struct {
	store  store.RecordStore
	logger *slog.Logger
	now    func() time.Time
}

// NewBuilder creates an export builder.
func NewBuilder(st store.RecordStore, logger *slog.Logger) *Builder {
	return &Builder{
		store:  st,
		logger: logging.Component(logger, "export"),
		now:    time.Now,
	}
}

// Rows recomputes every export row of the cycle from raw records. When statuses
// are given, only applicants in one of them are exported. The cached total score
// is never read.
func (b *Builder) Rows(ctx context.Context, cycle string, statuses ...types.Status) ([]Row, error) {
	filter, err := statusFilter(statuses)
	if err != nil {
		return nil, err
	}

	// 1. Applicants, filtered before any grade record is fetched
	apps, err := b.store.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicants: %w", err)
	}
	if filter != nil {
		kept := apps[:0:0]
		for _, a := range apps {
			if _, ok := filter[a.Status]; ok {
				kept = append(kept, a)
			}
		}
		apps = kept
	}
	if len(apps) == 0 {
		return []Row{}, nil
	}

	// 2. Grade records and decisions
	snap, err := grading.LoadRecords(ctx, b.store, cycle, apps)
	if err != nil {
		return nil, err
	}
	decisions, err := b.store.ListDecisions(ctx, types.ApplicantIDs(apps))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch decisions: %w", err)
	}
	byApplicant := make(map[types.ApplicantID]types.Outcome, len(decisions))
	for _, d := range decisions {
		byApplicant[d.ApplicantID] = d.Outcome
	}

	// 3. One row per applicant
	rows := make([]Row, 0, len(apps))
	for _, app := range apps {
		row := buildRow(app, snap)
		if outcome, ok := byApplicant[app.ID]; ok {
			row.Decision = &outcome
		}
		rows = append(rows, row)
	}

	b.logger.Info("export rows built",
		slog.String("cycle", cycle),
		slog.Int("rows", len(rows)))
	return rows, nil
}

// buildRow averages one applicant's records at question, round and sub-section
// granularity with the aggregator's rounding rule.
func buildRow(app types.Applicant, snap *grading.Snapshot) Row {
	row := Row{
		ApplicantID:    app.ID,
		AnonymousID:    app.AnonymousID,
		FirstName:      app.FirstName,
		LastName:       app.LastName,
		Email:          app.Email,
		PhoneNumber:    app.PhoneNumber,
		Major:          app.Major,
		GraduationYear: app.GraduationYear,
		Gender:         app.Gender,
		SpanishFluent:  app.SpanishFluent,
		CanAttendCamp:  app.CanAttendCamp,
		Status:         app.Status,
	}

	var (
		byQuestion [grading.QuestionsPerApplicant][]*int
		written    []*int
	)
	for _, w := range snap.WrittenByApplicant[app.ID] {
		written = append(written, w.Score)
		if q := w.QuestionNumber - 1; q >= 0 && q < grading.QuestionsPerApplicant {
			byQuestion[q] = append(byQuestion[q], w.Score)
		}
	}
	for q := range byQuestion {
		row.QuestionAvgs[q] = grading.Round2Ptr(grading.Mean(byQuestion[q]))
	}
	writtenAvg := grading.Mean(written)

	var (
		byRound      [grading.InterviewRounds][]*int
		bySubSection [grading.InterviewRounds][grading.SubSectionsPerAssignment][]*int
		interview    []*int
	)
	for _, a := range snap.AssignmentsByApplicant[app.ID] {
		r := a.Round - 1
		for _, s := range snap.ScoresByAssignment[a.ID] {
			interview = append(interview, s.Score)
			if r < 0 || r >= grading.InterviewRounds {
				continue
			}
			byRound[r] = append(byRound[r], s.Score)
			if ss := s.SubSection - 1; ss >= 0 && ss < grading.SubSectionsPerAssignment {
				bySubSection[r][ss] = append(bySubSection[r][ss], s.Score)
			}
		}
	}
	for r := range byRound {
		row.RoundAvgs[r] = grading.Round2Ptr(grading.Mean(byRound[r]))
		for ss := range bySubSection[r] {
			row.SubSectionAvgs[r][ss] = grading.Round2Ptr(grading.Mean(bySubSection[r][ss]))
		}
	}
	interviewAvg := grading.Mean(interview)

	row.WrittenAvg = grading.Round2Ptr(writtenAvg)
	row.InterviewAvg = grading.Round2Ptr(interviewAvg)
	row.TotalScore = grading.Round2Ptr(grading.CombineAverages(writtenAvg, interviewAvg))
	return row
}

func statusFilter(statuses []types.Status) (map[types.Status]struct{}, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	filter := make(map[types.Status]struct{}, len(statuses))
	for _, s := range statuses {
		if !s.Valid() {
			return nil, types.Inputf("unknown status filter: %q", s)
		}
		filter[s] = struct{}{}
	}
	return filter, nil
}
