// Package admin is the operation boundary of the grading engine. Every externally
// visible operation runs through it: it is logged, traced and counted, panics are
// recovered, and failures that are not one of the typed error kinds are replaced
// with types.ErrUnexpected.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/jonathan/recruit-grader/internal/assignment"
	"github.com/jonathan/recruit-grader/internal/deliberation"
	"github.com/jonathan/recruit-grader/internal/export"
	"github.com/jonathan/recruit-grader/internal/grading"
	"github.com/jonathan/recruit-grader/internal/logging"
	"github.com/jonathan/recruit-grader/internal/metrics"
	"github.com/jonathan/recruit-grader/internal/ranking"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/tracing"
	"github.com/jonathan/recruit-grader/internal/types"
)

// Operation names used for logs, spans and metric labels.
const (
	OpRecalculate       = "recalculate_scores"
	OpCategorize        = "categorize"
	OpPreviewCategories = "preview_categories"
	OpAssignWritten     = "assign_written"
	OpFillWritten       = "fill_written_gaps"
	OpClearWritten      = "clear_ungraded_written"
	OpSaveWritten       = "save_written_graders"
	OpFillInterview     = "fill_interview_gaps"
	OpSaveInterview     = "save_interview_graders"
	OpWrittenOverview   = "written_overview"
	OpInterviewOverview = "interview_overview"
	OpWorkload          = "workload"
	OpWriteWrittenScore = "write_written_score"
	OpWriteInterview    = "write_interview_score"
	OpSaveNote          = "save_interview_note"
	OpCheckWritten      = "check_written_submission"
	OpCheckInterview    = "check_interview_submission"
	OpRecordDecision    = "record_decision"
	OpDeliberationList  = "deliberation_list"
	OpApplicantDetail   = "applicant_detail"
	OpExportRows        = "export_rows"
	OpBackup            = "semester_backup"
	OpAnalytics         = "analytics"
)

// Options configures a Service. Every field is optional.
type Options struct {
	Logger    *slog.Logger
	Metrics   *metrics.Manager
	Tracer    *tracing.Provider
	BatchSize int
}

// Service exposes the engine's operations behind the error boundary.
type Service struct {
	aggregator   *grading.Aggregator
	grades       *grading.GradeWriter
	categorizer  *ranking.Categorizer
	scheduler    *assignment.Scheduler
	exporter     *export.Builder
	deliberation *deliberation.Service

	logger  *slog.Logger
	metrics *metrics.Manager
	tracer  *tracing.Provider
}

// New wires every engine component to st.
func New(st store.RecordStore, opts Options) *Service {
	logger := logging.OrDiscard(opts.Logger)
	var schedOpts []assignment.Option
	if opts.BatchSize > 0 {
		schedOpts = append(schedOpts, assignment.WithBatchSize(opts.BatchSize))
	}
	return &Service{
		aggregator:   grading.NewAggregator(st, logger),
		grades:       grading.NewGradeWriter(st, logger),
		categorizer:  ranking.NewCategorizer(st, logger),
		scheduler:    assignment.NewScheduler(st, logger, schedOpts...),
		exporter:     export.NewBuilder(st, logger),
		deliberation: deliberation.NewService(st, logger),
		logger:       logging.Component(logger, "admin"),
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
	}
}

// run executes fn inside the boundary. count, when set, extracts the succeeded and
// failed entity counts of a result for metrics and spans.
func run[T any](ctx context.Context, s *Service, op, cycle string, fn func(context.Context) (T, error), count func(T) (int, int)) (result T, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	span.SetString("operation", op)
	if cycle != "" {
		span.SetString("cycle", cycle)
	}
	logger := s.logger.With(slog.String("operation", op))
	if actor, ok := ActorFrom(ctx); ok {
		logger = logger.With(slog.String("actor", string(actor)))
		span.SetString("actor", string(actor))
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("operation panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			var zero T
			result, err = zero, types.ErrUnexpected
		}

		elapsed := time.Since(start)
		outcome := metrics.OutcomeSuccess
		switch {
		case types.IsPartialWrite(err):
			outcome = metrics.OutcomePartial
		case err != nil:
			outcome = metrics.OutcomeError
		}
		if count != nil && (err == nil || outcome == metrics.OutcomePartial) {
			ok, failed := count(result)
			s.metrics.AddRows(op, ok, failed)
			span.SetInt("succeeded", ok).SetInt("failed", failed)
		}
		s.metrics.ObserveRun(op, outcome, elapsed)
		span.End(err)

		attrs := []any{slog.String("outcome", outcome), slog.Duration("elapsed", elapsed)}
		if cycle != "" {
			attrs = append(attrs, slog.String("cycle", cycle))
		}
		switch outcome {
		case metrics.OutcomeSuccess:
			logger.Info("operation completed", attrs...)
		case metrics.OutcomePartial:
			logger.Warn("operation completed with failures", append(attrs, slog.String("error", err.Error()))...)
		default:
			logger.Error("operation failed", append(attrs, slog.String("error", err.Error()))...)
		}
	}()

	result, err = fn(ctx)
	if err != nil && !types.IsClassified(err) {
		logger.Error("unexpected failure", slog.String("error", err.Error()))
		err = fmt.Errorf("%s: %w", op, types.ErrUnexpected)
		// Partial results of an unexpected failure are never returned.
		var zero T
		result = zero
	}
	return result, err
}

// runErr executes an operation that returns no payload.
func runErr(ctx context.Context, s *Service, op string, fn func(context.Context) error) error {
	_, err := run(ctx, s, op, "", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, nil)
	return err
}

func scheduleCounts(r *assignment.Result) (int, int) {
	if r == nil {
		return 0, 0
	}
	return r.Applicants, r.Failed
}
