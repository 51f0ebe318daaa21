// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/recruit-grader/internal/assignment"
	"github.com/jonathan/recruit-grader/internal/export"
	"github.com/jonathan/recruit-grader/internal/grading"
	"github.com/jonathan/recruit-grader/internal/ranking"
	"github.com/jonathan/recruit-grader/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeFailed lists up to maxItemsToShow failed IDs.
func writeFailed[T ~string](sb *strings.Builder, ids []T) {
	if len(ids) == 0 {
		return
	}
	sb.WriteString("\nFailed:\n")
	count := min(len(ids), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  ⚠ %s\n", ids[i]))
	}
	if len(ids) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(ids)-maxItemsToShow))
	}
}

func score(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// PrintAggregation outputs the totals of a score recalculation.
func (p *Printer) PrintAggregation(result *grading.AggregationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Applicants:  %d\n", len(result.Scores)))
	sb.WriteString(fmt.Sprintf("Saved:       %d\n", result.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed:      %d\n", result.Failed))
	sb.WriteString(fmt.Sprintf("Incomplete:  %d\n", result.IncompleteCount))

	if len(result.Scores) > 0 {
		sb.WriteString("\n")
		count := min(len(result.Scores), maxItemsToShow)
		for i := 0; i < count; i++ {
			s := result.Scores[i]
			sb.WriteString(fmt.Sprintf("%-10s W %s  I %s  T %s\n",
				s.AnonymousID, score(s.WrittenAvg), score(s.InterviewAvg), score(s.TotalScore)))
		}
		if len(result.Scores) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(result.Scores)-maxItemsToShow))
		}
	}
	writeFailed(&sb, result.FailedIDs)

	p.printBox("SCORE RECALCULATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCategorization outputs the tier counts of a categorization pass.
func (p *Printer) PrintCategorization(result *ranking.CategorizationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Auto accept:  %d\n", result.AutoAccept))
	sb.WriteString(fmt.Sprintf("Discuss:      %d\n", result.Discuss))
	sb.WriteString(fmt.Sprintf("Auto reject:  %d\n", result.AutoReject))
	sb.WriteString(fmt.Sprintf("Unscored:     %d\n", result.Skipped))
	sb.WriteString(fmt.Sprintf("Decided:      %d", result.Terminal))
	if result.Failed > 0 {
		sb.WriteString(fmt.Sprintf("\nNot written:  %d", result.Failed))
	}

	title := "CATEGORIZATION"
	if result.DryRun {
		title += " (dry run)"
	}
	p.printBox(title, sb.String())
}

// PrintSchedule outputs the result of an assignment operation.
func (p *Printer) PrintSchedule(title string, result *assignment.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Applicants:  %d\n", result.Applicants))
	sb.WriteString(fmt.Sprintf("Created:     %d\n", result.Created))
	sb.WriteString(fmt.Sprintf("Deleted:     %d\n", result.Deleted))
	sb.WriteString(fmt.Sprintf("Failed:      %d\n", result.Failed))
	writeFailed(&sb, result.FailedIDs)

	p.printBox(strings.ToUpper(title), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWorkload outputs per-grader load for both grading phases.
func (p *Printer) PrintWorkload(report *assignment.WorkloadReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Written (spread %d):\n", report.WrittenSpread))
	for _, l := range report.Written {
		sb.WriteString(fmt.Sprintf("  %-40s %3d\n", l.Name, l.Applicants))
	}
	sb.WriteString(fmt.Sprintf("\nInterview (spread %d):\n", report.InterviewSpread))
	for _, l := range report.Interview {
		sb.WriteString(fmt.Sprintf("  %-40s %3d\n", l.Name, l.Applicants))
	}

	p.printBox("GRADER WORKLOAD", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAnalytics outputs the cycle summary.
func (p *Printer) PrintAnalytics(a *export.Analytics) {
	if a == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Applicants:  %d\n", a.TotalApplicants))
	sb.WriteString(fmt.Sprintf("Avg score:   %s\n", score(a.AvgScore)))

	section := func(name string, counts []export.Count) {
		if len(counts) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("\n%s:\n", name))
		for _, c := range counts {
			sb.WriteString(fmt.Sprintf("  • %-36s %4d\n", c.Name, c.Count))
		}
	}
	section("Status", a.StatusBreakdown)
	section("Scores", a.ScoreDistribution)
	section("Major", a.MajorBreakdown)
	section("Gender", a.GenderBreakdown)
	section("Graduation year", a.GradYearBreakdown)

	sb.WriteString(fmt.Sprintf("\nSpanish fluent:   %d yes / %d no\n", a.SpanishFluent.Yes, a.SpanishFluent.No))
	sb.WriteString(fmt.Sprintf("Can attend camp:  %d yes / %d no", a.CanAttendCamp.Yes, a.CanAttendCamp.No))

	p.printBox("CYCLE ANALYTICS", sb.String())
}

// PrintPartialWrite outputs a batch that finished with some failed writes.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintPartialWrite(err *types.PartialWriteError) {
	if err == nil {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ALL WRITES SUCCEEDED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Operation:  %s\n", err.Operation))
	sb.WriteString(fmt.Sprintf("Succeeded:  %d\n", err.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed:     %d\n", err.Failed))
	writeFailed(&sb, err.FailedIDs)
	if err.Cause != nil {
		sb.WriteString(fmt.Sprintf("\nCause: %s", err.Cause))
	}

	p.printBox("PARTIAL WRITE", strings.TrimSuffix(sb.String(), "\n"))
}
