package export

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/recruit-grader/internal/grading"
	"github.com/jonathan/recruit-grader/internal/types"
)

// MaxCategories caps a demographic breakdown; the tail collapses into "Other".
const MaxCategories = 8

// Count is one labelled bucket of a breakdown.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// YesNo counts a boolean attribute.
type YesNo struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// Analytics summarizes a cycle's applicant pool.
type Analytics struct {
	TotalApplicants   int      `json:"total_applicants"`
	AvgScore          *float64 `json:"avg_score"`
	StatusBreakdown   []Count  `json:"status_breakdown"`
	GenderBreakdown   []Count  `json:"gender_breakdown"`
	MajorBreakdown    []Count  `json:"major_breakdown"`
	GradYearBreakdown []Count  `json:"grad_year_breakdown"`
	SpanishFluent     YesNo    `json:"spanish_fluent"`
	CanAttendCamp     YesNo    `json:"can_attend_camp"`
	ScoreDistribution []Count  `json:"score_distribution"`
}

// Analytics computes cycle analytics from applicant records and their cached
// total scores. An empty cycle yields zero counts.
func (b *Builder) Analytics(ctx context.Context, cycle string) (*Analytics, error) {
	apps, err := b.store.ListApplicants(ctx, cycle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicants: %w", err)
	}
	return Summarize(apps), nil
}

// Summarize computes analytics over an applicant list.
func Summarize(apps []types.Applicant) *Analytics {
	out := &Analytics{
		TotalApplicants:   len(apps),
		StatusBreakdown:   []Count{},
		GenderBreakdown:   []Count{},
		MajorBreakdown:    []Count{},
		GradYearBreakdown: []Count{},
		ScoreDistribution: []Count{},
	}
	if len(apps) == 0 {
		return out
	}

	statusCounts := make(map[types.Status]int)
	for _, a := range apps {
		statusCounts[a.Status]++
	}
	for _, s := range types.AllStatuses {
		if n := statusCounts[s]; n > 0 {
			out.StatusBreakdown = append(out.StatusBreakdown, Count{Name: string(s), Count: n})
		}
	}

	out.GenderBreakdown = groupField(apps, func(a types.Applicant) string { return a.Gender })
	out.MajorBreakdown = groupField(apps, func(a types.Applicant) string { return a.Major })
	out.GradYearBreakdown = groupField(apps, func(a types.Applicant) string {
		if a.GraduationYear == 0 {
			return ""
		}
		return strconv.Itoa(a.GraduationYear)
	})

	var buckets [5]int
	sum, scored := 0.0, 0
	for _, a := range apps {
		if a.SpanishFluent {
			out.SpanishFluent.Yes++
		} else {
			out.SpanishFluent.No++
		}
		if a.CanAttendCamp {
			out.CanAttendCamp.Yes++
		} else {
			out.CanAttendCamp.No++
		}

		if a.TotalScore == nil {
			continue
		}
		sum += *a.TotalScore
		scored++
		bucket := int(math.Floor(*a.TotalScore))
		bucket = max(0, min(bucket, len(buckets)-1))
		buckets[bucket]++
	}
	for i, n := range buckets {
		out.ScoreDistribution = append(out.ScoreDistribution, Count{Name: fmt.Sprintf("%d-%d", i, i+1), Count: n})
	}
	if scored > 0 {
		avg := grading.Round2(sum / float64(scored))
		out.AvgScore = &avg
	}
	return out
}

// groupField counts a free-text attribute, most frequent first. Blank values
// count as "Not specified"; past MaxCategories-1 values the rest merge into "Other".
func groupField(apps []types.Applicant, field func(types.Applicant) string) []Count {
	counts := make(map[string]int)
	for _, a := range apps {
		v := strings.TrimSpace(field(a))
		if v == "" {
			v = "Not specified"
		}
		counts[v]++
	}

	sorted := make([]Count, 0, len(counts))
	for name, n := range counts {
		sorted = append(sorted, Count{Name: name, Count: n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Name < sorted[j].Name
	})

	if len(sorted) <= MaxCategories {
		return sorted
	}
	other := 0
	for _, c := range sorted[MaxCategories-1:] {
		other += c.Count
	}
	return append(sorted[:MaxCategories-1:MaxCategories-1], Count{Name: "Other", Count: other})
}
