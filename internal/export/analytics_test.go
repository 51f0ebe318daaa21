package export

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-grader/internal/store/memstore"
	"github.com/jonathan/recruit-grader/internal/types"
)

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	assert.Equal(t, 0, got.TotalApplicants)
	assert.Nil(t, got.AvgScore)
	assert.Empty(t, got.StatusBreakdown)
	assert.Empty(t, got.ScoreDistribution)
}

func TestSummarize(t *testing.T) {
	apps := []types.Applicant{
		{Status: types.StatusPending, Gender: "Female", Major: "Biology", GraduationYear: 2027, SpanishFluent: true, TotalScore: floatPtr(4.5)},
		{Status: types.StatusPending, Gender: "female ", Major: "Biology", GraduationYear: 2027, CanAttendCamp: true, TotalScore: floatPtr(5.0)},
		{Status: types.StatusAccepted, Gender: "", Major: "History", TotalScore: floatPtr(0.4)},
		{Status: types.StatusDiscuss, Gender: "Male", Major: "Math", GraduationYear: 2028},
	}

	got := Summarize(apps)
	assert.Equal(t, 4, got.TotalApplicants)
	assert.Equal(t, []Count{
		{Name: "pending", Count: 2},
		{Name: "discuss", Count: 1},
		{Name: "accepted", Count: 1},
	}, got.StatusBreakdown)

	assert.Equal(t, []Count{
		{Name: "Female", Count: 1},
		{Name: "Male", Count: 1},
		{Name: "Not specified", Count: 1},
		{Name: "female", Count: 1},
	}, got.GenderBreakdown)
	assert.Equal(t, Count{Name: "Biology", Count: 2}, got.MajorBreakdown[0])
	assert.Equal(t, Count{Name: "2027", Count: 2}, got.GradYearBreakdown[0])

	assert.Equal(t, YesNo{Yes: 1, No: 3}, got.SpanishFluent)
	assert.Equal(t, YesNo{Yes: 1, No: 3}, got.CanAttendCamp)

	assert.Equal(t, []Count{
		{Name: "0-1", Count: 1},
		{Name: "1-2", Count: 0},
		{Name: "2-3", Count: 0},
		{Name: "3-4", Count: 0},
		{Name: "4-5", Count: 2},
	}, got.ScoreDistribution, "a perfect 5 lands in the top bucket")
	require.NotNil(t, got.AvgScore)
	assert.Equal(t, 3.3, *got.AvgScore)
}

func TestGroupField_CollapsesTail(t *testing.T) {
	var apps []types.Applicant
	for i := 0; i < 10; i++ {
		for n := 0; n <= i; n++ {
			apps = append(apps, types.Applicant{Major: fmt.Sprintf("Major %d", i)})
		}
	}

	got := groupField(apps, func(a types.Applicant) string { return a.Major })
	require.Len(t, got, MaxCategories)
	assert.Equal(t, Count{Name: "Major 9", Count: 10}, got[0])
	assert.Equal(t, Count{Name: "Major 3", Count: 4}, got[MaxCategories-2])
	// Majors 0, 1 and 2
	assert.Equal(t, Count{Name: "Other", Count: 1 + 2 + 3}, got[MaxCategories-1])
}

func TestAnalytics_FetchError(t *testing.T) {
	st := memstore.New()
	st.FailOn(memstore.OpListApplicants, "", errors.New("timeout"))

	_, err := NewBuilder(st, nil).Analytics(context.Background(), cycle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch applicants")
}
