package ranking

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

const cycle = "fall-2026"

func scored(id string, score float64) types.Applicant {
	return types.Applicant{ID: types.ApplicantID(id), AnonymousID: id, Cycle: cycle, TotalScore: &score}
}

func ids(apps []types.Applicant) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, string(a.ID))
	}
	return out
}

func TestBands(t *testing.T) {
	tests := []struct {
		n, top, bottomStart int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 1, 1},
		{3, 1, 2},
		{4, 1, 3},
		{5, 2, 3},
		{8, 2, 6},
		{10, 3, 7},
		{100, 25, 75},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			top, bottomStart := Bands(tt.n)
			assert.Equal(t, tt.top, top)
			assert.Equal(t, tt.bottomStart, bottomStart)
			assert.LessOrEqual(t, top, bottomStart, "bands never overlap")
		})
	}
}

func TestPartition_TierSizes(t *testing.T) {
	for n := 4; n <= 40; n++ {
		apps := make([]types.Applicant, 0, n)
		for i := 0; i < n; i++ {
			apps = append(apps, scored(fmt.Sprintf("a%02d", i), float64(i%5)+0.5))
		}
		parts := Partition(apps)
		want := (n + 3) / 4
		assert.Len(t, parts.AutoAccept, want, "n=%d", n)
		assert.Len(t, parts.AutoReject, want, "n=%d", n)
		assert.Equal(t, n, len(parts.AutoAccept)+len(parts.Discuss)+len(parts.AutoReject))
	}
}

func TestPartition_StableTies(t *testing.T) {
	apps := []types.Applicant{
		scored("a", 3.0),
		scored("b", 4.5),
		scored("c", 3.0),
		scored("d", 3.0),
		scored("e", 1.0),
	}
	parts := Partition(apps)

	assert.Equal(t, []string{"b", "a"}, ids(parts.AutoAccept))
	assert.Equal(t, []string{"c"}, ids(parts.Discuss))
	assert.Equal(t, []string{"d", "e"}, ids(parts.AutoReject))
}

func TestPartition_SmallN(t *testing.T) {
	parts := Partition([]types.Applicant{scored("only", 2.0)})
	assert.Equal(t, []string{"only"}, ids(parts.AutoAccept))
	assert.Empty(t, parts.Discuss)
	assert.Empty(t, parts.AutoReject)

	parts = Partition([]types.Applicant{scored("x", 2.0), scored("y", 4.0)})
	assert.Equal(t, []string{"y"}, ids(parts.AutoAccept))
	assert.Empty(t, parts.Discuss)
	assert.Equal(t, []string{"x"}, ids(parts.AutoReject))
}

func seed(t *testing.T, st *memstore.Memory, anon string, score *float64, status types.Status) types.Applicant {
	t.Helper()
	return st.AddApplicant(types.Applicant{AnonymousID: anon, Cycle: cycle, TotalScore: score, Status: status})
}

func f(v float64) *float64 { return &v }

func TestCategorize_SkipsTerminalAndUnscored(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	accepted := seed(t, st, "TC 001", f(1.0), types.StatusAccepted)
	rejected := seed(t, st, "TC 002", f(5.0), types.StatusRejected)
	unscored := seed(t, st, "TC 003", nil, types.StatusPending)
	top := seed(t, st, "TC 004", f(4.8), types.StatusPending)
	mid1 := seed(t, st, "TC 005", f(3.9), types.StatusDiscuss)
	mid2 := seed(t, st, "TC 006", f(3.1), types.StatusPending)
	low := seed(t, st, "TC 007", f(1.2), types.StatusAutoAccept)

	result, err := NewCategorizer(st, nil).Categorize(ctx, cycle)
	require.NoError(t, err)
	assert.Equal(t, &CategorizationResult{AutoAccept: 1, Discuss: 2, AutoReject: 1, Skipped: 1, Terminal: 2}, result)

	want := map[types.ApplicantID]types.Status{
		accepted.ID: types.StatusAccepted,
		rejected.ID: types.StatusRejected,
		unscored.ID: types.StatusPending,
		top.ID:      types.StatusAutoAccept,
		mid1.ID:     types.StatusDiscuss,
		mid2.ID:     types.StatusDiscuss,
		low.ID:      types.StatusAutoReject,
	}
	for id, status := range want {
		got, err := st.GetApplicant(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status, "applicant %s", got.AnonymousID)
	}
}

func TestCategorize_RerunReproducesPartition(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	for i := 0; i < 9; i++ {
		seed(t, st, fmt.Sprintf("TC %03d", i), f(float64(i%3)+1), types.StatusPending)
	}

	c := NewCategorizer(st, nil)
	first, err := c.Categorize(ctx, cycle)
	require.NoError(t, err)
	before, err := st.ListApplicants(ctx, cycle)
	require.NoError(t, err)

	second, err := c.Categorize(ctx, cycle)
	require.NoError(t, err)
	after, err := st.ListApplicants(ctx, cycle)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, after)
}

func TestCategorize_NoEligible(t *testing.T) {
	st := memstore.New()
	seed(t, st, "TC 001", nil, types.StatusPending)
	seed(t, st, "TC 002", f(3), types.StatusAccepted)

	_, err := NewCategorizer(st, nil).Categorize(context.Background(), cycle)
	require.Error(t, err)
	assert.True(t, types.IsInput(err))
	assert.Equal(t, 0, st.Calls(memstore.OpBulkStatus))
}

func TestCategorize_TierFailureAborts(t *testing.T) {
	st := memstore.New()
	for i := 0; i < 8; i++ {
		seed(t, st, fmt.Sprintf("TC %03d", i), f(float64(i)/2), types.StatusPending)
	}
	dbErr := errors.New(`update or delete on table "applications" violates constraint`)
	st.FailOn(memstore.OpBulkStatus, string(types.StatusDiscuss), dbErr)

	result, err := NewCategorizer(st, nil).Categorize(context.Background(), cycle)
	require.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), dbErr.Error())
	// auto_accept and discuss were attempted; auto_reject never ran
	assert.Equal(t, 2, st.Calls(memstore.OpBulkStatus))

	var partial *types.PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.Succeeded)
	assert.Equal(t, 4, partial.Failed)
	assert.Len(t, partial.FailedIDs, 4)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 4, result.Failed)
}

func TestCategorize_FirstTierFailureWritesNothing(t *testing.T) {
	st := memstore.New()
	for i := 0; i < 4; i++ {
		seed(t, st, fmt.Sprintf("TC %03d", i), f(float64(i)), types.StatusPending)
	}
	dbErr := errors.New("connection refused")
	st.FailOn(memstore.OpBulkStatus, string(types.StatusAutoAccept), dbErr)

	result, err := NewCategorizer(st, nil).Categorize(context.Background(), cycle)
	require.ErrorIs(t, err, dbErr)
	assert.True(t, types.IsPartialWrite(err))
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, st.Calls(memstore.OpBulkStatus))
}

func TestPreview_DoesNotWrite(t *testing.T) {
	st := memstore.New()
	seed(t, st, "TC 001", f(4), types.StatusPending)
	seed(t, st, "TC 002", f(2), types.StatusPending)

	result, parts, err := NewCategorizer(st, nil).Preview(context.Background(), cycle)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Len(t, parts.AutoAccept, 1)
	assert.Equal(t, 0, st.Calls(memstore.OpBulkStatus))
}
