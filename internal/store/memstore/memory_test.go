package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

func floatPtr(v float64) *float64 { return &v }

func TestInTx_CommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	m := New()
	a := m.AddApplicant(types.Applicant{AnonymousID: "TC 001", Cycle: "fall-2026"})

	err := m.InTx(ctx, func(tx store.RecordStore) error {
		return tx.UpdateApplicantStatus(ctx, a.ID, types.StatusAccepted)
	})
	require.NoError(t, err)
	got, err := m.GetApplicant(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, got.Status)

	boom := errors.New("boom")
	err = m.InTx(ctx, func(tx store.RecordStore) error {
		require.NoError(t, tx.UpdateApplicantStatus(ctx, a.ID, types.StatusRejected))
		return boom
	})
	require.ErrorIs(t, err, boom)
	got, err = m.GetApplicant(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, got.Status, "rolled back")
}

func TestInTx_ConcurrentWriteIsNotLost(t *testing.T) {
	ctx := context.Background()
	m := New()
	a := m.AddApplicant(types.Applicant{AnonymousID: "TC 001", Cycle: "fall-2026"})
	b := m.AddApplicant(types.Applicant{AnonymousID: "TC 002", Cycle: "fall-2026"})

	done := make(chan error, 1)
	err := m.InTx(ctx, func(tx store.RecordStore) error {
		go func() {
			done <- m.UpdateApplicantScore(ctx, b.ID, floatPtr(4.5))
		}()
		select {
		case <-done:
			t.Error("write outside the transaction ran before commit")
		case <-time.After(50 * time.Millisecond):
		}
		return tx.UpdateApplicantStatus(ctx, a.ID, types.StatusAccepted)
	})
	require.NoError(t, err)
	require.NoError(t, <-done)

	gotA, err := m.GetApplicant(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, gotA.Status)
	gotB, err := m.GetApplicant(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, gotB.TotalScore)
	assert.Equal(t, 4.5, *gotB.TotalScore)
}

func TestInTx_ReadsSeeCommittedState(t *testing.T) {
	ctx := context.Background()
	m := New()
	a := m.AddApplicant(types.Applicant{AnonymousID: "TC 001", Cycle: "fall-2026"})

	err := m.InTx(ctx, func(tx store.RecordStore) error {
		require.NoError(t, tx.UpdateApplicantStatus(ctx, a.ID, types.StatusDiscuss))
		outer, err := m.GetApplicant(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusPending, outer.Status)
		return nil
	})
	require.NoError(t, err)
}

func TestInTx_SharesFailuresAndCalls(t *testing.T) {
	ctx := context.Background()
	m := New()
	a := m.AddApplicant(types.Applicant{AnonymousID: "TC 001", Cycle: "fall-2026"})
	dbErr := errors.New("serialization failure")
	m.FailOn(OpUpsertDecision, string(a.ID), dbErr)

	err := m.InTx(ctx, func(tx store.RecordStore) error {
		return tx.UpsertDecision(ctx, a.ID, types.OutcomeAccept, "admin-1")
	})
	require.ErrorIs(t, err, dbErr)
	assert.Equal(t, 1, m.Calls(OpUpsertDecision))

	m.ClearFailures()
	err = m.InTx(ctx, func(tx store.RecordStore) error {
		return tx.InTx(ctx, func(inner store.RecordStore) error {
			return inner.UpsertDecision(ctx, a.ID, types.OutcomeAccept, "admin-1")
		})
	})
	require.NoError(t, err)
	decisions, err := m.ListDecisions(ctx, []types.ApplicantID{a.ID})
	require.NoError(t, err)
	assert.Len(t, decisions, 1)
}

func TestConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	m := New()
	var apps []types.Applicant
	for i := 0; i < 20; i++ {
		apps = append(apps, m.AddApplicant(types.Applicant{AnonymousID: fmt.Sprintf("TC %03d", i), Cycle: "fall-2026"}))
	}

	var wg sync.WaitGroup
	for i, a := range apps {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.UpdateApplicantScore(ctx, a.ID, floatPtr(float64(i))))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, m.InTx(ctx, func(tx store.RecordStore) error {
				return tx.UpsertDecision(ctx, a.ID, types.OutcomeReject, "admin-1")
			}))
		}()
	}
	wg.Wait()

	got, err := m.ListApplicants(ctx, "fall-2026")
	require.NoError(t, err)
	for _, a := range got {
		assert.NotNil(t, a.TotalScore, a.AnonymousID)
	}
	decisions, err := m.ListDecisions(ctx, types.ApplicantIDs(apps))
	require.NoError(t, err)
	assert.Len(t, decisions, 20)
}

func TestInsertInterviewAssignments_KeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := New()
	a := m.AddApplicant(types.Applicant{AnonymousID: "TC 001", Cycle: "fall-2026"})

	var want []types.GraderID
	for batch := 0; batch < 3; batch++ {
		var rows []types.NewInterviewAssignment
		for i := 0; i < 4; i++ {
			g := types.GraderID(fmt.Sprintf("grader-%d-%d", batch, i))
			want = append(want, g)
			rows = append(rows, types.NewInterviewAssignment{ApplicantID: a.ID, GraderID: g, Round: 1})
		}
		_, err := m.InsertInterviewAssignments(ctx, rows)
		require.NoError(t, err)
	}

	got, err := m.ListInterviewAssignments(ctx, []types.ApplicantID{a.ID})
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i, as := range got {
		assert.Equal(t, want[i], as.GraderID)
	}
}
