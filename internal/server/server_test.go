package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-grader/internal/admin"
	"github.com/jonathan/recruit-grader/internal/assignment"
	"github.com/jonathan/recruit-grader/internal/config"
	"github.com/jonathan/recruit-grader/internal/export"
	"github.com/jonathan/recruit-grader/internal/metrics"
	"github.com/jonathan/recruit-grader/internal/server/ratelimit"
	"github.com/jonathan/recruit-grader/internal/store/memstore"
	"github.com/jonathan/recruit-grader/internal/types"
)

const cycle = "fall-2026"

type testServer struct {
	*Server
	store *memstore.Memory
	apps  []types.Applicant
	token string
}

func setupTestServer(t *testing.T, rateLimit *ratelimit.Config) *testServer {
	t.Helper()
	st := memstore.New()
	var apps []types.Applicant
	for i := 0; i < 4; i++ {
		apps = append(apps, st.AddApplicant(types.Applicant{AnonymousID: fmt.Sprintf("TC %03d", i+1), Cycle: cycle}))
	}
	for i := 0; i < 3; i++ {
		st.AddGrader(types.Grader{FullName: fmt.Sprintf("Grader %d", i)})
	}

	m := metrics.NewManager(metrics.WithRegistry(prometheus.NewRegistry()))
	srv, err := New(admin.New(st, admin.Options{Metrics: m}), Config{
		Addr:      ":0",
		JWT:       &config.JWTConfig{Secret: testSecret, ExpirationHours: 1},
		RateLimit: rateLimit,
		Metrics:   m,
	})
	require.NoError(t, err)
	t.Cleanup(srv.rateLimiter.Stop)

	token, err := srv.jwtService.GenerateToken("admin-1")
	require.NoError(t, err)
	return &testServer{Server: srv, store: st, apps: apps, token: token}
}

// do sends an authenticated request and returns the recorded response.
func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_RequiresJWT(t *testing.T) {
	_, err := New(admin.New(memstore.New(), admin.Options{}), Config{})
	assert.Error(t, err)

	_, err = New(nil, Config{JWT: &config.JWTConfig{Secret: testSecret, ExpirationHours: 1}})
	assert.Error(t, err)
}

func TestHealth_NoAuth(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
}

func TestAPI_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cycles/fall-2026/written/assign", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, ts.store.Calls(memstore.OpInsertWritten))

	req := httptest.NewRequest(http.MethodGet, "/cycles/fall-2026/workload", nil)
	req.Header.Set("Authorization", "Bearer forged.token.value")
	rec = httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAssignWritten_StatusCodes(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/cycles/fall-2026/written/assign", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[assignment.Result](t, rec)
	assert.Equal(t, 4, result.Applicants)
	assert.Equal(t, 60, result.Created)

	rec = ts.do(t, http.MethodPost, "/cycles/fall-2026/written/assign", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/cycles/spring-1999/written/assign", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecalculate_PartialWrite(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.store.FailOn(memstore.OpUpdateScore, string(ts.apps[0].ID), errors.New("connection reset"))

	rec := ts.do(t, http.MethodPost, "/cycles/fall-2026/scores/recalculate", nil)
	require.Equal(t, http.StatusMultiStatus, rec.Code, rec.Body.String())

	body := decodeBody[struct {
		Error  string `json:"error"`
		Result struct {
			Succeeded int `json:"succeeded"`
			Failed    int `json:"failed"`
		} `json:"result"`
	}](t, rec)
	assert.Contains(t, body.Error, "1 failed")
	assert.Equal(t, 3, body.Result.Succeeded)
	assert.Equal(t, 1, body.Result.Failed)
}

func TestUnexpectedError_IsGeneric(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.store.FailOn(memstore.OpListApplicants, "", errors.New("pq: connection refused"))

	rec := ts.do(t, http.MethodGet, "/cycles/fall-2026/analytics", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
	assert.Contains(t, rec.Body.String(), types.ErrUnexpected.Error())
}

func TestCategorize_DryRun(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/cycles/fall-2026/categorize?dry_run=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/cycles/fall-2026/categorize?dry_run=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, ts.store.Calls(memstore.OpBulkStatus))
}

func TestRecordDecision(t *testing.T) {
	ts := setupTestServer(t, nil)
	id := ts.apps[2].ID

	rec := ts.do(t, http.MethodPut, "/applicants/"+string(id)+"/decision", map[string]string{"decision": "accept"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(types.StatusAccepted), decodeBody[map[string]string](t, rec)["status"])

	decisions, err := ts.store.ListDecisions(context.Background(), []types.ApplicantID{id})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, types.ActorID("admin-1"), decisions[0].DecidedBy)

	rec = ts.do(t, http.MethodPut, "/applicants/missing/decision", map[string]string{"decision": "accept"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPut, "/applicants/"+string(id)+"/decision", map[string]string{"decision": "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/cycles/fall-2026/deliberation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody[[]map[string]any](t, rec)
	assert.Len(t, entries, 4)
}

func TestApplicantDetail(t *testing.T) {
	ts := setupTestServer(t, nil)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/cycles/fall-2026/written/assign", nil).Code)

	id := ts.apps[0].ID
	grades, err := ts.store.ListWrittenGrades(context.Background(), []types.ApplicantID{id})
	require.NoError(t, err)
	require.NoError(t, ts.store.UpdateWrittenScore(context.Background(), grades[0].ID, 4))

	rec := ts.do(t, http.MethodGet, "/applicants/"+string(id), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, 4.0, body["written_avg"])
	assert.Nil(t, body["interview_avg"])
	assert.Len(t, body["written_responses"], 5)
	assert.Nil(t, body["decision"])

	rec = ts.do(t, http.MethodGet, "/applicants/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategorize_TierFailureIsPartial(t *testing.T) {
	ts := setupTestServer(t, nil)
	ctx := context.Background()
	for i, a := range ts.apps {
		score := float64(i + 1)
		require.NoError(t, ts.store.UpdateApplicantScore(ctx, a.ID, &score))
	}
	ts.store.FailOn(memstore.OpBulkStatus, string(types.StatusDiscuss), errors.New("lock timeout"))

	rec := ts.do(t, http.MethodPost, "/cycles/fall-2026/categorize", nil)
	require.Equal(t, http.StatusMultiStatus, rec.Code, rec.Body.String())
	body := decodeBody[map[string]any](t, rec)
	assert.Contains(t, body["error"], "lock timeout")
	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, result["updated"])
	assert.Equal(t, 2.0, result["failed"])
}

func TestWrittenScoreEntry(t *testing.T) {
	ts := setupTestServer(t, nil)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/cycles/fall-2026/written/assign", nil).Code)

	grades, err := ts.store.ListWrittenGrades(context.Background(), []types.ApplicantID{ts.apps[0].ID})
	require.NoError(t, err)
	require.NotEmpty(t, grades)
	slot := grades[0]

	rec := ts.do(t, http.MethodPut, "/written-grades/"+string(slot.ID)+"/score",
		map[string]any{"grader_id": slot.GraderID, "score": 4})
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPut, "/written-grades/"+string(slot.ID)+"/score",
		map[string]any{"grader_id": "someone-else", "score": 4})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPut, "/written-grades/"+string(slot.ID)+"/score",
		map[string]any{"grader_id": slot.GraderID, "score": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet,
		fmt.Sprintf("/applicants/%s/written/submission?grader_id=%s", ts.apps[0].ID, slot.GraderID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody[map[string]any](t, rec)["ready"])
}

func TestExportCSV(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/cycles/fall-2026/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "fall-2026-applicants.csv")

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, export.CSVHeader, records[0])

	rec = ts.do(t, http.MethodGet, "/cycles/fall-2026/export?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackup(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/cycles/fall-2026/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "fall-2026-backup.json")

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, cycle, body["semester"])
	assert.Len(t, body["applications"], 4)

	rec = ts.do(t, http.MethodGet, "/cycles/empty/backup", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit_BatchRoutesPerActor(t *testing.T) {
	ts := setupTestServer(t, ratelimit.BatchConfig(60, 2))

	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/cycles/fall-2026/categorize?dry_run=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := ts.do(t, http.MethodPost, "/cycles/fall-2026/scores/recalculate", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 0, ts.store.Calls(memstore.OpUpdateScore))

	// Reads stay available
	rec = ts.do(t, http.MethodGet, "/cycles/fall-2026/workload", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another administrator has their own allowance
	other, err := ts.jwtService.GenerateToken("admin-2")
	require.NoError(t, err)
	ts.token = other
	rec = ts.do(t, http.MethodPost, "/cycles/fall-2026/categorize?dry_run=true", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, nil)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/cycles/fall-2026/workload", nil).Code)

	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	text := rec.Body.String()
	assert.Contains(t, text, `recruit_http_responses_total{code="200",route="GET /cycles/{cycle}/workload"} 1`)
	assert.Contains(t, text, `recruit_batch_runs_total{operation="workload",outcome="success"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/cycles/fall-2026/written/assign", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
