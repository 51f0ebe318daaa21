package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jonathan/recruit-grader/internal/export"
	"github.com/jonathan/recruit-grader/internal/server/middleware"
	"github.com/jonathan/recruit-grader/internal/types"
)

// routes registers the authenticated admin API.
func (s *Server) routes(mux *http.ServeMux) {
	// Batch operations
	s.handle(mux, "POST /cycles/{cycle}/scores/recalculate", s.handleRecalculate)
	s.handle(mux, "POST /cycles/{cycle}/categorize", s.handleCategorize)
	s.handle(mux, "POST /cycles/{cycle}/written/assign", s.handleAssignWritten)
	s.handle(mux, "POST /cycles/{cycle}/written/fill", s.handleFillWritten)
	s.handle(mux, "POST /cycles/{cycle}/written/clear", s.handleClearWritten)
	s.handle(mux, "POST /cycles/{cycle}/interview/fill", s.handleFillInterview)

	// Cycle views
	s.handle(mux, "GET /cycles/{cycle}/categories", s.handlePreviewCategories)
	s.handle(mux, "GET /cycles/{cycle}/written", s.handleWrittenOverview)
	s.handle(mux, "GET /cycles/{cycle}/interview", s.handleInterviewOverview)
	s.handle(mux, "GET /cycles/{cycle}/workload", s.handleWorkload)
	s.handle(mux, "GET /cycles/{cycle}/deliberation", s.handleDeliberation)

	// Exports
	s.handle(mux, "GET /cycles/{cycle}/export", s.handleExportJSON)
	s.handle(mux, "GET /cycles/{cycle}/export.csv", s.handleExportCSV)
	s.handle(mux, "GET /cycles/{cycle}/backup", s.handleBackup)
	s.handle(mux, "GET /cycles/{cycle}/analytics", s.handleAnalytics)

	// Single-applicant edits
	s.handle(mux, "PUT /applicants/{id}/written/graders", s.handleSaveWrittenGraders)
	s.handle(mux, "PUT /applicants/{id}/interview/{round}/graders", s.handleSaveInterviewGraders)
	s.handle(mux, "PUT /applicants/{id}/decision", s.handleRecordDecision)
	s.handle(mux, "GET /applicants/{id}/written/submission", s.handleCheckWritten)
	s.handle(mux, "GET /applicants/{id}", s.handleApplicantDetail)

	// Grade entry
	s.handle(mux, "PUT /written-grades/{id}/score", s.handleWriteWrittenScore)
	s.handle(mux, "PUT /interview-assignments/{id}/scores", s.handleWriteInterviewScore)
	s.handle(mux, "PUT /interview-assignments/{id}/notes", s.handleSaveNote)
	s.handle(mux, "GET /interview-assignments/{id}/submission", s.handleCheckInterview)
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return types.Inputf("invalid request body: %v", err)
	}
	return nil
}

// ---- Batch Handlers ----

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	result, err := s.admin.RecalculateScores(r.Context(), r.PathValue("cycle"))
	s.respond(w, result, err)
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.respond(w, nil, types.Inputf("invalid dry_run value: %q", v))
			return
		}
		dryRun = parsed
	}
	result, err := s.admin.Categorize(r.Context(), r.PathValue("cycle"), dryRun)
	s.respond(w, result, err)
}

func (s *Server) handleAssignWritten(w http.ResponseWriter, r *http.Request) {
	result, err := s.admin.AssignWritten(r.Context(), r.PathValue("cycle"))
	s.respond(w, result, err)
}

func (s *Server) handleFillWritten(w http.ResponseWriter, r *http.Request) {
	result, err := s.admin.FillWrittenGaps(r.Context(), r.PathValue("cycle"))
	s.respond(w, result, err)
}

func (s *Server) handleClearWritten(w http.ResponseWriter, r *http.Request) {
	result, err := s.admin.ClearUngradedWritten(r.Context(), r.PathValue("cycle"))
	s.respond(w, result, err)
}

// handleFillInterview fills both rounds, or only the rounds named by ?round=.
func (s *Server) handleFillInterview(w http.ResponseWriter, r *http.Request) {
	var rounds []int
	for _, v := range r.URL.Query()["round"] {
		round, err := strconv.Atoi(v)
		if err != nil {
			s.respond(w, nil, types.Inputf("invalid round: %q", v))
			return
		}
		rounds = append(rounds, round)
	}
	result, err := s.admin.FillInterviewGaps(r.Context(), r.PathValue("cycle"), rounds...)
	s.respond(w, result, err)
}

// ---- View Handlers ----

func (s *Server) handlePreviewCategories(w http.ResponseWriter, r *http.Request) {
	tiers, err := s.admin.PreviewCategories(r.Context(), r.PathValue("cycle"))
	s.respond(w, tiers, err)
}

func (s *Server) handleWrittenOverview(w http.ResponseWriter, r *http.Request) {
	views, err := s.admin.WrittenOverview(r.Context(), r.PathValue("cycle"))
	s.respond(w, views, err)
}

func (s *Server) handleInterviewOverview(w http.ResponseWriter, r *http.Request) {
	views, err := s.admin.InterviewOverview(r.Context(), r.PathValue("cycle"))
	s.respond(w, views, err)
}

func (s *Server) handleWorkload(w http.ResponseWriter, r *http.Request) {
	report, err := s.admin.Workload(r.Context(), r.PathValue("cycle"))
	s.respond(w, report, err)
}

func (s *Server) handleDeliberation(w http.ResponseWriter, r *http.Request) {
	entries, err := s.admin.DeliberationList(r.Context(), r.PathValue("cycle"))
	s.respond(w, entries, err)
}

func (s *Server) handleApplicantDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.admin.ApplicantDetail(r.Context(), types.ApplicantID(r.PathValue("id")))
	s.respond(w, detail, err)
}

// ---- Export Handlers ----

func statusesFrom(r *http.Request) []types.Status {
	var statuses []types.Status
	for _, v := range r.URL.Query()["status"] {
		statuses = append(statuses, types.Status(v))
	}
	return statuses
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	rows, err := s.admin.ExportRows(r.Context(), r.PathValue("cycle"), statusesFrom(r)...)
	s.respond(w, rows, err)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	cycle := r.PathValue("cycle")
	rows, err := s.admin.ExportRows(r.Context(), cycle, statusesFrom(r)...)
	if err != nil {
		s.respond(w, nil, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-applicants.csv"`, cycle))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, rows); err != nil {
		s.logger.Error("failed to write CSV export", slog.String("cycle", cycle), slog.String("error", err.Error()))
	}
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	cycle := r.PathValue("cycle")
	backup, err := s.admin.Backup(r.Context(), cycle)
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-backup.json"`, cycle))
	s.jsonResponse(w, http.StatusOK, backup)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.admin.Analytics(r.Context(), r.PathValue("cycle"))
	s.respond(w, analytics, err)
}

// ---- Applicant Handlers ----

func (s *Server) handleSaveWrittenGraders(w http.ResponseWriter, r *http.Request) {
	var req types.SaveGradersRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, nil, err)
		return
	}
	req.ApplicantID = types.ApplicantID(r.PathValue("id"))
	req.Round = 1
	result, err := s.admin.SaveWrittenGraders(r.Context(), req)
	s.respond(w, result, err)
}

func (s *Server) handleSaveInterviewGraders(w http.ResponseWriter, r *http.Request) {
	round, err := strconv.Atoi(r.PathValue("round"))
	if err != nil {
		s.respond(w, nil, types.Inputf("invalid round: %q", r.PathValue("round")))
		return
	}
	var req types.SaveGradersRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, nil, err)
		return
	}
	req.ApplicantID = types.ApplicantID(r.PathValue("id"))
	req.Round = round
	result, err := s.admin.SaveInterviewGraders(r.Context(), req)
	s.respond(w, result, err)
}

func (s *Server) handleRecordDecision(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorID(r)
	if !ok {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req types.RecordDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, nil, err)
		return
	}
	req.ApplicantID = types.ApplicantID(r.PathValue("id"))
	if err := s.admin.RecordDecision(r.Context(), req, actor); err != nil {
		s.respond(w, nil, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": string(req.Outcome.Status())})
}

func (s *Server) handleCheckWritten(w http.ResponseWriter, r *http.Request) {
	check, err := s.admin.CheckWrittenSubmission(r.Context(),
		types.ApplicantID(r.PathValue("id")),
		types.GraderID(r.URL.Query().Get("grader_id")))
	s.respond(w, check, err)
}

// ---- Grade Entry Handlers ----

func (s *Server) handleWriteWrittenScore(w http.ResponseWriter, r *http.Request) {
	var req types.WrittenScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, nil, err)
		return
	}
	req.GradeID = types.GradeID(r.PathValue("id"))
	if err := s.admin.WriteWrittenScore(r.Context(), req); err != nil {
		s.respond(w, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWriteInterviewScore(w http.ResponseWriter, r *http.Request) {
	var req types.InterviewScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, nil, err)
		return
	}
	req.AssignmentID = types.AssignmentID(r.PathValue("id"))
	if err := s.admin.WriteInterviewScore(r.Context(), req); err != nil {
		s.respond(w, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveNote(w http.ResponseWriter, r *http.Request) {
	var req types.InterviewNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, nil, err)
		return
	}
	req.AssignmentID = types.AssignmentID(r.PathValue("id"))
	if err := s.admin.SaveInterviewNote(r.Context(), req); err != nil {
		s.respond(w, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckInterview(w http.ResponseWriter, r *http.Request) {
	check, err := s.admin.CheckInterviewSubmission(r.Context(),
		types.AssignmentID(r.PathValue("id")),
		types.GraderID(r.URL.Query().Get("grader_id")))
	s.respond(w, check, err)
}
