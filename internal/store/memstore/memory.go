// Package memstore provides an in-memory store.RecordStore with failure injection.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/types"
)

// Operation names accepted by FailOn.
const (
	OpListApplicants        = "list_applicants"
	OpListWrittenGrades     = "list_written_grades"
	OpListInterview         = "list_interview_assignments"
	OpListInterviewScores   = "list_interview_scores"
	OpUpdateScore           = "update_applicant_score"
	OpUpdateStatus          = "update_applicant_status"
	OpBulkStatus            = "bulk_update_applicant_status"
	OpInsertWritten         = "bulk_insert_written_grades"
	OpInsertInterview       = "insert_interview_assignments"
	OpDeleteWritten         = "delete_ungraded_written_grades"
	OpDeleteAssignments     = "delete_assignments"
	OpUpsertDecision        = "upsert_decision"
	OpListGraderPool        = "list_grader_pool"
	OpUpsertInterviewScore  = "upsert_interview_score"
	OpUpdateWrittenScore    = "update_written_score"
	OpListDecisions         = "list_decisions"
	OpListInterviewNotes    = "list_interview_notes"
	OpCountWrittenGrades    = "count_written_grades"
	OpUpsertInterviewNote   = "upsert_interview_note"
	OpListRubrics           = "list_rubrics"
	OpGetApplicant          = "get_applicant"
	OpGetWrittenGrade       = "get_written_grade"
	OpGetInterviewAssigment = "get_interview_assignment"
)

type scoreKey struct {
	assignment types.AssignmentID
	subSection int
}

type noteKey struct {
	assignment types.AssignmentID
	question   int
}

type state struct {
	applicants  map[types.ApplicantID]types.Applicant
	written     map[types.GradeID]types.WrittenGrade
	assignments map[types.AssignmentID]types.InterviewAssignment
	scores      map[scoreKey]types.InterviewScore
	notes       map[noteKey]types.InterviewNote
	decisions   map[types.ApplicantID]types.Decision
	graders     []types.Grader
	rubrics     []types.Rubric
	lastCreated time.Time
}

func newState() *state {
	return &state{
		applicants:  make(map[types.ApplicantID]types.Applicant),
		written:     make(map[types.GradeID]types.WrittenGrade),
		assignments: make(map[types.AssignmentID]types.InterviewAssignment),
		scores:      make(map[scoreKey]types.InterviewScore),
		notes:       make(map[noteKey]types.InterviewNote),
		decisions:   make(map[types.ApplicantID]types.Decision),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.applicants {
		c.applicants[k] = v
	}
	for k, v := range s.written {
		c.written[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	for k, v := range s.scores {
		c.scores[k] = v
	}
	for k, v := range s.notes {
		c.notes[k] = v
	}
	for k, v := range s.decisions {
		c.decisions[k] = v
	}
	c.graders = append([]types.Grader(nil), s.graders...)
	c.rubrics = append([]types.Rubric(nil), s.rubrics...)
	c.lastCreated = s.lastCreated
	return c
}

// Memory is an in-memory RecordStore. The zero value is not usable; call New.
//
// Writes are serialized by the writer lock, which an open transaction holds
// until it commits or rolls back. Reads never wait for a transaction and see
// the last committed state.
type Memory struct {
	mu       *sync.Mutex // guards st, failures and calls
	writer   *sync.Mutex
	inTx     bool
	st       *state
	failures map[string]error
	calls    map[string]int
}

var _ store.RecordStore = (*Memory)(nil)

// New creates an empty in-memory store.
func New() *Memory {
	return &Memory{
		mu:       &sync.Mutex{},
		writer:   &sync.Mutex{},
		st:       newState(),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// FailOn makes operation op fail with err. An empty key fails every call;
// otherwise only calls for that entity ID (or status value) fail.
func (m *Memory) FailOn(op, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op+"|"+key] = err
}

// ClearFailures removes every injected failure.
func (m *Memory) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.failures)
}

// Calls returns how many times op has been invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// check records the call and returns any injected failure. Caller holds mu.
func (m *Memory) check(op, key string) error {
	m.calls[op]++
	if err, ok := m.failures[op+"|"]; ok {
		return err
	}
	if key != "" {
		if err, ok := m.failures[op+"|"+key]; ok {
			return err
		}
	}
	return nil
}

func (m *Memory) nextID() string {
	return uuid.NewString()
}

// stamp returns a creation time strictly after every earlier one, so records
// keep their insertion order. Caller holds mu.
func (m *Memory) stamp() time.Time {
	now := time.Now()
	if !now.After(m.st.lastCreated) {
		now = m.st.lastCreated.Add(time.Nanosecond)
	}
	m.st.lastCreated = now
	return now
}

// ---------------------------------------------------------------------
// Seeding
// ---------------------------------------------------------------------

// AddApplicant stores an applicant, generating an ID when it has none.
func (m *Memory) AddApplicant(a types.Applicant) types.Applicant {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = types.ApplicantID(m.nextID())
	}
	if a.Status == "" {
		a.Status = types.StatusPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.st.applicants[a.ID] = a
	return a
}

// AddGrader appends a grader to the pool.
func (m *Memory) AddGrader(g types.Grader) types.Grader {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == "" {
		g.ID = types.GraderID(m.nextID())
	}
	m.st.graders = append(m.st.graders, g)
	return g
}

// AddRubric stores a rubric entry.
func (m *Memory) AddRubric(r types.Rubric) {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = m.nextID()
	}
	m.st.rubrics = append(m.st.rubrics, r)
}

// Fixture is the JSON document accepted by LoadFixture.
type Fixture struct {
	Applicants           []types.Applicant           `json:"applicants"`
	Graders              []types.Grader              `json:"graders"`
	Rubrics              []types.Rubric              `json:"rubrics"`
	WrittenGrades        []types.WrittenGrade        `json:"written_grades"`
	InterviewAssignments []types.InterviewAssignment `json:"interview_assignments"`
	InterviewScores      []types.InterviewScore      `json:"interview_scores"`
	InterviewNotes       []types.InterviewNote       `json:"interview_notes"`
	Decisions            []types.Decision            `json:"decisions"`
}

// LoadFixture seeds the store from a JSON fixture.
func (m *Memory) LoadFixture(r io.Reader) error {
	var fx Fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return fmt.Errorf("failed to parse fixture JSON: %w", err)
	}
	for _, a := range fx.Applicants {
		m.AddApplicant(a)
	}
	for _, g := range fx.Graders {
		m.AddGrader(g)
	}
	for _, rb := range fx.Rubrics {
		m.AddRubric(rb)
	}

	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range fx.WrittenGrades {
		if g.ID == "" {
			g.ID = types.GradeID(m.nextID())
		}
		m.st.written[g.ID] = g
	}
	for _, a := range fx.InterviewAssignments {
		if a.ID == "" {
			a.ID = types.AssignmentID(m.nextID())
		}
		m.st.assignments[a.ID] = a
	}
	for _, s := range fx.InterviewScores {
		m.st.scores[scoreKey{s.AssignmentID, s.SubSection}] = s
	}
	for _, n := range fx.InterviewNotes {
		m.st.notes[noteKey{n.AssignmentID, n.QuestionNumber}] = n
	}
	for _, d := range fx.Decisions {
		m.st.decisions[d.ApplicantID] = d
	}
	return nil
}

// ---------------------------------------------------------------------
// Applicants
// ---------------------------------------------------------------------

// ListApplicants returns the cycle's applicants ordered by anonymous ID.
func (m *Memory) ListApplicants(_ context.Context, cycle string) ([]types.Applicant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListApplicants, cycle); err != nil {
		return nil, err
	}
	var apps []types.Applicant
	for _, a := range m.st.applicants {
		if a.Cycle == cycle {
			apps = append(apps, a)
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].AnonymousID != apps[j].AnonymousID {
			return apps[i].AnonymousID < apps[j].AnonymousID
		}
		return apps[i].ID < apps[j].ID
	})
	return apps, nil
}

// GetApplicant returns the applicant or nil when it does not exist.
func (m *Memory) GetApplicant(_ context.Context, id types.ApplicantID) (*types.Applicant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpGetApplicant, string(id)); err != nil {
		return nil, err
	}
	a, ok := m.st.applicants[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// UpdateApplicantScore stores the cached total score.
func (m *Memory) UpdateApplicantScore(_ context.Context, id types.ApplicantID, score *float64) error {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpUpdateScore, string(id)); err != nil {
		return err
	}
	a, ok := m.st.applicants[id]
	if !ok {
		return fmt.Errorf("applicant not found: %s", id)
	}
	if score != nil {
		v := *score
		score = &v
	}
	a.TotalScore = score
	m.st.applicants[id] = a
	return nil
}

// UpdateApplicantStatus sets the status of one applicant.
func (m *Memory) UpdateApplicantStatus(_ context.Context, id types.ApplicantID, status types.Status) error {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpUpdateStatus, string(id)); err != nil {
		return err
	}
	a, ok := m.st.applicants[id]
	if !ok {
		return fmt.Errorf("applicant not found: %s", id)
	}
	a.Status = status
	m.st.applicants[id] = a
	return nil
}

// BulkUpdateApplicantStatus sets status on every non-terminal applicant in ids.
func (m *Memory) BulkUpdateApplicantStatus(_ context.Context, ids []types.ApplicantID, status types.Status) (int, error) {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpBulkStatus, string(status)); err != nil {
		return 0, err
	}
	changed := 0
	for _, id := range ids {
		a, ok := m.st.applicants[id]
		if !ok || a.Status.IsTerminal() {
			continue
		}
		a.Status = status
		m.st.applicants[id] = a
		changed++
	}
	return changed, nil
}

// ---------------------------------------------------------------------
// Written grading
// ---------------------------------------------------------------------

// ListWrittenGrades returns every written slot of the given applicants.
func (m *Memory) ListWrittenGrades(_ context.Context, ids []types.ApplicantID) ([]types.WrittenGrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListWrittenGrades, ""); err != nil {
		return nil, err
	}
	want := toSet(ids)
	var out []types.WrittenGrade
	for _, g := range m.st.written {
		if want.Has(g.ApplicantID) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ApplicantID != out[j].ApplicantID {
			return out[i].ApplicantID < out[j].ApplicantID
		}
		if out[i].GraderID != out[j].GraderID {
			return out[i].GraderID < out[j].GraderID
		}
		return out[i].QuestionNumber < out[j].QuestionNumber
	})
	return out, nil
}

// CountWrittenGrades counts written slots for the given applicants.
func (m *Memory) CountWrittenGrades(_ context.Context, ids []types.ApplicantID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpCountWrittenGrades, ""); err != nil {
		return 0, err
	}
	want := toSet(ids)
	n := 0
	for _, g := range m.st.written {
		if want.Has(g.ApplicantID) {
			n++
		}
	}
	return n, nil
}

// GetWrittenGrade returns one slot or nil.
func (m *Memory) GetWrittenGrade(_ context.Context, id types.GradeID) (*types.WrittenGrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpGetWrittenGrade, string(id)); err != nil {
		return nil, err
	}
	g, ok := m.st.written[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

// BulkInsertWrittenGrades inserts unscored slots. The batch is all-or-nothing.
func (m *Memory) BulkInsertWrittenGrades(_ context.Context, rows []types.NewWrittenGrade) (int, error) {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ""
	if len(rows) > 0 {
		key = string(rows[0].ApplicantID)
	}
	if err := m.check(OpInsertWritten, key); err != nil {
		return 0, err
	}
	for _, r := range rows {
		for _, g := range m.st.written {
			if g.ApplicantID == r.ApplicantID && g.GraderID == r.GraderID && g.QuestionNumber == r.QuestionNumber {
				return 0, fmt.Errorf("duplicate key: written grade (%s, %s, %d)", r.ApplicantID, r.GraderID, r.QuestionNumber)
			}
		}
	}
	now := time.Now()
	for _, r := range rows {
		id := types.GradeID(m.nextID())
		m.st.written[id] = types.WrittenGrade{
			ID:             id,
			ApplicantID:    r.ApplicantID,
			GraderID:       r.GraderID,
			QuestionNumber: r.QuestionNumber,
			CreatedAt:      now,
		}
	}
	return len(rows), nil
}

// UpdateWrittenScore records a grader's score on one slot.
func (m *Memory) UpdateWrittenScore(_ context.Context, id types.GradeID, score int) error {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpUpdateWrittenScore, string(id)); err != nil {
		return err
	}
	g, ok := m.st.written[id]
	if !ok {
		return fmt.Errorf("written grade not found: %s", id)
	}
	g.Score = &score
	m.st.written[id] = g
	return nil
}

// DeleteUngradedWrittenGrades removes the applicant's unscored slots.
func (m *Memory) DeleteUngradedWrittenGrades(_ context.Context, id types.ApplicantID) (int, error) {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpDeleteWritten, string(id)); err != nil {
		return 0, err
	}
	n := 0
	for gid, g := range m.st.written {
		if g.ApplicantID == id && g.Score == nil {
			delete(m.st.written, gid)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------
// Interview grading
// ---------------------------------------------------------------------

// ListInterviewAssignments returns the assignments of the given applicants.
func (m *Memory) ListInterviewAssignments(_ context.Context, ids []types.ApplicantID) ([]types.InterviewAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListInterview, ""); err != nil {
		return nil, err
	}
	want := toSet(ids)
	var out []types.InterviewAssignment
	for _, a := range m.st.assignments {
		if want.Has(a.ApplicantID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetInterviewAssignment returns one assignment or nil.
func (m *Memory) GetInterviewAssignment(_ context.Context, id types.AssignmentID) (*types.InterviewAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpGetInterviewAssigment, string(id)); err != nil {
		return nil, err
	}
	a, ok := m.st.assignments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// InsertInterviewAssignments creates assignments plus their unscored sub-section slots.
func (m *Memory) InsertInterviewAssignments(_ context.Context, rows []types.NewInterviewAssignment) ([]types.InterviewAssignment, error) {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ""
	if len(rows) > 0 {
		key = string(rows[0].ApplicantID)
	}
	if err := m.check(OpInsertInterview, key); err != nil {
		return nil, err
	}
	for _, r := range rows {
		for _, a := range m.st.assignments {
			if a.ApplicantID == r.ApplicantID && a.GraderID == r.GraderID && a.Round == r.Round {
				return nil, fmt.Errorf("duplicate key: interview assignment (%s, %s, %d)", r.ApplicantID, r.GraderID, r.Round)
			}
		}
	}
	out := make([]types.InterviewAssignment, 0, len(rows))
	for _, r := range rows {
		a := types.InterviewAssignment{
			ID:          types.AssignmentID(m.nextID()),
			ApplicantID: r.ApplicantID,
			GraderID:    r.GraderID,
			Round:       r.Round,
			CreatedAt:   m.stamp(),
		}
		m.st.assignments[a.ID] = a
		for sub := 1; sub <= 2; sub++ {
			m.st.scores[scoreKey{a.ID, sub}] = types.InterviewScore{AssignmentID: a.ID, SubSection: sub}
		}
		out = append(out, a)
	}
	return out, nil
}

// graded reports whether an assignment has any score or note. Caller holds mu.
func (m *Memory) graded(id types.AssignmentID) bool {
	for k, s := range m.st.scores {
		if k.assignment == id && s.Score != nil {
			return true
		}
	}
	for k, n := range m.st.notes {
		if k.assignment == id && strings.TrimSpace(n.Notes) != "" {
			return true
		}
	}
	return false
}

// DeleteAssignments removes the ungraded assignments of one applicant and round.
func (m *Memory) DeleteAssignments(_ context.Context, id types.ApplicantID, round int) (int, error) {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpDeleteAssignments, string(id)); err != nil {
		return 0, err
	}
	n := 0
	for aid, a := range m.st.assignments {
		if a.ApplicantID != id || a.Round != round || m.graded(aid) {
			continue
		}
		delete(m.st.assignments, aid)
		for k := range m.st.scores {
			if k.assignment == aid {
				delete(m.st.scores, k)
			}
		}
		for k := range m.st.notes {
			if k.assignment == aid {
				delete(m.st.notes, k)
			}
		}
		n++
	}
	return n, nil
}

// ListInterviewScores returns the score slots of the given assignments.
func (m *Memory) ListInterviewScores(_ context.Context, ids []types.AssignmentID) ([]types.InterviewScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListInterviewScores, ""); err != nil {
		return nil, err
	}
	want := make(map[types.AssignmentID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []types.InterviewScore
	for k, s := range m.st.scores {
		if _, ok := want[k.assignment]; ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssignmentID != out[j].AssignmentID {
			return out[i].AssignmentID < out[j].AssignmentID
		}
		return out[i].SubSection < out[j].SubSection
	})
	return out, nil
}

// UpsertInterviewScore writes a sub-section score.
func (m *Memory) UpsertInterviewScore(_ context.Context, id types.AssignmentID, subSection, score int) error {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpUpsertInterviewScore, string(id)); err != nil {
		return err
	}
	if _, ok := m.st.assignments[id]; !ok {
		return fmt.Errorf("interview assignment not found: %s", id)
	}
	m.st.scores[scoreKey{id, subSection}] = types.InterviewScore{AssignmentID: id, SubSection: subSection, Score: &score}
	return nil
}

// ListInterviewNotes returns the notes of the given assignments.
func (m *Memory) ListInterviewNotes(_ context.Context, ids []types.AssignmentID) ([]types.InterviewNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListInterviewNotes, ""); err != nil {
		return nil, err
	}
	want := make(map[types.AssignmentID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []types.InterviewNote
	for k, n := range m.st.notes {
		if _, ok := want[k.assignment]; ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssignmentID != out[j].AssignmentID {
			return out[i].AssignmentID < out[j].AssignmentID
		}
		return out[i].QuestionNumber < out[j].QuestionNumber
	})
	return out, nil
}

// UpsertInterviewNote writes notes for one question.
func (m *Memory) UpsertInterviewNote(_ context.Context, id types.AssignmentID, questionNumber int, notes string) error {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpUpsertInterviewNote, string(id)); err != nil {
		return err
	}
	if _, ok := m.st.assignments[id]; !ok {
		return fmt.Errorf("interview assignment not found: %s", id)
	}
	m.st.notes[noteKey{id, questionNumber}] = types.InterviewNote{AssignmentID: id, QuestionNumber: questionNumber, Notes: notes}
	return nil
}

// ---------------------------------------------------------------------
// Deliberation and reference data
// ---------------------------------------------------------------------

// UpsertDecision inserts or replaces the applicant's current decision.
func (m *Memory) UpsertDecision(_ context.Context, id types.ApplicantID, outcome types.Outcome, actor types.ActorID) error {
	defer m.beginWrite()()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpUpsertDecision, string(id)); err != nil {
		return err
	}
	m.st.decisions[id] = types.Decision{ApplicantID: id, Outcome: outcome, DecidedBy: actor, DecidedAt: time.Now()}
	return nil
}

// ListDecisions returns the current decisions of the given applicants.
func (m *Memory) ListDecisions(_ context.Context, ids []types.ApplicantID) ([]types.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListDecisions, ""); err != nil {
		return nil, err
	}
	var out []types.Decision
	for _, id := range ids {
		if d, ok := m.st.decisions[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListGraderPool returns the grader pool ordered by name.
func (m *Memory) ListGraderPool(_ context.Context) ([]types.Grader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListGraderPool, ""); err != nil {
		return nil, err
	}
	out := append([]types.Grader(nil), m.st.graders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// ListRubrics returns rubric entries of one question type.
func (m *Memory) ListRubrics(_ context.Context, questionType types.QuestionType) ([]types.Rubric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListRubrics, string(questionType)); err != nil {
		return nil, err
	}
	var out []types.Rubric
	for _, r := range m.st.rubrics {
		if r.Type == questionType {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

// InTx runs fn against a copy of the current state and publishes the copy on
// success. Other writers block until the transaction finishes; nested calls run
// inside the enclosing transaction.
func (m *Memory) InTx(_ context.Context, fn func(tx store.RecordStore) error) error {
	if m.inTx {
		return fn(m)
	}
	m.writer.Lock()
	defer m.writer.Unlock()

	m.mu.Lock()
	tx := &Memory{
		mu:       m.mu,
		writer:   m.writer,
		inTx:     true,
		st:       m.st.clone(),
		failures: m.failures,
		calls:    m.calls,
	}
	m.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.st = tx.st
	m.mu.Unlock()
	return nil
}

// beginWrite takes the writer lock unless m is a transaction view, which
// already holds it. It returns the release func.
func (m *Memory) beginWrite() func() {
	if m.inTx {
		return func() {}
	}
	m.writer.Lock()
	return m.writer.Unlock
}

func toSet(ids []types.ApplicantID) types.ApplicantSet {
	set := make(types.ApplicantSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}
