package deliberation

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recruit-grader/internal/grading"
	"github.com/jonathan/recruit-grader/internal/types"
)

// GraderScore is one grader's score for a written question.
type GraderScore struct {
	GraderID   types.GraderID `json:"grader_id"`
	GraderName string         `json:"grader_name"`
	Score      int            `json:"score"`
}

// QuestionDetail is the scored state of one written question.
type QuestionDetail struct {
	QuestionNumber int           `json:"question_number"`
	QuestionText   string        `json:"question_text"`
	AvgScore       *float64      `json:"avg_score"`
	Graders        []GraderScore `json:"grader_details"`
}

// SubScore is the score of one interview sub-section.
type SubScore struct {
	SubSection int `json:"sub_section"`
	Score      int `json:"score"`
}

// QuestionNote is a grader's notes for one interview question.
type QuestionNote struct {
	QuestionNumber int    `json:"question_number"`
	QuestionText   string `json:"question_text"`
	Notes          string `json:"notes"`
}

// InterviewerDetail is one grader's scores and notes within a round.
type InterviewerDetail struct {
	AssignmentID types.AssignmentID `json:"assignment_id"`
	GraderID     types.GraderID     `json:"grader_id"`
	GraderName   string             `json:"grader_name"`
	SubScores    []SubScore         `json:"sub_scores"`
	Notes        []QuestionNote     `json:"notes"`
}

// RoundDetail is one interview round of an applicant.
type RoundDetail struct {
	Round          int                                        `json:"section"`
	AvgScore       *float64                                   `json:"avg_score"`
	SubSectionAvgs [grading.SubSectionsPerAssignment]*float64 `json:"sub_section_avgs"`
	Interviewers   []InterviewerDetail                        `json:"grader_details"`
}

// ApplicantDetail is everything deliberation shows for one applicant.
type ApplicantDetail struct {
	Applicant    types.Applicant  `json:"applicant"`
	WrittenAvg   *float64         `json:"written_avg"`
	InterviewAvg *float64         `json:"interview_avg"`
	Questions    []QuestionDetail `json:"written_responses"`
	Rounds       []RoundDetail    `json:"interview_sections"`
	Decision     *types.Decision  `json:"decision"`
}

// reference is the lookup data a detail view labels records with.
type reference struct {
	graders   map[types.GraderID]string
	written   map[int]string
	interview map[[2]int]string // {round, question}
	notes     []types.InterviewNote
	decision  *types.Decision
}

func (r *reference) graderName(id types.GraderID) string {
	if name, ok := r.graders[id]; ok {
		return name
	}
	return "Unknown"
}

// ApplicantDetail aggregates one applicant's grades at question, round and
// sub-section level, with grader names, interview notes and the current decision.
// Only scored slots contribute; averages are rounded to two places.
func (s *Service) ApplicantDetail(ctx context.Context, id types.ApplicantID) (*ApplicantDetail, error) {
	if id == "" {
		return nil, types.Inputf("applicant id is required")
	}
	app, err := s.store.GetApplicant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applicant: %w", err)
	}
	if app == nil {
		return nil, &types.NotFoundError{Kind: "applicant", ID: id.String()}
	}

	snap, err := grading.LoadRecords(ctx, s.store, app.Cycle, []types.Applicant{*app})
	if err != nil {
		return nil, err
	}
	assignments := snap.AssignmentsByApplicant[app.ID]
	ref, err := s.loadReference(ctx, app.ID, assignments)
	if err != nil {
		return nil, err
	}

	detail := &ApplicantDetail{
		Applicant: *app,
		Decision:  ref.decision,
	}

	// Written questions
	var written []*int
	byQuestion := make(map[int][]types.WrittenGrade)
	for _, w := range snap.WrittenByApplicant[app.ID] {
		if !w.Graded() {
			continue
		}
		written = append(written, w.Score)
		byQuestion[w.QuestionNumber] = append(byQuestion[w.QuestionNumber], w)
	}
	for q := 1; q <= grading.QuestionsPerApplicant; q++ {
		qd := QuestionDetail{QuestionNumber: q, QuestionText: ref.written[q], Graders: []GraderScore{}}
		if qd.QuestionText == "" {
			qd.QuestionText = fmt.Sprintf("Question %d", q)
		}
		var scores []*int
		for _, w := range byQuestion[q] {
			scores = append(scores, w.Score)
			qd.Graders = append(qd.Graders, GraderScore{GraderID: w.GraderID, GraderName: ref.graderName(w.GraderID), Score: *w.Score})
		}
		qd.AvgScore = grading.Round2Ptr(grading.Mean(scores))
		detail.Questions = append(detail.Questions, qd)
	}
	detail.WrittenAvg = grading.Round2Ptr(grading.Mean(written))

	// Interview rounds, in round order
	notesByAssignment := make(map[types.AssignmentID][]types.InterviewNote)
	for _, n := range ref.notes {
		notesByAssignment[n.AssignmentID] = append(notesByAssignment[n.AssignmentID], n)
	}
	byRound := make(map[int][]types.InterviewAssignment)
	var rounds []int
	for _, a := range assignments {
		if _, ok := byRound[a.Round]; !ok {
			rounds = append(rounds, a.Round)
		}
		byRound[a.Round] = append(byRound[a.Round], a)
	}
	sort.Ints(rounds)

	var interview []*int
	detail.Rounds = make([]RoundDetail, 0, len(rounds))
	for _, round := range rounds {
		rd := RoundDetail{Round: round}
		var (
			roundScores []*int
			bySub       [grading.SubSectionsPerAssignment][]*int
		)
		for _, a := range byRound[round] {
			iv := InterviewerDetail{
				AssignmentID: a.ID,
				GraderID:     a.GraderID,
				GraderName:   ref.graderName(a.GraderID),
				SubScores:    []SubScore{},
				Notes:        []QuestionNote{},
			}
			for _, sc := range snap.ScoresByAssignment[a.ID] {
				if sc.Score == nil {
					continue
				}
				iv.SubScores = append(iv.SubScores, SubScore{SubSection: sc.SubSection, Score: *sc.Score})
				roundScores = append(roundScores, sc.Score)
				if i := sc.SubSection - 1; i >= 0 && i < grading.SubSectionsPerAssignment {
					bySub[i] = append(bySub[i], sc.Score)
				}
			}
			sort.Slice(iv.SubScores, func(i, j int) bool { return iv.SubScores[i].SubSection < iv.SubScores[j].SubSection })

			for _, n := range notesByAssignment[a.ID] {
				text := ref.interview[[2]int{round, n.QuestionNumber}]
				if text == "" {
					text = fmt.Sprintf("Question %d", n.QuestionNumber)
				}
				iv.Notes = append(iv.Notes, QuestionNote{QuestionNumber: n.QuestionNumber, QuestionText: text, Notes: n.Notes})
			}
			sort.Slice(iv.Notes, func(i, j int) bool { return iv.Notes[i].QuestionNumber < iv.Notes[j].QuestionNumber })
			rd.Interviewers = append(rd.Interviewers, iv)
		}
		rd.AvgScore = grading.Round2Ptr(grading.Mean(roundScores))
		for i := range bySub {
			rd.SubSectionAvgs[i] = grading.Round2Ptr(grading.Mean(bySub[i]))
		}
		interview = append(interview, roundScores...)
		detail.Rounds = append(detail.Rounds, rd)
	}
	detail.InterviewAvg = grading.Round2Ptr(grading.Mean(interview))
	return detail, nil
}

// loadReference fetches grader names, rubric texts, interview notes and the
// applicant's decision concurrently.
func (s *Service) loadReference(ctx context.Context, id types.ApplicantID, assignments []types.InterviewAssignment) (*reference, error) {
	ref := &reference{
		graders:   make(map[types.GraderID]string),
		written:   make(map[int]string),
		interview: make(map[[2]int]string),
	}
	assignmentIDs := make([]types.AssignmentID, 0, len(assignments))
	for _, a := range assignments {
		assignmentIDs = append(assignmentIDs, a.ID)
	}

	var (
		pool             []types.Grader
		writtenRubrics   []types.Rubric
		interviewRubrics []types.Rubric
		decisions        []types.Decision
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if pool, err = s.store.ListGraderPool(gctx); err != nil {
			return fmt.Errorf("failed to fetch graders: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if writtenRubrics, err = s.store.ListRubrics(gctx, types.QuestionWritten); err != nil {
			return fmt.Errorf("failed to fetch written rubrics: %w", err)
		}
		if interviewRubrics, err = s.store.ListRubrics(gctx, types.QuestionInterview); err != nil {
			return fmt.Errorf("failed to fetch interview rubrics: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if decisions, err = s.store.ListDecisions(gctx, []types.ApplicantID{id}); err != nil {
			return fmt.Errorf("failed to fetch decisions: %w", err)
		}
		return nil
	})
	if len(assignmentIDs) > 0 {
		g.Go(func() (err error) {
			if ref.notes, err = s.store.ListInterviewNotes(gctx, assignmentIDs); err != nil {
				return fmt.Errorf("failed to fetch interview notes: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, gr := range pool {
		name := gr.TCName
		if name == "" {
			name = gr.FullName
		}
		ref.graders[gr.ID] = name
	}
	for _, r := range writtenRubrics {
		ref.written[r.QuestionNumber] = r.Text
	}
	for _, r := range interviewRubrics {
		if r.Round != nil {
			ref.interview[[2]int{*r.Round, r.QuestionNumber}] = r.Text
		}
	}
	for i := range decisions {
		if decisions[i].ApplicantID == id {
			ref.decision = &decisions[i]
		}
	}
	return ref, nil
}
