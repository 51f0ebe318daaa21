package types

import "time"

// WrittenGrade is one (applicant, grader, question) scoring slot. A nil Score
// marks an ungraded placeholder.
type WrittenGrade struct {
	ID             GradeID     `json:"id"`
	ApplicantID    ApplicantID `json:"application_id"`
	GraderID       GraderID    `json:"grader_id"`
	QuestionNumber int         `json:"question_number"`
	Score          *int        `json:"score"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Graded reports whether the slot carries a score.
func (g WrittenGrade) Graded() bool { return g.Score != nil }

// NewWrittenGrade is a row to insert into the written grade store.
type NewWrittenGrade struct {
	ApplicantID    ApplicantID
	GraderID       GraderID
	QuestionNumber int
}

// InterviewAssignment binds a grader to an applicant for one interview round.
type InterviewAssignment struct {
	ID          AssignmentID `json:"id"`
	ApplicantID ApplicantID  `json:"application_id"`
	GraderID    GraderID     `json:"grader_id"`
	Round       int          `json:"section"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewInterviewAssignment is a row to insert into the interview assignment store.
type NewInterviewAssignment struct {
	ApplicantID ApplicantID
	GraderID    GraderID
	Round       int
}

// InterviewScore is the score one grader gave one sub-section.
type InterviewScore struct {
	AssignmentID AssignmentID `json:"assignment_id"`
	SubSection   int          `json:"sub_section"`
	Score        *int         `json:"score"`
}

// InterviewNote is a grader's free-text notes for one interview question.
type InterviewNote struct {
	AssignmentID   AssignmentID `json:"assignment_id"`
	QuestionNumber int          `json:"question_number"`
	Notes          string       `json:"notes"`
}

// QuestionType distinguishes written from interview rubric entries.
type QuestionType string

// Rubric question types.
const (
	QuestionWritten   QuestionType = "written"
	QuestionInterview QuestionType = "interview"
)

// Rubric is reference data describing one question.
type Rubric struct {
	ID             string       `json:"id"`
	QuestionNumber int          `json:"question_number"`
	Type           QuestionType `json:"question_type"`
	Round          *int         `json:"section"`
	Text           string       `json:"question_text"`
	Guideline      string       `json:"rubric_content,omitempty"`
}
