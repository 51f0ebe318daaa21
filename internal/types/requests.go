package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SaveGradersRequest replaces the grader set of one applicant for one round.
// Written grading uses round 1.
type SaveGradersRequest struct {
	ApplicantID ApplicantID `json:"application_id" validate:"required"`
	Round       int         `json:"section" validate:"min=1,max=2"`
	GraderIDs   []GraderID  `json:"grader_ids" validate:"required,dive,required"`
}

// Validate validates the SaveGradersRequest using the validator.
func (r *SaveGradersRequest) Validate() error {
	return toInputError(validate.Struct(r))
}

// RecordDecisionRequest records a deliberation outcome.
type RecordDecisionRequest struct {
	ApplicantID ApplicantID `json:"application_id" validate:"required"`
	Outcome     Outcome     `json:"decision" validate:"required,oneof=accept reject"`
}

// Validate validates the RecordDecisionRequest using the validator.
func (r *RecordDecisionRequest) Validate() error {
	return toInputError(validate.Struct(r))
}

// WrittenScoreRequest writes a grader's score into one written slot.
type WrittenScoreRequest struct {
	GradeID  GradeID  `json:"grade_id" validate:"required"`
	GraderID GraderID `json:"grader_id" validate:"required"`
	Score    int      `json:"score" validate:"min=1,max=5"`
}

// Validate validates the WrittenScoreRequest using the validator.
func (r *WrittenScoreRequest) Validate() error {
	return toInputError(validate.Struct(r))
}

// InterviewScoreRequest writes a grader's score for one interview sub-section.
type InterviewScoreRequest struct {
	AssignmentID AssignmentID `json:"assignment_id" validate:"required"`
	GraderID     GraderID     `json:"grader_id" validate:"required"`
	SubSection   int          `json:"sub_section" validate:"min=1,max=2"`
	Score        int          `json:"score" validate:"min=1,max=5"`
}

// Validate validates the InterviewScoreRequest using the validator.
func (r *InterviewScoreRequest) Validate() error {
	return toInputError(validate.Struct(r))
}

// InterviewNoteRequest saves a grader's notes for one interview question.
type InterviewNoteRequest struct {
	AssignmentID   AssignmentID `json:"assignment_id" validate:"required"`
	GraderID       GraderID     `json:"grader_id" validate:"required"`
	QuestionNumber int          `json:"question_number" validate:"min=1"`
	Notes          string       `json:"notes"`
}

// Validate validates the InterviewNoteRequest using the validator.
func (r *InterviewNoteRequest) Validate() error {
	return toInputError(validate.Struct(r))
}

// toInputError flattens validator field errors into a single InputError.
func toInputError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &InputError{Message: err.Error()}
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return &InputError{Message: "invalid request: " + strings.Join(parts, "; ")}
}
