// Package grading aggregates raw written and interview scores into applicant-level
// averages and records grader score entries.
package grading

import "math"

// Grading layout constants
const (
	QuestionsPerApplicant      = 5
	WrittenGradersPerApplicant = 3
	InterviewGradersPerRound   = 2
	InterviewRounds            = 2
	SubSectionsPerAssignment   = 2

	// ExpectedWrittenScores is the scored written slot count of a fully graded applicant.
	ExpectedWrittenScores = WrittenGradersPerApplicant * QuestionsPerApplicant
	// MinInterviewScores is the floor of the expected interview score count.
	MinInterviewScores = 4
	// MinNoteLength is the trimmed length an interview note needs before submission.
	MinNoteLength = 50

	MinScore = 1
	MaxScore = 5
)

// Round2 rounds to two decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Round2Ptr rounds a nullable figure.
func Round2Ptr(x *float64) *float64 {
	if x == nil {
		return nil
	}
	v := Round2(*x)
	return &v
}

// mean returns the mean of values, or nil when there are none.
func mean(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	avg := float64(sum) / float64(len(values))
	return &avg
}

// Mean returns the mean of the non-nil scores, or nil when none are set.
func Mean(scores []*int) *float64 {
	values := make([]int, 0, len(scores))
	for _, s := range scores {
		if s != nil {
			values = append(values, *s)
		}
	}
	return mean(values)
}

// CombineAverages returns the mean of the non-nil averages, or nil when both are nil.
// The result is not rounded.
func CombineAverages(written, interview *float64) *float64 {
	switch {
	case written != nil && interview != nil:
		total := (*written + *interview) / 2
		return &total
	case written != nil:
		total := *written
		return &total
	case interview != nil:
		total := *interview
		return &total
	default:
		return nil
	}
}
