package types

import "time"

// Outcome is a deliberation result.
type Outcome string

// Deliberation outcomes.
const (
	OutcomeAccept Outcome = "accept"
	OutcomeReject Outcome = "reject"
)

// Status returns the terminal applicant status the outcome drives.
func (o Outcome) Status() Status {
	if o == OutcomeAccept {
		return StatusAccepted
	}
	return StatusRejected
}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	return o == OutcomeAccept || o == OutcomeReject
}

// Decision is the current deliberation decision for an applicant.
type Decision struct {
	ApplicantID ApplicantID `json:"application_id"`
	Outcome     Outcome     `json:"decision"`
	DecidedBy   ActorID     `json:"decided_by"`
	DecidedAt   time.Time   `json:"created_at"`
}
