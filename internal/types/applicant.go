package types

import "time"

// Status is the pipeline state of an application.
type Status string

// Application statuses. Accepted and rejected are terminal.
const (
	StatusPending    Status = "pending"
	StatusAutoAccept Status = "auto_accept"
	StatusDiscuss    Status = "discuss"
	StatusAutoReject Status = "auto_reject"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
)

// AllStatuses lists every status in pipeline order.
var AllStatuses = []Status{
	StatusPending,
	StatusAutoAccept,
	StatusDiscuss,
	StatusAutoReject,
	StatusAccepted,
	StatusRejected,
}

// IsTerminal reports whether the status is immune to automatic recategorization.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Applicant is one application in a recruitment cycle.
type Applicant struct {
	ID             ApplicantID `json:"id"`
	AnonymousID    string      `json:"anonymous_id"`
	Cycle          string      `json:"cycle"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Pronouns       string      `json:"pronouns,omitempty"`
	Email          string      `json:"email"`
	PhoneNumber    string      `json:"phone_number"`
	Major          string      `json:"major"`
	GraduationYear int         `json:"graduation_year"`
	Gender         string      `json:"gender"`
	SpanishFluent  bool        `json:"spanish_fluent"`
	CanAttendCamp  bool        `json:"can_attend_camp"`
	Status         Status      `json:"status"`
	TotalScore     *float64    `json:"total_score"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Grader is a member of the grader pool.
type Grader struct {
	ID       GraderID `json:"id"`
	FullName string   `json:"full_name"`
	TCName   string   `json:"tc_name,omitempty"`
}
