// Package types provides type definitions for structured data used throughout the recruitment grading system.
package types

// ApplicantID identifies an application within the record store.
type ApplicantID string

// GraderID identifies a grader account supplied by the identity provider.
type GraderID string

// AssignmentID identifies one interview assignment (applicant, grader, round).
type AssignmentID string

// GradeID identifies one written grade slot.
type GradeID string

// ActorID identifies the administrator performing an action.
type ActorID string

func (id ApplicantID) String() string  { return string(id) }
func (id GraderID) String() string     { return string(id) }
func (id AssignmentID) String() string { return string(id) }
func (id GradeID) String() string      { return string(id) }
func (id ActorID) String() string      { return string(id) }

// ApplicantSet is a set of applicant IDs.
type ApplicantSet map[ApplicantID]struct{}

// GraderSet is a set of grader IDs.
type GraderSet map[GraderID]struct{}

// Add inserts id into the set.
func (s GraderSet) Add(id GraderID) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s GraderSet) Has(id GraderID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s ApplicantSet) Add(id ApplicantID) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s ApplicantSet) Has(id ApplicantID) bool {
	_, ok := s[id]
	return ok
}

// ApplicantIDs extracts the IDs of the given applicants, preserving order.
func ApplicantIDs(apps []Applicant) []ApplicantID {
	ids := make([]ApplicantID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.ID)
	}
	return ids
}
