package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpected is returned at the admin boundary in place of unclassified failures.
var ErrUnexpected = errors.New("an unexpected error occurred")

// InputError indicates missing or invalid required data. No writes were attempted.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// Inputf builds an InputError from a format string.
func Inputf(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError indicates the request collides with existing state, such as a
// duplicate grader selection or placeholders that already exist.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Conflictf builds a ConflictError from a format string.
func Conflictf(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates an entity looked up by ID does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// PartialWriteError reports a batch in which some per-entity writes failed.
// Writes that succeeded are not rolled back.
type PartialWriteError struct {
	Operation string
	Succeeded int
	Failed    int
	FailedIDs []string
	Cause     error
}

func (e *PartialWriteError) Error() string {
	msg := fmt.Sprintf("%s: %d succeeded, %d failed", e.Operation, e.Succeeded, e.Failed)
	if len(e.FailedIDs) > 0 {
		msg += " (" + strings.Join(e.FailedIDs, ", ") + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PartialWriteError) Unwrap() error {
	return e.Cause
}

// IsInput reports whether err is an InputError.
func IsInput(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsPartialWrite reports whether err is a PartialWriteError.
func IsPartialWrite(err error) bool {
	var target *PartialWriteError
	return errors.As(err, &target)
}

// IsClassified reports whether err is one of the typed failure kinds.
func IsClassified(err error) bool {
	return IsInput(err) || IsConflict(err) || IsNotFound(err) || IsPartialWrite(err)
}
