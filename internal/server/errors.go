// Package server provides the HTTP admin API of the grading engine.
package server

import (
	"net/http"

	"github.com/jonathan/recruit-grader/internal/types"
)

// HTTPStatus returns the appropriate HTTP status code for an error.
// A partial write is reported as 207: some entities were written and the
// response body carries the per-entity result.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case types.IsPartialWrite(err):
		return http.StatusMultiStatus
	case types.IsInput(err):
		return http.StatusBadRequest
	case types.IsNotFound(err):
		return http.StatusNotFound
	case types.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
