package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-grader/internal/types"
)

// testTokenValidator is a test implementation of TokenValidator for unit tests.
type testTokenValidator struct {
	validTokens map[string]types.ActorID
}

func newTestTokenValidator() *testTokenValidator {
	return &testTokenValidator{validTokens: make(map[string]types.ActorID)}
}

func (v *testTokenValidator) ValidateToken(tokenString string) (ActorGetter, error) {
	actor, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(actor), nil
}

type testClaims types.ActorID

func (c testClaims) GetActorID() types.ActorID { return types.ActorID(c) }

// actorEcho responds with the actor found in the request context.
func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActorID(r)
		if !ok {
			http.Error(w, "no actor", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(actor))
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	validator := newTestTokenValidator()
	validator.validTokens["valid-test-token-123"] = "admin-42"

	handler := AuthMiddleware(validator)(actorEcho())

	for _, header := range []string{"Bearer valid-test-token-123", "bearer valid-test-token-123", "BEARER  valid-test-token-123"} {
		req := httptest.NewRequest(http.MethodGet, "/cycles/fall-2026/workload", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, header)
		assert.Equal(t, "admin-42", rec.Body.String())
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	validator := newTestTokenValidator()
	validator.validTokens["valid"] = "admin-1"
	validator.validTokens["blank-actor"] = "  "

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"no token", "Bearer"},
		{"extra parts", "Bearer valid extra"},
		{"unknown token", "Bearer forged"},
		{"blank actor claim", "Bearer blank-actor"},
	}

	handler := AuthMiddleware(validator)(actorEcho())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cycles/fall-2026/written/assign", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGetActorID_NoActor(t *testing.T) {
	_, ok := GetActorID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
